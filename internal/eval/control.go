package eval

import (
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

// execCase selects a block by matching the selector register against
// CaseValues in order, falling back to the trailing "others" target if
// none match. A case IR is always exhaustive (the "others"
// target exists precisely so folding a case never needs to fail).
func (e *Evaluator) execCase(ctx *scope.Context, op ir.Op) int {
	sel := ctx.Regs[op.Args[0]].Int()
	for i, v := range op.CaseValues {
		if v == sel {
			return op.Targets[i]
		}
	}
	return op.Targets[len(op.Targets)-1]
}
