package eval

import (
	"fmt"
	"strconv"

	"nvcfold/internal/evalvalue"
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

// realImageDigits matches C's DBL_DIG+3 (15+3) significant digits, the
// traditional VHDL 'IMAGE precision for a real value that round-trips
// through decimal without losing information.
const realImageDigits = 18

// execImage renders a scalar value as a VHDL 'IMAGE string:
// Integer as decimal, Enum as its literal identifier, Real in general
// format to realImageDigits significant digits, Physical as a decimal
// magnitude followed by its base unit. The result is built as a 1-D
// ascending UArray of Integer-tagged character codes, mirroring how a
// string literal is itself represented in this value model. An
// unsupported source type is an IR structural violation: the lowering
// pass should never emit an image op over a type kind the evaluator
// cannot render.
func (e *Evaluator) execImage(ctx *scope.Context, op ir.Op, st *State) {
	v := ctx.Regs[op.Args[0]]

	var text string
	switch op.TypeAttr.Kind {
	case ir.TInteger:
		text = strconv.FormatInt(v.Int(), 10)
	case ir.TEnum:
		lits := op.TypeAttr.EnumLiterals
		ord := v.Int()
		if ord < 0 || int(ord) >= len(lits) {
			e.Diag.Fatal(loc(op.Bookmark), e.Session, "enum ordinal %d out of range for 'IMAGE", ord)
			return
		}
		text = lits[ord]
	case ir.TReal:
		text = strconv.FormatFloat(v.RealVal(), 'g', realImageDigits, 64)
	case ir.TPhysical:
		text = fmt.Sprintf("%d %s", v.Int(), op.TypeAttr.BaseUnit)
	default:
		e.Diag.Fatal(loc(op.Bookmark), e.Session, "'IMAGE is not defined for type kind %v", op.TypeAttr.Kind)
		return
	}

	off, ok := e.Heap.Alloc(len(text))
	if !ok {
		if e.Opts.Warn {
			e.Diag.Warn(loc(op.Bookmark), e.Session, e.Heap.ExhaustedMessage(len(text)))
		}
		st.Failed = true
		return
	}
	for i := 0; i < len(text); i++ {
		e.Heap.Set(off+i, evalvalue.Int(int64(text[i])))
	}
	dim := evalvalue.Dim{Left: 1, Right: int64(len(text)), Descending: false}
	ctx.Regs[op.Dest] = evalvalue.UArray(off, []evalvalue.Dim{dim})
}
