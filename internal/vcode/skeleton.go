package vcode

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	hir "nvcfold/internal/ir"
)

// buildSkeleton constructs a real LLVM module mirroring u's block/op
// structure and renders it to text. It is best-effort: any shape this
// encoder does not expect (a malformed builder-produced unit, an op
// referencing a register from outside the simple "defined earlier in
// this block" case this encoder tracks) is recovered rather than
// propagated, since the JSON sidecar in vcode.go remains the sole
// source of truth for Decode.
func buildSkeleton(u *hir.Unit) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			text, ok = "", false
		}
	}()

	m := ir.NewModule()
	params := make([]*ir.Param, len(u.Params))
	for i := range u.Params {
		params[i] = ir.NewParam(fmt.Sprintf("p%d", i), types.I64)
	}
	fn := m.NewFunc(sanitizeIdent(u.Name), types.I64, params...)

	blocks := make([]*ir.Block, len(u.Blocks))
	for i := range u.Blocks {
		blocks[i] = fn.NewBlock(fmt.Sprintf("b%d", i))
	}

	intrinsics := map[hir.Kind]*ir.Func{}
	intrinsic := func(k hir.Kind) *ir.Func {
		if f, ok := intrinsics[k]; ok {
			return f
		}
		f := m.NewFunc("hdlfold.op."+k.String(), types.I64)
		f.Sig.Variadic = true
		intrinsics[k] = f
		return f
	}

	zero := constant.NewInt(types.I64, 0)

	for bi, blk := range u.Blocks {
		cur := blocks[bi]
		regVal := map[int]value.Value{}
		valueOf := func(reg int) value.Value {
			if v, ok := regVal[reg]; ok {
				return v
			}
			return zero
		}

		var term bool
		for _, op := range blk.Ops {
			switch op.Kind {
			case hir.KJump:
				cur.NewBr(blocks[op.Targets[0]])
				term = true
			case hir.KReturn:
				var ret value.Value = zero
				if len(op.Args) > 0 {
					ret = valueOf(op.Args[0])
				}
				cur.NewRet(ret)
				term = true
			case hir.KCond:
				cond := valueOf(op.Args[0])
				cur.NewCondBr(cond, blocks[op.Targets[0]], blocks[op.Targets[1]])
				term = true
			case hir.KCase:
				sel := valueOf(op.Args[0])
				deflt := blocks[op.Targets[len(op.Targets)-1]]
				var cases []*ir.Case
				for i, v := range op.CaseValues {
					cases = append(cases, ir.NewCase(constant.NewInt(types.I64, v), blocks[op.Targets[i]]))
				}
				cur.NewSwitch(sel, deflt, cases...)
				term = true
			default:
				var args []value.Value
				for _, a := range op.Args {
					args = append(args, valueOf(a))
				}
				call := cur.NewCall(intrinsic(op.Kind), args...)
				if op.Dest >= 0 {
					regVal[op.Dest] = call
				}
			}
			if term {
				break
			}
		}
		if !term {
			cur.NewRet(zero)
		}
	}

	return m.String(), true
}

func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "unit"
	}
	return b.String()
}
