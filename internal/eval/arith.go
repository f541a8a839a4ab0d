package eval

import (
	"math"

	"nvcfold/internal/evalvalue"
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

// execArith handles add/sub/mul/div/mod/rem/neg/abs/exp.
// Integer add/sub/mul wrap as two's-complement 64-bit (Go's native int64
// overflow semantics already do this; this evaluator performs no
// separate overflow check). Division/remainder/modulo by an integer zero
// divisor is a fatal, source-level error, not a fold failure: the
// caller's IR should have enforced range before emitting it.
func (e *Evaluator) execArith(ctx *scope.Context, op ir.Op, st *State) {
	switch op.Kind {
	case ir.KNeg:
		a := ctx.Regs[op.Args[0]]
		if a.Kind() == evalvalue.KindReal {
			ctx.Regs[op.Dest] = evalvalue.Real(-a.RealVal())
		} else {
			ctx.Regs[op.Dest] = evalvalue.Int(-a.Int())
		}
		return
	case ir.KAbs:
		a := ctx.Regs[op.Args[0]]
		if a.Kind() == evalvalue.KindReal {
			ctx.Regs[op.Dest] = evalvalue.Real(math.Abs(a.RealVal()))
		} else {
			v := a.Int()
			if v < 0 {
				v = -v
			}
			ctx.Regs[op.Dest] = evalvalue.Int(v)
		}
		return
	case ir.KExp:
		// Real-only: pow(lhs, rhs).
		a, b := ctx.Regs[op.Args[0]], ctx.Regs[op.Args[1]]
		ctx.Regs[op.Dest] = evalvalue.Real(math.Pow(realOf(a), realOf(b)))
		return
	}

	a, b := ctx.Regs[op.Args[0]], ctx.Regs[op.Args[1]]
	if a.Kind() == evalvalue.KindReal || b.Kind() == evalvalue.KindReal {
		x, y := realOf(a), realOf(b)
		switch op.Kind {
		case ir.KAdd:
			ctx.Regs[op.Dest] = evalvalue.Real(x + y)
		case ir.KSub:
			ctx.Regs[op.Dest] = evalvalue.Real(x - y)
		case ir.KMul:
			ctx.Regs[op.Dest] = evalvalue.Real(x * y)
		case ir.KDiv:
			ctx.Regs[op.Dest] = evalvalue.Real(x / y)
		default:
			e.Diag.Fatal(loc(op.Bookmark), e.Session, "opcode %s is not defined over real operands", op.Kind)
		}
		return
	}

	x, y := a.Int(), b.Int()
	switch op.Kind {
	case ir.KAdd:
		ctx.Regs[op.Dest] = evalvalue.Int(x + y)
	case ir.KSub:
		ctx.Regs[op.Dest] = evalvalue.Int(x - y)
	case ir.KMul:
		ctx.Regs[op.Dest] = evalvalue.Int(x * y)
	case ir.KDiv:
		if y == 0 {
			e.Diag.Fatal(loc(op.Bookmark), e.Session, "division by zero")
		}
		ctx.Regs[op.Dest] = evalvalue.Int(x / y)
	case ir.KMod:
		if y == 0 {
			e.Diag.Fatal(loc(op.Bookmark), e.Session, "modulo by zero")
		}
		// Modulo result is the absolute value of the truncated remainder,
		// matching the source language's modulo semantics.
		r := x - (x/y)*y
		if r < 0 {
			r = -r
		}
		ctx.Regs[op.Dest] = evalvalue.Int(r)
	case ir.KRem:
		if y == 0 {
			e.Diag.Fatal(loc(op.Bookmark), e.Session, "remainder by zero")
		}
		ctx.Regs[op.Dest] = evalvalue.Int(x - (x/y)*y)
	default:
		e.Diag.Fatal(loc(op.Bookmark), e.Session, "unreachable arithmetic opcode %s", op.Kind)
	}
}

func realOf(v evalvalue.Value) float64 {
	if v.Kind() == evalvalue.KindReal {
		return v.RealVal()
	}
	return float64(v.Int())
}

// execCmp handles the six comparison sub-kinds over the three comparable
// kinds. A tag mismatch is a programming error that aborts
// the whole compilation.
func (e *Evaluator) execCmp(ctx *scope.Context, op ir.Op, st *State) {
	a, b := ctx.Regs[op.Args[0]], ctx.Regs[op.Args[1]]
	c, ok := evalvalue.Compare(a, b)
	if !ok {
		e.Diag.Fatal(loc(op.Bookmark), e.Session, "comparison between incompatible value kinds %s and %s", a.Kind(), b.Kind())
		return
	}
	var result bool
	switch op.Cmp {
	case ir.CmpEq:
		result = c == 0
	case ir.CmpNeq:
		result = c != 0
	case ir.CmpLt:
		result = c < 0
	case ir.CmpLeq:
		result = c <= 0
	case ir.CmpGt:
		result = c > 0
	case ir.CmpGeq:
		result = c >= 0
	}
	ctx.Regs[op.Dest] = boolValue(result)
}

func boolValue(b bool) evalvalue.Value {
	if b {
		return evalvalue.Int(1)
	}
	return evalvalue.Int(0)
}

// execLogical handles and/or/not over integer truth values.
func (e *Evaluator) execLogical(ctx *scope.Context, op ir.Op) {
	switch op.Kind {
	case ir.KNot:
		a := ctx.Regs[op.Args[0]].Int()
		ctx.Regs[op.Dest] = boolValue(a == 0)
	case ir.KAnd:
		a, b := ctx.Regs[op.Args[0]].Int(), ctx.Regs[op.Args[1]].Int()
		ctx.Regs[op.Dest] = boolValue(a != 0 && b != 0)
	case ir.KOr:
		a, b := ctx.Regs[op.Args[0]].Int(), ctx.Regs[op.Args[1]].Int()
		ctx.Regs[op.Dest] = boolValue(a != 0 || b != 0)
	}
}

// execCast converts between kinds per the op's TypeAttr:
// int<->int is value-preserving (our Integer is already a single int64,
// so this is an identity), real->int truncates toward zero, int->real
// widens, real->real is an identity. Any other source/target combination
// is a structural IR violation.
func (e *Evaluator) execCast(ctx *scope.Context, op ir.Op, st *State) {
	a := ctx.Regs[op.Args[0]]
	switch {
	case a.Kind() == evalvalue.KindInteger && (op.TypeAttr.Kind == ir.TInteger || op.TypeAttr.Kind == ir.TEnum || op.TypeAttr.Kind == ir.TPhysical):
		ctx.Regs[op.Dest] = a // value-preserving
	case a.Kind() == evalvalue.KindReal && op.TypeAttr.Kind == ir.TInteger:
		ctx.Regs[op.Dest] = evalvalue.Int(int64(math.Trunc(a.RealVal())))
	case a.Kind() == evalvalue.KindInteger && op.TypeAttr.Kind == ir.TReal:
		ctx.Regs[op.Dest] = evalvalue.Real(float64(a.Int()))
	case a.Kind() == evalvalue.KindReal && op.TypeAttr.Kind == ir.TReal:
		ctx.Regs[op.Dest] = a
	default:
		e.Diag.Fatal(loc(op.Bookmark), e.Session, "unsupported cast from %s to type kind %v", a.Kind(), op.TypeAttr.Kind)
	}
}

// execSelect is the ternary op: chooses left if test is nonzero else
// right.
func (e *Evaluator) execSelect(ctx *scope.Context, op ir.Op) {
	test := ctx.Regs[op.Args[0]].Int()
	if test != 0 {
		ctx.Regs[op.Dest] = ctx.Regs[op.Args[1]]
	} else {
		ctx.Regs[op.Dest] = ctx.Regs[op.Args[2]]
	}
}
