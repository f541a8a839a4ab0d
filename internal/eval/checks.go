package eval

import (
	"nvcfold/internal/evalvalue"
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

// execBoundsStatic validates a scalar value against a range known at
// lowering time (op.TypeAttr.Low/High). A violation is source-diagnosable:
// reported as an error only when *bounds* is set, but it always aborts
// the fold regardless — constant folding a value the source's own
// subtype forbids would silently produce a wrong answer.
func (e *Evaluator) execBoundsStatic(ctx *scope.Context, op ir.Op, st *State) {
	v := ctx.Regs[op.Args[0]].Int()
	e.checkRange(op, v, op.TypeAttr.Low, op.TypeAttr.High, st)
}

// execBoundsDynamic is execBoundsStatic's counterpart for a range that is
// itself only known at evaluation time (a subtype constrained by a
// variable, not a literal): the low/high bounds are register operands.
func (e *Evaluator) execBoundsDynamic(ctx *scope.Context, op ir.Op, st *State) {
	v := ctx.Regs[op.Args[0]].Int()
	low := ctx.Regs[op.Args[1]].Int()
	high := ctx.Regs[op.Args[2]].Int()
	e.checkRange(op, v, low, high, st)
}

func (e *Evaluator) checkRange(op ir.Op, v, low, high int64, st *State) {
	if v >= low && v <= high {
		return
	}
	if e.Opts.Bounds {
		e.Diag.ErrorAt(loc(op.Bookmark), e.Session, "value %d out of bounds %d to %d", v, low, high)
	}
	st.Failed = true
}

// execIndexCheck validates an array index against the indexed array's own
// bounds (its declared constrained range, or a UArray dimension's actual
// bounds) before execIndex computes the element address. Same source-diagnosable class as the scalar bounds checks.
func (e *Evaluator) execIndexCheck(ctx *scope.Context, op ir.Op, st *State) {
	arr := ctx.Regs[op.Args[0]]
	index := ctx.Regs[op.Args[1]].Int()

	var low, high int64
	if arr.Kind() == evalvalue.KindUArray {
		d := arr.Dims()[op.Dim]
		if d.Descending {
			low, high = d.Right, d.Left
		} else {
			low, high = d.Left, d.Right
		}
	} else {
		low, high = op.TypeAttr.Low, op.TypeAttr.High
	}
	e.checkRange(op, index, low, high, st)
}

// execAssert evaluates a VHDL assert statement: the condition register
// decides whether the assertion held. A failed assertion below error
// severity is fold-preventing, not an error in the source — it is only
// surfaced (as a note/warning) when *warn* is set, the same gate used
// for every other silently-aborted fold. Severity error or failure is
// source-diagnosable: it is reported under *report* and always aborts
// the fold regardless of either flag.
func (e *Evaluator) execAssert(ctx *scope.Context, op ir.Op, st *State) {
	if ctx.Regs[op.Args[0]].Int() != 0 {
		return
	}
	e.reportSeverity(op, st, true)
}

// execReport is execAssert's unconditional form (a bare VHDL report
// statement): it always fires, and unlike assert, every severity is
// source-diagnosable — a report statement the evaluator discards is an
// observable side effect, not a mere inability to fold.
func (e *Evaluator) execReport(ctx *scope.Context, op ir.Op, st *State) {
	e.reportSeverity(op, st, false)
}

// reportSeverity emits op's message, if gated flags allow it, and marks
// the current evaluation failed. assertSeverityGated distinguishes
// execAssert's below-error severities (gated by *warn*, never counted)
// from everything else (gated by *report*, counted at error severity).
func (e *Evaluator) reportSeverity(op ir.Op, st *State, assertSeverityGated bool) {
	if assertSeverityGated && (op.Severity == ir.SevNote || op.Severity == ir.SevWarning) {
		if e.Opts.Warn {
			if op.Severity == ir.SevNote {
				e.Diag.Note(loc(op.Bookmark), e.Session, "%s", op.Message)
			} else {
				e.Diag.Warn(loc(op.Bookmark), e.Session, "%s", op.Message)
			}
		}
		st.Failed = true
		return
	}

	if e.Opts.Report {
		switch op.Severity {
		case ir.SevNote:
			e.Diag.Note(loc(op.Bookmark), e.Session, "%s", op.Message)
		case ir.SevWarning:
			e.Diag.Warn(loc(op.Bookmark), e.Session, "%s", op.Message)
		default:
			e.Diag.ErrorAt(loc(op.Bookmark), e.Session, "%s", op.Message)
		}
	}
	st.Failed = true
}
