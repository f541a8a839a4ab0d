package eval

import (
	"nvcfold/internal/evalvalue"
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

// Run executes ctx starting at startBlock until a return op, a check
// failure, or an exhausted budget ends the frame. It is iterative rather
// than recursive across block selections; the only recursion left is one
// Go call frame per nested fcall, which is inherently stack-shaped and
// bounded by MaxCallDepth.
func (e *Evaluator) Run(ctx *scope.Context, startBlock int, bookmark ir.Bookmark) (evalvalue.Value, bool) {
	st := &State{Result: -1, Bookmark: bookmark}
	e.run(ctx, startBlock, st)
	if st.Failed || st.Result < 0 {
		return evalvalue.Value{}, false
	}
	return ctx.Regs[st.Result], true
}

// run is the dispatch loop proper; it mutates st in place and leaves
// st.Result set (or st.Failed) when it returns.
func (e *Evaluator) run(ctx *scope.Context, startBlock int, st *State) {
	block := startBlock
	for {
		e.blockVisits++
		if e.blockVisits > MaxBlockVisits {
			e.Diag.Warn(loc(st.Bookmark), e.Session, "evaluation exceeded %d block selections, aborting fold", MaxBlockVisits)
			st.Failed = true
			return
		}

		ops := ctx.Unit.Blocks[block].Ops
		next, halt := e.runBlock(ctx, ops, st)
		if halt {
			return
		}
		block = next
	}
}

// runBlock executes one block's ops in order. It returns the next block
// to select and halt=false, or halt=true once a return/failure ends the
// frame.
func (e *Evaluator) runBlock(ctx *scope.Context, ops []ir.Op, st *State) (next int, halt bool) {
	for _, op := range ops {
		switch op.Kind {
		case ir.KComment, ir.KHeapSave, ir.KHeapRestore:
			continue

		case ir.KConst:
			e.execConst(ctx, op)

		case ir.KAdd, ir.KSub, ir.KMul, ir.KDiv, ir.KMod, ir.KRem, ir.KNeg, ir.KAbs, ir.KExp:
			e.execArith(ctx, op, st)

		case ir.KCmp:
			e.execCmp(ctx, op, st)

		case ir.KAnd, ir.KOr, ir.KNot:
			e.execLogical(ctx, op)

		case ir.KCast:
			e.execCast(ctx, op, st)

		case ir.KSelect:
			e.execSelect(ctx, op)

		case ir.KConstArray:
			e.execConstArray(ctx, op, st)
		case ir.KWrap:
			e.execWrap(ctx, op, st)
		case ir.KUnwrap:
			e.execUnwrap(ctx, op)
		case ir.KLoad:
			e.execLoad(ctx, op, st)
		case ir.KStore:
			e.execStore(ctx, op, st)
		case ir.KLoadIndirect:
			e.execLoadIndirect(ctx, op)
		case ir.KStoreIndirect:
			e.execStoreIndirect(ctx, op)
		case ir.KIndex:
			e.execIndex(ctx, op)
		case ir.KCopy:
			e.execCopy(ctx, op)
		case ir.KAlloca:
			e.execAlloca(ctx, op, st)
		case ir.KMemCmp:
			e.execMemCmp(ctx, op)
		case ir.KUarrayLen, ir.KUarrayLeft, ir.KUarrayRight, ir.KUarrayDir:
			e.execUarrayAttr(ctx, op)

		case ir.KJump:
			return op.Targets[0], false
		case ir.KCond:
			target := op.Targets[1]
			if ctx.Regs[op.Args[0]].Int() != 0 {
				target = op.Targets[0]
			}
			return target, false
		case ir.KCase:
			return e.execCase(ctx, op), false
		case ir.KReturn:
			st.Result = op.Args[0]
			return 0, true

		case ir.KBoundsStatic:
			e.execBoundsStatic(ctx, op, st)
		case ir.KBoundsDynamic:
			e.execBoundsDynamic(ctx, op, st)
		case ir.KIndexCheck:
			e.execIndexCheck(ctx, op, st)
		case ir.KAssert:
			e.execAssert(ctx, op, st)
		case ir.KReport:
			e.execReport(ctx, op, st)
		case ir.KUndefined:
			e.Diag.Warn(loc(op.Bookmark), e.Session, "reference to undefined value")
			st.Failed = true

		case ir.KFcall:
			e.execFcall(ctx, op, st)
		case ir.KNestedFcall:
			// A closure-bearing nested call is never folded: the fold
			// always aborts here.
			if e.Opts.Warn {
				e.Diag.Warn(loc(op.Bookmark), e.Session, "nested function calls are not supported for constant folding")
			}
			st.Failed = true

		case ir.KImage:
			e.execImage(ctx, op, st)

		default:
			e.Diag.Warn(loc(op.Bookmark), e.Session, "unsupported opcode %s", op.Kind)
			st.Failed = true
		}

		if st.Failed {
			return 0, true
		}
	}
	// Falling off the end of a block with no control-flow op is an IR
	// structural violation: every block must end in jump/cond/case/return.
	e.Diag.Fatal(loc(st.Bookmark), e.Session, "block fell through without a control-flow instruction")
	return 0, true
}

func (e *Evaluator) execConst(ctx *scope.Context, op ir.Op) {
	if op.ImmIsReal {
		ctx.Regs[op.Dest] = evalvalue.Real(op.ImmReal)
	} else {
		ctx.Regs[op.Dest] = evalvalue.Int(op.ImmInt)
	}
}
