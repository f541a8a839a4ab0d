package eval

import (
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

// execFcall is the call-machinery op: resolve the callee unit,
// bind caller argument registers into its declared parameters, run it to
// completion sharing this evaluation's heap arena, and propagate its
// return value back into Dest. The heap is shared and append-only, so
// there is no separate "free" step — the callee's temporaries simply
// remain allocated for the rest of the root evaluation's lifetime.
func (e *Evaluator) execFcall(ctx *scope.Context, op ir.Op, st *State) {
	if !e.Opts.Fcall {
		if e.Opts.Warn {
			e.Diag.Warn(loc(op.Bookmark), e.Session, "function call folding is disabled")
		}
		st.Failed = true
		return
	}
	if e.callDepth >= MaxCallDepth {
		e.Diag.Warn(loc(op.Bookmark), e.Session, "call depth exceeded %d, aborting fold", MaxCallDepth)
		st.Failed = true
		return
	}

	callee, ok := e.Resolver.Lookup(op.FuncName)
	if !ok {
		if e.Opts.Warn {
			e.Diag.Warn(loc(op.Bookmark), e.Session, "cannot resolve callee %q", op.FuncName)
		}
		st.Failed = true
		return
	}

	calleeCtx, ok := scope.New(callee, ctx.Depth+1, e.Heap)
	if !ok {
		if e.Opts.Warn {
			e.Diag.Warn(loc(op.Bookmark), e.Session, e.Heap.ExhaustedMessage(0))
		}
		st.Failed = true
		return
	}

	if len(op.Args) != len(callee.Params) {
		e.Diag.Fatal(loc(op.Bookmark), e.Session, "callee %q declares %d parameters, call site supplies %d", op.FuncName, len(callee.Params), len(op.Args))
		return
	}
	for i, varID := range callee.Params {
		calleeCtx.SetVar(0, varID, ctx.Regs[op.Args[i]], e, e.Heap)
	}

	e.callDepth++
	calleeSt := &State{Result: -1, Bookmark: op.Bookmark}
	e.run(calleeCtx, 0, calleeSt)
	e.callDepth--

	if calleeSt.Failed {
		st.Failed = true
		return
	}
	if calleeSt.Result < 0 {
		e.Diag.Fatal(loc(op.Bookmark), e.Session, "callee %q returned without a result", op.FuncName)
		return
	}
	ctx.Regs[op.Dest] = calleeCtx.Regs[calleeSt.Result]
}
