// Package fold implements the public entry point: the
// syntactic pre-filter, per-call Session bookkeeping, and scalar-literal
// reification that wraps internal/eval's recursive interpreter.
package fold

import (
	"github.com/google/uuid"

	"nvcfold/internal/diag"
	"nvcfold/internal/eval"
	"nvcfold/internal/evalvalue"
	"nvcfold/internal/heap"
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

// Options is eval.Options. Fold applies the NVC_EVAL_VERBOSE override
// (eval.Options.ApplyVerboseEnv) once per call, so the op handlers never
// consult env vars or CLI flags directly.
type Options = eval.Options

// Session identifies one root Fold call and everything it recursively
// evaluates, for log correlation across a build that may be folding many
// call sites concurrently.
type Session struct {
	ID string
}

// NewSession mints a session with a fresh correlation id.
func NewSession() Session {
	return Session{ID: uuid.NewString()}
}

// Callsite is the syntactic information fold's pre-filter inspects before
// ever invoking the evaluator: the unit to evaluate, the call site's
// bookmark, and — for the conservative *fold* pre-filter — whether each
// argument is itself the result of a scalar-returning nested call.
type Callsite struct {
	Unit          *ir.Unit
	Bookmark      ir.Bookmark
	ArgIsCallExpr []bool // one entry per call-site argument; true if that argument is itself a call
}

// EvalErrors returns the process-wide error counter: the number of
// Error/Fatal diagnostics reported so far across every fold sharing this
// counter.
func EvalErrors(c *diag.Counter) int64 {
	return c.Count()
}

// Fold attempts to constant-fold one call site down to a scalar literal
// value. It returns ok=false whenever the call cannot be folded for any
// fold-preventing reason: impure callee, non-scalar result type, the
// conservative *fold* pre-filter, heap exhaustion, an unresolvable nested
// scope, or an op-specific failure. Source-diagnosable and fatal errors
// are reported through rep as they occur; a fatal error panics as a
// *diag.FatalError internally and is recovered here, converted into
// ok=false so one malformed call site cannot crash an entire build.
func Fold(cs Callsite, h *heap.Arena, rep *diag.Reporter, resolver eval.Resolver, opts Options, sess Session) (v evalvalue.Value, ok bool) {
	opts = opts.ApplyVerboseEnv()

	// Step 1: syntactic pre-flight.
	if !cs.Unit.Pure {
		if opts.Warn {
			rep.Warn(bookmarkLoc(cs.Bookmark), sess.ID, "callee %q has observable side effects, not folding", cs.Unit.Name)
		}
		return evalvalue.Value{}, false
	}
	if !cs.Unit.ResultType.IsScalar() {
		if opts.Warn {
			rep.Warn(bookmarkLoc(cs.Bookmark), sess.ID, "callee %q does not return a scalar type, not folding", cs.Unit.Name)
		}
		return evalvalue.Value{}, false
	}
	if opts.Fold {
		// Reject conservatively, with no attempt to distinguish "this
		// nested call would itself have folded" from "it wouldn't have,
		// for an unrelated reason" — avoids an infinite-rewrite-loop risk.
		for _, isCall := range cs.ArgIsCallExpr {
			if isCall {
				if opts.Warn {
					rep.Warn(bookmarkLoc(cs.Bookmark), sess.ID, "argument is itself a scalar-returning call, not folding under *fold*")
				}
				return evalvalue.Value{}, false
			}
		}
	}

	result, ok := evalOne(cs, h, rep, resolver, opts, sess)
	if !ok {
		return evalvalue.Value{}, false
	}
	if opts.Verbose {
		rep.Note(bookmarkLoc(cs.Bookmark), sess.ID, "folded %q to %s", cs.Unit.Name, result)
	}
	return result, true
}

// evalOne runs the callee to completion, recovering a *diag.FatalError
// into a plain failure so Fold never panics across the library boundary.
func evalOne(cs Callsite, h *heap.Arena, rep *diag.Reporter, resolver eval.Resolver, opts Options, sess Session) (v evalvalue.Value, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isFatal := r.(*diag.FatalError); isFatal {
				ok = false
				return
			}
			panic(r)
		}
	}()

	e := eval.New(h, rep, resolver, opts, sess.ID)
	ctx, ctxOK := scope.New(cs.Unit, 0, h)
	if !ctxOK {
		if opts.Warn {
			rep.Warn(bookmarkLoc(cs.Bookmark), sess.ID, h.ExhaustedMessage(0))
		}
		return evalvalue.Value{}, false
	}
	return e.Run(ctx, 0, cs.Bookmark)
}

func bookmarkLoc(b ir.Bookmark) diag.Location {
	return diag.Location{File: b.File, Line: b.Line, Column: b.Column}
}
