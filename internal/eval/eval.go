// Package eval implements the IR interpreter core: op dispatch, and the
// arithmetic/logical, memory, control-flow, bounds/check, call-machinery,
// and image-op handlers. Each call runs its own recursive, per-call
// sub-virtual-machine.
package eval

import (
	"os"

	"nvcfold/internal/diag"
	"nvcfold/internal/heap"
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

// MaxBlockVisits bounds runaway IR loops: once a single fold hits this
// many block dispatches it aborts rather than spin forever.
const MaxBlockVisits = 1 << 16

// MaxCallDepth bounds runaway recursive fcall chains, chosen generously
// relative to MaxBlockVisits since every call frame itself burns block
// visits on top of this.
const MaxCallDepth = 512

// Options is the evaluator's flag set.
type Options struct {
	Fold    bool // skip calls whose args are themselves scalar-returning calls
	Fcall   bool // permit descending into function calls
	Bounds  bool // report bounds violations as errors
	Warn    bool // emit warnings when folding is prevented
	Report  bool // permit folding through assert/report
	Verbose bool // log each fold
	Lower   bool // not consulted: library.Cache lowers a unit on every miss regardless
}

// ApplyVerboseEnv forces Verbose+Warn+Bounds when NVC_EVAL_VERBOSE is set
// in the environment, for the duration of the process.
func (o Options) ApplyVerboseEnv() Options {
	if _, set := os.LookupEnv("NVC_EVAL_VERBOSE"); set {
		o.Verbose = true
		o.Warn = true
		o.Bounds = true
	}
	return o
}

// Resolver is the call machinery's view of the library/lowering
// collaborators: resolving a callee unit by name, on demand, possibly by
// asking a persisted library store to load and (if fresh) JIT-lower it.
type Resolver interface {
	// Lookup resolves name to a unit, loading it on demand if necessary.
	// ok=false means the fold must abort.
	Lookup(name string) (*ir.Unit, bool)
}

// Evaluator owns the resources shared across one root evaluation and all
// of its nested callee evaluations: the heap arena, the diagnostic
// reporter (and its shared error counter), the unit resolver, and the
// block-visit quota.
type Evaluator struct {
	Heap     *heap.Arena
	Diag     *diag.Reporter
	Resolver Resolver
	Opts     Options
	Session  string // correlation id, see internal/fold.Session

	blockVisits int
	callDepth   int
}

// New constructs an Evaluator for one root evaluation.
func New(h *heap.Arena, d *diag.Reporter, r Resolver, opts Options, session string) *Evaluator {
	return &Evaluator{Heap: h, Diag: d, Resolver: r, Opts: opts, Session: session}
}

// State carries the evaluation fields that must survive a control-flow
// jump within one frame (the current context is threaded explicitly as a
// parameter instead — see the package doc in internal/scope for why).
type State struct {
	Result   int // index of the return register; -1 means "none yet"
	Failed   bool
	Bookmark ir.Bookmark // originating call-site syntax node, for diagnostics
}

func loc(b ir.Bookmark) diag.Location {
	return diag.Location{File: b.File, Line: b.Line, Column: b.Column}
}

// MaterializeParent implements scope.ParentMaterializer: resolves the
// enclosing unit by name and runs its block 0 to initialize its variables.
func (e *Evaluator) MaterializeParent(unit *ir.Unit, h *heap.Arena) (*scope.Context, bool) {
	parentUnit, ok := e.Resolver.Lookup(unit.Parent)
	if !ok {
		return nil, false
	}
	parentDepth := 0
	pc, ok := scope.New(parentUnit, parentDepth, h)
	if !ok {
		return nil, false
	}
	st := &State{Result: -1}
	e.run(pc, 0, st)
	if st.Failed {
		return nil, false
	}
	return pc, true
}
