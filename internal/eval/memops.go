package eval

import (
	"nvcfold/internal/evalvalue"
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

// execConstArray materializes a literal array into the heap arena: each
// Arg register already holds one element value, in order; the result is
// a CArray descriptor over the freshly allocated run. Heap exhaustion is
// a fold-preventing failure, not fatal — a constant array that is merely
// too large for the heap arena does not indicate a malformed IR.
func (e *Evaluator) execConstArray(ctx *scope.Context, op ir.Op, st *State) {
	n := len(op.Args)
	off, ok := e.Heap.Alloc(n)
	if !ok {
		if e.Opts.Warn {
			e.Diag.Warn(loc(op.Bookmark), e.Session, e.Heap.ExhaustedMessage(n))
		}
		st.Failed = true
		return
	}
	for i, reg := range op.Args {
		e.Heap.Set(off+i, ctx.Regs[reg])
	}
	ctx.Regs[op.Dest] = evalvalue.CArray(off)
}

// execWrap builds an unconstrained-array descriptor from a base
// pointer/CArray register plus NDims bound triples: each dimension's
// left/right bound registers and ascending/descending attribute. NDims
// beyond ir.MaxDims is a fold-preventing failure, not a panic — the
// caller (lowering) is trusted to respect MaxDims, but a malformed thunk
// loaded from a stale persisted unit should not crash the process.
func (e *Evaluator) execWrap(ctx *scope.Context, op ir.Op, st *State) {
	if op.NDims > ir.MaxDims || op.NDims != len(op.WrapLeft) || op.NDims != len(op.WrapRight) || op.NDims != len(op.WrapDir) {
		if e.Opts.Warn {
			e.Diag.Warn(loc(op.Bookmark), e.Session, "wrap exceeds maximum dimension count %d", ir.MaxDims)
		}
		st.Failed = true
		return
	}
	base := ctx.Regs[op.Args[0]]
	dims := make([]evalvalue.Dim, op.NDims)
	for i := 0; i < op.NDims; i++ {
		dims[i] = evalvalue.Dim{
			Left:       ctx.Regs[op.WrapLeft[i]].Int(),
			Right:      ctx.Regs[op.WrapRight[i]].Int(),
			Descending: op.WrapDir[i] == ir.Descending,
		}
	}
	ctx.Regs[op.Dest] = evalvalue.UArray(base.Offset(), dims)
}

// execUnwrap strips a UArray descriptor down to its base pointer, the
// inverse of wrap.
func (e *Evaluator) execUnwrap(ctx *scope.Context, op ir.Op) {
	a := ctx.Regs[op.Args[0]]
	ctx.Regs[op.Dest] = evalvalue.Ptr(a.Offset())
}

// execLoad reads a named variable, walking VarDepth parent links as
// needed. A failed walk (extern var, or a failed parent materialization)
// is fold-preventing.
func (e *Evaluator) execLoad(ctx *scope.Context, op ir.Op, st *State) {
	v, ok := ctx.Var(op.VarDepth, op.VarID, e, e.Heap)
	if !ok {
		if e.Opts.Warn {
			e.Diag.Warn(loc(op.Bookmark), e.Session, "cannot resolve variable across scope boundary")
		}
		st.Failed = true
		return
	}
	ctx.Regs[op.Dest] = v
}

// execStore writes a named variable.
func (e *Evaluator) execStore(ctx *scope.Context, op ir.Op, st *State) {
	ok := ctx.SetVar(op.VarDepth, op.VarID, ctx.Regs[op.Args[0]], e, e.Heap)
	if !ok {
		if e.Opts.Warn {
			e.Diag.Warn(loc(op.Bookmark), e.Session, "cannot resolve variable across scope boundary")
		}
		st.Failed = true
	}
}

// execLoadIndirect dereferences a Pointer register, optionally offset by
// an index register, reading directly from the heap arena.
func (e *Evaluator) execLoadIndirect(ctx *scope.Context, op ir.Op) {
	base := ctx.Regs[op.Args[0]].Offset()
	idx := int64(0)
	if len(op.Args) > 1 {
		idx = ctx.Regs[op.Args[1]].Int()
	}
	ctx.Regs[op.Dest] = e.Heap.Get(base + int(idx))
}

// execStoreIndirect is the write counterpart of execLoadIndirect.
func (e *Evaluator) execStoreIndirect(ctx *scope.Context, op ir.Op) {
	base := ctx.Regs[op.Args[0]].Offset()
	val := ctx.Regs[op.Args[1]]
	idx := int64(0)
	if len(op.Args) > 2 {
		idx = ctx.Regs[op.Args[2]].Int()
	}
	e.Heap.Set(base+int(idx), val)
}

// execIndex computes the element pointer for array[index] without
// dereferencing it: the address-of step that index-check ops
// validate before a load/store-indirect actually touches the arena.
func (e *Evaluator) execIndex(ctx *scope.Context, op ir.Op) {
	arr := ctx.Regs[op.Args[0]]
	index := ctx.Regs[op.Args[1]].Int()

	base := arr.Offset()
	if arr.Kind() == evalvalue.KindUArray {
		dims := arr.Dims()
		d := dims[op.Dim]
		var pos int64
		if d.Descending {
			pos = d.Left - index
		} else {
			pos = index - d.Left
		}
		ctx.Regs[op.Dest] = evalvalue.Ptr(base + int(pos))
		return
	}
	ctx.Regs[op.Dest] = evalvalue.Ptr(base + int(index))
}

// execCopy does an element-wise arena-to-arena copy, used by
// aggregate assignment of constrained arrays.
func (e *Evaluator) execCopy(ctx *scope.Context, op ir.Op) {
	dst := ctx.Regs[op.Args[0]].Offset()
	src := ctx.Regs[op.Args[1]].Offset()
	n := int(op.ImmInt)
	for i := 0; i < n; i++ {
		e.Heap.Set(dst+i, e.Heap.Get(src+i))
	}
}

// execAlloca reserves a fresh run of n Value-slots on the heap for a
// temporary aggregate, zero-initialized by the arena.
func (e *Evaluator) execAlloca(ctx *scope.Context, op ir.Op, st *State) {
	n := int(op.ImmInt)
	off, ok := e.Heap.Alloc(n)
	if !ok {
		if e.Opts.Warn {
			e.Diag.Warn(loc(op.Bookmark), e.Session, e.Heap.ExhaustedMessage(n))
		}
		st.Failed = true
		return
	}
	ctx.Regs[op.Dest] = evalvalue.CArray(off)
}

// execMemCmp element-wise compares two arena runs for equality, yielding
// 1 if every one of the n pairs compares equal and 0 at the first pair
// that doesn't — the evaluator's one mechanism for array equality, since
// evalvalue.Compare itself has no ordering for UArray/CArray.
func (e *Evaluator) execMemCmp(ctx *scope.Context, op ir.Op) {
	a := ctx.Regs[op.Args[0]].Offset()
	b := ctx.Regs[op.Args[1]].Offset()
	n := int(op.ImmInt)
	equal := true
	for i := 0; i < n; i++ {
		c, ok := evalvalue.Compare(e.Heap.Get(a+i), e.Heap.Get(b+i))
		if !ok {
			e.Diag.Fatal(loc(op.Bookmark), e.Session, "memcmp over incompatible element kinds")
			return
		}
		if c != 0 {
			equal = false
			break
		}
	}
	ctx.Regs[op.Dest] = boolValue(equal)
}

// execUarrayAttr resolves the four 'length/'left/'right/'direction
// attributes of a UArray dimension.
func (e *Evaluator) execUarrayAttr(ctx *scope.Context, op ir.Op) {
	a := ctx.Regs[op.Args[0]]
	d := a.Dims()[op.Dim]
	switch op.Kind {
	case ir.KUarrayLen:
		ctx.Regs[op.Dest] = evalvalue.Int(d.Len())
	case ir.KUarrayLeft:
		ctx.Regs[op.Dest] = evalvalue.Int(d.Left)
	case ir.KUarrayRight:
		ctx.Regs[op.Dest] = evalvalue.Int(d.Right)
	case ir.KUarrayDir:
		ctx.Regs[op.Dest] = boolValue(d.Descending)
	}
}
