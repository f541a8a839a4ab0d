package eval

import (
	"testing"

	"nvcfold/internal/evalvalue"
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

func TestExecConstArrayAndIndex(t *testing.T) {
	e, _ := newTestEvaluator(Options{}, stubResolver{})
	b := ir.NewBuilder("f", ir.UnitFunction)
	e0, e1, e2 := b.Reg(), b.Reg(), b.Reg()
	arr := b.Reg()
	left, right := b.Reg(), b.Reg()
	wrapped := b.Reg()
	idx := b.Reg()
	ptr := b.Reg()
	result := b.Reg()
	blk := b.Block()
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: e0, ImmInt: 10})
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: e1, ImmInt: 20})
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: e2, ImmInt: 30})
	b.Emit(blk, ir.Op{Kind: ir.KConstArray, Dest: arr, Args: []int{e0, e1, e2}})
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: left, ImmInt: 0})
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: right, ImmInt: 2})
	b.Emit(blk, ir.Op{Kind: ir.KWrap, Dest: wrapped, Args: []int{arr}, NDims: 1,
		WrapLeft: []int{left}, WrapRight: []int{right}, WrapDir: []ir.Direction{ir.Ascending}})
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: idx, ImmInt: 1})
	b.Emit(blk, ir.Op{Kind: ir.KIndex, Dest: ptr, Args: []int{wrapped, idx}, Dim: 0})
	b.Emit(blk, ir.Op{Kind: ir.KLoadIndirect, Dest: result, Args: []int{ptr}})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{result}})
	u := b.Build()

	ctx, _ := scope.New(u, 0, e.Heap)
	v, ok := e.Run(ctx, 0, ir.Bookmark{})
	if !ok || v.Int() != 20 {
		t.Fatalf("index into const array = %v,%v, want 20,true", v, ok)
	}
}

func TestExecUarrayAttrLen(t *testing.T) {
	e, _ := newTestEvaluator(Options{}, stubResolver{})
	b := ir.NewBuilder("f", ir.UnitFunction)
	base := b.Reg()
	left, right := b.Reg(), b.Reg()
	wrapped := b.Reg()
	length := b.Reg()
	blk := b.Block()
	b.Emit(blk, ir.Op{Kind: ir.KAlloca, Dest: base, ImmInt: 5})
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: left, ImmInt: 10})
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: right, ImmInt: 14})
	b.Emit(blk, ir.Op{Kind: ir.KWrap, Dest: wrapped, Args: []int{base}, NDims: 1,
		WrapLeft: []int{left}, WrapRight: []int{right}, WrapDir: []ir.Direction{ir.Ascending}})
	b.Emit(blk, ir.Op{Kind: ir.KUarrayLen, Dest: length, Args: []int{wrapped}, Dim: 0})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{length}})
	u := b.Build()

	ctx, _ := scope.New(u, 0, e.Heap)
	v, ok := e.Run(ctx, 0, ir.Bookmark{})
	if !ok || v.Int() != 5 {
		t.Fatalf("'length = %v,%v, want 5,true", v, ok)
	}
}

func TestExecStoreLoadRoundTrip(t *testing.T) {
	b := ir.NewBuilder("f", ir.UnitFunction)
	b.Result(ir.IntType(0, 100))
	varID := b.Var(ir.IntType(0, 100), false)
	val := b.Reg()
	loaded := b.Reg()
	blk := b.Block()
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: val, ImmInt: 55})
	b.Emit(blk, ir.Op{Kind: ir.KStore, Args: []int{val}, VarID: varID})
	b.Emit(blk, ir.Op{Kind: ir.KLoad, Dest: loaded, VarID: varID})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{loaded}})
	u := b.Build()

	e, _ := newTestEvaluator(Options{}, stubResolver{})
	ctx, _ := scope.New(u, 0, e.Heap)
	v, ok := e.Run(ctx, 0, ir.Bookmark{})
	if !ok || v.Int() != 55 {
		t.Fatalf("store/load round trip = %v,%v, want 55,true", v, ok)
	}
}

func TestExecMemCmpEqual(t *testing.T) {
	e, _ := newTestEvaluator(Options{}, stubResolver{})
	ctx, _ := scope.New(ir.NewBuilder("f", ir.UnitFunction).Build(), 0, e.Heap)
	aOff, _ := e.Heap.Alloc(2)
	bOff, _ := e.Heap.Alloc(2)
	e.Heap.Set(aOff, evalvalue.Int(1))
	e.Heap.Set(aOff+1, evalvalue.Int(2))
	e.Heap.Set(bOff, evalvalue.Int(1))
	e.Heap.Set(bOff+1, evalvalue.Int(2))
	ctx.Regs = []evalvalue.Value{evalvalue.Ptr(aOff), evalvalue.Ptr(bOff), {}}
	e.execMemCmp(ctx, ir.Op{Kind: ir.KMemCmp, Dest: 2, Args: []int{0, 1}, ImmInt: 2})
	if ctx.Regs[2].Int() != 1 {
		t.Fatalf("memcmp of equal runs = %v, want 1", ctx.Regs[2])
	}
}

func TestExecMemCmpUnequal(t *testing.T) {
	e, _ := newTestEvaluator(Options{}, stubResolver{})
	ctx, _ := scope.New(ir.NewBuilder("f", ir.UnitFunction).Build(), 0, e.Heap)
	aOff, _ := e.Heap.Alloc(2)
	bOff, _ := e.Heap.Alloc(2)
	e.Heap.Set(aOff, evalvalue.Int(1))
	e.Heap.Set(aOff+1, evalvalue.Int(2))
	e.Heap.Set(bOff, evalvalue.Int(1))
	e.Heap.Set(bOff+1, evalvalue.Int(99))
	ctx.Regs = []evalvalue.Value{evalvalue.Ptr(aOff), evalvalue.Ptr(bOff), {}}
	e.execMemCmp(ctx, ir.Op{Kind: ir.KMemCmp, Dest: 2, Args: []int{0, 1}, ImmInt: 2})
	if ctx.Regs[2].Int() != 0 {
		t.Fatalf("memcmp of unequal runs = %v, want 0", ctx.Regs[2])
	}
}
