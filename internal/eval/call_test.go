package eval

import (
	"testing"

	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

// doubleUnit builds `function double(n integer) return integer is begin
// return n + n; end`.
func doubleUnit() *ir.Unit {
	b := ir.NewBuilder("double", ir.UnitFunction)
	b.Result(ir.IntType(0, 1000))
	n := b.Var(ir.IntType(0, 1000), false)
	b.Param(n)
	nReg := b.Reg()
	sumReg := b.Reg()
	blk := b.Block()
	b.Emit(blk, ir.Op{Kind: ir.KLoad, Dest: nReg, VarID: n})
	b.Emit(blk, ir.Op{Kind: ir.KAdd, Dest: sumReg, Args: []int{nReg, nReg}})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{sumReg}})
	return b.Build()
}

func TestExecFcallBindsAndReturns(t *testing.T) {
	callee := doubleUnit()
	resolver := stubResolver{"double": callee}
	e, _ := newTestEvaluator(Options{Fcall: true}, resolver)

	b := ir.NewBuilder("caller", ir.UnitFunction)
	b.Result(ir.IntType(0, 1000))
	arg := b.Reg()
	result := b.Reg()
	blk := b.Block()
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: arg, ImmInt: 21})
	b.Emit(blk, ir.Op{Kind: ir.KFcall, Dest: result, Args: []int{arg}, FuncName: "double"})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{result}})
	u := b.Build()

	ctx, _ := scope.New(u, 0, e.Heap)
	v, ok := e.Run(ctx, 0, ir.Bookmark{})
	if !ok || v.Int() != 42 {
		t.Fatalf("fcall double(21) = %v,%v, want 42,true", v, ok)
	}
}

func TestExecFcallDisabledFails(t *testing.T) {
	callee := doubleUnit()
	resolver := stubResolver{"double": callee}
	e, _ := newTestEvaluator(Options{Fcall: false}, resolver)

	b := ir.NewBuilder("caller", ir.UnitFunction)
	arg := b.Reg()
	result := b.Reg()
	blk := b.Block()
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: arg, ImmInt: 1})
	b.Emit(blk, ir.Op{Kind: ir.KFcall, Dest: result, Args: []int{arg}, FuncName: "double"})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{result}})
	u := b.Build()

	ctx, _ := scope.New(u, 0, e.Heap)
	if _, ok := e.Run(ctx, 0, ir.Bookmark{}); ok {
		t.Fatal("fcall should fail the fold when Opts.Fcall is false")
	}
}

func TestExecFcallUnresolvedCalleeFails(t *testing.T) {
	e, _ := newTestEvaluator(Options{Fcall: true}, stubResolver{})

	b := ir.NewBuilder("caller", ir.UnitFunction)
	arg := b.Reg()
	result := b.Reg()
	blk := b.Block()
	b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: arg, ImmInt: 1})
	b.Emit(blk, ir.Op{Kind: ir.KFcall, Dest: result, Args: []int{arg}, FuncName: "missing"})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{result}})
	u := b.Build()

	ctx, _ := scope.New(u, 0, e.Heap)
	if _, ok := e.Run(ctx, 0, ir.Bookmark{}); ok {
		t.Fatal("fcall to an unresolvable callee should fail the fold")
	}
}
