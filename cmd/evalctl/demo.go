package main

import "nvcfold/internal/ir"

// demoUnits builds the handful of self-contained example units registered
// into a fresh store/stub by `evalctl import`, standing in for a real HDL
// front end (out of scope, per the consumed Lowering API contract).
func demoUnits() map[string]*ir.Unit {
	return map[string]*ir.Unit{
		"add":    addUnit(),
		"double": doubleUnit(),
		"negate": negateUnit(),
	}
}

// addUnit: function add(a, b: integer) return integer is begin return a+b.
func addUnit() *ir.Unit {
	b := ir.NewBuilder("add", ir.UnitFunction)
	va := b.Var(ir.IntType(-1<<31, 1<<31-1), false)
	vb := b.Var(ir.IntType(-1<<31, 1<<31-1), false)
	b.Param(va)
	b.Param(vb)

	ra := b.Reg()
	rb := b.Reg()
	rsum := b.Reg()
	blk := b.Block()
	b.Emit(blk, ir.Op{Kind: ir.KLoad, Dest: ra, VarID: va})
	b.Emit(blk, ir.Op{Kind: ir.KLoad, Dest: rb, VarID: vb})
	b.Emit(blk, ir.Op{Kind: ir.KAdd, Dest: rsum, Args: []int{ra, rb}})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{rsum}})
	return b.Result(ir.IntType(-1<<31, 1<<31-1)).Build()
}

// doubleUnit: function double(n: integer) return integer is begin return n+n.
func doubleUnit() *ir.Unit {
	b := ir.NewBuilder("double", ir.UnitFunction)
	vn := b.Var(ir.IntType(-1<<31, 1<<31-1), false)
	b.Param(vn)

	rn := b.Reg()
	rsum := b.Reg()
	blk := b.Block()
	b.Emit(blk, ir.Op{Kind: ir.KLoad, Dest: rn, VarID: vn})
	b.Emit(blk, ir.Op{Kind: ir.KAdd, Dest: rsum, Args: []int{rn, rn}})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{rsum}})
	return b.Result(ir.IntType(-1<<31, 1<<31-1)).Build()
}

// negateUnit: function negate(n: integer) return integer is begin return -n.
func negateUnit() *ir.Unit {
	b := ir.NewBuilder("negate", ir.UnitFunction)
	vn := b.Var(ir.IntType(-1<<31, 1<<31-1), false)
	b.Param(vn)

	rn := b.Reg()
	rneg := b.Reg()
	blk := b.Block()
	b.Emit(blk, ir.Op{Kind: ir.KLoad, Dest: rn, VarID: vn})
	b.Emit(blk, ir.Op{Kind: ir.KNeg, Dest: rneg, Args: []int{rn}})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{rneg}})
	return b.Result(ir.IntType(-1<<31, 1<<31-1)).Build()
}

// callerUnit builds a synthetic, pure, zero-parameter unit that loads args
// as constants and calls callee by name — the shape fold.Fold expects at
// the top level — exercising the real fcall machinery (internal/eval's
// execFcall, via the Resolver) instead of a bespoke argument-binding path.
func callerUnit(calleeName string, args []int64) *ir.Unit {
	b := ir.NewBuilder("evalctl.caller."+calleeName, ir.UnitFunction)
	argRegs := make([]int, len(args))
	blk := b.Block()
	for i, v := range args {
		argRegs[i] = b.Reg()
		b.Emit(blk, ir.Op{Kind: ir.KConst, Dest: argRegs[i], ImmInt: v})
	}
	result := b.Reg()
	b.Emit(blk, ir.Op{Kind: ir.KFcall, Dest: result, Args: argRegs, FuncName: calleeName})
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{result}})
	return b.Result(ir.IntType(-1<<31, 1<<31-1)).Build()
}
