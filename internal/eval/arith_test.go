package eval

import (
	"testing"

	"nvcfold/internal/diag"
	"nvcfold/internal/evalvalue"
	"nvcfold/internal/ir"
	"nvcfold/internal/scope"
)

func singleOpUnit(op ir.Op, dest int, numRegs int) *ir.Unit {
	b := ir.NewBuilder("f", ir.UnitFunction)
	for i := 0; i < numRegs; i++ {
		b.Reg()
	}
	blk := b.Block()
	b.Emit(blk, op)
	b.Emit(blk, ir.Op{Kind: ir.KReturn, Args: []int{dest}})
	return b.Build()
}

func TestExecArithIntegerOps(t *testing.T) {
	e, _ := newTestEvaluator(Options{}, stubResolver{})
	u := singleOpUnit(ir.Op{Kind: ir.KAdd, Dest: 2, Args: []int{0, 1}}, 2, 3)
	ctx, _ := scope.New(u, 0, e.Heap)
	ctx.Regs[0] = evalvalue.Int(3)
	ctx.Regs[1] = evalvalue.Int(4)
	v, ok := e.Run(ctx, 0, ir.Bookmark{})
	if !ok || v.Int() != 7 {
		t.Fatalf("add: %v,%v, want 7,true", v, ok)
	}
}

func TestExecArithDivByZeroFatal(t *testing.T) {
	var fatalRec interface{}
	func() {
		defer func() { fatalRec = recover() }()
		e, _ := newTestEvaluator(Options{}, stubResolver{})
		u := singleOpUnit(ir.Op{Kind: ir.KDiv, Dest: 2, Args: []int{0, 1}}, 2, 3)
		ctx, _ := scope.New(u, 0, e.Heap)
		ctx.Regs[0] = evalvalue.Int(10)
		ctx.Regs[1] = evalvalue.Int(0)
		e.Run(ctx, 0, ir.Bookmark{})
	}()
	if _, ok := fatalRec.(*diag.FatalError); !ok {
		t.Fatalf("division by zero should panic *diag.FatalError, got %T", fatalRec)
	}
}

func TestExecArithRemSatisfiesRoundTripIdentity(t *testing.T) {
	// rem(a,b) == a-(a/b)*b
	cases := []struct{ a, b int64 }{
		{7, 3}, {-7, 3}, {7, -3}, {-7, -3}, {0, 5},
	}
	for _, c := range cases {
		e, _ := newTestEvaluator(Options{}, stubResolver{})
		u := singleOpUnit(ir.Op{Kind: ir.KRem, Dest: 2, Args: []int{0, 1}}, 2, 3)
		ctx, _ := scope.New(u, 0, e.Heap)
		ctx.Regs[0] = evalvalue.Int(c.a)
		ctx.Regs[1] = evalvalue.Int(c.b)
		v, ok := e.Run(ctx, 0, ir.Bookmark{})
		want := c.a - (c.a/c.b)*c.b
		if !ok || v.Int() != want {
			t.Fatalf("rem(%d,%d) = %v,%v, want %d,true", c.a, c.b, v, ok, want)
		}
	}
}

func TestExecArithModIsAbsoluteRemainder(t *testing.T) {
	// mod(a,b) == |a%b|, matching the source language's modulo semantics.
	cases := []struct{ a, b, want int64 }{
		{7, 3, 1}, {-7, 3, 1}, {7, -3, 1}, {-7, -3, 1}, {0, 5, 0},
	}
	for _, c := range cases {
		e, _ := newTestEvaluator(Options{}, stubResolver{})
		u := singleOpUnit(ir.Op{Kind: ir.KMod, Dest: 2, Args: []int{0, 1}}, 2, 3)
		ctx, _ := scope.New(u, 0, e.Heap)
		ctx.Regs[0] = evalvalue.Int(c.a)
		ctx.Regs[1] = evalvalue.Int(c.b)
		v, ok := e.Run(ctx, 0, ir.Bookmark{})
		if !ok || v.Int() != c.want {
			t.Fatalf("mod(%d,%d) = %v,%v, want %d,true", c.a, c.b, v, ok, c.want)
		}
	}
}

func TestExecCmpMismatchedKindsFatal(t *testing.T) {
	var fatalRec interface{}
	func() {
		defer func() { fatalRec = recover() }()
		e, _ := newTestEvaluator(Options{}, stubResolver{})
		u := singleOpUnit(ir.Op{Kind: ir.KCmp, Dest: 2, Args: []int{0, 1}, Cmp: ir.CmpEq}, 2, 3)
		ctx, _ := scope.New(u, 0, e.Heap)
		ctx.Regs[0] = evalvalue.Int(1)
		ctx.Regs[1] = evalvalue.Real(1)
		e.Run(ctx, 0, ir.Bookmark{})
	}()
	if _, ok := fatalRec.(*diag.FatalError); !ok {
		t.Fatalf("mismatched-kind compare should panic *diag.FatalError, got %T", fatalRec)
	}
}

func TestExecCastIntToReal(t *testing.T) {
	e, _ := newTestEvaluator(Options{}, stubResolver{})
	u := singleOpUnit(ir.Op{Kind: ir.KCast, Dest: 1, Args: []int{0}, TypeAttr: ir.RealType()}, 1, 2)
	ctx, _ := scope.New(u, 0, e.Heap)
	ctx.Regs[0] = evalvalue.Int(9)
	v, ok := e.Run(ctx, 0, ir.Bookmark{})
	if !ok || v.Kind() != evalvalue.KindReal || v.RealVal() != 9 {
		t.Fatalf("cast int->real: %v,%v", v, ok)
	}
}

func TestExecSelectTernary(t *testing.T) {
	e, _ := newTestEvaluator(Options{}, stubResolver{})
	u := singleOpUnit(ir.Op{Kind: ir.KSelect, Dest: 3, Args: []int{0, 1, 2}}, 3, 4)
	ctx, _ := scope.New(u, 0, e.Heap)
	ctx.Regs[0] = evalvalue.Int(0) // false -> pick right
	ctx.Regs[1] = evalvalue.Int(111)
	ctx.Regs[2] = evalvalue.Int(222)
	v, ok := e.Run(ctx, 0, ir.Bookmark{})
	if !ok || v.Int() != 222 {
		t.Fatalf("select: %v,%v, want 222,true", v, ok)
	}
}
