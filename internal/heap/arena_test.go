package heap

import (
	"testing"

	"nvcfold/internal/evalvalue"
)

func TestAllocBumpsWater(t *testing.T) {
	a := New()
	off, ok := a.Alloc(3)
	if !ok || off != 0 {
		t.Fatalf("Alloc(3) = %d,%v", off, ok)
	}
	if a.HighWater() != 3 {
		t.Fatalf("HighWater() = %d, want 3", a.HighWater())
	}
	off2, ok := a.Alloc(2)
	if !ok || off2 != 3 {
		t.Fatalf("second Alloc(2) = %d,%v, want 3,true", off2, ok)
	}
}

func TestAllocExhaustion(t *testing.T) {
	a := New()
	if _, ok := a.Alloc(MaxSlots + 1); ok {
		t.Fatal("Alloc beyond capacity should fail")
	}
	if a.HighWater() != 0 {
		t.Fatalf("failed Alloc must not mutate water, got %d", a.HighWater())
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	a := New()
	off, _ := a.Alloc(1)
	a.Set(off, evalvalue.Int(42))
	if got := a.Get(off); got.Kind() != evalvalue.KindInteger || got.Int() != 42 {
		t.Fatalf("Get(off) = %v, want Int(42)", got)
	}
}

func TestRestoreNeverRegresses(t *testing.T) {
	a := New()
	a.Alloc(5)
	a.Restore(2) // lower than current water: no-op
	if a.HighWater() != 5 {
		t.Fatalf("Restore(2) regressed water to %d", a.HighWater())
	}
	a.Restore(10)
	if a.HighWater() != 10 {
		t.Fatalf("Restore(10) = %d, want 10", a.HighWater())
	}
}
