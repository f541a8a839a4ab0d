package lowering

import (
	"testing"

	"nvcfold/internal/ir"
)

func TestStubRegisterAndLower(t *testing.T) {
	s := NewStub()
	u := ir.NewBuilder("f", ir.UnitFunction).Build()
	s.Register("f", u)

	got, err := s.LowerUnit("f")
	if err != nil || got != u {
		t.Fatalf("LowerUnit(f) = %v,%v, want the registered unit", got, err)
	}
}

func TestStubLowerUnitMissing(t *testing.T) {
	s := NewStub()
	if _, err := s.LowerUnit("missing"); err == nil {
		t.Fatal("LowerUnit should fail for an unregistered name")
	}
}

func TestStubLowerThunkAlwaysFails(t *testing.T) {
	s := NewStub()
	if _, err := s.LowerThunk("f", nil); err == nil {
		t.Fatal("stub LowerThunk should always fail")
	}
}
