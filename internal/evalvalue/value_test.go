package evalvalue

import "testing"

func TestDimLen(t *testing.T) {
	cases := []struct {
		d    Dim
		want int64
	}{
		{Dim{Left: 0, Right: 3, Descending: false}, 4},
		{Dim{Left: 3, Right: 0, Descending: true}, 4},
		{Dim{Left: 3, Right: 0, Descending: false}, 0}, // null range, ascending
		{Dim{Left: 0, Right: 3, Descending: true}, 0},  // null range, descending
	}
	for _, c := range cases {
		if got := c.d.Len(); got != c.want {
			t.Errorf("Dim(%+v).Len() = %d, want %d", c.d, got, c.want)
		}
	}
}

func TestCompareSameKind(t *testing.T) {
	cmp, ok := Compare(Int(3), Int(5))
	if !ok || cmp >= 0 {
		t.Fatalf("Compare(3,5) = %d,%v", cmp, ok)
	}
	cmp, ok = Compare(Real(1.5), Real(1.5))
	if !ok || cmp != 0 {
		t.Fatalf("Compare(1.5,1.5) = %d,%v", cmp, ok)
	}
}

func TestCompareMixedKindsNotOK(t *testing.T) {
	if _, ok := Compare(Int(1), Real(1)); ok {
		t.Fatal("Compare(int, real) should report ok=false")
	}
}

func TestEqual(t *testing.T) {
	eq, ok := Equal(Int(4), Int(4))
	if !ok || !eq {
		t.Fatalf("Equal(4,4) = %v,%v", eq, ok)
	}
}
