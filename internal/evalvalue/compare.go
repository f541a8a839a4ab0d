package evalvalue

// Compare orders a and b, returning -1/0/1 and ok=true when they share a
// comparable kind. Comparisons mixing tags return ok=false: this
// indicates an IR type violation and the caller (internal/eval) must
// treat it as a fatal error, not a fold-preventing one.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case KindInteger:
		return compareInt(a.i, b.i), true
	case KindReal:
		return compareReal(a.f, b.f), true
	case KindPointer:
		return compareInt(int64(a.ptr), int64(b.ptr)), true
	default:
		// UArray/CArray have no defined ordering.
		return 0, false
	}
}

// Equal reports whether a and b compare equal; ok mirrors Compare.
func Equal(a, b Value) (eq bool, ok bool) {
	c, ok := Compare(a, b)
	return c == 0, ok
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareReal(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
