// Package heap implements the evaluator's fixed-capacity bump allocator:
// a contiguous run of evalvalue.Value slots, handed out by bumping a
// high-water mark, never compacted, never freed mid-evaluation. It is
// shared by a root evaluation and every nested callee evaluation
// descended from it, so pointers handed back through returns remain
// valid; it is released wholesale when the root evaluation finishes.
// This is genuinely domain logic with an exact, deliberate failure mode
// on exhaustion, not an ambient concern a generic library could own.
package heap

import (
	"github.com/dustin/go-humanize"

	"nvcfold/internal/evalvalue"
)

// Capacity is the fixed evaluation heap size: 4096 bytes.
const Capacity = 4096

// SlotSize is the per-Value-slot byte cost charged against Capacity.
// Allocation is always in whole slots.
const SlotSize = 8

// MaxSlots is the number of Value-slots the arena can ever hold.
const MaxSlots = Capacity / SlotSize

// Arena is a bump-pointer allocator over a fixed-size slice of Values.
// The backing buffer is materialized lazily on first use.
type Arena struct {
	slots []evalvalue.Value
	water int
	cap   int
}

// New constructs an Arena with the default EVAL_HEAP capacity.
func New() *Arena {
	return &Arena{cap: MaxSlots}
}

// Alloc reserves n contiguous Value-slots, zero-initialized to Integer 0,
// and returns the offset of the first one. If water+n exceeds capacity, it
// returns (0, false) without mutating state — the caller sets its Failed
// flag and the fold aborts.
func (a *Arena) Alloc(n int) (offset int, ok bool) {
	if n < 0 {
		return 0, false
	}
	if a.water+n > a.cap {
		return 0, false
	}
	if a.slots == nil {
		a.slots = make([]evalvalue.Value, a.cap)
	}
	offset = a.water
	a.water += n
	return offset, true
}

// HighWater returns the current allocation high-water mark, in slots.
func (a *Arena) HighWater() int { return a.water }

// Restore advances the high-water mark to at least water. Used to
// propagate a callee's high-water mark back into the caller after a
// nested call returns — allocation is append-only so this never
// invalidates a live pointer, only adjusts where the next Alloc will
// start.
func (a *Arena) Restore(water int) {
	if water > a.water {
		a.water = water
	}
}

// Get reads the Value at offset. Callers (internal/eval) are trusted to
// keep offsets within a run they themselves allocated or were handed by a
// Pointer value; out-of-range reads panic, treating an IR producer that
// hands out an invalid pointer as a structural error, not a recoverable
// fold failure.
func (a *Arena) Get(offset int) evalvalue.Value {
	return a.slots[offset]
}

// Set writes the Value at offset.
func (a *Arena) Set(offset int, v evalvalue.Value) {
	a.slots[offset] = v
}

// Len returns the number of slots currently backing the arena (0 before
// the first Alloc).
func (a *Arena) Len() int { return len(a.slots) }

// ExhaustedMessage renders a human-facing diagnostic for heap exhaustion,
// with byte sizes formatted by go-humanize.
func (a *Arena) ExhaustedMessage(requested int) string {
	used := uint64(a.water) * SlotSize
	total := uint64(a.cap) * SlotSize
	need := uint64(requested) * SlotSize
	return "heap arena exhausted: used " + humanize.Bytes(used) + " of " + humanize.Bytes(total) +
		", requested " + humanize.Bytes(need) + " more"
}
