package arena

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

var (
	// ErrAllocationTooLarge is returned when a single allocation exceeds the
	// arena's total capacity. Not retryable without a larger arena.
	ErrAllocationTooLarge = errors.New("arena: allocation exceeds capacity")
	// ErrRequiresCompaction is returned when an allocation would overlap a
	// still-live region. The arena is left unmodified and flagged for
	// compaction at the next frame boundary.
	ErrRequiresCompaction = errors.New("arena: allocation collides with live region")
)

// Ref identifies an allocation by its starting slot and the arena generation
// it was made in. A Ref from an older generation is stale: the memory behind
// it has been reclaimed by a Reset and must not be trusted.
type Ref struct {
	Gen    uint32
	Offset int
}

// allocation is one outstanding (not-yet-freed) region.
type allocation struct {
	offset int
	size   int
}

// Ring is a fixed-capacity ring buffer of records with bump-pointer
// allocation, wrap-around and liveness tracking. The record type T must be a
// plain, trivially-copyable value; the arena only ever copies it.
type Ring[T any] struct {
	memory       []T
	cursor       int          // next free slot, modulo wrap-around
	smallestUsed int          // lowest offset among live allocations, 0 when none
	live         []allocation // outstanding allocations, order-irrelevant
	occupied     *roaring.Bitmap
	needsCompact bool
	gen          uint32
}

// NewRing creates a Ring with the given fixed capacity in records.
// The capacity is never resized.
func NewRing[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("arena: capacity must be positive, got %d", capacity)
	}
	return &Ring[T]{
		memory:   make([]T, capacity),
		occupied: roaring.New(),
		gen:      1, // generation 0 marks an invalid Ref
	}, nil
}

// Alloc reserves count contiguous record slots and returns a Ref plus a slice
// aliasing arena memory. The slice is valid until the next Reset.
//
// On ErrRequiresCompaction the arena is unmodified except for the compaction
// flag, so a batch of failed allocations can be retried cleanly after the
// next frame boundary.
func (r *Ring[T]) Alloc(count int) (Ref, []T, error) {
	if count <= 0 {
		return Ref{}, nil, fmt.Errorf("arena: count must be positive, got %d", count)
	}
	if count > len(r.memory) {
		return Ref{}, nil, ErrAllocationTooLarge
	}

	offset := r.cursor
	if offset+count > len(r.memory) {
		// Wrap: the candidate region restarts at slot 0.
		offset = 0
	}

	// After a wrap the cursor sits below surviving pre-wrap allocations, so a
	// cheap cursor-vs-smallestUsed comparison is not enough: the candidate
	// must be checked against every live region.
	if r.overlapsLive(offset, count) {
		r.needsCompact = true
		return Ref{}, nil, ErrRequiresCompaction
	}

	r.live = append(r.live, allocation{offset: offset, size: count})
	r.occupied.AddRange(uint64(offset), uint64(offset+count))
	if len(r.live) == 1 || offset < r.smallestUsed {
		r.smallestUsed = offset
	}
	r.cursor = offset + count

	return Ref{Gen: r.gen, Offset: offset}, r.memory[offset : offset+count : offset+count], nil
}

// overlapsLive reports whether [offset, offset+count) intersects any
// outstanding allocation. O(n) in live allocations; n is bounded by
// allocations-per-frame and expected to be small.
func (r *Ring[T]) overlapsLive(offset, count int) bool {
	for _, a := range r.live {
		if offset < a.offset+a.size && a.offset < offset+count {
			return true
		}
	}
	return false
}

// Free removes the outstanding allocation starting at offset. Freeing an
// unknown offset is a no-op apart from a defensive recompute of the liveness
// watermark.
func (r *Ring[T]) Free(offset int) {
	for i, a := range r.live {
		if a.offset != offset {
			continue
		}
		r.live[i] = r.live[len(r.live)-1]
		r.live = r.live[:len(r.live)-1]
		r.occupied.RemoveRange(uint64(a.offset), uint64(a.offset+a.size))
		if a.offset != r.smallestUsed {
			return
		}
		break
	}
	r.recomputeSmallestUsed()
}

func (r *Ring[T]) recomputeSmallestUsed() {
	smallest := 0
	for i, a := range r.live {
		if i == 0 || a.offset < smallest {
			smallest = a.offset
		}
	}
	r.smallestUsed = smallest
}

// Reset unconditionally discards all outstanding allocations and rewinds the
// cursor. Memory is not zeroed. The generation is bumped so Refs handed out
// before the Reset resolve to nil.
func (r *Ring[T]) Reset() {
	r.cursor = 0
	r.smallestUsed = 0
	r.live = r.live[:0]
	r.occupied.Clear()
	r.needsCompact = false
	r.gen++
}

// Resolve re-derives the live slice for a previous allocation without
// re-allocating. It returns nil when ref is stale (older generation) or the
// requested range exceeds capacity; callers treat nil as "re-derive now".
func (r *Ring[T]) Resolve(ref Ref, count int) []T {
	if ref.Gen != r.gen || count <= 0 {
		return nil
	}
	if ref.Offset < 0 || ref.Offset+count > len(r.memory) {
		return nil
	}
	return r.memory[ref.Offset : ref.Offset+count : ref.Offset+count]
}

// NeedsCompaction reports whether a previous Alloc collided with live records.
// Cleared only by Reset.
func (r *Ring[T]) NeedsCompaction() bool {
	return r.needsCompact
}

// Generation returns the current arena generation.
func (r *Ring[T]) Generation() uint32 {
	return r.gen
}

// Used returns the current write cursor in records.
func (r *Ring[T]) Used() int {
	return r.cursor
}

// Capacity returns the total record slots in the arena.
func (r *Ring[T]) Capacity() int {
	return len(r.memory)
}

// LiveCount returns the number of outstanding allocations.
func (r *Ring[T]) LiveCount() int {
	return len(r.live)
}

// LiveSlots returns the number of record slots covered by outstanding
// allocations.
func (r *Ring[T]) LiveSlots() uint64 {
	return r.occupied.GetCardinality()
}

func (r *Ring[T]) String() string {
	return fmt.Sprintf(
		"Ring{capacity: %d, cursor: %d, live: %d, slots: %d, gen: %d, compact: %t}",
		len(r.memory), r.cursor, len(r.live), r.occupied.GetCardinality(), r.gen, r.needsCompact,
	)
}
