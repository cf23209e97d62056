package arena

import (
	"testing"
)

type testRecord struct {
	View    uint64
	Sampler uint32
	Layout  uint32
}

func TestRing_New(t *testing.T) {
	t.Run("valid capacity", func(t *testing.T) {
		r, err := NewRing[testRecord](8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Capacity() != 8 {
			t.Errorf("expected capacity=8, got %d", r.Capacity())
		}
		if r.Used() != 0 {
			t.Errorf("expected cursor=0, got %d", r.Used())
		}
		if r.Generation() != 1 {
			t.Errorf("expected generation=1, got %d", r.Generation())
		}
	})

	t.Run("invalid capacity", func(t *testing.T) {
		for _, capacity := range []int{0, -1} {
			if _, err := NewRing[testRecord](capacity); err == nil {
				t.Errorf("capacity=%d: expected error", capacity)
			}
		}
	})
}

func TestRing_Alloc(t *testing.T) {
	t.Run("fresh arena", func(t *testing.T) {
		r, _ := NewRing[testRecord](16)

		ref, slice, err := r.Alloc(5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ref.Offset != 0 {
			t.Errorf("expected offset=0, got %d", ref.Offset)
		}
		if ref.Gen != 1 {
			t.Errorf("expected gen=1, got %d", ref.Gen)
		}
		if len(slice) != 5 {
			t.Errorf("expected len=5, got %d", len(slice))
		}
		if r.Used() != 5 {
			t.Errorf("expected cursor=5, got %d", r.Used())
		}
	})

	t.Run("invalid count", func(t *testing.T) {
		r, _ := NewRing[testRecord](16)

		for _, count := range []int{0, -3} {
			if _, _, err := r.Alloc(count); err == nil {
				t.Errorf("count=%d: expected error", count)
			}
		}
	})

	t.Run("too large for any state", func(t *testing.T) {
		r, _ := NewRing[testRecord](8)

		if _, _, err := r.Alloc(9); err != ErrAllocationTooLarge {
			t.Errorf("expected ErrAllocationTooLarge, got %v", err)
		}
		// Full capacity in one allocation is fine.
		if _, _, err := r.Alloc(8); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		r.Reset()
		r.Free(0) // no-op on empty arena
		if _, _, err := r.Alloc(100); err != ErrAllocationTooLarge {
			t.Errorf("expected ErrAllocationTooLarge, got %v", err)
		}
	})

	t.Run("sequential regions are disjoint", func(t *testing.T) {
		r, _ := NewRing[testRecord](32)

		type region struct{ offset, size int }
		var regions []region
		for _, count := range []int{4, 8, 2, 6, 12} {
			ref, _, err := r.Alloc(count)
			if err != nil {
				t.Fatalf("alloc(%d): %v", count, err)
			}
			for _, prev := range regions {
				if ref.Offset < prev.offset+prev.size && prev.offset < ref.Offset+count {
					t.Errorf("region [%d,%d) overlaps [%d,%d)",
						ref.Offset, ref.Offset+count, prev.offset, prev.offset+prev.size)
				}
			}
			regions = append(regions, region{ref.Offset, count})
		}
		if got := r.LiveSlots(); got != 32 {
			t.Errorf("expected 32 live slots, got %d", got)
		}
	})
}

func TestRing_WrapAround(t *testing.T) {
	t.Run("wraps to zero when nothing is live", func(t *testing.T) {
		r, _ := NewRing[testRecord](8)

		refA, _, err := r.Alloc(6)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		r.Free(refA.Offset)

		refB, _, err := r.Alloc(5) // 6+5 > 8, must wrap
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if refB.Offset != 0 {
			t.Errorf("expected wrap to offset=0, got %d", refB.Offset)
		}
		if r.Used() != 5 {
			t.Errorf("expected cursor=5, got %d", r.Used())
		}
	})

	t.Run("wrap collides with live region", func(t *testing.T) {
		r, _ := NewRing[testRecord](8)

		refA, _, _ := r.Alloc(3) // [0,3)
		_, _, _ = r.Alloc(3)     // [3,6) stays live
		r.Free(refA.Offset)

		_, _, err := r.Alloc(4) // 6+4 > 8; wrapped [0,4) overlaps [3,6)
		if err != ErrRequiresCompaction {
			t.Fatalf("expected ErrRequiresCompaction, got %v", err)
		}
		if !r.NeedsCompaction() {
			t.Error("expected needs-compaction flag")
		}
		// Failed allocation must not leave partial state behind.
		if r.Used() != 6 {
			t.Errorf("expected cursor unchanged at 6, got %d", r.Used())
		}
		if r.LiveCount() != 1 {
			t.Errorf("expected 1 live allocation, got %d", r.LiveCount())
		}
	})

	t.Run("post-wrap cursor collides with pre-wrap survivor", func(t *testing.T) {
		r, _ := NewRing[testRecord](8)

		refA, _, _ := r.Alloc(3) // [0,3)
		_, _, _ = r.Alloc(3)     // [3,6) stays live
		r.Free(refA.Offset)

		refC, _, err := r.Alloc(3) // wraps into [0,3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if refC.Offset != 0 {
			t.Errorf("expected offset=0, got %d", refC.Offset)
		}

		// Cursor is now 3, directly below the pre-wrap survivor at [3,6).
		_, _, err = r.Alloc(2)
		if err != ErrRequiresCompaction {
			t.Fatalf("expected ErrRequiresCompaction, got %v", err)
		}
	})
}

func TestRing_Free(t *testing.T) {
	t.Run("recomputes smallest live offset", func(t *testing.T) {
		r, _ := NewRing[testRecord](32)

		refs := make([]Ref, 0, 4)
		for i := 0; i < 4; i++ {
			ref, _, err := r.Alloc(4)
			if err != nil {
				t.Fatalf("alloc %d: %v", i, err)
			}
			refs = append(refs, ref)
		}
		if r.smallestUsed != 0 {
			t.Fatalf("expected smallestUsed=0, got %d", r.smallestUsed)
		}

		r.Free(refs[0].Offset) // was the minimum
		if r.smallestUsed != 4 {
			t.Errorf("expected smallestUsed=4, got %d", r.smallestUsed)
		}

		r.Free(refs[2].Offset) // not the minimum, watermark unchanged
		if r.smallestUsed != 4 {
			t.Errorf("expected smallestUsed=4, got %d", r.smallestUsed)
		}

		r.Free(refs[1].Offset)
		if r.smallestUsed != 12 {
			t.Errorf("expected smallestUsed=12, got %d", r.smallestUsed)
		}

		r.Free(refs[3].Offset)
		if r.smallestUsed != 0 {
			t.Errorf("expected smallestUsed=0 when empty, got %d", r.smallestUsed)
		}
		if r.LiveSlots() != 0 {
			t.Errorf("expected 0 live slots, got %d", r.LiveSlots())
		}
	})

	t.Run("unknown offset is harmless", func(t *testing.T) {
		r, _ := NewRing[testRecord](8)

		_, _, _ = r.Alloc(4)
		r.Free(99)
		if r.LiveCount() != 1 {
			t.Errorf("expected 1 live allocation, got %d", r.LiveCount())
		}
		if r.smallestUsed != 0 {
			t.Errorf("expected smallestUsed=0, got %d", r.smallestUsed)
		}
	})
}

func TestRing_Reset(t *testing.T) {
	t.Run("clears state and bumps generation", func(t *testing.T) {
		r, _ := NewRing[testRecord](8)

		_, _, _ = r.Alloc(3)
		_, _, _ = r.Alloc(3)
		_, _, err := r.Alloc(4)
		if err != ErrRequiresCompaction {
			t.Fatalf("expected ErrRequiresCompaction, got %v", err)
		}

		gen := r.Generation()
		r.Reset()
		if r.Used() != 0 || r.smallestUsed != 0 || r.LiveCount() != 0 {
			t.Error("expected empty state after reset")
		}
		if r.NeedsCompaction() {
			t.Error("expected compaction flag cleared")
		}
		if r.Generation() != gen+1 {
			t.Errorf("expected generation=%d, got %d", gen+1, r.Generation())
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		r, _ := NewRing[testRecord](8)

		_, _, _ = r.Alloc(5)
		r.Reset()
		r.Reset()
		if r.Used() != 0 || r.smallestUsed != 0 || r.LiveCount() != 0 {
			t.Error("expected empty state after double reset")
		}
	})
}

func TestRing_Resolve(t *testing.T) {
	r, _ := NewRing[testRecord](8)

	ref, slice, err := r.Alloc(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slice[0] = testRecord{View: 42, Sampler: 7, Layout: 2}

	t.Run("live ref", func(t *testing.T) {
		got := r.Resolve(ref, 3)
		if len(got) != 3 {
			t.Fatalf("expected len=3, got %d", len(got))
		}
		if got[0] != (testRecord{View: 42, Sampler: 7, Layout: 2}) {
			t.Errorf("unexpected record: %+v", got[0])
		}
	})

	t.Run("out of bounds", func(t *testing.T) {
		if got := r.Resolve(ref, 9); got != nil {
			t.Errorf("expected nil, got len=%d", len(got))
		}
		if got := r.Resolve(Ref{Gen: ref.Gen, Offset: -1}, 2); got != nil {
			t.Errorf("expected nil, got len=%d", len(got))
		}
	})

	t.Run("stale generation", func(t *testing.T) {
		r.Reset()
		if got := r.Resolve(ref, 3); got != nil {
			t.Errorf("expected nil for stale ref, got len=%d", len(got))
		}
	})
}

// The concrete end-to-end scenario: capacity 8, two allocations of 3, free the
// first, then a 4-record request that neither fits before the wrap nor after
// it, until compaction recovers the arena.
func TestRing_CompactionScenario(t *testing.T) {
	r, _ := NewRing[testRecord](8)

	refA, _, err := r.Alloc(3)
	if err != nil || refA.Offset != 0 || r.Used() != 3 {
		t.Fatalf("step 1: ref=%+v cursor=%d err=%v", refA, r.Used(), err)
	}
	refB, _, err := r.Alloc(3)
	if err != nil || refB.Offset != 3 || r.Used() != 6 {
		t.Fatalf("step 2: ref=%+v cursor=%d err=%v", refB, r.Used(), err)
	}

	r.Free(refA.Offset)
	if r.smallestUsed != 3 {
		t.Fatalf("expected smallestUsed=3, got %d", r.smallestUsed)
	}

	if _, _, err := r.Alloc(4); err != ErrRequiresCompaction {
		t.Fatalf("expected ErrRequiresCompaction, got %v", err)
	}
	if !r.NeedsCompaction() {
		t.Fatal("expected needs-compaction flag")
	}

	r.Reset()
	refC, _, err := r.Alloc(4)
	if err != nil {
		t.Fatalf("post-compaction alloc: %v", err)
	}
	if refC.Offset != 0 {
		t.Errorf("expected offset=0, got %d", refC.Offset)
	}
}

func BenchmarkRing_AllocFree(b *testing.B) {
	r, _ := NewRing[testRecord](1024)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ref, _, err := r.Alloc(16)
		if err != nil {
			r.Reset()
			continue
		}
		r.Free(ref.Offset)
	}
}

func BenchmarkRing_AllocResetCycle(b *testing.B) {
	r, _ := NewRing[testRecord](1024)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 64; j++ {
			if _, _, err := r.Alloc(16); err != nil {
				b.Fatal(err)
			}
		}
		r.Reset()
	}
}
