// Package descpool provides a frame-pooled ring allocator for transient
// GPU-resource descriptor records.
//
// A real-time renderer hands out short-lived, per-frame batches of fixed-size
// descriptor records (each describing a bindable resource such as a texture
// view plus its sampler and layout state) without a heap allocation per
// frame. The pool owns one fixed-capacity ring arena per frame-in-flight
// slot; allocation is bump-pointer with wrap-around, and a collision with
// still-live records is recovered by a full arena reset at the next frame
// boundary.
//
// # Quick Start
//
//	type TextureDescriptor struct {
//	    View    uint64
//	    Sampler uint32
//	    Layout  uint32
//	}
//
//	pool, _ := descpool.New[TextureDescriptor](1024)
//
//	// Once per frame, for the slot whose prior GPU work has retired:
//	pool.BeginFrame(frame)
//
//	ref, live, err := pool.Allocate(frame, records)
//	if errors.Is(err, descpool.ErrRequiresCompaction) {
//	    // Fall back to stale bindings; the arena compacts at the next
//	    // BeginFrame for this slot.
//	}
//
//	// Re-resolve later sub-steps of the same frame:
//	live = pool.DescriptorsAt(frame, ref, len(records))
//	if live == nil {
//	    // Stale ref (the arena compacted): re-derive and re-allocate.
//	}
//
// # Caller Contract
//
// The pool is synchronous and lock-free; all calls for a given frame slot
// must come from the single thread building that frame's bindings. A slot may
// only be written again once the GPU work referencing its previous cycle has
// retired — the pool consumes a frame index and assumes that fence exists
// outside it. Slices returned by Allocate and DescriptorsAt alias arena
// memory and are invalid after the next BeginFrame for the same slot.
package descpool
