package descpool

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/time/rate"

	"github.com/hupe1980/descpool/internal/arena"
	"github.com/hupe1980/descpool/resource"
)

// Ref identifies an allocation within a frame slot. It pairs the stable
// record offset with the arena generation it was allocated in, so a ref
// cached across a compaction is detected as stale instead of silently
// resolving to reused memory.
//
// The zero Ref is never valid.
type Ref struct {
	Gen    uint32
	Offset int
}

// FrameStats is an introspection snapshot of one frame slot's arena.
type FrameStats struct {
	Used            int    // write cursor in records
	Capacity        int    // total record slots
	LiveAllocations int    // outstanding allocations
	LiveSlots       uint64 // record slots covered by outstanding allocations
	Generation      uint32
	NeedsCompaction bool
}

// Pool owns one ring arena per frame-in-flight slot and routes allocation,
// free and resolve requests to the arena for a given frame index.
//
// All methods are synchronous and lock-free; see the package documentation
// for the single-writer-per-slot contract.
type Pool[T any] struct {
	arenas  []*arena.Ring[T]
	logger  *Logger
	metrics MetricsCollector

	budget   *resource.Controller
	reserved int64

	warnLimiter *rate.Limiter
}

// New creates a Pool with the given per-frame arena capacity in records.
//
//	pool, err := descpool.New[TextureDescriptor](1024,
//	    descpool.WithFramesInFlight(2),
//	    descpool.WithMemoryBudget(budget),
//	)
func New[T any](capacityPerFrame int, opts ...Option) (*Pool[T], error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	if capacityPerFrame <= 0 {
		return nil, fmt.Errorf("%w: capacity per frame %d", ErrInvalidCapacity, capacityPerFrame)
	}
	if o.framesInFlight <= 0 {
		return nil, fmt.Errorf("%w: frames in flight %d", ErrInvalidCapacity, o.framesInFlight)
	}

	var reserved int64
	if o.budget != nil {
		recordSize := int64(unsafe.Sizeof(*new(T)))
		reserved = int64(o.framesInFlight) * int64(capacityPerFrame) * recordSize
		if !o.budget.TryAcquireMemory(reserved) {
			return nil, fmt.Errorf("%w: need %d bytes, %d in use",
				ErrMemoryBudgetExceeded, reserved, o.budget.MemoryUsage())
		}
	}

	arenas := make([]*arena.Ring[T], o.framesInFlight)
	for i := range arenas {
		ring, err := arena.NewRing[T](capacityPerFrame)
		if err != nil {
			if o.budget != nil {
				o.budget.ReleaseMemory(reserved)
			}
			return nil, err
		}
		arenas[i] = ring
	}

	return &Pool[T]{
		arenas:      arenas,
		logger:      o.logger,
		metrics:     o.metrics,
		budget:      o.budget,
		reserved:    reserved,
		warnLimiter: rate.NewLimiter(rate.Every(o.warnInterval), 1),
	}, nil
}

// FramesInFlight returns the number of frame slots.
func (p *Pool[T]) FramesInFlight() int {
	return len(p.arenas)
}

// BeginFrame prepares a frame slot for a new cycle. If the slot's arena was
// flagged by a collision during a previous cycle it is compacted (fully
// reset) here, invalidating every Ref handed out for the slot.
//
// Call exactly once before the first allocation of each frame cycle, and only
// after the slot's prior GPU work has retired.
func (p *Pool[T]) BeginFrame(frame int) {
	if !p.validFrame(frame, "begin_frame") {
		return
	}

	ring := p.arenas[frame]
	if !ring.NeedsCompaction() {
		return
	}

	ring.Reset()
	p.metrics.RecordCompaction(frame)
	p.logger.LogCompaction(frame, ring.Generation())
}

// Allocate copies records into the frame slot's arena and returns a Ref plus
// the live slice. The caller's records buffer may be reused immediately.
//
// ErrRequiresCompaction means the request collided with still-live records;
// the arena is untouched and will compact at the next BeginFrame for the
// slot. ErrAllocationTooLarge means the batch can never fit this pool.
// An out-of-range frame or empty batch is a no-op returning a zero Ref.
func (p *Pool[T]) Allocate(frame int, records []T) (Ref, []T, error) {
	if !p.validFrame(frame, "allocate") {
		return Ref{}, nil, nil
	}
	if len(records) == 0 {
		return Ref{}, nil, nil
	}

	ref, dst, err := p.arenas[frame].Alloc(len(records))
	if err != nil {
		err = translateError(err)
		p.metrics.RecordAllocate(len(records), err)
		if errors.Is(err, ErrRequiresCompaction) && p.warnLimiter.Allow() {
			p.logger.LogAllocate(frame, len(records), err)
		}
		return Ref{}, nil, err
	}

	copy(dst, records)
	p.metrics.RecordAllocate(len(records), nil)

	return Ref(ref), dst, nil
}

// Free releases a previously-allocated batch within the same frame cycle,
// e.g. when bindings are rebuilt after a resource changed. It is best-effort:
// an out-of-range frame or a ref staled by compaction is a no-op, matching
// the teardown paths that free whatever they still hold.
func (p *Pool[T]) Free(frame int, ref Ref) {
	if !p.validFrame(frame, "free") {
		return
	}

	ring := p.arenas[frame]
	if ref.Gen != ring.Generation() {
		return
	}

	ring.Free(ref.Offset)
	p.metrics.RecordFree()
}

// DescriptorsAt re-resolves a previous allocation into a live slice without
// re-allocating, for callers that cache the ref across sub-steps of the same
// frame. It returns nil when the frame is out of range, the range exceeds
// capacity, or the ref's generation is stale — the signal to re-derive and
// re-allocate rather than trust old data.
func (p *Pool[T]) DescriptorsAt(frame int, ref Ref, count int) []T {
	if !p.validFrame(frame, "descriptors_at") {
		return nil
	}

	out := p.arenas[frame].Resolve(arena.Ref(ref), count)
	if out == nil {
		p.metrics.RecordResolveMiss()
	}
	return out
}

// Usage returns the write cursor and capacity of a frame slot's arena, or
// (0, 0) for an out-of-range frame. Introspection only.
func (p *Pool[T]) Usage(frame int) (used, capacity int) {
	if frame < 0 || frame >= len(p.arenas) {
		return 0, 0
	}
	return p.arenas[frame].Used(), p.arenas[frame].Capacity()
}

// Stats returns an introspection snapshot of a frame slot's arena.
// The zero FrameStats is returned for an out-of-range frame.
func (p *Pool[T]) Stats(frame int) FrameStats {
	if frame < 0 || frame >= len(p.arenas) {
		return FrameStats{}
	}

	ring := p.arenas[frame]
	return FrameStats{
		Used:            ring.Used(),
		Capacity:        ring.Capacity(),
		LiveAllocations: ring.LiveCount(),
		LiveSlots:       ring.LiveSlots(),
		Generation:      ring.Generation(),
		NeedsCompaction: ring.NeedsCompaction(),
	}
}

// Close releases the pool's memory-budget reservation. The pool must not be
// used afterwards.
func (p *Pool[T]) Close() error {
	if p == nil {
		return nil
	}
	if p.budget != nil && p.reserved > 0 {
		p.budget.ReleaseMemory(p.reserved)
		p.reserved = 0
	}
	return nil
}

// validFrame bounds-checks a frame index. Misuse is made harmless: it is
// logged (throttled) and the operation degrades to a no-op.
func (p *Pool[T]) validFrame(frame int, op string) bool {
	if frame >= 0 && frame < len(p.arenas) {
		return true
	}
	if p.warnLimiter.Allow() {
		p.logger.LogInvalidFrame(op, frame, len(p.arenas))
	}
	return false
}
