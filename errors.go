package descpool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/descpool/internal/arena"
)

var (
	// ErrAllocationTooLarge is returned when a single batch exceeds the
	// arena's total capacity. Not retryable without a larger pool.
	ErrAllocationTooLarge = errors.New("descpool: allocation exceeds arena capacity")

	// ErrRequiresCompaction is returned when an allocation would overlap
	// still-live records. The arena compacts at the next BeginFrame for the
	// slot; callers should treat the current frame's bindings as stale and
	// retry next cycle.
	ErrRequiresCompaction = errors.New("descpool: arena requires compaction")

	// ErrInvalidCapacity is returned by New for a non-positive capacity or
	// frames-in-flight count.
	ErrInvalidCapacity = errors.New("descpool: invalid capacity")

	// ErrMemoryBudgetExceeded is returned by New when the configured
	// resource.Controller cannot cover the pool's backing memory.
	ErrMemoryBudgetExceeded = errors.New("descpool: memory budget exceeded")
)

// translateError maps internal arena sentinels onto the public error
// contract, preserving the original error for errors.Unwrap.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, arena.ErrAllocationTooLarge) {
		return fmt.Errorf("%w: %w", ErrAllocationTooLarge, err)
	}
	if errors.Is(err, arena.ErrRequiresCompaction) {
		return fmt.Errorf("%w: %w", ErrRequiresCompaction, err)
	}

	return err
}
