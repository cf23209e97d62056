package descpool

import (
	"sync/atomic"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAllocate is called after each allocation attempt.
	// count is the number of records requested, err is nil if successful.
	RecordAllocate(count int, err error)

	// RecordFree is called after each successful free.
	RecordFree()

	// RecordCompaction is called when a frame slot's arena is reset at a
	// frame boundary.
	RecordCompaction(frame int)

	// RecordResolveMiss is called when a cached ref fails to resolve
	// (stale generation or out-of-bounds).
	RecordResolveMiss()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAllocate(int, error) {}
func (NoopMetricsCollector) RecordFree()               {}
func (NoopMetricsCollector) RecordCompaction(int)      {}
func (NoopMetricsCollector) RecordResolveMiss()        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AllocateCount   atomic.Int64
	AllocateRecords atomic.Int64
	AllocateErrors  atomic.Int64
	FreeCount       atomic.Int64
	CompactionCount atomic.Int64
	ResolveMisses   atomic.Int64
}

// RecordAllocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAllocate(count int, err error) {
	b.AllocateCount.Add(1)
	if err != nil {
		b.AllocateErrors.Add(1)
		return
	}
	b.AllocateRecords.Add(int64(count))
}

// RecordFree implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFree() {
	b.FreeCount.Add(1)
}

// RecordCompaction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompaction(int) {
	b.CompactionCount.Add(1)
}

// RecordResolveMiss implements MetricsCollector.
func (b *BasicMetricsCollector) RecordResolveMiss() {
	b.ResolveMisses.Add(1)
}
