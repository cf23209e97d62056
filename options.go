package descpool

import (
	"time"

	"github.com/hupe1980/descpool/resource"
)

const (
	// DefaultFramesInFlight matches the common triple-buffered swapchain.
	DefaultFramesInFlight = 3

	// DefaultCapacityPerFrame is the default record count per frame arena.
	DefaultCapacityPerFrame = 1024

	// defaultWarnInterval throttles collision warnings so an undersized
	// arena cannot flood the log at frame rate.
	defaultWarnInterval = time.Second
)

type options struct {
	framesInFlight int
	logger         *Logger
	metrics        MetricsCollector
	budget         *resource.Controller
	warnInterval   time.Duration
}

// Option configures Pool construction behavior.
type Option func(*options)

func defaultOptions() options {
	return options{
		framesInFlight: DefaultFramesInFlight,
		logger:         NoopLogger(),
		metrics:        NoopMetricsCollector{},
		warnInterval:   defaultWarnInterval,
	}
}

// WithFramesInFlight sets the number of frame slots (N rotating arenas).
// Match this to the renderer's frames-in-flight count. Default: 3.
func WithFramesInFlight(n int) Option {
	return func(o *options) {
		o.framesInFlight = n
	}
}

// WithLogger sets the structured logger for operation tracing.
// Pass nil to disable logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics sets the metrics collector for monitoring.
// Pass nil to disable metrics collection.
func WithMetrics(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithMemoryBudget charges the pool's backing memory against a shared
// resource controller. New fails with ErrMemoryBudgetExceeded when the
// controller cannot cover N * capacity * record-size bytes; Close releases
// the reservation.
func WithMemoryBudget(c *resource.Controller) Option {
	return func(o *options) {
		o.budget = c
	}
}

// WithWarnInterval sets the minimum interval between logged collision and
// frame-index warnings. Default: 1s.
func WithWarnInterval(d time.Duration) Option {
	return func(o *options) {
		o.warnInterval = d
	}
}
