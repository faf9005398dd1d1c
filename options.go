package anim

import (
	"log/slog"

	"github.com/yt-zgl/oryol-animation/internal/resource"
)

type options struct {
	logger     *Logger
	metrics    MetricsCollector
	controller *resource.Controller
	seqFactory func() Sequencer
}

// Option configures Manager construction.
type Option func(*options)

// WithLogger configures structured logging for arena operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithMemoryLimit caps the bytes the value pool may reserve. Setup fails
// when the keys+samples regions would exceed the limit.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.controller = resource.NewController(resource.Config{MemoryLimitBytes: bytes})
	}
}

// WithSequencerFactory sets the sequencer constructor used for instances
// whose setup does not carry one.
func WithSequencerFactory(factory func() Sequencer) Option {
	return func(o *options) {
		o.seqFactory = factory
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
