package anim

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordCreate is called after each create operation with the resource
	// kind ("library", "skeleton", "instance"); err is nil on success.
	RecordCreate(kind string, duration time.Duration, err error)

	// RecordDestroy is called after each bulk destroy with the number of
	// resources torn down.
	RecordDestroy(count int, duration time.Duration)

	// RecordAdmission is called for each AddActiveInstance attempt.
	RecordAdmission(admitted bool)

	// RecordEvaluate is called after each Evaluate with the number of
	// active instances sampled.
	RecordEvaluate(instances int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCreate(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordDestroy(int, time.Duration)          {}
func (NoopMetricsCollector) RecordAdmission(bool)                      {}
func (NoopMetricsCollector) RecordEvaluate(int, time.Duration)         {}

// BasicMetricsCollector is a simple atomic-counter implementation suitable
// for tests and lightweight monitoring.
type BasicMetricsCollector struct {
	CreateCount     atomic.Int64
	CreateErrors    atomic.Int64
	DestroyCount    atomic.Int64
	AdmittedCount   atomic.Int64
	RefusedCount    atomic.Int64
	EvaluateCount   atomic.Int64
	EvaluateNanos   atomic.Int64
	SampledInstants atomic.Int64
}

// RecordCreate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCreate(_ string, _ time.Duration, err error) {
	b.CreateCount.Add(1)
	if err != nil {
		b.CreateErrors.Add(1)
	}
}

// RecordDestroy implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDestroy(count int, _ time.Duration) {
	b.DestroyCount.Add(int64(count))
}

// RecordAdmission implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdmission(admitted bool) {
	if admitted {
		b.AdmittedCount.Add(1)
	} else {
		b.RefusedCount.Add(1)
	}
}

// RecordEvaluate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluate(instances int, d time.Duration) {
	b.EvaluateCount.Add(1)
	b.EvaluateNanos.Add(d.Nanoseconds())
	b.SampledInstants.Add(int64(instances))
}
