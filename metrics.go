package annidx

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics. Implement it to integrate
// with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordTrain is called after each training pass.
	RecordTrain(duration time.Duration, err error)

	// RecordAdd is called after each add, with the number of vectors added.
	RecordAdd(count int, duration time.Duration, err error)

	// RecordSearch is called after each search or range search, with the
	// number of queries answered.
	RecordSearch(nq int, duration time.Duration, err error)

	// RecordMerge is called after each merge, with the number of vectors
	// pulled from the source.
	RecordMerge(added int, duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTrain(time.Duration, error)       {}
func (NoopMetricsCollector) RecordAdd(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordMerge(int, time.Duration, error)  {}

// BasicMetricsCollector keeps simple in-memory counters. Useful for tests
// and debugging without an external monitoring system.
type BasicMetricsCollector struct {
	TrainCount       atomic.Int64
	TrainErrors      atomic.Int64
	AddCount         atomic.Int64
	AddVectors       atomic.Int64
	AddErrors        atomic.Int64
	SearchCount      atomic.Int64
	SearchQueries    atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	MergeCount       atomic.Int64
	MergeVectors     atomic.Int64
	MergeErrors      atomic.Int64
}

// RecordTrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrain(_ time.Duration, err error) {
	b.TrainCount.Add(1)
	if err != nil {
		b.TrainErrors.Add(1)
	}
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(count int, _ time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddVectors.Add(int64(count))
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(nq int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchQueries.Add(int64(nq))
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(added int, _ time.Duration, err error) {
	b.MergeCount.Add(1)
	b.MergeVectors.Add(int64(added))
	if err != nil {
		b.MergeErrors.Add(1)
	}
}

// SearchAvgNanos returns the mean search latency in nanoseconds.
func (b *BasicMetricsCollector) SearchAvgNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}
