package annidx

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/persistence"
	"github.com/hupe1980/annidx/task"
)

type options struct {
	logger      *Logger
	metrics     MetricsCollector
	pool        *task.Pool
	compression persistence.Compression
}

// Option configures index construction and load behavior.
type Option func(*options)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector sets the metrics sink. Defaults to a no-op collector.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithPool shares a task pool across indexes for the asynchronous variants.
// Without this option each index runs its own unbounded pool, closed together
// with the index.
func WithPool(p *task.Pool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithCompression selects the snapshot payload codec. Defaults to zstd.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func defaultOptions() options {
	return options{
		logger:      NoopLogger(),
		metrics:     NoopMetricsCollector{},
		compression: persistence.CompressionZstd,
	}
}

type searchOptions struct {
	filter backend.Filter
}

// SearchOption adjusts a single search call.
type SearchOption func(*searchOptions)

// WithSelector restricts results to the labels present in the bitmap.
func WithSelector(sel *roaring64.Bitmap) SearchOption {
	return func(o *searchOptions) {
		if sel == nil {
			return
		}
		o.filter = func(label int64) bool {
			return label >= 0 && sel.Contains(uint64(label))
		}
	}
}
