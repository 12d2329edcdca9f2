package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSquaredL2(t *testing.T) {
	assert.InDelta(t, 0.0, SquaredL2([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-6)
	assert.InDelta(t, 27.0, SquaredL2([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-6)
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 32.0, Dot([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-6)
	assert.InDelta(t, 0.0, Dot([]float32{1, 0}, []float32{0, 1}), 1e-6)
}

func TestMetricOrdering(t *testing.T) {
	t.Run("L2", func(t *testing.T) {
		assert.True(t, MetricL2.Closer(0.5, 1.0))
		assert.False(t, MetricL2.Closer(1.0, 0.5))
		assert.True(t, MetricL2.WithinRadius(0.5, 0.5))
		assert.False(t, MetricL2.WithinRadius(0.6, 0.5))
	})

	t.Run("InnerProduct", func(t *testing.T) {
		assert.True(t, MetricInnerProduct.Closer(1.0, 0.5))
		assert.False(t, MetricInnerProduct.Closer(0.5, 1.0))
		assert.True(t, MetricInnerProduct.WithinRadius(0.6, 0.5))
		assert.False(t, MetricInnerProduct.WithinRadius(0.4, 0.5))
	})
}

func TestMetricValid(t *testing.T) {
	assert.True(t, MetricL2.Valid())
	assert.True(t, MetricInnerProduct.Valid())
	assert.False(t, Metric(42).Valid())
}
