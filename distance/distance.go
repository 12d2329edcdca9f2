// Package distance provides the distance metrics and float32 vector kernels
// used by the index backends.
package distance

import (
	"fmt"
	"math"
)

// Metric identifies how distances between vectors are computed and ordered.
type Metric uint8

const (
	// MetricL2 is the squared Euclidean distance. Smaller is closer.
	MetricL2 Metric = iota

	// MetricInnerProduct is the raw dot product. Larger is closer.
	MetricInnerProduct
)

// String returns a string representation of the Metric.
func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricInnerProduct:
		return "InnerProduct"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	return m == MetricL2 || m == MetricInnerProduct
}

// Distance computes the metric value between two equal-length vectors.
// Length agreement is the caller's responsibility.
func (m Metric) Distance(a, b []float32) float32 {
	if m == MetricInnerProduct {
		return Dot(a, b)
	}
	return SquaredL2(a, b)
}

// Closer reports whether distance a ranks before distance b under m.
// For L2 smaller values rank first, for inner product larger values do.
func (m Metric) Closer(a, b float32) bool {
	if m == MetricInnerProduct {
		return a > b
	}
	return a < b
}

// WithinRadius reports whether d is inside the radius under m. For L2 the
// result set is d <= radius; for inner product it is d >= radius, mirroring
// how similarity radii are conventionally expressed.
func (m Metric) WithinRadius(d, radius float32) bool {
	if m == MetricInnerProduct {
		return d >= radius
	}
	return d <= radius
}

// Worst returns the sentinel distance that every real distance ranks before.
func (m Metric) Worst() float32 {
	if m == MetricInnerProduct {
		return float32(math.Inf(-1))
	}
	return float32(math.Inf(1))
}

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	var ret float32
	for i := range a {
		d := a[i] - b[i]
		ret += d * d
	}
	return ret
}
