package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annidx/distance"
)

func TestCandidatesTopK(t *testing.T) {
	c := NewCandidates(distance.MetricL2)

	dists := []float32{5, 1, 4, 2, 3}
	for i, d := range dists {
		c.Offer(int64(i), d, 3)
	}

	got := c.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].Label)
	assert.Equal(t, int64(3), got[1].Label)
	assert.Equal(t, int64(4), got[2].Label)
}

func TestCandidatesInnerProduct(t *testing.T) {
	c := NewCandidates(distance.MetricInnerProduct)

	c.Offer(0, 0.1, 2)
	c.Offer(1, 0.9, 2)
	c.Offer(2, 0.5, 2)

	got := c.Drain()
	require.Len(t, got, 2)
	// Larger dot products rank first.
	assert.Equal(t, int64(1), got[0].Label)
	assert.Equal(t, int64(2), got[1].Label)
}

func TestCandidatesFewerThanLimit(t *testing.T) {
	c := NewCandidates(distance.MetricL2)
	c.Offer(7, 2.5, 10)

	got := c.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].Label)
	assert.Equal(t, 0, c.Len())
}

func TestFrontierPopsClosestFirst(t *testing.T) {
	f := NewFrontier(distance.MetricL2)

	dists := []float32{5, 1, 4, 2, 3}
	for i, d := range dists {
		f.PushCandidate(int64(i), d)
	}

	require.Equal(t, len(dists), f.Len())
	var got []int64
	for f.Len() > 0 {
		got = append(got, f.PopCandidate().Label)
	}
	assert.Equal(t, []int64{1, 3, 4, 2, 0}, got)
}

func TestFrontierInnerProduct(t *testing.T) {
	f := NewFrontier(distance.MetricInnerProduct)

	f.PushCandidate(0, 0.1)
	f.PushCandidate(1, 0.9)
	f.PushCandidate(2, 0.5)

	// Larger dot products are explored first.
	assert.Equal(t, int64(1), f.PopCandidate().Label)
	assert.Equal(t, int64(2), f.PopCandidate().Label)
	assert.Equal(t, int64(0), f.PopCandidate().Label)
}
