// Package queue provides a heap-based candidate queue for top-k selection.
package queue

import (
	"container/heap"

	"github.com/hupe1980/annidx/distance"
)

// Compile time check to ensure Candidates satisfies the heap interface.
var _ heap.Interface = (*Candidates)(nil)

// Candidate is a (label, distance) pair held by a Candidates queue.
type Candidate struct {
	Label    int64
	Distance float32
}

// Candidates is a bounded priority queue of candidates keyed by distance.
// The queue is a max-heap with respect to the metric's ordering, so the
// worst candidate is always at the top and cheap to evict.
type Candidates struct {
	metric distance.Metric
	items  []Candidate
}

// NewCandidates creates an empty candidate queue for the given metric.
func NewCandidates(metric distance.Metric) *Candidates {
	return &Candidates{metric: metric}
}

// Len returns the number of candidates in the queue.
func (c *Candidates) Len() int { return len(c.items) }

// Less reports whether the element with index i should sort before the
// element with index j. Farther candidates sort first (max-heap).
func (c *Candidates) Less(i, j int) bool {
	return c.metric.Closer(c.items[j].Distance, c.items[i].Distance)
}

// Swap swaps the elements with indexes i and j.
func (c *Candidates) Swap(i, j int) {
	c.items[i], c.items[j] = c.items[j], c.items[i]
}

// Push adds x to the queue. Use heap.Push, not this method.
func (c *Candidates) Push(x any) {
	item, _ := x.(Candidate)
	c.items = append(c.items, item)
}

// Pop removes and returns the worst candidate. Use heap.Pop, not this method.
func (c *Candidates) Pop() any {
	old := c.items
	n := len(old)
	item := old[n-1]
	c.items = old[:n-1]
	return item
}

// Top returns the worst candidate currently held.
func (c *Candidates) Top() Candidate {
	return c.items[0]
}

// Offer inserts the candidate, evicting the worst one if the queue already
// holds limit candidates and the new one ranks closer.
func (c *Candidates) Offer(label int64, dist float32, limit int) {
	if len(c.items) < limit {
		heap.Push(c, Candidate{Label: label, Distance: dist})
		return
	}
	if c.metric.Closer(dist, c.items[0].Distance) {
		c.items[0] = Candidate{Label: label, Distance: dist}
		heap.Fix(c, 0)
	}
}

// Drain empties the queue and returns the candidates ordered best first.
func (c *Candidates) Drain() []Candidate {
	out := make([]Candidate, len(c.items))
	for i := len(c.items) - 1; i >= 0; i-- {
		out[i], _ = heap.Pop(c).(Candidate)
	}
	return out
}
