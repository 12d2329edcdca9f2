package queue

import (
	"container/heap"

	"github.com/hupe1980/annidx/distance"
)

var _ heap.Interface = (*Frontier)(nil)

// Frontier is an exploration queue: a min-heap with respect to the metric's
// ordering, so the closest unexplored candidate is always at the top.
type Frontier struct {
	metric distance.Metric
	items  []Candidate
}

// NewFrontier creates an empty frontier for the given metric.
func NewFrontier(metric distance.Metric) *Frontier {
	return &Frontier{metric: metric}
}

// Len returns the number of candidates in the frontier.
func (f *Frontier) Len() int { return len(f.items) }

// Less reports whether the element with index i should sort before the
// element with index j. Closer candidates sort first (min-heap).
func (f *Frontier) Less(i, j int) bool {
	return f.metric.Closer(f.items[i].Distance, f.items[j].Distance)
}

// Swap swaps the elements with indexes i and j.
func (f *Frontier) Swap(i, j int) {
	f.items[i], f.items[j] = f.items[j], f.items[i]
}

// Push adds x to the frontier. Use PushCandidate instead.
func (f *Frontier) Push(x any) {
	item, _ := x.(Candidate)
	f.items = append(f.items, item)
}

// Pop removes the closest candidate. Use PopCandidate instead.
func (f *Frontier) Pop() any {
	old := f.items
	n := len(old)
	item := old[n-1]
	f.items = old[:n-1]
	return item
}

// PushCandidate adds a candidate to the frontier.
func (f *Frontier) PushCandidate(label int64, dist float32) {
	heap.Push(f, Candidate{Label: label, Distance: dist})
}

// PopCandidate removes and returns the closest candidate.
func (f *Frontier) PopCandidate() Candidate {
	item, _ := heap.Pop(f).(Candidate)
	return item
}
