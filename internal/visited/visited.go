// Package visited tracks nodes seen during a graph traversal.
package visited

// Set records membership with generation stamps, so one Set can be reused
// across traversals: Reset bumps the generation instead of touching the
// backing array.
type Set struct {
	stamp []uint32
	gen   uint32
}

// New creates a set sized for the given number of nodes. The set grows on
// demand when visited ids exceed the initial capacity.
func New(capacity int) *Set {
	return &Set{stamp: make([]uint32, capacity), gen: 1}
}

// Visit marks id as seen.
func (s *Set) Visit(id uint64) {
	if int(id) >= len(s.stamp) {
		s.grow(int(id) + 1)
	}
	s.stamp[id] = s.gen
}

// Visited reports whether id has been seen since the last Reset.
func (s *Set) Visited(id uint64) bool {
	return int(id) < len(s.stamp) && s.stamp[id] == s.gen
}

// Reset forgets all marks in O(1) by advancing the generation. When the
// counter wraps around, the stamps are cleared wholesale so stale marks from
// four billion traversals ago cannot resurface.
func (s *Set) Reset() {
	s.gen++
	if s.gen == 0 {
		clear(s.stamp)
		s.gen = 1
	}
}

func (s *Set) grow(n int) {
	grown := make([]uint32, max(n, 2*len(s.stamp)))
	copy(grown, s.stamp)
	s.stamp = grown
}
