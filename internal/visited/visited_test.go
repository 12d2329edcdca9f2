package visited

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisitAndReset(t *testing.T) {
	s := New(64)

	assert.False(t, s.Visited(3))
	s.Visit(3)
	s.Visit(63)
	assert.True(t, s.Visited(3))
	assert.True(t, s.Visited(63))

	s.Reset()
	assert.False(t, s.Visited(3))
	assert.False(t, s.Visited(63))
}

func TestReuseAcrossGenerations(t *testing.T) {
	s := New(8)

	for round := 0; round < 5; round++ {
		s.Visit(uint64(round))
		assert.True(t, s.Visited(uint64(round)))
		s.Reset()
	}
	for id := uint64(0); id < 8; id++ {
		assert.False(t, s.Visited(id))
	}
}

func TestGenerationWraparound(t *testing.T) {
	s := New(4)
	s.Visit(2)
	s.gen = ^uint32(0) // next Reset wraps

	s.Reset()
	assert.False(t, s.Visited(2), "stale stamp must not match after wraparound")
	s.Visit(1)
	assert.True(t, s.Visited(1))
}

func TestGrow(t *testing.T) {
	s := New(8)

	s.Visit(1000)
	assert.True(t, s.Visited(1000))
	assert.False(t, s.Visited(999))
}
