package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loraflexsim/core/internal/phy"
)

func TestPopOrdersByTimeThenSeq(t *testing.T) {
	s := New()
	s.Insert(phy.Time(10), KindTxStart, "a")
	s.Insert(phy.Time(5), KindTxStart, "b")
	s.Insert(phy.Time(5), KindTxStart, "c")

	e1, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", e1.Payload)

	e2, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "c", e2.Payload)

	e3, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", e3.Payload)

	_, ok = s.Pop()
	assert.False(t, ok)
}

func TestCancelSkipsDeadEntries(t *testing.T) {
	s := New()
	h := s.Insert(phy.Time(1), KindTxEnd, "dead")
	s.Insert(phy.Time(2), KindTxEnd, "alive")

	assert.True(t, s.Cancel(h))
	assert.False(t, s.Cancel(h), "cancelling twice is a no-op")

	e, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "alive", e.Payload)

	_, ok = s.Pop()
	assert.False(t, ok)
}

func TestEmptyAndLen(t *testing.T) {
	s := New()
	assert.True(t, s.Empty())
	h := s.Insert(phy.Time(1), KindBeacon, nil)
	assert.False(t, s.Empty())
	assert.Equal(t, 1, s.Len())
	s.Cancel(h)
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Empty())
}
