package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type draft struct {
	Step string
	Text string
}

func TestManagerStartGetClear(t *testing.T) {
	m := NewMemoryManager[draft](nil)
	require.False(t, m.InProgress(1))

	m.Start(1, draft{Step: "text"})
	s, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, "text", s.Data.Step)
	require.Equal(t, 1, m.Len())

	prev, ok := m.Clear(1)
	require.True(t, ok)
	require.Equal(t, "text", prev.Data.Step)
	_, ok = m.Clear(1)
	require.False(t, ok)
	require.False(t, m.InProgress(1))
}

func TestManagerUpdateActions(t *testing.T) {
	m := NewMemoryManager[draft](nil)

	m.Update(5, func(s *Session[draft], ok bool) Action {
		require.False(t, ok)
		return Keep
	})
	require.False(t, m.InProgress(5))

	m.Start(5, draft{Step: "text"})
	m.Update(5, func(s *Session[draft], ok bool) Action {
		require.True(t, ok)
		s.Data.Text = "hello"
		s.Data.Step = "date"
		return Save
	})
	s, _ := m.Get(5)
	require.Equal(t, draft{Step: "date", Text: "hello"}, s.Data)

	m.Update(5, func(*Session[draft], bool) Action { return Drop })
	require.False(t, m.InProgress(5))
}

func TestManagerGetReturnsCopy(t *testing.T) {
	m := NewMemoryManager[draft](nil)
	m.Start(2, draft{Step: "text"})
	s, _ := m.Get(2)
	s.Data.Step = "mutated"
	again, _ := m.Get(2)
	require.Equal(t, "text", again.Data.Step)
}

func TestManagerSweepExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemoryManager[draft](func() time.Time { return now })
	m.Start(1, draft{})
	now = now.Add(10 * time.Minute)
	m.Start(2, draft{})
	now = now.Add(25 * time.Minute)

	require.Equal(t, 1, m.Sweep(30*time.Minute))
	require.False(t, m.InProgress(1))
	require.True(t, m.InProgress(2))
	require.Zero(t, m.Sweep(0))
}
