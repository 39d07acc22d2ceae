package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type recordingDeliverer struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (d *recordingDeliverer) Deliver(_ context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts = append(d.texts, text)
	return d.err
}

func (d *recordingDeliverer) Delivered() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.texts...)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (o *recordingObserver) Observe(_ context.Context, out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, out)
}

func (o *recordingObserver) statuses() []Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Status, len(o.outcomes))
	for i, oc := range o.outcomes {
		out[i] = oc.Status
	}
	return out
}

func newTestScheduler(t *testing.T) (*Scheduler, *FakeClock, *recordingDeliverer, *recordingObserver) {
	t.Helper()
	clock := NewFakeClock(t0)
	d := &recordingDeliverer{}
	obs := &recordingObserver{}
	s, err := New(Options{Deliverer: d, Clock: clock, Observers: []Observer{obs}})
	require.NoError(t, err)
	return s, clock, d, obs
}

func TestNewRequiresDeliverer(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestScheduleDeliversOnceAtFireTime(t *testing.T) {
	s, clock, d, obs := newTestScheduler(t)
	ctx := context.Background()

	id, err := s.Schedule(ctx, "Hello", t0.Add(3*time.Hour), 100)
	require.NoError(t, err)
	require.EqualValues(t, 1, id)
	require.Len(t, s.List(100), 1)

	clock.Advance(3*time.Hour - time.Second)
	require.Empty(t, d.Delivered())

	clock.Advance(time.Second)
	require.Equal(t, []string{"Hello"}, d.Delivered())
	require.Empty(t, s.List(100))
	require.Zero(t, s.Pending())

	clock.Advance(24 * time.Hour)
	require.Equal(t, []string{"Hello"}, d.Delivered())
	require.Equal(t, []Status{StatusScheduled, StatusDelivered}, obs.statuses())
}

func TestSchedulePastTimeAllocatesNoID(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	ctx := context.Background()

	_, err := s.Schedule(ctx, "late", t0, 1)
	require.ErrorIs(t, err, ErrPastTime)
	_, err = s.Schedule(ctx, "late", t0.Add(-time.Minute), 1)
	require.ErrorIs(t, err, ErrPastTime)
	require.Empty(t, s.List(1))

	id, err := s.Schedule(ctx, "ok", t0.Add(time.Minute), 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, id)
}

func TestIDsIncreaseAcrossChats(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	ctx := context.Background()
	var ids []int64
	for i, chat := range []int64{1, 2, 1} {
		id, err := s.Schedule(ctx, "p", t0.Add(time.Duration(i+1)*time.Minute), chat)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.Equal(t, []int64{1, 2, 3}, ids)
}

func TestListIsScopedAndOrdered(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	ctx := context.Background()
	_, _ = s.Schedule(ctx, "later", t0.Add(2*time.Hour), 1)
	_, _ = s.Schedule(ctx, "other", t0.Add(time.Hour), 2)
	_, _ = s.Schedule(ctx, "sooner", t0.Add(time.Hour), 1)

	posts := s.List(1)
	require.Len(t, posts, 2)
	require.Equal(t, "later", posts[0].Text)
	require.Equal(t, "sooner", posts[1].Text)
	require.Nil(t, s.List(3))

	posts[0].Text = "mutated"
	require.Equal(t, "later", s.List(1)[0].Text)
}

func TestCancelPreventsDelivery(t *testing.T) {
	s, clock, d, obs := newTestScheduler(t)
	ctx := context.Background()
	id, _ := s.Schedule(ctx, "Bye", t0.Add(time.Hour), 7)

	require.NoError(t, s.Cancel(ctx, 7, id))
	require.Empty(t, s.List(7))
	require.Zero(t, clock.Armed())

	clock.Advance(2 * time.Hour)
	require.Empty(t, d.Delivered())
	require.ErrorIs(t, s.Cancel(ctx, 7, id), ErrNotFound)
	require.Equal(t, []Status{StatusScheduled, StatusCancelled}, obs.statuses())
}

func TestCancelIsScopedToOriginChat(t *testing.T) {
	s, clock, d, _ := newTestScheduler(t)
	ctx := context.Background()
	id, _ := s.Schedule(ctx, "mine", t0.Add(time.Hour), 1)

	require.ErrorIs(t, s.Cancel(ctx, 2, id), ErrNotFound)
	require.Len(t, s.List(1), 1)

	clock.Advance(time.Hour)
	require.Equal(t, []string{"mine"}, d.Delivered())
}

func TestCancelAfterFireReturnsNotFound(t *testing.T) {
	s, clock, _, _ := newTestScheduler(t)
	ctx := context.Background()
	id, _ := s.Schedule(ctx, "x", t0.Add(time.Minute), 1)
	clock.Advance(time.Minute)
	require.ErrorIs(t, s.Cancel(ctx, 1, id), ErrNotFound)
}

func TestCancelUnknownID(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	require.ErrorIs(t, s.Cancel(context.Background(), 1, 999), ErrNotFound)
}

func TestDeliveryFailureIsRemovedAndReported(t *testing.T) {
	s, clock, d, obs := newTestScheduler(t)
	d.err = errors.New("chat not found")
	ctx := context.Background()
	_, _ = s.Schedule(ctx, "x", t0.Add(time.Minute), 1)

	clock.Advance(time.Minute)
	require.Empty(t, s.List(1))
	require.Equal(t, []Status{StatusScheduled, StatusFailed}, obs.statuses())
	require.ErrorIs(t, obs.outcomes[1].Err, d.err)

	clock.Advance(time.Hour)
	require.Len(t, d.Delivered(), 1)

	st := s.Stats()
	require.EqualValues(t, 1, st.Failed)
	require.Zero(t, st.Delivered)
}

func TestPostsFireInTimeOrder(t *testing.T) {
	s, clock, d, _ := newTestScheduler(t)
	ctx := context.Background()
	_, _ = s.Schedule(ctx, "third", t0.Add(3*time.Minute), 1)
	_, _ = s.Schedule(ctx, "first", t0.Add(time.Minute), 2)
	_, _ = s.Schedule(ctx, "second", t0.Add(2*time.Minute), 1)

	clock.Advance(5 * time.Minute)
	require.Equal(t, []string{"first", "second", "third"}, d.Delivered())
	require.Zero(t, s.Pending())
}

func TestCloseDropsPendingPosts(t *testing.T) {
	s, clock, d, obs := newTestScheduler(t)
	ctx := context.Background()
	_, _ = s.Schedule(ctx, "a", t0.Add(time.Hour), 1)
	_, _ = s.Schedule(ctx, "b", t0.Add(time.Hour), 2)

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))
	require.Zero(t, s.Pending())
	require.Zero(t, clock.Armed())

	clock.Advance(2 * time.Hour)
	require.Empty(t, d.Delivered())
	require.ElementsMatch(t, []Status{StatusScheduled, StatusScheduled, StatusDropped, StatusDropped}, obs.statuses())

	_, err := s.Schedule(ctx, "c", t0.Add(3*time.Hour), 1)
	require.ErrorIs(t, err, ErrClosed)
}

func TestStatsCounters(t *testing.T) {
	s, clock, _, _ := newTestScheduler(t)
	ctx := context.Background()
	id, _ := s.Schedule(ctx, "a", t0.Add(time.Hour), 1)
	_, _ = s.Schedule(ctx, "b", t0.Add(time.Minute), 1)
	_, _ = s.Schedule(ctx, "c", t0.Add(2*time.Hour), 1)
	require.NoError(t, s.Cancel(ctx, 1, id))
	clock.Advance(time.Minute)

	require.Equal(t, Stats{Pending: 1, Scheduled: 3, Delivered: 1, Cancelled: 1}, s.Stats())
}

func TestOutcomeLateness(t *testing.T) {
	o := Outcome{Post: Post{FireAt: t0}, At: t0.Add(1500 * time.Millisecond)}
	require.Equal(t, 1500*time.Millisecond, o.Lateness())
	o.At = t0.Add(-time.Second)
	require.Zero(t, o.Lateness())
}

func TestConcurrentScheduleAndCancelWithRealClock(t *testing.T) {
	d := &recordingDeliverer{}
	s, err := New(Options{Deliverer: d})
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(chat int64) {
			defer wg.Done()
			id, err := s.Schedule(ctx, "p", time.Now().Add(time.Millisecond), chat)
			if err != nil {
				return
			}
			_ = s.Cancel(ctx, chat, id)
		}(int64(i % 5))
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		st := s.Stats()
		return st.Pending == 0 && st.Scheduled == st.Delivered+st.Cancelled+st.Failed
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Close(ctx))
}
