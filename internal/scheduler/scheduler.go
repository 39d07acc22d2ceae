// Package scheduler keeps posts in memory and delivers each one once at its fire time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/postbot/core/logger"
)

const defaultDeliverTimeout = 30 * time.Second

// Options configures a Scheduler.
type Options struct {
	Deliverer Deliverer
	// Clock defaults to SystemClock.
	Clock     Clock
	Observers []Observer
	// DeliverTimeout bounds one delivery attempt.
	DeliverTimeout time.Duration
}

// Stats is a snapshot of scheduler counters since start.
type Stats struct {
	Pending   int
	Scheduled uint64
	Delivered uint64
	Failed    uint64
	Cancelled uint64
}

type entry struct {
	post  Post
	timer Timer
}

// Scheduler tracks pending posts per origin chat. The pending collection is the
// single source of truth: firing and cancelling both claim a post by removing it
// under mu, so exactly one of them wins.
type Scheduler struct {
	deliverer Deliverer
	clock     Clock
	observers []Observer
	timeout   time.Duration

	mu      sync.Mutex
	pending map[int64][]*entry
	nextID  int64
	closed  bool

	inflight sync.WaitGroup

	scheduled atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	cancelled atomic.Uint64
}

// New builds a Scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Deliverer == nil {
		return nil, errors.New("scheduler: nil deliverer")
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	timeout := opts.DeliverTimeout
	if timeout <= 0 {
		timeout = defaultDeliverTimeout
	}
	return &Scheduler{
		deliverer: opts.Deliverer,
		clock:     clock,
		observers: slices.Clone(opts.Observers),
		timeout:   timeout,
		pending:   make(map[int64][]*entry),
	}, nil
}

// Schedule arms a one-shot delivery of text at fireAt and returns the post id.
// A fireAt that is not after now yields ErrPastTime and allocates no id.
func (s *Scheduler) Schedule(ctx context.Context, text string, fireAt time.Time, originChat int64) (int64, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	now := s.clock.Now()
	delay := fireAt.Sub(now)
	if delay <= 0 {
		s.mu.Unlock()
		logger.LogEvent(ctx, logger.Sched, slog.LevelInfo, "post.reject",
			slog.String("status", "rejected"),
			slog.Int64("origin_chat", originChat),
			slog.Time("fire_at", fireAt),
			slog.Duration("delay", delay),
		)
		return 0, fmt.Errorf("%w: %s", ErrPastTime, fireAt.Format(time.RFC3339))
	}

	s.nextID++
	id := s.nextID
	e := &entry{post: Post{
		ID:         id,
		OriginChat: originChat,
		Text:       text,
		FireAt:     fireAt,
		CreatedAt:  now,
	}}
	e.timer = s.clock.AfterFunc(delay, func() { s.fire(originChat, id) })
	s.pending[originChat] = append(s.pending[originChat], e)
	count := s.countLocked()
	post := e.post
	s.mu.Unlock()

	s.scheduled.Add(1)
	logger.LogEvent(logger.WithPostID(ctx, id), logger.Sched, slog.LevelInfo, "post.armed",
		slog.String("status", "ok"),
		slog.Int64("origin_chat", originChat),
		slog.Time("fire_at", fireAt),
		slog.Duration("delay", delay),
		slog.Int("pending_count", count),
	)
	s.notify(ctx, Outcome{Post: post, Status: StatusScheduled, At: now})
	return id, nil
}

// List returns the pending posts of originChat in scheduling order.
func (s *Scheduler) List(originChat int64) []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.pending[originChat]
	if len(entries) == 0 {
		return nil
	}
	out := make([]Post, len(entries))
	for i, e := range entries {
		out[i] = e.post
	}
	return out
}

// Cancel disarms and removes post id of originChat. Posts of other chats, already
// fired posts and unknown ids yield ErrNotFound.
func (s *Scheduler) Cancel(ctx context.Context, originChat, id int64) error {
	s.mu.Lock()
	e := s.claimLocked(originChat, id)
	s.mu.Unlock()
	if e == nil {
		return ErrNotFound
	}
	e.timer.Stop()

	s.cancelled.Add(1)
	logger.LogEvent(logger.WithPostID(ctx, id), logger.Sched, slog.LevelInfo, "post.cancelled",
		slog.String("status", "cancelled"),
		slog.Int64("origin_chat", originChat),
		slog.Time("fire_at", e.post.FireAt),
	)
	s.notify(ctx, Outcome{Post: e.post, Status: StatusCancelled, At: s.clock.Now()})
	return nil
}

// Pending returns the number of pending posts across all chats.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

// Stats returns counters since start.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Pending:   s.Pending(),
		Scheduled: s.scheduled.Load(),
		Delivered: s.delivered.Load(),
		Failed:    s.failed.Load(),
		Cancelled: s.cancelled.Load(),
	}
}

// Close disarms every pending timer, reports the discarded posts as dropped and
// waits for in-flight deliveries until ctx is done.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var dropped []Post
	for chat, entries := range s.pending {
		for _, e := range entries {
			e.timer.Stop()
			dropped = append(dropped, e.post)
		}
		delete(s.pending, chat)
	}
	s.mu.Unlock()

	now := s.clock.Now()
	for _, p := range dropped {
		logger.LogEvent(logger.WithPostID(ctx, p.ID), logger.Sched, slog.LevelWarn, "post.dropped",
			slog.String("status", "skip"),
			slog.String("outcome", "dropped"),
			slog.Int64("origin_chat", p.OriginChat),
			slog.Time("fire_at", p.FireAt),
		)
		s.notify(ctx, Outcome{Post: p, Status: StatusDropped, At: now})
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: waiting for deliveries: %w", ctx.Err())
	}
}

func (s *Scheduler) fire(originChat, id int64) {
	s.mu.Lock()
	e := s.claimLocked(originChat, id)
	if e != nil {
		s.inflight.Add(1)
	}
	s.mu.Unlock()
	if e == nil {
		return
	}
	defer s.inflight.Done()

	ctx := logger.WithPostID(logger.WithChat(context.Background(), originChat), id)
	deliverCtx, cancel := context.WithTimeout(ctx, s.timeout)
	start := s.clock.Now()
	err := s.deliverer.Deliver(deliverCtx, e.post.Text)
	cancel()
	finished := s.clock.Now()

	out := Outcome{Post: e.post, Status: StatusDelivered, At: finished, Err: err}
	attrs := []slog.Attr{
		slog.Time("fire_at", e.post.FireAt),
		slog.Duration("duration", logger.RoundMS(finished.Sub(start))),
	}
	if err != nil {
		out.Status = StatusFailed
		s.failed.Add(1)
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("outcome", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		logger.LogEvent(ctx, logger.Sched, slog.LevelError, "post.deliver", attrs...)
	} else {
		s.delivered.Add(1)
		attrs = append(attrs,
			slog.String("status", "ok"),
			slog.String("outcome", "delivered"),
		)
		logger.LogEvent(ctx, logger.Sched, slog.LevelInfo, "post.deliver", attrs...)
	}
	s.notify(ctx, out)
}

// claimLocked removes and returns the entry, or nil when it is not pending.
func (s *Scheduler) claimLocked(originChat, id int64) *entry {
	entries := s.pending[originChat]
	for i, e := range entries {
		if e.post.ID != id {
			continue
		}
		entries = slices.Delete(entries, i, i+1)
		if len(entries) == 0 {
			delete(s.pending, originChat)
		} else {
			s.pending[originChat] = entries
		}
		return e
	}
	return nil
}

func (s *Scheduler) countLocked() int {
	n := 0
	for _, entries := range s.pending {
		n += len(entries)
	}
	return n
}

func (s *Scheduler) notify(ctx context.Context, o Outcome) {
	for _, obs := range s.observers {
		obs.Observe(ctx, o)
	}
}
