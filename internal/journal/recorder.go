package journal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/internal/scheduler"
)

// Options configures a Recorder.
type Options struct {
	QueueSize int
	// WriteTimeout bounds one insert.
	WriteTimeout time.Duration
}

// Recorder writes outcomes to a Store from a background worker so the scheduler's
// timer goroutines never wait on the database. Scheduled outcomes are skipped.
type Recorder struct {
	store   Store
	timeout time.Duration
	queue   chan Entry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewRecorder starts the writer goroutine.
func NewRecorder(store Store, opts Options) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("journal: nil store")
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 128
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	r := &Recorder{
		store:   store,
		timeout: opts.WriteTimeout,
		queue:   make(chan Entry, opts.QueueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r, nil
}

// Observe implements scheduler.Observer.
func (r *Recorder) Observe(ctx context.Context, o scheduler.Outcome) {
	if o.Status == scheduler.StatusScheduled {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.queue <- EntryFrom(o):
	default:
		r.dropped.Add(1)
		logger.LogEvent(logger.WithPostID(ctx, o.Post.ID), logger.Journal, slog.LevelWarn, "journal.enqueue",
			slog.String("status", "skip"),
			slog.String("cause", "queue_full"),
			slog.String("outcome", string(o.Status)),
		)
	}
}

// Recent proxies to the store.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return r.store.Recent(ctx, limit)
}

// Stats returns written, dropped and failed counts.
func (r *Recorder) Stats() (written, dropped, failed uint64) {
	return r.written.Load(), r.dropped.Load(), r.failed.Load()
}

// Close stops accepting outcomes and waits until queued entries are written or ctx ends.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.queue {
		r.write(e)
	}
}

func (r *Recorder) write(e Entry) {
	ctx := logger.WithPostID(logger.WithChat(context.Background(), e.OriginChat), e.PostID)
	writeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	if err := r.store.Insert(writeCtx, e); err != nil {
		r.failed.Add(1)
		logger.LogEvent(ctx, logger.Journal, slog.LevelError, "journal.write",
			slog.String("status", "fail"),
			slog.String("outcome", e.Status),
			slog.String("err", err.Error()),
		)
		return
	}
	r.written.Add(1)
	if logger.ShouldSampleDebug() {
		logger.LogEvent(ctx, logger.Journal, slog.LevelDebug, "journal.write",
			slog.String("status", "ok"),
			slog.String("outcome", e.Status),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
}
