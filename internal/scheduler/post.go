package scheduler

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPastTime is returned when the requested fire time is not strictly in the future.
	ErrPastTime = errors.New("scheduler: fire time is in the past")
	// ErrNotFound is returned when cancelling a post that is not pending for the chat.
	ErrNotFound = errors.New("scheduler: post not found")
	// ErrClosed is returned by Schedule after Close.
	ErrClosed = errors.New("scheduler: closed")
)

// Post is a message waiting for its fire time.
type Post struct {
	ID         int64
	OriginChat int64
	Text       string
	FireAt     time.Time
	CreatedAt  time.Time
}

// Status describes what happened to a post.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	// StatusDropped marks posts discarded at shutdown.
	StatusDropped Status = "dropped"
)

// Outcome reports a lifecycle event of a post.
type Outcome struct {
	Post   Post
	Status Status
	// At is when the event happened; for deliveries the moment the attempt finished.
	At time.Time
	// Err is set for StatusFailed.
	Err error
}

// Lateness returns how far after FireAt the event happened.
func (o Outcome) Lateness() time.Duration {
	if o.At.Before(o.Post.FireAt) {
		return 0
	}
	return o.At.Sub(o.Post.FireAt)
}

// Deliverer publishes post text to the destination channel.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, text string) error

// Deliver calls f.
func (f DelivererFunc) Deliver(ctx context.Context, text string) error { return f(ctx, text) }

// Observer receives post outcomes. Implementations must not call back into the Scheduler
// synchronously with a lock of their own held.
type Observer interface {
	Observe(ctx context.Context, o Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, o Outcome)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, o Outcome) { f(ctx, o) }
