package state

import "time"

// Session wraps caller-defined conversation data with bookkeeping timestamps.
type Session[T any] struct {
	Data      T
	StartedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the session has been idle longer than ttl. A ttl <= 0 never expires.
func (s Session[T]) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}
