package state

import (
	"sync"
	"time"
)

// Manager stores one session per chat id. All methods are safe for concurrent use.
type Manager[T any] struct {
	mu       sync.Mutex
	sessions map[int64]*Session[T]
	now      func() time.Time
}

// NewMemoryManager constructs an in-memory Manager. A nil now uses time.Now.
func NewMemoryManager[T any](now func() time.Time) *Manager[T] {
	if now == nil {
		now = time.Now
	}
	return &Manager[T]{
		sessions: make(map[int64]*Session[T]),
		now:      now,
	}
}

// Get returns a copy of the session for chatID.
func (m *Manager[T]) Get(chatID int64) (Session[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return Session[T]{}, false
	}
	return *s, true
}

// Start replaces any session of chatID with a fresh one holding data and returns
// the replaced session, if any.
func (m *Manager[T]) Start(chatID int64, data T) (prev Session[T], replaced bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[chatID]; ok {
		prev, replaced = *old, true
	}
	now := m.now()
	m.sessions[chatID] = &Session[T]{Data: data, StartedAt: now, UpdatedAt: now}
	return prev, replaced
}

// Clear removes the session of chatID and returns it.
func (m *Manager[T]) Clear(chatID int64) (Session[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.sessions[chatID]
	if !ok {
		return Session[T]{}, false
	}
	delete(m.sessions, chatID)
	return *old, true
}

// InProgress reports whether chatID has an active session.
func (m *Manager[T]) InProgress(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[chatID]
	return ok
}

// Len returns the number of active sessions.
func (m *Manager[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Action tells Update what to do with the session after fn returns.
type Action int

const (
	// Keep leaves the session untouched.
	Keep Action = iota
	// Save stores the modified data.
	Save
	// Drop deletes the session.
	Drop
)

// Update runs fn on the session of chatID while holding the store lock, so a
// read-modify-write of one chat never interleaves with another event of the same chat.
// fn receives ok=false when no session exists; Save then creates one.
func (m *Manager[T]) Update(chatID int64, fn func(s *Session[T], ok bool) Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sessions[chatID]
	var work Session[T]
	if ok {
		work = *current
	}
	switch fn(&work, ok) {
	case Save:
		now := m.now()
		if !ok {
			work.StartedAt = now
		}
		work.UpdatedAt = now
		m.sessions[chatID] = &work
	case Drop:
		delete(m.sessions, chatID)
	}
}

// Sweep drops sessions idle longer than ttl and returns how many were removed.
func (m *Manager[T]) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now, ttl) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
