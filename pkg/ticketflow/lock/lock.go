// Package lock serializes engine activity per session. Only one
// execution may be in flight for a session at a time; callers that
// arrive while a run is active wait in arrival order and are never
// merged into the in-flight run.
package lock

import "sync"

// Manager hands out exclusive per-session locks with FIFO wakeup.
// Concurrency exists only across sessions, never within one.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*sessionLock
}

type sessionLock struct {
	held    bool
	waiters []chan struct{}
}

// NewManager creates a lock manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*sessionLock),
	}
}

// WithLock acquires the session's exclusive lock, runs fn, and
// releases on every exit path, including panic.
func (m *Manager) WithLock(sessionID string, fn func() error) error {
	m.acquire(sessionID)
	defer m.release(sessionID)
	return fn()
}

// acquire blocks until the session lock is held by the caller.
// Waiters are queued in arrival order.
func (m *Manager) acquire(sessionID string) {
	m.mu.Lock()
	sl := m.sessions[sessionID]
	if sl == nil {
		sl = &sessionLock{}
		m.sessions[sessionID] = sl
	}

	if !sl.held {
		sl.held = true
		m.mu.Unlock()
		return
	}

	wait := make(chan struct{})
	sl.waiters = append(sl.waiters, wait)
	m.mu.Unlock()

	<-wait
}

// release hands the lock to the oldest waiter, or frees it.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sl := m.sessions[sessionID]
	if sl == nil {
		return
	}

	if len(sl.waiters) > 0 {
		next := sl.waiters[0]
		sl.waiters = sl.waiters[1:]
		// Lock stays held; ownership transfers to the waiter.
		close(next)
		return
	}

	sl.held = false
	delete(m.sessions, sessionID)
}
