package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/jonboulle/clockwork"
)

// DefaultTTL is how long a session survives without activity.
const DefaultTTL = 10 * time.Minute

// Registry holds at most one live session per key.
type Registry struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	ttl      time.Duration
	sessions map[Key]*Session
	onExpire func(*Session)
}

// Option configures a Registry.
type Option func(*Registry)

// WithOnExpire sets the callback run after a session expires. It runs
// outside the registry lock.
func WithOnExpire(fn func(*Session)) Option {
	return func(r *Registry) { r.onExpire = fn }
}

// NewRegistry returns an empty registry. A non-positive ttl uses DefaultTTL.
func NewRegistry(clock clockwork.Clock, ttl time.Duration, opts ...Option) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[Key]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetOnExpire replaces the expiry callback.
func (r *Registry) SetOnExpire(fn func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpire = fn
}

// Clock returns the registry's clock.
func (r *Registry) Clock() clockwork.Clock { return r.clock }

// TTL returns the inactivity window.
func (r *Registry) TTL() time.Duration { return r.ttl }

// Start registers s under key and arms its expiry timer. A session already
// registered under key is ended (its timers stopped) and returned so the
// caller can tell its surface it was superseded.
func (r *Registry) Start(key Key, s *Session) (previous *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sessions[key]; ok && old != s {
		old.timerMu.Lock()
		old.end()
		old.timerMu.Unlock()
		previous = old
	}

	s.Key = key
	r.sessions[key] = s
	r.arm(s)

	slog.Debug("Started session",
		logfields.Session(s.ID),
		logfields.Scope(string(key)))
	return previous
}

// End removes whatever session is registered under key. Ending a missing key
// is not an error.
func (r *Registry) End(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		return
	}
	delete(r.sessions, key)
	s.timerMu.Lock()
	s.end()
	s.timerMu.Unlock()
}

// EndSession ends s if it is still the registered session for its key.
func (r *Registry) EndSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[s.Key] == s {
		delete(r.sessions, s.Key)
	}
	s.timerMu.Lock()
	s.end()
	s.timerMu.Unlock()
}

// Get returns the live session for key, or nil.
func (r *Registry) Get(key Key) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[key]
}

// Find returns the live session with the given id, or nil.
func (r *Registry) Find(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Touch restarts the inactivity timer of a live session.
func (r *Registry) Touch(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.Key] != s {
		return
	}
	r.arm(s)
}

// ScheduleClear runs fn after d unless the session ends or another clear is
// scheduled first. Any pending clear is stopped.
func (r *Registry) ScheduleClear(s *Session, d time.Duration, fn func()) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.clear != nil {
		s.clear.Stop()
		s.clear = nil
	}
	if s.ended {
		return
	}
	s.clear = r.clock.AfterFunc(d, fn)
}

// CancelClear stops a pending notification clear.
func (r *Registry) CancelClear(s *Session) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.clear != nil {
		s.clear.Stop()
		s.clear = nil
	}
}

// Shutdown ends every session and stops all timers.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, s := range r.sessions {
		s.timerMu.Lock()
		s.end()
		s.timerMu.Unlock()
		delete(r.sessions, key)
	}
}

// arm (re)starts the expiry timer. Callers hold r.mu.
func (r *Registry) arm(s *Session) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.ended {
		return
	}
	if s.expiry != nil {
		s.expiry.Stop()
	}
	s.expiryGen++
	gen := s.expiryGen
	s.expiresAt = r.clock.Now().Add(r.ttl)
	s.expiry = r.clock.AfterFunc(r.ttl, func() { r.expire(s, gen) })
}

func (r *Registry) expire(s *Session, gen uint64) {
	r.mu.Lock()
	if r.sessions[s.Key] != s {
		r.mu.Unlock()
		return
	}
	s.timerMu.Lock()
	if s.ended || s.expiryGen != gen {
		s.timerMu.Unlock()
		r.mu.Unlock()
		return
	}
	s.end()
	s.timerMu.Unlock()
	delete(r.sessions, s.Key)
	onExpire := r.onExpire
	r.mu.Unlock()

	slog.Debug("Session expired", logfields.Session(s.ID), logfields.Scope(string(s.Key)))
	if onExpire != nil {
		onExpire(s)
	}
}
