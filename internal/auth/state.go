package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// DefaultStateExpiry is how long an issued state stays valid.
const DefaultStateExpiry = 10 * time.Minute

// StateStore issues and single-use-validates CSRF state tokens (simple in-memory).
// It is process local: running several instances needs a shared store.
type StateStore struct {
	mu     sync.Mutex
	states map[string]AuthState
	expiry time.Duration
	now    func() time.Time
}

// StateOption configures a StateStore
type StateOption func(*StateStore)

// WithClock replaces the wall clock, used for expiry tests.
func WithClock(now func() time.Time) StateOption {
	return func(s *StateStore) {
		s.now = now
	}
}

// WithExpiry overrides DefaultStateExpiry.
func WithExpiry(d time.Duration) StateOption {
	return func(s *StateStore) {
		s.expiry = d
	}
}

// NewStateStore creates a new state store
func NewStateStore(opts ...StateOption) *StateStore {
	s := &StateStore{
		states: make(map[string]AuthState),
		expiry: DefaultStateExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate issues a state for the web client.
func (s *StateStore) Generate() string {
	return s.GenerateFor(TargetWeb)
}

// GenerateFor issues a state remembering which client started the flow.
// Expired entries are swept on every call.
func (s *StateStore) GenerateFor(target Target) string {
	token := newStateToken()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.states[token] = AuthState{
		Token:    token,
		IssuedAt: now,
		Target:   target,
	}
	s.sweepLocked(now)
	return token
}

// Validate checks and consumes a state (one-time use).
func (s *StateStore) Validate(candidate string) bool {
	_, ok := s.Consume(candidate)
	return ok
}

// Consume looks up and removes a state in one step. The entry is gone afterwards
// whether or not it had expired, so of several concurrent callers only one can succeed.
func (s *StateStore) Consume(candidate string) (AuthState, bool) {
	if candidate == "" {
		return AuthState{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[candidate]
	if !ok {
		return AuthState{}, false
	}
	delete(s.states, candidate)

	if s.expired(st, s.now()) {
		return AuthState{}, false
	}
	return st, true
}

// Len returns the number of pending states.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

func (s *StateStore) expired(st AuthState, now time.Time) bool {
	return now.Sub(st.IssuedAt) > s.expiry
}

func (s *StateStore) sweepLocked(now time.Time) {
	for token, st := range s.states {
		if s.expired(st, now) {
			delete(s.states, token)
		}
	}
}

// newStateToken returns 32 random bytes as 64 hex chars.
func newStateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate secure random state: %v", err))
	}
	return hex.EncodeToString(b)
}
