package conda

import (
	"fmt"
	"sync"
)

// Session tracks per-environment in-flight operations. The backend imposes
// no locking of its own, so this layer enforces at most one mutating
// operation per environment at a time; a second request gets ErrEnvBusy
// instead of racing the first.
type Session struct {
	client *Client

	mu       sync.Mutex
	inflight map[string]bool
}

// NewSession wraps client with an operation guard.
func NewSession(client *Client) *Session {
	return &Session{
		client:   client,
		inflight: make(map[string]bool),
	}
}

// Client returns the underlying backend client for read-only queries,
// which need no guard.
func (s *Session) Client() *Client { return s.client }

// Acquire marks envName busy. Callers must Release when the operation
// finishes, success or not.
func (s *Session) Acquire(envName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[envName] {
		return fmt.Errorf("%w: %s", ErrEnvBusy, envName)
	}
	s.inflight[envName] = true
	return nil
}

// Release clears the busy flag for envName.
func (s *Session) Release(envName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, envName)
}

// Do runs fn while holding the guard for envName.
func (s *Session) Do(envName string, fn func(*Client) error) error {
	if err := s.Acquire(envName); err != nil {
		return err
	}
	defer s.Release(envName)
	return fn(s.client)
}
