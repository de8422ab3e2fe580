package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"usergate/pkg/platform/sentinel"
)

const (
	DefaultTTL           = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

type binding struct {
	redirectURL string
	expiresAt   time.Time
}

// InMemoryStore keeps bindings in a mutex-guarded map. A background sweeper
// drops expired entries so abandoned logins do not accumulate.
type InMemoryStore struct {
	mu       sync.Mutex
	bindings map[string]binding

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	stopCh    chan struct{}
	closeOnce sync.Once
}

// Option configures an InMemoryStore.
type Option func(*InMemoryStore)

func WithTTL(ttl time.Duration) Option {
	return func(s *InMemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithSweepInterval(interval time.Duration) Option {
	return func(s *InMemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemoryStore starts the sweeper; call Close to stop it.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		bindings:      make(map[string]binding),
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	go s.sweepLoop()
	return s
}

func (s *InMemoryStore) Put(_ context.Context, state, redirectURL string) error {
	if state == "" {
		return fmt.Errorf("empty state: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[state] = binding{
		redirectURL: redirectURL,
		expiresAt:   s.now().Add(s.ttl),
	}
	return nil
}

// Take returns the bound redirect and removes it in the same critical section.
func (s *InMemoryStore) Take(_ context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[state]
	if !ok {
		return "", fmt.Errorf("state binding not found: %w", sentinel.ErrNotFound)
	}
	delete(s.bindings, state)
	if !s.now().Before(b.expiresAt) {
		return "", fmt.Errorf("state binding expired: %w: %w", sentinel.ErrExpired, sentinel.ErrNotFound)
	}
	return b.redirectURL, nil
}

// Len reports the number of bindings currently held, expired or not.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bindings)
}

// Sweep removes expired bindings and returns how many were dropped.
func (s *InMemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for state, b := range s.bindings {
		if !now.Before(b.expiresAt) {
			delete(s.bindings, state)
			removed++
		}
	}
	return removed
}

func (s *InMemoryStore) Close() {
	s.closeOnce.Do(func() { close(s.stopCh) })
}

func (s *InMemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}
