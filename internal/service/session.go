package service

import (
	"context"
	"sync"
	"time"

	"github.com/korg1OOO/baratosociais/internal/cart"
	"github.com/korg1OOO/baratosociais/internal/checkout"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Session is the server-side state of one storefront visitor.
// Cart and Flow may only be used while the session is acquired.
type Session struct {
	mu       sync.Mutex
	Cart     *cart.Cart
	Flow     *checkout.Flow
	lastSeen time.Time
}

// SessionStore owns every live session and expires idle ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	minPrice decimal.Decimal
	validate *validator.Validate
	now      func() time.Time
	logger   zerolog.Logger
}

// NewSessionStore creates an empty session store.
func NewSessionStore(ttl time.Duration, minPrice decimal.Decimal, validate *validator.Validate, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		minPrice: minPrice,
		validate: validate,
		now:      time.Now,
		logger:   logger.With().Str("component", "sessions").Logger(),
	}
}

// Acquire returns the session for id, creating it when needed, and locks it.
// The returned function releases the lock.
func (s *SessionStore) Acquire(id string) (*Session, func()) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{
			Cart: cart.New(s.minPrice),
			Flow: checkout.NewFlow(s.validate),
		}
		s.sessions[id] = sess
	}
	sess.lastSeen = s.now()
	s.mu.Unlock()

	sess.mu.Lock()
	return sess, sess.mu.Unlock
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many were removed.
func (s *SessionStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug().Int("removed", n).Int("live", s.Len()).Msg("expired sessions swept")
			}
		}
	}
}
