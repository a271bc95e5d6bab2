package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"soundgraph-backend/internal/domain/navigation"
	"soundgraph-backend/internal/infrastructure/observability"
	apperrors "soundgraph-backend/pkg/errors"
)

var (
	// ErrSessionNotFound is returned for an unknown or expired session id.
	ErrSessionNotFound = apperrors.NewNotFoundError("session").WithCode("SESSION_NOT_FOUND")
	// ErrSessionLimit is returned when the store is full of active sessions.
	ErrSessionLimit = apperrors.NewUnavailableError("session store").WithCode("SESSION_LIMIT")
)

// SessionStore holds live navigation sessions by id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*navigation.Session
	maxSize  int
	idleTTL  time.Duration
	now      func() time.Time
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewSessionStore creates a store holding at most maxSize sessions. Sessions
// untouched for idleTTL are evicted by Sweep; a non-positive idleTTL keeps
// them forever.
func NewSessionStore(maxSize int, idleTTL time.Duration, metrics *observability.Collector, logger *zap.Logger) *SessionStore {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &SessionStore{
		sessions: make(map[string]*navigation.Session),
		maxSize:  maxSize,
		idleTTL:  idleTTL,
		now:      time.Now,
		metrics:  metrics,
		logger:   logger,
	}
}

// WithClock replaces the time source.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

// Create starts an idle session with a fresh id.
func (s *SessionStore) Create() (*navigation.Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSize {
		s.evictLocked(now)
		if len(s.sessions) >= s.maxSize {
			return nil, ErrSessionLimit
		}
	}

	session := navigation.NewSession(uuid.NewString(), now)
	s.sessions[session.ID()] = session
	s.metrics.SetActiveSessions(len(s.sessions))
	return session, nil
}

// Get returns the session for id.
func (s *SessionStore) Get(id string) (*navigation.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.Touch(s.now())
	return session, nil
}

// Delete ends the session for id.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.metrics.SetActiveSessions(len(s.sessions))
	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IDs returns the live session ids, sorted.
func (s *SessionStore) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Sweep evicts idle sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(now)
}

func (s *SessionStore) evictLocked(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	evicted := 0
	for id, session := range s.sessions {
		if now.Sub(session.TouchedAt()) >= s.idleTTL {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.metrics.SetActiveSessions(len(s.sessions))
		s.logger.Debug("evicted idle sessions",
			zap.Int("evicted", evicted),
			zap.Int("remaining", len(s.sessions)),
		)
	}
	return evicted
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.idleTTL <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
