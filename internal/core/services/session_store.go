package services

import (
	"context"
	"sync"
	"time"

	"github.com/talentops/hragent/internal/core/domain"
	"github.com/talentops/hragent/internal/core/ports"
)

// SessionStore manages chat sessions with an in-memory cache backed by the
// repository. Hot sessions stay in memory; cold ones are loaded on demand.
type SessionStore struct {
	mu   sync.RWMutex
	repo ports.Repository

	// LRU cache: sessionID -> messages ordered by time
	cache    map[domain.SessionID][]domain.SessionMessage
	order    []domain.SessionID // most recent last
	maxCache int
}

// NewSessionStore creates a store with the given cache capacity.
func NewSessionStore(repo ports.Repository, maxCache int) *SessionStore {
	if maxCache <= 0 {
		maxCache = 64
	}
	return &SessionStore{
		repo:     repo,
		cache:    make(map[domain.SessionID][]domain.SessionMessage, maxCache),
		order:    make([]domain.SessionID, 0, maxCache),
		maxCache: maxCache,
	}
}

// CreateSession initializes a new session.
func (s *SessionStore) CreateSession(ctx context.Context) (domain.Session, error) {
	sess := domain.Session{
		ID:        domain.NewSessionID(),
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return domain.Session{}, err
	}

	s.mu.Lock()
	s.cache[sess.ID] = nil
	s.touchLocked(sess.ID)
	s.evictLocked()
	s.mu.Unlock()

	return sess, nil
}

// GetSession returns session metadata.
func (s *SessionStore) GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	return s.repo.GetSession(ctx, id)
}

// ListSessions returns all sessions.
func (s *SessionStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	return s.repo.ListSessions(ctx)
}

// DeleteSession removes a session and its messages.
func (s *SessionStore) DeleteSession(ctx context.Context, id domain.SessionID) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, id)
	s.removeLRULocked(id)
	s.mu.Unlock()

	return nil
}

// AddMessage persists a message and updates the cache.
func (s *SessionStore) AddMessage(ctx context.Context, msg domain.SessionMessage) error {
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return err
	}

	s.mu.Lock()
	// Only cached sessions are touched; an uncached session must not enter
	// the LRU order without a cache entry.
	if msgs, ok := s.cache[msg.SessionID]; ok {
		s.cache[msg.SessionID] = append(msgs, msg)
		s.touchLocked(msg.SessionID)
	}
	s.mu.Unlock()

	return nil
}

// GetMessages returns messages for a session, using the cache when it holds
// the full history. limit=0 means all messages.
func (s *SessionStore) GetMessages(ctx context.Context, id domain.SessionID, limit int) ([]domain.SessionMessage, error) {
	s.mu.RLock()
	if msgs, ok := s.cache[id]; ok && limit == 0 {
		result := make([]domain.SessionMessage, len(msgs))
		copy(result, msgs)
		s.mu.RUnlock()
		return result, nil
	}
	s.mu.RUnlock()

	msgs, err := s.repo.ListMessages(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	if limit == 0 {
		s.mu.Lock()
		s.cache[id] = msgs
		s.touchLocked(id)
		s.evictLocked()
		s.mu.Unlock()
	}

	result := make([]domain.SessionMessage, len(msgs))
	copy(result, msgs)
	return result, nil
}

// History returns a session's messages as planner transcript turns,
// excluding system entries.
func (s *SessionStore) History(ctx context.Context, id domain.SessionID) ([]domain.Turn, error) {
	msgs, err := s.GetMessages(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	turns := make([]domain.Turn, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == domain.RoleSystem {
			continue
		}
		turns = append(turns, domain.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns, nil
}

func (s *SessionStore) touchLocked(id domain.SessionID) {
	s.removeLRULocked(id)
	s.order = append(s.order, id)
}

func (s *SessionStore) removeLRULocked(id domain.SessionID) {
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *SessionStore) evictLocked() {
	for len(s.order) > s.maxCache {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.cache, oldest)
	}
}
