package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentops/hragent/internal/core/domain"
)

// memoryRepo is an in-memory ports.Repository that counts reads, so tests
// can tell cache hits from repository round trips.
type memoryRepo struct {
	sessions  map[domain.SessionID]domain.Session
	messages  map[domain.SessionID][]domain.SessionMessage
	listCalls int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sessions: make(map[domain.SessionID]domain.Session),
		messages: make(map[domain.SessionID][]domain.SessionMessage),
	}
}

func (r *memoryRepo) CreateSession(_ context.Context, sess domain.Session) error {
	r.sessions[sess.ID] = sess
	return nil
}

func (r *memoryRepo) GetSession(_ context.Context, id domain.SessionID) (domain.Session, error) {
	sess, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (r *memoryRepo) ListSessions(_ context.Context) ([]domain.Session, error) {
	out := make([]domain.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out, nil
}

func (r *memoryRepo) DeleteSession(_ context.Context, id domain.SessionID) error {
	if _, ok := r.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.sessions, id)
	delete(r.messages, id)
	return nil
}

func (r *memoryRepo) AddMessage(_ context.Context, msg domain.SessionMessage) error {
	r.messages[msg.SessionID] = append(r.messages[msg.SessionID], msg)
	return nil
}

func (r *memoryRepo) ListMessages(_ context.Context, id domain.SessionID, limit int) ([]domain.SessionMessage, error) {
	r.listCalls++
	msgs := r.messages[id]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]domain.SessionMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	repo := newMemoryRepo()
	store := NewSessionStore(repo, 4)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	got, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = store.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStoreMessagesServedFromCache(t *testing.T) {
	repo := newMemoryRepo()
	store := NewSessionStore(repo, 4)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, store.AddMessage(ctx, domain.SessionMessage{
		SessionID: sess.ID, Role: domain.RoleUser, Content: "hello",
	}))
	require.NoError(t, store.AddMessage(ctx, domain.SessionMessage{
		SessionID: sess.ID, Role: domain.RoleAssistant, Content: "hi there",
	}))

	msgs, err := store.GetMessages(ctx, sess.ID, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, 0, repo.listCalls, "full history for a created session is cache-resident")

	// A limited read always goes to the repository.
	msgs, err = store.GetMessages(ctx, sess.ID, 1)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, 1, repo.listCalls)
}

func TestSessionStoreEvictionReloadsFromRepo(t *testing.T) {
	repo := newMemoryRepo()
	store := NewSessionStore(repo, 2)
	ctx := context.Background()

	first, err := store.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, store.AddMessage(ctx, domain.SessionMessage{
		SessionID: first.ID, Role: domain.RoleUser, Content: "kept in repo",
	}))

	// Two more sessions push the first one out of the cache.
	_, err = store.CreateSession(ctx)
	require.NoError(t, err)
	_, err = store.CreateSession(ctx)
	require.NoError(t, err)

	msgs, err := store.GetMessages(ctx, first.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "kept in repo", msgs[0].Content)
	assert.Equal(t, 1, repo.listCalls, "evicted session must be reloaded from the repository")

	// The reload repopulated the cache.
	_, err = store.GetMessages(ctx, first.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
}

func TestSessionStoreAddMessageUncachedSessionStaysOutOfLRU(t *testing.T) {
	repo := newMemoryRepo()
	store := NewSessionStore(repo, 2)
	ctx := context.Background()

	evicted, err := store.CreateSession(ctx)
	require.NoError(t, err)
	_, err = store.CreateSession(ctx)
	require.NoError(t, err)
	_, err = store.CreateSession(ctx)
	require.NoError(t, err)

	// The first session was evicted; persisting to it must not reinsert it
	// into the LRU order without a cache entry.
	require.NoError(t, store.AddMessage(ctx, domain.SessionMessage{
		SessionID: evicted.ID, Role: domain.RoleUser, Content: "late message",
	}))

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.LessOrEqual(t, len(store.order), store.maxCache)
	for _, id := range store.order {
		_, ok := store.cache[id]
		assert.True(t, ok, "every LRU entry must have a cache entry")
	}
	assert.NotContains(t, store.order, evicted.ID)
}

func TestSessionStoreDelete(t *testing.T) {
	repo := newMemoryRepo()
	store := NewSessionStore(repo, 4)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, store.DeleteSession(ctx, sess.ID))

	_, err = store.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, store.DeleteSession(ctx, sess.ID), domain.ErrSessionNotFound)
}

func TestSessionStoreHistoryExcludesSystemTurns(t *testing.T) {
	repo := newMemoryRepo()
	store := NewSessionStore(repo, 4)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx)
	require.NoError(t, err)
	for _, msg := range []domain.SessionMessage{
		{SessionID: sess.ID, Role: domain.RoleSystem, Content: "prompt"},
		{SessionID: sess.ID, Role: domain.RoleUser, Content: "mark me present"},
		{SessionID: sess.ID, Role: domain.RoleAssistant, Content: "done"},
	} {
		require.NoError(t, store.AddMessage(ctx, msg))
	}

	turns, err := store.History(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "done", turns[1].Content)
}
