package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/logging"
	"github.com/lendfront/unirouter/internal/session"
)

var _ session.Store = (*SessionStore)(nil)

func openTestStore(t *testing.T, ttl time.Duration) *SessionStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sessions.db"), logging.New(io.Discard, "silent"))
	require.NoError(t, err)
	s := NewSessionStore(db, ttl)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	log := logging.New(io.Discard, "silent")

	db, err := Open(path, log)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening must not re-run applied migrations.
	db, err = Open(path, log)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestSessionStoreRoundTrip(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()

	sess, err := s.GetOrCreate(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", sess.ID)
	assert.Empty(t, sess.Turns)

	require.NoError(t, s.AppendTurns(ctx, "abc", domain.BackendKnowledge,
		domain.Turn{Role: domain.RoleUser, Content: "what are your rates?"},
		domain.Turn{Role: domain.RoleAssistant, Content: "Our rates start at 6%."},
	))

	loaded, ok, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded.Turns, 2)
	assert.Equal(t, domain.RoleUser, loaded.Turns[0].Role)
	assert.Equal(t, "what are your rates?", loaded.Turns[0].Content)
	assert.Equal(t, domain.RoleAssistant, loaded.Turns[1].Role)
	assert.Equal(t, domain.BackendKnowledge, loaded.LastBackend)
}

func TestSessionStoreGetMissing(t *testing.T) {
	s := openTestStore(t, time.Hour)
	_, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStoreAppendCreatesMissingSession(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.AppendTurns(ctx, "fresh", domain.BackendDatabase,
		domain.Turn{Role: domain.RoleUser, Content: "show loan 42"}))

	loaded, ok, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, loaded.Turns, 1)
	assert.Equal(t, domain.BackendDatabase, loaded.LastBackend)
}

func TestSessionStoreClear(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.AppendTurns(ctx, "abc", domain.BackendKnowledge,
		domain.Turn{Role: domain.RoleUser, Content: "hi"}))

	existed, err := s.Clear(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	// Turns go with the session.
	var count int
	require.NoError(t, s.db.sql.QueryRow(
		`SELECT COUNT(*) FROM turns WHERE session_id = ?`, "abc").Scan(&count))
	assert.Zero(t, count)

	existed, err = s.Clear(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, existed, "clearing an unknown session is not an error")
}

func TestSessionStoreList(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	s.now = func() time.Time { return base }
	require.NoError(t, s.AppendTurns(ctx, "older", domain.BackendKnowledge,
		domain.Turn{Role: domain.RoleUser, Content: "a"},
		domain.Turn{Role: domain.RoleAssistant, Content: "b"}))

	s.now = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, s.AppendTurns(ctx, "newer", domain.BackendVisualization,
		domain.Turn{Role: domain.RoleUser, Content: "c"}))

	summaries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "newer", summaries[0].ID)
	assert.Equal(t, 1, summaries[0].TurnCount)
	assert.Equal(t, "older", summaries[1].ID)
	assert.Equal(t, 2, summaries[1].TurnCount)
}

func TestSessionStoreSweep(t *testing.T) {
	s := openTestStore(t, 30*time.Minute)
	ctx := context.Background()

	base := time.Now().UTC()
	s.now = func() time.Time { return base.Add(-time.Hour) }
	_, err := s.GetOrCreate(ctx, "stale")
	require.NoError(t, err)

	s.now = func() time.Time { return base }
	_, err = s.GetOrCreate(ctx, "live")
	require.NoError(t, err)

	removed, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, _ := s.Get(ctx, "stale")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "live")
	assert.True(t, ok)
}

func TestSessionStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	log := logging.New(io.Discard, "silent")
	ctx := context.Background()

	db, err := Open(path, log)
	require.NoError(t, err)
	s := NewSessionStore(db, time.Hour)
	require.NoError(t, s.AppendTurns(ctx, "abc", domain.BackendDatabase,
		domain.Turn{Role: domain.RoleUser, Content: "show loan 42"},
		domain.Turn{Role: domain.RoleAssistant, Content: "Loan 42 is active."}))
	require.NoError(t, s.Close())

	db, err = Open(path, log)
	require.NoError(t, err)
	s = NewSessionStore(db, time.Hour)
	defer s.Close()

	loaded, ok, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, loaded.Turns, 2)
	assert.Equal(t, domain.BackendDatabase, loaded.LastBackend)
}
