package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lendfront/unirouter/internal/domain"
)

// SessionStore implements session.Store on SQLite, so conversation
// history survives a restart. Timestamps are stored as UTC datetime
// strings, which compare correctly both in SQL and lexically.
type SessionStore struct {
	db  *DB
	ttl time.Duration

	now func() time.Time
}

// NewSessionStore creates a session store using the given database.
// Sessions idle longer than ttl are removed by Sweep; ttl<=0 disables
// expiry.
func NewSessionStore(db *DB, ttl time.Duration) *SessionStore {
	return &SessionStore{db: db, ttl: ttl, now: time.Now}
}

func (s *SessionStore) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	sess, ok, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return sess, nil
	}

	now := s.now().UTC()
	ts := now.Format(time.DateTime)
	_, err = s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`, id, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &domain.Session{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, bool, error) {
	var sess domain.Session
	var lastBackend, createdAt, updatedAt string
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT id, last_backend, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &lastBackend, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading session: %w", err)
	}

	sess.LastBackend = domain.Backend(lastBackend)
	sess.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)

	turns, err := s.loadTurns(ctx, id)
	if err != nil {
		return nil, false, err
	}
	sess.Turns = turns
	return &sess, true, nil
}

func (s *SessionStore) AppendTurns(ctx context.Context, id string, backend domain.Backend, turns ...domain.Turn) error {
	now := s.now().UTC()
	ts := now.Format(time.DateTime)

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, last_backend, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET last_backend = excluded.last_backend, updated_at = excluded.updated_at`,
		id, backend.String(), ts, ts); err != nil {
		return fmt.Errorf("touching session: %w", err)
	}

	for _, turn := range turns {
		turnTS := turn.Timestamp
		if turnTS.IsZero() {
			turnTS = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns (session_id, role, content, timestamp) VALUES (?, ?, ?, ?)`,
			id, turn.Role, turn.Content, turnTS.UTC().Format(time.DateTime)); err != nil {
			return fmt.Errorf("appending turn: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SessionStore) Clear(ctx context.Context, id string) (bool, error) {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("clearing session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("clearing session: %w", err)
	}
	return n > 0, nil
}

func (s *SessionStore) List(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT s.id, s.last_backend, s.created_at, s.updated_at,
		        (SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)
		 FROM sessions s ORDER BY s.updated_at DESC, s.id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.SessionSummary, 0)
	for rows.Next() {
		var sum domain.SessionSummary
		var lastBackend, createdAt, updatedAt string
		if err := rows.Scan(&sum.ID, &lastBackend, &createdAt, &updatedAt, &sum.TurnCount); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sum.LastBackend = domain.Backend(lastBackend)
		sum.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		sum.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *SessionStore) Sweep(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-s.ttl).Format(time.DateTime)
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	if n > 0 {
		s.db.log.Debug().Int64("removed", n).Msg("expired sessions swept")
	}
	return int(n), nil
}

// Close closes the underlying database.
func (s *SessionStore) Close() error { return s.db.Close() }

func (s *SessionStore) loadTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT role, content, timestamp FROM turns WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var turn domain.Turn
		var ts string
		if err := rows.Scan(&turn.Role, &turn.Content, &ts); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Timestamp, _ = time.Parse(time.DateTime, ts)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
