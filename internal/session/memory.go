package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/logging"
)

// entry pairs a session with its own lock so operations on different
// sessions never contend.
type entry struct {
	mu   sync.Mutex
	sess domain.Session
}

// MemoryStore keeps sessions in process memory. It is the default store;
// history does not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	log     *logging.Logger

	now func() time.Time
}

// NewMemoryStore creates an in-memory session store. Sessions idle
// longer than ttl are removed by Sweep; ttl<=0 disables expiry.
func NewMemoryStore(ttl time.Duration, log *logging.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		ttl:     ttl,
		log:     log.Sub("sessions"),
		now:     time.Now,
	}
}

func (s *MemoryStore) GetOrCreate(_ context.Context, id string) (*domain.Session, error) {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(&e.sess), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Session, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(&e.sess), true, nil
}

func (s *MemoryStore) AppendTurns(_ context.Context, id string, backend domain.Backend, turns ...domain.Turn) error {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.Turns = append(e.sess.Turns, turns...)
	e.sess.LastBackend = backend
	e.sess.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if ok {
		s.log.Debug().Str("session_id", id).Msg("session cleared")
	}
	return ok, nil
}

func (s *MemoryStore) List(_ context.Context) ([]domain.SessionSummary, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	summaries := make([]domain.SessionSummary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		summaries = append(summaries, domain.SessionSummary{
			ID:          e.sess.ID,
			TurnCount:   len(e.sess.Turns),
			LastBackend: e.sess.LastBackend,
			CreatedAt:   e.sess.CreatedAt,
			UpdatedAt:   e.sess.UpdatedAt,
		})
		e.mu.Unlock()
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		e.mu.Lock()
		expired := e.sess.UpdatedAt.Before(cutoff)
		e.mu.Unlock()
		if expired {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("expired sessions swept")
	}
	return removed, nil
}

func (s *MemoryStore) Close() error { return nil }

// entry returns the entry for id, creating it if missing.
func (s *MemoryStore) entry(id string) *entry {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[id]; ok {
		return e
	}
	now := s.now()
	e = &entry{sess: domain.Session{ID: id, CreatedAt: now, UpdatedAt: now}}
	s.entries[id] = e
	s.log.Debug().Str("session_id", id).Msg("session created")
	return e
}

func copySession(in *domain.Session) *domain.Session {
	out := *in
	if len(in.Turns) > 0 {
		out.Turns = make([]domain.Turn, len(in.Turns))
		copy(out.Turns, in.Turns)
	}
	return &out
}
