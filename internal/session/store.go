// Package session manages per-conversation history with TTL expiry.
package session

import (
	"context"
	"time"

	"github.com/lendfront/unirouter/internal/domain"
)

// Store is the session persistence contract. Implementations serialize
// operations per session: concurrent calls for different sessions may
// interleave, but two operations on the same session never do.
//
// All read methods return copies; callers can inspect them freely
// without racing store mutations.
type Store interface {
	// GetOrCreate returns the session with the given ID, creating an
	// empty one if it does not exist (or has expired).
	GetOrCreate(ctx context.Context, id string) (*domain.Session, error)

	// Get returns the session, or ok=false if it does not exist.
	Get(ctx context.Context, id string) (*domain.Session, bool, error)

	// AppendTurns appends turns to the session's history and records the
	// backend that produced them. The session is created if missing, so a
	// sweep between resolve and append cannot lose the exchange.
	AppendTurns(ctx context.Context, id string, backend domain.Backend, turns ...domain.Turn) error

	// Clear removes the session. Clearing an unknown session is not an
	// error; existed reports whether anything was removed.
	Clear(ctx context.Context, id string) (existed bool, err error)

	// List returns summaries of all live sessions, newest activity first.
	List(ctx context.Context) ([]domain.SessionSummary, error)

	// Sweep removes sessions idle longer than the TTL and returns how
	// many were removed.
	Sweep(ctx context.Context) (int, error)

	// Close releases store resources.
	Close() error
}

// Options configures a store's expiry behavior.
type Options struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// Janitor drives periodic sweeps of a store until the context ends.
func Janitor(ctx context.Context, s Store, interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep(ctx)
			if err == nil && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}
