package health

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendfront/unirouter/internal/backend"
	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/logging"
)

// stubAdapter lets each test pin a backend's probe behavior.
type stubAdapter struct {
	label    domain.Backend
	probeErr error
	delay    time.Duration
}

func (s *stubAdapter) Backend() domain.Backend { return s.label }

func (s *stubAdapter) Invoke(context.Context, backend.Query) (*backend.RawResult, error) {
	return &backend.RawResult{}, nil
}

func (s *stubAdapter) Probe(ctx context.Context) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.probeErr
}

func newMonitor(t *testing.T, timeout time.Duration, adapters ...backend.Adapter) *Monitor {
	t.Helper()
	log := logging.New(io.Discard, "silent")
	reg := backend.NewRegistry(log)
	for _, a := range adapters {
		reg.Register(a)
	}
	return NewMonitor(reg, timeout, log)
}

func TestCheckAllHealthy(t *testing.T) {
	m := newMonitor(t, time.Second,
		&stubAdapter{label: domain.BackendKnowledge},
		&stubAdapter{label: domain.BackendDatabase},
		&stubAdapter{label: domain.BackendScopeGuard},
	)

	snap := m.Check(context.Background())

	require.Len(t, snap.Status, 3)
	for label, status := range snap.Status {
		assert.Equal(t, domain.StatusHealthy, status, "backend %s", label)
	}
	assert.Equal(t, domain.StatusHealthy, snap.Aggregate())
	assert.Equal(t, "all backends operational", snap.Message)
}

func TestCheckStatusMapping(t *testing.T) {
	m := newMonitor(t, time.Second,
		&stubAdapter{label: domain.BackendKnowledge},
		&stubAdapter{
			label:    domain.BackendVisualization,
			probeErr: &backend.ProviderError{Backend: "viz_assist", Code: 503, Message: "agent warming up"},
		},
		&stubAdapter{
			label:    domain.BackendDatabase,
			probeErr: &backend.ProviderError{Backend: "db_assist", Code: 500, Message: "internal error"},
		},
		&stubAdapter{
			label:    domain.BackendDocument,
			probeErr: &backend.ProviderError{Backend: "doc_assist", Message: "connection refused"},
		},
	)

	snap := m.Check(context.Background())

	assert.Equal(t, domain.StatusHealthy, snap.Status[domain.BackendKnowledge])
	assert.Equal(t, domain.StatusInitializing, snap.Status[domain.BackendVisualization])
	assert.Equal(t, domain.StatusDegraded, snap.Status[domain.BackendDatabase])
	assert.Equal(t, domain.StatusUnhealthy, snap.Status[domain.BackendDocument])
	assert.Equal(t, domain.StatusUnhealthy, snap.Aggregate(), "worst status wins")

	assert.Contains(t, snap.Message, "viz_assist: initializing")
	assert.Contains(t, snap.Message, "db_assist: degraded")
	assert.Contains(t, snap.Message, "doc_assist: unhealthy")
	assert.NotContains(t, snap.Message, "lf_assist")
}

func TestCheckSlowProbeTimesOut(t *testing.T) {
	m := newMonitor(t, 20*time.Millisecond,
		&stubAdapter{label: domain.BackendKnowledge},
		&stubAdapter{label: domain.BackendDatabase, delay: 5 * time.Second},
	)

	start := time.Now()
	snap := m.Check(context.Background())

	assert.Less(t, time.Since(start), time.Second, "one slow provider must not stall the check")
	assert.Equal(t, domain.StatusHealthy, snap.Status[domain.BackendKnowledge])
	assert.Equal(t, domain.StatusUnhealthy, snap.Status[domain.BackendDatabase])
}

func TestCheckPlainErrorIsUnhealthy(t *testing.T) {
	m := newMonitor(t, time.Second,
		&stubAdapter{label: domain.BackendKnowledge, probeErr: errors.New("something odd")},
	)

	snap := m.Check(context.Background())
	assert.Equal(t, domain.StatusUnhealthy, snap.Status[domain.BackendKnowledge])
	assert.Contains(t, snap.Message, "something odd")
}
