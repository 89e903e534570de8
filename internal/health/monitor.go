// Package health aggregates liveness across the capability providers.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lendfront/unirouter/internal/backend"
	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/logging"
)

// Monitor probes every registered backend and reports an aggregated
// snapshot. Probes are uncached: each Check reflects provider state at
// the moment of the call.
type Monitor struct {
	registry     *backend.Registry
	probeTimeout time.Duration
	log          *logging.Logger
}

// NewMonitor creates a health monitor over the adapter registry.
func NewMonitor(registry *backend.Registry, probeTimeout time.Duration, log *logging.Logger) *Monitor {
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &Monitor{
		registry:     registry,
		probeTimeout: probeTimeout,
		log:          log.Sub("health"),
	}
}

// Check probes all backends concurrently and returns the snapshot.
// One slow provider delays the response by at most the probe timeout.
func (m *Monitor) Check(ctx context.Context) domain.HealthSnapshot {
	labels := m.registry.List()
	statuses := make(map[domain.Backend]domain.Status, len(labels))
	reasons := make(map[domain.Backend]string)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, label := range labels {
		adapter, ok := m.registry.Get(label)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(label domain.Backend, adapter backend.Adapter) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
			defer cancel()

			status, reason := classify(adapter.Probe(probeCtx))
			mu.Lock()
			statuses[label] = status
			if reason != "" {
				reasons[label] = reason
			}
			mu.Unlock()
		}(label, adapter)
	}
	wg.Wait()

	snapshot := domain.HealthSnapshot{
		Status:  statuses,
		Message: composeMessage(statuses, reasons),
	}
	if agg := snapshot.Aggregate(); agg != domain.StatusHealthy {
		m.log.Warn().Str("status", string(agg)).Str("detail", snapshot.Message).Msg("backends not fully healthy")
	}
	return snapshot
}

// classify maps a probe result onto a status. A 503 means the provider
// is up but still warming (the visualization agent does this on boot);
// other HTTP errors mean it is up but failing; transport failures and
// timeouts mean it is unreachable.
func classify(err error) (domain.Status, string) {
	if err == nil {
		return domain.StatusHealthy, ""
	}

	var provErr *backend.ProviderError
	if errors.As(err, &provErr) {
		switch {
		case provErr.Code == http.StatusServiceUnavailable:
			return domain.StatusInitializing, provErr.Message
		case provErr.Code != 0:
			return domain.StatusDegraded, provErr.Message
		}
		return domain.StatusUnhealthy, provErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.StatusUnhealthy, "probe timed out"
	}
	return domain.StatusUnhealthy, err.Error()
}

// composeMessage summarizes the snapshot for humans, listing only the
// backends that are not healthy.
func composeMessage(statuses map[domain.Backend]domain.Status, reasons map[domain.Backend]string) string {
	var problems []string
	for label, status := range statuses {
		if status == domain.StatusHealthy {
			continue
		}
		entry := fmt.Sprintf("%s: %s", label, status)
		if reason := reasons[label]; reason != "" {
			entry += " (" + reason + ")"
		}
		problems = append(problems, entry)
	}
	if len(problems) == 0 {
		return "all backends operational"
	}
	sort.Strings(problems)
	return strings.Join(problems, "; ")
}
