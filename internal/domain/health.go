package domain

// Status is the health state of one backend.
type Status string

const (
	StatusHealthy      Status = "healthy"
	StatusInitializing Status = "initializing"
	StatusDegraded     Status = "degraded"
	StatusUnhealthy    Status = "unhealthy"
)

// severity orders statuses from best to worst for aggregation.
func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusInitializing:
		return 1
	case StatusDegraded:
		return 2
	case StatusUnhealthy:
		return 3
	default:
		return 3
	}
}

// Worse returns the worse of two statuses.
func (s Status) Worse(other Status) Status {
	if other.severity() > s.severity() {
		return other
	}
	return s
}

// HealthSnapshot is the aggregated health of all backends at one instant.
type HealthSnapshot struct {
	Status  map[Backend]Status `json:"status"`
	Message string             `json:"message"`
}

// Aggregate returns the worst status present in the snapshot.
func (h HealthSnapshot) Aggregate() Status {
	agg := StatusHealthy
	for _, s := range h.Status {
		agg = agg.Worse(s)
	}
	return agg
}
