package backend

import (
	"context"

	"github.com/lendfront/unirouter/internal/domain"
)

// deflectionAnswer is the polite non-answer for out-of-scope queries.
const deflectionAnswer = "I'd love to help you with that! My specialty is assisting with loan applications, " +
	"policies, document reviews, account information, and data visualizations. " +
	"What can I help you with regarding our lending services today?"

// ScopeGuardAdapter deflects out-of-scope queries with a static polite
// response. It makes no external call and is always healthy.
type ScopeGuardAdapter struct{}

// NewScopeGuardAdapter creates the deflection adapter.
func NewScopeGuardAdapter() *ScopeGuardAdapter { return &ScopeGuardAdapter{} }

func (a *ScopeGuardAdapter) Backend() domain.Backend { return domain.BackendScopeGuard }

// Invoke returns the deflection answer.
func (a *ScopeGuardAdapter) Invoke(_ context.Context, _ Query) (*RawResult, error) {
	return &RawResult{Answer: deflectionAnswer}, nil
}

// Probe always succeeds; there is no external dependency.
func (a *ScopeGuardAdapter) Probe(_ context.Context) error { return nil }
