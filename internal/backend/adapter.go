// Package backend wraps each capability provider behind a uniform adapter
// contract with a shared retry policy and error taxonomy.
package backend

import (
	"context"

	"github.com/lendfront/unirouter/internal/domain"
)

// Query is the normalized payload sent to an adapter.
type Query struct {
	Message   string
	SessionID string
	File      *domain.FileUpload
}

// RawResult is a provider's unwrapped success payload. Error carries a
// provider-level failure reported inside an HTTP 200 body (the
// visualization provider does this); transport and HTTP failures are
// returned as Go errors instead.
type RawResult struct {
	Answer        string
	Tags          []string
	Data          []map[string]any
	SQLQuery      string
	ChartAnalysis *domain.ChartAnalysis
	Error         string
}

// Adapter is the uniform call contract around one capability provider.
// Adapters are stateless translators and safe for concurrent use.
type Adapter interface {
	// Backend returns the capability label this adapter serves.
	Backend() domain.Backend

	// Invoke sends the query to the provider and unwraps its payload.
	Invoke(ctx context.Context, q Query) (*RawResult, error)

	// Probe checks the provider's liveness.
	Probe(ctx context.Context) error
}
