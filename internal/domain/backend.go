// Package domain holds the core types shared across the router:
// backend labels, chat requests and responses, sessions, and health.
package domain

import "fmt"

// Backend identifies which capability provider handles a request.
// The set is closed; routing and normalization switch exhaustively over it.
type Backend string

const (
	// BackendKnowledge answers company policy and procedure questions.
	BackendKnowledge Backend = "lf_assist"
	// BackendDocument answers questions about an uploaded PDF.
	BackendDocument Backend = "doc_assist"
	// BackendDatabase answers record-lookup questions via generated SQL.
	BackendDatabase Backend = "db_assist"
	// BackendVisualization returns tabular data plus chart configuration.
	BackendVisualization Backend = "viz_assist"
	// BackendScopeGuard deflects out-of-scope queries locally.
	BackendScopeGuard Backend = "scope_guard"
)

// Backends lists every label in routing order.
func Backends() []Backend {
	return []Backend{
		BackendKnowledge,
		BackendDocument,
		BackendDatabase,
		BackendVisualization,
		BackendScopeGuard,
	}
}

// ParseBackend converts a string to a Backend label.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendKnowledge, BackendDocument, BackendDatabase,
		BackendVisualization, BackendScopeGuard:
		return Backend(s), nil
	}
	return "", fmt.Errorf("unknown backend: %q", s)
}

func (b Backend) String() string { return string(b) }
