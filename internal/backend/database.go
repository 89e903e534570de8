package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lendfront/unirouter/internal/config"
	"github.com/lendfront/unirouter/internal/domain"
)

// DatabaseAdapter calls the database-query provider (db_assist).
type DatabaseAdapter struct {
	baseURL string
	client  *http.Client
}

// NewDatabaseAdapter creates an adapter for the database provider.
func NewDatabaseAdapter(cfg config.ProviderConfig) *DatabaseAdapter {
	return &DatabaseAdapter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (a *DatabaseAdapter) Backend() domain.Backend { return domain.BackendDatabase }

type databaseRequest struct {
	Question string `json:"question"`
}

type databaseResponse struct {
	Response string `json:"response"`
	Success  *bool  `json:"success,omitempty"`
}

// Invoke asks the database provider. The provider reports failures in its
// answer text; success=false does not abort the turn.
func (a *DatabaseAdapter) Invoke(ctx context.Context, q Query) (*RawResult, error) {
	var resp databaseResponse
	if err := postJSON(ctx, a.client, a.Backend(), a.baseURL+"/db-assist/chat", databaseRequest{Question: q.Message}, &resp); err != nil {
		return nil, err
	}
	return &RawResult{Answer: resp.Response}, nil
}

// Probe checks the provider's health endpoint.
func (a *DatabaseAdapter) Probe(ctx context.Context) error {
	return probeGET(ctx, a.client, a.Backend(), a.baseURL+"/db-assist/health")
}
