package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lendfront/unirouter/internal/config"
	"github.com/lendfront/unirouter/internal/domain"
)

// VisualizationAdapter calls the data-visualization provider (viz_assist).
type VisualizationAdapter struct {
	baseURL string
	client  *http.Client
}

// NewVisualizationAdapter creates an adapter for the visualization provider.
func NewVisualizationAdapter(cfg config.ProviderConfig) *VisualizationAdapter {
	return &VisualizationAdapter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (a *VisualizationAdapter) Backend() domain.Backend { return domain.BackendVisualization }

type visualizationRequest struct {
	Question string `json:"question"`
	ThreadID string `json:"thread_id,omitempty"`
}

type visualizationResponse struct {
	SQLQuery      string                `json:"sql_query"`
	Data          []map[string]any      `json:"data"`
	ChartAnalysis *domain.ChartAnalysis `json:"chart_analysis"`
	Error         string                `json:"error"`
	RecordCount   int                   `json:"record_count"`
}

// Invoke runs the visualization query. The provider reports agent-level
// failures inside a 200 body; those surface via RawResult.Error rather
// than a Go error, since retrying them cannot help.
func (a *VisualizationAdapter) Invoke(ctx context.Context, q Query) (*RawResult, error) {
	req := visualizationRequest{Question: q.Message, ThreadID: q.SessionID}
	var resp visualizationResponse
	if err := postJSON(ctx, a.client, a.Backend(), a.baseURL+"/viz-assist/chat", req, &resp); err != nil {
		return nil, err
	}
	return &RawResult{
		SQLQuery:      resp.SQLQuery,
		Data:          resp.Data,
		ChartAnalysis: resp.ChartAnalysis,
		Error:         resp.Error,
	}, nil
}

// Probe checks the provider's health endpoint. A 503 means the agent is
// still warming up; the monitor reports that as initializing.
func (a *VisualizationAdapter) Probe(ctx context.Context) error {
	return probeGET(ctx, a.client, a.Backend(), a.baseURL+"/viz-assist/health")
}
