package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lendfront/unirouter/internal/config"
	"github.com/lendfront/unirouter/internal/domain"
)

// KnowledgeAdapter calls the company-knowledge provider (lf_assist).
type KnowledgeAdapter struct {
	baseURL string
	client  *http.Client
}

// NewKnowledgeAdapter creates an adapter for the knowledge provider.
func NewKnowledgeAdapter(cfg config.ProviderConfig) *KnowledgeAdapter {
	return &KnowledgeAdapter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (a *KnowledgeAdapter) Backend() domain.Backend { return domain.BackendKnowledge }

type knowledgeRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type knowledgeResponse struct {
	Query  string   `json:"query"`
	Tags   []string `json:"tags"`
	Answer string   `json:"answer"`
}

// Invoke asks the knowledge provider and unwraps its answer and topic tags.
func (a *KnowledgeAdapter) Invoke(ctx context.Context, q Query) (*RawResult, error) {
	var resp knowledgeResponse
	req := knowledgeRequest{Query: q.Message, SessionID: q.SessionID}
	if err := postJSON(ctx, a.client, a.Backend(), a.baseURL+"/lf-assist/chat", req, &resp); err != nil {
		return nil, err
	}
	return &RawResult{Answer: resp.Answer, Tags: resp.Tags}, nil
}

// Probe checks the provider's health endpoint.
func (a *KnowledgeAdapter) Probe(ctx context.Context) error {
	return probeGET(ctx, a.client, a.Backend(), a.baseURL+"/lf-assist/health")
}
