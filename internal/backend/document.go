package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/lendfront/unirouter/internal/config"
	"github.com/lendfront/unirouter/internal/domain"
)

// DocumentAdapter calls the document question-answering provider
// (doc_assist). The outbound call is multipart: question plus the PDF.
type DocumentAdapter struct {
	baseURL string
	client  *http.Client
}

// NewDocumentAdapter creates an adapter for the document provider.
func NewDocumentAdapter(cfg config.ProviderConfig) *DocumentAdapter {
	return &DocumentAdapter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (a *DocumentAdapter) Backend() domain.Backend { return domain.BackendDocument }

type documentResponse struct {
	Answer string `json:"answer"`
}

// Invoke sends the question and PDF to the provider.
func (a *DocumentAdapter) Invoke(ctx context.Context, q Query) (*RawResult, error) {
	label := a.Backend()
	if q.File == nil {
		return nil, fmt.Errorf("%s: no file attached", label)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("question", q.Message); err != nil {
		return nil, fmt.Errorf("%s: building form: %w", label, err)
	}
	fw, err := w.CreateFormFile("file", q.File.Filename)
	if err != nil {
		return nil, fmt.Errorf("%s: building form: %w", label, err)
	}
	if _, err := fw.Write(q.File.Content); err != nil {
		return nil, fmt.Errorf("%s: building form: %w", label, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: building form: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/doc-assist/ask", &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", label, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{Backend: label.String(), Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Backend: label.String(), Message: "failed to read response: " + err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{Backend: label.String(), Code: resp.StatusCode, Message: truncate(string(body), 500)}
	}

	var out documentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ProviderError{Backend: label.String(), Message: "failed to parse response: " + err.Error()}
	}
	return &RawResult{Answer: out.Answer}, nil
}

// Probe checks the provider root route.
func (a *DocumentAdapter) Probe(ctx context.Context) error {
	return probeGET(ctx, a.client, a.Backend(), a.baseURL+"/doc-assist/")
}
