package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lendfront/unirouter/internal/domain"
)

// postJSON sends a JSON body and decodes a JSON response, translating
// failures into ProviderError for retry classification.
func postJSON(ctx context.Context, client *http.Client, label domain.Backend, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal request: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ProviderError{Backend: label.String(), Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{Backend: label.String(), Message: "failed to read response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{Backend: label.String(), Code: resp.StatusCode, Message: truncate(string(body), 500)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ProviderError{Backend: label.String(), Message: "failed to parse response: " + err.Error()}
	}
	return nil
}

// probeGET checks a provider health endpoint. A 503 is preserved so the
// health monitor can report an initializing provider distinctly.
func probeGET(ctx context.Context, client *http.Client, label domain.Backend, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create probe: %w", label, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ProviderError{Backend: label.String(), Message: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{Backend: label.String(), Code: resp.StatusCode, Message: resp.Status}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
