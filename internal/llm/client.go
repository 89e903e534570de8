// Package llm provides the minimal language-model client used for intent
// classification. The router never needs chat-style completions from it;
// a single prompt-in, text-out call is enough.
package llm

import (
	"context"
	"fmt"
)

// Client is the interface the classifier depends on.
type Client interface {
	// Complete sends a prompt and returns the model's text output.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name (e.g., "gemini").
	Name() string
}

// APIError is a non-2xx response from the model API.
type APIError struct {
	Code int
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Code, e.Body)
}
