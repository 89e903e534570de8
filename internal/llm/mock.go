package llm

import "context"

// MockClient is a configurable test double for Client.
type MockClient struct {
	ProviderName string
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	// Calls records every prompt passed to Complete.
	Calls []string
}

func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.Calls = append(m.Calls, prompt)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "", nil
}

func (m *MockClient) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}
