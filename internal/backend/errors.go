package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ProviderError is a failed call to a capability provider. Code is the
// HTTP status, or 0 for transport-level failures.
type ProviderError struct {
	Backend string
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("%s: %s", e.Backend, e.Message)
	}
	return fmt.Sprintf("%s: provider error (%d): %s", e.Backend, e.Code, e.Message)
}

// IsRetryable reports whether the error suggests the call may succeed on
// another attempt. Network failures, timeouts, 429 and 5xx responses are
// retryable; client errors are terminal. A cancelled caller never retries.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch {
		case provErr.Code == 0:
			return true
		case provErr.Code == 429:
			return true
		case provErr.Code >= 500:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused")
}
