package providers

import (
	"context"
	"time"
)

// defaultMaxRetries applies when a provider is constructed without an
// explicit retry budget.
const defaultMaxRetries = 3

type rateLimitError struct{}

func (e *rateLimitError) Error() string { return "rate limited" }

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string { return "server error: " + e.body }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

// IsAuthError checks if an error is an authentication error. Auth errors are
// never retried and map to their own exit code.
func IsAuthError(err error) bool {
	_, ok := err.(*authError)
	return ok
}

// isRetryable reports whether another attempt could succeed. Rate limits and
// 5xx responses are transient; bad credentials are not.
func isRetryable(err error) bool {
	switch err.(type) {
	case *rateLimitError, *serverError:
		return true
	default:
		return false
	}
}

// retryWithBackoff runs fn up to maxRetries+1 times, sleeping 1s, 2s, 4s, ...
// between retryable failures. A maxRetries of 0 or less means the default
// budget; the context cancels the wait.
func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt < maxRetries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
