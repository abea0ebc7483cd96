package providers

import (
	"context"
	"fmt"
	"os"
	"time"
)

// ReviewRequest contains the data sent to an LLM for review.
type ReviewRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ReviewResponse contains the raw response from an LLM.
type ReviewResponse struct {
	Content    string
	TokensUsed int
}

// Reviewer is the provider abstraction interface.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
	Name() string
}

// Options configures provider construction. Credential and BaseURL fall
// back to the provider's environment variables when empty; MaxRetries of 0
// means the default retry budget.
type Options struct {
	Provider   string
	Model      string
	Credential string
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
}

// New creates a provider by name.
func New(opts Options) (Reviewer, error) {
	switch opts.Provider {
	case "anthropic":
		return NewAnthropic(opts)
	case "openai":
		return NewOpenAI(opts)
	case "gemini", "google":
		return NewGemini(opts)
	case "ollama", "lmstudio":
		return NewOllama(opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", opts.Provider)
	}
}

// resolveCredential prefers the explicitly configured credential, then the
// given environment variables in order.
func resolveCredential(explicit string, envVars ...string) string {
	if explicit != "" {
		return explicit
	}
	for _, v := range envVars {
		if val := os.Getenv(v); val != "" {
			return val
		}
	}
	return ""
}

func resolveTimeout(t, fallback time.Duration) time.Duration {
	if t > 0 {
		return t
	}
	return fallback
}
