package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic implements the Reviewer interface on the official SDK. The
// SDK's internal retries are disabled so retryWithBackoff governs attempts
// the same way it does for every other provider.
type Anthropic struct {
	client  *anthropic.Client
	model   string
	retries int
}

// NewAnthropic creates a new Anthropic provider.
func NewAnthropic(opts Options) (*Anthropic, error) {
	key := resolveCredential(opts.Credential, "ANTHROPIC_API_KEY")
	if key == "" {
		return nil, &authError{message: "anthropic credential is not set (ANTHROPIC_API_KEY)"}
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: resolveTimeout(opts.Timeout, 120 * time.Second)}),
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("CODECHECK_ANTHROPIC_BASE_URL")
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	return &Anthropic{
		client:  anthropic.NewClient(clientOpts...),
		model:   opts.Model,
		retries: opts.MaxRetries,
	}, nil
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(a.model)),
		MaxTokens: anthropic.F(int64(maxTokens)),
		System: anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(req.SystemPrompt),
		}),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		}),
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.F(req.Temperature)
	}

	var resp ReviewResponse
	err := retryWithBackoff(ctx, a.retries, func() error {
		msg, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return classifyAnthropicError(err)
		}

		var content string
		for _, block := range msg.Content {
			if block.Type == anthropic.ContentBlockTypeText {
				content += block.Text
			}
		}
		if content == "" {
			return fmt.Errorf("empty text content in API response")
		}

		resp = ReviewResponse{
			Content:    content,
			TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		}
		return nil
	})

	return resp, err
}

// classifyAnthropicError maps SDK errors onto the shared retry taxonomy.
func classifyAnthropicError(err error) error {
	var apierr *anthropic.Error
	if !errors.As(err, &apierr) {
		return err
	}
	switch {
	case apierr.StatusCode == http.StatusTooManyRequests:
		return &rateLimitError{}
	case apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden:
		return &authError{message: err.Error()}
	case apierr.StatusCode >= 500:
		return &serverError{statusCode: apierr.StatusCode, body: err.Error()}
	default:
		return err
	}
}
