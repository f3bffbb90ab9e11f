package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"PippyDesk/internal/domain/models"
	"PippyDesk/pkg/retry"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Config holds Groq client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// Client talks to Groq through its OpenAI-compatible chat completions API.
type Client struct {
	api *openai.Client
	cfg Config
}

// New creates a Groq client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-8b-instant"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{api: openai.NewClientWithConfig(oc), cfg: cfg}
}

func (c *Client) Name() string { return "groq" }

func (c *Client) Ready() bool { return c.cfg.APIKey != "" }

// Generate runs one chat completion with an optional system message.
func (c *Client) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if !c.Ready() {
		return "", retry.Permanent(fmt.Errorf("groq: %w", models.ErrNotConfigured))
	}
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if systemInstruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemInstruction})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq: %w: no choices", models.ErrInvalidPayload)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("groq: %w: empty completion", models.ErrInvalidPayload)
	}
	return text, nil
}

func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("groq: %w: %w", models.ErrRateLimited, err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return retry.Permanent(fmt.Errorf("groq: credentials rejected: %w: %w", models.ErrNotConfigured, err))
	case status >= 400 && status < 500 && status != http.StatusRequestTimeout:
		return retry.Permanent(fmt.Errorf("groq: request rejected: %w: %w", models.ErrTransport, err))
	default:
		return fmt.Errorf("groq: %w: %w", models.ErrTransport, err)
	}
}
