package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"PippyDesk/internal/domain/models"
	"PippyDesk/internal/service/upstream"
	xhttp "PippyDesk/pkg/http"
	"PippyDesk/pkg/retry"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config holds Gemini client settings.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int
}

// Client calls the Gemini generateContent REST endpoint. It supports images.
type Client struct {
	base *upstream.Base
	cfg  Config
}

// New creates a Gemini client.
func New(cfg Config, opts ...xhttp.ClientOption) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &Client{
		base: upstream.New("gemini", strings.TrimRight(cfg.BaseURL, "/"), cfg.Timeout, opts...),
		cfg:  cfg,
	}
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Ready() bool { return c.cfg.APIKey != "" }

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate returns the model's text for prompt.
func (c *Client) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	return c.generate(ctx, systemInstruction, []part{{Text: prompt}})
}

// GenerateWithImage sends the image inline next to the prompt.
func (c *Client) GenerateWithImage(ctx context.Context, prompt, systemInstruction, mimeType string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", retry.Permanent(fmt.Errorf("gemini: %w: empty image", models.ErrInvalidPayload))
	}
	return c.generate(ctx, systemInstruction, []part{
		{Text: prompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
	})
}

func (c *Client) generate(ctx context.Context, system string, parts []part) (string, error) {
	if !c.Ready() {
		return "", retry.Permanent(fmt.Errorf("gemini: %w", models.ErrNotConfigured))
	}
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	}
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	var resp generateResponse
	path := "/models/" + c.cfg.Model + ":generateContent"
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}
	if err := c.base.PostJSON(ctx, path, nil, headers, req, &resp); err != nil {
		return "", err
	}

	if r := resp.PromptFeedback.BlockReason; r != "" {
		return "", fmt.Errorf("gemini: %w: prompt blocked (%s)", models.ErrInvalidPayload, r)
	}
	var sb strings.Builder
	if len(resp.Candidates) > 0 {
		for _, p := range resp.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini: %w: empty completion", models.ErrInvalidPayload)
	}
	return text, nil
}
