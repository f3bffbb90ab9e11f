package finnhub

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"PippyDesk/internal/domain/models"
	"PippyDesk/internal/service/upstream"
	xhttp "PippyDesk/pkg/http"
	"PippyDesk/pkg/retry"
	"PippyDesk/pkg/util"

	"github.com/microcosm-cc/bluemonday"
)

const DefaultBaseURL = "https://finnhub.io/api/v1"

// Client is the Finnhub REST client for quotes and company news.
type Client struct {
	*upstream.Base
	apiKey   string
	sanitize *bluemonday.Policy
}

// New creates a Finnhub client.
func New(apiKey, baseURL string, timeout time.Duration, opts ...xhttp.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Base:     upstream.New("finnhub", strings.TrimRight(baseURL, "/"), timeout, opts...),
		apiKey:   apiKey,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Ready reports whether an API key is configured.
func (c *Client) Ready() bool { return c.apiKey != "" }

// Quote fetches the raw quote payload. Validation is the caller's job.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.QuotePayload, error) {
	if !c.Ready() {
		return nil, retry.Permanent(fmt.Errorf("finnhub: %w", models.ErrNotConfigured))
	}
	var p models.QuotePayload
	err := c.GetJSON(ctx, "/quote", map[string][]string{"symbol": {symbol}}, c.headers(), &p)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	return &p, nil
}

type newsItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// CompanyNews fetches headlines for symbol between from and to (dates, inclusive).
// Items without a headline are dropped; HTML in headline and summary is stripped.
func (c *Client) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error) {
	if !c.Ready() {
		return nil, retry.Permanent(fmt.Errorf("finnhub: %w", models.ErrNotConfigured))
	}
	var raw []newsItem
	q := map[string][]string{
		"symbol": {symbol},
		"from":   {util.DateString(from)},
		"to":     {util.DateString(to)},
	}
	if err := c.GetJSON(ctx, "/company-news", q, c.headers(), &raw); err != nil {
		return nil, fmt.Errorf("company news %s: %w", symbol, err)
	}

	out := make([]models.NewsItem, 0, len(raw))
	for _, n := range raw {
		headline := c.clean(n.Headline)
		if headline == "" {
			continue
		}
		out = append(out, models.NewsItem{
			Headline:    headline,
			Summary:     c.clean(n.Summary),
			Source:      n.Source,
			PublishedAt: time.Unix(n.Datetime, 0).UTC(),
			URL:         n.URL,
		})
	}
	return out, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{"X-Finnhub-Token": c.apiKey}
}

func (c *Client) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.sanitize.Sanitize(s)))
}
