package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PippyDesk/internal/domain/models"
	"PippyDesk/internal/service/upstream"
	xhttp "PippyDesk/pkg/http"
	"PippyDesk/pkg/retry"
	"PippyDesk/pkg/util"
)

const DefaultURL = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"

// Client reads the weekly economic calendar JSON feed.
type Client struct {
	base    *upstream.Base
	enabled bool
}

// New creates a calendar client for the full feed URL.
func New(url string, enabled bool, timeout time.Duration, opts ...xhttp.ClientOption) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{base: upstream.New("calendar", url, timeout, opts...), enabled: enabled}
}

// Ready reports whether the feed is enabled. It needs no credentials.
func (c *Client) Ready() bool { return c.enabled }

type feedEvent struct {
	Title    string `json:"title"`
	Country  string `json:"country"`
	Date     string `json:"date"`
	Impact   string `json:"impact"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
	Actual   string `json:"actual"`
}

// Events returns every parsable event in the feed, in feed order.
// Entries with an unparsable date are skipped.
func (c *Client) Events(ctx context.Context) ([]models.CalendarEvent, error) {
	if !c.enabled {
		return nil, retry.Permanent(fmt.Errorf("calendar: %w", models.ErrNotConfigured))
	}
	var raw []feedEvent
	if err := c.base.GetJSON(ctx, "", nil, map[string]string{"Accept": "application/json"}, &raw); err != nil {
		return nil, fmt.Errorf("calendar feed: %w", err)
	}

	out := make([]models.CalendarEvent, 0, len(raw))
	for _, e := range raw {
		at, ok := util.ParseTime(e.Date)
		if !ok || strings.TrimSpace(e.Title) == "" {
			continue
		}
		out = append(out, models.CalendarEvent{
			Title:    strings.TrimSpace(e.Title),
			Country:  e.Country,
			Date:     at,
			Time:     displayTime(at),
			Impact:   models.Impact(e.Impact),
			Forecast: e.Forecast,
			Previous: e.Previous,
			Actual:   e.Actual,
		})
	}
	return out, nil
}

// The feed marks all-day events with a midnight local timestamp.
func displayTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 {
		return "All Day"
	}
	return t.Format("3:04pm")
}
