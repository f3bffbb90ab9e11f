package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuoteAccepts(t *testing.T) {
	now := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	q, err := ValidateQuote("AAPL", &QuotePayload{C: 150.25, H: 151, L: 149, O: 150, PC: 149.5}, now)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 150.25, q.Price)
	assert.Equal(t, 151.0, q.High)
	assert.Equal(t, 149.0, q.Low)
	assert.Equal(t, OriginLive, q.Origin)
	assert.Equal(t, now, q.ObservedAt, "no provider timestamp falls back to now")
}

func TestValidateQuoteUsesProviderTimestamp(t *testing.T) {
	q, err := ValidateQuote("SPY", &QuotePayload{C: 500, H: 501, L: 499, O: 500, PC: 498, T: 1714572000}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1714572000, 0).UTC(), q.ObservedAt)
}

func TestValidateQuoteRejects(t *testing.T) {
	cases := map[string]*QuotePayload{
		"nil":            nil,
		"all zero":       {},
		"missing high":   {C: 10, L: 9, O: 9.5, PC: 9.8},
		"missing prev":   {C: 10, H: 11, L: 9, O: 9.5},
		"negative price": {C: -1, H: 11, L: 9, O: 9.5, PC: 9.8},
		"high below low": {C: 10, H: 9, L: 11, O: 9.5, PC: 9.8},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateQuote("X", p, time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPayload))
		})
	}
}

func TestSourceResult(t *testing.T) {
	ok := Success([]int{1})
	assert.True(t, ok.OK())
	assert.Empty(t, ok.Reason)

	bad := Unavailable[[]int]("")
	assert.False(t, bad.OK())
	assert.Equal(t, "unavailable", bad.Reason)
	assert.Nil(t, bad.Data)
}

func TestAggregatedContextAvailability(t *testing.T) {
	a := &AggregatedContext{
		ChartAnalysis: Success(ChartAnalysis{Empty: true}),
		Quotes:        Success([]SymbolQuote{}),
		News:          Unavailable[[]NewsItem]("transport"),
		Calendar:      Success([]CalendarEvent{}),
	}
	n, total := a.Available()
	assert.Equal(t, 3, n)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{SectionChartAnalysis, SectionQuotes, SectionCalendar}, a.AvailableSections())
	assert.Equal(t, StatusUnavailable, a.Statuses()[SectionNews])
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, "ok", FailureKind(nil))
	assert.Equal(t, "rate_limited", FailureKind(ErrRateLimited))
	assert.Equal(t, "invalid_payload", FailureKind(errors.Join(errors.New("x"), ErrInvalidPayload)))
	assert.Equal(t, "transport", FailureKind(errors.New("dial tcp")))
}
