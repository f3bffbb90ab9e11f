package models

import (
	"fmt"
	"time"
)

// Origin says where a returned value came from.
type Origin string

const (
	OriginLive   Origin = "live"
	OriginCached Origin = "cached"
	OriginStale  Origin = "stale"
)

// Quote is a validated market quote. Price > 0 and High >= Low always hold.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	PercentChange float64   `json:"percentChange"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Open          float64   `json:"open"`
	PreviousClose float64   `json:"previousClose"`
	ObservedAt    time.Time `json:"observedAt"`
	Origin        Origin    `json:"origin"`
}

// QuotePayload is the untrusted provider response.
// Field names follow the provider: c=current, d=change, dp=percent change,
// h=high, l=low, o=open, pc=previous close, t=unix seconds.
type QuotePayload struct {
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	DP float64 `json:"dp"`
	H  float64 `json:"h"`
	L  float64 `json:"l"`
	O  float64 `json:"o"`
	PC float64 `json:"pc"`
	T  int64   `json:"t"`
}

// ValidateQuote turns a raw payload into a live Quote or an ErrInvalidPayload error.
// A zero required field counts as missing. observedAt falls back to now when t is absent.
func ValidateQuote(symbol string, p *QuotePayload, now time.Time) (Quote, error) {
	if p == nil {
		return Quote{}, fmt.Errorf("%w: empty quote for %s", ErrInvalidPayload, symbol)
	}
	required := []struct {
		name string
		v    float64
	}{{"c", p.C}, {"h", p.H}, {"l", p.L}, {"o", p.O}, {"pc", p.PC}}
	for _, f := range required {
		if f.v == 0 {
			return Quote{}, fmt.Errorf("%w: %s missing field %s", ErrInvalidPayload, symbol, f.name)
		}
	}
	if p.C <= 0 {
		return Quote{}, fmt.Errorf("%w: %s non-positive price %v", ErrInvalidPayload, symbol, p.C)
	}
	if p.H < p.L {
		return Quote{}, fmt.Errorf("%w: %s high %v below low %v", ErrInvalidPayload, symbol, p.H, p.L)
	}

	observed := now
	if p.T > 0 {
		observed = time.Unix(p.T, 0).UTC()
	}
	return Quote{
		Symbol:        symbol,
		Price:         p.C,
		Change:        p.D,
		PercentChange: p.DP,
		High:          p.H,
		Low:           p.L,
		Open:          p.O,
		PreviousClose: p.PC,
		ObservedAt:    observed,
		Origin:        OriginLive,
	}, nil
}

// SymbolQuote is one watch-list slot.
type SymbolQuote struct {
	Symbol string              `json:"symbol"`
	Result SourceResult[Quote] `json:"result"`
}
