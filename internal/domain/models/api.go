package models

import "time"

// Request and response shapes of the consumer API.

type ChatRequest struct {
	Message       string `json:"message" validate:"required,max=4000"`
	ContextSymbol string `json:"contextSymbol" validate:"max=32"`
}

type ChatResponse struct {
	Reply       string     `json:"reply"`
	Degraded    bool       `json:"degraded,omitempty"`
	Mode        DebateMode `json:"mode"`
	SourcesUsed []string   `json:"sourcesUsed"`
}

type PlanRequest struct {
	Symbol string `json:"symbol" validate:"required,max=32"`
}

type PlanResponse struct {
	Plan        string                  `json:"plan"`
	Degraded    bool                    `json:"degraded,omitempty"`
	Mode        DebateMode              `json:"mode"`
	SourcesUsed []string                `json:"sourcesUsed"`
	DataSources map[string]SourceStatus `json:"dataSources"`
	DataQuality string                  `json:"dataQuality"`
}

// AnalysisEvent is emitted after every chat reply and generated plan.
type AnalysisEvent struct {
	ID          string                  `json:"id"`
	Kind        string                  `json:"kind"`
	Symbol      string                  `json:"symbol,omitempty"`
	Mode        DebateMode              `json:"mode"`
	Degraded    bool                    `json:"degraded"`
	SourcesUsed []string                `json:"sourcesUsed"`
	DataSources map[string]SourceStatus `json:"dataSources,omitempty"`
	LatencyMs   int64                   `json:"latencyMs"`
	CreatedAt   time.Time               `json:"createdAt"`
}

const (
	EventKindChat = "chat"
	EventKindPlan = "plan"
)

// ProviderStatus reports which upstream providers have credentials.
type ProviderStatus struct {
	GeminiReady   bool `json:"geminiReady"`
	GroqReady     bool `json:"groqReady"`
	FinnhubReady  bool `json:"finnhubReady"`
	CalendarReady bool `json:"calendarReady"`
}

// Configured returns how many providers are ready, and the total.
func (s ProviderStatus) Configured() (int, int) {
	n := 0
	for _, ok := range []bool{s.GeminiReady, s.GroqReady, s.FinnhubReady, s.CalendarReady} {
		if ok {
			n++
		}
	}
	return n, 4
}

// HealthReport is served by the health endpoint.
type HealthReport struct {
	Status     string         `json:"status"`
	Providers  ProviderStatus `json:"providers"`
	Configured string         `json:"configured"`
	Caches     map[string]int `json:"caches"`
	UptimeSec  int64          `json:"uptimeSec"`
}
