package models

import "time"

// NewsItem is one provider headline.
type NewsItem struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	URL         string    `json:"url"`
}

// Impact grades an economic calendar event.
type Impact string

const (
	ImpactHigh    Impact = "High"
	ImpactMedium  Impact = "Medium"
	ImpactLow     Impact = "Low"
	ImpactHoliday Impact = "Holiday"
)

// CalendarEvent is a parsed economic calendar entry.
// Time is the display time ("8:30am", "All Day"); Date carries the full instant.
type CalendarEvent struct {
	Title    string    `json:"title"`
	Country  string    `json:"country"`
	Date     time.Time `json:"date"`
	Time     string    `json:"time"`
	Impact   Impact    `json:"impact"`
	Forecast string    `json:"forecast,omitempty"`
	Previous string    `json:"previous,omitempty"`
	Actual   string    `json:"actual,omitempty"`
}

// ChartImage is an uploaded chart screenshot.
type ChartImage struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	MIMEType   string    `json:"mimeType"`
	Data       []byte    `json:"-"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ChartReading is the analysis of one chart image.
type ChartReading struct {
	ChartID string `json:"chartId"`
	Text    string `json:"text"`
	Stale   bool   `json:"stale,omitempty"`
}

// ChartAnalysis is the chart section of an aggregate.
// Empty means no charts were uploaded, which is not a failure.
// Skipped means the caller did not ask for chart analysis.
type ChartAnalysis struct {
	Empty    bool           `json:"empty"`
	Skipped  bool           `json:"skipped,omitempty"`
	Readings []ChartReading `json:"readings,omitempty"`
	Failed   int            `json:"failed,omitempty"`
}

// Section names used in aggregates, API responses and metrics.
const (
	SectionChartAnalysis = "chartAnalysis"
	SectionQuotes        = "quotes"
	SectionNews          = "news"
	SectionCalendar      = "calendar"
)

// AggregatedContext is the request-scoped composite built for one symbol.
type AggregatedContext struct {
	Symbol        string                        `json:"symbol"`
	GeneratedAt   time.Time                     `json:"generatedAt"`
	ChartAnalysis SourceResult[ChartAnalysis]   `json:"chartAnalysis"`
	Quotes        SourceResult[[]SymbolQuote]   `json:"quotes"`
	News          SourceResult[[]NewsItem]      `json:"news"`
	Calendar      SourceResult[[]CalendarEvent] `json:"calendar"`
}

// Statuses maps every section to its status.
func (a *AggregatedContext) Statuses() map[string]SourceStatus {
	return map[string]SourceStatus{
		SectionChartAnalysis: a.ChartAnalysis.Status,
		SectionQuotes:        a.Quotes.Status,
		SectionNews:          a.News.Status,
		SectionCalendar:      a.Calendar.Status,
	}
}

// Available returns how many of the sections succeeded, and the total.
func (a *AggregatedContext) Available() (int, int) {
	n := 0
	st := a.Statuses()
	for _, s := range st {
		if s == StatusSuccess {
			n++
		}
	}
	return n, len(st)
}

// AvailableSections lists the successful sections in a fixed order.
func (a *AggregatedContext) AvailableSections() []string {
	out := make([]string, 0, 4)
	st := a.Statuses()
	for _, name := range []string{SectionChartAnalysis, SectionQuotes, SectionNews, SectionCalendar} {
		if st[name] == StatusSuccess {
			out = append(out, name)
		}
	}
	return out
}
