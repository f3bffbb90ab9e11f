package usecase

import (
	"fmt"
	"strings"

	"PippyDesk/internal/domain/models"
)

// PromptBook holds the persona and the per-role system instructions.
type PromptBook struct {
	Persona     string
	First       string
	Alternative string
	Synthesizer string
	Refiner     string
	Polisher    string
	ChartReader string
	Planner     string
}

// DefaultPromptBook returns the built-in prompts.
func DefaultPromptBook() PromptBook {
	return PromptBook{
		Persona: "You are Agent Pippy, an AI trading assistant. You explain markets, analysis and risk " +
			"in a professional but approachable tone. You educate rather than advise: remind users that " +
			"trading carries risk, never promise returns and never give personal financial advice.",
		First:       "You give the first perspective on the question. Be concise but thorough.",
		Alternative: "You give an independent second perspective, including viewpoints the first analyst may miss. Be concise but thorough.",
		Synthesizer: "Merge the two analyst perspectives into one clear, helpful answer. Keep the strongest points of each and resolve disagreements explicitly.",
		Refiner:     "Review the draft answer and return the final version. Make it clear, actionable and user-friendly without adding new claims.",
		Polisher:    "Only one analyst answered. Tidy the answer for the user, keep its substance, and do not invent a second opinion.",
		ChartReader: "You read trading chart screenshots. Describe trend, structure, key levels, patterns and momentum that are visible. Do not guess prices you cannot read.",
		Planner:     "When data sections are marked unavailable, say so and lower your confidence accordingly. Never fill gaps with invented numbers.",
	}
}

// System joins the persona with a role instruction.
func (b PromptBook) System(role string) string {
	if role == "" {
		return b.Persona
	}
	return b.Persona + "\n\n" + role
}

// PerspectivePrompt is sent to both backends during fan-out.
func (b PromptBook) PerspectivePrompt(query, marketContext string, alternative bool) string {
	var sb strings.Builder
	sb.WriteString("Analyze this trading question and give your perspective concisely.\n\n")
	if marketContext != "" {
		sb.WriteString(marketContext)
		sb.WriteString("\n\n")
	}
	sb.WriteString("User query: ")
	sb.WriteString(query)
	if alternative {
		sb.WriteString("\n\nGive a clear, focused analysis and include alternative viewpoints.")
	} else {
		sb.WriteString("\n\nGive a clear, focused analysis.")
	}
	return sb.String()
}

// SynthesisPrompt embeds both perspectives verbatim, labelled by backend.
func (b PromptBook) SynthesisPrompt(query string, first, second models.DebatePerspective) string {
	return fmt.Sprintf("Synthesize these two perspectives into one answer.\n\nUser query: %s\n\n"+
		"Perspective 1 (%s):\n%s\n\nPerspective 2 (%s):\n%s\n\n"+
		"Give a clear, complete answer that combines the best insights of both.",
		query, first.Backend, first.Text, second.Backend, second.Text)
}

// RefinePrompt asks the second backend to review the synthesized draft.
func (b PromptBook) RefinePrompt(query, draft string) string {
	return fmt.Sprintf("Review and refine this answer for the user.\n\nUser query: %s\n\nDraft answer:\n%s\n\n"+
		"Return the final polished answer.", query, draft)
}

// PolishPrompt is the single-source pass.
func (b PromptBook) PolishPrompt(query string, p models.DebatePerspective) string {
	return fmt.Sprintf("Polish this answer for the user.\n\nUser query: %s\n\nAnswer (%s):\n%s\n\n"+
		"Return the improved answer.", query, p.Backend, p.Text)
}

// ChartPrompt asks the vision backend to read one chart.
func (b PromptBook) ChartPrompt(symbol string) string {
	return fmt.Sprintf("Analyze this %s chart. Summarize trend, market structure, support and resistance, "+
		"notable patterns and momentum in a few bullet points.", symbol)
}

// PlanQuery is the user query behind a generated trading plan.
func (b PromptBook) PlanQuery(symbol string) string {
	return fmt.Sprintf("Build a trading plan for %s for the current session using the market context above. "+
		"Cover: directional bias with reasoning, key levels, entry zones, stop loss placement, take profit targets, "+
		"risk notes, and scheduled event risk. State the data quality line verbatim at the top.", symbol)
}

// DataQuality renders "N of M sources" for an aggregate.
func DataQuality(a *models.AggregatedContext) string {
	n, total := a.Available()
	return fmt.Sprintf("%d of %d sources", n, total)
}

// FormatContext renders the aggregate as labelled prompt text. Every section
// header carries its status so the model can state degradation explicitly.
func FormatContext(a *models.AggregatedContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== MARKET CONTEXT: %s (as of %s) ===\n", a.Symbol, a.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	n, total := a.Available()
	fmt.Fprintf(&sb, "Data quality: %s", DataQuality(a))
	if n < total {
		var missing []string
		for _, name := range []string{models.SectionChartAnalysis, models.SectionQuotes, models.SectionNews, models.SectionCalendar} {
			if a.Statuses()[name] != models.StatusSuccess {
				missing = append(missing, name)
			}
		}
		fmt.Fprintf(&sb, " (degraded mode, unavailable: %s)", strings.Join(missing, ", "))
	}
	sb.WriteString("\n")

	writeCharts(&sb, a.ChartAnalysis)
	writeQuotes(&sb, a.Quotes)
	writeNews(&sb, a.News)
	writeCalendar(&sb, a.Calendar)
	return strings.TrimRight(sb.String(), "\n")
}

func header(sb *strings.Builder, title string, status models.SourceStatus, reason string) bool {
	if status == models.StatusSuccess {
		fmt.Fprintf(sb, "\n[%s | available]\n", title)
		return true
	}
	fmt.Fprintf(sb, "\n[%s | UNAVAILABLE: %s]\n", title, reason)
	return false
}

func writeCharts(sb *strings.Builder, r models.SourceResult[models.ChartAnalysis]) {
	if !header(sb, "CHART ANALYSIS", r.Status, r.Reason) {
		return
	}
	switch {
	case r.Data.Skipped:
		sb.WriteString("Not requested.\n")
	case r.Data.Empty:
		sb.WriteString("No charts uploaded.\n")
	default:
		for i, rd := range r.Data.Readings {
			tag := ""
			if rd.Stale {
				tag = " [stale]"
			}
			fmt.Fprintf(sb, "Chart %d%s:\n%s\n", i+1, tag, rd.Text)
		}
		if r.Data.Failed > 0 {
			fmt.Fprintf(sb, "(%d chart(s) could not be analyzed)\n", r.Data.Failed)
		}
	}
}

func writeQuotes(sb *strings.Builder, r models.SourceResult[[]models.SymbolQuote]) {
	if !header(sb, "QUOTES", r.Status, r.Reason) {
		return
	}
	for _, sq := range r.Data {
		if !sq.Result.OK() {
			fmt.Fprintf(sb, "- %s: unavailable (%s)\n", sq.Symbol, sq.Result.Reason)
			continue
		}
		q := sq.Result.Data
		fmt.Fprintf(sb, "- %s %.2f (%+.2f, %+.2f%%) H %.2f L %.2f O %.2f PC %.2f [%s",
			q.Symbol, q.Price, q.Change, q.PercentChange, q.High, q.Low, q.Open, q.PreviousClose, q.Origin)
		if q.Origin == models.OriginStale {
			fmt.Fprintf(sb, ", as of %s", q.ObservedAt.UTC().Format("15:04 MST"))
		}
		sb.WriteString("]\n")
	}
}

func writeNews(sb *strings.Builder, r models.SourceResult[[]models.NewsItem]) {
	if !header(sb, "NEWS", r.Status, r.Reason) {
		return
	}
	if len(r.Data) == 0 {
		sb.WriteString("No recent headlines.\n")
		return
	}
	for _, n := range r.Data {
		fmt.Fprintf(sb, "- %s %s (%s)\n", n.PublishedAt.UTC().Format("Jan 02 15:04"), n.Headline, n.Source)
	}
}

func writeCalendar(sb *strings.Builder, r models.SourceResult[[]models.CalendarEvent]) {
	if !header(sb, "ECONOMIC CALENDAR", r.Status, r.Reason) {
		return
	}
	if len(r.Data) == 0 {
		sb.WriteString("No high or medium impact events.\n")
		return
	}
	for _, e := range r.Data {
		fmt.Fprintf(sb, "- %s %s %s %s (%s)", e.Date.Format("Mon Jan 02"), e.Time, e.Country, e.Title, e.Impact)
		if e.Forecast != "" {
			fmt.Fprintf(sb, " forecast %s", e.Forecast)
		}
		if e.Previous != "" {
			fmt.Fprintf(sb, " previous %s", e.Previous)
		}
		if e.Actual != "" {
			fmt.Fprintf(sb, " actual %s", e.Actual)
		}
		sb.WriteString("\n")
	}
}

// Annotate appends the provenance note to degraded or unsynthesized answers.
func Annotate(o *models.DebateOutcome) string {
	switch o.Mode {
	case models.DebateModeSingleSource:
		return fmt.Sprintf("%s\n\n---\nDegraded mode: answered by %s only (1 of 2 AI sources).",
			o.Answer, strings.Join(o.SourcesUsed, ", "))
	case models.DebateModeUnsynthesized:
		return fmt.Sprintf("%s\n\n---\nDegraded mode: unsynthesized answer from %s; the synthesis step failed.",
			o.Answer, strings.Join(o.SourcesUsed, ", "))
	default:
		return o.Answer
	}
}
