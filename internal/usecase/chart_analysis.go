package usecase

import (
	"context"
	"fmt"
	"sync"

	"PippyDesk/internal/domain/models"
	domrepo "PippyDesk/internal/domain/repository"
	domsvc "PippyDesk/internal/domain/service"
	"PippyDesk/pkg/cache"
	applogger "PippyDesk/pkg/logger"
)

// ChartAnalyzer reads uploaded charts with the vision backend.
// Readings are cached per chart ID, so an unchanged upload is analyzed once per TTL.
type ChartAnalyzer struct {
	source    domrepo.ChartSource
	vision    domsvc.VisionGenerator
	fetcher   *CachedFetcher[string]
	prompts   PromptBook
	maxCharts int
	log       *applogger.Logger
}

func NewChartAnalyzer(source domrepo.ChartSource, vision domsvc.VisionGenerator, store cache.Store[string], policy FetchPolicy, prompts PromptBook, maxCharts int, m domrepo.Metrics, l *applogger.Logger) *ChartAnalyzer {
	if maxCharts <= 0 {
		maxCharts = 3
	}
	m, l = orNop(m, l)
	return &ChartAnalyzer{
		source:    source,
		vision:    vision,
		fetcher:   NewCachedFetcher("charts", store, policy, m, l),
		prompts:   prompts,
		maxCharts: maxCharts,
		log:       l,
	}
}

// Analyze returns an Empty analysis when nothing is uploaded. It fails only
// when listing fails or every chart fails.
func (a *ChartAnalyzer) Analyze(ctx context.Context, symbol string) (models.ChartAnalysis, error) {
	charts, err := a.source.Charts(ctx, symbol)
	if err != nil {
		return models.ChartAnalysis{}, fmt.Errorf("list charts: %w", err)
	}
	if len(charts) == 0 {
		return models.ChartAnalysis{Empty: true}, nil
	}
	if len(charts) > a.maxCharts {
		charts = charts[:a.maxCharts]
	}

	readings := make([]*models.ChartReading, len(charts))
	errs := make([]error, len(charts))
	var wg sync.WaitGroup
	for i, ch := range charts {
		wg.Add(1)
		go func(i int, ch models.ChartImage) {
			defer wg.Done()
			res, err := a.fetcher.Fetch(ctx, ch.ID, func(ctx context.Context) (string, error) {
				return a.vision.GenerateWithImage(ctx, a.prompts.ChartPrompt(symbol),
					a.prompts.System(a.prompts.ChartReader), ch.MIMEType, ch.Data)
			})
			if err != nil {
				errs[i] = err
				return
			}
			readings[i] = &models.ChartReading{ChartID: ch.ID, Text: res.Value, Stale: res.Origin == models.OriginStale}
		}(i, ch)
	}
	wg.Wait()

	out := models.ChartAnalysis{}
	var lastErr error
	for i, r := range readings {
		if r == nil {
			out.Failed++
			lastErr = errs[i]
			continue
		}
		out.Readings = append(out.Readings, *r)
	}
	if len(out.Readings) == 0 {
		return models.ChartAnalysis{}, fmt.Errorf("all %d charts failed: %w", len(charts), lastErr)
	}
	return out, nil
}
