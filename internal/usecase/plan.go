package usecase

import (
	"context"
	"fmt"
	"time"

	"PippyDesk/internal/domain/models"
	domrepo "PippyDesk/internal/domain/repository"
	applogger "PippyDesk/pkg/logger"
	"PippyDesk/pkg/util"
)

// PlanService builds a trading plan from the full aggregate.
type PlanService struct {
	debater    *Debater
	aggregator *Aggregator
	prompts    PromptBook
	events     domrepo.EventPublisher
	metrics    domrepo.Metrics
	log        *applogger.Logger
}

func NewPlanService(d *Debater, a *Aggregator, prompts PromptBook, events domrepo.EventPublisher, m domrepo.Metrics, l *applogger.Logger) *PlanService {
	m, l = orNop(m, l)
	return &PlanService{
		debater:    d,
		aggregator: a,
		prompts:    prompts,
		events:     events,
		metrics:    m,
		log:        l.With(applogger.String("component", "plan")),
	}
}

func (s *PlanService) Plan(ctx context.Context, req *models.PlanRequest) (*models.PlanResponse, error) {
	start := time.Now()
	symbol := util.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", models.ErrValidation)
	}

	agg := s.aggregator.Aggregate(ctx, symbol, AggregateOptions{})
	quality := DataQuality(agg)
	query := s.prompts.PlanQuery(symbol)
	if s.prompts.Planner != "" {
		query += "\n\n" + s.prompts.Planner
	}

	out, err := s.debater.Debate(ctx, DebateRequest{Query: query, Context: FormatContext(agg)})
	if err != nil {
		return nil, err
	}

	statuses := agg.Statuses()
	elapsed := time.Since(start)
	s.metrics.RecordLatency("plan", elapsed.Seconds())
	s.log.Info("plan generated",
		applogger.String("symbol", symbol),
		applogger.String("mode", string(out.Mode)),
		applogger.String("data_quality", quality),
		applogger.Duration("elapsed_ms", elapsed),
	)
	publish(ctx, s.events, s.log, &models.AnalysisEvent{
		Kind:        models.EventKindPlan,
		Symbol:      symbol,
		Mode:        out.Mode,
		Degraded:    out.Degraded,
		SourcesUsed: out.SourcesUsed,
		DataSources: statuses,
		LatencyMs:   elapsed.Milliseconds(),
	})

	n, total := agg.Available()
	return &models.PlanResponse{
		Plan:        Annotate(out),
		Degraded:    out.Degraded || n < total,
		Mode:        out.Mode,
		SourcesUsed: out.SourcesUsed,
		DataSources: statuses,
		DataQuality: quality,
	}, nil
}
