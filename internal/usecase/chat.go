package usecase

import (
	"context"
	"time"

	"PippyDesk/internal/domain/models"
	domrepo "PippyDesk/internal/domain/repository"
	domsvc "PippyDesk/internal/domain/service"
	applogger "PippyDesk/pkg/logger"
	"PippyDesk/pkg/util"
)

const publishTimeout = 2 * time.Second

// ChatService answers free-form questions, enriching market questions with aggregated context.
type ChatService struct {
	debater       *Debater
	aggregator    *Aggregator
	classifier    domsvc.TopicClassifier
	events        domrepo.EventPublisher
	defaultSymbol string
	metrics       domrepo.Metrics
	log           *applogger.Logger
}

func NewChatService(d *Debater, a *Aggregator, c domsvc.TopicClassifier, events domrepo.EventPublisher, defaultSymbol string, m domrepo.Metrics, l *applogger.Logger) *ChatService {
	if c == nil {
		c = NewKeywordClassifier()
	}
	if defaultSymbol == "" {
		defaultSymbol = "SPY"
	}
	m, l = orNop(m, l)
	return &ChatService{
		debater:       d,
		aggregator:    a,
		classifier:    c,
		events:        events,
		defaultSymbol: util.NormalizeSymbol(defaultSymbol),
		metrics:       m,
		log:           l.With(applogger.String("component", "chat")),
	}
}

// Chat returns an error only when no generator produced an answer.
func (s *ChatService) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()
	symbol := util.NormalizeSymbol(req.ContextSymbol)
	if symbol == "" {
		symbol = s.defaultSymbol
	}

	topic := s.classifier.Classify(req.Message)
	dreq := DebateRequest{Query: req.Message}
	var statuses map[string]models.SourceStatus
	if topic != domsvc.TopicGeneral && s.aggregator != nil {
		agg := s.aggregator.Aggregate(ctx, symbol, AggregateOptions{SkipCharts: topic != domsvc.TopicChart})
		dreq.Context = FormatContext(agg)
		statuses = agg.Statuses()
	}
	s.log.Debug("chat classified",
		applogger.String("topic", topic.String()),
		applogger.String("symbol", symbol),
		applogger.Bool("enriched", dreq.Context != ""),
	)

	out, err := s.debater.Debate(ctx, dreq)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.RecordLatency("chat", elapsed.Seconds())
	publish(ctx, s.events, s.log, &models.AnalysisEvent{
		Kind:        models.EventKindChat,
		Symbol:      symbol,
		Mode:        out.Mode,
		Degraded:    out.Degraded,
		SourcesUsed: out.SourcesUsed,
		DataSources: statuses,
		LatencyMs:   elapsed.Milliseconds(),
	})

	return &models.ChatResponse{
		Reply:       Annotate(out),
		Degraded:    out.Degraded,
		Mode:        out.Mode,
		SourcesUsed: out.SourcesUsed,
	}, nil
}

// publish is best-effort: failures are logged and never reach the caller.
func publish(ctx context.Context, events domrepo.EventPublisher, l *applogger.Logger, ev *models.AnalysisEvent) {
	if events == nil {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := events.PublishAnalysis(pctx, ev); err != nil {
		l.Warn("publish analysis event failed", applogger.String("kind", ev.Kind), applogger.Error(err))
	}
}
