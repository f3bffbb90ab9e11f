package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PippyDesk/internal/domain/models"
	domrepo "PippyDesk/internal/domain/repository"
	domsvc "PippyDesk/internal/domain/service"
	applogger "PippyDesk/pkg/logger"
	"PippyDesk/pkg/retry"
)

// debateBranch is the outcome of the fan-out stage.
type debateBranch int

const (
	branchBoth debateBranch = iota
	branchOnlyA
	branchOnlyB
	branchNone
)

func (b debateBranch) String() string {
	switch b {
	case branchBoth:
		return "both"
	case branchOnlyA:
		return "only_a"
	case branchOnlyB:
		return "only_b"
	default:
		return "none"
	}
}

func classifyBranch(a, b models.DebatePerspective) debateBranch {
	switch {
	case a.Succeeded && b.Succeeded:
		return branchBoth
	case a.Succeeded:
		return branchOnlyA
	case b.Succeeded:
		return branchOnlyB
	default:
		return branchNone
	}
}

// DebateConfig tunes the orchestrator.
type DebateConfig struct {
	// Refine sends a synthesized answer through the secondary model once more.
	Refine bool
	// Retry applies to every single generator call.
	Retry retry.Policy
}

// Debater asks two generators the same question and reconciles their answers.
// The primary (model A) synthesizes; the secondary (model B) refines.
type Debater struct {
	primary   domsvc.Generator
	secondary domsvc.Generator
	prompts   PromptBook
	cfg       DebateConfig
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

func NewDebater(primary, secondary domsvc.Generator, prompts PromptBook, cfg DebateConfig, m domrepo.Metrics, l *applogger.Logger) *Debater {
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	m, l = orNop(m, l)
	return &Debater{
		primary:   primary,
		secondary: secondary,
		prompts:   prompts,
		cfg:       cfg,
		metrics:   m,
		log:       l.With(applogger.String("component", "debate")),
	}
}

// DebateRequest is one question plus optional formatted market context.
type DebateRequest struct {
	Query   string
	Context string
}

// Debate runs fan-out, then exactly one of the four branches.
// Only the both-failed branch returns an error, wrapping ErrAllSourcesUnavailable.
func (d *Debater) Debate(ctx context.Context, req DebateRequest) (*models.DebateOutcome, error) {
	start := time.Now()
	defer func() { d.metrics.RecordLatency("debate", time.Since(start).Seconds()) }()

	a, b := d.fanOut(ctx, req)
	perspectives := []models.DebatePerspective{a, b}
	branch := classifyBranch(a, b)
	d.log.Debug("fan-out settled",
		applogger.String("branch", branch.String()),
		applogger.Bool("a_ok", a.Succeeded),
		applogger.Bool("b_ok", b.Succeeded),
	)

	var out *models.DebateOutcome
	switch branch {
	case branchBoth:
		out = d.synthesize(ctx, req.Query, a, b)
	case branchOnlyA:
		out = d.polish(ctx, req.Query, a, d.primary)
	case branchOnlyB:
		out = d.polish(ctx, req.Query, b, d.secondary)
	case branchNone:
		d.metrics.RecordDebate("failed")
		d.metrics.RecordError("debate_all_unavailable")
		d.log.Error("all generators failed",
			applogger.String("a_error", a.Error),
			applogger.String("b_error", b.Error),
		)
		return nil, fmt.Errorf("%w: %s: %s; %s: %s",
			models.ErrAllSourcesUnavailable, a.Backend, a.Error, b.Backend, b.Error)
	}

	out.Perspectives = perspectives
	d.metrics.RecordDebate(string(out.Mode))
	if out.Degraded {
		d.log.Warn("debate degraded",
			applogger.String("mode", string(out.Mode)),
			applogger.Strings("sources", out.SourcesUsed),
		)
	}
	return out, nil
}

// fanOut waits for both calls to settle; neither short-circuits the other.
func (d *Debater) fanOut(ctx context.Context, req DebateRequest) (models.DebatePerspective, models.DebatePerspective) {
	var a, b models.DebatePerspective
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a = d.perspective(ctx, models.ModelA, d.primary,
			d.prompts.PerspectivePrompt(req.Query, req.Context, false), d.prompts.System(d.prompts.First))
	}()
	go func() {
		defer wg.Done()
		b = d.perspective(ctx, models.ModelB, d.secondary,
			d.prompts.PerspectivePrompt(req.Query, req.Context, true), d.prompts.System(d.prompts.Alternative))
	}()
	wg.Wait()
	return a, b
}

func (d *Debater) perspective(ctx context.Context, origin models.ModelOrigin, g domsvc.Generator, prompt, system string) models.DebatePerspective {
	p := models.DebatePerspective{Origin: origin, Backend: g.Name()}
	text, err := d.call(ctx, g, prompt, system)
	if err != nil {
		p.Error = models.FailureKind(err)
		d.log.Warn("perspective failed", applogger.String("backend", g.Name()), applogger.Error(err))
		return p
	}
	p.Text = text
	p.Succeeded = true
	return p
}

func (d *Debater) synthesize(ctx context.Context, query string, a, b models.DebatePerspective) *models.DebateOutcome {
	synth, err := d.call(ctx, d.primary, d.prompts.SynthesisPrompt(query, a, b), d.prompts.System(d.prompts.Synthesizer))
	if err != nil {
		d.log.Warn("synthesis failed, returning first perspective", applogger.Error(err))
		return &models.DebateOutcome{
			Answer:      a.Text,
			Mode:        models.DebateModeUnsynthesized,
			Degraded:    true,
			SourcesUsed: []string{a.Backend},
		}
	}

	out := &models.DebateOutcome{
		Answer:      synth,
		Mode:        models.DebateModeSynthesized,
		SourcesUsed: []string{a.Backend, b.Backend},
	}
	if !d.cfg.Refine {
		return out
	}
	refined, err := d.call(ctx, d.secondary, d.prompts.RefinePrompt(query, synth), d.prompts.System(d.prompts.Refiner))
	if err != nil {
		d.log.Warn("refine failed, keeping synthesis", applogger.Error(err))
		return out
	}
	out.Answer = refined
	out.Refined = true
	return out
}

// polish runs the single surviving perspective through the backend that produced it.
func (d *Debater) polish(ctx context.Context, query string, p models.DebatePerspective, g domsvc.Generator) *models.DebateOutcome {
	out := &models.DebateOutcome{
		Mode:        models.DebateModeSingleSource,
		Degraded:    true,
		SourcesUsed: []string{p.Backend},
	}
	polished, err := d.call(ctx, g, d.prompts.PolishPrompt(query, p), d.prompts.System(d.prompts.Polisher))
	if err != nil {
		d.log.Warn("polish failed, returning raw perspective", applogger.Error(err))
		out.Answer = p.Text
		out.Mode = models.DebateModeUnsynthesized
		return out
	}
	out.Answer = polished
	return out
}

func (d *Debater) call(ctx context.Context, g domsvc.Generator, prompt, system string) (string, error) {
	p := d.cfg.Retry
	name := g.Name()
	p.OnRetry = func(s retry.State) {
		d.metrics.RecordFetchAttempt(name, models.FailureKind(s.Err))
	}
	text, err := retry.Do(ctx, p, func(ctx context.Context) (string, error) {
		text, err := safeCall(ctx, func(ctx context.Context) (string, error) {
			return g.Generate(ctx, prompt, system)
		})
		if err == nil && text == "" {
			err = fmt.Errorf("%s: %w: empty answer", name, models.ErrInvalidPayload)
		}
		return text, err
	})
	d.metrics.RecordFetchAttempt(name, models.FailureKind(err))
	return text, err
}

// IsAllSourcesUnavailable reports whether err is the terminal debate failure.
func IsAllSourcesUnavailable(err error) bool {
	return errors.Is(err, models.ErrAllSourcesUnavailable)
}
