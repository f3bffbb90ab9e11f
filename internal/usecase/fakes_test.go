package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"PippyDesk/internal/domain/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeQuotes replays scripted responses; after the script it repeats the last one.
type fakeQuotes struct {
	mu     sync.Mutex
	calls  atomic.Int32
	script []quoteReply
	bySym  map[string][]quoteReply
}

type quoteReply struct {
	p   *models.QuotePayload
	err error
}

func (f *fakeQuotes) Quote(_ context.Context, symbol string) (*models.QuotePayload, error) {
	n := int(f.calls.Add(1)) - 1
	f.mu.Lock()
	defer f.mu.Unlock()
	script := f.script
	if s, ok := f.bySym[symbol]; ok {
		script = s
	}
	if len(script) == 0 {
		return nil, errors.New("no script")
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	r := script[n]
	return r.p, r.err
}

func okQuote(c float64) quoteReply {
	return quoteReply{p: &models.QuotePayload{C: c, H: c + 1, L: c - 1, O: c, PC: c - 0.5}}
}

func failQuote(err error) quoteReply { return quoteReply{err: err} }

// fakeGen is a scripted generator. reply decides the output per call.
type fakeGen struct {
	name  string
	ready bool
	reply func(prompt, system string) (string, error)

	mu      sync.Mutex
	prompts []string
	systems []string
}

func newGen(name string, reply func(prompt, system string) (string, error)) *fakeGen {
	return &fakeGen{name: name, ready: true, reply: reply}
}

func (g *fakeGen) Name() string { return g.name }
func (g *fakeGen) Ready() bool  { return g.ready }

func (g *fakeGen) Generate(_ context.Context, prompt, system string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.systems = append(g.systems, system)
	g.mu.Unlock()
	return g.reply(prompt, system)
}

func (g *fakeGen) GenerateWithImage(ctx context.Context, prompt, system, _ string, _ []byte) (string, error) {
	return g.Generate(ctx, prompt, system)
}

func (g *fakeGen) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

func always(s string) func(string, string) (string, error) {
	return func(string, string) (string, error) { return s, nil }
}

func failing(err error) func(string, string) (string, error) {
	return func(string, string) (string, error) { return "", err }
}

type fakeNews struct {
	calls atomic.Int32
	items []models.NewsItem
	err   error
	panic bool
}

func (f *fakeNews) CompanyNews(_ context.Context, _ string, _, _ time.Time) ([]models.NewsItem, error) {
	f.calls.Add(1)
	if f.panic {
		panic("news feed exploded")
	}
	return f.items, f.err
}

type fakeCalendar struct {
	calls  atomic.Int32
	events []models.CalendarEvent
	err    error
}

func (f *fakeCalendar) Events(context.Context) ([]models.CalendarEvent, error) {
	f.calls.Add(1)
	return f.events, f.err
}

type fakeCharts struct {
	charts []models.ChartImage
	err    error
}

func (f *fakeCharts) Charts(context.Context, string) ([]models.ChartImage, error) {
	return f.charts, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.AnalysisEvent
	err    error
}

func (p *fakePublisher) PublishAnalysis(_ context.Context, ev *models.AnalysisEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) Events() []*models.AnalysisEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*models.AnalysisEvent(nil), p.events...)
}
