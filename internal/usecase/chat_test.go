package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"PippyDesk/internal/domain/models"
	domrepo "PippyDesk/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChat(f *aggFixture, a, b *fakeGen, pub *fakePublisher) *ChatService {
	var events domrepo.EventPublisher
	if pub != nil {
		events = pub
	}
	return NewChatService(newTestDebater(a, b, false), f.build(), nil, events, "spy", nil, nil)
}

func TestChatWithoutPublisherStillReplies(t *testing.T) {
	f := newAggFixture()
	a := newGen("gemini", always("levels hold"))
	b := newGen("groq", always("levels hold too"))
	svc := NewChatService(newTestDebater(a, b, false), f.build(), nil, nil, "spy", nil, nil)

	var resp *models.ChatResponse
	require.NotPanics(t, func() {
		var err error
		resp, err = svc.Chat(context.Background(), &models.ChatRequest{Message: "what's the bias?"})
		require.NoError(t, err)
	})
	assert.Equal(t, models.DebateModeSynthesized, resp.Mode)
	assert.NotEmpty(t, resp.Reply)
}

func TestChatGeneralQuestionSkipsAggregation(t *testing.T) {
	f := newAggFixture()
	a := newGen("gemini", always("a pip is the smallest price increment"))
	b := newGen("groq", always("a pip is 0.0001 on most pairs"))
	pub := &fakePublisher{}

	resp, err := newTestChat(f, a, b, pub).Chat(context.Background(), &models.ChatRequest{Message: "Explain what a pip is"})
	require.NoError(t, err)

	assert.Equal(t, models.DebateModeSynthesized, resp.Mode)
	assert.False(t, resp.Degraded)
	assert.Equal(t, int32(0), f.quotes.calls.Load())
	assert.Equal(t, int32(0), f.news.calls.Load())
	for _, p := range a.Calls() {
		assert.NotContains(t, p, "MARKET CONTEXT")
	}

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventKindChat, events[0].Kind)
	assert.Equal(t, "SPY", events[0].Symbol)
	assert.Nil(t, events[0].DataSources)
}

func TestChatMarketQuestionEnrichesWithoutCharts(t *testing.T) {
	f := newAggFixture()
	a := newGen("gemini", always("bias is up"))
	b := newGen("groq", always("bias is up too"))

	_, err := newTestChat(f, a, b, nil).Chat(context.Background(), &models.ChatRequest{Message: "what's the bias?", ContextSymbol: "qqq"})
	require.NoError(t, err)

	assert.Positive(t, f.quotes.calls.Load())
	assert.Empty(t, f.vision.Calls())
	first := a.Calls()[0]
	assert.Contains(t, first, "MARKET CONTEXT: QQQ")
	assert.Contains(t, first, "Not requested.")
}

func TestChatChartQuestionIncludesCharts(t *testing.T) {
	f := newAggFixture()
	a := newGen("gemini", always("ok"))
	b := newGen("groq", always("ok"))

	_, err := newTestChat(f, a, b, nil).Chat(context.Background(), &models.ChatRequest{Message: "analyze my chart"})
	require.NoError(t, err)
	assert.Len(t, f.vision.Calls(), 1)
	assert.Contains(t, a.Calls()[0], "uptrend, higher lows")
}

func TestChatSecondarySurvivesPrimaryTimeout(t *testing.T) {
	f := newAggFixture()
	a := newGen("gemini", failing(context.DeadlineExceeded))
	b := newGen("groq", byStage(ok("Bullish bias, key level 44500"), nil, nil, ok("Bullish bias, key level 44500")))

	resp, err := newTestChat(f, a, b, nil).Chat(context.Background(), &models.ChatRequest{Message: "NQ bias?"})
	require.NoError(t, err)

	assert.True(t, resp.Degraded)
	assert.Equal(t, models.DebateModeSingleSource, resp.Mode)
	assert.Equal(t, []string{"groq"}, resp.SourcesUsed)
	assert.True(t, strings.HasPrefix(resp.Reply, "Bullish bias, key level 44500"))
	assert.Contains(t, resp.Reply, "Degraded mode")
}

func TestChatAllGeneratorsFail(t *testing.T) {
	f := newAggFixture()
	pub := &fakePublisher{}
	a := newGen("gemini", failing(models.ErrTransport))
	b := newGen("groq", failing(models.ErrRateLimited))

	_, err := newTestChat(f, a, b, pub).Chat(context.Background(), &models.ChatRequest{Message: "hello"})
	require.Error(t, err)
	assert.True(t, IsAllSourcesUnavailable(err))
	assert.Empty(t, pub.Events())
}

func TestChatPublishFailureIsIgnored(t *testing.T) {
	f := newAggFixture()
	pub := &fakePublisher{err: errors.New("broker down")}
	a := newGen("gemini", always("x"))
	b := newGen("groq", always("y"))

	resp, err := newTestChat(f, a, b, pub).Chat(context.Background(), &models.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Reply)
	assert.Len(t, pub.Events(), 1)
}
