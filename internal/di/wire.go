//go:build wireinject
// +build wireinject

package di

import (
	"PippyDesk/pkg/config"
	"PippyDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideRedisClient,
		ProvideCaches,

		// Upstream clients
		ProvideFinnhubClient,
		ProvideCalendarClient,
		ProvideGeminiClient,
		ProvideGroqClient,

		// Infrastructure
		ProvideEventPublisher,
		ProvideRateLimiter,
		ProvideJournalStore,

		// Use cases
		ProvideQuoteFetcher,
		ProvideChartAnalyzer,
		ProvideAggregator,
		ProvideDebater,
		ProvideChatService,
		ProvidePlanService,
		ProvideJournalService,
		ProvideStatusService,

		// Application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
