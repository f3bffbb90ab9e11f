package usecase

import (
	"fmt"
	"time"

	"PippyDesk/internal/domain/models"
)

// Sizer is any cache that can report its key count.
type Sizer interface {
	Len() int
}

// StatusService reports provider readiness and cache sizes.
type StatusService struct {
	providers models.ProviderStatus
	caches    map[string]Sizer
	started   time.Time
	now       func() time.Time
}

func NewStatusService(providers models.ProviderStatus, caches map[string]Sizer) *StatusService {
	return &StatusService{providers: providers, caches: caches, started: time.Now(), now: time.Now}
}

// Report is "ok" with every provider configured, "degraded" with some, "down" with none.
func (s *StatusService) Report() models.HealthReport {
	n, total := s.providers.Configured()
	status := "ok"
	switch {
	case n == 0:
		status = "down"
	case n < total:
		status = "degraded"
	}
	sizes := make(map[string]int, len(s.caches))
	for name, c := range s.caches {
		sizes[name] = c.Len()
	}
	return models.HealthReport{
		Status:     status,
		Providers:  s.providers,
		Configured: fmt.Sprintf("%d/%d", n, total),
		Caches:     sizes,
		UptimeSec:  int64(s.now().Sub(s.started).Seconds()),
	}
}

// Providers returns the readiness flags.
func (s *StatusService) Providers() models.ProviderStatus { return s.providers }
