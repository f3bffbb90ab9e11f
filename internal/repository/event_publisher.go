package repository

import (
	"context"
	"fmt"

	"PippyDesk/internal/domain/models"
	"PippyDesk/internal/domain/repository"
	pkgkafka "PippyDesk/pkg/kafka"

	"github.com/google/uuid"
)

// producer is the part of *pkgkafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher ships analysis events, keyed by symbol.
type KafkaPublisher struct {
	producer producer
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(p *pkgkafka.Producer) repository.EventPublisher {
	return &KafkaPublisher{producer: p}
}

func (p *KafkaPublisher) PublishAnalysis(ctx context.Context, ev *models.AnalysisEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	key := ev.Symbol
	if key == "" {
		key = ev.Kind
	}
	if err := p.producer.Publish(ctx, []byte(key), ev); err != nil {
		return fmt.Errorf("publish %s event %s: %w", ev.Kind, ev.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher drops events; used when events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishAnalysis(context.Context, *models.AnalysisEvent) error { return nil }
func (NoopPublisher) Close() error                                                 { return nil }
