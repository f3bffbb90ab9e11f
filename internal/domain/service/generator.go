package service

import (
	"context"
)

// Generator is a text generation backend.
type Generator interface {
	Name() string
	Ready() bool
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)
}

// VisionGenerator also accepts an image alongside the prompt.
type VisionGenerator interface {
	Generator
	GenerateWithImage(ctx context.Context, prompt, systemInstruction, mimeType string, image []byte) (string, error)
}

// Topic says how much market context a chat message needs.
type Topic int

const (
	// TopicGeneral needs no market data.
	TopicGeneral Topic = iota
	// TopicMarket needs quotes, news and calendar.
	TopicMarket
	// TopicChart also needs chart analysis.
	TopicChart
)

func (t Topic) String() string {
	switch t {
	case TopicMarket:
		return "market"
	case TopicChart:
		return "chart"
	default:
		return "general"
	}
}

// TopicClassifier decides whether a query needs aggregated context.
type TopicClassifier interface {
	Classify(query string) Topic
}
