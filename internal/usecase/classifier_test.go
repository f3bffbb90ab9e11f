package usecase

import (
	"testing"

	domsvc "PippyDesk/internal/domain/service"

	"github.com/stretchr/testify/assert"
)

func TestKeywordClassifier(t *testing.T) {
	k := NewKeywordClassifier()
	cases := map[string]domsvc.Topic{
		"What's the bias on NQ today?":          domsvc.TopicMarket,
		"Any CPI release this week?":            domsvc.TopicMarket,
		"Where should my Stop Loss go?":         domsvc.TopicChart,
		"Can you analyze the chart I uploaded?": domsvc.TopicChart,
		"Explain what a pip is":                 domsvc.TopicGeneral,
		"":                                      domsvc.TopicGeneral,
	}
	for q, want := range cases {
		assert.Equal(t, want, k.Classify(q), q)
	}
}
