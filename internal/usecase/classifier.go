package usecase

import (
	"strings"

	domsvc "PippyDesk/internal/domain/service"
)

var (
	chartTerms  = []string{"chart", "plan", "setup", "entry", "stop loss", "take profit", "analysis", "analyze"}
	marketTerms = []string{"price", "market", "quote", "trend", "bias", "level", "support", "resistance",
		"news", "calendar", "event", "earnings", "fed", "cpi", "nfp"}
)

// KeywordClassifier matches lower-cased substrings. Chart terms win over market terms.
type KeywordClassifier struct {
	Chart  []string
	Market []string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{Chart: chartTerms, Market: marketTerms}
}

func (k *KeywordClassifier) Classify(query string) domsvc.Topic {
	q := strings.ToLower(query)
	if containsAny(q, k.Chart) {
		return domsvc.TopicChart
	}
	if containsAny(q, k.Market) {
		return domsvc.TopicMarket
	}
	return domsvc.TopicGeneral
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

var _ domsvc.TopicClassifier = (*KeywordClassifier)(nil)
