package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Sentiment is the closed set of article sentiment labels
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// Valid reports whether s is one of the three known labels
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

func (s Sentiment) String() string {
	return string(s)
}

// ParseSentiment converts a stored or wire label back into a Sentiment.
// Unknown labels are rejected rather than silently mapped.
func ParseSentiment(value string) (Sentiment, error) {
	s := Sentiment(strings.ToUpper(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown sentiment label %q", value)
	}
	return s, nil
}

// UnmarshalJSON rejects labels outside the closed set
func (s *Sentiment) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSentiment(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SentimentTier records which classifier stage produced a result
type SentimentTier string

const (
	TierLexicon  SentimentTier = "lexicon"
	TierModel    SentimentTier = "model"
	TierPolarity SentimentTier = "polarity"
)

// SentimentResult is a classified label with its signed score in [-1, 1]
type SentimentResult struct {
	Label Sentiment     `json:"label"`
	Score float64       `json:"score"`
	Tier  SentimentTier `json:"tier,omitempty"`
}

// NewSentimentResult builds a result whose score sign always agrees with the label:
// positive scores are >= 0, negative scores are <= 0 and neutral scores are exactly 0.
// Scores are clamped into [-1, 1].
func NewSentimentResult(label Sentiment, score float64, tier SentimentTier) SentimentResult {
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}

	switch label {
	case SentimentPositive:
		if score < 0 {
			score = -score
		}
	case SentimentNegative:
		if score > 0 {
			score = -score
		}
	default:
		label = SentimentNeutral
		score = 0
	}

	return SentimentResult{Label: label, Score: score, Tier: tier}
}

// NeutralResult is the degraded result used when classification cannot run
func NeutralResult(tier SentimentTier) SentimentResult {
	return SentimentResult{Label: SentimentNeutral, Score: 0, Tier: tier}
}
