package sentiment

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/ternarybob/pasar/internal/models"
)

// ErrModelUnavailable is returned by models that cannot serve inference
var ErrModelUnavailable = errors.New("sentiment model unavailable")

// Logits is the raw output of a sequence-classification model
type Logits struct {
	Values   []float64
	ID2Label map[int]string
}

// Model is a pretrained sequence classifier used as a black box
type Model interface {
	// Load prepares the model. It is called at most once per Classifier.
	Load(ctx context.Context) error

	// Predict returns logits for text, which the caller has already truncated
	Predict(ctx context.Context, text string) (*Logits, error)

	// Name identifies the model in logs
	Name() string
}

// modelLabel maps a model's label space onto the closed sentiment set
func modelLabel(name string) models.Sentiment {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "POSITIVE", "LABEL_2":
		return models.SentimentPositive
	case "NEGATIVE", "LABEL_0":
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// softmax converts logits into probabilities
func softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	probs := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		probs[i] = math.Exp(v - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// argmax returns the index of the largest value, or -1 for an empty slice
func argmax(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// resultFromLogits applies softmax, takes the arg-max class and signs the probability by label
func resultFromLogits(logits *Logits) (models.SentimentResult, error) {
	if logits == nil || len(logits.Values) == 0 {
		return models.SentimentResult{}, errors.New("empty logits")
	}

	probs := softmax(logits.Values)
	idx := argmax(probs)
	name, ok := logits.ID2Label[idx]
	if !ok {
		return models.SentimentResult{}, errors.New("arg-max class has no label")
	}

	label := modelLabel(name)
	score := probs[idx]
	if label == models.SentimentNegative {
		score = -score
	}
	return models.NewSentimentResult(label, score, models.TierModel), nil
}

// truncate caps text at max runes
func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
