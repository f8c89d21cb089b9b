// Package sentiment classifies news text with a three-tier fallback chain:
// curated lexicon, pretrained model, then lexical polarity.
package sentiment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

const (
	// DefaultMaxInputChars caps the text passed to the model
	DefaultMaxInputChars = 512

	// DefaultLoadTimeout bounds a model load started by Classify
	DefaultLoadTimeout = 30 * time.Second
)

// Classifier implements interfaces.SentimentClassifier
type Classifier struct {
	model         Model
	logger        arbor.ILogger
	maxInputChars int
	loadTimeout   time.Duration

	loadOnce    sync.Once
	triggerOnce sync.Once
	loadErr  error
	loaded   atomic.Bool
}

// Compile-time assertion
var _ interfaces.SentimentClassifier = (*Classifier)(nil)

// Option configures the Classifier
type Option func(*Classifier)

// WithModel injects the model used by the second tier. A nil model disables the tier.
func WithModel(model Model) Option {
	return func(c *Classifier) {
		c.model = model
	}
}

// WithLogger sets a logger
func WithLogger(logger arbor.ILogger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// WithMaxInputChars sets the model input cap
func WithMaxInputChars(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxInputChars = n
		}
	}
}

// WithLoadTimeout bounds the background load started by the first Classify call
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// NewClassifier creates a classifier. Without WithModel only the lexicon and polarity tiers run.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		maxInputChars: DefaultMaxInputChars,
		loadTimeout:   DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = common.GetLogger()
	}
	return c
}

// EnsureLoaded loads the model once with ctx and blocks until the load finishes.
// Later calls return the first outcome without touching the model again.
// A failed load routes all classification to the polarity tier.
func (c *Classifier) EnsureLoaded(ctx context.Context) error {
	c.loadOnce.Do(func() {
		if c.model == nil {
			c.loadErr = ErrModelUnavailable
			c.logger.Info().Msg("No sentiment model configured, using lexicon and polarity tiers")
			return
		}

		if err := c.model.Load(ctx); err != nil {
			c.loadErr = err
			c.logger.Warn().
				Str("model", c.model.Name()).
				Err(err).
				Msg("Sentiment model failed to load, falling back to polarity scoring")
			return
		}

		c.loaded.Store(true)
		c.logger.Info().
			Str("model", c.model.Name()).
			Msg("Sentiment model loaded")
	})
	return c.loadErr
}

// ModelAvailable reports whether the model tier is active
func (c *Classifier) ModelAvailable() bool {
	return c.loaded.Load()
}

// Classify never fails: internal errors degrade to the next tier, and an unexpected
// panic degrades to NEUTRAL/0.
func (c *Classifier) Classify(ctx context.Context, text string) (result models.SentimentResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Sentiment classification panicked")
			result = models.NeutralResult(models.TierPolarity)
		}
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return models.NeutralResult(models.TierPolarity)
	}

	// 1. Lexicon
	if label, ok := lexiconLabel(text); ok {
		return models.NewSentimentResult(label, lexiconScore, models.TierLexicon)
	}

	// 2. Model, once a load has succeeded
	c.loadInBackground()
	if c.ModelAvailable() {
		res, err := c.inferModel(ctx, text)
		if err == nil {
			return res
		}
		c.logger.Debug().Err(err).Msg("Model inference failed, using polarity tier")
	}

	// 3. Polarity
	score := polarity(text)
	return models.NewSentimentResult(polarityLabel(score), score, models.TierPolarity)
}

// loadInBackground starts a single load detached from any request context.
// Requests never wait on it.
func (c *Classifier) loadInBackground() {
	if c.model == nil || c.loaded.Load() {
		return
	}
	c.triggerOnce.Do(func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.loadTimeout)
			defer cancel()
			_ = c.EnsureLoaded(ctx)
		}()
	})
}

func (c *Classifier) inferModel(ctx context.Context, text string) (models.SentimentResult, error) {
	logits, err := c.model.Predict(ctx, truncate(text, c.maxInputChars))
	if err != nil {
		return models.SentimentResult{}, err
	}
	return resultFromLogits(logits)
}
