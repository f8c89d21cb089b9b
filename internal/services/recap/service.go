// Package recap summarizes the recent article window into a short market narrative.
package recap

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const (
	// EmptyRecap is the narrative used when the window holds no articles
	EmptyRecap = "Belum ada cukup data berita hari ini untuk membuat rangkuman. Pasar terlihat tenang."

	// DefaultTopStock is reported when no symbol-tagged article is in the window
	DefaultTopStock = "Blue Chip"

	// DefaultWindow is the recap look-back
	DefaultWindow = 24 * time.Hour

	// moodRatio is the share of the window the net score must exceed to leave Netral
	moodRatio = 0.2
)

// Moods
const (
	MoodOptimistic = "Optimis"
	MoodCautious   = "Waspada"
	MoodNeutral    = "Netral"
)

type moodTemplate struct {
	icon string
	desc string
}

var moodTemplates = map[string]moodTemplate{
	MoodOptimistic: {icon: "🚀", desc: "didominasi sentimen positif"},
	MoodCautious:   {icon: "⚠️", desc: "cenderung tertekan"},
	MoodNeutral:    {icon: "⚖️", desc: "bergerak sideways/netral"},
}

// Service builds the daily recap from stored articles
type Service struct {
	storage interfaces.ArticleStorage
	window  time.Duration
	tokens  map[string]bool
	md      goldmark.Markdown
	logger  arbor.ILogger
	now     func() time.Time
}

// NewService creates a recap service. symbols extend the known topic tokens
// (index names, regulators and the currency are always included).
func NewService(storage interfaces.ArticleStorage, window time.Duration, symbols []string, logger arbor.ILogger) *Service {
	if window <= 0 {
		window = DefaultWindow
	}

	tokens := make(map[string]bool, len(marketTokens)+len(symbols))
	for _, t := range marketTokens {
		tokens[t] = true
	}
	for _, s := range symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			tokens[s] = true
		}
	}

	return &Service{
		storage: storage,
		window:  window,
		tokens:  tokens,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
		logger: logger,
		now:    time.Now,
	}
}

// DailyRecap summarizes articles published within the window
func (s *Service) DailyRecap(ctx context.Context) (models.RecapSummary, error) {
	since := s.now().UTC().Add(-s.window)
	articles, err := s.storage.Since(ctx, since)
	if err != nil {
		return models.RecapSummary{}, fmt.Errorf("failed to load recap window: %w", err)
	}

	if len(articles) == 0 {
		s.logger.Debug().Str("since", since.Format(time.RFC3339)).Msg("Recap window is empty")
		return models.RecapSummary{
			Recap:     EmptyRecap,
			RecapHTML: s.render(EmptyRecap),
			Empty:     true,
		}, nil
	}

	total := len(articles)
	var pos, neg int
	titles := make([]string, 0, total)
	stocks := make(map[string]int)
	for _, a := range articles {
		switch a.SentimentLabel {
		case models.SentimentPositive:
			pos++
		case models.SentimentNegative:
			neg++
		}
		titles = append(titles, a.Title)
		if a.RelatedTag != "" && a.RelatedTag != models.TagGlobal {
			stocks[a.RelatedTag]++
		}
	}
	net := pos - neg

	mood := moodFor(net, total)
	topics := strings.Join(topTopics(titles, s.tokens), ", ")
	topStock := DefaultTopStock
	if ranked := topN(stocks, 1); len(ranked) > 0 {
		topStock = ranked[0].key
	}

	narrative := narrate(mood, cmp.Or(topics, "IHSG"), topStock)

	s.logger.Info().
		Int("articles", total).
		Int("net_sentiment", net).
		Str("mood", mood).
		Str("top_stock", topStock).
		Msg("Daily recap generated")

	return models.RecapSummary{
		Mood:              mood,
		NetSentimentScore: net,
		TopTopic:          topics,
		TopStock:          topStock,
		Recap:             narrative,
		RecapHTML:         s.render(narrative),
		ArticleCount:      total,
	}, nil
}

// moodFor compares the net score against a fifth of the window
func moodFor(net, total int) string {
	threshold := moodRatio * float64(total)
	switch {
	case float64(net) > threshold:
		return MoodOptimistic
	case float64(net) < -threshold:
		return MoodCautious
	default:
		return MoodNeutral
	}
}

func narrate(mood, topics, topStock string) string {
	t := moodTemplates[mood]
	return fmt.Sprintf(
		"%s **Market Recap Hari Ini**: Pasar terlihat **%s** dan %s. "+
			"Fokus investor tertuju pada isu **%s**. "+
			"Saham **%s** menjadi sorotan utama dalam pemberitaan 24 jam terakhir.",
		t.icon, mood, t.desc, topics, topStock,
	)
}

// render converts markdown to HTML; on failure the HTML field is left empty
func (s *Service) render(markdown string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to render recap markdown")
		return ""
	}
	return buf.String()
}
