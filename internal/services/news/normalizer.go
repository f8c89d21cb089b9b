package news

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/pasar/internal/models"
)

// MaxDescriptionRunes is the description length kept before the "..." suffix
const MaxDescriptionRunes = 150

var whitespaceRun = regexp.MustCompile(`\s+`)

// publishedLayouts are tried in order when the feed parser did not parse a date
var publishedLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// Normalize converts a raw feed item into an unclassified article.
// Sentiment fields and RelatedTag are filled by the caller.
func Normalize(item models.FeedItem, now time.Time) models.Article {
	title, source := SplitTitle(item.Title)
	return models.Article{
		Link:        strings.TrimSpace(item.Link),
		Title:       title,
		Description: CleanDescription(item.Description),
		Source:      source,
		PublishedAt: ParsePublished(item, now),
		CreatedAt:   now,
	}
}

// ClassifierInput is the text handed to the sentiment classifier
func ClassifierInput(article models.Article) string {
	return article.Title + ". " + article.Description
}

// SplitTitle splits "Headline - Source" on the last hyphen.
// Without a hyphen the whole string is the title and the source is Unknown.
func SplitTitle(raw string) (title, source string) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, "-")
	if idx < 0 {
		return raw, models.UnknownSource
	}

	title = strings.TrimSpace(raw[:idx])
	source = strings.TrimSpace(raw[idx+1:])
	if source == "" {
		source = models.UnknownSource
	}
	if title == "" {
		title = raw
	}
	return title, source
}

// CleanDescription strips markup, collapses whitespace and truncates to
// MaxDescriptionRunes runes plus "...".
func CleanDescription(raw string) string {
	text := raw
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
		text = doc.Text()
	}

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))

	runes := []rune(text)
	if len(runes) > MaxDescriptionRunes {
		return string(runes[:MaxDescriptionRunes]) + "..."
	}
	return text
}

// ParsePublished prefers the parser's timestamp, then the RFC1123 layouts,
// then now.
func ParsePublished(item models.FeedItem, now time.Time) time.Time {
	if item.PublishedParsed != nil && !item.PublishedParsed.IsZero() {
		return item.PublishedParsed.UTC()
	}

	value := strings.TrimSpace(item.Published)
	if value != "" {
		for _, layout := range publishedLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC()
			}
		}
	}
	return now.UTC()
}
