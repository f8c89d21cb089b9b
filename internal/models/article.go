package models

import "time"

// TagGlobal marks market-wide articles not bound to a single symbol
const TagGlobal = "Global"

// UnknownSource is used when a feed title carries no "Title - Source" suffix
const UnknownSource = "Unknown"

// Article is a normalized, classified news item. Link is the uniqueness key.
// Articles are immutable once stored.
type Article struct {
	Link           string    `json:"link" badgerhold:"key"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Source         string    `json:"source"`
	PublishedAt    time.Time `json:"published_at"`
	SentimentLabel Sentiment `json:"sentiment_label"`
	SentimentScore float64   `json:"sentiment_score"`
	RelatedTag     string    `json:"related_tag" badgerhold:"index"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsGlobal reports whether tag selects the unfiltered article set
func IsGlobal(tag string) bool {
	return tag == "" || tag == TagGlobal
}

// FeedItem is one raw record from the news search feed, before normalization
type FeedItem struct {
	Title           string     `json:"title"`
	Link            string     `json:"link"`
	Published       string     `json:"published"`
	PublishedParsed *time.Time `json:"published_parsed,omitempty"`
	Description     string     `json:"description"`
}
