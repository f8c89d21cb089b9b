package models

// RecapSummary is derived from a sliding window over stored articles and never persisted
type RecapSummary struct {
	Mood              string `json:"mood,omitempty"`
	NetSentimentScore int    `json:"sentiment_score"`
	TopTopic          string `json:"top_topic,omitempty"`
	TopStock          string `json:"top_stock,omitempty"`
	Recap             string `json:"recap"`
	RecapHTML         string `json:"recap_html,omitempty"`
	ArticleCount      int    `json:"article_count"`
	Empty             bool   `json:"empty"`
}
