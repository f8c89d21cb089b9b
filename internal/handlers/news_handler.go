package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/models"
)

// DefaultOutputTimeFormat is the published_at layout of the news API
const DefaultOutputTimeFormat = "2006-01-02 15:04:05"

// NewsHandler serves classified articles
type NewsHandler struct {
	news       NewsReader
	timeFormat string
	logger     arbor.ILogger
}

// articleResponse is the wire shape of one article
type articleResponse struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Source         string           `json:"source"`
	Link           string           `json:"link"`
	PublishedAt    string           `json:"published_at"`
	SentimentLabel models.Sentiment `json:"sentiment_label"`
	SentimentScore float64          `json:"sentiment_score"`
	RelatedTag     string           `json:"related_tag"`
}

// NewNewsHandler creates a news handler. An empty timeFormat uses DefaultOutputTimeFormat.
func NewNewsHandler(news NewsReader, timeFormat string, logger arbor.ILogger) *NewsHandler {
	if timeFormat == "" {
		timeFormat = DefaultOutputTimeFormat
	}
	return &NewsHandler{
		news:       news,
		timeFormat: timeFormat,
		logger:     logger,
	}
}

// ListHandler handles GET /api/news?q={Global|SYMBOL}
func (h *NewsHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tag := strings.TrimSpace(r.URL.Query().Get("q"))
	if tag == "" {
		tag = models.TagGlobal
	}

	articles := h.news.GetNews(r.Context(), tag)

	response := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		response = append(response, articleResponse{
			Title:          a.Title,
			Description:    a.Description,
			Source:         a.Source,
			Link:           a.Link,
			PublishedAt:    a.PublishedAt.UTC().Format(h.timeFormat),
			SentimentLabel: a.SentimentLabel,
			SentimentScore: a.SentimentScore,
			RelatedTag:     a.RelatedTag,
		})
	}

	WriteJSON(w, http.StatusOK, response)
}
