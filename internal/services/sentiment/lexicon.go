package sentiment

import (
	"strings"

	"github.com/ternarybob/pasar/internal/models"
)

// lexiconScore is the fixed confidence assigned to a curated keyword hit
const lexiconScore = 0.95

// positiveKeywords is checked before negativeKeywords, so text containing both is positive.
var positiveKeywords = []string{
	"melesat", "cuan", "untung", "naik", "positif", "tumbuh", "menguat", "hijau",
	"bullish", "dividen", "menarik", "menjanjikan", "laba", "rekor", "terpercaya",
	"optimis", "kokoh", "potensial", "melonjak", "terbang", "signifikan", "kinerja",
	"rekomendasi", "buy", "beli", "bagus", "prospek", "peluang", "topang",
}

var negativeKeywords = []string{
	"anjlok", "rugi", "turun", "negatif", "merah", "bearish", "boncos", "kebakaran",
	"gagal", "lemah", "lesu", "tertekan", "waspada", "gejolak", "hancur", "phk",
	"bangkrut", "risk", "risiko", "utang", "beban", "sell", "jual", "suspend",
	"masalah", "aksi", "koreksi",
}

// lexiconLabel maps a keyword scan onto a label. ok is false when no keyword matched.
// Matching is plain substring containment on lower-cased text.
func lexiconLabel(text string) (label models.Sentiment, ok bool) {
	lower := strings.ToLower(text)
	for _, kw := range positiveKeywords {
		if strings.Contains(lower, kw) {
			return models.SentimentPositive, true
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			return models.SentimentNegative, true
		}
	}
	return "", false
}
