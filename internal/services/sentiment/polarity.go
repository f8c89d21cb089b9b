package sentiment

import (
	"strings"
	"unicode"

	"github.com/ternarybob/pasar/internal/models"
)

// polarityThreshold splits neutral from polar scores
const polarityThreshold = 0.1

// polarityWords holds general-purpose weights in [-1, 1] for English and Indonesian text.
// Curated market keywords are handled by the lexicon tier before this runs.
var polarityWords = map[string]float64{
	// English positive
	"surge": 1.0, "soar": 1.0, "rally": 0.95, "boom": 0.95, "outperform": 0.9,
	"beat": 0.85, "exceed": 0.85, "upgrade": 0.85, "optimistic": 0.85,
	"profit": 0.8, "growth": 0.8, "gain": 0.8, "strong": 0.8, "boost": 0.8, "success": 0.8,
	"improve": 0.75, "rising": 0.75, "recover": 0.7, "rebound": 0.7,
	"positive": 0.65, "rise": 0.65, "higher": 0.65, "better": 0.65, "good": 0.65,
	"great": 0.8, "solid": 0.65, "opportunity": 0.6, "stable": 0.5, "robust": 0.5,

	// English negative
	"crash": -1.0, "plunge": -1.0, "collapse": -1.0, "crisis": -0.95, "bankruptcy": -0.95,
	"downgrade": -0.85, "warning": -0.85, "lawsuit": -0.85, "loss": -0.8, "losses": -0.8,
	"decline": -0.8, "fail": -0.8, "weak": -0.75, "drop": -0.75, "fall": -0.75,
	"concern": -0.7, "worry": -0.7, "uncertain": -0.7, "problem": -0.65, "risk": -0.65,
	"volatile": -0.65, "pressure": -0.6, "poor": -0.6, "slowdown": -0.6, "bad": -0.7,

	// Indonesian positive
	"baik": 0.6, "hebat": 0.8, "sukses": 0.8, "berhasil": 0.75, "meningkat": 0.7,
	"pulih": 0.7, "stabil": 0.5, "unggul": 0.75, "ekspansi": 0.6,
	"surplus": 0.6, "menguntungkan": 0.8, "lancar": 0.5, "cerah": 0.7, "gemilang": 0.9,
	"tertinggi": 0.6, "akuisisi": 0.3, "investasi": 0.3, "sehat": 0.55,

	// Indonesian negative
	"buruk": -0.7, "krisis": -0.95, "defisit": -0.6, "inflasi": -0.4, "melemah": -0.75,
	"merosot": -0.85, "ambruk": -1.0, "jatuh": -0.8, "terpuruk": -0.9, "kerugian": -0.8,
	"sengketa": -0.7, "gugatan": -0.7, "korupsi": -0.9, "penipuan": -0.95, "terendah": -0.6,
	"khawatir": -0.7, "cemas": -0.7, "ancaman": -0.65, "pelemahan": -0.7, "resesi": -0.9,
	"macet": -0.6, "default": -0.85, "pailit": -1.0, "sanksi": -0.6,
}

// negators flip the polarity of the next scored word at half strength
var negators = map[string]bool{
	"tidak": true, "bukan": true, "tak": true, "belum": true, "tanpa": true,
	"not": true, "no": true, "never": true, "without": true,
}

// intensifiers scale the next scored word
var intensifiers = map[string]float64{
	"sangat": 1.3, "amat": 1.3, "sekali": 1.2, "makin": 1.2, "semakin": 1.2,
	"very": 1.3, "extremely": 1.5, "highly": 1.3, "really": 1.2,
}

// polarity scores text in [-1, 1] as the mean weight of scored words.
// Text with no scored words is 0.
func polarity(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})

	var sum float64
	var matches int
	negate := false
	scale := 1.0

	for _, word := range words {
		word = strings.Trim(word, "-")
		if negators[word] {
			negate = true
			continue
		}
		if f, ok := intensifiers[word]; ok {
			scale *= f
			continue
		}

		weight, ok := polarityWords[word]
		if !ok {
			continue
		}

		weight *= scale
		if negate {
			weight *= -0.5
		}
		sum += clampUnit(weight)
		matches++
		negate = false
		scale = 1.0
	}

	if matches == 0 {
		return 0
	}
	return clampUnit(sum / float64(matches))
}

// polarityLabel thresholds a polarity score; the score passes through unchanged
func polarityLabel(score float64) models.Sentiment {
	switch {
	case score > polarityThreshold:
		return models.SentimentPositive
	case score < -polarityThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
