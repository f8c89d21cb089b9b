package prediction

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/models"
)

// MaxScore is the highest attainable total: technical 2 + fundamental 4 + sentiment 1
const MaxScore = 7

const (
	shortWindow = 5
	longWindow  = 20
)

var (
	upVolatility = decimal.NewFromFloat(0.15)
	holdDrift    = decimal.NewFromFloat(1.02)
	downShift    = decimal.NewFromFloat(0.95)
)

// movingAverage is the mean of the last n closes, or of all closes when fewer
func movingAverage(closes []float64, n int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if len(closes) > n {
		closes = closes[len(closes)-n:]
	}
	var sum float64
	for _, c := range closes {
		sum += c
	}
	return sum / float64(len(closes))
}

// technicalPillar scores trend: +1 for MA5 above MA20, +1 for price above MA20
func technicalPillar(price, ma5, ma20 float64) models.PillarSignal {
	signal := models.PillarSignal{Reasons: []string{}}
	if ma5 > ma20 {
		signal.Score++
		signal.Reasons = append(signal.Reasons, "MA5 > MA20 (Uptrend)")
	}
	if price > ma20 {
		signal.Score++
		signal.Reasons = append(signal.Reasons, "Price > MA20")
	}

	switch signal.Score {
	case 2:
		signal.Signal = "BULLISH"
	case 0:
		signal.Signal = "BEARISH"
	default:
		signal.Signal = "NEUTRAL"
	}
	return signal
}

// fundamentalPillar scores valuation, profitability and yield. Zero inputs are treated as missing.
func fundamentalPillar(snapshot *interfaces.MarketSnapshot) models.PillarSignal {
	signal := models.PillarSignal{Reasons: []string{}}

	pe := snapshot.PERatio
	switch {
	case pe > 0 && pe < 15:
		signal.Score++
		signal.Reasons = append(signal.Reasons, "PER Rendah")
	case pe > 35:
		signal.Score--
		signal.Reasons = append(signal.Reasons, "PER Mahal")
	}

	if pb := snapshot.PriceToBook; pb > 0 && pb < 1.5 {
		signal.Score++
		signal.Reasons = append(signal.Reasons, "PBV Undervalued")
	}
	if snapshot.ReturnOnEquity > 0.15 {
		signal.Score++
		signal.Reasons = append(signal.Reasons, "ROE Tinggi")
	}
	if snapshot.DividendYield > 0.03 {
		signal.Score++
		signal.Reasons = append(signal.Reasons, "Dividen Menarik")
	}

	switch {
	case signal.Score >= 3:
		signal.Signal = "STRONG"
	case signal.Score >= 1:
		signal.Signal = "GOOD"
	case signal.Score < 0:
		signal.Signal = "WEAK"
	default:
		signal.Signal = "NEUTRAL"
	}
	return signal
}

// sentimentPillar compares positive and negative article counts
func sentimentPillar(articles []models.Article) models.PillarSignal {
	var pos, neg int
	for _, a := range articles {
		switch a.SentimentLabel {
		case models.SentimentPositive:
			pos++
		case models.SentimentNegative:
			neg++
		}
	}

	switch {
	case pos > neg:
		return models.PillarSignal{
			Score:   1,
			Signal:  "BULLISH",
			Reasons: []string{fmt.Sprintf("Berita Positif Dominan (%d vs %d)", pos, neg)},
		}
	case neg > pos:
		return models.PillarSignal{
			Score:   -1,
			Signal:  "BEARISH",
			Reasons: []string{fmt.Sprintf("Berita Negatif Dominan (%d vs %d)", neg, pos)},
		}
	default:
		return models.PillarSignal{
			Signal:  "NEUTRAL",
			Reasons: []string{"Sentimen Berita Netral"},
		}
	}
}

// recommend maps a total score onto a recommendation. Buy thresholds are
// checked first, then sell thresholds, then HOLD.
func recommend(total int) models.Recommendation {
	switch {
	case total >= 5:
		return models.RecommendationStrongBuy
	case total >= 4:
		return models.RecommendationBuy
	case total <= -1:
		return models.RecommendationStrongSell
	case total <= 1:
		return models.RecommendationSell
	default:
		return models.RecommendationHold
	}
}

// confidence is 50 + 7 per point, clamped to [10, 98]
func confidence(total int) int {
	return min(max(50+total*7, 10), 98)
}

// targetPrice projects a three month price, truncated to whole rupiah.
// Upside scales 15% volatility by total/MaxScore. Downside is a flat +2% while
// the total is still non-negative and -5% otherwise. HOLD drifts +2%.
func targetPrice(price float64, rec models.Recommendation, total int) int64 {
	p := decimal.NewFromFloat(price)

	switch {
	case rec.IsBuy():
		change := p.Mul(upVolatility).Mul(decimal.NewFromInt(int64(total))).Div(decimal.NewFromInt(MaxScore))
		return p.Add(change).IntPart()
	case rec.IsSell() && total < 0:
		return p.Mul(downShift).IntPart()
	default:
		return p.Mul(holdDrift).IntPart()
	}
}
