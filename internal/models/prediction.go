package models

// Recommendation is the discrete outcome of the scoring engine
type Recommendation string

const (
	RecommendationStrongBuy  Recommendation = "STRONG BUY"
	RecommendationBuy        Recommendation = "BUY"
	RecommendationHold       Recommendation = "HOLD"
	RecommendationSell       Recommendation = "SELL"
	RecommendationStrongSell Recommendation = "STRONG SELL"
)

// Rank orders recommendations: STRONG BUY (5) > BUY > HOLD > SELL > STRONG SELL (1).
// Unknown values rank 0.
func (r Recommendation) Rank() int {
	switch r {
	case RecommendationStrongBuy:
		return 5
	case RecommendationBuy:
		return 4
	case RecommendationHold:
		return 3
	case RecommendationSell:
		return 2
	case RecommendationStrongSell:
		return 1
	}
	return 0
}

// IsBuy reports STRONG BUY or BUY
func (r Recommendation) IsBuy() bool {
	return r == RecommendationStrongBuy || r == RecommendationBuy
}

// IsSell reports SELL or STRONG SELL
func (r Recommendation) IsSell() bool {
	return r == RecommendationSell || r == RecommendationStrongSell
}

// PillarSignal is one scored dimension of a prediction
type PillarSignal struct {
	Score   int      `json:"score"`
	Signal  string   `json:"signal"`
	Reasons []string `json:"reasons"`
}

// PredictionSignals is the per-pillar breakdown of a prediction
type PredictionSignals struct {
	Technical   PillarSignal `json:"technical"`
	Fundamental PillarSignal `json:"fundamental"`
	Sentiment   PillarSignal `json:"sentiment"`
	MA5         float64      `json:"ma_5"`
	MA20        float64      `json:"ma_20"`
}

// PredictionResult is computed fresh on every request and never persisted.
// A non-empty Error means the remaining fields are not meaningful.
type PredictionResult struct {
	Symbol         string             `json:"symbol"`
	Price          float64            `json:"price,omitempty"`
	Prediction     Recommendation     `json:"prediction,omitempty"`
	Confidence     int                `json:"confidence_pct"`
	ConfidenceText string             `json:"confidence,omitempty"`
	TargetPrice    int64              `json:"target_price,omitempty"`
	TotalScore     int                `json:"total_score"`
	MarketCap      float64            `json:"market_cap,omitempty"`
	Signals        *PredictionSignals `json:"signals,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// Failed reports whether the prediction carries an error
func (p PredictionResult) Failed() bool {
	return p.Error != ""
}

// WatchlistRanking is the output of a ranked sweep over sampled symbols
type WatchlistRanking struct {
	Buys       []PredictionResult `json:"buys"`
	Sells      []PredictionResult `json:"sells"`
	HiddenGems []PredictionResult `json:"hidden_gems"`
	Evaluated  int                `json:"evaluated"`
	Failed     int                `json:"failed"`
}
