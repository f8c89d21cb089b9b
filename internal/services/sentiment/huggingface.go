package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultInferenceURL is the hosted inference endpoint prefix
	DefaultInferenceURL = "https://api-inference.huggingface.co/models"

	// DefaultModelID is an Indonesian RoBERTa sentiment classifier
	DefaultModelID = "w11wo/indonesian-roberta-base-sentiment-classifier"

	probeText = "Pasar saham hari ini."
)

// HuggingFaceModel calls a hosted text-classification model.
// The API returns class probabilities, which are converted to logits so the
// classifier's softmax reproduces them.
type HuggingFaceModel struct {
	baseURL    string
	modelID    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// HuggingFaceOption configures the HuggingFaceModel
type HuggingFaceOption func(*HuggingFaceModel)

// WithInferenceURL sets a custom inference base URL
func WithInferenceURL(baseURL string) HuggingFaceOption {
	return func(m *HuggingFaceModel) {
		if baseURL != "" {
			m.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithModelID sets the model identifier
func WithModelID(modelID string) HuggingFaceOption {
	return func(m *HuggingFaceModel) {
		if modelID != "" {
			m.modelID = modelID
		}
	}
}

// WithInferenceTimeout sets the per-request timeout
func WithInferenceTimeout(timeout time.Duration) HuggingFaceOption {
	return func(m *HuggingFaceModel) {
		if timeout > 0 {
			m.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithInferenceRateLimit sets requests per second
func WithInferenceRateLimit(rps float64) HuggingFaceOption {
	return func(m *HuggingFaceModel) {
		if rps > 0 {
			m.limiter = rate.NewLimiter(rate.Limit(rps), int(math.Max(1, rps)))
		}
	}
}

// WithInferenceLogger sets a logger
func WithInferenceLogger(logger arbor.ILogger) HuggingFaceOption {
	return func(m *HuggingFaceModel) {
		m.logger = logger
	}
}

// NewHuggingFaceModel creates a hosted model client
func NewHuggingFaceModel(token string, opts ...HuggingFaceOption) *HuggingFaceModel {
	m := &HuggingFaceModel{
		baseURL:    DefaultInferenceURL,
		modelID:    DefaultModelID,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type inferenceRequest struct {
	Inputs  string           `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type inferenceError struct {
	Error string `json:"error"`
}

// Name returns the model identifier
func (m *HuggingFaceModel) Name() string {
	return m.modelID
}

// Load verifies the token and runs one probe inference
func (m *HuggingFaceModel) Load(ctx context.Context) error {
	if m.token == "" {
		return fmt.Errorf("%w: no API token configured", ErrModelUnavailable)
	}
	if _, err := m.Predict(ctx, probeText); err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return nil
}

// Predict runs inference for text
func (m *HuggingFaceModel) Predict(ctx context.Context, text string) (*Logits, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(inferenceRequest{
		Inputs:  text,
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := m.baseURL + "/" + m.modelID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr inferenceError
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("inference error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("inference error (status %d)", resp.StatusCode)
	}

	scores, err := decodeLabelScores(payload)
	if err != nil {
		return nil, err
	}

	if m.logger != nil {
		m.logger.Debug().
			Str("model", m.modelID).
			Int("classes", len(scores)).
			Msg("Sentiment inference completed")
	}

	return logitsFromScores(scores), nil
}

// decodeLabelScores accepts both the nested [[...]] and the flat [...] response shapes
func decodeLabelScores(payload []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(payload, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	var flat []labelScore
	if err := json.Unmarshal(payload, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("empty inference response")
	}
	return flat, nil
}

func logitsFromScores(scores []labelScore) *Logits {
	logits := &Logits{
		Values:   make([]float64, len(scores)),
		ID2Label: make(map[int]string, len(scores)),
	}
	for i, s := range scores {
		p := s.Score
		if p <= 0 {
			p = 1e-12
		}
		logits.Values[i] = math.Log(p)
		logits.ID2Label[i] = s.Label
	}
	return logits
}
