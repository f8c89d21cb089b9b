package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/pasar/internal/models"
)

func TestHuggingFaceModel_Predict(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody inferenceRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[{"label":"negative","score":0.8},{"label":"neutral","score":0.15},{"label":"positive","score":0.05}]]`))
	}))
	defer server.Close()

	model := NewHuggingFaceModel("secret",
		WithInferenceURL(server.URL+"/"),
		WithModelID("org/model"),
	)

	logits, err := model.Predict(context.Background(), "Harga komoditas")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/org/model", gotPath)
	assert.Equal(t, "Harga komoditas", gotBody.Inputs)
	assert.True(t, gotBody.Options.WaitForModel)

	result, err := resultFromLogits(logits)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, result.Label)
	assert.InDelta(t, -0.8, result.Score, 1e-6)
}

func TestHuggingFaceModel_FlatResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"LABEL_2","score":0.9},{"label":"LABEL_1","score":0.1}]`))
	}))
	defer server.Close()

	model := NewHuggingFaceModel("secret", WithInferenceURL(server.URL))
	logits, err := model.Predict(context.Background(), "x")
	require.NoError(t, err)

	result, err := resultFromLogits(logits)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, result.Label)
	assert.InDelta(t, 0.9, result.Score, 1e-6)
}

func TestHuggingFaceModel_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error message", http.StatusServiceUnavailable, `{"error":"Model is loading"}`, "Model is loading"},
		{"bare status", http.StatusInternalServerError, `oops`, "status 500"},
		{"empty payload", http.StatusOK, `[]`, "empty inference response"},
		{"malformed payload", http.StatusOK, `{"label":1}`, "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			model := NewHuggingFaceModel("secret", WithInferenceURL(server.URL))
			_, err := model.Predict(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHuggingFaceModel_LoadWithoutToken(t *testing.T) {
	model := NewHuggingFaceModel("")
	err := model.Load(context.Background())
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestHuggingFaceModel_LoadProbeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	model := NewHuggingFaceModel("bad-token", WithInferenceURL(server.URL))
	err := model.Load(context.Background())
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ünï", truncate("ünïcode", 3))
	assert.Equal(t, "abc", truncate("abc", 0))
}
