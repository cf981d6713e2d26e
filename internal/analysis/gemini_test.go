package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(Config{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Model:          "gemini-3-flash-preview",
		Timeout:        2 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, logger)
}

func candidateEnvelope(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			},
		}},
	}
}

func TestAnalyze_ParsesAttributes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-3-flash-preview:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Contains(t, req, "contents")

		json.NewEncoder(w).Encode(candidateEnvelope(
			`{"title":"Nike Air Trainers","brand":"Nike","category":"Shoes/Trainers","priceSuggestion":40}`,
		))
	})

	result, err := client.Analyze(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "Nike Air Trainers", result.Title)
	assert.Equal(t, "Nike", result.Brand)
	assert.Equal(t, 40.0, result.PriceSuggestion)
}

func TestAnalyze_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(candidateEnvelope(`{"title":"Jacket"}`))
	})

	result, err := client.Analyze(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "Jacket", result.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnalyze_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.Analyze(context.Background(), []byte("jpeg-bytes"))
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnalyze_MalformedModelOutput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(candidateEnvelope("not json at all"))
	})

	_, err := client.Analyze(context.Background(), []byte("jpeg-bytes"))
	assert.ErrorContains(t, err, "parse analysis attributes")
}

func TestAnalyze_MissingAPIKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := New(Config{Model: "gemini-3-flash-preview"}, logger)

	_, err := client.Analyze(context.Background(), []byte("jpeg-bytes"))
	assert.ErrorContains(t, err, "missing api key")
}
