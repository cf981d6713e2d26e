package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalency/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(Config{BaseURL: srv.URL, Token: "secret", Timeout: 2 * time.Second}, logger)
}

func TestClient_Ingest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody domain.ListingSubmission

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{"listing_id": 42})
	})

	id, err := client.Ingest(context.Background(), domain.ListingSubmission{Title: "Nike Dunk Low", Price: 95})
	require.NoError(t, err)

	assert.Equal(t, int64(42), id)
	assert.Equal(t, "/api/v1/listings/ingest", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "Nike Dunk Low", gotBody.Title)
}

func TestClient_Publish(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/listings/42/publish", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(map[string]any{"task_id": "task-abc"})
	})

	taskID, err := client.Publish(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "task-abc", taskID)
}

func TestClient_Publish_MissingTaskID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	})

	_, err := client.Publish(context.Background(), 42)
	assert.Error(t, err)
}

func TestClient_Status(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/listings/publish/status/task-abc", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "RUNNING",
			"progress": map[string]any{
				"state":          "MEDIA_UPLOAD",
				"current_action": "Uploading photos",
			},
		})
	})

	status, err := client.Status(context.Background(), "task-abc")
	require.NoError(t, err)

	assert.Equal(t, domain.RunStateRunning, status.Status)
	assert.Equal(t, domain.StageMediaUpload, status.Stage)
	assert.Equal(t, "Uploading photos", status.CurrentAction)
}

func TestClient_Status_ErrorStatusCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "task not found", http.StatusNotFound)
	})

	_, err := client.Status(context.Background(), "gone")
	assert.ErrorContains(t, err, "404")
}

func TestClient_Repost(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/execute", r.URL.Path)
		var req RepostRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "repost_specific", req.Mode)
		assert.Equal(t, "item-1", req.ItemID)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	err := client.Repost(context.Background(), "acc_1", "vinted_pro_uk", "item-1")
	assert.NoError(t, err)
}

func TestClient_Repost_BridgeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false})
	})

	err := client.Repost(context.Background(), "acc_1", "vinted_pro_uk", "item-1")
	assert.ErrorContains(t, err, "bridge reported failure")
}

func TestClient_CheckHealth(t *testing.T) {
	healthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"status": "online"})
	})
	assert.True(t, healthy.CheckHealth(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.False(t, down.CheckHealth(context.Background()))
}
