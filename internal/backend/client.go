// Package backend is the REST client for the bridge service that owns the
// actual marketplace automation. The orchestrator only ever talks to this
// contract: ingest a listing, start publication, poll task status.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"scalency/internal/domain"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		logger:  logger.With("component", "backend"),
	}
}

type ingestResponse struct {
	ListingID int64 `json:"listing_id"`
}

// Ingest uploads a draft snapshot and returns the backend listing id.
func (c *Client) Ingest(ctx context.Context, sub domain.ListingSubmission) (int64, error) {
	var resp ingestResponse
	err := c.do(ctx, http.MethodPost, c.baseURL+"/api/v1/listings/ingest", sub, &resp)
	if err != nil {
		return 0, fmt.Errorf("ingest listing: %w", err)
	}
	return resp.ListingID, nil
}

type publishResponse struct {
	TaskID string `json:"task_id"`
}

// Publish starts remote publication of an ingested listing and returns the
// task id to poll.
func (c *Client) Publish(ctx context.Context, listingID int64) (string, error) {
	var resp publishResponse
	url := fmt.Sprintf("%s/api/v1/listings/%d/publish", c.baseURL, listingID)
	if err := c.do(ctx, http.MethodPost, url, nil, &resp); err != nil {
		return "", fmt.Errorf("start publish: %w", err)
	}
	if resp.TaskID == "" {
		return "", fmt.Errorf("start publish: backend returned no task id")
	}
	return resp.TaskID, nil
}

type statusResponse struct {
	Status   string `json:"status"`
	Progress struct {
		State         string `json:"state"`
		CurrentAction string `json:"current_action"`
	} `json:"progress"`
	Error string `json:"error"`
}

// Status fetches one status report for a publish task.
func (c *Client) Status(ctx context.Context, taskID string) (*domain.TaskStatus, error) {
	var resp statusResponse
	url := c.baseURL + "/api/v1/listings/publish/status/" + taskID
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("publish status: %w", err)
	}
	return &domain.TaskStatus{
		Status:        domain.RunState(resp.Status),
		Stage:         domain.Stage(resp.Progress.State),
		CurrentAction: resp.Progress.CurrentAction,
		Error:         resp.Error,
	}, nil
}

// RepostRequest dispatches a repost of an existing listing through the
// bridge execute endpoint.
type RepostRequest struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Mode      string `json:"mode"`
	ItemID    string `json:"item_id"`
}

// Repost asks the bridge to push an existing item back to the top of the
// marketplace listings.
func (c *Client) Repost(ctx context.Context, accountID, username, itemID string) error {
	req := RepostRequest{
		AccountID: accountID,
		Username:  username,
		Mode:      "repost_specific",
		ItemID:    itemID,
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/execute", req, &resp); err != nil {
		return fmt.Errorf("repost item %s: %w", itemID, err)
	}
	if !resp.Success {
		return fmt.Errorf("repost item %s: bridge reported failure", itemID)
	}
	return nil
}

// CheckHealth reports whether the bridge answers its health endpoint.
func (c *Client) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
