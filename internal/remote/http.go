package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/shared"
)

// HTTPAdapter implements [Adapter] against the Lectern sync API.
//
// Requests pass through a client-side rate limiter so background sync never
// hammers the backend, and every response is translated into the error
// taxonomy at this boundary: transport failures are network errors, 401/403
// are authentication errors, everything else the server rejects is a sync
// error.
type HTTPAdapter struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
}

// NewHTTPAdapter creates an adapter for the sync API at baseURL.
func NewHTTPAdapter(cfg shared.RemoteConfig, client *http.Client) *HTTPAdapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5
	}

	return &HTTPAdapter{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// SetToken sets the bearer token attached to subsequent requests.
func (a *HTTPAdapter) SetToken(token string) {
	a.token = token
}

// PullSeries retrieves series rows changed strictly after since.
func (a *HTTPAdapter) PullSeries(ctx context.Context, userID string, since time.Time) ([]*models.SeriesRecord, error) {
	body, err := a.pull(ctx, "series", userID, since)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Records []*models.SeriesRecord `json:"records"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, shared.E(shared.KindSync, "pull series", fmt.Errorf("failed to decode response: %w", err))
	}
	return payload.Records, nil
}

// PullSermons retrieves sermon rows changed strictly after since.
func (a *HTTPAdapter) PullSermons(ctx context.Context, userID string, since time.Time) ([]*models.SermonRecord, error) {
	body, err := a.pull(ctx, "sermons", userID, since)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Records []*models.SermonRecord `json:"records"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, shared.E(shared.KindSync, "pull sermons", fmt.Errorf("failed to decode response: %w", err))
	}
	return payload.Records, nil
}

// Push sends one batch of local changes and returns the per-item verdicts.
func (a *HTTPAdapter) Push(ctx context.Context, table, userID string, items []PushItem) ([]PushResult, error) {
	op := "push " + table

	reqBody, err := json.Marshal(struct {
		UserID string     `json:"user_id"`
		Items  []PushItem `json:"items"`
	}{UserID: userID, Items: items})
	if err != nil {
		return nil, shared.E(shared.KindSync, op, fmt.Errorf("failed to encode batch: %w", err))
	}

	body, err := a.do(ctx, op, http.MethodPost, "/sync/"+table+"/push", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Results []PushResult `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, shared.E(shared.KindSync, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return payload.Results, nil
}

// pull issues the GET for one table. A zero since omits the parameter so the
// server returns the full table.
func (a *HTTPAdapter) pull(ctx context.Context, table, userID string, since time.Time) ([]byte, error) {
	params := url.Values{}
	params.Set("user_id", userID)
	if !since.IsZero() {
		params.Set("since", since.UTC().Format(time.RFC3339Nano))
	}

	return a.do(ctx, "pull "+table, http.MethodGet, "/sync/"+table+"?"+params.Encode(), nil)
}

// do runs one rate-limited request and maps the outcome onto the error
// taxonomy.
func (a *HTTPAdapter) do(ctx context.Context, op, method, path string, body io.Reader) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, shared.E(shared.KindNetwork, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, shared.E(shared.KindSync, op, fmt.Errorf("failed to create request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, shared.E(shared.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shared.E(shared.KindNetwork, op, fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, shared.E(shared.KindAuthentication, op, fmt.Errorf("server returned %s", resp.Status))
	case resp.StatusCode >= 400:
		return nil, shared.E(shared.KindSync, op, fmt.Errorf("server returned %s: %s", resp.Status, truncate(respBody, 200)))
	}

	return respBody, nil
}

// truncate clips a response body for inclusion in an error message.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
