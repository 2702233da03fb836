package doorsim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/doorlog/internal/report"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// fetchReport reads the JSON report from the monitor.
func fetchReport(ctx context.Context, cfg *Config) (report.Report, error) {
	var rep report.Report

	resp, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/report?format=json")
	if err != nil {
		return rep, fmt.Errorf("failed to fetch report: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return rep, fmt.Errorf("failed to read report: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return rep, fmt.Errorf("report request failed with status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &rep); err != nil {
		return rep, fmt.Errorf("failed to decode report: %w", err)
	}
	return rep, nil
}
