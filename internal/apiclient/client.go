package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/streambeat/streambeat/internal/model"
)

// Client is a thin HTTP client over the streambeat API, used by the
// dashboard TUI and scripting tools.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at addr (host:port, no scheme).
func New(addr string) *Client {
	return &Client{
		baseURL: "http://" + addr,
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Health reports whether the service answers on its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/api/health", &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("apiclient: unexpected health status %q", out.Status)
	}
	return nil
}

// Performance fetches the current performance overview.
func (c *Client) Performance(ctx context.Context) (model.PerformanceOverview, error) {
	var out model.PerformanceOverview
	err := c.getJSON(ctx, "/api/performance", &out)
	return out, err
}

// ConnectionLog fetches the connection/session log, newest first.
func (c *Client) ConnectionLog(ctx context.Context) (model.LogPage, error) {
	var out model.LogPage
	err := c.getJSON(ctx, "/api/logs", &out)
	return out, err
}

// PerformanceLog fetches the performance log, newest first.
func (c *Client) PerformanceLog(ctx context.Context) (model.LogPage, error) {
	var out model.LogPage
	err := c.getJSON(ctx, "/api/performance/logs", &out)
	return out, err
}

// ClearConnectionLog empties the connection/session log and returns the
// number of entries dropped.
func (c *Client) ClearConnectionLog(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/logs", nil)
	if err != nil {
		return 0, err
	}
	var out struct {
		Success bool `json:"success"`
		Cleared int  `json:"cleared"`
	}
	if err := c.do(req, &out); err != nil {
		return 0, err
	}
	return out.Cleared, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("apiclient: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
