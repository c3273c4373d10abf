// Package client talks to the network monitoring API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/netguard/internal/metrics"
	"github.com/user/netguard/internal/model"
)

// Endpoint names used in errors and metrics.
const (
	EndpointTraffic  = "traffic"
	EndpointStats    = "stats"
	EndpointAlerts   = "alerts"
	EndpointPhishing = "phishing"
)

var endpointPaths = map[string]string{
	EndpointTraffic:  "/api/network/traffic",
	EndpointStats:    "/api/network/stats",
	EndpointAlerts:   "/api/network/alerts",
	EndpointPhishing: "/api/phishing/check",
}

var failureMessages = map[string]string{
	EndpointTraffic:  "Failed to fetch network traffic data",
	EndpointStats:    "Failed to fetch network stats",
	EndpointAlerts:   "Failed to fetch network alerts",
	EndpointPhishing: "Failed to check URL",
}

// ErrInvalidURL is returned by CheckURL for input that is not an absolute
// http or https URL.
var ErrInvalidURL = errors.New("please enter a valid URL")

// FetchError reports a failed API call. StatusCode is zero when the request
// never produced a response.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := failureMessages[e.Endpoint]
	if msg == "" {
		msg = "Failed to fetch " + e.Endpoint
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchFailure reports whether err is or wraps a *FetchError.
func IsFetchFailure(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// Client is an authenticated API client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	metrics *metrics.Metrics
}

// New creates a client for the API at baseURL. An empty token sends no
// Authorization header.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// WithMetrics records fetch failures on m.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// FetchTraffic returns the current traffic snapshot.
func (c *Client) FetchTraffic(ctx context.Context) ([]model.TrafficEvent, error) {
	var resp model.TrafficResponse
	if err := c.do(ctx, http.MethodGet, EndpointTraffic, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []model.TrafficEvent{}, nil
	}
	return resp.Data, nil
}

// FetchStats returns the aggregate statistics.
func (c *Client) FetchStats(ctx context.Context) (model.NetworkStats, error) {
	var stats model.NetworkStats
	if err := c.do(ctx, http.MethodGet, EndpointStats, nil, &stats); err != nil {
		return model.NetworkStats{}, err
	}
	return stats, nil
}

// FetchAlerts returns the recent alerts.
func (c *Client) FetchAlerts(ctx context.Context) ([]model.Alert, error) {
	var resp model.AlertsResponse
	if err := c.do(ctx, http.MethodGet, EndpointAlerts, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Alerts == nil {
		return []model.Alert{}, nil
	}
	return resp.Alerts, nil
}

// CheckURL submits rawURL to the phishing scanner.
func (c *Client) CheckURL(ctx context.Context, rawURL string) (model.PhishingResult, error) {
	if err := ValidateURL(rawURL); err != nil {
		return model.PhishingResult{}, err
	}

	body, err := json.Marshal(model.PhishingRequest{URL: rawURL})
	if err != nil {
		return model.PhishingResult{}, fmt.Errorf("failed to encode request: %w", err)
	}

	var result model.PhishingResult
	if err := c.do(ctx, http.MethodPost, EndpointPhishing, body, &result); err != nil {
		return model.PhishingResult{}, err
	}
	return result, nil
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPaths[endpoint], reader)
	if err != nil {
		return c.fail(endpoint, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(endpoint, resp.StatusCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.fail(endpoint, 0, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) fail(endpoint string, status int, err error) error {
	c.metrics.ObserveFetchFailure(endpoint)
	return &FetchError{Endpoint: endpoint, StatusCode: status, Err: err}
}
