package relay

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

	"github.com/FrenchMajesty/veracious/pkg/types"
	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is where the local relay listens
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds one analyze call
	DefaultTimeout = 60 * time.Second

	analyzePath = "/analyze"
)

// Client is a minimal client for the relay's analyze endpoint.
// It never retries: a rate-limited or failed batch is retried by the next scan cycle.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Config holds configuration for the relay client
type Config struct {
	// BaseURL of the relay. If empty, uses DefaultBaseURL.
	BaseURL string

	// Timeout for one request. If 0, uses DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport. If nil, a client with Timeout is created.
	HTTPClient *http.Client

	// Logger receives diagnostics. If nil, uses slog.Default().
	Logger *slog.Logger
}

// NewClient creates a relay client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: cfg.HTTPClient,
		Logger:     cfg.Logger,
	}
}

// AnalyzeRequest is the request body of the analyze endpoint
type AnalyzeRequest struct {
	Tweets []string `json:"tweets"`
}

// Error wraps a non-success relay response with its raw body for error logging
type Error struct {
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code,omitempty"`
	RawBody    json.RawMessage `json:"raw_body,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Classify sends texts to the relay and decodes the feed analysis.
// A 429 response yields a *types.RateLimitError carrying the relay's detail string.
func (c *Client) Classify(ctx context.Context, texts []string) (*types.FeedAnalysis, error) {
	body, err := json.Marshal(AnalyzeRequest{Tweets: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+analyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read analyze response body: %w", err)
	}

	c.Logger.Debug("relay: analyze response",
		"status", resp.StatusCode,
		"texts", len(texts),
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &types.RateLimitError{Detail: errorDetail(bodyBytes)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Message:    fmt.Sprintf("relay analyze error %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			RawBody:    rawBody(bodyBytes),
		}
	}

	var analysis types.FeedAnalysis
	if err := json.Unmarshal(bodyBytes, &analysis); err != nil {
		return nil, &Error{
			Message:    fmt.Sprintf("failed to decode analyze response: %v", err),
			StatusCode: resp.StatusCode,
			RawBody:    rawBody(bodyBytes),
		}
	}

	return &analysis, nil
}

// errorDetail extracts the detail field of an error body, tolerating non-JSON bodies
func errorDetail(body []byte) string {
	if gjson.ValidBytes(body) {
		if detail := gjson.GetBytes(body, "detail"); detail.Exists() {
			return detail.String()
		}
	}
	return strings.TrimSpace(string(body))
}

// rawBody keeps the body only if it can be embedded as JSON
func rawBody(body []byte) json.RawMessage {
	if !json.Valid(body) {
		quoted, _ := json.Marshal(string(body))
		return quoted
	}
	return json.RawMessage(body)
}
