// Package scrape provides a client for an external long-running scrape
// service: trigger a run, then poll its status on a progressive backoff
// schedule until it completes or the poll budget is spent.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Run states reported by the scrape service.
const (
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// DefaultPollSchedule spaces status polls: short intervals early, widening
// later. The last interval repeats until MaxPollAttempts is reached.
var DefaultPollSchedule = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

// DefaultMaxPollAttempts bounds the number of status polls per run.
const DefaultMaxPollAttempts = 30

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 30 * time.Second

// Query is the search request forwarded to the scrape service.
type Query struct {
	Platform string   `json:"platform"`
	Keywords []string `json:"keywords"`
	Location string   `json:"location,omitempty"`
	Page     int      `json:"page,omitempty"`
}

// Status is one poll response.
type Status struct {
	State string           `json:"status"`
	Data  []map[string]any `json:"data,omitempty"`
	Error string           `json:"error,omitempty"`
}

// TimeoutError is returned when a run does not complete within the bounded
// poll window. It is terminal for that query; the caller must not retry.
type TimeoutError struct {
	RunID    string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("scrape run %s did not complete after %d polls", e.RunID, e.Attempts)
}

// RunError is returned when the scrape service reports a failed run.
type RunError struct {
	RunID   string
	Message string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("scrape run %s failed: %s", e.RunID, e.Message)
}

// Client talks to the scrape service.
type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	pollSchedule    []time.Duration
	maxPollAttempts int
	sleep           func(ctx context.Context, d time.Duration) error
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithPollSchedule sets custom poll intervals and attempt ceiling.
func WithPollSchedule(schedule []time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		if len(schedule) > 0 {
			c.pollSchedule = schedule
		}
		if maxAttempts > 0 {
			c.maxPollAttempts = maxAttempts
		}
	}
}

// NewClient creates a scrape service client.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:         baseURL,
		apiKey:          apiKey,
		httpClient:      &http.Client{Timeout: DefaultTimeout},
		pollSchedule:    DefaultPollSchedule,
		maxPollAttempts: DefaultMaxPollAttempts,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trigger starts a scrape run and returns its id.
func (c *Client) Trigger(ctx context.Context, query Query) (string, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return "", fmt.Errorf("marshal scrape query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrapes", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	var out struct {
		RunID string `json:"run_id"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("trigger scrape: %w", err)
	}
	if out.RunID == "" {
		return "", fmt.Errorf("trigger scrape: service returned no run id")
	}
	return out.RunID, nil
}

// PollStatus fetches the current status of a run.
func (c *Client) PollStatus(ctx context.Context, runID string) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/scrapes/"+runID, nil)
	if err != nil {
		return nil, fmt.Errorf("create poll request: %w", err)
	}
	c.authorize(req)

	var status Status
	if err := c.do(req, &status); err != nil {
		return nil, fmt.Errorf("poll scrape %s: %w", runID, err)
	}
	return &status, nil
}

// PollUntilComplete polls the run on the progressive schedule until it
// completes, fails, or the attempt ceiling is hit. The ceiling produces a
// *TimeoutError; it is not retried here.
func (c *Client) PollUntilComplete(ctx context.Context, runID string) (*Status, error) {
	for attempt := 1; attempt <= c.maxPollAttempts; attempt++ {
		if err := c.sleep(ctx, c.intervalFor(attempt)); err != nil {
			return nil, err
		}

		status, err := c.PollStatus(ctx, runID)
		if err != nil {
			// Transient poll errors spend an attempt but do not abort the
			// run; the service may still complete it.
			continue
		}

		switch status.State {
		case StateCompleted:
			return status, nil
		case StateFailed:
			return nil, &RunError{RunID: runID, Message: status.Error}
		}
	}

	return nil, &TimeoutError{RunID: runID, Attempts: c.maxPollAttempts}
}

func (c *Client) intervalFor(attempt int) time.Duration {
	idx := attempt - 1
	if idx >= len(c.pollSchedule) {
		idx = len(c.pollSchedule) - 1
	}
	return c.pollSchedule[idx]
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http %s: %w", req.Method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("scrape service returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}
