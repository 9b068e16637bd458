// Package client talks to a running facelight server.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/facelight/internal/httpc"
	"github.com/teslashibe/facelight/internal/log"
	"github.com/teslashibe/facelight/pkg/presence"
)

// DefaultBaseURL is where the server listens by default.
const DefaultBaseURL = "http://localhost:8000"

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// IsRateLimited returns true if the server rejected a manual check.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// CheckResult is the result of a remote presence check.
type CheckResult struct {
	Faces         int
	Brightness    int
	ActuatorError string
}

// checkBody decodes both shapes of a /check-faces response.
type checkBody struct {
	FacesDetected *int   `json:"faces_detected"`
	BrightnessSet *int   `json:"brightness_set"`
	ActuatorError string `json:"actuator_error"`
	Error         string `json:"error"`
	Kind          string `json:"kind"`
}

// Client is an API client for the presence server.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// New creates a client for baseURL. timeout bounds every request; zero
// uses httpc.DefaultTimeout.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("API URL %q: scheme must be http or https", baseURL)
	}
	return &Client{
		base:   u,
		http:   httpc.NewClient(timeout),
		logger: log.With("component", "client"),
	}, nil
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Check asks the server to run a presence check. A check that failed on
// the server is returned as a *presence.Error with the server's kind.
func (c *Client) Check(ctx context.Context) (CheckResult, error) {
	var body checkBody
	if err := c.do(ctx, http.MethodGet, "/check-faces", nil, &body); err != nil {
		return CheckResult{}, err
	}
	if body.Error != "" {
		return CheckResult{}, &presence.Error{
			Kind: presence.ErrorKind(body.Kind),
			Err:  errors.New(body.Error),
		}
	}
	if body.FacesDetected == nil || body.BrightnessSet == nil {
		return CheckResult{}, errors.New("check response missing faces_detected or brightness_set")
	}
	return CheckResult{
		Faces:         *body.FacesDetected,
		Brightness:    *body.BrightnessSet,
		ActuatorError: body.ActuatorError,
	}, nil
}

// Status returns the server's current state.
func (c *Client) Status(ctx context.Context) (presence.Snapshot, error) {
	var snap presence.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &snap)
	return snap, err
}

// SetMonitoring turns background monitoring on or off.
func (c *Client) SetMonitoring(ctx context.Context, enabled bool) (presence.Snapshot, error) {
	var snap presence.Snapshot
	err := c.do(ctx, http.MethodPost, "/api/monitoring", map[string]bool{"enabled": enabled}, &snap)
	return snap, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := jsoniter.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.unreachable(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.unreachable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if jsoniter.Unmarshal(data, &e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if err := jsoniter.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// unreachable wraps a transport failure. Context cancellation by the
// caller is passed through unchanged.
func (c *Client) unreachable(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	c.logger.Debug("request failed", "url", c.base.String(), "error", err)
	return &presence.Error{
		Kind: presence.KindUpstreamUnreachable,
		Err: fmt.Errorf("%w at %s - is the backend running? (%w)",
			presence.ErrUpstreamUnreachable, c.base, err),
	}
}
