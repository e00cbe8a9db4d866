package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"jupiter/internal/domain"
	"jupiter/internal/logging"
	"jupiter/internal/ports"
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL           string
	Token             string
	HTTPClient        *http.Client
	APIVersion        string
	RetryBudget       int
	RetryQuantum      time.Duration
	RequestsPerSecond float64
	Timeout           time.Duration
	// Location renders date-time properties; defaults to UTC
	Location *time.Location
	Logger   *slog.Logger
}

// Client is the HTTP implementation of ports.RemoteGateway
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	apiVersion string
	budget     int
	quantum    time.Duration
	limiter    *rate.Limiter
	loc        *time.Location
	logger     *slog.Logger
}

var _ ports.RemoteGateway = (*Client)(nil)

// New builds a client
func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.notion.com"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "2022-06-28"
	}
	budget := opts.RetryBudget
	if budget < 0 {
		budget = 0
	}
	quantum := opts.RetryQuantum
	if quantum <= 0 {
		quantum = 2 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 3
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
		apiVersion: apiVersion,
		budget:     budget,
		quantum:    quantum,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		loc:        loc,
		logger:     logger,
	}
}

// do sends one request, retrying rate-limited and transient failures a
// bounded number of times with a fixed pause in between
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.token == "" {
		return &APIError{Status: http.StatusUnauthorized, Code: "missing_token", Message: "remote token is not configured"}
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode %s %s: %w", method, path, err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", c.apiVersion)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt < c.budget {
				c.logger.Debug("remote request failed, retrying", "method", method, "path", path, "attempt", attempt+1, "error", err)
				if err := sleepContext(ctx, c.quantum); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteUnavailable, method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("failed to read %s %s response: %w", method, path, readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
			}
			return nil
		}

		apiErr := parseAPIError(resp.StatusCode, respBody)
		if apiErr.retryable() && attempt < c.budget {
			c.logger.Debug("remote request throttled, retrying", "method", method, "path", path,
				"status", resp.StatusCode, "attempt", attempt+1, "wait", c.quantum)
			if err := sleepContext(ctx, c.quantum); err != nil {
				return err
			}
			continue
		}
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// APIError is a non-2xx answer from the service
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote error: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote error: status=%d message=%s", e.Status, e.Message)
}

// Is maps transport statuses onto the domain error kinds
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrRemoteNotFound:
		return e.Status == http.StatusNotFound || e.Status == http.StatusGone
	case domain.ErrRemoteUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case domain.ErrRemoteUnavailable:
		return e.retryable()
	case domain.ErrSchemaMismatch:
		return e.Status == http.StatusBadRequest && e.Code == "validation_error"
	}
	return false
}

func (e *APIError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: strings.TrimSpace(string(body))}
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		apiErr.Code = parsed.Code
		if strings.TrimSpace(parsed.Message) != "" {
			apiErr.Message = parsed.Message
		}
	}
	return apiErr
}

// AsAPIError extracts the transport error, if any
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
