package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenSource yields the current bearer token, or the empty string when
// the session is unauthenticated. It is consulted on every request so
// that login/logout take effect without rebuilding the client.
type TokenSource func() string

// Client is a thin HTTP client for the TaskTracker REST API. It handles
// Bearer token authentication, JSON marshaling, and automatic retry
// with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	maxRetries int
	log        *zap.SugaredLogger
}

// NewClient creates a new API client. The baseURL should be the API
// root including the version prefix (e.g. http://localhost:8000/api/v1).
// The token source may be nil for a client that only performs the
// unauthenticated register/login calls.
func NewClient(baseURL string, tokens TokenSource, log *zap.SugaredLogger) *Client {
	if tokens == nil {
		tokens = func() string { return "" }
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		log:        log,
	}
}

// Register creates a new user account. fullName may be empty.
func (c *Client) Register(ctx context.Context, email, username, password, fullName string) (*User, error) {
	req := RegisterRequest{Email: email, Username: username, Password: password}
	if fullName != "" {
		req.FullName = &fullName
	}
	var user User
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	var tok TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", LoginRequest{
		Username: username,
		Password: password,
	}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// CurrentUser fetches the user owning the current bearer token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Tasks lists the current user's tasks, optionally constrained by the
// given status/priority filter.
func (c *Client) Tasks(ctx context.Context, filter TaskFilter) (*TaskPage, error) {
	path := "/tasks/"
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", filter.Status)
	}
	if filter.Priority != "" {
		params.Set("priority", filter.Priority)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var page TaskPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateTask creates a new task. Only Title is required; the backend
// applies defaults for omitted fields.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks/", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update; only non-nil fields change.
func (c *Client) UpdateTask(ctx context.Context, id int64, req UpdateTaskRequest) (*Task, error) {
	var task Task
	path := "/tasks/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task by id.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	path := "/tasks/" + strconv.FormatInt(id, 10)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CompleteTask marks a task as completed server-side.
func (c *Client) CompleteTask(ctx context.Context, id int64) (*Task, error) {
	var task Task
	path := "/tasks/" + strconv.FormatInt(id, 10) + "/complete"
	if err := c.do(ctx, http.MethodPatch, path, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Stats fetches the completion aggregate for the current user.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/stats/", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// errorBody is the shape FastAPI-style backends use for error payloads.
type errorBody struct {
	Detail string `json:"detail"`
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	op := method + " " + path
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if token := c.tokens(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-Id", uuid.NewString())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Warnw("request failed", "op", op, "error", err)
			return &Error{Kind: KindNetwork, Op: op, Err: err}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return &Error{Kind: KindNetwork, Op: op, Err: readErr}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = &Error{
				Kind:   KindUnexpected,
				Status: resp.StatusCode,
				Op:     op,
				Detail: "rate limited",
			}
			c.log.Warnw("rate limited, backing off",
				"op", op, "wait", waitDuration, "attempt", attempt)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &Error{
				Kind:   kindForStatus(resp.StatusCode),
				Status: resp.StatusCode,
				Op:     op,
			}
			var eb errorBody
			if json.Unmarshal(respBody, &eb) == nil && eb.Detail != "" {
				apiErr.Detail = eb.Detail
			}
			c.log.Warnw("api error",
				"op", op, "status", resp.StatusCode, "detail", apiErr.Detail)
			return apiErr
		}

		// No content to parse (e.g. 204 from delete).
		if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s: %w", op, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
