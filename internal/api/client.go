// Package api is the HTTP client for the task API.
//
// Each method is a single round trip. There are no retries and no client
// timeout: callers bound a call with their context if they need to.
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

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nibzard/taskdeck/internal/task"
)

// DefaultBaseURL is the address of a locally running task server.
const DefaultBaseURL = "http://127.0.0.1:5000"

// RequestIDHeader carries a per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Client talks to the task API.
type Client struct {
	baseURL   string
	client    *http.Client
	logger    *log.Logger
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   normalized,
		client:    &http.Client{},
		logger:    log.New(io.Discard),
		userAgent: "taskdeck",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeBaseURL validates an absolute http(s) URL and strips trailing slashes.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("base URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListTasks fetches every task in server order.
func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	const op = "list"
	req, err := c.newRequest(ctx, http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	tasks, err := task.DecodeList(body)
	if err != nil {
		return nil, c.decodeError(op, req, err)
	}
	return tasks, nil
}

// CreateTask posts a new task.
func (c *Client) CreateTask(ctx context.Context, d task.Draft) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/tasks", d)
	if err != nil {
		return err
	}
	_, err = c.do("create", req)
	return err
}

// SetCompleted sets the completed flag of task id.
func (c *Client) SetCompleted(ctx context.Context, id int64, completed bool) error {
	req, err := c.newRequest(ctx, http.MethodPut, taskPath(id), task.CompletionPatch(completed))
	if err != nil {
		return err
	}
	_, err = c.do("update", req)
	return err
}

// DeleteTask deletes task id.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, taskPath(id), nil)
	if err != nil {
		return err
	}
	_, err = c.do("delete", req)
	return err
}

// Health is the body of GET /health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health queries the server's health endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	const op = "health"
	var h Health
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return h, err
	}
	body, err := c.do(op, req)
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(body, &h); err != nil {
		return h, c.decodeError(op, req, err)
	}
	return h, nil
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// do performs one round trip and returns the body of a 2xx response.
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	requestID := req.Header.Get(RequestIDHeader)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Method: req.Method, URL: req.URL.String(), Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Method: req.Method, URL: req.URL.String(), Kind: KindTransport, Err: fmt.Errorf("read response body: %w", err)}
	}

	c.logger.Debug("api round trip",
		"op", op,
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Op:         op,
			Method:     req.Method,
			URL:        req.URL.String(),
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body),
		}
	}
	return body, nil
}

func (c *Client) decodeError(op string, req *http.Request, err error) error {
	return &Error{Op: op, Method: req.Method, URL: req.URL.String(), Kind: KindDecode, Err: err}
}

// serverMessage extracts {"error": "..."} or {"message": "..."} from an
// error body, falling back to a trimmed snippet of the raw text.
func serverMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:197] + "..."
	}
	return text
}
