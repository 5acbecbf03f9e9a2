package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/model"
)

const (
	DefaultBaseURL = "https://mate.academy/students-api"
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4 << 10
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// HTTPClient implements Client over the REST collection:
//
//	GET    /todos?userId=N
//	POST   /todos
//	PATCH  /todos/{id}
//	DELETE /todos/{id}
type HTTPClient struct {
	baseURL string
	userID  int
	token   string
	client  *http.Client
	log     *slog.Logger
}

type Option func(*HTTPClient)

func WithToken(token string) Option { return func(c *HTTPClient) { c.token = token } }

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option { return func(c *HTTPClient) { c.client = hc } }

func WithLogger(l *slog.Logger) Option { return func(c *HTTPClient) { c.log = l } }

// NewHTTPClient creates a client scoped to userID's todos.
func NewHTTPClient(baseURL string, userID int, opts ...Option) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		client:  &http.Client{Timeout: DefaultTimeout},
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *HTTPClient) FetchAll(ctx context.Context) ([]model.Item, error) {
	q := url.Values{"userId": []string{strconv.Itoa(c.userID)}}
	var items []model.Item
	if err := c.do(ctx, http.MethodGet, "/todos?"+q.Encode(), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (c *HTTPClient) Create(ctx context.Context, in model.NewItem) (model.Item, error) {
	var out model.Item
	err := c.do(ctx, http.MethodPost, "/todos", in, &out)
	return out, err
}

func (c *HTTPClient) Patch(ctx context.Context, id int, p model.Patch) (model.Item, error) {
	var out model.Item
	err := c.do(ctx, http.MethodPatch, "/todos/"+strconv.Itoa(id), p, &out)
	return out, err
}

func (c *HTTPClient) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+strconv.Itoa(id), nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request done",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
