// Package api is the HTTP client for the daily task backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
	"github.com/oklog/ulid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nakachan-ing/dtl-cli/internal/model"
	"github.com/nakachan-ing/dtl-cli/internal/telemetry"
)

const RequestIDHeader = "X-Request-ID"

var ErrNotFound = errors.New("not found")

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client

	mu      sync.Mutex
	entropy io.Reader
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its transport is
// wrapped for tracing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		wrapped := *hc
		base := wrapped.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped.Transport = otelhttp.NewTransport(base)
		c.http = &wrapped
	}
}

func New(cfg model.APIConfig, opts ...Option) (*Client, error) {
	if !govalidator.IsURL(cfg.BaseURL) {
		return nil, fmt.Errorf("invalid api.base_url %q", cfg.BaseURL)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api.base_url %q: %w", cfg.BaseURL, err)
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: base,
		token:   cfg.Token,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) requestID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), c.entropy)
	if err != nil {
		return ""
	}
	return id.String()
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/api/" + strings.Join(escaped, "/")
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := c.requestID(); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, operation, endpoint string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return err
	}
	return c.do(req, operation, out)
}

func (c *Client) sendJSON(ctx context.Context, operation, method, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := c.newRequest(ctx, method, endpoint, bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	return c.do(req, operation, out)
}

// do sends req and decodes a 2xx body into out. Any other status is
// returned as *Error.
func (c *Client) do(req *http.Request, operation string, out any) error {
	ctx, span := telemetry.Tracer().Start(req.Context(), "api."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("request.id", req.Header.Get(RequestIDHeader)))

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		telemetry.RecordAPIRequest(ctx, operation, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()
	telemetry.RecordAPIRequest(ctx, operation, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: errorMessage(data)}
		span.SetStatus(codes.Error, apiErr.Error())
		return fmt.Errorf("%s: %w", operation, apiErr)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: %v", operation, model.ErrInvalidPayload, err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return truncate(strings.TrimSpace(string(data)), maxErrorBody)
}

const maxErrorBody = 200

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
