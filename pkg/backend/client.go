// Package backend is the typed REST client for the commerce backend, which
// stays the source of truth for carts, products, shops and orders.
package backend

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

	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/metrics"
)

const (
	defaultTimeout        = 10 * time.Second
	errorBodyReadLimit    = 1024
	responseBodyReadLimit = 4 << 20
)

var errBaseURLRequired = errors.New("commerce backend base url is required")

// Caller identifies the shopper on whose behalf a request is made. The
// bearer token is forwarded unchanged; RequestID, when set, is propagated as
// X-Request-Id.
type Caller struct {
	UserID    string
	Token     string
	RequestID string
}

// Client talks to the commerce backend. Nothing is retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.BackendMetrics
	now        func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithMetrics records per-endpoint latency and outcome.
func WithMetrics(m *metrics.BackendMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the backend client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return client, nil
}

type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
	caller   Caller
	// account marks endpoints where a 400 means the account is unverified.
	account bool
	// optional tolerates a successful envelope without a result.
	optional bool
}

// do executes the call and decodes the envelope result into out.
func (c *Client) do(ctx context.Context, req call, out any) (err error) {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "commerce backend client not configured")
	}

	started := c.now()
	outcome := metrics.OutcomeTransport
	defer func() {
		if err == nil {
			outcome = metrics.OutcomeOK
		} else if pkgErr := pkgerrors.As(err); pkgErr != nil && pkgErr.Code() != pkgerrors.CodeDependency {
			outcome = metrics.OutcomeRejected
		}
		c.metrics.Observe(req.endpoint, outcome, c.now().Sub(started))
	}()

	var payload io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+req.endpoint+" request")
		}
		payload = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.buildURL(req.path, req.query), payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+req.endpoint+" request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(req.caller.Token); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := req.caller.RequestID; reqID != "" {
		httpReq.Header.Set("X-Request-Id", reqID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+req.endpoint+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+req.endpoint+" response")
	}

	return decodeResponse(req, resp.StatusCode, body, out)
}

// decodeResponse maps the envelope onto out or onto a typed error.
func decodeResponse(req call, status int, body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		snippet := strings.TrimSpace(string(truncate(body, errorBodyReadLimit)))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", status, snippet), req.endpoint+" returned a non-envelope response")
	}

	envStatus := env.status(status)
	message := env.text()

	if req.account && envStatus == http.StatusBadRequest {
		return pkgerrors.New(pkgerrors.CodeAccountUnverified, orDefault(message, "account verification required")).
			WithDetails(map[string]any{"upstreamStatus": envStatus, "message": message})
	}
	if envStatus == http.StatusUnauthorized {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, orDefault(message, "backend rejected credentials"))
	}

	if !env.hasResult() {
		if message != "" || envStatus >= 400 {
			if envStatus >= 500 && message == "" {
				return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s failed with status %d", req.endpoint, envStatus))
			}
			return pkgerrors.New(pkgerrors.CodeUpstreamRejected, orDefault(message, "request rejected")).
				WithDetails(map[string]any{"upstreamStatus": envStatus, "message": message})
		}
		if out == nil || req.optional {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeDependency, req.endpoint+" response carried no result")
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+req.endpoint+" result")
	}
	return nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	full := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func truncate(body []byte, limit int) []byte {
	if len(body) > limit {
		return body[:limit]
	}
	return body
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
