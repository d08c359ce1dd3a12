// Package assistant forwards shopper messages to the shopping assistant agent.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/metrics"
)

const (
	defaultTimeout  = 30 * time.Second
	maxReplyBytes   = 1 << 20
	maxMessageRunes = 2000
	endpointSend    = "assistant.send"
)

// Message is one shopper turn.
type Message struct {
	ConversationID string `json:"conversationId" validate:"required,max=128"`
	Text           string `json:"text" validate:"required"`
}

// Client posts messages to the agent as multipart form data.
type Client struct {
	httpClient *http.Client
	url        string
	metrics    *metrics.BackendMetrics
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithMetrics(m *metrics.BackendMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(url string, opts ...Option) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("assistant url required")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		url:        url,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send forwards msg for userID and returns the agent's JSON reply unchanged.
func (c *Client) Send(ctx context.Context, userID string, msg Message) (json.RawMessage, error) {
	text := strings.TrimSpace(msg.Text)
	conversationID := strings.TrimSpace(msg.ConversationID)
	switch {
	case strings.TrimSpace(userID) == "":
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	case conversationID == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id is required")
	case text == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	case len([]rune(text)) > maxMessageRunes:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message text is too long")
	}

	body, contentType, err := encodeForm(map[string]string{
		"conversation_id": conversationID,
		"user_id":         userID,
		"text":            text,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode assistant message")
	}

	started := c.now()
	outcome := metrics.OutcomeTransport
	defer func() {
		c.metrics.Observe(endpointSend, outcome, c.now().Sub(started))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build assistant request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assistant request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read assistant reply")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		outcome = metrics.OutcomeRejected
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assistant rejected the message").
			WithDetails(map[string]any{"upstreamStatus": resp.StatusCode})
	}
	if !json.Valid(raw) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assistant reply is not json")
	}
	outcome = metrics.OutcomeOK
	return json.RawMessage(raw), nil
}

func encodeForm(fields map[string]string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, name := range []string{"conversation_id", "user_id", "text"} {
		if err := w.WriteField(name, fields[name]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
