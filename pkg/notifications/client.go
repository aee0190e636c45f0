package notifications

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

	"github.com/windlogs/notifykit/pkg/logger"
	"github.com/windlogs/notifykit/pkg/requestid"
)

const (
	maxErrorBody    = 64 << 10
	maxResponseBody = 8 << 20
)

// Client talks to the notification REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	token   func() string
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client. Its transport is wrapped to stamp
// X-Request-ID headers.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithBearerToken supplies the token sent in the Authorization header.
func WithBearerToken(f func() string) ClientOption {
	return func(cl *Client) {
		if f != nil {
			cl.token = f
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 10 * time.Second},
		token:   func() string { return "" },
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.http
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	hc.Transport = &requestid.Transport{Base: hc.Transport}
	c.http = &hc
	c.logger = c.logger.With(logger.Component("notifications_api"))
	return c, nil
}

// List returns the full history of email.
func (c *Client) List(ctx context.Context, email string) ([]Record, error) {
	var out []Record
	err := c.do(ctx, http.MethodGet, "/notifications", url.Values{"email": {email}}, nil, &out)
	return out, err
}

// Unread returns the unread notifications of email within tenant.
func (c *Client) Unread(ctx context.Context, email, tenant string) ([]Record, error) {
	var out []Record
	err := c.do(ctx, http.MethodGet, "/notifications/unread", identityQuery(email, tenant), nil, &out)
	return out, err
}

// UnreadCount returns the number of unread notifications of email within tenant.
func (c *Client) UnreadCount(ctx context.Context, email, tenant string) (int, error) {
	var out int
	err := c.do(ctx, http.MethodGet, "/notifications/unread/count", identityQuery(email, tenant), nil, &out)
	return out, err
}

// MarkRead marks one notification as read and returns it.
func (c *Client) MarkRead(ctx context.Context, id int64) (Record, error) {
	var out Record
	err := c.do(ctx, http.MethodPut, "/notifications/"+strconv.FormatInt(id, 10)+"/read", nil, nil, &out)
	return out, err
}

// MarkAllRead marks every notification of email as read.
func (c *Client) MarkAllRead(ctx context.Context, email string) ([]Record, error) {
	var out []Record
	err := c.do(ctx, http.MethodPost, "/notifications/mark-all-read", nil, map[string]string{"email": email}, &out)
	return out, err
}

// Create stores rec on the backend and returns the created record.
func (c *Client) Create(ctx context.Context, rec Record) (Record, error) {
	var out Record
	err := c.do(ctx, http.MethodPost, "/notifications", nil, rec, &out)
	return out, err
}

func identityQuery(email, tenant string) url.Values {
	q := url.Values{"email": {email}}
	if tenant != "" {
		q.Set("tenant", tenant)
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, reqID := requestid.Ensure(ctx)

	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRequestFailed, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "notifications api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		logger.RequestID(reqID),
		logger.Duration(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := strings.ReplaceAll(strings.TrimSpace(string(msg)), "\n", " ")
		if len(detail) > 200 {
			detail = detail[:200] + "..."
		}
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, detail)
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
