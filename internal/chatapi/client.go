// ABOUTME: HTTP client for the chat backend's JSON endpoints
// ABOUTME: Holds a cookie jar so the login session is reused across calls

package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// DefaultTimeout applies when no timeout option is given.
const DefaultTimeout = 30 * time.Second

// Client talks to the chat backend.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the base http.Client. The client keeps its own copy
// with a fresh Jar and CheckRedirect; hc itself is left untouched. Nil is
// ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger. Nil keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.With("component", "chatapi")
		}
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: "coven-chat",
		logger:    slog.Default().With("component", "chatapi"),
	}
	for _, opt := range opts {
		opt(c)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	hc := *c.http
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	hc.Jar = jar
	// Redirects mean "not logged in" or "navigate elsewhere"; surface them.
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.http = &hc

	return c, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Login authenticates and stores the session cookie.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/login", nil, LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "login rejected"
		}
		return &AppError{Op: "login", Message: msg}
	}
	return nil
}

// Logout ends the backend session. The redirect the server answers with is
// treated as success.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/logout", nil, nil)
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// GetHistory fetches the messages of a thread. An empty threadID asks the
// server for the caller's current thread.
func (c *Client) GetHistory(ctx context.Context, threadID, chatbotType string) (*HistoryResponse, error) {
	q := url.Values{}
	if threadID != "" {
		q.Set("thread_id", threadID)
	}
	if chatbotType != "" {
		q.Set("chatbot_type", chatbotType)
	}

	resp, err := c.do(ctx, http.MethodGet, "/get_chat_history", q, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	if err := statusError(resp, body); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrBadEnvelope
	}

	var history HistoryResponse
	if err := json.Unmarshal(trimmed, &history); err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}
	return &history, nil
}

// SendMessage posts a chat message and returns the assistant's reply.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	var resp SendMessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/send_message", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}
	return &resp, nil
}

// NewUser asks the backend to allocate a fresh thread for chatbotType.
func (c *Client) NewUser(ctx context.Context, chatbotType string) (*NewUserResponse, error) {
	var resp NewUserResponse
	if err := c.doJSON(ctx, http.MethodPost, "/new_user", nil, NewUserRequest{ChatbotType: nullable(chatbotType)}, &resp); err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}
	return &resp, nil
}

// doJSON sends an optional JSON body and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := statusError(resp, data); err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("request finished",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}

// statusError converts a non-2xx response into a *StatusError, pulling the
// message out of a JSON {"error": "..."} body when there is one.
func statusError(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	se := &StatusError{Code: resp.StatusCode}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		se.Location = resp.Header.Get("Location")
	}

	var errResp struct {
		Error string `json:"error"`
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		if err := json.Unmarshal(body, &errResp); err == nil {
			se.Message = errResp.Error
		}
	}
	return se
}
