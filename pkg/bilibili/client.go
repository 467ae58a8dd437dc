package bilibili

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "bilifollow/pkg/errors"
	"bilifollow/pkg/logger"
	"bilifollow/pkg/ratelimit"
	"bilifollow/pkg/retry"
)

// DefaultUserAgent is sent when the session does not carry its own
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Session holds the browser cookies that authenticate API calls
type Session struct {
	SESSDATA   string
	BiliJCT    string
	DedeUserID string
	UserAgent  string
}

// CookieHeader renders the session as a Cookie header value
func (s Session) CookieHeader() string {
	var parts []string
	if s.SESSDATA != "" {
		parts = append(parts, "SESSDATA="+s.SESSDATA)
	}
	if s.BiliJCT != "" {
		parts = append(parts, "bili_jct="+s.BiliJCT)
	}
	if s.DedeUserID != "" {
		parts = append(parts, "DedeUserID="+s.DedeUserID)
	}
	return strings.Join(parts, "; ")
}

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// Pacer, when set, is waited on before every HTTP attempt
	Pacer ratelimit.Pacer
	// Throttle receives rate-limit signals and stretches retry delays
	Throttle *ratelimit.Throttle
	Logger   logger.Logger
}

// Client talks to the Bilibili web API
type Client struct {
	httpClient *http.Client
	session    Session
	baseURL    string
	maxRetries int
	pacer      ratelimit.Pacer
	throttle   *ratelimit.Throttle
	backoff    retry.BackoffStrategy
	logger     logger.Logger
}

// NewClient creates a new API client
func NewClient(session Session, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if session.UserAgent == "" {
		session.UserAgent = DefaultUserAgent
	}

	c := &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		session:    session,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		maxRetries: opts.MaxRetries,
		pacer:      opts.Pacer,
		throttle:   opts.Throttle,
		logger:     opts.Logger,
	}
	c.backoff = retry.Stretched(retry.DefaultRequestBackoff(), c.backoffFactor)
	return c
}

// Session returns the cookies the client authenticates with
func (c *Client) Session() Session {
	return c.session
}

func (c *Client) backoffFactor() float64 {
	if c.throttle == nil {
		return 1
	}
	return c.throttle.BackoffFactor()
}

// envelope is the common wrapper of every API response
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// GetJSON issues a GET against path with the session cookies and decodes the
// envelope's data into target. Failed attempts are retried up to MaxRetries
// times; the last failure is returned once attempts run out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, target interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	cfg := retry.DefaultConfig(c.maxRetries)
	cfg.Backoff = c.backoff
	cfg.Logger = c.logger

	attempt := 0
	return retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		return c.attempt(ctx, endpoint, attempt, target)
	}, cfg)
}

// attempt performs one HTTP round trip
func (c *Client) attempt(ctx context.Context, endpoint string, attempt int, target interface{}) error {
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			URL:     endpoint,
		}
	}
	req.Header.Set("User-Agent", c.session.UserAgent)
	req.Header.Set("Referer", Referer)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if cookie := c.session.CookieHeader(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.WithError(err).WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":     endpoint,
			"attempt": attempt,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			URL:     endpoint,
		}
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, endpoint, attempt, resp.StatusCode, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests {
			c.onRateLimited(endpoint)
		}
		return errs.NewRequestError(endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			URL:     endpoint,
		}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return c.parseError(endpoint, body, err)
	}
	if env.Code != 0 {
		return errs.NewAPIError(endpoint, env.Code, env.Message)
	}

	if target == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return c.parseError(endpoint, env.Data, err)
	}
	return nil
}

func (c *Client) onRateLimited(endpoint string) {
	if c.throttle == nil || !c.throttle.Enabled() {
		return
	}
	before := c.throttle.Limit()
	if after := c.throttle.OnRateLimited(); after < before {
		logger.LogRateLimit(c.logger, endpoint, after)
	}
}

func (c *Client) parseError(endpoint string, body []byte, err error) error {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
		"url":          endpoint,
		"error":        err.Error(),
		"body_preview": preview,
	})
	return &errs.Error{
		Type:    errs.ErrorTypeParsing,
		Message: fmt.Sprintf("failed to parse JSON: %v", err),
		URL:     endpoint,
	}
}
