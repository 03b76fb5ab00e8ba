package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"instapi/pkg/config"
	errs "instapi/pkg/errors"
	"instapi/pkg/logger"
	"instapi/pkg/ratelimit"
	"instapi/pkg/retry"
	"instapi/pkg/wire"
)

// Client talks to the private mobile API. It implements models.API and
// models.Downloader.
type Client struct {
	httpClient *http.Client
	jar        http.CookieJar
	headers    map[string]string
	baseURL    *url.URL
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger

	mu       sync.RWMutex
	device   Device
	username string
	userID   int64
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. The client's cookie jar is attached
// unless hc already has one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter replaces the request pacing policy.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithRetry replaces the retry policy applied to read requests.
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithDevice reuses a device identity instead of generating one.
func WithDevice(d Device) Option {
	return func(c *Client) {
		c.device = d
	}
}

// NewClient creates a client from the instagram, rate limit and retry
// sections of cfg.
func NewClient(cfg *config.Config, log logger.Logger, opts ...Option) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	base, err := url.Parse(cfg.Instagram.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.Instagram.BaseURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Instagram.Timeout},
		jar:        jar,
		headers: map[string]string{
			"User-Agent":           cfg.Instagram.UserAgent,
			"X-IG-App-ID":          cfg.Instagram.AppID,
			"X-IG-Capabilities":    "3brTvw==",
			"X-IG-Connection-Type": "WIFI",
			"Accept-Language":      "en-US",
			"Accept":               "*/*",
		},
		baseURL: base,
		limiter: ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize),
		retry:   retry.FromSettings(cfg.Retry, log),
		logger:  log,
		device:  NewDevice(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		c.httpClient.Jar = c.jar
	} else {
		c.jar = c.httpClient.Jar
	}
	if c.limiter == nil {
		c.limiter = ratelimit.Unlimited{}
	}
	return c, nil
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// UserID returns the primary key of the logged in account, 0 before login.
func (c *Client) UserID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Username returns the logged in account name.
func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

func (c *Client) endpointURL(endpoint string, query url.Values) string {
	ref := &url.URL{Path: endpoint}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return c.baseURL.ResolveReference(ref).String()
}

// get issues an idempotent read. Transient failures are retried.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (wire.Dict, error) {
	return retry.DoWithResult(ctx, c.retry, func(ctx context.Context) (wire.Dict, error) {
		return c.do(ctx, http.MethodGet, endpoint, query, nil)
	})
}

// post issues a mutation. Mutations are sent once.
func (c *Client) post(ctx context.Context, endpoint string, query, form url.Values) (wire.Dict, error) {
	if form == nil {
		form = url.Values{}
	}
	return c.do(ctx, http.MethodPost, endpoint, query, form)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query, form url.Values) (wire.Dict, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	target := c.endpointURL(endpoint, query)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "failed to create request", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}

	raw, status, err := c.roundTrip(req, endpoint)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		apiErr := errs.FromStatus(status, string(raw))
		if msg := failureMessage(raw); msg != "" {
			apiErr.Message = msg
		}
		return nil, apiErr
	}
	return c.decode(endpoint, status, raw)
}

// roundTrip sends req with the client headers and reads the whole body.
func (c *Client) roundTrip(req *http.Request, endpoint string) ([]byte, int, error) {
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, 0, errs.Wrap(errs.ErrorTypeNetwork, "network error", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errs.Wrap(errs.ErrorTypeNetwork, "failed to read response body", err)
	}
	logger.LogRequest(c.logger, req.Method, endpoint, resp.StatusCode, duration)
	return raw, resp.StatusCode, nil
}

// decode parses a success body. A payload whose status is "fail" is
// reported as an API error.
func (c *Client) decode(endpoint string, status int, raw []byte) (wire.Dict, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out wire.Dict
	if err := dec.Decode(&out); err != nil {
		preview := string(raw)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"endpoint":     endpoint,
			"status":       status,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    status,
			Body:    string(raw),
			Err:     err,
		}
	}
	if out == nil {
		out = wire.Dict{}
	}
	if s, _ := out["status"].(string); s == "fail" {
		msg, _ := out["message"].(string)
		if msg == "" {
			msg = "request failed"
		}
		return nil, &errs.Error{Type: errs.ErrorTypeAPI, Message: msg, Code: status, Body: string(raw)}
	}
	return out, nil
}

func failureMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	return payload.Message
}

// Download streams the body at rawURL. The caller closes it.
func (c *Client) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	return retry.DoWithResult(ctx, c.retry, func(ctx context.Context) (io.ReadCloser, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeUnknown, "failed to create request", err)
		}
		req.Header.Set("User-Agent", c.headers["User-Agent"])

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeNetwork, "network error", err)
		}
		logger.LogRequest(c.logger, http.MethodGet, req.URL.Path, resp.StatusCode, time.Since(start))
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return nil, errs.FromStatus(resp.StatusCode, string(body))
		}
		return resp.Body, nil
	})
}
