// Package api talks to the remote todo backend: a resty client with
// bearer-token and 401 middleware, plus typed auth and todos modules.
package api

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
)

const (
	DefaultBaseURL = "https://fe-test-api.nwappservice.com"
	DefaultTimeout = 10 * time.Second
)

// Config holds the transport settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout}
}

// Client executes requests against a single backend origin. Requests are
// never retried.
type Client struct {
	rc     *resty.Client
	tokens *TokenStore
	logger *log.Logger

	mu             sync.Mutex
	onUnauthorized []func()
}

func New(cfg Config, tokens *TokenStore, logger *log.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if tokens == nil {
		tokens = NewTokenStore("")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	c := &Client{tokens: tokens, logger: logger}
	c.rc = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(logger)
	c.rc.OnBeforeRequest(c.attachToken)
	c.rc.OnAfterResponse(c.checkUnauthorized)
	return c
}

// Tokens returns the token store shared with the auth module.
func (c *Client) Tokens() *TokenStore { return c.tokens }

// OnUnauthorized registers fn to run after a 401 response has cleared the
// token and before the error reaches the caller.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
	c.mu.Unlock()
}

func (c *Client) attachToken(_ *resty.Client, r *resty.Request) error {
	if tok := c.tokens.Token(); tok != "" {
		r.SetHeader("Authorization", "Bearer "+tok)
	}
	return nil
}

func (c *Client) checkUnauthorized(_ *resty.Client, resp *resty.Response) error {
	if resp.StatusCode() != http.StatusUnauthorized {
		return nil
	}
	c.tokens.Clear()
	c.logger.Debug("backend rejected token, cleared", "path", resp.Request.URL)

	c.mu.Lock()
	hooks := append([]func(){}, c.onUnauthorized...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// Get issues GET path with query parameters.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (*model.Envelope[T], error) {
	return do[T](ctx, c, http.MethodGet, path, query, nil)
}

func Post[T any](ctx context.Context, c *Client, path string, body any) (*model.Envelope[T], error) {
	return do[T](ctx, c, http.MethodPost, path, nil, body)
}

func Put[T any](ctx context.Context, c *Client, path string, body any) (*model.Envelope[T], error) {
	return do[T](ctx, c, http.MethodPut, path, nil, body)
}

func Delete[T any](ctx context.Context, c *Client, path string) (*model.Envelope[T], error) {
	return do[T](ctx, c, http.MethodDelete, path, nil, nil)
}

func do[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*model.Envelope[T], error) {
	req := c.rc.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "err", err)
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	c.logger.Debug("request done",
		"method", method,
		"path", path,
		"status", resp.StatusCode(),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if !resp.IsSuccess() {
		return nil, newHTTPError(resp.StatusCode(), resp.Body())
	}
	return decodeEnvelope[T](resp.Body())
}
