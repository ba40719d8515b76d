package apiclient

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

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/snapmeal/snapmeal-go/internal/config"
)

const maxResponseBytes = 8 << 20

// TokenSource provides the bearer token for authenticated calls.
type TokenSource interface {
	AccessToken() (string, bool)
}

type Logger interface {
	Printf(format string, v ...any)
}

// Client talks to the SnapMeal backend. It is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	limiter        *rate.Limiter
	logger         Logger
	uploadMaxBytes int64
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit throttles outgoing requests. rps <= 0 disables throttling.
func WithRateLimit(rps, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = rps
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithUploadLimit(maxBytes int64) Option {
	return func(c *Client) { c.uploadMaxBytes = maxBytes }
}

// New creates a client for baseURL. tokens may be nil for unauthenticated use.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		tokens:         tokens,
		uploadMaxBytes: 10 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from the loaded configuration.
func NewFromConfig(cfg *config.Config, tokens TokenSource, logger Logger) *Client {
	return New(cfg.APIBaseURL, tokens,
		WithHTTPClient(&http.Client{Timeout: cfg.APITimeout()}),
		WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		WithLogger(logger),
		WithUploadLimit(int64(cfg.UploadMaxMB)<<20),
	)
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	auth        bool
}

func jsonRequest(method, path string, payload any, auth bool) (request, error) {
	req := request{method: method, path: path, auth: auth}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return request{}, err
		}
		req.body = bytes.NewReader(body)
		req.contentType = "application/json"
	}
	return req, nil
}

// do executes r and returns the raw response body of a 2xx response.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	var token string
	if r.auth {
		var ok bool
		if c.tokens != nil {
			token, ok = c.tokens.AccessToken()
		}
		if !ok || token == "" {
			c.logf("WARN api: %s %s skipped, no access token", r.method, r.path)
			return nil, ErrNoToken
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if r.contentType != "" {
		httpReq.Header.Set("Content-Type", r.contentType)
	}
	if r.auth {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logf("WARN api: %s %s transport_error=%q", r.method, r.path, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	c.logf("INFO api: %s %s status=%d duration=%s", r.method, r.path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseHTTPError(resp.StatusCode, body)
	}

	return body, nil
}

// doJSON executes r and decodes a JSON body into out.
func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if err := decodeJSON(body, out); err != nil {
		c.logf("WARN api: %s %s %v", r.method, r.path, err)
		return err
	}
	return nil
}

func decodeJSON(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func parseHTTPError(status int, body []byte) *HTTPError {
	httpErr := &HTTPError{StatusCode: status}

	var nested struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	var flat struct {
		Code    Text `json:"code"`
		Message Text `json:"message"`
	}

	switch {
	case json.Unmarshal(body, &nested) == nil && nested.Error.Message != "":
		httpErr.Code = nested.Error.Code
		httpErr.Message = nested.Error.Message
	case json.Unmarshal(body, &flat) == nil && flat.Message != "":
		httpErr.Code = flat.Code.String()
		httpErr.Message = flat.Message.String()
	default:
		text := strings.TrimSpace(string(body))
		if len(text) > 512 {
			text = text[:512]
		}
		httpErr.Body = text
	}
	return httpErr
}

func (c *Client) logf(format string, v ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Printf(format, v...)
}

// IsCanceled reports whether err came from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
