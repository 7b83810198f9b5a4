// Package http is the transport used by the session: retries, rate
// limiting, token injection and one re-authentication on 401.
package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// TokenProvider supplies the token sent as X-Auth-Token.
type TokenProvider interface {
	// GetToken returns a usable token, re-authenticating if it expired.
	GetToken(ctx context.Context) (string, error)
	// RefreshToken discards the current token and obtains a new one.
	RefreshToken(ctx context.Context) error
}

// Client executes fully resolved requests.
type Client struct {
	httpClient      *retryablehttp.Client
	tokens          TokenProvider
	limiter         *rate.Limiter
	logger          openstack.Logger
	debug           bool
	userAgent       string
	timeout         time.Duration
	transferTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for request and retry logging.
func WithLogger(logger openstack.Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.httpClient.Logger = &leveledLogger{logger: logger}
	}
}

// WithDebug logs every request and response at debug level.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig sets how often and how patiently failed requests are
// retried. Zero retryMax disables retries. See checkRetry for which
// failures qualify.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithTimeout bounds each request. Binary transfers use transfer instead.
func WithTimeout(timeout, transfer time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
		c.transferTimeout = transfer
	}
}

// WithRateLimit allows perSecond requests with the given burst. Zero
// disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil

			return
		}

		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithSkipTLSVerify disables certificate verification.
func WithSkipTLSVerify(skip bool) Option {
	return func(c *Client) {
		transport, ok := c.httpClient.HTTPClient.Transport.(*http.Transport)
		if !ok {
			return
		}

		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}

		transport.TLSClientConfig.InsecureSkipVerify = skip //nolint:gosec // opt-in for development clouds
	}
}

// WithHTTPClient replaces the underlying client, e.g. with httptest's.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = httpClient
	}
}

// NewClient creates a transport. tokens may be nil for unauthenticated
// calls such as Keystone token issue.
func NewClient(tokens TokenProvider, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.CheckRetry = checkRetry

	client := &Client{
		httpClient:      retryClient,
		tokens:          tokens,
		userAgent:       constants.DefaultUserAgent,
		timeout:         constants.DefaultHTTPTimeout,
		transferTimeout: constants.ExtendedHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do sends req. Any HTTP status is returned as a Response; only failures
// to get one are errors, as *openstack.TransportError.
func (c *Client) Do(ctx context.Context, req *openstack.Request) (*openstack.Response, error) {
	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, c.transportError(req, fmt.Errorf("rate limiter: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(req))
	defer cancel()

	resp, err := c.send(ctx, req, false)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil && req.Headers.Get(constants.AuthTokenHeader) == "" {
		err = c.tokens.RefreshToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("re-authenticating after 401: %w", err)
		}

		return c.send(ctx, req, true)
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, req *openstack.Request, retried bool) (*openstack.Response, error) {
	var payload interface{}
	if len(req.Body) > 0 {
		payload = req.Body
	}

	ctx = context.WithValue(ctx, idempotentKey{}, idempotent(req.Method))

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, payload)
	if err != nil {
		return nil, c.transportError(req, fmt.Errorf("creating request: %w", err))
	}

	httpReq.Header.Set(constants.HeaderUserAgent, c.userAgent)

	for key, values := range req.Headers {
		httpReq.Header[key] = append([]string(nil), values...)
	}

	if c.tokens != nil && httpReq.Header.Get(constants.AuthTokenHeader) == "" {
		token, err := c.tokens.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting token: %w", err)
		}

		httpReq.Header.Set(constants.AuthTokenHeader, token)
	}

	start := time.Now()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  req.Method,
			"url":     req.URL,
			"body":    len(req.Body),
			"retried": retried,
		})
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(req, err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(req, fmt.Errorf("reading response body: %w", err))
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":     req.Method,
			"url":        req.URL,
			"status":     resp.StatusCode,
			"bytes":      len(body),
			"duration":   time.Since(start).String(),
			"request_id": resp.Header.Get(constants.HeaderRequestID),
		})
	}

	return &openstack.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

type idempotentKey struct{}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// checkRetry retries idempotent requests on connection errors, 429 and
// 5xx other than 501. POST and PATCH are only retried on 429, which the
// server sends before acting on the request.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if retry, _ := ctx.Value(idempotentKey{}).(bool); retry {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return err == nil && resp.StatusCode == http.StatusTooManyRequests, nil
}

func (c *Client) timeoutFor(req *openstack.Request) time.Duration {
	if req.Headers.Get(constants.HeaderAccept) == constants.MediaTypeOctetStream ||
		req.Headers.Get(constants.HeaderContentType) == constants.MediaTypeOctetStream ||
		len(req.Body) > transferThreshold {
		return c.transferTimeout
	}

	return c.timeout
}

// transferThreshold is the body size above which a request counts as a
// transfer.
const transferThreshold = 1 << 20

func (c *Client) transportError(req *openstack.Request, err error) error {
	return &openstack.TransportError{Method: req.Method, URL: req.URL, Err: err}
}

// leveledLogger routes retryablehttp's retry messages to the client logger.
type leveledLogger struct {
	logger openstack.Logger
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues))
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		result[key] = keysAndValues[i+1]
	}

	return result
}
