package openstack

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
)

// RequestInterceptor runs before a request is sent. Returning an error
// aborts the request.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor runs after a response, or a transport failure
// recorded in resp.Error, comes back.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain holds the interceptors of a session. Interceptors may be
// added while requests are in flight.
type InterceptorChain struct {
	mu     sync.RWMutex
	before []RequestInterceptor
	after  []ResponseInterceptor
}

func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.before = append(c.before, interceptor)
}

func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.after = append(c.after, interceptor)
}

// Before runs the request interceptors in the order they were added and
// stops at the first error.
func (c *InterceptorChain) Before(ctx context.Context, req *Request) error {
	c.mu.RLock()
	interceptors := c.before
	c.mu.RUnlock()

	for i, interceptor := range interceptors {
		if err := interceptor(ctx, req); err != nil {
			return fmt.Errorf("request interceptor %d: %w", i, err)
		}
	}

	return nil
}

// After runs the response interceptors in the order they were added and
// stops at the first error.
func (c *InterceptorChain) After(ctx context.Context, req *Request, resp *Response) error {
	c.mu.RLock()
	interceptors := c.after
	c.mu.RUnlock()

	for i, interceptor := range interceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return fmt.Errorf("response interceptor %d: %w", i, err)
		}
	}

	return nil
}

// HeaderInterceptor sets headers on every request, replacing values the
// descriptor set.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header, len(headers))
		}

		for name, value := range headers {
			req.Headers.Set(name, value)
		}

		return nil
	}
}

// RequestLogging returns a pair of interceptors that log each call at debug
// level, client errors as warnings and transport failures as errors. The
// OpenStack request ID is included when the service returns one.
func RequestLogging(logger Logger) (RequestInterceptor, ResponseInterceptor) {
	before := func(_ context.Context, req *Request) error {
		logger.Debug("sending request", map[string]interface{}{
			"method":  req.Method,
			"url":     req.URL,
			"service": string(req.Service),
		})

		return nil
	}

	after := func(_ context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":  req.Method,
			"url":     req.URL,
			"service": string(req.Service),
		}

		if sent, ok := req.Metadata[sentAtKey].(time.Time); ok {
			fields["elapsed"] = time.Since(sent).String()
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("request failed", fields)

			return nil
		}

		fields["status"] = resp.StatusCode
		if id := resp.Headers.Get(constants.HeaderRequestID); id != "" {
			fields["request_id"] = id
		}

		if resp.StatusCode >= http.StatusBadRequest {
			logger.Warn("request returned an error status", fields)
		} else {
			logger.Debug("request completed", fields)
		}

		return nil
	}

	return before, after
}
