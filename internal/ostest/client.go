// Package ostest provides an in-memory openstack.Client for tests.
package ostest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// BaseURL is the root every service resolves under: BaseURL/<service>/.
const BaseURL = "https://cloud.test"

// Handler answers one routed request.
type Handler func(req *openstack.Request) (*openstack.Response, error)

// Client routes requests by method, service and path. Unrouted requests get
// a Nova style 404.
type Client struct {
	mu       sync.Mutex
	routes   map[string]Handler
	requests []*openstack.Request
}

var _ openstack.Client = (*Client)(nil)

func NewClient() *Client {
	return &Client{routes: make(map[string]Handler)}
}

// Handle registers handler for method on path of service. Path excludes the
// query string.
func (c *Client) Handle(method string, service openstack.ServiceType, path string, handler Handler) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.routes[routeKey(method, service, path)] = handler

	return c
}

// Requests returns the requests executed so far.
func (c *Client) Requests() []*openstack.Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*openstack.Request(nil), c.requests...)
}

func (c *Client) ResolveURL(_ context.Context, service openstack.ServiceType, path string) (string, error) {
	return openstack.JoinURL(BaseURL+"/"+string(service), path), nil
}

func (c *Client) Execute(ctx context.Context, req *openstack.Request) (*openstack.Response, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	parsed, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing request URL: %w", err)
	}

	prefix := "/" + string(req.Service)
	path := strings.TrimPrefix(strings.TrimPrefix(parsed.EscapedPath(), prefix), "/")

	c.mu.Lock()
	c.requests = append(c.requests, req)
	handler, ok := c.routes[routeKey(req.Method, req.Service, path)]
	c.mu.Unlock()

	if !ok {
		return JSON(http.StatusNotFound, `{"itemNotFound": {"message": "Not found", "code": 404}}`), nil
	}

	return handler(req)
}

// JSON builds a response with a JSON body.
func JSON(status int, body string) *openstack.Response {
	return &openstack.Response{
		StatusCode: status,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(body),
	}
}

// Query returns the parsed query string of req.
func Query(req *openstack.Request) url.Values {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return url.Values{}
	}

	return parsed.Query()
}

func routeKey(method string, service openstack.ServiceType, path string) string {
	return strings.ToUpper(method) + " " + string(service) + " " + strings.TrimPrefix(path, "/")
}
