// Package client implements openstack.Client on top of a Keystone session:
// it resolves service types through the token's catalog, attaches tokens,
// runs the interceptor chain and discovers microversions.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/ostack/internal/auth"
	"github.com/fivetwenty-io/ostack/internal/constants"
	oshttp "github.com/fivetwenty-io/ostack/internal/http"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired         = errors.New("config is required")
	ErrNoEndpointConfigured   = errors.New("no auth URL, token or endpoint override configured")
	ErrStaticTokenNeedsTarget = errors.New("a token without an auth URL needs endpoint overrides")
)

// Client is a Keystone session shared by every service package.
type Client struct {
	config       *openstack.Config
	httpClient   *oshttp.Client
	tokenManager auth.TokenManager
	interceptors *openstack.InterceptorChain
	metrics      *openstack.MetricsCollector
	cache        openstack.Cache
	logger       openstack.Logger
}

var (
	_ openstack.Client            = (*Client)(nil)
	_ openstack.VersionDiscoverer = (*Client)(nil)
)

// Option configures a Client.
type Option func(*options)

type options struct {
	tokenManager auth.TokenManager
	initial      openstack.Auth
	persister    auth.StatePersister
	cloud        string
	httpClient   *http.Client
	cache        openstack.Cache
}

// WithTokenManager uses manager instead of one built from the config.
func WithTokenManager(manager auth.TokenManager) Option {
	return func(o *options) {
		o.tokenManager = manager
	}
}

// WithInitialAuth seeds the session with a token loaded from saved state.
func WithInitialAuth(initial openstack.Auth) Option {
	return func(o *options) {
		o.initial = initial
	}
}

// WithStatePersister saves every newly issued token under cloud.
func WithStatePersister(persister auth.StatePersister, cloud string) Option {
	return func(o *options) {
		o.persister = persister
		o.cloud = cloud
	}
}

// WithHTTPClient sends requests, including Keystone's, through httpClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithCache stores discovered versions in cache instead of config.Cache.
func WithCache(cache openstack.Cache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// New creates a session. No request is sent until the first call.
func New(config *openstack.Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	settings := &options{initial: openstack.NoAuth()}
	for _, opt := range opts {
		opt(settings)
	}

	tokenManager := settings.tokenManager
	if tokenManager == nil {
		// Keystone's own client must not try to inject a token.
		issuerHTTP := oshttp.NewClient(nil, createHTTPClientOptions(config, settings.httpClient)...)

		manager, err := createTokenManager(config, issuerHTTP, settings.initial)
		if err != nil {
			return nil, err
		}

		tokenManager = manager
	}

	if settings.persister != nil {
		tokenManager = auth.NewPersistingTokenManager(tokenManager, settings.persister, settings.cloud, config.Logger)
	}

	cache := settings.cache
	if cache == nil {
		built, err := openstack.NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("creating version cache: %w", err)
		}

		cache = built
	}

	client := &Client{
		config:       config,
		httpClient:   oshttp.NewClient(tokenManager, createHTTPClientOptions(config, settings.httpClient)...),
		tokenManager: tokenManager,
		interceptors: openstack.NewInterceptorChain(),
		metrics:      openstack.NewMetricsCollector(),
		cache:        cache,
		logger:       config.Logger,
	}

	timeRequest, recordResponse := client.metrics.Interceptors()
	client.interceptors.AddRequestInterceptor(timeRequest)
	client.interceptors.AddResponseInterceptor(recordResponse)

	if config.Logger != nil {
		logRequest, logResponse := openstack.RequestLogging(config.Logger)
		client.interceptors.AddRequestInterceptor(logRequest)
		client.interceptors.AddResponseInterceptor(logResponse)
	}

	return client, nil
}

// createTokenManager picks how tokens are obtained. With an auth URL every
// renewal goes through Keystone; without one the configured token is used
// until it expires.
func createTokenManager(config *openstack.Config, issuerHTTP *oshttp.Client, initial openstack.Auth) (auth.TokenManager, error) {
	var issuer auth.Issuer

	switch {
	case config.AuthURL != "":
		keystone, err := auth.NewKeystoneIssuer(config, issuerHTTP)
		if err != nil {
			return nil, err
		}

		issuer = keystone
	case config.Token != "":
		if len(config.EndpointOverrides) == 0 {
			return nil, ErrStaticTokenNeedsTarget
		}

		if !initial.IsSet() {
			initial = openstack.NewTokenAuth(config.Token, &openstack.AuthInfo{ExpiresAt: config.TokenExpiresAt})
		}
	case !initial.IsSet():
		return nil, ErrNoEndpointConfigured
	}

	managerOpts := []auth.ManagerOption{auth.WithManagerLogger(config.Logger)}
	if config.ExpiryLookAhead > 0 {
		managerOpts = append(managerOpts, auth.WithLookAhead(config.ExpiryLookAhead))
	}

	return auth.NewKeystoneTokenManager(issuer, initial, managerOpts...), nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *openstack.Config, httpClient *http.Client) []oshttp.Option {
	var httpOpts []oshttp.Option

	if httpClient != nil {
		httpOpts = append(httpOpts, oshttp.WithHTTPClient(httpClient))
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, oshttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, oshttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, oshttp.WithUserAgent(config.UserAgent))
	}

	retryWaitMin := constants.DefaultRetryWaitMin
	retryWaitMax := constants.ExtendedRetryWaitMax

	if config.RetryWaitMin > 0 {
		retryWaitMin = config.RetryWaitMin
	}

	if config.RetryWaitMax > 0 {
		retryWaitMax = config.RetryWaitMax
	}

	httpOpts = append(httpOpts, oshttp.WithRetryConfig(max(config.RetryMax, 0), retryWaitMin, retryWaitMax))

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, oshttp.WithTimeout(config.HTTPTimeout, max(config.HTTPTimeout, constants.ExtendedHTTPTimeout)))
	}

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, oshttp.WithRateLimit(config.RateLimit, config.RateBurst))
	}

	if config.SkipTLSVerify && httpClient == nil {
		httpOpts = append(httpOpts, oshttp.WithSkipTLSVerify(true))
	}

	return httpOpts
}

// ResolveURL implements openstack.Client.
func (c *Client) ResolveURL(ctx context.Context, service openstack.ServiceType, path string) (string, error) {
	base, err := c.BaseURL(ctx, service)
	if err != nil {
		return "", err
	}

	return openstack.JoinURL(base, path), nil
}

// BaseURL returns the endpoint of service: the configured override, or the
// catalog entry for the configured region and interface.
func (c *Client) BaseURL(ctx context.Context, service openstack.ServiceType) (string, error) {
	if override, ok := c.override(service); ok {
		return override, nil
	}

	_, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	info := c.tokenManager.Auth().Info()
	if info == nil || len(info.Catalog) == 0 {
		return "", &openstack.ServiceNotFoundError{
			Service:   service,
			Region:    c.config.Region,
			Interface: c.config.Interface,
			Err:       constants.ErrNoCatalogInResponse,
		}
	}

	return info.Catalog.Lookup(service, c.config.Region, c.config.Interface)
}

func (c *Client) override(service openstack.ServiceType) (string, bool) {
	for key, value := range c.config.EndpointOverrides {
		if openstack.ParseServiceType(string(key)) == service && value != "" {
			return value, true
		}
	}

	return "", false
}

// Execute implements openstack.Client. Interceptors see every request, and
// every response or transport failure.
func (c *Client) Execute(ctx context.Context, req *openstack.Request) (*openstack.Response, error) {
	err := c.interceptors.Before(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		_ = c.interceptors.After(ctx, req, &openstack.Response{Error: err})

		return nil, err
	}

	err = c.interceptors.After(ctx, req, resp)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// Authenticate makes sure the session holds a usable token.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err := c.tokenManager.GetToken(ctx)

	return err
}

// Auth returns the current token and its details.
func (c *Client) Auth() openstack.Auth {
	return c.tokenManager.Auth()
}

// Catalog returns the catalog of the current token, if any.
func (c *Client) Catalog() openstack.Catalog {
	info := c.tokenManager.Auth().Info()
	if info == nil {
		return nil
	}

	return info.Catalog
}

func (c *Client) TokenManager() auth.TokenManager {
	return c.tokenManager
}

// Metrics returns per-service request counters.
func (c *Client) Metrics() *openstack.MetricsCollector {
	return c.metrics
}

func (c *Client) AddRequestInterceptor(interceptor openstack.RequestInterceptor) {
	c.interceptors.AddRequestInterceptor(interceptor)
}

func (c *Client) AddResponseInterceptor(interceptor openstack.ResponseInterceptor) {
	c.interceptors.AddResponseInterceptor(interceptor)
}
