package openstack

import (
	"context"
	"net/http"
	"time"
)

// Client executes requests built from endpoint descriptors. Implementations
// resolve service types to base URLs and attach authentication.
type Client interface {
	// ResolveURL joins path onto the base URL of service.
	ResolveURL(ctx context.Context, service ServiceType, path string) (string, error)
	// Execute sends req. Non-2xx statuses are returned as responses, not errors.
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// VersionDiscoverer is implemented by clients that know the maximum
// microversion each service supports. A zero version means unknown.
type VersionDiscoverer interface {
	MaxAPIVersion(ctx context.Context, service ServiceType) (APIVersion, error)
}

// Request is a fully resolved HTTP request.
type Request struct {
	Method   string
	URL      string
	Service  ServiceType
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response is a raw HTTP response with the body already read.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building an openstack.Client.
//
// # Authentication precedence
//
// The concrete client (see pkg/osclient and internal/auth) picks the first
// method that has everything it needs:
//  1. Token: an existing Keystone token, rescoped through the token method
//     when a scope is also given, otherwise used as-is.
//  2. ApplicationCredentialSecret with ApplicationCredentialID, or with
//     ApplicationCredentialName plus a user.
//  3. Password with Username (plus UserDomainName/UserDomainID) or UserID.
//
// # Scope
//
// SystemScope wins over a project scope (ProjectID, or ProjectName with a
// project domain), which wins over a domain scope (DomainID/DomainName).
// Application credentials carry their own scope.
//
// # Endpoints
//
// Base URLs come from the catalog in the token response, filtered by Region
// and Interface ("public" when empty). EndpointOverrides replaces the catalog
// URL for a service type.
type Config struct {
	// AuthURL is the Keystone endpoint, with or without the /v3 suffix.
	AuthURL string

	Username       string
	UserID         string
	Password       string
	UserDomainName string
	UserDomainID   string

	ProjectName       string
	ProjectID         string
	ProjectDomainName string
	ProjectDomainID   string
	DomainName        string
	DomainID          string
	// SystemScope requests a token scoped to the whole deployment.
	SystemScope bool

	ApplicationCredentialID     string
	ApplicationCredentialName   string
	ApplicationCredentialSecret string

	// Token is a previously issued token.
	Token string
	// TokenExpiresAt is the known expiry of Token, if any.
	TokenExpiresAt time.Time

	Region            string
	Interface         string
	EndpointOverrides map[ServiceType]string

	// HTTPTimeout bounds every request; zero uses the transport default.
	HTTPTimeout time.Duration
	// RetryMax is how many times a request that failed with 429, a 5xx or
	// a connection error is resent. Only idempotent methods are resent
	// after a 5xx or connection error. Zero disables retries.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit caps requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	// ExpiryLookAhead is how early a token is renewed before it expires.
	ExpiryLookAhead time.Duration

	// Debug enables HTTP request/response logging when Logger is set.
	Debug  bool
	Logger Logger
	// SkipTLSVerify is honored only when OSTACK_DEV_MODE is set.
	SkipTLSVerify bool
	UserAgent     string

	// DiscoverVersions queries service roots for their microversion range
	// before sending versioned requests.
	DiscoverVersions bool
	// Cache stores discovered versions. Nil uses an in-memory cache.
	Cache *CacheConfig
}
