// Package osclient provides the main entry point for creating OpenStack API clients
package osclient

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fivetwenty-io/ostack/internal/auth"
	"github.com/fivetwenty-io/ostack/internal/client"
	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Session is an authenticated openstack.Client.
type Session interface {
	openstack.Client
	openstack.VersionDiscoverer

	// Authenticate obtains a token now instead of on the first request.
	Authenticate(ctx context.Context) error
	Auth() openstack.Auth
	Catalog() openstack.Catalog
	// BaseURL returns the endpoint used for service.
	BaseURL(ctx context.Context, service openstack.ServiceType) (string, error)
	VersionRange(ctx context.Context, service openstack.ServiceType) (openstack.VersionRange, error)
	Metrics() *openstack.MetricsCollector
	AddRequestInterceptor(interceptor openstack.RequestInterceptor)
	AddResponseInterceptor(interceptor openstack.ResponseInterceptor)
}

var _ Session = (*client.Client)(nil)

// Option configures a session.
type Option = client.Option

// StatePersister saves tokens between runs.
type StatePersister = auth.StatePersister

// ErrConfigRequired is returned by New for a nil config.
var ErrConfigRequired = client.ErrConfigRequired

// WithInitialAuth seeds the session with a previously saved token. It is
// used until it expires.
func WithInitialAuth(initial openstack.Auth) Option {
	return client.WithInitialAuth(initial)
}

// WithStatePersister saves every token issued for cloud.
func WithStatePersister(persister StatePersister, cloud string) Option {
	return client.WithStatePersister(persister, cloud)
}

// WithHTTPClient routes every request through httpClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return client.WithHTTPClient(httpClient)
}

func WithCache(cache openstack.Cache) Option {
	return client.WithCache(cache)
}

// New creates a session and authenticates it.
func New(ctx context.Context, config *openstack.Config, opts ...Option) (Session, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	if config.AuthURL != "" {
		authURL := strings.TrimSuffix(strings.TrimSpace(config.AuthURL), "/")
		if !strings.HasPrefix(authURL, "http://") && !strings.HasPrefix(authURL, "https://") {
			authURL = "https://" + authURL
		}

		config.AuthURL = authURL
	}

	if config.SkipTLSVerify && !isDevelopmentEnvironment() {
		return nil, constants.ErrInsecureOnlyInDev
	}

	session, err := client.New(config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	err = session.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// isDevelopmentEnvironment checks if we're in a development environment.
func isDevelopmentEnvironment() bool {
	devMode := os.Getenv(constants.EnvDevMode)

	return devMode == "true" || devMode == "1"
}

// NewWithToken creates a session from an existing token.
func NewWithToken(ctx context.Context, authURL, token string) (Session, error) {
	return New(ctx, &openstack.Config{
		AuthURL: authURL,
		Token:   token,
	})
}

// NewWithPassword creates a project scoped session for a user of the
// Default domain.
func NewWithPassword(ctx context.Context, authURL, username, password, projectName string) (Session, error) {
	return New(ctx, &openstack.Config{
		AuthURL:     authURL,
		Username:    username,
		Password:    password,
		ProjectName: projectName,
	})
}

// NewWithApplicationCredential creates a session from an application
// credential ID and secret.
func NewWithApplicationCredential(ctx context.Context, authURL, id, secret string) (Session, error) {
	return New(ctx, &openstack.Config{
		AuthURL:                     authURL,
		ApplicationCredentialID:     id,
		ApplicationCredentialSecret: secret,
	})
}
