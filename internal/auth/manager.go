package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// TokenManager hands out tokens for requests and renews them.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	// Auth returns the current Auth, which may be unset.
	Auth() openstack.Auth
	SetAuth(auth openstack.Auth)
}

// KeystoneTokenManager renews its token through an Issuer whenever the
// token is unset, expired or about to expire.
type KeystoneTokenManager struct {
	issuer    Issuer
	store     *TokenStore
	lookAhead time.Duration
	logger    openstack.Logger
	now       func() time.Time

	// renewing serializes calls to the issuer.
	renewing sync.Mutex
}

var _ TokenManager = (*KeystoneTokenManager)(nil)

// ManagerOption configures a KeystoneTokenManager.
type ManagerOption func(*KeystoneTokenManager)

// WithLookAhead renews tokens that expire within lookAhead.
func WithLookAhead(lookAhead time.Duration) ManagerOption {
	return func(m *KeystoneTokenManager) {
		m.lookAhead = lookAhead
	}
}

func WithManagerLogger(logger openstack.Logger) ManagerOption {
	return func(m *KeystoneTokenManager) {
		m.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *KeystoneTokenManager) {
		m.now = now
	}
}

// NewKeystoneTokenManager creates a manager. issuer may be nil when the
// session was given a token it cannot renew.
func NewKeystoneTokenManager(issuer Issuer, initial openstack.Auth, opts ...ManagerOption) *KeystoneTokenManager {
	manager := &KeystoneTokenManager{
		issuer:    issuer,
		store:     NewTokenStore(),
		lookAhead: constants.TokenExpirationBuffer,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(manager)
	}

	manager.store.Store(initial)

	return manager
}

// GetToken returns the current token, renewing it first when needed. A
// token about to expire is still returned if renewal fails.
func (m *KeystoneTokenManager) GetToken(ctx context.Context) (string, error) {
	current := m.store.Load()

	switch current.State(m.now(), m.lookAhead) {
	case openstack.AuthValid:
		return current.Token().Token, nil
	case openstack.AuthAboutToExpire:
		renewed, err := m.renew(ctx, current)
		if err != nil {
			m.warn("token renewal failed, using the current token until it expires", err)

			return current.Token().Token, nil
		}

		return renewed.Token().Token, nil
	case openstack.AuthUnset, openstack.AuthExpired:
	}

	renewed, err := m.renew(ctx, current)
	if err != nil {
		return "", err
	}

	return renewed.Token().Token, nil
}

// RefreshToken renews unconditionally, e.g. after a 401. On failure the
// current Auth is kept.
func (m *KeystoneTokenManager) RefreshToken(ctx context.Context) error {
	_, err := m.renew(ctx, openstack.NoAuth())

	return err
}

func (m *KeystoneTokenManager) Auth() openstack.Auth {
	return m.store.Load()
}

func (m *KeystoneTokenManager) SetAuth(auth openstack.Auth) {
	m.store.Store(auth)
}

// renew issues a new token unless another caller already replaced seen.
func (m *KeystoneTokenManager) renew(ctx context.Context, seen openstack.Auth) (openstack.Auth, error) {
	m.renewing.Lock()
	defer m.renewing.Unlock()

	current := m.store.Load()
	if seen.IsSet() && current.IsSet() && current.Token() != seen.Token() &&
		current.State(m.now(), m.lookAhead) == openstack.AuthValid {
		return current, nil
	}

	if m.issuer == nil {
		return openstack.NoAuth(), constants.ErrTokenCannotRefresh
	}

	renewed, err := m.issuer.Authenticate(ctx)
	if err != nil {
		return openstack.NoAuth(), fmt.Errorf("renewing token: %w", err)
	}

	m.store.Store(renewed)

	if m.logger != nil {
		fields := map[string]interface{}{}
		if expires, ok := renewed.ExpiresAt(); ok {
			fields["expires_at"] = expires.Format(time.RFC3339)
		}

		m.logger.Debug("Issued Keystone token", fields)
	}

	return renewed, nil
}

func (m *KeystoneTokenManager) warn(msg string, err error) {
	if m.logger != nil {
		m.logger.Warn(msg, map[string]interface{}{"error": err.Error()})
	}
}
