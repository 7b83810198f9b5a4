// Package auth obtains and renews Keystone v3 tokens for a session.
package auth

import (
	"sync/atomic"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// TokenStore holds the current Auth of a session. Auth values are never
// modified in place; renewal stores a new one.
type TokenStore struct {
	current atomic.Pointer[openstack.Auth]
}

func NewTokenStore() *TokenStore {
	store := &TokenStore{}
	store.Reset()

	return store
}

// Load returns the current Auth, which is unset until a token is stored.
func (s *TokenStore) Load() openstack.Auth {
	return *s.current.Load()
}

func (s *TokenStore) Store(auth openstack.Auth) {
	s.current.Store(&auth)
}

// Reset forgets the token.
func (s *TokenStore) Reset() {
	s.Store(openstack.NoAuth())
}
