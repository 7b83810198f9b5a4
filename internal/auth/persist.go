package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Static errors for err113 compliance.
var (
	ErrNoStatePersister = errors.New("no state persister configured")
)

// StatePersister saves the token of a cloud between CLI runs.
type StatePersister interface {
	SaveToken(cloud string, token *openstack.AuthToken) error
}

// PersistingTokenManager wraps a TokenManager and saves every newly issued
// token through a StatePersister. Save failures are logged, not returned.
type PersistingTokenManager struct {
	manager   TokenManager
	persister StatePersister
	cloud     string
	logger    openstack.Logger

	mutex     sync.Mutex
	lastSaved string
}

var _ TokenManager = (*PersistingTokenManager)(nil)

// NewPersistingTokenManager wraps manager. The token it already holds is
// considered saved.
func NewPersistingTokenManager(manager TokenManager, persister StatePersister, cloud string, logger openstack.Logger) *PersistingTokenManager {
	persisting := &PersistingTokenManager{
		manager:   manager,
		persister: persister,
		cloud:     cloud,
		logger:    logger,
	}

	if token := manager.Auth().Token(); token != nil {
		persisting.lastSaved = token.Token
	}

	return persisting
}

func (m *PersistingTokenManager) GetToken(ctx context.Context) (string, error) {
	token, err := m.manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	m.saveIfChanged()

	return token, nil
}

func (m *PersistingTokenManager) RefreshToken(ctx context.Context) error {
	err := m.manager.RefreshToken(ctx)
	if err != nil {
		return err
	}

	m.saveIfChanged()

	return nil
}

func (m *PersistingTokenManager) Auth() openstack.Auth {
	return m.manager.Auth()
}

func (m *PersistingTokenManager) SetAuth(auth openstack.Auth) {
	m.manager.SetAuth(auth)
	m.saveIfChanged()
}

func (m *PersistingTokenManager) saveIfChanged() {
	token := m.manager.Auth().Token()
	if token == nil {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if token.Token == m.lastSaved {
		return
	}

	err := m.persist(token)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to persist refreshed token", map[string]interface{}{"error": err.Error()})
		}

		return
	}

	m.lastSaved = token.Token
}

func (m *PersistingTokenManager) persist(token *openstack.AuthToken) error {
	if m.persister == nil {
		return ErrNoStatePersister
	}

	err := m.persister.SaveToken(m.cloud, token)
	if err != nil {
		return fmt.Errorf("failed to save token for cloud %s: %w", m.cloud, err)
	}

	return nil
}
