package identity_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/ostack/internal/ostest"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProjects(t *testing.T) {
	t.Parallel()

	enabled := true
	endpoint := identity.ListProjects(identity.ListProjectsOpts{DomainID: "default", Enabled: &enabled})

	assert.Equal(t, "projects", endpoint.Path())
	assert.Equal(t, "default", endpoint.Parameters().Get("domain_id"))
	assert.Equal(t, "true", endpoint.Parameters().Get("enabled"))
	assert.Equal(t, openstack.ServiceIdentity, endpoint.ServiceType())
}

func TestProjectFinder_ByName(t *testing.T) {
	t.Parallel()

	client := ostest.NewClient().
		Handle(http.MethodGet, openstack.ServiceIdentity, "projects", func(req *openstack.Request) (*openstack.Response, error) {
			assert.Equal(t, "demo", ostest.Query(req).Get("name"))

			return ostest.JSON(http.StatusOK, `{"projects": [{"id": "a1b2c3d4e5f60718293a4b5c6d7e8f90", "name": "demo", "domain_id": "default", "enabled": true}]}`), nil
		})

	found, err := openstack.Find(context.Background(), client, identity.ProjectFinder(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4e5f60718293a4b5c6d7e8f90", found.ID)
	assert.True(t, found.Resource.Enabled)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	_, err := identity.ValidateToken("")
	require.ErrorIs(t, err, openstack.ErrMissingParameter)

	client := ostest.NewClient().
		Handle(http.MethodGet, openstack.ServiceIdentity, "auth/tokens", func(req *openstack.Request) (*openstack.Response, error) {
			if req.Headers.Get("X-Subject-Token") != "tok-1" {
				return ostest.JSON(http.StatusNotFound, `{"error": {"code": 404, "title": "Not Found", "message": "token not found"}}`), nil
			}

			return ostest.JSON(http.StatusOK, `{"token": {
				"expires_at": "2026-01-01T12:00:00Z",
				"project": {"id": "p1", "name": "demo", "domain": {"id": "default"}}
			}}`), nil
		})

	endpoint, err := identity.ValidateToken("tok-1")
	require.NoError(t, err)

	info, err := openstack.Query[openstack.AuthInfo](context.Background(), client, endpoint)
	require.NoError(t, err)
	assert.Equal(t, "demo", info.Project.Name)

	endpoint, err = identity.ValidateToken("revoked")
	require.NoError(t, err)

	_, err = openstack.Query[openstack.AuthInfo](context.Background(), client, endpoint)

	var apiErr *openstack.OpenStackError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Not Found", apiErr.Kind)
	assert.True(t, openstack.IsNotFound(err))
}
