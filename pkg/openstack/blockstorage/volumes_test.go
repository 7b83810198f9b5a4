package blockstorage_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/fivetwenty-io/ostack/internal/ostest"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/blockstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListVolumes_Limit(t *testing.T) {
	t.Parallel()

	client := ostest.NewClient().
		Handle(http.MethodGet, openstack.ServiceBlockStorage, "volumes/detail", func(req *openstack.Request) (*openstack.Response, error) {
			if ostest.Query(req).Get("marker") == "v2" {
				return ostest.JSON(http.StatusOK, `{"volumes": [{"id": "v3"}, {"id": "v4"}]}`), nil
			}

			return ostest.JSON(http.StatusOK, `{"volumes": [
				{"id": "v1", "name": "data", "size": 10, "created_at": "2026-02-01T10:00:00.000000"},
				{"id": "v2", "name": "logs", "size": 20}
			]}`), nil
		})

	volumes, err := openstack.Paged[blockstorage.Volume](context.Background(), client,
		blockstorage.ListVolumes(blockstorage.ListVolumesOpts{PageSize: 2}), openstack.Limit(3))
	require.NoError(t, err)
	require.Len(t, volumes, 3)
	assert.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), volumes[0].CreatedAt.Time)
	assert.Len(t, client.Requests(), 2)
}

func TestVolumeDescriptors(t *testing.T) {
	t.Parallel()

	_, err := blockstorage.CreateVolume(blockstorage.CreateVolumeOpts{Name: "empty"})
	require.ErrorIs(t, err, openstack.ErrMissingParameter)

	endpoint, err := blockstorage.DeleteVolume("v1", true)
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, endpoint.Method())
	assert.Equal(t, "true", endpoint.Parameters().Get("cascade"))

	endpoint, err = blockstorage.DeleteVolume("v1", false)
	require.NoError(t, err)
	assert.Empty(t, endpoint.Parameters())
}
