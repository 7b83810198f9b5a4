package dns_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/ostack/internal/ostest"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com.", dns.Canonical("example.com"))
	assert.Equal(t, "example.com.", dns.Canonical("example.com."))
}

func TestCreateZone(t *testing.T) {
	t.Parallel()

	endpoint, err := dns.CreateZone(dns.CreateZoneOpts{Name: "example.com", Email: "admin@example.com"})
	require.NoError(t, err)

	body, _, err := endpoint.Body()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "example.com.", "email": "admin@example.com"}`, string(body))
}

func TestZoneFinder(t *testing.T) {
	t.Parallel()

	client := ostest.NewClient().
		Handle(http.MethodGet, openstack.ServiceDNS, "v2/zones", func(req *openstack.Request) (*openstack.Response, error) {
			if ostest.Query(req).Get("marker") != "" {
				return ostest.JSON(http.StatusOK, `{"zones": [], "links": {}}`), nil
			}

			return ostest.JSON(http.StatusOK, `{
				"zones": [{"id": "z1", "name": "example.com.", "ttl": 3600, "created_at": "2026-01-01T00:00:00.000000"}],
				"links": {"self": "https://designate/v2/zones"},
				"metadata": {"total_count": 1}
			}`), nil
		})

	found, err := openstack.Find(context.Background(), client, dns.ZoneFinder(), dns.Canonical("example.com"))
	require.NoError(t, err)
	assert.Equal(t, "z1", found.ID)
	assert.Equal(t, 3600, found.Resource.TTL)
}

func TestListRecordSets(t *testing.T) {
	t.Parallel()

	_, err := dns.ListRecordSets("", 0)
	require.ErrorIs(t, err, openstack.ErrMissingParameter)

	endpoint, err := dns.ListRecordSets("z1", 50)
	require.NoError(t, err)
	assert.Equal(t, "v2/zones/z1/recordsets", endpoint.Path())
	assert.Equal(t, "50", endpoint.Parameters().Get("limit"))
}
