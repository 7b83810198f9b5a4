package openstack_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_State(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lookAhead := 5 * time.Minute

	tests := []struct {
		name string
		auth openstack.Auth
		want openstack.AuthState
	}{
		{"none", openstack.NoAuth(), openstack.AuthUnset},
		{"no expiry known", openstack.NewTokenAuth("tok", nil), openstack.AuthValid},
		{"zero expiry", openstack.NewTokenAuth("tok", &openstack.AuthInfo{}), openstack.AuthValid},
		{"expired", openstack.NewTokenAuth("tok", &openstack.AuthInfo{ExpiresAt: now.Add(-time.Second)}), openstack.AuthExpired},
		{"expires now", openstack.NewTokenAuth("tok", &openstack.AuthInfo{ExpiresAt: now}), openstack.AuthExpired},
		{"inside window", openstack.NewTokenAuth("tok", &openstack.AuthInfo{ExpiresAt: now.Add(time.Minute)}), openstack.AuthAboutToExpire},
		{"window edge", openstack.NewTokenAuth("tok", &openstack.AuthInfo{ExpiresAt: now.Add(lookAhead)}), openstack.AuthAboutToExpire},
		{"valid", openstack.NewTokenAuth("tok", &openstack.AuthInfo{ExpiresAt: now.Add(time.Hour)}), openstack.AuthValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.auth.State(now, lookAhead))
		})
	}
}

func TestAuth_StateWithoutLookAhead(t *testing.T) {
	t.Parallel()

	now := time.Now()
	auth := openstack.NewTokenAuth("tok", &openstack.AuthInfo{ExpiresAt: now.Add(time.Second)})

	assert.Equal(t, openstack.AuthValid, auth.State(now, 0))
	assert.Equal(t, openstack.AuthExpired, auth.State(now.Add(time.Second), 0))
}

func TestNewTokenAuth_EmptyTokenPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { openstack.NewTokenAuth("", nil) })
}

func TestAuth_SetHeaders(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	openstack.NoAuth().SetHeaders(headers)
	assert.Empty(t, headers)

	openstack.NewTokenAuth("gAAAA-token", nil).SetHeaders(headers)
	assert.Equal(t, "gAAAA-token", headers.Get("X-Auth-Token"))
}

func TestAuth_Accessors(t *testing.T) {
	t.Parallel()

	expires := time.Now().Add(time.Hour)
	auth := openstack.NewTokenAuth("tok", &openstack.AuthInfo{ExpiresAt: expires})

	require.True(t, auth.IsSet())
	assert.Equal(t, "tok", auth.Token().Token)

	got, ok := auth.ExpiresAt()
	assert.True(t, ok)
	assert.Equal(t, expires, got)

	none := openstack.NoAuth()
	assert.False(t, none.IsSet())
	assert.Nil(t, none.Token())
	assert.Nil(t, none.Info())

	_, ok = none.ExpiresAt()
	assert.False(t, ok)
}

func TestAuthState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unset", openstack.AuthUnset.String())
	assert.Equal(t, "expired", openstack.AuthExpired.String())
	assert.Equal(t, "about to expire", openstack.AuthAboutToExpire.String())
	assert.Equal(t, "valid", openstack.AuthValid.String())
}

func TestCatalog_Lookup(t *testing.T) {
	t.Parallel()

	var catalog openstack.Catalog

	err := json.Unmarshal([]byte(`[
		{"type": "compute", "name": "nova", "endpoints": [
			{"interface": "public", "region": "RegionOne", "url": "https://nova.one/v2.1"},
			{"interface": "internal", "region": "RegionOne", "url": "http://nova.internal/v2.1"},
			{"interface": "public", "region": "RegionTwo", "url": "https://nova.two/v2.1"}
		]},
		{"type": "volumev3", "name": "cinderv3", "endpoints": [
			{"interface": "public", "region": "RegionOne", "url": "https://cinder.one/v3/p1"}
		]}
	]`), &catalog)
	require.NoError(t, err)

	url, err := catalog.Lookup(openstack.ServiceCompute, "RegionTwo", "public")
	require.NoError(t, err)
	assert.Equal(t, "https://nova.two/v2.1", url)

	url, err = catalog.Lookup(openstack.ServiceCompute, "", "")
	require.NoError(t, err)
	assert.Equal(t, "https://nova.one/v2.1", url)

	url, err = catalog.Lookup(openstack.ServiceCompute, "RegionOne", "internalURL")
	require.NoError(t, err)
	assert.Equal(t, "http://nova.internal/v2.1", url)

	url, err = catalog.Lookup(openstack.ServiceBlockStorage, "RegionOne", "public")
	require.NoError(t, err)
	assert.Equal(t, "https://cinder.one/v3/p1", url)

	_, err = catalog.Lookup(openstack.ServiceDNS, "RegionOne", "public")

	var notFound *openstack.ServiceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, openstack.ServiceDNS, notFound.Service)

	assert.Equal(t, []openstack.ServiceType{openstack.ServiceCompute, openstack.ServiceBlockStorage}, catalog.Services())
}

func TestJoinURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://x/v2.1/servers", openstack.JoinURL("https://x/v2.1/", "/servers"))
	assert.Equal(t, "https://x/v2.1/servers", openstack.JoinURL("https://x/v2.1", "servers"))
	assert.Equal(t, "https://x/v2.1", openstack.JoinURL("https://x/v2.1", ""))
	assert.Equal(t, "https://x/v1/AUTH_p", openstack.JoinURL("https://x/v1/AUTH_p", "/"))
}

func TestAuthInfo_UnmarshalSystemScope(t *testing.T) {
	t.Parallel()

	var info openstack.AuthInfo

	require.NoError(t, json.Unmarshal([]byte(`{
		"expires_at": "2026-01-01T12:00:00.000000Z",
		"methods": ["password"],
		"user": {"id": "u1", "name": "admin", "domain": {"id": "default", "name": "Default"}},
		"system": {"all": true},
		"roles": [{"id": "r1", "name": "admin"}]
	}`), &info))

	assert.True(t, info.System)
	assert.Equal(t, "admin", info.User.Name)
	assert.Equal(t, "Default", info.User.Domain.Name)
	assert.Equal(t, 2026, info.ExpiresAt.Year())

	encoded, err := json.Marshal(info)
	require.NoError(t, err)

	var again openstack.AuthInfo

	require.NoError(t, json.Unmarshal(encoded, &again))
	assert.True(t, again.System)
	assert.Nil(t, again.Project)
}
