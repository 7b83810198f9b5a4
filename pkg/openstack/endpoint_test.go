package openstack_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorBuilder_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		builder *openstack.DescriptorBuilder
		wantErr error
	}{
		{
			name:    "missing service",
			builder: openstack.NewDescriptor("", http.MethodGet, "servers"),
			wantErr: openstack.ErrServiceTypeRequired,
		},
		{
			name:    "missing method",
			builder: openstack.NewDescriptor(openstack.ServiceCompute, "", "servers"),
			wantErr: openstack.ErrMethodRequired,
		},
		{
			name:    "missing path",
			builder: openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, ""),
			wantErr: openstack.ErrPathRequired,
		},
		{
			name:    "bad microversion",
			builder: openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "servers").APIVersion("latest"),
			wantErr: openstack.ErrInvalidAPIVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.builder.Build()
			require.ErrorIs(t, err, tt.wantErr)

			_, err = tt.builder.BuildPaged("")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDescriptor_Accessors(t *testing.T) {
	t.Parallel()

	descriptor, err := openstack.NewDescriptor(openstack.ServiceCompute, "get", "servers/detail").
		Query("name", "web").
		Query("status", "").
		QueryBool("all_tenants", true).
		QueryBool("deleted", false).
		Header("X-Custom", "1").
		APIVersion("2.79").
		ResponseKey("servers").
		Build()
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, descriptor.Method())
	assert.Equal(t, "servers/detail", descriptor.Path())
	assert.Equal(t, openstack.ServiceCompute, descriptor.ServiceType())
	assert.Equal(t, "2.79", descriptor.APIVersion().String())
	assert.Equal(t, "servers", descriptor.ResponseKey())
	assert.Equal(t, "all_tenants=true&name=web", descriptor.Parameters().Encode())
	assert.Equal(t, "1", descriptor.RequestHeaders().Get("X-Custom"))

	body, contentType, err := descriptor.Body()
	require.NoError(t, err)
	assert.Nil(t, body)
	assert.Empty(t, contentType)
}

func TestDescriptor_ParametersAreCopies(t *testing.T) {
	t.Parallel()

	descriptor, err := openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodGet, "v2.0/networks").
		Query("name", "private").
		Build()
	require.NoError(t, err)

	params := descriptor.Parameters()
	params.Set("name", "changed")

	headers := descriptor.RequestHeaders()
	headers.Set("X-Injected", "yes")

	assert.Equal(t, "private", descriptor.Parameters().Get("name"))
	assert.Empty(t, descriptor.RequestHeaders().Get("X-Injected"))
}

func TestDescriptor_JSONBody(t *testing.T) {
	t.Parallel()

	type network struct {
		Name         string `json:"name"`
		AdminStateUp bool   `json:"admin_state_up"`
	}

	descriptor, err := openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodPost, "v2.0/networks").
		JSONBody("network", network{Name: "private", AdminStateUp: true}).
		Build()
	require.NoError(t, err)

	first, contentType, err := descriptor.Body()
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"network":{"name":"private","admin_state_up":true}}`, string(first))

	second, _, err := descriptor.Body()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDescriptor_JSONBodyWithoutRoot(t *testing.T) {
	t.Parallel()

	descriptor, err := openstack.NewDescriptor(openstack.ServiceImage, http.MethodPost, "v2/images").
		JSONBody("", map[string]string{"name": "cirros", "disk_format": "qcow2"}).
		Build()
	require.NoError(t, err)

	body, _, err := descriptor.Body()
	require.NoError(t, err)
	assert.Equal(t, `{"disk_format":"qcow2","name":"cirros"}`, string(body))
}

func TestDescriptor_JSONBodyFixedAtBuild(t *testing.T) {
	t.Parallel()

	metadata := map[string]string{"role": "web"}
	opts := &struct {
		Name     string            `json:"name"`
		Metadata map[string]string `json:"metadata"`
	}{Name: "web-1", Metadata: metadata}

	descriptor, err := openstack.NewDescriptor(openstack.ServiceCompute, http.MethodPost, "servers").
		JSONBody("server", opts).
		Build()
	require.NoError(t, err)

	opts.Name = "db-1"
	metadata["role"] = "db"

	body, _, err := descriptor.Body()
	require.NoError(t, err)
	assert.JSONEq(t, `{"server":{"name":"web-1","metadata":{"role":"web"}}}`, string(body))
}

func TestDescriptor_BodyEncodingFailure(t *testing.T) {
	t.Parallel()

	descriptor, err := openstack.NewDescriptor(openstack.ServiceCompute, http.MethodPost, "servers").
		JSONBody("server", map[string]any{"bad": make(chan int)}).
		Build()
	require.NoError(t, err)

	_, _, err = descriptor.Body()

	var bodyErr *openstack.BodyError
	require.ErrorAs(t, err, &bodyErr)
}

func TestDescriptor_RawBody(t *testing.T) {
	t.Parallel()

	data := []byte{0x01, 0x02, 0x03}

	descriptor, err := openstack.NewDescriptor(openstack.ServiceImage, http.MethodPut, "v2/images/abc/file").
		RawBody("application/octet-stream", data).
		Build()
	require.NoError(t, err)

	data[0] = 0xff

	body, contentType, err := descriptor.Body()
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", contentType)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, body)
}

func TestPagedDescriptor_WithMarkerReturnsCopy(t *testing.T) {
	t.Parallel()

	paged, err := openstack.NewDescriptor(openstack.ServiceImage, http.MethodGet, "v2/images").
		Query("status", "active").
		PageSize(25).
		ResponseKey("images").
		BuildPaged("")
	require.NoError(t, err)

	assert.Equal(t, 25, paged.PageSize())
	assert.Equal(t, []string{"id"}, paged.MarkerFields())

	next := paged.WithMarker("abc")

	assert.Empty(t, paged.Parameters().Get("marker"))
	assert.Equal(t, "abc", next.Parameters().Get("marker"))
	assert.Equal(t, "25", next.Parameters().Get("limit"))
	assert.Equal(t, "active", next.Parameters().Get("status"))
	assert.Equal(t, "images", next.ResponseKey())

	resized := next.WithPageSize(0)
	assert.Equal(t, 0, resized.PageSize())
	assert.Empty(t, resized.Parameters().Get("limit"))
	assert.Equal(t, "25", next.Parameters().Get("limit"))
}

func TestRequireID(t *testing.T) {
	t.Parallel()

	require.NoError(t, openstack.RequireID("server_id", "abc"))

	err := openstack.RequireID("server_id", " ")
	require.ErrorIs(t, err, openstack.ErrMissingParameter)
	assert.Contains(t, err.Error(), "server_id")
	assert.False(t, errors.Is(err, openstack.ErrPathRequired))
}

func TestEscapePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "my%20container/a%2Fb", openstack.EscapePath("my container", "a/b"))
}
