package openstack_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

var errConnectionRefused = errors.New("connection refused")

func mustBuild(t *testing.T, builder *openstack.DescriptorBuilder) *openstack.Descriptor {
	t.Helper()

	descriptor, err := builder.Build()
	require.NoError(t, err)

	return descriptor
}

func TestQuery_UnwrapsResponseKey(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return jsonResponse(http.StatusOK, `{"server": {"id": "abc", "name": "web", "status": "ACTIVE"}}`), nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "servers/abc").
		Query("detail", "1").
		ResponseKey("server"))

	server, err := openstack.Query[testServer](context.Background(), client, endpoint)
	require.NoError(t, err)
	assert.Equal(t, testServer{ID: "abc", Name: "web", Status: "ACTIVE"}, server)

	requests := client.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodGet, requests[0].Method)
	assert.Equal(t, testBaseURL+"/compute/servers/abc?detail=1", requests[0].URL)
	assert.Equal(t, "application/json", requests[0].Headers.Get("Accept"))
	assert.Empty(t, requests[0].Headers.Get("Content-Type"))
	assert.Nil(t, requests[0].Body)
}

func TestQuery_WholeBody(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return jsonResponse(http.StatusOK, `{"id": "abc", "name": "cirros"}`), nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceImage, http.MethodGet, "v2/images/abc"))

	image, err := openstack.Query[map[string]string](context.Background(), client, endpoint)
	require.NoError(t, err)
	assert.Equal(t, "cirros", image["name"])
}

func TestQuery_SendsBodyAndMicroversion(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return jsonResponse(http.StatusAccepted, `{"server": {"id": "new"}}`), nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceCompute, http.MethodPost, "servers").
		JSONBody("server", map[string]string{"name": "web"}).
		APIVersion("2.67").
		Header("X-Openstack-Request-Id", "req-1").
		ResponseKey("server"))

	server, err := openstack.Query[testServer](context.Background(), client, endpoint)
	require.NoError(t, err)
	assert.Equal(t, "new", server.ID)

	req := client.Requests()[0]
	assert.JSONEq(t, `{"server":{"name":"web"}}`, string(req.Body))
	assert.Equal(t, "application/json", req.Headers.Get("Content-Type"))
	assert.Equal(t, "compute 2.67", req.Headers.Get("OpenStack-API-Version"))
	assert.Equal(t, "2.67", req.Headers.Get("X-OpenStack-Nova-API-Version"))
	assert.Equal(t, "req-1", req.Headers.Get("X-Openstack-Request-Id"))
}

func TestQuery_BlockStorageMicroversionHeader(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return jsonResponse(http.StatusOK, `{"volume": {"id": "vol-1"}}`), nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceBlockStorage, http.MethodGet, "volumes/vol-1").
		APIVersion("3.60").
		ResponseKey("volume"))

	_, err := openstack.Query[map[string]string](context.Background(), client, endpoint)
	require.NoError(t, err)

	req := client.Requests()[0]
	assert.Equal(t, "volume 3.60", req.Headers.Get("OpenStack-API-Version"))
	assert.Empty(t, req.Headers.Get("X-OpenStack-Nova-API-Version"))
}

func TestQuery_ErrorResponse(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"itemNotFound": {"message": "Instance abc could not be found.", "code": 404}}`), nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "servers/abc").ResponseKey("server"))

	_, err := openstack.Query[testServer](context.Background(), client, endpoint)

	var osErr *openstack.OpenStackError
	require.ErrorAs(t, err, &osErr)
	assert.Equal(t, "itemNotFound", osErr.Kind)
	assert.True(t, openstack.IsNotFound(err))
}

func TestQuery_MissingResponseKey(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return jsonResponse(http.StatusOK, `{"servers": []}`), nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "servers/abc").ResponseKey("server"))

	_, err := openstack.Query[testServer](context.Background(), client, endpoint)

	var decodeErr *openstack.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "server", decodeErr.Key)
	require.ErrorIs(t, err, openstack.ErrResponseKeyMissing)
}

func TestQuery_DecodeFailure(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return jsonResponse(http.StatusOK, `{"server": {"id": 12}}`), nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "servers/abc").ResponseKey("server"))

	_, err := openstack.Query[testServer](context.Background(), client, endpoint)

	var decodeErr *openstack.DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestQuery_EmptyBodyDecodesToZero(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return &openstack.Response{StatusCode: http.StatusNoContent}, nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceCompute, http.MethodPost, "servers/abc/action"))

	result, err := openstack.Query[*testServer](context.Background(), client, endpoint)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestQuery_ServiceNotInCatalog(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		t.Fatal("request must not be sent")

		return nil, nil
	})
	client.missing[openstack.ServiceDNS] = true

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceDNS, http.MethodGet, "v2/zones"))

	_, err := openstack.Query[map[string]any](context.Background(), client, endpoint)

	var notFound *openstack.ServiceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, openstack.ServiceDNS, notFound.Service)
}

func TestQuery_TransportFailure(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return nil, errConnectionRefused
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodGet, "v2.0/networks"))

	_, err := openstack.Query[map[string]any](context.Background(), client, endpoint)

	var transportErr *openstack.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.ErrorIs(t, err, errConnectionRefused)
	assert.Equal(t, testBaseURL+"/network/v2.0/networks", transportErr.URL)
}

func TestQuery_CanceledContext(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodGet, "v2.0/networks"))

	_, err := openstack.Query[map[string]any](ctx, client, endpoint)
	require.ErrorIs(t, err, context.Canceled)
}

func TestQuery_BodyErrorStopsBeforeSending(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		t.Fatal("request must not be sent")

		return nil, nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceCompute, http.MethodPost, "servers").
		JSONBody("server", map[string]any{"bad": func() {}}))

	_, err := openstack.Query[testServer](context.Background(), client, endpoint)

	var bodyErr *openstack.BodyError
	require.ErrorAs(t, err, &bodyErr)
	assert.Empty(t, client.Requests())
}

func TestQuery_VersionTooNew(t *testing.T) {
	t.Parallel()

	base := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return jsonResponse(http.StatusOK, `{"server": {"id": "abc"}}`), nil
	})
	client := &versionedClient{fakeClient: base, max: openstack.MustParseAPIVersion("2.60")}

	tooNew := mustBuild(t, openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "servers/abc").
		APIVersion("2.79").
		ResponseKey("server"))

	_, err := openstack.Query[testServer](context.Background(), client, tooNew)

	var versionErr *openstack.VersionError
	require.ErrorAs(t, err, &versionErr)
	assert.Equal(t, "2.60", versionErr.Maximum.String())
	assert.Empty(t, base.Requests())

	supported := mustBuild(t, openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "servers/abc").
		APIVersion("2.60").
		ResponseKey("server"))

	server, err := openstack.Query[testServer](context.Background(), client, supported)
	require.NoError(t, err)
	assert.Equal(t, "abc", server.ID)
}

func TestQueryRaw(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		return &openstack.Response{
			StatusCode: http.StatusOK,
			Headers:    http.Header{"Content-Md5": []string{"abc"}},
			Body:       []byte{0x00, 0x01},
		}, nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceImage, http.MethodGet, "v2/images/abc/file"))

	resp, err := openstack.QueryRaw(context.Background(), client, endpoint)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01}, resp.Body)
	assert.Equal(t, "abc", resp.Headers.Get("Content-MD5"))
}

func TestIgnore(t *testing.T) {
	t.Parallel()

	status := http.StatusNoContent
	client := newFakeClient(func(req *openstack.Request) (*openstack.Response, error) {
		if status >= http.StatusBadRequest {
			return jsonResponse(status, `{"conflictingRequest": {"message": "in use", "code": 409}}`), nil
		}

		return jsonResponse(status, `not even json`), nil
	})

	endpoint := mustBuild(t, openstack.NewDescriptor(openstack.ServiceCompute, http.MethodDelete, "servers/abc"))

	require.NoError(t, openstack.Ignore(context.Background(), client, endpoint))

	status = http.StatusConflict
	err := openstack.Ignore(context.Background(), client, endpoint)
	require.Error(t, err)
	assert.True(t, openstack.IsConflict(err))
}
