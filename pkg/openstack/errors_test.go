package openstack_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    string
		wantMessage string
		wantCode    int
	}{
		{
			name:        "compute wrapped fault",
			status:      http.StatusNotFound,
			body:        `{"itemNotFound": {"message": "Instance abc could not be found.", "code": 404}}`,
			wantKind:    "itemNotFound",
			wantMessage: "Instance abc could not be found.",
			wantCode:    404,
		},
		{
			name:        "network error with type",
			status:      http.StatusNotFound,
			body:        `{"NeutronError": {"type": "NetworkNotFound", "message": "Network x could not be found.", "detail": ""}}`,
			wantKind:    "NetworkNotFound",
			wantMessage: "Network x could not be found.",
		},
		{
			name:        "identity error",
			status:      http.StatusUnauthorized,
			body:        `{"error": {"code": 401, "title": "Unauthorized", "message": "The request you have made requires authentication."}}`,
			wantKind:    "Unauthorized",
			wantMessage: "The request you have made requires authentication.",
			wantCode:    401,
		},
		{
			name:        "top level message",
			status:      http.StatusNotFound,
			body:        `{"code": 404, "type": "zone_not_found", "message": "Could not find Zone"}`,
			wantKind:    "zone_not_found",
			wantMessage: "Could not find Zone",
			wantCode:    404,
		},
		{
			name:        "fault string",
			status:      http.StatusConflict,
			body:        `{"faultcode": "Client", "faultstring": "Load Balancer is immutable", "debuginfo": null}`,
			wantKind:    "Client",
			wantMessage: "Load Balancer is immutable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := openstack.ParseErrorResponse(tt.status, []byte(tt.body))

			var osErr *openstack.OpenStackError
			require.ErrorAs(t, err, &osErr)
			assert.Equal(t, tt.status, osErr.StatusCode)
			assert.Equal(t, tt.wantKind, osErr.Kind)
			assert.Equal(t, tt.wantMessage, osErr.Message)
			assert.Equal(t, tt.wantCode, osErr.Code)
			assert.Equal(t, tt.status, openstack.StatusCode(err))
		})
	}
}

func TestParseErrorResponse_Unrecognized(t *testing.T) {
	t.Parallel()

	err := openstack.ParseErrorResponse(http.StatusBadRequest, []byte(`{"foo": "bar"}`))

	var unrecognized *openstack.UnrecognizedError
	require.ErrorAs(t, err, &unrecognized)
	assert.Equal(t, map[string]any{"foo": "bar"}, unrecognized.Value)
	assert.Contains(t, err.Error(), `"foo":"bar"`)

	err = openstack.ParseErrorResponse(http.StatusBadRequest, []byte(`["a", "b"]`))
	require.ErrorAs(t, err, &unrecognized)
	assert.Equal(t, http.StatusBadRequest, openstack.StatusCode(err))
}

func TestParseErrorResponse_NotJSON(t *testing.T) {
	t.Parallel()

	err := openstack.ParseErrorResponse(http.StatusNotFound, []byte("404 Not Found\n\nThe resource could not be found.\n\n"))

	var serverErr *openstack.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusNotFound, serverErr.StatusCode)
	assert.True(t, openstack.IsNotFound(err))
	assert.Contains(t, err.Error(), "The resource could not be found.")

	long := openstack.ParseErrorResponse(http.StatusBadGateway, []byte(strings.Repeat("x", 2000)))
	assert.Less(t, len(long.Error()), 600)

	accented := openstack.ParseErrorResponse(http.StatusBadGateway, []byte("x"+strings.Repeat("é", 600)))
	assert.True(t, utf8.ValidString(accented.Error()))
	assert.True(t, strings.HasSuffix(accented.Error(), "é..."))

	empty := openstack.ParseErrorResponse(http.StatusBadGateway, nil)
	assert.Equal(t, "HTTP 502: Bad Gateway", empty.Error())
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("showing server: %w", &openstack.OpenStackError{StatusCode: http.StatusNotFound})
	unauthorized := &openstack.ServerError{StatusCode: http.StatusUnauthorized}
	conflict := &openstack.UnrecognizedError{StatusCode: http.StatusConflict}

	assert.True(t, openstack.IsNotFound(notFound))
	assert.True(t, openstack.IsNotFound(&openstack.NotFoundError{Name: "web"}))
	assert.True(t, openstack.IsUnauthorized(unauthorized))
	assert.True(t, openstack.IsConflict(conflict))
	assert.False(t, openstack.IsNotFound(conflict))
	assert.Equal(t, 0, openstack.StatusCode(errors.New("plain")))
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `server "web" not found`, (&openstack.NotFoundError{Resource: "server", Name: "web"}).Error())
	assert.Equal(t,
		`2 servers match name "web": a, b`,
		(&openstack.AmbiguousError{Resource: "server", Name: "web", IDs: []string{"a", "b"}}).Error(),
	)
	assert.Equal(t,
		"service dns not found in catalog (interface public, region RegionOne)",
		(&openstack.ServiceNotFoundError{Service: openstack.ServiceDNS, Interface: "public", Region: "RegionOne"}).Error(),
	)
	assert.Equal(t,
		"compute API version 2.90 required, server supports up to 2.79",
		(&openstack.VersionError{
			Service:  openstack.ServiceCompute,
			Required: openstack.MustParseAPIVersion("2.90"),
			Maximum:  openstack.MustParseAPIVersion("2.79"),
		}).Error(),
	)
}
