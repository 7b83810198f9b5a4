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

var errRejected = errors.New("rejected")

func TestInterceptorChain_Before(t *testing.T) {
	t.Parallel()

	chain := openstack.NewInterceptorChain()
	require.NoError(t, chain.Before(context.Background(), &openstack.Request{}))

	chain.AddRequestInterceptor(openstack.HeaderInterceptor(map[string]string{"X-OpenStack-Nova-API-Version": "2.1"}))
	chain.AddRequestInterceptor(func(_ context.Context, req *openstack.Request) error {
		req.Headers.Set("X-OpenStack-Nova-API-Version", "2.79")

		return nil
	})

	req := &openstack.Request{Method: http.MethodGet, Service: openstack.ServiceCompute}
	require.NoError(t, chain.Before(context.Background(), req))
	assert.Equal(t, "2.79", req.Headers.Get("X-OpenStack-Nova-API-Version"))

	var reached bool

	chain.AddRequestInterceptor(func(context.Context, *openstack.Request) error { return errRejected })
	chain.AddRequestInterceptor(func(context.Context, *openstack.Request) error {
		reached = true

		return nil
	})

	err := chain.Before(context.Background(), req)
	require.ErrorIs(t, err, errRejected)
	assert.Contains(t, err.Error(), "request interceptor 2")
	assert.False(t, reached)
}

func TestInterceptorChain_After(t *testing.T) {
	t.Parallel()

	chain := openstack.NewInterceptorChain()
	chain.AddResponseInterceptor(func(_ context.Context, _ *openstack.Request, resp *openstack.Response) error {
		if resp.StatusCode >= http.StatusInternalServerError {
			return errRejected
		}

		return nil
	})

	req := &openstack.Request{Method: http.MethodDelete}

	require.NoError(t, chain.After(context.Background(), req, &openstack.Response{StatusCode: http.StatusNoContent}))
	require.ErrorIs(t, chain.After(context.Background(), req, &openstack.Response{StatusCode: http.StatusBadGateway}), errRejected)
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := openstack.HeaderInterceptor(map[string]string{"X-Custom": "value"})
	req := &openstack.Request{}

	require.NoError(t, interceptor(context.Background(), req))
	assert.Equal(t, "value", req.Headers.Get("X-Custom"))
}

func TestRequestLogging(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	before, after := openstack.RequestLogging(logger)
	req := &openstack.Request{Method: http.MethodGet, URL: "https://nova.example.com/v2.1/servers", Service: openstack.ServiceCompute}

	require.NoError(t, before(context.Background(), req))
	require.NoError(t, after(context.Background(), req, &openstack.Response{StatusCode: http.StatusOK}))
	require.NoError(t, after(context.Background(), req, &openstack.Response{StatusCode: http.StatusNotFound}))
	require.NoError(t, after(context.Background(), req, &openstack.Response{Error: errRejected}))

	assert.Equal(t, []string{"sending request", "request completed"}, logger.Messages("debug"))
	assert.Equal(t, []string{"request returned an error status"}, logger.Messages("warn"))
	assert.Equal(t, []string{"request failed"}, logger.Messages("error"))
}
