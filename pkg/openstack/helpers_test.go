package openstack_test

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://cloud.example.com"

type handlerFunc func(req *openstack.Request) (*openstack.Response, error)

// fakeClient resolves every known service under testBaseURL/<service> and
// answers requests with handler.
type fakeClient struct {
	mu       sync.Mutex
	handler  handlerFunc
	requests []*openstack.Request
	missing  map[openstack.ServiceType]bool
}

func newFakeClient(handler handlerFunc) *fakeClient {
	return &fakeClient{handler: handler, missing: map[openstack.ServiceType]bool{}}
}

func (f *fakeClient) ResolveURL(ctx context.Context, service openstack.ServiceType, path string) (string, error) {
	if f.missing[service] {
		return "", &openstack.ServiceNotFoundError{Service: service}
	}

	return openstack.JoinURL(testBaseURL+"/"+string(service), path), nil
}

func (f *fakeClient) Execute(ctx context.Context, req *openstack.Request) (*openstack.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return f.handler(req)
}

func (f *fakeClient) Requests() []*openstack.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*openstack.Request(nil), f.requests...)
}

// versionedClient also reports a maximum microversion.
type versionedClient struct {
	*fakeClient

	max openstack.APIVersion
}

func (v *versionedClient) MaxAPIVersion(ctx context.Context, service openstack.ServiceType) (openstack.APIVersion, error) {
	return v.max, nil
}

func jsonResponse(status int, body string) *openstack.Response {
	return &openstack.Response{
		StatusCode: status,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(body),
	}
}

func queryOf(t *testing.T, req *openstack.Request) url.Values {
	t.Helper()

	parsed, err := url.Parse(req.URL)
	require.NoError(t, err)

	return parsed.Query()
}

// recordingLogger keeps every message it receives.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
	levels   []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.levels = append(l.levels, level)
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg) }

func (l *recordingLogger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string

	for i, recorded := range l.levels {
		if recorded == level {
			out = append(out, l.messages[i])
		}
	}

	return out
}
