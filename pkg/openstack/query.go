package openstack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/ostack/internal/constants"
)

// Query executes endpoint and decodes the result, unwrapping the response
// key when the endpoint declares one.
func Query[T any](ctx context.Context, client Client, endpoint Endpoint) (T, error) {
	var zero T

	resp, err := execute(ctx, client, endpoint)
	if err != nil {
		return zero, err
	}

	return decodeResult[T](resp.Body, endpoint.ResponseKey())
}

// QueryRaw executes endpoint and returns the raw successful response. Use it
// for binary payloads.
func QueryRaw(ctx context.Context, client Client, endpoint Endpoint) (*Response, error) {
	return execute(ctx, client, endpoint)
}

// Ignore executes endpoint and discards a successful result.
func Ignore(ctx context.Context, client Client, endpoint Endpoint) error {
	_, err := execute(ctx, client, endpoint)

	return err
}

// BuildRequest resolves endpoint into a request without sending it.
func BuildRequest(ctx context.Context, client Client, endpoint Endpoint) (*Request, error) {
	body, contentType, err := endpoint.Body()
	if err != nil {
		var bodyErr *BodyError
		if !errors.As(err, &bodyErr) {
			err = &BodyError{Err: err}
		}

		return nil, err
	}

	service := endpoint.ServiceType()
	version := endpoint.APIVersion()

	err = checkVersion(ctx, client, service, version)
	if err != nil {
		return nil, err
	}

	target, err := client.ResolveURL(ctx, service, endpoint.Path())
	if err != nil {
		var notFound *ServiceNotFoundError
		if !errors.As(err, &notFound) {
			err = &ServiceNotFoundError{Service: service, Err: err}
		}

		return nil, err
	}

	if params := endpoint.Parameters(); len(params) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}

		target += separator + params.Encode()
	}

	headers := http.Header{}
	headers.Set(constants.HeaderAccept, constants.MediaTypeJSON)

	if !version.IsZero() {
		headers.Set(constants.HeaderAPIVersion, service.MicroversionName()+" "+version.String())

		if service == ServiceCompute {
			headers.Set(constants.HeaderComputeAPIVersion, version.String())
		}
	}

	if body != nil {
		headers.Set(constants.HeaderContentType, contentType)
	}

	for key, values := range endpoint.RequestHeaders() {
		headers[key] = append([]string(nil), values...)
	}

	return &Request{
		Method:  endpoint.Method(),
		URL:     target,
		Service: service,
		Headers: headers,
		Body:    body,
	}, nil
}

func execute(ctx context.Context, client Client, endpoint Endpoint) (*Response, error) {
	req, err := BuildRequest(ctx, client, endpoint)
	if err != nil {
		return nil, err
	}

	resp, err := client.Execute(ctx, req)
	if err != nil {
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			err = &TransportError{Method: req.Method, URL: req.URL, Err: err}
		}

		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, ParseErrorResponse(resp.StatusCode, resp.Body)
	}

	return resp, nil
}

func checkVersion(ctx context.Context, client Client, service ServiceType, required APIVersion) error {
	if required.IsZero() {
		return nil
	}

	discoverer, ok := client.(VersionDiscoverer)
	if !ok {
		return nil
	}

	maximum, err := discoverer.MaxAPIVersion(ctx, service)
	if err != nil || maximum.IsZero() {
		return nil //nolint:nilerr // an unknown range lets the server decide
	}

	if maximum.LessThan(required) {
		return &VersionError{Service: service, Required: required, Maximum: maximum}
	}

	return nil
}

func decodeResult[T any](body []byte, key string) (T, error) {
	var result T

	if key == "" {
		if len(bytes.TrimSpace(body)) == 0 {
			return result, nil
		}

		err := json.Unmarshal(body, &result)
		if err != nil {
			return result, &DecodeError{Err: err}
		}

		return result, nil
	}

	raw, err := extractKey(body, key)
	if err != nil {
		return result, err
	}

	err = json.Unmarshal(raw, &result)
	if err != nil {
		return result, &DecodeError{Key: key, Err: err}
	}

	return result, nil
}

func extractKey(body []byte, key string) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &DecodeError{Key: key, Err: ErrEmptyResponse}
	}

	var object map[string]json.RawMessage

	err := json.Unmarshal(body, &object)
	if err != nil {
		return nil, &DecodeError{Key: key, Err: err}
	}

	raw, ok := object[key]
	if !ok {
		return nil, &DecodeError{Key: key, Err: ErrResponseKeyMissing}
	}

	return raw, nil
}
