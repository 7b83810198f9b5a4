package openstack

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/fivetwenty-io/ostack/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrServiceTypeRequired = errors.New("service type is required")
	ErrMethodRequired      = errors.New("HTTP method is required")
	ErrPathRequired        = errors.New("path is required")
	ErrMissingParameter    = errors.New("required parameter is empty")
	ErrResponseKeyMissing  = errors.New("response key not present")
	ErrEmptyResponse       = errors.New("empty response body")
	ErrItemsNotFound       = errors.New("response does not contain a list of items")
	ErrNoLookupStrategy    = errors.New("finder has neither a get nor a list strategy")
	ErrNoMoreItems         = errors.New("no more items")
)

// TransportError means the request could not be sent or the response could
// not be read.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceNotFoundError means the catalog has no endpoint for a service type.
type ServiceNotFoundError struct {
	Service   ServiceType
	Region    string
	Interface string
	Err       error
}

func (e *ServiceNotFoundError) Error() string {
	var builder strings.Builder

	builder.WriteString("service " + string(e.Service) + " not found in catalog")

	if e.Interface != "" {
		builder.WriteString(" (interface " + e.Interface)

		if e.Region != "" {
			builder.WriteString(", region " + e.Region)
		}

		builder.WriteString(")")
	} else if e.Region != "" {
		builder.WriteString(" (region " + e.Region + ")")
	}

	if e.Err != nil {
		builder.WriteString(": " + e.Err.Error())
	}

	return builder.String()
}

func (e *ServiceNotFoundError) Unwrap() error {
	return e.Err
}

// BodyError means a request body could not be serialized.
type BodyError struct {
	Err error
}

func (e *BodyError) Error() string {
	return "encoding request body: " + e.Err.Error()
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

// OpenStackError is a structured error returned by an OpenStack service.
type OpenStackError struct {
	StatusCode int
	Kind       string
	Message    string
	Code       int
}

func (e *OpenStackError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("%s (HTTP %d): %s", kind, e.StatusCode, e.Message)
}

// UnrecognizedError is a non-2xx response whose body was JSON in a shape
// none of the services use for errors.
type UnrecognizedError struct {
	StatusCode int
	Value      any
}

func (e *UnrecognizedError) Error() string {
	encoded, err := json.Marshal(e.Value)
	if err != nil {
		return fmt.Sprintf("HTTP %d: unrecognized error body", e.StatusCode)
	}

	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, summarize(string(encoded)))
}

// ServerError is a non-2xx response with a body that is not JSON.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, summarize(body))
}

// DecodeError means a successful response could not be turned into the
// requested type.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("decoding response key %q: %v", e.Key, e.Err)
	}

	return "decoding response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned by Find and FindByName when nothing matches.
type NotFoundError struct {
	Resource string
	Name     string
}

func (e *NotFoundError) Error() string {
	resource := e.Resource
	if resource == "" {
		resource = "resource"
	}

	return fmt.Sprintf("%s %q not found", resource, e.Name)
}

// AmbiguousError is returned when a name matches more than one resource.
type AmbiguousError struct {
	Resource string
	Name     string
	IDs      []string
}

func (e *AmbiguousError) Error() string {
	resource := e.Resource
	if resource == "" {
		resource = "resource"
	}

	return fmt.Sprintf("%d %ss match name %q: %s", len(e.IDs), resource, e.Name, strings.Join(e.IDs, ", "))
}

// VersionError means the endpoint requires a newer microversion than the
// service offers.
type VersionError struct {
	Service  ServiceType
	Required APIVersion
	Maximum  APIVersion
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%s API version %s required, server supports up to %s", e.Service, e.Required, e.Maximum)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var osErr *OpenStackError
	if errors.As(err, &osErr) {
		return osErr.StatusCode
	}

	var unrecognized *UnrecognizedError
	if errors.As(err, &unrecognized) {
		return unrecognized.StatusCode
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode
	}

	return 0
}

// IsNotFound reports a 404 from a service or a failed Find.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return true
	}

	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsConflict reports a 409 response.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

// ParseErrorResponse turns a non-2xx response body into a typed error.
//
// Services report errors in a handful of shapes:
//
//	{"itemNotFound": {"message": "...", "code": 404}}
//	{"NeutronError": {"type": "NetworkNotFound", "message": "..."}}
//	{"error": {"code": 401, "title": "Unauthorized", "message": "..."}}
//	{"code": 404, "type": "zone_not_found", "message": "..."}
//	{"faultcode": "Client", "faultstring": "..."}
func ParseErrorResponse(statusCode int, body []byte) error {
	var value any

	err := json.Unmarshal(body, &value)
	if err != nil {
		return &ServerError{StatusCode: statusCode, Body: string(body)}
	}

	object, ok := value.(map[string]any)
	if !ok {
		return &UnrecognizedError{StatusCode: statusCode, Value: value}
	}

	if message, ok := messageOf(object); ok {
		return &OpenStackError{
			StatusCode: statusCode,
			Kind:       firstString(object, "type", "faultcode", "title"),
			Message:    message,
			Code:       intOf(object["code"]),
		}
	}

	if len(object) == 1 {
		for key, inner := range object {
			nested, ok := inner.(map[string]any)
			if !ok {
				break
			}

			message, ok := messageOf(nested)
			if !ok {
				break
			}

			kind := firstString(nested, "type", "title")
			if kind == "" {
				kind = key
			}

			return &OpenStackError{
				StatusCode: statusCode,
				Kind:       kind,
				Message:    message,
				Code:       intOf(nested["code"]),
			}
		}
	}

	return &UnrecognizedError{StatusCode: statusCode, Value: value}
}

func messageOf(object map[string]any) (string, bool) {
	for _, key := range []string{"message", "faultstring"} {
		if message, ok := object[key].(string); ok {
			return message, true
		}
	}

	return "", false
}

func firstString(object map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := object[key].(string); ok && value != "" {
			return value
		}
	}

	return ""
}

func intOf(value any) int {
	if number, ok := value.(float64); ok {
		return int(number)
	}

	return 0
}

func summarize(body string) string {
	if len(body) <= constants.BodySummaryLimit {
		return body
	}

	end := constants.BodySummaryLimit
	for end > 0 && !utf8.RuneStart(body[end]) {
		end--
	}

	return body[:end] + "..."
}
