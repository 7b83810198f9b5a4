package openstack

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/samber/lo"
)

// Endpoint describes one REST operation against an OpenStack service. An
// Endpoint is a pure value: every method returns the same answer on every
// call and has no side effects.
type Endpoint interface {
	// Method is the HTTP verb.
	Method() string
	// Path is relative to the service base URL, already interpolated and escaped.
	Path() string
	// Parameters are the query string parameters.
	Parameters() url.Values
	// Body returns the encoded request body and its content type. A nil
	// body means none is sent. Encoding failures are *BodyError.
	Body() ([]byte, string, error)
	ServiceType() ServiceType
	// APIVersion is the minimum microversion the endpoint needs; zero if none.
	APIVersion() APIVersion
	RequestHeaders() http.Header
	// ResponseKey names the JSON object key that wraps the result, if any.
	ResponseKey() string
}

// Pageable is an Endpoint that returns a list and understands marker
// pagination.
type Pageable interface {
	Endpoint
	// WithMarker returns a copy that starts after marker.
	WithMarker(marker string) Pageable
	// WithPageSize returns a copy requesting size items per page.
	WithPageSize(size int) Pageable
	// PageSize is the requested page size, 0 when the server decides.
	PageSize() int
	// MarkerFields are the item fields tried in order for the next marker.
	MarkerFields() []string
}

// Descriptor is the Endpoint implementation used by the service packages.
// Build one with NewDescriptor.
type Descriptor struct {
	service     ServiceType
	method      string
	path        string
	params      url.Values
	headers     http.Header
	version     APIVersion
	responseKey string

	body        []byte
	contentType string
	bodyErr     error
}

var _ Endpoint = (*Descriptor)(nil)

func (d *Descriptor) Method() string { return d.method }

func (d *Descriptor) Path() string { return d.path }

func (d *Descriptor) Parameters() url.Values { return cloneValues(d.params) }

func (d *Descriptor) ServiceType() ServiceType { return d.service }

func (d *Descriptor) APIVersion() APIVersion { return d.version }

func (d *Descriptor) RequestHeaders() http.Header { return d.headers.Clone() }

func (d *Descriptor) ResponseKey() string { return d.responseKey }

// Body returns the body encoded when the descriptor was built.
func (d *Descriptor) Body() ([]byte, string, error) {
	if d.bodyErr != nil {
		return nil, "", d.bodyErr
	}

	if d.body == nil {
		return nil, "", nil
	}

	return append([]byte(nil), d.body...), d.contentType, nil
}

func (d *Descriptor) String() string {
	target := d.path
	if len(d.params) > 0 {
		target += "?" + d.params.Encode()
	}

	return fmt.Sprintf("%s %s %s", d.method, d.service, target)
}

func (d *Descriptor) clone() Descriptor {
	copied := *d
	copied.params = cloneValues(d.params)
	copied.headers = d.headers.Clone()

	return copied
}

// PagedDescriptor is a Descriptor for list operations.
type PagedDescriptor struct {
	Descriptor

	markerFields []string
	pageSize     int
}

var _ Pageable = (*PagedDescriptor)(nil)

// WithMarker returns a copy with the marker parameter set.
func (p *PagedDescriptor) WithMarker(marker string) Pageable {
	copied := p.copy()
	copied.params.Set(constants.ParamMarker, marker)

	return copied
}

// WithPageSize returns a copy with the limit parameter set. A size of zero
// or less removes it.
func (p *PagedDescriptor) WithPageSize(size int) Pageable {
	copied := p.copy()
	if size > 0 {
		copied.pageSize = size
		copied.params.Set(constants.ParamLimit, strconv.Itoa(size))
	} else {
		copied.pageSize = 0
		copied.params.Del(constants.ParamLimit)
	}

	return copied
}

func (p *PagedDescriptor) PageSize() int { return p.pageSize }

func (p *PagedDescriptor) MarkerFields() []string { return slices.Clone(p.markerFields) }

func (p *PagedDescriptor) copy() *PagedDescriptor {
	return &PagedDescriptor{
		Descriptor:   p.clone(),
		markerFields: p.markerFields,
		pageSize:     p.pageSize,
	}
}

// DescriptorBuilder assembles a Descriptor. Errors are collected and
// reported by Build.
type DescriptorBuilder struct {
	descriptor Descriptor
	pageSize   int
	err        error

	hasJSON   bool
	jsonRoot  string
	jsonValue any
}

// NewDescriptor starts a descriptor for method on path of service.
func NewDescriptor(service ServiceType, method, path string) *DescriptorBuilder {
	return &DescriptorBuilder{
		descriptor: Descriptor{
			service: service,
			method:  strings.ToUpper(method),
			path:    path,
			params:  url.Values{},
			headers: http.Header{},
		},
	}
}

// Query adds query parameters. Empty values are skipped.
func (b *DescriptorBuilder) Query(key string, values ...string) *DescriptorBuilder {
	for _, value := range values {
		if value != "" {
			b.descriptor.params.Add(key, value)
		}
	}

	return b
}

// QueryBool adds key=true when value is set.
func (b *DescriptorBuilder) QueryBool(key string, value bool) *DescriptorBuilder {
	if value {
		b.descriptor.params.Set(key, "true")
	}

	return b
}

// PageSize sets the limit parameter for the first page.
func (b *DescriptorBuilder) PageSize(size int) *DescriptorBuilder {
	if size > 0 {
		b.pageSize = size
		b.descriptor.params.Set(constants.ParamLimit, strconv.Itoa(size))
	}

	return b
}

// JSONBody sends value as JSON, wrapped as {root: value} when root is set.
// value is encoded by Build; later changes to it are not sent.
func (b *DescriptorBuilder) JSONBody(root string, value any) *DescriptorBuilder {
	b.hasJSON = true
	b.jsonRoot = root
	b.jsonValue = value

	return b
}

// RawBody sends data as-is with contentType.
func (b *DescriptorBuilder) RawBody(contentType string, data []byte) *DescriptorBuilder {
	b.hasJSON = false
	b.jsonValue = nil
	b.descriptor.body = append([]byte{}, data...)
	b.descriptor.contentType = contentType

	return b
}

// APIVersion declares the minimum microversion, e.g. "2.79".
func (b *DescriptorBuilder) APIVersion(version string) *DescriptorBuilder {
	parsed, err := ParseAPIVersion(version)
	if err != nil {
		b.err = err

		return b
	}

	b.descriptor.version = parsed

	return b
}

// Header adds an extra request header.
func (b *DescriptorBuilder) Header(key, value string) *DescriptorBuilder {
	b.descriptor.headers.Add(key, value)

	return b
}

// ResponseKey sets the key that wraps the result in the response body.
func (b *DescriptorBuilder) ResponseKey(key string) *DescriptorBuilder {
	b.descriptor.responseKey = key

	return b
}

// Build validates and returns the descriptor.
func (b *DescriptorBuilder) Build() (*Descriptor, error) {
	err := b.validate()
	if err != nil {
		return nil, err
	}

	descriptor := b.encode()

	return &descriptor, nil
}

// BuildPaged validates and returns a pageable descriptor whose next marker
// is read from the first of markerFields present in the last item ("id"
// when none are given).
func (b *DescriptorBuilder) BuildPaged(markerFields ...string) (*PagedDescriptor, error) {
	err := b.validate()
	if err != nil {
		return nil, err
	}

	markerFields = lo.Compact(markerFields)
	if len(markerFields) == 0 {
		markerFields = []string{constants.DefaultMarkerField}
	}

	return &PagedDescriptor{
		Descriptor:   b.encode(),
		markerFields: markerFields,
		pageSize:     b.pageSize,
	}, nil
}

// encode returns a copy of the descriptor with the JSON body marshaled.
// Marshal failures are kept and reported by Body.
func (b *DescriptorBuilder) encode() Descriptor {
	descriptor := b.descriptor.clone()
	if !b.hasJSON {
		return descriptor
	}

	descriptor.body = nil
	descriptor.contentType = constants.MediaTypeJSON

	encoded, err := json.Marshal(b.jsonValue)
	if err == nil && b.jsonRoot != "" {
		encoded, err = json.Marshal(map[string]json.RawMessage{b.jsonRoot: encoded})
	}

	if err != nil {
		descriptor.bodyErr = &BodyError{Err: err}

		return descriptor
	}

	descriptor.body = encoded

	return descriptor
}

func (b *DescriptorBuilder) validate() error {
	if b.err != nil {
		return b.err
	}

	switch {
	case b.descriptor.service == "":
		return ErrServiceTypeRequired
	case b.descriptor.method == "":
		return ErrMethodRequired
	case b.descriptor.path == "":
		return ErrPathRequired
	}

	return nil
}

// Must returns value and panics on err. Use it for descriptors whose inputs
// are constants.
func Must[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}

	return value
}

// RequireID fails with ErrMissingParameter when value is empty.
func RequireID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}

	return nil
}

// EscapePath joins path segments, escaping each one.
func EscapePath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = url.PathEscape(segment)
	}

	return strings.Join(escaped, "/")
}

func cloneValues(values url.Values) url.Values {
	cloned := make(url.Values, len(values))
	for key, list := range values {
		cloned[key] = append([]string(nil), list...)
	}

	return cloned
}
