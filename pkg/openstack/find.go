package openstack

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Finder describes how to look up one kind of resource by ID or by name.
type Finder[T any] struct {
	// Resource names the kind in errors, e.g. "server".
	Resource string
	// Get builds the GET-by-ID descriptor. Optional.
	Get func(id string) (Endpoint, error)
	// List builds a listing filtered server-side by name. When the returned
	// endpoint is Pageable every page is read. Optional.
	List func(name string) (Endpoint, error)
	// IDField and NameField default to "id" and "name".
	IDField   string
	NameField string
	// LooksLikeID decides whether input is tried as an ID first. Defaults
	// to a UUID check.
	LooksLikeID func(value string) bool
}

// Found is the result of a successful lookup.
type Found[T any] struct {
	ID       string
	Name     string
	Resource T
}

// FindOption configures Find and FindByName.
type FindOption func(*findOptions)

type findOptions struct {
	logger Logger
}

// WithFindLogger logs a warning through logger when a lookup falls back to
// name matching.
func WithFindLogger(logger Logger) FindOption {
	return func(o *findOptions) {
		o.logger = logger
	}
}

// IsUUID reports whether value parses as a UUID.
func IsUUID(value string) bool {
	_, err := uuid.Parse(value)

	return err == nil
}

// Find resolves nameOrID. Input that looks like an ID is fetched directly;
// a 404 falls back to a name lookup. Other input is looked up by name.
func Find[T any](ctx context.Context, client Client, finder Finder[T], nameOrID string, opts ...FindOption) (*Found[T], error) {
	if finder.Get == nil && finder.List == nil {
		return nil, ErrNoLookupStrategy
	}

	looksLikeID := finder.LooksLikeID
	if looksLikeID == nil {
		looksLikeID = IsUUID
	}

	if finder.Get != nil && (finder.List == nil || looksLikeID(nameOrID)) {
		found, err := findByID(ctx, client, finder, nameOrID)
		if err == nil {
			return found, nil
		}

		if !IsNotFound(err) || finder.List == nil {
			return nil, err
		}
	}

	return FindByName(ctx, client, finder, nameOrID, opts...)
}

// FindByName lists resources filtered by name and requires exactly one
// exact match.
func FindByName[T any](ctx context.Context, client Client, finder Finder[T], name string, opts ...FindOption) (*Found[T], error) {
	options := findOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if finder.List == nil {
		return nil, ErrNoLookupStrategy
	}

	if options.logger != nil {
		options.logger.Warn("exact match by name is not guaranteed", map[string]interface{}{
			"resource": finder.resource(),
			"name":     name,
		})
	}

	endpoint, err := finder.List(name)
	if err != nil {
		return nil, err
	}

	items, err := listRaw(ctx, client, endpoint)
	if err != nil {
		return nil, fmt.Errorf("listing %ss: %w", finder.resource(), err)
	}

	nameField := finder.nameField()
	matches := lo.Filter(items, func(item json.RawMessage, _ int) bool {
		return markerOf(item, []string{nameField}) == name
	})

	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Resource: finder.resource(), Name: name}
	case 1:
		return finder.decode(matches[0])
	default:
		idField := finder.idField()

		return nil, &AmbiguousError{
			Resource: finder.resource(),
			Name:     name,
			IDs: lo.Map(matches, func(item json.RawMessage, _ int) string {
				return markerOf(item, []string{idField})
			}),
		}
	}
}

func findByID[T any](ctx context.Context, client Client, finder Finder[T], id string) (*Found[T], error) {
	endpoint, err := finder.Get(id)
	if err != nil {
		return nil, err
	}

	resp, err := execute(ctx, client, endpoint)
	if err != nil {
		return nil, err
	}

	raw := json.RawMessage(resp.Body)

	if key := endpoint.ResponseKey(); key != "" {
		raw, err = extractKey(resp.Body, key)
		if err != nil {
			return nil, err
		}
	}

	return finder.decode(raw)
}

func listRaw(ctx context.Context, client Client, endpoint Endpoint) ([]json.RawMessage, error) {
	if pageable, ok := endpoint.(Pageable); ok {
		return Paged[json.RawMessage](ctx, client, pageable, All())
	}

	resp, err := execute(ctx, client, endpoint)
	if err != nil {
		return nil, err
	}

	return pageItems(resp.Body, endpoint.ResponseKey())
}

func (f Finder[T]) decode(raw json.RawMessage) (*Found[T], error) {
	var resource T

	err := json.Unmarshal(raw, &resource)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return &Found[T]{
		ID:       markerOf(raw, []string{f.idField()}),
		Name:     markerOf(raw, []string{f.nameField()}),
		Resource: resource,
	}, nil
}

func (f Finder[T]) resource() string {
	if f.Resource == "" {
		return "resource"
	}

	return f.Resource
}

func (f Finder[T]) idField() string {
	if f.IDField == "" {
		return constants.DefaultMarkerField
	}

	return f.IDField
}

func (f Finder[T]) nameField() string {
	if f.NameField == "" {
		return constants.DefaultNameField
	}

	return f.NameField
}
