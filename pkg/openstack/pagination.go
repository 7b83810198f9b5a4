package openstack

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"

	"github.com/fivetwenty-io/ostack/internal/constants"
)

// Pagination bounds how many items a paged query collects.
type Pagination struct {
	limit int
}

// All collects every item.
func All() Pagination {
	return Pagination{}
}

// Limit collects at most n items. n <= 0 means all.
func Limit(n int) Pagination {
	if n < 0 {
		n = 0
	}

	return Pagination{limit: n}
}

// Max returns the item cap and whether one is set.
func (p Pagination) Max() (int, bool) {
	return p.limit, p.limit > 0
}

func (p Pagination) String() string {
	if p.limit > 0 {
		return "limit " + strconv.Itoa(p.limit)
	}

	return "all"
}

// Paged follows markers across pages and returns the collected items. Pages
// are fetched one after another; an error on any page aborts the run and no
// items are returned.
func Paged[T any](ctx context.Context, client Client, endpoint Pageable, pagination Pagination) ([]T, error) {
	iterator := NewPageIterator[T](ctx, client, endpoint, pagination)

	items, err := iterator.All()
	if err != nil {
		return nil, err
	}

	return items, nil
}

// PageIterator walks a paged listing lazily, one page request at a time.
type PageIterator[T any] struct {
	ctx        context.Context //nolint:containedctx // iterator owns its run
	client     Client
	first      Pageable
	next       Pageable
	pagination Pagination

	buffer []T
	count  int
	pages  int
	done   bool
	err    error
}

// NewPageIterator creates an iterator positioned before the first item.
func NewPageIterator[T any](ctx context.Context, client Client, endpoint Pageable, pagination Pagination) *PageIterator[T] {
	return &PageIterator[T]{
		ctx:        ctx,
		client:     client,
		first:      endpoint,
		next:       endpoint,
		pagination: pagination,
	}
}

// HasNext reports whether Next will return an item or an error. It fetches
// the next page when the current one is used up.
func (p *PageIterator[T]) HasNext() bool {
	if p.err != nil {
		return true
	}

	if len(p.buffer) > 0 {
		return true
	}

	for !p.done && len(p.buffer) == 0 {
		err := p.fetch()
		if err != nil {
			p.err = err

			return true
		}
	}

	return len(p.buffer) > 0
}

// Next returns the next item.
func (p *PageIterator[T]) Next() (T, error) {
	var zero T

	if !p.HasNext() {
		return zero, ErrNoMoreItems
	}

	if p.err != nil {
		err := p.err
		p.err = nil
		p.done = true

		return zero, err
	}

	item := p.buffer[0]
	p.buffer = p.buffer[1:]

	return item, nil
}

// All drains the iterator.
func (p *PageIterator[T]) All() ([]T, error) {
	var items []T

	for p.HasNext() {
		item, err := p.Next()
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if items == nil {
		items = []T{}
	}

	return items, nil
}

// ForEach calls fn for every item until fn or a page request fails.
func (p *PageIterator[T]) ForEach(fn func(T) error) error {
	for p.HasNext() {
		item, err := p.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

// Items adapts the iterator to a range-over-func sequence. A page error is
// yielded once as the final pair.
func (p *PageIterator[T]) Items() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for p.HasNext() {
			item, err := p.Next()
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

// Pages returns how many pages have been requested so far.
func (p *PageIterator[T]) Pages() int {
	return p.pages
}

// Reset rewinds the iterator to the first page.
func (p *PageIterator[T]) Reset() {
	p.next = p.first
	p.buffer = nil
	p.count = 0
	p.pages = 0
	p.done = false
	p.err = nil
}

func (p *PageIterator[T]) fetch() error {
	limit, limited := p.pagination.Max()
	if limited && p.count >= limit {
		p.done = true

		return nil
	}

	resp, err := execute(p.ctx, p.client, p.next)
	if err != nil {
		p.done = true

		return fmt.Errorf("fetching page %d: %w", p.pages+1, err)
	}

	p.pages++

	rawItems, err := pageItems(resp.Body, p.next.ResponseKey())
	if err != nil {
		p.done = true

		return err
	}

	if len(rawItems) == 0 {
		p.done = true

		return nil
	}

	received := len(rawItems)
	if limited && p.count+len(rawItems) >= limit {
		rawItems = rawItems[:limit-p.count]
		p.done = true
	}

	for _, raw := range rawItems {
		var item T

		err = json.Unmarshal(raw, &item)
		if err != nil {
			p.done = true

			return &DecodeError{Key: p.next.ResponseKey(), Err: err}
		}

		p.buffer = append(p.buffer, item)
	}

	p.count += len(rawItems)

	if p.done {
		return nil
	}

	if size := p.next.PageSize(); size > 0 && received < size {
		p.done = true

		return nil
	}

	// A server that ignores the marker would return the same page forever.
	marker := markerOf(rawItems[len(rawItems)-1], p.next.MarkerFields())
	if marker == "" || marker == p.next.Parameters().Get(constants.ParamMarker) {
		p.done = true

		return nil
	}

	p.next = p.next.WithMarker(marker)

	return nil
}

// pageItems reads a page as a list of raw items, either under key or as a
// top-level array.
func pageItems(body []byte, key string) ([]json.RawMessage, error) {
	var items []json.RawMessage

	if key == "" {
		err := json.Unmarshal(body, &items)
		if err != nil {
			return nil, &DecodeError{Err: fmt.Errorf("%w: %w", ErrItemsNotFound, err)}
		}

		return items, nil
	}

	raw, err := extractKey(body, key)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(raw, &items)
	if err != nil {
		return nil, &DecodeError{Key: key, Err: fmt.Errorf("%w: %w", ErrItemsNotFound, err)}
	}

	return items, nil
}

// markerOf returns the string form of the first of fields present in
// item, or "" when none is.
func markerOf(item json.RawMessage, fields []string) string {
	var object map[string]json.RawMessage

	err := json.Unmarshal(item, &object)
	if err != nil {
		return ""
	}

	for _, field := range fields {
		raw, ok := object[field]
		if !ok {
			continue
		}

		var text string

		err = json.Unmarshal(raw, &text)
		if err == nil && text != "" {
			return text
		}

		var number json.Number

		err = json.Unmarshal(raw, &number)
		if err == nil && number != "" {
			return number.String()
		}
	}

	return ""
}
