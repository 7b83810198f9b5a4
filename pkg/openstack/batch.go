package openstack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBatchFailed     = errors.New("batch operations failed")
	ErrNoBatchEndpoint = errors.New("batch operation has no endpoint")
)

// BatchOperation names one descriptor of a Batch. The ID is echoed in
// its result and in the error from Err.
type BatchOperation struct {
	ID       string
	Endpoint Endpoint
}

// Batch is an ordered list of descriptors to run concurrently, typically
// a bulk delete.
type Batch []BatchOperation

// Add appends endpoint under id.
func (b *Batch) Add(id string, endpoint Endpoint) {
	*b = append(*b, BatchOperation{ID: id, Endpoint: endpoint})
}

// BatchResult is the outcome of one operation.
type BatchResult struct {
	ID       string
	Response *Response
	Err      error
	Duration time.Duration

	responseKey string
}

// OK reports whether the operation succeeded.
func (r BatchResult) OK() bool { return r.Err == nil }

// BatchExecutor runs a Batch with at most concurrency requests in flight.
type BatchExecutor struct {
	client      Client
	concurrency int
	timeout     time.Duration
	onResult    func(BatchResult)
}

func NewBatchExecutor(client Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout bounds each operation, not the batch as a whole.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// OnResult registers fn to be called as each operation finishes, from the
// goroutine that ran it.
func (b *BatchExecutor) OnResult(fn func(BatchResult)) {
	b.onResult = fn
}

// Execute runs batch and returns one result per operation in batch order.
// Failures do not cancel the other operations; use Err to collect them.
func (b *BatchExecutor) Execute(ctx context.Context, batch Batch) []BatchResult {
	results := make([]BatchResult, len(batch))

	var group errgroup.Group

	group.SetLimit(b.concurrency)

	for i, operation := range batch {
		group.Go(func() error {
			results[i] = b.run(ctx, operation)

			if b.onResult != nil {
				b.onResult(results[i])
			}

			return nil
		})
	}

	_ = group.Wait()

	return results
}

func (b *BatchExecutor) run(ctx context.Context, operation BatchOperation) BatchResult {
	result := BatchResult{ID: operation.ID}

	if operation.Endpoint == nil {
		result.Err = ErrNoBatchEndpoint

		return result
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	started := time.Now()
	result.Response, result.Err = execute(ctx, b.client, operation.Endpoint)
	result.Duration = time.Since(started)
	result.responseKey = operation.Endpoint.ResponseKey()

	return result
}

// Err joins the errors of the failed results, each prefixed by its ID. It
// returns nil when every operation succeeded.
func Err(results []BatchResult) error {
	var errs []error

	for _, result := range results {
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", result.ID, result.Err))
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w (%d of %d): %w", ErrBatchFailed, len(errs), len(results), errors.Join(errs...))
}

// DecodeBatchResult decodes a successful result the way Query would.
func DecodeBatchResult[T any](result BatchResult) (T, error) {
	if result.Err != nil {
		var zero T

		return zero, result.Err
	}

	return decodeResult[T](result.Response.Body, result.responseKey)
}
