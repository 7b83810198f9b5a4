package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/ostack/internal/auth"
	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/osclient"
	"github.com/spf13/cobra"
)

// env is what a command needs to talk to the selected cloud.
type env struct {
	session osclient.Session
	logger  openstack.Logger
	state   *StateFile
	key     string
}

// newSession authenticates against the selected cloud, reusing the saved
// token when it is still valid and saving any token that gets issued.
func newSession(ctx context.Context) (*env, error) {
	config, cloud, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return connect(ctx, config, cloud, true)
}

// connect opens a session for config. With reuse, a saved token seeds the
// session and stands in for credentials that are not configured.
func connect(ctx context.Context, config *openstack.Config, cloud string, reuse bool) (*env, error) {
	state, err := NewStateFile()
	if err != nil {
		return nil, err
	}

	key := stateKey(cloud, config)
	opts := []osclient.Option{osclient.WithStatePersister(state, key)}

	if saved, ok := state.Load(key); ok && reuse {
		opts = append(opts, osclient.WithInitialAuth(saved))

		if _, err := auth.MethodFor(config); errors.Is(err, constants.ErrNoCredentials) {
			config.Token = saved.Token().Token
		}
	}

	session, err := osclient.New(ctx, config, opts...)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	session.Metrics().SetOnChange(func(service string, metrics openstack.Metrics) {
		logger.Debug("API metrics", map[string]interface{}{
			"service":   service,
			"requests":  metrics.Requests,
			"errors":    metrics.Errors,
			"throttled": metrics.Throttled,
			"latency":   metrics.AverageLatency.String(),
		})
	})

	return &env{session: session, logger: logger, state: state, key: key}, nil
}

// find resolves a name or ID the way every "show" and "delete" does.
func find[T any](ctx context.Context, e *env, finder openstack.Finder[T], nameOrID string) (*openstack.Found[T], error) {
	return openstack.Find(ctx, e.session, finder, nameOrID, openstack.WithFindLogger(e.logger))
}

// deleteAll resolves every argument, then deletes them concurrently.
func deleteAll[T any](
	cmd *cobra.Command,
	args []string,
	finder openstack.Finder[T],
	remove func(found *openstack.Found[T]) (openstack.Endpoint, error),
) error {
	ctx := commandContext(cmd)

	e, err := newSession(ctx)
	if err != nil {
		return err
	}

	var batch openstack.Batch

	for _, arg := range args {
		found, err := find(ctx, e, finder, arg)
		if err != nil {
			return err
		}

		endpoint, err := remove(found)
		if err != nil {
			return err
		}

		batch.Add(arg, endpoint)
	}

	results := openstack.NewBatchExecutor(e.session, constants.DefaultConcurrencyLimit).Execute(ctx, batch)

	for _, result := range results {
		if result.OK() {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", finder.Resource, result.ID)
		}
	}

	return openstack.Err(results)
}

// listFlags are shared by every list command.
type listFlags struct {
	limit    int
	pageSize int
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of results (0 for all)")
	cmd.Flags().IntVar(&f.pageSize, "page-size", constants.StandardPageSize, "results requested per page")
}

func (f *listFlags) pagination() openstack.Pagination {
	if f.limit > 0 {
		return openstack.Limit(f.limit)
	}

	return openstack.All()
}

// requestedPageSize is the page size sent to the server. A limit smaller
// than a page shrinks the page to the limit.
func (f *listFlags) requestedPageSize() int {
	if f.limit > 0 && (f.pageSize <= 0 || f.limit < f.pageSize) {
		return f.limit
	}

	return f.pageSize
}

// list pages through endpoint with the list flags applied.
func list[T any](ctx context.Context, e *env, endpoint *openstack.PagedDescriptor, flags *listFlags) ([]T, error) {
	var pageable openstack.Pageable = endpoint
	if size := flags.requestedPageSize(); size > 0 {
		pageable = endpoint.WithPageSize(size)
	}

	return openstack.Paged[T](ctx, e.session, pageable, flags.pagination())
}
