package commands

import (
	"fmt"
	"mime"
	"path/filepath"
	"strconv"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/objectstore"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// NewContainersCommand creates the container command group.
func NewContainersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "container",
		Aliases: []string{"containers"},
		Short:   "Manage object store containers",
	}

	cmd.AddCommand(newContainersListCommand())
	cmd.AddCommand(newContainersCreateCommand())
	cmd.AddCommand(newContainersDeleteCommand())

	return cmd
}

func newContainersListCommand() *cobra.Command {
	var (
		flags listFlags
		opts  objectstore.ListOpts
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			containers, err := list[objectstore.Container](ctx, e, objectstore.ListContainers(opts), &flags)
			if err != nil {
				return err
			}

			return render(cmd, containers, func() ([]string, [][]string) {
				rows := lo.Map(containers, func(container objectstore.Container, _ int) []string {
					return []string{container.Name, strconv.FormatInt(container.Count, 10), formatBytes(container.Bytes), formatAge(container.LastModified.Time)}
				})

				return []string{"Name", "Objects", "Bytes", "Last Modified"}, rows
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "only containers whose name starts with this")

	return cmd
}

func newContainersCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create CONTAINER",
		Short: "Create a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return objectStoreCall(cmd, "Created container "+args[0], func() (openstack.Endpoint, error) {
				return objectstore.CreateContainer(args[0])
			})
		},
	}
}

func newContainersDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete CONTAINER",
		Short: "Delete an empty container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return objectStoreCall(cmd, "Deleted container "+args[0], func() (openstack.Endpoint, error) {
				return objectstore.DeleteContainer(args[0])
			})
		},
	}
}

// NewObjectsCommand creates the object command group.
func NewObjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "object",
		Aliases: []string{"objects"},
		Short:   "Manage objects in the object store",
	}

	cmd.AddCommand(newObjectsListCommand())
	cmd.AddCommand(newObjectsUploadCommand())
	cmd.AddCommand(newObjectsDownloadCommand())
	cmd.AddCommand(newObjectsDeleteCommand())

	return cmd
}

func newObjectsListCommand() *cobra.Command {
	var (
		flags listFlags
		opts  objectstore.ListOpts
	)

	cmd := &cobra.Command{
		Use:   "list CONTAINER",
		Short: "List objects in a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			endpoint, err := objectstore.ListObjects(args[0], opts)
			if err != nil {
				return err
			}

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			objects, err := list[objectstore.Object](ctx, e, endpoint, &flags)
			if err != nil {
				return err
			}

			return render(cmd, objects, func() ([]string, [][]string) {
				rows := lo.Map(objects, func(object objectstore.Object, _ int) []string {
					if object.Subdir != "" {
						return []string{object.Subdir, "", "", ""}
					}

					return []string{object.Name, formatBytes(object.Bytes), object.ContentType, formatAge(object.LastModified.Time)}
				})

				return []string{"Name", "Bytes", "Content Type", "Last Modified"}, rows
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "only objects whose name starts with this")
	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", "", "roll up names sharing a prefix up to this character")

	return cmd
}

func newObjectsUploadCommand() *cobra.Command {
	var (
		name        string
		contentType string
	)

	cmd := &cobra.Command{
		Use:   "upload CONTAINER FILE",
		Short: "Upload a file as an object",
		Long:  "Upload FILE (- for stdin) to CONTAINER. The object is named after the file unless --name is given.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, file := args[0], args[1]

			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			if name == "" {
				name = filepath.Base(file)
			}

			if contentType == "" {
				contentType = mime.TypeByExtension(filepath.Ext(name))
			}

			return objectStoreCall(cmd, fmt.Sprintf("Uploaded %s to %s/%s", formatBytes(int64(len(data))), container, name), func() (openstack.Endpoint, error) {
				return objectstore.UploadObject(container, name, contentType, data)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "object name (default: the file's base name)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type (default: guessed from the name)")

	return cmd
}

func newObjectsDownloadCommand() *cobra.Command {
	var (
		output     string
		skipVerify bool
	)

	cmd := &cobra.Command{
		Use:   "download CONTAINER OBJECT",
		Short: "Download an object",
		Long: `Download OBJECT from CONTAINER to --file, or to stdout. The data is
checked against the ETag, which Swift sets to the MD5 of ordinary objects.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			endpoint, err := objectstore.DownloadObject(args[0], args[1])
			if err != nil {
				return err
			}

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			resp, err := openstack.QueryRaw(ctx, e.session, endpoint)
			if err != nil {
				return err
			}

			// Large objects carry the MD5 of their manifest instead.
			if !skipVerify && resp.Headers.Get("X-Object-Manifest") == "" && resp.Headers.Get("X-Static-Large-Object") == "" {
				err = verifyMD5(resp.Body, resp.Headers.Get(constants.HeaderETag))
				if err != nil {
					return err
				}
			}

			return writeOutput(cmd.OutOrStdout(), output, resp.Body)
		},
	}

	cmd.Flags().StringVarP(&output, "file", "f", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&skipVerify, "no-verify", false, "skip checksum verification")

	return cmd
}

func newObjectsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete CONTAINER OBJECT [OBJECT...]",
		Short: "Delete objects",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd // container plus at least one object
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			container := args[0]
			var batch openstack.Batch

			for _, name := range args[1:] {
				endpoint, err := objectstore.DeleteObject(container, name)
				if err != nil {
					return err
				}

				batch.Add(name, endpoint)
			}

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			results := openstack.NewBatchExecutor(e.session, constants.DefaultConcurrencyLimit).Execute(ctx, batch)

			for _, result := range results {
				if result.OK() {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted object %s/%s\n", container, result.ID)
				}
			}

			return openstack.Err(results)
		},
	}
}

// objectStoreCall runs a descriptor whose response has no body.
func objectStoreCall(cmd *cobra.Command, done string, build func() (openstack.Endpoint, error)) error {
	ctx := commandContext(cmd)

	endpoint, err := build()
	if err != nil {
		return err
	}

	e, err := newSession(ctx)
	if err != nil {
		return err
	}

	err = openstack.Ignore(ctx, e.session, endpoint)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), done)

	return nil
}
