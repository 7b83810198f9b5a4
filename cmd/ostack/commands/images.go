package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/image"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// NewImagesCommand creates the image command group.
func NewImagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "image",
		Aliases: []string{"images"},
		Short:   "Manage images",
		Long:    "List, inspect, create, upload, download and delete Glance images",
	}

	cmd.AddCommand(newImagesListCommand())
	cmd.AddCommand(newImagesShowCommand())
	cmd.AddCommand(newImagesCreateCommand())
	cmd.AddCommand(newImagesUploadCommand())
	cmd.AddCommand(newImagesDownloadCommand())
	cmd.AddCommand(newImagesDeleteCommand())

	return cmd
}

func newImagesListCommand() *cobra.Command {
	var (
		flags listFlags
		opts  image.ListImagesOpts
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			images, err := list[image.Image](ctx, e, image.ListImages(opts), &flags)
			if err != nil {
				return err
			}

			return render(cmd, images, func() ([]string, [][]string) {
				rows := lo.Map(images, func(img image.Image, _ int) []string {
					return []string{img.ID, img.Name, img.Status, img.Visibility, formatBytes(img.Size), formatAge(img.CreatedAt)}
				})

				return []string{"ID", "Name", "Status", "Visibility", "Size", "Created"}, rows
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&opts.Name, "name", "", "filter by name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&opts.Visibility, "visibility", "", "public, private, shared, community or all")
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "filter by owner project ID")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "filter by tag (repeatable)")
	cmd.Flags().StringVar(&opts.SortKey, "sort-key", "", "sort by this attribute")
	cmd.Flags().StringVar(&opts.SortDir, "sort-dir", "", "asc or desc")

	return cmd
}

func imageProperties(img image.Image) tabulator {
	return properties(
		"ID", img.ID,
		"Name", img.Name,
		"Status", img.Status,
		"Visibility", img.Visibility,
		"Owner", img.Owner,
		"Disk format", orNA(img.DiskFormat),
		"Container format", orNA(img.ContainerFormat),
		"Size", imageSizeLabel(img),
		"Checksum", orNA(img.Checksum),
		"Min disk", formatGiB(img.MinDisk),
		"Min RAM", formatMiB(img.MinRAM),
		"Protected", formatBool(img.Protected),
		"Tags", orNA(strings.Join(img.Tags, ", ")),
		"Created", formatAge(img.CreatedAt),
		"Updated", formatAge(img.UpdatedAt),
	)
}

func newImagesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show IMAGE",
		Short: "Show image details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, image.ImageFinder(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, found.Resource, imageProperties(found.Resource))
		},
	}
}

func newImagesCreateCommand() *cobra.Command {
	var (
		opts image.CreateImageOpts
		file string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an image, optionally uploading its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			opts.Name = args[0]

			var data []byte

			if file != "" {
				read, err := readInput(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}

				data = read
			}

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			endpoint, err := image.CreateImage(opts)
			if err != nil {
				return err
			}

			created, err := openstack.Query[image.Image](ctx, e.session, endpoint)
			if err != nil {
				return err
			}

			if data != nil {
				err = uploadImage(cmd, e, created.ID, data)
				if err != nil {
					return fmt.Errorf("image %s created but upload failed: %w", created.ID, err)
				}

				created, err = openstack.Query[image.Image](ctx, e.session, openstack.Must(image.GetImage(created.ID)))
				if err != nil {
					return err
				}
			}

			return render(cmd, created, imageProperties(created))
		},
	}

	cmd.Flags().StringVar(&opts.DiskFormat, "disk-format", "qcow2", "disk format (raw, qcow2, vmdk, iso, ...)")
	cmd.Flags().StringVar(&opts.ContainerFormat, "container-format", "bare", "container format")
	cmd.Flags().StringVar(&opts.Visibility, "visibility", "", "public, private, shared or community")
	cmd.Flags().IntVar(&opts.MinDisk, "min-disk", 0, "minimum disk size in GiB")
	cmd.Flags().IntVar(&opts.MinRAM, "min-ram", 0, "minimum RAM in MiB")
	cmd.Flags().BoolVar(&opts.Protected, "protected", false, "prevent deletion")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "image tag (repeatable)")
	cmd.Flags().StringVar(&file, "file", "", "upload this file (- for stdin) after creating the image")

	return cmd
}

func newImagesUploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload IMAGE FILE",
		Short: "Upload data to a queued image",
		Long:  "Upload FILE (- for stdin) as the data of IMAGE. The image must not have data yet.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			data, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, image.ImageFinder(), args[0])
			if err != nil {
				return err
			}

			err = uploadImage(cmd, e, found.ID, data)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Uploaded %s to image %s\n", formatBytes(int64(len(data))), found.ID)

			return nil
		},
	}
}

func uploadImage(cmd *cobra.Command, e *env, id string, data []byte) error {
	endpoint, err := image.UploadData(id, data)
	if err != nil {
		return err
	}

	return openstack.Ignore(commandContext(cmd), e.session, endpoint)
}

func newImagesDownloadCommand() *cobra.Command {
	var (
		output     string
		skipVerify bool
	)

	cmd := &cobra.Command{
		Use:   "download IMAGE",
		Short: "Download image data",
		Long: `Download the data of IMAGE to --file, or to stdout. The MD5 checksum is
verified against the Content-MD5 header, or the image's checksum.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, image.ImageFinder(), args[0])
			if err != nil {
				return err
			}

			endpoint, err := image.DownloadData(found.ID)
			if err != nil {
				return err
			}

			resp, err := openstack.QueryRaw(ctx, e.session, endpoint)
			if err != nil {
				return err
			}

			if !skipVerify {
				expected := resp.Headers.Get(constants.HeaderContentMD5)
				if expected == "" {
					expected = found.Resource.Checksum
				}

				err = verifyMD5(resp.Body, expected)
				if err != nil {
					return err
				}
			}

			err = writeOutput(cmd.OutOrStdout(), output, resp.Body)
			if err != nil {
				return err
			}

			if output != "" && output != "-" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Downloaded %s to %s\n", formatBytes(int64(len(resp.Body))), output)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "file", "f", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&skipVerify, "no-verify", false, "skip checksum verification")

	return cmd
}

func newImagesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete IMAGE [IMAGE...]",
		Short: "Delete images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteAll(cmd, args, image.ImageFinder(), func(found *openstack.Found[image.Image]) (openstack.Endpoint, error) {
				return image.DeleteImage(found.ID)
			})
		},
	}
}

func imageSizeLabel(img image.Image) string {
	return formatBytes(img.Size) + " (" + strconv.FormatInt(img.Size, 10) + " bytes)"
}
