package commands

import (
	"strings"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/blockstorage"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// NewVolumesCommand creates the volume command group.
func NewVolumesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "volume",
		Aliases: []string{"volumes"},
		Short:   "Manage block storage volumes",
	}

	cmd.AddCommand(newVolumesListCommand())
	cmd.AddCommand(newVolumesShowCommand())
	cmd.AddCommand(newVolumesDeleteCommand())

	return cmd
}

func newVolumesListCommand() *cobra.Command {
	var (
		flags listFlags
		opts  blockstorage.ListVolumesOpts
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List volumes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			volumes, err := list[blockstorage.Volume](ctx, e, blockstorage.ListVolumes(opts), &flags)
			if err != nil {
				return err
			}

			return render(cmd, volumes, func() ([]string, [][]string) {
				rows := lo.Map(volumes, func(volume blockstorage.Volume, _ int) []string {
					return []string{volume.ID, volume.Name, volume.Status, formatGiB(volume.Size), volumeAttachments(volume)}
				})

				return []string{"ID", "Name", "Status", "Size", "Attached to"}, rows
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&opts.Name, "name", "", "filter by name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().BoolVar(&opts.AllTenants, "all-projects", false, "list volumes of every project (admin only)")

	return cmd
}

func newVolumesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show VOLUME",
		Short: "Show volume details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, blockstorage.VolumeFinder(), args[0])
			if err != nil {
				return err
			}

			volume := found.Resource

			return render(cmd, volume, properties(
				"ID", volume.ID,
				"Name", orNA(volume.Name),
				"Description", orNA(volume.Description),
				"Status", volume.Status,
				"Size", formatGiB(volume.Size),
				"Type", orNA(volume.VolumeType),
				"Bootable", volume.Bootable,
				"Encrypted", formatBool(volume.Encrypted),
				"Multiattach", formatBool(volume.Multiattach),
				"Availability zone", orNA(volume.AvailabilityZone),
				"Snapshot", orNA(volume.SnapshotID),
				"Attached to", orNA(volumeAttachments(volume)),
				"Created", formatAge(volume.CreatedAt.Time),
				"Updated", formatAge(volume.UpdatedAt.Time),
			))
		},
	}
}

func newVolumesDeleteCommand() *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "delete VOLUME [VOLUME...]",
		Short: "Delete volumes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteAll(cmd, args, blockstorage.VolumeFinder(), func(found *openstack.Found[blockstorage.Volume]) (openstack.Endpoint, error) {
				return blockstorage.DeleteVolume(found.ID, cascade)
			})
		},
	}

	cmd.Flags().BoolVar(&cascade, "cascade", false, "also delete the volume's snapshots")

	return cmd
}

func volumeAttachments(volume blockstorage.Volume) string {
	return strings.Join(lo.Map(volume.Attachments, func(attachment blockstorage.Attachment, _ int) string {
		if attachment.Device == "" {
			return attachment.ServerID
		}

		return attachment.ServerID + " on " + attachment.Device
	}), ", ")
}
