package commands

import (
	"fmt"
	"strconv"

	"github.com/fivetwenty-io/ostack/pkg/openstack/compute"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// NewFlavorsCommand creates the flavor command group.
func NewFlavorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "flavor",
		Aliases: []string{"flavors"},
		Short:   "Inspect compute flavors",
	}

	cmd.AddCommand(newFlavorsListCommand())
	cmd.AddCommand(newFlavorsShowCommand())

	return cmd
}

func newFlavorsListCommand() *cobra.Command {
	var (
		flags listFlags
		opts  compute.ListFlavorsOpts
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List flavors",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			flavors, err := list[compute.Flavor](ctx, e, compute.ListFlavors(opts), &flags)
			if err != nil {
				return err
			}

			return render(cmd, flavors, func() ([]string, [][]string) {
				rows := lo.Map(flavors, func(flavor compute.Flavor, _ int) []string {
					return []string{
						flavor.ID,
						flavor.Name,
						strconv.Itoa(flavor.VCPUs),
						formatMiB(flavor.RAM),
						formatGiB(flavor.Disk),
						formatBool(flavor.IsPublic),
					}
				})

				return []string{"ID", "Name", "vCPUs", "RAM", "Disk", "Public"}, rows
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&opts.MinRAM, "min-ram", 0, "only flavors with at least this much RAM (MiB)")
	cmd.Flags().IntVar(&opts.MinDisk, "min-disk", 0, "only flavors with at least this much disk (GiB)")
	cmd.Flags().StringVar(&opts.IsPublic, "public", "", "true, false or none for both (admin only)")

	return cmd
}

func newFlavorsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show FLAVOR",
		Short: "Show flavor details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, compute.FlavorFinder(), args[0])
			if err != nil {
				return err
			}

			flavor := found.Resource
			specs := lo.MapToSlice(flavor.ExtraSpecs, func(key, value string) string { return fmt.Sprintf("%s=%s", key, value) })

			return render(cmd, flavor, properties(
				"ID", flavor.ID,
				"Name", flavor.Name,
				"vCPUs", strconv.Itoa(flavor.VCPUs),
				"RAM", formatMiB(flavor.RAM),
				"Disk", formatGiB(flavor.Disk),
				"Ephemeral", formatGiB(flavor.Ephemeral),
				"Public", formatBool(flavor.IsPublic),
				"Description", orNA(flavor.Description),
				"Extra specs", orNA(joinSorted(specs)),
			))
		},
	}
}
