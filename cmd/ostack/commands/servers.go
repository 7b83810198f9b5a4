package commands

import (
	"sort"
	"strings"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/compute"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// NewServersCommand creates the server command group.
func NewServersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "server",
		Aliases: []string{"servers"},
		Short:   "Manage compute servers",
		Long:    "List, inspect and delete Nova servers",
	}

	cmd.AddCommand(newServersListCommand())
	cmd.AddCommand(newServersShowCommand())
	cmd.AddCommand(newServersDeleteCommand())

	return cmd
}

func newServersListCommand() *cobra.Command {
	var (
		flags listFlags
		opts  compute.ListServersOpts
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			servers, err := list[compute.Server](ctx, e, compute.ListServers(opts), &flags)
			if err != nil {
				return err
			}

			return render(cmd, servers, func() ([]string, [][]string) {
				rows := lo.Map(servers, func(server compute.Server, _ int) []string {
					return []string{server.ID, server.Name, server.Status, serverNetworks(server), serverFlavor(server), formatAge(server.Created)}
				})

				return []string{"ID", "Name", "Status", "Networks", "Flavor", "Created"}, rows
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&opts.Name, "name", "", "filter by name (regular expression)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&opts.Flavor, "flavor", "", "filter by flavor ID")
	cmd.Flags().StringVar(&opts.Image, "image", "", "filter by image ID")
	cmd.Flags().StringVar(&opts.Host, "host", "", "filter by compute host (admin only)")
	cmd.Flags().BoolVar(&opts.AllTenants, "all-projects", false, "list servers of every project (admin only)")

	return cmd
}

func newServersShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show SERVER",
		Short: "Show server details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, compute.ServerFinder(), args[0])
			if err != nil {
				return err
			}

			server := found.Resource

			return render(cmd, server, properties(
				"ID", server.ID,
				"Name", server.Name,
				"Status", server.Status,
				"Power state", serverPowerState(server.PowerState),
				"Flavor", serverFlavor(server),
				"Networks", orNA(serverNetworks(server)),
				"Key name", orNA(server.KeyName),
				"Availability zone", orNA(server.AvailabilityZone),
				"Project", server.TenantID,
				"Security groups", orNA(strings.Join(lo.Map(server.SecurityGroups, func(group compute.SecurityGroupRef, _ int) string {
					return group.Name
				}), ", ")),
				"Volumes", orNA(strings.Join(lo.Map(server.Volumes, func(volume compute.VolumeRef, _ int) string {
					return volume.ID
				}), ", ")),
				"Created", formatAge(server.Created),
				"Updated", formatAge(server.Updated),
			))
		},
	}
}

func newServersDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete SERVER [SERVER...]",
		Short: "Delete servers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteAll(cmd, args, compute.ServerFinder(), func(found *openstack.Found[compute.Server]) (openstack.Endpoint, error) {
				return compute.DeleteServer(found.ID)
			})
		},
	}
}

// serverNetworks renders addresses as "net=10.0.0.5, 172.24.4.10; net2=...".
func serverNetworks(server compute.Server) string {
	names := lo.Keys(server.Addresses)
	sort.Strings(names)

	parts := lo.Map(names, func(name string, _ int) string {
		addrs := lo.Map(server.Addresses[name], func(address compute.Address, _ int) string { return address.Addr })

		return name + "=" + strings.Join(addrs, ", ")
	})

	return strings.Join(parts, "; ")
}

// serverFlavor prefers the embedded flavor name of microversion 2.47+.
func serverFlavor(server compute.Server) string {
	if server.Flavor.OriginalName != "" {
		return server.Flavor.OriginalName
	}

	return orNA(server.Flavor.ID)
}

func serverPowerState(state int) string {
	switch state {
	case 1:
		return "Running"
	case 3:
		return "Paused"
	case 4:
		return "Shutdown"
	case 6:
		return "Crashed"
	case 7:
		return "Suspended"
	default:
		return "NOSTATE"
	}
}
