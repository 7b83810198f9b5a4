package commands

import (
	"strconv"
	"strings"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/network"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// NewNetworksCommand creates the network command group.
func NewNetworksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "network",
		Aliases: []string{"networks"},
		Short:   "Manage networks",
		Long:    "List, inspect, create and delete Neutron networks",
	}

	cmd.AddCommand(newNetworksListCommand())
	cmd.AddCommand(newNetworksShowCommand())
	cmd.AddCommand(newNetworksCreateCommand())
	cmd.AddCommand(newNetworksDeleteCommand())

	return cmd
}

func newNetworksListCommand() *cobra.Command {
	var (
		flags    listFlags
		opts     network.ListNetworksOpts
		shared   bool
		external bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			if cmd.Flags().Changed("shared") {
				opts.Shared = &shared
			}

			if cmd.Flags().Changed("external") {
				opts.External = &external
			}

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			networks, err := list[network.Network](ctx, e, network.ListNetworks(opts), &flags)
			if err != nil {
				return err
			}

			return render(cmd, networks, func() ([]string, [][]string) {
				rows := lo.Map(networks, func(net network.Network, _ int) []string {
					return []string{net.ID, net.Name, net.Status, strings.Join(net.Subnets, ", "), formatBool(net.Shared), formatBool(net.External)}
				})

				return []string{"ID", "Name", "Status", "Subnets", "Shared", "External"}, rows
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&opts.Name, "name", "", "filter by name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "filter by project ID")
	cmd.Flags().BoolVar(&shared, "shared", false, "filter by shared flag")
	cmd.Flags().BoolVar(&external, "external", false, "filter by router:external flag")

	return cmd
}

func newNetworksShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NETWORK",
		Short: "Show network details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, network.NetworkFinder(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, found.Resource, networkProperties(found.Resource))
		},
	}
}

func networkProperties(net network.Network) tabulator {
	return properties(
		"ID", net.ID,
		"Name", net.Name,
		"Description", orNA(net.Description),
		"Status", net.Status,
		"Admin state up", formatBool(net.AdminStateUp),
		"Shared", formatBool(net.Shared),
		"External", formatBool(net.External),
		"MTU", strconv.Itoa(net.MTU),
		"Project", net.ProjectID,
		"Subnets", orNA(strings.Join(net.Subnets, ", ")),
		"Tags", orNA(strings.Join(net.Tags, ", ")),
		"Created", formatAge(net.CreatedAt),
	)
}

func newNetworksCreateCommand() *cobra.Command {
	var (
		opts   network.CreateNetworkOpts
		shared bool
		down   bool
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			opts.Name = args[0]

			if cmd.Flags().Changed("shared") {
				opts.Shared = &shared
			}

			if down {
				opts.AdminStateUp = lo.ToPtr(false)
			}

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			endpoint, err := network.CreateNetwork(opts)
			if err != nil {
				return err
			}

			created, err := openstack.Query[network.Network](ctx, e.session, endpoint)
			if err != nil {
				return err
			}

			return render(cmd, created, networkProperties(created))
		},
	}

	cmd.Flags().StringVar(&opts.Description, "description", "", "network description")
	cmd.Flags().IntVar(&opts.MTU, "mtu", 0, "maximum transmission unit")
	cmd.Flags().BoolVar(&shared, "shared", false, "share the network with every project")
	cmd.Flags().BoolVar(&down, "disable", false, "create the network administratively down")

	return cmd
}

func newNetworksDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NETWORK [NETWORK...]",
		Short: "Delete networks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteAll(cmd, args, network.NetworkFinder(), func(found *openstack.Found[network.Network]) (openstack.Endpoint, error) {
				return network.DeleteNetwork(found.ID)
			})
		},
	}
}

// NewPortsCommand creates the port command group.
func NewPortsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "port",
		Aliases: []string{"ports"},
		Short:   "Manage network ports",
	}

	cmd.AddCommand(newPortsListCommand())
	cmd.AddCommand(newPortsShowCommand())
	cmd.AddCommand(newPortsDeleteCommand())

	return cmd
}

func newPortsListCommand() *cobra.Command {
	var (
		flags listFlags
		opts  network.ListPortsOpts
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			if opts.NetworkID != "" {
				found, err := find(ctx, e, network.NetworkFinder(), opts.NetworkID)
				if err != nil {
					return err
				}

				opts.NetworkID = found.ID
			}

			ports, err := list[network.Port](ctx, e, network.ListPorts(opts), &flags)
			if err != nil {
				return err
			}

			return render(cmd, ports, func() ([]string, [][]string) {
				rows := lo.Map(ports, func(port network.Port, _ int) []string {
					return []string{port.ID, port.Name, port.MACAddress, portAddresses(port), port.Status}
				})

				return []string{"ID", "Name", "MAC Address", "Fixed IPs", "Status"}, rows
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&opts.Name, "name", "", "filter by name")
	cmd.Flags().StringVar(&opts.NetworkID, "network", "", "filter by network name or ID")
	cmd.Flags().StringVar(&opts.DeviceID, "device", "", "filter by device ID, e.g. a server")
	cmd.Flags().StringVar(&opts.DeviceOwner, "device-owner", "", "filter by device owner")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")

	return cmd
}

func newPortsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show PORT",
		Short: "Show port details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, network.PortFinder(), args[0])
			if err != nil {
				return err
			}

			port := found.Resource

			return render(cmd, port, properties(
				"ID", port.ID,
				"Name", orNA(port.Name),
				"Network", port.NetworkID,
				"MAC address", port.MACAddress,
				"Fixed IPs", orNA(portAddresses(port)),
				"Status", port.Status,
				"Admin state up", formatBool(port.AdminStateUp),
				"Device", orNA(port.DeviceID),
				"Device owner", orNA(port.DeviceOwner),
				"Security groups", orNA(strings.Join(port.SecurityGroups, ", ")),
				"Project", port.ProjectID,
				"Created", formatAge(port.CreatedAt),
			))
		},
	}
}

func newPortsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PORT [PORT...]",
		Short: "Delete ports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteAll(cmd, args, network.PortFinder(), func(found *openstack.Found[network.Port]) (openstack.Endpoint, error) {
				return network.DeletePort(found.ID)
			})
		},
	}
}

func portAddresses(port network.Port) string {
	return strings.Join(lo.Map(port.FixedIPs, func(ip network.FixedIP, _ int) string { return ip.IPAddress }), ", ")
}
