package commands

import (
	"strconv"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/loadbalancer"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// NewLoadBalancersCommand creates the loadbalancer command group.
func NewLoadBalancersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "loadbalancer",
		Aliases: []string{"loadbalancers", "lb"},
		Short:   "Manage Octavia load balancers",
	}

	cmd.AddCommand(newLoadBalancersListCommand())
	cmd.AddCommand(newLoadBalancersShowCommand())
	cmd.AddCommand(newLoadBalancersDeleteCommand())

	return cmd
}

func newLoadBalancersListCommand() *cobra.Command {
	var (
		flags listFlags
		opts  loadbalancer.ListOpts
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List load balancers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			balancers, err := list[loadbalancer.LoadBalancer](ctx, e, loadbalancer.ListLoadBalancers(opts), &flags)
			if err != nil {
				return err
			}

			return render(cmd, balancers, func() ([]string, [][]string) {
				rows := lo.Map(balancers, func(lb loadbalancer.LoadBalancer, _ int) []string {
					return []string{lb.ID, lb.Name, lb.VipAddress, lb.ProvisioningStatus, lb.OperatingStatus, lb.Provider}
				})

				return []string{"ID", "Name", "VIP Address", "Provisioning", "Operating", "Provider"}, rows
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&opts.Name, "name", "", "filter by name")
	cmd.Flags().StringVar(&opts.ProvisioningStatus, "provisioning-status", "", "filter by provisioning status")
	cmd.Flags().StringVar(&opts.OperatingStatus, "operating-status", "", "filter by operating status")
	cmd.Flags().StringVar(&opts.VipAddress, "vip-address", "", "filter by VIP address")

	return cmd
}

func newLoadBalancersShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show LOADBALANCER",
		Short: "Show load balancer details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, loadbalancer.Finder(), args[0])
			if err != nil {
				return err
			}

			lb := found.Resource

			return render(cmd, lb, properties(
				"ID", lb.ID,
				"Name", orNA(lb.Name),
				"Description", orNA(lb.Description),
				"Provisioning status", lb.ProvisioningStatus,
				"Operating status", lb.OperatingStatus,
				"Admin state up", formatBool(lb.AdminStateUp),
				"VIP address", lb.VipAddress,
				"VIP port", lb.VipPortID,
				"VIP subnet", lb.VipSubnetID,
				"VIP network", lb.VipNetworkID,
				"Provider", lb.Provider,
				"Flavor", orNA(lb.FlavorID),
				"Project", lb.ProjectID,
				"Listeners", strconv.Itoa(len(lb.Listeners)),
				"Pools", strconv.Itoa(len(lb.Pools)),
				"Created", formatAge(lb.CreatedAt.Time),
				"Updated", formatAge(lb.UpdatedAt.Time),
			))
		},
	}
}

func newLoadBalancersDeleteCommand() *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "delete LOADBALANCER [LOADBALANCER...]",
		Short: "Delete load balancers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteAll(cmd, args, loadbalancer.Finder(), func(found *openstack.Found[loadbalancer.LoadBalancer]) (openstack.Endpoint, error) {
				return loadbalancer.DeleteLoadBalancer(found.ID, cascade)
			})
		},
	}

	cmd.Flags().BoolVar(&cascade, "cascade", false, "also delete listeners, pools and members")

	return cmd
}
