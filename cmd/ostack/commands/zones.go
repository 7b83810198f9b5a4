package commands

import (
	"strconv"
	"strings"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/dns"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// NewZonesCommand creates the zone command group.
func NewZonesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "zone",
		Aliases: []string{"zones"},
		Short:   "Manage DNS zones",
	}

	cmd.AddCommand(newZonesListCommand())
	cmd.AddCommand(newZonesShowCommand())
	cmd.AddCommand(newZonesDeleteCommand())
	cmd.AddCommand(newZonesRecordSetsCommand())

	return cmd
}

func newZonesListCommand() *cobra.Command {
	var (
		flags listFlags
		opts  dns.ListZonesOpts
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List zones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			if opts.Name != "" {
				opts.Name = dns.Canonical(opts.Name)
			}

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			zones, err := list[dns.Zone](ctx, e, dns.ListZones(opts), &flags)
			if err != nil {
				return err
			}

			return render(cmd, zones, func() ([]string, [][]string) {
				rows := lo.Map(zones, func(zone dns.Zone, _ int) []string {
					return []string{zone.ID, zone.Name, zone.Type, zone.Status, zone.Action}
				})

				return []string{"ID", "Name", "Type", "Status", "Action"}, rows
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&opts.Name, "name", "", "filter by zone name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&opts.Type, "type", "", "PRIMARY or SECONDARY")

	return cmd
}

func newZonesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ZONE",
		Short: "Show zone details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, dns.ZoneFinder(), args[0])
			if err != nil {
				return err
			}

			zone := found.Resource

			return render(cmd, zone, properties(
				"ID", zone.ID,
				"Name", zone.Name,
				"Email", zone.Email,
				"Type", zone.Type,
				"Status", zone.Status,
				"Action", zone.Action,
				"TTL", strconv.Itoa(zone.TTL),
				"Serial", strconv.FormatInt(zone.Serial, 10),
				"Pool", zone.PoolID,
				"Project", zone.ProjectID,
				"Description", orNA(zone.Description),
				"Created", formatAge(zone.CreatedAt.Time),
				"Updated", formatAge(zone.UpdatedAt.Time),
			))
		},
	}
}

func newZonesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ZONE [ZONE...]",
		Short: "Delete zones",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteAll(cmd, args, dns.ZoneFinder(), func(found *openstack.Found[dns.Zone]) (openstack.Endpoint, error) {
				return dns.DeleteZone(found.ID)
			})
		},
	}
}

func newZonesRecordSetsCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "recordsets ZONE",
		Short: "List the record sets of a zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, dns.ZoneFinder(), args[0])
			if err != nil {
				return err
			}

			endpoint, err := dns.ListRecordSets(found.ID, flags.pageSize)
			if err != nil {
				return err
			}

			recordSets, err := list[dns.RecordSet](ctx, e, endpoint, &flags)
			if err != nil {
				return err
			}

			return render(cmd, recordSets, func() ([]string, [][]string) {
				rows := lo.Map(recordSets, func(set dns.RecordSet, _ int) []string {
					ttl := "default"
					if set.TTL != nil {
						ttl = strconv.Itoa(*set.TTL)
					}

					return []string{set.ID, set.Name, set.Type, strings.Join(set.Records, " "), ttl, set.Status}
				})

				return []string{"ID", "Name", "Type", "Records", "TTL", "Status"}, rows
			})
		},
	}

	flags.register(cmd)

	return cmd
}
