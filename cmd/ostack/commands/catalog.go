package commands

import (
	"sort"
	"strings"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/spf13/cobra"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the service catalog",
		Long:  "Show the services and endpoints the current token gives access to",
	}

	cmd.AddCommand(newCatalogListCommand())

	return cmd
}

func newCatalogListCommand() *cobra.Command {
	var (
		service string
		iface   string
		region  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newSession(commandContext(cmd))
			if err != nil {
				return err
			}

			filter := catalogFilter{service: service, iface: iface, region: region}
			rows := catalogRows(e.session.Catalog(), filter)

			return render(cmd, e.session.Catalog(), func() ([]string, [][]string) {
				return []string{"Type", "Name", "Interface", "Region", "URL"}, rows
			})
		},
	}

	cmd.Flags().StringVar(&service, "service", "", "only show this service type or alias")
	cmd.Flags().StringVar(&iface, "interface", "", "only show this interface (public, internal, admin)")
	cmd.Flags().StringVar(&region, "region", "", "only show this region")

	return cmd
}

type catalogFilter struct {
	service string
	iface   string
	region  string
}

// catalogRows flattens catalog into one row per endpoint.
func catalogRows(catalog openstack.Catalog, filter catalogFilter) [][]string {
	var rows [][]string

	for _, entry := range catalog {
		if filter.service != "" && openstack.ParseServiceType(entry.Type) != openstack.ParseServiceType(filter.service) {
			continue
		}

		for _, endpoint := range entry.Endpoints {
			if filter.iface != "" && !strings.EqualFold(endpoint.Interface, filter.iface) {
				continue
			}

			region := endpoint.Region
			if region == "" {
				region = endpoint.RegionID
			}

			if filter.region != "" && region != filter.region {
				continue
			}

			rows = append(rows, []string{entry.Type, orNA(entry.Name), endpoint.Interface, orNA(region), endpoint.URL})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i][0] < rows[j][0]
	})

	return rows
}
