package commands

import (
	"errors"
	"strings"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/identity"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// Static errors for err113 compliance.
var ErrTokenHasNoUser = errors.New("the current token does not name a user")

// NewProjectsCommand creates the project command group.
func NewProjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Inspect identity projects",
	}

	cmd.AddCommand(newProjectsListCommand())
	cmd.AddCommand(newProjectsShowCommand())

	return cmd
}

func newProjectsListCommand() *cobra.Command {
	var (
		opts    identity.ListProjectsOpts
		mine    bool
		limit   int
		enabled bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Long: `List projects. Keystone does not page projects, so --limit only trims
the output. --mine lists the projects the current user can scope to and
needs no admin role.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			if cmd.Flags().Changed("enabled") {
				opts.Enabled = &enabled
			}

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			var endpoint openstack.Endpoint = identity.ListProjects(opts)

			if mine {
				info := e.session.Auth().Info()
				if info == nil || info.User == nil || info.User.ID == "" {
					return ErrTokenHasNoUser
				}

				endpoint, err = identity.ListUserProjects(info.User.ID)
				if err != nil {
					return err
				}
			}

			projects, err := openstack.Query[[]identity.Project](ctx, e.session, endpoint)
			if err != nil {
				return err
			}

			if limit > 0 && len(projects) > limit {
				projects = projects[:limit]
			}

			return render(cmd, projects, func() ([]string, [][]string) {
				rows := lo.Map(projects, func(project identity.Project, _ int) []string {
					return []string{project.ID, project.Name, project.DomainID, formatBool(project.Enabled)}
				})

				return []string{"ID", "Name", "Domain", "Enabled"}, rows
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "filter by name")
	cmd.Flags().StringVar(&opts.DomainID, "domain", "", "filter by domain ID")
	cmd.Flags().StringVar(&opts.ParentID, "parent", "", "filter by parent project ID")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "filter by enabled flag")
	cmd.Flags().BoolVar(&mine, "mine", false, "only projects of the current user")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for all)")

	return cmd
}

func newProjectsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT",
		Short: "Show project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			found, err := find(ctx, e, identity.ProjectFinder(), args[0])
			if err != nil {
				return err
			}

			project := found.Resource

			return render(cmd, project, properties(
				"ID", project.ID,
				"Name", project.Name,
				"Domain", project.DomainID,
				"Parent", orNA(project.ParentID),
				"Description", orNA(project.Description),
				"Enabled", formatBool(project.Enabled),
				"Is domain", formatBool(project.IsDomain),
				"Tags", orNA(strings.Join(project.Tags, ", ")),
			))
		},
	}
}
