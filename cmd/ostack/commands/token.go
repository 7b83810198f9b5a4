package commands

import (
	"strings"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/identity"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// TokenStatus describes a token without contacting Keystone.
type TokenStatus struct {
	Cloud     string    `json:"cloud"`
	State     string    `json:"state"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	SavedAt   time.Time `json:"saved_at,omitzero"`
	User      string    `json:"user,omitempty"`
	Project   string    `json:"project,omitempty"`
	Domain    string    `json:"domain,omitempty"`
	System    bool      `json:"system,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	Methods   []string  `json:"methods,omitempty"`
}

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect authentication tokens",
		Long:  "Commands for inspecting the saved token and validating tokens against Keystone",
	}

	cmd.AddCommand(newTokenShowCommand())
	cmd.AddCommand(newTokenValidateCommand())

	return cmd
}

func newTokenShowCommand() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved token and whether it is still usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, cloud, err := buildConfig()
			if err != nil {
				return err
			}

			state, err := NewStateFile()
			if err != nil {
				return err
			}

			key := stateKey(cloud, config)
			saved, _ := state.Saved(key)
			status := tokenStatus(key, saved, time.Now(), reveal)

			return render(cmd, status, properties(
				"Cloud", status.Cloud,
				"State", status.State,
				"Token", orNA(status.Token),
				"Expires", formatExpiry(status.ExpiresAt),
				"Saved", formatAge(status.SavedAt),
				"User", orNA(status.User),
				"Project", orNA(status.Project),
				"Domain", orNA(status.Domain),
				"System", formatBool(status.System),
				"Roles", orNA(strings.Join(status.Roles, ", ")),
			))
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the token itself instead of masking it")

	return cmd
}

// tokenStatus summarizes saved, which may be nil.
func tokenStatus(key string, saved *CloudState, now time.Time, reveal bool) TokenStatus {
	auth := saved.Auth()
	status := TokenStatus{
		Cloud: key,
		State: auth.State(now, constants.TokenExpirationBuffer).String(),
	}

	if !auth.IsSet() {
		return status
	}

	status.Token = constants.MaskedSecret
	if reveal {
		status.Token = auth.Token().Token
	}

	status.SavedAt = saved.SavedAt
	status.ExpiresAt, _ = auth.ExpiresAt()

	if info := auth.Info(); info != nil {
		status.User = scopeName(info.User)
		status.Project = scopeName(info.Project)
		status.Domain = scopeName(info.Domain)
		status.System = info.System
		status.Methods = info.Methods
		status.Roles = lo.Map(info.Roles, func(role openstack.ScopeRef, _ int) string { return role.Name })
	}

	return status
}

func newTokenValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [TOKEN]",
		Short: "Ask Keystone whether a token is valid",
		Long:  "Validate TOKEN, or the token of the current session, and show what Keystone reports about it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			e, err := newSession(ctx)
			if err != nil {
				return err
			}

			subject := e.session.Auth().Token().Token
			if len(args) == 1 {
				subject = args[0]
			}

			endpoint, err := identity.ValidateToken(subject)
			if err != nil {
				return err
			}

			info, err := openstack.Query[openstack.AuthInfo](ctx, e.session, endpoint)
			if err != nil {
				return err
			}

			return render(cmd, info, properties(
				"Expires", formatExpiry(info.ExpiresAt),
				"Issued", formatAge(info.IssuedAt),
				"Methods", strings.Join(info.Methods, ", "),
				"User", orNA(scopeName(info.User)),
				"Project", orNA(scopeName(info.Project)),
				"Domain", orNA(scopeName(info.Domain)),
				"System", formatBool(info.System),
				"Catalog entries", lo.Ternary(len(info.Catalog) > 0, strings.Join(catalogTypes(info.Catalog), ", "), constants.NotAvailable),
			))
		},
	}
}

func scopeName(ref *openstack.ScopeRef) string {
	if ref == nil {
		return ""
	}

	if ref.Name == "" {
		return ref.ID
	}

	if ref.Domain != nil && ref.Domain.Name != "" {
		return ref.Name + "@" + ref.Domain.Name
	}

	return ref.Name
}

func formatExpiry(expires time.Time) string {
	if expires.IsZero() {
		return constants.NotAvailable
	}

	return expires.Local().Format(time.RFC1123) + " (" + formatAge(expires) + ")"
}

func catalogTypes(catalog openstack.Catalog) []string {
	return lo.Map(catalog, func(service openstack.CatalogService, _ int) string { return service.Type })
}
