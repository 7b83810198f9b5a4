package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fivetwenty-io/ostack/internal/auth"
	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/identity"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Static errors for err113 compliance.
var ErrNoAuthURL = errors.New("no auth URL: pass --os-cloud or set OS_AUTH_URL")

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and save the token",
		Long: `Authenticate against Keystone and save the issued token, so that later
commands reuse it until it expires. Prompts for a password when a user is
configured without one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, cloud, err := buildConfig()
			if err != nil {
				return err
			}

			if config.AuthURL == "" {
				return ErrNoAuthURL
			}

			if username != "" {
				config.Username = username
			}

			if _, err := auth.MethodFor(config); errors.Is(err, constants.ErrNoCredentials) {
				err = promptCredentials(cmd, config)
				if err != nil {
					return err
				}
			}

			e, err := connect(commandContext(cmd), config, cloud, false)
			if err != nil {
				return err
			}

			info := e.session.Auth().Info()
			expires, _ := e.session.Auth().ExpiresAt()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s\n", config.AuthURL)

			if info != nil && info.User != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "User:    %s\n", orNA(info.User.Name))
			}

			if info != nil && info.Project != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Project: %s (%s)\n", info.Project.Name, info.Project.ID)
			}

			if !expires.IsZero() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Expires: %s (in %s)\n", expires.Local().Format(time.RFC1123), tokenTTL(expires))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "user name (overrides clouds.yaml and OS_USERNAME)")

	return cmd
}

// promptCredentials asks for whatever password auth is missing.
func promptCredentials(cmd *cobra.Command, config *openstack.Config) error {
	reader := bufio.NewReader(cmd.InOrStdin())

	if config.Username == "" && config.UserID == "" {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Username: ")

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read username: %w", err)
		}

		config.Username = strings.TrimSpace(line)
	}

	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")

	// Only a real terminal can hide the input.
	if file, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		password, err := term.ReadPassword(int(file.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		config.Password = string(password)

		return nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read password: %w", err)
	}

	config.Password = strings.TrimRight(line, "\r\n")

	return nil
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Long:  "Remove the saved token of the selected cloud, optionally revoking it in Keystone first",
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

			if revoke {
				err = revokeSaved(cmd, config, cloud, state, key)
				if err != nil {
					return err
				}
			}

			removed, err := state.Clear(key)
			if err != nil {
				return err
			}

			if !removed {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No saved token")

				return nil
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Successfully logged out")

			return nil
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke the token in Keystone before forgetting it")

	return cmd
}

func revokeSaved(cmd *cobra.Command, config *openstack.Config, cloud string, state *StateFile, key string) error {
	saved, ok := state.Load(key)
	if !ok {
		return nil
	}

	e, err := connect(commandContext(cmd), config, cloud, true)
	if err != nil {
		return err
	}

	endpoint, err := identity.RevokeToken(saved.Token().Token)
	if err != nil {
		return err
	}

	// A token Keystone no longer knows is as good as revoked.
	err = openstack.Ignore(commandContext(cmd), e.session, endpoint)
	if err != nil && !openstack.IsNotFound(err) {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}
