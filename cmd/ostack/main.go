package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/ostack/cmd/ostack/commands"
	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ostack",
	Short: "OpenStack CLI",
	Long: `A command-line interface for OpenStack clouds.

Clouds are read from clouds.yaml (./, ~/.config/openstack or /etc/openstack)
and the usual OS_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "clouds.yaml to read (default searches ./, ~/.config/openstack, /etc/openstack)")
	rootCmd.PersistentFlags().String("os-cloud", "", "cloud name in clouds.yaml (env OS_CLOUD)")
	rootCmd.PersistentFlags().String("os-region-name", "", "region to use from the service catalog")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringP("query", "q", "", "jq expression applied to json or yaml output")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-request timeout (default 30s)")
	rootCmd.PersistentFlags().Int("retries", constants.DefaultRetryMax, "times to retry throttled, failed idempotent or unreachable requests")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "log every HTTP request and response")
	rootCmd.PersistentFlags().Bool("insecure", false, "skip TLS certificate verification (requires "+constants.EnvDevMode+")")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("cloud", rootCmd.PersistentFlags().Lookup("os-cloud"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("os-region-name"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("query", rootCmd.PersistentFlags().Lookup("query"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("retries", rootCmd.PersistentFlags().Lookup("retries"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("insecure", rootCmd.PersistentFlags().Lookup("insecure"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())
	rootCmd.AddCommand(commands.NewCatalogCommand())
	rootCmd.AddCommand(commands.NewServersCommand())
	rootCmd.AddCommand(commands.NewFlavorsCommand())
	rootCmd.AddCommand(commands.NewNetworksCommand())
	rootCmd.AddCommand(commands.NewPortsCommand())
	rootCmd.AddCommand(commands.NewProjectsCommand())
	rootCmd.AddCommand(commands.NewImagesCommand())
	rootCmd.AddCommand(commands.NewVolumesCommand())
	rootCmd.AddCommand(commands.NewZonesCommand())
	rootCmd.AddCommand(commands.NewContainersCommand())
	rootCmd.AddCommand(commands.NewObjectsCommand())
	rootCmd.AddCommand(commands.NewLoadBalancersCommand())
}

func initConfig() {
	// OS_AUTH_URL is read as "auth_url", OS_CLOUD as "cloud" and so on.
	viper.SetEnvPrefix("OS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("nats_url", constants.EnvNATSURL)

	cfgFile := viper.GetString("config")
	if cfgFile == "" {
		cfgFile = viper.GetString("client_config_file")
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("clouds")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "openstack"))
		}

		viper.AddConfigPath("/etc/openstack")
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
