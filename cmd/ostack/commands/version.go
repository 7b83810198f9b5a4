package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo is the build of the running binary.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
	Go      string `json:"go"`
}

var buildVersion = "dev"

// userAgent identifies the CLI build to the cloud.
func userAgent() string {
	return "ostack/" + buildVersion
}

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date string) *cobra.Command {
	buildVersion = version

	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the ostack CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
				Go:      runtime.Version(),
			}

			return render(cmd, info, properties(
				"Version", info.Version,
				"Commit", info.Commit,
				"Built", info.Built,
				"Go", info.Go,
			))
		},
	}
}
