package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "vigor %s\n  commit: %s\n  built:  %s\n  go:     %s %s/%s\n",
			Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print the version number only")
}

// VersionString is the version reported by /api/health and OTel resources.
func VersionString() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
