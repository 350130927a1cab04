package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build details",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "nextstep %s\n", version)

		verbose, _ := cmd.Flags().GetBool("verbose")
		if !verbose {
			return
		}
		fmt.Fprintf(out, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision", "vcs.time", "vcs.modified":
					fmt.Fprintf(out, "  %-9s %s\n", s.Key[len("vcs."):]+":", s.Value)
				}
			}
		}
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "Include Go and VCS build details")
}
