package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const version = "v0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version number of sieve",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func versionString() string {
	var (
		vcsRevision   = "unknown"
		osBuildInfo   string
		archBuildInfo string
		goVersion     string
	)
	if info, ok := debug.ReadBuildInfo(); ok {
		goVersion = info.GoVersion
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				vcsRevision = setting.Value
			case "GOOS":
				osBuildInfo = setting.Value
			case "GOARCH":
				archBuildInfo = setting.Value
			}
		}
	}
	return fmt.Sprintf("sieve %s %s/%s %s (git commit: %s)", version, osBuildInfo, archBuildInfo, goVersion, vcsRevision)
}
