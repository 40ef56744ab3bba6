package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set via -ldflags "-X main.version=... -X main.gitCommit=... -X main.buildDate=..."
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func versionString() string {
	if version == "dev" {
		return "development version"
	}
	return version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "veracious version: %s\n", version)
		fmt.Fprintf(out, "  build date: %s\n", buildDate)
		fmt.Fprintf(out, "  git commit: %s\n", gitCommit)
		fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
	},
}
