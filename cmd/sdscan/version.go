package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sagardeyrakesh/sdpattern/pkg/sarif"
)

var (
	version = "dev"
	commit  = "unknown"
)

func init() {
	sarif.ToolVersion = version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version of sdscan",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "sdscan v%s\n", version)
	fmt.Fprintf(out, "Commit: %s\n", commit)
	fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}
