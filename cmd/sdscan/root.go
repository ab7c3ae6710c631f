package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sagardeyrakesh/sdpattern/pkg/logging"
)

var (
	verbose  bool
	quiet    bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "sdscan",
	Short: "sdscan - structured sensitive data scanner",
	Long: `sdscan finds structured sensitive data such as payment card numbers and
social security numbers in files and streams.

Each rule names a pattern (a built-in recognizer or a custom shape) and a
threshold. A buffer raises an alert for a rule once it holds at least
threshold validated occurrences of the pattern.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveLogLevel turns the verbosity flags into a zerolog level name.
// An explicit --log-level wins.
func resolveLogLevel() string {
	switch {
	case logLevel != "":
		return logLevel
	case quiet:
		return "error"
	case verbose:
		return "debug"
	default:
		return "info"
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	logging.SetupLogger(logging.Config{
		Level:  resolveLogLevel(),
		Pretty: colorEnabled("auto"),
		Out:    cmd.ErrOrStderr(),
	})
	log.Debug().Str("command", cmd.CommandPath()).Msg("starting")
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
