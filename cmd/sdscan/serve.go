package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sagardeyrakesh/sdpattern/pkg/engine"
	"github.com/sagardeyrakesh/sdpattern/pkg/serve"
)

var (
	serveRulesPath    string
	serveRuleset      string
	serveRulesInclude string
	serveRulesExclude string
	serveFoldKeywords bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming evaluation server",
	Long: `Run sdscan as a long-lived server that accepts evaluation requests on
stdin and writes results to stdout, one JSON object per line.

Rules are compiled once at startup. Requests are processed until stdin
closes, a "close" request arrives, or SIGTERM is received. Logs go to
stderr so stdout carries only protocol messages.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveRulesPath, "rules", "", "Path to custom rules file or directory")
	serveCmd.Flags().StringVar(&serveRuleset, "ruleset", "", "Restrict to the rules of a built-in ruleset")
	serveCmd.Flags().StringVar(&serveRulesInclude, "rules-include", "", "Include rules matching regex patterns (comma-separated)")
	serveCmd.Flags().StringVar(&serveRulesExclude, "rules-exclude", "", "Exclude rules matching regex patterns (comma-separated)")
	serveCmd.Flags().BoolVar(&serveFoldKeywords, "keywords-ignore-case", false, "Match rule keywords case-insensitively")
}

func runServe(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(serveRulesPath, serveRuleset, serveRulesInclude, serveRulesExclude)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return fmt.Errorf("no rules selected")
	}

	engineOpts := []engine.Option{engine.WithLogger(log.Logger)}
	if serveFoldKeywords {
		engineOpts = append(engineOpts, engine.WithKeywordCaseFolding())
	}
	eng, err := engine.New(rules, engineOpts...)
	if err != nil {
		return fmt.Errorf("compiling rules: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info().Int("rules", len(eng.Entries())).Int("options", len(eng.Options())).Msg("serving")

	srv := serve.NewServer(eng, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}
