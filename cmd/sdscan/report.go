package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sagardeyrakesh/sdpattern/pkg/store"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

var (
	reportDatastore string
	reportScanID    string
	reportFormat    string
	reportColor     string
	reportRulesPath string
	reportListScans bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from scan results",
	Long:  "Read alerts from a scan database and print them",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "output", "sdscan.db", "Path to the scan database")
	reportCmd.Flags().StringVar(&reportScanID, "scan", "", "Only report alerts first raised by this scan ID")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
	reportCmd.Flags().StringVar(&reportRulesPath, "rules", "", "Custom rules file or directory used for SARIF rule metadata")
	reportCmd.Flags().BoolVar(&reportListScans, "scans", false, "List scan runs instead of alerts")
}

func runReport(cmd *cobra.Command, args []string) error {
	// Check if it's :memory: (invalid for report)
	if reportDatastore == store.MemoryPath {
		return fmt.Errorf("cannot report from in-memory store")
	}
	if _, err := os.Stat(reportDatastore); err != nil {
		return fmt.Errorf("datastore not found: %s", reportDatastore)
	}

	// Open store
	s, err := store.New(store.Config{Path: reportDatastore})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	if reportListScans {
		return outputScans(cmd, s)
	}

	var alerts []*types.Alert
	if reportScanID != "" {
		alerts, err = s.GetScanAlerts(reportScanID)
	} else {
		alerts, err = s.GetAlerts()
	}
	if err != nil {
		return fmt.Errorf("retrieving alerts: %w", err)
	}

	var rules []*types.Rule
	if reportFormat == "sarif" {
		rules = reportRules(alerts)
	}

	if reportFormat == "human" {
		fmt.Fprintf(cmd.OutOrStdout(), "Datastore: %s\nTotal alerts: %d\n\n", reportDatastore, len(alerts))
	}
	return writeAlerts(cmd.OutOrStdout(), reportFormat, reportColor, alerts, rules)
}

// reportRules returns rule metadata for every rule referenced by alerts.
// Rules that cannot be found are described from the alert itself.
func reportRules(alerts []*types.Alert) []*types.Rule {
	known := make(map[string]*types.Rule)
	loaded, err := loadRuleList(reportRulesPath)
	if err != nil {
		log.Warn().Err(err).Msg("rule metadata unavailable")
	}
	for _, r := range loaded {
		known[r.ID] = r
	}

	var rules []*types.Rule
	seen := make(map[string]bool)
	for _, a := range alerts {
		if seen[a.RuleID] {
			continue
		}
		seen[a.RuleID] = true
		r, ok := known[a.RuleID]
		if !ok {
			r = &types.Rule{ID: a.RuleID, Name: a.RuleName, Pattern: a.Pattern, Threshold: a.Threshold}
		}
		rules = append(rules, r)
	}
	return rules
}

func outputScans(cmd *cobra.Command, s store.Store) error {
	runs, err := s.GetScans()
	if err != nil {
		return fmt.Errorf("retrieving scans: %w", err)
	}

	if reportFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), runs)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tTarget\tStarted\tDuration\tBlobs\tAlerts\n")
	fmt.Fprintf(w, "--\t------\t-------\t--------\t-----\t------\n")
	for _, run := range runs {
		duration := "running"
		if run.Finished() {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID, run.Root, run.StartedAt.Format(time.RFC3339), duration, run.Blobs, run.Alerts)
	}
	return nil
}
