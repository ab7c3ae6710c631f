package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sagardeyrakesh/sdpattern/pkg/engine"
	"github.com/sagardeyrakesh/sdpattern/pkg/enum"
	"github.com/sagardeyrakesh/sdpattern/pkg/store"
	"github.com/sagardeyrakesh/sdpattern/pkg/telemetry"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

var (
	scanRulesPath     string
	scanRuleset       string
	scanRulesInclude  string
	scanRulesExclude  string
	scanOutputPath    string
	scanOutputFormat  string
	scanColor         string
	scanWorkers       int
	scanMaxFileSize   int64
	scanIncludeHidden bool
	scanIncludeBinary bool
	scanIncremental   bool
	scanMetrics       bool
	scanFoldKeywords  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Scan a target for sensitive data",
	Long: `Scan a file or directory for sensitive data using detection rules.
Use "-" as the target to scan standard input as a single buffer.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanRulesPath, "rules", "", "Path to custom rules file or directory")
	scanCmd.Flags().StringVar(&scanRuleset, "ruleset", "", "Only use rules from this builtin ruleset (e.g. pci, pii)")
	scanCmd.Flags().StringVar(&scanRulesInclude, "rules-include", "", "Include rules matching regex pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanRulesExclude, "rules-exclude", "", "Exclude rules matching regex pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanOutputPath, "output", store.MemoryPath, "Output database path")
	scanCmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: human, json, sarif")
	scanCmd.Flags().StringVar(&scanColor, "color", "auto", "Color output: auto, always, never")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", runtime.NumCPU(), "Number of evaluation workers")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().BoolVar(&scanIncludeBinary, "include-binary", false, "Scan files that contain NUL bytes")
	scanCmd.Flags().BoolVar(&scanIncremental, "incremental", false, "Skip blobs already recorded in the output database")
	scanCmd.Flags().BoolVar(&scanMetrics, "metrics", false, "Write Prometheus text metrics to stderr after the scan")
	scanCmd.Flags().BoolVar(&scanFoldKeywords, "keywords-ignore-case", false, "Match rule keywords regardless of case")
}

// blob is one buffer handed from the enumerator to the workers.
type blob struct {
	content []byte
	id      types.BlobID
	prov    types.Provenance
}

// scanSummary counts what a scan did.
type scanSummary struct {
	blobs   atomic.Int64
	skipped atomic.Int64
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]

	// Validate target exists
	if target != "-" {
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("target does not exist: %s", target)
		}
	}
	if scanWorkers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}
	switch scanOutputFormat {
	case "human", "json", "sarif":
	default:
		return fmt.Errorf("unknown output format: %s", scanOutputFormat)
	}

	// Load rules
	rules, err := loadRules(scanRulesPath, scanRuleset, scanRulesInclude, scanRulesExclude)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	if len(rules) == 0 {
		return fmt.Errorf("no rules selected")
	}

	engineOpts := []engine.Option{engine.WithLogger(log.Logger)}
	if scanFoldKeywords {
		engineOpts = append(engineOpts, engine.WithKeywordCaseFolding())
	}
	eng, err := engine.New(rules, engineOpts...)
	if err != nil {
		return fmt.Errorf("compiling rules: %w", err)
	}

	metrics := telemetry.NewMetrics()

	// Create enumerator
	enumerator, err := createEnumerator(cmd, target, metrics)
	if err != nil {
		return err
	}

	// Create store
	s, err := store.New(store.Config{Path: scanOutputPath})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer s.Close()

	run, err := s.BeginScan(target)
	if err != nil {
		return fmt.Errorf("starting scan: %w", err)
	}
	log.Info().Str("scan", run.ID).Str("target", target).Int("rules", len(rules)).Msg("scan started")

	// Scan
	summary := &scanSummary{}
	workers, err := scanBlobs(cmd.Context(), enumerator, eng, s, run.ID, metrics, summary)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	optionStats := engine.MergeStats(workers...)
	for _, st := range optionStats {
		metrics.RecordStats(st.Pattern, st.Threshold, st.Stats)
	}

	// Alerts already stored by an earlier run are not raised again, so the
	// run's count is what the store kept.
	alerts, err := s.GetScanAlerts(run.ID)
	if err != nil {
		return fmt.Errorf("retrieving alerts: %w", err)
	}
	run.Blobs = int(summary.blobs.Load())
	run.Alerts = len(alerts)
	if err := s.FinishScan(run); err != nil {
		return fmt.Errorf("finishing scan: %w", err)
	}

	total := engine.Total(optionStats)
	log.Info().
		Str("scan", run.ID).
		Int("blobs", run.Blobs).
		Int64("skipped", summary.skipped.Load()).
		Int("alerts", run.Alerts).
		Uint64("bytes", total.Bytes).
		Msg("scan complete")

	if scanMetrics {
		if err := metrics.WriteText(cmd.ErrOrStderr()); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	// Summary goes to stderr for json/sarif to keep stdout machine-readable
	summaryOut := cmd.OutOrStdout()
	if scanOutputFormat != "human" {
		summaryOut = cmd.ErrOrStderr()
	}
	if scanIncremental {
		fmt.Fprintf(summaryOut, "Scan complete: %d blobs, %d alerts (%d blobs skipped)\n", run.Blobs, run.Alerts, summary.skipped.Load())
	} else {
		fmt.Fprintf(summaryOut, "Scan complete: %d blobs, %d alerts\n", run.Blobs, run.Alerts)
	}
	if scanOutputPath != store.MemoryPath {
		fmt.Fprintf(summaryOut, "Results stored in: %s\n", scanOutputPath)
	}

	return writeAlerts(cmd.OutOrStdout(), scanOutputFormat, scanColor, alerts, rules)
}

// scanBlobs feeds enumerated blobs to scanWorkers goroutines, each owning
// one engine.Worker, and stores every alert raised. It returns the workers
// so their counters can be merged.
func scanBlobs(ctx context.Context, enumerator enum.Enumerator, eng *engine.Engine, s store.Store, runID string, metrics *telemetry.Metrics, summary *scanSummary) ([]*engine.Worker, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	g, ctx := errgroup.WithContext(ctx)
	blobs := make(chan blob, scanWorkers*2)

	g.Go(func() error {
		defer close(blobs)
		return enumerator.Enumerate(ctx, func(content []byte, blobID types.BlobID, prov types.Provenance) error {
			if scanIncremental {
				exists, err := s.BlobExists(blobID)
				if err != nil {
					return fmt.Errorf("checking blob: %w", err)
				}
				if exists {
					summary.skipped.Add(1)
					log.Debug().Str("path", prov.Path()).Msg("blob already scanned")
					return nil
				}
			}
			select {
			case blobs <- blob{content: content, id: blobID, prov: prov}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	workers := make([]*engine.Worker, scanWorkers)
	for i := range workers {
		w := eng.NewWorker()
		workers[i] = w
		g.Go(func() error {
			for b := range blobs {
				if err := evaluateBlob(w, s, runID, metrics, summary, b); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return workers, nil
}

func evaluateBlob(w *engine.Worker, s store.Store, runID string, metrics *telemetry.Metrics, summary *scanSummary, b blob) error {
	summary.blobs.Add(1)
	metrics.RecordFile()

	// Store blob
	if err := s.AddBlob(b.id, int64(len(b.content))); err != nil {
		return fmt.Errorf("storing blob: %w", err)
	}

	// Store provenance
	if err := s.AddProvenance(b.id, b.prov); err != nil {
		return fmt.Errorf("storing provenance: %w", err)
	}

	for _, a := range w.Evaluate(b.content, b.prov) {
		metrics.RecordAlert(a.RuleID)
		log.Debug().Str("rule", a.RuleID).Str("path", a.Path).Int("count", a.Count).Msg("alert")
		if err := s.AddAlert(runID, a); err != nil {
			return fmt.Errorf("storing alert: %w", err)
		}
	}
	return nil
}

func createEnumerator(cmd *cobra.Command, target string, metrics *telemetry.Metrics) (enum.Enumerator, error) {
	if target == "-" {
		return enum.NewReaderEnumerator(cmd.InOrStdin(), "stdin", scanMaxFileSize), nil
	}

	config := enum.Config{
		Root:           target,
		IncludeHidden:  scanIncludeHidden,
		MaxFileSize:    scanMaxFileSize,
		FollowSymlinks: false,
		IncludeBinary:  scanIncludeBinary,
		Readers:        scanWorkers,
		OnSkip: func(path, reason string) {
			metrics.RecordSkipped(reason)
			log.Debug().Str("path", path).Str("reason", reason).Msg("skipped file")
		},
	}
	return enum.NewFilesystemEnumerator(config), nil
}
