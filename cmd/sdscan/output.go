package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/sagardeyrakesh/sdpattern/pkg/rule"
	"github.com/sagardeyrakesh/sdpattern/pkg/sarif"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// styles holds color formatters for human output
type styles struct {
	alertHeading *color.Color
	id           *color.Color
	ruleName     *color.Color
	heading      *color.Color
	count        *color.Color
	metadata     *color.Color
}

// newStyles creates color formatters for human output.
// enabled=false respects --color=never and the NO_COLOR env var.
func newStyles(enabled bool) *styles {
	s := &styles{
		alertHeading: color.New(color.Bold, color.FgHiWhite),
		id:           color.New(color.FgHiGreen),
		ruleName:     color.New(color.Bold, color.FgHiBlue),
		heading:      color.New(color.Bold),
		count:        color.New(color.FgYellow),
		metadata:     color.New(color.FgHiBlue),
	}

	if !enabled {
		for _, c := range []*color.Color{s.alertHeading, s.id, s.ruleName, s.heading, s.count, s.metadata} {
			c.DisableColor()
		}
	}

	return s
}

// colorEnabled resolves a --color mode: auto, always or never.
func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	}
}

// writeAlerts renders alerts in the given format.
func writeAlerts(out io.Writer, format, colorMode string, alerts []*types.Alert, rules []*types.Rule) error {
	switch format {
	case "json":
		return writeJSON(out, alerts)
	case "sarif":
		return writeSARIF(out, alerts, rules)
	case "human":
		writeAlertsHuman(out, newStyles(colorEnabled(colorMode)), alerts)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeAlertsHuman(out io.Writer, s *styles, alerts []*types.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintf(out, "\nNo alerts.\n")
		return
	}

	total := len(alerts)
	for i, a := range alerts {
		fmt.Fprintf(out, "%s (%s %s)\n",
			s.alertHeading.Sprintf("Alert %d/%d", i+1, total),
			s.heading.Sprint("id"),
			s.id.Sprint(a.ID))

		name := a.RuleName
		if name == "" {
			name = a.RuleID
		}
		fmt.Fprintf(out, "%s %s %s\n", s.heading.Sprint("Rule:"), s.ruleName.Sprint(name), s.metadata.Sprintf("(%s)", a.RuleID))
		fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Path:"), a.Path)
		fmt.Fprintf(out, "%s %s %s\n",
			s.heading.Sprint("Count:"),
			s.count.Sprintf("%d/%d", a.Count, a.Threshold),
			s.metadata.Sprintf("pattern %s", a.Pattern))
		fmt.Fprintf(out, "%s %s\n\n", s.heading.Sprint("Blob:"), s.metadata.Sprint(a.BlobID.Hex()))
	}
}

// writeSARIF outputs alerts in SARIF 2.1.0 format
func writeSARIF(out io.Writer, alerts []*types.Alert, rules []*types.Rule) error {
	report := sarif.NewReport()

	for _, r := range rules {
		report.AddRule(r)
	}
	for _, a := range alerts {
		report.AddResult(a)
	}

	jsonBytes, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing SARIF: %w", err)
	}

	if _, err := out.Write(jsonBytes); err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	return nil
}

// loadRules loads builtin or custom rules, narrows them to a ruleset and
// applies include/exclude filters.
func loadRules(path, ruleset, include, exclude string) ([]*types.Rule, error) {
	rules, err := loadRuleList(path)
	if err != nil {
		return nil, err
	}

	if ruleset != "" {
		rs, err := findRuleset(rule.NewLoader(), ruleset)
		if err != nil {
			return nil, err
		}
		if rules, err = rule.SelectRuleset(rules, rs); err != nil {
			return nil, err
		}
	}

	// Apply filtering if patterns specified
	if include != "" || exclude != "" {
		config := rule.FilterConfig{
			Include: rule.ParsePatterns(include),
			Exclude: rule.ParsePatterns(exclude),
		}
		rules, err = rule.Filter(rules, config)
		if err != nil {
			return nil, fmt.Errorf("filtering rules: %w", err)
		}
	}

	return rules, nil
}

func findRuleset(loader *rule.Loader, id string) (*types.Ruleset, error) {
	rulesets, err := loader.LoadBuiltinRulesets()
	if err != nil {
		return nil, fmt.Errorf("loading rulesets: %w", err)
	}
	for _, rs := range rulesets {
		if rs.ID == id {
			return rs, nil
		}
	}
	return nil, fmt.Errorf("unknown ruleset: %s", id)
}
