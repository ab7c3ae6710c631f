package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sagardeyrakesh/sdpattern/pkg/rule"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

var (
	rulesPath    string
	outputFormat string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage detection rules",
	Long:  "Commands for listing and checking detection rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long:  "Display all available detection rules with their IDs, patterns and thresholds",
	RunE:  runRulesList,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate rules against their examples",
	Long: `Compile every rule and evaluate it against its examples and negative
examples. Builtin rulesets are checked for unknown or duplicate rule IDs.`,
	RunE: runRulesCheck,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Path to custom rules file or directory")
	rulesListCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json")
}

// loadRuleList loads the rules at path, or the builtin rules when path is empty.
func loadRuleList(path string) ([]*types.Rule, error) {
	loader := rule.NewLoader()
	if path != "" {
		rules, err := loader.LoadRulePath(path)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", path, err)
		}
		return rules, nil
	}
	rules, err := loader.LoadBuiltinRules()
	if err != nil {
		return nil, fmt.Errorf("loading builtin rules: %w", err)
	}
	return rules, nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := loadRuleList(rulesPath)
	if err != nil {
		return err
	}

	// Output based on format
	switch outputFormat {
	case "json":
		return outputRulesJSON(cmd, rules)
	case "table":
		return outputRulesTable(cmd, rules)
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	rules, err := loadRuleList(rulesPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var errs []error
	known := make(map[string]bool, len(rules))
	for _, r := range rules {
		if known[r.ID] {
			errs = append(errs, fmt.Errorf("duplicate rule ID: %s", r.ID))
		}
		known[r.ID] = true

		err := rule.ValidateRule(r)
		if err == nil {
			err = rule.CheckExamples(r)
		}
		if err != nil {
			fmt.Fprintf(out, "FAIL  %s: %v\n", r.ID, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "ok    %s (%d examples, %d negative)\n", r.ID, len(r.Examples), len(r.NegativeExamples))
	}

	if rulesPath == "" {
		rulesets, err := rule.NewLoader().LoadBuiltinRulesets()
		if err != nil {
			return fmt.Errorf("loading rulesets: %w", err)
		}
		for _, rs := range rulesets {
			if err := rule.ValidateRuleset(rs, known); err != nil {
				fmt.Fprintf(out, "FAIL  ruleset %s: %v\n", rs.ID, err)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "ok    ruleset %s (%d rules)\n", rs.ID, len(rs.RuleIDs))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d rule check(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func outputRulesJSON(cmd *cobra.Command, rules []*types.Rule) error {
	return writeJSON(cmd.OutOrStdout(), rules)
}

func outputRulesTable(cmd *cobra.Command, rules []*types.Rule) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tPattern\tThreshold\tCategories\n")
	fmt.Fprintf(w, "--\t----\t-------\t---------\t----------\n")

	for _, r := range rules {
		categories := ""
		if len(r.Categories) > 0 {
			categories = r.Categories[0]
			if len(r.Categories) > 1 {
				categories += fmt.Sprintf(" (+%d)", len(r.Categories)-1)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Pattern, r.Threshold, categories)
	}

	return nil
}
