package rule

import (
	"fmt"

	"github.com/sagardeyrakesh/sdpattern"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// ValidateRule checks rule consistency and required fields, and that the
// pattern compiles. Returns error if rule is invalid.
func ValidateRule(r *types.Rule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}

	// Check required fields
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern is required")
	}

	if _, err := sdpattern.CompileSpec(r.Spec()); err != nil {
		return fmt.Errorf("invalid pattern for rule %s: %w", r.ID, err)
	}

	// Validate StructuralID matches computed value
	expectedID := r.ComputeStructuralID()
	if r.StructuralID != "" && r.StructuralID != expectedID {
		return fmt.Errorf("rule %s has inconsistent StructuralID: got %s, expected %s",
			r.ID, r.StructuralID, expectedID)
	}

	return nil
}

// CheckExamples evaluates the rule against its own examples. Every example
// must match and every negative example must not.
func CheckExamples(r *types.Rule) error {
	opt, err := sdpattern.CompileSpec(r.Spec())
	if err != nil {
		return fmt.Errorf("invalid pattern for rule %s: %w", r.ID, err)
	}
	for _, ex := range r.Examples {
		if opt.Evaluate([]byte(ex)) != types.Match {
			return fmt.Errorf("rule %s does not match example %q", r.ID, ex)
		}
	}
	for _, ex := range r.NegativeExamples {
		if opt.Evaluate([]byte(ex)) == types.Match {
			return fmt.Errorf("rule %s matches negative example %q", r.ID, ex)
		}
	}
	return nil
}

// ValidateRuleset checks ruleset consistency and required fields.
// knownRuleIDs is a map of valid rule IDs for reference checking.
// Returns error if ruleset is invalid.
func ValidateRuleset(rs *types.Ruleset, knownRuleIDs map[string]bool) error {
	if rs == nil {
		return fmt.Errorf("ruleset is nil")
	}

	// Check required fields
	if rs.ID == "" {
		return fmt.Errorf("ruleset ID is required")
	}
	if rs.Name == "" {
		return fmt.Errorf("ruleset name is required")
	}
	if len(rs.RuleIDs) == 0 {
		return fmt.Errorf("ruleset %s must reference at least one rule", rs.ID)
	}

	// Validate all referenced rule IDs exist
	if knownRuleIDs != nil {
		for _, ruleID := range rs.RuleIDs {
			if !knownRuleIDs[ruleID] {
				return fmt.Errorf("ruleset %s references unknown rule ID: %s", rs.ID, ruleID)
			}
		}
	}

	// Check for duplicate rule IDs
	seen := make(map[string]bool)
	for _, ruleID := range rs.RuleIDs {
		if seen[ruleID] {
			return fmt.Errorf("ruleset %s contains duplicate rule ID: %s", rs.ID, ruleID)
		}
		seen[ruleID] = true
	}

	return nil
}
