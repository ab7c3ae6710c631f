package rule

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// filterMatchTimeout bounds a single include/exclude regex evaluation.
const filterMatchTimeout = 100 * time.Millisecond

// FilterConfig specifies include and exclude patterns for rule filtering.
type FilterConfig struct {
	Include []string // Regex patterns - only matching rules included
	Exclude []string // Regex patterns - matching rules excluded
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include and exclude patterns to rule IDs.
// Include is applied first, then exclude.
// Empty include means "include all".
// Returns error if any pattern is invalid regex.
func Filter(rules []*types.Rule, config FilterConfig) ([]*types.Rule, error) {
	if len(rules) == 0 {
		return rules, nil
	}

	includeRegexes, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	excludeRegexes, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	filtered := rules
	if len(includeRegexes) > 0 {
		if filtered, err = selectRules(filtered, includeRegexes, true); err != nil {
			return nil, err
		}
	}
	if len(excludeRegexes) > 0 {
		if filtered, err = selectRules(filtered, excludeRegexes, false); err != nil {
			return nil, err
		}
	}
	return filtered, nil
}

// SelectRuleset returns the rules referenced by rs, in ruleset order.
func SelectRuleset(rules []*types.Rule, rs *types.Ruleset) ([]*types.Rule, error) {
	byID := make(map[string]*types.Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}
	out := make([]*types.Rule, 0, len(rs.RuleIDs))
	for _, id := range rs.RuleIDs {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("ruleset %s references unknown rule ID: %s", rs.ID, id)
		}
		out = append(out, r)
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func compileAll(patterns []string) ([]*regexp2.Regexp, error) {
	var out []*regexp2.Regexp
	for _, pattern := range patterns {
		re, err := regexp2.Compile(pattern, regexp2.RE2)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		re.MatchTimeout = filterMatchTimeout
		out = append(out, re)
	}
	return out, nil
}

func selectRules(rules []*types.Rule, regexes []*regexp2.Regexp, keep bool) ([]*types.Rule, error) {
	result := make([]*types.Rule, 0)
	for _, rule := range rules {
		hit, err := matchesAny(rule.ID, regexes)
		if err != nil {
			return nil, err
		}
		if hit == keep {
			result = append(result, rule)
		}
	}
	return result, nil
}

func matchesAny(ruleID string, regexes []*regexp2.Regexp) (bool, error) {
	for _, re := range regexes {
		ok, err := re.MatchString(ruleID)
		if err != nil {
			return false, fmt.Errorf("matching rule %s against %q: %w", ruleID, re.String(), err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
