package types

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// DefaultThreshold is the number of matches required when a rule omits it.
const DefaultThreshold = 1

// Rule is a sensitive-data detection rule as loaded from a rule file.
type Rule struct {
	ID               string   // e.g., "sd.credit_card.1"
	Name             string   // human-readable name
	Pattern          string   // built-in name or custom shape, already unquoted
	Threshold        int      // matches required before alerting
	StructuralID     string   // SHA-1 of pattern and threshold (computed)
	Description      string   // optional
	Examples         []string // buffers that must alert
	NegativeExamples []string // buffers that must not alert
	References       []string // documentation URLs
	Categories       []string // classification tags
	Keywords         []string // keywords for Aho-Corasick prefiltering
}

// Spec returns the pattern configuration carried by the rule.
func (r *Rule) Spec() PatternSpec {
	return PatternSpec{Pattern: r.Pattern, Threshold: r.Threshold}
}

// ComputeStructuralID computes SHA-1 over the pattern text and threshold.
// Two rules with the same pattern and threshold share a structural ID
// regardless of their ID, name or metadata.
func (r *Rule) ComputeStructuralID() string {
	return r.Spec().ComputeStructuralID()
}

// PatternSpec is the compiled configuration unit of a rule option.
type PatternSpec struct {
	Pattern   string
	Threshold int
}

// ComputeStructuralID returns SHA-1(pattern + '\0' + threshold) as hex.
func (s PatternSpec) ComputeStructuralID() string {
	h := sha1.New()
	h.Write([]byte(s.Pattern))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(s.Threshold)))
	return hex.EncodeToString(h.Sum(nil))
}

// Ruleset is a named group of rules, referenced by rule ID.
type Ruleset struct {
	ID          string
	Name        string
	Description string
	RuleIDs     []string
}
