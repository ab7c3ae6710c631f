package rule

import (
	"errors"
	"strings"
	"testing"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

func TestValidateRule_Valid(t *testing.T) {
	rule := &types.Rule{
		ID:        "sd.test.1",
		Name:      "Test Rule",
		Pattern:   `\d{3}-\d{4}`,
		Threshold: 1,
	}
	rule.StructuralID = rule.ComputeStructuralID()

	err := ValidateRule(rule)
	if err != nil {
		t.Errorf("ValidateRule failed for valid rule: %v", err)
	}
}

func TestValidateRule_NilRule(t *testing.T) {
	err := ValidateRule(nil)
	if err == nil {
		t.Fatal("expected error for nil rule")
	}
	if !strings.Contains(err.Error(), "nil") {
		t.Errorf("expected 'nil' in error message, got: %v", err)
	}
}

func TestValidateRule_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		rule *types.Rule
		want string
	}{
		{"missing ID", &types.Rule{Name: "Test Rule", Pattern: "us_social", Threshold: 1}, "ID"},
		{"missing name", &types.Rule{ID: "sd.test.1", Pattern: "us_social", Threshold: 1}, "name"},
		{"missing pattern", &types.Rule{ID: "sd.test.1", Name: "Test Rule", Threshold: 1}, "pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRule(tt.rule)
			if err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error message, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidateRule_InvalidPattern(t *testing.T) {
	rule := &types.Rule{
		ID:        "sd.test.1",
		Name:      "Test Rule",
		Pattern:   `\d{4`,
		Threshold: 1,
	}

	err := ValidateRule(rule)
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if !errors.Is(err, types.ErrCompile) {
		t.Errorf("expected ErrCompile in chain, got: %v", err)
	}
}

func TestValidateRule_InvalidThreshold(t *testing.T) {
	rule := &types.Rule{ID: "sd.test.1", Name: "Test Rule", Pattern: "us_social"}

	err := ValidateRule(rule)
	if err == nil {
		t.Fatal("expected error for zero threshold")
	}
	if !strings.Contains(err.Error(), "threshold") {
		t.Errorf("expected 'threshold' in error message, got: %v", err)
	}
}

func TestValidateRule_InconsistentStructuralID(t *testing.T) {
	rule := &types.Rule{
		ID:           "sd.test.1",
		Name:         "Test Rule",
		Pattern:      "us_social",
		Threshold:    1,
		StructuralID: "wrong-id",
	}

	err := ValidateRule(rule)
	if err == nil {
		t.Fatal("expected error for inconsistent StructuralID")
	}
	if !strings.Contains(err.Error(), "StructuralID") {
		t.Errorf("expected 'StructuralID' in error message, got: %v", err)
	}
}

func TestValidateRule_EmptyStructuralID(t *testing.T) {
	rule := &types.Rule{ID: "sd.test.1", Name: "Test Rule", Pattern: "us_social", Threshold: 1}
	if err := ValidateRule(rule); err != nil {
		t.Errorf("ValidateRule should accept empty StructuralID: %v", err)
	}
}

func TestCheckExamples(t *testing.T) {
	rule := &types.Rule{
		ID:               "sd.test.1",
		Name:             "Test Rule",
		Pattern:          "us_social",
		Threshold:        2,
		Examples:         []string{"123-45-6789 and 234-56-7890"},
		NegativeExamples: []string{"only 123-45-6789"},
	}
	if err := CheckExamples(rule); err != nil {
		t.Errorf("CheckExamples failed: %v", err)
	}

	rule.Examples = append(rule.Examples, "nothing here")
	if err := CheckExamples(rule); err == nil || !strings.Contains(err.Error(), "does not match example") {
		t.Errorf("expected example failure, got: %v", err)
	}

	rule.Examples = nil
	rule.NegativeExamples = []string{"123-45-6789 234-56-7890"}
	if err := CheckExamples(rule); err == nil || !strings.Contains(err.Error(), "matches negative example") {
		t.Errorf("expected negative example failure, got: %v", err)
	}
}

func TestValidateRuleset(t *testing.T) {
	known := map[string]bool{"sd.a.1": true, "sd.b.1": true}

	tests := []struct {
		name    string
		ruleset *types.Ruleset
		known   map[string]bool
		want    string
	}{
		{"valid", &types.Ruleset{ID: "rs", Name: "RS", RuleIDs: []string{"sd.a.1", "sd.b.1"}}, known, ""},
		{"nil known rules", &types.Ruleset{ID: "rs", Name: "RS", RuleIDs: []string{"sd.z.1"}}, nil, ""},
		{"nil ruleset", nil, known, "nil"},
		{"missing ID", &types.Ruleset{Name: "RS", RuleIDs: []string{"sd.a.1"}}, known, "ID"},
		{"missing name", &types.Ruleset{ID: "rs", RuleIDs: []string{"sd.a.1"}}, known, "name"},
		{"empty rule IDs", &types.Ruleset{ID: "rs", Name: "RS"}, known, "at least one"},
		{"unknown rule", &types.Ruleset{ID: "rs", Name: "RS", RuleIDs: []string{"sd.z.1"}}, known, "unknown rule ID"},
		{"duplicate rule", &types.Ruleset{ID: "rs", Name: "RS", RuleIDs: []string{"sd.a.1", "sd.a.1"}}, known, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleset(tt.ruleset, tt.known)
			if tt.want == "" {
				if err != nil {
					t.Errorf("ValidateRuleset failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}
