package rule

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestLoadRule_Valid(t *testing.T) {
	loader := NewLoader()

	validYAML := `rules:
  - name: Payment Card Number
    id: sd.credit_card.1
    pattern: credit_card
    threshold: 2
    description: Payment card numbers
    references:
      - https://en.wikipedia.org/wiki/Luhn_algorithm
    examples:
      - "4111111111111111 5500000000000004"
    negative_examples:
      - "not a card"
    categories:
      - pci
      - financial
    keywords:
      - card
`

	rule, err := loader.LoadRule([]byte(validYAML))
	if err != nil {
		t.Fatalf("LoadRule failed: %v", err)
	}

	if rule.ID != "sd.credit_card.1" {
		t.Errorf("expected ID sd.credit_card.1, got %s", rule.ID)
	}
	if rule.Name != "Payment Card Number" {
		t.Errorf("expected name 'Payment Card Number', got %s", rule.Name)
	}
	if rule.Pattern != "credit_card" {
		t.Errorf("expected pattern credit_card, got %s", rule.Pattern)
	}
	if rule.Threshold != 2 {
		t.Errorf("expected threshold 2, got %d", rule.Threshold)
	}
	if len(rule.Examples) != 1 {
		t.Errorf("expected 1 example, got %d", len(rule.Examples))
	}
	if len(rule.NegativeExamples) != 1 {
		t.Errorf("expected 1 negative example, got %d", len(rule.NegativeExamples))
	}
	if len(rule.References) != 1 {
		t.Errorf("expected 1 reference, got %d", len(rule.References))
	}
	if len(rule.Categories) != 2 {
		t.Errorf("expected 2 categories, got %d", len(rule.Categories))
	}
	if len(rule.Keywords) != 1 {
		t.Errorf("expected 1 keyword, got %d", len(rule.Keywords))
	}
	if rule.StructuralID == "" {
		t.Error("expected StructuralID to be computed")
	}
}

func TestLoadRule_DefaultThreshold(t *testing.T) {
	rule, err := NewLoader().LoadRule([]byte("rules:\n  - id: sd.x.1\n    name: X\n    pattern: us_social\n"))
	if err != nil {
		t.Fatalf("LoadRule failed: %v", err)
	}
	if rule.Threshold != 1 {
		t.Errorf("expected default threshold 1, got %d", rule.Threshold)
	}
}

func TestLoadRule_InvalidThreshold(t *testing.T) {
	for _, th := range []string{"0", "-2"} {
		_, err := NewLoader().LoadRule([]byte("rules:\n  - id: sd.x.1\n    name: X\n    pattern: us_social\n    threshold: " + th + "\n"))
		if err == nil {
			t.Errorf("expected error for threshold %s", th)
		}
	}
}

func TestLoadRule_QuotedPattern(t *testing.T) {
	yamlData := `rules:
  - id: sd.x.1
    name: X
    pattern: '"\d{4}-\d{4}\V{luhn}"'
`
	rule, err := NewLoader().LoadRule([]byte(yamlData))
	if err != nil {
		t.Fatalf("LoadRule failed: %v", err)
	}
	if rule.Pattern != `\d{4}-\d{4}\V{luhn}` {
		t.Errorf("expected unquoted pattern, got %s", rule.Pattern)
	}
}

func TestLoadRule_UnterminatedQuote(t *testing.T) {
	yamlData := `rules:
  - id: sd.x.1
    name: X
    pattern: '"\d{4}'
`
	if _, err := NewLoader().LoadRule([]byte(yamlData)); err == nil {
		t.Error("expected error for unterminated quoted pattern")
	}
}

func TestLoadRule_InvalidYAML(t *testing.T) {
	loader := NewLoader()

	invalidYAML := `this is not valid yaml: [[[`

	_, err := loader.LoadRule([]byte(invalidYAML))
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadRule_NoRules(t *testing.T) {
	loader := NewLoader()

	_, err := loader.LoadRule([]byte(`rules: []`))
	if err == nil {
		t.Error("expected error for empty rules array")
	}
}

func TestLoadRule_MultipleRules(t *testing.T) {
	loader := NewLoader()

	multipleYAML := `rules:
  - name: Rule 1
    id: sd.test.1
    pattern: us_social
  - name: Rule 2
    id: sd.test.2
    pattern: credit_card
`

	_, err := loader.LoadRule([]byte(multipleYAML))
	if err == nil {
		t.Error("expected error for multiple rules")
	}

	rules, err := loader.LoadRules([]byte(multipleYAML))
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	if len(rules) != 2 {
		t.Errorf("expected 2 rules, got %d", len(rules))
	}
}

func TestLoadRulePath(t *testing.T) {
	dir := t.TempDir()
	one := "rules:\n  - id: sd.a.1\n    name: A\n    pattern: us_social\n"
	two := "rules:\n  - id: sd.b.1\n    name: B\n    pattern: credit_card\n  - id: sd.c.1\n    name: C\n    pattern: 'x\\d{3}'\n"
	if err := os.WriteFile(filepath.Join(dir, "a.yml"), []byte(one), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "b.yaml"), []byte(two), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# rules"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader()
	rules, err := loader.LoadRulePath(dir)
	if err != nil {
		t.Fatalf("LoadRulePath failed: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}

	single, err := loader.LoadRulePath(filepath.Join(dir, "a.yml"))
	if err != nil {
		t.Fatalf("LoadRulePath failed for file: %v", err)
	}
	if len(single) != 1 || single[0].ID != "sd.a.1" {
		t.Errorf("unexpected rules from single file: %+v", single)
	}

	if _, err := loader.LoadRulePath(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestLoadRuleset_Valid(t *testing.T) {
	loader := NewLoader()

	validYAML := `rulesets:
  - id: pii
    name: Personal identifiers
    description: Government issued identifiers
    include_rule_ids:
      - sd.us_social.1
      - sd.us_social_nodashes.1
`

	ruleset, err := loader.LoadRuleset([]byte(validYAML))
	if err != nil {
		t.Fatalf("LoadRuleset failed: %v", err)
	}
	if ruleset.ID != "pii" {
		t.Errorf("expected ID pii, got %s", ruleset.ID)
	}
	if len(ruleset.RuleIDs) != 2 {
		t.Errorf("expected 2 rule IDs, got %d", len(ruleset.RuleIDs))
	}
}

func TestLoadRuleset_InvalidYAML(t *testing.T) {
	_, err := NewLoader().LoadRuleset([]byte(`rulesets: [[[`))
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadRuleset_NoRulesets(t *testing.T) {
	_, err := NewLoader().LoadRuleset([]byte(`rulesets: []`))
	if err == nil {
		t.Error("expected error for empty rulesets array")
	}
}

func TestLoadBuiltinRules_EmptyFS(t *testing.T) {
	// Create a mock filesystem with empty rules directory
	mockFS := fstest.MapFS{
		"rules/.gitkeep": &fstest.MapFile{Data: []byte("")},
	}

	loader := NewLoaderWithFS(mockFS)
	rules, err := loader.LoadBuiltinRules()
	if err != nil {
		t.Fatalf("LoadBuiltinRules failed: %v", err)
	}

	if len(rules) != 0 {
		t.Errorf("expected 0 rules from empty directory, got %d", len(rules))
	}
}

func TestLoadBuiltinRules_WithRules(t *testing.T) {
	ruleYAML := `rules:
  - name: Test Rule
    id: sd.test.1
    pattern: us_social
    categories:
      - test
`

	mockFS := fstest.MapFS{
		"rules/test.yaml": &fstest.MapFile{Data: []byte(ruleYAML)},
	}

	loader := NewLoaderWithFS(mockFS)
	rules, err := loader.LoadBuiltinRules()
	if err != nil {
		t.Fatalf("LoadBuiltinRules failed: %v", err)
	}

	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].ID != "sd.test.1" {
		t.Errorf("expected ID sd.test.1, got %s", rules[0].ID)
	}
}

func TestLoadBuiltinRules_BadRule(t *testing.T) {
	mockFS := fstest.MapFS{
		"rules/bad.yml": &fstest.MapFile{Data: []byte("rules:\n  - id: sd.bad.1\n    name: Bad\n    pattern: us_social\n    threshold: 0\n")},
	}
	if _, err := NewLoaderWithFS(mockFS).LoadBuiltinRules(); err == nil {
		t.Error("expected error for rule with threshold 0")
	}
}

func TestLoadBuiltinRulesets_WithRulesets(t *testing.T) {
	rulesetYAML := `rulesets:
  - id: rs.test
    name: Test Ruleset
    description: Test ruleset
    include_rule_ids:
      - sd.test.1
      - sd.test.2
`

	mockFS := fstest.MapFS{
		"rulesets/test.yaml": &fstest.MapFile{Data: []byte(rulesetYAML)},
	}

	loader := NewLoaderWithFS(mockFS)
	rulesets, err := loader.LoadBuiltinRulesets()
	if err != nil {
		t.Fatalf("LoadBuiltinRulesets failed: %v", err)
	}

	if len(rulesets) != 1 {
		t.Fatalf("expected 1 ruleset, got %d", len(rulesets))
	}
	if rulesets[0].ID != "rs.test" {
		t.Errorf("expected ID rs.test, got %s", rulesets[0].ID)
	}
}

func TestConvertYAMLRule(t *testing.T) {
	threshold := 3
	yr := yamlRule{
		ID:          "sd.test.1",
		Name:        "Test Rule",
		Pattern:     "credit_card",
		Threshold:   &threshold,
		Description: "Test description",
		Examples:    []string{"test example"},
		Categories:  []string{"test"},
	}

	rule, err := convertYAMLRule(yr)
	if err != nil {
		t.Fatalf("convertYAMLRule failed: %v", err)
	}

	if rule.ID != yr.ID {
		t.Errorf("expected ID %s, got %s", yr.ID, rule.ID)
	}
	if rule.Pattern != yr.Pattern {
		t.Errorf("expected Pattern %s, got %s", yr.Pattern, rule.Pattern)
	}
	if rule.Threshold != 3 {
		t.Errorf("expected Threshold 3, got %d", rule.Threshold)
	}

	// Verify StructuralID is correct
	expected := rule.ComputeStructuralID()
	if rule.StructuralID != expected {
		t.Errorf("expected StructuralID %s, got %s", expected, rule.StructuralID)
	}
}

func TestRoundTrip(t *testing.T) {
	// Test that we can load a rule, validate it, and check its examples
	loader := NewLoader()

	ruleYAML := `rules:
  - name: Social Security Number
    id: sd.us_social.1
    pattern: us_social
    examples:
      - "SSN 123-45-6789"
    negative_examples:
      - "SSN 000-45-6789"
    categories:
      - pii
`

	rule, err := loader.LoadRule([]byte(ruleYAML))
	if err != nil {
		t.Fatalf("LoadRule failed: %v", err)
	}
	if err := ValidateRule(rule); err != nil {
		t.Errorf("ValidateRule failed: %v", err)
	}
	if err := CheckExamples(rule); err != nil {
		t.Errorf("CheckExamples failed: %v", err)
	}
}
