// Package prefilter narrows a rule set to the rules whose keywords occur in
// a buffer before any pattern walk runs.
package prefilter

import (
	"bytes"
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// Prefilter uses Aho-Corasick for efficient keyword matching.
// The underlying matcher keeps per-call scratch state, so a Prefilter must
// not be shared between goroutines; build one per worker.
type Prefilter struct {
	matcher      *ahocorasick.Matcher
	keywords     []string         // keyword at each index
	keywordRules map[string][]int // keyword -> indexes of rules needing it
	rules        []*types.Rule
	always       []int // rules without keywords (always checked)
	foldCase     bool
}

// Option configures a Prefilter.
type Option func(*Prefilter)

// WithCaseFolding matches keywords regardless of ASCII case.
func WithCaseFolding() Option {
	return func(pf *Prefilter) {
		pf.foldCase = true
	}
}

// New creates a prefilter from rules.
func New(rules []*types.Rule, opts ...Option) *Prefilter {
	pf := &Prefilter{
		keywordRules: make(map[string][]int),
		rules:        rules,
	}
	for _, opt := range opts {
		opt(pf)
	}

	// Collect all keywords and build mapping
	keywordSet := make(map[string]bool)
	for i, rule := range rules {
		if len(rule.Keywords) == 0 {
			pf.always = append(pf.always, i)
			continue
		}
		for _, keyword := range rule.Keywords {
			if pf.foldCase {
				keyword = strings.ToLower(keyword)
			}
			if !keywordSet[keyword] {
				keywordSet[keyword] = true
				pf.keywords = append(pf.keywords, keyword)
			}
			pf.keywordRules[keyword] = append(pf.keywordRules[keyword], i)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}
	return pf
}

// Filter returns the rules that might match content: rules with no keywords
// and rules with at least one keyword present. Rules keep their input order.
func (pf *Prefilter) Filter(content []byte) []*types.Rule {
	idx := pf.FilterIndexes(content)
	result := make([]*types.Rule, len(idx))
	for i, j := range idx {
		result[i] = pf.rules[j]
	}
	return result
}

// FilterIndexes is Filter returning indexes into the rules passed to New.
func (pf *Prefilter) FilterIndexes(content []byte) []int {
	if pf.matcher == nil {
		return append([]int(nil), pf.always...)
	}

	if pf.foldCase {
		content = bytes.ToLower(content)
	}
	hits := pf.matcher.Match(content)

	seen := make(map[int]bool, len(pf.always))
	result := append([]int(nil), pf.always...)
	for _, i := range pf.always {
		seen[i] = true
	}
	for _, hit := range hits {
		for _, i := range pf.keywordRules[pf.keywords[hit]] {
			if !seen[i] {
				seen[i] = true
				result = append(result, i)
			}
		}
	}
	sort.Ints(result)
	return result
}

// Keywords returns the distinct keywords in insertion order.
func (pf *Prefilter) Keywords() []string {
	return pf.keywords
}
