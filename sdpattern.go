// Package sdpattern detects structured sensitive data in byte buffers.
//
// A pattern is either a built-in recognizer name (credit_card, us_social,
// us_social_nodashes) or a custom shape such as `\d{4}-\d{4}\V{luhn}`.
// Compiling a pattern with a threshold yields an Option that decides, for
// any buffer, whether at least threshold validated occurrences are present.
//
// # Basic Usage
//
//	opt, err := sdpattern.Compile("credit_card", sdpattern.WithThreshold(2))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if opt.Evaluate(payload) == sdpattern.Match {
//	    fmt.Println("payload carries at least two card numbers")
//	}
//
// # Host Integration
//
// Hosts bind to two entry points: Compile turns configuration into an
// opaque Option, and Evaluator.Evaluate checks a buffer against it. Options
// are immutable and may be shared across goroutines. Per-goroutine counters
// are collected with SearchWithStats and merged by the caller.
package sdpattern

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/sagardeyrakesh/sdpattern/pkg/matcher"
	"github.com/sagardeyrakesh/sdpattern/pkg/pattern"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// Re-export commonly used types for convenience.
type (
	// Verdict is the binary outcome of evaluating a buffer.
	Verdict = types.Verdict

	// PatternSpec is a pattern plus its threshold.
	PatternSpec = types.PatternSpec

	// CompileError describes an invalid pattern or threshold.
	CompileError = types.CompileError

	// Stats are per-worker scan counters.
	Stats = matcher.Stats

	// Span locates one match inside a buffer.
	Span = matcher.Span
)

// Re-export verdict constants.
const (
	Match   = types.Match
	NoMatch = types.NoMatch
)

// ErrCompile is wrapped by every compilation failure.
var ErrCompile = types.ErrCompile

// Evaluator decides whether a buffer matches.
type Evaluator interface {
	Evaluate(buf []byte) Verdict
}

var _ Evaluator = (*Option)(nil)

// Option is a compiled pattern with its threshold.
type Option struct {
	spec types.PatternSpec
	trie *pattern.Trie
	id   string
	hash uint32
}

// compileConfig holds compile-time settings.
type compileConfig struct {
	threshold int
}

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

// WithThreshold sets how many validated occurrences a buffer must contain.
// The default is 1; values below 1 make Compile fail.
func WithThreshold(n int) CompileOption {
	return func(c *compileConfig) {
		c.threshold = n
	}
}

// Compile builds an Option from a built-in name or custom shape.
func Compile(pat string, opts ...CompileOption) (*Option, error) {
	cfg := &compileConfig{threshold: types.DefaultThreshold}
	for _, opt := range opts {
		opt(cfg)
	}
	return CompileSpec(types.PatternSpec{Pattern: pat, Threshold: cfg.threshold})
}

// CompileSpec builds an Option from a PatternSpec.
func CompileSpec(spec types.PatternSpec) (*Option, error) {
	if spec.Threshold < 1 {
		return nil, types.NewCompileError(spec.Pattern, -1, "threshold %d must be at least 1", spec.Threshold)
	}
	trie, err := pattern.Compile(spec.Pattern)
	if err != nil {
		return nil, err
	}

	id := spec.ComputeStructuralID()
	raw, _ := hex.DecodeString(id)
	return &Option{
		spec: spec,
		trie: trie,
		id:   id,
		hash: binary.BigEndian.Uint32(raw[:4]),
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pat string, opts ...CompileOption) *Option {
	o, err := Compile(pat, opts...)
	if err != nil {
		panic(err)
	}
	return o
}

// Evaluate returns Match when buf holds at least Threshold occurrences.
func (o *Option) Evaluate(buf []byte) Verdict {
	return o.verdict(o.Count(buf))
}

// EvaluateWithStats is Evaluate recording counters into stats.
func (o *Option) EvaluateWithStats(buf []byte, stats *Stats) Verdict {
	return o.verdict(o.SearchWithStats(buf, stats))
}

func (o *Option) verdict(count int) Verdict {
	if count >= o.spec.Threshold {
		return Match
	}
	return NoMatch
}

// Count returns the number of occurrences found, capped at Threshold.
func (o *Option) Count(buf []byte) int {
	return matcher.Scan(o.trie, buf, o.spec.Threshold)
}

// SearchWithStats is Count recording counters into stats, which may be nil.
func (o *Option) SearchWithStats(buf []byte, stats *Stats) int {
	return matcher.Search(o.trie, buf, o.spec.Threshold, stats)
}

// Locate returns up to limit match spans, or all of them when limit < 1.
func (o *Option) Locate(buf []byte, limit int) []Span {
	return matcher.Locate(o.trie, buf, limit)
}

// Spec returns the pattern and threshold the option was compiled from.
func (o *Option) Spec() PatternSpec { return o.spec }

// Pattern returns the pattern text.
func (o *Option) Pattern() string { return o.spec.Pattern }

// Threshold returns the required number of occurrences.
func (o *Option) Threshold() int { return o.spec.Threshold }

// Trie returns the compiled pattern.
func (o *Option) Trie() *pattern.Trie { return o.trie }

// StructuralID is the SHA-1 hex of the pattern text and threshold.
func (o *Option) StructuralID() string { return o.id }

// Hash returns the first four bytes of the structural ID.
func (o *Option) Hash() uint32 { return o.hash }

// Equal reports whether both options have the same pattern text and
// threshold.
func (o *Option) Equal(other *Option) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.spec == other.spec
}
