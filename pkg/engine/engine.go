// Package engine evaluates a rule set against buffers. Rules that share a
// pattern and threshold share one compiled option, and every worker keeps
// its own prefilter and counters.
package engine

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/sagardeyrakesh/sdpattern"
	"github.com/sagardeyrakesh/sdpattern/pkg/prefilter"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// Entry binds a rule to its compiled option.
type Entry struct {
	Rule   *types.Rule
	Option *sdpattern.Option
}

// Engine holds compiled rules. It is immutable after New and may be shared
// by any number of workers.
type Engine struct {
	entries  []Entry
	options  []*sdpattern.Option // distinct, in first-use order
	foldCase bool
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used while compiling rules.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithKeywordCaseFolding makes rule keywords match regardless of case.
func WithKeywordCaseFolding() Option {
	return func(e *Engine) {
		e.foldCase = true
	}
}

// New compiles every rule. Rules whose options are equal share a single
// compiled option. Any rule that fails to compile fails New.
func New(rules []*types.Rule, opts ...Option) (*Engine, error) {
	e := &Engine{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}

	buckets := make(map[uint32][]*sdpattern.Option)
	for _, r := range rules {
		compiled, err := sdpattern.CompileSpec(r.Spec())
		if err != nil {
			return nil, fmt.Errorf("compiling rule %s: %w", r.ID, err)
		}

		shared := false
		for _, existing := range buckets[compiled.Hash()] {
			if existing.Equal(compiled) {
				compiled, shared = existing, true
				break
			}
		}
		if !shared {
			buckets[compiled.Hash()] = append(buckets[compiled.Hash()], compiled)
			e.options = append(e.options, compiled)
		}

		e.logger.Debug().
			Str("rule", r.ID).
			Str("pattern", r.Pattern).
			Int("threshold", r.Threshold).
			Int("nodes", compiled.Trie().NodeCount()).
			Bool("shared", shared).
			Msg("compiled rule")

		e.entries = append(e.entries, Entry{Rule: r, Option: compiled})
	}

	e.logger.Debug().
		Int("rules", len(e.entries)).
		Int("options", len(e.options)).
		Msg("engine ready")
	return e, nil
}

// Entries returns the compiled rules in input order.
func (e *Engine) Entries() []Entry { return e.entries }

// Options returns the distinct compiled options.
func (e *Engine) Options() []*sdpattern.Option { return e.options }

// Rules returns the rules in input order.
func (e *Engine) Rules() []*types.Rule {
	out := make([]*types.Rule, len(e.entries))
	for i, ent := range e.entries {
		out[i] = ent.Rule
	}
	return out
}

// NewWorker returns a Worker for use by a single goroutine.
func (e *Engine) NewWorker() *Worker {
	var pfOpts []prefilter.Option
	if e.foldCase {
		pfOpts = append(pfOpts, prefilter.WithCaseFolding())
	}
	return &Worker{
		engine:    e,
		prefilter: prefilter.New(e.Rules(), pfOpts...),
		stats:     make(map[string]*sdpattern.Stats),
		counts:    make(map[string]int),
	}
}

// OptionStats are merged counters for one distinct option.
type OptionStats struct {
	StructuralID string
	Pattern      string
	Threshold    int
	Stats        sdpattern.Stats
}

// MergeStats combines per-worker counters by option. The result is sorted by
// pattern, then threshold.
func MergeStats(workers ...*Worker) []OptionStats {
	merged := make(map[string]*OptionStats)
	for _, w := range workers {
		for _, opt := range w.engine.options {
			st, ok := w.stats[opt.StructuralID()]
			if !ok {
				continue
			}
			m, ok := merged[opt.StructuralID()]
			if !ok {
				m = &OptionStats{
					StructuralID: opt.StructuralID(),
					Pattern:      opt.Pattern(),
					Threshold:    opt.Threshold(),
				}
				merged[opt.StructuralID()] = m
			}
			m.Stats.Merge(*st)
		}
	}

	out := make([]OptionStats, 0, len(merged))
	for _, m := range merged {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Threshold < out[j].Threshold
	})
	return out
}

// Total sums counters across options.
func Total(stats []OptionStats) sdpattern.Stats {
	var t sdpattern.Stats
	for _, s := range stats {
		t.Merge(s.Stats)
	}
	return t
}
