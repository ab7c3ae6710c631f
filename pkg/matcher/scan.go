package matcher

import (
	"github.com/sagardeyrakesh/sdpattern/pkg/pattern"
	"github.com/sagardeyrakesh/sdpattern/pkg/validator"
)

// Span locates one match inside a buffer.
type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// End returns the offset just past the match.
func (s Span) End() int { return s.Offset + s.Length }

// Scan counts non-overlapping matches of trie in buf, stopping as soon as
// threshold matches are found. The result is in [0, threshold].
func Scan(trie *pattern.Trie, buf []byte, threshold int) int {
	return Search(trie, buf, threshold, nil)
}

// Search is Scan recording counters into stats, which may be nil.
// A threshold below 1 is treated as 1.
func Search(trie *pattern.Trie, buf []byte, threshold int, stats *Stats) int {
	if threshold < 1 {
		threshold = 1
	}
	return run(trie, buf, threshold, stats, nil)
}

// Locate returns up to limit match spans in scan order. A limit below 1
// returns every match.
func Locate(trie *pattern.Trie, buf []byte, limit int) []Span {
	var spans []Span
	run(trie, buf, limit, nil, func(s Span) {
		spans = append(spans, s)
	})
	return spans
}

// run is the scan loop shared by Search and Locate. A limit below 1 means
// no limit.
func run(trie *pattern.Trie, buf []byte, limit int, stats *Stats, emit func(Span)) int {
	var (
		local Stats
		st    validator.State
		count int
		cur   = NewCursor(len(buf))
	)
	local.Buffers = 1
	local.Bytes = uint64(len(buf))

	if len(buf) >= trie.MinLength() {
		for !cur.Done() && (limit < 1 || count < limit) {
			local.Iterations++
			res, out := attempt(trie, buf, cur.Pos(), &st)
			switch out {
			case matched:
				local.Matches++
				count++
				if emit != nil {
					emit(Span{Offset: cur.Pos(), Length: res.Length})
				}
				cur.Advance(res.Length)
				continue
			case guardRejected:
				local.GuardRejects++
			case validatorRejected:
				local.ValidatorRejects++
			}
			cur.Advance(1)
		}
	}

	if limit >= 1 && count == limit && !cur.Done() {
		local.EarlyExits++
	}
	if stats != nil {
		stats.Merge(local)
	}
	return count
}
