// Package matcher walks compiled pattern tries over byte buffers and counts
// validated occurrences.
package matcher

import (
	"github.com/sagardeyrakesh/sdpattern/pkg/pattern"
	"github.com/sagardeyrakesh/sdpattern/pkg/validator"
)

// Result is a validated match starting at the attempt offset.
type Result struct {
	Node   pattern.NodeID // terminal node reached
	Length int            // bytes consumed
}

// outcome classifies one attempt for Stats.
type outcome int

const (
	noPath outcome = iota
	matched
	guardRejected
	validatorRejected
)

// Attempt walks trie from the root starting at buf[offset]. It keeps the
// deepest terminal passed and validates only that one: a validator or guard
// failure means no match at this offset, never a shorter match.
//
// Shorter terminals passed on the way are never validated or counted. With
// `\d{2}\d?\V{luhn}`, "18" matches on its own but "185" does not match at
// offset 0, even though its prefix "18" passes the check.
func Attempt(trie *pattern.Trie, buf []byte, offset int) (Result, bool) {
	var st validator.State
	res, out := attempt(trie, buf, offset, &st)
	return res, out == matched
}

func attempt(trie *pattern.Trie, buf []byte, offset int, st *validator.State) (Result, outcome) {
	st.Reset()
	if offset < 0 || offset >= len(buf) {
		return Result{}, noPath
	}

	guard := trie.Guard()
	guarded := !guard.IsEmpty()
	if guarded && offset > 0 && guard.Has(buf[offset-1]) {
		return Result{}, noPath
	}

	var (
		node     = trie.Root()
		best     pattern.NodeID
		bestLen  int
		snapshot validator.State
	)
	for pos := offset; pos < len(buf); pos++ {
		next, ok := trie.Step(node, buf[pos])
		if !ok {
			break
		}
		node = next
		st.Consume(buf[pos])

		n := trie.Node(node)
		if n.Terminal() {
			best, bestLen, snapshot = node, n.Length(), *st
		}
		if len(n.Edges()) == 0 {
			break
		}
	}
	if bestLen == 0 {
		return Result{}, noPath
	}

	if end := offset + bestLen; guarded && end < len(buf) && guard.Has(buf[end]) {
		return Result{}, guardRejected
	}
	if v := trie.Node(best).Validator(); v != nil && !v.Validate(&snapshot) {
		return Result{}, validatorRejected
	}
	return Result{Node: best, Length: bestLen}, matched
}
