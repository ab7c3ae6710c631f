package pattern

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/sagardeyrakesh/sdpattern/pkg/validator"
)

// NodeID addresses a node inside one Trie's arena.
type NodeID int32

// Root is the ID of every trie's start node.
const Root NodeID = 0

// Edge is a transition taken on any byte in Class.
type Edge struct {
	Class ByteClass
	Child NodeID
}

// Node is one trie state. Sibling edge classes are pairwise disjoint.
type Node struct {
	edges     []Edge
	terminal  bool
	length    int
	validator validator.Validator
}

// Edges returns the outgoing transitions. The slice must not be modified.
func (n *Node) Edges() []Edge { return n.edges }

// Terminal reports whether a complete pattern instance ends here.
func (n *Node) Terminal() bool { return n.terminal }

// Length is the number of bytes consumed from the pattern start.
func (n *Node) Length() int { return n.length }

// Validator returns the check applied at this terminal, or nil.
func (n *Node) Validator() validator.Validator { return n.validator }

// Trie is a compiled pattern. It is immutable after Compile and safe for
// concurrent read-only use.
type Trie struct {
	source      string
	nodes       []Node
	guard       ByteClass
	validator   validator.Validator
	minLen      int
	maxLen      int
	fingerprint string
}

// Root returns the start node ID.
func (t *Trie) Root() NodeID { return Root }

// Node returns the node for id.
func (t *Trie) Node(id NodeID) *Node { return &t.nodes[id] }

// Step follows the edge accepting b from id.
func (t *Trie) Step(id NodeID, b byte) (NodeID, bool) {
	for _, e := range t.nodes[id].edges {
		if e.Class.Has(b) {
			return e.Child, true
		}
	}
	return 0, false
}

// NodeCount returns the arena size.
func (t *Trie) NodeCount() int { return len(t.nodes) }

// MinLength is the shortest match length.
func (t *Trie) MinLength() int { return t.minLen }

// MaxLength is the longest match length.
func (t *Trie) MaxLength() int { return t.maxLen }

// Source is the pattern string the trie was compiled from.
func (t *Trie) Source() string { return t.source }

// Guard is the boundary class that must not touch either end of a match.
// An empty class disables the check.
func (t *Trie) Guard() ByteClass { return t.guard }

// Validator is the check attached to the pattern's terminals, or nil.
func (t *Trie) Validator() validator.Validator { return t.validator }

// Fingerprint is a SHA-256 over the canonical arena encoding. Structurally
// identical tries share a fingerprint.
func (t *Trie) Fingerprint() string { return t.fingerprint }

func (t *Trie) computeFingerprint() string {
	h := sha256.New()
	var buf [binary.MaxVarintLen64]byte
	writeInt := func(v int) {
		n := binary.PutVarint(buf[:], int64(v))
		h.Write(buf[:n])
	}
	writeClass := func(c ByteClass) {
		for _, w := range c {
			binary.LittleEndian.PutUint64(buf[:8], w)
			h.Write(buf[:8])
		}
	}

	writeClass(t.guard)
	writeInt(len(t.nodes))
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.terminal {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		writeInt(n.length)
		name := ""
		if n.validator != nil {
			name = n.validator.Name()
		}
		writeInt(len(name))
		h.Write([]byte(name))
		writeInt(len(n.edges))
		for _, e := range n.edges {
			writeClass(e.Class)
			writeInt(int(e.Child))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
