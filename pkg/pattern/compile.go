package pattern

import (
	"strings"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

const (
	// MaxNodes caps the arena size of one trie.
	MaxNodes = 1 << 16

	// maxSteps caps expansion work so pathological optional chains fail fast
	// even when splitting keeps the node count small.
	maxSteps = 1 << 20
)

// BuiltinPrefix marks an explicit built-in reference such as
// "builtin:credit_card". A bare built-in name resolves the same way.
const BuiltinPrefix = "builtin:"

// Compile translates a built-in recognizer name or a custom shape into a
// Trie. Identical inputs produce structurally identical tries.
func Compile(spec string) (*Trie, error) {
	if spec == "" {
		return nil, types.NewCompileError(spec, -1, "empty pattern")
	}

	name, explicit := strings.CutPrefix(spec, BuiltinPrefix)
	b, ok, err := LookupBuiltin(name)
	if err != nil {
		return nil, err
	}
	if explicit && !ok {
		return nil, types.NewCompileError(spec, -1, "unknown built-in %q", name)
	}
	if ok {
		t, err := compileShape(b.Shape, b.guard)
		if err != nil {
			return nil, err
		}
		t.source = spec
		return t, nil
	}
	return compileShape(spec, ByteClass{})
}

// MustCompile is like Compile but panics on error.
func MustCompile(spec string) *Trie {
	t, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return t
}

func compileShape(src string, guard ByteClass) (*Trie, error) {
	s, err := parseShape(src)
	if err != nil {
		return nil, err
	}

	b := &builder{src: src}
	b.nodes = append(b.nodes, Node{})
	if err := b.insert(Root, s.atoms); err != nil {
		return nil, err
	}
	if b.nodes[Root].terminal {
		return nil, types.NewCompileError(src, -1, "pattern can match empty input")
	}

	t := &Trie{
		source:    src,
		nodes:     b.nodes,
		guard:     guard,
		validator: s.validator,
		minLen:    -1,
	}
	for i := range t.nodes {
		n := &t.nodes[i]
		if !n.terminal {
			continue
		}
		n.validator = s.validator
		if t.minLen < 0 || n.length < t.minLen {
			t.minLen = n.length
		}
		if n.length > t.maxLen {
			t.maxLen = n.length
		}
	}
	t.fingerprint = t.computeFingerprint()
	return t, nil
}

type builder struct {
	src   string
	nodes []Node
	steps int
}

func (b *builder) tooComplex() error {
	return types.NewCompileError(b.src, -1, "pattern too complex")
}

func (b *builder) newNode(length int) (NodeID, error) {
	if len(b.nodes) >= MaxNodes {
		return 0, b.tooComplex()
	}
	b.nodes = append(b.nodes, Node{length: length})
	return NodeID(len(b.nodes) - 1), nil
}

// insert adds every class sequence described by atoms below id.
func (b *builder) insert(id NodeID, atoms []atom) error {
	if len(atoms) == 0 {
		b.nodes[id].terminal = true
		return nil
	}
	return b.repeat(id, atoms[0], 0, atoms[1:])
}

// repeat inserts the remaining copies of a, k copies having been consumed.
func (b *builder) repeat(id NodeID, a atom, k int, rest []atom) error {
	b.steps++
	if b.steps > maxSteps {
		return b.tooComplex()
	}

	if k >= a.min {
		if err := b.insert(id, rest); err != nil {
			return err
		}
	}
	if k == a.max {
		return nil
	}

	children, err := b.addEdge(id, a.class)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := b.repeat(child, a, k+1, rest); err != nil {
			return err
		}
	}
	return nil
}

// addEdge makes class c reachable from id and returns the children covering
// it. An existing edge that partially overlaps c is split, the overlap
// getting a deep copy of the original child.
func (b *builder) addEdge(id NodeID, c ByteClass) ([]NodeID, error) {
	var out []NodeID
	remaining := c
	for i := 0; i < len(b.nodes[id].edges); i++ {
		e := b.nodes[id].edges[i]
		overlap := e.Class.Intersect(remaining)
		if overlap.IsEmpty() {
			continue
		}
		remaining = remaining.Minus(overlap)
		if overlap == e.Class {
			out = append(out, e.Child)
			continue
		}

		cp, err := b.clone(e.Child)
		if err != nil {
			return nil, err
		}
		b.nodes[id].edges[i].Class = e.Class.Minus(overlap)
		b.nodes[id].edges = append(b.nodes[id].edges, Edge{Class: overlap, Child: cp})
		out = append(out, cp)
	}

	if !remaining.IsEmpty() {
		child, err := b.newNode(b.nodes[id].length + 1)
		if err != nil {
			return nil, err
		}
		b.nodes[id].edges = append(b.nodes[id].edges, Edge{Class: remaining, Child: child})
		out = append(out, child)
	}
	return out, nil
}

func (b *builder) clone(id NodeID) (NodeID, error) {
	cp, err := b.newNode(b.nodes[id].length)
	if err != nil {
		return 0, err
	}
	b.nodes[cp].terminal = b.nodes[id].terminal

	edges := make([]Edge, len(b.nodes[id].edges))
	copy(edges, b.nodes[id].edges)
	for i := range edges {
		if edges[i].Child, err = b.clone(edges[i].Child); err != nil {
			return 0, err
		}
	}
	b.nodes[cp].edges = edges
	return cp, nil
}
