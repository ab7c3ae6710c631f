package types

import "fmt"

// Verdict is the binary outcome of evaluating one buffer.
type Verdict int

const (
	// NoMatch means fewer than threshold validated occurrences were found.
	NoMatch Verdict = iota
	// Match means the threshold was reached.
	Match
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case Match:
		return "match"
	case NoMatch:
		return "no_match"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(text []byte) error {
	switch string(text) {
	case "match":
		*v = Match
	case "no_match":
		*v = NoMatch
	default:
		return fmt.Errorf("unknown verdict %q", text)
	}
	return nil
}
