package validator

// maxLeadDigits bounds Lead so it always fits in a uint32.
const maxLeadDigits = 9

// State accumulates what validators need while one trie walk consumes bytes.
// It is a value type scoped to a single attempt: the scanner resets it before
// every attempt and never shares it between goroutines or buffers.
//
// Only digits feed the accumulators; separators and other bytes consumed by
// the walk leave it untouched, so "4111 1111" and "41111111" produce the same
// state.
type State struct {
	Digits     int    // digits consumed so far
	LuhnEven   int    // Luhn sum doubling digits at even positions from the first digit
	LuhnOdd    int    // Luhn sum doubling digits at odd positions from the first digit
	Lead       uint32 // numeric value of the first LeadDigits digits
	LeadDigits int    // min(Digits, 9)
}

// Reset zeroes the state for a new attempt.
func (s *State) Reset() {
	*s = State{}
}

// Consume feeds one consumed byte into the accumulators.
func (s *State) Consume(b byte) {
	if b < '0' || b > '9' {
		return
	}
	d := int(b - '0')
	doubled := d * 2
	if doubled > 9 {
		doubled -= 9
	}

	// The check digit is the last one, so which positions get doubled depends
	// on the final length. Keep both parities and pick one in LuhnSum.
	if s.Digits%2 == 0 {
		s.LuhnEven += doubled
		s.LuhnOdd += d
	} else {
		s.LuhnEven += d
		s.LuhnOdd += doubled
	}

	if s.LeadDigits < maxLeadDigits {
		s.Lead = s.Lead*10 + uint32(d)
		s.LeadDigits++
	}
	s.Digits++
}

// LuhnSum returns the weighted mod-10 sum of the digits consumed so far,
// doubling every second digit counting from the rightmost one.
func (s *State) LuhnSum() int {
	if s.Digits%2 == 0 {
		return s.LuhnEven
	}
	return s.LuhnOdd
}

// LeadingDigit returns the first digit consumed, or -1 if none.
func (s *State) LeadingDigit() int {
	if s.LeadDigits == 0 {
		return -1
	}
	v := s.Lead
	for i := 1; i < s.LeadDigits; i++ {
		v /= 10
	}
	return int(v)
}
