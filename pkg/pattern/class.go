package pattern

import (
	"fmt"
	"math/bits"
	"strings"
)

// ByteClass is a set of byte values, one bit per byte.
type ByteClass [4]uint64

// Predefined classes used by the shape grammar.
var (
	AnyByte   = classOf(func(byte) bool { return true })
	Digit     = classOf(isDigit)
	NonDigit  = Digit.Complement()
	Letter    = classOf(isLetter)
	NonLetter = Letter.Complement()
	Alnum     = classOf(func(b byte) bool { return isDigit(b) || isLetter(b) })
	NonAlnum  = Alnum.Complement()
)

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

func classOf(pred func(byte) bool) ByteClass {
	var c ByteClass
	for i := 0; i < 256; i++ {
		if pred(byte(i)) {
			c = c.With(byte(i))
		}
	}
	return c
}

// Literal returns the class holding only b.
func Literal(b byte) ByteClass {
	var c ByteClass
	return c.With(b)
}

// With returns c plus b.
func (c ByteClass) With(b byte) ByteClass {
	c[b>>6] |= 1 << (b & 63)
	return c
}

// Has reports whether b is in the class.
func (c ByteClass) Has(b byte) bool {
	return c[b>>6]&(1<<(b&63)) != 0
}

// Intersect returns c ∩ o.
func (c ByteClass) Intersect(o ByteClass) ByteClass {
	return ByteClass{c[0] & o[0], c[1] & o[1], c[2] & o[2], c[3] & o[3]}
}

// Union returns c ∪ o.
func (c ByteClass) Union(o ByteClass) ByteClass {
	return ByteClass{c[0] | o[0], c[1] | o[1], c[2] | o[2], c[3] | o[3]}
}

// Minus returns c ∖ o.
func (c ByteClass) Minus(o ByteClass) ByteClass {
	return ByteClass{c[0] &^ o[0], c[1] &^ o[1], c[2] &^ o[2], c[3] &^ o[3]}
}

// Complement returns every byte not in c.
func (c ByteClass) Complement() ByteClass {
	return ByteClass{^c[0], ^c[1], ^c[2], ^c[3]}
}

// IsEmpty reports whether the class holds no byte.
func (c ByteClass) IsEmpty() bool {
	return c[0]|c[1]|c[2]|c[3] == 0
}

// Len returns the number of bytes in the class.
func (c ByteClass) Len() int {
	return bits.OnesCount64(c[0]) + bits.OnesCount64(c[1]) +
		bits.OnesCount64(c[2]) + bits.OnesCount64(c[3])
}

// String renders the class in shape grammar notation where possible.
func (c ByteClass) String() string {
	switch c {
	case AnyByte:
		return "."
	case Digit:
		return `\d`
	case NonDigit:
		return `\D`
	case Letter:
		return `\l`
	case NonLetter:
		return `\L`
	case Alnum:
		return `\w`
	case NonAlnum:
		return `\W`
	}
	if c.Len() == 1 {
		for i := 0; i < 256; i++ {
			if c.Has(byte(i)) {
				return quoteByte(byte(i))
			}
		}
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < 256; i++ {
		if !c.Has(byte(i)) {
			continue
		}
		j := i
		for j+1 < 256 && c.Has(byte(j+1)) {
			j++
		}
		sb.WriteString(quoteByte(byte(i)))
		if j > i {
			sb.WriteByte('-')
			sb.WriteString(quoteByte(byte(j)))
		}
		i = j
	}
	sb.WriteByte(']')
	return sb.String()
}

func quoteByte(b byte) string {
	switch {
	case strings.IndexByte(`\{}?.`, b) >= 0:
		return `\` + string(b)
	case b >= 0x21 && b < 0x7f:
		return string(b)
	default:
		return fmt.Sprintf(`\x%02x`, b)
	}
}
