package pattern

import (
	"strconv"
	"strings"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
	"github.com/sagardeyrakesh/sdpattern/pkg/validator"
)

// MaxRepeat is the largest count accepted inside {n} and {m,n}.
const MaxRepeat = 64

// atom is one byte class with its repetition bounds.
type atom struct {
	class      ByteClass
	min, max   int
	offset     int
	quantified bool
}

// shape is the parsed form of a pattern string.
type shape struct {
	atoms     []atom
	validator validator.Validator
}

// parseShape parses the shape grammar:
//
//	\d \D \l \L \w \W   digit, letter and alphanumeric classes and their complements
//	.                   any byte
//	\\ \{ \} \? \.      literal escapes
//	{n} {m,n}           repeat the previous atom
//	?                   previous atom is optional
//	\V{name}            validator for every terminal, final token only
//
// Any other byte is a literal.
func parseShape(src string) (*shape, error) {
	s := &shape{}
	fail := func(offset int, format string, args ...any) (*shape, error) {
		return nil, types.NewCompileError(src, offset, format, args...)
	}

	i := 0
	for i < len(src) {
		c := src[i]
		switch c {
		case '\\':
			if i+1 >= len(src) {
				return fail(i, "trailing backslash")
			}
			esc := src[i+1]
			if esc == 'V' {
				if s.validator != nil {
					return fail(i, "validator specified more than once")
				}
				name, end, ok := braced(src, i+2)
				if !ok {
					return fail(i, `expected \V{name}`)
				}
				v, found := validator.Lookup(name)
				if !found {
					return fail(i, "unknown validator %q", name)
				}
				if end != len(src) {
					return fail(end, "validator directive must be the last token")
				}
				s.validator = v
				i = end
				continue
			}
			class, ok := escapeClass(esc)
			if !ok {
				return fail(i, `unknown escape \%c`, esc)
			}
			s.atoms = append(s.atoms, atom{class: class, min: 1, max: 1, offset: i})
			i += 2

		case '.':
			s.atoms = append(s.atoms, atom{class: AnyByte, min: 1, max: 1, offset: i})
			i++

		case '?':
			last, err := quantifiable(src, s.atoms, i)
			if err != nil {
				return nil, err
			}
			last.min, last.quantified = 0, true
			i++

		case '{':
			last, err := quantifiable(src, s.atoms, i)
			if err != nil {
				return nil, err
			}
			body, end, ok := braced(src, i)
			if !ok {
				return fail(i, "unbalanced '{'")
			}
			lo, hi, err := parseCounts(src, i, body)
			if err != nil {
				return nil, err
			}
			last.min, last.max, last.quantified = lo, hi, true
			i = end

		case '}':
			return fail(i, "unbalanced '}'")

		default:
			s.atoms = append(s.atoms, atom{class: Literal(c), min: 1, max: 1, offset: i})
			i++
		}
	}

	if len(s.atoms) == 0 {
		return fail(-1, "pattern has no atoms")
	}
	return s, nil
}

func escapeClass(esc byte) (ByteClass, bool) {
	switch esc {
	case 'd':
		return Digit, true
	case 'D':
		return NonDigit, true
	case 'l':
		return Letter, true
	case 'L':
		return NonLetter, true
	case 'w':
		return Alnum, true
	case 'W':
		return NonAlnum, true
	case '\\', '{', '}', '?', '.':
		return Literal(esc), true
	}
	return ByteClass{}, false
}

// braced returns the text between src[open] == '{' and the next '}' and the
// offset just past the '}'.
func braced(src string, open int) (string, int, bool) {
	if open >= len(src) || src[open] != '{' {
		return "", 0, false
	}
	closeIdx := strings.IndexByte(src[open+1:], '}')
	if closeIdx < 0 {
		return "", 0, false
	}
	return src[open+1 : open+1+closeIdx], open + closeIdx + 2, true
}

func quantifiable(src string, atoms []atom, offset int) (*atom, error) {
	if len(atoms) == 0 {
		return nil, types.NewCompileError(src, offset, "quantifier %q without a preceding atom", src[offset])
	}
	last := &atoms[len(atoms)-1]
	if last.quantified {
		return nil, types.NewCompileError(src, offset, "atom already has a quantifier")
	}
	return last, nil
}

func parseCounts(src string, offset int, body string) (int, int, error) {
	num := func(s string) (int, error) {
		if s == "" || strings.TrimLeft(s, "0123456789") != "" {
			return 0, types.NewCompileError(src, offset, "invalid repetition count %q", body)
		}
		n, err := strconv.Atoi(s)
		if err != nil || n > MaxRepeat {
			return 0, types.NewCompileError(src, offset, "repetition count %q exceeds %d", body, MaxRepeat)
		}
		return n, nil
	}

	loStr, hiStr, isRange := strings.Cut(body, ",")
	lo, err := num(loStr)
	if err != nil {
		return 0, 0, err
	}
	hi := lo
	if isRange {
		if hi, err = num(hiStr); err != nil {
			return 0, 0, err
		}
	}

	switch {
	case !isRange && lo == 0:
		return 0, 0, types.NewCompileError(src, offset, "repetition count must be at least 1")
	case hi < lo:
		return 0, 0, types.NewCompileError(src, offset, "repetition range {%d,%d} is inverted", lo, hi)
	case hi == 0:
		return 0, 0, types.NewCompileError(src, offset, "repetition range {0,0} matches nothing")
	}
	return lo, hi, nil
}
