package number

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError describes where a snailfish number literal stopped matching the grammar.
type ParseError struct {
	// Offset is the byte offset into the trimmed input.
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", ErrMalformed, e.Offset, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformed
}

type parser struct {
	text string
	n    *Number
}

// Parse reads a snailfish number literal:
//
//	value = digits | "[" value "," value "]"
//
// Surrounding whitespace is ignored. Anything else left over after the
// outermost value (e.g. a stray "]") is an error.
func Parse(text string) (*Number, error) {
	text = strings.TrimSpace(text)
	p := parser{
		text: text,
		n:    &Number{root: NoHandle},
	}

	root, rest, err := p.element(text)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, p.errorf(rest, "unexpected %q after the outermost pair", rest[0])
	}

	p.n.root = root
	p.n.link(root, NoHandle)
	return p.n, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(text string) *Number {
	n, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return n
}

// element parses one value from the start of s and returns the unconsumed remainder.
func (p *parser) element(s string) (Handle, string, error) {
	if s == "" {
		return NoHandle, s, p.errorf(s, "unexpected end of input")
	}

	switch c := s[0]; {
	case isDigit(c):
		i := 0
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		v, err := strconv.Atoi(s[:i])
		if err != nil {
			return NoHandle, s, p.errorf(s, "value %s out of range", s[:i])
		}
		return p.n.newLeaf(v), s[i:], nil

	case c == '[':
		first, rest, err := p.element(s[1:])
		if err != nil {
			return NoHandle, rest, err
		}
		if rest, err = p.expect(rest, ','); err != nil {
			return NoHandle, rest, err
		}
		second, rest, err := p.element(rest)
		if err != nil {
			return NoHandle, rest, err
		}
		if rest, err = p.expect(rest, ']'); err != nil {
			return NoHandle, rest, err
		}
		return p.n.newPair(first, second), rest, nil

	default:
		return NoHandle, s, p.errorf(s, "unexpected %q, want a digit or '['", c)
	}
}

func (p *parser) expect(s string, want byte) (string, error) {
	if s == "" {
		return s, p.errorf(s, "unexpected end of input, want %q", want)
	}
	if s[0] != want {
		return s, p.errorf(s, "unexpected %q, want %q", s[0], want)
	}
	return s[1:], nil
}

// errorf reports an error at the position where the remainder s begins.
func (p *parser) errorf(s string, format string, args ...any) *ParseError {
	return &ParseError{
		Offset: len(p.text) - len(s),
		Msg:    fmt.Sprintf(format, args...),
	}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
