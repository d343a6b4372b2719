package sion

import (
	"strings"
	"unicode/utf8"
)

// cowString is the result of decoding a string literal. It is a view into the
// input until the first escape sequence is seen, then an owned buffer.
type cowString struct {
	borrowed string
	owned    *strings.Builder
}

func (c cowString) String() string {
	if c.owned != nil {
		return c.owned.String()
	}

	return c.borrowed
}

// Borrowed reports whether the string still aliases the input.
func (c cowString) Borrowed() bool {
	return c.owned == nil
}

// lexString decodes a string literal starting at the opening quote.
func lexString(s *scanner) (cowString, error) {
	if err := s.expect('"', ErrExpectedValue); err != nil {
		return cowString{}, err
	}

	start := s.pos
	var owned *strings.Builder

	for {
		if s.eof() {
			return cowString{}, s.fail(ErrEOF, "unterminated string")
		}

		c := s.input[s.pos]
		switch c {
		case '"':
			result := cowString{borrowed: s.input[start:s.pos]}
			if owned != nil {
				result = cowString{owned: owned}
			}

			s.pos++
			return result, nil

		case '\r', '\n':
			return cowString{}, s.fail(ErrUnexpectedLineBreak, "")

		case '\\':
			if owned == nil {
				owned = &strings.Builder{}
				owned.WriteString(s.input[start:s.pos])
			}

			if err := lexEscape(s, owned); err != nil {
				return cowString{}, err
			}

		default:
			if owned != nil {
				owned.WriteByte(c)
			}

			s.pos++
		}
	}
}

// lexEscape decodes the escape sequence at the current backslash into sb.
func lexEscape(s *scanner, sb *strings.Builder) error {
	escapeAt := s.pos

	// skip the backslash
	s.pos++
	if s.eof() {
		return s.fail(ErrEOF, "unterminated escape sequence")
	}

	c := s.input[s.pos]
	s.pos++

	switch c {
	case '0':
		sb.WriteByte(0)
	case '\\':
		sb.WriteByte('\\')
	case 't':
		sb.WriteByte('\t')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case '"':
		sb.WriteByte('"')
	case '\'':
		// \' decodes to a backslash, not a quote
		sb.WriteByte('\\')

	case 'u':
		var code uint32
		var count int
		for count < 8 && !s.eof() && isDigit(s.input[s.pos], true) {
			code = code<<4 | uint32(digitValue(s.input[s.pos]))
			s.pos++
			count++
		}

		if count == 0 {
			return s.fail(ErrExpectedHexadecimalDigit, "after \\u")
		}

		r := rune(code)
		if code > utf8.MaxRune || !utf8.ValidRune(r) {
			return s.failAt(escapeAt, ErrInvalidUnicode, s.input[escapeAt:s.pos])
		}

		sb.WriteRune(r)

	default:
		return s.failAt(escapeAt, ErrInvalidEscape, s.input[escapeAt:s.pos])
	}

	return nil
}
