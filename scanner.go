package sion

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// scanner is a cursor into an immutable input. It is a plain value, so copying
// it yields an independent cursor for speculative parsing.
type scanner struct {
	input string
	pos   int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.input)
}

func (s *scanner) rest() string {
	return s.input[s.pos:]
}

// peek returns the current character without consuming it.
func (s *scanner) peek() (rune, error) {
	if s.eof() {
		return 0, s.fail(ErrEOF, "")
	}

	if c := s.input[s.pos]; c < utf8.RuneSelf {
		return rune(c), nil
	}

	r, _ := utf8.DecodeRuneInString(s.rest())
	return r, nil
}

// advance consumes exactly one character.
func (s *scanner) advance() error {
	if s.eof() {
		return s.fail(ErrEOF, "")
	}

	_, size := utf8.DecodeRuneInString(s.rest())
	s.pos += size
	return nil
}

// expect consumes c or fails with the given error kind.
func (s *scanner) expect(c rune, kind error) error {
	got, err := s.peek()
	if err != nil {
		return err
	}

	if got != c {
		return s.fail(kind, "found "+strconv.QuoteRune(got))
	}

	return s.advance()
}

// consume skips over lit if the input continues with it.
func (s *scanner) consume(lit string) bool {
	if !strings.HasPrefix(s.rest(), lit) {
		return false
	}

	s.pos += len(lit)
	return true
}

// skipTrivia skips whitespace and line comments.
func (s *scanner) skipTrivia() error {
	for !s.eof() {
		c, _ := s.peek()
		switch {
		case c == '/':
			_ = s.advance()
			if err := s.expect('/', ErrExpectedSlash); err != nil {
				return err
			}

			s.skipLine()

		case unicode.IsSpace(c):
			_ = s.advance()

		default:
			return nil
		}
	}

	return nil
}

// skipLine consumes up to and including the next "\n", "\r" or "\r\n".
func (s *scanner) skipLine() {
	idx := strings.IndexAny(s.rest(), "\r\n")
	if idx < 0 {
		s.pos = len(s.input)
		return
	}

	s.pos += idx
	if s.consume("\r\n") {
		return
	}

	s.pos++
}

// fail builds a SyntaxError for the current position.
func (s *scanner) fail(kind error, detail string) *SyntaxError {
	return s.failAt(s.pos, kind, detail)
}

func (s *scanner) failAt(offset int, kind error, detail string) *SyntaxError {
	line, column := position(s.input, offset)
	return &SyntaxError{
		Offset: offset,
		Line:   line,
		Column: column,
		Err:    kind,
		Detail: detail,
	}
}

// position computes the one-based line and column of offset.
func position(input string, offset int) (line, column int) {
	offset = min(offset, len(input))

	before := input[:offset]
	line = 1 + strings.Count(before, "\n")
	if idx := strings.LastIndexByte(before, '\n'); idx >= 0 {
		before = before[idx+1:]
	}

	return line, 1 + utf8.RuneCountInString(before)
}
