package sion

import (
	"encoding/base64"
	"log/slog"
	"strconv"
	"unicode/utf8"
)

// DefaultMaxDepth is the default nesting limit for containers.
const DefaultMaxDepth = 512

type parser struct {
	s scanner
	b Builder

	// hinter is the builder as ShapeHinter, if it implements it
	hinter ShapeHinter

	// skipping is set on the speculative parser used for lookahead. It accepts
	// containers without deciding between array and map.
	skipping bool

	depth    int
	maxDepth int

	logger *slog.Logger
}

// parse decodes text and drives b with the decoded events.
func parse(text string, b Builder, maxDepth int, logger *slog.Logger) error {
	p := parser{
		s:        scanner{input: text},
		b:        b,
		maxDepth: maxDepth,
		logger:   logger,
	}

	if offset := invalidUTF8(text); offset >= 0 {
		return p.s.failAt(offset, ErrInvalidUTF8, "")
	}

	p.hinter, _ = b.(ShapeHinter)

	if err := p.value(); err != nil {
		return err
	}

	if err := p.s.skipTrivia(); err != nil {
		return err
	}

	if !p.s.eof() {
		return p.s.fail(ErrTrailingCharacters, "")
	}

	return nil
}

// invalidUTF8 returns the offset of the first invalid byte sequence, or -1.
func invalidUTF8(text string) int {
	if utf8.ValidString(text) {
		return -1
	}

	for offset := 0; offset < len(text); {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == utf8.RuneError && size == 1 {
			return offset
		}

		offset += size
	}

	return -1
}

func (p *parser) value() error {
	if err := p.s.skipTrivia(); err != nil {
		return err
	}

	c, err := p.s.peek()
	if err != nil {
		return err
	}

	switch {
	case c == 'n':
		return p.keyword("nil", ErrExpectedNil, p.b.Nil)

	case c == 't':
		return p.keyword("true", ErrExpectedTrue, func() error { return p.b.Bool(true) })

	case c == 'f':
		return p.keyword("false", ErrExpectedFalse, func() error { return p.b.Bool(false) })

	case c == '"':
		str, err := lexString(&p.s)
		if err != nil {
			return err
		}

		return p.b.String(str.String())

	case c == '-' || c == 'N' || c == 'I' || (c >= '0' && c <= '9'):
		return p.number()

	case c == '.':
		return p.dotted()

	case c == '[':
		return p.container()

	default:
		return p.s.fail(ErrExpectedValue, "found "+strconv.QuoteRune(c))
	}
}

func (p *parser) keyword(lit string, kind error, emit func() error) error {
	if !p.s.consume(lit) {
		return p.s.fail(kind, "")
	}

	return emit()
}

func (p *parser) number() error {
	value, err := lexNumber(&p.s)
	if err != nil {
		return err
	}

	switch value := value.(type) {
	case Int:
		return p.b.Int(int64(value))
	default:
		return p.b.Double(float64(value.(Double)))
	}
}

// dotted handles everything starting with a dot: a double without integer
// part, or one of the tags .Data and .Date.
func (p *parser) dotted() error {
	rest := p.s.rest()
	if len(rest) > 1 && isDigit(rest[1], false) {
		return p.number()
	}

	tagStart := p.s.pos

	// skip the dot
	p.s.pos++

	switch {
	case p.s.consume("Data"):
		return p.data()

	case p.s.consume("Date"):
		return p.date()

	default:
		return p.s.failAt(tagStart, ErrExpectedTag, "")
	}
}

func (p *parser) data() error {
	if err := p.openTag(); err != nil {
		return err
	}

	payloadStart := p.s.pos
	payload, err := lexString(&p.s)
	if err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(payload.String())
	if err != nil {
		return p.s.failAt(payloadStart, ErrInvalidBase64, err.Error())
	}

	if err := p.closeTag(); err != nil {
		return err
	}

	return p.b.Data(decoded)
}

func (p *parser) date() error {
	if err := p.openTag(); err != nil {
		return err
	}

	numberStart := p.s.pos
	value, err := lexNumber(&p.s)
	if err != nil {
		return err
	}

	seconds, ok := value.(Double)
	if !ok {
		return p.s.failAt(numberStart, ErrExpectedDouble, "found integer "+p.s.input[numberStart:p.s.pos])
	}

	if err := p.closeTag(); err != nil {
		return err
	}

	return p.b.Date(float64(seconds))
}

func (p *parser) openTag() error {
	if err := p.s.skipTrivia(); err != nil {
		return err
	}

	if err := p.s.expect('(', ErrExpectedOpenBracket); err != nil {
		return err
	}

	return p.s.skipTrivia()
}

func (p *parser) closeTag() error {
	if err := p.s.skipTrivia(); err != nil {
		return err
	}

	return p.s.expect(')', ErrExpectedCloseBracket)
}

func (p *parser) container() error {
	if p.depth >= p.maxDepth {
		return p.s.fail(ErrMaxDepth, "limit is "+strconv.Itoa(p.maxDepth))
	}

	p.depth++
	defer func() { p.depth-- }()

	open := p.s.pos

	// skip the open bracket
	p.s.pos++

	if p.skipping {
		return p.skipContainer()
	}

	shape := ShapeAny
	if p.hinter != nil {
		shape = p.hinter.NextShape()
	}

	hinted := shape != ShapeAny

	if !hinted {
		var err error
		shape, err = p.resolveShape()
		if err != nil {
			return err
		}

		if p.logger != nil {
			p.logger.Debug("Resolved container shape by lookahead",
				slog.Int("offset", open),
				slog.String("shape", shape.String()),
			)
		}
	}

	if shape == ShapeMap {
		return p.mapping(hinted)
	}

	return p.array()
}

// resolveShape scans ahead on a copy of the scanner to decide whether the
// container just opened is an array or a map.
func (p *parser) resolveShape() (Shape, error) {
	lookahead := parser{
		s:        p.s,
		b:        discardBuilder{},
		skipping: true,
		depth:    p.depth,
		maxDepth: p.maxDepth,
		logger:   p.logger,
	}

	if err := lookahead.s.skipTrivia(); err != nil {
		return ShapeAny, err
	}

	c, err := lookahead.s.peek()
	if err != nil {
		return ShapeAny, err
	}

	switch c {
	case ']':
		return ShapeArray, nil
	case ':':
		return ShapeMap, nil
	}

	if err := lookahead.value(); err != nil {
		return ShapeAny, err
	}

	if err := lookahead.s.skipTrivia(); err != nil {
		return ShapeAny, err
	}

	c, err = lookahead.s.peek()
	if err != nil {
		return ShapeAny, err
	}

	switch c {
	case ',', ']':
		return ShapeArray, nil
	case ':':
		return ShapeMap, nil
	default:
		return ShapeAny, lookahead.s.fail(ErrExpectedComma, "found "+strconv.QuoteRune(c))
	}
}

// skipContainer consumes the rest of a container without deciding its shape.
// Elements may be separated by ',' or ':' in any order, which keeps the
// lookahead linear in the size of the skipped value.
func (p *parser) skipContainer() error {
	if err := p.s.skipTrivia(); err != nil {
		return err
	}

	if p.s.consume("]") {
		return nil
	}

	if p.s.consume(":") {
		if err := p.s.skipTrivia(); err != nil {
			return err
		}

		return p.s.expect(']', ErrExpectedCloseBracket)
	}

	for {
		if err := p.value(); err != nil {
			return err
		}

		if err := p.s.skipTrivia(); err != nil {
			return err
		}

		c, err := p.s.peek()
		if err != nil {
			return err
		}

		switch c {
		case ',', ':':
			p.s.pos++
		case ']':
			p.s.pos++
			return nil
		default:
			return p.s.fail(ErrExpectedComma, "found "+strconv.QuoteRune(c))
		}
	}
}

func (p *parser) array() error {
	if err := p.b.BeginArray(); err != nil {
		return err
	}

	if err := p.s.skipTrivia(); err != nil {
		return err
	}

	if p.s.consume("]") {
		return p.b.EndArray()
	}

	for {
		if err := p.value(); err != nil {
			return err
		}

		if err := p.s.skipTrivia(); err != nil {
			return err
		}

		c, err := p.s.peek()
		if err != nil {
			return err
		}

		switch c {
		case ',':
			p.s.pos++
		case ']':
			p.s.pos++
			return p.b.EndArray()
		default:
			return p.s.fail(ErrExpectedComma, "found "+strconv.QuoteRune(c))
		}
	}
}

// mapping parses the pairs of a map. With a hint, "[]" is accepted as the empty map.
func (p *parser) mapping(hinted bool) error {
	if err := p.b.BeginMap(); err != nil {
		return err
	}

	if err := p.s.skipTrivia(); err != nil {
		return err
	}

	if p.s.consume(":") {
		if err := p.s.skipTrivia(); err != nil {
			return err
		}

		if err := p.s.expect(']', ErrExpectedCloseBracket); err != nil {
			return err
		}

		return p.b.EndMap()
	}

	if hinted && p.s.consume("]") {
		return p.b.EndMap()
	}

	for {
		// key
		if err := p.value(); err != nil {
			return err
		}

		if err := p.s.skipTrivia(); err != nil {
			return err
		}

		if err := p.s.expect(':', ErrExpectedColon); err != nil {
			return err
		}

		// value
		if err := p.value(); err != nil {
			return err
		}

		if err := p.s.skipTrivia(); err != nil {
			return err
		}

		c, err := p.s.peek()
		if err != nil {
			return err
		}

		switch c {
		case ',':
			p.s.pos++
		case ']':
			p.s.pos++
			return p.b.EndMap()
		default:
			return p.s.fail(ErrExpectedComma, "found "+strconv.QuoteRune(c))
		}
	}
}

// discardBuilder ignores all events.
type discardBuilder struct{}

func (discardBuilder) Nil() error           { return nil }
func (discardBuilder) Bool(bool) error      { return nil }
func (discardBuilder) Int(int64) error      { return nil }
func (discardBuilder) Double(float64) error { return nil }
func (discardBuilder) String(string) error  { return nil }
func (discardBuilder) Data([]byte) error    { return nil }
func (discardBuilder) Date(float64) error   { return nil }
func (discardBuilder) BeginArray() error    { return nil }
func (discardBuilder) EndArray() error      { return nil }
func (discardBuilder) BeginMap() error      { return nil }
func (discardBuilder) EndMap() error        { return nil }
