package sion

import (
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Marshaler is implemented by types that encode themselves by emitting builder events.
type Marshaler interface {
	MarshalSION(b Builder) error
}

// The default Encoder instance.
var enc = Encoder{maxDepth: DefaultMaxDepth, structTag: "sion"}

// Encoder writes values as canonical SION text. This type is immutable,
// the With methods return modified copies.
type Encoder struct {
	maxDepth int

	// the struct tag used when marshaling go structs
	structTag string
}

func NewEncoder() *Encoder {
	return &Encoder{
		maxDepth:  DefaultMaxDepth,
		structTag: "sion",
	}
}

func (e *Encoder) WithMaxDepth(maxDepth int) *Encoder {
	if e.maxDepth == maxDepth {
		return e
	}

	return &Encoder{
		maxDepth:  maxDepth,
		structTag: e.structTag,
	}
}

func (e *Encoder) WithTag(structTag string) *Encoder {
	if e.structTag == structTag {
		return e
	}

	return &Encoder{
		maxDepth:  e.maxDepth,
		structTag: structTag,
	}
}

// Encode returns the canonical text of v.
func Encode(v Value) (string, error) {
	return enc.Encode(v)
}

// Encode returns the canonical text of v.
func (e *Encoder) Encode(v Value) (string, error) {
	buf, err := e.Append(nil, v)
	if err != nil {
		return "", err
	}

	return string(buf), nil
}

// Append appends the canonical text of v to buf. On failure, buf is returned unchanged.
func (e *Encoder) Append(buf []byte, v Value) ([]byte, error) {
	tb := e.newTextBuilder(buf)
	if err := Walk(v, tb); err != nil {
		return buf, err
	}

	return tb.finish(buf)
}

// EncodeTo writes the canonical text of v to w. Nothing is written if encoding fails.
func (e *Encoder) EncodeTo(w io.Writer, v Value) error {
	buf, err := e.Append(nil, v)
	if err != nil {
		return err
	}

	_, err = w.Write(buf)
	return err
}

func (e *Encoder) newTextBuilder(buf []byte) *textBuilder {
	maxDepth := e.maxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	return &textBuilder{buf: buf, maxDepth: maxDepth}
}

type textFrame struct {
	isMap bool
	count int
}

// textBuilder is a Builder that writes canonical SION text.
type textBuilder struct {
	buf      []byte
	stack    []textFrame
	maxDepth int

	values int
}

func (t *textBuilder) finish(original []byte) ([]byte, error) {
	if len(t.stack) > 0 || t.values != 1 {
		return original, fmt.Errorf("encode: %w", errUnbalanced)
	}

	return t.buf, nil
}

// separator writes the delimiter that goes in front of the next value.
func (t *textBuilder) separator() error {
	if len(t.stack) == 0 {
		t.values++
		if t.values > 1 {
			return fmt.Errorf("second top level value: %w", errUnbalanced)
		}

		return nil
	}

	top := &t.stack[len(t.stack)-1]
	switch {
	case top.count == 0:
	case top.isMap && top.count%2 == 1:
		t.buf = append(t.buf, ':')
	default:
		t.buf = append(t.buf, ',')
	}

	top.count++
	return nil
}

func (t *textBuilder) Nil() error {
	if err := t.separator(); err != nil {
		return err
	}

	t.buf = append(t.buf, "nil"...)
	return nil
}

func (t *textBuilder) Bool(value bool) error {
	if err := t.separator(); err != nil {
		return err
	}

	t.buf = strconv.AppendBool(t.buf, value)
	return nil
}

func (t *textBuilder) Int(value int64) error {
	if err := t.separator(); err != nil {
		return err
	}

	t.buf = strconv.AppendInt(t.buf, value, 10)
	return nil
}

func (t *textBuilder) Double(value float64) error {
	if err := t.separator(); err != nil {
		return err
	}

	t.buf = appendDouble(t.buf, value)
	return nil
}

func (t *textBuilder) String(value string) error {
	if !utf8.ValidString(value) {
		return fmt.Errorf("encode string %q: invalid UTF-8: %w", value, ErrNotSupported)
	}

	if err := t.separator(); err != nil {
		return err
	}

	t.buf = appendQuoted(t.buf, value)
	return nil
}

func (t *textBuilder) Data(value []byte) error {
	if err := t.separator(); err != nil {
		return err
	}

	t.buf = append(t.buf, `.Data("`...)
	t.buf = base64.StdEncoding.AppendEncode(t.buf, value)
	t.buf = append(t.buf, `")`...)
	return nil
}

func (t *textBuilder) Date(float64) error {
	return &UnsupportedValueError{Kind: KindDate}
}

func (t *textBuilder) BeginArray() error {
	return t.begin(false)
}

func (t *textBuilder) EndArray() error {
	return t.end(false)
}

func (t *textBuilder) BeginMap() error {
	return t.begin(true)
}

func (t *textBuilder) EndMap() error {
	return t.end(true)
}

func (t *textBuilder) begin(isMap bool) error {
	if len(t.stack) >= t.maxDepth {
		return fmt.Errorf("encode: %w", ErrMaxDepth)
	}

	if err := t.separator(); err != nil {
		return err
	}

	t.buf = append(t.buf, '[')
	t.stack = append(t.stack, textFrame{isMap: isMap})
	return nil
}

func (t *textBuilder) end(isMap bool) error {
	if len(t.stack) == 0 || t.stack[len(t.stack)-1].isMap != isMap {
		return fmt.Errorf("encode: %w", errUnbalanced)
	}

	top := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]

	switch {
	case isMap && top.count%2 == 1:
		return fmt.Errorf("map key without value: %w", errUnbalanced)

	case isMap && top.count == 0:
		t.buf = append(t.buf, ":]"...)

	default:
		t.buf = append(t.buf, ']')
	}

	return nil
}

// appendDouble writes the shortest text that parses back to the same value.
// The text always contains a fraction or an exponent with fraction, so it
// never reads back as an Int.
func appendDouble(buf []byte, value float64) []byte {
	switch {
	case math.IsNaN(value):
		return append(buf, "NaN"...)
	case math.IsInf(value, 1):
		return append(buf, "Infinity"...)
	case math.IsInf(value, -1):
		return append(buf, "-Infinity"...)
	}

	formatted := strconv.FormatFloat(value, 'g', -1, 64)
	if strings.IndexByte(formatted, '.') >= 0 {
		return append(buf, formatted...)
	}

	// insert a fraction in front of the exponent, if any
	mantissa, exponent := formatted, ""
	if idx := strings.IndexByte(formatted, 'e'); idx >= 0 {
		mantissa, exponent = formatted[:idx], formatted[idx:]
	}

	buf = append(buf, mantissa...)
	buf = append(buf, ".0"...)
	return append(buf, exponent...)
}

const hexDigits = "0123456789abcdef"

// appendQuoted writes value as a string literal.
func appendQuoted(buf []byte, value string) []byte {
	buf = append(buf, '"')

	for idx := 0; idx < len(value); {
		c := value[idx]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(value[idx:])
			buf = utf8.AppendRune(buf, r)
			idx += size
			continue
		}

		switch c {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case 0:
			buf = append(buf, '\\', '0')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		default:
			if c < 0x20 || c == 0x7f {
				buf = append(buf, '\\', 'u')
				for shift := 28; shift >= 0; shift -= 4 {
					buf = append(buf, hexDigits[(uint32(c)>>shift)&0xf])
				}
			} else {
				buf = append(buf, c)
			}
		}

		idx++
	}

	return append(buf, '"')
}
