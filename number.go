package sion

import (
	"math"
	"strconv"
	"strings"
)

// numberState is a state of the numeric literal lexer.
type numberState uint8

const (
	stateStart numberState = iota
	stateNegStart
	stateLeadingZero
	stateHexStart
	stateIntOrDouble
	stateDouble
	stateExponent

	// stateSpecial holds a completed NaN or Infinity literal.
	stateSpecial
)

// span is a byte range of the input. A zero length span is absent.
type span struct {
	start, end int
}

func (s span) empty() bool {
	return s.end <= s.start
}

// numberLexer recognizes the longest numeric literal starting at pos.
type numberLexer struct {
	input string
	pos   int

	state    numberState
	negative bool
	hex      bool

	integer  span
	fraction span

	expNegative bool
	expSigned   bool
	exponent    span

	specialValue float64
}

// lexNumber consumes a numeric literal and returns either an Int or a Double.
// The scanner is only advanced if a literal was recognized.
func lexNumber(s *scanner) (Value, error) {
	l := numberLexer{input: s.input, pos: s.pos}

	for l.pos < len(l.input) {
		done, err := l.step(l.input[l.pos])
		if err != nil {
			return nil, err
		}

		if done {
			break
		}
	}

	value, err := l.finish()
	if err != nil {
		return nil, err
	}

	s.pos = l.pos
	return value, nil
}

// step is the transition function. It consumes c, or reports that the
// literal ended before c.
func (l *numberLexer) step(c byte) (done bool, err error) {
	switch l.state {
	case stateStart, stateNegStart:
		negative := l.state == stateNegStart
		switch {
		case c == '0':
			l.state = stateLeadingZero
			l.integer = span{l.pos, l.pos + 1}

		case isDigit(c, false):
			l.state = stateIntOrDouble
			l.integer = span{l.pos, l.pos + 1}

		case c == 'N' && !negative:
			return true, l.special("NaN", math.NaN(), ErrExpectedNaN)

		case c == 'I':
			return true, l.special("Infinity", math.Inf(1), ErrExpectedInfinity)

		case c == '-' && !negative:
			l.state = stateNegStart
			l.negative = true

		case c == '.':
			l.state = stateDouble

		default:
			return false, l.fail(ErrExpectedNumber, strconv.QuoteRune(rune(c)))
		}

	case stateLeadingZero:
		switch {
		case c == 'x' || c == 'X':
			l.state = stateHexStart
			l.hex = true
			l.integer = span{}

		case c == '.':
			l.state = stateDouble

		case isDigit(c, false) || c == '_':
			l.state = stateIntOrDouble
			l.integer.end = l.pos + 1

		default:
			return true, nil
		}

	case stateHexStart:
		if !isDigit(c, true) {
			return false, l.fail(ErrExpectedHexadecimalDigit, strconv.QuoteRune(rune(c)))
		}

		l.state = stateIntOrDouble
		l.integer = span{l.pos, l.pos + 1}

	case stateIntOrDouble:
		switch {
		case isDigit(c, l.hex) || c == '_':
			l.integer.end = l.pos + 1

		case c == '.':
			l.state = stateDouble

		default:
			return true, nil
		}

	case stateDouble:
		switch {
		case isDigit(c, l.hex):
			if l.fraction.empty() {
				l.fraction = span{l.pos, l.pos + 1}
			} else {
				l.fraction.end = l.pos + 1
			}

		case c == '_':
			if l.fraction.empty() {
				return false, l.fail(ErrUnexpectedUnderscore, "")
			}

			l.fraction.end = l.pos + 1

		case l.isExponentMarker(c):
			if l.fraction.empty() {
				return false, l.fail(ErrExpectedFraction, "")
			}

			l.state = stateExponent

		default:
			return true, nil
		}

	case stateExponent:
		switch {
		case c == '+' || c == '-':
			if l.expSigned || !l.exponent.empty() {
				return false, l.fail(ErrUnexpectedSign, "")
			}

			l.expSigned = true
			l.expNegative = c == '-'

		case isDigit(c, false):
			if l.exponent.empty() {
				l.exponent = span{l.pos, l.pos + 1}
			} else {
				l.exponent.end = l.pos + 1
			}

		case c == '_':
			if l.exponent.empty() {
				return false, l.fail(ErrUnexpectedUnderscore, "")
			}

			l.exponent.end = l.pos + 1

		default:
			return true, nil
		}

	case stateSpecial:
		return true, nil
	}

	l.pos++
	return false, nil
}

// special matches a NaN or Infinity spelling at the current position.
func (l *numberLexer) special(lit string, value float64, kind error) error {
	if !strings.HasPrefix(l.input[l.pos:], lit) {
		return l.fail(kind, "")
	}

	if l.negative {
		value = -value
	}

	l.state = stateSpecial
	l.specialValue = value
	l.pos += len(lit)
	return nil
}

func (l *numberLexer) isExponentMarker(c byte) bool {
	if l.hex {
		return c == 'p' || c == 'P'
	}

	return c == 'e' || c == 'E'
}

// finish computes the value of the literal in its final state.
func (l *numberLexer) finish() (Value, error) {
	switch l.state {
	case stateStart, stateNegStart:
		return nil, l.fail(ErrEOF, "")

	case stateHexStart:
		return nil, l.fail(ErrExpectedHexadecimalDigit, "")

	case stateLeadingZero, stateIntOrDouble:
		return l.integerValue()

	case stateDouble:
		if l.fraction.empty() {
			return nil, l.fail(ErrExpectedFraction, "")
		}

		return l.doubleValue()

	case stateExponent:
		if l.exponent.empty() {
			return nil, l.fail(ErrExpectedExponent, "")
		}

		return l.doubleValue()

	default:
		return Double(l.specialValue), nil
	}
}

// integerValue accumulates only real digits, separators do not change the value.
func (l *numberLexer) integerValue() (Value, error) {
	radix := uint64(10)
	if l.hex {
		radix = 16
	}

	limit := uint64(math.MaxInt64)
	if l.negative {
		limit++
	}

	var acc uint64
	for _, c := range []byte(l.input[l.integer.start:l.integer.end]) {
		if c == '_' {
			continue
		}

		digit := digitValue(c)
		if acc > (limit-digit)/radix {
			return nil, l.failAt(l.integer.start, ErrIntegerOverflow, l.input[l.integer.start:l.integer.end])
		}

		acc = acc*radix + digit
	}

	if l.negative {
		// wraps correctly for a magnitude of 1<<63
		return Int(-int64(acc)), nil
	}

	return Int(int64(acc)), nil
}

// doubleValue computes sign * (integer + fraction / radix^len(fraction)) * base^exponent
// with correct rounding by handing the separator-free literal to strconv.
func (l *numberLexer) doubleValue() (Value, error) {
	var sb strings.Builder
	if l.negative {
		sb.WriteByte('-')
	}

	if l.hex {
		sb.WriteString("0x")
	}

	if l.integer.empty() {
		sb.WriteByte('0')
	} else {
		writeDigits(&sb, l.input[l.integer.start:l.integer.end])
	}

	sb.WriteByte('.')
	writeDigits(&sb, l.input[l.fraction.start:l.fraction.end])

	if l.hex {
		sb.WriteByte('p')
	} else {
		sb.WriteByte('e')
	}

	if l.expNegative {
		sb.WriteByte('-')
	}

	if l.exponent.empty() {
		sb.WriteByte('0')
	} else {
		writeDigits(&sb, l.input[l.exponent.start:l.exponent.end])
	}

	value, err := strconv.ParseFloat(sb.String(), 64)
	if err != nil && !isRangeError(err) {
		return nil, l.fail(ErrExpectedNumber, err.Error())
	}

	// out of range literals round to zero or infinity
	return Double(value), nil
}

func (l *numberLexer) fail(kind error, detail string) *SyntaxError {
	return l.failAt(l.pos, kind, detail)
}

func (l *numberLexer) failAt(offset int, kind error, detail string) *SyntaxError {
	s := scanner{input: l.input}
	return s.failAt(offset, kind, detail)
}

func writeDigits(sb *strings.Builder, digits string) {
	for idx := 0; idx < len(digits); idx++ {
		if digits[idx] != '_' {
			sb.WriteByte(digits[idx])
		}
	}
}

func isRangeError(err error) bool {
	numErr, ok := err.(*strconv.NumError)
	return ok && numErr.Err == strconv.ErrRange
}

func isDigit(c byte, hex bool) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case hex && c >= 'a' && c <= 'f':
		return true
	case hex && c >= 'A' && c <= 'F':
		return true
	default:
		return false
	}
}

func digitValue(c byte) uint64 {
	switch {
	case c >= 'a':
		return uint64(c-'a') + 10
	case c >= 'A':
		return uint64(c-'A') + 10
	default:
		return uint64(c - '0')
	}
}
