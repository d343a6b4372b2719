package sion

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrSyntax is matched by every error that describes malformed SION text.
var ErrSyntax = errors.New("sion: syntax error")

// Errors returned while decoding SION text. Each one matches ErrSyntax as well.
var (
	ErrEOF                      = syntaxKind("unexpected end of input")
	ErrTrailingCharacters       = syntaxKind("input has trailing characters")
	ErrExpectedSlash            = syntaxKind("expected a slash")
	ErrExpectedNaN              = syntaxKind("expected NaN")
	ErrExpectedInfinity         = syntaxKind("expected Infinity")
	ErrExpectedNumber           = syntaxKind("expected a digit, NaN, Infinity, '-' or '.'")
	ErrExpectedFraction         = syntaxKind("expected fractional part")
	ErrExpectedExponent         = syntaxKind("expected exponent part")
	ErrExpectedHexadecimalDigit = syntaxKind("expected hexadecimal digit")
	ErrExpectedOpenBracket      = syntaxKind("expected open bracket")
	ErrExpectedCloseBracket     = syntaxKind("expected close bracket")
	ErrExpectedComma            = syntaxKind("expected comma")
	ErrExpectedColon            = syntaxKind("expected colon")
	ErrExpectedNil              = syntaxKind("expected nil")
	ErrExpectedTrue             = syntaxKind("expected true")
	ErrExpectedFalse            = syntaxKind("expected false")
	ErrExpectedValue            = syntaxKind("expected a value")
	ErrExpectedTag              = syntaxKind("expected .Data or .Date")
	ErrExpectedDouble           = syntaxKind("expected double")
	ErrUnexpectedUnderscore     = syntaxKind("unexpected underscore")
	ErrUnexpectedSign           = syntaxKind("unexpected sign")
	ErrUnexpectedLineBreak      = syntaxKind("unexpected line break in string")
	ErrInvalidEscape            = syntaxKind("invalid escape sequence")
	ErrInvalidUnicode           = syntaxKind("invalid unicode code point")
	ErrInvalidUTF8              = syntaxKind("input is not valid UTF-8")
	ErrInvalidBase64            = syntaxKind("failed to decode base64")
	ErrIntegerOverflow          = syntaxKind("integer literal overflows int64")
)

// ErrMaxDepth is returned when a document nests deeper than the configured limit.
var ErrMaxDepth = errors.New("sion: maximum nesting depth exceeded")

// ErrNotSupported is returned when a value can not be represented in the requested form.
var ErrNotSupported = errors.New("sion: not supported")

// ErrNoValue is returned by Source.Get if a map does not contain the requested key.
var ErrNoValue = errors.New("sion: no value")

type syntaxKindError string

func syntaxKind(msg string) error { return syntaxKindError(msg) }

func (e syntaxKindError) Error() string { return "sion: " + string(e) }

func (e syntaxKindError) Is(target error) bool {
	return target == ErrSyntax || target == error(e)
}

// SyntaxError describes malformed input at a specific location.
type SyntaxError struct {
	// Offset is the byte offset into the input at which the failure was detected.
	Offset int
	// Line and Column are one-based; Column counts runes.
	Line, Column int

	// Err is one of the sentinel errors of this package, e.g. ErrExpectedColon.
	Err error

	// Detail holds optional context like the offending character.
	Detail string
}

func (e *SyntaxError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if e.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Detail)
		sb.WriteString(")")
	}

	_, _ = fmt.Fprintf(&sb, " at line %d, column %d", e.Line, e.Column)
	return sb.String()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// UnsupportedValueError is returned by the encoder for values that have no text form.
type UnsupportedValueError struct {
	Kind Kind
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("sion: encoding a %s value is not supported", e.Kind)
}

func (e *UnsupportedValueError) Unwrap() error {
	return ErrNotSupported
}

// NotSupportedError is returned if a Go type can not be bound to or from SION.
type NotSupportedError struct {
	Type reflect.Type
}

func (n NotSupportedError) Error() string {
	return fmt.Sprintf("sion: type %q is not supported", n.Type)
}
