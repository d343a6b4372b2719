package sion

import (
	"errors"
	"fmt"
	"iter"
	"strconv"

	"golang.org/x/exp/constraints"
)

// StringSource adapts a string to a Source. Numbers and booleans are parsed
// with the strconv package, the string itself is returned as is.
type StringSource string

var _ IntSource = StringSource("")

func (s StringSource) Bool() (bool, error) {
	parsedValue, err := strconv.ParseBool(string(s))
	return checkParsed(string(s), parsedValue, err)
}

func (s StringSource) Int() (int64, error) {
	return parseSigned[int64](s, 64)
}

func (s StringSource) Uint() (uint64, error) {
	return parseUnsigned[uint64](s, 64)
}

func (s StringSource) Float() (float64, error) {
	parsedValue, err := strconv.ParseFloat(string(s), 64)
	return checkParsed(string(s), parsedValue, err)
}

func (s StringSource) String() (string, error) {
	return string(s), nil
}

func (s StringSource) Get(string) (Source, error) {
	return nil, ErrNotSupported
}

func (s StringSource) KeyValues() (iter.Seq2[Source, Source], error) {
	return nil, ErrNotSupported
}

func (s StringSource) Iter() (iter.Seq[Source], error) {
	return nil, ErrNotSupported
}

func (s StringSource) Int8() (int8, error)   { return parseSigned[int8](s, 8) }
func (s StringSource) Int16() (int16, error) { return parseSigned[int16](s, 16) }
func (s StringSource) Int32() (int32, error) { return parseSigned[int32](s, 32) }
func (s StringSource) Int64() (int64, error) { return parseSigned[int64](s, 64) }

func (s StringSource) Uint8() (uint8, error)   { return parseUnsigned[uint8](s, 8) }
func (s StringSource) Uint16() (uint16, error) { return parseUnsigned[uint16](s, 16) }
func (s StringSource) Uint32() (uint32, error) { return parseUnsigned[uint32](s, 32) }
func (s StringSource) Uint64() (uint64, error) { return parseUnsigned[uint64](s, 64) }

func parseSigned[T constraints.Signed](s StringSource, bitSize int) (T, error) {
	parsedValue, err := strconv.ParseInt(string(s), 10, bitSize)
	return checkParsed(string(s), T(parsedValue), err)
}

func parseUnsigned[T constraints.Unsigned](s StringSource, bitSize int) (T, error) {
	parsedValue, err := strconv.ParseUint(string(s), 10, bitSize)
	return checkParsed(string(s), T(parsedValue), err)
}

// checkParsed turns a strconv syntax error into ErrNotSupported. Range errors
// are kept, so they can be matched with strconv.ErrRange.
func checkParsed[T any](input string, value T, err error) (T, error) {
	var zeroValue T

	switch {
	case errors.Is(err, strconv.ErrSyntax):
		err := fmt.Errorf("parse %q: %w", input, err)
		return zeroValue, errors.Join(err, ErrNotSupported)

	case err != nil:
		return zeroValue, err

	default:
		return value, nil
	}
}
