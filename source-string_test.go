package sion

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringSource(t *testing.T) {
	runStringSourceTests(t, toStringSource)
}

func TestPlainStringSource(t *testing.T) {
	// without IntSource, the range checks happen in the setters
	runStringSourceTests(t, toPlainStringSource)
}

func runStringSourceTests(t *testing.T, toSource func(value string) Source) {
	if bits.UintSize == 64 {
		bindTest(t, toSource, stringSourceCase[int]{
			MinIn:        "-9223372036854775808",
			MinOut:       math.MinInt,
			MaxIn:        "9223372036854775807",
			MaxOut:       math.MaxInt,
			OutOfRange:   []string{"-9223372036854775809", "9223372036854775808"},
			NotSupported: []string{"foobar", "", "1e4"},
		})

		bindTest(t, toSource, stringSourceCase[uint]{
			MinIn:        "0",
			MinOut:       0,
			MaxIn:        "18446744073709551615",
			MaxOut:       math.MaxUint,
			OutOfRange:   []string{"18446744073709551616"},
			NotSupported: []string{"foobar", "", "1e4", "-1"},
		})
	}

	bindTest(t, toSource, stringSourceCase[int8]{
		MinIn:        "-128",
		MinOut:       math.MinInt8,
		MaxIn:        "127",
		MaxOut:       math.MaxInt8,
		OutOfRange:   []string{"-129", "128"},
		NotSupported: []string{"foobar", "", "1e4"},
	})

	bindTest(t, toSource, stringSourceCase[int16]{
		MinIn:        "-32768",
		MinOut:       math.MinInt16,
		MaxIn:        "32767",
		MaxOut:       math.MaxInt16,
		OutOfRange:   []string{"-32769", "32768"},
		NotSupported: []string{"foobar", "", "0x10"},
	})

	bindTest(t, toSource, stringSourceCase[int32]{
		MinIn:        "-2147483648",
		MinOut:       math.MinInt32,
		MaxIn:        "2147483647",
		MaxOut:       math.MaxInt32,
		OutOfRange:   []string{"-2147483649", "2147483648"},
		NotSupported: []string{"foobar", "", "1e4"},
	})

	bindTest(t, toSource, stringSourceCase[int64]{
		MinIn:        "-9223372036854775808",
		MinOut:       math.MinInt64,
		MaxIn:        "9223372036854775807",
		MaxOut:       math.MaxInt64,
		OutOfRange:   []string{"-9223372036854775809", "9223372036854775808"},
		NotSupported: []string{"foobar", "", "1_000"},
	})

	bindTest(t, toSource, stringSourceCase[uint8]{
		MinIn:        "0",
		MinOut:       0,
		MaxIn:        "255",
		MaxOut:       math.MaxUint8,
		OutOfRange:   []string{"256"},
		NotSupported: []string{"foobar", "", "1e4", "-1"},
	})

	bindTest(t, toSource, stringSourceCase[uint16]{
		MinIn:        "0",
		MinOut:       0,
		MaxIn:        "65535",
		MaxOut:       math.MaxUint16,
		OutOfRange:   []string{"65536"},
		NotSupported: []string{"foobar", "", "1e4", "-1"},
	})

	bindTest(t, toSource, stringSourceCase[uint32]{
		MinIn:        "0",
		MinOut:       0,
		MaxIn:        "4294967295",
		MaxOut:       math.MaxUint32,
		OutOfRange:   []string{"4294967296"},
		NotSupported: []string{"foobar", "", "1e4", "-1"},
	})

	bindTest(t, toSource, stringSourceCase[uint64]{
		MinIn:        "0",
		MinOut:       0,
		MaxIn:        "18446744073709551615",
		MaxOut:       math.MaxUint64,
		OutOfRange:   []string{"18446744073709551616"},
		NotSupported: []string{"foobar", "", "1e4", "-1"},
	})

	bindTest(t, toSource, stringSourceCase[bool]{
		MinIn:        "true",
		MinOut:       true,
		MaxIn:        "false",
		MaxOut:       false,
		NotSupported: []string{"foobar", "", "1e4", "-1"},
	})

	bindTest(t, toSource, stringSourceCase[float64]{
		MinIn:        "-1234.5",
		MinOut:       -1234.5,
		MaxIn:        "1235.5",
		MaxOut:       1235.5,
		Valid:        []string{"1e4", "-1", "0.0024", "Inf"},
		NotSupported: []string{"foobar", ""},
	})

	bindTest(t, toSource, stringSourceCase[float32]{
		MinIn:        "-0.5",
		MinOut:       -0.5,
		MaxIn:        "3.25",
		MaxOut:       3.25,
		OutOfRange:   []string{"1e39", "1e400"},
		NotSupported: []string{"foobar"},
	})
}

type stringSourceCase[T any] struct {
	MinIn  string
	MinOut T

	MaxIn  string
	MaxOut T

	OutOfRange   []string
	NotSupported []string
	Valid        []string
}

func bindTest[T any](t *testing.T, toSource func(string) Source, v stringSourceCase[T]) {
	var tZero T

	t.Run(fmt.Sprintf("bind to %T", tZero), func(t *testing.T) {
		actual, err := unmarshalSourceNew[T](toSource(v.MinIn))
		require.NoError(t, err)
		require.Equal(t, v.MinOut, actual)

		actual, err = unmarshalSourceNew[T](toSource(v.MaxIn))
		require.NoError(t, err)
		require.Equal(t, v.MaxOut, actual)

		for _, value := range v.OutOfRange {
			actual, err = unmarshalSourceNew[T](toSource(value))
			require.ErrorIs(t, err, strconv.ErrRange, value)
			require.Equal(t, tZero, actual)
		}

		for _, value := range v.NotSupported {
			actual, err = unmarshalSourceNew[T](toSource(value))
			require.ErrorIs(t, err, ErrNotSupported, value)
			require.Equal(t, tZero, actual)
		}

		for _, value := range v.Valid {
			_, err = unmarshalSourceNew[T](toSource(value))
			require.NoError(t, err, value)
		}
	})
}

func TestStringSourceHasNoChildren(t *testing.T) {
	_, err := StringSource("a").Get("key")
	require.ErrorIs(t, err, ErrNotSupported)

	_, err = StringSource("a").Iter()
	require.ErrorIs(t, err, ErrNotSupported)

	_, err = StringSource("a").KeyValues()
	require.ErrorIs(t, err, ErrNotSupported)
}

func toStringSource(value string) Source {
	return StringSource(value)
}

func toPlainStringSource(value string) Source {
	return plainStringSource{Value: value}
}

// plainStringSource forwards to StringSource, but hides the sized accessors of IntSource.
type plainStringSource struct {
	EmptySource
	Value string
}

func (s plainStringSource) Bool() (bool, error) {
	return StringSource(s.Value).Bool()
}

func (s plainStringSource) Float() (float64, error) {
	return StringSource(s.Value).Float()
}

func (s plainStringSource) Int() (int64, error) {
	return StringSource(s.Value).Int()
}

func (s plainStringSource) Uint() (uint64, error) {
	return StringSource(s.Value).Uint()
}
