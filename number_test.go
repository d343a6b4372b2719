package sion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func lexNumberOf(input string) (Value, int, error) {
	s := scanner{input: input}
	value, err := lexNumber(&s)
	return value, s.pos, err
}

func TestLexNumberInt(t *testing.T) {
	cases := map[string]Int{
		"0":                    0,
		"7":                    7,
		"123":                  123,
		"-42":                  -42,
		"-0":                   0,
		"007":                  7,
		"0_1":                  1,
		"1_000_000":            1000000,
		"1__0":                 10,
		"0xffFF":               65535,
		"0XFF_FF":              65535,
		"-0x10":                -16,
		"9223372036854775807":  math.MaxInt64,
		"-9223372036854775808": math.MinInt64,
		"0x7fffffffffffffff":   math.MaxInt64,
		"-0x8000000000000000":  math.MinInt64,
	}

	for input, expected := range cases {
		t.Run(input, func(t *testing.T) {
			value, pos, err := lexNumberOf(input)
			require.NoError(t, err)
			require.Equal(t, expected, value)
			require.Equal(t, len(input), pos)
		})
	}
}

func TestLexNumberDouble(t *testing.T) {
	cases := map[string]Double{
		"1.5":        1.5,
		"-0.5":       -0.5,
		".5":         0.5,
		"-.25":       -0.25,
		"0.0":        0,
		"1.05":       1.05,
		"1.50":       1.5,
		"1.000_5":    1.0005,
		"1.25e-4":    0.000125,
		"1.0E2":      100,
		"1.0e+2":     100,
		"1.5e1_0":    1.5e10,
		"0x1.2p-2":   0.28125,
		"0x1.8p1":    3,
		"0x1.8":      1.5,
		"-0x1.0P4":   -16,
		"0xA.Ap0":    10.625,
		"1.0e400":    Double(math.Inf(1)),
		"Infinity":   Double(math.Inf(1)),
		"-Infinity":  Double(math.Inf(-1)),
		"2.5e-1_000": 0,
	}

	for input, expected := range cases {
		t.Run(input, func(t *testing.T) {
			value, pos, err := lexNumberOf(input)
			require.NoError(t, err)
			require.Equal(t, expected, value)
			require.Equal(t, len(input), pos)
		})
	}
}

func TestLexNumberNaN(t *testing.T) {
	value, pos, err := lexNumberOf("NaN")
	require.NoError(t, err)
	require.Equal(t, 3, pos)
	require.True(t, math.IsNaN(float64(value.(Double))))
}

func TestLexNumberNegativeZeroDouble(t *testing.T) {
	value, _, err := lexNumberOf("-0.0")
	require.NoError(t, err)
	require.True(t, math.Signbit(float64(value.(Double))))
}

func TestLexNumberStopsAtEndOfToken(t *testing.T) {
	cases := map[string]struct {
		Value Value
		Pos   int
	}{
		"12]":      {Int(12), 2},
		"12,3":     {Int(12), 2},
		"1.5:":     {Double(1.5), 3},
		"0 ":       {Int(0), 1},
		"0x1F)":    {Int(31), 4},
		"1.5e3 //": {Double(1500), 5},
		"NaNa":     {nil, 3},
		"0e5":      {Int(0), 1},
	}

	for input, expected := range cases {
		t.Run(input, func(t *testing.T) {
			value, pos, err := lexNumberOf(input)
			require.NoError(t, err)
			require.Equal(t, expected.Pos, pos)

			if expected.Value != nil {
				require.Equal(t, expected.Value, value)
			}
		})
	}
}

func TestLexNumberErrors(t *testing.T) {
	cases := map[string]error{
		"":                        ErrEOF,
		"-":                       ErrEOF,
		"x":                       ErrExpectedNumber,
		"--1":                     ErrExpectedNumber,
		"-NaN":                    ErrExpectedNumber,
		"Nan":                     ErrExpectedNaN,
		"Inf":                     ErrExpectedInfinity,
		"-Infinit":                ErrExpectedInfinity,
		"0x":                      ErrExpectedHexadecimalDigit,
		"0xg":                     ErrExpectedHexadecimalDigit,
		"0x.8":                    ErrExpectedHexadecimalDigit,
		"1.":                      ErrExpectedFraction,
		".":                       ErrExpectedFraction,
		"1.]":                     ErrExpectedFraction,
		"1.e5":                    ErrExpectedFraction,
		"1._5":                    ErrUnexpectedUnderscore,
		"1.5e":                    ErrExpectedExponent,
		"1.5e+":                   ErrExpectedExponent,
		"1.5e+-1":                 ErrUnexpectedSign,
		"1.5e1-":                  ErrUnexpectedSign,
		"1.5e_1":                  ErrUnexpectedUnderscore,
		"9223372036854775808":     ErrIntegerOverflow,
		"-9223372036854775809":    ErrIntegerOverflow,
		"0x1_0000_0000_0000_0000": ErrIntegerOverflow,
	}

	for input, expected := range cases {
		t.Run(input, func(t *testing.T) {
			_, pos, err := lexNumberOf(input)
			require.ErrorIs(t, err, expected)
			require.ErrorIs(t, err, ErrSyntax)

			// the scanner does not move on failure
			require.Equal(t, 0, pos)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestLexNumberSeparatorsDoNotChangeValue(t *testing.T) {
	plain, _, err := lexNumberOf("123456789")
	require.NoError(t, err)

	separated, _, err := lexNumberOf("1_2_3_456_789")
	require.NoError(t, err)

	require.Equal(t, plain, separated)

	plainDouble, _, err := lexNumberOf("3.14159e2")
	require.NoError(t, err)

	separatedDouble, _, err := lexNumberOf("3.141_59e0_2")
	require.NoError(t, err)

	require.Equal(t, plainDouble, separatedDouble)
}
