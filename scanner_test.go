package sion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkipTrivia(t *testing.T) {
	cases := map[string]int{
		"":                     0,
		"x":                    0,
		"  x":                  2,
		"\t\n\r x":             4,
		"// comment\nx":        11,
		"// comment\r\nx":      12,
		"// comment\rx":        11,
		"// one\n  // two\n x": 17,
		"// no line break":     16,
		"\u00a0x":              2,
	}

	for input, expected := range cases {
		t.Run(input, func(t *testing.T) {
			s := scanner{input: input}
			require.NoError(t, s.skipTrivia())
			require.Equal(t, expected, s.pos)
		})
	}
}

func TestSkipTriviaSingleSlash(t *testing.T) {
	s := scanner{input: "  /x"}
	err := s.skipTrivia()
	require.ErrorIs(t, err, ErrExpectedSlash)
	require.ErrorIs(t, err, ErrSyntax)

	s = scanner{input: "/"}
	require.ErrorIs(t, s.skipTrivia(), ErrEOF)
}

func TestScannerExpect(t *testing.T) {
	s := scanner{input: "[]"}
	require.NoError(t, s.expect('[', ErrExpectedOpenBracket))
	require.Equal(t, 1, s.pos)

	err := s.expect('[', ErrExpectedOpenBracket)
	require.ErrorIs(t, err, ErrExpectedOpenBracket)
	require.Equal(t, 1, s.pos)

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	require.Equal(t, 1, syntaxErr.Offset)
	require.Equal(t, "found ']'", syntaxErr.Detail)
}

func TestScannerAdvanceMultiByte(t *testing.T) {
	s := scanner{input: "äb"}

	c, err := s.peek()
	require.NoError(t, err)
	require.Equal(t, 'ä', c)

	require.NoError(t, s.advance())
	require.Equal(t, 2, s.pos)

	require.NoError(t, s.advance())
	require.ErrorIs(t, s.advance(), ErrEOF)
}

func TestPosition(t *testing.T) {
	input := "ab\ncä\n\nx"

	cases := []struct {
		Offset       int
		Line, Column int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		// ä is two bytes but one column
		{6, 2, 3},
		{7, 3, 1},
		{8, 4, 1},
		{100, 4, 2},
	}

	for _, tc := range cases {
		line, column := position(input, tc.Offset)
		require.Equal(t, tc.Line, line, "line at offset %d", tc.Offset)
		require.Equal(t, tc.Column, column, "column at offset %d", tc.Offset)
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	err := &SyntaxError{Line: 2, Column: 5, Err: ErrExpectedColon, Detail: "found ','"}
	require.Equal(t, "sion: expected colon (found ',') at line 2, column 5", err.Error())

	err = &SyntaxError{Line: 1, Column: 1, Err: ErrEOF}
	require.Equal(t, "sion: unexpected end of input at line 1, column 1", err.Error())
}
