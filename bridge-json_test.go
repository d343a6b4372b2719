package sion

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromJSON(t *testing.T) {
	value, err := FromJSON([]byte(`{"b": 1, "a": [1.5, 2e0, null, true, "x"], "big": 12345678901234567890}`))
	require.NoError(t, err)

	require.Equal(t, Map{
		{Key: String("b"), Value: Int(1)},
		{Key: String("a"), Value: Array{Double(1.5), Double(2), Nil{}, Bool(true), String("x")}},
		{Key: String("big"), Value: Double(12345678901234567890)},
	}, value)
}

func TestFromJSONScalars(t *testing.T) {
	cases := map[string]Value{
		`null`:   Nil{},
		`false`:  Bool(false),
		`-12`:    Int(-12),
		`0.25`:   Double(0.25),
		`"text"`: String("text"),
		`[]`:     Array{},
		`{}`:     Map{},
	}

	for input, expected := range cases {
		t.Run(input, func(t *testing.T) {
			value, err := FromJSON([]byte(input))
			require.NoError(t, err)
			require.Equal(t, expected, value)
		})
	}
}

func TestFromJSONErrors(t *testing.T) {
	cases := []string{
		``,
		`{"a":`,
		`[1, 2`,
		`1 2`,
		`[1 2]`,
		`[1,,2]`,
		`[1,]`,
		`{"a" 1}`,
		`{"a":1,}`,
		`{"a":1 "b":2}`,
		`{1:2}`,
	}

	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			_, err := FromJSON([]byte(input))
			require.ErrorIs(t, err, ErrInvalidJSON)
		})
	}

	deep := strings.Repeat("[", 600) + strings.Repeat("]", 600)
	_, err := FromJSON([]byte(deep))
	require.ErrorIs(t, err, ErrMaxDepth)
}

func TestToJSON(t *testing.T) {
	value := Map{
		{Key: String("name"), Value: String("sion")},
		{Key: String("tags"), Value: Array{Int(1), Double(2.5), Bool(false), Nil{}}},
		{Key: String("data"), Value: Data{1, 2, 3}},
		{Key: String("date"), Value: Date(1709209815.25)},
	}

	encoded, err := ToJSON(value)
	require.NoError(t, err)
	require.Equal(t, `{"name":"sion","tags":[1,2.5,false,null],"data":"AQID","date":1709209815.25}`, string(encoded))
}

func TestToJSONErrors(t *testing.T) {
	cases := map[string]Value{
		"int key":  Map{{Key: Int(1), Value: Nil{}}},
		"nan":      Double(math.NaN()),
		"infinity": Array{Double(math.Inf(-1))},
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ToJSON(value)
			require.ErrorIs(t, err, ErrNotSupported)
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	input := `{"a":[1,-2.5,"x"],"b":{"c":null,"d":true}}`

	value, err := FromJSON([]byte(input))
	require.NoError(t, err)

	encoded, err := ToJSON(value)
	require.NoError(t, err)
	require.Equal(t, input, string(encoded))

	text, err := Encode(value)
	require.NoError(t, err)
	require.Equal(t, `["a":[1,-2.5,"x"],"b":["c":nil,"d":true]]`, text)
}
