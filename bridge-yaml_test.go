package sion

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromYAML(t *testing.T) {
	input := `
a: 1
b: [x, 2.5, "3"]
? [1, 2]
: pair
ts: 2024-02-29T12:30:15Z
bin: !!binary AQID
n: ~
inf: .inf
`

	value, err := FromYAML([]byte(input))
	require.NoError(t, err)

	require.Equal(t, Map{
		{Key: String("a"), Value: Int(1)},
		{Key: String("b"), Value: Array{String("x"), Double(2.5), String("3")}},
		{Key: Array{Int(1), Int(2)}, Value: String("pair")},
		{Key: String("ts"), Value: Date(1709209815)},
		{Key: String("bin"), Value: Data{1, 2, 3}},
		{Key: String("n"), Value: Nil{}},
		{Key: String("inf"), Value: Double(math.Inf(1))},
	}, value)
}

func TestFromYAMLAliases(t *testing.T) {
	value, err := FromYAML([]byte("base: &b [1, true]\ncopy: *b\n"))
	require.NoError(t, err)

	require.Equal(t, Map{
		{Key: String("base"), Value: Array{Int(1), Bool(true)}},
		{Key: String("copy"), Value: Array{Int(1), Bool(true)}},
	}, value)
}

func TestFromYAMLExcessiveAliasing(t *testing.T) {
	// every level references the previous one ten times
	var doc strings.Builder
	doc.WriteString("l0: &l0 [a, a, a, a, a, a, a, a, a, a]\n")
	for level := 1; level <= 8; level++ {
		ref := fmt.Sprintf("*l%d", level-1)
		refs := strings.TrimSuffix(strings.Repeat(ref+", ", 10), ", ")
		fmt.Fprintf(&doc, "l%d: &l%d [%s]\n", level, level, refs)
	}

	_, err := FromYAML([]byte(doc.String()))
	require.ErrorIs(t, err, ErrExcessiveAliasing)
}

func TestFromYAMLModerateAliasing(t *testing.T) {
	var doc strings.Builder
	doc.WriteString("base: &base [1, 2, 3]\n")
	for idx := range 200 {
		fmt.Fprintf(&doc, "copy%d: *base\n", idx)
	}

	value, err := FromYAML([]byte(doc.String()))
	require.NoError(t, err)
	require.Equal(t, 201, value.(Map).Len())
}

func TestFromYAMLEmptyDocument(t *testing.T) {
	value, err := FromYAML(nil)
	require.NoError(t, err)
	require.Equal(t, Nil{}, value)
}

func TestFromYAMLInvalid(t *testing.T) {
	_, err := FromYAML([]byte("a: [1"))
	require.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	value := Map{
		{Key: String("a"), Value: Int(1)},
		{Key: String("number text"), Value: String("1")},
		{Key: String("data"), Value: Data{1, 2, 3}},
		{Key: String("date"), Value: Date(1709209815)},
		{Key: Array{Int(1)}, Value: Bool(true)},
		{Key: String("double"), Value: Double(2.5)},
		{Key: String("negative infinity"), Value: Double(math.Inf(-1))},
		{Key: String("nil"), Value: Nil{}},
	}

	encoded, err := ToYAML(value)
	require.NoError(t, err)

	decoded, err := FromYAML(encoded)
	require.NoError(t, err)
	require.Equal(t, value, decoded)
}
