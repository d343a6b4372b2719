package sion

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	require.True(t, Equal(nil, Nil{}))
	require.True(t, Equal(Int(1), Int(1)))
	require.True(t, Equal(Data{1, 2}, Data{1, 2}))
	require.True(t, Equal(Data{}, Data(nil)))
	require.True(t, Equal(Array{}, Array(nil)))
	require.True(t, Equal(
		Map{{Key: Array{Int(1)}, Value: Map{}}},
		Map{{Key: Array{Int(1)}, Value: Map{}}},
	))

	require.False(t, Equal(Int(1), Double(1)))
	require.False(t, Equal(Double(1), Date(1)))
	require.False(t, Equal(Array{}, Map{}))
	require.False(t, Equal(String("a"), Data("a")))
	require.False(t, Equal(Array{Int(1)}, Array{Int(1), Int(2)}))
	require.False(t, Equal(Double(math.NaN()), Double(math.NaN())))
}

func TestEqualMapIsOrderSensitive(t *testing.T) {
	first := Map{
		{Key: String("a"), Value: Int(1)},
		{Key: String("b"), Value: Int(2)},
	}

	second := Map{
		{Key: String("b"), Value: Int(2)},
		{Key: String("a"), Value: Int(1)},
	}

	require.True(t, Equal(first, first))
	require.False(t, Equal(first, second))
}

func TestMapGetAndLookup(t *testing.T) {
	m := Map{
		{Key: Int(1), Value: String("int")},
		{Key: String("1"), Value: String("string")},
		{Key: Array{Bool(true)}, Value: String("array")},
		{Key: String("1"), Value: String("duplicate")},
	}

	value, ok := m.Get(Int(1))
	require.True(t, ok)
	require.Equal(t, String("int"), value)

	value, ok = m.Get(Array{Bool(true)})
	require.True(t, ok)
	require.Equal(t, String("array"), value)

	value, ok = m.Lookup("1")
	require.True(t, ok)
	require.Equal(t, String("string"), value)

	_, ok = m.Get(Double(1))
	require.False(t, ok)

	_, ok = m.Lookup("2")
	require.False(t, ok)

	require.Equal(t, 4, m.Len())
	require.Equal(t, 2, Array{Nil{}, Nil{}}.Len())
}

func TestKindString(t *testing.T) {
	require.Equal(t, "nil", Nil{}.Kind().String())
	require.Equal(t, "double", Double(1).Kind().String())
	require.Equal(t, "date", Date(1).Kind().String())
	require.Equal(t, "map", Map{}.Kind().String())
	require.Equal(t, "unknown", Kind(99).String())
}

func TestDateTime(t *testing.T) {
	require.Equal(t, time.Unix(1, 500_000_000).UTC(), Date(1.5).Time())
	require.Equal(t, time.Unix(0, 0).UTC(), Date(0).Time())
	require.Equal(t, time.Unix(-2, 500_000_000).UTC(), Date(-1.5).Time())

	ts := time.Date(2024, 2, 29, 12, 30, 15, 250_000_000, time.UTC)
	require.Equal(t, Date(1709209815.25), DateOf(ts))
	require.True(t, DateOf(ts).Time().Equal(ts))
}
