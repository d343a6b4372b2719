package sion

import (
	"bytes"
	"math"
	"time"
)

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindData
	KindDate
	KindArray
	KindMap
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindData:
		return "data"
	case KindDate:
		return "date"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a decoded SION value. The set of implementations is closed:
// Nil, Bool, Int, Double, String, Data, Date, Array and Map.
type Value interface {
	Kind() Kind

	value()
}

// Nil is the SION nil value.
type Nil struct{}

// Bool is a SION boolean.
type Bool bool

// Int is a SION integer.
type Int int64

// Double is a SION floating point number.
type Double float64

// String is a SION string.
type String string

// Data is a SION byte sequence, written as .Data("<base64>").
type Data []byte

// Date is a point in time in seconds, written as .Date(<double>).
type Date float64

// Array is an ordered sequence of values.
type Array []Value

// Map is an ordered sequence of key/value pairs. It is not a hash table:
// keys may be of any kind and duplicates are kept.
type Map []Pair

// Pair is a single entry of a Map.
type Pair struct {
	Key   Value
	Value Value
}

func (Nil) Kind() Kind    { return KindNil }
func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Double) Kind() Kind { return KindDouble }
func (String) Kind() Kind { return KindString }
func (Data) Kind() Kind   { return KindData }
func (Date) Kind() Kind   { return KindDate }
func (Array) Kind() Kind  { return KindArray }
func (Map) Kind() Kind    { return KindMap }

func (Nil) value()    {}
func (Bool) value()   {}
func (Int) value()    {}
func (Double) value() {}
func (String) value() {}
func (Data) value()   {}
func (Date) value()   {}
func (Array) value()  {}
func (Map) value()    {}

// Time converts the date to a time.Time in UTC. Seconds count from the unix epoch.
func (d Date) Time() time.Time {
	seconds, fraction := math.Modf(float64(d))
	return time.Unix(int64(seconds), int64(fraction*1e9)).UTC()
}

// DateOf converts t to a Date.
func DateOf(t time.Time) Date {
	return Date(float64(t.Unix()) + float64(t.Nanosecond())/1e9)
}

// Len returns the number of elements.
func (a Array) Len() int {
	return len(a)
}

// Len returns the number of pairs.
func (m Map) Len() int {
	return len(m)
}

// Get returns the value of the first pair whose key is Equal to key.
func (m Map) Get(key Value) (Value, bool) {
	for _, pair := range m {
		if Equal(pair.Key, key) {
			return pair.Value, true
		}
	}

	return nil, false
}

// Lookup returns the value of the first pair with the string key name.
func (m Map) Lookup(name string) (Value, bool) {
	for _, pair := range m {
		if key, ok := pair.Key.(String); ok && string(key) == name {
			return pair.Value, true
		}
	}

	return nil, false
}

// Equal reports whether a and b are structurally equal. Containers must hold
// equal elements in the same order, so two maps with the same pairs in a
// different order are not equal. Doubles and dates compare using ==.
// A nil interface is treated like Nil.
func Equal(a, b Value) bool {
	if a == nil {
		a = Nil{}
	}

	if b == nil {
		b = Nil{}
	}

	switch a := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok

	case Bool:
		b, ok := b.(Bool)
		return ok && a == b

	case Int:
		b, ok := b.(Int)
		return ok && a == b

	case Double:
		b, ok := b.(Double)
		return ok && a == b

	case String:
		b, ok := b.(String)
		return ok && a == b

	case Data:
		b, ok := b.(Data)
		return ok && bytes.Equal(a, b)

	case Date:
		b, ok := b.(Date)
		return ok && a == b

	case Array:
		b, ok := b.(Array)
		if !ok || len(a) != len(b) {
			return false
		}

		for idx := range a {
			if !Equal(a[idx], b[idx]) {
				return false
			}
		}

		return true

	case Map:
		b, ok := b.(Map)
		if !ok || len(a) != len(b) {
			return false
		}

		for idx := range a {
			if !Equal(a[idx].Key, b[idx].Key) || !Equal(a[idx].Value, b[idx].Value) {
				return false
			}
		}

		return true

	default:
		return false
	}
}
