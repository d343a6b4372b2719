package sion

import "iter"

// Source is the pull interface the binding uses to read a decoded value onto a go type.
// [Unmarshal] walks the target type and asks the Source for the parts it needs, using
// methods like [Source.Int], [Source.String] or [Source.Get].
//
// If the value can not be represented in the requested form, a method must return
// [ErrNotSupported]. Methods are not required to be idempotent.
//
// The package ships a few ready to use implementations:
//
//   - [EmptySource] returns [ErrNotSupported] for every method. Embed it into your own
//     Source and override what your data supports.
//   - [StringSource] parses a string using strconv.
//   - [SourceOf] exposes a decoded [Value].
//
// Example:
//
//	type EnvSource struct {
//	    sion.EmptySource
//	}
//
//	func (EnvSource) Get(key string) (sion.Source, error) {
//	    value, ok := os.LookupEnv(key)
//	    if !ok {
//	        return nil, sion.ErrNoValue
//	    }
//
//	    return sion.StringSource(value), nil
//	}
type Source interface {
	// Bool returns the current value as a bool.
	// Returns error ErrNotSupported if the value can not be represented as such.
	Bool() (bool, error)

	// Int returns the current value as an int64.
	// Returns error ErrNotSupported if the value can not be represented as such.
	Int() (int64, error)

	// Uint returns the current value as an uint64.
	// Returns error ErrNotSupported if the value can not be represented as such.
	Uint() (uint64, error)

	// Float returns the current value as a float64.
	// Returns error ErrNotSupported if the value can not be represented as such.
	Float() (float64, error)

	// String returns the current value as a string.
	// Returns error ErrNotSupported if the value can not be represented as such.
	String() (string, error)

	// Get returns the child value stored under the string key.
	// Returns [ErrNotSupported] if the current [Source] does not have any
	// child values. If it has children, but not the requested one,
	// [ErrNoValue] must be returned.
	Get(key string) (Source, error)

	// KeyValues interprets the [Source] as a map and iterates over its pairs.
	// Returns [ErrNotSupported] if the [Source] is not a map.
	KeyValues() (iter.Seq2[Source, Source], error)

	// Iter interprets the [Source] as a sequence and iterates over its elements.
	// Returns [ErrNotSupported] if the [Source] is not a sequence.
	Iter() (iter.Seq[Source], error)
}

// IntSource extends [Source] with sized integer accessors. If a Source implements
// it, [Unmarshal] uses the accessor that matches the size of the target and
// leaves range checking to the Source.
type IntSource interface {
	Source

	Int8() (int8, error)
	Int16() (int16, error)
	Int32() (int32, error)
	Int64() (int64, error)

	Uint8() (uint8, error)
	Uint16() (uint16, error)
	Uint32() (uint32, error)
	Uint64() (uint64, error)
}

// DataSource is implemented by sources that hold raw bytes. It is used for []byte targets.
type DataSource interface {
	Source

	Data() ([]byte, error)
}

// NilSource is implemented by sources that can hold an explicit nil.
// A pointer target stays nil if IsNil reports true.
type NilSource interface {
	Source

	IsNil() bool
}

// ValueSource is implemented by sources backed by a decoded [Value]. Targets of
// type [Value] or any receive the value as is.
type ValueSource interface {
	Source

	Value() (Value, error)
}
