package sion

import (
	"bytes"
	"fmt"
	"iter"
	"time"
)

// valueSource exposes a decoded Value through the Source interface.
type valueSource struct {
	value Value
}

var (
	_ ValueSource = valueSource{}
	_ DataSource  = valueSource{}
	_ NilSource   = valueSource{}
)

// SourceOf returns a Source that reads from v. An Int can be read as a float.
// A Date reads as RFC 3339 text, so it binds to a time.Time. An empty array
// and the empty map can each be read as either container.
func SourceOf(v Value) Source {
	if v == nil {
		v = Nil{}
	}

	return valueSource{value: v}
}

func (s valueSource) unsupported(what string) error {
	return fmt.Errorf("read %s as %s: %w", s.value.Kind(), what, ErrNotSupported)
}

func (s valueSource) Bool() (bool, error) {
	if v, ok := s.value.(Bool); ok {
		return bool(v), nil
	}

	return false, s.unsupported("bool")
}

func (s valueSource) Int() (int64, error) {
	if v, ok := s.value.(Int); ok {
		return int64(v), nil
	}

	return 0, s.unsupported("int")
}

func (s valueSource) Uint() (uint64, error) {
	if v, ok := s.value.(Int); ok && v >= 0 {
		return uint64(v), nil
	}

	return 0, s.unsupported("uint")
}

func (s valueSource) Float() (float64, error) {
	switch v := s.value.(type) {
	case Double:
		return float64(v), nil
	case Int:
		return float64(v), nil
	default:
		return 0, s.unsupported("float")
	}
}

func (s valueSource) String() (string, error) {
	switch v := s.value.(type) {
	case String:
		return string(v), nil
	case Date:
		return v.Time().Format(time.RFC3339Nano), nil
	default:
		return "", s.unsupported("string")
	}
}

func (s valueSource) Data() ([]byte, error) {
	if v, ok := s.value.(Data); ok {
		return bytes.Clone(v), nil
	}

	return nil, s.unsupported("data")
}

func (s valueSource) IsNil() bool {
	_, ok := s.value.(Nil)
	return ok
}

func (s valueSource) Value() (Value, error) {
	return s.value, nil
}

func (s valueSource) Get(key string) (Source, error) {
	switch v := s.value.(type) {
	case Map:
		child, ok := v.Lookup(key)
		if !ok {
			return nil, ErrNoValue
		}

		return SourceOf(child), nil

	case Array:
		if len(v) == 0 {
			return nil, ErrNoValue
		}
	}

	return nil, s.unsupported("map")
}

func (s valueSource) KeyValues() (iter.Seq2[Source, Source], error) {
	switch v := s.value.(type) {
	case Map:
		seq := func(yield func(Source, Source) bool) {
			for _, pair := range v {
				if !yield(SourceOf(pair.Key), SourceOf(pair.Value)) {
					return
				}
			}
		}

		return seq, nil

	case Array:
		if len(v) == 0 {
			return func(func(Source, Source) bool) {}, nil
		}
	}

	return nil, s.unsupported("map")
}

func (s valueSource) Iter() (iter.Seq[Source], error) {
	switch v := s.value.(type) {
	case Array:
		seq := func(yield func(Source) bool) {
			for _, element := range v {
				if !yield(SourceOf(element)) {
					return
				}
			}
		}

		return seq, nil

	case Map:
		if len(v) == 0 {
			return func(func(Source) bool) {}, nil
		}
	}

	return nil, s.unsupported("array")
}
