package sion

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
)

// Alternative is a tagged alternative, the value of a sum type. Without a
// payload it is written as its quoted tag, with a payload as the single pair
// map ["Tag":payload].
type Alternative struct {
	Tag     string
	Payload any
}

var (
	tyMarshaler     = reflect.TypeFor[Marshaler]()
	tyTextMarshaler = reflect.TypeFor[encoding.TextMarshaler]()
)

// Marshal returns the canonical text of the go value v.
//
// Structs are written as maps from field name to value, using the "sion" struct tag
// to rename or skip fields. Go maps are written with their keys sorted by their
// encoded text. A []byte is written as .Data, a nil pointer as nil. Types implementing
// Marshaler or encoding.TextMarshaler encode themselves.
func Marshal(v any) (string, error) {
	return enc.Marshal(v)
}

// ValueOf converts the go value v into a Value, following the rules of Marshal.
func ValueOf(v any) (Value, error) {
	var tb treeBuilder
	if err := enc.MarshalTo(&tb, v); err != nil {
		return nil, err
	}

	return tb.Value()
}

func (e *Encoder) Marshal(v any) (string, error) {
	tb := e.newTextBuilder(nil)
	if err := e.MarshalTo(tb, v); err != nil {
		return "", err
	}

	buf, err := tb.finish(nil)
	if err != nil {
		return "", err
	}

	return string(buf), nil
}

// MarshalTo emits the events describing v into b.
func (e *Encoder) MarshalTo(b Builder, v any) error {
	m := marshaler{
		b:         b,
		structTag: e.structTag,
		maxDepth:  e.maxDepth,
	}

	if m.maxDepth <= 0 {
		m.maxDepth = DefaultMaxDepth
	}

	return m.emit(reflect.ValueOf(v))
}

type marshaler struct {
	b Builder

	structTag string
	depth     int
	maxDepth  int
}

func (m *marshaler) emit(rv reflect.Value) error {
	for rv.IsValid() && (rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer) {
		if rv.IsNil() {
			return m.b.Nil()
		}

		if rv.Kind() == reflect.Pointer && m.implementsCustom(rv.Type()) {
			break
		}

		rv = rv.Elem()
	}

	if !rv.IsValid() {
		return m.b.Nil()
	}

	ty := rv.Type()

	switch {
	case ty.Implements(tyValue):
		return Walk(rv.Interface().(Value), m.b)

	case ty == tyAlternative:
		return m.alternative(rv.Interface().(Alternative))

	case ty.Implements(tyMarshaler):
		return rv.Interface().(Marshaler).MarshalSION(m.b)

	case rv.CanAddr() && reflect.PointerTo(ty).Implements(tyMarshaler):
		return rv.Addr().Interface().(Marshaler).MarshalSION(m.b)

	case ty.Implements(tyTextMarshaler):
		return m.text(rv.Interface().(encoding.TextMarshaler))

	case rv.CanAddr() && reflect.PointerTo(ty).Implements(tyTextMarshaler):
		return m.text(rv.Addr().Interface().(encoding.TextMarshaler))
	}

	switch ty.Kind() {
	case reflect.Bool:
		return m.b.Bool(rv.Bool())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return m.b.Int(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() > math.MaxInt64 {
			return fmt.Errorf("uint value %d overflows int: %w", rv.Uint(), ErrNotSupported)
		}

		return m.b.Int(int64(rv.Uint()))

	case reflect.Float32, reflect.Float64:
		return m.b.Double(rv.Float())

	case reflect.String:
		return m.b.String(rv.String())

	case reflect.Slice:
		if ty.Elem().Kind() == reflect.Uint8 {
			return m.b.Data(rv.Bytes())
		}

		return m.sequence(rv)

	case reflect.Array:
		return m.sequence(rv)

	case reflect.Map:
		return m.mapping(rv)

	case reflect.Struct:
		return m.structure(rv)

	default:
		return NotSupportedError{Type: ty}
	}
}

// implementsCustom reports whether the pointer type ty encodes itself.
func (m *marshaler) implementsCustom(ty reflect.Type) bool {
	return ty.Implements(tyMarshaler) || ty.Implements(tyTextMarshaler)
}

func (m *marshaler) text(tm encoding.TextMarshaler) error {
	text, err := tm.MarshalText()
	if err != nil {
		return fmt.Errorf("marshal text: %w", err)
	}

	return m.b.String(string(text))
}

func (m *marshaler) alternative(alt Alternative) error {
	if alt.Payload == nil {
		return m.b.String(alt.Tag)
	}

	return m.container(true, func() error {
		if err := m.b.String(alt.Tag); err != nil {
			return err
		}

		return m.emit(reflect.ValueOf(alt.Payload))
	})
}

// container emits the begin and end events around body.
func (m *marshaler) container(isMap bool, body func() error) error {
	if m.depth >= m.maxDepth {
		return fmt.Errorf("marshal: %w", ErrMaxDepth)
	}

	m.depth++
	defer func() { m.depth-- }()

	begin, end := m.b.BeginArray, m.b.EndArray
	if isMap {
		begin, end = m.b.BeginMap, m.b.EndMap
	}

	if err := begin(); err != nil {
		return err
	}

	if err := body(); err != nil {
		return err
	}

	return end()
}

func (m *marshaler) sequence(rv reflect.Value) error {
	return m.container(false, func() error {
		for idx := range rv.Len() {
			if err := m.emit(rv.Index(idx)); err != nil {
				return fmt.Errorf("element idx=%d: %w", idx, err)
			}
		}

		return nil
	})
}

func (m *marshaler) mapping(rv reflect.Value) error {
	type entry struct {
		sortKey string
		key     reflect.Value
		value   reflect.Value
	}

	var entries []entry

	iter := rv.MapRange()
	for iter.Next() {
		sortKey, err := m.sortKeyOf(iter.Key())
		if err != nil {
			return fmt.Errorf("map key: %w", err)
		}

		entries = append(entries, entry{sortKey: sortKey, key: iter.Key(), value: iter.Value()})
	}

	slices.SortFunc(entries, func(a, b entry) int {
		return strings.Compare(a.sortKey, b.sortKey)
	})

	return m.container(true, func() error {
		for _, entry := range entries {
			if err := m.emit(entry.key); err != nil {
				return err
			}

			if err := m.emit(entry.value); err != nil {
				return fmt.Errorf("value of key %s: %w", entry.sortKey, err)
			}
		}

		return nil
	})
}

// sortKeyOf returns the canonical text of a map key.
func (m *marshaler) sortKeyOf(key reflect.Value) (string, error) {
	tb := &textBuilder{maxDepth: m.maxDepth}

	keyMarshaler := marshaler{b: tb, structTag: m.structTag, maxDepth: m.maxDepth}
	if err := keyMarshaler.emit(key); err != nil {
		return "", err
	}

	buf, err := tb.finish(nil)
	return string(buf), err
}

func (m *marshaler) structure(rv reflect.Value) error {
	fields := fieldsOf(rv.Type(), m.structTag)

	return m.container(true, func() error {
		for _, field := range fields {
			fieldValue := rv.FieldByIndex(field.Index)
			if field.OmitEmpty && fieldValue.IsZero() {
				continue
			}

			if err := m.b.String(field.Name); err != nil {
				return err
			}

			if err := m.emit(fieldValue); err != nil {
				return fmt.Errorf("field %q: %w", field.Name, err)
			}
		}

		return nil
	})
}

// alternativeOf reads a tagged alternative: either a tag string, or a map
// with exactly one pair from tag to payload.
func alternativeOf(source Source) (Alternative, error) {
	if tag, err := source.String(); err == nil {
		return Alternative{Tag: tag}, nil
	}

	keyValues, err := source.KeyValues()
	if err != nil {
		return Alternative{}, fmt.Errorf("alternative: %w", err)
	}

	var result Alternative
	var count int

	for keySource, payloadSource := range keyValues {
		count++
		if count > 1 {
			break
		}

		tag, err := keySource.String()
		if err != nil {
			return Alternative{}, fmt.Errorf("alternative tag: %w", err)
		}

		result.Tag = tag
		result.Payload = payloadSource

		if valueSource, ok := payloadSource.(ValueSource); ok {
			payload, err := valueSource.Value()
			if err != nil {
				return Alternative{}, fmt.Errorf("alternative payload: %w", err)
			}

			result.Payload = payload
		}
	}

	if count != 1 {
		return Alternative{}, fmt.Errorf("alternative must have exactly one pair: %w", ErrNotSupported)
	}

	return result, nil
}
