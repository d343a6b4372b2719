package sion

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Builder receives the events of a decoded document. The decoder calls exactly
// one scalar method per value. Container elements arrive between the Begin and
// End calls, map entries as alternating key and value.
//
// A string passed to Builder.String may alias the input text and must be copied
// if it is retained after the call returns.
type Builder interface {
	Nil() error
	Bool(value bool) error
	Int(value int64) error
	Double(value float64) error
	String(value string) error
	Data(value []byte) error
	Date(value float64) error

	BeginArray() error
	EndArray() error

	BeginMap() error
	EndMap() error
}

// Shape is the container kind a Builder expects next.
type Shape uint8

const (
	// ShapeAny lets the decoder find out by itself if a bracket starts an array or a map.
	ShapeAny Shape = iota
	ShapeArray
	ShapeMap
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeMap:
		return "map"
	default:
		return "any"
	}
}

// ShapeHinter can be implemented by a Builder that knows the shape of the
// value it receives next. If the hint is not ShapeAny, the decoder does not
// scan ahead to decide between array and map.
type ShapeHinter interface {
	NextShape() Shape
}

var errUnbalanced = errors.New("sion: unbalanced builder events")

type treeFrame struct {
	kind Kind

	array Array

	pairs  Map
	key    Value
	hasKey bool
}

// treeBuilder assembles a Value from builder events.
type treeBuilder struct {
	stack []treeFrame

	result Value
	done   bool
}

// Value returns the completed value.
func (t *treeBuilder) Value() (Value, error) {
	if !t.done || len(t.stack) > 0 {
		return nil, fmt.Errorf("value incomplete: %w", errUnbalanced)
	}

	return t.result, nil
}

func (t *treeBuilder) push(value Value) error {
	if len(t.stack) == 0 {
		if t.done {
			return fmt.Errorf("second top level value: %w", errUnbalanced)
		}

		t.result = value
		t.done = true
		return nil
	}

	top := &t.stack[len(t.stack)-1]
	switch {
	case top.kind == KindArray:
		top.array = append(top.array, value)

	case top.hasKey:
		top.pairs = append(top.pairs, Pair{Key: top.key, Value: value})
		top.key = nil
		top.hasKey = false

	default:
		top.key = value
		top.hasKey = true
	}

	return nil
}

func (t *treeBuilder) Nil() error {
	return t.push(Nil{})
}

func (t *treeBuilder) Bool(value bool) error {
	return t.push(Bool(value))
}

func (t *treeBuilder) Int(value int64) error {
	return t.push(Int(value))
}

func (t *treeBuilder) Double(value float64) error {
	return t.push(Double(value))
}

func (t *treeBuilder) String(value string) error {
	return t.push(String(strings.Clone(value)))
}

func (t *treeBuilder) Data(value []byte) error {
	return t.push(Data(bytes.Clone(value)))
}

func (t *treeBuilder) Date(value float64) error {
	return t.push(Date(value))
}

func (t *treeBuilder) BeginArray() error {
	t.stack = append(t.stack, treeFrame{kind: KindArray, array: Array{}})
	return nil
}

func (t *treeBuilder) EndArray() error {
	frame, err := t.pop(KindArray)
	if err != nil {
		return err
	}

	return t.push(frame.array)
}

func (t *treeBuilder) BeginMap() error {
	t.stack = append(t.stack, treeFrame{kind: KindMap, pairs: Map{}})
	return nil
}

func (t *treeBuilder) EndMap() error {
	frame, err := t.pop(KindMap)
	if err != nil {
		return err
	}

	if frame.hasKey {
		return fmt.Errorf("map key without value: %w", errUnbalanced)
	}

	return t.push(frame.pairs)
}

func (t *treeBuilder) pop(kind Kind) (treeFrame, error) {
	if len(t.stack) == 0 || t.stack[len(t.stack)-1].kind != kind {
		return treeFrame{}, fmt.Errorf("end of %s: %w", kind, errUnbalanced)
	}

	frame := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return frame, nil
}

// Walk replays the value v as a sequence of events into the given Builder.
func Walk(v Value, b Builder) error {
	switch v := v.(type) {
	case nil, Nil:
		return b.Nil()

	case Bool:
		return b.Bool(bool(v))

	case Int:
		return b.Int(int64(v))

	case Double:
		return b.Double(float64(v))

	case String:
		return b.String(string(v))

	case Data:
		return b.Data(v)

	case Date:
		return b.Date(float64(v))

	case Array:
		if err := b.BeginArray(); err != nil {
			return err
		}

		for _, element := range v {
			if err := Walk(element, b); err != nil {
				return err
			}
		}

		return b.EndArray()

	case Map:
		if err := b.BeginMap(); err != nil {
			return err
		}

		for _, pair := range v {
			if err := Walk(pair.Key, b); err != nil {
				return err
			}

			if err := Walk(pair.Value, b); err != nil {
				return err
			}
		}

		return b.EndMap()

	default:
		return fmt.Errorf("walk %T: %w", v, ErrNotSupported)
	}
}
