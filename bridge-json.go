package sion

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"
)

// ErrInvalidJSON is returned by FromJSON for malformed JSON documents.
var ErrInvalidJSON = errors.New("sion: invalid json")

// FromJSON converts a JSON document into a Value. Objects become maps with
// string keys in document order. Integer literals that fit into an int64
// become Int, all other numbers Double.
func FromJSON(data []byte) (Value, error) {
	// the token stream does not check separator placement
	if !gojson.Valid(data) {
		return nil, ErrInvalidJSON
	}

	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	r := jsonReader{dec: dec, maxDepth: DefaultMaxDepth}

	value, err := r.value()
	if err != nil {
		return nil, err
	}

	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}

		return nil, fmt.Errorf("%w: trailing token %v", ErrInvalidJSON, tok)
	}

	return value, nil
}

type jsonReader struct {
	dec      *gojson.Decoder
	depth    int
	maxDepth int
}

func (r *jsonReader) token() (gojson.Token, error) {
	tok, err := r.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	return tok, nil
}

func (r *jsonReader) value() (Value, error) {
	tok, err := r.token()
	if err != nil {
		return nil, err
	}

	return r.valueOf(tok)
}

func (r *jsonReader) valueOf(tok gojson.Token) (Value, error) {
	switch tok := tok.(type) {
	case nil:
		return Nil{}, nil

	case bool:
		return Bool(tok), nil

	case string:
		return String(tok), nil

	case gojson.Number:
		return numberOf(string(tok))

	case float64:
		return Double(tok), nil

	case gojson.Delim:
		if r.depth >= r.maxDepth {
			return nil, fmt.Errorf("json: %w", ErrMaxDepth)
		}

		r.depth++
		defer func() { r.depth-- }()

		switch tok {
		case '[':
			return r.array()
		case '{':
			return r.object()
		}
	}

	return nil, fmt.Errorf("%w: unexpected token %v", ErrInvalidJSON, tok)
}

func (r *jsonReader) array() (Value, error) {
	result := Array{}

	for {
		tok, err := r.token()
		if err != nil {
			return nil, err
		}

		if tok == gojson.Delim(']') {
			return result, nil
		}

		element, err := r.valueOf(tok)
		if err != nil {
			return nil, err
		}

		result = append(result, element)
	}
}

func (r *jsonReader) object() (Value, error) {
	result := Map{}

	for {
		tok, err := r.token()
		if err != nil {
			return nil, err
		}

		if tok == gojson.Delim('}') {
			return result, nil
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: object key %v", ErrInvalidJSON, tok)
		}

		value, err := r.value()
		if err != nil {
			return nil, err
		}

		result = append(result, Pair{Key: String(key), Value: value})
	}
}

func numberOf(text string) (Value, error) {
	if intValue, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Int(intValue), nil
	}

	floatValue, err := strconv.ParseFloat(text, 64)
	if err != nil && !isRangeError(err) {
		return nil, fmt.Errorf("%w: number %q", ErrInvalidJSON, text)
	}

	return Double(floatValue), nil
}

// ToJSON converts v into a JSON document. Data is written as a base64 string
// and Date as its number of seconds. Maps with non-string keys, NaN and
// infinities have no JSON form and fail with ErrNotSupported.
func ToJSON(v Value) ([]byte, error) {
	w := jsonWriter{maxDepth: DefaultMaxDepth}
	if err := w.write(v); err != nil {
		return nil, err
	}

	return w.buf, nil
}

type jsonWriter struct {
	buf      []byte
	depth    int
	maxDepth int
}

func (w *jsonWriter) write(v Value) error {
	switch v := v.(type) {
	case nil, Nil:
		w.buf = append(w.buf, "null"...)

	case Bool:
		w.buf = strconv.AppendBool(w.buf, bool(v))

	case Int:
		w.buf = strconv.AppendInt(w.buf, int64(v), 10)

	case Double:
		return w.number(float64(v))

	case Date:
		return w.number(float64(v))

	case String:
		return w.string(string(v))

	case Data:
		return w.string(base64.StdEncoding.EncodeToString(v))

	case Array:
		return w.nested(func() error {
			w.buf = append(w.buf, '[')
			for idx, element := range v {
				if idx > 0 {
					w.buf = append(w.buf, ',')
				}

				if err := w.write(element); err != nil {
					return err
				}
			}

			w.buf = append(w.buf, ']')
			return nil
		})

	case Map:
		return w.nested(func() error {
			w.buf = append(w.buf, '{')
			for idx, pair := range v {
				key, ok := pair.Key.(String)
				if !ok {
					return fmt.Errorf("json object key of kind %s: %w", kindOf(pair.Key), ErrNotSupported)
				}

				if idx > 0 {
					w.buf = append(w.buf, ',')
				}

				if err := w.string(string(key)); err != nil {
					return err
				}

				w.buf = append(w.buf, ':')

				if err := w.write(pair.Value); err != nil {
					return err
				}
			}

			w.buf = append(w.buf, '}')
			return nil
		})

	default:
		return fmt.Errorf("json %T: %w", v, ErrNotSupported)
	}

	return nil
}

func (w *jsonWriter) nested(body func() error) error {
	if w.depth >= w.maxDepth {
		return fmt.Errorf("json: %w", ErrMaxDepth)
	}

	w.depth++
	defer func() { w.depth-- }()

	return body()
}

func (w *jsonWriter) number(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("json number %v: %w", value, ErrNotSupported)
	}

	encoded, err := gojson.Marshal(value)
	if err != nil {
		return fmt.Errorf("json number: %w", err)
	}

	w.buf = append(w.buf, encoded...)
	return nil
}

func (w *jsonWriter) string(value string) error {
	encoded, err := gojson.Marshal(value)
	if err != nil {
		return fmt.Errorf("json string: %w", err)
	}

	w.buf = append(w.buf, encoded...)
	return nil
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindNil
	}

	return v.Kind()
}
