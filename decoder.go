package sion

import (
	"encoding"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"math/bits"
	"reflect"
	"strconv"
	"sync"

	"golang.org/x/exp/constraints"
)

// Decode parses text into a Value.
func Decode(text string) (Value, error) {
	return dec.Decode(text)
}

// DecodeBytes parses text into a Value.
func DecodeBytes(text []byte) (Value, error) {
	return dec.DecodeBytes(text)
}

// Unmarshal parses text and binds the result to target, which must be a non-nil pointer.
func Unmarshal(text string, target any) error {
	return dec.Unmarshal(text, target)
}

// UnmarshalSource binds the values of source to target, which must be a non-nil pointer.
func UnmarshalSource(source Source, target any) error {
	return dec.UnmarshalSource(source, target)
}

func UnmarshalNew[T any](text string) (T, error) {
	return UnmarshalNewWith[T](&dec, text)
}

func UnmarshalNewWith[T any](dec *Decoder, text string) (T, error) {
	var target T
	err := dec.Unmarshal(text, &target)
	return target, err
}

// A setter sets the reflect.Value to a value extracted from the given Source
type setter func(Source, reflect.Value) error

// A set of types that are currently in construction
type typeSet map[reflect.Type]struct{}

var (
	tyTextUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()
	tyValue           = reflect.TypeFor[Value]()
	tyAlternative     = reflect.TypeFor[Alternative]()
)

// The default Decoder instance.
var dec = Decoder{structTag: "sion", maxDepth: DefaultMaxDepth}

// Decoder can be used to customize decoding and unmarshalling. It is safe for
// concurrent use. The With methods return a modified copy.
type Decoder struct {
	// the struct tag that is used
	structTag string

	// Require values for fields. Set to true to fail with ErrNoValue
	// if a value is missing in a map
	requireValues bool

	// nesting limit of containers
	maxDepth int

	logger *slog.Logger

	// Cache for setters, indexed by reflect.Type
	setterCache sync.Map

	// Cache for shape plans, indexed by reflect.Type
	planCache sync.Map
}

func NewDecoder() *Decoder {
	return &Decoder{
		structTag: "sion",
		maxDepth:  DefaultMaxDepth,
	}
}

func (d *Decoder) WithTag(structTag string) *Decoder {
	if d.structTag == structTag {
		return d
	}

	return &Decoder{
		structTag:     structTag,
		requireValues: d.requireValues,
		maxDepth:      d.maxDepth,
		logger:        d.logger,
	}
}

func (d *Decoder) RequireValues() *Decoder {
	if d.requireValues {
		return d
	}

	return &Decoder{
		structTag:     d.structTag,
		requireValues: true,
		maxDepth:      d.maxDepth,
		logger:        d.logger,
	}
}

// WithMaxDepth limits the nesting of containers. A value of zero or less
// restores DefaultMaxDepth.
func (d *Decoder) WithMaxDepth(maxDepth int) *Decoder {
	if d.maxDepth == maxDepth {
		return d
	}

	return &Decoder{
		structTag:     d.structTag,
		requireValues: d.requireValues,
		maxDepth:      maxDepth,
		logger:        d.logger,
	}
}

// WithLogger sets the logger for debug output. It defaults to slog.Default().
func (d *Decoder) WithLogger(logger *slog.Logger) *Decoder {
	if d.logger == logger {
		return d
	}

	return &Decoder{
		structTag:     d.structTag,
		requireValues: d.requireValues,
		maxDepth:      d.maxDepth,
		logger:        logger,
	}
}

func (d *Decoder) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}

	return slog.Default()
}

func (d *Decoder) depthLimit() int {
	if d.maxDepth <= 0 {
		return DefaultMaxDepth
	}

	return d.maxDepth
}

func (d *Decoder) Decode(text string) (Value, error) {
	var tb treeBuilder
	if err := d.DecodeTo(text, &tb); err != nil {
		return nil, err
	}

	return tb.Value()
}

func (d *Decoder) DecodeBytes(text []byte) (Value, error) {
	return d.Decode(string(text))
}

// DecodeTo parses text and feeds the events into b.
func (d *Decoder) DecodeTo(text string, b Builder) error {
	logger := d.log()

	err := parse(text, b, d.depthLimit(), logger)

	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		logger.Debug("Failed to decode",
			slog.Int("offset", syntaxErr.Offset),
			slog.Int("line", syntaxErr.Line),
			slog.Int("column", syntaxErr.Column),
			slog.String("kind", syntaxErr.Err.Error()),
		)
	}

	return err
}

// Unmarshal parses text and binds the result to target. The shape of the
// target type is used to decide between array and map, so decoding does not
// need to scan ahead for containers that the target type describes.
func (d *Decoder) Unmarshal(text string, target any) error {
	targetValue, err := targetOf(target)
	if err != nil {
		return err
	}

	builder := newPlanBuilder(d.planOf(targetValue.Type()))
	if err := d.DecodeTo(text, builder); err != nil {
		return err
	}

	value, err := builder.Value()
	if err != nil {
		return err
	}

	return d.bind(SourceOf(value), targetValue)
}

func (d *Decoder) UnmarshalSource(source Source, target any) error {
	targetValue, err := targetOf(target)
	if err != nil {
		return err
	}

	return d.bind(source, targetValue)
}

func (d *Decoder) bind(source Source, targetValue reflect.Value) error {
	// build the setter for the targets type
	setter, err := d.setterOf(typeSet{}, targetValue.Type())
	if err != nil {
		return err
	}

	return setter(source, targetValue)
}

func targetOf(target any) (reflect.Value, error) {
	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Pointer || targetValue.IsNil() {
		return reflect.Value{}, fmt.Errorf("target must be a non-nil pointer, got %T: %w", target, ErrNotSupported)
	}

	return targetValue.Elem(), nil
}

func (d *Decoder) setterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	if cached, ok := d.setterCache.Load(ty); ok {
		return cached.(setter), nil
	}

	if _, ok := inConstruction[ty]; ok {
		// detected a cycle. return a setter that does a cache lookup when executed.
		// we assume that the actual setter will be in the cache once this setter is executed.
		lazySetter := func(source Source, target reflect.Value) error {
			cached, _ := d.setterCache.Load(ty)
			return cached.(setter)(source, target)
		}

		return lazySetter, nil
	}

	inConstruction[ty] = struct{}{}

	setter, err := d.makeSetterOf(inConstruction, ty)
	if err != nil {
		return nil, err
	}

	d.setterCache.Store(ty, setter)

	return setter, nil
}

func (d *Decoder) makeSetterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	switch {
	case ty == tyValue || (ty.Kind() == reflect.Interface && ty.NumMethod() == 0):
		return makeSetValue(ty), nil

	case ty == tyAlternative:
		return setAlternative, nil

	case reflect.PointerTo(ty).Implements(tyTextUnmarshaler):
		return setTextUnmarshaler, nil
	}

	switch ty.Kind() {
	case reflect.Bool:
		return setBool, nil

	case reflect.Int:
		if bits.UintSize == 32 {
			return makeSetInt(IntSource.Int32, reflect.Value.SetInt, math.MinInt, math.MaxInt), nil
		}

		return makeSetInt(IntSource.Int64, reflect.Value.SetInt, math.MinInt, math.MaxInt), nil

	case reflect.Int8:
		return makeSetInt(IntSource.Int8, reflect.Value.SetInt, math.MinInt8, math.MaxInt8), nil

	case reflect.Int16:
		return makeSetInt(IntSource.Int16, reflect.Value.SetInt, math.MinInt16, math.MaxInt16), nil

	case reflect.Int32:
		return makeSetInt(IntSource.Int32, reflect.Value.SetInt, math.MinInt32, math.MaxInt32), nil

	case reflect.Int64:
		return makeSetInt(IntSource.Int64, reflect.Value.SetInt, math.MinInt64, math.MaxInt64), nil

	case reflect.Uint:
		if bits.UintSize == 32 {
			return makeSetUint(IntSource.Uint32, math.MaxUint), nil
		}

		return makeSetUint(IntSource.Uint64, math.MaxUint), nil

	case reflect.Uint8:
		return makeSetUint(IntSource.Uint8, math.MaxUint8), nil

	case reflect.Uint16:
		return makeSetUint(IntSource.Uint16, math.MaxUint16), nil

	case reflect.Uint32:
		return makeSetUint(IntSource.Uint32, math.MaxUint32), nil

	case reflect.Uint64:
		return makeSetUint(IntSource.Uint64, math.MaxUint64), nil

	case reflect.Float32, reflect.Float64:
		return setFloat, nil

	case reflect.String:
		return setString, nil

	case reflect.Pointer:
		return d.makeSetPointer(inConstruction, ty)

	case reflect.Struct:
		return d.makeSetStruct(inConstruction, ty)

	case reflect.Slice:
		if ty.Elem().Kind() == reflect.Uint8 {
			return d.makeSetBytes(inConstruction, ty)
		}

		return d.makeSetSlice(inConstruction, ty)

	case reflect.Array:
		return d.makeSetArray(inConstruction, ty)

	case reflect.Map:
		return d.makeSetMap(inConstruction, ty)

	default:
		return nil, NotSupportedError{Type: ty}
	}
}

func (d *Decoder) makeSetStruct(inConstruction typeSet, ty reflect.Type) (setter, error) {
	var setters []setter

	fields := fieldsOf(ty, d.structTag)

	for _, field := range fields {
		de, err := d.setterOf(inConstruction, field.Type)
		if err != nil {
			return nil, fmt.Errorf("setter for field %q: %w", field.Name, err)
		}

		setters = append(setters, de)
	}

	setter := func(source Source, target reflect.Value) error {
		for idx, field := range fields {
			fieldSource, err := source.Get(field.Name)
			switch {
			case errors.Is(err, ErrNoValue):
				if d.requireValues {
					return fmt.Errorf("field %q: %w", field.Name, err)
				}

				// It is okay to not get a value at all,
				// in that case we just skip the field
				continue

			case err != nil:
				return fmt.Errorf("lookup child %q: %w", field.Name, err)
			}

			fieldValue := target.FieldByIndex(field.Index)
			if err := setters[idx](fieldSource, fieldValue); err != nil {
				return fmt.Errorf("set field %q on %q: %w", field.Name, target.Type(), err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetMap(inConstruction typeSet, ty reflect.Type) (setter, error) {
	keySetter, err := d.setterOf(inConstruction, ty.Key())
	if err != nil {
		return nil, fmt.Errorf("setter for key type %q: %w", ty, err)
	}

	valueSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for value type %q: %w", ty, err)
	}

	keyType := ty.Key()
	valueType := ty.Elem()

	setter := func(source Source, target reflect.Value) error {
		keyValues, err := source.KeyValues()
		if err != nil {
			return fmt.Errorf("iterate key/value pairs: %w", err)
		}

		mapTarget := reflect.MakeMap(ty)

		for keySource, valueSource := range keyValues {
			keyTarget := reflect.New(keyType).Elem()
			if err := keySetter(keySource, keyTarget); err != nil {
				return fmt.Errorf("set key: %w", err)
			}

			if !keyTarget.Comparable() {
				return fmt.Errorf("key of type %s is not comparable: %w", keyType, ErrNotSupported)
			}

			valueTarget := reflect.New(valueType).Elem()
			if err := valueSetter(valueSource, valueTarget); err != nil {
				return fmt.Errorf("set value: %w", err)
			}

			mapTarget.SetMapIndex(keyTarget, valueTarget)
		}

		target.Set(mapTarget)

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetSlice(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	// a empty element
	placeholderValue := reflect.New(ty.Elem()).Elem()

	setter := func(source Source, target reflect.Value) error {
		sourceIter, err := source.Iter()
		if err != nil {
			return fmt.Errorf("as iter: %w", err)
		}

		sliceValue := reflect.MakeSlice(ty, 0, 0)

		for elementSource := range sourceIter {
			// add an empty element to grow the list
			sliceValue = reflect.Append(sliceValue, placeholderValue)

			idx := sliceValue.Len() - 1
			if err := elementSetter(elementSource, sliceValue.Index(idx)); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		target.Set(sliceValue)

		return nil
	}

	return setter, nil
}

// makeSetBytes binds byte slices from a DataSource, and falls back to a list of numbers.
func (d *Decoder) makeSetBytes(inConstruction typeSet, ty reflect.Type) (setter, error) {
	sliceSetter, err := d.makeSetSlice(inConstruction, ty)
	if err != nil {
		return nil, err
	}

	setter := func(source Source, target reflect.Value) error {
		if dataSource, ok := source.(DataSource); ok {
			data, err := dataSource.Data()
			switch {
			case err == nil:
				target.SetBytes(data)
				return nil

			case !errors.Is(err, ErrNotSupported):
				return fmt.Errorf("get data value: %w", err)
			}
		}

		return sliceSetter(source, target)
	}

	return setter, nil
}

func (d *Decoder) makeSetArray(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	// number of elements in the array
	elementCount := ty.Len()

	setter := func(source Source, target reflect.Value) error {
		sourceIter, err := source.Iter()
		if err != nil {
			return fmt.Errorf("as iter: %w", err)
		}

		next, stop := iter.Pull(sourceIter)
		defer stop()

		for idx := 0; idx < elementCount; idx++ {
			elementSource, ok := next()
			if !ok {
				break
			}

			elementValue := target.Index(idx)
			if err := elementSetter(elementSource, elementValue); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetPointer(inConstruction typeSet, ty reflect.Type) (setter, error) {
	pointeeType := ty.Elem()

	pointeeSetter, err := d.setterOf(inConstruction, pointeeType)
	if err != nil {
		return nil, err
	}

	setter := func(source Source, target reflect.Value) error {
		if nilSource, ok := source.(NilSource); ok && nilSource.IsNil() {
			target.SetZero()
			return nil
		}

		// newValue is now a pointer to an instance of the pointeeType
		newValue := reflect.New(pointeeType)
		if err := pointeeSetter(source, newValue.Elem()); err != nil {
			return err
		}

		// set pointer to the new value
		target.Set(newValue)

		return nil
	}

	return setter, nil
}

func setBool(source Source, target reflect.Value) error {
	boolValue, err := source.Bool()
	if err != nil {
		return fmt.Errorf("get bool value: %w", err)
	}

	target.SetBool(boolValue)
	return nil
}

func makeSetInt[T constraints.Signed](
	parse func(IntSource) (T, error),
	setValue func(reflect.Value, int64),
	minValue, maxValue int64,
) setter {
	return func(source Source, target reflect.Value) error {
		if intSource, ok := source.(IntSource); ok {
			parsedValue, err := parse(intSource)
			if err != nil {
				return fmt.Errorf("get %T value: %w", parsedValue, err)
			}

			setValue(target, int64(parsedValue))
			return nil
		}

		// no int source, need to fallback to Source.Int
		intValue, err := source.Int()
		if err != nil {
			return fmt.Errorf("get int value: %w", err)
		}

		if intValue < minValue || intValue > maxValue {
			return fmt.Errorf("invalid %s value %d: %w", target.Type(), intValue, strconv.ErrRange)
		}

		setValue(target, intValue)
		return nil
	}
}

func makeSetUint[T constraints.Unsigned](parse func(IntSource) (T, error), maxValue uint64) setter {
	return func(source Source, target reflect.Value) error {
		if intSource, ok := source.(IntSource); ok {
			parsedValue, err := parse(intSource)
			if err != nil {
				return fmt.Errorf("get %T value: %w", parsedValue, err)
			}

			target.SetUint(uint64(parsedValue))
			return nil
		}

		// no int source, need to fallback to Source.Uint
		uintValue, err := source.Uint()
		if err != nil {
			return fmt.Errorf("get uint value: %w", err)
		}

		if uintValue > maxValue {
			return fmt.Errorf("invalid %s value %d: %w", target.Type(), uintValue, strconv.ErrRange)
		}

		target.SetUint(uintValue)
		return nil
	}
}

func setFloat(source Source, target reflect.Value) error {
	floatValue, err := source.Float()
	if err != nil {
		return fmt.Errorf("get float value: %w", err)
	}

	if target.Kind() == reflect.Float32 && !math.IsInf(floatValue, 0) && math.Abs(floatValue) > math.MaxFloat32 {
		return fmt.Errorf("invalid float32 value %g: %w", floatValue, strconv.ErrRange)
	}

	target.SetFloat(floatValue)
	return nil
}

func setString(source Source, target reflect.Value) error {
	stringValue, err := source.String()
	if err != nil {
		return fmt.Errorf("get string value: %w", err)
	}

	target.SetString(stringValue)

	return nil
}

func setTextUnmarshaler(source Source, target reflect.Value) error {
	text, err := source.String()
	if err != nil {
		return fmt.Errorf("get string value: %w", err)
	}

	m := target.Addr().Interface().(encoding.TextUnmarshaler)
	return m.UnmarshalText([]byte(text))
}

// makeSetValue binds targets of type Value and any. The source must be a ValueSource.
func makeSetValue(ty reflect.Type) setter {
	return func(source Source, target reflect.Value) error {
		valueSource, ok := source.(ValueSource)
		if !ok {
			return NotSupportedError{Type: ty}
		}

		value, err := valueSource.Value()
		if err != nil {
			return fmt.Errorf("get value: %w", err)
		}

		target.Set(reflect.ValueOf(&value).Elem())
		return nil
	}
}

func setAlternative(source Source, target reflect.Value) error {
	alternative, err := alternativeOf(source)
	if err != nil {
		return err
	}

	target.Set(reflect.ValueOf(alternative))
	return nil
}
