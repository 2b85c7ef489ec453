package dbf

import (
	"reflect"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	valueType   = reflect.TypeOf(Value{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
	dateType    = reflect.TypeOf(Date{})
)

// binding ties a column to the index of a struct field.
type binding struct {
	column int
	field  int
}

// bindStruct matches the exported, non-embedded fields of t to columns by
// their dbf tag, else their Go name, ignoring case. A "-" tag skips a field.
// Every remaining struct field must name a column.
func bindStruct(t reflect.Type, fields []Field) ([]binding, error) {
	var binds []binding
	used := make(map[int]string)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" || sf.Anonymous {
			continue
		}
		name := sf.Tag.Get("dbf")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		col := fieldIndex(fields, name)
		if col < 0 {
			return nil, errors.Wrapf(ErrInvalidField, "%s.%s: no column %q", t.Name(), sf.Name, name)
		}
		if prev, ok := used[col]; ok {
			return nil, errors.Wrapf(ErrDuplicateField, "%s.%s and %s.%s both map to %s", t.Name(), prev, t.Name(), sf.Name, fields[col].Name)
		}
		used[col] = sf.Name
		binds = append(binds, binding{column: col, field: i})
	}
	return binds, nil
}

func fillStruct(rv reflect.Value, binds []binding, fields []Field, rec Record) error {
	if len(rec.Values) != len(fields) {
		return errors.Wrapf(ErrArityMismatch, "%d values for %d fields", len(rec.Values), len(fields))
	}
	for _, b := range binds {
		if err := setField(rv.Field(b.field), rec.Values[b.column]); err != nil {
			return errors.Wrapf(err, "column %s into %s.%s", fields[b.column].Name, rv.Type().Name(), rv.Type().Field(b.field).Name)
		}
	}
	return nil
}

// setField stores v in f. Absent values leave f at its zero value, so a
// pointer field is the way to tell an absent cell from a zero one.
func setField(f reflect.Value, v Value) error {
	if f.Type() == valueType {
		f.Set(reflect.ValueOf(v))
		return nil
	}
	if f.Kind() == reflect.Pointer {
		if !v.Valid() {
			f.Set(reflect.Zero(f.Type()))
			return nil
		}
		p := reflect.New(f.Type().Elem())
		if err := setField(p.Elem(), v); err != nil {
			return err
		}
		f.Set(p)
		return nil
	}
	if !v.Valid() {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}

	switch f.Type() {
	case decimalType:
		if d, ok := v.Decimal(); ok {
			f.Set(reflect.ValueOf(d))
			return nil
		}
		return mismatch(f, v)
	case timeType:
		if d, ok := v.Date(); ok {
			f.Set(reflect.ValueOf(d.Time()))
			return nil
		}
		return mismatch(f, v)
	case dateType:
		if d, ok := v.Date(); ok {
			f.Set(reflect.ValueOf(d))
			return nil
		}
		return mismatch(f, v)
	}

	switch f.Kind() {
	case reflect.String:
		if s, ok := v.Str(); ok {
			f.SetString(s)
			return nil
		}
	case reflect.Bool:
		if b, ok := v.Bool(); ok {
			f.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		d, ok := wholeNumber(v)
		if !ok {
			break
		}
		if !d.IsInteger() {
			return errors.Wrapf(ErrTypeMismatch, "%s is not a whole number", d)
		}
		n := d.BigInt()
		if !n.IsInt64() || f.OverflowInt(n.Int64()) {
			return errors.Wrapf(ErrValueOverflow, "%s does not fit %s", d, f.Type())
		}
		f.SetInt(n.Int64())
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		d, ok := wholeNumber(v)
		if !ok {
			break
		}
		if !d.IsInteger() {
			return errors.Wrapf(ErrTypeMismatch, "%s is not a whole number", d)
		}
		n := d.BigInt()
		if !n.IsUint64() || f.OverflowUint(n.Uint64()) {
			return errors.Wrapf(ErrValueOverflow, "%s does not fit %s", d, f.Type())
		}
		f.SetUint(n.Uint64())
		return nil
	case reflect.Float32, reflect.Float64:
		if d, ok := v.Decimal(); ok {
			x, _ := d.Float64()
			f.SetFloat(x)
			return nil
		}
	}
	return mismatch(f, v)
}

// wholeNumber reads numeric and memo values for integer targets.
func wholeNumber(v Value) (decimal.Decimal, bool) {
	if d, ok := v.Decimal(); ok {
		return d, true
	}
	if block, ok := v.MemoBlock(); ok {
		return decimal.NewFromInt(block), true
	}
	return decimal.Decimal{}, false
}

func mismatch(f reflect.Value, v Value) error {
	return errors.Wrapf(ErrTypeMismatch, "%s value into %s", v.Kind(), f.Type())
}

// structValues orders the fields of src, a struct or a pointer to one, as a row of values.
func structValues(fields []Field, src any) ([]Value, error) {
	rv := reflect.ValueOf(src)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errors.Wrapf(ErrConfiguration, "nil %T", src)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrConfiguration, "need a struct or a pointer to one, got %T", src)
	}
	binds, err := bindStruct(rv.Type(), fields)
	if err != nil {
		return nil, err
	}
	values := make([]Value, len(fields))
	set := make([]bool, len(fields))
	for _, b := range binds {
		v, err := fieldValue(rv.Field(b.field), fields[b.column])
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", rv.Type().Name(), rv.Type().Field(b.field).Name)
		}
		values[b.column] = v
		set[b.column] = true
	}
	for i, ok := range set {
		if !ok {
			return nil, errors.Wrapf(ErrArityMismatch, "%s has no field for column %s", rv.Type().Name(), fields[i].Name)
		}
	}
	return values, nil
}

// fieldValue converts one struct field for column col. Nil pointers and the
// zero time.Time are absent values.
func fieldValue(f reflect.Value, col Field) (Value, error) {
	if f.Type() == valueType {
		return f.Interface().(Value), nil
	}
	if f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return NullValue(col.Type.kind()), nil
		}
		return fieldValue(f.Elem(), col)
	}
	switch f.Type() {
	case timeType:
		t := f.Interface().(time.Time)
		if t.IsZero() {
			return NullValue(KindDate), nil
		}
		return TimeValue(t), nil
	case decimalType, dateType:
		return ValueOf(f.Interface())
	}
	switch f.Kind() {
	case reflect.String:
		return CharValue(f.String()), nil
	case reflect.Bool:
		return BoolValue(f.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if col.Type == TypeMemo {
			return MemoValue(f.Int()), nil
		}
		return IntValue(f.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintValue(f.Uint()), nil
	case reflect.Float32:
		return NumericValue(decimal.NewFromFloat32(float32(f.Float()))), nil
	case reflect.Float64:
		return FloatValue(f.Float()), nil
	}
	return Value{}, errors.Wrapf(ErrTypeMismatch, "unsupported Go type %s", f.Type())
}
