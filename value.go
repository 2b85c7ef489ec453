package dbf

import (
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindCharacter
	KindNumeric
	KindLogical
	KindDate
	KindMemo
)

func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindNumeric:
		return "numeric"
	case KindLogical:
		return "logical"
	case KindDate:
		return "date"
	case KindMemo:
		return "memo"
	}
	return "invalid"
}

// Value is one cell of a record. Every kind has an absent form, built with
// NullValue or produced by decoding a blank field; the zero Value is invalid
// and is rejected by the encoder.
type Value struct {
	kind  Kind
	valid bool
	str   string
	num   decimal.Decimal
	b     bool
	date  Date
	block int64
}

func CharValue(s string) Value { return Value{kind: KindCharacter, valid: true, str: s} }

func NumericValue(d decimal.Decimal) Value { return Value{kind: KindNumeric, valid: true, num: d} }

func IntValue(i int64) Value { return NumericValue(decimal.NewFromInt(i)) }

func FloatValue(f float64) Value { return NumericValue(decimal.NewFromFloat(f)) }

func BoolValue(b bool) Value { return Value{kind: KindLogical, valid: true, b: b} }

func DateValue(d Date) Value { return Value{kind: KindDate, valid: true, date: d} }

func TimeValue(t time.Time) Value { return DateValue(DateOf(t)) }

// MemoValue references a block of an external memo file.
func MemoValue(block int64) Value { return Value{kind: KindMemo, valid: true, block: block} }

// NullValue is the absent value of the given kind.
func NullValue(k Kind) Value { return Value{kind: k} }

func (v Value) Kind() Kind { return v.kind }

// Valid is false for absent values.
func (v Value) Valid() bool { return v.valid }

// Str returns the text of a Character value.
func (v Value) Str() (string, bool) {
	return v.str, v.valid && v.kind == KindCharacter
}

func (v Value) Decimal() (decimal.Decimal, bool) {
	return v.num, v.valid && v.kind == KindNumeric
}

func (v Value) Bool() (bool, bool) {
	return v.b, v.valid && v.kind == KindLogical
}

func (v Value) Date() (Date, bool) {
	return v.date, v.valid && v.kind == KindDate
}

func (v Value) MemoBlock() (int64, bool) {
	return v.block, v.valid && v.kind == KindMemo
}

// Interface returns the held value as a Go native, or nil when absent.
func (v Value) Interface() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindCharacter:
		return v.str
	case KindNumeric:
		return v.num
	case KindLogical:
		return v.b
	case KindDate:
		return v.date
	case KindMemo:
		return v.block
	}
	return nil
}

// Equal compares kind, presence and payload; numerics compare by value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	switch v.kind {
	case KindCharacter:
		return v.str == o.str
	case KindNumeric:
		return v.num.Equal(o.num)
	case KindLogical:
		return v.b == o.b
	case KindDate:
		return v.date == o.date
	case KindMemo:
		return v.block == o.block
	}
	return true
}

func (v Value) String() string {
	if !v.valid {
		if v.kind == KindInvalid {
			return "<invalid>"
		}
		return "<null " + v.kind.String() + ">"
	}
	switch v.kind {
	case KindCharacter:
		return v.str
	case KindNumeric:
		return v.num.String()
	case KindLogical:
		if v.b {
			return "T"
		}
		return "F"
	case KindDate:
		return v.date.String()
	case KindMemo:
		return fmt.Sprintf("memo@%d", v.block)
	}
	return "<invalid>"
}

// ValueOf adapts a Go native to a Value.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case string:
		return CharValue(t), nil
	case []byte:
		return CharValue(string(t)), nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return uintValue(uint64(t)), nil
	case uint8:
		return uintValue(uint64(t)), nil
	case uint16:
		return uintValue(uint64(t)), nil
	case uint32:
		return uintValue(uint64(t)), nil
	case uint64:
		return uintValue(t), nil
	case float32:
		return NumericValue(decimal.NewFromFloat32(t)), nil
	case float64:
		return FloatValue(t), nil
	case decimal.Decimal:
		return NumericValue(t), nil
	case time.Time:
		return TimeValue(t), nil
	case Date:
		return DateValue(t), nil
	}
	return Value{}, errors.Wrapf(ErrTypeMismatch, "unsupported Go type %T", x)
}

func uintValue(u uint64) Value {
	return NumericValue(decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0))
}
