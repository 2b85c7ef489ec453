package dbf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	logicalTrue  = 'T'
	logicalFalse = 'F'
	logicalUnset = '?'
)

// converter encodes single cells to their fixed-width bytes and back.
type converter struct {
	cs Charset
}

// EncodeValue encodes v for field f using the default charset.
func EncodeValue(f Field, v Value) ([]byte, error) {
	return converter{cs: defaultCharset}.encode(f, v)
}

// DecodeValue decodes a cell of field f using the default charset.
func DecodeValue(f Field, b []byte) (Value, error) {
	return converter{cs: defaultCharset}.decode(f, b)
}

func (c converter) encode(f Field, v Value) ([]byte, error) {
	buf := make([]byte, f.Length)
	if err := c.encodeInto(buf, f, v); err != nil {
		return nil, err
	}
	return buf, nil
}

// encodeInto fills dst, which must be exactly f.Length bytes.
func (c converter) encodeInto(dst []byte, f Field, v Value) error {
	if v.kind == KindCharacter && f.Type.numeric() {
		// decimal literal supplied as text
		d, err := decimal.NewFromString(strings.TrimSpace(v.str))
		if err != nil {
			return errors.Wrapf(ErrTypeMismatch, "field %s: %q is not a number", f.Name, v.str)
		}
		v = NumericValue(d)
	}
	if v.kind != f.Type.kind() {
		return errors.Wrapf(ErrTypeMismatch, "field %s (%s) given %s value", f.Name, f.Type, v.kind)
	}

	switch f.Type {
	case TypeCharacter:
		return c.encodeCharacter(dst, f, v)
	case TypeNumeric, TypeFloat:
		if !v.valid {
			fill(dst, SPACE)
			return nil
		}
		return rightAlign(dst, f, v.num.StringFixed(int32(f.Decimals)))
	case TypeLogical:
		switch {
		case !v.valid:
			dst[0] = logicalUnset
		case v.b:
			dst[0] = logicalTrue
		default:
			dst[0] = logicalFalse
		}
		return nil
	case TypeDate:
		if !v.valid {
			fill(dst, SPACE)
			return nil
		}
		if !v.date.Valid() {
			return errors.Wrapf(ErrInvalidDate, "field %s: %v", f.Name, v.date)
		}
		if v.date.Year < 0 || v.date.Year > 9999 {
			return errors.Wrapf(ErrValueOverflow, "field %s: year %d needs more than 4 digits", f.Name, v.date.Year)
		}
		copy(dst, fmt.Sprintf("%04d%02d%02d", v.date.Year, int(v.date.Month), v.date.Day))
		return nil
	case TypeMemo:
		if !v.valid {
			fill(dst, SPACE)
			return nil
		}
		return rightAlign(dst, f, strconv.FormatInt(v.block, 10))
	}
	return errors.Wrapf(ErrInvalidField, "field %s: unsupported type %s", f.Name, f.Type)
}

func (c converter) encodeCharacter(dst []byte, f Field, v Value) error {
	fill(dst, SPACE)
	if !v.valid {
		return nil
	}
	raw, err := c.cs.Encode(v.str)
	if err != nil {
		return errors.Wrapf(err, "field %s", f.Name)
	}
	if len(raw) > len(dst) {
		return errors.Wrapf(ErrValueOverflow, "field %s: %q needs %d bytes, width is %d", f.Name, v.str, len(raw), len(dst))
	}
	copy(dst, raw)
	return nil
}

func rightAlign(dst []byte, f Field, s string) error {
	if len(s) > len(dst) {
		return errors.Wrapf(ErrValueOverflow, "field %s: %s needs %d bytes, width is %d", f.Name, s, len(s), len(dst))
	}
	fill(dst, SPACE)
	copy(dst[len(dst)-len(s):], s)
	return nil
}

func fill(b []byte, c byte) {
	for i := range b {
		b[i] = c
	}
}

func (c converter) decode(f Field, b []byte) (Value, error) {
	if len(b) != f.Length {
		return Value{}, errors.Wrapf(ErrCorruptRecord, "field %s: got %d bytes, width is %d", f.Name, len(b), f.Length)
	}
	switch f.Type {
	case TypeCharacter:
		s, err := c.cs.Decode(bytes.TrimRight(b, " \x00"))
		if err != nil {
			return Value{}, errors.Wrapf(err, "field %s", f.Name)
		}
		return CharValue(s), nil
	case TypeNumeric, TypeFloat:
		s := string(bytes.TrimSpace(b))
		if s == "" || s == string(logicalUnset) {
			return NullValue(KindNumeric), nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Value{}, errors.Wrapf(ErrCorruptRecord, "field %s: %q is not a number", f.Name, s)
		}
		return NumericValue(d), nil
	case TypeLogical:
		switch b[0] {
		case 'T', 't', 'Y', 'y':
			return BoolValue(true), nil
		case 'F', 'f', 'N', 'n':
			return BoolValue(false), nil
		case logicalUnset, SPACE:
			return NullValue(KindLogical), nil
		}
		return Value{}, errors.Wrapf(ErrCorruptRecord, "field %s: logical byte %q", f.Name, b[0])
	case TypeDate:
		return decodeDate(f, b)
	case TypeMemo:
		s := string(bytes.TrimSpace(b))
		if s == "" {
			return NullValue(KindMemo), nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, errors.Wrapf(ErrCorruptRecord, "field %s: memo block %q", f.Name, s)
		}
		return MemoValue(n), nil
	}
	return Value{}, errors.Wrapf(ErrInvalidField, "field %s: unsupported type %s", f.Name, f.Type)
}

func decodeDate(f Field, b []byte) (Value, error) {
	s := string(b)
	if strings.TrimSpace(s) == "" || s == "00000000" {
		return NullValue(KindDate), nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Value{}, errors.Wrapf(ErrCorruptRecord, "field %s: date %q", f.Name, s)
		}
	}
	y, _ := strconv.Atoi(s[0:4])
	m, _ := strconv.Atoi(s[4:6])
	d, _ := strconv.Atoi(s[6:8])
	date := Date{Year: y, Month: time.Month(m), Day: d}
	if !date.Valid() {
		return Value{}, errors.Wrapf(ErrCorruptRecord, "field %s: date %q", f.Name, s)
	}
	return DateValue(date), nil
}
