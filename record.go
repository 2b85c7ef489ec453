package dbf

import (
	"github.com/pkg/errors"
)

// Record is one decoded row.
type Record struct {
	Deleted bool
	Values  []Value
}

// NewRecord builds an active record.
func NewRecord(values ...Value) Record {
	return Record{Values: values}
}

// Equal compares the deletion flag and every value.
func (r Record) Equal(o Record) bool {
	if r.Deleted != o.Deleted || len(r.Values) != len(o.Values) {
		return false
	}
	for i := range r.Values {
		if !r.Values[i].Equal(o.Values[i]) {
			return false
		}
	}
	return true
}

// RecordCodec encodes and decodes rows of one field layout.
type RecordCodec struct {
	fields  []Field
	offsets []int
	length  int
	conv    converter
}

// NewRecordCodec validates fields and builds a codec. Only WithEncoding,
// WithCharset and WithLanguageDriver affect it.
func NewRecordCodec(fields []Field, opts ...Option) (*RecordCodec, error) {
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return newRecordCodec(fields, o.charsetFor(o.languageDriver)), nil
}

func newRecordCodec(fields []Field, cs Charset) *RecordCodec {
	offsets := make([]int, len(fields))
	pos := 1
	for i, f := range fields {
		offsets[i] = pos
		pos += f.Length
	}
	return &RecordCodec{
		fields:  append([]Field(nil), fields...),
		offsets: offsets,
		length:  recordLength(fields),
		conv:    converter{cs: cs},
	}
}

// EncodeRecord encodes values as an active row using the default charset.
func EncodeRecord(fields []Field, values []Value) ([]byte, error) {
	c, err := NewRecordCodec(fields)
	if err != nil {
		return nil, err
	}
	return c.Encode(NewRecord(values...))
}

// DecodeRecord decodes one row using the default charset.
func DecodeRecord(b []byte, fields []Field) (Record, error) {
	c, err := NewRecordCodec(fields)
	if err != nil {
		return Record{}, err
	}
	return c.Decode(b)
}

func (c *RecordCodec) Fields() []Field { return c.fields }

// RecordLength is the row width including the deletion flag.
func (c *RecordCodec) RecordLength() int { return c.length }

func (c *RecordCodec) Encode(rec Record) ([]byte, error) {
	buf := make([]byte, c.length)
	if err := c.encodeInto(buf, rec); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *RecordCodec) encodeInto(buf []byte, rec Record) error {
	if len(rec.Values) != len(c.fields) {
		return errors.Wrapf(ErrArityMismatch, "got %d values for %d fields", len(rec.Values), len(c.fields))
	}
	buf[0] = SPACE
	if rec.Deleted {
		buf[0] = DELETED
	}
	pos := 1
	for i, f := range c.fields {
		next := pos + f.Length
		if err := c.conv.encodeInto(buf[pos:next], f, rec.Values[i]); err != nil {
			return err
		}
		pos = next
	}
	return nil
}

func (c *RecordCodec) Decode(b []byte) (Record, error) {
	return c.decode(b, nil)
}

// decode decodes the columns listed in cols, in that order, skipping the
// bytes of every other column. A nil cols decodes the whole row.
func (c *RecordCodec) decode(b []byte, cols []int) (Record, error) {
	if len(b) != c.length {
		return Record{}, errors.Wrapf(ErrCorruptRecord, "row is %d bytes, record length is %d", len(b), c.length)
	}
	var rec Record
	switch b[0] {
	case SPACE:
	case DELETED:
		rec.Deleted = true
	default:
		return Record{}, errors.Wrapf(ErrCorruptRecord, "deletion flag 0x%02X", b[0])
	}
	n := len(c.fields)
	if cols != nil {
		n = len(cols)
	}
	rec.Values = make([]Value, n)
	for i := range rec.Values {
		col := i
		if cols != nil {
			col = cols[i]
		}
		f, pos := c.fields[col], c.offsets[col]
		v, err := c.conv.decode(f, b[pos:pos+f.Length])
		if err != nil {
			return Record{}, err
		}
		rec.Values[i] = v
	}
	return rec, nil
}

// columns resolves field names, ignoring case, to column indexes.
func (c *RecordCodec) columns(names []string) ([]int, error) {
	cols := make([]int, len(names))
	for i, name := range names {
		col := fieldIndex(c.fields, name)
		if col < 0 {
			return nil, errors.Wrapf(ErrInvalidField, "no column %q", name)
		}
		cols[i] = col
	}
	return cols, nil
}
