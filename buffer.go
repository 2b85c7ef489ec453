package dbf

import (
	"bytes"
	"math"

	"github.com/pkg/errors"
)

// recordBuffer holds encoded rows until a writer finalizes. Values are
// checked against the fields when added, so a finalize only moves bytes.
type recordBuffer struct {
	codec     *RecordCodec
	rows      bytes.Buffer
	pending   uint32
	base      uint32
	finalized bool
}

// Fields returns the active field list.
func (b *recordBuffer) Fields() []Field { return b.codec.Fields() }

// Add encodes rec, deletion flag included.
func (b *recordBuffer) Add(rec Record) error {
	if b.finalized {
		return ErrAlreadyFinalized
	}
	if uint64(b.base)+uint64(b.pending) >= math.MaxUint32 {
		return ErrTooManyRecords
	}
	row, err := b.codec.Encode(rec)
	if err != nil {
		return errors.Wrapf(err, "record %d", uint64(b.base)+uint64(b.pending))
	}
	b.rows.Write(row)
	b.pending++
	return nil
}

// AddRecord encodes an active row.
func (b *recordBuffer) AddRecord(values ...Value) error {
	return b.Add(NewRecord(values...))
}

// AddValues adapts Go natives with ValueOf and encodes an active row.
func (b *recordBuffer) AddValues(values ...any) error {
	vals := make([]Value, len(values))
	for i, x := range values {
		v, err := ValueOf(x)
		if err != nil {
			return errors.Wrapf(err, "value %d", i)
		}
		vals[i] = v
	}
	return b.AddRecord(vals...)
}

// AddStruct encodes src, a struct or a pointer to one, as an active row.
// Exported fields map to columns by their dbf tag, else their Go name,
// ignoring case; a "-" tag skips a field. Every column needs a field, and a
// field naming no column is ErrInvalidField. Nil pointers are absent values.
func (b *recordBuffer) AddStruct(src any) error {
	values, err := structValues(b.codec.fields, src)
	if err != nil {
		return err
	}
	return b.AddRecord(values...)
}

// RecordCount counts rows already in the table plus rows added so far.
func (b *recordBuffer) RecordCount() uint32 { return b.base + b.pending }
