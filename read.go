package dbf

import (
	"bufio"
	"io"
	"iter"
	"log/slog"
	"os"
	"reflect"

	"github.com/pkg/errors"
)

// Reader decodes a table front to back. It is not safe for concurrent use
// and cannot be rewound; open a new Reader to read again.
type Reader struct {
	src    io.Reader
	buf    *bufio.Reader
	closer io.Closer
	header *Header
	codec  *RecordCodec
	row    []byte
	cols   []int
	next   uint32
	err    error
	log    *slog.Logger
}

// Open reads the header of the file at path. The Reader owns the file until Close.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, readErr("open "+path, err)
	}
	r, err := newReader(f, f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.log.Debug("dbf: opened table", "path", path, "records", r.header.RecordCount, "fields", len(r.header.Fields))
	return r, nil
}

// NewReader reads the header from src. The caller keeps ownership of src.
func NewReader(src io.Reader, opts ...Option) (*Reader, error) {
	return newReader(src, nil, opts)
}

func newReader(src io.Reader, closer io.Closer, opts []Option) (*Reader, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewReader(src)
	t, err := o.initMetaData(buf)
	if err != nil {
		return nil, err
	}
	return &Reader{
		src:    src,
		buf:    buf,
		closer: closer,
		header: t.header,
		codec:  t.codec,
		row:    make([]byte, t.header.RecordLength),
		log:    o.logger,
	}, nil
}

func (r *Reader) Header() *Header { return r.header }

func (r *Reader) Fields() []Field { return r.header.Fields }

// Select limits decoding to the named columns, matched ignoring case, in the
// given order. Records then carry one value per selected column and the
// bytes of other columns are skipped. Select with no names restores every column.
func (r *Reader) Select(names ...string) error {
	if len(names) == 0 {
		r.cols = nil
		return nil
	}
	cols, err := r.codec.columns(names)
	if err != nil {
		return err
	}
	r.cols = cols
	return nil
}

// SelectedFields describes the values of the records Next returns.
func (r *Reader) SelectedFields() []Field {
	if r.cols == nil {
		return r.header.Fields
	}
	fields := make([]Field, len(r.cols))
	for i, col := range r.cols {
		fields[i] = r.header.Fields[col]
	}
	return fields
}

// RecordCount is the count declared by the header.
func (r *Reader) RecordCount() uint32 { return r.header.RecordCount }

// Next decodes the following record. It returns ok == false, with a nil
// error, once RecordCount records have been returned. A failed Next
// keeps failing.
func (r *Reader) Next() (rec Record, ok bool, err error) {
	if r.err != nil {
		return Record{}, false, r.err
	}
	if r.next >= r.header.RecordCount {
		return Record{}, false, nil
	}
	if _, err := io.ReadFull(r.buf, r.row); err != nil {
		r.err = r.rowReadErr(err)
		return Record{}, false, r.err
	}
	if r.row[0] == EOF {
		r.err = errors.Wrapf(ErrCorruptRecord, "end-of-file marker at record %d of %d", r.next, r.header.RecordCount)
		return Record{}, false, r.err
	}
	rec, err = r.codec.decode(r.row, r.cols)
	if err != nil {
		r.err = errors.Wrapf(err, "record %d", r.next)
		return Record{}, false, r.err
	}
	r.next++
	return rec, true, nil
}

// Records ranges over the remaining records, stopping after the first error.
func (r *Reader) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, ok, err := r.Next()
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !ok || !yield(rec, nil) {
				return
			}
		}
	}
}

// RecordAt decodes record index without moving the cursor. It needs a
// source implementing io.ReaderAt, such as the file behind Open.
func (r *Reader) RecordAt(index uint32) (Record, bool, error) {
	ra, ok := r.src.(io.ReaderAt)
	if !ok {
		return Record{}, false, errors.Wrap(ErrConfiguration, "source does not support random access")
	}
	if index >= r.header.RecordCount {
		return Record{}, false, nil
	}
	start := r.header.DataOffset() + int64(r.header.RecordLength)*int64(index)
	data := make([]byte, r.header.RecordLength)
	if n, err := ra.ReadAt(data, start); n < len(data) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return Record{}, false, r.rowReadErr(err)
	}
	rec, err := r.codec.decode(data, r.cols)
	if err != nil {
		return Record{}, false, errors.Wrapf(err, "record %d", index)
	}
	return rec, true, nil
}

// Scan decodes the next record into the struct dst points to. Columns map
// to exported fields as described for AddStruct. It returns false at the end.
func (r *Reader) Scan(dst any) (bool, error) {
	rv, binds, err := r.prepareScan(dst)
	if err != nil {
		return false, err
	}
	rec, ok, err := r.Next()
	if !ok || err != nil {
		return false, err
	}
	if err := fillStruct(rv, binds, r.SelectedFields(), rec); err != nil {
		return false, errors.Wrapf(err, "record %d", r.next-1)
	}
	return true, nil
}

// ScanAt is RecordAt into a struct.
func (r *Reader) ScanAt(index uint32, dst any) (bool, error) {
	rv, binds, err := r.prepareScan(dst)
	if err != nil {
		return false, err
	}
	rec, ok, err := r.RecordAt(index)
	if !ok || err != nil {
		return false, err
	}
	if err := fillStruct(rv, binds, r.SelectedFields(), rec); err != nil {
		return false, errors.Wrapf(err, "record %d", index)
	}
	return true, nil
}

// ScanAll appends every remaining record to the slice of structs dst points to
// and returns how many it added.
func (r *Reader) ScanAll(dst any) (int, error) {
	sp := reflect.ValueOf(dst)
	if sp.Kind() != reflect.Pointer || sp.IsNil() || sp.Elem().Kind() != reflect.Slice || sp.Elem().Type().Elem().Kind() != reflect.Struct {
		return 0, errors.Wrapf(ErrConfiguration, "ScanAll needs a pointer to a slice of structs, got %T", dst)
	}
	slice := sp.Elem()
	elemType := slice.Type().Elem()
	fields := r.SelectedFields()
	binds, err := bindStruct(elemType, fields)
	if err != nil {
		return 0, err
	}
	n := 0
	for {
		rec, ok, err := r.Next()
		if !ok || err != nil {
			return n, err
		}
		elem := reflect.New(elemType).Elem()
		if err := fillStruct(elem, binds, fields, rec); err != nil {
			return n, errors.Wrapf(err, "record %d", r.next-1)
		}
		slice.Set(reflect.Append(slice, elem))
		n++
	}
}

func (r *Reader) prepareScan(dst any) (reflect.Value, []binding, error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, errors.Wrapf(ErrConfiguration, "scan needs a non-nil pointer to a struct, got %T", dst)
	}
	rv = rv.Elem()
	binds, err := bindStruct(rv.Type(), r.SelectedFields())
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return rv, binds, nil
}

func (r *Reader) rowReadErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrapf(ErrCorruptRecord, "table truncated before record %d of %d", r.next, r.header.RecordCount)
	}
	return readErr("read record", err)
}

// Close releases the file opened by Open. It is a no-op for NewReader.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	if err := c.Close(); err != nil {
		return readErr("close", err)
	}
	return nil
}
