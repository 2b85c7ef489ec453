package dbf

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Writer is a table with no fields yet. SetFields is its only transition.
type Writer struct {
	opts options
	err  error
	used bool
}

// NewWriter starts a table written in one pass by TableWriter.WriteTo.
func NewWriter(opts ...Option) *Writer {
	o, err := newOptions(opts)
	return &Writer{opts: o, err: err}
}

// SetFields fixes the field list. The returned TableWriter has no way to
// change it; calling SetFields again on w fails with ErrAlreadyFinalized.
func (w *Writer) SetFields(fields ...Field) (*TableWriter, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.used {
		return nil, errors.Wrap(ErrAlreadyFinalized, "fields already set")
	}
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}
	w.used = true
	tw := &TableWriter{opts: w.opts}
	tw.codec = newRecordCodec(fields, w.opts.charsetFor(w.opts.languageDriver))
	return tw, nil
}

// TableWriter buffers records for a table whose fields are fixed.
type TableWriter struct {
	recordBuffer
	opts options
}

// WriteTo writes header, buffered records and end-of-file marker to out in
// one sequential pass. After a successful write the TableWriter is finalized.
func (tw *TableWriter) WriteTo(out io.Writer) (int64, error) {
	if tw.finalized {
		return 0, ErrAlreadyFinalized
	}
	h := &Header{
		Version:        tw.opts.version,
		LastUpdate:     DateOf(tw.opts.now()),
		RecordCount:    tw.pending,
		LanguageDriver: tw.opts.languageDriver,
		Fields:         tw.codec.fields,
	}
	head, err := h.MarshalBinary()
	if err != nil {
		return 0, err
	}
	var written int64
	for _, chunk := range [][]byte{head, tw.rows.Bytes(), {EOF}} {
		n, err := out.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, writeErr("write table", err)
		}
	}
	tw.finalized = true
	tw.opts.logger.Debug("dbf: wrote table", "records", h.RecordCount, "bytes", written)
	return written, nil
}

// WriteFile creates or truncates path and writes the table to it.
func (tw *TableWriter) WriteFile(path string) (err error) {
	if tw.finalized {
		return ErrAlreadyFinalized
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return writeErr("create "+path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = writeErr("close "+path, cerr)
		}
	}()
	_, err = tw.WriteTo(f)
	return err
}
