package dbf

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Appender extends an existing table in place. New rows overwrite the old
// end-of-file marker; of the header only the record count is rewritten.
// The caller must hold exclusive access to the file until Close returns.
type Appender struct {
	recordBuffer
	f      io.ReadWriteSeeker
	closer io.Closer
	header *Header
	opts   options
	name   string
}

// OpenAppender opens the table at path for in-place appending.
func OpenAppender(path string, opts ...Option) (*Appender, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, writeErr("open "+path, err)
	}
	a, err := newAppender(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	a.closer = f
	a.name = path
	return a, nil
}

// NewAppender binds to a table held by rws. The caller keeps ownership of rws.
func NewAppender(rws io.ReadWriteSeeker, opts ...Option) (*Appender, error) {
	return newAppender(rws, opts)
}

func newAppender(rws io.ReadWriteSeeker, opts []Option) (*Appender, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	if _, err := rws.Seek(0, io.SeekStart); err != nil {
		return nil, readErr("seek header", err)
	}
	t, err := o.initMetaData(rws)
	if err != nil {
		if errors.Is(err, ErrFormat) {
			return nil, errors.Wrapf(ErrInconsistentFields, "existing table: %v", err)
		}
		return nil, err
	}
	a := &Appender{f: rws, header: t.header, opts: o}
	a.codec = t.codec
	a.base = t.header.RecordCount
	if err := a.checkEOF(); err != nil {
		return nil, err
	}
	return a, nil
}

// checkEOF verifies the file ends at the declared rows, with or without a marker.
func (a *Appender) checkEOF() error {
	off := a.header.EOFOffset()
	size, err := a.f.Seek(0, io.SeekEnd)
	if err != nil {
		return readErr("seek end", err)
	}
	if size < off {
		return errors.Wrapf(ErrInconsistentFields, "file is %d bytes, %d records end at %d", size, a.header.RecordCount, off)
	}
	if size == off {
		return nil
	}
	if _, err := a.f.Seek(off, io.SeekStart); err != nil {
		return readErr("seek end-of-file marker", err)
	}
	var marker [1]byte
	if _, err := io.ReadFull(a.f, marker[:]); err != nil {
		return readErr("read end-of-file marker", err)
	}
	if marker[0] != EOF {
		return errors.Wrapf(ErrMissingEOF, "byte 0x%02X at offset %d", marker[0], off)
	}
	return nil
}

func (a *Appender) Header() *Header { return a.header }

// Close writes the buffered rows and a fresh end-of-file marker, patches the
// record count, and releases the file opened by OpenAppender. The file is
// released even when writing fails, and a failed write is undone when the
// resource can truncate.
func (a *Appender) Close() (err error) {
	if a.finalized {
		return ErrAlreadyFinalized
	}
	a.finalized = true
	defer func() {
		if a.closer == nil {
			return
		}
		if cerr := a.closer.Close(); cerr != nil && err == nil {
			err = writeErr("close", cerr)
		}
		a.closer = nil
	}()
	if err = a.saveRecords(); err == nil {
		err = a.saveNumRecords()
	}
	if err != nil {
		if rerr := a.rollbackRecord(); rerr != nil {
			a.opts.logger.Warn("dbf: rollback failed", "path", a.name, "err", rerr)
		} else {
			a.opts.logger.Warn("dbf: rolled back appended records", "path", a.name, "records", a.pending)
		}
		return err
	}
	// The count on disk is already the new one, even if Sync fails below.
	a.header.RecordCount = a.base + a.pending
	if s, ok := a.f.(interface{ Sync() error }); ok {
		if err = s.Sync(); err != nil {
			return writeErr("sync", err)
		}
	}
	a.opts.logger.Debug("dbf: appended records", "path", a.name, "added", a.pending, "total", a.header.RecordCount)
	return nil
}

// saveRecords overwrites the old end-of-file marker with the new rows and a new marker.
func (a *Appender) saveRecords() error {
	if _, err := a.f.Seek(a.header.EOFOffset(), io.SeekStart); err != nil {
		return writeErr("seek end-of-file marker", err)
	}
	a.rows.WriteByte(EOF)
	if _, err := a.f.Write(a.rows.Bytes()); err != nil {
		return writeErr("write records", err)
	}
	return nil
}

func (a *Appender) saveNumRecords() error {
	if _, err := a.f.Seek(offsetNumRecords, io.SeekStart); err != nil {
		return writeErr("seek record count", err)
	}
	if err := binary.Write(a.f, binary.LittleEndian, a.base+a.pending); err != nil {
		return writeErr("write record count", err)
	}
	return nil
}

// rollbackRecord cuts the file back to its original rows, restores the
// marker and rewrites the original count.
func (a *Appender) rollbackRecord() error {
	t, ok := a.f.(interface{ Truncate(int64) error })
	if !ok {
		return errors.New("resource cannot truncate")
	}
	off := a.header.EOFOffset()
	if err := t.Truncate(off); err != nil {
		return err
	}
	if _, err := a.f.Seek(off, io.SeekStart); err != nil {
		return err
	}
	if _, err := a.f.Write([]byte{EOF}); err != nil {
		return err
	}
	if _, err := a.f.Seek(offsetNumRecords, io.SeekStart); err != nil {
		return err
	}
	return binary.Write(a.f, binary.LittleEndian, a.base)
}
