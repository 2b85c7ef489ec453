package dbf

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// EncodeHeader lays out a fresh dBase III header for fields holding recordCount rows.
func EncodeHeader(fields []Field, recordCount uint32, lastUpdate Date) ([]byte, error) {
	h := &Header{Version: Version3, LastUpdate: lastUpdate, RecordCount: recordCount, Fields: fields}
	return h.MarshalBinary()
}

// MarshalBinary encodes the header block, the field descriptors and the terminator.
// HeaderLength and RecordLength are derived from Fields.
func (h *Header) MarshalBinary() ([]byte, error) {
	if err := ValidateFields(h.Fields); err != nil {
		return nil, err
	}
	year := h.LastUpdate.Year - 1900
	if year < 0 || year > 0xFF || !h.LastUpdate.Valid() {
		return nil, errors.Wrapf(ErrInvalidDate, "last update %v", h.LastUpdate)
	}
	raw := rawHeader{
		Version:          h.Version,
		LastUpdateYear:   byte(year),
		LastUpdateMonth:  byte(h.LastUpdate.Month),
		LastUpdateDay:    byte(h.LastUpdate.Day),
		NumRecords:       h.RecordCount,
		HeaderLength:     uint16(headerLength(len(h.Fields))),
		RecordLength:     uint16(recordLength(h.Fields)),
		LanguageDriverID: h.LanguageDriver,
	}
	buf := bytes.NewBuffer(make([]byte, 0, raw.HeaderLength))
	if err := binary.Write(buf, binary.LittleEndian, &raw); err != nil {
		return nil, errors.Wrap(err, "encode header")
	}
	for _, f := range h.Fields {
		rf := rawField{Type: byte(f.Type), Length: byte(f.Length), Decimal: byte(f.Decimals)}
		copy(rf.Name[:], f.Name)
		if err := binary.Write(buf, binary.LittleEndian, &rf); err != nil {
			return nil, errors.Wrap(err, "encode field")
		}
	}
	buf.WriteByte(TERMINATOR)
	h.HeaderLength, h.RecordLength = raw.HeaderLength, raw.RecordLength
	return buf.Bytes(), nil
}

// DecodeHeader parses a header block. Bytes after the terminator are ignored.
func DecodeHeader(b []byte) (*Header, error) {
	return ReadHeader(bytes.NewReader(b))
}

// ReadHeader consumes exactly the header block from r, leaving r at the first record.
func ReadHeader(r io.Reader) (*Header, error) {
	var raw rawHeader
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return nil, headerReadErr("header", err)
	}
	h := &Header{
		Version:        raw.Version,
		LastUpdate:     Date{Year: 1900 + int(raw.LastUpdateYear), Month: time.Month(raw.LastUpdateMonth), Day: int(raw.LastUpdateDay)},
		RecordCount:    raw.NumRecords,
		HeaderLength:   raw.HeaderLength,
		RecordLength:   raw.RecordLength,
		LanguageDriver: raw.LanguageDriverID,
	}
	if err := initFields(r, h); err != nil {
		return nil, err
	}
	if want := headerLength(len(h.Fields)); int(h.HeaderLength) != want {
		return nil, errors.Wrapf(ErrCorruptHeader, "header length %d, %d fields need %d", h.HeaderLength, len(h.Fields), want)
	}
	if err := ValidateFields(h.Fields); err != nil {
		return nil, errors.Wrapf(ErrCorruptHeader, "fields: %v", err)
	}
	if want := recordLength(h.Fields); int(h.RecordLength) != want {
		return nil, errors.Wrapf(ErrCorruptHeader, "record length %d, fields need %d", h.RecordLength, want)
	}
	return h, nil
}

// initFields reads descriptors until the terminator, never past the declared header length.
func initFields(r io.Reader, h *Header) error {
	var block [fieldSize]byte
	consumed := headerSize
	for {
		if consumed+1 > int(h.HeaderLength) {
			return errors.Wrapf(ErrCorruptHeader, "no terminator within header length %d", h.HeaderLength)
		}
		if _, err := io.ReadFull(r, block[:1]); err != nil {
			return headerReadErr("terminator", err)
		}
		consumed++
		if block[0] == TERMINATOR {
			return nil
		}
		if _, err := io.ReadFull(r, block[1:]); err != nil {
			return headerReadErr("field descriptor", err)
		}
		consumed += fieldSize - 1
		var rf rawField
		if err := binary.Read(bytes.NewReader(block[:]), binary.LittleEndian, &rf); err != nil {
			return errors.Wrap(ErrCorruptHeader, err.Error())
		}
		h.Fields = append(h.Fields, fieldOf(&rf))
	}
}

func fieldOf(rf *rawField) Field {
	index := bytes.IndexByte(rf.Name[:], NUL)
	if index == -1 {
		index = len(rf.Name)
	}
	return Field{
		Name:     strings.TrimSpace(string(rf.Name[:index])),
		Type:     FieldType(rf.Type),
		Length:   int(rf.Length),
		Decimals: int(rf.Decimal),
	}
}

// headerReadErr turns a short read into a format error and anything else into an IO error.
func headerReadErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrapf(ErrCorruptHeader, "truncated %s", what)
	}
	return readErr("read "+what, err)
}
