package dbf

import (
	"io"
)

// table is what a loaded file yields before any row is touched.
type table struct {
	header *Header
	codec  *RecordCodec
}

func (o *options) initMetaData(r io.Reader) (*table, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	cs := o.charsetFor(h.LanguageDriver)
	return &table{header: h, codec: newRecordCodec(h.Fields, cs)}, nil
}
