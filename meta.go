package dbf

// rawHeader is the 32-byte table prologue exactly as stored, read and written with encoding/binary.
type rawHeader struct {
	Version          byte
	LastUpdateYear   byte
	LastUpdateMonth  byte
	LastUpdateDay    byte
	NumRecords       uint32
	HeaderLength     uint16
	RecordLength     uint16
	Reserved         [2]byte
	Flag             byte
	EncryptFlag      byte
	Reserved2        [12]byte
	MDXFlag          byte
	LanguageDriverID byte
	Reserved3        [2]byte
}

// rawField is one 32-byte field descriptor as stored.
type rawField struct {
	Name       [11]byte
	Type       byte
	Reserved1  [4]byte
	Length     byte
	Decimal    byte
	Reserved2  [2]byte
	WorkAreaID byte
	Reserved3  [10]byte
	Flag       byte
}

// offsetNumRecords is where the record count lives inside the header.
const offsetNumRecords = 4

// Header is the decoded table header together with its field descriptors.
type Header struct {
	Version        byte
	LastUpdate     Date
	RecordCount    uint32
	HeaderLength   uint16
	RecordLength   uint16
	LanguageDriver byte
	Fields         []Field
}

// DataOffset is the byte offset of the first record row.
func (h *Header) DataOffset() int64 { return int64(h.HeaderLength) }

// EOFOffset is the byte offset just past the last declared row, where the end-of-file marker belongs.
func (h *Header) EOFOffset() int64 {
	return int64(h.HeaderLength) + int64(h.RecordLength)*int64(h.RecordCount)
}
