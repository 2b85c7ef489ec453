package dbf

import (
	"github.com/axgle/mahonia"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Charset converts Character field text to and from its stored bytes.
type Charset interface {
	Encode(s string) ([]byte, error)
	Decode(b []byte) (string, error)
}

// DefaultEncoding is the mahonia charset used when no option selects another.
const DefaultEncoding = "utf-8"

type mahoniaCharset struct {
	name    string
	encoder mahonia.Encoder
	decoder mahonia.Decoder
}

// MahoniaCharset looks a charset up by name ("utf-8", "gbk", "windows-1252", ...).
func MahoniaCharset(name string) (Charset, error) {
	enc := mahonia.NewEncoder(name)
	dec := mahonia.NewDecoder(name)
	if enc == nil || dec == nil {
		return nil, errors.Wrapf(ErrUnknownCharset, "%q", name)
	}
	return &mahoniaCharset{name: name, encoder: enc, decoder: dec}, nil
}

func (c *mahoniaCharset) Encode(s string) ([]byte, error) {
	out, ok := c.encoder.ConvertStringOK(s)
	if !ok {
		return nil, errors.Wrapf(ErrTypeMismatch, "%q not representable in %s", s, c.name)
	}
	return []byte(out), nil
}

func (c *mahoniaCharset) Decode(b []byte) (string, error) {
	out, ok := c.decoder.ConvertStringOK(string(b))
	if !ok {
		return "", errors.Wrapf(ErrCorruptRecord, "invalid %s text %q", c.name, b)
	}
	return out, nil
}

type textCharset struct {
	enc encoding.Encoding
}

// TextCharset adapts a golang.org/x/text encoding.
func TextCharset(enc encoding.Encoding) Charset {
	return textCharset{enc: enc}
}

func (c textCharset) Encode(s string) ([]byte, error) {
	out, err := c.enc.NewEncoder().String(s)
	if err != nil {
		return nil, errors.Wrapf(ErrTypeMismatch, "%q: %v", s, err)
	}
	return []byte(out), nil
}

func (c textCharset) Decode(b []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrapf(ErrCorruptRecord, "%q: %v", b, err)
	}
	return string(out), nil
}

// dBase language driver IDs (header offset 29) and their code pages.
var languageDrivers = map[byte]*charmap.Charmap{
	0x01: charmap.CodePage437,
	0x02: charmap.CodePage850,
	0x03: charmap.Windows1252,
	0x57: charmap.Windows1252,
	0x64: charmap.CodePage852,
	0x65: charmap.CodePage866,
	0x66: charmap.CodePage865,
	0x26: charmap.CodePage866,
	0xC8: charmap.Windows1250,
	0xC9: charmap.Windows1251,
	0xCA: charmap.Windows1254,
	0xCB: charmap.Windows1253,
}

// LanguageDriverCharset returns the code page a language driver ID names.
func LanguageDriverCharset(id byte) (Charset, error) {
	cm, ok := languageDrivers[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCharset, "language driver 0x%02X", id)
	}
	return TextCharset(cm), nil
}

var defaultCharset = mustCharset(DefaultEncoding)

func mustCharset(name string) Charset {
	cs, err := MahoniaCharset(name)
	if err != nil {
		panic(err)
	}
	return cs
}
