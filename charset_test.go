package dbf

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestMahoniaCharset(t *testing.T) {
	cs, err := MahoniaCharset("utf-8")
	require.NoError(t, err)
	b, err := cs.Encode("Red")
	require.NoError(t, err)
	assert.Equal(t, []byte("Red"), b)
	s, err := cs.Decode([]byte("Blue"))
	require.NoError(t, err)
	assert.Equal(t, "Blue", s)

	_, err = MahoniaCharset("no-such-charset")
	assert.True(t, errors.Is(err, ErrUnknownCharset), "got %v", err)
}

func TestLanguageDriverCharset(t *testing.T) {
	cs, err := LanguageDriverCharset(0xC9)
	require.NoError(t, err)
	b, err := cs.Encode("Привет")
	require.NoError(t, err)
	assert.Len(t, b, 6)
	s, err := cs.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "Привет", s)

	_, err = LanguageDriverCharset(0xEE)
	assert.True(t, errors.Is(err, ErrUnknownCharset))
}

func TestTextCharset_Unrepresentable(t *testing.T) {
	_, err := TextCharset(charmap.Windows1251).Encode("中")
	assert.True(t, errors.Is(err, ErrTypeMismatch), "got %v", err)
}

func TestCharacterWidthCountsEncodedBytes(t *testing.T) {
	field := CharField("NAME", 8)

	_, err := EncodeValue(field, CharValue("Привет"))
	assert.True(t, errors.Is(err, ErrValueOverflow), "utf-8 needs 12 bytes: %v", err)

	codec, err := NewRecordCodec([]Field{field}, WithLanguageDriver(0xC9))
	require.NoError(t, err)
	row, err := codec.Encode(NewRecord(CharValue("Привет")))
	require.NoError(t, err)
	assert.Len(t, row, 9)
}

func TestLanguageDriverRoundTrip(t *testing.T) {
	tw, err := NewWriter(fixedClock, WithLanguageDriver(0xC9)).SetFields(CharField("NAME", 10))
	require.NoError(t, err)
	require.NoError(t, tw.AddValues("Привет"))
	var buf bytes.Buffer
	_, err = tw.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.Bytes()
	assert.Equal(t, byte(0xC9), raw[29])

	// The reader picks the code page from the header.
	r, err := NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	rec, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, CharValue("Привет").Equal(rec.Values[0]), "got %v", rec.Values[0])

	// An explicit charset wins over the header.
	r, err = NewReader(bytes.NewReader(raw), WithCharset(TextCharset(charmap.CodePage866)))
	require.NoError(t, err)
	rec, ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, CharValue("Привет").Equal(rec.Values[0]))
}
