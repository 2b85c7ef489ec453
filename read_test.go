package dbf

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var colorFields = []Field{CharField("F1", 10), NumericField("F2", 2, 0)}

// colorTable encodes Red, Blue, Green and Yellow rows in memory.
func colorTable(t *testing.T) []byte {
	t.Helper()
	tw, err := NewWriter(fixedClock).SetFields(colorFields...)
	require.NoError(t, err)
	for i, name := range []string{"Red", "Blue", "Green", "Yellow"} {
		require.NoError(t, tw.AddValues(name, (i+1)*11))
	}
	var buf bytes.Buffer
	_, err = tw.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReader_NextUntilEnd(t *testing.T) {
	r, err := NewReader(bytes.NewReader(colorTable(t)))
	require.NoError(t, err)
	assert.Equal(t, uint32(4), r.RecordCount())
	assert.Equal(t, colorFields, r.Fields())

	var names []string
	for {
		rec, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		s, _ := rec.Values[0].Str()
		names = append(names, s)
	}
	assert.Equal(t, []string{"Red", "Blue", "Green", "Yellow"}, names)

	for i := 0; i < 2; i++ {
		_, ok, err := r.Next()
		assert.NoError(t, err)
		assert.False(t, ok)
	}
	assert.NoError(t, r.Close())
}

func TestReader_RecordsStopsEarly(t *testing.T) {
	r, err := NewReader(bytes.NewReader(colorTable(t)))
	require.NoError(t, err)

	seen := 0
	for _, err := range r.Records() {
		require.NoError(t, err)
		seen++
		if seen == 2 {
			break
		}
	}
	rec, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, NewRecord(CharValue("Green"), IntValue(33)).Equal(rec))
}

func TestReader_RecordAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.dbf")
	require.NoError(t, os.WriteFile(path, colorTable(t), 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	rec, ok, err := r.RecordAt(3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, NewRecord(CharValue("Yellow"), IntValue(44)).Equal(rec))

	_, ok, err = r.RecordAt(4)
	assert.NoError(t, err)
	assert.False(t, ok)

	// The cursor is untouched.
	rec, ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, NewRecord(CharValue("Red"), IntValue(11)).Equal(rec))
}

func TestReader_RecordAtNeedsReaderAt(t *testing.T) {
	r, err := NewReader(io.MultiReader(bytes.NewReader(colorTable(t))))
	require.NoError(t, err)
	_, _, err = r.RecordAt(0)
	assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
}

func TestReader_Truncated(t *testing.T) {
	raw := colorTable(t)
	r, err := NewReader(bytes.NewReader(raw[:len(raw)-5]))
	require.NoError(t, err)

	var last error
	n := 0
	for _, err := range r.Records() {
		if err != nil {
			last = err
			break
		}
		n++
	}
	assert.Equal(t, 3, n)
	assert.True(t, errors.Is(last, ErrCorruptRecord), "got %v", last)

	_, ok, err := r.Next()
	assert.False(t, ok)
	assert.Equal(t, last, err)
}

func TestReader_MarkerInsideDeclaredRows(t *testing.T) {
	raw := colorTable(t)
	h, err := DecodeHeader(raw)
	require.NoError(t, err)

	// Claim a fifth row: the reader then meets the marker where a row should start.
	raw = append(raw, bytes.Repeat([]byte{' '}, int(h.RecordLength)-1)...)
	binary.LittleEndian.PutUint32(raw[offsetNumRecords:], 5)

	r, err := NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, ok, err := r.Next()
		require.NoError(t, err)
		require.True(t, ok)
	}
	_, ok, err := r.Next()
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrCorruptRecord), "got %v", err)
}

func TestReader_DeletedRowsAreReturned(t *testing.T) {
	tw, err := NewWriter().SetFields(colorFields...)
	require.NoError(t, err)
	require.NoError(t, tw.AddValues("Keep", 1))
	require.NoError(t, tw.Add(Record{Deleted: true, Values: []Value{CharValue("Gone"), IntValue(2)}}))
	var buf bytes.Buffer
	_, err = tw.WriteTo(&buf)
	require.NoError(t, err)

	r, err := NewReader(&buf)
	require.NoError(t, err)
	var deleted []bool
	for rec, err := range r.Records() {
		require.NoError(t, err)
		deleted = append(deleted, rec.Deleted)
	}
	assert.Equal(t, []bool{false, true}, deleted)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.dbf"))
	assert.True(t, errors.Is(err, ErrRead), "got %v", err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(t.TempDir(), "junk.dbf")
	require.NoError(t, os.WriteFile(path, []byte("not a table"), 0o644))
	_, err = Open(path)
	assert.True(t, errors.Is(err, ErrCorruptHeader), "got %v", err)

	_, err = Open(path, WithEncoding("no-such-charset"))
	assert.True(t, errors.Is(err, ErrUnknownCharset), "got %v", err)
}

func TestOpen_Logs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.dbf")
	require.NoError(t, os.WriteFile(path, colorTable(t), 0o644))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r, err := Open(path, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.Contains(t, logs.String(), "opened table")
	assert.Contains(t, logs.String(), "records=4")
}

func TestReader_Select(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.dbf")
	require.NoError(t, os.WriteFile(path, colorTable(t), 0o644))
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Select("f2", "F1"))
	assert.Equal(t, []Field{colorFields[1], colorFields[0]}, r.SelectedFields())
	assert.Equal(t, colorFields, r.Fields())

	rec, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, NewRecord(IntValue(11), CharValue("Red")).Equal(rec), "got %v", rec)

	require.NoError(t, r.Select("F2"))
	rec, ok, err = r.RecordAt(3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, NewRecord(IntValue(44)).Equal(rec), "got %v", rec)

	err = r.Select("F1", "COLOR")
	assert.True(t, errors.Is(err, ErrInvalidField), "got %v", err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, []Field{colorFields[1]}, r.SelectedFields(), "a failed Select keeps the previous one")

	require.NoError(t, r.Select())
	rec, ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, NewRecord(CharValue("Blue"), IntValue(22)).Equal(rec), "got %v", rec)
}

func TestReader_SelectSkipsUnselectedBytes(t *testing.T) {
	raw := colorTable(t)
	h, err := DecodeHeader(raw)
	require.NoError(t, err)
	// Garbage in F2 of the first row only matters when F2 is decoded.
	copy(raw[int(h.HeaderLength)+1+10:], "xx")

	r, err := NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	require.NoError(t, r.Select("F1"))
	rec, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, NewRecord(CharValue("Red")).Equal(rec))

	_, _, err = r.RecordAt(0)
	assert.NoError(t, err)
	require.NoError(t, r.Select())
	_, _, err = r.RecordAt(0)
	assert.True(t, errors.Is(err, ErrCorruptRecord), "got %v", err)
}
