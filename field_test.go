package dbf

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_Validate(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		ok    bool
	}{
		{"char", CharField("NAME", 10), true},
		{"char max", CharField("NAME", 254), true},
		{"char too long", CharField("NAME", 255), false},
		{"char zero", CharField("NAME", 0), false},
		{"numeric", NumericField("QTY", 15, 0), true},
		{"numeric decimals", NumericField("PRICE", 8, 2), true},
		{"numeric tight", NumericField("PRICE", 4, 2), true},
		{"numeric too narrow", NumericField("PRICE", 3, 2), false},
		{"numeric too wide", NumericField("QTY", 21, 0), false},
		{"float", FloatField("RATE", 10, 4), true},
		{"logical", LogicalField("OK"), true},
		{"logical wrong length", Field{Name: "OK", Type: TypeLogical, Length: 2}, false},
		{"date", DateField("BORN"), true},
		{"memo", MemoField("NOTES"), true},
		{"char decimals", Field{Name: "NAME", Type: TypeCharacter, Length: 5, Decimals: 1}, false},
		{"type unset", Field{Name: "X", Length: 5}, false},
		{"type unknown", Field{Name: "X", Type: 'Q', Length: 5}, false},
		{"empty name", CharField("", 5), false},
		{"ten char name", CharField("ABCDEFGHIJ", 5), true},
		{"eleven char name", CharField("ABCDEFGHIJK", 5), false},
		{"space in name", CharField("A B", 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidField), "got %v", err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestNewField(t *testing.T) {
	f, err := NewField("F1", TypeNumeric, 15, 0)
	require.NoError(t, err)
	assert.Equal(t, NumericField("F1", 15, 0), f)

	_, err = NewField("F1", TypeDate, 10, 0)
	assert.True(t, errors.Is(err, ErrInvalidField))
}

func TestValidateFields(t *testing.T) {
	assert.True(t, errors.Is(ValidateFields(nil), ErrFieldsNotSet))

	err := ValidateFields([]Field{CharField("NAME", 5), CharField("name", 5)})
	assert.True(t, errors.Is(err, ErrDuplicateField), "got %v", err)

	err = ValidateFields([]Field{CharField("NAME", 5), CharField("BAD NAME", 5)})
	assert.True(t, errors.Is(err, ErrInvalidField), "got %v", err)

	assert.NoError(t, ValidateFields([]Field{CharField("F1", 10), NumericField("F2", 2, 0)}))
}

func TestRecordAndHeaderLength(t *testing.T) {
	fields := []Field{CharField("F1", 10), NumericField("F2", 2, 0), DateField("F3")}
	assert.Equal(t, 21, recordLength(fields))
	assert.Equal(t, 32+3*32+1, headerLength(len(fields)))
}

func TestFieldType_String(t *testing.T) {
	assert.Equal(t, "Numeric", TypeNumeric.String())
	assert.Equal(t, "unset", FieldType(0).String())
	assert.Equal(t, "PRICE N(8,2)", NumericField("PRICE", 8, 2).String())
	assert.Equal(t, "NAME C(10)", CharField("NAME", 10).String())
}
