package dbf

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldType is the one-byte type code stored in a field descriptor.
type FieldType byte

const (
	TypeCharacter FieldType = 'C'
	TypeNumeric   FieldType = 'N'
	TypeFloat     FieldType = 'F'
	TypeLogical   FieldType = 'L'
	TypeDate      FieldType = 'D'
	TypeMemo      FieldType = 'M'
)

const (
	maxNameLength    = 10
	maxCharLength    = 254
	maxNumericLength = 20
	maxDecimalCount  = 15
	maxRecordLength  = 0xFFFF
)

func (t FieldType) String() string {
	switch t {
	case TypeCharacter:
		return "Character"
	case TypeNumeric:
		return "Numeric"
	case TypeFloat:
		return "Float"
	case TypeLogical:
		return "Logical"
	case TypeDate:
		return "Date"
	case TypeMemo:
		return "Memo"
	case 0:
		return "unset"
	}
	return fmt.Sprintf("FieldType(%q)", rune(t))
}

func (t FieldType) numeric() bool { return t == TypeNumeric || t == TypeFloat }

// kind is the Value kind a field of this type stores.
func (t FieldType) kind() Kind {
	switch t {
	case TypeCharacter:
		return KindCharacter
	case TypeNumeric, TypeFloat:
		return KindNumeric
	case TypeLogical:
		return KindLogical
	case TypeDate:
		return KindDate
	case TypeMemo:
		return KindMemo
	}
	return KindInvalid
}

// Field describes one column of a table.
type Field struct {
	Name     string
	Type     FieldType
	Length   int
	Decimals int
}

// NewField builds and validates a field descriptor.
func NewField(name string, typ FieldType, length, decimals int) (Field, error) {
	f := Field{Name: name, Type: typ, Length: length, Decimals: decimals}
	return f, f.Validate()
}

// CharField, NumericField and friends build descriptors without validating them;
// validation happens when the field list is installed on a writer.
func CharField(name string, length int) Field {
	return Field{Name: name, Type: TypeCharacter, Length: length}
}

func NumericField(name string, length, decimals int) Field {
	return Field{Name: name, Type: TypeNumeric, Length: length, Decimals: decimals}
}

func FloatField(name string, length, decimals int) Field {
	return Field{Name: name, Type: TypeFloat, Length: length, Decimals: decimals}
}

func LogicalField(name string) Field { return Field{Name: name, Type: TypeLogical, Length: 1} }

func DateField(name string) Field { return Field{Name: name, Type: TypeDate, Length: 8} }

func MemoField(name string) Field { return Field{Name: name, Type: TypeMemo, Length: 10} }

func (f Field) String() string {
	if f.Decimals > 0 {
		return fmt.Sprintf("%s %c(%d,%d)", f.Name, f.Type, f.Length, f.Decimals)
	}
	return fmt.Sprintf("%s %c(%d)", f.Name, f.Type, f.Length)
}

// Validate checks the name and the type-specific length and decimal bounds.
func (f Field) Validate() error {
	if err := validateName(f.Name); err != nil {
		return err
	}
	switch f.Type {
	case TypeCharacter:
		if f.Length < 1 || f.Length > maxCharLength {
			return errors.Wrapf(ErrInvalidField, "%s: character length %d not in 1..%d", f.Name, f.Length, maxCharLength)
		}
	case TypeNumeric, TypeFloat:
		if f.Length < 1 || f.Length > maxNumericLength {
			return errors.Wrapf(ErrInvalidField, "%s: numeric length %d not in 1..%d", f.Name, f.Length, maxNumericLength)
		}
		if f.Decimals < 0 || f.Decimals > maxDecimalCount {
			return errors.Wrapf(ErrInvalidField, "%s: decimal count %d not in 0..%d", f.Name, f.Decimals, maxDecimalCount)
		}
		need := f.Decimals + 1
		if f.Decimals > 0 {
			need++
		}
		if f.Length < need {
			return errors.Wrapf(ErrInvalidField, "%s: length %d too small for %d decimals", f.Name, f.Length, f.Decimals)
		}
		return nil
	case TypeLogical:
		if f.Length != 1 {
			return errors.Wrapf(ErrInvalidField, "%s: logical length must be 1, got %d", f.Name, f.Length)
		}
	case TypeDate:
		if f.Length != 8 {
			return errors.Wrapf(ErrInvalidField, "%s: date length must be 8, got %d", f.Name, f.Length)
		}
	case TypeMemo:
		if f.Length != 10 {
			return errors.Wrapf(ErrInvalidField, "%s: memo length must be 10, got %d", f.Name, f.Length)
		}
	case 0:
		return errors.Wrapf(ErrInvalidField, "%s: type not set", f.Name)
	default:
		return errors.Wrapf(ErrInvalidField, "%s: unsupported type %q", f.Name, rune(f.Type))
	}
	if f.Decimals != 0 {
		return errors.Wrapf(ErrInvalidField, "%s: %s field cannot have decimals", f.Name, f.Type)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return errors.Wrap(ErrInvalidField, "empty field name")
	}
	if len(name) > maxNameLength {
		return errors.Wrapf(ErrInvalidField, "field name %q longer than %d", name, maxNameLength)
	}
	for i := 0; i < len(name); i++ {
		if name[i] <= SPACE || name[i] > '~' {
			return errors.Wrapf(ErrInvalidField, "field name %q has non-printable byte at %d", name, i)
		}
	}
	return nil
}

// ValidateFields checks every field and the list as a whole.
func ValidateFields(fields []Field) error {
	if len(fields) == 0 {
		return errors.Wrap(ErrFieldsNotSet, "at least one field is required")
	}
	seen := make(map[string]int, len(fields))
	for i, f := range fields {
		if err := f.Validate(); err != nil {
			return errors.Wrapf(err, "field %d", i)
		}
		key := strings.ToUpper(f.Name)
		if j, ok := seen[key]; ok {
			return errors.Wrapf(ErrDuplicateField, "%s at %d and %d", f.Name, j, i)
		}
		seen[key] = i
	}
	if n := headerLength(len(fields)); n > maxRecordLength {
		return errors.Wrapf(ErrInvalidField, "%d fields do not fit a header", len(fields))
	}
	if n := recordLength(fields); n > maxRecordLength {
		return errors.Wrapf(ErrInvalidField, "record length %d exceeds %d", n, maxRecordLength)
	}
	return nil
}

// fieldIndex finds a field by name, ignoring case, or returns -1.
func fieldIndex(fields []Field, name string) int {
	for i, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// recordLength is the deletion flag plus every field width.
func recordLength(fields []Field) int {
	n := 1
	for _, f := range fields {
		n += f.Length
	}
	return n
}

func headerLength(fieldCount int) int {
	return headerSize + fieldSize*fieldCount + 1
}
