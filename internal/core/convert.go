package core

// convert.go translates between tabular cell text and typed field values.
//
// Reading is row-aware: every failure is a *MappingError naming the row and
// column. Text values are kept exactly as decoded; identifiers, numbers and
// timestamps are trimmed before parsing. Writing is the inverse and always
// produces text the reading side accepts.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/structured"
)

// IDListSeparator joins identifiers inside one reference cell.
const IDListSeparator = ";"

// ErrMissingField is wrapped by MappingError when a required column is
// absent or blank.
var ErrMissingField = errors.New("missing field")

// MappingError reports a source value that could not be mapped to a record.
type MappingError struct {
	Row   int
	Field string
	Err   error
}

func (e *MappingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// Fields is one source record keyed by column name. Lookups ignore case and
// surrounding whitespace in the column name.
type Fields struct {
	row    int
	values map[string]string
}

// NewFields builds Fields for the record at row.
func NewFields(row int, values map[string]string) Fields {
	folded := make(map[string]string, len(values))
	for k, v := range values {
		folded[foldColumn(k)] = v
	}
	return Fields{row: row, values: folded}
}

func foldColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Row is the source position of the record.
func (f Fields) Row() int { return f.row }

func (f Fields) fail(field string, err error) error {
	return &MappingError{Row: f.row, Field: field, Err: err}
}

func (f Fields) trimmed(name string) string {
	return strings.TrimSpace(f.values[foldColumn(name)])
}

// Text returns the raw value of an optional column, "" when absent.
func (f Fields) Text(name string) string {
	return f.values[foldColumn(name)]
}

// RequiredText returns the raw value of a column that must not be blank.
func (f Fields) RequiredText(name string) (string, error) {
	v, ok := f.values[foldColumn(name)]
	if !ok || strings.TrimSpace(v) == "" {
		return "", f.fail(name, ErrMissingField)
	}
	return v, nil
}

// Time parses a required timestamp column.
func (f Fields) Time(name string) (time.Time, error) {
	s := f.trimmed(name)
	if s == "" {
		return time.Time{}, f.fail(name, ErrMissingField)
	}
	t, err := structured.ParseTime(s)
	if err != nil {
		return time.Time{}, f.fail(name, err)
	}
	return t, nil
}

// OptTime parses an optional timestamp column; blank gives nil.
func (f Fields) OptTime(name string) (*time.Time, error) {
	if f.trimmed(name) == "" {
		return nil, nil
	}
	t, err := f.Time(name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// OptFloat parses an optional number; blank gives 0. Non-finite values parse
// and are left for validation to reject.
func (f Fields) OptFloat(name string) (float64, error) {
	s := f.trimmed(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, f.fail(name, fmt.Errorf("invalid number %q", s))
	}
	return v, nil
}

// Int parses a required integer column.
func (f Fields) Int(name string) (int, error) {
	s := f.trimmed(name)
	if s == "" {
		return 0, f.fail(name, ErrMissingField)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, f.fail(name, fmt.Errorf("invalid integer %q", s))
	}
	return v, nil
}

// OptInt parses an optional integer; blank gives def.
func (f Fields) OptInt(name string, def int) (int, error) {
	if f.trimmed(name) == "" {
		return def, nil
	}
	return f.Int(name)
}

// ID parses the record identifier column. A blank id allocates a new one.
func (f Fields) ID(name string) (uuid.UUID, error) {
	s := f.trimmed(name)
	if s == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, f.fail(name, fmt.Errorf("invalid identifier %q", s))
	}
	return id, nil
}

// IDList parses a reference column of IDListSeparator-joined identifiers.
// Empty tokens are ignored.
func (f Fields) IDList(name string) ([]uuid.UUID, error) {
	s := f.trimmed(name)
	if s == "" {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, tok := range strings.Split(s, IDListSeparator) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := uuid.Parse(tok)
		if err != nil {
			return nil, f.fail(name, fmt.Errorf("invalid identifier %q in list", tok))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Nested decodes a column holding a structured sub-collection.
func (f Fields) Nested(name string) ([]*structured.Reader, error) {
	items, err := structured.DecodeCell(f.Text(name), "")
	if err != nil {
		return nil, f.fail(name, err)
	}
	return items, nil
}

// Wrap attaches the row and column to an error raised while reading a
// nested value of the record.
func (f Fields) Wrap(name string, err error) error {
	if err == nil {
		return nil
	}
	return f.fail(name, err)
}

// FormatIDList is the inverse of Fields.IDList.
func FormatIDList(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, IDListSeparator)
}

// FormatFloat renders v in the shortest form that parses back exactly.
// Zero is written as an empty cell.
func FormatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatOptTime renders t in canonical form, "" for nil.
func FormatOptTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return structured.FormatTime(*t)
}

// FormatOptInt renders v, with zero as an empty cell.
func FormatOptInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
