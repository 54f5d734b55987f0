package structured

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldError reports a value that could not be read at Path.
type FieldError struct {
	Path   string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

// FormatTime renders t in the canonical timestamp form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime accepts RFC 3339 with any offset and normalizes to UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: want RFC 3339", s)
	}
	return t.UTC(), nil
}

// Reader gives typed, path-aware access to one decoded object.
type Reader struct {
	path   string
	fields map[string]json.RawMessage
}

// Path is the location of the object in its document, e.g. "[2]".
func (r *Reader) Path() string { return r.path }

// Has reports whether key is present and not null.
func (r *Reader) Has(key string) bool {
	raw, ok := r.fields[key]
	return ok && !isNull(raw)
}

// Decode reads a top-level JSON array of objects.
func Decode(src io.Reader) ([]*Reader, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read structured source: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	return decodeArray(data, "")
}

// DecodeCell reads a tabular cell produced by EncodeCell. path names the cell
// for error reporting. An empty cell holds no objects.
func DecodeCell(s, path string) ([]*Reader, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return decodeArray([]byte(s), path)
}

func decodeArray(data []byte, path string) ([]*Reader, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &FieldError{Path: path, Reason: "expected an array of objects: " + jsonReason(err)}
	}
	readers := make([]*Reader, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			return nil, &FieldError{Path: itemPath, Reason: "expected an object"}
		}
		readers = append(readers, &Reader{path: itemPath, fields: fields})
	}
	return readers, nil
}

func (r *Reader) keyPath(key string) string {
	if r.path == "" {
		return key
	}
	return r.path + "." + key
}

func (r *Reader) fail(key, format string, args ...any) error {
	return &FieldError{Path: r.keyPath(key), Reason: fmt.Sprintf(format, args...)}
}

func (r *Reader) raw(key string, required bool) (json.RawMessage, bool, error) {
	raw, ok := r.fields[key]
	if !ok || isNull(raw) {
		if required {
			return nil, false, r.fail(key, "required")
		}
		return nil, false, nil
	}
	return raw, true, nil
}

// String reads a required string.
func (r *Reader) String(key string) (string, error) {
	raw, _, err := r.raw(key, true)
	if err != nil {
		return "", err
	}
	return r.decodeString(key, raw)
}

// OptString reads an optional string; missing or null gives "".
func (r *Reader) OptString(key string) (string, error) {
	raw, ok, _ := r.raw(key, false)
	if !ok {
		return "", nil
	}
	return r.decodeString(key, raw)
}

func (r *Reader) decodeString(key string, raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", r.fail(key, "expected a string")
	}
	return s, nil
}

// Time reads a required RFC 3339 timestamp.
func (r *Reader) Time(key string) (time.Time, error) {
	s, err := r.String(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, r.fail(key, "%v", err)
	}
	return t, nil
}

// OptTime reads an optional timestamp; missing, null or "" gives nil.
func (r *Reader) OptTime(key string) (*time.Time, error) {
	s, err := r.OptString(key)
	if err != nil || s == "" {
		return nil, err
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil, r.fail(key, "%v", err)
	}
	return &t, nil
}

// Float reads a required finite number.
func (r *Reader) Float(key string) (float64, error) {
	raw, _, err := r.raw(key, true)
	if err != nil {
		return 0, err
	}
	return r.decodeFloat(key, raw)
}

// OptFloat reads an optional number; missing or null gives 0.
func (r *Reader) OptFloat(key string) (float64, error) {
	raw, ok, _ := r.raw(key, false)
	if !ok {
		return 0, nil
	}
	return r.decodeFloat(key, raw)
}

func (r *Reader) decodeFloat(key string, raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, r.fail(key, "expected a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, r.fail(key, "must be finite")
	}
	return f, nil
}

// Int reads a required integer.
func (r *Reader) Int(key string) (int, error) {
	raw, _, err := r.raw(key, true)
	if err != nil {
		return 0, err
	}
	return r.decodeInt(key, raw)
}

// OptInt reads an optional integer; missing or null gives 0.
func (r *Reader) OptInt(key string) (int, error) {
	raw, ok, _ := r.raw(key, false)
	if !ok {
		return 0, nil
	}
	return r.decodeInt(key, raw)
}

func (r *Reader) decodeInt(key string, raw json.RawMessage) (int, error) {
	n, err := strconv.Atoi(string(bytes.TrimSpace(raw)))
	if err != nil {
		return 0, r.fail(key, "expected an integer")
	}
	return n, nil
}

// OptUUID reads an optional identifier; missing, null or "" gives uuid.Nil.
func (r *Reader) OptUUID(key string) (uuid.UUID, error) {
	s, err := r.OptString(key)
	if err != nil || s == "" {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, r.fail(key, "invalid identifier %q", s)
	}
	return id, nil
}

// UUIDList reads an optional array of identifier strings.
func (r *Reader) UUIDList(key string) ([]uuid.UUID, error) {
	raw, ok, _ := r.raw(key, false)
	if !ok {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, r.fail(key, "expected an array of identifier strings")
	}
	if len(items) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(items))
	for i, s := range items {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, &FieldError{
				Path:   fmt.Sprintf("%s[%d]", r.keyPath(key), i),
				Reason: fmt.Sprintf("invalid identifier %q", s),
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Objects reads an optional nested array of objects.
func (r *Reader) Objects(key string) ([]*Reader, error) {
	raw, ok, _ := r.raw(key, false)
	if !ok {
		return nil, nil
	}
	return decodeArray(raw, r.keyPath(key))
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func jsonReason(err error) string {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return fmt.Sprintf("invalid JSON at offset %d", syn.Offset)
	}
	return err.Error()
}
