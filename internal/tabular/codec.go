package tabular

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultSeparator is the field separator used when none is configured.
const DefaultSeparator = ','

const quote = '"'

// Row is one decoded data record.
type Row struct {
	Number int // 1-based record position in the source; the header is 1
	Fields []string
}

// Table is a fully decoded input.
type Table struct {
	Header []string
	Rows   []Row
}

// Map returns the row's values keyed by header column name.
func (t *Table) Map(row Row) map[string]string {
	values := make(map[string]string, len(t.Header))
	for i, col := range t.Header {
		if i < len(row.Fields) {
			values[col] = row.Fields[i]
		}
	}
	return values
}

// Codec decodes and encodes tabular text with a given separator.
// The zero value uses DefaultSeparator.
type Codec struct {
	Separator rune
}

func (c Codec) separator() rune {
	if c.Separator == 0 {
		return DefaultSeparator
	}
	return c.Separator
}

// Decode reads the whole input and decodes it with the default separator.
func Decode(r io.Reader) (*Table, error) {
	return Codec{}.Decode(r)
}

// DecodeString decodes s with the default separator.
func DecodeString(s string) (*Table, error) {
	return Codec{}.Decode(strings.NewReader(s))
}

// Encode writes columns and rows with the default separator.
func Encode(w io.Writer, columns []string, rows [][]string) error {
	return Codec{}.Encode(w, columns, rows)
}

// Decode reads r to the end and decodes every record. On any format error no
// rows are returned.
func (c Codec) Decode(r io.Reader) (*Table, error) {
	sep := c.separator()
	if sep == quote || sep == '\n' || sep == '\r' {
		return nil, fmt.Errorf("invalid separator %q", sep)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tabular source: %w", err)
	}

	records := splitRecords(string(sanitize(data)))
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	header, err := splitFields(records[0], sep)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if seen[name] {
			return nil, &SyntaxError{Row: records[0].row, Msg: fmt.Sprintf("duplicate column %q", name)}
		}
		seen[name] = true
		header[i] = name
	}

	table := &Table{Header: header, Rows: make([]Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		fields, err := splitFields(rec, sep)
		if err != nil {
			return nil, err
		}
		if len(fields) != len(header) {
			return nil, &FieldCountError{Row: rec.row, Expected: len(header), Actual: len(fields)}
		}
		table.Rows = append(table.Rows, Row{Number: rec.row, Fields: fields})
	}

	return table, nil
}

// rawRecord is one record's undecoded text, without its line terminator.
type rawRecord struct {
	row  int
	text string
}

// splitRecords is the first decoding pass. A newline ends a record only
// outside quoted mode. Blank records are dropped but still counted, so row
// numbers keep matching source positions.
func splitRecords(input string) []rawRecord {
	var records []rawRecord
	inQuotes := false
	start := 0
	row := 0

	emit := func(end int) {
		row++
		text := strings.TrimSuffix(input[start:end], "\r")
		if text != "" {
			records = append(records, rawRecord{row: row, text: text})
		}
	}

	for i := 0; i < len(input); i++ {
		switch input[i] {
		case quote:
			if inQuotes && i+1 < len(input) && input[i+1] == quote {
				i++
				continue
			}
			inQuotes = !inQuotes
		case '\n':
			if inQuotes {
				continue
			}
			emit(i)
			start = i + 1
		}
	}

	// No trailing newline: the remainder is still a record.
	if start < len(input) {
		emit(len(input))
	}

	return records
}

// splitFields is the second decoding pass over a single record.
func splitFields(rec rawRecord, sep rune) ([]string, error) {
	var fields []string
	var b strings.Builder
	inQuotes := false
	text := rec.text

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case r == quote:
			if inQuotes && i+1 < len(text) && text[i+1] == quote {
				b.WriteRune(quote)
				i += 2
				continue
			}
			inQuotes = !inQuotes
		case r == sep && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteString(text[i : i+size])
		}
		i += size
	}

	if inQuotes {
		return nil, &SyntaxError{Row: rec.row, Msg: "unterminated quoted field"}
	}

	return append(fields, b.String()), nil
}

// Encode writes the header and rows. Every row must be as wide as columns.
func (c Codec) Encode(w io.Writer, columns []string, rows [][]string) error {
	if len(columns) == 0 {
		return fmt.Errorf("encode: no columns")
	}
	sep := c.separator()
	bw := bufio.NewWriter(w)

	if err := writeRecord(bw, columns, sep); err != nil {
		return err
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("encode row %d: expected %d fields, got %d", i+1, len(columns), len(row))
		}
		if err := writeRecord(bw, row, sep); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeRecord(w *bufio.Writer, fields []string, sep rune) error {
	// A lone empty field would encode as a blank line, which decoding skips.
	if len(fields) == 1 && fields[0] == "" {
		_, err := w.WriteString(`""` + "\n")
		return err
	}

	for i, field := range fields {
		if i > 0 {
			w.WriteRune(sep)
		}
		w.WriteString(QuoteField(field, sep))
	}
	_, err := w.WriteString("\n")
	return err
}

// NeedsQuoting reports whether value must be quoted to survive decoding.
func NeedsQuoting(value string, sep rune) bool {
	return strings.ContainsRune(value, sep) || strings.ContainsAny(value, "\"\r\n")
}

// QuoteField returns value as it is written to a record: quoted with inner
// quotes doubled when NeedsQuoting, unchanged otherwise.
func QuoteField(value string, sep rune) string {
	if !NeedsQuoting(value, sep) {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
