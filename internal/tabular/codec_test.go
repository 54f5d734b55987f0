package tabular

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// ----------------------------------------------------------------------------
// Decode Tests
// ----------------------------------------------------------------------------

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantHeader []string
		wantRows   [][]string
		wantNums   []int
	}{
		{
			name:       "simple",
			input:      "ID,Title\n1,Run\n2,Walk\n",
			wantHeader: []string{"ID", "Title"},
			wantRows:   [][]string{{"1", "Run"}, {"2", "Walk"}},
			wantNums:   []int{2, 3},
		},
		{
			name:       "missing trailing newline keeps last record",
			input:      "ID,Title\n1,Run",
			wantHeader: []string{"ID", "Title"},
			wantRows:   [][]string{{"1", "Run"}},
			wantNums:   []int{2},
		},
		{
			name:       "empty trailing line adds no record",
			input:      "ID,Title\n1,Run\n\n",
			wantHeader: []string{"ID", "Title"},
			wantRows:   [][]string{{"1", "Run"}},
			wantNums:   []int{2},
		},
		{
			name:       "interior blank line keeps source numbering",
			input:      "A,B\n1,2\n\n3,4\n",
			wantHeader: []string{"A", "B"},
			wantRows:   [][]string{{"1", "2"}, {"3", "4"}},
			wantNums:   []int{2, 4},
		},
		{
			name:       "crlf line endings",
			input:      "ID,Title\r\n1,Run\r\n",
			wantHeader: []string{"ID", "Title"},
			wantRows:   [][]string{{"1", "Run"}},
			wantNums:   []int{2},
		},
		{
			name:       "quoted separator",
			input:      "ID,Title\n1,\"Run, then stretch\"\n",
			wantHeader: []string{"ID", "Title"},
			wantRows:   [][]string{{"1", "Run, then stretch"}},
			wantNums:   []int{2},
		},
		{
			name:       "doubled quote is literal",
			input:      "ID,Title\n1,\"The \"\"long\"\" run\"\n",
			wantHeader: []string{"ID", "Title"},
			wantRows:   [][]string{{"1", `The "long" run`}},
			wantNums:   []int{2},
		},
		{
			name:       "multi-line quoted cell",
			input:      "ID,Notes\n1,\"line one\nline two\"\n2,x\n",
			wantHeader: []string{"ID", "Notes"},
			wantRows:   [][]string{{"1", "line one\nline two"}, {"2", "x"}},
			wantNums:   []int{2, 3},
		},
		{
			name:       "empty quoted field",
			input:      "A,B\n\"\",x\n",
			wantHeader: []string{"A", "B"},
			wantRows:   [][]string{{"", "x"}},
			wantNums:   []int{2},
		},
		{
			name:       "header only",
			input:      "A,B\n",
			wantHeader: []string{"A", "B"},
			wantRows:   [][]string{},
			wantNums:   []int{},
		},
		{
			name:       "utf8 bom stripped",
			input:      "\ufeffA,B\n1,2\n",
			wantHeader: []string{"A", "B"},
			wantRows:   [][]string{{"1", "2"}},
			wantNums:   []int{2},
		},
		{
			name:       "non-ascii text",
			input:      "A,B\nCafé,日本語\n",
			wantHeader: []string{"A", "B"},
			wantRows:   [][]string{{"Café", "日本語"}},
			wantNums:   []int{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := DecodeString(tt.input)
			if err != nil {
				t.Fatalf("DecodeString() error = %v", err)
			}
			if !reflect.DeepEqual(table.Header, tt.wantHeader) {
				t.Errorf("Header = %q, want %q", table.Header, tt.wantHeader)
			}
			if len(table.Rows) != len(tt.wantRows) {
				t.Fatalf("len(Rows) = %d, want %d", len(table.Rows), len(tt.wantRows))
			}
			for i, row := range table.Rows {
				if !reflect.DeepEqual(row.Fields, tt.wantRows[i]) {
					t.Errorf("Rows[%d] = %q, want %q", i, row.Fields, tt.wantRows[i])
				}
				if row.Number != tt.wantNums[i] {
					t.Errorf("Rows[%d].Number = %d, want %d", i, row.Number, tt.wantNums[i])
				}
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := DecodeString("")
		if !errors.Is(err, ErrNoHeader) {
			t.Errorf("error = %v, want ErrNoHeader", err)
		}
	})

	t.Run("field count mismatch", func(t *testing.T) {
		table, err := DecodeString("A,B\n1,2\n3\n4,5\n")
		if table != nil {
			t.Errorf("table = %v, want nil", table)
		}
		var fcErr *FieldCountError
		if !errors.As(err, &fcErr) {
			t.Fatalf("error = %v, want *FieldCountError", err)
		}
		if fcErr.Row != 3 || fcErr.Expected != 2 || fcErr.Actual != 1 {
			t.Errorf("FieldCountError = %+v, want row 3 expected 2 actual 1", fcErr)
		}
		if !strings.Contains(err.Error(), "row 3") {
			t.Errorf("message %q should name the row", err.Error())
		}
	})

	t.Run("unterminated quoted field", func(t *testing.T) {
		_, err := DecodeString("A,B\n1,\"open\n")
		var synErr *SyntaxError
		if !errors.As(err, &synErr) {
			t.Fatalf("error = %v, want *SyntaxError", err)
		}
		if synErr.Row != 2 {
			t.Errorf("Row = %d, want 2", synErr.Row)
		}
		if !strings.Contains(synErr.Msg, "unterminated quoted field") {
			t.Errorf("Msg = %q", synErr.Msg)
		}
	})

	t.Run("duplicate header column", func(t *testing.T) {
		var synErr *SyntaxError
		if _, err := DecodeString("A,A\n1,2\n"); !errors.As(err, &synErr) {
			t.Errorf("error = %v, want *SyntaxError", err)
		}
	})

	t.Run("quote separator rejected", func(t *testing.T) {
		if _, err := (Codec{Separator: '"'}).Decode(strings.NewReader("A\n")); err == nil {
			t.Error("expected error for quote separator")
		}
	})
}

// ----------------------------------------------------------------------------
// Encode Tests
// ----------------------------------------------------------------------------

func TestQuoteField(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"with spaces", "with spaces"},
		{"", ""},
		{"Run, then stretch", `"Run, then stretch"`},
		{`with"quotes`, `"with""quotes"`},
		{"two\nlines", "\"two\nlines\""},
		{"carriage\rreturn", "\"carriage\rreturn\""},
		{"Café", "Café"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := QuoteField(tt.input, DefaultSeparator); got != tt.want {
				t.Errorf("QuoteField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, []string{"ID", "Title"}, [][]string{
		{"1", "Morning run"},
		{"2", "Run, then stretch"},
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := "ID,Title\n1,Morning run\n2,\"Run, then stretch\"\n"
	if buf.String() != want {
		t.Errorf("Encode() = %q, want %q", buf.String(), want)
	}
}

func TestEncode_WidthMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []string{"A", "B"}, [][]string{{"1"}}); err == nil {
		t.Error("expected error for short row")
	}
}

func TestRoundTrip(t *testing.T) {
	columns := []string{"ID", "Title", "Notes"}
	rows := [][]string{
		{"1", "Run, then stretch", `She said "go"`},
		{"2", "multi\nline\r\nvalue", ""},
		{"3", "Ünïcödé ✓", "tab\tseparated"},
		{"4", "", ""},
		{"5", `"`, `""`},
	}

	for _, sep := range []rune{',', ';', '\t'} {
		codec := Codec{Separator: sep}
		var buf bytes.Buffer
		if err := codec.Encode(&buf, columns, rows); err != nil {
			t.Fatalf("Encode(sep=%q) error = %v", sep, err)
		}

		table, err := codec.Decode(&buf)
		if err != nil {
			t.Fatalf("Decode(sep=%q) error = %v", sep, err)
		}
		if !reflect.DeepEqual(table.Header, columns) {
			t.Errorf("sep=%q Header = %q, want %q", sep, table.Header, columns)
		}
		if len(table.Rows) != len(rows) {
			t.Fatalf("sep=%q len(Rows) = %d, want %d", sep, len(table.Rows), len(rows))
		}
		for i, row := range table.Rows {
			if !reflect.DeepEqual(row.Fields, rows[i]) {
				t.Errorf("sep=%q Rows[%d] = %q, want %q", sep, i, row.Fields, rows[i])
			}
		}
	}
}

func TestRoundTrip_SingleEmptyColumn(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []string{"Notes"}, [][]string{{""}, {"x"}}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	table, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(table.Rows) != 2 || table.Rows[0].Fields[0] != "" || table.Rows[1].Fields[0] != "x" {
		t.Errorf("Rows = %+v, want [\"\"] and [\"x\"]", table.Rows)
	}
}

// An unquoted value holding the separator is a producer bug: it re-imports
// as an extra field.
func TestUnquotedSeparatorMisSplits(t *testing.T) {
	_, err := DecodeString("ID,Title\n1,Run, then stretch\n")
	var fcErr *FieldCountError
	if !errors.As(err, &fcErr) {
		t.Fatalf("error = %v, want *FieldCountError", err)
	}
	if fcErr.Actual != 3 {
		t.Errorf("Actual = %d, want 3", fcErr.Actual)
	}
}

func TestTableMap(t *testing.T) {
	table, err := DecodeString("ID,Title\n1,Run\n")
	if err != nil {
		t.Fatalf("DecodeString() error = %v", err)
	}
	got := table.Map(table.Rows[0])
	want := map[string]string{"ID": "1", "Title": "Run"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %v, want %v", got, want)
	}
}
