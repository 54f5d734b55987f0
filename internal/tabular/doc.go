// Package tabular encodes and decodes the delimited text format used for
// spreadsheet-friendly import and export.
//
// # Grammar
//
// A file is a sequence of records separated by LF (CRLF is accepted). The
// first non-blank record is the header and fixes the column order; every
// following record must carry exactly as many fields.
//
// Fields are separated by the separator (comma by default). A double quote
// toggles quoted mode anywhere in a field, and inside quoted mode a doubled
// quote ("") is a literal quote. Newlines and separators inside quoted mode
// are part of the value, so cells may span lines.
//
// # Decoding
//
// Decoding runs in two passes. The first pass splits the input into records,
// tracking quoted mode so that embedded newlines do not end a record. The
// second pass splits each record into fields and decodes quotes. Errors carry
// the 1-based record number (the header is record 1):
//
//   - [ErrNoHeader] for an input with no records at all
//   - [*SyntaxError] for an unterminated quoted field
//   - [*FieldCountError] when a record's width differs from the header
//
// A decode call either returns every record or none.
//
// # Encoding
//
// The encoder writes the header from an explicit column list, then one line
// per row. A value is quoted, with inner quotes doubled, only when it contains
// the separator, a quote, or a line break.
package tabular
