// Package structured encodes and decodes the nested JSON format.
//
// It serves two purposes: whole-record files (a top-level array of objects,
// one per record) and sub-collections packed into a single tabular cell
// (see [EncodeCell] and [DecodeCell]). Both use the same object shape.
//
// Decoding is schema-driven through [Reader], which tracks the path of every
// value it reads. Type mismatches and missing required keys are reported as
// [*FieldError] with a path such as "[3].measurements[1].value".
//
// Timestamps have one canonical form, RFC 3339 in UTC (see [FormatTime]).
package structured
