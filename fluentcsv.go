// # fluentcsv: a configurable streaming CSV reader and writer for Go
//
// fluentcsv parses and emits delimiter-separated text built around
// scalar (rune) sequences rather than single bytes, so field and row
// delimiters may each be more than one code point wide; the escape scalar
// and each trim-set member are single code points. It supports ASCII, UTF-8, UTF-16 (BE/LE), and UTF-32
// (BE/LE) input and output, with byte-order-mark detection and merge
// rules for the endianness-agnostic encoding families.
//
// # Features
//
//   - Streaming Reader with configurable delimiters, escape handling, trim
//     sets, header discovery, and BOM-driven encoding inference.
//   - Buffered Writer with the matching configuration surface, including
//     the bracketed-empty-field mandate and bounded retried writes.
//   - A record-oriented view (Record, Reader.ReadRecord) for header-keyed
//     field access, and a range-over-func iterator (Reader.Rows) for
//     simple loops.
//   - A reflection-based struct-tag adapter, fluentcsv/record, for
//     Marshal/Unmarshal against Go values.
//   - A single tagged Error type (Kind, Op, Context, Underlying) usable
//     with errors.Is/As across the whole module.
//
// # Getting Started
//
// The module path is github.com/fluentcsv/fluentcsv. NewReader and
// NewWriter build the core types from an io.Reader/io.Writer; NewReaderFile
// and NewWriterFile build them from a path.
package fluentcsv
