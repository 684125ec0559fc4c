package fluentcsv

import (
	"strings"

	"github.com/pkg/errors"
)

// Writer emits rows to a byteSink, mirroring Reader's one-way, error-sticky
// lifecycle: a row that fails to flush (field-count mismatch, encoding or
// sink failure) latches the writer closed, as does End, and every further
// write call reports invalidOperation. End is the exception: after a failure
// it still closes the sink.
type Writer struct {
	cfg *Config
	enc Encoding
	sink *byteSink

	closed bool
	ended  bool

	pending []string
	rowOpen bool

	expectedFields int
}

// newWriter opens sink, resolving any endianness-agnostic encoding family
// to a concrete member (Writer, unlike Reader, has no BOM to merge against,
// so it must pick one outright), emitting a BOM per cfg.BOM, then writing a
// static header row if cfg.Headers was set via WithHeaders.
func newWriter(sink *byteSink, cfg *Config) (*Writer, error) {
	enc := cfg.Encoding
	switch enc {
	case EncodingNone:
		enc = EncodingUTF8
	case EncodingUTF16, EncodingUnicode:
		enc = EncodingUTF16LE
	case EncodingUTF32:
		enc = EncodingUTF32LE
	}

	w := &Writer{cfg: cfg, enc: enc, sink: sink}

	if bom := bomFor(cfg.BOM, enc); bom != nil {
		if err := sink.write(bom); err != nil {
			return nil, err
		}
	}

	if len(cfg.Headers) > 0 {
		if err := w.WriteRow(cfg.Headers); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// HasWrittenRows reports whether any row (including a static header row
// emitted from WithHeaders at construction) has already been flushed to
// the sink.
func (w *Writer) HasWrittenRows() bool { return w.expectedFields != 0 }

// bomFor reports the BOM bytes newWriter should emit for enc under
// strategy, or nil to emit nothing.
func bomFor(strategy BOMStrategy, enc Encoding) []byte {
	switch strategy {
	case BOMAlways:
		return bomBytesFor(enc)
	case BOMConvention:
		switch enc {
		case EncodingUTF16BE, EncodingUTF16LE, EncodingUTF32BE, EncodingUTF32LE:
			return bomBytesFor(enc)
		}
		return nil
	default:
		return nil
	}
}

func bomBytesFor(enc Encoding) []byte {
	for _, e := range bomTable {
		if e.enc == enc {
			return append([]byte{}, e.bytes...)
		}
	}
	return nil
}

var errWriteAfterEnd = errors.New("write after End")

// WriteField appends one field to the row under construction. The row is
// not emitted until CloseRow (or End) closes it, and WriteRow fails while
// it is open; this lets the bracketed-empty-field rule be
// decided once the full row — and in particular whether it has exactly one
// field — is known.
func (w *Writer) WriteField(field string) error {
	if w.closed {
		return newError(InvalidOperation, "WriteField", errWriteAfterEnd, nil)
	}
	if w.expectedFields != 0 && len(w.pending) >= w.expectedFields {
		return newError(InvalidOperation, "WriteField", errors.New("too many fields for this row"), nil)
	}
	w.pending = append(w.pending, field)
	w.rowOpen = true
	return nil
}

// CloseRow emits the row accumulated by WriteField. A row with zero fields
// is only valid once an expected field count is already established, in
// which case it is padded to that width; otherwise it is invalidOperation.
func (w *Writer) CloseRow() error {
	if w.closed {
		return newError(InvalidOperation, "CloseRow", errWriteAfterEnd, nil)
	}
	if !w.rowOpen {
		if w.expectedFields == 0 {
			return newError(InvalidOperation, "CloseRow", errors.New("empty row without a known field count"), nil)
		}
		w.pending = make([]string, w.expectedFields)
	}
	row := w.pending
	w.pending = nil
	w.rowOpen = false
	return w.flushRow(row)
}

// WriteRow emits row as a whole. It requires any row opened via WriteField
// to have already been closed.
func (w *Writer) WriteRow(row []string) error {
	if w.closed {
		return newError(InvalidOperation, "WriteRow", errWriteAfterEnd, nil)
	}
	if w.rowOpen {
		return newError(InvalidOperation, "WriteRow", errors.New("previous row opened via WriteField is not closed"), nil)
	}
	return w.flushRow(row)
}

// flushRow enforces the field-count invariant, escapes and encodes each
// field, and writes the assembled row plus its row delimiter.
func (w *Writer) flushRow(row []string) error {
	if w.expectedFields != 0 && len(row) != w.expectedFields {
		err := newError(InvalidOperation, "flushRow", errors.Errorf("row has %d fields, want %d", len(row), w.expectedFields), nil)
		w.closed = true
		return err
	}

	var line strings.Builder
	for i, f := range row {
		if i > 0 {
			line.WriteString(string(w.cfg.FieldDelimiter))
		}
		line.WriteString(w.encodeField(f, len(row) == 1))
	}
	line.WriteString(string(w.cfg.RowDelimiter))

	encoded, err := encodeText(w.enc, line.String())
	if err != nil {
		w.closed = true
		return err
	}
	if err := w.sink.write(encoded); err != nil {
		w.closed = true
		return err
	}

	if w.expectedFields == 0 {
		w.expectedFields = len(row)
	}
	return nil
}

// encodeField applies the escaping rule: a field is wrapped in the escape
// scalar, with internal occurrences of it doubled, whenever it contains the
// escape scalar or any scalar belonging to either delimiter. The sole
// exception is the bracketed-empty-field mandate: an empty field that is
// the only field in its row is always emitted as a doubled empty escape,
// so that no written row is ever a zero-length line.
func (w *Writer) encodeField(field string, soleFieldOfRow bool) string {
	if soleFieldOfRow && field == "" && w.cfg.HasEscape {
		return string(w.cfg.Escape) + string(w.cfg.Escape)
	}
	if !w.needsEscape(field) {
		return field
	}
	return w.escapeField(field)
}

func (w *Writer) needsEscape(field string) bool {
	if !w.cfg.HasEscape {
		return false
	}
	for _, r := range field {
		if r == w.cfg.Escape {
			return true
		}
		for _, d := range w.cfg.FieldDelimiter {
			if r == d {
				return true
			}
		}
		for _, d := range w.cfg.RowDelimiter {
			if r == d {
				return true
			}
		}
	}
	return false
}

func (w *Writer) escapeField(field string) string {
	var b strings.Builder
	b.WriteRune(w.cfg.Escape)
	for _, r := range field {
		if r == w.cfg.Escape {
			b.WriteRune(w.cfg.Escape)
		}
		b.WriteRune(r)
	}
	b.WriteRune(w.cfg.Escape)
	return b.String()
}

// End closes any row still open via WriteField — padding it to the
// established field count, if one exists — then closes the underlying
// sink. If an earlier failure already latched the writer closed, End only
// closes the sink. End is idempotent: calling it again is a no-op.
func (w *Writer) End() error {
	if w.ended {
		return nil
	}
	w.ended = true
	if w.closed {
		return w.sink.close()
	}
	if w.rowOpen {
		row := w.pending
		if w.expectedFields != 0 {
			for len(row) < w.expectedFields {
				row = append(row, "")
			}
		}
		w.pending = nil
		w.rowOpen = false
		if err := w.flushRow(row); err != nil {
			w.closed = true
			w.sink.close()
			return err
		}
	}
	w.closed = true
	return w.sink.close()
}
