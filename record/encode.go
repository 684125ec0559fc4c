package record

import (
	"io"
	"reflect"
	"strconv"

	"github.com/pkg/errors"

	"github.com/fluentcsv/fluentcsv"
)

// FileEncoder is the depth-0 container: one open Writer. Rows are opened
// one at a time and must be closed before the next is opened, matching
// Writer's own WriteField/CloseRow discipline.
type FileEncoder struct {
	w *fluentcsv.Writer
}

// NewFileEncoder wraps an already-constructed Writer for container-style,
// row-at-a-time encoding.
func NewFileEncoder(w *fluentcsv.Writer) *FileEncoder { return &FileEncoder{w: w} }

// NewRow opens the depth-1 container for the next row. Unlike the decoder
// side, the encoder assembles a row's fields into a buffer and only
// touches the Writer when the row is closed (the "+assembled" encode-side
// buffering strategy), so a field assigned to the wrong index can still be
// corrected before Close.
func (f *FileEncoder) NewRow() *RowEncoder {
	return &RowEncoder{w: f.w}
}

// RowEncoder is the depth-1 container: one row under assembly.
type RowEncoder struct {
	w      *fluentcsv.Writer
	fields []string
}

// Field returns the depth-2 container that appends one field to the row,
// in call order. For out-of-order assembly, use FieldAt instead.
func (row *RowEncoder) Field() *FieldEncoder {
	return row.FieldAt(len(row.fields))
}

// FieldAt returns the depth-2 container for column index i, growing the
// row's field slice with empty placeholders if i is beyond it. Fields may
// be set in any order; since row.fields is always addressed by column
// index, the row comes out in column order regardless of call order —
// the "assembled" encode-side buffering strategy holding every field
// until Close, then emitting in column-index order.
func (row *RowEncoder) FieldAt(i int) *FieldEncoder {
	if i < 0 {
		return &FieldEncoder{err: errRowOutOfRange(i)}
	}
	for len(row.fields) <= i {
		row.fields = append(row.fields, "")
	}
	return &FieldEncoder{row: row, index: i}
}

// Close flushes the assembled row through the underlying Writer.
func (row *RowEncoder) Close() error {
	return row.w.WriteRow(row.fields)
}

// FieldEncoder is the depth-2 container: one scalar field slot in an
// assembling row. Every Encode* method is terminal; requesting a further
// nested container always fails InvalidPath.
type FieldEncoder struct {
	row   *RowEncoder
	index int
	err   error
}

// Field deliberately violates the depth bound, for symmetry with Decoder's
// Field method: it always returns a deferred-invalid container.
func (f *FieldEncoder) Field() *FieldEncoder { return &FieldEncoder{err: errTooDeep()} }

func (f *FieldEncoder) set(s string) error {
	if f.err != nil {
		return f.err
	}
	f.row.fields[f.index] = s
	return nil
}

// EncodeString writes s verbatim.
func (f *FieldEncoder) EncodeString(s string) error { return f.set(s) }

// EncodeInt writes n in base 10.
func (f *FieldEncoder) EncodeInt(n int64) error { return f.set(strconv.FormatInt(n, 10)) }

// EncodeFloat writes n per strconv.FormatFloat with the 'g' verb.
func (f *FieldEncoder) EncodeFloat(n float64) error { return f.set(strconv.FormatFloat(n, 'g', -1, 64)) }

// EncodeBool writes "true" or "false".
func (f *FieldEncoder) EncodeBool(b bool) error { return f.set(strconv.FormatBool(b)) }

// Marshal writes every element of in (a slice of structs) to w, writing a
// header row first (built from struct tags, falling back to field names —
// the "static Headers" case from the Writer's own configuration surface;
// Marshal always supplies one, since without it a name-keyed round trip
// through Unmarshal would be impossible). w must not already have written
// a row of its own (e.g. a static header from WithHeaders): Marshal's
// struct-tag header and a pre-configured Writer header cannot both be
// emitted without producing two header rows, so the combination is
// rejected rather than guessed at.
func Marshal(w *fluentcsv.Writer, in any) error {
	if w.HasWrittenRows() {
		return fluentcsv.NewError(fluentcsv.InvalidOperation, "Marshal",
			errors.New("writer has already written a row (e.g. a static header from WithHeaders); "+
				"Marshal writes its own struct-tag header and cannot be combined with one"), nil)
	}

	sliceVal := reflect.ValueOf(in)
	if sliceVal.Kind() != reflect.Slice {
		return fluentcsv.NewError(fluentcsv.InvalidOperation, "Marshal",
			errors.New("in must be a slice of structs"), nil)
	}
	elemType := sliceVal.Type().Elem()
	if elemType.Kind() != reflect.Struct {
		return fluentcsv.NewError(fluentcsv.InvalidOperation, "Marshal",
			errors.New("slice element type must be a struct"), nil)
	}
	fields := structTagFields(elemType)

	headers := make([]string, len(fields))
	for i, tf := range fields {
		headers[i] = tf.name
	}
	if err := w.WriteRow(headers); err != nil {
		return err
	}

	enc := NewFileEncoder(w)
	for i := 0; i < sliceVal.Len(); i++ {
		elem := sliceVal.Index(i)
		row := enc.NewRow()
		for _, tf := range fields {
			if err := row.Field().EncodeString(formatValue(elem.FieldByIndex(tf.index))); err != nil {
				return err
			}
		}
		if err := row.Close(); err != nil {
			return err
		}
	}
	return nil
}

// MarshalAll is a convenience wrapper that builds a Writer over w with
// opts, encodes in, then ends the Writer. Do not pass fluentcsv.WithHeaders
// in opts: Marshal supplies its own struct-tag header and rejects a writer
// that already wrote one.
func MarshalAll(w io.Writer, in any, opts ...fluentcsv.Option) error {
	writer, err := fluentcsv.NewWriter(w, opts...)
	if err != nil {
		return err
	}
	if err := Marshal(writer, in); err != nil {
		writer.End()
		return err
	}
	return writer.End()
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return ""
	}
}
