package record

import (
	"io"
	"reflect"
	"strconv"

	"github.com/pkg/errors"

	"github.com/fluentcsv/fluentcsv"
)

// FileDecoder is the depth-0 container: one open Reader. Rows may be
// walked in order with NextRow, or requested out of order with Row,
// subject to the configured BufferingStrategy.
type FileDecoder struct {
	r        *fluentcsv.Reader
	strategy BufferingStrategy

	nextIndex int // index the next ReadRecord call will produce

	all    []*fluentcsv.Record       // BufferingKeepAll: every row decoded so far
	buffer map[int]*fluentcsv.Record // BufferingUnrequested: skipped-but-unconsumed rows
}

// DecodeOption configures a FileDecoder at construction.
type DecodeOption func(*FileDecoder)

// WithBufferingStrategy sets the row-retention policy Row uses for
// out-of-order access. The default, when no DecodeOption is given, is
// BufferingKeepAll.
func WithBufferingStrategy(s BufferingStrategy) DecodeOption {
	return func(f *FileDecoder) { f.strategy = s }
}

// NewFileDecoder wraps an already-constructed Reader for container-style,
// row-at-a-time decoding.
func NewFileDecoder(r *fluentcsv.Reader, opts ...DecodeOption) *FileDecoder {
	f := &FileDecoder{r: r}
	for _, opt := range opts {
		opt(f)
	}
	if f.strategy == BufferingUnrequested {
		f.buffer = make(map[int]*fluentcsv.Record)
	}
	return f
}

// consumeOne pulls exactly one more row from the underlying Reader,
// advancing nextIndex, and records it in `all` under BufferingKeepAll.
// It returns (nil, nil) at clean end of input.
func (f *FileDecoder) consumeOne() (*fluentcsv.Record, error) {
	rec, err := f.r.ReadRecord()
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	f.nextIndex++
	if f.strategy == BufferingKeepAll {
		f.all = append(f.all, rec)
	}
	return rec, nil
}

// NextRow advances to the next row and returns its depth-1 container, or
// (nil, nil) at clean end of input.
func (f *FileDecoder) NextRow() (*RowDecoder, error) {
	rec, err := f.consumeOne()
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &RowDecoder{rec: rec}, nil
}

// Row requests the row at the given data-row index out of order. Whether
// this succeeds, and what it costs, depends on the configured
// BufferingStrategy:
//
//   - BufferingKeepAll: any index, forward or backward, always succeeds
//     (rows are retained forever).
//   - BufferingSequential: succeeds only for an index beyond the furthest
//     index already delivered; that index or an earlier one fails
//     invalidPath, since nothing is retained to serve it.
//   - BufferingUnrequested: a forward jump buffers the rows it skips over
//     (but not the requested row itself); requesting a buffered row later
//     consumes and frees it; requesting an already-freed row fails.
func (f *FileDecoder) Row(index int) (*RowDecoder, error) {
	if index < 0 {
		return nil, errRowOutOfRange(index)
	}

	switch f.strategy {
	case BufferingKeepAll:
		for index >= len(f.all) {
			rec, err := f.consumeOne()
			if err != nil {
				return nil, err
			}
			if rec == nil {
				return nil, errRowOutOfRange(index)
			}
		}
		return &RowDecoder{rec: f.all[index]}, nil

	case BufferingUnrequested:
		if rec, ok := f.buffer[index]; ok {
			delete(f.buffer, index)
			return &RowDecoder{rec: rec}, nil
		}
		if index < f.nextIndex {
			return nil, errRowDiscarded(index)
		}
		for f.nextIndex < index {
			skippedIndex := f.nextIndex
			rec, err := f.consumeOne()
			if err != nil {
				return nil, err
			}
			if rec == nil {
				return nil, errRowOutOfRange(index)
			}
			f.buffer[skippedIndex] = rec
		}
		rec, err := f.consumeOne()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, errRowOutOfRange(index)
		}
		return &RowDecoder{rec: rec}, nil

	default: // BufferingSequential
		if index < f.nextIndex {
			return nil, errRowDiscarded(index)
		}
		var last *fluentcsv.Record
		for f.nextIndex <= index {
			rec, err := f.consumeOne()
			if err != nil {
				return nil, err
			}
			if rec == nil {
				return nil, errRowOutOfRange(index)
			}
			last = rec
		}
		return &RowDecoder{rec: last}, nil
	}
}

// RowDecoder is the depth-1 container: one record, keyed by header name or
// position. String keys only resolve here — one level below the header
// lookup that makes them meaningful.
type RowDecoder struct {
	rec *fluentcsv.Record
}

// Field returns the depth-2 container for the named column.
func (row *RowDecoder) Field(key string) *FieldDecoder {
	v, ok := row.rec.ByName(key)
	if !ok {
		return &FieldDecoder{err: errUnknownKey(key)}
	}
	return &FieldDecoder{raw: v}
}

// FieldAt returns the depth-2 container for the field at positional index i.
func (row *RowDecoder) FieldAt(i int) *FieldDecoder {
	v, ok := row.rec.ByIndex(i)
	if !ok {
		return &FieldDecoder{err: fluentcsv.NewError(fluentcsv.InvalidPath, "FieldAt",
			errors.Errorf("index %d out of range (row has %d fields)", i, row.rec.Len()), nil)}
	}
	return &FieldDecoder{raw: v}
}

// Len reports the row's field count.
func (row *RowDecoder) Len() int { return row.rec.Len() }

// FieldDecoder is the depth-2 container: one scalar field value. Requesting
// a further nested container from it always fails with InvalidPath,
// deferred onto the returned container rather than raised immediately.
type FieldDecoder struct {
	raw string
	err error
}

// Field deliberately violates the depth bound, for symmetry with Encoder's
// Field method and to document the failure mode: it always returns a
// deferred-invalid container.
func (f *FieldDecoder) Field(string) *FieldDecoder { return &FieldDecoder{err: errTooDeep()} }

// String returns the raw field text.
func (f *FieldDecoder) String() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.raw, nil
}

// Int parses the field as a base-10 integer.
func (f *FieldDecoder) Int() (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := strconv.ParseInt(f.raw, 10, 64)
	if err != nil {
		return 0, fluentcsv.NewError(fluentcsv.InvalidInput, "FieldDecoder.Int", err, map[string]any{"value": f.raw})
	}
	return n, nil
}

// Float parses the field as a floating point number.
func (f *FieldDecoder) Float() (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := strconv.ParseFloat(f.raw, 64)
	if err != nil {
		return 0, fluentcsv.NewError(fluentcsv.InvalidInput, "FieldDecoder.Float", err, map[string]any{"value": f.raw})
	}
	return n, nil
}

// Bool parses the field per strconv.ParseBool.
func (f *FieldDecoder) Bool() (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	b, err := strconv.ParseBool(f.raw)
	if err != nil {
		return false, fluentcsv.NewError(fluentcsv.InvalidInput, "FieldDecoder.Bool", err, map[string]any{"value": f.raw})
	}
	return b, nil
}

// Unmarshal reads every remaining row from r into *out, which must be a
// pointer to a slice of structs. Struct fields are matched to columns by
// their `csv:"name"` tag, falling back to the Go field name; an unmatched
// column is ignored, and an unmatched struct field is left at its zero
// value.
func Unmarshal(r *fluentcsv.Reader, out any) error {
	slicePtr := reflect.ValueOf(out)
	if slicePtr.Kind() != reflect.Ptr || slicePtr.Elem().Kind() != reflect.Slice {
		return fluentcsv.NewError(fluentcsv.InvalidOperation, "Unmarshal",
			errors.New("out must be a pointer to a slice of structs"), nil)
	}
	sliceVal := slicePtr.Elem()
	elemType := sliceVal.Type().Elem()
	if elemType.Kind() != reflect.Struct {
		return fluentcsv.NewError(fluentcsv.InvalidOperation, "Unmarshal",
			errors.New("slice element type must be a struct"), nil)
	}
	fields := structTagFields(elemType)

	dec := NewFileDecoder(r)
	for {
		row, err := dec.NextRow()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		elem := reflect.New(elemType).Elem()
		for _, tf := range fields {
			fv := row.Field(tf.name)
			raw, err := fv.String()
			if err != nil {
				if fluentcsv.IsKind(err, fluentcsv.InvalidPath) {
					continue // column absent from this header: leave the zero value
				}
				return err
			}
			if err := assignString(elem.FieldByIndex(tf.index), raw); err != nil {
				return err
			}
		}
		sliceVal.Set(reflect.Append(sliceVal, elem))
	}
	return nil
}

// UnmarshalAll is a convenience wrapper that builds a Reader over r with
// opts (always selecting HeaderFirstLine, since name-keyed field mapping
// requires a header), decodes into out, then closes the Reader.
func UnmarshalAll(r io.Reader, out any, opts ...fluentcsv.Option) error {
	opts = append(opts, fluentcsv.WithHeaderStrategy(fluentcsv.HeaderStrategyFirstLine()))
	reader, err := fluentcsv.NewReader(r, opts...)
	if err != nil {
		return err
	}
	defer reader.Close()
	return Unmarshal(reader, out)
}

func assignString(dst reflect.Value, raw string) error {
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fluentcsv.NewError(fluentcsv.InvalidInput, "assignString", err, map[string]any{"value": raw})
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fluentcsv.NewError(fluentcsv.InvalidInput, "assignString", err, map[string]any{"value": raw})
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fluentcsv.NewError(fluentcsv.InvalidInput, "assignString", err, map[string]any{"value": raw})
		}
		dst.SetFloat(n)
	case reflect.Bool:
		if raw == "" {
			return nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fluentcsv.NewError(fluentcsv.InvalidInput, "assignString", err, map[string]any{"value": raw})
		}
		dst.SetBool(b)
	default:
		return fluentcsv.NewError(fluentcsv.InvalidOperation, "assignString",
			errors.Errorf("unsupported struct field kind %s", dst.Kind()), nil)
	}
	return nil
}
