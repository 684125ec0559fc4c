package fluentcsv

import (
	"io"
)

// readerStatus mirrors the terminal status field from the data model:
// once a Reader is non-active, every further operation returns the same
// latched error.
type readerStatus int

const (
	statusActive readerStatus = iota
	statusFinished
	statusFailed
)

// Reader holds configuration, settings, counts, and status for a CSV
// input, and exposes row- and record-level access. A Reader is
// constructed once and consumed once; restart and seek are not
// supported. A Reader is not safe for concurrent use.
type Reader struct {
	cfg    *Config
	src    byteSource
	parser *parser

	status readerStatus
	err    error

	rowCount     int // count.rows: includes the header row, if any
	dataRowIndex int // row_index: data rows only, offset by header presence
	fieldCount   int // count.fields: fixed after the first parsed row

	headers      []string
	headerLookup map[string]int
	headerBuilt  bool
}

// newReader builds a Reader over src (already wrapping the chosen input
// kind) using cfg. It performs BOM detection/merge, builds the scalar
// decoder and row parser, then consumes any header rows per cfg.Header.
func newReader(src byteSource, cfg *Config) (*Reader, error) {
	enc := cfg.Encoding
	if enc == EncodingNone || enc.isFamily() {
		detected, leftover, err := detectBOM(src)
		if err != nil {
			return nil, err
		}
		merged, err := mergeEncoding(enc, detected)
		if err != nil {
			return nil, err
		}
		enc = merged
		src = newPrefixSource(leftover, src)
	}

	if cfg.Presample {
		presampled, err := presample(enc, src)
		if err != nil {
			src.close()
			return nil, err
		}
		src.close()
		src = presampled
	}

	dec, err := newScalarDecoder(enc, src)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		cfg:    cfg,
		src:    src,
		parser: newParser(dec, cfg),
	}

	if err := r.consumeHeaderRows(); err != nil {
		r.fail(err)
		return nil, err
	}
	return r, nil
}

// presample materializes src's entire remaining input into memory up
// front, then runs it through enc's scalar decoder once end to end before
// any row is parsed: a malformed sequence anywhere in the file fails
// construction instead of surfacing mid-stream from some later ReadRow.
// It returns a fresh sliceSource over the materialized bytes, ready to be
// parsed from the start; src itself is left exhausted and must be closed
// by the caller.
func presample(enc Encoding, src byteSource) (byteSource, error) {
	var buf []byte
	for {
		b, ok, err := src.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		buf = append(buf, b)
	}

	dec, err := newScalarDecoder(enc, newSliceSource(buf))
	if err != nil {
		return nil, err
	}
	for {
		_, ok, err := dec.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}

	return newSliceSource(buf), nil
}

// consumeHeaderRows implements "header handling at construction": skip
// zero or more ignore rows, then parse one header row which must be
// non-empty. The header row counts toward rowCount but not dataRowIndex.
func (r *Reader) consumeHeaderRows() error {
	switch r.cfg.Header.Kind {
	case HeaderNone:
		return nil
	case HeaderFirstLine:
		return r.readHeaderRow()
	case HeaderLineNumber:
		for i := 0; i < r.cfg.Header.Skip; i++ {
			row, err := r.parser.parseLine()
			if err != nil {
				return err
			}
			if row == nil {
				return newError(InvalidInput, "consumeHeaderRows", errNoHeaderRow, nil)
			}
			r.rowCount++
		}
		return r.readHeaderRow()
	default:
		return nil
	}
}

func (r *Reader) readHeaderRow() error {
	row, err := r.parser.parseLine()
	if err != nil {
		return err
	}
	if row == nil || len(row) == 0 {
		return ErrEmptyHeader
	}
	r.rowCount++
	r.headers = row
	r.fieldCount = len(row)
	return nil
}

// ReadRow drives the state machine once, updating counts and status. On
// failure the error is latched into status and returned on every
// subsequent call (parsing is one-way, error-sticky).
func (r *Reader) ReadRow() ([]string, error) {
	if r.status == statusFailed {
		return nil, r.err
	}
	if r.status == statusFinished {
		return nil, nil
	}

	row, err := r.parser.parseLine()
	if err != nil {
		r.fail(err)
		return nil, err
	}
	if row == nil {
		r.status = statusFinished
		return nil, nil
	}

	r.rowCount++
	r.dataRowIndex++
	if r.fieldCount == 0 {
		r.fieldCount = len(row)
	}
	return row, nil
}

func (r *Reader) fail(err error) {
	r.status = statusFailed
	r.err = err
}

// Status reports the terminal status error, or nil while active/finished.
func (r *Reader) Status() error {
	if r.status == statusFailed {
		return r.err
	}
	return nil
}

// RowIndex returns the data-row index of the most recently read row
// (offset by header presence; the header row itself is never counted).
func (r *Reader) RowIndex() int { return r.dataRowIndex }

// FieldCount returns the field count established by the first parsed row,
// or zero if no row has been parsed yet.
func (r *Reader) FieldCount() int { return r.fieldCount }

// Headers returns the header row, or nil if HeaderStrategyNone was used.
func (r *Reader) Headers() []string { return r.headers }

// Record is a random-access view over one CSV row plus its header lookup.
type Record struct {
	row    []string
	lookup map[string]int
}

// ByIndex returns the field at i and true if i is within bounds.
func (rec Record) ByIndex(i int) (string, bool) {
	if i < 0 || i >= len(rec.row) {
		return "", false
	}
	return rec.row[i], true
}

// ByName returns the field for the given header name and true if present.
func (rec Record) ByName(name string) (string, bool) {
	idx, ok := rec.lookup[name]
	if !ok {
		return "", false
	}
	return rec.ByIndex(idx)
}

// Len reports the number of fields in the record.
func (rec Record) Len() int { return len(rec.row) }

// Raw returns the underlying field slice.
func (rec Record) Raw() []string { return rec.row }

// ReadRecord wraps ReadRow and builds/caches the header-lookup table on
// first use. It fails invalidInput (ErrHashableHeader) if the header
// contains duplicate names; raw row access via ReadRow remains available
// even after that failure.
func (r *Reader) ReadRecord() (*Record, error) {
	if !r.headerBuilt {
		lookup := make(map[string]int, len(r.headers))
		for i, h := range r.headers {
			if _, dup := lookup[h]; dup {
				// Record access fails, but this must not touch r.status/r.err:
				// raw row access via ReadRow stays available after this.
				return nil, ErrHashableHeader
			}
			lookup[h] = i
		}
		r.headerLookup = lookup
		r.headerBuilt = true
	}

	row, err := r.ReadRow()
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return &Record{row: row, lookup: r.headerLookup}, nil
}

// Rows returns a range-over-func iterator that yields rows until
// exhaustion. Unlike ReadRow, a parse failure here is not reported
// in-band: callers who need the error should check Status after the
// loop ends, or use ReadRow directly if the error must be handled
// per-row.
func (r *Reader) Rows() func(yield func([]string) bool) {
	return func(yield func([]string) bool) {
		for {
			row, err := r.ReadRow()
			if err != nil || row == nil {
				return
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Close releases the underlying byte source, closing any owned stream.
func (r *Reader) Close() error {
	return r.src.close()
}

var _ io.Closer = (*Reader)(nil)
