package fluentcsv

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// NewReader builds a Reader that pulls from r, applying opts over the
// defaults. r is not closed by Reader.Close; wrap it yourself if it needs
// to be.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return newReader(newStreamSource(r, false), cfg)
}

// NewReaderString builds a Reader over an in-memory string.
func NewReaderString(s string, opts ...Option) (*Reader, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return newReader(newSliceSource([]byte(s)), cfg)
}

// NewReaderBytes builds a Reader over an in-memory byte slice.
func NewReaderBytes(b []byte, opts ...Option) (*Reader, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return newReader(newSliceSource(b), cfg)
}

// NewReaderFile opens path and builds a Reader over it. The returned
// Reader owns the file: Close closes it.
func NewReaderFile(path string, opts ...Option) (*Reader, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(StreamFailure, "NewReaderFile", err, map[string]any{"path": path})
	}
	r, err := newReader(newStreamSource(f, true), cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// NewWriter builds a Writer that emits to w, applying opts over the
// defaults. w is not closed by Writer.End; wrap it yourself if it needs
// to be.
func NewWriter(w io.Writer, opts ...Option) (*Writer, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return newWriter(newByteSink(w, false), cfg)
}

// NewWriterBuffer builds a Writer over an in-memory buffer, returning both
// the Writer and the buffer its bytes accumulate in.
func NewWriterBuffer(opts ...Option) (*Writer, *bytes.Buffer, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	buf := &bytes.Buffer{}
	w, err := newWriter(newByteSink(buf, false), cfg)
	if err != nil {
		return nil, nil, err
	}
	return w, buf, nil
}

// NewWriterStringBuilder builds a Writer over an in-memory strings.Builder,
// returning both the Writer and the builder its text accumulates in.
func NewWriterStringBuilder(opts ...Option) (*Writer, *strings.Builder, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	var b strings.Builder
	w, err := newWriter(newByteSink(&b, false), cfg)
	if err != nil {
		return nil, nil, err
	}
	return w, &b, nil
}

// NewWriterFile opens (creating or truncating) path and builds a Writer
// over it. The returned Writer owns the file: End closes it.
//
// NewWriterFileAppend opens path for append instead; per the append-mode
// rule, any static header row configured via WithHeaders is skipped, since
// the file is assumed to already carry one.
func NewWriterFile(path string, opts ...Option) (*Writer, error) {
	return newWriterFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, opts)
}

// NewWriterFileAppend opens path for append, skipping header emission.
func NewWriterFileAppend(path string, opts ...Option) (*Writer, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	cfg.Headers = nil

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, newError(StreamFailure, "NewWriterFileAppend", err, map[string]any{"path": path})
	}
	info, statErr := f.Stat()
	if statErr == nil && info.Size() > 0 {
		cfg.BOM = BOMNever
	}
	w, err := newWriter(newByteSink(f, true), cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func newWriterFile(path string, flag int, opts []Option) (*Writer, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, newError(StreamFailure, "NewWriterFile", err, map[string]any{"path": path})
	}
	w, err := newWriter(newByteSink(f, true), cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}
