package fluentcsv

import (
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// scalarDecoder is a pull function over Unicode scalars. next distinguishes
// three outcomes: a value (ok=true, err=nil), a clean end of input
// (ok=false, err=nil), and malformed input or a propagated stream failure
// (ok=false, err!=nil). Go's explicit multi-value return folds the design's
// "call back into the byte source to discriminate EOF from error" into the
// err value itself, since byteSource.next already makes that distinction —
// see DESIGN.md.
type scalarDecoder interface {
	next() (r rune, ok bool, err error)
}

// newScalarDecoder produces the pull-scalar function for enc over src. enc
// must already be a concrete (non-family) encoding; mergeEncoding resolves
// families before this is called.
func newScalarDecoder(enc Encoding, src byteSource) (scalarDecoder, error) {
	switch enc {
	case EncodingASCII:
		return &asciiDecoder{src: src}, nil
	case EncodingUTF8:
		return &utf8Decoder{src: src}, nil
	case EncodingUTF16BE:
		return newTransformUTF8Decoder(src, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM))
	case EncodingUTF16LE:
		return newTransformUTF8Decoder(src, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM))
	case EncodingUTF32BE:
		return &utf32Decoder{src: src, bigEndian: true}, nil
	case EncodingUTF32LE:
		return &utf32Decoder{src: src, bigEndian: false}, nil
	default:
		return nil, newError(InvalidConfiguration, "newScalarDecoder", errors.Errorf("unsupported encoding %s", enc), nil)
	}
}

// --- ASCII ---

type asciiDecoder struct{ src byteSource }

func (d *asciiDecoder) next() (rune, bool, error) {
	b, ok, err := d.src.next()
	if err != nil {
		return 0, false, newError(StreamFailure, "decodeASCII", err, nil)
	}
	if !ok {
		return 0, false, nil
	}
	if b >= 0x80 {
		return 0, false, newError(InvalidInput, "decodeASCII", errors.Errorf("byte 0x%02x is not ASCII", b), nil)
	}
	return rune(b), true, nil
}

// --- UTF-8 ---

// utf8Decoder pulls bytes one at a time into a small lookahead buffer and
// decodes with unicode/utf8, which already rejects overlong encodings and
// encoded UTF-16 surrogates (DecodeRune returns utf8.RuneError, size 1 for
// both), so no extra validation is layered on top here.
type utf8Decoder struct {
	src byteSource
	buf [utf8.UTFMax]byte
	n   int
}

func (d *utf8Decoder) next() (rune, bool, error) {
	for {
		if d.n > 0 {
			r, size := utf8.DecodeRune(d.buf[:d.n])
			if r != utf8.RuneError || size > 1 {
				copy(d.buf[0:], d.buf[size:d.n])
				d.n -= size
				return r, true, nil
			}
			if d.n >= utf8.UTFMax {
				return 0, false, newError(InvalidInput, "decodeUTF8", errors.New("invalid UTF-8 byte sequence"), nil)
			}
		}
		b, ok, err := d.src.next()
		if err != nil {
			return 0, false, newError(StreamFailure, "decodeUTF8", err, nil)
		}
		if !ok {
			if d.n > 0 {
				return 0, false, newError(InvalidInput, "decodeUTF8", errors.New("truncated UTF-8 sequence at EOF"), nil)
			}
			return 0, false, nil
		}
		d.buf[d.n] = b
		d.n++
	}
}

// --- UTF-16 BE/LE, via golang.org/x/text/encoding/unicode + transform ---
//
// The x/text codec re-encodes the raw byte stream to UTF-8 (validating
// surrogate pairing and code-unit alignment along the way); the result is
// then scalar-decoded by the same utf8Decoder used for native UTF-8 input.
// This is the same transform.NewReader(src, enc.NewDecoder()) composition
// dabiaoge/csv2dbf uses ahead of its encoding/csv.Reader.

type byteSourceReader struct{ src byteSource }

func (r byteSourceReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, ok, err := r.src.next()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if !ok {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		p[n] = b
		n++
	}
	return n, nil
}

func newTransformUTF8Decoder(src byteSource, enc encoding.Encoding) (scalarDecoder, error) {
	tr := transform.NewReader(byteSourceReader{src: src}, enc.NewDecoder())
	inner := newStreamSource(tr, false)
	return &utf8Decoder{src: inner}, nil
}

// --- UTF-32 BE/LE, hand-rolled: x/text ships no UTF-32 codec. ---

type utf32Decoder struct {
	src       byteSource
	bigEndian bool
}

const (
	maxUnicodeScalar = 0x10FFFF
	surrogateLo      = 0xD800
	surrogateHi      = 0xDFFF
)

func (d *utf32Decoder) next() (rune, bool, error) {
	var raw [4]byte
	n := 0
	for n < 4 {
		b, ok, err := d.src.next()
		if err != nil {
			return 0, false, newError(StreamFailure, "decodeUTF32", err, nil)
		}
		if !ok {
			if n == 0 {
				return 0, false, nil
			}
			return 0, false, newError(InvalidInput, "decodeUTF32", errors.New("truncated UTF-32 code unit at EOF"), nil)
		}
		raw[n] = b
		n++
	}
	var v uint32
	if d.bigEndian {
		v = uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	} else {
		v = uint32(raw[3])<<24 | uint32(raw[2])<<16 | uint32(raw[1])<<8 | uint32(raw[0])
	}
	if v > maxUnicodeScalar || (v >= surrogateLo && v <= surrogateHi) {
		return 0, false, newError(InvalidInput, "decodeUTF32", errors.Errorf("scalar value 0x%X outside Unicode's allocated range", v), nil)
	}
	return rune(v), true, nil
}
