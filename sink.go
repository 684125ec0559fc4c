package fluentcsv

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxWriteRetries bounds how many consecutive zero-progress writes a
// byteSink tolerates before treating the sink as failed.
const maxWriteRetries = 4

// byteSink is the append-only byte output, symmetric to byteSource but
// simpler: Go's io.Writer already unifies in-memory buffers, strings, and
// streams (unlike the read side, where BOM-prefix replay forces a separate
// prefixSource variant), so one type wraps every destination kind here.
type byteSink struct {
	w      io.Writer
	closer io.Closer
	own    bool
}

func newByteSink(w io.Writer, own bool) *byteSink {
	s := &byteSink{w: w, own: own}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// write retries zero-progress writes up to maxWriteRetries before
// reporting streamFailure; any error returned by the sink itself is fatal
// immediately.
func (s *byteSink) write(p []byte) error {
	retries := 0
	for len(p) > 0 {
		n, err := s.w.Write(p)
		if err != nil {
			return newError(StreamFailure, "write", err, nil)
		}
		if n == 0 {
			retries++
			if retries > maxWriteRetries {
				return newError(StreamFailure, "write", errors.New("sink made no progress"), nil)
			}
			continue
		}
		retries = 0
		p = p[n:]
	}
	return nil
}

func (s *byteSink) close() error {
	if s.own && s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// encodeText converts a UTF-8 Go string (the already-escaped field or
// delimiter text assembled by the Writer) into bytes for enc. UTF-16 BE/LE
// reuse golang.org/x/text/encoding/unicode + transform.Bytes exactly as
// dabiaoge/csv2dbf's transform.Bytes(encoder, []byte(val)) does on the
// encode path; UTF-32 is hand-rolled since x/text has no such codec.
func encodeText(enc Encoding, s string) ([]byte, error) {
	switch enc {
	case EncodingASCII:
		return encodeASCII(s)
	case EncodingUTF8, EncodingNone:
		return []byte(s), nil
	case EncodingUTF16BE:
		return transformEncode(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), s)
	case EncodingUTF16LE:
		return transformEncode(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), s)
	case EncodingUTF32BE:
		return encodeUTF32(s, true)
	case EncodingUTF32LE:
		return encodeUTF32(s, false)
	default:
		return nil, newError(InvalidConfiguration, "encodeText", errors.Errorf("unsupported encoding %s", enc), nil)
	}
}

// transformEncode runs s through enc's encoder, the same
// transform.Bytes(encoder, []byte(val)) shape dabiaoge/csv2dbf uses.
func transformEncode(enc encoding.Encoding, s string) ([]byte, error) {
	out, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
	if err != nil {
		return nil, newError(InvalidInput, "transformEncode", err, nil)
	}
	return out, nil
}

func encodeASCII(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0x7F {
			return nil, newError(InvalidInput, "encodeASCII", errors.Errorf("scalar %q is not ASCII", r), nil)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

func encodeUTF32(s string, bigEndian bool) ([]byte, error) {
	out := make([]byte, 0, len(s)*4)
	for _, r := range s {
		v := uint32(r)
		var b [4]byte
		if bigEndian {
			b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
		} else {
			b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
		}
		out = append(out, b[:]...)
	}
	return out, nil
}
