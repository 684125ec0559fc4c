package fluentcsv

import "github.com/pkg/errors"

// bomEntry pairs a BOM byte sequence with the encoding it identifies. The
// table is the Go transliteration of golang.org/x/text/encoding/unicode's
// BOMPolicy/BOMOverride table; x/text has no UTF-32 codec, so the two UTF-32
// entries (listed first, longest-match-first, since UTF-32LE shares its
// leading two bytes with UTF-16LE) are hand-maintained here rather than
// delegated.
var bomTable = []bomEntry{
	{[]byte{0x00, 0x00, 0xFE, 0xFF}, EncodingUTF32BE},
	{[]byte{0xFF, 0xFE, 0x00, 0x00}, EncodingUTF32LE},
	{[]byte{0xEF, 0xBB, 0xBF}, EncodingUTF8},
	{[]byte{0xFE, 0xFF}, EncodingUTF16BE},
	{[]byte{0xFF, 0xFE}, EncodingUTF16LE},
}

type bomEntry struct {
	bytes []byte
	enc   Encoding
}

func maxBOMLen() int {
	max := 0
	for _, e := range bomTable {
		if len(e.bytes) > max {
			max = len(e.bytes)
		}
	}
	return max
}

// detectBOM reads up to maxBOMLen() bytes from src and compares them against
// bomTable in descending-length order. On a match it consumes those bytes
// and returns the inferred encoding together with any bytes it read past
// the end of a shorter BOM (empty for a 4-byte BOM); otherwise it returns
// EncodingNone and every byte it speculatively read. Either way the caller
// pushes the leftover back via a prefixSource before decoding.
func detectBOM(src byteSource) (Encoding, []byte, error) {
	want := maxBOMLen()
	read := make([]byte, 0, want)
	for i := 0; i < want; i++ {
		b, ok, err := src.next()
		if err != nil {
			return EncodingNone, read, newError(StreamFailure, "detectBOM", err, nil)
		}
		if !ok {
			break
		}
		read = append(read, b)
	}

	for _, entry := range bomTable {
		if len(entry.bytes) > len(read) {
			continue
		}
		if bytesEqual(read[:len(entry.bytes)], entry.bytes) {
			leftover := append([]byte{}, read[len(entry.bytes):]...)
			return entry.enc, leftover, nil
		}
	}
	return EncodingNone, read, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mergeEncoding combines a user-provided hint with a BOM-inferred encoding
// per the rules in the component design: absent hint defers to the
// detected encoding (or UTF-8 if neither is present); a concrete hint that
// disagrees with a detected concrete encoding is an error, unless the hint
// is one of the endianness-agnostic families and the detected encoding is
// a compatible member of that family.
func mergeEncoding(hint, detected Encoding) (Encoding, error) {
	switch {
	case hint == EncodingNone && detected == EncodingNone:
		return EncodingUTF8, nil
	case hint == EncodingNone:
		return detected, nil
	case detected == EncodingNone:
		return hint, nil
	case hint == detected:
		return detected, nil
	case hint.isFamily() && familyAccepts(hint, detected):
		return detected, nil
	default:
		return EncodingNone, newError(InvalidConfiguration, "mergeEncoding", errors.Errorf(
			"encoding hint %s conflicts with BOM-detected encoding %s", hint, detected), nil)
	}
}

// familyAccepts reports whether detected is a concrete member of the
// endianness-agnostic family named by hint.
func familyAccepts(hint, detected Encoding) bool {
	switch hint {
	case EncodingUTF16:
		return detected == EncodingUTF16BE || detected == EncodingUTF16LE
	case EncodingUTF32:
		return detected == EncodingUTF32BE || detected == EncodingUTF32LE
	case EncodingUnicode:
		switch detected {
		case EncodingUTF8, EncodingUTF16BE, EncodingUTF16LE, EncodingUTF32BE, EncodingUTF32LE:
			return true
		}
		return false
	default:
		return false
	}
}
