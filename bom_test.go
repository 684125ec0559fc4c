package fluentcsv

import (
	"reflect"
	"testing"
)

func TestDetectBOM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		data       []byte
		wantEnc    Encoding
		wantRemain []byte
	}{
		{
			// detectBOM reads exactly maxBOMLen() (4) bytes up front; a
			// 3-byte UTF-8 BOM match leaves one already-read byte as
			// leftover, with the rest still unconsumed in the source.
			name:       "utf8BOM",
			data:       append([]byte{0xEF, 0xBB, 0xBF}, "abc"...),
			wantEnc:    EncodingUTF8,
			wantRemain: []byte("a"),
		},
		{
			name:       "utf16BE",
			data:       append([]byte{0xFE, 0xFF}, "ab"...),
			wantEnc:    EncodingUTF16BE,
			wantRemain: []byte("ab"),
		},
		{
			name:       "utf16LE",
			data:       append([]byte{0xFF, 0xFE}, "ab"...),
			wantEnc:    EncodingUTF16LE,
			wantRemain: []byte("ab"),
		},
		{
			// The 4-byte BOM exactly fills detectBOM's read, so nothing is
			// left over; "ab" remains unconsumed in the underlying source.
			name:       "utf32BE",
			data:       append([]byte{0x00, 0x00, 0xFE, 0xFF}, "ab"...),
			wantEnc:    EncodingUTF32BE,
			wantRemain: []byte{},
		},
		{
			name:       "utf32LEDisambiguatedFromUTF16LE",
			data:       append([]byte{0xFF, 0xFE, 0x00, 0x00}, "ab"...),
			wantEnc:    EncodingUTF32LE,
			wantRemain: []byte{},
		},
		{
			name:       "noBOM",
			data:       []byte("plain"),
			wantEnc:    EncodingNone,
			wantRemain: []byte("plai"), // detectBOM only reads maxBOMLen() bytes
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			src := newSliceSource(tc.data)
			enc, remain, err := detectBOM(src)
			if err != nil {
				t.Fatalf("detectBOM() error = %v", err)
			}
			if enc != tc.wantEnc {
				t.Fatalf("detectBOM() encoding = %v, want %v", enc, tc.wantEnc)
			}
			if !reflect.DeepEqual(remain, tc.wantRemain) {
				t.Fatalf("detectBOM() remainder = %q, want %q", remain, tc.wantRemain)
			}
		})
	}
}

func TestMergeEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		hint    Encoding
		detect  Encoding
		want    Encoding
		wantErr bool
	}{
		{name: "neitherPresent", hint: EncodingNone, detect: EncodingNone, want: EncodingUTF8},
		{name: "hintAbsent", hint: EncodingNone, detect: EncodingUTF16LE, want: EncodingUTF16LE},
		{name: "detectedAbsent", hint: EncodingUTF8, detect: EncodingNone, want: EncodingUTF8},
		{name: "agree", hint: EncodingUTF8, detect: EncodingUTF8, want: EncodingUTF8},
		{name: "familyAccepts", hint: EncodingUTF16, detect: EncodingUTF16BE, want: EncodingUTF16BE},
		{name: "conflict", hint: EncodingUTF8, detect: EncodingUTF16BE, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := mergeEncoding(tc.hint, tc.detect)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("mergeEncoding() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("mergeEncoding() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("mergeEncoding() = %v, want %v", got, tc.want)
			}
		})
	}
}
