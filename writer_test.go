package fluentcsv

import (
	"errors"
	"testing"
)

func TestWriterWriteRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rows [][]string
		opts []Option
		want string
	}{
		{
			name: "basic",
			rows: [][]string{{"a", "b", "c"}},
			want: "a,b,c\n",
		},
		{
			name: "multipleRows",
			rows: [][]string{
				{"alpha", "beta"},
				{"gamma", "delta"},
			},
			want: "alpha,beta\ngamma,delta\n",
		},
		{
			name: "emptyField",
			rows: [][]string{{"", "b"}},
			want: ",b\n",
		},
		{
			name: "delimiterForcesEscape",
			rows: [][]string{{"alpha,beta"}},
			want: "\"alpha,beta\"\n",
		},
		{
			name: "escapeScalarIsDoubled",
			rows: [][]string{
				{"he said \"hello\"", "plain"},
			},
			want: "\"he said \"\"hello\"\"\",plain\n",
		},
		{
			name: "rowDelimiterForcesEscape",
			rows: [][]string{
				{"multi\nline", "z"},
			},
			want: "\"multi\nline\",z\n",
		},
		{
			name: "customFieldDelimiter",
			rows: [][]string{
				{"a;b", "c"},
			},
			opts: []Option{WithDelimiters([]rune{';'}, []rune{'\n'})},
			want: "\"a;b\";c\n",
		},
		{
			name: "customEscape",
			rows: [][]string{
				{"alpha'beta", "plain"},
			},
			opts: []Option{WithEscape('\'')},
			want: "'alpha''beta',plain\n",
		},
		{
			name: "soleEmptyFieldBracketed",
			rows: [][]string{{""}},
			want: "\"\"\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w, buf, err := NewWriterBuffer(tc.opts...)
			if err != nil {
				t.Fatalf("NewWriterBuffer() error = %v", err)
			}
			for _, row := range tc.rows {
				if err := w.WriteRow(row); err != nil {
					t.Fatalf("WriteRow() error = %v", err)
				}
			}
			if err := w.End(); err != nil {
				t.Fatalf("End() error = %v", err)
			}
			if got := buf.String(); got != tc.want {
				t.Fatalf("unexpected output:\n got: %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func TestWriterFieldAtATime(t *testing.T) {
	t.Parallel()

	w, buf, err := NewWriterBuffer()
	if err != nil {
		t.Fatalf("NewWriterBuffer() error = %v", err)
	}
	if err := w.WriteField("alpha"); err != nil {
		t.Fatalf("WriteField() error = %v", err)
	}
	if err := w.WriteField("beta"); err != nil {
		t.Fatalf("WriteField() error = %v", err)
	}
	if err := w.CloseRow(); err != nil {
		t.Fatalf("CloseRow() error = %v", err)
	}
	if err := w.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if got := buf.String(); got != "alpha,beta\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestWriterFieldCountMismatch(t *testing.T) {
	t.Parallel()

	w, _, err := NewWriterBuffer()
	if err != nil {
		t.Fatalf("NewWriterBuffer() error = %v", err)
	}
	if err := w.WriteRow([]string{"a", "b"}); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}
	err = w.WriteRow([]string{"a", "b", "c"})
	if err == nil || !IsKind(err, InvalidOperation) {
		t.Fatalf("WriteRow() error = %v, want invalidOperation", err)
	}
}

func TestWriterEndPadsOpenRow(t *testing.T) {
	t.Parallel()

	w, buf, err := NewWriterBuffer()
	if err != nil {
		t.Fatalf("NewWriterBuffer() error = %v", err)
	}
	if err := w.WriteRow([]string{"a", "b"}); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}
	if err := w.WriteField("only"); err != nil {
		t.Fatalf("WriteField() error = %v", err)
	}
	if err := w.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if got := buf.String(); got != "a,b\nonly,\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestWriterAfterEndFails(t *testing.T) {
	t.Parallel()

	w, _, err := NewWriterBuffer()
	if err != nil {
		t.Fatalf("NewWriterBuffer() error = %v", err)
	}
	if err := w.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := w.WriteRow([]string{"a"}); err == nil || !IsKind(err, InvalidOperation) {
		t.Fatalf("WriteRow() after End error = %v, want invalidOperation", err)
	}
}

type failingWriter struct{ fail error }

func (f *failingWriter) Write([]byte) (int, error) { return 0, f.fail }

func TestWriterStreamFailure(t *testing.T) {
	t.Parallel()

	exp := errors.New("write failed")
	w, err := NewWriter(&failingWriter{fail: exp})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	err = w.WriteRow([]string{"a"})
	if err == nil || !IsKind(err, StreamFailure) {
		t.Fatalf("WriteRow() error = %v, want streamFailure", err)
	}
}
