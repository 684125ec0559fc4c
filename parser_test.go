package fluentcsv

import (
	"reflect"
	"testing"
)

func TestParserTrimSet(t *testing.T) {
	t.Parallel()

	r, err := NewReaderString(" a , b ,c\n", WithTrimSet(' '))
	if err != nil {
		t.Fatalf("NewReaderString() error = %v", err)
	}
	row, err := r.ReadRow()
	if err != nil {
		t.Fatalf("ReadRow() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(row, want) {
		t.Fatalf("ReadRow() = %v, want %v", row, want)
	}
}

func TestParserNoEscape(t *testing.T) {
	t.Parallel()

	r, err := NewReaderString("a,\"b\",c\n", WithNoEscape())
	if err != nil {
		t.Fatalf("NewReaderString() error = %v", err)
	}
	row, err := r.ReadRow()
	if err != nil {
		t.Fatalf("ReadRow() error = %v", err)
	}
	want := []string{"a", "\"b\"", "c"}
	if !reflect.DeepEqual(row, want) {
		t.Fatalf("ReadRow() = %v, want %v", row, want)
	}
}

func TestParserGarbageAfterEscape(t *testing.T) {
	t.Parallel()

	r, err := NewReaderString("\"a\"b,c\n")
	if err != nil {
		t.Fatalf("NewReaderString() error = %v", err)
	}
	_, err = r.ReadRow()
	if err == nil || !IsKind(err, InvalidInput) {
		t.Fatalf("ReadRow() error = %v, want invalidInput", err)
	}
}

func TestParserMultiScalarDelimiter(t *testing.T) {
	t.Parallel()

	r, err := NewReaderString("a::b::c||d::e::f||", WithDelimiters([]rune("::"), []rune("||")))
	if err != nil {
		t.Fatalf("NewReaderString() error = %v", err)
	}

	var rows [][]string
	for {
		row, err := r.ReadRow()
		if err != nil {
			t.Fatalf("ReadRow() error = %v", err)
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	want := [][]string{
		{"a", "b", "c"},
		{"d", "e", "f"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("ReadRow() rows = %v, want %v", rows, want)
	}
}

func TestParserMultiColumnRejectsBlankLine(t *testing.T) {
	t.Parallel()

	r, err := NewReaderString("a,b\n\nc,d\n")
	if err != nil {
		t.Fatalf("NewReaderString() error = %v", err)
	}
	if _, err := r.ReadRow(); err != nil {
		t.Fatalf("ReadRow() first row error = %v", err)
	}
	_, err = r.ReadRow()
	if err == nil || !IsKind(err, InvalidInput) {
		t.Fatalf("ReadRow() error = %v, want invalidInput (field count)", err)
	}
}
