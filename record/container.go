// Package record is the serialization adapter built on top of the core
// fluentcsv Reader/Writer: a bounded-depth container tree (file, row,
// field) for random-access coding, plus reflection-driven Marshal/Unmarshal
// against struct-tagged Go values.
package record

import (
	"github.com/pkg/errors"

	"github.com/fluentcsv/fluentcsv"
)

// Depth identifies a container's nesting level: the file as a whole, one
// row within it, or one field within a row. Nothing nests below Field;
// requesting a container past it fails InvalidPath, as do unknown column
// names and out-of-range indices.
type Depth int

const (
	DepthFile Depth = iota
	DepthRow
	DepthField
)

// errTooDeep is returned, wrapped in a deferred-invalid container, whenever
// a super-container is requested past DepthField.
func errTooDeep() error {
	return fluentcsv.NewError(fluentcsv.InvalidPath, "nestedContainer",
		errors.New("cannot nest a container below field depth"), nil)
}

// errUnknownKey is returned when a string coding key does not resolve
// against the row's header lookup.
func errUnknownKey(key string) error {
	return fluentcsv.NewError(fluentcsv.InvalidPath, "keyedContainer",
		errors.Errorf("no such column: %q", key), map[string]any{"key": key})
}

// errRowDiscarded is returned when a buffering strategy no longer has a
// requested row index available (it has already been consumed and, per
// the strategy in effect, freed).
func errRowDiscarded(index int) error {
	return fluentcsv.NewError(fluentcsv.InvalidPath, "randomAccessRow",
		errors.Errorf("row %d has already been consumed and discarded", index),
		map[string]any{"row": index})
}

// errRowOutOfRange is returned when a requested row index is beyond the
// end of the input.
func errRowOutOfRange(index int) error {
	return fluentcsv.NewError(fluentcsv.InvalidPath, "randomAccessRow",
		errors.Errorf("row %d is beyond the end of input", index),
		map[string]any{"row": index})
}

// BufferingStrategy controls how much of a decoded (or, for assembled
// encoding, an encoded) file FileDecoder/RowEncoder retain to support
// out-of-order row access.
type BufferingStrategy int

const (
	// BufferingKeepAll retains every decoded row forever: random access,
	// including going backward, is always supported.
	BufferingKeepAll BufferingStrategy = iota
	// BufferingSequential (alias "ordered") retains nothing: only rows
	// beyond the furthest index already delivered can be requested;
	// requesting that index again, or an earlier one, fails.
	BufferingSequential
	// BufferingUnrequested retains only rows that a forward jump skipped
	// over but that have not yet been individually requested; once a row
	// is requested (or the jump lands past it going the other way) it is
	// freed and cannot be requested again.
	BufferingUnrequested
)
