package fluentcsv

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error by the subsystem that raised it and the shape
// of the failure, mirroring the taxonomy every reader/writer/adapter error
// is tagged with.
type Kind int

const (
	// InvalidConfiguration covers conflicting delimiters, unsupported
	// encodings, trim/escape collisions, and BOM/encoding-hint mismatches.
	InvalidConfiguration Kind = iota
	// InvalidInput covers malformed bytes for the chosen encoding, bare
	// quotes, garbage after a closed escaped field, EOF mid-escape,
	// non-constant field counts, empty header rows, and colliding headers.
	InvalidInput
	// StreamFailure covers an underlying byte source/sink error, or one
	// that could not be opened.
	StreamFailure
	// InvalidOperation covers writer misuse: writing after end, writing
	// too many fields, or closing a row with no established field count.
	InvalidOperation
	// InvalidPath covers serialization-adapter coding-key failures: a key
	// not convertible to the required index, nesting beyond depth 2, or
	// an unknown header name.
	InvalidPath
)

func (k Kind) String() string {
	switch k {
	case InvalidConfiguration:
		return "invalidConfiguration"
	case InvalidInput:
		return "invalidInput"
	case StreamFailure:
		return "streamFailure"
	case InvalidOperation:
		return "invalidOperation"
	case InvalidPath:
		return "invalidPath"
	default:
		return "unknown"
	}
}

// Error is the single error type returned across the reader, writer, and
// adapter. Context carries typed diagnostic fields (the Go replacement for
// the free-form userInfo dictionaries named in the design notes); Underlying
// is the chained cause, reachable via errors.Unwrap/errors.Is/errors.As.
type Error struct {
	Kind       Kind
	Op         string
	Context    map[string]any
	Underlying error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("fluentcsv: %s: %s", e.Op, e.Kind)
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap returns the chained cause so Error participates in errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Underlying
}

// newError builds an *Error, wrapping cause (if any) with op via
// github.com/pkg/errors so the original stack/context survives unwrapping.
func newError(kind Kind, op string, cause error, ctx map[string]any) *Error {
	var wrapped error
	if cause != nil {
		wrapped = errors.Wrap(cause, op)
	}
	return &Error{Kind: kind, Op: op, Context: ctx, Underlying: wrapped}
}

// withContext returns a copy of e with key/value merged into Context.
func (e *Error) withContext(key string, value any) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Context = make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		cp.Context[k] = v
	}
	cp.Context[key] = value
	return &cp
}

// NewError builds an *Error of the given Kind, for use by packages built on
// top of fluentcsv (such as fluentcsv/record) that need to report failures
// through the same tagged Error type.
func NewError(kind Kind, op string, cause error, ctx map[string]any) *Error {
	return newError(kind, op, cause, ctx)
}

// IsKind reports whether err is an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinel errors, each defined in terms of the Kind taxonomy above so
// callers can match either on the variable or on Kind via
// IsKind/errors.Is.
var (
	// ErrBareQuote is returned when the escape scalar appears in an
	// unescaped field without being doubled.
	ErrBareQuote = newError(InvalidInput, "parseLine", errors.New("escape scalar in unescaped field"), nil)
	// ErrUnterminatedQuote is returned when an escaped field is not
	// closed before EOF.
	ErrUnterminatedQuote = newError(InvalidInput, "parseLine", errors.New("unterminated escaped field"), nil)
	// ErrGarbageAfterEscape is returned when non-trim, non-delimiter data
	// follows a closed escaped field.
	ErrGarbageAfterEscape = newError(InvalidInput, "parseLine", errors.New("data after closed escaped field"), nil)
	// ErrorFieldCount is returned when a row's field count does not match
	// the count established by the first parsed row.
	ErrorFieldCount = newError(InvalidInput, "parseLine", errors.New("wrong number of fields"), nil)
	// ErrEmptyHeader is returned when the designated header row is empty.
	ErrEmptyHeader = newError(InvalidInput, "readHeader", errors.New("empty header row"), nil)
	// ErrHashableHeader is returned when a header row contains duplicate
	// names and a record (keyed) lookup is requested.
	ErrHashableHeader = newError(InvalidInput, "readRecord", errors.New("header contains duplicate names"), nil)
	// errNoHeaderRow is returned when a HeaderLineNumber skip count runs
	// past the end of input before the designated header row is reached.
	errNoHeaderRow = errors.New("input ended before the designated header row")
)
