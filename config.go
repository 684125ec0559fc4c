package fluentcsv

import "github.com/pkg/errors"

// Encoding names the byte-to-scalar codec used by a Reader or Writer.
//
// EncodingNone lets the Reader infer the codec from a BOM (falling back
// to UTF-8); EncodingUTF16 and EncodingUnicode are endianness-agnostic
// families that only resolve to a concrete variant once combined with a
// detected BOM (see mergeEncoding in bom.go).
type Encoding int

const (
	EncodingNone Encoding = iota
	EncodingASCII
	EncodingUTF8
	EncodingUTF16BE
	EncodingUTF16LE
	EncodingUTF16 // family: resolves via BOM
	EncodingUnicode // family: resolves to whatever Unicode BOM is present
	EncodingUTF32BE
	EncodingUTF32LE
	EncodingUTF32 // family: resolves via BOM
)

func (e Encoding) String() string {
	switch e {
	case EncodingNone:
		return "none"
	case EncodingASCII:
		return "ascii"
	case EncodingUTF8:
		return "utf-8"
	case EncodingUTF16BE:
		return "utf-16-be"
	case EncodingUTF16LE:
		return "utf-16-le"
	case EncodingUTF16:
		return "utf-16"
	case EncodingUnicode:
		return "unicode"
	case EncodingUTF32BE:
		return "utf-32-be"
	case EncodingUTF32LE:
		return "utf-32-le"
	case EncodingUTF32:
		return "utf-32"
	default:
		return "unknown"
	}
}

// isFamily reports whether e is one of the endianness-agnostic families
// that mergeEncoding is allowed to refine against a detected BOM.
func (e Encoding) isFamily() bool {
	switch e {
	case EncodingUTF16, EncodingUnicode, EncodingUTF32:
		return true
	default:
		return false
	}
}

// HeaderStrategyKind selects how a Reader locates the header row.
type HeaderStrategyKind int

const (
	HeaderNone HeaderStrategyKind = iota
	HeaderFirstLine
	HeaderLineNumber
)

// HeaderStrategy configures header discovery. The zero value is HeaderNone.
type HeaderStrategy struct {
	Kind HeaderStrategyKind
	Skip int // rows to ignore before the header row, for HeaderLineNumber
}

// HeaderStrategyNone disables header handling; every row is a data row.
func HeaderStrategyNone() HeaderStrategy { return HeaderStrategy{Kind: HeaderNone} }

// HeaderStrategyFirstLine treats the first parsed row as the header.
func HeaderStrategyFirstLine() HeaderStrategy { return HeaderStrategy{Kind: HeaderFirstLine} }

// HeaderStrategyLineNumber skips k rows, then treats the next as the header.
func HeaderStrategyLineNumber(k int) HeaderStrategy {
	return HeaderStrategy{Kind: HeaderLineNumber, Skip: k}
}

// BOMStrategy controls whether and when a Writer emits a byte order mark.
type BOMStrategy int

const (
	BOMNever BOMStrategy = iota
	BOMAlways
	BOMConvention // emit only for endianness-ambiguous Unicode encodings
)

// Config is the immutable configuration shared by Reader and Writer. It is
// built by applying Options to a set of defaults and validating the result;
// once constructed it is never mutated (see config.validate).
type Config struct {
	Encoding Encoding

	FieldDelimiter []rune
	RowDelimiter   []rune

	HasEscape bool
	Escape    rune

	TrimSet map[rune]struct{}

	Header    HeaderStrategy
	Headers   []string // writer: static headers, or synthesized from first value
	Presample bool

	BOM BOMStrategy
}

// Option mutates a Config under construction. Options are applied in order;
// construction fails if the resulting Config is invalid (see validate).
type Option func(*Config) error

func defaultConfig() *Config {
	return &Config{
		Encoding:       EncodingNone,
		FieldDelimiter: []rune{','},
		RowDelimiter:   []rune{'\n'},
		HasEscape:      true,
		Escape:         '"',
		TrimSet:        map[rune]struct{}{},
		Header:         HeaderStrategyNone(),
		BOM:            BOMNever,
	}
}

// WithEncoding sets the encoding hint. EncodingNone (the default) means
// "infer from BOM, else UTF-8".
func WithEncoding(e Encoding) Option {
	return func(c *Config) error {
		c.Encoding = e
		return nil
	}
}

// WithDelimiters sets the field and row delimiter scalar sequences. They
// must be non-empty and must differ element-wise (enforced in validate).
func WithDelimiters(field, row []rune) Option {
	return func(c *Config) error {
		c.FieldDelimiter = append([]rune{}, field...)
		c.RowDelimiter = append([]rune{}, row...)
		return nil
	}
}

// WithEscape enables escaping with the given scalar. Pass WithNoEscape to
// disable escaping entirely.
func WithEscape(r rune) Option {
	return func(c *Config) error {
		c.HasEscape = true
		c.Escape = r
		return nil
	}
}

// WithNoEscape disables escaped-field support; all fields are unescaped.
func WithNoEscape() Option {
	return func(c *Config) error {
		c.HasEscape = false
		return nil
	}
}

// WithTrimSet sets the scalars stripped at field boundaries.
func WithTrimSet(scalars ...rune) Option {
	return func(c *Config) error {
		set := make(map[rune]struct{}, len(scalars))
		for _, r := range scalars {
			set[r] = struct{}{}
		}
		c.TrimSet = set
		return nil
	}
}

// WithHeaderStrategy configures header discovery (reader) or emission (writer).
func WithHeaderStrategy(h HeaderStrategy) Option {
	return func(c *Config) error {
		c.Header = h
		return nil
	}
}

// WithHeaders sets a static header row for a Writer. When absent, the
// writer may synthesize headers from the first encoded value's keys.
func WithHeaders(headers ...string) Option {
	return func(c *Config) error {
		c.Headers = append([]string{}, headers...)
		return nil
	}
}

// WithPresample materializes the entire reader input up front, trading
// memory for an early size check and full-input encoding validation.
func WithPresample(on bool) Option {
	return func(c *Config) error {
		c.Presample = on
		return nil
	}
}

// WithBOMStrategy configures Writer BOM emission.
func WithBOMStrategy(s BOMStrategy) Option {
	return func(c *Config) error {
		c.BOM = s
		return nil
	}
}

// buildConfig applies opts over the defaults and validates the result.
func buildConfig(opts []Option) (*Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, newError(InvalidConfiguration, "applyOption", err, nil)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.FieldDelimiter) == 0 || len(c.RowDelimiter) == 0 {
		return newError(InvalidConfiguration, "validate", errors.New("delimiters must be non-empty"), nil)
	}
	if runesEqual(c.FieldDelimiter, c.RowDelimiter) {
		return newError(InvalidConfiguration, "validate", errors.New("field and row delimiters must differ"), nil)
	}
	if c.HasEscape {
		if _, trimmed := c.TrimSet[c.Escape]; trimmed {
			return newError(InvalidConfiguration, "validate", errors.New("escape scalar cannot be in the trim set"), nil)
		}
	}
	return nil
}

func runesEqual(a, b []rune) bool {
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
