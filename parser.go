package fluentcsv

// parser implements the row/field CSV grammar over a scalarDecoder: the
// states RowStart…FileEnd from the component design collapse onto a single
// loop per call to parseLine (RowStart is indistinguishable from FieldStart
// in this implementation, since nothing observable depends on whether a
// given FieldStart is the very first one).
type parser struct {
	dec  scalarDecoder
	push *scalarBuffer
	cfg  *Config

	fieldMatcher *delimiterMatcher
	rowMatcher   *delimiterMatcher

	scratch []rune

	eof            bool
	rowsProduced   int
	expectedFields int
}

func newParser(dec scalarDecoder, cfg *Config) *parser {
	p := &parser{
		dec:  dec,
		cfg:  cfg,
		push: newScalarBuffer(maxDelimLen(cfg) + 1),
	}
	p.fieldMatcher = newDelimiterMatcher(cfg.FieldDelimiter, p.nextRaw, p.push)
	p.rowMatcher = newDelimiterMatcher(cfg.RowDelimiter, p.nextRaw, p.push)
	return p
}

func maxDelimLen(cfg *Config) int {
	max := len(cfg.FieldDelimiter)
	if len(cfg.RowDelimiter) > max {
		max = len(cfg.RowDelimiter)
	}
	return max
}

func (p *parser) nextRaw() (rune, bool, error) {
	if r, ok := p.push.next(); ok {
		return r, true, nil
	}
	return p.dec.next()
}

func (p *parser) isTrim(r rune) bool {
	_, ok := p.cfg.TrimSet[r]
	return ok
}

func (p *parser) finishField() string {
	s := string(p.scratch)
	p.scratch = p.scratch[:0]
	return s
}

// trimTrailing strips trailing trim-set scalars from the unescaped scratch
// buffer, per the trailing-trim fixup rule. Leading trim is never appended
// in the first place (FieldStart skips it), so nothing symmetric is needed
// there.
func (p *parser) trimTrailing() {
	if len(p.cfg.TrimSet) == 0 {
		return
	}
	i := len(p.scratch)
	for i > 0 {
		if !p.isTrim(p.scratch[i-1]) {
			break
		}
		i--
	}
	p.scratch = p.scratch[:i]
}

// parseLine produces the next row. It returns (nil, nil) at a clean end of
// input with no data consumed, (row, nil) on a produced row, or (nil, err)
// on failure.
func (p *parser) parseLine() ([]string, error) {
	if p.eof {
		return nil, nil
	}

	var fields []string
	state := stFieldStart
	var lookahead rune
	haveLookahead := false

	for {
		switch state {
		case stFieldStart:
			r, ok, err := p.nextRaw()
			if err != nil {
				return nil, err
			}
			if !ok {
				if len(fields) == 0 {
					p.eof = true
					return nil, nil
				}
				fields = append(fields, "")
				p.eof = true
				return p.finishRow(fields)
			}
			if p.isTrim(r) {
				continue
			}
			if p.cfg.HasEscape && r == p.cfg.Escape {
				state = stInEscaped
				continue
			}
			if r == p.cfg.FieldDelimiter[0] {
				matched, err := p.fieldMatcher.matches(r)
				if err != nil {
					return nil, err
				}
				if matched {
					fields = append(fields, "")
					continue
				}
			}
			if r == p.cfg.RowDelimiter[0] {
				matched, err := p.rowMatcher.matches(r)
				if err != nil {
					return nil, err
				}
				if matched {
					fields = append(fields, "")
					return p.finishRow(fields)
				}
			}
			p.scratch = append(p.scratch, r)
			state = stInUnescaped

		case stInUnescaped:
			r, ok, err := p.nextRaw()
			if err != nil {
				return nil, err
			}
			if !ok {
				p.trimTrailing()
				fields = append(fields, p.finishField())
				p.eof = true
				return p.finishRow(fields)
			}
			if p.cfg.HasEscape && r == p.cfg.Escape {
				return nil, ErrBareQuote
			}
			if r == p.cfg.FieldDelimiter[0] {
				matched, err := p.fieldMatcher.matches(r)
				if err != nil {
					return nil, err
				}
				if matched {
					p.trimTrailing()
					fields = append(fields, p.finishField())
					state = stFieldStart
					continue
				}
			}
			if r == p.cfg.RowDelimiter[0] {
				matched, err := p.rowMatcher.matches(r)
				if err != nil {
					return nil, err
				}
				if matched {
					p.trimTrailing()
					fields = append(fields, p.finishField())
					return p.finishRow(fields)
				}
			}
			p.scratch = append(p.scratch, r)

		case stInEscaped:
			r, ok, err := p.nextRaw()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrUnterminatedQuote
			}
			if p.cfg.HasEscape && r == p.cfg.Escape {
				t, ok, err := p.nextRaw()
				if err != nil {
					return nil, err
				}
				if !ok {
					fields = append(fields, p.finishField())
					p.eof = true
					return p.finishRow(fields)
				}
				if t == p.cfg.Escape {
					p.scratch = append(p.scratch, p.cfg.Escape)
					continue
				}
				lookahead, haveLookahead = t, true
				state = stAfterEscapedClose
				continue
			}
			p.scratch = append(p.scratch, r)

		case stAfterEscapedClose:
			var u rune
			var ok bool
			var err error
			if haveLookahead {
				u, ok, haveLookahead = lookahead, true, false
			} else {
				u, ok, err = p.nextRaw()
				if err != nil {
					return nil, err
				}
			}
			for ok && p.isTrim(u) {
				u, ok, err = p.nextRaw()
				if err != nil {
					return nil, err
				}
			}
			if !ok {
				fields = append(fields, p.finishField())
				p.eof = true
				return p.finishRow(fields)
			}
			if u == p.cfg.FieldDelimiter[0] {
				matched, err := p.fieldMatcher.matches(u)
				if err != nil {
					return nil, err
				}
				if matched {
					fields = append(fields, p.finishField())
					state = stFieldStart
					continue
				}
			}
			if u == p.cfg.RowDelimiter[0] {
				matched, err := p.rowMatcher.matches(u)
				if err != nil {
					return nil, err
				}
				if matched {
					fields = append(fields, p.finishField())
					return p.finishRow(fields)
				}
			}
			return nil, ErrGarbageAfterEscape
		}
	}
}

type parserState int

const (
	stFieldStart parserState = iota
	stInUnescaped
	stInEscaped
	stAfterEscapedClose
)

// finishRow enforces the field-count invariant and the empty-line policy:
// a one-empty-field row is only ever eligible to be silently skipped once
// it has already passed the field-count check (so it is rejected outright,
// not skipped, whenever the established width is greater than one).
func (p *parser) finishRow(fields []string) ([]string, error) {
	if p.expectedFields == 0 {
		p.expectedFields = len(fields)
	} else if len(fields) != p.expectedFields {
		return nil, ErrorFieldCount
	}

	isBlank := len(fields) == 1 && fields[0] == ""
	if isBlank && p.rowsProduced > 0 {
		if p.eof {
			return nil, nil
		}
		return p.parseLine()
	}

	p.rowsProduced++
	return fields, nil
}
