package fluentcsv

// delimiterMatcher tests whether the scalar sequence starting with first
// matches a configured delimiter, pulling further scalars from pull and
// rolling back into push when the match fails partway through.
type delimiterMatcher struct {
	seq   []rune
	pull  func() (rune, bool, error)
	push  *scalarBuffer
}

func newDelimiterMatcher(seq []rune, pull func() (rune, bool, error), push *scalarBuffer) *delimiterMatcher {
	return &delimiterMatcher{seq: seq, pull: pull, push: push}
}

// matches reports whether first begins an occurrence of the delimiter,
// consuming the remainder of the delimiter from pull on a match and
// pushing back everything it speculatively read on a mismatch.
func (m *delimiterMatcher) matches(first rune) (bool, error) {
	switch len(m.seq) {
	case 1:
		return first == m.seq[0], nil
	case 2:
		if first != m.seq[0] {
			return false, nil
		}
		r, ok, err := m.pull()
		if err != nil {
			return false, err
		}
		if !ok {
			// EOF mid-delimiter: no pushback needed, simply not a match.
			return false, nil
		}
		if r == m.seq[1] {
			return true, nil
		}
		m.push.prepend(r)
		return false, nil
	default:
		if first != m.seq[0] {
			return false, nil
		}
		speculative := make([]rune, 0, len(m.seq)-1)
		for i := 1; i < len(m.seq); i++ {
			r, ok, err := m.pull()
			if err != nil {
				m.push.prependAll(speculative)
				return false, err
			}
			if !ok {
				m.push.prependAll(speculative)
				return false, nil
			}
			if r != m.seq[i] {
				speculative = append(speculative, r)
				m.push.prependAll(speculative)
				return false, nil
			}
			speculative = append(speculative, r)
		}
		return true, nil
	}
}
