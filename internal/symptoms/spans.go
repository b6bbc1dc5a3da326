package symptoms

import "sort"

// span is a half-open rune range [start, end) of the normalized message.
type span struct {
	start, end int
}

// spanSet records the ranges already consumed by a match. Spans are kept
// sorted and never overlap.
type spanSet struct {
	spans []span
}

// free reports whether s overlaps no consumed range.
func (ss *spanSet) free(s span) bool {
	// first consumed span ending after s starts
	i := sort.Search(len(ss.spans), func(i int) bool {
		return ss.spans[i].end > s.start
	})
	return i == len(ss.spans) || ss.spans[i].start >= s.end
}

// add marks s as consumed. Callers check free first.
func (ss *spanSet) add(s span) {
	i := sort.Search(len(ss.spans), func(i int) bool {
		return ss.spans[i].start >= s.start
	})
	ss.spans = append(ss.spans, span{})
	copy(ss.spans[i+1:], ss.spans[i:])
	ss.spans[i] = s
}
