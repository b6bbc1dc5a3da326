package symptoms

import (
	"sort"
	"strings"

	"github.com/themobileprof/symptomchat-be/internal/lexicon"
	"github.com/themobileprof/symptomchat-be/internal/textnorm"
)

// phrase is a matchable form of a canonical symptom.
type phrase struct {
	canonical string
	text      []rune // accent-preserving, normalized; nil in the lexicon phase
	folded    []rune
}

// Extractor recognizes canonical symptoms in free text.
//
// Matching runs in two greedy phases over the normalized message, longest
// phrase first: lexicon synonyms against the accent-folded text, then the raw
// vocabulary tokens against either the accent-preserving or the folded text.
// Every match consumes its span, so one mention never satisfies two symptoms
// and a phrase nested in an already matched longer phrase cannot match again.
//
// An Extractor is immutable and safe for concurrent use.
type Extractor struct {
	synonyms []phrase
	tokens   []phrase
}

// NewExtractor precomputes the sorted phrase lists for a vocabulary and a
// lexicon. Either may be empty.
func NewExtractor(vocabulary []string, lex *lexicon.Lexicon) *Extractor {
	e := &Extractor{}

	for _, pair := range lex.Reverse() {
		e.synonyms = append(e.synonyms, phrase{
			canonical: pair.Canonical,
			folded:    []rune(pair.Folded),
		})
	}
	sortByLength(e.synonyms)

	for _, tok := range vocabulary {
		text := textnorm.Normalize(strings.ReplaceAll(tok, "_", " "))
		if text == "" {
			continue
		}
		e.tokens = append(e.tokens, phrase{
			canonical: tok,
			text:      []rune(text),
			folded:    []rune(textnorm.StripAccents(text)),
		})
	}
	sortByLength(e.tokens)

	return e
}

// sortByLength orders phrases longest first. Equal lengths keep their
// original relative order.
func sortByLength(ps []phrase) {
	sort.SliceStable(ps, func(i, j int) bool {
		return phraseLen(ps[i]) > phraseLen(ps[j])
	})
}

func phraseLen(p phrase) int {
	if p.text != nil {
		return len(p.text)
	}
	return len(p.folded)
}

// Extract returns the canonical symptoms mentioned in message, without
// repeats, in the order they were found. Unrecognizable input yields an empty
// slice.
func (e *Extractor) Extract(message string) []string {
	found := make([]string, 0)

	text := textnorm.Normalize(message)
	if text == "" {
		return found
	}

	m := &match{
		source: []rune(text),
		folded: textnorm.Fold(text),
		seen:   make(map[string]bool),
	}

	for _, p := range e.synonyms {
		if m.consumeFolded(p.folded) > 0 {
			found = m.record(found, p.canonical)
		}
	}

	for _, p := range e.tokens {
		hits := m.consumeSource(p.text)
		hits += m.consumeFolded(p.folded)
		if hits > 0 {
			found = m.record(found, p.canonical)
		}
	}

	return found
}

// Extract is a convenience wrapper building a one-off Extractor.
func Extract(message string, vocabulary []string, lex *lexicon.Lexicon) []string {
	return NewExtractor(vocabulary, lex).Extract(message)
}

// match is the per-call working state. Both texts share source coordinates,
// so consuming a span in one hides it from the other.
type match struct {
	source []rune
	folded textnorm.Folded
	used   spanSet
	seen   map[string]bool
}

func (m *match) record(found []string, canonical string) []string {
	if m.seen[canonical] {
		return found
	}
	m.seen[canonical] = true
	return append(found, canonical)
}

// consumeSource marks every free occurrence of needle in the
// accent-preserving text and returns how many there were.
func (m *match) consumeSource(needle []rune) int {
	return m.consume(m.source, needle, func(start, end int) span {
		return span{start, end}
	})
}

// consumeFolded does the same against the folded text.
func (m *match) consumeFolded(needle []rune) int {
	return m.consume(m.folded.Runes, needle, func(start, end int) span {
		s, e := m.folded.SourceSpan(start, end)
		return span{s, e}
	})
}

func (m *match) consume(hay, needle []rune, toSource func(int, int) span) int {
	if len(needle) == 0 {
		return 0
	}

	hits := 0
	for from := 0; from+len(needle) <= len(hay); {
		idx := indexRunes(hay[from:], needle)
		if idx < 0 {
			break
		}
		start := from + idx
		s := toSource(start, start+len(needle))
		if m.used.free(s) {
			m.used.add(s)
			hits++
			from = start + len(needle)
			continue
		}
		from = start + 1
	}
	return hits
}

func indexRunes(hay, needle []rune) int {
	n := len(needle)
	for i := 0; i+n <= len(hay); i++ {
		if hay[i] != needle[0] {
			continue
		}
		j := 1
		for j < n && hay[i+j] == needle[j] {
			j++
		}
		if j == n {
			return i
		}
	}
	return -1
}
