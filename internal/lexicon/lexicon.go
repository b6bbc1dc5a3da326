package lexicon

import (
	"fmt"
	"sort"

	"github.com/themobileprof/symptomchat-be/internal/textnorm"
)

// RawEntry is one canonical symptom as read from the synonym resource, in
// resource order. Value is whatever the resource held for the key; only list
// values are used.
type RawEntry struct {
	Canonical string
	Value     interface{}
}

// Pair maps an accent-folded, normalized synonym to its canonical symptom.
type Pair struct {
	Folded    string
	Canonical string
}

// Lexicon maps canonical symptoms to normalized Vietnamese phrase variants.
// It is immutable once built and safe for concurrent readers.
type Lexicon struct {
	// canonical -> normalized synonyms, resource order
	synonyms   map[string][]string
	canonicals []string

	// folded synonym -> canonical, first-insertion order
	reverse      []Pair
	reverseIndex map[string]int
}

// New returns an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		synonyms:     make(map[string][]string),
		reverseIndex: make(map[string]int),
	}
}

// Build constructs a lexicon from raw entries.
//
// Entries whose value is not a list are skipped. Every synonym is normalized
// and empty results are dropped; a canonical with no surviving synonym is
// dropped entirely. When two canonicals share a folded synonym the one
// processed later wins.
func Build(entries []RawEntry) *Lexicon {
	lex := New()

	for _, entry := range entries {
		items, ok := asList(entry.Value)
		if !ok {
			continue
		}

		syns := make([]string, 0, len(items))
		for _, item := range items {
			raw, ok := scalarString(item)
			if !ok {
				continue
			}
			if s := textnorm.Normalize(raw); s != "" {
				syns = append(syns, s)
			}
		}
		if len(syns) == 0 {
			continue
		}

		if _, exists := lex.synonyms[entry.Canonical]; !exists {
			lex.canonicals = append(lex.canonicals, entry.Canonical)
		}
		lex.synonyms[entry.Canonical] = syns
	}

	for _, canonical := range lex.canonicals {
		for _, syn := range lex.synonyms[canonical] {
			lex.addReverse(textnorm.StripAccents(syn), canonical)
		}
	}

	return lex
}

// FromMap builds a lexicon from an unordered map, processing canonicals in
// sorted order so the overwrite policy stays deterministic.
func FromMap(m map[string][]string) *Lexicon {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]RawEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, RawEntry{Canonical: k, Value: m[k]})
	}
	return Build(entries)
}

func (l *Lexicon) addReverse(folded, canonical string) {
	if folded == "" {
		return
	}
	if idx, exists := l.reverseIndex[folded]; exists {
		l.reverse[idx].Canonical = canonical
		return
	}
	l.reverseIndex[folded] = len(l.reverse)
	l.reverse = append(l.reverse, Pair{Folded: folded, Canonical: canonical})
}

// Reverse returns a copy of the folded synonym index in insertion order.
func (l *Lexicon) Reverse() []Pair {
	if l == nil {
		return nil
	}
	out := make([]Pair, len(l.reverse))
	copy(out, l.reverse)
	return out
}

// Lookup resolves an accent-folded, normalized phrase to its canonical symptom.
func (l *Lexicon) Lookup(folded string) (string, bool) {
	if l == nil {
		return "", false
	}
	idx, ok := l.reverseIndex[folded]
	if !ok {
		return "", false
	}
	return l.reverse[idx].Canonical, true
}

// Synonyms returns the normalized synonyms registered for canonical.
func (l *Lexicon) Synonyms(canonical string) []string {
	if l == nil {
		return nil
	}
	syns := l.synonyms[canonical]
	out := make([]string, len(syns))
	copy(out, syns)
	return out
}

// First returns the first synonym registered for canonical, used as its
// display name.
func (l *Lexicon) First(canonical string) (string, bool) {
	if l == nil {
		return "", false
	}
	syns := l.synonyms[canonical]
	if len(syns) == 0 {
		return "", false
	}
	return syns[0], true
}

// Canonicals lists the canonical symptoms kept, in resource order.
func (l *Lexicon) Canonicals() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.canonicals))
	copy(out, l.canonicals)
	return out
}

// Len is the number of canonical symptoms in the lexicon.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.canonicals)
}

func asList(v interface{}) ([]interface{}, bool) {
	switch list := v.(type) {
	case []interface{}:
		return list, true
	case []string:
		out := make([]interface{}, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// scalarString renders a list item the way a loosely typed resource would:
// strings as-is, numbers and booleans in their text form. Nested values and
// nulls are not synonyms.
func scalarString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64, float32, int, int64, bool:
		return fmt.Sprint(s), true
	default:
		return "", false
	}
}
