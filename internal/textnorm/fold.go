package textnorm

// Folded is accent-folded text that remembers which source rune every folded
// rune came from. A span found in the folded text can therefore be projected
// back onto the accent-preserving text it was derived from.
type Folded struct {
	Runes  []rune
	source []int
	length int
}

// Fold strips accents from text one rune at a time. The result equals
// StripAccents(text) for precomposed input; standalone combining marks fold to
// nothing and are skipped in the mapping.
func Fold(text string) Folded {
	src := []rune(text)
	f := Folded{
		Runes:  make([]rune, 0, len(src)),
		source: make([]int, 0, len(src)),
		length: len(src),
	}

	for i, r := range src {
		if r < 0x80 {
			f.Runes = append(f.Runes, r)
			f.source = append(f.source, i)
			continue
		}
		for _, fr := range StripAccents(string(r)) {
			f.Runes = append(f.Runes, fr)
			f.source = append(f.source, i)
		}
	}

	return f
}

// String returns the folded text.
func (f Folded) String() string {
	return string(f.Runes)
}

// SourceSpan maps the folded rune range [start, end) onto the source rune
// range it covers.
func (f Folded) SourceSpan(start, end int) (int, int) {
	if start >= end || start < 0 || end > len(f.source) {
		return 0, 0
	}
	return f.source[start], f.source[end-1] + 1
}

// SourceLen is the rune length of the text Fold was called with.
func (f Folded) SourceLen() int {
	return f.length
}
