package features

import "strings"

// Vocabulary is the ordered list of symptom tokens a classifier was trained
// on. Position i is feature column i, so the order must never change while
// the classifier is loaded.
type Vocabulary struct {
	tokens []string
	index  map[string]int
}

// Vector is a binary indicator vector over a Vocabulary.
type Vector []float64

// NewVocabulary trims tokens and drops blanks and repeats, keeping the first
// occurrence of each.
func NewVocabulary(tokens []string) *Vocabulary {
	v := &Vocabulary{
		tokens: make([]string, 0, len(tokens)),
		index:  make(map[string]int, len(tokens)),
	}
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, exists := v.index[tok]; exists {
			continue
		}
		v.index[tok] = len(v.tokens)
		v.tokens = append(v.tokens, tok)
	}
	return v
}

// Tokens returns a copy of the ordered tokens.
func (v *Vocabulary) Tokens() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.tokens)
}

// Index returns the column of token, or -1.
func (v *Vocabulary) Index(token string) int {
	if v == nil {
		return -1
	}
	if i, ok := v.index[token]; ok {
		return i
	}
	return -1
}

func (v *Vocabulary) Contains(token string) bool {
	return v.Index(token) >= 0
}

// Filter keeps the recognized tokens that belong to the vocabulary, in their
// original order.
func (v *Vocabulary) Filter(recognized []string) []string {
	out := make([]string, 0, len(recognized))
	for _, tok := range recognized {
		if v.Contains(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// Vectorize sets column i to 1 when token i is among recognized. Tokens
// outside the vocabulary are ignored.
func (v *Vocabulary) Vectorize(recognized []string) Vector {
	vec := make(Vector, v.Len())
	for _, tok := range recognized {
		if i := v.Index(tok); i >= 0 {
			vec[i] = 1
		}
	}
	return vec
}

// Decode is the inverse of Vectorize: it lists the tokens whose column is set,
// in vocabulary order.
func (v *Vocabulary) Decode(vec Vector) []string {
	out := make([]string, 0)
	for i, x := range vec {
		if i >= v.Len() {
			break
		}
		if x > 0 {
			out = append(out, v.tokens[i])
		}
	}
	return out
}
