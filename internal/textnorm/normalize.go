package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiPunct mirrors the ASCII punctuation set, including symbols such as
// $ + < = > ^ ` | ~ that unicode.IsPunct does not report.
const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Normalize lowercases text, folds underscores and punctuation to spaces and
// collapses whitespace. It is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	t := norm.NFC.String(strings.ToLower(text))
	t = strings.Map(func(r rune) rune {
		if r == '_' || isPunct(r) {
			return ' '
		}
		return r
	}, t)

	return strings.Join(strings.Fields(t), " ")
}

func isPunct(r rune) bool {
	if r < 0x80 {
		return strings.ContainsRune(asciiPunct, r)
	}
	return unicode.IsPunct(r)
}

// StripAccents removes combining marks after canonical decomposition and folds
// the Vietnamese đ/Đ, which has no decomposition, to d/D.
func StripAccents(text string) string {
	if text == "" {
		return ""
	}

	// transform.Chain keeps internal buffers, so it is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, text)
	if err != nil {
		result = text
	}

	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(result)
}
