// Package ranking turns classifier output into a localized, ranked result.
package ranking

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/themobileprof/symptomchat-be/internal/classifier"
)

const (
	// DefaultK is the number of candidates shown.
	DefaultK = 3
	// DefaultMarker introduces the common-symptom list inside a description.
	DefaultMarker = "Triệu chứng thường gặp"
	// DefaultNoDescription is shown when a disease has no description.
	DefaultNoDescription = "Chưa có mô tả cho bệnh này."
)

// Candidate is one ranked disease with its display data.
type Candidate struct {
	Label          string   `json:"label"`
	Disease        string   `json:"disease"`
	Probability    float64  `json:"prob"`
	Description    string   `json:"description,omitempty"`
	CommonSymptoms []string `json:"common_symptoms,omitempty"`
	Precautions    []string `json:"precautions,omitempty"`
}

// Result is the enriched answer for one prediction. The top-level fields
// describe the best label; Top repeats them for every ranked candidate.
type Result struct {
	Label          string      `json:"label"`
	Disease        string      `json:"disease"`
	Symptoms       []string    `json:"symptoms"`
	Top            []Candidate `json:"top"`
	Description    string      `json:"description"`
	CommonSymptoms []string    `json:"common_symptoms"`
	Precautions    []string    `json:"precautions"`
}

// Enricher supplies per-disease display data.
type Enricher interface {
	Name(label string) string
	Description(label string) (string, bool)
	CommonSymptoms(label string) []string
	Precautions(label string) []string
}

// Synonyms supplies the display phrase for a canonical symptom.
type Synonyms interface {
	First(canonical string) (string, bool)
}

// TopK returns the k most probable labels, highest first. Equal
// probabilities keep the classifier's label order and NaN ranks last.
func TopK(probs []float64, labels []string, k int) []Candidate {
	n := len(probs)
	if len(labels) < n {
		n = len(labels)
	}
	if k <= 0 || n == 0 {
		return []Candidate{}
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return higher(probs[idx[a]], probs[idx[b]])
	})

	if k > n {
		k = n
	}
	out := make([]Candidate, k)
	for i := 0; i < k; i++ {
		j := idx[i]
		label := strings.TrimSpace(labels[j])
		out[i] = Candidate{Label: label, Disease: label, Probability: probs[j]}
	}
	return out
}

func higher(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	return a > b || math.IsNaN(b)
}

// SplitDescription splits text at the first case-insensitive occurrence of
// marker. found is false when the marker does not occur, in which case
// before is the whole text.
func SplitDescription(text, marker string) (before string, after []string, found bool) {
	src := []rune(text)
	m := []rune(marker)
	at := indexFold(src, m)
	if len(m) == 0 || at < 0 {
		return strings.TrimSpace(text), []string{}, false
	}

	before = strings.TrimSpace(string(src[:at]))
	rest := strings.TrimSpace(string(src[at+len(m):]))
	rest = strings.TrimPrefix(rest, ":")

	after = []string{}
	for _, part := range strings.Split(rest, ",") {
		if part = strings.TrimSpace(part); part != "" {
			after = append(after, part)
		}
	}
	return before, after, true
}

func indexFold(s, sub []rune) int {
	if len(sub) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j, r := range sub {
			if unicode.ToLower(s[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i
	}
	return -1
}

// Projector enriches classifier output for display. The zero value uses
// the package defaults and no enrichment.
type Projector struct {
	Catalog       Enricher
	Lexicon       Synonyms
	K             int
	Marker        string
	NoDescription string
}

// Project builds the result for output, with recognized symptoms localized
// for display.
func (p Projector) Project(output classifier.Output, recognized []string) Result {
	k := p.K
	if k <= 0 {
		k = DefaultK
	}

	res := Result{
		Label:    strings.TrimSpace(output.Label),
		Symptoms: p.localize(recognized),
		Top:      []Candidate{},
	}

	if output.HasProbabilities() {
		res.Top = TopK(output.Probabilities, output.Classes, k)
		if len(res.Top) > 0 {
			res.Label = res.Top[0].Label
		}
		for i := range res.Top {
			c := &res.Top[i]
			c.Disease = p.name(c.Label)
			c.Description, c.CommonSymptoms = p.describe(c.Label)
			c.Precautions = p.precautions(c.Label)
		}
	}

	res.Disease = p.name(res.Label)
	res.Description, res.CommonSymptoms = p.describe(res.Label)
	res.Precautions = p.precautions(res.Label)
	return res
}

func (p Projector) precautions(label string) []string {
	if p.Catalog == nil {
		return []string{}
	}
	if pre := p.Catalog.Precautions(label); pre != nil {
		return pre
	}
	return []string{}
}

func (p Projector) name(label string) string {
	if p.Catalog == nil {
		return label
	}
	return p.Catalog.Name(label)
}

func (p Projector) describe(label string) (string, []string) {
	placeholder := p.NoDescription
	if placeholder == "" {
		placeholder = DefaultNoDescription
	}
	marker := p.Marker
	if marker == "" {
		marker = DefaultMarker
	}

	common := []string{}
	if p.Catalog == nil {
		return placeholder, common
	}
	if list := p.Catalog.CommonSymptoms(label); list != nil {
		common = list
	}

	text, ok := p.Catalog.Description(label)
	if !ok || strings.TrimSpace(text) == "" {
		return placeholder, common
	}

	before, after, found := SplitDescription(text, marker)
	if found && len(after) > 0 {
		common = after
	}
	if before == "" {
		before = placeholder
	}
	return before, common
}

func (p Projector) localize(recognized []string) []string {
	out := make([]string, 0, len(recognized))
	for _, sym := range recognized {
		if p.Lexicon != nil {
			if first, ok := p.Lexicon.First(sym); ok && first != "" {
				out = append(out, first)
				continue
			}
		}
		out = append(out, sym)
	}
	return out
}
