package chat

import (
	"fmt"

	"github.com/themobileprof/symptomchat-be/internal/catalog"
	"github.com/themobileprof/symptomchat-be/internal/classifier"
	"github.com/themobileprof/symptomchat-be/internal/features"
	"github.com/themobileprof/symptomchat-be/internal/lexicon"
	"github.com/themobileprof/symptomchat-be/internal/symptoms"
)

// ResourceSet is the raw material for Resources. Any field may be nil.
type ResourceSet struct {
	Vocabulary *features.Vocabulary
	Lexicon    *lexicon.Lexicon
	Classifier classifier.Classifier
	Catalog    *catalog.Catalog
	Meta       *features.Meta
}

// Resources is everything a prediction needs. It is built once at startup
// and never modified, so it can be shared across requests without locking.
type Resources struct {
	vocabulary *features.Vocabulary
	lexicon    *lexicon.Lexicon
	classifier classifier.Classifier
	catalog    *catalog.Catalog
	meta       *features.Meta
	extractor  *symptoms.Extractor
	problems   []string
}

// NewResources checks set for readiness and precomputes the extractor.
// Missing pieces are replaced by empty values.
func NewResources(set ResourceSet) *Resources {
	r := &Resources{
		vocabulary: set.Vocabulary,
		lexicon:    set.Lexicon,
		classifier: set.Classifier,
		catalog:    set.Catalog,
		meta:       set.Meta,
	}
	if r.vocabulary == nil {
		r.vocabulary = features.NewVocabulary(nil)
	}
	if r.lexicon == nil {
		r.lexicon = lexicon.New()
	}
	if r.catalog == nil {
		r.catalog = catalog.New(nil, nil, nil, nil)
	}

	if r.classifier == nil {
		r.problems = append(r.problems, "classifier not loaded")
	}
	if r.vocabulary.Len() == 0 {
		r.problems = append(r.problems, "symptom vocabulary is empty")
	}
	if s, ok := r.classifier.(classifier.Sized); ok && r.vocabulary.Len() > 0 && s.NumFeatures() != r.vocabulary.Len() {
		r.problems = append(r.problems, fmt.Sprintf("classifier expects %d features, vocabulary has %d",
			s.NumFeatures(), r.vocabulary.Len()))
	}

	r.extractor = symptoms.NewExtractor(r.vocabulary.Tokens(), r.lexicon)
	return r
}

// Ready reports whether predictions may be served.
func (r *Resources) Ready() bool {
	return r != nil && len(r.problems) == 0
}

// Problems lists why the resources are not ready.
func (r *Resources) Problems() []string {
	if r == nil {
		return []string{"resources not loaded"}
	}
	out := make([]string, len(r.problems))
	copy(out, r.problems)
	return out
}

func (r *Resources) Vocabulary() *features.Vocabulary  { return r.vocabulary }
func (r *Resources) Lexicon() *lexicon.Lexicon         { return r.lexicon }
func (r *Resources) Catalog() *catalog.Catalog         { return r.catalog }
func (r *Resources) Classifier() classifier.Classifier { return r.classifier }

// Meta returns the training metadata, or nil when none was loaded.
func (r *Resources) Meta() *features.Meta { return r.meta }
