// Package bootstrap loads the prediction resources once at startup.
package bootstrap

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/themobileprof/symptomchat-be/internal/catalog"
	"github.com/themobileprof/symptomchat-be/internal/chat"
	"github.com/themobileprof/symptomchat-be/internal/classifier"
	"github.com/themobileprof/symptomchat-be/internal/features"
	"github.com/themobileprof/symptomchat-be/internal/lexicon"
)

// Artifact and dataset file names
const (
	ModelFile    = "model.gob"
	MetaFile     = "meta.json"
	TrainingFile = "Training.csv"
	TestingFile  = "Testing.csv"
	LexiconFile  = "vn_lexicon.json"
)

// Config locates the resources on disk
type Config struct {
	DataDir      string
	ArtifactsDir string
	LexiconPath  string // defaults to DataDir/vn_lexicon.json
	LabelColumn  string // defaults to features.DefaultLabelColumn
}

func (c Config) lexiconPath() string {
	if c.LexiconPath != "" {
		return c.LexiconPath
	}
	return filepath.Join(c.DataDir, LexiconFile)
}

func (c Config) labelColumn() string {
	if c.LabelColumn != "" {
		return c.LabelColumn
	}
	return features.DefaultLabelColumn
}

// Load reads every resource. Failures are logged and leave that resource
// empty; the returned Resources report whether predictions can be served.
func Load(cfg Config) *chat.Resources {
	lex, err := lexicon.Load(cfg.lexiconPath())
	if err != nil {
		log.Printf("Warning: Failed to load lexicon: %v", err)
	} else {
		log.Printf("✅ Loaded lexicon: %d symptoms", lex.Len())
	}

	vocab, meta, err := features.Resolve(
		filepath.Join(cfg.ArtifactsDir, MetaFile),
		filepath.Join(cfg.DataDir, TrainingFile),
		cfg.labelColumn(),
	)
	if err != nil {
		log.Printf("Warning: Failed to load symptom vocabulary: %v", err)
	} else {
		log.Printf("✅ Loaded vocabulary: %d symptoms", vocab.Len())
	}

	set := chat.ResourceSet{
		Vocabulary: vocab,
		Lexicon:    lex,
		Catalog:    catalog.Load(cfg.DataDir),
		Meta:       meta,
	}

	model, err := classifier.Load(filepath.Join(cfg.ArtifactsDir, ModelFile))
	if err != nil {
		log.Printf("Warning: Failed to load model: %v", err)
	} else {
		set.Classifier = model
		log.Printf("✅ Loaded model: %d classes, %d features", len(model.Classes()), model.NumFeatures())
	}

	res := chat.NewResources(set)
	if !res.Ready() {
		log.Printf("⚠️  Predictions disabled: %s", strings.Join(res.Problems(), "; "))
	}
	return res
}
