package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/themobileprof/symptomchat-be/internal/bootstrap"
	"github.com/themobileprof/symptomchat-be/internal/classifier"
	"github.com/themobileprof/symptomchat-be/internal/features"
)

type config struct {
	dataDir      string
	artifactsDir string
	labelCol     string
	alpha        float64
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config{
		dataDir:      getEnv("DATA_DIR", "data"),
		artifactsDir: getEnv("ARTIFACTS_DIR", "artifacts"),
		labelCol:     getEnv("LABEL_COLUMN", features.DefaultLabelColumn),
		alpha:        classifier.DefaultAlpha,
	}
	if v := getEnv("NB_ALPHA", ""); v != "" {
		alpha, err := strconv.ParseFloat(v, 64)
		if err != nil || alpha <= 0 {
			log.Fatalf("Invalid NB_ALPHA %q", v)
		}
		cfg.alpha = alpha
	}

	meta, err := train(cfg)
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	log.Printf("✅ Model saved to %s", filepath.Join(cfg.artifactsDir, bootstrap.ModelFile))
	log.Printf("✅ Metadata saved to %s (%d symptom columns)", filepath.Join(cfg.artifactsDir, bootstrap.MetaFile), len(meta.SymptomCols))
	for name, score := range meta.Metrics {
		log.Printf("   %s = %.4f", name, score)
	}
}

// train fits a model on the training set, evaluates it on the testing set
// when one exists, and writes both artifacts.
func train(cfg config) (*features.Meta, error) {
	trainPath := filepath.Join(cfg.dataDir, bootstrap.TrainingFile)
	ds, err := classifier.ReadDataset(trainPath, cfg.labelCol, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read training data: %w", err)
	}
	log.Printf("Training on %d rows, %d symptom columns", len(ds.X), len(ds.Columns))

	model, err := classifier.Fit(ds.X, ds.Y, cfg.alpha)
	if err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}
	log.Printf("Fitted %d classes", len(model.Classes()))

	metrics := map[string]float64{}
	testPath := filepath.Join(cfg.dataDir, bootstrap.TestingFile)
	if _, err := os.Stat(testPath); err == nil {
		testSet, err := classifier.ReadDataset(testPath, cfg.labelCol, ds.Columns)
		if err != nil {
			return nil, fmt.Errorf("failed to read testing data: %w", err)
		}
		scores, err := classifier.Evaluate(model, testSet)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate model: %w", err)
		}
		metrics = scores.Map()
	} else if errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  %s not found, skipping evaluation", testPath)
	} else {
		return nil, fmt.Errorf("failed to stat testing data: %w", err)
	}

	if err := os.MkdirAll(cfg.artifactsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts dir: %w", err)
	}
	if err := model.Save(filepath.Join(cfg.artifactsDir, bootstrap.ModelFile)); err != nil {
		return nil, err
	}

	meta := &features.Meta{
		LabelCol:    cfg.labelCol,
		SymptomCols: ds.Columns,
		Metrics:     metrics,
	}
	if err := features.SaveMeta(filepath.Join(cfg.artifactsDir, bootstrap.MetaFile), meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
