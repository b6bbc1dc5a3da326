package features

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLabelColumn is the dataset column holding the disease label.
const DefaultLabelColumn = "prognosis"

var ErrNoColumns = errors.New("no symptom columns found")

// Meta is the metadata persisted next to a trained classifier.
type Meta struct {
	LabelCol    string             `json:"label_col"`
	SymptomCols []string           `json:"symptom_cols"`
	Metrics     map[string]float64 `json:"metrics"`
}

// LoadMeta reads training metadata from path.
func LoadMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read meta %s: %w", path, err)
	}

	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse meta %s: %w", path, err)
	}
	if m.Metrics == nil {
		m.Metrics = map[string]float64{}
	}
	return &m, nil
}

// SaveMeta writes metadata as indented JSON, keeping non-ASCII text readable.
func SaveMeta(path string, m *Meta) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create meta dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create meta %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode meta: %w", err)
	}
	return nil
}

// ReadHeader returns the trimmed header row of a CSV file.
func ReadHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	header := make([]string, len(row))
	for i, cell := range row {
		header[i] = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
	}
	return header, nil
}

// LoadFromDataset derives the vocabulary from a training dataset header,
// dropping blank columns and the label column.
func LoadFromDataset(path, labelCol string) (*Vocabulary, error) {
	header, err := ReadHeader(path)
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(header))
	for _, col := range header {
		if col == "" || col == labelCol {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	return NewVocabulary(cols), nil
}

// Resolve returns the classifier vocabulary, preferring the persisted training
// metadata and falling back to the dataset header. The returned meta is nil
// when metadata could not be read.
func Resolve(metaPath, datasetPath, labelCol string) (*Vocabulary, *Meta, error) {
	meta, err := LoadMeta(metaPath)
	if err != nil {
		log.Printf("⚠️  Training metadata unavailable: %v", err)
	}
	if meta != nil && len(meta.SymptomCols) > 0 {
		return NewVocabulary(meta.SymptomCols), meta, nil
	}

	if meta != nil && meta.LabelCol != "" {
		labelCol = meta.LabelCol
	}
	vocab, err := LoadFromDataset(datasetPath, labelCol)
	if err != nil {
		return NewVocabulary(nil), meta, err
	}
	log.Printf("Vocabulary derived from dataset header: %d columns", vocab.Len())
	return vocab, meta, nil
}
