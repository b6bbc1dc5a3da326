package lexicon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNotMapping = errors.New("lexicon resource must be a mapping of canonical symptom to synonyms")

// Load reads a synonym resource, choosing the decoder from the file extension.
// .yaml and .yml files are read as YAML, everything else as JSON.
func Load(path string) (*Lexicon, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return LoadJSON(path)
	}
}

// LoadJSON reads a JSON object of canonical symptom -> synonym array. Key
// order is preserved so the overwrite policy follows the file.
func LoadJSON(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return New(), fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}

	entries, err := decodeJSONEntries(data)
	if err != nil {
		return New(), fmt.Errorf("failed to parse lexicon %s: %w", path, err)
	}
	return Build(entries), nil
}

func decodeJSONEntries(data []byte) ([]RawEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotMapping
	}

	var entries []RawEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", keyTok)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}
		entries = append(entries, RawEntry{Canonical: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadYAML reads a YAML mapping of canonical symptom -> synonym list:
//
//	sore_throat:
//	  - đau họng
//	  - họng đau
func LoadYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return New(), fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}

	entries, err := decodeYAMLEntries(data)
	if err != nil {
		return New(), fmt.Errorf("failed to parse lexicon %s: %w", path, err)
	}
	return Build(entries), nil
}

func decodeYAMLEntries(data []byte) ([]RawEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	entries := make([]RawEntry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		var value interface{}
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("value for %q: %w", keyNode.Value, err)
		}
		entries = append(entries, RawEntry{Canonical: keyNode.Value, Value: value})
	}
	return entries, nil
}
