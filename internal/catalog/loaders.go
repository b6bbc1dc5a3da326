package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadNames reads a JSON object mapping disease label to localized name.
func LoadNames(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]string{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	raw := map[string]string{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[string]string{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	names := make(map[string]string, len(raw))
	for label, name := range raw {
		names[strings.TrimSpace(label)] = strings.TrimSpace(name)
	}
	return names, nil
}

// LoadDescriptions reads a CSV with "disease" and "description" columns.
func LoadDescriptions(path string) (map[string]string, error) {
	out := map[string]string{}
	err := readKeyed(path, "disease", "description", func(disease, value string) {
		out[disease] = value
	})
	if err != nil {
		return map[string]string{}, err
	}
	return out, nil
}

// LoadCommonSymptoms reads a CSV with "disease" and "common_symptoms"
// columns; the latter is a comma separated list.
func LoadCommonSymptoms(path string) (map[string][]string, error) {
	out := map[string][]string{}
	err := readKeyed(path, "disease", "common_symptoms", func(disease, value string) {
		out[disease] = SplitList(value)
	})
	if err != nil {
		return map[string][]string{}, err
	}
	return out, nil
}

// LoadPrecautions reads a headed CSV whose first cell is the disease and
// whose remaining non-empty cells are precautions.
func LoadPrecautions(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return map[string][]string{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	out := map[string][]string{}
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		return map[string][]string{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return map[string][]string{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if len(row) == 0 {
			continue
		}
		disease := strings.TrimSpace(row[0])
		items := []string{}
		for _, cell := range row[1:] {
			if cell = strings.TrimSpace(cell); cell != "" {
				items = append(items, cell)
			}
		}
		out[disease] = items
	}
	return out, nil
}

// SplitList splits a comma separated list, trimming items and dropping
// empty ones.
func SplitList(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func readKeyed(path, keyCol, valueCol string, fn func(key, value string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	keyAt, valueAt := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case keyCol:
			keyAt = i
		case valueCol:
			valueAt = i
		}
	}
	if keyAt < 0 || valueAt < 0 {
		return fmt.Errorf("%s: expected columns %q and %q", path, keyCol, valueCol)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if keyAt >= len(row) || valueAt >= len(row) {
			continue
		}
		fn(strings.TrimSpace(row[keyAt]), strings.TrimSpace(row[valueAt]))
	}
}
