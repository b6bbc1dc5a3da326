package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Dataset is a labelled symptom table.
type Dataset struct {
	Columns []string
	X       [][]float64
	Y       []string
}

// ReadDataset loads a CSV with a header row and a label column. When columns is
// empty the feature columns are every header column except the label, in
// header order. Otherwise rows are reindexed to columns and absent columns
// read as 0.
func ReadDataset(path, labelCol string, columns []string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return readDataset(f, labelCol, columns)
}

func readDataset(r io.Reader, labelCol string, columns []string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	position := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[i] = h
		if _, dup := position[h]; !dup {
			position[h] = i
		}
	}

	labelAt, ok := position[labelCol]
	if !ok {
		return nil, fmt.Errorf("dataset has no %q column", labelCol)
	}

	if len(columns) == 0 {
		for i, h := range header {
			if i != labelAt && h != "" {
				columns = append(columns, h)
			}
		}
	}

	source := make([]int, len(columns))
	for j, col := range columns {
		if i, ok := position[col]; ok && i != labelAt {
			source[j] = i
		} else {
			source[j] = -1
		}
	}

	ds := &Dataset{Columns: columns}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset line %d: %w", line, err)
		}
		if labelAt >= len(record) {
			return nil, fmt.Errorf("dataset line %d: missing label", line)
		}

		row := make([]float64, len(columns))
		for j, i := range source {
			if i < 0 || i >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset line %d column %q: %w", line, columns[j], err)
			}
			row[j] = v
		}

		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, strings.TrimSpace(record[labelAt]))
	}

	if len(ds.X) == 0 {
		return nil, ErrEmptyDataset
	}
	return ds, nil
}
