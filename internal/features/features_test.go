package features

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewVocabulary(t *testing.T) {
	v := NewVocabulary([]string{" itching ", "skin_rash", "", "itching", "cough"})

	if got, want := v.Tokens(), []string{"itching", "skin_rash", "cough"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokens() = %v, want %v", got, want)
	}
	if v.Index("cough") != 2 || v.Index("fever") != -1 {
		t.Errorf("Index mismatch: cough=%d fever=%d", v.Index("cough"), v.Index("fever"))
	}
}

func TestVectorize(t *testing.T) {
	v := NewVocabulary([]string{"itching", "skin_rash", "cough", "high_fever"})

	got := v.Vectorize([]string{"cough", "itching", "not_a_symptom", "cough"})
	want := Vector{1, 0, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Vectorize() = %v, want %v", got, want)
	}

	if empty := v.Vectorize(nil); len(empty) != 4 {
		t.Errorf("Vectorize(nil) length = %d, want 4", len(empty))
	}
}

func TestVectorizeDecode_RoundTrip(t *testing.T) {
	tokens := []string{"a", "b", "c", "d", "e"}
	v := NewVocabulary(tokens)

	// every subset of the vocabulary
	for mask := 0; mask < 1<<len(tokens); mask++ {
		var subset []string
		for i, tok := range tokens {
			if mask&(1<<i) != 0 {
				subset = append(subset, tok)
			}
		}

		vec := v.Vectorize(subset)
		for i, tok := range tokens {
			inSubset := mask&(1<<i) != 0
			if (vec[i] == 1) != inSubset {
				t.Fatalf("mask %b: column %d (%s) = %v", mask, i, tok, vec[i])
			}
		}

		decoded := v.Decode(vec)
		if len(subset) == 0 {
			if len(decoded) != 0 {
				t.Fatalf("mask %b: Decode() = %v, want empty", mask, decoded)
			}
			continue
		}
		if !reflect.DeepEqual(decoded, subset) {
			t.Fatalf("mask %b: Decode() = %v, want %v", mask, decoded, subset)
		}
	}
}

func TestFilter(t *testing.T) {
	v := NewVocabulary([]string{"cough", "itching"})
	got := v.Filter([]string{"itching", "fever", "cough"})
	if want := []string{"itching", "cough"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
}

func TestResolve_PrefersMeta(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "meta.json")
	csvPath := filepath.Join(dir, "Training.csv")

	meta := &Meta{
		LabelCol:    "prognosis",
		SymptomCols: []string{"cough", "itching"},
		Metrics:     map[string]float64{"accuracy": 0.97},
	}
	if err := SaveMeta(metaPath, meta); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	writeFile(t, csvPath, "itching,cough,prognosis\n1,0,Allergy\n")

	vocab, loaded, err := Resolve(metaPath, csvPath, DefaultLabelColumn)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got, want := vocab.Tokens(), []string{"cough", "itching"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
	if loaded == nil || loaded.Metrics["accuracy"] != 0.97 {
		t.Errorf("meta not returned: %+v", loaded)
	}
}

func TestResolve_FallsBackToDatasetHeader(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "Training.csv")
	writeFile(t, csvPath, "\ufeffitching, skin_rash ,prognosis,\n1,0,Fungal infection,\n")

	vocab, meta, err := Resolve(filepath.Join(dir, "missing.json"), csvPath, DefaultLabelColumn)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta != nil {
		t.Errorf("meta = %+v, want nil", meta)
	}
	if got, want := vocab.Tokens(), []string{"itching", "skin_rash"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
}

func TestResolve_NothingAvailable(t *testing.T) {
	dir := t.TempDir()
	vocab, _, err := Resolve(filepath.Join(dir, "meta.json"), filepath.Join(dir, "Training.csv"), DefaultLabelColumn)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
	if vocab.Len() != 0 {
		t.Errorf("vocab.Len() = %d, want 0", vocab.Len())
	}
}

func TestLoadFromDataset_OnlyLabel(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "Training.csv")
	writeFile(t, csvPath, "prognosis\nFlu\n")

	if _, err := LoadFromDataset(csvPath, DefaultLabelColumn); !errors.Is(err, ErrNoColumns) {
		t.Errorf("err = %v, want ErrNoColumns", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
