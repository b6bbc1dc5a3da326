package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, NamesFile, `{"Common Cold": "Cảm lạnh", "Allergy": "Dị ứng"}`)
	writeFile(t, dir, DescriptionFile, "disease,description\nCommon Cold,\"Bệnh do virus. Triệu chứng thường gặp: ho, sổ mũi\"\n")
	writeFile(t, dir, CommonFile, "disease,common_symptoms\nAllergy,\"hắt hơi, , ngứa mắt \"\n")
	writeFile(t, dir, PrecautionFile, "Disease,Precaution_1,Precaution_2,Precaution_3\nCommon Cold,nghỉ ngơi,,uống nhiều nước\n")

	c := Load(dir)

	if got := c.Name("Common Cold"); got != "Cảm lạnh" {
		t.Errorf("Name = %q", got)
	}
	if got := c.Name("Malaria"); got != "Malaria" {
		t.Errorf("Name fallback = %q", got)
	}
	if d, ok := c.Description("Common Cold"); !ok || d != "Bệnh do virus. Triệu chứng thường gặp: ho, sổ mũi" {
		t.Errorf("Description = %q, %v", d, ok)
	}
	if _, ok := c.Description("Allergy"); ok {
		t.Error("Allergy should have no description")
	}
	if got := c.CommonSymptoms("Allergy"); !reflect.DeepEqual(got, []string{"hắt hơi", "ngứa mắt"}) {
		t.Errorf("CommonSymptoms = %q", got)
	}
	if got := c.Precautions("Common Cold"); !reflect.DeepEqual(got, []string{"nghỉ ngơi", "uống nhiều nước"}) {
		t.Errorf("Precautions = %q", got)
	}
	if got := c.Precautions("Allergy"); got == nil || len(got) != 0 {
		t.Errorf("Precautions for unknown = %#v, want empty", got)
	}
}

func TestLoad_MissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, NamesFile, `{"broken": `)
	writeFile(t, dir, DescriptionFile, "name,text\nx,y\n")

	c := Load(dir)

	if got := c.Name("Allergy"); got != "Allergy" {
		t.Errorf("Name = %q", got)
	}
	if _, ok := c.Description("x"); ok {
		t.Error("description should be empty")
	}
	if got := c.CommonSymptoms("x"); len(got) != 0 {
		t.Errorf("CommonSymptoms = %v", got)
	}
}

func TestLoaders_Errors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "none.csv")

	if _, err := LoadNames(missing); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadNames error = %v", err)
	}
	if _, err := LoadDescriptions(missing); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadDescriptions error = %v", err)
	}
	if _, err := LoadPrecautions(missing); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadPrecautions error = %v", err)
	}
}

func TestCopiesAreIndependent(t *testing.T) {
	c := New(nil, nil, map[string][]string{"a": {"x"}}, nil)

	got := c.CommonSymptoms("a")
	got[0] = "mutated"

	if c.CommonSymptoms("a")[0] != "x" {
		t.Error("CommonSymptoms leaked internal slice")
	}
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	if c.Name("a") != "a" {
		t.Error("nil Name should echo label")
	}
	if _, ok := c.Description("a"); ok {
		t.Error("nil Description should be absent")
	}
	if len(c.Precautions("a")) != 0 {
		t.Error("nil Precautions should be empty")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a, b ,c", []string{"a", "b", "c"}},
		{"", []string{}},
		{" , ,", []string{}},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
