// Package catalog holds per-disease enrichment: localized names,
// descriptions, common symptoms and precautions.
package catalog

import (
	"errors"
	"log"
	"os"
	"path/filepath"
)

// File names inside the data directory.
const (
	NamesFile       = "disease_vi.json"
	DescriptionFile = "symptom_Description.csv"
	CommonFile      = "common_symptoms.csv"
	PrecautionFile  = "symptom_precaution.csv"
)

// Catalog is read-only after Load.
type Catalog struct {
	names        map[string]string
	descriptions map[string]string
	common       map[string][]string
	precautions  map[string][]string
}

// New builds a catalog from already loaded maps. Nil maps are allowed.
func New(names, descriptions map[string]string, common, precautions map[string][]string) *Catalog {
	return &Catalog{
		names:        names,
		descriptions: descriptions,
		common:       common,
		precautions:  precautions,
	}
}

// Load reads the four enrichment files from dir. A missing file is skipped
// and a corrupt one is logged; either way that part of the catalog stays
// empty.
func Load(dir string) *Catalog {
	c := &Catalog{}

	var err error
	if c.names, err = LoadNames(filepath.Join(dir, NamesFile)); err != nil {
		logLoadError("disease names", err)
	}
	if c.descriptions, err = LoadDescriptions(filepath.Join(dir, DescriptionFile)); err != nil {
		logLoadError("disease descriptions", err)
	}
	if c.common, err = LoadCommonSymptoms(filepath.Join(dir, CommonFile)); err != nil {
		logLoadError("common symptoms", err)
	}
	if c.precautions, err = LoadPrecautions(filepath.Join(dir, PrecautionFile)); err != nil {
		logLoadError("precautions", err)
	}

	log.Printf("✅ Catalog loaded: %d names, %d descriptions, %d common symptom lists, %d precaution lists",
		len(c.names), len(c.descriptions), len(c.common), len(c.precautions))
	return c
}

func logLoadError(what string, err error) {
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  No %s file, continuing without", what)
		return
	}
	log.Printf("Warning: Failed to load %s: %v", what, err)
}

// Name returns the localized disease name, or label itself.
func (c *Catalog) Name(label string) string {
	if c != nil {
		if name, ok := c.names[label]; ok && name != "" {
			return name
		}
	}
	return label
}

// Description returns the disease description if one is known.
func (c *Catalog) Description(label string) (string, bool) {
	if c == nil {
		return "", false
	}
	d, ok := c.descriptions[label]
	return d, ok
}

// CommonSymptoms returns a copy of the common symptom list for label.
func (c *Catalog) CommonSymptoms(label string) []string {
	if c == nil {
		return []string{}
	}
	return clone(c.common[label])
}

// Precautions returns a copy of the precautions for label.
func (c *Catalog) Precautions(label string) []string {
	if c == nil {
		return []string{}
	}
	return clone(c.precautions[label])
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
