package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Filters holds the term lists used by the filter engine. Matching is a plain
// case-insensitive substring test, so accented and unaccented spellings must
// both be listed.
type Filters struct {
	ExcludedAreas  []string `yaml:"excluded_areas"`
	ExcludedFloors []string `yaml:"excluded_floors"`
	ExcludedTerms  []string `yaml:"excluded_terms"`
	HighlightTerms []string `yaml:"highlight_terms"`
}

// DefaultFilters returns the Barcelona rental defaults.
func DefaultFilters() Filters {
	return Filters{
		ExcludedAreas: []string{"Raval", "Gòtic", "Gotico", "Gótico", "Gotic"},
		ExcludedFloors: []string{
			"Bajo", "Entreplanta", "Planta 1ª",
			"Semi-sótano", "Semisótano", "Sótano",
		},
		ExcludedTerms: []string{
			"de temporada", "alquiler temporal", "por meses", "corta estancia",
			"estancia corta", "short term", "seasonal",
		},
		HighlightTerms: []string{
			"ático", "atico", "àtic", "penthouse", "buhardilla",
		},
	}
}

// LoadFilters decodes a YAML filters file.
func LoadFilters(path string) (Filters, error) {
	var f Filters

	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("config: read filters file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("config: parse filters file %q: %w", path, err)
	}
	return f, nil
}

// Merge returns f with every list that other sets replaced by other's list.
func (f Filters) Merge(other Filters) Filters {
	if other.ExcludedAreas != nil {
		f.ExcludedAreas = other.ExcludedAreas
	}
	if other.ExcludedFloors != nil {
		f.ExcludedFloors = other.ExcludedFloors
	}
	if other.ExcludedTerms != nil {
		f.ExcludedTerms = other.ExcludedTerms
	}
	if other.HighlightTerms != nil {
		f.HighlightTerms = other.HighlightTerms
	}
	return f
}
