package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

type taxonomyFile struct {
	Categories []model.Category `yaml:"categories"`
}

// DefaultTaxonomy returns the built-in category taxonomy.
func DefaultTaxonomy() ([]model.Category, error) {
	return ParseTaxonomy(defaultTaxonomyYAML)
}

// LoadTaxonomy reads a taxonomy from a YAML file on disk.
func LoadTaxonomy(path string) ([]model.Category, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes a YAML taxonomy document.
func ParseTaxonomy(data []byte) ([]model.Category, error) {
	var file taxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}

	seen := make(map[string]bool, len(file.Categories))
	for _, cat := range file.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("%w: category with empty name", common.ErrInvalidConfig)
		}
		if seen[cat.Name] {
			return nil, fmt.Errorf("%w: duplicate category %q", common.ErrInvalidConfig, cat.Name)
		}
		seen[cat.Name] = true
		for _, sub := range cat.Subcategories {
			if sub.Name == "" {
				return nil, fmt.Errorf("%w: empty subcategory in %q", common.ErrInvalidConfig, cat.Name)
			}
		}
	}
	return file.Categories, nil
}
