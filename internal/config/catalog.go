package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"researchsim/internal/tech"
)

// CatalogFile is the on-disk technology catalog.
type CatalogFile struct {
	Version      int               `yaml:"version"`
	Technologies []tech.Definition `yaml:"technologies"`

	index map[string]*tech.Definition
}

func LoadCatalog(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return catalog, nil
}

func ParseCatalog(data []byte) (*CatalogFile, error) {
	catalog, err := DecodeCatalog(data)
	if err != nil {
		return nil, err
	}
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// DecodeCatalog unmarshals a catalog without validating it, so that a
// consistency report can list every problem at once.
func DecodeCatalog(data []byte) (*CatalogFile, error) {
	var catalog CatalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	catalog.reindex()
	return &catalog, nil
}

// NewCatalogFile wraps definitions compiled from another source, such as
// markdown ingestion, into a validated version 1 catalog file.
func NewCatalogFile(defs []tech.Definition) (*CatalogFile, error) {
	catalog := &CatalogFile{Version: 1, Technologies: defs}
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	catalog.reindex()
	return catalog, nil
}

func (c *CatalogFile) reindex() {
	c.index = make(map[string]*tech.Definition, len(c.Technologies))
	for i := range c.Technologies {
		def := &c.Technologies[i]
		c.index[strings.ToLower(def.ID)] = def
	}
}

func validateCatalog(c *CatalogFile) error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported version: %d", c.Version)
	}
	if len(c.Technologies) == 0 {
		return fmt.Errorf("at least one technology is required")
	}

	ids := make(map[string]struct{})
	for i, def := range c.Technologies {
		if strings.TrimSpace(def.ID) == "" {
			return fmt.Errorf("technology %d id is required", i)
		}
		key := strings.ToLower(def.ID)
		if _, exists := ids[key]; exists {
			return fmt.Errorf("duplicate technology id: %s", def.ID)
		}
		ids[key] = struct{}{}
		if !def.Category.Valid() {
			return fmt.Errorf("technology %s has unknown category: %q", def.ID, def.Category)
		}
	}
	return nil
}

func (c *CatalogFile) Definition(id string) (*tech.Definition, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.index[strings.ToLower(id)]
	return def, ok
}

// Build compiles the file into a live catalog with no discoveries.
func (c *CatalogFile) Build() (*tech.Catalog, error) {
	catalog, err := tech.BuildCatalog(c.Technologies)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	return catalog, nil
}

func (c *CatalogFile) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func WriteCatalog(path string, c *CatalogFile) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}
