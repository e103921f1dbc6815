package listing

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog embed.FS

// Category is a selectable listing category.
type Category struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Package describes a pricing tier as shown on the first step.
type Package struct {
	Tier        Tier   `json:"tier" yaml:"tier"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
	Price       string `json:"price" yaml:"price"`
	Icon        string `json:"icon,omitempty" yaml:"icon"`
}

// Catalog holds the presentation data for the first step plus optional
// overrides for validation messages keyed by field name.
type Catalog struct {
	Categories   []Category        `json:"categories" yaml:"categories"`
	Packages     []Package         `json:"packages" yaml:"packages"`
	SelectedIcon string            `json:"selectedIcon,omitempty" yaml:"selectedIcon"`
	Messages     map[string]string `json:"messages,omitempty" yaml:"messages"`
}

// DefaultCatalog returns the catalog bundled with the module.
func DefaultCatalog() Catalog {
	catalog, err := LoadCatalog(embeddedCatalog, "catalog.yaml")
	if err != nil {
		panic(err)
	}
	return catalog
}

// LoadCatalog reads a JSON or YAML catalog document from fsys.
func LoadCatalog(fsys fs.FS, path string) (Catalog, error) {
	if fsys == nil {
		return Catalog{}, fmt.Errorf("listing: catalog filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Catalog{}, fmt.Errorf("listing: read catalog %s: %w", path, err)
	}
	return ParseCatalog(data, path)
}

// ParseCatalog decodes raw catalog bytes. JSON is tried first, then YAML.
func ParseCatalog(data []byte, source string) (Catalog, error) {
	if strings.TrimSpace(string(data)) == "" {
		return Catalog{}, fmt.Errorf("listing: catalog %s is empty", source)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		catalog = Catalog{}
		if yamlErr := yaml.Unmarshal(data, &catalog); yamlErr != nil {
			return Catalog{}, fmt.Errorf("listing: parse catalog %s: invalid JSON or YAML: %w", source, yamlErr)
		}
	}

	if err := catalog.normalise(source); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

func (c *Catalog) normalise(source string) error {
	seen := make(map[string]struct{}, len(c.Categories))
	for idx, category := range c.Categories {
		value := strings.TrimSpace(category.Value)
		if value == "" {
			return fmt.Errorf("listing: catalog %s category %d has an empty value", source, idx)
		}
		if _, dup := seen[value]; dup {
			return fmt.Errorf("listing: catalog %s defines duplicate category %q", source, value)
		}
		seen[value] = struct{}{}
		c.Categories[idx].Value = value
		if strings.TrimSpace(category.Label) == "" {
			c.Categories[idx].Label = value
		}
	}

	tiers := make(map[Tier]struct{}, len(c.Packages))
	for idx, pkg := range c.Packages {
		tier, err := ParseTier(string(pkg.Tier))
		if err != nil {
			return fmt.Errorf("listing: catalog %s package %d: %w", source, idx, err)
		}
		if _, dup := tiers[tier]; dup {
			return fmt.Errorf("listing: catalog %s defines duplicate package %q", source, tier)
		}
		tiers[tier] = struct{}{}
		c.Packages[idx].Tier = tier
		c.Packages[idx].Icon = strings.TrimSpace(pkg.Icon)
	}
	c.SelectedIcon = strings.TrimSpace(c.SelectedIcon)
	return nil
}

// CategoryLabel returns the display label for value, falling back to value.
func (c Catalog) CategoryLabel(value string) string {
	for _, category := range c.Categories {
		if category.Value == value {
			return category.Label
		}
	}
	return value
}

// Package returns the package entry for tier.
func (c Catalog) Package(tier Tier) (Package, bool) {
	for _, pkg := range c.Packages {
		if pkg.Tier == tier {
			return pkg, true
		}
	}
	return Package{}, false
}
