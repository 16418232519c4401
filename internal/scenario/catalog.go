package scenario

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ctma/internal/logging"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Catalog is an ordered, read-only set of bundles.
type Catalog struct {
	bundles []Bundle
	byID    map[string]int
}

type catalogFile struct {
	Scenarios []Bundle `yaml:"scenarios"`
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	c, err := Parse(embeddedCatalog)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return c, nil
}

// LoadFile reads an operator-supplied catalog with the embedded schema.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Catalog("loaded %d scenarios from %s", c.Len(), path)
	return c, nil
}

// Open returns the catalog at path, or the embedded one when path is empty.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Parse decodes and validates a catalog document. Every bundle needs a
// non-empty unique id and a Low/Medium/High expected risk level.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("catalog has no scenarios")
	}

	c := &Catalog{
		bundles: make([]Bundle, 0, len(f.Scenarios)),
		byID:    make(map[string]int, len(f.Scenarios)),
	}
	for i, b := range f.Scenarios {
		b.ID = strings.TrimSpace(b.ID)
		if b.ID == "" {
			return nil, fmt.Errorf("scenario %d: missing scenario_id", i)
		}
		if _, dup := c.byID[b.ID]; dup {
			return nil, fmt.Errorf("scenario %d: duplicate scenario_id %q", i, b.ID)
		}
		level := ParseRiskLevel(string(b.ExpectedRiskLevel))
		if !level.Valid() {
			return nil, fmt.Errorf("scenario %q: invalid expected_risk_level %q", b.ID, b.ExpectedRiskLevel)
		}
		b.ExpectedRiskLevel = level
		c.byID[b.ID] = len(c.bundles)
		c.bundles = append(c.bundles, b)
	}
	return c, nil
}

// List returns the bundles in catalog order.
func (c *Catalog) List() []Bundle {
	out := make([]Bundle, len(c.bundles))
	copy(out, c.bundles)
	return out
}

// Get looks a bundle up by id.
func (c *Catalog) Get(id string) (Bundle, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Bundle{}, false
	}
	return c.bundles[i], true
}

// GetOrFirst returns the bundle for id, falling back to the first bundle.
func (c *Catalog) GetOrFirst(id string) Bundle {
	if b, ok := c.Get(id); ok {
		return b
	}
	return c.First()
}

// First returns the first bundle. Parse guarantees there is one.
func (c *Catalog) First() Bundle { return c.bundles[0] }

// Len returns the number of bundles.
func (c *Catalog) Len() int { return len(c.bundles) }

// IDs returns the bundle ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.bundles))
	for i, b := range c.bundles {
		ids[i] = b.ID
	}
	return ids
}
