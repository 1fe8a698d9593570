package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed rules/rulebook.yaml
var embeddedRulebook []byte

// rulebookFile is the YAML document shape of a rulebook.
type rulebookFile struct {
	Attributes []AttributeSpec `yaml:"attributes"`
}

// Load parses the embedded rulebook into a Catalog.
func Load() (*Catalog, error) {
	return parse(embeddedRulebook)
}

// LoadFile parses a rulebook from disk. Used when config names a
// rulebook_path override; otherwise the embedded rulebook is canonical.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rulebook %s: %w", path, err)
	}
	cat, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("rulebook %s: %w", path, err)
	}
	return cat, nil
}

func parse(data []byte) (*Catalog, error) {
	var file rulebookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rulebook YAML: %w", err)
	}
	if len(file.Attributes) == 0 {
		return nil, fmt.Errorf("rulebook contains no attributes")
	}
	return New(file.Attributes)
}
