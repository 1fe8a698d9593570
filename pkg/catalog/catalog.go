// Package catalog provides the attribute rulebook: a static, profile-partitioned
// table of Merchant Center attribute definitions loaded once at startup.
package catalog

import (
	"fmt"
	"sort"
)

// Importance is the severity class an attribute's absence implies.
type Importance string

const (
	ImportanceRequired    Importance = "required"
	ImportanceConditional Importance = "conditional"
	ImportanceRecommended Importance = "recommended"
	ImportanceOptional    Importance = "optional"
)

// Known feed profiles.
const (
	ProfileGeneral        = "general"
	ProfileApparel        = "apparel"
	ProfileLocalInventory = "local_inventory"
)

// Trigger describes the condition under which a conditional attribute
// becomes required, e.g. availability == preorder.
type Trigger struct {
	Attribute string `yaml:"attribute" json:"attribute"`
	Equals    string `yaml:"equals" json:"equals"`
}

// AttributeSpec defines one attribute's constraints. Immutable after load.
// The same attribute name may appear in several specs with disjoint profile
// sets when its importance differs per profile (e.g. color is required for
// apparel but optional for general).
type AttributeSpec struct {
	Name         string     `yaml:"name" json:"name"`
	Importance   Importance `yaml:"importance" json:"importance"`
	Profiles     []string   `yaml:"profiles" json:"profiles"`
	Description  string     `yaml:"description" json:"description"`
	Syntax       string     `yaml:"syntax,omitempty" json:"syntax,omitempty"`
	Examples     []string   `yaml:"examples,omitempty" json:"examples,omitempty"`
	Format       string     `yaml:"format,omitempty" json:"format,omitempty"`
	MaxLength    int        `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	MaxItems     int        `yaml:"max_items,omitempty" json:"max_items,omitempty"`
	RequiredWhen *Trigger   `yaml:"required_when,omitempty" json:"required_when,omitempty"`
}

// appliesTo reports whether the spec is active for the given profile.
func (s *AttributeSpec) appliesTo(profile string) bool {
	for _, p := range s.Profiles {
		if p == profile {
			return true
		}
	}
	return false
}

// Catalog is the loaded rulebook. No mutation after New.
type Catalog struct {
	specs     []AttributeSpec
	byProfile map[string][]AttributeSpec
}

// New builds a Catalog from a spec list, preserving order. Fails if an
// attribute name appears more than once within any single profile.
func New(specs []AttributeSpec) (*Catalog, error) {
	byProfile := make(map[string][]AttributeSpec)
	seen := make(map[string]map[string]bool) // profile -> name -> present

	for i := range specs {
		spec := &specs[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("rulebook entry %d has no name", i)
		}
		if spec.Importance == "" {
			return nil, fmt.Errorf("attribute %q has no importance", spec.Name)
		}
		switch spec.Importance {
		case ImportanceRequired, ImportanceConditional, ImportanceRecommended, ImportanceOptional:
		default:
			return nil, fmt.Errorf("attribute %q has unknown importance %q", spec.Name, spec.Importance)
		}
		if spec.Importance == ImportanceConditional && spec.RequiredWhen == nil {
			return nil, fmt.Errorf("conditional attribute %q has no required_when trigger", spec.Name)
		}
		if len(spec.Profiles) == 0 {
			return nil, fmt.Errorf("attribute %q applies to no profiles", spec.Name)
		}
		for _, profile := range spec.Profiles {
			if seen[profile] == nil {
				seen[profile] = make(map[string]bool)
			}
			if seen[profile][spec.Name] {
				return nil, fmt.Errorf("attribute %q defined twice for profile %q", spec.Name, profile)
			}
			seen[profile][spec.Name] = true
			byProfile[profile] = append(byProfile[profile], *spec)
		}
	}

	return &Catalog{specs: specs, byProfile: byProfile}, nil
}

// Normalize maps an unknown or empty profile name to the general profile.
// An unknown profile is not an error anywhere in the service.
func (c *Catalog) Normalize(profile string) string {
	if profile == "" {
		return ProfileGeneral
	}
	if _, ok := c.byProfile[profile]; !ok {
		return ProfileGeneral
	}
	return profile
}

// Lookup returns the ordered attribute specs applicable to the profile.
// Unknown or empty profiles fall back to general. The returned slice is a
// copy; callers may not mutate catalog state.
func (c *Catalog) Lookup(profile string) []AttributeSpec {
	specs := c.byProfile[c.Normalize(profile)]
	out := make([]AttributeSpec, len(specs))
	copy(out, specs)
	return out
}

// Profiles returns the sorted list of profiles the rulebook covers.
func (c *Catalog) Profiles() []string {
	profiles := make([]string, 0, len(c.byProfile))
	for p := range c.byProfile {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)
	return profiles
}

// Len returns the number of rulebook entries.
func (c *Catalog) Len() int {
	return len(c.specs)
}
