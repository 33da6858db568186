package tech

import (
	"fmt"
	"sort"
	"strings"
)

type Category string

const (
	CategorySurvival     Category = "survival"
	CategoryCrafting     Category = "crafting"
	CategoryAgriculture  Category = "agriculture"
	CategoryMedicine     Category = "medicine"
	CategorySocial       Category = "social"
	CategorySpiritual    Category = "spiritual"
	CategoryMilitary     Category = "military"
	CategoryTrade        Category = "trade"
	CategoryConstruction Category = "construction"
	CategoryKnowledge    Category = "knowledge"
)

var Categories = []Category{
	CategorySurvival, CategoryCrafting, CategoryAgriculture, CategoryMedicine, CategorySocial,
	CategorySpiritual, CategoryMilitary, CategoryTrade, CategoryConstruction, CategoryKnowledge,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Definition is the static description of a technology as authored in a catalog.
type Definition struct {
	ID              string             `yaml:"id" json:"id"`
	Name            string             `yaml:"name" json:"name"`
	Description     string             `yaml:"description,omitempty" json:"description,omitempty"`
	Category        Category           `yaml:"category" json:"category"`
	Prerequisites   []string           `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`
	RequiredSkills  map[string]float64 `yaml:"required_skills,omitempty" json:"required_skills,omitempty"`
	Complexity      float64            `yaml:"complexity" json:"complexity"`
	DiscoveryChance float64            `yaml:"discovery_chance" json:"discovery_chance"`
	Benefits        map[string]float64 `yaml:"benefits,omitempty" json:"benefits,omitempty"`
	UnlockActions   []string           `yaml:"unlock_actions,omitempty" json:"unlock_actions,omitempty"`
}

func (d Definition) clone() Definition {
	out := d
	out.Prerequisites = append([]string(nil), d.Prerequisites...)
	out.UnlockActions = append([]string(nil), d.UnlockActions...)
	out.RequiredSkills = cloneLevels(d.RequiredSkills)
	out.Benefits = cloneLevels(d.Benefits)
	return out
}

type Discovery struct {
	Day        int    `json:"day"`
	Discoverer string `json:"discoverer"`
}

type Technology struct {
	Definition
	discovery *Discovery
}

func (t *Technology) Discovered() bool {
	return t.discovery != nil
}

func (t *Technology) Discovery() (Discovery, bool) {
	if t.discovery == nil {
		return Discovery{}, false
	}
	return *t.discovery, true
}

// Catalog is the technology DAG. Prerequisites always point at technologies
// registered earlier, so registration order is a topological order.
type Catalog struct {
	techs   map[string]*Technology
	order   []string
	unlocks map[string][]string
}

func NewCatalog() *Catalog {
	return &Catalog{
		techs:   make(map[string]*Technology),
		unlocks: make(map[string][]string),
	}
}

// BuildCatalog registers definitions in dependency order regardless of the
// order they were authored in.
func BuildCatalog(defs []Definition) (*Catalog, error) {
	catalog := NewCatalog()
	pending := make([]Definition, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("technology %q has no id", def.Name)
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("duplicate technology id %q", def.ID)
		}
		seen[def.ID] = true
		pending = append(pending, def)
	}

	for len(pending) > 0 {
		var rest []Definition
		for _, def := range pending {
			if !catalog.Register(def) {
				rest = append(rest, def)
			}
		}
		if len(rest) == len(pending) {
			ids := make([]string, 0, len(rest))
			for _, def := range rest {
				ids = append(ids, def.ID)
			}
			sort.Strings(ids)
			return nil, fmt.Errorf("unresolvable prerequisites for %s", strings.Join(ids, ", "))
		}
		pending = rest
	}
	return catalog, nil
}

// Register adds a definition only when every prerequisite is already present.
func (c *Catalog) Register(def Definition) bool {
	if def.ID == "" {
		return false
	}
	if _, exists := c.techs[def.ID]; exists {
		return false
	}
	for _, prereq := range def.Prerequisites {
		if _, ok := c.techs[prereq]; !ok {
			return false
		}
	}
	def = def.clone()
	if def.Name == "" {
		def.Name = def.ID
	}
	c.techs[def.ID] = &Technology{Definition: def}
	c.order = append(c.order, def.ID)
	for _, prereq := range def.Prerequisites {
		c.unlocks[prereq] = append(c.unlocks[prereq], def.ID)
	}
	return true
}

func (c *Catalog) Get(id string) (*Technology, bool) {
	t, ok := c.techs[id]
	return t, ok
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// IDs returns technology ids in registration order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

func (c *Catalog) Technologies() []*Technology {
	out := make([]*Technology, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.techs[id])
	}
	return out
}

// Unlocks lists the technologies that name id as a direct prerequisite.
func (c *Catalog) Unlocks(id string) []string {
	return append([]string(nil), c.unlocks[id]...)
}

// IsEligible reports whether a holder of known may pursue id.
func (c *Catalog) IsEligible(id string, known Set) bool {
	t, ok := c.techs[id]
	if !ok {
		return false
	}
	return known.Covers(t.Prerequisites)
}

// MarkDiscovered records the first discovery of id. Later calls are no-ops, and
// a technology whose prerequisites are still undiscovered is refused.
func (c *Catalog) MarkDiscovered(id string, day int, discoverer string) bool {
	t, ok := c.techs[id]
	if !ok || t.discovery != nil {
		return false
	}
	for _, prereq := range t.Prerequisites {
		if !c.techs[prereq].Discovered() {
			return false
		}
	}
	t.discovery = &Discovery{Day: day, Discoverer: discoverer}
	return true
}

func (c *Catalog) Discovered(id string) bool {
	t, ok := c.techs[id]
	return ok && t.Discovered()
}

// Available lists undiscovered technologies eligible for known, in catalog order.
func (c *Catalog) Available(known Set) []string {
	var out []string
	for _, id := range c.order {
		t := c.techs[id]
		if t.Discovered() || !known.Covers(t.Prerequisites) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func cloneLevels(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
