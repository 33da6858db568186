package world

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"researchsim/internal/tech"
)

type File struct {
	Version       int             `yaml:"version"`
	Mortality     float64         `yaml:"mortality"`
	Agents        []PersonSpec    `yaml:"agents"`
	Groups        []GroupSpec     `yaml:"groups"`
	SeedKnowledge []KnowledgeSeed `yaml:"seed_knowledge"`
}

type PersonSpec struct {
	Name          string             `yaml:"name"`
	Dead          bool               `yaml:"dead,omitempty"`
	Skills        map[string]float64 `yaml:"skills"`
	Traits        map[string]float64 `yaml:"traits,omitempty"`
	Relationships map[string]string  `yaml:"relationships,omitempty"`
}

type GroupSpec struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Members []string `yaml:"members"`
}

type KnowledgeSeed struct {
	Agent      string  `yaml:"agent"`
	Technology string  `yaml:"technology"`
	Level      float64 `yaml:"level"`
}

// World is the in-memory population the CLI feeds to the engine each day.
type World struct {
	people    []*Person
	byName    map[string]*Person
	groups    []*Group
	mortality float64
	seeds     []KnowledgeSeed
}

func Load(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	return w, nil
}

func Parse(data []byte) (*World, error) {
	file, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return New(file)
}

func Decode(data []byte) (File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, err
	}
	return file, nil
}

func New(file File) (*World, error) {
	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported version: %d", file.Version)
	}
	if file.Mortality < 0 || file.Mortality > 1 {
		return nil, fmt.Errorf("mortality must be between 0 and 1, got %f", file.Mortality)
	}

	w := &World{
		byName:    make(map[string]*Person, len(file.Agents)),
		mortality: file.Mortality,
		seeds:     file.SeedKnowledge,
	}
	for i, spec := range file.Agents {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, fmt.Errorf("agent %d name is required", i)
		}
		if _, exists := w.byName[spec.Name]; exists {
			return nil, fmt.Errorf("duplicate agent name: %s", spec.Name)
		}
		p := NewPerson(spec)
		w.people = append(w.people, p)
		w.byName[spec.Name] = p
	}

	groups := make(map[string]struct{})
	for i, spec := range file.Groups {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, fmt.Errorf("group %d name is required", i)
		}
		key := strings.ToLower(spec.Name)
		if _, exists := groups[key]; exists {
			return nil, fmt.Errorf("duplicate group name: %s", spec.Name)
		}
		groups[key] = struct{}{}
		if _, exists := w.byName[spec.Name]; exists {
			return nil, fmt.Errorf("group %s shares a name with an agent", spec.Name)
		}

		kind := tech.GroupKind(strings.ToLower(spec.Kind))
		switch kind {
		case tech.GroupInstitution, tech.GroupGuild, tech.GroupOther:
		case "":
			kind = tech.GroupOther
		default:
			return nil, fmt.Errorf("group %s has unknown kind: %s", spec.Name, spec.Kind)
		}
		for _, member := range spec.Members {
			if _, ok := w.byName[member]; !ok {
				return nil, fmt.Errorf("group %s references unknown agent: %s", spec.Name, member)
			}
		}
		w.groups = append(w.groups, &Group{name: spec.Name, kind: kind, members: append([]string(nil), spec.Members...)})
	}

	for _, seed := range file.SeedKnowledge {
		if _, ok := w.byName[seed.Agent]; !ok {
			return nil, fmt.Errorf("seed knowledge references unknown agent: %s", seed.Agent)
		}
	}
	return w, nil
}

// Population snapshots the world for one engine tick.
func (w *World) Population() *tech.Population {
	agents := make([]tech.Agent, 0, len(w.people))
	for _, p := range w.people {
		agents = append(agents, p)
	}
	groups := make([]tech.Group, 0, len(w.groups))
	for _, g := range w.groups {
		groups = append(groups, g)
	}
	return tech.NewPopulation(agents, groups)
}

func (w *World) People() []*Person {
	return append([]*Person(nil), w.people...)
}

func (w *World) Person(name string) (*Person, bool) {
	p, ok := w.byName[name]
	return p, ok
}

func (w *World) Groups() []*Group {
	return append([]*Group(nil), w.groups...)
}

// Seed grants the world's starting knowledge through the engine.
func (w *World) Seed(s *tech.System) error {
	for _, seed := range w.seeds {
		level := seed.Level
		if level == 0 {
			level = 1
		}
		if err := s.Seed(seed.Agent, seed.Technology, level, 0); err != nil {
			return fmt.Errorf("seeding world: %w", err)
		}
	}
	return nil
}

// Age rolls daily mortality for every living person and returns who died.
func (w *World) Age(src tech.Source) []string {
	if w.mortality <= 0 {
		return nil
	}
	var died []string
	for _, p := range w.people {
		if !p.Alive() {
			continue
		}
		if src.Float64() < w.mortality {
			p.Die()
			died = append(died, p.Name())
		}
	}
	return died
}
