package world

import "researchsim/internal/tech"

const maxMemories = 500

type Person struct {
	name      string
	alive     bool
	skills    map[string]float64
	traits    map[string]float64
	relations map[string]tech.Relationship
	memories  []tech.Memory
}

var _ tech.Agent = (*Person)(nil)

func NewPerson(spec PersonSpec) *Person {
	relations := make(map[string]tech.Relationship, len(spec.Relationships))
	for peer, label := range spec.Relationships {
		relations[peer] = tech.Relationship(label)
	}
	return &Person{
		name:      spec.Name,
		alive:     !spec.Dead,
		skills:    copyLevels(spec.Skills),
		traits:    copyLevels(spec.Traits),
		relations: relations,
	}
}

func (p *Person) Name() string { return p.name }
func (p *Person) Alive() bool  { return p.alive }

func (p *Person) SkillLevel(skill string) (float64, bool) {
	level, ok := p.skills[skill]
	return level, ok
}

func (p *Person) Trait(name string) (float64, bool) {
	v, ok := p.traits[name]
	return v, ok
}

func (p *Person) Relationship(peer string) tech.Relationship {
	if rel, ok := p.relations[peer]; ok {
		return rel
	}
	return tech.RelationshipStranger
}

// Remember keeps the most recent memories only.
func (p *Person) Remember(m tech.Memory) {
	p.memories = append(p.memories, m)
	if len(p.memories) > maxMemories {
		p.memories = append([]tech.Memory(nil), p.memories[len(p.memories)-maxMemories:]...)
	}
}

func (p *Person) Memories() []tech.Memory {
	return append([]tech.Memory(nil), p.memories...)
}

func (p *Person) Die() {
	p.alive = false
}

type Group struct {
	name    string
	kind    tech.GroupKind
	members []string
}

var _ tech.Group = (*Group)(nil)

func (g *Group) Name() string         { return g.name }
func (g *Group) Kind() tech.GroupKind { return g.kind }
func (g *Group) Members() []string    { return append([]string(nil), g.members...) }

func copyLevels(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
