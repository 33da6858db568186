package tech

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	name      string
	dead      bool
	skills    map[string]float64
	traits    map[string]float64
	relations map[string]Relationship
	memories  []Memory
	explode   bool
}

func (a *fakeAgent) Name() string { return a.name }
func (a *fakeAgent) Alive() bool  { return !a.dead }

func (a *fakeAgent) SkillLevel(skill string) (float64, bool) {
	if a.explode {
		panic("corrupt skill table for " + a.name)
	}
	level, ok := a.skills[skill]
	return level, ok
}

func (a *fakeAgent) Trait(name string) (float64, bool) {
	v, ok := a.traits[name]
	return v, ok
}

func (a *fakeAgent) Relationship(peer string) Relationship {
	if rel, ok := a.relations[peer]; ok {
		return rel
	}
	return RelationshipStranger
}

func (a *fakeAgent) Remember(m Memory) {
	a.memories = append(a.memories, m)
}

type fakeGroup struct {
	name    string
	kind    GroupKind
	members []string
}

func (g *fakeGroup) Name() string      { return g.name }
func (g *fakeGroup) Kind() GroupKind   { return g.kind }
func (g *fakeGroup) Members() []string { return g.members }

func agent(name string, skills map[string]float64) *fakeAgent {
	return &fakeAgent{name: name, skills: skills}
}

func population(agents []*fakeAgent, groups ...*fakeGroup) *Population {
	as := make([]Agent, 0, len(agents))
	for _, a := range agents {
		as = append(as, a)
	}
	gs := make([]Group, 0, len(groups))
	for _, g := range groups {
		gs = append(gs, g)
	}
	return NewPopulation(as, gs)
}

// quietRates pins every jitter to 1 and every background roll to 0 so a test
// can switch on exactly the behaviour it exercises.
func quietRates() Rates {
	r := DefaultRates()
	r.DiscoveryPeriodDays = 1e12
	r.RequiredJitter = Range{Min: 1, Max: 1}
	r.RateJitter = Range{Min: 1, Max: 1}
	r.ProgressJitter = Range{Min: 1, Max: 1}
	r.BreakthroughLadder = []float64{0, 0, 0, 0}
	r.LeadAbsentAbandon = 0
	r.InitiateChance = 0
	r.GroupSponsorChance = 0
	r.InnovationChance = 0
	r.TeachChance = 0
	r.InstitutionChance = 0
	r.GoalChance = 0
	r.SabotageChance = 0
	r.FailureBase = 0
	r.FailureComplexity = 0
	r.ConflictChance = 0
	r.EscalateChance = 0
	r.DeescalateChance = 0
	r.ResolveChance = 0
	return r
}

func mustCatalog(t *testing.T, defs ...Definition) *Catalog {
	t.Helper()
	c, err := BuildCatalog(defs)
	require.NoError(t, err)
	return c
}

func eventsOf(reports []DayReport, kind EventKind) []Event {
	var out []Event
	for _, r := range reports {
		for _, e := range r.Events {
			if e.Kind == kind {
				out = append(out, e)
			}
		}
	}
	return out
}

func runDays(s *System, pop *Population, from, to int) []DayReport {
	var out []DayReport
	for day := from; day <= to; day++ {
		out = append(out, s.Day(day, pop))
	}
	return out
}

func frontierDefs() []Definition {
	return []Definition{
		{ID: "fire_making", Category: CategorySurvival, RequiredSkills: map[string]float64{"survival": 0.3}, Complexity: 0.2, DiscoveryChance: 0.3, Benefits: map[string]float64{"cooking": 2.0, "warmth": 1.5}},
		{ID: "stone_tools", Category: CategoryCrafting, RequiredSkills: map[string]float64{"crafting": 0.4}, Complexity: 0.3, DiscoveryChance: 0.25, Benefits: map[string]float64{"tool_efficiency": 1.5, "hunting": 1.2}},
		{ID: "rope_making", Category: CategoryCrafting, RequiredSkills: map[string]float64{"crafting": 0.5}, Complexity: 0.4, DiscoveryChance: 0.2, Benefits: map[string]float64{"tool_efficiency": 1.2}},
		{ID: "pottery", Category: CategoryCrafting, Prerequisites: []string{"fire_making"}, RequiredSkills: map[string]float64{"crafting": 0.6}, Complexity: 0.5, DiscoveryChance: 0.1, Benefits: map[string]float64{"storage": 1.5}},
		{ID: "metalworking", Category: CategoryCrafting, Prerequisites: []string{"fire_making", "stone_tools"}, RequiredSkills: map[string]float64{"crafting": 0.8}, Complexity: 0.8, DiscoveryChance: 0.05, Benefits: map[string]float64{"tool_efficiency": 2.0}},
		{ID: "construction_basic", Category: CategoryConstruction, Prerequisites: []string{"stone_tools", "rope_making"}, RequiredSkills: map[string]float64{"crafting": 0.6}, Complexity: 0.5, DiscoveryChance: 0.1},
	}
}
