package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchsim/internal/tech"
)

const sample = `version: 1
mortality: 0.5
agents:
  - name: Ayla
    skills: {survival: 0.7}
    traits: {openness: 0.8}
    relationships: {Brun: friend}
  - name: Brun
    skills: {crafting: 0.4}
  - name: Creb
    dead: true
    skills: {wisdom: 0.9}
groups:
  - name: Clan
    kind: Institution
    members: [Ayla, Brun, Creb]
  - name: Wanderers
    members: [Ayla]
seed_knowledge:
  - {agent: Ayla, technology: fire_making}
`

func TestParse(t *testing.T) {
	w, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, w.People(), 3)

	ayla, ok := w.Person("Ayla")
	require.True(t, ok)
	level, ok := ayla.SkillLevel("survival")
	assert.True(t, ok)
	assert.Equal(t, 0.7, level)
	_, ok = ayla.SkillLevel("flying")
	assert.False(t, ok)
	assert.Equal(t, tech.RelationshipFriend, ayla.Relationship("Brun"))
	assert.Equal(t, tech.RelationshipStranger, ayla.Relationship("Creb"))

	creb, _ := w.Person("Creb")
	assert.False(t, creb.Alive())

	groups := w.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, tech.GroupInstitution, groups[0].Kind())
	assert.Equal(t, tech.GroupOther, groups[1].Kind())

	pop := w.Population()
	assert.Len(t, pop.Living(), 2)
	clan, ok := pop.Group("Clan")
	require.True(t, ok)
	assert.Len(t, pop.LivingMembers(clan), 2)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"version", "version: 2\n"},
		{"mortality", "version: 1\nmortality: 2\n"},
		{"nameless agent", "version: 1\nagents:\n  - skills: {a: 1}\n"},
		{"duplicate agent", "version: 1\nagents:\n  - name: A\n  - name: A\n"},
		{"unknown member", "version: 1\nagents:\n  - name: A\ngroups:\n  - name: G\n    members: [B]\n"},
		{"unknown kind", "version: 1\nagents:\n  - name: A\ngroups:\n  - name: G\n    kind: cult\n"},
		{"group named like agent", "version: 1\nagents:\n  - name: A\ngroups:\n  - name: A\n"},
		{"seed for stranger", "version: 1\nagents:\n  - name: A\nseed_knowledge:\n  - {agent: B, technology: x}\n"},
		{"bad yaml", "agents: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestMemoriesAreBounded(t *testing.T) {
	p := NewPerson(PersonSpec{Name: "Ayla"})
	for i := 0; i < maxMemories+10; i++ {
		p.Remember(tech.Memory{Text: "day", Importance: float64(i)})
	}
	memories := p.Memories()
	require.Len(t, memories, maxMemories)
	assert.Equal(t, float64(10), memories[0].Importance)
}

func TestSeedAndAge(t *testing.T) {
	w, err := Parse([]byte(sample))
	require.NoError(t, err)

	catalog, err := tech.BuildCatalog([]tech.Definition{{ID: "fire_making", Category: tech.CategorySurvival}})
	require.NoError(t, err)
	s := tech.New(catalog)
	require.NoError(t, w.Seed(s))
	assert.Equal(t, 1.0, s.Knowledge.Level("Ayla", "fire_making"))

	src := tech.NewRand(3)
	var died []string
	for day := 0; day < 50 && len(died) < 2; day++ {
		died = append(died, w.Age(src)...)
	}
	assert.ElementsMatch(t, []string{"Ayla", "Brun"}, died)
	assert.Empty(t, w.Population().Living())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	_, err := Load(path)
	require.NoError(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
