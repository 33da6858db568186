package tech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loomDefs() []Definition {
	return []Definition{{
		ID:             "loom",
		Name:           "Loom",
		Category:       CategoryCrafting,
		RequiredSkills: map[string]float64{"crafting": 0, "engineering": 0},
		Complexity:     0.1,
	}}
}

func TestProjectCompletesOnFifthTick(t *testing.T) {
	s := New(mustCatalog(t, loomDefs()...), WithRates(quietRates()), WithSeed(7))
	lead := agent("ayla", map[string]float64{"crafting": 1, "engineering": 1})
	helpers := []*fakeAgent{
		agent("brun", map[string]float64{"crafting": 0.5, "engineering": 0.5}),
		agent("creb", map[string]float64{"crafting": 0.5, "engineering": 0.5}),
	}
	pop := population(append([]*fakeAgent{lead}, helpers...))

	p := s.Projects.Initiate("loom", "ayla", "", 0)
	require.NotNil(t, p)
	require.True(t, s.Projects.AddCollaborator(p.ID, "brun"))
	require.True(t, s.Projects.AddCollaborator(p.ID, "creb"))
	assert.False(t, s.Projects.AddCollaborator(p.ID, "brun"), "duplicate collaborator")
	assert.InDelta(t, 10.0, p.Required, 1e-9)

	reports := runDays(s, pop, 1, 4)
	assert.Equal(t, StatusInProgress, p.Status)
	assert.InDelta(t, 9.6, p.Progress, 1e-9)

	reports = append(reports, runDays(s, pop, 5, 12)...)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, 5, p.EndDay)

	discovered := eventsOf(reports, EventTechnologyDiscovered)
	require.Len(t, discovered, 1)
	assert.Equal(t, 5, discovered[0].Day)
	assert.Equal(t, p.ID, discovered[0].Ref)

	assert.Equal(t, 1.0, s.Knowledge.Level("ayla", "loom"))
	assert.Equal(t, 0.8, s.Knowledge.Level("brun", "loom"))
	assert.Equal(t, 0.8, s.Knowledge.Level("creb", "loom"))
	require.NotEmpty(t, lead.memories)
	assert.Equal(t, "achievement", lead.memories[len(lead.memories)-1].Kind)
}

func TestInitiateIneligible(t *testing.T) {
	s := New(mustCatalog(t, frontierDefs()...), WithRates(quietRates()))

	assert.Nil(t, s.Projects.Initiate("pottery", "ayla", "", 0), "prerequisite unknown to lead")
	assert.Nil(t, s.Projects.Initiate("warp_drive", "ayla", "", 0), "unknown technology")

	require.NotNil(t, s.Projects.Initiate("fire_making", "ayla", "", 0))
	assert.Nil(t, s.Projects.Initiate("fire_making", "brun", "", 0), "second active project")

	require.NoError(t, s.Seed("brun", "stone_tools", 1, 0))
	assert.Nil(t, s.Projects.Initiate("stone_tools", "brun", "", 0), "already discovered")
}

func TestLeadUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		abandon float64
		want    ProjectStatus
	}{
		{"skips without progress", 0, StatusInProgress},
		{"abandons", 1, StatusAbandoned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates := quietRates()
			rates.LeadAbsentAbandon = tt.abandon
			s := New(mustCatalog(t, frontierDefs()...), WithRates(rates))
			lead := agent("ayla", map[string]float64{"survival": 1})
			lead.dead = true

			p := s.Projects.Initiate("fire_making", "ayla", "", 0)
			require.NotNil(t, p)
			reports := runDays(s, population([]*fakeAgent{lead}), 1, 3)

			assert.Equal(t, tt.want, p.Status)
			assert.Zero(t, p.Progress)
			abandoned := eventsOf(reports, EventResearchAbandoned)
			if tt.want == StatusAbandoned {
				require.Len(t, abandoned, 1)
				assert.Equal(t, ReasonLeadUnavailable, abandoned[0].Detail["reason"])
				assert.Equal(t, 1, p.EndDay)
			} else {
				assert.Empty(t, abandoned)
			}
		})
	}
}

func TestProjectSupersededByDiscovery(t *testing.T) {
	s := New(mustCatalog(t, frontierDefs()...), WithRates(quietRates()))
	p := s.Projects.Initiate("fire_making", "ayla", "", 0)
	require.NotNil(t, p)
	require.True(t, s.Catalog.MarkDiscovered("fire_making", 0, "brun"))

	reports := runDays(s, population([]*fakeAgent{agent("ayla", nil)}), 1, 1)
	assert.Equal(t, StatusAbandoned, p.Status)
	assert.Equal(t, ReasonSuperseded, p.EndReason)
	assert.Empty(t, eventsOf(reports, EventTechnologyDiscovered))
}

func TestBreakthroughAddsProgress(t *testing.T) {
	rates := quietRates()
	rates.BreakthroughLadder = []float64{1, 1, 1, 1}
	s := New(mustCatalog(t, frontierDefs()...), WithRates(rates))
	p := s.Projects.Initiate("metalworking", "ayla", "", 0)
	assert.Nil(t, p)

	require.NoError(t, s.Seed("ayla", "fire_making", 1, 0))
	require.NoError(t, s.Seed("ayla", "stone_tools", 1, 0))
	p = s.Projects.Initiate("metalworking", "ayla", "", 0)
	require.NotNil(t, p)

	reports := runDays(s, population([]*fakeAgent{agent("ayla", map[string]float64{"crafting": 0.8})}), 1, 1)
	assert.InDelta(t, 1+p.Required*0.3, p.Progress, 1e-9)
	require.Len(t, eventsOf(reports, EventResearchBreakthrough), 1)
}

func TestGroupSponsorPicksBestLead(t *testing.T) {
	rates := quietRates()
	rates.GroupSponsorChance = 1
	s := New(mustCatalog(t, Definition{ID: "pottery_wheel", Category: CategoryCrafting, RequiredSkills: map[string]float64{"crafting": 0.5}, Complexity: 0.9}), WithRates(rates))

	members := []*fakeAgent{
		agent("ayla", map[string]float64{"crafting": 0.6}),
		agent("brun", map[string]float64{"crafting": 0.9}),
		agent("creb", map[string]float64{"crafting": 0.7}),
		agent("durc", map[string]float64{"crafting": 0.2}),
	}
	guild := &fakeGroup{name: "potters", kind: GroupGuild, members: []string{"ayla", "brun", "creb", "durc"}}
	reports := runDays(s, population(members, guild), 1, 1)

	started := eventsOf(reports, EventGroupResearchInitiated)
	require.Len(t, started, 1)
	assert.Equal(t, "brun", started[0].Actor)
	assert.Equal(t, "potters", started[0].Group)

	p := s.Projects.ActiveFor("pottery_wheel")
	require.NotNil(t, p)
	assert.Equal(t, []string{"creb", "ayla"}, p.Collaborators)
	assert.Equal(t, "potters", p.Sponsor)
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, canTransition(StatusNotStarted, StatusInProgress))
	assert.True(t, canTransition(StatusInProgress, StatusCompleted))
	assert.True(t, canTransition(StatusBlocked, StatusInProgress))
	for _, terminal := range []ProjectStatus{StatusCompleted, StatusAbandoned} {
		for _, to := range []ProjectStatus{StatusNotStarted, StatusInProgress, StatusCompleted, StatusAbandoned, StatusBlocked} {
			assert.False(t, canTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}
