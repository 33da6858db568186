package tech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferSuccessChance(t *testing.T) {
	rates := DefaultRates()
	x := NewTransfers(NewCatalog(), NewKnowledgeIndex(), &rates, NewRand(1))

	teacher := agent("ayla", map[string]float64{"social": 0.5})
	learner := agent("brun", map[string]float64{"intellectual": 0.5})
	assert.InDelta(t, 0.6+0.15+0.1, x.SuccessChance(teacher, learner), 1e-12)

	teacher.relations = map[string]Relationship{"brun": RelationshipFriend}
	assert.InDelta(t, 0.95, x.SuccessChance(teacher, learner), 1e-12, "clamped to upper bound")

	teacher.skills = nil
	learner.skills = nil
	teacher.relations = map[string]Relationship{"brun": RelationshipEnemy}
	assert.InDelta(t, 0.6-0.12, x.SuccessChance(teacher, learner), 1e-12)
}

func TestTeachingGrantsPartialKnowledge(t *testing.T) {
	rates := quietRates()
	rates.TeachChance = 1
	rates.TeachBaseSuccess = 1
	rates.TeachSuccessBounds = Range{Min: 1, Max: 1}
	s := New(mustCatalog(t, frontierDefs()...), WithRates(rates), WithSeed(9))
	require.NoError(t, s.Seed("ayla", "fire_making", 1, 0))
	require.NoError(t, s.Seed("ayla", "stone_tools", 1, 0))

	teacher, learner := agent("ayla", nil), agent("brun", nil)
	report := s.Day(1, population([]*fakeAgent{teacher, learner}))

	taught := eventsOf([]DayReport{report}, EventKnowledgeTransfer)
	require.Len(t, taught, 1)
	assert.Equal(t, "ayla", taught[0].Actor)
	assert.Equal(t, "brun", taught[0].Subject)

	level := s.Knowledge.Level("brun", taught[0].Technology)
	assert.GreaterOrEqual(t, level, 0.5)
	assert.Less(t, level, 0.8)
	assert.Len(t, teacher.memories, 1)
	assert.Len(t, learner.memories, 1)
}

func TestInstitutionalSharing(t *testing.T) {
	rates := quietRates()
	rates.InstitutionChance = 1
	s := New(mustCatalog(t, frontierDefs()...), WithRates(rates), WithSeed(4))
	require.NoError(t, s.Seed("ayla", "fire_making", 1, 0))
	require.NoError(t, s.Seed("brun", "fire_making", 1, 0))

	school := &fakeGroup{name: "school", kind: GroupInstitution, members: []string{"ayla", "brun"}}
	camp := &fakeGroup{name: "camp", kind: GroupOther, members: []string{"ayla", "brun"}}
	pop := population([]*fakeAgent{agent("ayla", nil), agent("brun", nil)}, camp, school)

	report := s.Day(1, pop)
	assert.Empty(t, eventsOf([]DayReport{report}, EventInstitutionalSharing), "nothing left to share")

	require.NoError(t, s.Seed("ayla", "pottery", 1, 1))
	var shared []Event
	for day := 2; day <= 20 && len(shared) == 0; day++ {
		shared = eventsOf([]DayReport{s.Day(day, pop)}, EventInstitutionalSharing)
	}
	require.Len(t, shared, 1)
	assert.Equal(t, "school", shared[0].Group)
	assert.Equal(t, "brun", shared[0].Subject)
	assert.Equal(t, 0.6, s.Knowledge.Level("brun", "pottery"))
}
