package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(ctx) })
	require.NoError(t, client.EnsureSchema(ctx))
	return client
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.EnsureSchema(context.Background()))
}

func TestTechnologies(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	fire := tech.Definition{ID: "fire_making", Name: "Fire Making", Category: tech.CategorySurvival, Complexity: 0.2, DiscoveryChance: 0.01}
	tools := tech.Definition{ID: "basic_tools", Name: "Basic Tools", Category: tech.CategoryCrafting, Complexity: 0.3, DiscoveryChance: 0.01,
		Prerequisites: []string{"fire_making"}, RequiredSkills: map[string]float64{"crafting": 0.2}}

	require.NoError(t, client.UpsertTechnology(ctx, store.TechnologyInput{Definition: fire, SourceFile: "techs/fire.md", SourceHash: "a"}))
	require.NoError(t, client.UpsertTechnology(ctx, store.TechnologyInput{Definition: tools, SourceFile: "techs/tools.md", SourceHash: "b"}))

	hashes, err := client.GetSourceHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"techs/fire.md": "a", "techs/tools.md": "b"}, hashes)

	tools.Complexity = 0.35
	require.NoError(t, client.UpsertTechnology(ctx, store.TechnologyInput{Definition: tools, SourceFile: "techs/tools.md", SourceHash: "c"}))

	records, err := client.ListTechnologies(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "fire_making", records[0].Definition.ID)
	assert.Equal(t, 0.35, records[1].Definition.Complexity)
	assert.Equal(t, []string{"fire_making"}, records[1].Definition.Prerequisites)
	assert.Equal(t, "c", records[1].SourceHash)

	removed, err := client.RemoveStaleTechnologies(ctx, []string{"techs/fire.md"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	records, err = client.ListTechnologies(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, client.CreateRun(ctx, store.RunInput{ID: "run_1", Project: "stone-age", Seed: 7, Days: 30, StartedAt: started}))

	events := []tech.Event{
		{Kind: tech.EventTechnologyDiscovered, Day: 3, Technology: "fire_making", Actor: "Ayla", Detail: map[string]any{"method": "research"}},
		{Kind: tech.EventKnowledgeTransfer, Day: 4, Technology: "fire_making", Actor: "Ayla", Subject: "Brun"},
		{Kind: tech.EventGoalSet, Day: 9, Technology: "pottery", Group: "Clan Council"},
	}
	require.NoError(t, client.AppendEvents(ctx, "run_1", events))
	require.NoError(t, client.AppendEvents(ctx, "run_1", nil))

	all, err := client.ListEvents(ctx, store.EventFilter{RunID: "run_1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "research", all[0].Detail["method"])
	assert.True(t, all[0].Seq < all[1].Seq)

	byActor, err := client.ListEvents(ctx, store.EventFilter{RunID: "run_1", Actor: "Brun"})
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, tech.EventKnowledgeTransfer, byActor[0].Kind)

	window, err := client.ListEvents(ctx, store.EventFilter{FromDay: 4, ToDay: 8})
	require.NoError(t, err)
	require.Len(t, window, 1)

	limited, err := client.ListEvents(ctx, store.EventFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	day := 3
	snap := store.Snapshot{
		Day:        30,
		FinishedAt: started.Add(time.Minute),
		Technologies: []store.TechnologyState{
			{ID: "fire_making", Name: "Fire Making", Category: tech.CategorySurvival, Discovered: true, DiscoveryDay: &day, Discoverer: "Ayla"},
			{ID: "pottery", Name: "Pottery", Category: tech.CategoryCrafting, Prerequisites: []string{"fire_making"}},
		},
		Knowledge: []store.KnowledgeRecord{
			{Agent: "Ayla", Technology: "fire_making", Level: 1},
			{Agent: "Brun", Technology: "fire_making", Level: 0.6},
		},
		Groups: []store.GroupKnowledge{
			{Group: "Clan", Technologies: []string{"fire_making"}},
			{Group: "Empty Guild"},
		},
		Summary: tech.Summary{Day: 30, Total: 2, Discovered: 1, Undiscovered: 1},
		Faults:  []tech.StageFault{{Stage: "innovation", Day: 12, Err: "boom"}},
	}
	require.NoError(t, client.SaveSnapshot(ctx, "run_1", snap))
	require.Error(t, client.SaveSnapshot(ctx, "missing", snap))

	run, err := client.GetRun(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "run_1", run.ID)
	assert.Equal(t, uint64(7), run.Seed)
	assert.Equal(t, 30, run.FinalDay)
	assert.Equal(t, 3, run.Events)
	assert.Equal(t, 1, run.Faults)
	require.NotNil(t, run.FinishedAt)

	missing, err := client.GetRun(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	states, err := client.GetTechnologyStates(ctx, "run_1")
	require.NoError(t, err)
	require.Len(t, states, 2)
	require.NotNil(t, states[0].DiscoveryDay)
	assert.Equal(t, 3, *states[0].DiscoveryDay)
	assert.False(t, states[1].Discovered)
	assert.Equal(t, []string{"fire_making"}, states[1].Prerequisites)

	knowledge, err := client.GetKnowledge(ctx, "run_1", "Brun")
	require.NoError(t, err)
	require.Len(t, knowledge, 1)
	assert.Equal(t, 0.6, knowledge[0].Level)

	groups, err := client.GetGroupKnowledge(ctx, "run_1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"fire_making"}, groups[0].Technologies)
	assert.Equal(t, "Empty Guild", groups[1].Group)
	assert.Empty(t, groups[1].Technologies)

	summary, err := client.GetSummary(ctx, "run_1")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Discovered)

	runs, err := client.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunSQL(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	require.NoError(t, client.CreateRun(ctx, store.RunInput{ID: "r", Project: "p", Seed: 1, Days: 1, StartedAt: time.Now()}))

	rows, err := client.RunSQL(ctx, "SELECT id, days FROM runs WHERE project = ?", map[string]any{"1": "p"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "r", rows[0]["id"])
	assert.EqualValues(t, 1, rows[0]["days"])

	_, err = client.RunSQL(ctx, "SELECT * FROM nowhere", nil)
	assert.Error(t, err)

	_, err = client.RunSQL(ctx, "DELETE FROM runs", nil)
	assert.ErrorIs(t, err, store.ErrWriteQuery)
}

func TestRunSQLRejectsWriteBehindWith(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	require.NoError(t, client.CreateRun(ctx, store.RunInput{ID: "r1", Project: "p", Seed: 1, Days: 1, StartedAt: time.Now()}))

	_, err := client.RunSQL(ctx, "WITH doomed AS (SELECT id FROM runs) DELETE FROM runs WHERE id IN (SELECT id FROM doomed)", nil)
	require.Error(t, err)

	runs, err := client.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	// the connection is writable again afterwards
	require.NoError(t, client.CreateRun(ctx, store.RunInput{ID: "r2", Project: "p", Seed: 2, Days: 1, StartedAt: time.Now()}))
}
