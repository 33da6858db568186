package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

type fakeStore struct {
	runs      []store.Run
	events    []store.EventRecord
	states    map[string][]store.TechnologyState
	knowledge map[string][]store.KnowledgeRecord
	groups    map[string][]store.GroupKnowledge
	summaries map[string]*tech.Summary

	summaryCalls int
	lastFilter   store.EventFilter
}

func (f *fakeStore) GetRun(ctx context.Context, runID string) (*store.Run, error) {
	if len(f.runs) == 0 {
		return nil, nil
	}
	if runID == "" {
		run := f.runs[len(f.runs)-1]
		return &run, nil
	}
	for _, run := range f.runs {
		if run.ID == runID {
			return &run, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListRuns(ctx context.Context) ([]store.Run, error) {
	return f.runs, nil
}

func (f *fakeStore) ListEvents(ctx context.Context, filter store.EventFilter) ([]store.EventRecord, error) {
	f.lastFilter = filter
	var out []store.EventRecord
	for _, e := range f.events {
		if e.RunID != filter.RunID {
			continue
		}
		if filter.Kind != "" && string(e.Kind) != filter.Kind {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) GetTechnologyStates(ctx context.Context, runID string) ([]store.TechnologyState, error) {
	return f.states[runID], nil
}

func (f *fakeStore) GetKnowledge(ctx context.Context, runID, agent string) ([]store.KnowledgeRecord, error) {
	var out []store.KnowledgeRecord
	for _, r := range f.knowledge[runID] {
		if agent == "" || r.Agent == agent {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetGroupKnowledge(ctx context.Context, runID string) ([]store.GroupKnowledge, error) {
	return f.groups[runID], nil
}

func (f *fakeStore) GetSummary(ctx context.Context, runID string) (*tech.Summary, error) {
	f.summaryCalls++
	return f.summaries[runID], nil
}

func testCatalog(t *testing.T) *tech.Catalog {
	t.Helper()
	catalog, err := tech.BuildCatalog([]tech.Definition{
		{ID: "fire_making", Name: "Fire Making", Category: tech.CategorySurvival, Benefits: map[string]float64{"survival": 1.2}},
		{ID: "basic_tools", Name: "Basic Tools", Category: tech.CategoryCrafting, Prerequisites: []string{"fire_making"},
			Benefits: map[string]float64{"survival": 1.1, "crafting": 1.5}},
		{ID: "pottery", Name: "Pottery", Category: tech.CategoryCrafting, Prerequisites: []string{"basic_tools"}},
	})
	require.NoError(t, err)
	return catalog
}

func testStore() *fakeStore {
	day := 3
	return &fakeStore{
		runs: []store.Run{
			{ID: "run_1", Project: "stone-age", StartedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "run_2", Project: "stone-age", StartedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
		},
		events: []store.EventRecord{
			{RunID: "run_1", Seq: 1, Event: tech.Event{Kind: tech.EventTechnologyDiscovered, Day: 1, Technology: "fire_making"}},
			{RunID: "run_2", Seq: 2, Event: tech.Event{Kind: tech.EventTechnologyDiscovered, Day: 3, Technology: "fire_making"}},
			{RunID: "run_2", Seq: 3, Event: tech.Event{Kind: tech.EventKnowledgeTransfer, Day: 4, Technology: "fire_making"}},
		},
		states: map[string][]store.TechnologyState{
			"run_2": {
				{ID: "fire_making", Name: "Fire Making", Category: tech.CategorySurvival, Discovered: true, DiscoveryDay: &day, Discoverer: "Ayla"},
				{ID: "basic_tools", Name: "Basic Tools", Category: tech.CategoryCrafting, Prerequisites: []string{"fire_making"}},
				{ID: "pottery", Name: "Pottery", Category: tech.CategoryCrafting, Prerequisites: []string{"basic_tools"}},
			},
		},
		knowledge: map[string][]store.KnowledgeRecord{
			"run_2": {
				{Agent: "Ayla", Technology: "fire_making", Level: 0.4},
				{Agent: "Brun", Technology: "basic_tools", Level: 0.3},
				{Agent: "Brun", Technology: "fire_making", Level: 0.9},
			},
		},
		groups: map[string][]store.GroupKnowledge{
			"run_2": {
				{Group: "Clan", Technologies: []string{"basic_tools", "fire_making"}},
				{Group: "Hearth", Technologies: []string{"fire_making"}},
			},
		},
		summaries: map[string]*tech.Summary{
			"run_2": {Day: 30, Total: 3, Discovered: 1, Undiscovered: 2},
		},
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	svc := New(testStore(), testCatalog(t))
	run, err := svc.Run(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "run_2", run.ID)

	_, err = svc.Run(ctx, "run_9")
	assert.ErrorIs(t, err, ErrNotFound)

	empty := New(&fakeStore{}, testCatalog(t))
	_, err = empty.Run(ctx, "")
	assert.ErrorIs(t, err, ErrNoRun)
	_, err = empty.Summary(ctx, "")
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestSummaryIsCached(t *testing.T) {
	ctx := context.Background()
	db := testStore()
	svc := New(db, testCatalog(t))

	for i := 0; i < 3; i++ {
		summary, err := svc.Summary(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Discovered)
	}
	assert.Equal(t, 1, db.summaryCalls)

	svc.Invalidate()
	_, err := svc.Summary(ctx, "run_2")
	require.NoError(t, err)
	assert.Equal(t, 2, db.summaryCalls)

	_, err = svc.Summary(ctx, "run_1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAdvantage(t *testing.T) {
	ctx := context.Background()
	db := testStore()
	// Cora died before the run ended; her levels stay in the snapshot but
	// Hearth's set only holds what its living members knew.
	db.knowledge["run_2"] = append(db.knowledge["run_2"],
		store.KnowledgeRecord{Agent: "Cora", Technology: "basic_tools", Level: 0.7},
		store.KnowledgeRecord{Agent: "Cora", Technology: "fire_making", Level: 1},
	)
	svc := New(db, testCatalog(t))

	tests := []struct {
		name         string
		entity       string
		kind         string
		want         float64
		contributing []string
	}{
		{name: "single technology", entity: "Ayla", kind: "survival", want: 1.2, contributing: []string{"fire_making"}},
		{name: "product of benefits", entity: "Brun", kind: "survival", want: 1.2 * 1.1, contributing: []string{"basic_tools", "fire_making"}},
		{name: "no matching benefit", entity: "Ayla", kind: "crafting", want: 1.0},
		{name: "unknown agent", entity: "Nobody", kind: "survival", want: 1.0},
		{name: "group union", entity: "Clan", kind: "crafting", want: 1.5, contributing: []string{"basic_tools"}},
		{name: "group ignores dead member", entity: "Hearth", kind: "crafting", want: 1.0},
		{name: "dead agent keeps own knowledge", entity: "Cora", kind: "crafting", want: 1.5, contributing: []string{"basic_tools"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Advantage(ctx, "", tt.entity, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, "run_2", result.RunID)
			assert.InDelta(t, tt.want, result.Advantage, 1e-9)
			assert.Equal(t, tt.contributing, result.Contributing)
		})
	}

	_, err := svc.Advantage(ctx, "", "", "survival")
	assert.Error(t, err)
}

func TestEventsResolvesLatestRun(t *testing.T) {
	ctx := context.Background()
	db := testStore()
	svc := New(db, testCatalog(t))

	events, err := svc.Events(ctx, store.EventFilter{Kind: string(tech.EventTechnologyDiscovered)})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].Seq)
	assert.Equal(t, "run_2", db.lastFilter.RunID)

	events, err = svc.Events(ctx, store.EventFilter{RunID: "run_1"})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestTechnology(t *testing.T) {
	ctx := context.Background()
	svc := New(testStore(), testCatalog(t))

	detail, err := svc.Technology(ctx, "", "fire_making")
	require.NoError(t, err)
	assert.True(t, detail.State.Discovered)
	assert.Equal(t, "Ayla", detail.State.Discoverer)
	require.NotNil(t, detail.Definition)
	assert.Equal(t, 1.2, detail.Definition.Benefits["survival"])
	assert.Equal(t, []string{"basic_tools"}, detail.Unlocks)
	require.Len(t, detail.Holders, 2)
	assert.Equal(t, "Brun", detail.Holders[0].Agent)

	_, err = svc.Technology(ctx, "", "bronze_working")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTechnologiesFilter(t *testing.T) {
	ctx := context.Background()
	svc := New(testStore(), testCatalog(t))

	all, err := svc.Technologies(ctx, "", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	undiscovered := false
	open, err := svc.Technologies(ctx, "", &undiscovered)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestKnowledge(t *testing.T) {
	ctx := context.Background()
	svc := New(testStore(), testCatalog(t))

	brun, err := svc.Knowledge(ctx, "", "Brun")
	require.NoError(t, err)
	assert.Len(t, brun, 2)

	all, err := svc.Knowledge(ctx, "run_2", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	svc := New(testStore(), testCatalog(t))

	status, err := svc.Status(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, status.Total)
	assert.Equal(t, 1, status.Discovered)
	assert.InDelta(t, 1.0/3, status.DiscoveryRate, 1e-9)
	assert.Equal(t, 1, status.ByCategory[tech.CategorySurvival])
	assert.Equal(t, 2, status.ByCategory[tech.CategoryCrafting])
	assert.Equal(t, 0, status.ByCategory[tech.CategoryTrade])

	_, err = svc.Status(ctx, "run_1")
	assert.ErrorIs(t, err, ErrNotFound)
}
