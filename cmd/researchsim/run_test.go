package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchsim/internal/config"
	"researchsim/internal/query"
	"researchsim/internal/store"
	"researchsim/internal/store/sqlite"
	"researchsim/internal/tech"
	"researchsim/internal/world"
)

func stoneAge(t *testing.T) (*config.CatalogFile, *world.World) {
	t.Helper()
	tmpl, err := config.LoadTemplate("stone-age")
	require.NoError(t, err)
	catalog, err := config.ParseCatalog(tmpl.Catalog)
	require.NoError(t, err)
	w, err := world.Parse(tmpl.World)
	require.NoError(t, err)
	return catalog, w
}

func memoryStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.New(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(ctx) })
	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func simulateStoneAge(t *testing.T, db store.Store, runID string, seed uint64, days int) *runResult {
	t.Helper()
	catalog, w := stoneAge(t)
	result, err := simulate(context.Background(), simulation{
		RunID:   runID,
		Project: "stone-age",
		Seed:    seed,
		Days:    days,
		Rates:   tech.DefaultRates(),
		Catalog: catalog,
		World:   w,
		Store:   db,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return result
}

func TestSimulateRecordsRun(t *testing.T) {
	ctx := context.Background()
	db := memoryStore(t)

	result := simulateStoneAge(t, db, "run_a", 42, 60)
	assert.Equal(t, 60, result.Days)
	assert.Empty(t, result.Faults)

	run, err := db.GetRun(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "run_a", run.ID)
	assert.Equal(t, 60, run.FinalDay)
	assert.Equal(t, result.Events, run.Events)
	assert.NotNil(t, run.FinishedAt)

	states, err := db.GetTechnologyStates(ctx, "run_a")
	require.NoError(t, err)
	assert.Len(t, states, result.Summary.Total)
	discovered := 0
	for _, s := range states {
		if s.Discovered {
			discovered++
		}
	}
	assert.Equal(t, result.Summary.Discovered, discovered)

	summary, err := db.GetSummary(ctx, "run_a")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, result.Summary.Discovered, summary.Discovered)
}

func TestSimulateIsDeterministic(t *testing.T) {
	ctx := context.Background()
	db := memoryStore(t)

	first := simulateStoneAge(t, db, "run_a", 7, 90)
	second := simulateStoneAge(t, db, "run_b", 7, 90)
	assert.Equal(t, first.Events, second.Events)
	assert.Equal(t, first.Summary, second.Summary)

	a, err := db.ListEvents(ctx, store.EventFilter{RunID: "run_a"})
	require.NoError(t, err)
	b, err := db.ListEvents(ctx, store.EventFilter{RunID: "run_b"})
	require.NoError(t, err)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Event, b[i].Event)
	}
}

func TestSimulateZeroDays(t *testing.T) {
	db := memoryStore(t)

	result := simulateStoneAge(t, db, "run_a", 1, 0)
	assert.Equal(t, 0, result.Days)
	assert.Equal(t, 0, result.Events)
	// Seed knowledge is already in place before the first day.
	assert.Positive(t, result.Summary.Discovered)
}

func TestSimulateGroupAdvantageSkipsDeadMembers(t *testing.T) {
	ctx := context.Background()
	db := memoryStore(t)

	catalog, err := config.ParseCatalog([]byte(`
version: 1
technologies:
  - id: fire_making
    name: Fire Making
    category: survival
    benefits: {warmth: 1.2}
  - id: basic_tools
    name: Basic Tools
    category: crafting
    benefits: {crafting: 1.5}
`))
	require.NoError(t, err)
	w, err := world.Parse([]byte(`
version: 1
agents:
  - name: Ayla
    skills: {survival: 0.5}
  - name: Brun
    dead: true
    skills: {crafting: 0.6}
groups:
  - name: Clan
    kind: guild
    members: [Ayla, Brun]
seed_knowledge:
  - {agent: Ayla, technology: fire_making}
  - {agent: Brun, technology: basic_tools}
`))
	require.NoError(t, err)

	_, err = simulate(ctx, simulation{
		RunID:   "run_a",
		Seed:    1,
		Rates:   tech.DefaultRates(),
		Catalog: catalog,
		World:   w,
		Store:   db,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	groups, err := db.GetGroupKnowledge(ctx, "run_a")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"fire_making"}, groups[0].Technologies)

	built, err := catalog.Build()
	require.NoError(t, err)
	svc := query.New(db, built)

	clan, err := svc.Advantage(ctx, "", "Clan", "crafting")
	require.NoError(t, err)
	assert.Equal(t, 1.0, clan.Advantage)

	brun, err := svc.Advantage(ctx, "", "Brun", "crafting")
	require.NoError(t, err)
	assert.Equal(t, 1.5, brun.Advantage)
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	printRunSummary(&buf, &runResult{
		RunID: "run_a",
		Seed:  3,
		Days:  10,
		Summary: tech.Summary{
			Discovered:           2,
			Undiscovered:         5,
			DiscoveredByCategory: map[tech.Category]int{tech.CategorySurvival: 2},
		},
		Faults: []tech.StageFault{{Stage: "goals", Day: 4, Err: "boom"}},
	})
	out := buf.String()
	assert.Contains(t, out, "Run run_a (seed 3) finished after 10 days.")
	assert.Contains(t, out, "2 discovered, 5 undiscovered")
	assert.Contains(t, out, "survival")
	assert.Contains(t, out, "day 4 goals: boom")
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, &tech.Status{
		Day:           12,
		Total:         4,
		Discovered:    1,
		DiscoveryRate: 0.25,
		ByCategory:    map[tech.Category]int{tech.CategorySurvival: 3, tech.CategoryCrafting: 1},
	})
	out := buf.String()
	assert.Contains(t, out, "Day 12: 1 of 4 technologies discovered (25.0%).")
	assert.Contains(t, out, "survival     3")
	assert.Contains(t, out, "trade        0")
}

func TestRunInit(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runInit(dir, "valley", "stone-age"))
	for _, name := range []string{"researchsim.yaml", "catalog.yaml", "world.yaml"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}

	cfg, err := config.LoadProjectConfig(filepath.Join(dir, "researchsim.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "valley", cfg.Project)
	_, err = config.LoadCatalog(cfg.Path(cfg.Catalog))
	require.NoError(t, err)

	assert.Error(t, runInit(dir, "valley", "stone-age"))
	assert.Error(t, runInit(t.TempDir(), "valley", "no-such-template"))
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"id=fire_making", " day = 3 ", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "fire_making", "day": "3"}, params)

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=x"})
	assert.Error(t, err)
}
