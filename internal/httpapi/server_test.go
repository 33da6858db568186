package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchsim/internal/query"
	"researchsim/internal/store"
	"researchsim/internal/store/sqlite"
	"researchsim/internal/tech"
)

func testDefinitions() []tech.Definition {
	return []tech.Definition{
		{ID: "fire_making", Name: "Fire Making", Category: tech.CategorySurvival, Complexity: 0.2, DiscoveryChance: 0.01,
			Benefits: map[string]float64{"survival": 1.2}},
		{ID: "basic_tools", Name: "Basic Tools", Category: tech.CategoryCrafting, Complexity: 0.3, DiscoveryChance: 0.01,
			Prerequisites: []string{"fire_making"}, Benefits: map[string]float64{"crafting": 1.5}},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(ctx) })
	require.NoError(t, db.EnsureSchema(ctx))

	defs := testDefinitions()
	catalog, err := tech.BuildCatalog(defs)
	require.NoError(t, err)
	catalog.MarkDiscovered("fire_making", 3, "Ayla")
	knowledge := tech.NewKnowledgeIndex()
	knowledge.Grant("Ayla", "fire_making", 0.6)

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.CreateRun(ctx, store.RunInput{ID: "run_1", Project: "stone-age", Seed: 7, Days: 10, StartedAt: started}))
	require.NoError(t, db.AppendEvents(ctx, "run_1", []tech.Event{
		{Kind: tech.EventTechnologyDiscovered, Day: 3, Technology: "fire_making", Actor: "Ayla", Text: "Ayla discovered Fire Making"},
		{Kind: tech.EventKnowledgeTransfer, Day: 5, Technology: "fire_making", Actor: "Ayla", Subject: "Brun"},
	}))
	require.NoError(t, db.SaveSnapshot(ctx, "run_1", store.Snapshot{
		Day:          10,
		FinishedAt:   started.Add(time.Minute),
		Technologies: store.StatesFromCatalog(catalog),
		Knowledge:    store.KnowledgeFromIndex(knowledge),
		Groups:       []store.GroupKnowledge{{Group: "Clan", Technologies: []string{"fire_making"}}},
		Summary:      tech.Summary{Day: 10, Total: 2, Discovered: 1, Undiscovered: 1},
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := query.New(db, catalog)
	srv := httptest.NewServer(NewServer(defs, svc, logger, "test"))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthAndCatalog(t *testing.T) {
	srv := newTestServer(t)

	var health map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/health", &health))
	assert.Equal(t, "ok", health["status"])

	var defs []tech.Definition
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/catalog?category=crafting", &defs))
	require.Len(t, defs, 1)
	assert.Equal(t, "basic_tools", defs[0].ID)
}

func TestSummary(t *testing.T) {
	srv := newTestServer(t)

	var summary tech.Summary
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/summary", &summary))
	assert.Equal(t, 1, summary.Discovered)

	var errResp errorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv, "/api/summary?run=missing", &errResp))
	assert.NotEmpty(t, errResp.Error)
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t)

	var status tech.Status
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/status", &status))
	assert.Equal(t, 2, status.Total)
	assert.InDelta(t, 0.5, status.DiscoveryRate, 1e-9)
	assert.Equal(t, 1, status.ByCategory[tech.CategorySurvival])
	assert.Equal(t, 1, status.ByCategory[tech.CategoryCrafting])
	assert.Equal(t, 0, status.ByCategory[tech.CategoryTrade])

	var errResp errorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv, "/api/status?run=missing", &errResp))
}

func TestAdvantage(t *testing.T) {
	srv := newTestServer(t)

	var result query.AdvantageResult
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/advantage/Ayla/survival", &result))
	assert.InDelta(t, 1.2, result.Advantage, 1e-9)
	assert.Equal(t, "run_1", result.RunID)

	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/advantage/Ayla/crafting", &result))
	assert.InDelta(t, 1.0, result.Advantage, 1e-9)

	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/advantage/Clan/survival", &result))
	assert.InDelta(t, 1.2, result.Advantage, 1e-9)
}

func TestEvents(t *testing.T) {
	srv := newTestServer(t)

	var events []store.EventRecord
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/events", &events))
	assert.Len(t, events, 2)

	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/events?kind=knowledge_transfer", &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Brun", events[0].Subject)

	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/events?from=4&to=10", &events))
	assert.Len(t, events, 1)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv, "/api/events?from=abc", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv, "/api/events?from=9&to=2", nil))
}

func TestTechnologies(t *testing.T) {
	srv := newTestServer(t)

	var states []store.TechnologyState
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/technologies?discovered=true", &states))
	require.Len(t, states, 1)
	assert.Equal(t, "fire_making", states[0].ID)

	var detail query.TechnologyDetail
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/technologies/fire_making", &detail))
	assert.Equal(t, "Ayla", detail.State.Discoverer)
	assert.Equal(t, []string{"basic_tools"}, detail.Unlocks)
	require.Len(t, detail.Holders, 1)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv, "/api/technologies/bronze_working", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv, "/api/technologies?discovered=maybe", nil))
}

func TestKnowledgeAndRuns(t *testing.T) {
	srv := newTestServer(t)

	var records []store.KnowledgeRecord
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/knowledge?agent=Ayla", &records))
	require.Len(t, records, 1)
	assert.InDelta(t, 0.6, records[0].Level, 1e-9)

	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/knowledge?agent=Nobody", &records))
	assert.Empty(t, records)

	var runs []store.Run
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/runs", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 10, runs[0].FinalDay)
	assert.Equal(t, 2, runs[0].Events)
}
