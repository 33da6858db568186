//go:build integration

package graph

import (
	"context"
	"reflect"
	"testing"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := NewClient(ctx, "bolt://localhost:7687", "neo4j", "changeme", "neo4j")
	if err != nil {
		t.Fatalf("connecting to test neo4j: %v", err)
	}
	t.Cleanup(func() {
		_ = client.write(ctx, "MATCH (n) WHERE n:Technology OR n:Agent DETACH DELETE n", nil)
		_ = client.Close(ctx)
	})
	return client
}

func TestNewClient_BadCredentials(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, "bolt://localhost:7687", "neo4j", "wrong", "neo4j")
	if err == nil {
		_ = client.Close(ctx)
		t.Fatalf("expected error")
	}
}

func TestEnsureIndexes_Idempotent(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	for i := 0; i < 2; i++ {
		if err := client.EnsureIndexes(ctx); err != nil {
			t.Fatalf("ensure indexes (%d): %v", i, err)
		}
	}
}

func TestExport_LineageAndDiscovery(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	defs := []tech.Definition{
		{ID: "fire_making", Name: "Fire Making", Category: tech.CategorySurvival},
		{ID: "basic_tools", Name: "Basic Tools", Category: tech.CategoryCrafting, Prerequisites: []string{"fire_making"}},
		{ID: "pottery", Name: "Pottery", Category: tech.CategoryCrafting, Prerequisites: []string{"basic_tools"}},
	}
	day := 2
	states := []store.TechnologyState{{ID: "fire_making", Discovered: true, DiscoveryDay: &day, Discoverer: "Ayla"}}

	result, err := Export(ctx, client, defs, states, []store.KnowledgeRecord{{Agent: "Ayla", Technology: "fire_making", Level: 1}})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("export errors: %v", result.Errors)
	}

	lineage, err := client.Lineage(ctx, "pottery")
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	if !reflect.DeepEqual(lineage, []string{"basic_tools", "fire_making"}) {
		t.Fatalf("unexpected lineage: %v", lineage)
	}

	dependents, err := client.Dependents(ctx, "fire_making")
	if err != nil {
		t.Fatalf("dependents: %v", err)
	}
	if !reflect.DeepEqual(dependents, []string{"basic_tools", "pottery"}) {
		t.Fatalf("unexpected dependents: %v", dependents)
	}

	rows, err := client.RunCypher(ctx, "MATCH (a:Agent)-[d:DISCOVERED]->(t:Technology) RETURN a.name AS agent, t.id AS id, d.day AS day", nil)
	if err != nil {
		t.Fatalf("run cypher: %v", err)
	}
	if len(rows) != 1 || rows[0]["agent"] != "Ayla" || rows[0]["day"] != int64(2) {
		t.Fatalf("unexpected discovery rows: %v", rows)
	}
}
