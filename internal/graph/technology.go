package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

func (c *Client) UpsertTechnology(ctx context.Context, def tech.Definition) error {
	query := `
MERGE (t:Technology {id: $id})
SET t.name = $name,
    t.category = $category,
    t.complexity = $complexity,
    t.discovery_chance = $discovery_chance,
    t.description = $description,
    t.unlock_actions = $unlock_actions,
    t.last_exported = datetime()
`
	unlocks := def.UnlockActions
	if unlocks == nil {
		unlocks = []string{}
	}
	params := map[string]any{
		"id":               def.ID,
		"name":             def.Name,
		"category":         string(def.Category),
		"complexity":       def.Complexity,
		"discovery_chance": def.DiscoveryChance,
		"description":      def.Description,
		"unlock_actions":   unlocks,
	}
	if err := c.write(ctx, query, params); err != nil {
		return fmt.Errorf("upserting technology %s: %w", def.ID, err)
	}
	return nil
}

// UpsertPrerequisite links a technology to one it requires.
func (c *Client) UpsertPrerequisite(ctx context.Context, techID, prerequisite string) error {
	query := `
MATCH (t:Technology {id: $id})
MATCH (p:Technology {id: $prerequisite})
MERGE (t)-[:REQUIRES]->(p)
`
	if err := c.write(ctx, query, map[string]any{"id": techID, "prerequisite": prerequisite}); err != nil {
		return fmt.Errorf("upserting prerequisite %s -> %s: %w", techID, prerequisite, err)
	}
	return nil
}

func (c *Client) SetDiscoveryState(ctx context.Context, state store.TechnologyState) error {
	if !state.Discovered {
		query := `
MATCH (t:Technology {id: $id})
SET t.discovered = false
REMOVE t.discovery_day
WITH t
OPTIONAL MATCH (:Agent)-[d:DISCOVERED]->(t)
DELETE d
`
		if err := c.write(ctx, query, map[string]any{"id": state.ID}); err != nil {
			return fmt.Errorf("clearing discovery of %s: %w", state.ID, err)
		}
		return nil
	}

	day := 0
	if state.DiscoveryDay != nil {
		day = *state.DiscoveryDay
	}
	query := `
MATCH (t:Technology {id: $id})
SET t.discovered = true, t.discovery_day = $day
WITH t
OPTIONAL MATCH (:Agent)-[old:DISCOVERED]->(t)
DELETE old
WITH DISTINCT t
WHERE $discoverer <> ''
MERGE (a:Agent {name: $discoverer})
MERGE (a)-[:DISCOVERED {day: $day}]->(t)
`
	params := map[string]any{"id": state.ID, "day": day, "discoverer": state.Discoverer}
	if err := c.write(ctx, query, params); err != nil {
		return fmt.Errorf("marking %s discovered: %w", state.ID, err)
	}
	return nil
}

func (c *Client) SetKnowledge(ctx context.Context, k store.KnowledgeRecord) error {
	query := `
MATCH (t:Technology {id: $technology})
MERGE (a:Agent {name: $agent})
MERGE (a)-[r:KNOWS]->(t)
SET r.level = $level
`
	params := map[string]any{"agent": k.Agent, "technology": k.Technology, "level": k.Level}
	if err := c.write(ctx, query, params); err != nil {
		return fmt.Errorf("setting knowledge %s/%s: %w", k.Agent, k.Technology, err)
	}
	return nil
}

// RemoveStaleTechnologies deletes technologies no longer in the catalog.
func (c *Client) RemoveStaleTechnologies(ctx context.Context, currentIDs []string) (int64, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
MATCH (t:Technology)
WHERE NOT t.id IN $current_ids
DETACH DELETE t
RETURN count(t) AS deleted
`
	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"current_ids": currentIDs})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			value, _ := res.Record().Get("deleted")
			if count, ok := value.(int64); ok {
				return count, nil
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return int64(0), nil
	})
	if err != nil {
		return 0, fmt.Errorf("removing stale technologies: %w", err)
	}
	return result.(int64), nil
}
