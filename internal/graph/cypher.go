package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func (c *Client) RunCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0)
		for res.Next(ctx) {
			rows = append(rows, res.Record().AsMap())
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("run cypher: %w", err)
	}
	return result.([]map[string]any), nil
}

// Lineage returns every technology id the given one transitively requires,
// nearest first.
func (c *Client) Lineage(ctx context.Context, techID string) ([]string, error) {
	return c.walk(ctx, `
MATCH path = (:Technology {id: $id})-[:REQUIRES*1..]->(p:Technology)
WITH p, min(length(path)) AS depth
RETURN p.id AS id
ORDER BY depth, id
`, techID)
}

// Dependents returns every technology id that transitively requires the given one.
func (c *Client) Dependents(ctx context.Context, techID string) ([]string, error) {
	return c.walk(ctx, `
MATCH path = (d:Technology)-[:REQUIRES*1..]->(:Technology {id: $id})
WITH d, min(length(path)) AS depth
RETURN d.id AS id
ORDER BY depth, id
`, techID)
}

func (c *Client) walk(ctx context.Context, query, techID string) ([]string, error) {
	rows, err := c.RunCypher(ctx, query, map[string]any{"id": techID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if id, ok := row["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
