package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

func (c *Client) GetTechnologyStates(ctx context.Context, runID string) ([]store.TechnologyState, error) {
	rows, err := c.pool.Query(ctx, `
SELECT technology, name, category, discovered, discovery_day, discoverer, prerequisites
FROM technology_states
WHERE run_id = $1
ORDER BY position
`, runID)
	if err != nil {
		return nil, fmt.Errorf("getting technology states: %w", err)
	}
	defer rows.Close()

	var states []store.TechnologyState
	for rows.Next() {
		var state store.TechnologyState
		var category string
		if err := rows.Scan(&state.ID, &state.Name, &category, &state.Discovered, &state.DiscoveryDay, &state.Discoverer, &state.Prerequisites); err != nil {
			return nil, fmt.Errorf("scanning technology state: %w", err)
		}
		state.Category = tech.Category(category)
		if len(state.Prerequisites) == 0 {
			state.Prerequisites = nil
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating technology states: %w", err)
	}
	return states, nil
}

func (c *Client) GetKnowledge(ctx context.Context, runID, agent string) ([]store.KnowledgeRecord, error) {
	rows, err := c.pool.Query(ctx, `
SELECT agent, technology, level FROM knowledge
WHERE run_id = $1 AND ($2 = '' OR agent = $2)
ORDER BY agent, technology
`, runID, agent)
	if err != nil {
		return nil, fmt.Errorf("getting knowledge: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[store.KnowledgeRecord])
	if err != nil {
		return nil, fmt.Errorf("collecting knowledge: %w", err)
	}
	return records, nil
}

func (c *Client) GetSummary(ctx context.Context, runID string) (*tech.Summary, error) {
	var raw []byte
	err := c.pool.QueryRow(ctx, "SELECT summary FROM runs WHERE id = $1", runID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting summary: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var summary tech.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("unmarshaling summary: %w", err)
	}
	return &summary, nil
}

func (c *Client) GetGroupKnowledge(ctx context.Context, runID string) ([]store.GroupKnowledge, error) {
	rows, err := c.pool.Query(ctx,
		"SELECT group_name, technologies FROM group_knowledge WHERE run_id = $1 ORDER BY group_name", runID)
	if err != nil {
		return nil, fmt.Errorf("getting group knowledge: %w", err)
	}
	groups, err := pgx.CollectRows(rows, pgx.RowToStructByPos[store.GroupKnowledge])
	if err != nil {
		return nil, fmt.Errorf("collecting group knowledge: %w", err)
	}
	return groups, nil
}
