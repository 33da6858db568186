package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

type stateRow struct {
	Technology    string        `db:"technology"`
	Name          string        `db:"name"`
	Category      string        `db:"category"`
	Discovered    bool          `db:"discovered"`
	DiscoveryDay  sql.NullInt64 `db:"discovery_day"`
	Discoverer    string        `db:"discoverer"`
	Prerequisites string        `db:"prerequisites"`
}

func (c *Client) GetTechnologyStates(ctx context.Context, runID string) ([]store.TechnologyState, error) {
	var rows []stateRow
	err := c.db.SelectContext(ctx, &rows, `
	SELECT technology, name, category, discovered, discovery_day, discoverer, prerequisites
	FROM technology_states
	WHERE run_id = ?
	ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("getting technology states: %w", err)
	}

	states := make([]store.TechnologyState, 0, len(rows))
	for _, row := range rows {
		state := store.TechnologyState{
			ID:         row.Technology,
			Name:       row.Name,
			Category:   tech.Category(row.Category),
			Discovered: row.Discovered,
			Discoverer: row.Discoverer,
		}
		if row.DiscoveryDay.Valid {
			day := int(row.DiscoveryDay.Int64)
			state.DiscoveryDay = &day
		}
		if err := json.Unmarshal([]byte(row.Prerequisites), &state.Prerequisites); err != nil {
			return nil, fmt.Errorf("unmarshaling prerequisites of %s: %w", row.Technology, err)
		}
		states = append(states, state)
	}
	return states, nil
}

func (c *Client) GetKnowledge(ctx context.Context, runID, agent string) ([]store.KnowledgeRecord, error) {
	var records []store.KnowledgeRecord
	err := c.db.SelectContext(ctx, &records, `
	SELECT agent, technology, level FROM knowledge
	WHERE run_id = ? AND (? = '' OR agent = ?)
	ORDER BY agent, technology
	`, runID, agent, agent)
	if err != nil {
		return nil, fmt.Errorf("getting knowledge: %w", err)
	}
	return records, nil
}

func (c *Client) GetGroupKnowledge(ctx context.Context, runID string) ([]store.GroupKnowledge, error) {
	var rows []struct {
		Group        string `db:"group_name"`
		Technologies string `db:"technologies"`
	}
	err := c.db.SelectContext(ctx, &rows,
		"SELECT group_name, technologies FROM group_knowledge WHERE run_id = ? ORDER BY group_name", runID)
	if err != nil {
		return nil, fmt.Errorf("getting group knowledge: %w", err)
	}
	groups := make([]store.GroupKnowledge, 0, len(rows))
	for _, row := range rows {
		g := store.GroupKnowledge{Group: row.Group}
		if err := json.Unmarshal([]byte(row.Technologies), &g.Technologies); err != nil {
			return nil, fmt.Errorf("unmarshaling group knowledge of %s: %w", row.Group, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (c *Client) GetSummary(ctx context.Context, runID string) (*tech.Summary, error) {
	var raw sql.NullString
	err := c.db.GetContext(ctx, &raw, "SELECT summary FROM runs WHERE id = ?", runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting summary: %w", err)
	}
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var summary tech.Summary
	if err := json.Unmarshal([]byte(raw.String), &summary); err != nil {
		return nil, fmt.Errorf("unmarshaling summary: %w", err)
	}
	return &summary, nil
}
