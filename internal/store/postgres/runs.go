package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

const selectRuns = `
SELECT r.id, r.project, r.seed, r.days, r.final_day, r.started_at, r.finished_at,
    COALESCE(jsonb_array_length(r.faults), 0),
    (SELECT COUNT(*) FROM events e WHERE e.run_id = r.id)
FROM runs r
`

func (c *Client) CreateRun(ctx context.Context, run store.RunInput) error {
	_, err := c.pool.Exec(ctx,
		"INSERT INTO runs (id, project, seed, days, started_at) VALUES ($1, $2, $3, $4, $5)",
		run.ID, run.Project, int64(run.Seed), run.Days, run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}
	return nil
}

func (c *Client) SaveSnapshot(ctx context.Context, runID string, snap store.Snapshot) error {
	summary, err := json.Marshal(snap.Summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	faults := snap.Faults
	if faults == nil {
		faults = []tech.StageFault{}
	}
	faultsJSON, err := json.Marshal(faults)
	if err != nil {
		return fmt.Errorf("marshaling faults: %w", err)
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"UPDATE runs SET final_day = $1, finished_at = $2, summary = $3, faults = $4 WHERE id = $5",
		snap.Day, snap.FinishedAt.UTC(), summary, faultsJSON, runID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found", runID)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM technology_states WHERE run_id = $1", runID); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM knowledge WHERE run_id = $1", runID); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM group_knowledge WHERE run_id = $1", runID); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	batch := &pgx.Batch{}
	for i, state := range snap.Technologies {
		prereqs := state.Prerequisites
		if prereqs == nil {
			prereqs = []string{}
		}
		batch.Queue(`
INSERT INTO technology_states (run_id, technology, name, category, discovered, discovery_day, discoverer, prerequisites, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, runID, state.ID, state.Name, string(state.Category), state.Discovered, state.DiscoveryDay, state.Discoverer, prereqs, i)
	}
	for _, k := range snap.Knowledge {
		batch.Queue("INSERT INTO knowledge (run_id, agent, technology, level) VALUES ($1, $2, $3, $4)",
			runID, k.Agent, k.Technology, k.Level)
	}
	for _, g := range snap.Groups {
		techs := g.Technologies
		if techs == nil {
			techs = []string{}
		}
		batch.Queue("INSERT INTO group_knowledge (run_id, group_name, technologies) VALUES ($1, $2, $3)",
			runID, g.Group, techs)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (*store.Run, error) {
	var row pgx.Row
	if runID == "" {
		row = c.pool.QueryRow(ctx, selectRuns+"ORDER BY r.started_at DESC LIMIT 1")
	} else {
		row = c.pool.QueryRow(ctx, selectRuns+"WHERE r.id = $1", runID)
	}
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	return &run, nil
}

func (c *Client) ListRuns(ctx context.Context) ([]store.Run, error) {
	rows, err := c.pool.Query(ctx, selectRuns+"ORDER BY r.started_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (store.Run, error) {
	var run store.Run
	var seed int64
	var finished *time.Time
	err := row.Scan(&run.ID, &run.Project, &seed, &run.Days, &run.FinalDay, &run.StartedAt, &finished, &run.Faults, &run.Events)
	if err != nil {
		return store.Run{}, err
	}
	run.Seed = uint64(seed)
	run.FinishedAt = finished
	return run, nil
}
