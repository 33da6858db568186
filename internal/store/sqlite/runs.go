package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

type runRow struct {
	ID         string         `db:"id"`
	Project    string         `db:"project"`
	Seed       int64          `db:"seed"`
	Days       int            `db:"days"`
	FinalDay   int            `db:"final_day"`
	StartedAt  string         `db:"started_at"`
	FinishedAt sql.NullString `db:"finished_at"`
	Faults     sql.NullString `db:"faults"`
	Events     int            `db:"events"`
}

const selectRuns = `
SELECT r.id, r.project, r.seed, r.days, r.final_day, r.started_at, r.finished_at, r.faults,
	(SELECT COUNT(*) FROM events e WHERE e.run_id = r.id) AS events
FROM runs r
`

func (c *Client) CreateRun(ctx context.Context, run store.RunInput) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO runs (id, project, seed, days, started_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.Project, int64(run.Seed), run.Days, run.StartedAt.UTC().Format(time.RFC3339Nano),
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
	faults, err := json.Marshal(nonNilFaults(snap.Faults))
	if err != nil {
		return fmt.Errorf("marshaling faults: %w", err)
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE runs SET final_day = ?, finished_at = ?, summary = ?, faults = ? WHERE id = ?",
		snap.Day, snap.FinishedAt.UTC().Format(time.RFC3339Nano), string(summary), string(faults), runID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}

	for _, stmt := range []string{
		"DELETE FROM technology_states WHERE run_id = ?",
		"DELETE FROM knowledge WHERE run_id = ?",
		"DELETE FROM group_knowledge WHERE run_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, runID); err != nil {
			return fmt.Errorf("clearing snapshot: %w", err)
		}
	}

	for i, state := range snap.Technologies {
		prereqs, err := json.Marshal(state.Prerequisites)
		if err != nil {
			return fmt.Errorf("marshaling prerequisites: %w", err)
		}
		var day any
		if state.DiscoveryDay != nil {
			day = *state.DiscoveryDay
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO technology_states (run_id, technology, name, category, discovered, discovery_day, discoverer, prerequisites, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, state.ID, state.Name, string(state.Category), state.Discovered, day, state.Discoverer, string(prereqs), i)
		if err != nil {
			return fmt.Errorf("inserting technology state %s: %w", state.ID, err)
		}
	}

	for _, k := range snap.Knowledge {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO knowledge (run_id, agent, technology, level) VALUES (?, ?, ?, ?)",
			runID, k.Agent, k.Technology, k.Level,
		)
		if err != nil {
			return fmt.Errorf("inserting knowledge %s/%s: %w", k.Agent, k.Technology, err)
		}
	}

	for _, g := range snap.Groups {
		techs, err := json.Marshal(nonNilStrings(g.Technologies))
		if err != nil {
			return fmt.Errorf("marshaling group knowledge: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_knowledge (run_id, group_name, technologies) VALUES (?, ?, ?)",
			runID, g.Group, string(techs),
		)
		if err != nil {
			return fmt.Errorf("inserting group knowledge %s: %w", g.Group, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// GetRun returns the run with the given id, or the most recent run when id is
// empty. It returns nil when nothing matches.
func (c *Client) GetRun(ctx context.Context, runID string) (*store.Run, error) {
	var row runRow
	var err error
	if runID == "" {
		err = c.db.GetContext(ctx, &row, selectRuns+"ORDER BY r.started_at DESC, r.rowid DESC LIMIT 1")
	} else {
		err = c.db.GetContext(ctx, &row, selectRuns+"WHERE r.id = ?", runID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	run, err := row.toRun()
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) ListRuns(ctx context.Context) ([]store.Run, error) {
	var rows []runRow
	if err := c.db.SelectContext(ctx, &rows, selectRuns+"ORDER BY r.started_at DESC, r.rowid DESC"); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	runs := make([]store.Run, 0, len(rows))
	for _, row := range rows {
		run, err := row.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (row runRow) toRun() (store.Run, error) {
	run := store.Run{
		ID:       row.ID,
		Project:  row.Project,
		Seed:     uint64(row.Seed),
		Days:     row.Days,
		FinalDay: row.FinalDay,
		Events:   row.Events,
	}
	started, err := time.Parse(time.RFC3339Nano, row.StartedAt)
	if err != nil {
		return store.Run{}, fmt.Errorf("parsing started_at for run %s: %w", row.ID, err)
	}
	run.StartedAt = started
	if row.FinishedAt.Valid {
		finished, err := time.Parse(time.RFC3339Nano, row.FinishedAt.String)
		if err != nil {
			return store.Run{}, fmt.Errorf("parsing finished_at for run %s: %w", row.ID, err)
		}
		run.FinishedAt = &finished
	}
	if row.Faults.Valid && row.Faults.String != "" {
		var faults []tech.StageFault
		if err := json.Unmarshal([]byte(row.Faults.String), &faults); err != nil {
			return store.Run{}, fmt.Errorf("unmarshaling faults for run %s: %w", row.ID, err)
		}
		run.Faults = len(faults)
	}
	return run, nil
}

func nonNilFaults(faults []tech.StageFault) []tech.StageFault {
	if faults == nil {
		return []tech.StageFault{}
	}
	return faults
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
