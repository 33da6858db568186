package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS technologies (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	category      TEXT NOT NULL,
	definition    TEXT NOT NULL,
	source_file   TEXT,
	source_hash   TEXT,
	last_ingested TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	project     TEXT NOT NULL,
	seed        INTEGER NOT NULL,
	days        INTEGER NOT NULL,
	final_day   INTEGER NOT NULL DEFAULT 0,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	summary     TEXT,
	faults      TEXT DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS events (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	day        INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	technology TEXT NOT NULL DEFAULT '',
	actor      TEXT NOT NULL DEFAULT '',
	subject    TEXT NOT NULL DEFAULT '',
	group_name TEXT NOT NULL DEFAULT '',
	ref        TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '{}',
	text       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS technology_states (
	run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	technology    TEXT NOT NULL,
	name          TEXT NOT NULL,
	category      TEXT NOT NULL,
	discovered    INTEGER NOT NULL DEFAULT 0,
	discovery_day INTEGER,
	discoverer    TEXT NOT NULL DEFAULT '',
	prerequisites TEXT NOT NULL DEFAULT '[]',
	position      INTEGER NOT NULL,
	PRIMARY KEY (run_id, technology)
);

CREATE TABLE IF NOT EXISTS knowledge (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	agent      TEXT NOT NULL,
	technology TEXT NOT NULL,
	level      REAL NOT NULL,
	PRIMARY KEY (run_id, agent, technology)
);

CREATE TABLE IF NOT EXISTS group_knowledge (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	group_name   TEXT NOT NULL,
	technologies TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (run_id, group_name)
);

CREATE INDEX IF NOT EXISTS idx_technologies_source_file ON technologies (source_file);
CREATE INDEX IF NOT EXISTS idx_events_run_day ON events (run_id, day);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events (kind);
CREATE INDEX IF NOT EXISTS idx_events_technology ON events (technology);
CREATE INDEX IF NOT EXISTS idx_knowledge_agent ON knowledge (run_id, agent);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}
	return statements
}
