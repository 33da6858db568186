package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS technologies (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    category      TEXT NOT NULL,
    definition    JSONB NOT NULL,
    source_file   TEXT,
    source_hash   TEXT,
    last_ingested TIMESTAMPTZ DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    project     TEXT NOT NULL,
    seed        BIGINT NOT NULL,
    days        INTEGER NOT NULL,
    final_day   INTEGER NOT NULL DEFAULT 0,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ,
    summary     JSONB,
    faults      JSONB DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS events (
    seq        BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    day        INTEGER NOT NULL,
    kind       TEXT NOT NULL,
    technology TEXT NOT NULL DEFAULT '',
    actor      TEXT NOT NULL DEFAULT '',
    subject    TEXT NOT NULL DEFAULT '',
    group_name TEXT NOT NULL DEFAULT '',
    ref        TEXT NOT NULL DEFAULT '',
    detail     JSONB NOT NULL DEFAULT '{}',
    text       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS technology_states (
    run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    technology    TEXT NOT NULL,
    name          TEXT NOT NULL,
    category      TEXT NOT NULL,
    discovered    BOOLEAN NOT NULL DEFAULT FALSE,
    discovery_day INTEGER,
    discoverer    TEXT NOT NULL DEFAULT '',
    prerequisites TEXT[] NOT NULL DEFAULT '{}',
    position      INTEGER NOT NULL,
    PRIMARY KEY (run_id, technology)
);

CREATE TABLE IF NOT EXISTS knowledge (
    run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    agent      TEXT NOT NULL,
    technology TEXT NOT NULL,
    level      DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, agent, technology)
);

CREATE TABLE IF NOT EXISTS group_knowledge (
    run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    group_name   TEXT NOT NULL,
    technologies TEXT[] NOT NULL DEFAULT '{}',
    PRIMARY KEY (run_id, group_name)
);

CREATE INDEX IF NOT EXISTS idx_technologies_source_file ON technologies (source_file);
CREATE INDEX IF NOT EXISTS idx_events_run_day ON events (run_id, day);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events (kind);
CREATE INDEX IF NOT EXISTS idx_events_technology ON events (technology);
CREATE INDEX IF NOT EXISTS idx_events_detail ON events USING GIN (detail);
CREATE INDEX IF NOT EXISTS idx_knowledge_agent ON knowledge (run_id, agent);
`
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
