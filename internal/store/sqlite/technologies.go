package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"researchsim/internal/store"
)

type technologyRow struct {
	ID         string         `db:"id"`
	Definition string         `db:"definition"`
	SourceFile sql.NullString `db:"source_file"`
	SourceHash sql.NullString `db:"source_hash"`
}

func (c *Client) UpsertTechnology(ctx context.Context, t store.TechnologyInput) error {
	def, err := json.Marshal(t.Definition)
	if err != nil {
		return fmt.Errorf("marshaling definition: %w", err)
	}

	query := `
	INSERT INTO technologies (id, name, category, definition, source_file, source_hash, last_ingested)
	VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		category = excluded.category,
		definition = excluded.definition,
		source_file = excluded.source_file,
		source_hash = excluded.source_hash,
		last_ingested = datetime('now')
	`
	_, err = c.db.ExecContext(ctx, query,
		t.Definition.ID,
		t.Definition.Name,
		string(t.Definition.Category),
		string(def),
		t.SourceFile,
		t.SourceHash,
	)
	if err != nil {
		return fmt.Errorf("upserting technology: %w", err)
	}
	return nil
}

func (c *Client) RemoveStaleTechnologies(ctx context.Context, currentSourceFiles []string) (int64, error) {
	query := `
	DELETE FROM technologies
	WHERE source_file IS NOT NULL
	  AND source_file <> ''
	`
	args := make([]any, 0, len(currentSourceFiles))
	if len(currentSourceFiles) > 0 {
		placeholders := make([]string, len(currentSourceFiles))
		for i, f := range currentSourceFiles {
			placeholders[i] = "?"
			args = append(args, f)
		}
		query += fmt.Sprintf("  AND source_file NOT IN (%s)\n", strings.Join(placeholders, ", "))
	}

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale technologies: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected, nil
}

func (c *Client) GetSourceHashes(ctx context.Context) (map[string]string, error) {
	var rows []technologyRow
	err := c.db.SelectContext(ctx, &rows, `
	SELECT id, definition, source_file, source_hash FROM technologies
	WHERE source_file IS NOT NULL AND source_file <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}

	hashes := make(map[string]string, len(rows))
	for _, row := range rows {
		hashes[row.SourceFile.String] = row.SourceHash.String
	}
	return hashes, nil
}

func (c *Client) ListTechnologies(ctx context.Context) ([]store.TechnologyRecord, error) {
	var rows []technologyRow
	err := c.db.SelectContext(ctx, &rows, `
	SELECT id, definition, source_file, source_hash FROM technologies
	ORDER BY source_file, id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing technologies: %w", err)
	}

	records := make([]store.TechnologyRecord, 0, len(rows))
	for _, row := range rows {
		record := store.TechnologyRecord{
			SourceFile: row.SourceFile.String,
			SourceHash: row.SourceHash.String,
		}
		if err := json.Unmarshal([]byte(row.Definition), &record.Definition); err != nil {
			return nil, fmt.Errorf("unmarshaling definition %s: %w", row.ID, err)
		}
		records = append(records, record)
	}
	return records, nil
}
