package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"researchsim/internal/store"
)

func (c *Client) UpsertTechnology(ctx context.Context, t store.TechnologyInput) error {
	def, err := json.Marshal(t.Definition)
	if err != nil {
		return fmt.Errorf("marshaling definition: %w", err)
	}

	query := `
INSERT INTO technologies (id, name, category, definition, source_file, source_hash, last_ingested)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    definition = EXCLUDED.definition,
    source_file = EXCLUDED.source_file,
    source_hash = EXCLUDED.source_hash,
    last_ingested = now()
`
	_, err = c.pool.Exec(ctx, query,
		t.Definition.ID,
		t.Definition.Name,
		string(t.Definition.Category),
		def,
		t.SourceFile,
		t.SourceHash,
	)
	if err != nil {
		return fmt.Errorf("upserting technology: %w", err)
	}
	return nil
}

func (c *Client) RemoveStaleTechnologies(ctx context.Context, currentSourceFiles []string) (int64, error) {
	if currentSourceFiles == nil {
		currentSourceFiles = []string{}
	}
	tag, err := c.pool.Exec(ctx, `
DELETE FROM technologies
WHERE source_file IS NOT NULL
  AND source_file <> ''
  AND NOT (source_file = ANY($1))
`, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale technologies: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) GetSourceHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.pool.Query(ctx, `
SELECT source_file, COALESCE(source_hash, '') FROM technologies
WHERE source_file IS NOT NULL
  AND source_file <> ''
`)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning source hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source hashes: %w", err)
	}
	return hashes, nil
}

func (c *Client) ListTechnologies(ctx context.Context) ([]store.TechnologyRecord, error) {
	rows, err := c.pool.Query(ctx, `
SELECT definition, COALESCE(source_file, ''), COALESCE(source_hash, '')
FROM technologies
ORDER BY source_file, id
`)
	if err != nil {
		return nil, fmt.Errorf("listing technologies: %w", err)
	}
	defer rows.Close()

	var records []store.TechnologyRecord
	for rows.Next() {
		var record store.TechnologyRecord
		var def []byte
		if err := rows.Scan(&def, &record.SourceFile, &record.SourceHash); err != nil {
			return nil, fmt.Errorf("scanning technology: %w", err)
		}
		if err := json.Unmarshal(def, &record.Definition); err != nil {
			return nil, fmt.Errorf("unmarshaling definition: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating technologies: %w", err)
	}
	return records, nil
}
