package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"researchsim/internal/store"
)

// RunSQL executes a read query inside a read-only transaction. Params are
// positional, keyed "1", "2", ... for $1, $2, ...
func (c *Client) RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if err := store.CheckReadQuery(query); err != nil {
		return nil, err
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query, store.PositionalArgs(params)...)
	if err != nil {
		return nil, fmt.Errorf("running sql: %w", err)
	}
	results, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collecting sql rows: %w", err)
	}
	if results == nil {
		results = []map[string]any{}
	}
	return results, nil
}
