package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

func (c *Client) AppendEvents(ctx context.Context, runID string, events []tech.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		detail := e.Detail
		if detail == nil {
			detail = map[string]any{}
		}
		payload, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshaling event detail: %w", err)
		}
		rows = append(rows, []any{runID, e.Day, string(e.Kind), e.Technology, e.Actor, e.Subject, e.Group, e.Ref, string(payload), e.Text})
	}

	_, err := c.pool.CopyFrom(ctx,
		pgx.Identifier{"events"},
		[]string{"run_id", "day", "kind", "technology", "actor", "subject", "group_name", "ref", "detail", "text"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copying events: %w", err)
	}
	return nil
}

func (c *Client) ListEvents(ctx context.Context, filter store.EventFilter) ([]store.EventRecord, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.RunID != "" {
		where = append(where, "run_id = "+arg(filter.RunID))
	}
	if filter.Kind != "" {
		where = append(where, "kind = "+arg(filter.Kind))
	}
	if filter.Technology != "" {
		where = append(where, "technology = "+arg(filter.Technology))
	}
	if filter.Actor != "" {
		p := arg(filter.Actor)
		where = append(where, "(actor = "+p+" OR subject = "+p+")")
	}
	if filter.FromDay > 0 {
		where = append(where, "day >= "+arg(filter.FromDay))
	}
	if filter.ToDay > 0 {
		where = append(where, "day <= "+arg(filter.ToDay))
	}

	query := "SELECT seq, run_id, day, kind, technology, actor, subject, group_name, ref, detail, text FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var records []store.EventRecord
	for rows.Next() {
		var record store.EventRecord
		var kind string
		var detail []byte
		err := rows.Scan(&record.Seq, &record.RunID, &record.Day, &kind, &record.Technology, &record.Actor,
			&record.Subject, &record.Group, &record.Ref, &detail, &record.Text)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		record.Kind = tech.EventKind(kind)
		if len(detail) > 0 && string(detail) != "{}" {
			if err := json.Unmarshal(detail, &record.Detail); err != nil {
				return nil, fmt.Errorf("unmarshaling detail of event %d: %w", record.Seq, err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return records, nil
}
