package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

type eventRow struct {
	Seq        int64  `db:"seq"`
	RunID      string `db:"run_id"`
	Day        int    `db:"day"`
	Kind       string `db:"kind"`
	Technology string `db:"technology"`
	Actor      string `db:"actor"`
	Subject    string `db:"subject"`
	Group      string `db:"group_name"`
	Ref        string `db:"ref"`
	Detail     string `db:"detail"`
	Text       string `db:"text"`
}

func (c *Client) AppendEvents(ctx context.Context, runID string, events []tech.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
	INSERT INTO events (run_id, day, kind, technology, actor, subject, group_name, ref, detail, text)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		detail, err := marshalDetail(e.Detail)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, runID, e.Day, string(e.Kind), e.Technology, e.Actor, e.Subject, e.Group, e.Ref, detail, e.Text)
		if err != nil {
			return fmt.Errorf("inserting %s event: %w", e.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing events: %w", err)
	}
	return nil
}

func (c *Client) ListEvents(ctx context.Context, filter store.EventFilter) ([]store.EventRecord, error) {
	var where []string
	var args []any
	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Technology != "" {
		where = append(where, "technology = ?")
		args = append(args, filter.Technology)
	}
	if filter.Actor != "" {
		where = append(where, "(actor = ? OR subject = ?)")
		args = append(args, filter.Actor, filter.Actor)
	}
	if filter.FromDay > 0 {
		where = append(where, "day >= ?")
		args = append(args, filter.FromDay)
	}
	if filter.ToDay > 0 {
		where = append(where, "day <= ?")
		args = append(args, filter.ToDay)
	}

	query := "SELECT seq, run_id, day, kind, technology, actor, subject, group_name, ref, detail, text FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []eventRow
	if err := c.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	records := make([]store.EventRecord, 0, len(rows))
	for _, row := range rows {
		record := store.EventRecord{
			RunID: row.RunID,
			Seq:   row.Seq,
			Event: tech.Event{
				Kind:       tech.EventKind(row.Kind),
				Day:        row.Day,
				Technology: row.Technology,
				Actor:      row.Actor,
				Subject:    row.Subject,
				Group:      row.Group,
				Ref:        row.Ref,
				Text:       row.Text,
			},
		}
		if row.Detail != "" && row.Detail != "{}" {
			if err := json.Unmarshal([]byte(row.Detail), &record.Detail); err != nil {
				return nil, fmt.Errorf("unmarshaling detail of event %d: %w", row.Seq, err)
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func marshalDetail(detail map[string]any) (string, error) {
	if len(detail) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(detail)
	if err != nil {
		return "", fmt.Errorf("marshaling event detail: %w", err)
	}
	return string(data), nil
}
