package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"remo_dashboard/internal/models"
)

// sqliteTimestamp is how occurred_at is stored and compared. Events within
// the same second keep insertion order through rowid.
const sqliteTimestamp = "2006-01-02 15:04:05"

const (
	insertEventSQL = `INSERT INTO dashboard_events (id, occurred_at, type, target, message, meta) VALUES (?, ?, ?, ?, ?, ?)`
	trimEventsSQL  = `DELETE FROM dashboard_events WHERE rowid NOT IN (SELECT rowid FROM dashboard_events ORDER BY occurred_at DESC, rowid DESC LIMIT ?)`
	selectEventSQL = `SELECT id, occurred_at, type, target, message, meta FROM dashboard_events`
)

// EventSQLite is the dashboard activity log. It keeps the newest maxEvents
// entries; a non-positive maxEvents disables trimming.
type EventSQLite struct {
	db        *sql.DB
	maxEvents int
}

func NewEventSQLite(db *sql.DB, maxEvents int) *EventSQLite {
	return &EventSQLite{db: db, maxEvents: maxEvents}
}

// Append stores e and drops entries beyond the retention limit.
func (r *EventSQLite) Append(ctx context.Context, e models.DashboardEvent) error {
	var meta sql.NullString
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode %s metadata: %w", e.Type, err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt.UTC().Format(sqliteTimestamp),
		e.Type,
		e.Target,
		e.Description,
		meta,
	)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", e.Type, err)
	}

	if r.maxEvents <= 0 {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, trimEventsSQL, r.maxEvents); err != nil {
		return fmt.Errorf("trim event log: %w", err)
	}
	return nil
}

// List returns the events matching q, newest first.
func (r *EventSQLite) List(ctx context.Context, q models.EventQuery) ([]models.DashboardEvent, error) {
	where, args := eventFilter(q)
	query := selectEventSQL + where + " ORDER BY occurred_at DESC, rowid DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []models.DashboardEvent
	for rows.Next() {
		var (
			ev   models.DashboardEvent
			meta sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Target, &ev.Description, &meta); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &ev.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of event %s: %w", ev.EventID, err)
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func eventFilter(q models.EventQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if !q.From.IsZero() {
		add("occurred_at >= ?", q.From.UTC().Format(sqliteTimestamp))
	}
	if !q.To.IsZero() {
		add("occurred_at <= ?", q.To.UTC().Format(sqliteTimestamp))
	}
	if q.Type != "" {
		add("type = ?", q.Type)
	}
	if q.Target != "" {
		add("target = ?", q.Target)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
