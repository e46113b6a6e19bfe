package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ProgramRow is one persisted program record: the synthesized text plus
// optional authoritative event columns.
type ProgramRow struct {
	ID         string
	Text       string
	EventStart *time.Time
	EventEnd   *time.Time
}

// SavePrograms upserts program rows in a single transaction.
func (db *DB) SavePrograms(ctx context.Context, rows []ProgramRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO programs (id, text, event_start, event_end, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	createdAt := time.Now().Unix()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Text,
			unixOrNil(r.EventStart), unixOrNil(r.EventEnd), createdAt); err != nil {
			return fmt.Errorf("insert program %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListPrograms returns all program rows in insertion (rowid) order.
func (db *DB) ListPrograms(ctx context.Context) ([]ProgramRow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, text, event_start, event_end FROM programs ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []ProgramRow
	for rows.Next() {
		var r ProgramRow
		var start, end sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Text, &start, &end); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		r.EventStart = timeOrNil(start)
		r.EventEnd = timeOrNil(end)
		result = append(result, r)
	}
	return result, rows.Err()
}

// CountPrograms returns the number of stored programs.
func (db *DB) CountPrograms(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM programs").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count programs: %w", err)
	}
	return n, nil
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
