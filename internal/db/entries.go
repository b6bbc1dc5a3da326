package db

import (
	"context"
	"fmt"
	"time"
)

// EntryRow is a stored chat entry
type EntryRow struct {
	ID        string
	SessionID string
	Kind      string
	Sender    string
	Payload   []byte
	CreatedAt time.Time
}

// InsertEntries stores rows in one transaction
func (db *DB) InsertEntries(ctx context.Context, rows []EntryRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO chat_entries (id, session_id, kind, sender, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, query, r.ID, r.SessionID, r.Kind, r.Sender, r.Payload, r.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

// GetRecentEntries returns the latest limit entries of a session, oldest first
func (db *DB) GetRecentEntries(ctx context.Context, sessionID string, limit int) ([]EntryRow, error) {
	query := `
		SELECT id, session_id, kind, sender, payload, created_at
		FROM (
			SELECT seq, id, session_id, kind, sender, payload, created_at
			FROM chat_entries
			WHERE session_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC
	`

	rows, err := db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []EntryRow{}
	for rows.Next() {
		var r EntryRow
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Kind, &r.Sender, &r.Payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// DeleteSessionEntries removes every entry of a session
func (db *DB) DeleteSessionEntries(ctx context.Context, sessionID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM chat_entries WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	return nil
}

// DeleteEntriesBefore removes entries older than cutoff and reports how many
func (db *DB) DeleteEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM chat_entries WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned entries: %w", err)
	}
	return n, nil
}
