package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/themobileprof/symptomchat-be/internal/chat"
	"github.com/themobileprof/symptomchat-be/internal/circuitbreaker"
)

// HistoryAdapter adapts DB to implement chat.HistoryStore
type HistoryAdapter struct {
	db      *DB
	limit   int
	breaker *circuitbreaker.Breaker
}

// NewHistoryAdapter creates an adapter returning at most limit entries per session
func NewHistoryAdapter(db *DB, limit int) *HistoryAdapter {
	if limit <= 0 {
		limit = 50
	}
	return &HistoryAdapter{db: db, limit: limit}
}

// WithBreaker guards every query with b. Calls fail with
// circuitbreaker.ErrOpen while the database is considered down.
func (a *HistoryAdapter) WithBreaker(b *circuitbreaker.Breaker) *HistoryAdapter {
	a.breaker = b
	return a
}

// Append implements chat.HistoryStore
func (a *HistoryAdapter) Append(ctx context.Context, sessionID string, entries ...chat.Entry) error {
	rows := make([]EntryRow, 0, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode %s entry: %w", e.Kind(), err)
		}
		rows = append(rows, EntryRow{
			ID:        e.EntryID(),
			SessionID: sessionID,
			Kind:      string(e.Kind()),
			Sender:    e.Sender(),
			Payload:   payload,
			CreatedAt: e.Created(),
		})
	}
	return a.breaker.Do(ctx, func(ctx context.Context) error {
		return a.db.InsertEntries(ctx, rows)
	})
}

// List implements chat.HistoryStore. Rows that no longer decode are skipped.
func (a *HistoryAdapter) List(ctx context.Context, sessionID string) ([]chat.Entry, error) {
	var rows []EntryRow
	err := a.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		rows, err = a.db.GetRecentEntries(ctx, sessionID, a.limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]chat.Entry, 0, len(rows))
	for _, r := range rows {
		e, err := chat.UnmarshalEntry(r.Payload)
		if err != nil {
			log.Printf("Warning: skipping stored entry %s: %v", r.ID, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear implements chat.HistoryStore
func (a *HistoryAdapter) Clear(ctx context.Context, sessionID string) error {
	return a.breaker.Do(ctx, func(ctx context.Context) error {
		return a.db.DeleteSessionEntries(ctx, sessionID)
	})
}
