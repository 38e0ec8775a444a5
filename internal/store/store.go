// Package store persists every collection as a single JSON blob in the
// collections table, one fixed key per collection, overwritten wholesale
// on each mutation. The dataset is a single user's, small enough that
// blob overwrite beats row-level bookkeeping.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/pointer/internal/calendar"
	"github.com/alexanderramin/pointer/internal/db"
	"github.com/alexanderramin/pointer/internal/domain"
	"github.com/alexanderramin/pointer/internal/llm"
)

// Fixed collection keys.
const (
	KeyTasks       = "tasks"
	KeyDocs        = "docs"
	KeyEvents      = "calendar-events"
	KeySyncEnabled = "google-calendar-sync"
	KeyLastSync    = "google-calendar-last-sync"
	KeySpeedMode   = "ollama-speed-mode"
	KeyTokens      = "google-tokens"
)

// Store reads and writes the persisted collections.
type Store struct {
	conn *sql.DB
	uow  db.UnitOfWork
}

// New creates a Store over an open database.
func New(conn *sql.DB) *Store {
	return &Store{conn: conn, uow: db.NewSQLiteUnitOfWork(conn)}
}

func get(ctx context.Context, q db.DBTX, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM collections WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading %s: %w", key, err)
	}
	return value, true, nil
}

func put(ctx context.Context, q db.DBTX, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR REPLACE INTO collections (key, value, updated_at) VALUES (?, ?, datetime('now'))`,
		key, value)
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// loadList unmarshals a JSON array blob. A missing key yields an empty,
// non-nil slice.
func loadList[T any](ctx context.Context, q db.DBTX, key string) ([]T, error) {
	raw, ok, err := get(ctx, q, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []T{}, nil
	}
	var list []T
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

func saveList[T any](ctx context.Context, q db.DBTX, key string, list []T) error {
	if list == nil {
		list = []T{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return put(ctx, q, key, string(raw))
}

// Tasks loads the task list, coercing records saved by older builds.
func (s *Store) Tasks(ctx context.Context) ([]domain.Task, error) {
	tasks, err := loadList[domain.Task](ctx, s.conn, KeyTasks)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	return tasks, nil
}

// SaveTasks overwrites the task list.
func (s *Store) SaveTasks(ctx context.Context, tasks []domain.Task) error {
	return saveList(ctx, s.conn, KeyTasks, tasks)
}

// Docs loads the docs list, coercing records saved by older builds.
func (s *Store) Docs(ctx context.Context) ([]domain.Doc, error) {
	docs, err := loadList[domain.Doc](ctx, s.conn, KeyDocs)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Normalize()
	}
	return docs, nil
}

// SaveDocs overwrites the docs list.
func (s *Store) SaveDocs(ctx context.Context, docs []domain.Doc) error {
	return saveList(ctx, s.conn, KeyDocs, docs)
}

// Events loads the calendar events, coercing records saved by older
// builds.
func (s *Store) Events(ctx context.Context) ([]domain.CalendarEvent, error) {
	events, err := loadList[domain.CalendarEvent](ctx, s.conn, KeyEvents)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Normalize()
	}
	return events, nil
}

// SaveEvents overwrites the calendar events.
func (s *Store) SaveEvents(ctx context.Context, events []domain.CalendarEvent) error {
	return saveList(ctx, s.conn, KeyEvents, events)
}

// ReplaceEvents atomically overwrites the event list and records the
// sync timestamp. Both land or neither does.
func (s *Store) ReplaceEvents(ctx context.Context, events []domain.CalendarEvent, syncedAt time.Time) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := saveList(ctx, tx, KeyEvents, events); err != nil {
			return err
		}
		return put(ctx, tx, KeyLastSync, syncedAt.UTC().Format(time.RFC3339))
	})
}

// LastSync returns the recorded sync timestamp, zero when none exists.
func (s *Store) LastSync(ctx context.Context) (time.Time, error) {
	raw, ok, err := get(ctx, s.conn, KeyLastSync)
	if err != nil || !ok {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", KeyLastSync, err)
	}
	return ts, nil
}

// SpeedMode returns the persisted generation speed mode, defaulting to
// fast.
func (s *Store) SpeedMode(ctx context.Context) (llm.Mode, error) {
	raw, ok, err := get(ctx, s.conn, KeySpeedMode)
	if err != nil {
		return llm.ModeFast, err
	}
	if !ok {
		return llm.ModeFast, nil
	}
	return llm.ParseMode(raw), nil
}

// SetSpeedMode persists the generation speed mode.
func (s *Store) SetSpeedMode(ctx context.Context, mode llm.Mode) error {
	return put(ctx, s.conn, KeySpeedMode, string(mode))
}

// SyncEnabled reports whether calendar auto-sync is switched on.
func (s *Store) SyncEnabled(ctx context.Context) (bool, error) {
	raw, ok, err := get(ctx, s.conn, KeySyncEnabled)
	if err != nil {
		return false, err
	}
	return ok && raw == "true", nil
}

// SetSyncEnabled flips the calendar auto-sync flag.
func (s *Store) SetSyncEnabled(ctx context.Context, enabled bool) error {
	return put(ctx, s.conn, KeySyncEnabled, fmt.Sprintf("%t", enabled))
}

// Tokens returns the stored OAuth token pair, nil when not connected.
func (s *Store) Tokens(ctx context.Context) (*calendar.Tokens, error) {
	raw, ok, err := get(ctx, s.conn, KeyTokens)
	if err != nil || !ok {
		return nil, err
	}
	var tokens calendar.Tokens
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", KeyTokens, err)
	}
	return &tokens, nil
}

// SaveTokens persists the OAuth token pair so the background sync can
// run without a browser request.
func (s *Store) SaveTokens(ctx context.Context, tokens calendar.Tokens) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", KeyTokens, err)
	}
	return put(ctx, s.conn, KeyTokens, string(raw))
}
