package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/callsight/callsight/internal/domain"
)

// timeLayout is the stored timestamp format. RFC3339 with nanoseconds in UTC
// sorts lexicographically, which the analytics recency query relies on.
const timeLayout = time.RFC3339Nano

// SQLiteCallStore persists call windows and analytics records.
type SQLiteCallStore struct {
	db *DB
}

// NewSQLiteCallStore creates a call store using the given database.
func NewSQLiteCallStore(db *DB) *SQLiteCallStore {
	return &SQLiteCallStore{db: db}
}

// PutWindow inserts a window, replacing any existing window with the same
// (call ID, window number). Replays of the same window are therefore
// idempotent.
func (s *SQLiteCallStore) PutWindow(ctx context.Context, w domain.Window) error {
	turns, err := json.Marshal(w.Turns)
	if err != nil {
		return fmt.Errorf("encoding turns: %w", err)
	}
	tips, err := json.Marshal(emptySlice(w.AiTips))
	if err != nil {
		return fmt.Errorf("encoding tips: %w", err)
	}
	feed, err := json.Marshal(emptySlice(w.ActivityFeed))
	if err != nil {
		return fmt.Errorf("encoding activity feed: %w", err)
	}

	createdAt := w.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.sql.ExecContext(ctx,
		`INSERT INTO call_windows (call_id, window_number, turns, ai_tips, activity_feed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(call_id, window_number) DO UPDATE SET
		   turns = excluded.turns,
		   ai_tips = excluded.ai_tips,
		   activity_feed = excluded.activity_feed,
		   created_at = excluded.created_at`,
		w.CallID, w.WindowNum, string(turns), string(tips), string(feed),
		createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("storing window %s/%d: %w", w.CallID, w.WindowNum, err)
	}
	return nil
}

// WindowsBefore returns every stored window of the call with a window number
// strictly below the given one, oldest first.
func (s *SQLiteCallStore) WindowsBefore(ctx context.Context, callID string, windowNum int) ([]domain.Window, error) {
	return s.queryWindows(ctx,
		`SELECT call_id, window_number, turns, ai_tips, activity_feed, created_at
		 FROM call_windows WHERE call_id = ? AND window_number < ?
		 ORDER BY window_number ASC`,
		callID, windowNum,
	)
}

// AllWindows returns every stored window of the call, oldest first.
func (s *SQLiteCallStore) AllWindows(ctx context.Context, callID string) ([]domain.Window, error) {
	return s.queryWindows(ctx,
		`SELECT call_id, window_number, turns, ai_tips, activity_feed, created_at
		 FROM call_windows WHERE call_id = ?
		 ORDER BY window_number ASC`,
		callID,
	)
}

func (s *SQLiteCallStore) queryWindows(ctx context.Context, query string, args ...any) ([]domain.Window, error) {
	rows, err := s.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying windows: %w", err)
	}
	defer rows.Close()

	var windows []domain.Window
	for rows.Next() {
		var w domain.Window
		var turns, tips, feed, createdAt string
		if err := rows.Scan(&w.CallID, &w.WindowNum, &turns, &tips, &feed, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning window: %w", err)
		}
		if err := json.Unmarshal([]byte(turns), &w.Turns); err != nil {
			return nil, fmt.Errorf("decoding turns for %s/%d: %w", w.CallID, w.WindowNum, err)
		}
		if err := json.Unmarshal([]byte(tips), &w.AiTips); err != nil {
			return nil, fmt.Errorf("decoding tips for %s/%d: %w", w.CallID, w.WindowNum, err)
		}
		if err := json.Unmarshal([]byte(feed), &w.ActivityFeed); err != nil {
			return nil, fmt.Errorf("decoding activity feed for %s/%d: %w", w.CallID, w.WindowNum, err)
		}
		w.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// PutAnalytics stores a post-call analytics record keyed by client email and
// creation time.
func (s *SQLiteCallStore) PutAnalytics(ctx context.Context, rec domain.AnalyticsRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding analytics record: %w", err)
	}

	_, err = s.db.sql.ExecContext(ctx,
		`INSERT INTO call_analytics (client_email, created_at, call_id, payload)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(client_email, created_at) DO UPDATE SET
		   call_id = excluded.call_id,
		   payload = excluded.payload`,
		rec.ClientEmail, rec.CreatedAt.UTC().Format(timeLayout), rec.CallID, string(payload),
	)
	if err != nil {
		return fmt.Errorf("storing analytics for %s: %w", rec.ClientEmail, err)
	}
	return nil
}

// LatestAnalytics returns the most recent analytics record for the client, or
// nil when the client has no prior calls.
func (s *SQLiteCallStore) LatestAnalytics(ctx context.Context, clientEmail string) (*domain.AnalyticsRecord, error) {
	var payload string
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT payload FROM call_analytics WHERE client_email = ?
		 ORDER BY created_at DESC LIMIT 1`,
		clientEmail,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying analytics for %s: %w", clientEmail, err)
	}

	var rec domain.AnalyticsRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("decoding analytics for %s: %w", clientEmail, err)
	}
	return &rec, nil
}

// emptySlice normalizes nil to an empty slice so stored JSON stays a list.
func emptySlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
