// Package notifications tracks which completed-booking notifications a
// customer has already seen. This is UI-local state: the backend does not
// know about it, so it lives in a small local database.
package notifications

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists viewed notification ids per user.
type Store struct {
	db *sql.DB
}

// NewStore opens the database at path and runs migrations.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS viewed_notifications (
			user_id TEXT NOT NULL,
			booking_id INTEGER NOT NULL,
			viewed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, booking_id)
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_viewed_user ON viewed_notifications(user_id)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MarkViewed records that the user has seen the notification for a booking.
// Marking twice is a no-op.
func (s *Store) MarkViewed(ctx context.Context, userID string, bookingID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO viewed_notifications (user_id, booking_id)
		VALUES (?, ?)
		ON CONFLICT(user_id, booking_id) DO NOTHING`,
		userID, bookingID)
	return err
}

// ViewedIDs returns every booking id the user has marked as seen.
func (s *Store) ViewedIDs(ctx context.Context, userID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT booking_id FROM viewed_notifications
		WHERE user_id = ?
		ORDER BY booking_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Prune drops viewed marks older than the retention period.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM viewed_notifications
		WHERE viewed_at < ?`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
