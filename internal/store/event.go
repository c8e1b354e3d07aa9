package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
)

// logCap bounds the persisted notification log. Older entries are pruned on
// insert; the server keeps the authoritative history.
const logCap = 100

// EventStore is the persisted notification log: newest first, capped, and
// idempotent on the server event id so reconnect replays never double-insert.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// Insert adds an event if its id is not already present and reports whether
// the row was new. Duplicate deliveries are skipped but not errors.
func (s *EventStore) Insert(e model.NotificationEvent) (bool, error) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO notifications (id, type, booking_id, message, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		e.ID, e.Type, e.BookingID, e.Message, boolToInt(e.Read), ts.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert notification rows: %w", err)
	}
	if n > 0 {
		if err := s.prune(); err != nil {
			return true, err
		}
	}
	return n > 0, nil
}

// List returns up to limit events, newest first. limit <= 0 means the full
// capped log.
func (s *EventStore) List(limit int) ([]model.NotificationEvent, error) {
	if limit <= 0 || limit > logCap {
		limit = logCap
	}
	rows, err := s.db.Query(
		`SELECT id, type, booking_id, message, read, created_at
		 FROM notifications ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// UnreadCount returns how many logged events are still unread.
func (s *EventStore) UnreadCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE read = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead flips the local read flag for one event.
func (s *EventStore) MarkRead(id int64) error {
	_, err := s.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// Delete removes one event from the log.
func (s *EventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole log for the server's authoritative list in one
// transaction. Used once per session start to correct for events missed
// while offline.
func (s *EventStore) ReplaceAll(events []model.NotificationEvent) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace notifications: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM notifications`); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}

	if len(events) > logCap {
		events = events[:logCap]
	}
	for _, e := range events {
		ts := e.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := tx.Exec(
			`INSERT INTO notifications (id, type, booking_id, message, read, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			e.ID, e.Type, e.BookingID, e.Message, boolToInt(e.Read), ts.UTC(),
		); err != nil {
			return fmt.Errorf("insert notification %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notifications: %w", err)
	}
	return nil
}

// Clear empties the log. Used on logout.
func (s *EventStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM notifications`)
	if err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}

func (s *EventStore) prune() error {
	_, err := s.db.Exec(
		`DELETE FROM notifications WHERE id NOT IN (
		     SELECT id FROM notifications ORDER BY created_at DESC, id DESC LIMIT ?
		 )`, logCap,
	)
	if err != nil {
		return fmt.Errorf("prune notifications: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]model.NotificationEvent, error) {
	var events []model.NotificationEvent
	for rows.Next() {
		var e model.NotificationEvent
		var readInt int
		if err := rows.Scan(&e.ID, &e.Type, &e.BookingID, &e.Message, &readInt, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		e.Read = readInt != 0
		events = append(events, e)
	}
	return events, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
