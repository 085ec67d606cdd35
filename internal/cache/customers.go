package cache

import (
	"time"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/inbox"
)

// UpsertCustomer inserts or updates one inbox row (idempotent on id).
func (db *DB) UpsertCustomer(s inbox.Summary) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO customers (id, name, phone, last_message, last_message_at, last_read_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			last_message = excluded.last_message,
			last_message_at = excluded.last_message_at,
			last_read_at = excluded.last_read_at,
			updated_at = excluded.updated_at`,
		s.CustomerID, s.Name, s.Phone, s.LastMessageText, toMillis(s.LastMessageTime), toMillis(s.LastReadAt), now)
	return err
}

// ListCustomers returns cached inbox rows sorted by last message descending.
func (db *DB) ListCustomers() ([]inbox.Summary, error) {
	rows, err := db.Query(`
		SELECT id, name, phone, last_message, last_message_at, last_read_at
		FROM customers
		ORDER BY last_message_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sums []inbox.Summary
	for rows.Next() {
		var s inbox.Summary
		var msgAt, readAt int64
		if err := rows.Scan(&s.CustomerID, &s.Name, &s.Phone, &s.LastMessageText, &msgAt, &readAt); err != nil {
			return nil, err
		}
		s.LastMessageTime = fromMillis(msgAt)
		s.LastReadAt = fromMillis(readAt)
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
