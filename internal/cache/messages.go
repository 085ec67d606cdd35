package cache

import (
	"fmt"
	"time"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/inbox"
)

// ReplaceConversation swaps the cached timeline for one customer with the
// batch, in a transaction. The batch is the engine's whole current view, so
// provisional rows that were confirmed under a new id do not linger.
func (db *DB) ReplaceConversation(customerID string, msgs []inbox.Message) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM messages WHERE customer_id = ?`, customerID); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}

	now := time.Now().UnixMilli()
	for _, m := range msgs {
		if _, err := tx.Exec(`
			INSERT INTO messages (customer_id, msg_id, content, direction, delivery, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(customer_id, msg_id) DO UPDATE SET
				content = excluded.content,
				delivery = excluded.delivery,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at`,
			customerID, m.ID, m.Content, string(m.Direction), string(m.Delivery), toMillis(m.CreatedAt), now); err != nil {
			return fmt.Errorf("upsert message: %w", err)
		}
	}

	return tx.Commit()
}

// ListMessages returns the cached timeline for one customer, ascending by
// creation time.
func (db *DB) ListMessages(customerID string) ([]inbox.Message, error) {
	rows, err := db.Query(`
		SELECT msg_id, content, direction, delivery, created_at
		FROM messages
		WHERE customer_id = ?
		ORDER BY created_at ASC, msg_id ASC`, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []inbox.Message
	for rows.Next() {
		m := inbox.Message{CustomerID: customerID}
		var direction, delivery string
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.Content, &direction, &delivery, &createdAt); err != nil {
			return nil, err
		}
		m.Direction = inbox.Direction(direction)
		m.Delivery = inbox.DeliveryState(delivery)
		m.CreatedAt = fromMillis(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
