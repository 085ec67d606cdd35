package push

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/inbox"
)

// wireEvent is one frame on the feed. The backend emits a frame per row
// inserted into the messages table.
type wireEvent struct {
	Type    string `json:"type"`
	Message struct {
		ID         string    `json:"id"`
		CustomerID string    `json:"customer_id"`
		Content    string    `json:"content"`
		Direction  string    `json:"direction"`
		CreatedAt  time.Time `json:"created_at"`
	} `json:"message"`
}

const typeMessageInserted = "message.inserted"

// decodeEvent parses a feed frame. Frames of other types, or frames missing
// the fields the merge key depends on, are rejected here so nothing
// malformed ever reaches the stores.
func decodeEvent(data []byte) (inbox.Event, error) {
	var we wireEvent
	if err := json.Unmarshal(data, &we); err != nil {
		return inbox.Event{}, fmt.Errorf("decode feed frame: %w", err)
	}
	if we.Type != typeMessageInserted {
		return inbox.Event{}, fmt.Errorf("unexpected frame type %q", we.Type)
	}
	m := we.Message
	if m.ID == "" || m.CustomerID == "" || m.CreatedAt.IsZero() {
		return inbox.Event{}, fmt.Errorf("frame missing id, customer_id or created_at")
	}
	switch inbox.Direction(m.Direction) {
	case inbox.DirectionIn, inbox.DirectionOut:
	default:
		return inbox.Event{}, fmt.Errorf("unknown direction %q", m.Direction)
	}
	return inbox.Event{
		CustomerID: m.CustomerID,
		MessageID:  m.ID,
		Content:    m.Content,
		Direction:  inbox.Direction(m.Direction),
		CreatedAt:  m.CreatedAt,
	}, nil
}
