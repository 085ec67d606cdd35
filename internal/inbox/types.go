package inbox

import "time"

// Direction says who authored a message.
type Direction string

const (
	// DirectionIn is a message received from the customer.
	DirectionIn Direction = "in"
	// DirectionOut is a message sent by the operator.
	DirectionOut Direction = "out"
)

// DeliveryState tracks an outgoing message through the send pipeline.
// Incoming messages carry DeliveryNone.
type DeliveryState string

const (
	DeliveryNone    DeliveryState = ""
	DeliverySending DeliveryState = "sending"
	DeliverySent    DeliveryState = "sent"
	DeliveryFailed  DeliveryState = "failed"
)

// Message is one entry in a conversation timeline. ID is either a
// server-issued identifier or a client-generated provisional one; the two
// are never reused across messages.
type Message struct {
	ID         string
	CustomerID string
	Content    string
	Direction  Direction
	CreatedAt  time.Time
	Delivery   DeliveryState
}

// Summary is the inbox row for one customer conversation.
type Summary struct {
	CustomerID      string
	Name            string
	Phone           string
	LastMessageText string
	LastMessageTime time.Time // zero when the conversation has no messages
	LastReadAt      time.Time // zero when the operator never opened it
}

// DisplayName returns the customer name, falling back to the phone number.
func (s Summary) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Phone
}

// Unread reports whether the conversation has activity the operator has not
// acknowledged: a last message newer than the last read marker.
func (s Summary) Unread() bool {
	if s.LastMessageTime.IsZero() {
		return false
	}
	return s.LastReadAt.IsZero() || s.LastMessageTime.After(s.LastReadAt)
}

// Event is a push notification that a message was persisted server-side.
type Event struct {
	CustomerID string
	MessageID  string
	Content    string
	Direction  Direction
	CreatedAt  time.Time
}

// Message converts the event into a timeline entry.
func (e Event) Message() Message {
	return Message{
		ID:         e.MessageID,
		CustomerID: e.CustomerID,
		Content:    e.Content,
		Direction:  e.Direction,
		CreatedAt:  e.CreatedAt,
	}
}

// SendFailure is the bus payload published when a send settles as failed.
type SendFailure struct {
	CustomerID string
	MessageID  string
	Err        string
}

// TimelineUpdate is the bus payload for timeline mutations.
type TimelineUpdate struct {
	CustomerID string
	Messages   []Message
}
