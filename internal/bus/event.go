package bus

import "time"

// Event kinds published across the app. Subscribers filter by namespace
// prefix, so "inbox." matches both inbox.updated and inbox.send_failed.
const (
	// KindPushMessage carries an inbox.Event decoded from the push feed.
	KindPushMessage = "push.message"
	// KindPushResync asks the engine to refetch after a feed reconnect.
	KindPushResync = "push.resync"

	// KindInboxUpdated fires after any conversation summary mutation.
	KindInboxUpdated = "inbox.updated"
	// KindTimelineUpdated fires after any mutation of the selected
	// conversation's message timeline.
	KindTimelineUpdated = "timeline.updated"
	// KindSendFailed fires when an outgoing message settles as failed.
	KindSendFailed = "inbox.send_failed"

	// KindFeedStatus carries push feed connectivity changes.
	KindFeedStatus = "feed.status_changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
