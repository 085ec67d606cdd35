package cache

import (
	"context"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/bus"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/inbox"
	"go.uber.org/zap"
)

// Mirror trails engine state into the cache DB. It subscribes to inbox and
// timeline updates and writes them through; failures are logged and skipped,
// a stale cache only costs a slower first paint.
type Mirror struct {
	db     *DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewMirror creates a mirror writing engine updates into db.
func NewMirror(db *DB, b *bus.Bus, logger *zap.Logger) *Mirror {
	return &Mirror{db: db, bus: b, logger: logger}
}

// Start subscribes to engine updates on the bus.
func (m *Mirror) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	inboxCh, unsubInbox := m.bus.Subscribe(bus.KindInboxUpdated, 256)
	timelineCh, unsubTimeline := m.bus.Subscribe(bus.KindTimelineUpdated, 256)

	go func() {
		defer unsubInbox()
		defer unsubTimeline()
		for {
			select {
			case evt := <-inboxCh:
				if sums, ok := evt.Payload.([]inbox.Summary); ok {
					m.writeSummaries(sums)
				}
			case evt := <-timelineCh:
				if tu, ok := evt.Payload.(inbox.TimelineUpdate); ok {
					m.writeTimeline(tu)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the mirror.
func (m *Mirror) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Mirror) writeSummaries(sums []inbox.Summary) {
	for _, s := range sums {
		if err := m.db.UpsertCustomer(s); err != nil {
			m.logger.Warn("cache customer write failed", zap.String("customer_id", s.CustomerID), zap.Error(err))
			return
		}
	}
}

func (m *Mirror) writeTimeline(tu inbox.TimelineUpdate) {
	// The engine publishes an empty timeline when a conversation is being
	// switched or closed; wiping the cache for that would throw away history
	// the next warm start wants.
	if tu.CustomerID == "" || len(tu.Messages) == 0 {
		return
	}
	if err := m.db.ReplaceConversation(tu.CustomerID, tu.Messages); err != nil {
		m.logger.Warn("cache timeline write failed", zap.String("customer_id", tu.CustomerID), zap.Error(err))
	}
}
