// Package inbox reconciles three independently arriving views of the same
// conversation data (bulk historical fetches, locally initiated optimistic
// sends, and server-pushed change events) into one ordered, de-duplicated
// timeline per conversation plus a derived inbox summary list.
package inbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/bus"
	"go.uber.org/zap"
)

// Backend is the remote side the engine talks to. The concrete transport
// lives in internal/backend; tests substitute fakes.
type Backend interface {
	FetchConversationSummaries(ctx context.Context) ([]Summary, error)
	FetchHistoricalMessages(ctx context.Context, customerID string) ([]Message, error)
	SendMessage(ctx context.Context, customerID, text string) (Message, error)
	MarkConversationRead(ctx context.Context, customerID string) error
}

// Options tune engine behavior.
type Options struct {
	// RevertPreviewOnFailure rolls the optimistic inbox preview back when a
	// send fails. Off by default: the failed text stays as the preview.
	RevertPreviewOnFailure bool
}

// Snapshot is a point-in-time copy of the engine state for the UI.
type Snapshot struct {
	Selected  string
	Messages  []Message
	Summaries []Summary
	Unread    map[string]bool
}

// Engine owns the timeline, the summary list, and the unread set. All
// mutations run on a single loop goroutine, so each merge runs to completion
// before the next begins; network calls happen off the loop and post their
// results back as further loop work.
type Engine struct {
	backend Backend
	bus     *bus.Bus
	logger  *zap.Logger
	opts    Options

	calls  chan func()
	ctx    context.Context
	cancel context.CancelFunc

	// Loop-owned. Nothing outside the run loop touches these.
	selected  string
	timeline  *timeline
	summaries *summaryList
	unread    map[string]bool

	mu   sync.RWMutex
	snap Snapshot
}

// NewEngine creates an engine. Start must be called before any entry point.
func NewEngine(backend Backend, b *bus.Bus, logger *zap.Logger, opts Options) *Engine {
	return &Engine{
		backend:   backend,
		bus:       b,
		logger:    logger,
		opts:      opts,
		calls:     make(chan func(), 64),
		ctx:       context.Background(),
		timeline:  newTimeline(),
		summaries: &summaryList{},
		unread:    make(map[string]bool),
	}
}

// Start launches the run loop, subscribes to push events, and kicks off the
// bulk summary fetch.
func (e *Engine) Start(ctx context.Context) {
	e.ctx, e.cancel = context.WithCancel(ctx)
	pushCh, unsub := e.bus.Subscribe("push.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case fn := <-e.calls:
				fn()
			case evt := <-pushCh:
				e.handlePush(evt)
			case <-e.ctx.Done():
				return
			}
		}
	}()

	e.post(e.refreshSummaries)
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Snapshot returns the current engine state for rendering.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// SelectConversation switches the open conversation. The previous timeline
// is cleared, the new history is fetched, and the conversation is marked
// read. An empty ID closes the conversation pane.
func (e *Engine) SelectConversation(customerID string) {
	e.post(func() {
		e.selected = customerID
		e.timeline.clear()
		if customerID == "" {
			e.publishTimeline()
			return
		}
		// No timeline publish here: an empty update for the new selection
		// would read as "no messages" downstream. The history fetch
		// publishes the real state, empty or not.
		e.refreshSnapshot()
		e.markRead(customerID)
		e.fetchHistory(customerID)
	})
}

// SubmitOutgoingMessage sends text to the selected conversation through the
// optimistic pipeline. No-op when nothing is selected.
func (e *Engine) SubmitOutgoingMessage(text string) {
	e.post(func() {
		if e.selected == "" || text == "" {
			return
		}
		e.send(e.selected, text, uuid.NewString())
	})
}

// RetryFailedMessage re-enters the send pipeline for a failed message,
// reusing its provisional ID and text.
func (e *Engine) RetryFailedMessage(id string) {
	e.post(func() {
		m, ok := e.timeline.get(id)
		if !ok || m.Delivery != DeliveryFailed {
			return
		}
		e.send(m.CustomerID, m.Content, m.ID)
	})
}

// OnScrolledToBottom acknowledges the selected conversation once the
// operator has seen its latest messages.
func (e *Engine) OnScrolledToBottom() {
	e.post(func() {
		if e.selected == "" || !e.unread[e.selected] {
			return
		}
		e.markRead(e.selected)
	})
}

// post schedules fn on the run loop.
func (e *Engine) post(fn func()) {
	select {
	case e.calls <- fn:
	case <-e.ctx.Done():
	}
}

// refreshSummaries spawns the bulk summary fetch. Called on the loop.
func (e *Engine) refreshSummaries() {
	go func() {
		sums, err := e.backend.FetchConversationSummaries(e.ctx)
		if err != nil {
			e.logger.Warn("summary fetch failed", zap.Error(err))
			return
		}
		e.post(func() { e.applySummaries(sums) })
	}()
}

func (e *Engine) applySummaries(sums []Summary) {
	e.summaries.reset(sums)
	unread := make(map[string]bool)
	for _, s := range sums {
		if s.Unread() {
			unread[s.CustomerID] = true
		}
	}
	e.unread = unread
	e.publishInbox()
}

// fetchHistory loads a conversation's history. By the time the response
// lands the operator may have moved on, so a response for a no-longer
// selected conversation is discarded instead of merged.
func (e *Engine) fetchHistory(customerID string) {
	go func() {
		msgs, err := e.backend.FetchHistoricalMessages(e.ctx, customerID)
		if err != nil {
			e.logger.Warn("history fetch failed", zap.String("customer_id", customerID), zap.Error(err))
			return
		}
		e.post(func() {
			if e.selected != customerID {
				e.logger.Debug("discarding stale history response", zap.String("customer_id", customerID))
				return
			}
			e.timeline.merge(msgs)
			e.publishTimeline()
		})
	}()
}

// send runs the optimistic pipeline for one outgoing message. Called on the
// loop; customerID is the selection at submission time.
func (e *Engine) send(customerID, text, provisionalID string) {
	submitted := time.Now()
	prev, hadPrev := e.summaries.get(customerID)

	var saved Message
	e.runTask(optimisticTask{
		apply: func() {
			e.timeline.merge([]Message{{
				ID:         provisionalID,
				CustomerID: customerID,
				Content:    text,
				Direction:  DirectionOut,
				CreatedAt:  submitted,
				Delivery:   DeliverySending,
			}})
			e.publishTimeline()
			e.summaries.applyPreview(customerID, text, submitted)
			e.publishInbox()
		},
		remote: func(ctx context.Context) error {
			var err error
			saved, err = e.backend.SendMessage(ctx, customerID, text)
			return err
		},
		done: func(err error) {
			if err != nil {
				e.failSend(customerID, provisionalID, prev, hadPrev, err)
				return
			}
			saved.CustomerID = customerID
			saved.Direction = DirectionOut
			saved.Delivery = DeliverySent
			if e.selected == customerID {
				e.timeline.replaceID(provisionalID, saved)
				e.publishTimeline()
			}
			e.summaries.applyPreview(customerID, saved.Content, saved.CreatedAt)
			e.publishInbox()
		},
	})
}

func (e *Engine) failSend(customerID, provisionalID string, prev Summary, hadPrev bool, err error) {
	e.logger.Warn("send failed",
		zap.String("customer_id", customerID),
		zap.String("msg_id", provisionalID),
		zap.Error(err))

	if e.selected == customerID && e.timeline.setDelivery(provisionalID, DeliveryFailed) {
		e.publishTimeline()
	}
	if e.opts.RevertPreviewOnFailure && hadPrev {
		e.summaries.applyPreview(customerID, prev.LastMessageText, prev.LastMessageTime)
		e.publishInbox()
	}
	e.bus.Publish(bus.Event{
		Kind:    bus.KindSendFailed,
		Payload: SendFailure{
			CustomerID: customerID,
			MessageID:  provisionalID,
			Err:        err.Error(),
		},
	})
}

// markRead acknowledges a conversation: the unread flag clears immediately,
// the remote call is best-effort. Called on the loop.
func (e *Engine) markRead(customerID string) {
	e.runTask(optimisticTask{
		apply: func() {
			delete(e.unread, customerID)
			e.summaries.touchRead(customerID, time.Now())
			e.publishInbox()
		},
		remote: func(ctx context.Context) error {
			return e.backend.MarkConversationRead(ctx, customerID)
		},
		done: func(err error) {
			if err != nil {
				// Unread state is advisory; failures are logged, never retried.
				e.logger.Warn("mark read failed", zap.String("customer_id", customerID), zap.Error(err))
			}
		},
	})
}

func (e *Engine) handlePush(evt bus.Event) {
	switch evt.Kind {
	case bus.KindPushMessage:
		ev, ok := evt.Payload.(Event)
		if !ok {
			return
		}
		e.ingest(ev)
	case bus.KindPushResync:
		// The feed dropped events while disconnected; a fresh fetch is the
		// recovery path, nothing is buffered or replayed.
		e.refreshSummaries()
		if e.selected != "" {
			e.fetchHistory(e.selected)
		}
	}
}

// ingest folds one push event into the stores.
func (e *Engine) ingest(ev Event) {
	if !e.summaries.applyPreview(ev.CustomerID, ev.Content, ev.CreatedAt) {
		// First message from a customer the bulk fetch has not seen yet.
		e.refreshSummaries()
	}
	if ev.Direction == DirectionIn {
		e.unread[ev.CustomerID] = true
		if ev.CustomerID == e.selected {
			e.timeline.merge([]Message{ev.Message()})
			e.publishTimeline()
		}
	}
	// Outgoing events never mark a conversation unread: the operator's own
	// traffic is reconciled by the send pipeline, not the unread set.
	e.publishInbox()
}

func (e *Engine) publishInbox() {
	e.refreshSnapshot()
	e.bus.Publish(bus.Event{
		Kind:    bus.KindInboxUpdated,
		Payload: e.summaries.list(),
	})
}

func (e *Engine) publishTimeline() {
	e.refreshSnapshot()
	e.bus.Publish(bus.Event{
		Kind:    bus.KindTimelineUpdated,
		Payload: TimelineUpdate{
			CustomerID: e.selected,
			Messages:   e.timeline.list(),
		},
	})
}

func (e *Engine) refreshSnapshot() {
	unread := make(map[string]bool, len(e.unread))
	for id := range e.unread {
		unread[id] = true
	}
	snap := Snapshot{
		Selected:  e.selected,
		Messages:  e.timeline.list(),
		Summaries: e.summaries.list(),
		Unread:    unread,
	}
	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
}
