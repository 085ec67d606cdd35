// Package push maintains the long-lived WebSocket feed of "message inserted"
// notifications. Decoded events go out on the bus; the sync engine never
// sees the wire protocol. Nothing is buffered across disconnects; after a
// reconnect the feed publishes a resync request and the engine refetches.
package push

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/bus"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/status"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	maxFrameSize = 64 * 1024
	maxBackoff   = 30 * time.Second

	// After this many consecutive failed dials the feed reports Degraded.
	degradedAfter = 5
)

// Feed owns the WebSocket connection to the backend's realtime endpoint.
type Feed struct {
	url     string
	token   string
	bus     *bus.Bus
	machine *status.Machine
	logger  *zap.Logger
	cancel  context.CancelFunc
}

// NewFeed creates a feed for the given ws:// or wss:// URL.
func NewFeed(url, token string, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *Feed {
	return &Feed{
		url:     url,
		token:   token,
		bus:     b,
		machine: machine,
		logger:  logger,
	}
}

// Start launches the connect/read/reconnect loop.
func (f *Feed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	go f.loop(ctx)
}

// Stop closes the feed.
func (f *Feed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
}

func (f *Feed) loop(ctx context.Context) {
	backoff := time.Second
	failures := 0
	connectedBefore := false

	for {
		if ctx.Err() != nil {
			_ = f.machine.Transition(status.Stopped)
			return
		}

		_ = f.machine.Transition(status.Connecting)
		conn, err := f.dial(ctx)
		if err != nil {
			failures++
			f.logger.Warn("feed dial failed", zap.Error(err), zap.Int("failures", failures))
			_ = f.machine.Transition(status.Reconnecting)
			if failures >= degradedAfter {
				_ = f.machine.Transition(status.Degraded)
			}
			if !sleep(ctx, backoff) {
				_ = f.machine.Transition(status.Stopped)
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		failures = 0
		backoff = time.Second
		_ = f.machine.Transition(status.Live)
		f.logger.Info("feed connected", zap.String("url", f.url))

		if connectedBefore {
			// Events were lost while disconnected; ask the engine to refetch.
			f.bus.Publish(bus.Event{Kind: bus.KindPushResync})
		}
		connectedBefore = true

		f.readUntilClosed(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			_ = f.machine.Transition(status.Stopped)
			return
		}
		f.logger.Warn("feed disconnected")
		_ = f.machine.Transition(status.Reconnecting)
		if !sleep(ctx, backoff) {
			_ = f.machine.Transition(status.Stopped)
			return
		}
	}
}

func (f *Feed) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if f.token != "" {
		header.Set("Authorization", "Bearer "+f.token)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, header)
	return conn, err
}

// readUntilClosed pumps frames off the connection until it errors or the
// context ends. Decoded events are published under the push. namespace.
func (f *Feed) readUntilClosed(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-pingDone:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := decodeEvent(data)
		if err != nil {
			f.logger.Warn("dropping bad feed frame", zap.Error(err))
			continue
		}
		f.bus.Publish(bus.Event{
			Kind:    bus.KindPushMessage,
			Payload: ev,
		})
	}
}

func nextBackoff(d time.Duration) time.Duration {
	return min(d*2, maxBackoff)
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
