package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/logging"
)

// Feed event types.
const (
	EventWindowProcessed = "window.processed"
	EventCallFinalized   = "call.finalized"
)

// Event is one message on the live feed.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WindowProcessedPayload announces a freshly processed window.
type WindowProcessedPayload struct {
	CallID       string                  `json:"callId"`
	WindowNum    int                     `json:"windowNum"`
	AiTips       []domain.AiTip          `json:"aiTips"`
	ActivityFeed []domain.ToolCallRecord `json:"activityFeed"`
}

// CallFinalizedPayload announces a finalized call.
type CallFinalizedPayload struct {
	CallID      string `json:"callId"`
	ClientEmail string `json:"clientEmail"`
}

const feedWriteTimeout = 10 * time.Second

var errFeedClientClosed = errors.New("feed client closed")

// feedClient serializes writes to one connection. gorilla/websocket supports
// at most one concurrent writer per connection, so every write path (broadcast
// and shutdown) must go through the same mutex.
type feedClient struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func (c *feedClient) send(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errFeedClientClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return c.conn.WriteJSON(event)
}

// close sends a close frame (best effort) and tears down the connection.
// Safe to call more than once.
func (c *feedClient) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	c.conn.Close()
}

// Feed fans events out to connected WebSocket clients. One-way: inbound
// messages from clients are read and discarded to service control frames.
type Feed struct {
	mu      sync.Mutex
	clients map[*feedClient]struct{}
	log     *logging.Logger
}

// NewFeed creates an empty feed.
func NewFeed(log *logging.Logger) *Feed {
	return &Feed{
		clients: make(map[*feedClient]struct{}),
		log:     log,
	}
}

// Add registers a connection and starts its discard loop.
func (f *Feed) Add(conn *websocket.Conn) {
	c := &feedClient{conn: conn}

	f.mu.Lock()
	f.clients[c] = struct{}{}
	count := len(f.clients)
	f.mu.Unlock()

	f.log.Info().Int("clients", count).Msg("feed client connected")

	go f.discardLoop(c)
}

// discardLoop drains inbound frames until the client disconnects.
func (f *Feed) discardLoop(c *feedClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			f.remove(c)
			return
		}
	}
}

func (f *Feed) remove(c *feedClient) {
	f.mu.Lock()
	_, ok := f.clients[c]
	delete(f.clients, c)
	count := len(f.clients)
	f.mu.Unlock()

	c.close(websocket.CloseNormalClosure, "")
	if ok {
		f.log.Info().Int("clients", count).Msg("feed client disconnected")
	}
}

// Broadcast sends an event to every connected client. Clients that fail the
// write are dropped.
func (f *Feed) Broadcast(event Event) {
	f.mu.Lock()
	clients := make([]*feedClient, 0, len(f.clients))
	for c := range f.clients {
		clients = append(clients, c)
	}
	f.mu.Unlock()

	for _, c := range clients {
		if err := c.send(event); err != nil {
			if !errors.Is(err, errFeedClientClosed) {
				f.log.Warn().Err(err).Msg("feed write failed, dropping client")
			}
			f.remove(c)
		}
	}
}

// Count returns the number of connected clients.
func (f *Feed) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// CloseAll disconnects every client.
func (f *Feed) CloseAll() {
	f.mu.Lock()
	clients := make([]*feedClient, 0, len(f.clients))
	for c := range f.clients {
		clients = append(clients, c)
	}
	f.clients = make(map[*feedClient]struct{})
	f.mu.Unlock()

	for _, c := range clients {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
}
