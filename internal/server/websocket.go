package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gobwas/glob"
	"github.com/gorilla/websocket"
	"github.com/semscan/semscan/internal/classify"
)

// feedHub fans classified columns out to live-feed clients on /ws.
//
// Unlike a plain broadcast, the feed is subscription-aware: a client
// may send {"fields": ["email*", "phone"]} at any time to restrict
// its stream to matching column names (gobwas/glob syntax, the same
// patterns the scan allow-list uses). With no subscription set, a
// client receives every column.
//
// All hub state lives in the run() goroutine; joins, leaves,
// subscription updates, and column events arrive over channels, so
// the client set and per-client filters need no locks.
type feedHub struct {
	clients map[*feedClient]bool

	events    chan classify.ColumnReport
	subscribe chan subscription
	join      chan *feedClient
	leave     chan *feedClient
}

// feedClient is one /ws connection plus its current column filter.
type feedClient struct {
	conn *websocket.Conn
	send chan []byte
	// fields is the compiled subscription; nil means "everything".
	// Owned by the hub goroutine after the client joins.
	fields []glob.Glob
}

// subscription carries a client's new column filter to the hub.
type subscription struct {
	client *feedClient
	fields []glob.Glob
}

// subscribeRequest is the JSON message a client sends to narrow its
// feed.
type subscribeRequest struct {
	Fields []string `json:"fields"`
}

// upgrader handles HTTP → WebSocket protocol upgrade. CheckOrigin
// allows all origins — the server binds loopback by default and the
// feed carries no state-changing operations.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newFeedHub() *feedHub {
	return &feedHub{
		clients:   make(map[*feedClient]bool),
		events:    make(chan classify.ColumnReport, 256),
		subscribe: make(chan subscription),
		join:      make(chan *feedClient),
		leave:     make(chan *feedClient),
	}
}

// run is the hub event loop. Runs in a background goroutine for the
// server's lifetime.
func (h *feedHub) run() {
	for {
		select {
		case c := <-h.join:
			h.clients[c] = true
			slog.Debug("feed client connected", "total", len(h.clients))

		case c := <-h.leave:
			h.drop(c)

		case sub := <-h.subscribe:
			// A filter for a client that already left is stale; the
			// membership check keeps it from resurrecting the entry.
			if h.clients[sub.client] {
				sub.client.fields = sub.fields
				slog.Debug("feed subscription updated", "patterns", len(sub.fields))
			}

		case col := <-h.events:
			h.deliver(col)
		}
	}
}

// deliver sends one classified column to every client whose
// subscription admits its field name.
func (h *feedHub) deliver(col classify.ColumnReport) {
	var data []byte // Marshaled lazily, once, on the first recipient.
	for c := range h.clients {
		if !c.wantsField(col.Field) {
			continue
		}
		if data == nil {
			var err error
			if data, err = json.Marshal(col); err != nil {
				slog.Error("failed to marshal feed column", "error", err)
				return
			}
		}
		select {
		case c.send <- data:
		default:
			// Send buffer full — a stalled client is dropped rather
			// than allowed to hold up the feed.
			h.drop(c)
		}
	}
}

// drop removes a client and closes its send channel. Safe to call
// for a client that was already dropped.
func (h *feedHub) drop(c *feedClient) {
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
		slog.Debug("feed client disconnected", "total", len(h.clients))
	}
}

// publish enqueues a column event. Non-blocking — the feed is
// best-effort and a full event queue drops the column.
func (h *feedHub) publish(col classify.ColumnReport) {
	select {
	case h.events <- col:
	default:
	}
}

// wantsField applies the client's subscription to a column name.
func (c *feedClient) wantsField(field string) bool {
	if len(c.fields) == 0 {
		return true
	}
	for _, g := range c.fields {
		if g.Match(field) {
			return true
		}
	}
	return false
}

// handleWebSocket upgrades the connection and attaches it to the
// feed.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &feedClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	s.feed.join <- client

	go client.writeLoop()
	go client.readLoop(s.feed)
}

// writeLoop is the sole writer on the connection: it forwards column
// events until the hub closes the send channel.
func (c *feedClient) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readLoop consumes subscription messages until the client
// disconnects. Anything that doesn't parse as a subscription is
// ignored — the read side also serves to notice the close.
func (c *feedClient) readLoop(hub *feedHub) {
	defer func() {
		hub.leave <- c
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req subscribeRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			continue
		}
		fields := make([]glob.Glob, 0, len(req.Fields))
		for _, pat := range req.Fields {
			g, err := glob.Compile(pat)
			if err != nil {
				slog.Warn("ignoring invalid feed pattern", "pattern", pat, "error", err)
				continue
			}
			fields = append(fields, g)
		}
		hub.subscribe <- subscription{client: c, fields: fields}
	}
}
