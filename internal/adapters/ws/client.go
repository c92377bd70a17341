package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scoretable/scoretable/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The scoreboard displays live on the local network; the feed is
	// read-only so cross-origin subscriptions are allowed.
	CheckOrigin: func(*http.Request) bool { return true },
}

type client struct {
	hub       *Hub
	conn      *websocket.Conn
	stream    string
	send      chan []byte
	closeOnce sync.Once
}

// ServeHTTP upgrades the request to a websocket subscription for the
// stream named in the path.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stream := r.PathValue("stream")
	if stream == "" {
		http.Error(w, "missing stream", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed",
			logger.String("stream", stream), logger.Error(err))
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		stream: stream,
		send:   make(chan []byte, defaultSendBuffer),
	}
	h.register(c)

	// Send the current snapshot immediately so a reconnecting display
	// does not wait for the next event.
	if state, _, ok := h.snapshots.Snapshot(r.Context(), stream); ok {
		h.StreamUpdated(stream, state)
	}

	go c.writePump()
	go c.readPump()
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection so control frames are processed, and
// tears the client down when the peer goes away.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug(context.Background(), "websocket read ended",
					logger.String("stream", c.stream), logger.Error(err))
			}
			return
		}
	}
}
