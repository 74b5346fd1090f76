// Package console serves the live console channel over websockets. Each
// connection subscribes to one server's log stream at a time; subscribing
// delivers a snapshot of recent lines followed by every appended line until
// the connection unsubscribes or drops.
package console

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mcpanel/internal/session"
	"mcpanel/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Configure properly for production
	},
}

// Hub upgrades live-console connections and routes their messages into the
// session manager.
type Hub struct {
	sessions *session.Manager
	logger   *utils.Logger
}

// NewHub returns a hub over the given session manager.
func NewHub(sessions *session.Manager, logger *utils.Logger) *Hub {
	return &Hub{sessions: sessions, logger: logger}
}

// HandleWebSocket upgrades the request and pumps messages until the
// connection closes. The subscription is released on disconnect without
// requiring an explicit unsubscribe.
func (h *Hub) HandleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logf("WebSocket upgrade error: %v", err)
			return
		}

		client := newClient(h, conn)
		go client.writePump()
		client.readPump()
	}
}

func (h *Hub) logf(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Writef(format, args...)
	}
}
