package console

import (
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"

	"mcpanel/internal/session"
)

const sendBufferSize = 256

// inboundMessage is a frame from the live-console client. Limit is kept raw
// so a non-numeric value degrades to the default instead of failing the
// whole frame.
type inboundMessage struct {
	Type     string          `json:"type"`
	ServerID string          `json:"serverId"`
	Limit    json.RawMessage `json:"limit"`
	Command  string          `json:"command"`
}

type snapshotMessage struct {
	Type string   `json:"type"`
	Logs []string `json:"logs"`
}

type lineMessage struct {
	Type string `json:"type"`
	Line string `json:"line"`
}

// Client is one live-console connection. It implements session.Sink; log
// delivery goes through a buffered send channel drained by writePump, so a
// slow consumer never blocks the fan-out critical section.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// SendSnapshot delivers the subscribe-time tail.
func (c *Client) SendSnapshot(lines []string) error {
	if lines == nil {
		lines = []string{}
	}
	return c.enqueue(snapshotMessage{Type: "logs", Logs: lines})
}

// SendLine delivers one incremental log line.
func (c *Client) SendLine(line string) error {
	return c.enqueue(lineMessage{Type: "log", Line: line})
}

// enqueue marshals and queues a frame without blocking. A full buffer marks
// the client dead so the session drops it.
func (c *Client) enqueue(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// readPump consumes client frames until the connection drops. Malformed
// frames and unknown message types are silently dropped, never fatal.
func (c *Client) readPump() {
	defer func() {
		c.hub.sessions.Unsubscribe(c)
		close(c.send)
	}()
	c.conn.SetReadLimit(4096)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.logf("WebSocket read error: %v", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "subscribe":
			c.hub.sessions.Subscribe(c, msg.ServerID, parseLimit(msg.Limit))
		case "command":
			c.hub.sessions.Command(c, msg.Command)
		}
	}
}

// writePump drains the send channel onto the wire. Runs until the channel
// closes or a write fails, then tears the connection down.
func (c *Client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// parseLimit decodes the optional subscribe limit. Missing or non-numeric
// values fall back to the session default; out-of-range values are clamped
// by the tail itself.
func parseLimit(raw json.RawMessage) int {
	if len(raw) == 0 {
		return session.DefaultTailLimit
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return session.DefaultTailLimit
	}
	return int(n)
}
