package stream

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

// Conn is a single open feed connection.
type Conn interface {
	Send(payload []byte) error
	// Read blocks until the next inbound message or connection error.
	Read() ([]byte, error)
	Close() error
}

// Dialer opens feed connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WSDialer dials the feed over a websocket.
type WSDialer struct {
	HandshakeTimeout time.Duration
}

// Dial opens a websocket connection to the given url.
func (d WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	writeMu sync.Mutex
	conn    *websocket.Conn
}

func (c *wsConn) Send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsConn) Read() ([]byte, error) {
	_, msg, err := c.conn.ReadMessage()
	return msg, err
}

func (c *wsConn) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	c.writeMu.Unlock()

	return c.conn.Close()
}
