package wsclient

import (
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amobagan/nutristream/stream"
)

const closeGrace = time.Second

// Conn adapts a websocket connection to stream.Conn. Writes are serialized;
// Recv must be called from a single goroutine.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

var _ stream.Conn = (*Conn)(nil)

func newConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

// Send writes req as one JSON text frame.
func (c *Conn) Send(req stream.Request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(req)
}

// Recv returns io.EOF when the peer closes normally and a MALFORMED_MESSAGE
// error for a frame that is not valid JSON.
func (c *Conn) Recv() (stream.Message, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, err
	}
	return stream.DecodeMessage(data)
}

// Close sends a normal-closure frame and releases the socket. Later calls
// return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
