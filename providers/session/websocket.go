package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	closeWriteWait = time.Second
	// DefaultWriteTimeout bounds a frame write when the caller's context
	// has no deadline.
	DefaultWriteTimeout = 10 * time.Second
)

// WebSocketDialer dials a provider WebSocket endpoint.
type WebSocketDialer struct {
	URL              string
	Header           http.Header
	HandshakeTimeout time.Duration
	// WriteTimeout bounds each frame write. Zero means DefaultWriteTimeout.
	WriteTimeout time.Duration
	// Dialer overrides websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

func (d WebSocketDialer) Dial(ctx context.Context) (Transport, error) {
	dialer := *websocket.DefaultDialer
	if d.Dialer != nil {
		dialer = *d.Dialer
	}
	if d.HandshakeTimeout > 0 {
		dialer.HandshakeTimeout = d.HandshakeTimeout
	}
	dialer.ReadBufferSize = 8192
	dialer.WriteBufferSize = 8192

	conn, resp, err := dialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	t := NewWebSocketTransport(conn)
	if d.WriteTimeout > 0 {
		t.writeTimeout = d.WriteTimeout
	}
	return t, nil
}

// WebSocketTransport is a Transport over a gorilla WebSocket connection.
type WebSocketTransport struct {
	conn         *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	closeOnce    sync.Once
}

// NewWebSocketTransport wraps an established connection.
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{conn: conn, writeTimeout: DefaultWriteTimeout}
}

func (t *WebSocketTransport) Send(ctx context.Context, f Frame) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(t.writeTimeout)
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	msgType := websocket.TextMessage
	if f.Type == BinaryFrame {
		msgType = websocket.BinaryMessage
	}
	return t.conn.WriteMessage(msgType, f.Data)
}

func (t *WebSocketTransport) Receive(_ context.Context) (Frame, error) {
	msgType, data, err := t.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			return Frame{}, io.EOF
		}
		return Frame{}, err
	}
	if msgType == websocket.BinaryMessage {
		return Binary(data), nil
	}
	return Text(data), nil
}

// Close sends a close frame and releases the connection. It is safe to call
// more than once and concurrently with a blocked Send, which it unblocks.
// WriteControl and Close may run alongside other writes, so writeMu is not
// taken here.
func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		err = t.conn.Close()
	})
	return err
}
