package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agnivade/voicerouter"
	"github.com/agnivade/voicerouter/providers"
)

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func mockWebSocketServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server, audio string) (*Client, *syncBuffer, *syncBuffer) {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	out, file := &syncBuffer{}, &syncBuffer{}
	return &Client{
		conn:                conn,
		audioReader:         strings.NewReader(audio),
		frameSize:           4,
		log:                 zerolog.Nop(),
		out:                 out,
		file:                file,
		msgBuffer:           NewMessageBuffer(10),
		similarityThreshold: 0.8,
	}, out, file
}

func TestWriterSendsFramesThenClose(t *testing.T) {
	type frame struct {
		binary bool
		data   string
	}
	got := make(chan frame, 10)
	server := mockWebSocketServer(t, func(conn *websocket.Conn) {
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			got <- frame{binary: mt == websocket.BinaryMessage, data: string(data)}
		}
	})

	client, _, _ := newTestClient(t, server, "abcdefghij")
	client.wg.Add(1)
	go client.writer()

	var frames []frame
	for len(frames) < 4 {
		select {
		case f := <-got:
			frames = append(frames, f)
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d frames", len(frames))
		}
	}
	client.wg.Wait()

	assert.Equal(t, frame{binary: true, data: "abcd"}, frames[0])
	assert.Equal(t, frame{binary: true, data: "efgh"}, frames[1])
	assert.Equal(t, frame{binary: true, data: "ij"}, frames[2])
	assert.False(t, frames[3].binary)
	assert.JSONEq(t, `{"type":"close"}`, frames[3].data)
}

func TestReaderPrintsFinals(t *testing.T) {
	server := mockWebSocketServer(t, func(conn *websocket.Conn) {
		msgs := []voicerouter.WebSocketResponse{
			{Type: voicerouter.MessageSession, SessionID: "s1", Provider: providers.Deepgram},
			{Type: "transcript", Text: "hello"},
			{Type: "transcript", Text: "hello world", IsFinal: true},
			{Type: "transcript", Text: "Hello world.", IsFinal: true},
			{Type: "transcript", Text: "second sentence", IsFinal: true},
			{Type: "close", Code: 1000},
		}
		for _, m := range msgs {
			if !assert.NoError(t, conn.WriteJSON(m)) {
				return
			}
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_, _, _ = conn.ReadMessage()
	})

	client, out, file := newTestClient(t, server, "")
	client.wg.Add(1)
	go client.reader()
	client.wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "hello world")
	assert.Contains(t, lines[1], "second sentence")
	assert.Regexp(t, `^\[\d\d:\d\d:\d\d\] `, lines[0])
	assert.Equal(t, out.String(), file.String())
}

func TestReaderShowsInterim(t *testing.T) {
	server := mockWebSocketServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(voicerouter.WebSocketResponse{Type: "transcript", Text: "hel"})
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_, _, _ = conn.ReadMessage()
	})

	client, out, file := newTestClient(t, server, "")
	client.showInterim = true
	client.wg.Add(1)
	go client.reader()
	client.wg.Wait()

	assert.Equal(t, "  ... hel\n", out.String())
	assert.Empty(t, file.String())
}

func TestStartAndClose(t *testing.T) {
	server := mockWebSocketServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client, _, _ := newTestClient(t, server, "")
	client.Start()
	client.Close()
}

func TestStreamURL(t *testing.T) {
	u, err := streamURL("ws://localhost:8081/ws", "deepgram", "en", true)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8081/ws?channels=1&encoding=linear16&interim=true&language=en&provider=deepgram&sample_rate=16000", u)

	u, err = streamURL("ws://localhost:8081/ws", "", "", false)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8081/ws?channels=1&encoding=linear16&interim=false&sample_rate=16000", u)
}
