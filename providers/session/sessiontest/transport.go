// Package sessiontest provides an in-memory session.Transport for tests.
package sessiontest

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"sync"

	"github.com/agnivade/voicerouter/providers/session"
)

type inbound struct {
	frame session.Frame
	err   error
}

// Transport is a channel-backed session.Transport. Frames written by the
// session are recorded in order; frames pushed by the test are returned from
// Receive.
type Transport struct {
	// SendHook, when set, is called before a frame is recorded. A non-nil
	// error is returned to the session and the frame is not recorded.
	SendHook func(session.Frame) error

	mu         sync.Mutex
	sent       []session.Frame
	inbox      chan inbound
	closed     chan struct{}
	once       sync.Once
	halfClosed bool
}

// New returns an open Transport.
func New() *Transport {
	return &Transport{
		inbox:  make(chan inbound, 256),
		closed: make(chan struct{}),
	}
}

func (t *Transport) Send(_ context.Context, f session.Frame) error {
	select {
	case <-t.closed:
		return net.ErrClosed
	default:
	}
	if t.SendHook != nil {
		if err := t.SendHook(f); err != nil {
			return err
		}
	}
	t.mu.Lock()
	t.sent = append(t.sent, session.Frame{Type: f.Type, Data: append([]byte(nil), f.Data...)})
	t.mu.Unlock()
	return nil
}

func (t *Transport) Receive(ctx context.Context) (session.Frame, error) {
	select {
	case in := <-t.inbox:
		return in.frame, in.err
	case <-t.closed:
		return session.Frame{}, net.ErrClosed
	case <-ctx.Done():
		return session.Frame{}, ctx.Err()
	}
}

func (t *Transport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

// CloseSend records a half-close. It makes Transport a session.HalfCloser.
func (t *Transport) CloseSend() error {
	t.mu.Lock()
	t.halfClosed = true
	t.mu.Unlock()
	return nil
}

// HalfClosed reports whether CloseSend was called.
func (t *Transport) HalfClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.halfClosed
}

// Push queues an inbound text frame.
func (t *Transport) Push(data []byte) {
	t.inbox <- inbound{frame: session.Text(data)}
}

// PushFrame queues an inbound frame.
func (t *Transport) PushFrame(f session.Frame) {
	t.inbox <- inbound{frame: f}
}

// PushJSON marshals v and queues it as a text frame.
func (t *Transport) PushJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	t.Push(b)
}

// Fail makes the next Receive return err.
func (t *Transport) Fail(err error) {
	t.inbox <- inbound{err: err}
}

// EOF makes the next Receive report a clean close by the peer.
func (t *Transport) EOF() {
	t.Fail(io.EOF)
}

// Sent returns a copy of the frames written so far.
func (t *Transport) Sent() []session.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]session.Frame(nil), t.sent...)
}

// SentText returns the payloads of text frames written so far.
func (t *Transport) SentText() []string {
	var out []string
	for _, f := range t.Sent() {
		if f.Type == session.TextFrame {
			out = append(out, string(f.Data))
		}
	}
	return out
}

// SentBinary returns the payloads of binary frames written so far.
func (t *Transport) SentBinary() [][]byte {
	var out [][]byte
	for _, f := range t.Sent() {
		if f.Type == session.BinaryFrame {
			out = append(out, f.Data)
		}
	}
	return out
}

// IsClosed reports whether Close was called.
func (t *Transport) IsClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

// Dialer returns a dialer that yields t immediately.
func (t *Transport) Dialer() session.Dialer {
	return session.DialFunc(func(context.Context) (session.Transport, error) {
		return t, nil
	})
}

// GatedDialer returns a dialer that yields t once gate is closed.
func (t *Transport) GatedDialer(gate <-chan struct{}) session.Dialer {
	return session.DialFunc(func(ctx context.Context) (session.Transport, error) {
		select {
		case <-gate:
			return t, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

// FailingDialer returns a dialer that always fails with err.
func FailingDialer(err error) session.Dialer {
	return session.DialFunc(func(context.Context) (session.Transport, error) {
		return nil, err
	})
}
