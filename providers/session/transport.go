package session

import (
	"context"
	"encoding/json"

	"github.com/agnivade/voicerouter/providers"
)

// FrameType distinguishes text control frames from binary audio frames.
type FrameType int

const (
	TextFrame FrameType = iota + 1
	BinaryFrame
)

func (t FrameType) String() string {
	switch t {
	case TextFrame:
		return "text"
	case BinaryFrame:
		return "binary"
	default:
		return "unknown"
	}
}

// Frame is one message on a transport.
type Frame struct {
	Type FrameType
	Data []byte
}

// Text returns a text frame.
func Text(data []byte) Frame { return Frame{Type: TextFrame, Data: data} }

// Binary returns a binary frame.
func Binary(data []byte) Frame { return Frame{Type: BinaryFrame, Data: data} }

// JSON marshals v into a text frame.
func JSON(v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Frame{}, err
	}
	return Text(b), nil
}

// MustJSON is JSON for values that always marshal, such as fixed control messages.
func MustJSON(v any) Frame {
	f, err := JSON(v)
	if err != nil {
		panic(err)
	}
	return f
}

// Transport is a bidirectional, message-oriented connection to a provider.
// Send may be called concurrently with Receive, but not with itself.
type Transport interface {
	Send(ctx context.Context, f Frame) error
	// Receive blocks for the next inbound frame. It returns io.EOF once the
	// peer has closed the connection cleanly, and unblocks when Close is called.
	Receive(ctx context.Context) (Frame, error)
	Close() error
}

// HalfCloser is implemented by transports that can end the outbound
// direction while still receiving, such as gRPC streams. Sessions whose
// codec has no finalize frame half-close the transport instead.
type HalfCloser interface {
	CloseSend() error
}

// Dialer opens a Transport.
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}

// DialFunc adapts a function to Dialer.
type DialFunc func(ctx context.Context) (Transport, error)

func (f DialFunc) Dial(ctx context.Context) (Transport, error) { return f(ctx) }

// Decoded is the result of decoding one inbound frame.
type Decoded struct {
	// Events are delivered to callbacks in order. Codecs never emit
	// ErrorEvent or CloseEvent; they report Err or CloseAck instead.
	Events []providers.Event
	// Opened reports the provider's session acknowledgement.
	Opened bool
	// UpdateAck acknowledges a pending mid-session update.
	UpdateAck bool
	// CloseAck reports that the provider finished the session.
	CloseAck bool
	// Err is a provider error frame. It terminates the session.
	Err *providers.Error
}

// Codec translates between unified operations and one provider's frames.
type Codec interface {
	// OpensOnConnect reports whether the session is open as soon as the
	// transport is connected, without a handshake frame.
	OpensOnConnect() bool
	EncodeAudio(chunk []byte) Frame
	// FinalizeFrame returns the frame asking the provider to flush and end
	// the session, if the protocol has one.
	FinalizeFrame() (Frame, bool)
	// ForceEndpointFrame returns the frame forcing an end of utterance, if any.
	ForceEndpointFrame() (Frame, bool)
	// CanUpdate reports whether field may be changed mid-session.
	CanUpdate(field string) bool
	EncodeUpdate(update providers.ConfigUpdate) (f Frame, ackExpected bool, err error)
	// ApplyUpdate returns opts with an accepted update applied.
	ApplyUpdate(opts providers.StreamingOptions, update providers.ConfigUpdate) providers.StreamingOptions
	Decode(f Frame) (Decoded, error)
}

// AudioFramer re-chunks outbound audio for providers with frame size
// limits. It must preserve byte order.
type AudioFramer interface {
	Push(chunk []byte) [][]byte
	Flush() []byte
}

// NoUpdates can be embedded by codecs whose protocol has no mid-session updates.
type NoUpdates struct{}

func (NoUpdates) CanUpdate(string) bool { return false }

func (NoUpdates) EncodeUpdate(providers.ConfigUpdate) (Frame, bool, error) {
	return Frame{}, false, providers.NewCapabilityError("", "mid-session updates are not supported")
}

func (NoUpdates) ApplyUpdate(opts providers.StreamingOptions, _ providers.ConfigUpdate) providers.StreamingOptions {
	return opts
}
