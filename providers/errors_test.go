package providers

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind error
		code string
	}{
		{name: "config", err: NewConfigError(Gladia, "missing key"), kind: ErrConfig, code: CodeConfigError},
		{name: "capability", err: NewCapabilityError(Gladia, "no"), kind: ErrCapability, code: CodeNotSupported},
		{name: "input", err: NewInputError(Gladia, "bad"), kind: ErrCapability, code: CodeInvalidInput},
		{name: "unsupported", err: NewUnsupportedOperationError(Gladia, "list transcripts"), kind: ErrUnsupportedOperation, code: CodeNotSupported},
		{name: "transport", err: NewTransportError(Gladia, io.EOF), kind: ErrTransport, code: CodeWebSocketError},
		{name: "provider", err: NewProviderError(Gladia, "", "boom", 500), kind: ErrProvider, code: CodeTranscriptionError},
		{name: "timeout", err: NewTimeoutError(Gladia, CodePollingTimeout, ""), kind: ErrTimeout, code: CodePollingTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.Equal(t, tt.code, tt.err.Code)
			for _, other := range []error{ErrConfig, ErrCapability, ErrUnsupportedOperation, ErrTransport, ErrProvider, ErrTimeout} {
				if other != tt.kind {
					assert.NotErrorIs(t, tt.err, other)
				}
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "gladia: CONFIG_ERROR: missing key", NewConfigError(Gladia, "missing key").Error())
	assert.Equal(t, "POLLING_TIMEOUT: Transcription did not complete within timeout", (&Error{Code: CodePollingTimeout}).Error())

	err := NewTransportError(Deepgram, io.ErrUnexpectedEOF)
	assert.Equal(t, "deepgram: WEBSOCKET_ERROR: WebSocket connection error: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestErrorInfo(t *testing.T) {
	info := NewProviderError(AssemblyAI, CodeNoResults, "", 404).Info()
	assert.Equal(t, CodeNoResults, info.Code)
	assert.Equal(t, DefaultMessage(CodeNoResults), info.Message)
	assert.Equal(t, 404, info.StatusCode)

	info = NewTransportError(AssemblyAI, errors.New("reset")).Info()
	assert.Equal(t, "reset", info.Details)
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(Gladia, nil))

	orig := NewConfigError(Gladia, "x")
	assert.Same(t, orig, AsError(Gladia, orig))

	wrapped := AsError(Gladia, errors.New("strange"))
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeUnknownError, wrapped.Code)
	assert.ErrorIs(t, wrapped, ErrProvider)
	assert.Equal(t, Gladia, wrapped.Provider)
}

func TestDefaultMessage(t *testing.T) {
	assert.Equal(t, "Streaming session is closed", DefaultMessage(CodeSessionClosed))
	assert.Equal(t, DefaultMessage(CodeUnknownError), DefaultMessage("NOPE"))
	assert.ErrorIs(t, ErrSessionClosed, ErrUnsupportedOperation)
}
