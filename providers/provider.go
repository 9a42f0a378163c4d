package providers

import (
	"context"
	"time"
)

// Name identifies a speech-to-text provider.
type Name string

const (
	Gladia        Name = "gladia"
	AssemblyAI    Name = "assemblyai"
	Deepgram      Name = "deepgram"
	AzureSTT      Name = "azure-stt"
	OpenAIWhisper Name = "openai-whisper"
	Google        Name = "google"
	// Speechmatics is reserved; no adapter ships for it yet.
	Speechmatics Name = "speechmatics"
)

func (n Name) String() string { return string(n) }

// Adapter is implemented once per provider. It translates the unified
// request and response shapes to the provider's REST schema and, where the
// provider supports it, owns live streaming sessions.
type Adapter interface {
	// Name returns the provider this adapter talks to.
	Name() Name

	// Capabilities returns the adapter's fixed feature set.
	Capabilities() Capabilities

	// Initialize stores credentials and endpoints. It returns a ConfigError
	// when required credentials are missing and has no other side effects.
	Initialize(cfg ProviderConfig) error

	// Transcribe runs a batch transcription. It never returns an error:
	// failures are reported through TranscriptResponse.Error.
	Transcribe(ctx context.Context, audio Audio, opts TranscribeOptions) *TranscriptResponse

	// TranscribeStream validates opts synchronously and returns a session
	// whose transport is opened in the background. Adapters without the
	// Streaming capability return an UnsupportedOperationError.
	TranscribeStream(ctx context.Context, opts StreamingOptions, cb Callbacks) (StreamingSession, error)

	// GetTranscript fetches a batch job. The returned error is only set for
	// unsupported operations; provider failures are carried in the response.
	GetTranscript(ctx context.Context, id string) (*TranscriptResponse, error)

	// ListTranscripts lists batch jobs when the ListTranscripts capability is set.
	ListTranscripts(ctx context.Context, filter ListFilter) (*TranscriptList, error)

	// GetAudioFile downloads the audio of a batch job when the GetAudioFile
	// capability is set.
	GetAudioFile(ctx context.Context, id string) (*AudioFile, error)

	// DeleteTranscript removes a batch job when the DeleteTranscript
	// capability is set.
	DeleteTranscript(ctx context.Context, id string) error
}

// ProviderConfig carries credentials and endpoint overrides for an adapter.
// Options holds adapter-specific settings and is decoded by each adapter.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Region  string
	Timeout time.Duration
	Options map[string]any
}

// StreamingSession is the caller-facing handle of a live session.
type StreamingSession interface {
	ID() string
	Provider() Name
	State() SessionState
	Config() StreamingOptions

	// Send queues an audio chunk. It blocks while the outbound queue is full
	// and returns ErrSessionClosed once the session is terminal.
	Send(ctx context.Context, audio []byte) error

	// UpdateConfiguration applies a mid-session update. Any field the
	// provider cannot update makes the whole call fail with an
	// UnsupportedOperationError and leaves the session untouched.
	UpdateConfiguration(ctx context.Context, update ConfigUpdate) (UpdateResult, error)

	// ForceEndpoint asks the provider to end the current utterance now.
	ForceEndpoint(ctx context.Context) error

	// Close finalizes the session. It is idempotent and always completes.
	Close(ctx context.Context) error

	// Done is closed after the final Close event has been delivered.
	Done() <-chan struct{}
}

// SessionState is the lifecycle state of a StreamingSession.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateOpen
	StateConfiguring
	StateStreaming
	StateClosing
	StateClosed
	StateErrored
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateConfiguring:
		return "configuring"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s SessionState) IsTerminal() bool {
	return s == StateClosed || s == StateErrored
}

// ConfigUpdate is a partial set of streaming fields to change mid-session.
// Keys are provider wire field names.
type ConfigUpdate map[string]any

// UpdateResult reports how a mid-session update was applied. Acknowledged is
// false when the provider protocol has no acknowledgement frame and the
// update was sent fire-and-forget.
type UpdateResult struct {
	Acknowledged bool
}

// ListFilter narrows ListTranscripts.
type ListFilter struct {
	Limit  int
	Offset int
	Status Status
	// Cursor is an opaque provider page token, used instead of Offset when set.
	Cursor string
}

// TranscriptList is one page of batch jobs.
type TranscriptList struct {
	Transcripts []*TranscriptResponse
	NextCursor  string
	HasMore     bool
}

// AudioFile is the original audio of a batch job.
type AudioFile struct {
	Data        []byte
	ContentType string
	Filename    string
}
