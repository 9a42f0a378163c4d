package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agnivade/voicerouter/internal/metrics"
)

// DefaultHTTPTimeout bounds a single provider HTTP request.
const DefaultHTTPTimeout = 60 * time.Second

// Base carries what every adapter shares: identity, capabilities, field
// policy, logger and stored credentials. Adapters embed it and override the
// operations they support.
type Base struct {
	name   Name
	caps   Capabilities
	policy FieldPolicy

	Log        zerolog.Logger
	Metrics    *metrics.Metrics
	HTTPClient *http.Client
	Config     ProviderConfig

	initialized bool
}

// Option configures the shared part of an adapter.
type Option func(*Base)

// WithLogger sets the adapter logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Base) { b.SetLogger(l) }
}

// WithMetrics sets the collectors streaming sessions report to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Base) { b.Metrics = m }
}

// WithHTTPClient overrides the HTTP client of REST adapters.
func WithHTTPClient(hc *http.Client) Option {
	return func(b *Base) { b.HTTPClient = hc }
}

// NewBase returns a Base. A nil policy means DefaultFieldPolicy.
func NewBase(name Name, caps Capabilities, policy FieldPolicy, opts ...Option) Base {
	if policy == nil {
		policy = DefaultFieldPolicy()
	}
	b := Base{
		name:   name,
		caps:   caps,
		policy: policy,
		Log:    log.With().Str("provider", string(name)).Logger(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *Base) Name() Name { return b.name }

func (b *Base) Capabilities() Capabilities { return b.caps }

// Policy returns the adapter's field policy.
func (b *Base) Policy() FieldPolicy { return b.policy }

// SetLogger replaces the adapter logger.
func (b *Base) SetLogger(l zerolog.Logger) {
	b.Log = l.With().Str("provider", string(b.name)).Logger()
}

// Store records cfg after checking that an API key is present.
func (b *Base) Store(cfg ProviderConfig) error {
	if cfg.APIKey == "" {
		return NewConfigError(b.name, "api key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHTTPTimeout
	}
	b.Config = cfg
	b.initialized = true
	return nil
}

// Ready returns a ConfigError until Store has succeeded.
func (b *Base) Ready() error {
	if !b.initialized {
		return NewConfigError(b.name, "adapter is not initialized")
	}
	return nil
}

// CheckBatch applies the field policy to opts and returns them with ignored
// features cleared.
func (b *Base) CheckBatch(opts TranscribeOptions) (TranscribeOptions, error) {
	ignored, err := b.policy.Check(b.name, b.caps, opts.Features())
	if err != nil {
		return opts, err
	}
	for _, f := range ignored {
		b.Log.Debug().Str("feature", string(f)).Msg("ignoring unsupported option")
		opts = opts.without(f)
	}
	return opts, nil
}

// PrepareStreaming validates streaming options before a session is created.
// It rejects adapters without streaming, applies audio defaults and the
// field policy, and checks the audio parameters against audio.
func (b *Base) PrepareStreaming(opts StreamingOptions, audio AudioSupport) (StreamingOptions, error) {
	return b.PrepareStreamingFor(b.caps, opts, audio)
}

// PrepareStreamingFor is PrepareStreaming for providers whose live API
// supports fewer features than their batch API.
func (b *Base) PrepareStreamingFor(caps Capabilities, opts StreamingOptions, audio AudioSupport) (StreamingOptions, error) {
	if !b.caps.Streaming {
		return opts, NewUnsupportedOperationError(b.name, "streaming")
	}
	if err := b.Ready(); err != nil {
		return opts, err
	}
	opts = opts.WithDefaults()

	ignored, err := b.policy.Check(b.name, caps, opts.Features())
	if err != nil {
		return opts, err
	}
	for _, f := range ignored {
		b.Log.Debug().Str("feature", string(f)).Msg("ignoring unsupported streaming option")
		opts = opts.without(f)
	}

	if err := audio.Validate(b.name, opts); err != nil {
		return opts, err
	}
	return opts, nil
}

func (b *Base) TranscribeStream(context.Context, StreamingOptions, Callbacks) (StreamingSession, error) {
	return nil, NewUnsupportedOperationError(b.name, "streaming")
}

func (b *Base) GetTranscript(context.Context, string) (*TranscriptResponse, error) {
	return nil, NewUnsupportedOperationError(b.name, "get transcript")
}

func (b *Base) ListTranscripts(context.Context, ListFilter) (*TranscriptList, error) {
	return nil, NewUnsupportedOperationError(b.name, "list transcripts")
}

func (b *Base) GetAudioFile(context.Context, string) (*AudioFile, error) {
	return nil, NewUnsupportedOperationError(b.name, "get audio file")
}

func (b *Base) DeleteTranscript(context.Context, string) error {
	return NewUnsupportedOperationError(b.name, "delete transcript")
}

func (o TranscribeOptions) without(f Feature) TranscribeOptions {
	switch f {
	case FeatureDiarization:
		o.Diarization = false
		o.SpeakersExpected = 0
	case FeatureWordTimestamps:
		o.WordTimestamps = false
	case FeatureLanguageDetection:
		o.LanguageDetection = false
	case FeatureCustomVocabulary:
		o.CustomVocabulary = nil
	case FeatureSummarization:
		o.Summarization = false
	case FeatureSentimentAnalysis:
		o.SentimentAnalysis = false
	case FeatureEntityDetection:
		o.EntityDetection = false
	case FeaturePIIRedaction:
		o.PIIRedaction = false
	}
	return o
}

func (o StreamingOptions) without(f Feature) StreamingOptions {
	switch f {
	case FeatureDiarization:
		o.Diarization = false
		o.SpeakersExpected = 0
	case FeatureWordTimestamps:
		o.WordTimestamps = false
	case FeatureLanguageDetection:
		o.LanguageDetection = false
	case FeatureCustomVocabulary:
		o.CustomVocabulary = nil
	case FeatureSummarization:
		o.Summarization = false
	case FeatureSentimentAnalysis:
		o.SentimentAnalysis = false
	case FeatureEntityDetection:
		o.EntityDetection = false
	case FeaturePIIRedaction:
		o.PIIRedaction = false
	}
	return o
}
