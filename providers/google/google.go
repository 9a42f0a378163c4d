// Package google implements the Google Cloud Speech-to-Text adapter. Batch
// requests use synchronous Recognize; live sessions run over a gRPC
// StreamingRecognize stream wrapped as a session transport.
package google

import (
	"context"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/session"
)

const defaultLanguage = "en-US"

var capabilities = providers.Capabilities{
	Streaming:        true,
	Diarization:      true,
	WordTimestamps:   true,
	CustomVocabulary: true,
}

// Policy is the field policy.
var Policy = providers.DefaultFieldPolicy()

var audioSupport = providers.AudioSupport{
	Wire: map[providers.Encoding]string{
		providers.EncodingLinear16: "LINEAR16",
		providers.EncodingMulaw:    "MULAW",
		providers.EncodingFLAC:     "FLAC",
		providers.EncodingAMRNB:    "AMR",
		providers.EncodingAMRWB:    "AMR_WB",
		providers.EncodingOpus:     "OGG_OPUS",
		providers.EncodingSpeex:    "SPEEX_WITH_HEADER_BYTE",
	},
	MaxChannels: 8,
}

// Settings are decoded from ProviderConfig.Options.
type Settings struct {
	Model        string `mapstructure:"model"`
	LanguageCode string `mapstructure:"language_code"`
	// Encoding and SampleRate describe batch audio. Left empty, Google reads
	// them from the WAV or FLAC header.
	Encoding   string `mapstructure:"encoding"`
	SampleRate int    `mapstructure:"sample_rate"`
	// Punctuation enables automatic punctuation.
	Punctuation bool `mapstructure:"punctuation"`

	providers.StreamSettings `mapstructure:",squash"`
}

// speechClient is the part of the Cloud Speech client the adapter uses.
type speechClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	StreamingRecognize(ctx context.Context) (streamingRecognizeClient, error)
	Close() error
}

// streamingRecognizeClient wraps the methods we need from
// speechpb.Speech_StreamingRecognizeClient.
type streamingRecognizeClient interface {
	Send(*speechpb.StreamingRecognizeRequest) error
	Recv() (*speechpb.StreamingRecognizeResponse, error)
	CloseSend() error
}

type cloudClient struct {
	c *speech.Client
}

func (c cloudClient) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.c.Recognize(ctx, req)
}

func (c cloudClient) StreamingRecognize(ctx context.Context) (streamingRecognizeClient, error) {
	return c.c.StreamingRecognize(ctx)
}

func (c cloudClient) Close() error { return c.c.Close() }

// Adapter implements providers.Adapter for Google Cloud Speech.
type Adapter struct {
	providers.Base

	settings Settings

	mu     sync.Mutex
	client speechClient
	dial   func(ctx context.Context) (speechClient, error)
}

var _ providers.Adapter = (*Adapter)(nil)

// New creates an uninitialized Google adapter.
func New(opts ...providers.Option) *Adapter {
	a := &Adapter{
		Base: providers.NewBase(providers.Google, capabilities, Policy, opts...),
	}
	a.dial = a.dialCloud
	return a
}

func (a *Adapter) Initialize(cfg providers.ProviderConfig) error {
	if err := a.Store(cfg); err != nil {
		return err
	}
	settings := Settings{LanguageCode: defaultLanguage}
	if err := providers.DecodeOptions(providers.Google, cfg.Options, &settings); err != nil {
		return err
	}
	if settings.Encoding != "" {
		if _, ok := speechpb.RecognitionConfig_AudioEncoding_value[strings.ToUpper(settings.Encoding)]; !ok {
			return providers.NewConfigError(providers.Google, "unknown encoding "+settings.Encoding)
		}
	}
	a.settings = settings
	return nil
}

// dialCloud creates the gRPC client. BaseURL, when set, overrides the
// endpoint.
func (a *Adapter) dialCloud(ctx context.Context) (speechClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(a.Config.APIKey)}
	if a.Config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(a.Config.BaseURL))
	}
	c, err := speech.NewClient(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return nil, err
	}
	return cloudClient{c: c}, nil
}

// speech returns the shared client, creating it on first use.
func (a *Adapter) speech(ctx context.Context) (speechClient, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}
	c, err := a.dial(ctx)
	if err != nil {
		return nil, &providers.Error{
			Kind:     providers.ErrConfig,
			Code:     providers.CodeConfigError,
			Message:  "create speech client",
			Provider: providers.Google,
			Err:      err,
		}
	}
	a.client = c
	return c, nil
}

// Close releases the gRPC connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

func (a *Adapter) language(requested string) string {
	if requested != "" {
		return requested
	}
	return a.settings.LanguageCode
}

func (a *Adapter) recognitionConfig(language string, diarization bool, speakers int, vocabulary []string) *speechpb.RecognitionConfig {
	cfg := &speechpb.RecognitionConfig{
		LanguageCode:               a.language(language),
		Model:                      a.settings.Model,
		EnableWordTimeOffsets:      true,
		EnableWordConfidence:       true,
		EnableAutomaticPunctuation: a.settings.Punctuation,
	}
	if diarization {
		cfg.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{EnableSpeakerDiarization: true}
		if speakers > 0 {
			cfg.DiarizationConfig.MinSpeakerCount = int32(speakers)
			cfg.DiarizationConfig.MaxSpeakerCount = int32(speakers)
		}
	}
	if len(vocabulary) > 0 {
		cfg.SpeechContexts = []*speechpb.SpeechContext{{Phrases: vocabulary}}
	}
	return cfg
}

func (a *Adapter) batchRequest(audio providers.Audio, opts providers.TranscribeOptions) (*speechpb.RecognizeRequest, error) {
	cfg := a.recognitionConfig(opts.Language, opts.Diarization, opts.SpeakersExpected, opts.CustomVocabulary)
	if a.settings.Encoding != "" {
		cfg.Encoding = speechpb.RecognitionConfig_AudioEncoding(speechpb.RecognitionConfig_AudioEncoding_value[strings.ToUpper(a.settings.Encoding)])
	}
	cfg.SampleRateHertz = int32(a.settings.SampleRate)

	req := &speechpb.RecognizeRequest{Config: cfg}
	switch {
	case audio.URL != "":
		if !strings.HasPrefix(audio.URL, "gs://") {
			return nil, providers.NewInputError(providers.Google, "audio url must be a gs:// URI")
		}
		req.Audio = &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Uri{Uri: audio.URL}}
	default:
		req.Audio = &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.Data}}
	}
	return req, nil
}

// Transcribe runs a synchronous Recognize. Audio is either a gs:// URI or
// raw bytes.
func (a *Adapter) Transcribe(ctx context.Context, audio providers.Audio, opts providers.TranscribeOptions) *providers.TranscriptResponse {
	if err := a.Ready(); err != nil {
		return providers.FailureFrom(providers.Google, err)
	}
	if audio.IsEmpty() {
		return providers.FailureFrom(providers.Google, providers.NewInputError(providers.Google, "audio url or data is required"))
	}
	opts, err := a.CheckBatch(opts)
	if err != nil {
		return providers.FailureFrom(providers.Google, err)
	}
	if opts.WebhookURL != "" {
		return providers.FailureFrom(providers.Google, providers.NewCapabilityError(providers.Google, "callbacks are not supported by google"))
	}

	req, err := a.batchRequest(audio, opts)
	if err != nil {
		return providers.FailureFrom(providers.Google, err)
	}
	client, err := a.speech(ctx)
	if err != nil {
		return providers.FailureFrom(providers.Google, err)
	}

	resp, err := client.Recognize(ctx, req)
	if err != nil {
		return providers.FailureFrom(providers.Google, grpcError(err))
	}
	return normalizeRecognize(resp, opts.Diarization)
}

func (a *Adapter) streamingConfig(opts providers.StreamingOptions) *speechpb.StreamingRecognitionConfig {
	cfg := a.recognitionConfig(opts.Language, opts.Diarization, opts.SpeakersExpected, opts.CustomVocabulary)
	wire, _ := audioSupport.WireName(opts.Encoding)
	cfg.Encoding = speechpb.RecognitionConfig_AudioEncoding(speechpb.RecognitionConfig_AudioEncoding_value[wire])
	cfg.SampleRateHertz = int32(opts.SampleRate)
	cfg.AudioChannelCount = int32(opts.Channels)
	if opts.Model != "" {
		cfg.Model = opts.Model
	}
	return &speechpb.StreamingRecognitionConfig{
		Config:                    cfg,
		InterimResults:            opts.Interim(),
		EnableVoiceActivityEvents: true,
	}
}

// TranscribeStream opens a StreamingRecognize stream. The streaming config
// is the first message on the stream; the session ends by half-closing it.
func (a *Adapter) TranscribeStream(ctx context.Context, opts providers.StreamingOptions, cb providers.Callbacks) (providers.StreamingSession, error) {
	opts, err := a.PrepareStreaming(opts, audioSupport)
	if err != nil {
		return nil, err
	}

	cfg := session.Config{
		Provider:  providers.Google,
		Options:   opts,
		Codec:     codec{},
		Callbacks: cb,
		Dialer: grpcDialer{
			open:   a.openStream,
			config: a.streamingConfig(opts),
		},
		Logger:  &a.Log,
		Metrics: a.Metrics,
	}.Tune(a.settings.StreamSettings)
	return session.Start(ctx, cfg), nil
}

func (a *Adapter) openStream(ctx context.Context) (streamingRecognizeClient, error) {
	client, err := a.speech(ctx)
	if err != nil {
		return nil, err
	}
	return client.StreamingRecognize(ctx)
}
