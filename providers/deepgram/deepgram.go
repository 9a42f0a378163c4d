// Package deepgram implements the Deepgram adapter. Batch requests are
// answered synchronously by /v1/listen; streaming uses the same path over a
// WebSocket.
package deepgram

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agnivade/voicerouter/internal/restclient"
	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/session"
)

const (
	defaultBaseURL      = "https://api.deepgram.com"
	defaultStreamingURL = "wss://api.deepgram.com/v1/listen"
	defaultModel        = "nova-3"
)

var capabilities = providers.Capabilities{
	Streaming:         true,
	Diarization:       true,
	WordTimestamps:    true,
	LanguageDetection: true,
	CustomVocabulary:  true,
	Summarization:     true,
	SentimentAnalysis: true,
	EntityDetection:   true,
	PIIRedaction:      true,
}

// Policy is the field policy. Every option Deepgram lacks is rejected, except
// word timestamps which are always returned.
var Policy = providers.DefaultFieldPolicy()

var audioSupport = providers.AudioSupport{
	Wire: map[providers.Encoding]string{
		providers.EncodingLinear16: "linear16",
		providers.EncodingMulaw:    "mulaw",
		providers.EncodingAlaw:     "alaw",
		providers.EncodingFLAC:     "flac",
		providers.EncodingOpus:     "opus",
		providers.EncodingSpeex:    "speex",
		providers.EncodingAMRNB:    "amr-nb",
		providers.EncodingAMRWB:    "amr-wb",
		providers.EncodingG729:     "g729",
	},
	MaxChannels: 8,
}

// Settings are decoded from ProviderConfig.Options.
type Settings struct {
	Model          string `mapstructure:"model"`
	StreamingURL   string `mapstructure:"streaming_url"`
	UtteranceEndMs int    `mapstructure:"utterance_end_ms"`
	SmartFormat    bool   `mapstructure:"smart_format"`

	providers.StreamSettings `mapstructure:",squash"`
}

// Adapter implements providers.Adapter for Deepgram.
type Adapter struct {
	providers.Base

	settings Settings
	rest     *restclient.Client
}

var _ providers.Adapter = (*Adapter)(nil)

// New creates an uninitialized Deepgram adapter.
func New(opts ...providers.Option) *Adapter {
	return &Adapter{
		Base: providers.NewBase(providers.Deepgram, capabilities, Policy, opts...),
	}
}

// Initialize stores credentials. Options accept the Settings keys.
func (a *Adapter) Initialize(cfg providers.ProviderConfig) error {
	if err := a.Store(cfg); err != nil {
		return err
	}

	settings := Settings{Model: defaultModel, StreamingURL: defaultStreamingURL, UtteranceEndMs: 1000}
	if err := providers.DecodeOptions(providers.Deepgram, cfg.Options, &settings); err != nil {
		return err
	}
	a.settings = settings

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	restOpts := []restclient.Option{
		restclient.WithHeader("Authorization", "Token "+cfg.APIKey),
		restclient.WithLogger(a.Log),
	}
	if a.HTTPClient != nil {
		restOpts = append(restOpts, restclient.WithHTTPClient(a.HTTPClient))
	}
	a.rest = restclient.New(providers.Deepgram, base, a.Config.Timeout, restOpts...)
	return nil
}

// Transcribe sends a pre-recorded request. Deepgram answers synchronously
// unless WebhookURL is set, in which case the job is accepted and the
// response carries the request id with status processing.
func (a *Adapter) Transcribe(ctx context.Context, audio providers.Audio, opts providers.TranscribeOptions) *providers.TranscriptResponse {
	if err := a.Ready(); err != nil {
		return providers.FailureFrom(providers.Deepgram, err)
	}
	if audio.IsEmpty() {
		return providers.FailureFrom(providers.Deepgram, providers.NewInputError(providers.Deepgram, "audio url or data is required"))
	}
	opts, err := a.CheckBatch(opts)
	if err != nil {
		return providers.FailureFrom(providers.Deepgram, err)
	}

	req := restclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/listen",
		Query:  a.batchQuery(opts),
	}
	if audio.URL != "" {
		req.JSON = map[string]string{"url": audio.URL}
	} else {
		req.Body = bytes.NewReader(audio.Data)
		req.ContentType = contentType(audio.Filename)
	}

	resp, err := restclient.Do[listenResponse](ctx, a.rest, req)
	if err != nil {
		return providers.FailureFrom(providers.Deepgram, err)
	}
	return normalizeBatch(&resp.Data, resp.Raw)
}

func (a *Adapter) batchQuery(opts providers.TranscribeOptions) url.Values {
	q := url.Values{}
	q.Set("model", a.settings.Model)
	q.Set("punctuate", "true")
	if a.settings.SmartFormat {
		q.Set("smart_format", "true")
	}
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	if opts.LanguageDetection {
		q.Set("detect_language", "true")
	}
	if opts.Diarization {
		q.Set("diarize", "true")
		q.Set("utterances", "true")
	}
	if opts.Summarization {
		q.Set("summarize", "v2")
	}
	if opts.SentimentAnalysis {
		q.Set("sentiment", "true")
	}
	if opts.EntityDetection {
		q.Set("detect_entities", "true")
	}
	if opts.PIIRedaction {
		q.Set("redact", "pii")
	}
	for _, term := range opts.CustomVocabulary {
		q.Add("keyterm", term)
	}
	if opts.WebhookURL != "" {
		q.Set("callback", opts.WebhookURL)
	}
	return q
}

// TranscribeStream opens a live session on /v1/listen.
func (a *Adapter) TranscribeStream(ctx context.Context, opts providers.StreamingOptions, cb providers.Callbacks) (providers.StreamingSession, error) {
	opts, err := a.PrepareStreaming(opts, audioSupport)
	if err != nil {
		return nil, err
	}
	target, err := a.streamURL(opts)
	if err != nil {
		return nil, providers.NewConfigError(providers.Deepgram, err.Error())
	}

	cfg := session.Config{
		Provider:  providers.Deepgram,
		Options:   opts,
		Codec:     codec{},
		Callbacks: cb,
		Logger:    &a.Log,
		Metrics:   a.Metrics,
	}.Tune(a.settings.StreamSettings)
	cfg.Dialer = session.WebSocketDialer{
		URL:              target,
		Header:           http.Header{"Authorization": {"Token " + a.Config.APIKey}},
		HandshakeTimeout: cfg.ConnectTimeout,
	}
	return session.Start(ctx, cfg), nil
}

func (a *Adapter) streamURL(opts providers.StreamingOptions) (string, error) {
	u, err := url.Parse(a.settings.StreamingURL)
	if err != nil {
		return "", err
	}

	enc, _ := audioSupport.WireName(opts.Encoding)
	model := a.settings.Model
	if opts.Model != "" {
		model = opts.Model
	}

	q := u.Query()
	q.Set("encoding", enc)
	q.Set("sample_rate", strconv.Itoa(opts.SampleRate))
	q.Set("channels", strconv.Itoa(opts.Channels))
	q.Set("model", model)
	q.Set("interim_results", strconv.FormatBool(opts.Interim()))
	q.Set("punctuate", "true")
	q.Set("vad_events", "true")
	if a.settings.UtteranceEndMs > 0 {
		q.Set("utterance_end_ms", strconv.Itoa(a.settings.UtteranceEndMs))
	}
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	if opts.Diarization {
		q.Set("diarize", "true")
	}
	if opts.Endpointing > 0 {
		q.Set("endpointing", strconv.Itoa(opts.Endpointing))
	}
	if opts.PIIRedaction {
		q.Set("redact", "pii")
	}
	for _, term := range opts.CustomVocabulary {
		q.Add("keyterm", term)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func contentType(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
