// Package assemblyai implements the AssemblyAI adapter: asynchronous batch
// transcripts polled to completion, and v3 Universal Streaming.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/agnivade/voicerouter/internal/restclient"
	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/session"
)

const (
	defaultBaseURL      = "https://api.assemblyai.com"
	defaultStreamingURL = "wss://streaming.assemblyai.com/v3/ws"
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
	ListTranscripts:   true,
	DeleteTranscript:  true,
}

// streamingCapabilities is what the live API supports. Batch-only features
// requested on a stream go through the field policy against this set.
var streamingCapabilities = providers.Capabilities{
	Streaming:        true,
	WordTimestamps:   true,
	CustomVocabulary: true,
}

// Policy is the field policy.
var Policy = providers.DefaultFieldPolicy()

var audioSupport = providers.AudioSupport{
	Wire: map[providers.Encoding]string{
		providers.EncodingLinear16: "pcm_s16le",
		providers.EncodingMulaw:    "pcm_mulaw",
	},
	MaxChannels: 1,
}

// Settings are decoded from ProviderConfig.Options.
type Settings struct {
	SpeechModel    string `mapstructure:"speech_model"`
	StreamingURL   string `mapstructure:"streaming_url"`
	StreamingModel string `mapstructure:"streaming_model"`
	FormatTurns    bool   `mapstructure:"format_turns"`

	providers.PollSettings   `mapstructure:",squash"`
	providers.StreamSettings `mapstructure:",squash"`
}

// Adapter implements providers.Adapter for AssemblyAI.
type Adapter struct {
	providers.Base

	settings Settings
	rest     *restclient.Client
}

var _ providers.Adapter = (*Adapter)(nil)

// New creates an uninitialized AssemblyAI adapter.
func New(opts ...providers.Option) *Adapter {
	return &Adapter{
		Base: providers.NewBase(providers.AssemblyAI, capabilities, Policy, opts...),
	}
}

func (a *Adapter) Initialize(cfg providers.ProviderConfig) error {
	if err := a.Store(cfg); err != nil {
		return err
	}

	settings := Settings{StreamingURL: defaultStreamingURL, FormatTurns: true}
	if err := providers.DecodeOptions(providers.AssemblyAI, cfg.Options, &settings); err != nil {
		return err
	}
	a.settings = settings

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	restOpts := []restclient.Option{
		restclient.WithHeader("Authorization", cfg.APIKey),
		restclient.WithLogger(a.Log),
	}
	if a.HTTPClient != nil {
		restOpts = append(restOpts, restclient.WithHTTPClient(a.HTTPClient))
	}
	a.rest = restclient.New(providers.AssemblyAI, base, a.Config.Timeout, restOpts...)
	return nil
}

type transcriptRequest struct {
	AudioURL          string   `json:"audio_url"`
	SpeechModel       string   `json:"speech_model,omitempty"`
	LanguageCode      string   `json:"language_code,omitempty"`
	LanguageDetection bool     `json:"language_detection,omitempty"`
	SpeakerLabels     bool     `json:"speaker_labels,omitempty"`
	SpeakersExpected  int      `json:"speakers_expected,omitempty"`
	KeytermsPrompt    []string `json:"keyterms_prompt,omitempty"`
	Summarization     bool     `json:"summarization,omitempty"`
	SummaryModel      string   `json:"summary_model,omitempty"`
	SummaryType       string   `json:"summary_type,omitempty"`
	SentimentAnalysis bool     `json:"sentiment_analysis,omitempty"`
	EntityDetection   bool     `json:"entity_detection,omitempty"`
	RedactPII         bool     `json:"redact_pii,omitempty"`
	RedactPIIPolicies []string `json:"redact_pii_policies,omitempty"`
	WebhookURL        string   `json:"webhook_url,omitempty"`
}

func (a *Adapter) buildRequest(audioURL string, opts providers.TranscribeOptions) transcriptRequest {
	req := transcriptRequest{
		AudioURL:          audioURL,
		SpeechModel:       a.settings.SpeechModel,
		LanguageCode:      opts.Language,
		LanguageDetection: opts.LanguageDetection,
		KeytermsPrompt:    opts.CustomVocabulary,
		SentimentAnalysis: opts.SentimentAnalysis,
		EntityDetection:   opts.EntityDetection,
		WebhookURL:        opts.WebhookURL,
	}
	if opts.Diarization {
		req.SpeakerLabels = true
		req.SpeakersExpected = opts.SpeakersExpected
	}
	if opts.Summarization {
		req.Summarization = true
		req.SummaryModel = "informative"
		req.SummaryType = "bullets"
	}
	if opts.PIIRedaction {
		req.RedactPII = true
		req.RedactPIIPolicies = []string{"person_name", "phone_number", "email_address", "credit_card_number"}
	}
	return req
}

// Transcribe submits a transcript job. Raw audio is uploaded first. Without a
// webhook the job is polled until it completes or fails.
func (a *Adapter) Transcribe(ctx context.Context, audio providers.Audio, opts providers.TranscribeOptions) *providers.TranscriptResponse {
	if err := a.Ready(); err != nil {
		return providers.FailureFrom(providers.AssemblyAI, err)
	}
	if audio.IsEmpty() {
		return providers.FailureFrom(providers.AssemblyAI, providers.NewInputError(providers.AssemblyAI, "audio url or data is required"))
	}
	opts, err := a.CheckBatch(opts)
	if err != nil {
		return providers.FailureFrom(providers.AssemblyAI, err)
	}

	audioURL := audio.URL
	if audioURL == "" {
		audioURL, err = a.upload(ctx, audio.Data)
		if err != nil {
			return providers.FailureFrom(providers.AssemblyAI, err)
		}
	}

	resp, err := restclient.Post[transcript](ctx, a.rest, "/v2/transcript", a.buildRequest(audioURL, opts))
	if err != nil {
		return providers.FailureFrom(providers.AssemblyAI, err)
	}
	submitted := normalizeTranscript(&resp.Data, resp.Raw)
	if !submitted.Success || opts.WebhookURL != "" || submitted.Data.Status.IsFinal() {
		return submitted
	}

	id := resp.Data.ID
	a.Log.Debug().Str("transcript_id", id).Msg("polling transcript")
	return restclient.Poll(ctx, providers.AssemblyAI, a.pollConfig(), func(ctx context.Context) *providers.TranscriptResponse {
		return a.fetch(ctx, id)
	})
}

func (a *Adapter) upload(ctx context.Context, data []byte) (string, error) {
	resp, err := restclient.Do[struct {
		UploadURL string `json:"upload_url"`
	}](ctx, a.rest, restclient.Request{
		Method:      http.MethodPost,
		Path:        "/v2/upload",
		Body:        bytes.NewReader(data),
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", err
	}
	if resp.Data.UploadURL == "" {
		return "", providers.NewProviderError(providers.AssemblyAI, providers.CodeParseError, "upload response has no upload_url", resp.StatusCode)
	}
	return resp.Data.UploadURL, nil
}

func (a *Adapter) pollConfig() restclient.PollConfig {
	return restclient.PollConfig{
		Interval:    a.settings.PollInterval,
		MaxAttempts: a.settings.MaxPollAttempts,
	}
}

func (a *Adapter) fetch(ctx context.Context, id string) *providers.TranscriptResponse {
	resp, err := restclient.Get[transcript](ctx, a.rest, "/v2/transcript/"+url.PathEscape(id), nil)
	if err != nil {
		return providers.FailureFrom(providers.AssemblyAI, err)
	}
	return normalizeTranscript(&resp.Data, resp.Raw)
}

func (a *Adapter) GetTranscript(ctx context.Context, id string) (*providers.TranscriptResponse, error) {
	if err := a.Ready(); err != nil {
		return providers.FailureFrom(providers.AssemblyAI, err), nil
	}
	return a.fetch(ctx, id), nil
}

// ListTranscripts lists jobs newest first. The returned cursor is the
// provider's URL of the next older page.
func (a *Adapter) ListTranscripts(ctx context.Context, filter providers.ListFilter) (*providers.TranscriptList, error) {
	if err := a.Ready(); err != nil {
		return nil, err
	}

	path := filter.Cursor
	var query url.Values
	if path == "" {
		path = "/v2/transcript"
		query = url.Values{}
		if filter.Limit > 0 {
			query.Set("limit", strconv.Itoa(filter.Limit))
		}
		if filter.Status != "" {
			query.Set("status", nativeStatus(filter.Status))
		}
	}

	resp, err := restclient.Get[listResponse](ctx, a.rest, path, query)
	if err != nil {
		return nil, err
	}

	out := &providers.TranscriptList{
		NextCursor: resp.Data.PageDetails.PrevURL,
		HasMore:    resp.Data.PageDetails.PrevURL != "",
	}
	for _, item := range resp.Data.Transcripts {
		out.Transcripts = append(out.Transcripts, normalizeListItem(item))
	}
	return out, nil
}

func nativeStatus(s providers.Status) string {
	for native, unified := range Statuses {
		if unified == s {
			return native
		}
	}
	return string(s)
}

func (a *Adapter) DeleteTranscript(ctx context.Context, id string) error {
	if err := a.Ready(); err != nil {
		return err
	}
	return restclient.Delete(ctx, a.rest, "/v2/transcript/"+url.PathEscape(id))
}

// TranscribeStream opens a v3 streaming session. Outbound audio is re-chunked
// to the frame durations the API accepts.
func (a *Adapter) TranscribeStream(ctx context.Context, opts providers.StreamingOptions, cb providers.Callbacks) (providers.StreamingSession, error) {
	opts, err := a.PrepareStreamingFor(streamingCapabilities, opts, audioSupport)
	if err != nil {
		return nil, err
	}
	target, err := a.streamURL(opts)
	if err != nil {
		return nil, providers.NewConfigError(providers.AssemblyAI, err.Error())
	}

	cfg := session.Config{
		Provider:  providers.AssemblyAI,
		Options:   opts,
		Codec:     codec{formatTurns: a.settings.FormatTurns},
		Framer:    newAudioBuffer(opts),
		Callbacks: cb,
		Logger:    &a.Log,
		Metrics:   a.Metrics,
	}.Tune(a.settings.StreamSettings)
	cfg.Dialer = session.WebSocketDialer{
		URL:              target,
		Header:           http.Header{"Authorization": {a.Config.APIKey}},
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
	q := u.Query()
	q.Set("sample_rate", strconv.Itoa(opts.SampleRate))
	q.Set("encoding", enc)
	q.Set("format_turns", strconv.FormatBool(a.settings.FormatTurns))
	if model := firstNonEmpty(opts.Model, a.settings.StreamingModel); model != "" {
		q.Set("speech_model", model)
	}
	if opts.EndOfTurnConfidenceThreshold > 0 {
		q.Set(FieldEndOfTurnThreshold, strconv.FormatFloat(opts.EndOfTurnConfidenceThreshold, 'f', -1, 64))
	}
	if opts.Endpointing > 0 {
		q.Set(FieldMinEndOfTurnSilence, strconv.Itoa(opts.Endpointing))
	}
	if opts.MaxSilence > 0 {
		q.Set(FieldMaxTurnSilence, strconv.Itoa(opts.MaxSilence))
	}
	if len(opts.CustomVocabulary) > 0 {
		terms, err := json.Marshal(opts.CustomVocabulary)
		if err != nil {
			return "", err
		}
		q.Set("keyterms_prompt", string(terms))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
