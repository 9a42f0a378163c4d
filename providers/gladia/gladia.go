// Package gladia implements the Gladia adapter. Pre-recorded jobs are polled
// to completion; live sessions are initiated over REST and then streamed on
// the WebSocket URL the provider returns.
package gladia

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/agnivade/voicerouter/internal/restclient"
	"github.com/agnivade/voicerouter/providers"
)

const (
	defaultBaseURL = "https://api.gladia.io"
	defaultModel   = "solaria-1"
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
	ListTranscripts:   true,
	DeleteTranscript:  true,
	GetAudioFile:      true,
}

var streamingCapabilities = providers.Capabilities{
	Streaming:         true,
	WordTimestamps:    true,
	LanguageDetection: true,
	CustomVocabulary:  true,
	Summarization:     true,
	SentimentAnalysis: true,
	EntityDetection:   true,
}

// Policy is the field policy. PII redaction is rejected.
var Policy = providers.DefaultFieldPolicy()

var audioSupport = providers.AudioSupport{
	Wire: map[providers.Encoding]string{
		providers.EncodingLinear16: "wav/pcm",
		providers.EncodingMulaw:    "wav/ulaw",
		providers.EncodingAlaw:     "wav/alaw",
	},
	MaxChannels: 8,
}

// Settings are decoded from ProviderConfig.Options.
type Settings struct {
	Model  string `mapstructure:"model"`
	Region string `mapstructure:"region"`

	providers.PollSettings   `mapstructure:",squash"`
	providers.StreamSettings `mapstructure:",squash"`
}

// Adapter implements providers.Adapter for Gladia.
type Adapter struct {
	providers.Base

	settings Settings
	rest     *restclient.Client
}

var _ providers.Adapter = (*Adapter)(nil)

// New creates an uninitialized Gladia adapter.
func New(opts ...providers.Option) *Adapter {
	return &Adapter{
		Base: providers.NewBase(providers.Gladia, capabilities, Policy, opts...),
	}
}

func (a *Adapter) Initialize(cfg providers.ProviderConfig) error {
	if err := a.Store(cfg); err != nil {
		return err
	}

	settings := Settings{Model: defaultModel, Region: cfg.Region}
	if err := providers.DecodeOptions(providers.Gladia, cfg.Options, &settings); err != nil {
		return err
	}
	a.settings = settings

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	restOpts := []restclient.Option{
		restclient.WithHeader("x-gladia-key", cfg.APIKey),
		restclient.WithLogger(a.Log),
	}
	if a.HTTPClient != nil {
		restOpts = append(restOpts, restclient.WithHTTPClient(a.HTTPClient))
	}
	a.rest = restclient.New(providers.Gladia, base, a.Config.Timeout, restOpts...)
	return nil
}

type languageConfig struct {
	Languages     []string `json:"languages,omitempty"`
	CodeSwitching bool     `json:"code_switching,omitempty"`
}

type vocabularyConfig struct {
	Vocabulary []string `json:"vocabulary"`
}

type preRecordedRequest struct {
	AudioURL               string            `json:"audio_url"`
	LanguageConfig         *languageConfig   `json:"language_config,omitempty"`
	Diarization            bool              `json:"diarization,omitempty"`
	DiarizationConfig      map[string]int    `json:"diarization_config,omitempty"`
	CustomVocabulary       bool              `json:"custom_vocabulary,omitempty"`
	CustomVocabularyConfig *vocabularyConfig `json:"custom_vocabulary_config,omitempty"`
	Summarization          bool              `json:"summarization,omitempty"`
	SentimentAnalysis      bool              `json:"sentiment_analysis,omitempty"`
	NamedEntityRecognition bool              `json:"named_entity_recognition,omitempty"`
	Callback               bool              `json:"callback,omitempty"`
	CallbackConfig         map[string]string `json:"callback_config,omitempty"`
	CustomMetadata         map[string]any    `json:"custom_metadata,omitempty"`
}

func buildRequest(audioURL string, opts providers.TranscribeOptions) preRecordedRequest {
	req := preRecordedRequest{
		AudioURL:               audioURL,
		LanguageConfig:         newLanguageConfig(opts.Language, opts.LanguageDetection),
		Summarization:          opts.Summarization,
		SentimentAnalysis:      opts.SentimentAnalysis,
		NamedEntityRecognition: opts.EntityDetection,
		CustomMetadata:         opts.Metadata,
	}
	if opts.Diarization {
		req.Diarization = true
		if opts.SpeakersExpected > 0 {
			req.DiarizationConfig = map[string]int{"number_of_speakers": opts.SpeakersExpected}
		}
	}
	if len(opts.CustomVocabulary) > 0 {
		req.CustomVocabulary = true
		req.CustomVocabularyConfig = &vocabularyConfig{Vocabulary: opts.CustomVocabulary}
	}
	if opts.WebhookURL != "" {
		req.Callback = true
		req.CallbackConfig = map[string]string{"url": opts.WebhookURL}
	}
	return req
}

func newLanguageConfig(language string, detect bool) *languageConfig {
	if language == "" && !detect {
		return nil
	}
	lc := &languageConfig{CodeSwitching: detect}
	if language != "" {
		lc.Languages = []string{language}
	}
	return lc
}

type initResponse struct {
	ID        string `json:"id"`
	ResultURL string `json:"result_url"`
	URL       string `json:"url"`
}

// Transcribe submits a pre-recorded job, uploading raw audio first. Without a
// callback URL the job is polled until it is done or fails.
func (a *Adapter) Transcribe(ctx context.Context, audio providers.Audio, opts providers.TranscribeOptions) *providers.TranscriptResponse {
	if err := a.Ready(); err != nil {
		return providers.FailureFrom(providers.Gladia, err)
	}
	if audio.IsEmpty() {
		return providers.FailureFrom(providers.Gladia, providers.NewInputError(providers.Gladia, "audio url or data is required"))
	}
	opts, err := a.CheckBatch(opts)
	if err != nil {
		return providers.FailureFrom(providers.Gladia, err)
	}

	audioURL := audio.URL
	if audioURL == "" {
		audioURL, err = a.upload(ctx, audio)
		if err != nil {
			return providers.FailureFrom(providers.Gladia, err)
		}
	}

	resp, err := restclient.Post[initResponse](ctx, a.rest, "/v2/pre-recorded", buildRequest(audioURL, opts))
	if err != nil {
		return providers.FailureFrom(providers.Gladia, err)
	}
	id := resp.Data.ID
	if id == "" {
		return providers.NewFailure(providers.Gladia, &providers.ErrorInfo{
			Code:    providers.CodeParseError,
			Message: "job response has no id",
		}, resp.Raw)
	}

	if opts.WebhookURL != "" {
		return providers.NewSuccess(providers.Gladia, &providers.TranscriptData{
			ID:     id,
			Status: providers.StatusQueued,
		}, resp.Raw)
	}

	a.Log.Debug().Str("job_id", id).Msg("polling job")
	return restclient.Poll(ctx, providers.Gladia, restclient.PollConfig{
		Interval:    a.settings.PollInterval,
		MaxAttempts: a.settings.MaxPollAttempts,
	}, func(ctx context.Context) *providers.TranscriptResponse {
		return a.fetch(ctx, id)
	})
}

func (a *Adapter) upload(ctx context.Context, audio providers.Audio) (string, error) {
	filename := audio.Filename
	if filename == "" {
		filename = "audio.wav"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	resp, err := restclient.Do[struct {
		AudioURL string `json:"audio_url"`
	}](ctx, a.rest, restclient.Request{
		Method:      http.MethodPost,
		Path:        "/v2/upload",
		Body:        &body,
		ContentType: mw.FormDataContentType(),
	})
	if err != nil {
		return "", err
	}
	if resp.Data.AudioURL == "" {
		return "", providers.NewProviderError(providers.Gladia, providers.CodeParseError, "upload response has no audio_url", resp.StatusCode)
	}
	return resp.Data.AudioURL, nil
}

func (a *Adapter) fetch(ctx context.Context, id string) *providers.TranscriptResponse {
	resp, err := restclient.Get[job](ctx, a.rest, "/v2/pre-recorded/"+url.PathEscape(id), nil)
	if err != nil {
		return providers.FailureFrom(providers.Gladia, err)
	}
	return normalizeJob(&resp.Data, resp.Raw)
}

func (a *Adapter) GetTranscript(ctx context.Context, id string) (*providers.TranscriptResponse, error) {
	if err := a.Ready(); err != nil {
		return providers.FailureFrom(providers.Gladia, err), nil
	}
	return a.fetch(ctx, id), nil
}

// ListTranscripts lists pre-recorded jobs. The cursor is the provider's URL
// of the next page.
func (a *Adapter) ListTranscripts(ctx context.Context, filter providers.ListFilter) (*providers.TranscriptList, error) {
	if err := a.Ready(); err != nil {
		return nil, err
	}

	path := filter.Cursor
	var query url.Values
	if path == "" {
		path = "/v2/pre-recorded"
		query = url.Values{}
		if filter.Limit > 0 {
			query.Set("limit", strconv.Itoa(filter.Limit))
		}
		if filter.Offset > 0 {
			query.Set("offset", strconv.Itoa(filter.Offset))
		}
		if filter.Status != "" {
			for native, unified := range Statuses {
				if unified == filter.Status {
					query.Add("status", native)
				}
			}
		}
	}

	resp, err := restclient.Get[listResponse](ctx, a.rest, path, query)
	if err != nil {
		return nil, err
	}

	out := &providers.TranscriptList{}
	if next := resp.Data.Next; next != nil && *next != "" {
		out.NextCursor = *next
		out.HasMore = true
	}
	for _, raw := range resp.Data.Items {
		var j job
		if err := json.Unmarshal(raw, &j); err != nil {
			out.Transcripts = append(out.Transcripts, providers.NewFailure(providers.Gladia, &providers.ErrorInfo{
				Code:    providers.CodeParseError,
				Message: err.Error(),
			}, raw))
			continue
		}
		out.Transcripts = append(out.Transcripts, normalizeJob(&j, raw))
	}
	return out, nil
}

func (a *Adapter) DeleteTranscript(ctx context.Context, id string) error {
	if err := a.Ready(); err != nil {
		return err
	}
	return restclient.Delete(ctx, a.rest, "/v2/pre-recorded/"+url.PathEscape(id))
}

// GetAudioFile downloads the audio a pre-recorded job was run on.
func (a *Adapter) GetAudioFile(ctx context.Context, id string) (*providers.AudioFile, error) {
	if err := a.Ready(); err != nil {
		return nil, err
	}
	data, contentType, err := restclient.Download(ctx, a.rest, "/v2/pre-recorded/"+url.PathEscape(id)+"/file")
	if err != nil {
		return nil, err
	}
	return &providers.AudioFile{Data: data, ContentType: contentType, Filename: id}, nil
}
