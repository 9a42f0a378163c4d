// Package whisper implements the OpenAI Whisper adapter on top of the
// official openai-go client. Whisper transcribes uploaded audio
// synchronously and keeps no job history, so only Transcribe is offered.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agnivade/voicerouter/providers"
)

const defaultModel = string(oai.AudioModelWhisper1)

var capabilities = providers.Capabilities{
	WordTimestamps:    true,
	LanguageDetection: true,
	CustomVocabulary:  true,
}

// Policy is the field policy.
var Policy = providers.DefaultFieldPolicy()

// Settings are decoded from ProviderConfig.Options.
type Settings struct {
	Model string `mapstructure:"model"`
	// Prompt is prepended to the custom vocabulary prompt.
	Prompt      string  `mapstructure:"prompt"`
	Temperature float64 `mapstructure:"temperature"`
	MaxRetries  int     `mapstructure:"max_retries"`
}

// Adapter implements providers.Adapter for OpenAI Whisper.
type Adapter struct {
	providers.Base

	settings Settings
	client   oai.Client
}

var _ providers.Adapter = (*Adapter)(nil)

// New creates an uninitialized Whisper adapter.
func New(opts ...providers.Option) *Adapter {
	return &Adapter{
		Base: providers.NewBase(providers.OpenAIWhisper, capabilities, Policy, opts...),
	}
}

// Initialize builds the OpenAI client. BaseURL replaces the API root, which
// makes the adapter usable with OpenAI-compatible servers.
func (a *Adapter) Initialize(cfg providers.ProviderConfig) error {
	if err := a.Store(cfg); err != nil {
		return err
	}

	settings := Settings{Model: defaultModel, MaxRetries: 2}
	if err := providers.DecodeOptions(providers.OpenAIWhisper, cfg.Options, &settings); err != nil {
		return err
	}
	a.settings = settings

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(a.Config.Timeout),
		option.WithMaxRetries(settings.MaxRetries),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	if a.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(a.HTTPClient))
	}
	a.client = oai.NewClient(reqOpts...)
	return nil
}

func (a *Adapter) params(audio providers.Audio, opts providers.TranscribeOptions) oai.AudioTranscriptionNewParams {
	filename := audio.Filename
	if filename == "" {
		filename = "audio.wav"
	}
	p := oai.AudioTranscriptionNewParams{
		File:                   oai.File(bytes.NewReader(audio.Data), filename, contentType(filename)),
		Model:                  oai.AudioModel(a.settings.Model),
		ResponseFormat:         oai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word", "segment"},
	}
	if opts.Language != "" && !opts.LanguageDetection {
		p.Language = oai.String(opts.Language)
	}
	if prompt := a.prompt(opts.CustomVocabulary); prompt != "" {
		p.Prompt = oai.String(prompt)
	}
	if a.settings.Temperature > 0 {
		p.Temperature = oai.Float(a.settings.Temperature)
	}
	return p
}

// prompt biases decoding toward the vocabulary terms.
func (a *Adapter) prompt(vocabulary []string) string {
	parts := make([]string, 0, 2)
	if a.settings.Prompt != "" {
		parts = append(parts, a.settings.Prompt)
	}
	if len(vocabulary) > 0 {
		parts = append(parts, strings.Join(vocabulary, ", "))
	}
	return strings.Join(parts, " ")
}

// Transcribe uploads audio bytes. Whisper cannot fetch audio by URL and has
// no callback support.
func (a *Adapter) Transcribe(ctx context.Context, audio providers.Audio, opts providers.TranscribeOptions) *providers.TranscriptResponse {
	if err := a.Ready(); err != nil {
		return providers.FailureFrom(providers.OpenAIWhisper, err)
	}
	if len(audio.Data) == 0 {
		return providers.FailureFrom(providers.OpenAIWhisper, providers.NewInputError(providers.OpenAIWhisper, "openai-whisper requires audio data"))
	}
	opts, err := a.CheckBatch(opts)
	if err != nil {
		return providers.FailureFrom(providers.OpenAIWhisper, err)
	}
	if opts.WebhookURL != "" {
		return providers.FailureFrom(providers.OpenAIWhisper, providers.NewCapabilityError(providers.OpenAIWhisper, "webhooks are not supported by openai-whisper"))
	}

	var body []byte
	if _, err := a.client.Audio.Transcriptions.New(ctx, a.params(audio, opts), option.WithResponseBodyInto(&body)); err != nil {
		return providers.FailureFrom(providers.OpenAIWhisper, apiError(err))
	}

	var v verboseTranscription
	if err := json.Unmarshal(body, &v); err != nil {
		return providers.NewFailure(providers.OpenAIWhisper, &providers.ErrorInfo{
			Code:    providers.CodeParseError,
			Message: err.Error(),
		}, json.RawMessage(body))
	}
	return normalize(&v, json.RawMessage(body))
}

// apiError maps client errors onto provider error kinds.
func apiError(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		e := providers.NewProviderError(providers.OpenAIWhisper, providers.CodeTranscriptionError, msg, apiErr.StatusCode)
		switch apiErr.StatusCode {
		case http.StatusBadRequest:
			e.Code = providers.CodeInvalidInput
		case http.StatusNotFound:
			e.Code = providers.CodeNoResults
		}
		if apiErr.Code != "" {
			e.Details = map[string]any{"code": apiErr.Code, "type": apiErr.Type}
		}
		e.Err = err
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		e := providers.NewTimeoutError(providers.OpenAIWhisper, providers.CodeConnectionTimeout, "provider request timed out")
		e.Err = err
		return e
	}
	return &providers.Error{
		Kind:     providers.ErrTransport,
		Code:     providers.CodeUnknownError,
		Message:  "provider request failed",
		Provider: providers.OpenAIWhisper,
		Err:      err,
	}
}

func contentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
