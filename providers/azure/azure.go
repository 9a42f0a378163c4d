// Package azure implements the Azure AI Speech batch transcription adapter
// (REST v3.2). Azure accepts audio by URL only and has no streaming API here.
package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agnivade/voicerouter/internal/restclient"
	"github.com/agnivade/voicerouter/providers"
)

const apiPath = "/speechtotext/v3.2"

var capabilities = providers.Capabilities{
	Diarization:       true,
	WordTimestamps:    true,
	LanguageDetection: true,
	ListTranscripts:   true,
	DeleteTranscript:  true,
}

// Policy is the field policy. Custom vocabulary needs a custom model in
// Azure, so the phrase list is ignored rather than rejected.
var Policy = providers.FieldPolicy{
	providers.FeatureWordTimestamps:   providers.Ignore,
	providers.FeatureCustomVocabulary: providers.Ignore,
}

// Settings are decoded from ProviderConfig.Options.
type Settings struct {
	Locale string `mapstructure:"locale"`
	// CandidateLocales are offered to language identification.
	CandidateLocales []string `mapstructure:"candidate_locales"`
	DisplayName      string   `mapstructure:"display_name"`
	// Model is the self link of a custom model.
	Model      string `mapstructure:"model"`
	TimeToLive string `mapstructure:"time_to_live"`

	providers.PollSettings `mapstructure:",squash"`
}

// Adapter implements providers.Adapter for Azure batch transcription.
type Adapter struct {
	providers.Base

	settings Settings
	rest     *restclient.Client
}

var _ providers.Adapter = (*Adapter)(nil)

// New creates an uninitialized Azure adapter.
func New(opts ...providers.Option) *Adapter {
	return &Adapter{
		Base: providers.NewBase(providers.AzureSTT, capabilities, Policy, opts...),
	}
}

// Initialize requires a region in addition to the subscription key. BaseURL
// replaces the regional endpoint host.
func (a *Adapter) Initialize(cfg providers.ProviderConfig) error {
	if cfg.Region == "" {
		return providers.NewConfigError(providers.AzureSTT, "region is required")
	}
	if err := a.Store(cfg); err != nil {
		return err
	}

	settings := Settings{
		Locale:           "en-US",
		DisplayName:      "voicerouter",
		CandidateLocales: []string{"en-US", "es-ES", "fr-FR", "de-DE"},
	}
	if err := providers.DecodeOptions(providers.AzureSTT, cfg.Options, &settings); err != nil {
		return err
	}
	a.settings = settings

	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.cognitive.microsoft.com", cfg.Region)
	}
	restOpts := []restclient.Option{
		restclient.WithHeader("Ocp-Apim-Subscription-Key", cfg.APIKey),
		restclient.WithLogger(a.Log),
	}
	if a.HTTPClient != nil {
		restOpts = append(restOpts, restclient.WithHTTPClient(a.HTTPClient))
	}
	a.rest = restclient.New(providers.AzureSTT, strings.TrimRight(base, "/")+apiPath, a.Config.Timeout, restOpts...)
	return nil
}

type speakers struct {
	MinCount int `json:"minCount"`
	MaxCount int `json:"maxCount"`
}

type diarization struct {
	Speakers speakers `json:"speakers"`
}

type languageIdentification struct {
	CandidateLocales []string `json:"candidateLocales"`
}

type properties struct {
	DiarizationEnabled         bool                    `json:"diarizationEnabled,omitempty"`
	WordLevelTimestampsEnabled bool                    `json:"wordLevelTimestampsEnabled,omitempty"`
	PunctuationMode            string                  `json:"punctuationMode,omitempty"`
	TimeToLive                 string                  `json:"timeToLive,omitempty"`
	Diarization                *diarization            `json:"diarization,omitempty"`
	LanguageIdentification     *languageIdentification `json:"languageIdentification,omitempty"`
}

type modelRef struct {
	Self string `json:"self"`
}

type transcriptionRequest struct {
	ContentURLs []string   `json:"contentUrls"`
	Locale      string     `json:"locale"`
	DisplayName string     `json:"displayName"`
	Model       *modelRef  `json:"model,omitempty"`
	Properties  properties `json:"properties"`
}

func (a *Adapter) buildRequest(audioURL string, opts providers.TranscribeOptions) transcriptionRequest {
	req := transcriptionRequest{
		ContentURLs: []string{audioURL},
		Locale:      a.settings.Locale,
		DisplayName: a.settings.DisplayName,
		Properties: properties{
			WordLevelTimestampsEnabled: true,
			PunctuationMode:            "DictatedAndAutomatic",
			TimeToLive:                 a.settings.TimeToLive,
		},
	}
	if opts.Language != "" {
		req.Locale = opts.Language
	}
	if a.settings.Model != "" {
		req.Model = &modelRef{Self: a.settings.Model}
	}
	if opts.Diarization {
		req.Properties.DiarizationEnabled = true
		if opts.SpeakersExpected > 0 {
			req.Properties.Diarization = &diarization{Speakers: speakers{MinCount: 1, MaxCount: opts.SpeakersExpected}}
		}
	}
	if opts.LanguageDetection {
		req.Properties.LanguageIdentification = &languageIdentification{CandidateLocales: a.settings.CandidateLocales}
	}
	return req
}

// Transcribe creates a batch transcription. Without a webhook the job is
// polled until it succeeds or fails. Webhooks are registered on the Azure
// resource, so the URL itself is not sent.
func (a *Adapter) Transcribe(ctx context.Context, audio providers.Audio, opts providers.TranscribeOptions) *providers.TranscriptResponse {
	if err := a.Ready(); err != nil {
		return providers.FailureFrom(providers.AzureSTT, err)
	}
	if audio.URL == "" {
		return providers.FailureFrom(providers.AzureSTT, providers.NewInputError(providers.AzureSTT, "azure requires an audio url"))
	}
	opts, err := a.CheckBatch(opts)
	if err != nil {
		return providers.FailureFrom(providers.AzureSTT, err)
	}

	resp, err := restclient.Post[transcription](ctx, a.rest, "/transcriptions", a.buildRequest(audio.URL, opts))
	if err != nil {
		return providers.FailureFrom(providers.AzureSTT, err)
	}
	id := resp.Data.id()
	if id == "" {
		return providers.NewFailure(providers.AzureSTT, &providers.ErrorInfo{
			Code:    providers.CodeParseError,
			Message: "transcription response has no self link",
		}, resp.Raw)
	}

	if opts.WebhookURL != "" {
		return providers.NewSuccess(providers.AzureSTT, baseData(&resp.Data, providers.StatusQueued), resp.Raw)
	}

	a.Log.Debug().Str("transcription_id", id).Msg("polling transcription")
	return restclient.Poll(ctx, providers.AzureSTT, restclient.PollConfig{
		Interval:    a.settings.PollInterval,
		MaxAttempts: a.settings.MaxPollAttempts,
	}, func(ctx context.Context) *providers.TranscriptResponse {
		return a.fetch(ctx, id)
	})
}

func (a *Adapter) fetch(ctx context.Context, id string) *providers.TranscriptResponse {
	resp, err := restclient.Get[transcription](ctx, a.rest, "/transcriptions/"+url.PathEscape(id), nil)
	if err != nil {
		return providers.FailureFrom(providers.AzureSTT, err)
	}
	if out, done := normalizeStatus(&resp.Data, resp.Raw); done {
		return out
	}
	return a.fetchResult(ctx, &resp.Data)
}

// fetchResult downloads the transcription file of a succeeded job.
func (a *Adapter) fetchResult(ctx context.Context, t *transcription) *providers.TranscriptResponse {
	filesPath := t.Links.Files
	if filesPath == "" {
		filesPath = "/transcriptions/" + url.PathEscape(t.id()) + "/files"
	}
	files, err := restclient.Get[fileList](ctx, a.rest, filesPath, nil)
	if err != nil {
		return providers.FailureFrom(providers.AzureSTT, err)
	}

	for _, f := range files.Data.Values {
		if f.Kind != "Transcription" || f.Links.ContentURL == "" {
			continue
		}
		// contentUrl is a signed storage link on another host.
		res, err := restclient.Do[result](ctx, a.rest, restclient.Request{
			Method:   http.MethodGet,
			Path:     f.Links.ContentURL,
			External: true,
		})
		if err != nil {
			return providers.FailureFrom(providers.AzureSTT, err)
		}
		return normalizeResult(t, &res.Data, res.Raw)
	}
	return providers.NewFailure(providers.AzureSTT, &providers.ErrorInfo{
		Code:    providers.CodeNoResults,
		Message: providers.DefaultMessage(providers.CodeNoResults),
		Details: map[string]any{"id": t.id()},
	}, files.Raw)
}

func (a *Adapter) GetTranscript(ctx context.Context, id string) (*providers.TranscriptResponse, error) {
	if err := a.Ready(); err != nil {
		return providers.FailureFrom(providers.AzureSTT, err), nil
	}
	return a.fetch(ctx, id), nil
}

// ListTranscripts lists transcriptions without downloading their results.
// The cursor is the provider's @nextLink.
func (a *Adapter) ListTranscripts(ctx context.Context, filter providers.ListFilter) (*providers.TranscriptList, error) {
	if err := a.Ready(); err != nil {
		return nil, err
	}

	path := filter.Cursor
	var query url.Values
	if path == "" {
		path = "/transcriptions"
		query = url.Values{}
		if filter.Limit > 0 {
			query.Set("top", strconv.Itoa(filter.Limit))
		}
		if filter.Offset > 0 {
			query.Set("skip", strconv.Itoa(filter.Offset))
		}
		if filter.Status != "" {
			var clauses []string
			for _, native := range NativeStatuses {
				if Statuses[native] == filter.Status {
					clauses = append(clauses, fmt.Sprintf("status eq '%s'", native))
				}
			}
			query.Set("filter", strings.Join(clauses, " or "))
		}
	}

	resp, err := restclient.Get[listResponse](ctx, a.rest, path, query)
	if err != nil {
		return nil, err
	}

	out := &providers.TranscriptList{NextCursor: resp.Data.NextLink, HasMore: resp.Data.NextLink != ""}
	for _, raw := range resp.Data.Values {
		var t transcription
		if err := json.Unmarshal(raw, &t); err != nil {
			out.Transcripts = append(out.Transcripts, providers.NewFailure(providers.AzureSTT, &providers.ErrorInfo{
				Code:    providers.CodeParseError,
				Message: err.Error(),
			}, raw))
			continue
		}
		item, done := normalizeStatus(&t, raw)
		if !done {
			item = providers.NewSuccess(providers.AzureSTT, baseData(&t, providers.StatusCompleted), raw)
		}
		out.Transcripts = append(out.Transcripts, item)
	}
	return out, nil
}

func (a *Adapter) DeleteTranscript(ctx context.Context, id string) error {
	if err := a.Ready(); err != nil {
		return err
	}
	return restclient.Delete(ctx, a.rest, "/transcriptions/"+url.PathEscape(id))
}
