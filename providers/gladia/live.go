package gladia

import (
	"context"
	"net/http"
	"net/url"

	"github.com/agnivade/voicerouter/internal/restclient"
	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/session"
)

type messagesConfig struct {
	ReceivePartialTranscripts       bool `json:"receive_partial_transcripts"`
	ReceiveFinalTranscripts         bool `json:"receive_final_transcripts"`
	ReceiveSpeechEvents             bool `json:"receive_speech_events"`
	ReceivePreProcessingEvents      bool `json:"receive_pre_processing_events"`
	ReceiveRealtimeProcessingEvents bool `json:"receive_realtime_processing_events"`
	ReceivePostProcessingEvents     bool `json:"receive_post_processing_events"`
	ReceiveAcknowledgments          bool `json:"receive_acknowledgments"`
	ReceiveErrors                   bool `json:"receive_errors"`
	ReceiveLifecycleEvents          bool `json:"receive_lifecycle_events"`
}

type realtimeProcessing struct {
	CustomVocabulary       bool              `json:"custom_vocabulary,omitempty"`
	CustomVocabularyConfig *vocabularyConfig `json:"custom_vocabulary_config,omitempty"`
	Translation            bool              `json:"translation,omitempty"`
	TranslationConfig      map[string]any    `json:"translation_config,omitempty"`
	NamedEntityRecognition bool              `json:"named_entity_recognition,omitempty"`
	SentimentAnalysis      bool              `json:"sentiment_analysis,omitempty"`
}

func (r *realtimeProcessing) enabled() bool {
	return r.CustomVocabulary || r.Translation || r.NamedEntityRecognition || r.SentimentAnalysis
}

type liveRequest struct {
	Encoding           string              `json:"encoding"`
	BitDepth           int                 `json:"bit_depth"`
	SampleRate         int                 `json:"sample_rate"`
	Channels           int                 `json:"channels"`
	Model              string              `json:"model,omitempty"`
	Endpointing        float64             `json:"endpointing,omitempty"`
	MaxDurationNoEnd   float64             `json:"maximum_duration_without_endpointing,omitempty"`
	LanguageConfig     *languageConfig     `json:"language_config,omitempty"`
	RealtimeProcessing *realtimeProcessing `json:"realtime_processing,omitempty"`
	PostProcessing     map[string]bool     `json:"post_processing,omitempty"`
	CustomMetadata     map[string]any      `json:"custom_metadata,omitempty"`
	MessagesConfig     messagesConfig      `json:"messages_config"`
}

func (a *Adapter) buildLiveRequest(opts providers.StreamingOptions) liveRequest {
	enc, _ := audioSupport.WireName(opts.Encoding)
	model := a.settings.Model
	if opts.Model != "" {
		model = opts.Model
	}

	req := liveRequest{
		Encoding:       enc,
		BitDepth:       opts.BitDepth,
		SampleRate:     opts.SampleRate,
		Channels:       opts.Channels,
		Model:          model,
		LanguageConfig: newLanguageConfig(opts.Language, opts.LanguageDetection),
		CustomMetadata: opts.Metadata,
		MessagesConfig: messagesConfig{
			ReceivePartialTranscripts:       opts.Interim(),
			ReceiveFinalTranscripts:         true,
			ReceiveSpeechEvents:             true,
			ReceiveRealtimeProcessingEvents: true,
			ReceivePostProcessingEvents:     true,
			ReceiveLifecycleEvents:          true,
			ReceiveErrors:                   true,
		},
	}
	if opts.Endpointing > 0 {
		req.Endpointing = float64(opts.Endpointing) / 1000
	}
	if opts.MaxSilence > 0 {
		req.MaxDurationNoEnd = float64(opts.MaxSilence) / 1000
	}

	rt := &realtimeProcessing{
		NamedEntityRecognition: opts.EntityDetection,
		SentimentAnalysis:      opts.SentimentAnalysis,
	}
	if len(opts.CustomVocabulary) > 0 {
		rt.CustomVocabulary = true
		rt.CustomVocabularyConfig = &vocabularyConfig{Vocabulary: opts.CustomVocabulary}
	}
	if len(opts.TranslationLanguages) > 0 {
		rt.Translation = true
		rt.TranslationConfig = map[string]any{"target_languages": opts.TranslationLanguages}
	}
	if rt.enabled() {
		req.RealtimeProcessing = rt
	}
	if opts.Summarization {
		req.PostProcessing = map[string]bool{"summarization": true}
	}
	return req
}

// TranscribeStream initiates a live session over REST and returns a session
// dialing the WebSocket URL from the response. The session id is the
// provider's live session id.
func (a *Adapter) TranscribeStream(ctx context.Context, opts providers.StreamingOptions, cb providers.Callbacks) (providers.StreamingSession, error) {
	opts, err := a.PrepareStreamingFor(streamingCapabilities, opts, audioSupport)
	if err != nil {
		return nil, err
	}

	var query url.Values
	if a.settings.Region != "" {
		query = url.Values{"region": {a.settings.Region}}
	}
	resp, err := restclient.Do[initResponse](ctx, a.rest, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v2/live",
		Query:  query,
		JSON:   a.buildLiveRequest(opts),
	})
	if err != nil {
		return nil, err
	}
	if resp.Data.URL == "" {
		return nil, providers.NewProviderError(providers.Gladia, providers.CodeParseError, "live session response has no url", resp.StatusCode)
	}
	a.Log.Debug().Str("session_id", resp.Data.ID).Msg("live session initiated")

	cfg := session.Config{
		Provider:  providers.Gladia,
		Options:   opts,
		Codec:     codec{},
		Callbacks: cb,
		ID:        resp.Data.ID,
		Logger:    &a.Log,
		Metrics:   a.Metrics,
	}.Tune(a.settings.StreamSettings)
	cfg.Dialer = session.WebSocketDialer{
		URL:              resp.Data.URL,
		HandshakeTimeout: cfg.ConnectTimeout,
	}
	return session.Start(ctx, cfg), nil
}
