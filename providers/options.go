package providers

// Audio is the input of a batch transcription. URL is used when both forms
// are set.
type Audio struct {
	URL      string
	Data     []byte
	Filename string
}

// IsEmpty reports whether neither form of input is present.
func (a Audio) IsEmpty() bool {
	return a.URL == "" && len(a.Data) == 0
}

// TranscribeOptions are the provider-agnostic batch options.
type TranscribeOptions struct {
	Language          string
	LanguageDetection bool
	Diarization       bool
	SpeakersExpected  int
	WordTimestamps    bool
	CustomVocabulary  []string
	Summarization     bool
	SentimentAnalysis bool
	EntityDetection   bool
	PIIRedaction      bool
	WebhookURL        string
	Metadata          map[string]any
}

// Features lists the capability-gated features requested by the options.
func (o TranscribeOptions) Features() []Feature {
	return requested(featureFlags{
		diarization:       o.Diarization,
		wordTimestamps:    o.WordTimestamps,
		languageDetection: o.LanguageDetection,
		customVocabulary:  len(o.CustomVocabulary) > 0,
		summarization:     o.Summarization,
		sentimentAnalysis: o.SentimentAnalysis,
		entityDetection:   o.EntityDetection,
		piiRedaction:      o.PIIRedaction,
	})
}

// StreamingOptions configure a live session. They are fixed for the session
// except for the fields the provider accepts as mid-session updates.
type StreamingOptions struct {
	Language          string
	LanguageDetection bool
	Diarization       bool
	SpeakersExpected  int
	WordTimestamps    bool
	CustomVocabulary  []string
	Summarization     bool
	SentimentAnalysis bool
	EntityDetection   bool
	PIIRedaction      bool
	Metadata          map[string]any

	Encoding       Encoding
	SampleRate     int
	Channels       int
	BitDepth       int
	InterimResults *bool
	// Endpointing is the end-of-utterance silence threshold in milliseconds.
	Endpointing int
	// MaxSilence is the maximum turn silence in milliseconds.
	MaxSilence int
	Model      string

	TranslationLanguages         []string
	EndOfTurnConfidenceThreshold float64
}

// Features lists the capability-gated features requested by the options.
func (o StreamingOptions) Features() []Feature {
	return requested(featureFlags{
		diarization:       o.Diarization,
		wordTimestamps:    o.WordTimestamps,
		languageDetection: o.LanguageDetection,
		customVocabulary:  len(o.CustomVocabulary) > 0,
		summarization:     o.Summarization,
		sentimentAnalysis: o.SentimentAnalysis,
		entityDetection:   o.EntityDetection,
		piiRedaction:      o.PIIRedaction,
	})
}

// WithDefaults fills unset audio parameters with 16kHz mono 16-bit linear PCM.
func (o StreamingOptions) WithDefaults() StreamingOptions {
	if o.Encoding == "" {
		o.Encoding = EncodingLinear16
	}
	if o.SampleRate == 0 {
		o.SampleRate = 16000
	}
	if o.Channels == 0 {
		o.Channels = 1
	}
	if o.BitDepth == 0 {
		o.BitDepth = 16
	}
	return o
}

// Interim reports whether partial transcripts were requested, defaulting to true.
func (o StreamingOptions) Interim() bool {
	if o.InterimResults == nil {
		return true
	}
	return *o.InterimResults
}

type featureFlags struct {
	diarization, wordTimestamps, languageDetection, customVocabulary bool
	summarization, sentimentAnalysis, entityDetection, piiRedaction  bool
}

func requested(f featureFlags) []Feature {
	var out []Feature
	add := func(on bool, feat Feature) {
		if on {
			out = append(out, feat)
		}
	}
	add(f.diarization, FeatureDiarization)
	add(f.wordTimestamps, FeatureWordTimestamps)
	add(f.languageDetection, FeatureLanguageDetection)
	add(f.customVocabulary, FeatureCustomVocabulary)
	add(f.summarization, FeatureSummarization)
	add(f.sentimentAnalysis, FeatureSentimentAnalysis)
	add(f.entityDetection, FeatureEntityDetection)
	add(f.piiRedaction, FeaturePIIRedaction)
	return out
}
