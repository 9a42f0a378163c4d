package providers

import "fmt"

// Capabilities is the immutable feature set of an adapter.
type Capabilities struct {
	Streaming         bool `json:"streaming"`
	Diarization       bool `json:"diarization"`
	WordTimestamps    bool `json:"wordTimestamps"`
	LanguageDetection bool `json:"languageDetection"`
	CustomVocabulary  bool `json:"customVocabulary"`
	Summarization     bool `json:"summarization"`
	SentimentAnalysis bool `json:"sentimentAnalysis"`
	EntityDetection   bool `json:"entityDetection"`
	PIIRedaction      bool `json:"piiRedaction"`
	ListTranscripts   bool `json:"listTranscripts"`
	DeleteTranscript  bool `json:"deleteTranscript"`
	GetAudioFile      bool `json:"getAudioFile"`
}

// Feature names one capability flag.
type Feature string

const (
	FeatureStreaming         Feature = "streaming"
	FeatureDiarization       Feature = "diarization"
	FeatureWordTimestamps    Feature = "wordTimestamps"
	FeatureLanguageDetection Feature = "languageDetection"
	FeatureCustomVocabulary  Feature = "customVocabulary"
	FeatureSummarization     Feature = "summarization"
	FeatureSentimentAnalysis Feature = "sentimentAnalysis"
	FeatureEntityDetection   Feature = "entityDetection"
	FeaturePIIRedaction      Feature = "piiRedaction"
	FeatureListTranscripts   Feature = "listTranscripts"
	FeatureDeleteTranscript  Feature = "deleteTranscript"
	FeatureGetAudioFile      Feature = "getAudioFile"
)

// Has reports whether the feature is supported.
func (c Capabilities) Has(f Feature) bool {
	switch f {
	case FeatureStreaming:
		return c.Streaming
	case FeatureDiarization:
		return c.Diarization
	case FeatureWordTimestamps:
		return c.WordTimestamps
	case FeatureLanguageDetection:
		return c.LanguageDetection
	case FeatureCustomVocabulary:
		return c.CustomVocabulary
	case FeatureSummarization:
		return c.Summarization
	case FeatureSentimentAnalysis:
		return c.SentimentAnalysis
	case FeatureEntityDetection:
		return c.EntityDetection
	case FeaturePIIRedaction:
		return c.PIIRedaction
	case FeatureListTranscripts:
		return c.ListTranscripts
	case FeatureDeleteTranscript:
		return c.DeleteTranscript
	case FeatureGetAudioFile:
		return c.GetAudioFile
	default:
		return false
	}
}

// Action is what an adapter does with a requested option it cannot honour.
type Action int

const (
	// Reject fails the request with a CapabilityError.
	Reject Action = iota
	// Ignore drops the option.
	Ignore
)

func (a Action) String() string {
	if a == Ignore {
		return "ignore"
	}
	return "reject"
}

// FieldPolicy maps option features to the action taken when the adapter
// lacks the capability. Features missing from the table are rejected.
type FieldPolicy map[Feature]Action

// DefaultFieldPolicy rejects every unsupported feature except word timestamps,
// which providers return whenever they have them.
func DefaultFieldPolicy() FieldPolicy {
	return FieldPolicy{
		FeatureWordTimestamps: Ignore,
	}
}

// Action returns the policy action for f.
func (p FieldPolicy) Action(f Feature) Action {
	if a, ok := p[f]; ok {
		return a
	}
	return Reject
}

// Check evaluates the requested features against caps. It returns the
// features to drop and a CapabilityError for the first rejected feature.
func (p FieldPolicy) Check(provider Name, caps Capabilities, features []Feature) (ignored []Feature, err error) {
	for _, f := range features {
		if caps.Has(f) {
			continue
		}
		if p.Action(f) == Ignore {
			ignored = append(ignored, f)
			continue
		}
		return ignored, NewCapabilityError(provider, fmt.Sprintf("%s is not supported by %s", f, provider))
	}
	return ignored, nil
}
