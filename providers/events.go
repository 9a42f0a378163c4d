package providers

// EventType discriminates stream events.
type EventType string

const (
	EventTranscript  EventType = "transcript"
	EventUtterance   EventType = "utterance"
	EventSpeechStart EventType = "speech_start"
	EventSpeechEnd   EventType = "speech_end"
	EventTranslation EventType = "translation"
	EventSentiment   EventType = "sentiment"
	EventEntity      EventType = "entity"
	EventMetadata    EventType = "metadata"
	EventError       EventType = "error"
	EventClose       EventType = "close"
)

// Event is one normalized streaming event.
type Event interface {
	Type() EventType
	event()
}

type TranscriptEvent struct {
	Text       string
	IsFinal    bool
	Confidence *float64
	Words      []Word
	Speaker    string
	Language   string
}

type UtteranceEvent struct {
	Utterance Utterance
}

// SpeechStartEvent marks detected voice activity. Timestamp is in seconds
// from stream start, zero when the provider does not report it.
type SpeechStartEvent struct {
	Timestamp float64
}

type SpeechEndEvent struct {
	Timestamp float64
}

type TranslationEvent struct {
	TargetLanguage string
	TranslatedText string
	Utterance      *Utterance
}

type SentimentEvent struct {
	Sentiment string
	Emotion   string
	Text      string
	Start     float64
	End       float64
}

type EntityEvent struct {
	EntityType string
	Text       string
	Start      float64
	End        float64
}

// MetadataEvent carries provider session metadata verbatim.
type MetadataEvent struct {
	Data map[string]any
}

type ErrorEvent struct {
	Err *Error
}

// CloseEvent ends the event stream. Forced is set when the close handshake
// timed out and the transport was torn down locally.
type CloseEvent struct {
	Code   int
	Reason string
	Forced bool
}

func (TranscriptEvent) Type() EventType  { return EventTranscript }
func (UtteranceEvent) Type() EventType   { return EventUtterance }
func (SpeechStartEvent) Type() EventType { return EventSpeechStart }
func (SpeechEndEvent) Type() EventType   { return EventSpeechEnd }
func (TranslationEvent) Type() EventType { return EventTranslation }
func (SentimentEvent) Type() EventType   { return EventSentiment }
func (EntityEvent) Type() EventType      { return EventEntity }
func (MetadataEvent) Type() EventType    { return EventMetadata }
func (ErrorEvent) Type() EventType       { return EventError }
func (CloseEvent) Type() EventType       { return EventClose }

func (TranscriptEvent) event()  {}
func (UtteranceEvent) event()   {}
func (SpeechStartEvent) event() {}
func (SpeechEndEvent) event()   {}
func (TranslationEvent) event() {}
func (SentimentEvent) event()   {}
func (EntityEvent) event()      {}
func (MetadataEvent) event()    {}
func (ErrorEvent) event()       {}
func (CloseEvent) event()       {}

// Callbacks receive session events. Nil slots are skipped.
type Callbacks struct {
	OnOpen        func()
	OnTranscript  func(TranscriptEvent)
	OnUtterance   func(UtteranceEvent)
	OnSpeechStart func(SpeechStartEvent)
	OnSpeechEnd   func(SpeechEndEvent)
	OnTranslation func(TranslationEvent)
	OnSentiment   func(SentimentEvent)
	OnEntity      func(EntityEvent)
	OnMetadata    func(MetadataEvent)
	OnError       func(ErrorEvent)
	OnClose       func(CloseEvent)
}

// Dispatch invokes the slot matching ev.
func (cb Callbacks) Dispatch(ev Event) {
	switch e := ev.(type) {
	case TranscriptEvent:
		if cb.OnTranscript != nil {
			cb.OnTranscript(e)
		}
	case UtteranceEvent:
		if cb.OnUtterance != nil {
			cb.OnUtterance(e)
		}
	case SpeechStartEvent:
		if cb.OnSpeechStart != nil {
			cb.OnSpeechStart(e)
		}
	case SpeechEndEvent:
		if cb.OnSpeechEnd != nil {
			cb.OnSpeechEnd(e)
		}
	case TranslationEvent:
		if cb.OnTranslation != nil {
			cb.OnTranslation(e)
		}
	case SentimentEvent:
		if cb.OnSentiment != nil {
			cb.OnSentiment(e)
		}
	case EntityEvent:
		if cb.OnEntity != nil {
			cb.OnEntity(e)
		}
	case MetadataEvent:
		if cb.OnMetadata != nil {
			cb.OnMetadata(e)
		}
	case ErrorEvent:
		if cb.OnError != nil {
			cb.OnError(e)
		}
	case CloseEvent:
		if cb.OnClose != nil {
			cb.OnClose(e)
		}
	}
}
