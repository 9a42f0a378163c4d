package gladia

import (
	"encoding/json"
	"strings"

	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/session"
)

var stopRecordingFrame = session.MustJSON(map[string]string{"type": "stop_recording"})

// codec maps live session messages. The socket URL carries the session
// token, so the session is open once connected. stop_recording asks for the
// post-processing results, and end_session closes the stream.
type codec struct {
	session.NoUpdates
}

func (codec) OpensOnConnect() bool { return true }

func (codec) EncodeAudio(chunk []byte) session.Frame { return session.Binary(chunk) }

func (codec) FinalizeFrame() (session.Frame, bool) { return stopRecordingFrame, true }

func (codec) ForceEndpointFrame() (session.Frame, bool) { return session.Frame{}, false }

type liveMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

type transcriptData struct {
	ID        string    `json:"id"`
	IsFinal   bool      `json:"is_final"`
	Utterance utterance `json:"utterance"`
}

type translationData struct {
	UtteranceID         string    `json:"utterance_id"`
	Utterance           utterance `json:"utterance"`
	OriginalLanguage    string    `json:"original_language"`
	TargetLanguage      string    `json:"target_language"`
	TranslatedUtterance utterance `json:"translated_utterance"`
}

type entityData struct {
	UtteranceID string `json:"utterance_id"`
	Results     []struct {
		EntityType string  `json:"entity_type"`
		Text       string  `json:"text"`
		Start      float64 `json:"start"`
		End        float64 `json:"end"`
	} `json:"results"`
}

type sentimentData struct {
	UtteranceID string `json:"utterance_id"`
	Results     []struct {
		Sentiment string  `json:"sentiment"`
		Emotion   string  `json:"emotion"`
		Text      string  `json:"text"`
		Start     float64 `json:"start"`
		End       float64 `json:"end"`
	} `json:"results"`
}

type speechData struct {
	Time float64 `json:"time"`
}

type errorData struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (codec) Decode(f session.Frame) (session.Decoded, error) {
	var msg liveMessage
	if err := json.Unmarshal(f.Data, &msg); err != nil {
		return session.Decoded{}, err
	}

	switch msg.Type {
	case "transcript":
		var d transcriptData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return session.Decoded{}, err
		}
		return session.Decoded{Events: transcriptEvents(d)}, nil

	case "translation":
		var d translationData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return session.Decoded{}, err
		}
		u := convertUtterance(d.Utterance)
		return session.Decoded{Events: []providers.Event{providers.TranslationEvent{
			TargetLanguage: d.TargetLanguage,
			TranslatedText: strings.TrimSpace(d.TranslatedUtterance.Text),
			Utterance:      &u,
		}}}, nil

	case "named_entity_recognition":
		var d entityData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return session.Decoded{}, err
		}
		events := make([]providers.Event, 0, len(d.Results))
		for _, r := range d.Results {
			events = append(events, providers.EntityEvent{EntityType: r.EntityType, Text: r.Text, Start: r.Start, End: r.End})
		}
		return session.Decoded{Events: events}, nil

	case "sentiment_analysis":
		var d sentimentData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return session.Decoded{}, err
		}
		events := make([]providers.Event, 0, len(d.Results))
		for _, r := range d.Results {
			events = append(events, providers.SentimentEvent{Sentiment: r.Sentiment, Emotion: r.Emotion, Text: r.Text, Start: r.Start, End: r.End})
		}
		return session.Decoded{Events: events}, nil

	case "speech_start":
		var d speechData
		_ = json.Unmarshal(msg.Data, &d)
		return session.Decoded{Events: []providers.Event{providers.SpeechStartEvent{Timestamp: d.Time}}}, nil

	case "speech_end":
		var d speechData
		_ = json.Unmarshal(msg.Data, &d)
		return session.Decoded{Events: []providers.Event{providers.SpeechEndEvent{Timestamp: d.Time}}}, nil

	case "post_final_transcript", "post_summarization", "start_session", "start_recording", "end_recording":
		return session.Decoded{Events: []providers.Event{metadataEvent(f.Data)}}, nil

	case "end_session":
		return session.Decoded{CloseAck: true, Events: []providers.Event{metadataEvent(f.Data)}}, nil

	case "error":
		var d errorData
		_ = json.Unmarshal(msg.Data, &d)
		text := d.Message
		if text == "" {
			text = msg.Message
		}
		e := providers.NewProviderError(providers.Gladia, providers.CodeTranscriptionError, text, 0)
		e.Details = json.RawMessage(f.Data)
		return session.Decoded{Err: e}, nil
	}

	return session.Decoded{}, nil
}

func transcriptEvents(d transcriptData) []providers.Event {
	text := strings.TrimSpace(d.Utterance.Text)
	if text == "" {
		return nil
	}
	u := convertUtterance(d.Utterance)
	u.Text = text
	ev := providers.TranscriptEvent{
		Text:       text,
		IsFinal:    d.IsFinal,
		Confidence: u.Confidence,
		Words:      u.Words,
		Speaker:    u.Speaker,
		Language:   d.Utterance.Language,
	}
	if !d.IsFinal {
		return []providers.Event{ev}
	}
	return []providers.Event{ev, providers.UtteranceEvent{Utterance: u}}
}

func metadataEvent(raw []byte) providers.MetadataEvent {
	data := map[string]any{}
	_ = json.Unmarshal(raw, &data)
	return providers.MetadataEvent{Data: data}
}
