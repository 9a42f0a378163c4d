package deepgram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"

	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/session"
)

var (
	finalizeFrame    = session.MustJSON(map[string]string{"type": "CloseStream"})
	forceEndpointFrm = session.MustJSON(map[string]string{"type": "Finalize"})
)

// codec maps Deepgram live frames. The session is open as soon as the
// socket is, and the provider closes the socket after flushing results for
// CloseStream.
type codec struct {
	session.NoUpdates
}

func (codec) OpensOnConnect() bool { return true }

func (codec) EncodeAudio(chunk []byte) session.Frame { return session.Binary(chunk) }

func (codec) FinalizeFrame() (session.Frame, bool) { return finalizeFrame, true }

func (codec) ForceEndpointFrame() (session.Frame, bool) { return forceEndpointFrm, true }

type envelope struct {
	Type string `json:"type"`
}

// resultWords carries the word list of a Results frame, including the
// diarization speaker.
type resultWords struct {
	Channel struct {
		Alternatives []struct {
			Words []word `json:"words"`
		} `json:"alternatives"`
	} `json:"channel"`
}

type vadEvent struct {
	Timestamp   float64 `json:"timestamp"`
	LastWordEnd float64 `json:"last_word_end"`
}

type errorFrame struct {
	Description string `json:"description"`
	Message     string `json:"message"`
	Variant     string `json:"variant"`
}

func (codec) Decode(f session.Frame) (session.Decoded, error) {
	var env envelope
	if err := json.Unmarshal(f.Data, &env); err != nil {
		return session.Decoded{}, err
	}

	switch env.Type {
	case "Results":
		return decodeResults(f.Data)

	case "Metadata":
		var md api.MetadataResponse
		if err := json.Unmarshal(f.Data, &md); err != nil {
			return session.Decoded{}, err
		}
		data := map[string]any{}
		_ = json.Unmarshal(f.Data, &data)
		data["request_id"] = md.RequestID
		return session.Decoded{Events: []providers.Event{providers.MetadataEvent{Data: data}}}, nil

	case "SpeechStarted":
		var ev vadEvent
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			return session.Decoded{}, err
		}
		return session.Decoded{Events: []providers.Event{providers.SpeechStartEvent{Timestamp: ev.Timestamp}}}, nil

	case "UtteranceEnd":
		var ev vadEvent
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			return session.Decoded{}, err
		}
		return session.Decoded{Events: []providers.Event{providers.SpeechEndEvent{Timestamp: ev.LastWordEnd}}}, nil

	case "Error":
		var ef errorFrame
		if err := json.Unmarshal(f.Data, &ef); err != nil {
			return session.Decoded{}, err
		}
		msg := ef.Description
		if msg == "" {
			msg = ef.Message
		}
		e := providers.NewProviderError(providers.Deepgram, providers.CodeTranscriptionError, msg, 0)
		e.Details = json.RawMessage(f.Data)
		return session.Decoded{Err: e}, nil
	}

	return session.Decoded{}, nil
}

func decodeResults(data []byte) (session.Decoded, error) {
	var msg api.MessageResponse
	if err := json.Unmarshal(data, &msg); err != nil {
		return session.Decoded{}, fmt.Errorf("decode results: %w", err)
	}
	if len(msg.Channel.Alternatives) == 0 {
		return session.Decoded{}, nil
	}
	alt := msg.Channel.Alternatives[0]
	text := strings.TrimSpace(alt.Transcript)
	if text == "" {
		return session.Decoded{}, nil
	}

	var side resultWords
	_ = json.Unmarshal(data, &side)
	var words []providers.Word
	if len(side.Channel.Alternatives) > 0 {
		words = convertWords(side.Channel.Alternatives[0].Words)
	}

	ev := providers.TranscriptEvent{
		Text:       text,
		IsFinal:    msg.IsFinal,
		Confidence: providers.Float(float64(alt.Confidence)),
		Words:      words,
	}
	if len(words) > 0 {
		ev.Speaker = words[0].Speaker
	}

	events := []providers.Event{ev}
	if msg.IsFinal && msg.SpeechFinal {
		u := providers.Utterance{
			Text:       text,
			Speaker:    ev.Speaker,
			Confidence: ev.Confidence,
			Words:      words,
		}
		if len(words) > 0 {
			u.Start = words[0].Start
			u.End = words[len(words)-1].End
		}
		events = append(events, providers.UtteranceEvent{Utterance: u})
	}
	return session.Decoded{Events: events}, nil
}

func speakerLabel(s *int) string {
	if s == nil {
		return ""
	}
	return strconv.Itoa(*s)
}
