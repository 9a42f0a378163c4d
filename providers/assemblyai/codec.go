package assemblyai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/session"
)

// Fields accepted by UpdateConfiguration.
const (
	FieldEndOfTurnThreshold  = "end_of_turn_confidence_threshold"
	FieldMinEndOfTurnSilence = "min_end_of_turn_silence_when_confident"
	FieldMaxTurnSilence      = "max_turn_silence"
)

var (
	terminateFrame     = session.MustJSON(map[string]string{"type": "Terminate"})
	forceEndpointFrame = session.MustJSON(map[string]string{"type": "ForceEndpoint"})
)

// codec maps v3 streaming frames. The session opens on Begin and ends on
// Termination. With formatTurns set, each turn ends twice: once unformatted
// and once formatted, and only the formatted one is reported as final.
type codec struct {
	formatTurns bool
}

func (codec) OpensOnConnect() bool { return false }

func (codec) EncodeAudio(chunk []byte) session.Frame { return session.Binary(chunk) }

func (codec) FinalizeFrame() (session.Frame, bool) { return terminateFrame, true }

func (codec) ForceEndpointFrame() (session.Frame, bool) { return forceEndpointFrame, true }

func (codec) CanUpdate(field string) bool {
	switch field {
	case FieldEndOfTurnThreshold, FieldMinEndOfTurnSilence, FieldMaxTurnSilence:
		return true
	}
	return false
}

type turnUpdate struct {
	EndOfTurnConfidenceThreshold *float64 `mapstructure:"end_of_turn_confidence_threshold" json:"end_of_turn_confidence_threshold,omitempty"`
	MinEndOfTurnSilence          *int     `mapstructure:"min_end_of_turn_silence_when_confident" json:"min_end_of_turn_silence_when_confident,omitempty"`
	MaxTurnSilence               *int     `mapstructure:"max_turn_silence" json:"max_turn_silence,omitempty"`
}

func decodeUpdate(update providers.ConfigUpdate) (turnUpdate, error) {
	var u turnUpdate
	if err := mapstructure.WeakDecode(map[string]any(update), &u); err != nil {
		return u, providers.NewInputError(providers.AssemblyAI, fmt.Sprintf("invalid update: %v", err))
	}
	if t := u.EndOfTurnConfidenceThreshold; t != nil && (*t < 0 || *t > 1) {
		return u, providers.NewInputError(providers.AssemblyAI, "end_of_turn_confidence_threshold must be between 0 and 1")
	}
	return u, nil
}

// EncodeUpdate builds an UpdateConfiguration message. The provider sends no
// acknowledgement for it.
func (codec) EncodeUpdate(update providers.ConfigUpdate) (session.Frame, bool, error) {
	u, err := decodeUpdate(update)
	if err != nil {
		return session.Frame{}, false, err
	}
	f, err := session.JSON(struct {
		Type string `json:"type"`
		turnUpdate
	}{Type: "UpdateConfiguration", turnUpdate: u})
	return f, false, err
}

func (codec) ApplyUpdate(opts providers.StreamingOptions, update providers.ConfigUpdate) providers.StreamingOptions {
	u, err := decodeUpdate(update)
	if err != nil {
		return opts
	}
	if u.EndOfTurnConfidenceThreshold != nil {
		opts.EndOfTurnConfidenceThreshold = *u.EndOfTurnConfidenceThreshold
	}
	if u.MinEndOfTurnSilence != nil {
		opts.Endpointing = *u.MinEndOfTurnSilence
	}
	if u.MaxTurnSilence != nil {
		opts.MaxSilence = *u.MaxTurnSilence
	}
	return opts
}

type streamMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`

	// Begin
	ID        string `json:"id"`
	ExpiresAt any    `json:"expires_at"`

	// Turn
	TurnOrder           int     `json:"turn_order"`
	Transcript          string  `json:"transcript"`
	EndOfTurn           bool    `json:"end_of_turn"`
	TurnIsFormatted     bool    `json:"turn_is_formatted"`
	EndOfTurnConfidence float64 `json:"end_of_turn_confidence"`
	Words               []struct {
		Text       string  `json:"text"`
		Start      int64   `json:"start"`
		End        int64   `json:"end"`
		Confidence float64 `json:"confidence"`
	} `json:"words"`

	// Termination
	AudioDurationSeconds   float64 `json:"audio_duration_seconds"`
	SessionDurationSeconds float64 `json:"session_duration_seconds"`
}

func (c codec) Decode(f session.Frame) (session.Decoded, error) {
	var msg streamMessage
	if err := json.Unmarshal(f.Data, &msg); err != nil {
		return session.Decoded{}, err
	}

	if msg.Error != "" {
		e := providers.NewProviderError(providers.AssemblyAI, providers.CodeTranscriptionError, msg.Error, 0)
		e.Details = json.RawMessage(f.Data)
		return session.Decoded{Err: e}, nil
	}

	switch msg.Type {
	case "Begin":
		return session.Decoded{
			Opened: true,
			Events: []providers.Event{providers.MetadataEvent{Data: map[string]any{
				"id":         msg.ID,
				"expires_at": msg.ExpiresAt,
			}}},
		}, nil

	case "Turn":
		return c.decodeTurn(&msg), nil

	case "Termination":
		return session.Decoded{
			CloseAck: true,
			Events: []providers.Event{providers.MetadataEvent{Data: map[string]any{
				"audio_duration":   msg.AudioDurationSeconds,
				"session_duration": msg.SessionDurationSeconds,
			}}},
		}, nil
	}
	return session.Decoded{}, nil
}

func (c codec) decodeTurn(msg *streamMessage) session.Decoded {
	text := strings.TrimSpace(msg.Transcript)
	if text == "" {
		return session.Decoded{}
	}

	words := make([]providers.Word, 0, len(msg.Words))
	for _, w := range msg.Words {
		words = append(words, providers.Word{
			Text:       w.Text,
			Start:      msToSeconds(w.Start),
			End:        msToSeconds(w.End),
			Confidence: providers.Float(w.Confidence),
		})
	}
	if len(words) == 0 {
		words = nil
	}

	final := msg.EndOfTurn && (msg.TurnIsFormatted || !c.formatTurns)
	ev := providers.TranscriptEvent{
		Text:    text,
		IsFinal: final,
		Words:   words,
	}
	if !final {
		return session.Decoded{Events: []providers.Event{ev}}
	}

	ev.Confidence = providers.Float(msg.EndOfTurnConfidence)
	u := providers.Utterance{Text: text, Confidence: ev.Confidence, Words: words}
	if len(words) > 0 {
		u.Start = words[0].Start
		u.End = words[len(words)-1].End
	}
	return session.Decoded{Events: []providers.Event{ev, providers.UtteranceEvent{Utterance: u}}}
}
