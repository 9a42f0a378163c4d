package deepgram

import (
	"encoding/json"

	"github.com/agnivade/voicerouter/providers"
)

// Statuses maps the two outcomes of a pre-recorded request. Deepgram has no
// job status vocabulary: a response either carries results or acknowledges a
// callback request.
var Statuses = providers.StatusTable{
	"completed": providers.StatusCompleted,
	"accepted":  providers.StatusProcessing,
}

// NativeStatuses lists every status the normalizer can observe.
var NativeStatuses = []string{"completed", "accepted"}

type word struct {
	Word           string  `json:"word"`
	PunctuatedWord string  `json:"punctuated_word"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Confidence     float64 `json:"confidence"`
	Speaker        *int    `json:"speaker"`
}

type listenResponse struct {
	// RequestID is set on the accepted response of a callback request.
	RequestID string `json:"request_id"`
	Metadata  struct {
		RequestID string  `json:"request_id"`
		Created   string  `json:"created"`
		Duration  float64 `json:"duration"`
	} `json:"metadata"`
	Results *struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
				Words      []word  `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Transcript string  `json:"transcript"`
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Confidence float64 `json:"confidence"`
			Speaker    *int    `json:"speaker"`
			Words      []word  `json:"words"`
		} `json:"utterances"`
		Summary *struct {
			Short  string `json:"short"`
			Result string `json:"result"`
		} `json:"summary"`
	} `json:"results"`
}

func normalizeBatch(r *listenResponse, raw json.RawMessage) *providers.TranscriptResponse {
	if r.Results == nil {
		if r.RequestID == "" {
			return providers.NewFailure(providers.Deepgram, &providers.ErrorInfo{
				Code:    providers.CodeNoResults,
				Message: providers.DefaultMessage(providers.CodeNoResults),
			}, raw)
		}
		status, _ := Statuses.Map("accepted")
		return providers.NewSuccess(providers.Deepgram, &providers.TranscriptData{
			ID:     r.RequestID,
			Status: status,
		}, raw)
	}

	status, _ := Statuses.Map("completed")
	data := &providers.TranscriptData{
		ID:        r.Metadata.RequestID,
		Status:    status,
		CreatedAt: r.Metadata.Created,
	}
	if r.Metadata.Duration > 0 {
		data.Duration = providers.Float(r.Metadata.Duration)
	}

	if len(r.Results.Channels) > 0 {
		ch := r.Results.Channels[0]
		data.Language = ch.DetectedLanguage
		if len(ch.Alternatives) > 0 {
			alt := ch.Alternatives[0]
			data.Text = alt.Transcript
			data.Confidence = providers.Float(alt.Confidence)
			data.Words = convertWords(alt.Words)
		}
	}

	for _, u := range r.Results.Utterances {
		data.Utterances = append(data.Utterances, providers.Utterance{
			Text:       u.Transcript,
			Start:      u.Start,
			End:        u.End,
			Speaker:    speakerLabel(u.Speaker),
			Confidence: providers.Float(u.Confidence),
			Words:      convertWords(u.Words),
		})
	}
	data.Speakers = providers.SpeakersFrom(data.Utterances)

	if s := r.Results.Summary; s != nil {
		data.Summary = s.Short
	}
	return providers.NewSuccess(providers.Deepgram, data, raw)
}

func convertWords(in []word) []providers.Word {
	if len(in) == 0 {
		return nil
	}
	out := make([]providers.Word, 0, len(in))
	for _, w := range in {
		text := w.PunctuatedWord
		if text == "" {
			text = w.Word
		}
		out = append(out, providers.Word{
			Text:       text,
			Start:      w.Start,
			End:        w.End,
			Confidence: providers.Float(w.Confidence),
			Speaker:    speakerLabel(w.Speaker),
		})
	}
	return out
}
