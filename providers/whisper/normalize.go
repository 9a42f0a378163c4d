package whisper

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agnivade/voicerouter/providers"
)

// verboseTranscription is the verbose_json response body.
type verboseTranscription struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Words    []word    `json:"words"`
	Segments []segment `json:"segments"`
}

type word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type segment struct {
	ID           int     `json:"id"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	AvgLogprob   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

// confidence turns a segment's average token log probability into [0, 1].
func (s segment) confidence() float64 {
	return math.Min(1, math.Exp(s.AvgLogprob))
}

// normalize builds a completed response. Whisper returns no job id, so a
// random one is assigned. Each segment becomes an utterance holding the
// words that start inside it.
func normalize(v *verboseTranscription, raw json.RawMessage) *providers.TranscriptResponse {
	text := strings.TrimSpace(v.Text)
	if text == "" && len(v.Segments) == 0 {
		return providers.NewFailure(providers.OpenAIWhisper, &providers.ErrorInfo{
			Code:    providers.CodeNoResults,
			Message: providers.DefaultMessage(providers.CodeNoResults),
		}, raw)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	d := &providers.TranscriptData{
		ID:          uuid.NewString(),
		Text:        text,
		Status:      providers.StatusCompleted,
		Language:    v.Language,
		CreatedAt:   now,
		CompletedAt: now,
	}
	if v.Duration > 0 {
		d.Duration = providers.Float(v.Duration)
	}

	for _, w := range v.Words {
		d.Words = append(d.Words, providers.Word{
			Text:  strings.TrimSpace(w.Word),
			Start: w.Start,
			End:   w.End,
		})
	}

	var total float64
	next := 0
	for _, s := range v.Segments {
		u := providers.Utterance{
			Text:       strings.TrimSpace(s.Text),
			Start:      s.Start,
			End:        s.End,
			Confidence: providers.Float(s.confidence()),
		}
		for next < len(d.Words) && d.Words[next].Start < s.End {
			u.Words = append(u.Words, d.Words[next])
			next++
		}
		d.Utterances = append(d.Utterances, u)
		total += s.confidence()
	}
	if n := len(d.Utterances); n > 0 {
		// Words after the last segment end belong to it.
		last := &d.Utterances[n-1]
		last.Words = append(last.Words, d.Words[next:]...)
		d.Confidence = providers.Float(total / float64(n))
	}
	return providers.NewSuccess(providers.OpenAIWhisper, d, raw)
}
