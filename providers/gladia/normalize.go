package gladia

import (
	"encoding/json"
	"strconv"

	"github.com/agnivade/voicerouter/providers"
)

// Statuses maps pre-recorded job statuses.
var Statuses = providers.StatusTable{
	"queued":     providers.StatusQueued,
	"processing": providers.StatusProcessing,
	"done":       providers.StatusCompleted,
	"error":      providers.StatusError,
}

// NativeStatuses lists every job status the API documents.
var NativeStatuses = []string{"queued", "processing", "done", "error"}

type word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

type utterance struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Channel    int     `json:"channel"`
	Speaker    *int    `json:"speaker"`
	Language   string  `json:"language"`
	Words      []word  `json:"words"`
}

type job struct {
	ID             string         `json:"id"`
	Status         string         `json:"status"`
	CreatedAt      string         `json:"created_at"`
	CompletedAt    string         `json:"completed_at"`
	ErrorCode      int            `json:"error_code"`
	CustomMetadata map[string]any `json:"custom_metadata"`
	File           *struct {
		ID            string  `json:"id"`
		Filename      string  `json:"filename"`
		AudioDuration float64 `json:"audio_duration"`
	} `json:"file"`
	Result *struct {
		Metadata struct {
			AudioDuration float64 `json:"audio_duration"`
		} `json:"metadata"`
		Transcription *struct {
			FullTranscript string      `json:"full_transcript"`
			Languages      []string    `json:"languages"`
			Utterances     []utterance `json:"utterances"`
		} `json:"transcription"`
		Summarization *struct {
			Success bool   `json:"success"`
			Results string `json:"results"`
		} `json:"summarization"`
	} `json:"result"`
}

type listResponse struct {
	First   string            `json:"first"`
	Current string            `json:"current"`
	Next    *string           `json:"next"`
	Items   []json.RawMessage `json:"items"`
}

func normalizeJob(j *job, raw json.RawMessage) *providers.TranscriptResponse {
	status, ok := Statuses.Map(j.Status)
	if !ok {
		return providers.NewFailure(providers.Gladia, &providers.ErrorInfo{
			Code:    providers.CodeUnknownError,
			Message: "unknown job status " + j.Status,
			Details: map[string]any{"status": j.Status, "id": j.ID},
		}, raw)
	}
	if status == providers.StatusError {
		return providers.NewFailure(providers.Gladia, &providers.ErrorInfo{
			Code:       providers.CodeTranscriptionError,
			Message:    providers.DefaultMessage(providers.CodeTranscriptionError),
			StatusCode: j.ErrorCode,
			Details:    map[string]any{"id": j.ID},
		}, raw)
	}

	data := &providers.TranscriptData{
		ID:          j.ID,
		Status:      status,
		Metadata:    j.CustomMetadata,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
	}
	if r := j.Result; r != nil {
		data.Duration = providers.Float(r.Metadata.AudioDuration)
		if t := r.Transcription; t != nil {
			data.Text = t.FullTranscript
			if len(t.Languages) > 0 {
				data.Language = t.Languages[0]
			}
			for _, u := range t.Utterances {
				pu := convertUtterance(u)
				data.Utterances = append(data.Utterances, pu)
				data.Words = append(data.Words, pu.Words...)
			}
			data.Speakers = providers.SpeakersFrom(data.Utterances)
		}
		if s := r.Summarization; s != nil && s.Success {
			data.Summary = s.Results
		}
	}
	return providers.NewSuccess(providers.Gladia, data, raw)
}

func convertUtterance(u utterance) providers.Utterance {
	speaker := speakerLabel(u.Speaker)
	out := providers.Utterance{
		Text:       u.Text,
		Start:      u.Start,
		End:        u.End,
		Speaker:    speaker,
		Confidence: providers.Float(u.Confidence),
	}
	for _, w := range u.Words {
		out.Words = append(out.Words, providers.Word{
			Text:       w.Word,
			Start:      w.Start,
			End:        w.End,
			Confidence: providers.Float(w.Confidence),
			Speaker:    speaker,
		})
	}
	return out
}

func speakerLabel(s *int) string {
	if s == nil {
		return ""
	}
	return strconv.Itoa(*s)
}
