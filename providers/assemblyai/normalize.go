package assemblyai

import (
	"encoding/json"

	"github.com/agnivade/voicerouter/providers"
)

// Statuses maps the transcript status vocabulary.
var Statuses = providers.StatusTable{
	"queued":     providers.StatusQueued,
	"processing": providers.StatusProcessing,
	"completed":  providers.StatusCompleted,
	"error":      providers.StatusError,
}

// NativeStatuses lists every status the transcript API documents.
var NativeStatuses = []string{"queued", "processing", "completed", "error"}

type word struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    *string `json:"speaker"`
}

type utterance struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker"`
	Words      []word  `json:"words"`
}

type transcript struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"`
	AudioURL      string      `json:"audio_url"`
	Text          *string     `json:"text"`
	Confidence    *float64    `json:"confidence"`
	AudioDuration *float64    `json:"audio_duration"`
	LanguageCode  string      `json:"language_code"`
	Words         []word      `json:"words"`
	Utterances    []utterance `json:"utterances"`
	Summary       *string     `json:"summary"`
	Error         string      `json:"error"`
	WebhookURL    string      `json:"webhook_url"`

	SentimentAnalysisResults json.RawMessage `json:"sentiment_analysis_results"`
	Entities                 json.RawMessage `json:"entities"`
}

type listItem struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	AudioURL    string `json:"audio_url"`
	Created     string `json:"created"`
	Completed   string `json:"completed"`
	ResourceURL string `json:"resource_url"`
	Error       string `json:"error"`
}

type listResponse struct {
	PageDetails struct {
		Limit       int    `json:"limit"`
		ResultCount int    `json:"result_count"`
		PrevURL     string `json:"prev_url"`
		NextURL     string `json:"next_url"`
	} `json:"page_details"`
	Transcripts []listItem `json:"transcripts"`
}

func normalizeTranscript(t *transcript, raw json.RawMessage) *providers.TranscriptResponse {
	status, ok := Statuses.Map(t.Status)
	if !ok {
		return providers.NewFailure(providers.AssemblyAI, &providers.ErrorInfo{
			Code:    providers.CodeUnknownError,
			Message: "unknown transcript status " + t.Status,
			Details: map[string]any{"status": t.Status, "id": t.ID},
		}, raw)
	}
	if status == providers.StatusError {
		msg := t.Error
		if msg == "" {
			msg = providers.DefaultMessage(providers.CodeTranscriptionError)
		}
		return providers.NewFailure(providers.AssemblyAI, &providers.ErrorInfo{
			Code:    providers.CodeTranscriptionError,
			Message: msg,
			Details: map[string]any{"id": t.ID},
		}, raw)
	}

	data := &providers.TranscriptData{
		ID:         t.ID,
		Status:     status,
		Confidence: t.Confidence,
		Duration:   t.AudioDuration,
		Language:   t.LanguageCode,
		Words:      convertWords(t.Words),
	}
	if t.Text != nil {
		data.Text = *t.Text
	}
	if t.Summary != nil {
		data.Summary = *t.Summary
	}
	for _, u := range t.Utterances {
		data.Utterances = append(data.Utterances, providers.Utterance{
			Text:       u.Text,
			Start:      msToSeconds(u.Start),
			End:        msToSeconds(u.End),
			Speaker:    u.Speaker,
			Confidence: providers.Float(u.Confidence),
			Words:      convertWords(u.Words),
		})
	}
	data.Speakers = providers.SpeakersFrom(data.Utterances)

	md := map[string]any{}
	if t.AudioURL != "" {
		md["audio_url"] = t.AudioURL
	}
	if len(t.SentimentAnalysisResults) > 0 && string(t.SentimentAnalysisResults) != "null" {
		md["sentiment_analysis_results"] = t.SentimentAnalysisResults
	}
	if len(t.Entities) > 0 && string(t.Entities) != "null" {
		md["entities"] = t.Entities
	}
	if len(md) > 0 {
		data.Metadata = md
	}
	return providers.NewSuccess(providers.AssemblyAI, data, raw)
}

// normalizeListItem converts a list entry. Entries carry no transcript text.
func normalizeListItem(item listItem) *providers.TranscriptResponse {
	raw, _ := json.Marshal(item)
	status, ok := Statuses.Map(item.Status)
	if !ok {
		return providers.NewFailure(providers.AssemblyAI, &providers.ErrorInfo{
			Code:    providers.CodeUnknownError,
			Message: "unknown transcript status " + item.Status,
			Details: map[string]any{"status": item.Status, "id": item.ID},
		}, raw)
	}
	return providers.NewSuccess(providers.AssemblyAI, &providers.TranscriptData{
		ID:          item.ID,
		Status:      status,
		CreatedAt:   item.Created,
		CompletedAt: item.Completed,
		Metadata:    map[string]any{"audio_url": item.AudioURL},
	}, raw)
}

func convertWords(in []word) []providers.Word {
	if len(in) == 0 {
		return nil
	}
	out := make([]providers.Word, 0, len(in))
	for _, w := range in {
		pw := providers.Word{
			Text:       w.Text,
			Start:      msToSeconds(w.Start),
			End:        msToSeconds(w.End),
			Confidence: providers.Float(w.Confidence),
		}
		if w.Speaker != nil {
			pw.Speaker = *w.Speaker
		}
		out = append(out, pw)
	}
	return out
}

func msToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}
