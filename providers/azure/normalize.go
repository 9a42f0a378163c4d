package azure

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/agnivade/voicerouter/providers"
)

// Statuses maps batch transcription statuses.
var Statuses = providers.StatusTable{
	"NotStarted": providers.StatusQueued,
	"Running":    providers.StatusProcessing,
	"Succeeded":  providers.StatusCompleted,
	"Failed":     providers.StatusError,
}

// NativeStatuses lists every transcription status the API documents.
var NativeStatuses = []string{"NotStarted", "Running", "Succeeded", "Failed"}

// ticksPerSecond converts the API's 100ns ticks.
const ticksPerSecond = 1e7

type transcription struct {
	Self               string `json:"self"`
	DisplayName        string `json:"displayName"`
	Locale             string `json:"locale"`
	Status             string `json:"status"`
	CreatedDateTime    string `json:"createdDateTime"`
	LastActionDateTime string `json:"lastActionDateTime"`
	Links              struct {
		Files string `json:"files"`
	} `json:"links"`
	Properties struct {
		DurationInTicks float64 `json:"durationInTicks"`
		Error           *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"properties"`
}

// id returns the transcription id, the last segment of its self link.
func (t *transcription) id() string {
	u, err := url.Parse(t.Self)
	if err != nil || u.Path == "" {
		return ""
	}
	return path.Base(u.Path)
}

type listResponse struct {
	Values   []json.RawMessage `json:"values"`
	NextLink string            `json:"@nextLink"`
}

type fileList struct {
	Values []struct {
		Kind  string `json:"kind"`
		Links struct {
			ContentURL string `json:"contentUrl"`
		} `json:"links"`
	} `json:"values"`
}

type result struct {
	DurationInTicks           float64 `json:"durationInTicks"`
	CombinedRecognizedPhrases []struct {
		Channel int    `json:"channel"`
		Display string `json:"display"`
	} `json:"combinedRecognizedPhrases"`
	RecognizedPhrases []phrase `json:"recognizedPhrases"`
}

type phrase struct {
	RecognitionStatus string  `json:"recognitionStatus"`
	Channel           int     `json:"channel"`
	Speaker           int     `json:"speaker"`
	Locale            string  `json:"locale"`
	OffsetInTicks     float64 `json:"offsetInTicks"`
	DurationInTicks   float64 `json:"durationInTicks"`
	NBest             []struct {
		Confidence float64 `json:"confidence"`
		Display    string  `json:"display"`
		Words      []struct {
			Word            string  `json:"word"`
			OffsetInTicks   float64 `json:"offsetInTicks"`
			DurationInTicks float64 `json:"durationInTicks"`
			Confidence      float64 `json:"confidence"`
		} `json:"words"`
	} `json:"nBest"`
}

// normalizeStatus converts a transcription that has no result attached:
// pending, failed or unknown. ok is false when the job succeeded and the
// result file still has to be fetched.
func normalizeStatus(t *transcription, raw json.RawMessage) (resp *providers.TranscriptResponse, ok bool) {
	status, known := Statuses.Map(t.Status)
	switch {
	case !known:
		return providers.NewFailure(providers.AzureSTT, &providers.ErrorInfo{
			Code:    providers.CodeUnknownError,
			Message: "unknown transcription status " + t.Status,
			Details: map[string]any{"status": t.Status, "id": t.id()},
		}, raw), true
	case status == providers.StatusError:
		msg := providers.DefaultMessage(providers.CodeTranscriptionError)
		details := map[string]any{"id": t.id()}
		if e := t.Properties.Error; e != nil {
			msg = e.Message
			details["code"] = e.Code
		}
		return providers.NewFailure(providers.AzureSTT, &providers.ErrorInfo{
			Code:    providers.CodeTranscriptionError,
			Message: msg,
			Details: details,
		}, raw), true
	case status == providers.StatusCompleted:
		return nil, false
	}
	return providers.NewSuccess(providers.AzureSTT, baseData(t, status), raw), true
}

func baseData(t *transcription, status providers.Status) *providers.TranscriptData {
	d := &providers.TranscriptData{
		ID:        t.id(),
		Status:    status,
		Language:  t.Locale,
		CreatedAt: t.CreatedDateTime,
	}
	if status == providers.StatusCompleted {
		d.CompletedAt = t.LastActionDateTime
	}
	if t.DisplayName != "" {
		d.Metadata = map[string]any{"displayName": t.DisplayName}
	}
	if t.Properties.DurationInTicks > 0 {
		d.Duration = providers.Float(t.Properties.DurationInTicks / ticksPerSecond)
	}
	return d
}

// normalizeResult builds a completed response from the transcription and
// its result file.
func normalizeResult(t *transcription, r *result, raw json.RawMessage) *providers.TranscriptResponse {
	d := baseData(t, providers.StatusCompleted)
	if r.DurationInTicks > 0 {
		d.Duration = providers.Float(r.DurationInTicks / ticksPerSecond)
	}

	var texts []string
	for _, c := range r.CombinedRecognizedPhrases {
		if s := strings.TrimSpace(c.Display); s != "" {
			texts = append(texts, s)
		}
	}
	d.Text = strings.Join(texts, " ")

	var confidence float64
	for _, p := range r.RecognizedPhrases {
		if p.RecognitionStatus != "Success" || len(p.NBest) == 0 {
			continue
		}
		best := p.NBest[0]
		speaker := ""
		if p.Speaker > 0 {
			speaker = strconv.Itoa(p.Speaker)
		}
		u := providers.Utterance{
			Text:       best.Display,
			Start:      p.OffsetInTicks / ticksPerSecond,
			End:        (p.OffsetInTicks + p.DurationInTicks) / ticksPerSecond,
			Speaker:    speaker,
			Confidence: providers.Float(best.Confidence),
		}
		for _, w := range best.Words {
			u.Words = append(u.Words, providers.Word{
				Text:       w.Word,
				Start:      w.OffsetInTicks / ticksPerSecond,
				End:        (w.OffsetInTicks + w.DurationInTicks) / ticksPerSecond,
				Confidence: providers.Float(w.Confidence),
				Speaker:    speaker,
			})
		}
		d.Utterances = append(d.Utterances, u)
		d.Words = append(d.Words, u.Words...)
		confidence += best.Confidence
		if d.Language == "" && p.Locale != "" {
			d.Language = p.Locale
		}
	}
	if n := len(d.Utterances); n > 0 {
		d.Confidence = providers.Float(confidence / float64(n))
	}
	d.Speakers = providers.SpeakersFrom(d.Utterances)
	return providers.NewSuccess(providers.AzureSTT, d, raw)
}
