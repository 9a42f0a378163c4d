package providers

import (
	"encoding/json"
	"sort"
)

// Status is the unified lifecycle status of a batch transcription.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// IsFinal reports whether polling can stop.
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusError
}

// StatusTable maps a provider's native status vocabulary to Status.
type StatusTable map[string]Status

// Map returns the unified status for native. Unknown values map to
// StatusError with ok set to false.
func (t StatusTable) Map(native string) (status Status, ok bool) {
	s, ok := t[native]
	if !ok {
		return StatusError, false
	}
	return s, true
}

// Missing returns the values of vocabulary the table does not map, sorted.
func (t StatusTable) Missing(vocabulary []string) []string {
	var missing []string
	for _, v := range vocabulary {
		if _, ok := t[v]; !ok {
			missing = append(missing, v)
		}
	}
	sort.Strings(missing)
	return missing
}

// Covers reports whether every value of vocabulary is mapped.
func (t StatusTable) Covers(vocabulary []string) bool {
	return len(t.Missing(vocabulary)) == 0
}

// TranscriptResponse is the unified result of a batch operation.
// Success is true exactly when Data is set and Error is nil; build values with
// NewSuccess and NewFailure.
type TranscriptResponse struct {
	Success  bool            `json:"success"`
	Provider Name            `json:"provider"`
	Data     *TranscriptData `json:"data,omitempty"`
	Error    *ErrorInfo      `json:"error,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// NewSuccess builds a successful response.
func NewSuccess(provider Name, data *TranscriptData, raw json.RawMessage) *TranscriptResponse {
	if data == nil {
		return NewFailure(provider, &ErrorInfo{Code: CodeNoResults, Message: DefaultMessage(CodeNoResults)}, raw)
	}
	return &TranscriptResponse{Success: true, Provider: provider, Data: data, Raw: raw}
}

// NewFailure builds a failed response.
func NewFailure(provider Name, info *ErrorInfo, raw json.RawMessage) *TranscriptResponse {
	if info == nil {
		info = &ErrorInfo{Code: CodeUnknownError, Message: DefaultMessage(CodeUnknownError)}
	}
	return &TranscriptResponse{Success: false, Provider: provider, Error: info, Raw: raw}
}

// FailureFrom builds a failed response from any error.
func FailureFrom(provider Name, err error) *TranscriptResponse {
	return NewFailure(provider, AsError(provider, err).Info(), nil)
}

// TranscriptData is the payload of a successful response.
type TranscriptData struct {
	ID          string         `json:"id"`
	Text        string         `json:"text"`
	Confidence  *float64       `json:"confidence,omitempty"`
	Status      Status         `json:"status"`
	Language    string         `json:"language,omitempty"`
	Duration    *float64       `json:"duration,omitempty"`
	Speakers    []Speaker      `json:"speakers,omitempty"`
	Words       []Word         `json:"words,omitempty"`
	Utterances  []Utterance    `json:"utterances,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	CompletedAt string         `json:"completedAt,omitempty"`
}

// ErrorInfo describes a failed operation.
type ErrorInfo struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Details    any    `json:"details,omitempty"`
}

// Speaker is a diarized speaker.
type Speaker struct {
	ID         string   `json:"id"`
	Label      string   `json:"label,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Word is a timed word. Times are in seconds.
type Word struct {
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`
	Speaker    string   `json:"speaker,omitempty"`
}

// Utterance is a contiguous span of speech by one speaker.
type Utterance struct {
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Speaker    string   `json:"speaker,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Words      []Word   `json:"words,omitempty"`
}

// SpeakersFrom collects the distinct speakers of utterances in order of
// first appearance.
func SpeakersFrom(utterances []Utterance) []Speaker {
	seen := make(map[string]bool)
	var out []Speaker
	for _, u := range utterances {
		if u.Speaker == "" || seen[u.Speaker] {
			continue
		}
		seen[u.Speaker] = true
		out = append(out, Speaker{ID: u.Speaker, Label: "Speaker " + u.Speaker})
	}
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
