package whisper

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agnivade/voicerouter/providers"
)

const verboseJSON = `{
	"task": "transcribe",
	"language": "english",
	"duration": 3.5,
	"text": " Hello world. How are you?",
	"words": [
		{"word": "Hello", "start": 0.0, "end": 0.4},
		{"word": "world", "start": 0.5, "end": 0.9},
		{"word": "How", "start": 1.6, "end": 1.8},
		{"word": "are", "start": 1.8, "end": 2.0},
		{"word": "you", "start": 2.0, "end": 3.6}
	],
	"segments": [
		{"id": 0, "start": 0.0, "end": 1.0, "text": " Hello world.", "avg_logprob": 0, "no_speech_prob": 0.01},
		{"id": 1, "start": 1.5, "end": 3.5, "text": " How are you?", "avg_logprob": -0.6931471805599453, "no_speech_prob": 0.02}
	]
}`

func TestNormalize(t *testing.T) {
	var v verboseTranscription
	require.NoError(t, json.Unmarshal([]byte(verboseJSON), &v))

	resp := normalize(&v, json.RawMessage(verboseJSON))
	require.True(t, resp.Success)
	d := resp.Data
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, providers.StatusCompleted, d.Status)
	assert.Equal(t, "Hello world. How are you?", d.Text)
	assert.Equal(t, "english", d.Language)
	assert.InDelta(t, 3.5, *d.Duration, 1e-9)
	assert.InDelta(t, 0.75, *d.Confidence, 1e-9)

	require.Len(t, d.Utterances, 2)
	assert.Equal(t, "Hello world.", d.Utterances[0].Text)
	assert.Len(t, d.Utterances[0].Words, 2)
	assert.Len(t, d.Utterances[1].Words, 3)
	assert.Len(t, d.Words, 5)
	assert.Empty(t, d.Speakers)
}

func TestNormalizeEmpty(t *testing.T) {
	resp := normalize(&verboseTranscription{Text: "  "}, nil)
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeNoResults, resp.Error.Code)
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		vocabulary []string
		want       string
	}{
		{name: "none"},
		{name: "base only", base: "Meeting notes.", want: "Meeting notes."},
		{name: "vocabulary", vocabulary: []string{"Kubernetes", "gRPC"}, want: "Kubernetes, gRPC"},
		{name: "both", base: "Glossary:", vocabulary: []string{"Kafka"}, want: "Glossary: Kafka"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Adapter{settings: Settings{Prompt: tt.base}}
			assert.Equal(t, tt.want, a.prompt(tt.vocabulary))
		})
	}
}

type upload struct {
	model          string
	responseFormat string
	language       string
	prompt         string
	filename       string
	data           string
}

func newServer(t *testing.T, status int, body string, got *upload) *Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		if got != nil && assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			got.model = r.FormValue("model")
			got.responseFormat = r.FormValue("response_format")
			got.language = r.FormValue("language")
			got.prompt = r.FormValue("prompt")
			if f, h, err := r.FormFile("file"); assert.NoError(t, err) {
				data, _ := io.ReadAll(f)
				got.filename = h.Filename
				got.data = string(data)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	a := New()
	require.NoError(t, a.Initialize(providers.ProviderConfig{
		APIKey:  "key",
		BaseURL: srv.URL + "/v1",
		Options: map[string]any{"max_retries": 0},
	}))
	return a
}

func TestTranscribe(t *testing.T) {
	var got upload
	a := newServer(t, http.StatusOK, verboseJSON, &got)

	resp := a.Transcribe(context.Background(), providers.Audio{Data: []byte("RIFFdata"), Filename: "call.wav"}, providers.TranscribeOptions{
		Language:         "en",
		CustomVocabulary: []string{"voicerouter"},
		WordTimestamps:   true,
	})
	require.True(t, resp.Success, "%+v", resp.Error)
	assert.Equal(t, "Hello world. How are you?", resp.Data.Text)
	assert.Equal(t, providers.OpenAIWhisper, resp.Provider)
	assert.JSONEq(t, verboseJSON, string(resp.Raw))

	assert.Equal(t, "whisper-1", got.model)
	assert.Equal(t, "verbose_json", got.responseFormat)
	assert.Equal(t, "en", got.language)
	assert.Equal(t, "voicerouter", got.prompt)
	assert.Equal(t, "call.wav", got.filename)
	assert.Equal(t, "RIFFdata", got.data)
}

func TestTranscribeRejected(t *testing.T) {
	a := newServer(t, http.StatusOK, verboseJSON, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		audio providers.Audio
		opts  providers.TranscribeOptions
		code  string
	}{
		{name: "url", audio: providers.Audio{URL: "https://example.com/a.wav"}, code: providers.CodeInvalidInput},
		{name: "diarization", audio: providers.Audio{Data: []byte("x")}, opts: providers.TranscribeOptions{Diarization: true}, code: providers.CodeNotSupported},
		{name: "webhook", audio: providers.Audio{Data: []byte("x")}, opts: providers.TranscribeOptions{WebhookURL: "https://example.com/hook"}, code: providers.CodeNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.Transcribe(ctx, tt.audio, tt.opts)
			require.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestTranscribeAPIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			code:   providers.CodeTranscriptionError,
		},
		{
			name:   "bad audio",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"Invalid file format.","type":"invalid_request_error","code":null}}`,
			code:   providers.CodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newServer(t, tt.status, tt.body, nil)
			resp := a.Transcribe(context.Background(), providers.Audio{Data: []byte("x")}, providers.TranscribeOptions{})
			require.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
			assert.Equal(t, tt.status, resp.Error.StatusCode)
		})
	}
}

func TestUnsupportedOperations(t *testing.T) {
	a := New()
	ctx := context.Background()

	resp := a.Transcribe(ctx, providers.Audio{Data: []byte("x")}, providers.TranscribeOptions{})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeConfigError, resp.Error.Code)

	_, err := a.TranscribeStream(ctx, providers.StreamingOptions{}, providers.Callbacks{})
	assert.ErrorIs(t, err, providers.ErrUnsupportedOperation)
	_, err = a.GetTranscript(ctx, "x")
	assert.ErrorIs(t, err, providers.ErrUnsupportedOperation)
	_, err = a.ListTranscripts(ctx, providers.ListFilter{})
	assert.ErrorIs(t, err, providers.ErrUnsupportedOperation)
	assert.ErrorIs(t, a.DeleteTranscript(ctx, "x"), providers.ErrUnsupportedOperation)
}
