package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agnivade/voicerouter/providers"
)

const resultJSON = `{
	"durationInTicks": 41200000,
	"combinedRecognizedPhrases": [{"channel": 0, "display": "Hello there. Hi."}],
	"recognizedPhrases": [
		{"recognitionStatus": "Success", "channel": 0, "speaker": 1, "offsetInTicks": 700000, "durationInTicks": 12000000,
		 "nBest": [{"confidence": 0.9, "display": "Hello there.", "words": [
			{"word": "Hello", "offsetInTicks": 700000, "durationInTicks": 4000000, "confidence": 0.9},
			{"word": "there", "offsetInTicks": 4700000, "durationInTicks": 3000000, "confidence": 0.8}]}]},
		{"recognitionStatus": "NoMatch", "channel": 0, "offsetInTicks": 13000000, "durationInTicks": 1000000, "nBest": []},
		{"recognitionStatus": "Success", "channel": 0, "speaker": 2, "locale": "en-GB", "offsetInTicks": 20000000, "durationInTicks": 5000000,
		 "nBest": [{"confidence": 0.7, "display": "Hi.", "words": []}]}
	]
}`

func TestStatusTableIsTotal(t *testing.T) {
	assert.True(t, Statuses.Covers(NativeStatuses))

	for _, native := range NativeStatuses {
		t.Run(native, func(t *testing.T) {
			tr := &transcription{Self: "https://westus.api.cognitive.microsoft.com/speechtotext/v3.2/transcriptions/tr1", Status: native}
			resp, done := normalizeStatus(tr, nil)
			status, _ := Statuses.Map(native)
			switch status {
			case providers.StatusCompleted:
				assert.False(t, done)
			case providers.StatusError:
				require.True(t, done)
				require.False(t, resp.Success)
				assert.Equal(t, providers.CodeTranscriptionError, resp.Error.Code)
			default:
				require.True(t, done)
				require.True(t, resp.Success)
				assert.Equal(t, status, resp.Data.Status)
				assert.Equal(t, "tr1", resp.Data.ID)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	var failed transcription
	require.NoError(t, json.Unmarshal([]byte(`{
		"self": "https://x/speechtotext/v3.2/transcriptions/tr9",
		"status": "Failed",
		"properties": {"error": {"code": "InvalidData", "message": "The audio could not be decoded."}}
	}`), &failed))
	resp, done := normalizeStatus(&failed, nil)
	require.True(t, done)
	assert.Equal(t, "The audio could not be decoded.", resp.Error.Message)
	assert.Equal(t, map[string]any{"id": "tr9", "code": "InvalidData"}, resp.Error.Details)

	resp, done = normalizeStatus(&transcription{Self: "https://x/transcriptions/tr9", Status: "Paused"}, nil)
	require.True(t, done)
	assert.Equal(t, providers.CodeUnknownError, resp.Error.Code)
}

func TestNormalizeResult(t *testing.T) {
	var r result
	require.NoError(t, json.Unmarshal([]byte(resultJSON), &r))

	tr := &transcription{
		Self:               "https://x/transcriptions/tr1",
		Status:             "Succeeded",
		CreatedDateTime:    "2024-01-01T00:00:00Z",
		LastActionDateTime: "2024-01-01T00:01:00Z",
	}
	resp := normalizeResult(tr, &r, json.RawMessage(resultJSON))
	require.True(t, resp.Success)
	d := resp.Data
	assert.Equal(t, "tr1", d.ID)
	assert.Equal(t, providers.StatusCompleted, d.Status)
	assert.Equal(t, "Hello there. Hi.", d.Text)
	assert.InDelta(t, 4.12, *d.Duration, 1e-9)
	assert.InDelta(t, 0.8, *d.Confidence, 1e-9)
	assert.Equal(t, "en-GB", d.Language)
	assert.Equal(t, "2024-01-01T00:01:00Z", d.CompletedAt)

	require.Len(t, d.Utterances, 2)
	assert.InDelta(t, 0.07, d.Utterances[0].Start, 1e-9)
	assert.InDelta(t, 1.27, d.Utterances[0].End, 1e-9)
	assert.Equal(t, "1", d.Utterances[0].Speaker)
	require.Len(t, d.Words, 2)
	assert.InDelta(t, 0.77, d.Words[1].End, 1e-9)
	assert.Equal(t, []providers.Speaker{{ID: "1", Label: "Speaker 1"}, {ID: "2", Label: "Speaker 2"}}, d.Speakers)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name string
		cfg  providers.ProviderConfig
	}{
		{name: "missing key", cfg: providers.ProviderConfig{Region: "westus"}},
		{name: "missing region", cfg: providers.ProviderConfig{APIKey: "key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New()
			err := a.Initialize(tt.cfg)
			assert.ErrorIs(t, err, providers.ErrConfig)

			resp := a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{})
			require.False(t, resp.Success)
			assert.Equal(t, providers.CodeConfigError, resp.Error.Code)
		})
	}

	a := New()
	require.NoError(t, a.Initialize(providers.ProviderConfig{APIKey: "key", Region: "westeurope"}))
	assert.Equal(t, "https://westeurope.api.cognitive.microsoft.com/speechtotext/v3.2", a.rest.BaseURL())
}

func newServer(t *testing.T, h func(srvURL string, w http.ResponseWriter, r *http.Request)) *Adapter {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/results/") {
			assert.Empty(t, r.Header.Get("Ocp-Apim-Subscription-Key"))
		} else {
			assert.Equal(t, "key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		}
		h(srv.URL, w, r)
	}))
	t.Cleanup(srv.Close)

	a := New()
	require.NoError(t, a.Initialize(providers.ProviderConfig{
		APIKey:  "key",
		Region:  "westus",
		BaseURL: srv.URL,
		Options: map[string]any{"poll_interval": "1ms", "max_poll_attempts": 5, "locale": "en-GB"},
	}))
	return a
}

func TestTranscribePollsAndDownloads(t *testing.T) {
	var polls atomic.Int32
	var submitted transcriptionRequest

	a := newServer(t, func(srvURL string, w http.ResponseWriter, r *http.Request) {
		self := srvURL + apiPath + "/transcriptions/tr1"
		switch {
		case r.Method == http.MethodPost && r.URL.Path == apiPath+"/transcriptions":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"self":"%s","status":"NotStarted"}`, self)
		case r.Method == http.MethodGet && r.URL.Path == apiPath+"/transcriptions/tr1":
			if polls.Add(1) < 3 {
				fmt.Fprintf(w, `{"self":"%s","status":"Running"}`, self)
				return
			}
			fmt.Fprintf(w, `{"self":"%[1]s","status":"Succeeded","links":{"files":"%[1]s/files"}}`, self)
		case r.URL.Path == apiPath+"/transcriptions/tr1/files":
			fmt.Fprintf(w, `{"values":[
				{"kind":"TranscriptionReport","links":{"contentUrl":"%[1]s/results/report.json"}},
				{"kind":"Transcription","links":{"contentUrl":"%[1]s/results/tr1.json"}}]}`, srvURL)
		case r.URL.Path == "/results/tr1.json":
			_, _ = w.Write([]byte(resultJSON))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	resp := a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{
		Diarization:       true,
		SpeakersExpected:  2,
		LanguageDetection: true,
		CustomVocabulary:  []string{"ignored"},
	})
	require.True(t, resp.Success, "%+v", resp.Error)
	assert.Equal(t, "Hello there. Hi.", resp.Data.Text)
	assert.Equal(t, int32(3), polls.Load())

	assert.Equal(t, []string{"https://example.com/a.wav"}, submitted.ContentURLs)
	assert.Equal(t, "en-GB", submitted.Locale)
	assert.True(t, submitted.Properties.DiarizationEnabled)
	assert.Equal(t, 2, submitted.Properties.Diarization.Speakers.MaxCount)
	assert.NotEmpty(t, submitted.Properties.LanguageIdentification.CandidateLocales)
}

func TestTranscribeRequiresURL(t *testing.T) {
	a := newServer(t, func(_ string, w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})
	resp := a.Transcribe(context.Background(), providers.Audio{Data: []byte("RIFF")}, providers.TranscribeOptions{})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeInvalidInput, resp.Error.Code)

	resp = a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{PIIRedaction: true})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeNotSupported, resp.Error.Code)
}

func TestTranscribeWithWebhookReturnsQueued(t *testing.T) {
	a := newServer(t, func(srvURL string, w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		fmt.Fprintf(w, `{"self":"%s%s/transcriptions/tr2","status":"NotStarted"}`, srvURL, apiPath)
	})
	resp := a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{WebhookURL: "https://example.com/hook"})
	require.True(t, resp.Success)
	assert.Equal(t, "tr2", resp.Data.ID)
	assert.Equal(t, providers.StatusQueued, resp.Data.Status)
}

func TestTranscribeFailed(t *testing.T) {
	a := newServer(t, func(srvURL string, w http.ResponseWriter, r *http.Request) {
		self := srvURL + apiPath + "/transcriptions/tr3"
		if r.Method == http.MethodPost {
			fmt.Fprintf(w, `{"self":"%s","status":"NotStarted"}`, self)
			return
		}
		fmt.Fprintf(w, `{"self":"%s","status":"Failed","properties":{"error":{"code":"InvalidUri","message":"Uri not reachable"}}}`, self)
	})
	resp := a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeTranscriptionError, resp.Error.Code)
	assert.Equal(t, "Uri not reachable", resp.Error.Message)
}

func TestTranscribePollingTimeout(t *testing.T) {
	a := newServer(t, func(srvURL string, w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"self":"%s%s/transcriptions/tr4","status":"Running"}`, srvURL, apiPath)
	})
	resp := a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodePollingTimeout, resp.Error.Code)
}

func TestListTranscripts(t *testing.T) {
	a := newServer(t, func(srvURL string, w http.ResponseWriter, r *http.Request) {
		require.Equal(t, apiPath+"/transcriptions", r.URL.Path)
		q := r.URL.Query()
		if q.Get("skip") == "2" {
			_, _ = w.Write([]byte(`{"values":[{"self":"https://x/transcriptions/tr0","status":"Failed"}]}`))
			return
		}
		assert.Equal(t, "2", q.Get("top"))
		assert.Equal(t, "status eq 'Succeeded'", q.Get("filter"))
		fmt.Fprintf(w, `{"values":[
			{"self":"https://x/transcriptions/tr2","status":"Succeeded","createdDateTime":"2024-01-02T00:00:00Z"},
			{"self":"https://x/transcriptions/tr1","status":"Succeeded"}],
			"@nextLink":"%s%s/transcriptions?skip=2&top=2"}`, srvURL, apiPath)
	})

	page, err := a.ListTranscripts(context.Background(), providers.ListFilter{Limit: 2, Status: providers.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, page.Transcripts, 2)
	assert.Equal(t, "tr2", page.Transcripts[0].Data.ID)
	assert.Equal(t, providers.StatusCompleted, page.Transcripts[0].Data.Status)
	assert.Equal(t, "2024-01-02T00:00:00Z", page.Transcripts[0].Data.CreatedAt)
	assert.True(t, page.HasMore)

	next, err := a.ListTranscripts(context.Background(), providers.ListFilter{Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Transcripts, 1)
	assert.False(t, next.Transcripts[0].Success)
	assert.False(t, next.HasMore)
}

func TestDeleteAndUnsupported(t *testing.T) {
	var deleted string
	a := newServer(t, func(_ string, w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()
	require.NoError(t, a.DeleteTranscript(ctx, "tr1"))
	assert.Equal(t, apiPath+"/transcriptions/tr1", deleted)

	_, err := a.GetAudioFile(ctx, "tr1")
	assert.ErrorIs(t, err, providers.ErrUnsupportedOperation)
	_, err = a.TranscribeStream(ctx, providers.StreamingOptions{}, providers.Callbacks{})
	assert.ErrorIs(t, err, providers.ErrUnsupportedOperation)
}

func TestListTranscriptsRejectsForeignCursor(t *testing.T) {
	var leaked atomic.Value
	evil := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		leaked.Store(r.Header.Get("Ocp-Apim-Subscription-Key"))
	}))
	t.Cleanup(evil.Close)

	a := newServer(t, func(_ string, w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL)
	})
	_, err := a.ListTranscripts(context.Background(), providers.ListFilter{Cursor: evil.URL + "/transcriptions?skip=2"})
	var pe *providers.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, providers.CodeInvalidInput, pe.Code)
	assert.Nil(t, leaked.Load())
}
