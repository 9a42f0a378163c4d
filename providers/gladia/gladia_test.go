package gladia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/session"
)

func TestStatusTableIsTotal(t *testing.T) {
	assert.True(t, Statuses.Covers(NativeStatuses))

	for _, native := range NativeStatuses {
		t.Run(native, func(t *testing.T) {
			resp := normalizeJob(&job{ID: "j1", Status: native, ErrorCode: 500}, nil)
			status, _ := Statuses.Map(native)
			if status == providers.StatusError {
				require.False(t, resp.Success)
				assert.Equal(t, providers.CodeTranscriptionError, resp.Error.Code)
				assert.Equal(t, 500, resp.Error.StatusCode)
				return
			}
			require.True(t, resp.Success)
			assert.Equal(t, status, resp.Data.Status)
		})
	}
}

func TestNormalizeUnknownStatus(t *testing.T) {
	resp := normalizeJob(&job{ID: "j1", Status: "archived"}, nil)
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeUnknownError, resp.Error.Code)
	assert.Equal(t, map[string]any{"status": "archived", "id": "j1"}, resp.Error.Details)
}

func TestNormalizeDone(t *testing.T) {
	raw := []byte(`{
		"id": "j1", "status": "done", "created_at": "2024-05-01T10:00:00Z",
		"custom_metadata": {"call": "42"},
		"result": {
			"metadata": {"audio_duration": 7.5},
			"transcription": {
				"full_transcript": "Hello. Hi there.",
				"languages": ["en"],
				"utterances": [
					{"text": "Hello.", "start": 0.1, "end": 0.6, "confidence": 0.9, "speaker": 0,
					 "words": [{"word": "Hello.", "start": 0.1, "end": 0.6, "confidence": 0.9}]},
					{"text": "Hi there.", "start": 1, "end": 1.8, "confidence": 0.8, "speaker": 1,
					 "words": [{"word": "Hi", "start": 1, "end": 1.3, "confidence": 0.8}, {"word": "there.", "start": 1.3, "end": 1.8, "confidence": 0.8}]}
				]
			},
			"summarization": {"success": true, "results": "A greeting."}
		}
	}`)
	var j job
	require.NoError(t, json.Unmarshal(raw, &j))

	resp := normalizeJob(&j, raw)
	require.True(t, resp.Success)
	d := resp.Data
	assert.Equal(t, "Hello. Hi there.", d.Text)
	assert.Equal(t, providers.StatusCompleted, d.Status)
	assert.Equal(t, "en", d.Language)
	assert.Equal(t, 7.5, *d.Duration)
	assert.Equal(t, "A greeting.", d.Summary)
	assert.Equal(t, "2024-05-01T10:00:00Z", d.CreatedAt)
	assert.Equal(t, map[string]any{"call": "42"}, d.Metadata)
	require.Len(t, d.Utterances, 2)
	require.Len(t, d.Words, 3)
	assert.Equal(t, "1", d.Words[2].Speaker)
	assert.Equal(t, []providers.Speaker{{ID: "0", Label: "Speaker 0"}, {ID: "1", Label: "Speaker 1"}}, d.Speakers)
}

func TestCodecDecode(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		wantTypes []providers.EventType
		wantAck   bool
		wantErr   string
		check     func(t *testing.T, events []providers.Event)
	}{
		{
			name:      "partial transcript",
			frame:     `{"type":"transcript","session_id":"s1","data":{"id":"u1","is_final":false,"utterance":{"text":" hel","start":0,"end":0.2,"confidence":0.5,"language":"en"}}}`,
			wantTypes: []providers.EventType{providers.EventTranscript},
			check: func(t *testing.T, events []providers.Event) {
				ev := events[0].(providers.TranscriptEvent)
				assert.Equal(t, "hel", ev.Text)
				assert.False(t, ev.IsFinal)
				assert.Equal(t, "en", ev.Language)
			},
		},
		{
			name:      "final transcript",
			frame:     `{"type":"transcript","data":{"id":"u1","is_final":true,"utterance":{"text":"Hello.","start":0,"end":0.6,"confidence":0.9,"speaker":2,"words":[{"word":"Hello.","start":0,"end":0.6,"confidence":0.9}]}}}`,
			wantTypes: []providers.EventType{providers.EventTranscript, providers.EventUtterance},
			check: func(t *testing.T, events []providers.Event) {
				ev := events[0].(providers.TranscriptEvent)
				assert.True(t, ev.IsFinal)
				assert.Equal(t, "2", ev.Speaker)
				require.Len(t, ev.Words, 1)
				u := events[1].(providers.UtteranceEvent)
				assert.Equal(t, "Hello.", u.Utterance.Text)
			},
		},
		{
			name:  "blank transcript",
			frame: `{"type":"transcript","data":{"is_final":false,"utterance":{"text":"  "}}}`,
		},
		{
			name:      "translation",
			frame:     `{"type":"translation","data":{"utterance_id":"u1","utterance":{"text":"Hello"},"original_language":"en","target_language":"fr","translated_utterance":{"text":" Bonjour "}}}`,
			wantTypes: []providers.EventType{providers.EventTranslation},
			check: func(t *testing.T, events []providers.Event) {
				ev := events[0].(providers.TranslationEvent)
				assert.Equal(t, "fr", ev.TargetLanguage)
				assert.Equal(t, "Bonjour", ev.TranslatedText)
				require.NotNil(t, ev.Utterance)
				assert.Equal(t, "Hello", ev.Utterance.Text)
			},
		},
		{
			name:      "entities",
			frame:     `{"type":"named_entity_recognition","data":{"utterance_id":"u1","results":[{"entity_type":"PERSON","text":"Ada","start":0,"end":0.4},{"entity_type":"CITY","text":"Paris","start":1,"end":1.4}]}}`,
			wantTypes: []providers.EventType{providers.EventEntity, providers.EventEntity},
			check: func(t *testing.T, events []providers.Event) {
				assert.Equal(t, providers.EntityEvent{EntityType: "CITY", Text: "Paris", Start: 1, End: 1.4}, events[1])
			},
		},
		{
			name:      "sentiment",
			frame:     `{"type":"sentiment_analysis","data":{"results":[{"sentiment":"positive","emotion":"joy","text":"great","start":2,"end":2.5}]}}`,
			wantTypes: []providers.EventType{providers.EventSentiment},
			check: func(t *testing.T, events []providers.Event) {
				assert.Equal(t, providers.SentimentEvent{Sentiment: "positive", Emotion: "joy", Text: "great", Start: 2, End: 2.5}, events[0])
			},
		},
		{
			name:      "speech start",
			frame:     `{"type":"speech_start","data":{"time":1.25}}`,
			wantTypes: []providers.EventType{providers.EventSpeechStart},
			check: func(t *testing.T, events []providers.Event) {
				assert.Equal(t, providers.SpeechStartEvent{Timestamp: 1.25}, events[0])
			},
		},
		{
			name:      "speech end",
			frame:     `{"type":"speech_end","data":{"time":3}}`,
			wantTypes: []providers.EventType{providers.EventSpeechEnd},
		},
		{
			name:      "lifecycle",
			frame:     `{"type":"start_session","session_id":"s1"}`,
			wantTypes: []providers.EventType{providers.EventMetadata},
		},
		{
			name:      "post processing",
			frame:     `{"type":"post_summarization","data":{"results":"summary"}}`,
			wantTypes: []providers.EventType{providers.EventMetadata},
		},
		{
			name:      "end session",
			frame:     `{"type":"end_session","session_id":"s1"}`,
			wantTypes: []providers.EventType{providers.EventMetadata},
			wantAck:   true,
		},
		{
			name:    "error with data",
			frame:   `{"type":"error","data":{"message":"audio chunk too large","code":"bad_request"}}`,
			wantErr: "audio chunk too large",
		},
		{
			name:    "error with top level message",
			frame:   `{"type":"error","message":"session expired"}`,
			wantErr: "session expired",
		},
		{
			name:  "unknown type",
			frame: `{"type":"acknowledgment","data":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := codec{}.Decode(session.Text([]byte(tt.frame)))
			require.NoError(t, err)

			var types []providers.EventType
			for _, ev := range dec.Events {
				types = append(types, ev.Type())
			}
			assert.Equal(t, tt.wantTypes, types)
			assert.Equal(t, tt.wantAck, dec.CloseAck)
			assert.False(t, dec.Opened)

			if tt.wantErr != "" {
				require.NotNil(t, dec.Err)
				assert.Equal(t, tt.wantErr, dec.Err.Message)
				assert.ErrorIs(t, dec.Err, providers.ErrProvider)
				return
			}
			assert.Nil(t, dec.Err)
			if tt.check != nil {
				tt.check(t, dec.Events)
			}
		})
	}

	_, err := codec{}.Decode(session.Text([]byte(`{not json`)))
	assert.Error(t, err)
}

func TestCodecFrames(t *testing.T) {
	c := codec{}
	assert.True(t, c.OpensOnConnect())

	f, ok := c.FinalizeFrame()
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"stop_recording"}`, string(f.Data))

	_, ok = c.ForceEndpointFrame()
	assert.False(t, ok)
	assert.False(t, c.CanUpdate("endpointing"))

	audio := c.EncodeAudio([]byte{1, 2, 3})
	assert.Equal(t, session.BinaryFrame, audio.Type)
}

func newServer(t *testing.T, h http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	a := New()
	require.NoError(t, a.Initialize(providers.ProviderConfig{
		APIKey:  "key",
		BaseURL: srv.URL,
		Options: map[string]any{"poll_interval": "1ms", "max_poll_attempts": 5},
	}))
	return a
}

func TestInitialize(t *testing.T) {
	a := New()
	err := a.Initialize(providers.ProviderConfig{})
	assert.ErrorIs(t, err, providers.ErrConfig)

	resp := a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeConfigError, resp.Error.Code)

	require.NoError(t, a.Initialize(providers.ProviderConfig{APIKey: "key", Region: "eu-west"}))
	assert.Equal(t, "eu-west", a.settings.Region)
	assert.Equal(t, defaultModel, a.settings.Model)
}

func TestTranscribeUploadsAndPolls(t *testing.T) {
	var polls atomic.Int32
	var submitted preRecordedRequest

	a := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("x-gladia-key"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/upload":
			file, header, err := r.FormFile("audio")
			require.NoError(t, err)
			defer file.Close()
			body, _ := io.ReadAll(file)
			assert.Equal(t, "audio-bytes", string(body))
			assert.Equal(t, "call.wav", header.Filename)
			_, _ = w.Write([]byte(`{"audio_url":"https://api.gladia.io/file/f1"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v2/pre-recorded":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			_, _ = w.Write([]byte(`{"id":"j1","result_url":"https://api.gladia.io/v2/pre-recorded/j1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v2/pre-recorded/j1":
			if polls.Add(1) < 3 {
				_, _ = w.Write([]byte(`{"id":"j1","status":"processing"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"j1","status":"done","result":{"transcription":{"full_transcript":"done"}}}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	resp := a.Transcribe(context.Background(), providers.Audio{Data: []byte("audio-bytes"), Filename: "call.wav"}, providers.TranscribeOptions{
		Language:         "en",
		Diarization:      true,
		SpeakersExpected: 2,
		CustomVocabulary: []string{"Gladia"},
		Summarization:    true,
	})
	require.True(t, resp.Success, "%+v", resp.Error)
	assert.Equal(t, "done", resp.Data.Text)
	assert.Equal(t, int32(3), polls.Load())

	assert.Equal(t, "https://api.gladia.io/file/f1", submitted.AudioURL)
	assert.True(t, submitted.Diarization)
	assert.Equal(t, map[string]int{"number_of_speakers": 2}, submitted.DiarizationConfig)
	assert.True(t, submitted.CustomVocabulary)
	assert.Equal(t, []string{"Gladia"}, submitted.CustomVocabularyConfig.Vocabulary)
	assert.Equal(t, []string{"en"}, submitted.LanguageConfig.Languages)
	assert.True(t, submitted.Summarization)
}

func TestTranscribeRejectsPII(t *testing.T) {
	a := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})
	resp := a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{PIIRedaction: true})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeNotSupported, resp.Error.Code)
}

func TestTranscribeWithCallbackReturnsQueued(t *testing.T) {
	var submitted preRecordedRequest
	a := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/pre-recorded", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
		_, _ = w.Write([]byte(`{"id":"j2","result_url":"https://api.gladia.io/v2/pre-recorded/j2"}`))
	})

	resp := a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{WebhookURL: "https://example.com/hook"})
	require.True(t, resp.Success)
	assert.Equal(t, "j2", resp.Data.ID)
	assert.Equal(t, providers.StatusQueued, resp.Data.Status)
	assert.True(t, submitted.Callback)
	assert.Equal(t, map[string]string{"url": "https://example.com/hook"}, submitted.CallbackConfig)
}

func TestTranscribeMissingID(t *testing.T) {
	a := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	resp := a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeParseError, resp.Error.Code)
}

func TestTranscribeJobError(t *testing.T) {
	a := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"id":"j3"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"j3","status":"error","error_code":422}`))
	})

	resp := a.Transcribe(context.Background(), providers.Audio{URL: "https://example.com/a.wav"}, providers.TranscribeOptions{})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeTranscriptionError, resp.Error.Code)
	assert.Equal(t, 422, resp.Error.StatusCode)
}

func TestListTranscripts(t *testing.T) {
	var srvURL string
	a := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/pre-recorded", r.URL.Path)
		q := r.URL.Query()
		if q.Get("offset") == "2" {
			_, _ = w.Write([]byte(`{"next":null,"items":[{"id":"j0","status":"done"},"broken"]}`))
			return
		}
		assert.Equal(t, "2", q.Get("limit"))
		assert.Equal(t, []string{"done"}, q["status"])
		fmt.Fprintf(w, `{"first":"%[1]s/v2/pre-recorded?offset=0","next":"%[1]s/v2/pre-recorded?offset=2&limit=2",
			"items":[{"id":"j2","status":"done"},{"id":"j1","status":"done"}]}`, srvURL)
	})
	srvURL = a.rest.BaseURL()

	page, err := a.ListTranscripts(context.Background(), providers.ListFilter{Limit: 2, Status: providers.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, page.Transcripts, 2)
	assert.Equal(t, "j2", page.Transcripts[0].Data.ID)
	assert.True(t, page.HasMore)

	next, err := a.ListTranscripts(context.Background(), providers.ListFilter{Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Transcripts, 2)
	assert.True(t, next.Transcripts[0].Success)
	assert.False(t, next.Transcripts[1].Success)
	assert.Equal(t, providers.CodeParseError, next.Transcripts[1].Error.Code)
	assert.False(t, next.HasMore)
}

func TestDeleteAndAudioFile(t *testing.T) {
	a := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/v2/pre-recorded/j1":
			w.WriteHeader(http.StatusAccepted)
		case r.Method == http.MethodGet && r.URL.Path == "/v2/pre-recorded/j1/file":
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write([]byte("RIFF"))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"job not found"}`))
		}
	})

	ctx := context.Background()
	require.NoError(t, a.DeleteTranscript(ctx, "j1"))

	file, err := a.GetAudioFile(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), file.Data)
	assert.Equal(t, "audio/wav", file.ContentType)

	err = a.DeleteTranscript(ctx, "missing")
	require.Error(t, err)
	var pe *providers.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 404, pe.StatusCode)
}

func TestBuildLiveRequest(t *testing.T) {
	a := New()
	require.NoError(t, a.Initialize(providers.ProviderConfig{APIKey: "key"}))

	off := false
	req := a.buildLiveRequest(providers.StreamingOptions{
		Encoding:             providers.EncodingMulaw,
		SampleRate:           8000,
		Channels:             1,
		BitDepth:             8,
		InterimResults:       &off,
		Endpointing:          300,
		MaxSilence:           5000,
		TranslationLanguages: []string{"fr"},
		SentimentAnalysis:    true,
	})
	assert.Equal(t, "wav/ulaw", req.Encoding)
	assert.Equal(t, 8000, req.SampleRate)
	assert.Equal(t, defaultModel, req.Model)
	assert.Equal(t, 0.3, req.Endpointing)
	assert.Equal(t, 5.0, req.MaxDurationNoEnd)
	assert.False(t, req.MessagesConfig.ReceivePartialTranscripts)
	assert.True(t, req.MessagesConfig.ReceiveFinalTranscripts)
	require.NotNil(t, req.RealtimeProcessing)
	assert.True(t, req.RealtimeProcessing.Translation)
	assert.True(t, req.RealtimeProcessing.SentimentAnalysis)
	assert.Nil(t, req.PostProcessing)

	plain := a.buildLiveRequest(providers.StreamingOptions{}.WithDefaults())
	assert.Equal(t, "wav/pcm", plain.Encoding)
	assert.Nil(t, plain.RealtimeProcessing)
	assert.True(t, plain.MessagesConfig.ReceivePartialTranscripts)
}

func TestTranscribeStreamValidation(t *testing.T) {
	a := New()
	require.NoError(t, a.Initialize(providers.ProviderConfig{APIKey: "key"}))

	tests := []struct {
		name string
		opts providers.StreamingOptions
	}{
		{name: "flac", opts: providers.StreamingOptions{Encoding: providers.EncodingFLAC}},
		{name: "too many channels", opts: providers.StreamingOptions{Channels: 9}},
		{name: "diarization is batch only", opts: providers.StreamingOptions{Diarization: true}},
		{name: "pii", opts: providers.StreamingOptions{PIIRedaction: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.TranscribeStream(context.Background(), tt.opts, providers.Callbacks{})
			assert.ErrorIs(t, err, providers.ErrCapability)
		})
	}
}

func TestTranscribeStreamInitFailure(t *testing.T) {
	a := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	})
	_, err := a.TranscribeStream(context.Background(), providers.StreamingOptions{}, providers.Callbacks{})
	require.Error(t, err)
	var pe *providers.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Equal(t, "invalid key", pe.Message)
}

func TestTranscribeStream(t *testing.T) {
	var (
		mu       sync.Mutex
		audio    [][]byte
		initReq  liveRequest
		region   string
		wsURL    string
		upgrader = websocket.Upgrader{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/live" {
			mu.Lock()
			region = r.URL.Query().Get("region")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&initReq))
			mu.Unlock()
			fmt.Fprintf(w, `{"id":"live-1","url":"%s/v2/live?token=abc"}`, wsURL)
			return
		}

		assert.Equal(t, "abc", r.URL.Query().Get("token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == websocket.BinaryMessage {
				mu.Lock()
				audio = append(audio, data)
				mu.Unlock()
				continue
			}
			if strings.Contains(string(data), "stop_recording") {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(
					`{"type":"transcript","data":{"id":"u1","is_final":true,"utterance":{"text":"Bonjour.","start":0,"end":0.5,"confidence":0.9}}}`))
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"end_session","session_id":"live-1"}`))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}))
	defer srv.Close()
	wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")

	a := New()
	require.NoError(t, a.Initialize(providers.ProviderConfig{APIKey: "key", BaseURL: srv.URL, Region: "us-west"}))

	var (
		evMu   sync.Mutex
		events []string
	)
	record := func(s string) {
		evMu.Lock()
		events = append(events, s)
		evMu.Unlock()
	}
	sess, err := a.TranscribeStream(context.Background(), providers.StreamingOptions{Language: "fr"}, providers.Callbacks{
		OnOpen:       func() { record("open") },
		OnTranscript: func(ev providers.TranscriptEvent) { record(fmt.Sprintf("transcript:%s:%t", ev.Text, ev.IsFinal)) },
		OnUtterance:  func(providers.UtteranceEvent) { record("utterance") },
		OnMetadata:   func(providers.MetadataEvent) { record("metadata") },
		OnClose:      func(ev providers.CloseEvent) { record("close") },
	})
	require.NoError(t, err)
	assert.Equal(t, "live-1", sess.ID())
	assert.Equal(t, providers.Gladia, sess.Provider())

	ctx := context.Background()
	require.NoError(t, sess.Send(ctx, []byte{1, 2}))
	require.NoError(t, sess.Send(ctx, []byte{3, 4}))
	require.NoError(t, sess.Close(ctx))
	<-sess.Done()

	assert.Equal(t, providers.StateClosed, sess.State())
	evMu.Lock()
	assert.Equal(t, []string{"open", "transcript:Bonjour.:true", "utterance", "metadata", "close"}, events)
	evMu.Unlock()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}}, audio)
	assert.Equal(t, "us-west", region)
	assert.Equal(t, "wav/pcm", initReq.Encoding)
	assert.Equal(t, 16000, initReq.SampleRate)
	assert.Equal(t, []string{"fr"}, initReq.LanguageConfig.Languages)
}

func TestListTranscriptsRejectsForeignCursor(t *testing.T) {
	var hit atomic.Bool
	evil := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit.Store(true)
	}))
	t.Cleanup(evil.Close)

	a := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL)
	})
	_, err := a.ListTranscripts(context.Background(), providers.ListFilter{Cursor: evil.URL + "/v2/pre-recorded?offset=2"})
	var pe *providers.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, providers.CodeInvalidInput, pe.Code)
	assert.False(t, hit.Load(), "credentials were sent to a foreign host")
}
