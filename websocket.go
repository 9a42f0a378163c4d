package voicerouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agnivade/voicerouter/internal/events"
	"github.com/agnivade/voicerouter/internal/logging"
	"github.com/agnivade/voicerouter/internal/metrics"
	"github.com/agnivade/voicerouter/providers"
)

const (
	// eventBuffer bounds events waiting to be written to the client.
	eventBuffer = 64
	closeGrace  = 5 * time.Second
	writeWait   = 10 * time.Second
)

// Client control message types.
const (
	MessageAudio         = "audio"
	MessageUpdate        = "update"
	MessageForceEndpoint = "force_endpoint"
	MessageClose         = "close"
)

// Server-only message types, written alongside the provider event types.
const (
	MessageSession      = "session"
	MessageUpdateResult = "update_result"
)

// WebSocketRequest is a text frame sent by the client. A frame without a
// type carrying Buf is audio; binary frames are always audio.
type WebSocketRequest struct {
	Type   string                 `json:"type,omitempty"`
	Buf    []byte                 `json:"buf,omitempty"`
	Config providers.ConfigUpdate `json:"config,omitempty"`
}

// WebSocketResponse is a frame written to the client.
type WebSocketResponse struct {
	Type           string               `json:"type"`
	SessionID      string               `json:"session_id,omitempty"`
	Provider       providers.Name       `json:"provider,omitempty"`
	Text           string               `json:"text,omitempty"`
	IsFinal        bool                 `json:"is_final,omitempty"`
	Confidence     *float64             `json:"confidence,omitempty"`
	Speaker        string               `json:"speaker,omitempty"`
	Language       string               `json:"language,omitempty"`
	Words          []providers.Word     `json:"words,omitempty"`
	Utterance      *providers.Utterance `json:"utterance,omitempty"`
	Timestamp      float64              `json:"timestamp,omitempty"`
	TargetLanguage string               `json:"target_language,omitempty"`
	Sentiment      string               `json:"sentiment,omitempty"`
	Emotion        string               `json:"emotion,omitempty"`
	EntityType     string               `json:"entity_type,omitempty"`
	Start          float64              `json:"start,omitempty"`
	End            float64              `json:"end,omitempty"`
	Data           map[string]any       `json:"data,omitempty"`
	Error          *providers.ErrorInfo `json:"error,omitempty"`
	Code           int                  `json:"code,omitempty"`
	Reason         string               `json:"reason,omitempty"`
	Forced         bool                 `json:"forced,omitempty"`
	Acknowledged   *bool                `json:"acknowledged,omitempty"`
}

func eventResponse(ev providers.Event) WebSocketResponse {
	resp := WebSocketResponse{Type: string(ev.Type())}
	switch e := ev.(type) {
	case providers.TranscriptEvent:
		resp.Text = e.Text
		resp.IsFinal = e.IsFinal
		resp.Confidence = e.Confidence
		resp.Words = e.Words
		resp.Speaker = e.Speaker
		resp.Language = e.Language
	case providers.UtteranceEvent:
		u := e.Utterance
		resp.Text = u.Text
		resp.Utterance = &u
	case providers.SpeechStartEvent:
		resp.Timestamp = e.Timestamp
	case providers.SpeechEndEvent:
		resp.Timestamp = e.Timestamp
	case providers.TranslationEvent:
		resp.TargetLanguage = e.TargetLanguage
		resp.Text = e.TranslatedText
		resp.Utterance = e.Utterance
	case providers.SentimentEvent:
		resp.Sentiment = e.Sentiment
		resp.Emotion = e.Emotion
		resp.Text = e.Text
		resp.Start, resp.End = e.Start, e.End
	case providers.EntityEvent:
		resp.EntityType = e.EntityType
		resp.Text = e.Text
		resp.Start, resp.End = e.Start, e.End
	case providers.MetadataEvent:
		resp.Data = e.Data
	case providers.ErrorEvent:
		if e.Err != nil {
			resp.Error = e.Err.Info()
		}
	case providers.CloseEvent:
		resp.Code = e.Code
		resp.Reason = e.Reason
		resp.Forced = e.Forced
	}
	return resp
}

// streamOptions reads the session options from the upgrade query.
func streamOptions(r *http.Request) (providers.StreamingOptions, error) {
	q := r.URL.Query()
	opts := providers.StreamingOptions{
		Encoding:          providers.Encoding(q.Get("encoding")),
		Language:          q.Get("language"),
		Model:             q.Get("model"),
		LanguageDetection: q.Get("detect_language") == "true",
		Diarization:       q.Get("diarization") == "true",
		WordTimestamps:    q.Get("word_timestamps") == "true",
	}
	var err error
	for key, dst := range map[string]*int{
		"sample_rate": &opts.SampleRate,
		"channels":    &opts.Channels,
		"endpointing": &opts.Endpointing,
	} {
		if *dst, err = intParam(q.Get(key)); err != nil {
			return opts, providers.NewInputError("", key+" must be an integer")
		}
	}
	if v := q.Get("interim"); v != "" {
		interim, err := strconv.ParseBool(v)
		if err != nil {
			return opts, providers.NewInputError("", "interim must be a boolean")
		}
		opts.InterimResults = &interim
	}
	return opts, nil
}

// WebConn relays one client connection to one streaming session.
type WebConn struct {
	conn      *websocket.Conn
	sess      providers.StreamingSession
	log       zerolog.Logger
	out       chan WebSocketResponse
	done      chan struct{}
	publisher events.Publisher
	published chan events.Transcript
	metrics   *metrics.Metrics
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	opts, err := streamOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make(chan WebSocketResponse, eventBuffer)
	stop := make(chan struct{})
	emit := func(ev providers.Event) {
		select {
		case out <- eventResponse(ev):
		case <-stop:
		}
	}
	cb := providers.Callbacks{
		OnTranscript:  func(e providers.TranscriptEvent) { emit(e) },
		OnUtterance:   func(e providers.UtteranceEvent) { emit(e) },
		OnSpeechStart: func(e providers.SpeechStartEvent) { emit(e) },
		OnSpeechEnd:   func(e providers.SpeechEndEvent) { emit(e) },
		OnTranslation: func(e providers.TranslationEvent) { emit(e) },
		OnSentiment:   func(e providers.SentimentEvent) { emit(e) },
		OnEntity:      func(e providers.EntityEvent) { emit(e) },
		OnMetadata:    func(e providers.MetadataEvent) { emit(e) },
		OnError:       func(e providers.ErrorEvent) { emit(e) },
		OnClose:       func(e providers.CloseEvent) { emit(e) },
	}

	sess, err := s.router.TranscribeStream(r.Context(), providers.Name(r.URL.Query().Get("provider")), opts, cb)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to open streaming session")
		writeError(w, err)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  8192,
		WriteBufferSize: 8192,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		close(stop)
		ctx, cancel := context.WithTimeout(context.Background(), closeGrace)
		defer cancel()
		_ = sess.Close(ctx)
		return
	}

	webConn := &WebConn{
		conn:      conn,
		sess:      sess,
		log:       logging.WithSession(*zerolog.Ctx(r.Context()), string(sess.Provider()), sess.ID()),
		out:       out,
		done:      stop,
		publisher: s.publisher,
		published: make(chan events.Transcript, eventBuffer),
		metrics:   s.metrics,
	}
	webConn.Start()
}

// Start runs the reader and writer until the session has ended and the
// client connection is closed.
func (wc *WebConn) Start() {
	defer wc.conn.Close()

	hello := WebSocketResponse{Type: MessageSession, SessionID: wc.sess.ID(), Provider: wc.sess.Provider()}
	if err := wc.write(hello); err != nil {
		close(wc.done)
		wc.closeSession()
		return
	}

	go wc.publishLoop()

	var g errgroup.Group
	g.Go(wc.writer)
	g.Go(wc.reader)
	if err := g.Wait(); err != nil {
		wc.log.Debug().Err(err).Msg("Relay ended")
	}
	wc.log.Info().Msg("Relay closed")
}

// reader forwards client frames to the session. Any exit closes the
// session, which in turn ends the writer.
func (wc *WebConn) reader() error {
	defer wc.closeSession()

	ctx := context.Background()
	for {
		msgType, message, err := wc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				wc.log.Warn().Err(err).Msg("WebSocket read error")
				return err
			}
			return nil
		}

		if msgType == websocket.BinaryMessage {
			wc.send(ctx, message)
			continue
		}

		var req WebSocketRequest
		if err := json.Unmarshal(message, &req); err != nil {
			wc.log.Warn().Err(err).Msg("Failed to unmarshal WebSocket message")
			continue
		}
		switch req.Type {
		case "", MessageAudio:
			wc.send(ctx, req.Buf)
		case MessageUpdate:
			res, err := wc.sess.UpdateConfiguration(ctx, req.Config)
			resp := WebSocketResponse{Type: MessageUpdateResult}
			if err != nil {
				resp.Error = providers.AsError(wc.sess.Provider(), err).Info()
			} else {
				resp.Acknowledged = &res.Acknowledged
			}
			if !wc.enqueue(resp) {
				return nil
			}
		case MessageForceEndpoint:
			if err := wc.sess.ForceEndpoint(ctx); err != nil {
				wc.reportError(err)
			}
		case MessageClose:
			return nil
		default:
			wc.log.Warn().Str("type", req.Type).Msg("Unknown message type")
		}
	}
}

func (wc *WebConn) send(ctx context.Context, audio []byte) {
	if len(audio) == 0 {
		return
	}
	if err := wc.sess.Send(ctx, audio); err != nil {
		if errors.Is(err, providers.ErrSessionClosed) {
			return
		}
		wc.reportError(err)
	}
}

func (wc *WebConn) reportError(err error) {
	wc.log.Warn().Err(err).Msg("Session operation failed")
	wc.enqueue(WebSocketResponse{
		Type:  string(providers.EventError),
		Error: providers.AsError(wc.sess.Provider(), err).Info(),
	})
}

func (wc *WebConn) closeSession() {
	ctx, cancel := context.WithTimeout(context.Background(), closeGrace)
	defer cancel()
	_ = wc.sess.Close(ctx)
}

// enqueue queues a gateway-originated frame. It reports false once the
// session or the writer has ended.
func (wc *WebConn) enqueue(resp WebSocketResponse) bool {
	select {
	case wc.out <- resp:
		return true
	case <-wc.sess.Done():
		return false
	case <-wc.done:
		return false
	}
}

// writer drains events until the session is done, then closes the client
// connection. A failed write closes the connection so the reader returns.
func (wc *WebConn) writer() error {
	defer close(wc.done)
	defer close(wc.published)
	for {
		select {
		case resp := <-wc.out:
			if err := wc.write(resp); err != nil {
				return err
			}
		case <-wc.sess.Done():
			for {
				select {
				case resp := <-wc.out:
					if err := wc.write(resp); err != nil {
						return err
					}
				default:
					return wc.closeClient()
				}
			}
		}
	}
}

func (wc *WebConn) write(resp WebSocketResponse) error {
	wc.metrics.RecordEvent(string(wc.sess.Provider()), resp.Type)

	data, err := json.Marshal(resp)
	if err != nil {
		wc.log.Error().Err(err).Msg("Failed to marshal response")
		return nil
	}
	_ = wc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := wc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		wc.log.Warn().Err(err).Msg("WebSocket write error")
		_ = wc.conn.Close()
		return err
	}

	if resp.Type == string(providers.EventTranscript) && resp.IsFinal {
		wc.publish(resp)
	}
	return nil
}

// publish hands a final transcript to publishLoop without blocking the
// client write path. Transcripts are dropped when the queue is full.
func (wc *WebConn) publish(resp WebSocketResponse) {
	t := events.Transcript{
		SessionID:  wc.sess.ID(),
		Provider:   string(wc.sess.Provider()),
		Text:       resp.Text,
		IsFinal:    true,
		Confidence: resp.Confidence,
		ReceivedAt: time.Now().UTC(),
	}
	select {
	case wc.published <- t:
	default:
		wc.log.Warn().Msg("Publish queue full, dropping transcript")
	}
}

// publishLoop publishes queued transcripts in order until the writer exits.
func (wc *WebConn) publishLoop() {
	for t := range wc.published {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		if err := wc.publisher.PublishTranscript(ctx, t); err != nil {
			wc.log.Warn().Err(err).Msg("Failed to publish transcript")
		}
		cancel()
	}
}

// closeClient starts the close handshake and bounds how long the reader
// waits for the client to answer it.
func (wc *WebConn) closeClient() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed")
	_ = wc.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return wc.conn.SetReadDeadline(time.Now().Add(closeGrace))
}
