package voicerouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agnivade/voicerouter/internal/config"
	"github.com/agnivade/voicerouter/internal/events"
	"github.com/agnivade/voicerouter/internal/metrics"
	"github.com/agnivade/voicerouter/providers"
)

// Server is the gateway: a WebSocket relay for live audio plus HTTP
// endpoints for batch jobs.
type Server struct {
	srv             *http.Server
	log             zerolog.Logger
	router          *Router
	publisher       events.Publisher
	metrics         *metrics.Metrics
	shutdownTimeout time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server, *http.ServeMux)

// WithPublisher publishes final transcripts of relayed sessions.
func WithPublisher(p events.Publisher) ServerOption {
	return func(s *Server, _ *http.ServeMux) { s.publisher = p }
}

// WithMetrics records relay metrics to m and serves the default registry
// at path.
func WithMetrics(m *metrics.Metrics, path string) ServerOption {
	return func(s *Server, mux *http.ServeMux) {
		s.metrics = m
		mux.Handle("GET "+path, promhttp.Handler())
	}
}

// NewServer creates a gateway in front of router.
func NewServer(cfg config.ServerConfig, router *Router, opts ...ServerOption) *Server {
	mux := http.NewServeMux()

	server := &Server{
		srv: &http.Server{
			Addr:         cfg.Addr,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log:             log.With().Str("component", "gateway").Logger(),
		router:          router,
		publisher:       events.Nop{},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	for _, opt := range opts {
		opt(server, mux)
	}

	mux.HandleFunc("GET /ws", server.handleWebSocket)
	mux.HandleFunc("GET /v1/providers", server.handleProviders)
	mux.HandleFunc("POST /v1/transcribe", server.handleTranscribe)
	mux.HandleFunc("GET /v1/transcripts/{provider}", server.handleListTranscripts)
	mux.HandleFunc("GET /v1/transcripts/{provider}/{id}", server.handleGetTranscript)
	mux.HandleFunc("DELETE /v1/transcripts/{provider}/{id}", server.handleDeleteTranscript)
	mux.HandleFunc("GET /v1/transcripts/{provider}/{id}/audio", server.handleGetAudio)

	server.srv.Handler = server.withRequestID(mux)
	return server
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("Starting server")
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	s.log.Info().Msg("Shutting down server...")

	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.srv.Shutdown(ctx)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		l := s.log.With().Str("request_id", id).Logger()
		l.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
	})
}

type providerInfo struct {
	Name         providers.Name         `json:"name"`
	Capabilities providers.Capabilities `json:"capabilities"`
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	names := s.router.Providers()
	out := make([]providerInfo, 0, len(names))
	for _, name := range names {
		caps, err := s.router.Capabilities(name)
		if err != nil {
			continue
		}
		out = append(out, providerInfo{Name: name, Capabilities: caps})
	}
	writeJSON(w, http.StatusOK, out)
}

type transcribeRequest struct {
	Provider providers.Name              `json:"provider"`
	AudioURL string                      `json:"audio_url"`
	Audio    []byte                      `json:"audio"`
	Filename string                      `json:"filename"`
	Options  providers.TranscribeOptions `json:"options"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<20)).Decode(&req); err != nil {
		writeError(w, providers.NewInputError(req.Provider, "invalid request body: "+err.Error()))
		return
	}
	audio := providers.Audio{URL: req.AudioURL, Data: req.Audio, Filename: req.Filename}
	if audio.IsEmpty() {
		writeError(w, providers.NewInputError(req.Provider, "audio_url or audio is required"))
		return
	}

	resp := s.router.Transcribe(r.Context(), req.Provider, audio, req.Options)
	writeJSON(w, responseStatus(resp), resp)
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	resp, err := s.router.GetTranscript(r.Context(), providers.Name(r.PathValue("provider")), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, responseStatus(resp), resp)
}

type transcriptPage struct {
	Transcripts []*providers.TranscriptResponse `json:"transcripts"`
	NextCursor  string                          `json:"next_cursor,omitempty"`
	HasMore     bool                            `json:"has_more"`
}

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := providers.ListFilter{
		Status: providers.Status(q.Get("status")),
		Cursor: q.Get("cursor"),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, providers.NewInputError("", "limit must be an integer"))
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, providers.NewInputError("", "offset must be an integer"))
		return
	}

	list, err := s.router.ListTranscripts(r.Context(), providers.Name(r.PathValue("provider")), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	page := transcriptPage{Transcripts: list.Transcripts, NextCursor: list.NextCursor, HasMore: list.HasMore}
	if page.Transcripts == nil {
		page.Transcripts = []*providers.TranscriptResponse{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleDeleteTranscript(w http.ResponseWriter, r *http.Request) {
	if err := s.router.DeleteTranscript(r.Context(), providers.Name(r.PathValue("provider")), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetAudio(w http.ResponseWriter, r *http.Request) {
	f, err := s.router.GetAudioFile(r.Context(), providers.Name(r.PathValue("provider")), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	if f.Filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+f.Filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(f.Data); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to write audio")
	}
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// errorStatus maps an error kind to an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, providers.ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, providers.ErrUnsupportedOperation):
		return http.StatusNotImplemented
	case errors.Is(err, providers.ErrCapability):
		var pe *providers.Error
		if errors.As(err, &pe) && pe.Code == providers.CodeInvalidInput {
			return http.StatusBadRequest
		}
		return http.StatusNotImplemented
	case errors.Is(err, providers.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// responseStatus maps a transcript response to an HTTP status.
func responseStatus(resp *providers.TranscriptResponse) int {
	if resp.Success {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case providers.CodeConfigError, providers.CodeInvalidInput:
		return http.StatusBadRequest
	case providers.CodeNotSupported:
		return http.StatusNotImplemented
	case providers.CodeNoResults:
		return http.StatusNotFound
	case providers.CodePollingTimeout, providers.CodeConnectionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), providers.FailureFrom("", err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
