package voicerouter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agnivade/voicerouter/internal/metrics"
	"github.com/agnivade/voicerouter/providers"
)

const tracerName = "github.com/agnivade/voicerouter"

// Strategy decides which adapter serves a call that does not name one.
type Strategy string

const (
	// StrategyExplicit requires every call to name its provider.
	StrategyExplicit Strategy = "explicit"
	// StrategyDefault uses the configured default, or the first registered
	// provider when there is none.
	StrategyDefault Strategy = "default"
	// StrategyRoundRobin cycles over the pool for Transcribe and
	// TranscribeStream. Calls addressing an existing job fall back to the
	// default, since job ids belong to one provider.
	StrategyRoundRobin Strategy = "round_robin"
)

// Router dispatches calls to registered adapters. It does no protocol work:
// the only state shared across calls is the pair of round-robin cursors.
type Router struct {
	mu       sync.RWMutex
	adapters map[providers.Name]providers.Adapter
	order    []providers.Name

	strategy Strategy
	fallback providers.Name
	pool     []providers.Name

	// Batch and streaming rotate independently over differently filtered
	// candidate lists.
	batchCursor  atomic.Uint64
	streamCursor atomic.Uint64

	metrics *metrics.Metrics
	tracer  trace.Tracer
	log     zerolog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

func WithStrategy(s Strategy) RouterOption {
	return func(r *Router) { r.strategy = s }
}

// WithDefault sets the provider used by the default strategy.
func WithDefault(name providers.Name) RouterOption {
	return func(r *Router) { r.fallback = name }
}

// WithPool restricts round-robin to names, in the given order.
func WithPool(names ...providers.Name) RouterOption {
	return func(r *Router) { r.pool = names }
}

func WithRouterMetrics(m *metrics.Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

func WithRouterLogger(l zerolog.Logger) RouterOption {
	return func(r *Router) { r.log = l }
}

// NewRouter returns a router over adapters, registered in order.
func NewRouter(adapters []providers.Adapter, opts ...RouterOption) (*Router, error) {
	r := &Router{
		adapters: make(map[providers.Name]providers.Adapter, len(adapters)),
		strategy: StrategyDefault,
		tracer:   otel.Tracer(tracerName),
		log:      log.With().Str("component", "router").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	switch r.strategy {
	case StrategyExplicit, StrategyDefault, StrategyRoundRobin:
	default:
		return nil, providers.NewConfigError("", fmt.Sprintf("unknown routing strategy %q", r.strategy))
	}

	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an adapter. Names must be unique.
func (r *Router) Register(a providers.Adapter) error {
	name := a.Name()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[name]; ok {
		return providers.NewConfigError(name, fmt.Sprintf("provider %s is already registered", name))
	}
	r.adapters[name] = a
	r.order = append(r.order, name)
	r.log.Debug().Str("provider", string(name)).Msg("registered provider")
	return nil
}

// Providers returns the registered names in registration order.
func (r *Router) Providers() []providers.Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]providers.Name, len(r.order))
	copy(out, r.order)
	return out
}

// Capabilities returns the capabilities of a registered provider.
func (r *Router) Capabilities(name providers.Name) (providers.Capabilities, error) {
	a, err := r.lookup(name)
	if err != nil {
		return providers.Capabilities{}, err
	}
	return a.Capabilities(), nil
}

func (r *Router) lookup(name providers.Name) (providers.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, &providers.Error{
			Kind:     providers.ErrConfig,
			Code:     providers.CodeNotSupported,
			Message:  fmt.Sprintf("provider %s is not registered", name),
			Provider: name,
		}
	}
	return a, nil
}

// route resolves the adapter for a call. rotate is set for calls that may
// be load-balanced; streaming restricts the rotation to streaming adapters.
func (r *Router) route(name providers.Name, rotate, streaming bool) (providers.Adapter, error) {
	if name != "" {
		return r.lookup(name)
	}
	switch r.strategy {
	case StrategyExplicit:
		return nil, providers.NewConfigError("", "a provider must be named when routing is explicit")
	case StrategyRoundRobin:
		if rotate {
			return r.next(streaming)
		}
	}
	return r.defaultAdapter()
}

func (r *Router) defaultAdapter() (providers.Adapter, error) {
	if r.fallback != "" {
		return r.lookup(r.fallback)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, providers.NewConfigError("", "no providers are registered")
	}
	return r.adapters[r.order[0]], nil
}

// next advances the cursor of the call's class exactly once and picks from
// the pool.
func (r *Router) next(streaming bool) (providers.Adapter, error) {
	r.mu.RLock()
	names := r.pool
	if len(names) == 0 {
		names = r.order
	}
	candidates := make([]providers.Adapter, 0, len(names))
	for _, name := range names {
		a, ok := r.adapters[name]
		if !ok || (streaming && !a.Capabilities().Streaming) {
			continue
		}
		candidates = append(candidates, a)
	}
	r.mu.RUnlock()

	cursor := &r.batchCursor
	if streaming {
		cursor = &r.streamCursor
	}
	idx := cursor.Add(1) - 1
	if len(candidates) == 0 {
		if streaming {
			return nil, providers.NewUnsupportedOperationError("", "streaming")
		}
		return nil, providers.NewConfigError("", "round-robin pool is empty")
	}
	return candidates[idx%uint64(len(candidates))], nil
}

func (r *Router) start(ctx context.Context, op string, name providers.Name) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "voicerouter."+op,
		trace.WithAttributes(attribute.String("provider", string(name))))
}

func (r *Router) finish(span trace.Span, op string, name providers.Name, started time.Time, err error) {
	defer span.End()
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
		if errors.Is(err, providers.ErrUnsupportedOperation) || errors.Is(err, providers.ErrCapability) {
			outcome = metrics.OutcomeUnsupported
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("provider", string(name)), attribute.String("outcome", outcome))
	r.metrics.RecordRequest(string(name), op, outcome, time.Since(started))
}

func responseErr(resp *providers.TranscriptResponse) error {
	if resp == nil || resp.Success {
		return nil
	}
	return &providers.Error{Kind: kindOf(resp.Error.Code), Code: resp.Error.Code, Message: resp.Error.Message}
}

func kindOf(code string) error {
	switch code {
	case providers.CodeNotSupported, providers.CodeInvalidInput:
		return providers.ErrCapability
	case providers.CodeConfigError:
		return providers.ErrConfig
	default:
		return providers.ErrProvider
	}
}

// Transcribe runs a batch transcription. Routing failures are reported in
// the response like any other failure.
func (r *Router) Transcribe(ctx context.Context, name providers.Name, audio providers.Audio, opts providers.TranscribeOptions) *providers.TranscriptResponse {
	started := time.Now()
	a, err := r.route(name, true, false)
	if err != nil {
		resp := providers.FailureFrom(name, err)
		_, span := r.start(ctx, "transcribe", name)
		r.finish(span, "transcribe", name, started, err)
		return resp
	}

	ctx, span := r.start(ctx, "transcribe", a.Name())
	resp := a.Transcribe(ctx, audio, opts)
	r.finish(span, "transcribe", a.Name(), started, responseErr(resp))
	return resp
}

// TranscribeStream opens a live session on a streaming-capable provider.
func (r *Router) TranscribeStream(ctx context.Context, name providers.Name, opts providers.StreamingOptions, cb providers.Callbacks) (providers.StreamingSession, error) {
	started := time.Now()
	a, err := r.route(name, true, true)
	if err != nil {
		_, span := r.start(ctx, "transcribe_stream", name)
		r.finish(span, "transcribe_stream", name, started, err)
		return nil, err
	}

	ctx, span := r.start(ctx, "transcribe_stream", a.Name())
	if !a.Capabilities().Streaming {
		err = providers.NewUnsupportedOperationError(a.Name(), "streaming")
	} else {
		var sess providers.StreamingSession
		sess, err = a.TranscribeStream(ctx, opts, cb)
		if err == nil {
			span.SetAttributes(attribute.String("session_id", sess.ID()))
			r.finish(span, "transcribe_stream", a.Name(), started, nil)
			return sess, nil
		}
	}
	r.finish(span, "transcribe_stream", a.Name(), started, err)
	return nil, err
}

func (r *Router) GetTranscript(ctx context.Context, name providers.Name, id string) (*providers.TranscriptResponse, error) {
	started := time.Now()
	a, err := r.route(name, false, false)
	if err != nil {
		_, span := r.start(ctx, "get_transcript", name)
		r.finish(span, "get_transcript", name, started, err)
		return nil, err
	}

	ctx, span := r.start(ctx, "get_transcript", a.Name())
	resp, err := a.GetTranscript(ctx, id)
	if err == nil {
		r.finish(span, "get_transcript", a.Name(), started, responseErr(resp))
		return resp, nil
	}
	r.finish(span, "get_transcript", a.Name(), started, err)
	return nil, err
}

func (r *Router) ListTranscripts(ctx context.Context, name providers.Name, filter providers.ListFilter) (*providers.TranscriptList, error) {
	started := time.Now()
	a, err := r.route(name, false, false)
	if err == nil {
		var span trace.Span
		ctx, span = r.start(ctx, "list_transcripts", a.Name())
		var list *providers.TranscriptList
		list, err = a.ListTranscripts(ctx, filter)
		r.finish(span, "list_transcripts", a.Name(), started, err)
		return list, err
	}
	_, span := r.start(ctx, "list_transcripts", name)
	r.finish(span, "list_transcripts", name, started, err)
	return nil, err
}

func (r *Router) GetAudioFile(ctx context.Context, name providers.Name, id string) (*providers.AudioFile, error) {
	started := time.Now()
	a, err := r.route(name, false, false)
	if err == nil {
		var span trace.Span
		ctx, span = r.start(ctx, "get_audio_file", a.Name())
		var f *providers.AudioFile
		f, err = a.GetAudioFile(ctx, id)
		r.finish(span, "get_audio_file", a.Name(), started, err)
		return f, err
	}
	_, span := r.start(ctx, "get_audio_file", name)
	r.finish(span, "get_audio_file", name, started, err)
	return nil, err
}

func (r *Router) DeleteTranscript(ctx context.Context, name providers.Name, id string) error {
	started := time.Now()
	a, err := r.route(name, false, false)
	if err == nil {
		var span trace.Span
		ctx, span = r.start(ctx, "delete_transcript", a.Name())
		err = a.DeleteTranscript(ctx, id)
		r.finish(span, "delete_transcript", a.Name(), started, err)
		return err
	}
	_, span := r.start(ctx, "delete_transcript", name)
	r.finish(span, "delete_transcript", name, started, err)
	return err
}
