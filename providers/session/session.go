// Package session implements the streaming session lifecycle shared by every
// provider adapter. Adapters supply a Dialer for their transport and a Codec
// for their wire format; the Session owns ordering, backpressure, the close
// handshake and terminal event delivery.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agnivade/voicerouter/internal/metrics"
	"github.com/agnivade/voicerouter/providers"
)

const (
	DefaultQueueSize      = 64
	DefaultConnectTimeout = 10 * time.Second
	DefaultCloseTimeout   = 5 * time.Second
	DefaultUpdateTimeout  = 5 * time.Second

	CloseNormal   = 1000
	CloseAbnormal = 1006
)

// Config configures a Session.
type Config struct {
	Provider  providers.Name
	Options   providers.StreamingOptions
	Dialer    Dialer
	Codec     Codec
	Callbacks providers.Callbacks
	// Framer re-chunks outbound audio. Optional.
	Framer AudioFramer

	QueueSize      int
	ConnectTimeout time.Duration
	CloseTimeout   time.Duration
	UpdateTimeout  time.Duration

	// ID overrides the generated session id, for providers that assign one
	// before the transport is dialed.
	ID      string
	Logger  *zerolog.Logger
	Metrics *metrics.Metrics
}

// Tune copies adapter stream settings into c. Zero settings keep the defaults.
func (c Config) Tune(s providers.StreamSettings) Config {
	c.QueueSize = s.QueueSize
	c.ConnectTimeout = s.ConnectTimeout
	c.CloseTimeout = s.CloseTimeout
	c.UpdateTimeout = s.UpdateTimeout
	return c
}

func (c *Config) applyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = DefaultCloseTimeout
	}
	if c.UpdateTimeout <= 0 {
		c.UpdateTimeout = DefaultUpdateTimeout
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
}

type control struct {
	frame Frame
	sent  chan error
}

// outbound is one entry of the send queue. Audio and control frames share
// the queue so they reach the transport in call order.
type outbound struct {
	audio   []byte
	control *control
}

// Session is a live streaming session. It implements providers.StreamingSession.
type Session struct {
	cfg   Config
	codec Codec
	log   zerolog.Logger

	mu        sync.Mutex
	state     providers.SessionState
	opts      providers.StreamingOptions
	transport Transport
	accepted  bool
	resume    chan struct{}
	updateAck chan struct{}
	updateMu  sync.Mutex

	out      chan outbound
	inflight sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	opened   chan struct{}
	closing  chan struct{}
	closeAck chan struct{}
	done     chan struct{}

	openOnce  sync.Once
	closeOnce sync.Once
	ackOnce   sync.Once
	termOnce  sync.Once

	events *eventQueue
}

var _ providers.StreamingSession = (*Session)(nil)

// Start creates a session in the Connecting state and dials its transport in
// the background. The session outlives ctx; only Close ends it.
func Start(ctx context.Context, cfg Config) *Session {
	cfg.applyDefaults()

	base := log.Logger
	if cfg.Logger != nil {
		base = *cfg.Logger
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		cfg:      cfg,
		codec:    cfg.Codec,
		log:      base.With().Str("provider", string(cfg.Provider)).Str("session_id", cfg.ID).Logger(),
		state:    providers.StateConnecting,
		opts:     cfg.Options,
		out:      make(chan outbound, cfg.QueueSize),
		ctx:      sctx,
		cancel:   cancel,
		opened:   make(chan struct{}),
		closing:  make(chan struct{}),
		closeAck: make(chan struct{}),
		done:     make(chan struct{}),
		events:   newEventQueue(),
	}

	s.cfg.Metrics.RecordSessionStart(string(cfg.Provider))
	s.log.Debug().Msg("session starting")

	go s.events.run(s.deliver)
	go s.run()
	return s
}

func (s *Session) ID() string { return s.cfg.ID }

func (s *Session) Provider() providers.Name { return s.cfg.Provider }

func (s *Session) State() providers.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the effective options, including applied updates.
func (s *Session) Config() providers.StreamingOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// Done is closed once the final event has been delivered to the callbacks.
func (s *Session) Done() <-chan struct{} {
	return s.events.drained
}

func (s *Session) Send(ctx context.Context, audio []byte) error {
	if err := s.admit(ctx); err != nil {
		return err
	}
	defer s.inflight.Done()

	select {
	case s.out <- outbound{audio: bytes.Clone(audio)}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return providers.ErrSessionClosed
	}

	s.mu.Lock()
	s.accepted = true
	if s.state == providers.StateOpen {
		_ = s.transitionLocked(providers.StateStreaming)
	}
	s.mu.Unlock()
	return nil
}

// admit registers an in-flight send, holding the caller while an update is
// being applied. The registration happens under mu so that a flush started
// by Close observes every admitted send.
func (s *Session) admit(ctx context.Context) error {
	for {
		s.mu.Lock()
		switch s.state {
		case providers.StateClosing, providers.StateClosed, providers.StateErrored:
			s.mu.Unlock()
			return providers.ErrSessionClosed
		case providers.StateConfiguring:
			resume := s.resume
			s.mu.Unlock()
			select {
			case <-resume:
				continue
			case <-ctx.Done():
				return ctx.Err()
			case <-s.done:
				return providers.ErrSessionClosed
			}
		}
		s.inflight.Add(1)
		s.mu.Unlock()
		return nil
	}
}

func (s *Session) UpdateConfiguration(ctx context.Context, update providers.ConfigUpdate) (providers.UpdateResult, error) {
	if len(update) == 0 {
		return providers.UpdateResult{}, providers.NewInputError(s.cfg.Provider, "empty configuration update")
	}
	for _, field := range slices.Sorted(maps.Keys(update)) {
		if !s.codec.CanUpdate(field) {
			return providers.UpdateResult{}, providers.NewUnsupportedOperationError(s.cfg.Provider, fmt.Sprintf("updating %q mid-session", field))
		}
	}
	if s.State() >= providers.StateClosing {
		return providers.UpdateResult{}, providers.ErrSessionClosed
	}

	frame, ackExpected, err := s.codec.EncodeUpdate(update)
	if err != nil {
		return providers.UpdateResult{}, providers.AsError(s.cfg.Provider, err)
	}

	select {
	case <-s.opened:
	case <-s.closing:
		return providers.UpdateResult{}, providers.ErrSessionClosed
	case <-s.done:
		return providers.UpdateResult{}, providers.ErrSessionClosed
	case <-ctx.Done():
		return providers.UpdateResult{}, ctx.Err()
	}

	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	s.mu.Lock()
	if s.state != providers.StateOpen && s.state != providers.StateStreaming {
		s.mu.Unlock()
		return providers.UpdateResult{}, providers.ErrSessionClosed
	}
	var ack chan struct{}
	if ackExpected {
		ack = make(chan struct{})
		s.updateAck = ack
	}
	_ = s.transitionLocked(providers.StateConfiguring)
	s.inflight.Add(1)
	s.mu.Unlock()

	sent := make(chan error, 1)
	err = s.enqueueControl(ctx, frame, sent)
	s.inflight.Done()
	if err != nil {
		s.endConfiguring()
		return providers.UpdateResult{}, err
	}

	select {
	case err := <-sent:
		if err != nil {
			return providers.UpdateResult{}, providers.NewTransportError(s.cfg.Provider, err)
		}
	case <-s.done:
		return providers.UpdateResult{}, providers.ErrSessionClosed
	case <-ctx.Done():
		s.endConfiguring()
		return providers.UpdateResult{}, ctx.Err()
	}

	if ackExpected {
		timer := time.NewTimer(s.cfg.UpdateTimeout)
		defer timer.Stop()
		select {
		case <-ack:
		case <-timer.C:
			s.endConfiguring()
			return providers.UpdateResult{}, providers.NewTimeoutError(s.cfg.Provider, providers.CodeConnectionTimeout, "configuration update was not acknowledged")
		case <-s.done:
			return providers.UpdateResult{}, providers.ErrSessionClosed
		case <-ctx.Done():
			s.endConfiguring()
			return providers.UpdateResult{}, ctx.Err()
		}
	}

	s.mu.Lock()
	s.opts = s.codec.ApplyUpdate(s.opts, update)
	s.mu.Unlock()
	s.endConfiguring()

	s.log.Debug().Interface("update", update).Bool("acknowledged", ackExpected).Msg("configuration updated")
	return providers.UpdateResult{Acknowledged: ackExpected}, nil
}

// endConfiguring leaves Configuring for Streaming, or back to Open when no
// audio has been accepted yet.
func (s *Session) endConfiguring() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateAck = nil
	if s.state != providers.StateConfiguring {
		return
	}
	next := providers.StateStreaming
	if !s.accepted {
		next = providers.StateOpen
	}
	_ = s.transitionLocked(next)
}

func (s *Session) ForceEndpoint(ctx context.Context) error {
	frame, ok := s.codec.ForceEndpointFrame()
	if !ok {
		return providers.NewUnsupportedOperationError(s.cfg.Provider, "force endpoint")
	}
	if err := s.admit(ctx); err != nil {
		return err
	}
	defer s.inflight.Done()
	return s.enqueueControl(ctx, frame, nil)
}

func (s *Session) enqueueControl(ctx context.Context, f Frame, sent chan error) error {
	select {
	case s.out <- outbound{control: &control{frame: f, sent: sent}}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return providers.ErrSessionClosed
	}
}

// Close flushes queued audio, sends the finalize frame and waits for the
// provider to finish, forcing the transport closed after CloseTimeout. It is
// idempotent and always returns nil; ctx only bounds how long the caller waits.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.state.IsTerminal() {
			s.mu.Unlock()
			return
		}
		_ = s.transitionLocked(providers.StateClosing)
		s.mu.Unlock()

		close(s.closing)
		go s.awaitClose()
	})

	select {
	case <-s.done:
	case <-ctx.Done():
	}
	return nil
}

func (s *Session) awaitClose() {
	timer := time.NewTimer(s.cfg.CloseTimeout)
	defer timer.Stop()

	select {
	case <-s.closeAck:
		s.finish(CloseNormal, "normal closure", false)
	case <-timer.C:
		s.log.Warn().Dur("timeout", s.cfg.CloseTimeout).Msg("close handshake timed out, forcing transport closed")
		s.finish(CloseAbnormal, "close timeout", true)
	case <-s.done:
	}
}

func (s *Session) signalCloseAck() {
	s.ackOnce.Do(func() { close(s.closeAck) })
}

func (s *Session) isClosing() bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

// run dials the transport and becomes the writer goroutine.
func (s *Session) run() {
	dialCtx, cancel := context.WithTimeout(s.ctx, s.cfg.ConnectTimeout)
	t, err := s.cfg.Dialer.Dial(dialCtx)
	cancel()
	if err != nil {
		switch {
		case s.ctx.Err() != nil:
		case s.isClosing():
			s.finish(CloseNormal, "closed before connect", false)
		case errors.Is(err, context.DeadlineExceeded):
			s.fail(providers.NewTimeoutError(s.cfg.Provider, providers.CodeConnectionTimeout, fmt.Sprintf("connect timed out after %s", s.cfg.ConnectTimeout)))
		default:
			s.fail(providers.NewTransportError(s.cfg.Provider, err))
		}
		return
	}

	s.mu.Lock()
	if s.state.IsTerminal() {
		s.mu.Unlock()
		_ = t.Close()
		return
	}
	s.transport = t
	s.mu.Unlock()
	s.log.Debug().Msg("transport connected")

	go s.readLoop(t)
	if s.codec.OpensOnConnect() {
		s.markOpen()
	}
	s.writeLoop(t)
}

func (s *Session) markOpen() {
	s.openOnce.Do(func() {
		s.mu.Lock()
		if s.state != providers.StateConnecting {
			s.mu.Unlock()
			return
		}
		_ = s.transitionLocked(providers.StateOpen)
		if s.accepted {
			_ = s.transitionLocked(providers.StateStreaming)
		}
		s.mu.Unlock()

		s.events.pushOpen()
		close(s.opened)
	})
}

func (s *Session) writeLoop(t Transport) {
	for {
		select {
		case ob := <-s.out:
			if err := s.write(t, ob); err != nil {
				s.writeFailed(err)
				return
			}
		case <-s.closing:
			s.flush(t)
			return
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) write(t Transport, ob outbound) error {
	if ob.control != nil {
		err := t.Send(s.ctx, ob.control.frame)
		if ob.control.sent != nil {
			ob.control.sent <- err
		}
		return err
	}

	chunks := [][]byte{ob.audio}
	if s.cfg.Framer != nil {
		chunks = s.cfg.Framer.Push(ob.audio)
	}
	for _, c := range chunks {
		if err := t.Send(s.ctx, s.codec.EncodeAudio(c)); err != nil {
			return err
		}
		s.cfg.Metrics.RecordAudio(string(s.cfg.Provider), len(c))
		s.log.Trace().Int("bytes", len(c)).Msg("audio forwarded")
	}
	return nil
}

func (s *Session) writeFailed(err error) {
	switch {
	case s.ctx.Err() != nil:
	case s.isClosing():
		s.signalCloseAck()
	default:
		s.fail(providers.NewTransportError(s.cfg.Provider, err))
	}
}

// flush forwards every admitted send, then the framer remainder and the
// finalize signal.
func (s *Session) flush(t Transport) {
	idle := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(idle)
	}()

	for waiting := true; waiting; {
		select {
		case ob := <-s.out:
			if err := s.write(t, ob); err != nil {
				s.writeFailed(err)
				return
			}
		case <-idle:
			waiting = false
		case <-s.ctx.Done():
			return
		}
	}
	for drained := false; !drained; {
		select {
		case ob := <-s.out:
			if err := s.write(t, ob); err != nil {
				s.writeFailed(err)
				return
			}
		default:
			drained = true
		}
	}

	if s.cfg.Framer != nil {
		if rest := s.cfg.Framer.Flush(); len(rest) > 0 {
			if err := t.Send(s.ctx, s.codec.EncodeAudio(rest)); err != nil {
				s.writeFailed(err)
				return
			}
			s.cfg.Metrics.RecordAudio(string(s.cfg.Provider), len(rest))
		}
	}

	if f, ok := s.codec.FinalizeFrame(); ok {
		if err := t.Send(s.ctx, f); err != nil {
			s.writeFailed(err)
		}
		return
	}
	if hc, ok := t.(HalfCloser); ok {
		if err := hc.CloseSend(); err != nil {
			s.writeFailed(err)
		}
		return
	}
	s.signalCloseAck()
}

func (s *Session) readLoop(t Transport) {
	for {
		f, err := t.Receive(s.ctx)
		if err != nil {
			switch {
			case s.ctx.Err() != nil:
			case s.isClosing():
				s.signalCloseAck()
			case errors.Is(err, io.EOF):
				s.finish(CloseNormal, "closed by provider", false)
			default:
				s.fail(providers.NewTransportError(s.cfg.Provider, err))
			}
			return
		}

		dec, err := s.codec.Decode(f)
		if err != nil {
			s.log.Warn().Err(err).Str("frame", string(f.Data)).Msg("failed to decode provider frame")
			s.events.push(providers.MetadataEvent{Data: map[string]any{
				"parse_error": providers.CodeParseError,
				"message":     err.Error(),
				"raw":         string(f.Data),
			}})
			continue
		}

		if dec.Opened {
			s.markOpen()
		}
		for _, ev := range dec.Events {
			s.events.push(ev)
		}
		if dec.UpdateAck {
			s.mu.Lock()
			if s.updateAck != nil {
				close(s.updateAck)
				s.updateAck = nil
			}
			s.mu.Unlock()
		}
		if dec.Err != nil {
			if dec.Err.Provider == "" {
				dec.Err.Provider = s.cfg.Provider
			}
			s.fail(dec.Err)
			return
		}
		if dec.CloseAck {
			if s.isClosing() {
				s.signalCloseAck()
			} else {
				s.finish(CloseNormal, "closed by provider", false)
			}
			return
		}
	}
}

func (s *Session) finish(code int, reason string, forced bool) {
	s.terminate(providers.StateClosed, providers.CloseEvent{Code: code, Reason: reason, Forced: forced})
}

func (s *Session) fail(err *providers.Error) {
	s.log.Error().Err(err).Msg("session failed")
	s.terminate(providers.StateErrored,
		providers.ErrorEvent{Err: err},
		providers.CloseEvent{Code: CloseAbnormal, Reason: err.Error()},
	)
}

// terminate moves the session to a terminal state exactly once, releases the
// transport and appends the terminal events.
func (s *Session) terminate(to providers.SessionState, evs ...providers.Event) {
	s.termOnce.Do(func() {
		s.mu.Lock()
		if to == providers.StateClosed && s.state != providers.StateClosing {
			_ = s.transitionLocked(providers.StateClosing)
		}
		_ = s.transitionLocked(to)
		t := s.transport
		s.mu.Unlock()

		s.cancel()
		if t != nil {
			if err := t.Close(); err != nil {
				s.log.Debug().Err(err).Msg("transport close")
			}
		}
		s.events.end(evs...)
		close(s.done)
		s.cfg.Metrics.RecordSessionEnd(string(s.cfg.Provider))
	})
}

// transitionLocked moves to the next state if the edge is allowed. s.mu must be held.
func (s *Session) transitionLocked(to providers.SessionState) error {
	from := s.state
	if !CanTransition(from, to) {
		err := &InvalidTransitionError{From: from, To: to}
		s.log.Warn().Err(err).Msg("refusing session transition")
		return err
	}
	s.state = to
	if from == providers.StateConfiguring && s.resume != nil {
		close(s.resume)
		s.resume = nil
	}
	if to == providers.StateConfiguring {
		s.resume = make(chan struct{})
	}

	s.log.Debug().Stringer("from", from).Stringer("to", to).Msg("session state changed")
	s.cfg.Metrics.RecordTransition(string(s.cfg.Provider), to.String())
	return nil
}

func (s *Session) deliver(it item) {
	if it.open {
		if s.cfg.Callbacks.OnOpen != nil {
			s.cfg.Callbacks.OnOpen()
		}
		return
	}
	s.cfg.Metrics.RecordEvent(string(s.cfg.Provider), string(it.ev.Type()))
	s.cfg.Callbacks.Dispatch(it.ev)
}
