// Package events publishes final transcripts to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/agnivade/voicerouter/internal/metrics"
)

// Transcript is the published payload.
type Transcript struct {
	SessionID  string    `json:"session_id"`
	Provider   string    `json:"provider"`
	Text       string    `json:"text"`
	IsFinal    bool      `json:"is_final"`
	Confidence *float64  `json:"confidence,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Publisher publishes transcript events.
type Publisher interface {
	PublishTranscript(ctx context.Context, t Transcript) error
	Close() error
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string
}

// New returns a Kafka publisher, or a Nop publisher when no brokers are set.
// The Kafka writer is asynchronous: PublishTranscript only enqueues, and
// delivery failures are logged and counted when the batch completes.
func New(cfg Config, m *metrics.Metrics) Publisher {
	if len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, transcripts are not published")
		return Nop{}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}
	k := newKafka(w, cfg.Topic, m)
	w.Completion = k.completed

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka publisher initialized")
	return k
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes one message per transcript, keyed by session id so a
// session's transcripts stay ordered within a partition.
type Kafka struct {
	writer  messageWriter
	topic   string
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func newKafka(w messageWriter, topic string, m *metrics.Metrics) *Kafka {
	return &Kafka{
		writer:  w,
		topic:   topic,
		metrics: m,
		log:     log.With().Str("component", "events").Logger(),
	}
}

func (k *Kafka) PublishTranscript(ctx context.Context, t Transcript) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(t.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "provider", Value: []byte(t.Provider)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: t.ReceivedAt,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.log.Error().
			Err(err).
			Str("session_id", t.SessionID).
			Msg("Failed to write transcript to Kafka")
		k.metrics.RecordPublishError(k.topic)
		return err
	}
	return nil
}

// completed is the async writer's batch callback.
func (k *Kafka) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	k.log.Error().
		Err(err).
		Int("messages", len(msgs)).
		Msg("Failed to deliver transcripts to Kafka")
	for range msgs {
		k.metrics.RecordPublishError(k.topic)
	}
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Nop discards transcripts.
type Nop struct{}

func (Nop) PublishTranscript(context.Context, Transcript) error { return nil }

func (Nop) Close() error { return nil }
