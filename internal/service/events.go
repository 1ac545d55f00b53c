package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/dojo-contact-api/internal/dto"
	"github.com/noah-isme/dojo-contact-api/internal/observability"
)

// SubmissionEvent is emitted once per relayed submission, after the outcome is known.
type SubmissionEvent struct {
	CorrelationID string            `json:"correlation_id,omitempty"`
	Discipline    string            `json:"discipline"`
	Email         string            `json:"email"`
	OK            bool              `json:"ok"`
	Primary       dto.ChannelStatus `json:"primary"`
	Secondary     dto.ChannelStatus `json:"secondary"`
	ErrorCount    int               `json:"error_count"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// EventPublisher forwards submission events to an external sink.
type EventPublisher interface {
	Name() string
	Publish(ctx context.Context, event SubmissionEvent) error
}

// NATSPublisher publishes events on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher constructs a publisher; conn must be connected.
func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

// Name implements EventPublisher.
func (p *NATSPublisher) Name() string { return "nats" }

// Publish implements EventPublisher.
func (p *NATSPublisher) Publish(_ context.Context, event SubmissionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.conn.Publish(p.subject, payload)
}

// RedisStreamPublisher appends events to a Redis stream.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher constructs a publisher capped at maxLen entries.
func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Name implements EventPublisher.
func (p *RedisStreamPublisher) Name() string { return "redis" }

// Publish implements EventPublisher.
func (p *RedisStreamPublisher) Publish(ctx context.Context, event SubmissionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Values: map[string]interface{}{
			"discipline": event.Discipline,
			"ok":         event.OK,
			"payload":    string(payload),
		},
	}).Err()
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher constructs a logging publisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "contact_events").Logger()}
}

// Name implements EventPublisher.
func (p *LogPublisher) Name() string { return "log" }

// Publish implements EventPublisher.
func (p *LogPublisher) Publish(_ context.Context, event SubmissionEvent) error {
	p.logger.Info().
		Str("correlation_id", event.CorrelationID).
		Str("discipline", event.Discipline).
		Str("email", event.Email).
		Bool("ok", event.OK).
		Str("primary", string(event.Primary)).
		Str("secondary", string(event.Secondary)).
		Msg("contact submission relayed")
	return nil
}

// publishAll fans an event out to every publisher. Failures are logged and counted only.
func publishAll(ctx context.Context, publishers []EventPublisher, event SubmissionEvent, logger zerolog.Logger) {
	for _, publisher := range publishers {
		if err := publisher.Publish(ctx, event); err != nil {
			observability.ContactEvents().WithLabelValues(publisher.Name(), "error").Inc()
			logger.Warn().Err(err).Str("sink", publisher.Name()).Msg("failed to publish contact event")
			continue
		}
		observability.ContactEvents().WithLabelValues(publisher.Name(), "published").Inc()
	}
}
