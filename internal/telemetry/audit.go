package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"tracker-service/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// AuditEmitter publishes activity audit records to the broker.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	logger      zerolog.Logger
	now         func() time.Time
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level        string `json:"level"`
	Text         string `json:"text"`
	ActivityType string `json:"activity_type,omitempty"`
	Details      string `json:"details,omitempty"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string, logger zerolog.Logger) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		logger:      logger.With().Str("component", "audit").Logger(),
		now:         time.Now,
	}
}

// Emit publishes a free-form audit line.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, userID *int) {
	if e == nil || e.publisher == nil {
		return
	}
	e.publish(ctx, requestID, userID, AuditPayload{Level: level, Text: text})
}

// EmitActivity publishes an activity record together with the rendered system message text.
func (e *AuditEmitter) EmitActivity(ctx context.Context, activity models.UserActivity, text, requestID string) {
	if e == nil || e.publisher == nil {
		return
	}
	userID := activity.UserID
	e.publish(ctx, requestID, &userID, AuditPayload{
		Level:        "info",
		Text:         text,
		ActivityType: string(activity.Type),
		Details:      activity.Details,
	})
}

func (e *AuditEmitter) publish(ctx context.Context, requestID string, userID *int, payload AuditPayload) {
	var uid *string
	if userID != nil {
		s := strconv.Itoa(*userID)
		uid = &s
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        uid,
		Payload:       payload,
	}

	e.logger.Debug().
		Str("level", payload.Level).
		Str("request_id", requestID).
		Str("activity_type", payload.ActivityType).
		Msg("audit emit")

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		e.logger.Error().Err(err).Msg("audit publish failed")
	}
}
