package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tracker-service/internal/models"
	"tracker-service/internal/observability"
	"tracker-service/internal/repositories"
	"tracker-service/internal/validation"
)

const defaultHistoryLimit = 50

// Error frame texts sent to the originating connection.
const (
	errNotAuthenticated = "not authenticated: send authenticate first"
	errSaveLocation     = "failed to save location update"
	errSaveMessage      = "failed to save chat message"
	errLoadHistory      = "failed to load message history"
)

// Router validates inbound frames for one process and dispatches the results.
// Frames from a single connection are handled sequentially by its read loop.
type Router struct {
	hub          *Hub
	dispatcher   Dispatcher
	messages     repositories.MessageRepository
	locations    repositories.LocationRepository
	validator    *validation.Validator
	historyLimit int
	logger       zerolog.Logger
	tracer       trace.Tracer
}

type RouterOption func(*Router)

func WithHistoryLimit(limit int) RouterOption {
	return func(r *Router) {
		if limit > 0 {
			r.historyLimit = limit
		}
	}
}

// WithDispatcher replaces broadcast-to-all delivery.
func WithDispatcher(d Dispatcher) RouterOption {
	return func(r *Router) {
		if d != nil {
			r.dispatcher = d
		}
	}
}

func NewRouter(hub *Hub, messages repositories.MessageRepository, locations repositories.LocationRepository, logger zerolog.Logger, opts ...RouterOption) *Router {
	r := &Router{
		hub:          hub,
		dispatcher:   hub,
		messages:     messages,
		locations:    locations,
		validator:    validation.New(),
		historyLimit: defaultHistoryLimit,
		logger:       logger.With().Str("component", "ws_router").Logger(),
		tracer:       otel.Tracer("tracker-service/ws"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleOpen starts tracking a freshly upgraded connection.
func (r *Router) HandleOpen(conn *Conn) {
	r.hub.Attach(conn)
}

// HandleClose detaches conn and announces the user offline when it was their last connection.
func (r *Router) HandleClose(ctx context.Context, conn *Conn) {
	userID, offline := r.hub.Detach(conn)
	observability.SetOnlineUsers(r.hub.Registry().OnlineCount())
	if offline {
		r.dispatcher.Broadcast(ctx, models.UserStatusEvent(userID, models.PresenceOffline))
	}
}

// HandleFrame processes one inbound frame.
func (r *Router) HandleFrame(ctx context.Context, conn *Conn, data []byte) {
	var frame models.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		r.logger.Warn().Err(err).Str("conn_id", conn.ID()).Msg("dropping unparseable frame")
		observability.IncWSFrame("unparseable", "dropped")
		return
	}

	ctx, span := r.tracer.Start(ctx, "ws.frame", trace.WithAttributes(
		attribute.String("ws.frame_type", frame.Type),
		attribute.String("ws.conn_id", conn.ID()),
	))
	defer span.End()

	var outcome string
	switch frame.Type {
	case models.EventAuthenticate:
		outcome = r.authenticate(ctx, conn, frame.Payload)
	case models.EventLocationUpdate:
		outcome = r.locationUpdate(ctx, conn, frame.Payload)
	case models.EventChatMessage:
		outcome = r.chatMessage(ctx, conn, frame.Payload)
	default:
		observability.IncWSFrame("unknown", "ignored")
		return
	}

	span.SetAttributes(attribute.String("ws.outcome", outcome))
	if outcome == "failed" {
		span.SetStatus(codes.Error, outcome)
	}
	observability.IncWSFrame(frame.Type, outcome)
}

func (r *Router) authenticate(ctx context.Context, conn *Conn, raw json.RawMessage) string {
	var payload models.AuthenticatePayload
	if err := r.validator.Decode(raw, &payload); err != nil {
		r.logger.Debug().Err(err).Str("conn_id", conn.ID()).Msg("ignoring invalid authenticate")
		return "ignored"
	}

	prev, prevOffline := r.hub.Registry().Register(payload.UserID, conn)
	observability.SetOnlineUsers(r.hub.Registry().OnlineCount())
	if prevOffline {
		r.dispatcher.Broadcast(ctx, models.UserStatusEvent(prev, models.PresenceOffline))
	}

	outcome := "ok"
	history, err := r.messages.RecentMessages(ctx, r.historyLimit)
	if err != nil {
		r.logger.Error().Err(err).Int("user_id", payload.UserID).Msg("load message history failed")
		r.reply(conn, models.ErrorEvent(errLoadHistory))
		outcome = "failed"
	} else {
		r.reply(conn, models.HistoryEvent(history))
	}

	r.dispatcher.Broadcast(ctx, models.UserStatusEvent(payload.UserID, models.PresenceOnline))
	return outcome
}

func (r *Router) locationUpdate(ctx context.Context, conn *Conn, raw json.RawMessage) string {
	if !conn.Authenticated() {
		r.reply(conn, models.ErrorEvent(errNotAuthenticated))
		return "rejected"
	}

	var in models.LocationInput
	if err := r.validator.Decode(raw, &in); err != nil {
		r.reply(conn, models.ErrorEvent("invalid location update: "+problemText(err)))
		return "invalid"
	}

	userID := conn.UserID()
	in.UserID = userID
	stored, err := r.locations.CreateLocation(ctx, userID, in.WithDefaults())
	if err != nil {
		r.logger.Error().Err(err).Str("conn_id", conn.ID()).Int("user_id", userID).Msg("persist location failed")
		r.reply(conn, models.ErrorEvent(errSaveLocation))
		return "failed"
	}

	r.dispatcher.Broadcast(ctx, models.LocationUpdateEvent(stored))
	return "ok"
}

func (r *Router) chatMessage(ctx context.Context, conn *Conn, raw json.RawMessage) string {
	if !conn.Authenticated() {
		r.reply(conn, models.ErrorEvent(errNotAuthenticated))
		return "rejected"
	}

	var in models.ChatMessageInput
	err := r.validator.Decode(raw, &in)
	if err == nil {
		in.Content = strings.TrimSpace(in.Content)
		err = r.validator.Struct(in)
	}
	if err != nil {
		r.reply(conn, models.ErrorEvent("invalid chat message: "+problemText(err)))
		return "invalid"
	}

	userID := conn.UserID()
	stored, err := r.messages.CreateMessage(ctx, userID, in.Content, false)
	if err != nil {
		r.logger.Error().Err(err).Str("conn_id", conn.ID()).Int("user_id", userID).Msg("persist chat message failed")
		r.reply(conn, models.ErrorEvent(errSaveMessage))
		return "failed"
	}

	r.dispatcher.Broadcast(ctx, models.NewMessageEvent(stored))
	return "ok"
}

func (r *Router) reply(conn *Conn, event models.Event) {
	if err := conn.SendEvent(event); err != nil && !errors.Is(err, ErrConnNotOpen) {
		r.logger.Warn().Err(err).Str("conn_id", conn.ID()).Str("event_type", event.Type).Msg("reply failed")
	}
}

func problemText(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return strings.Join(verr.Problems, "; ")
	}
	return err.Error()
}
