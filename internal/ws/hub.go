package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"tracker-service/internal/models"
	"tracker-service/internal/observability"
)

// Dispatcher delivers an outbound event and reports how many connections were written.
type Dispatcher interface {
	Broadcast(ctx context.Context, event models.Event) int
}

// Hub tracks every open connection, anonymous ones included, and owns the
// registry of authenticated ones.
type Hub struct {
	conns    map[*Conn]struct{}
	registry *Registry
	logger   zerolog.Logger
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		conns:    make(map[*Conn]struct{}),
		registry: NewRegistry(),
		logger:   logger.With().Str("component", "ws_hub").Logger(),
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Attach starts tracking conn.
func (h *Hub) Attach(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

// Detach stops tracking conn and unregisters it. offline reports the user's
// transition to offline.
func (h *Hub) Detach(conn *Conn) (userID int, offline bool) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	return h.registry.Unregister(conn)
}

func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast serializes event once and writes it to every open connection.
// Connections that are not open are skipped. A failed write closes that
// connection; its read loop then runs the close path.
func (h *Hub) Broadcast(ctx context.Context, event models.Event) int {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", event.Type).Msg("broadcast marshal failed")
		return 0
	}

	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range conns {
		if !conn.IsOpen() {
			continue
		}
		if err := conn.Send(payload); err != nil {
			if errors.Is(err, ErrConnNotOpen) {
				continue
			}
			h.logger.Warn().Err(err).
				Str("conn_id", conn.ID()).
				Int("user_id", conn.UserID()).
				Msg("websocket write error")
			_ = conn.Close()
			publishConnEvent(ctx, "ws_error", conn, err.Error())
			continue
		}
		delivered++
	}
	observability.IncBroadcast(event.Type)
	return delivered
}

// CloseAll closes every tracked connection.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}
