package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"tracker-service/internal/observability"
)

// Handler upgrades GET /ws and runs the connection's read loop.
type Handler struct {
	router       *Router
	logger       zerolog.Logger
	pingInterval time.Duration
	readLimit    int64
}

// NewHandler constructs a Handler.
func NewHandler(router *Router, logger zerolog.Logger, pingInterval time.Duration, readLimit int64) *Handler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Handler{
		router:       router,
		logger:       logger.With().Str("component", "ws_handler").Logger(),
		pingInterval: pingInterval,
		readLimit:    readLimit,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and blocks until it closes.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("tracker-service/ws").Start(c.Request.Context(), "ws.handshake")
	c.Request = c.Request.WithContext(ctx)

	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.End()
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	meta := observability.ClientMetaFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		RequestID:   meta.RequestID,
		UserAgent:   meta.UserAgent,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	span.End()

	conn := NewConn(wsConn, info)
	h.router.HandleOpen(conn)
	observability.IncWSActive()

	// The request context ends with the handler; the session outlives the handshake.
	sessionCtx := context.WithoutCancel(ctx)
	publishConnEvent(sessionCtx, "ws_connect", conn, "")
	h.logger.Debug().Str("conn_id", info.ConnID).Str("ip", info.IP).Msg("websocket connected")

	pongWait := 2 * h.pingInterval
	if h.readLimit > 0 {
		wsConn.SetReadLimit(h.readLimit)
	}
	_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.pingLoop(conn, done)

	var closeReason string
	for {
		messageType, data, err := wsConn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && conn.IsOpen() {
				h.logger.Warn().Err(err).Str("conn_id", info.ConnID).Int("user_id", conn.UserID()).Msg("websocket read error")
				publishConnEvent(sessionCtx, "ws_error", conn, closeReason)
			}
			break
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))
		h.router.HandleFrame(sessionCtx, conn, data)
	}

	close(done)
	_ = conn.Close()
	h.router.HandleClose(sessionCtx, conn)
	observability.DecWSActive()
	publishConnEvent(sessionCtx, "ws_disconnect", conn, closeReason)
	h.logger.Debug().Str("conn_id", info.ConnID).Int("user_id", conn.UserID()).Str("reason", closeReason).Msg("websocket disconnected")
}

func (h *Handler) pingLoop(conn *Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
