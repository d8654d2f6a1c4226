package ws

import (
	"context"
	"time"

	"tracker-service/internal/observability"
)

func publishConnEvent(ctx context.Context, name string, conn *Conn, reason string) {
	info := conn.Info()
	// Failures are counted by PublishEvent.
	_ = observability.PublishEvent(ctx, routingKey(), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		RequestID: info.RequestID,
		TraceID:   info.TraceID,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       name,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":    conn.UserID(),
				"device_id":  info.DeviceID,
				"ip":         info.IP,
				"user_agent": info.UserAgent,
			},
		},
	})
	observability.IncWSEvent(name)
}
