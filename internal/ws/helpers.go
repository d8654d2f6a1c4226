package ws

import (
	"github.com/google/uuid"
)

func newConnID() string {
	return uuid.NewString()
}

func routingKey() string {
	return "ws_events.connections"
}
