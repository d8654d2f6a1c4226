package ws

import "time"

// ConnInfo is captured at handshake and attached to lifecycle events.
type ConnInfo struct {
	ConnID      string
	DeviceID    string
	IP          string
	RequestID   string
	UserAgent   string
	TraceID     string
	ConnectedAt time.Time
}
