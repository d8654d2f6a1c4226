package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"tracker-service/internal/models"
)

type fakeTransport struct {
	mu       sync.Mutex
	frames   [][]byte
	pings    int
	closed   bool
	writeErr error
}

func (f *fakeTransport) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.closed {
		return errors.New("use of closed connection")
	}
	if messageType == websocket.PingMessage {
		f.pings++
		return nil
	}
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) SetWriteDeadline(time.Time) error {
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) events(t *testing.T) []models.Frame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Frame, 0, len(f.frames))
	for _, raw := range f.frames {
		var frame models.Frame
		require.NoError(t, json.Unmarshal(raw, &frame))
		out = append(out, frame)
	}
	return out
}

func (f *fakeTransport) eventsOfType(t *testing.T, eventType string) []models.Frame {
	t.Helper()
	var out []models.Frame
	for _, frame := range f.events(t) {
		if frame.Type == eventType {
			out = append(out, frame)
		}
	}
	return out
}

func newTestConn() (*Conn, *fakeTransport) {
	tr := &fakeTransport{}
	return NewConn(tr, ConnInfo{}), tr
}

func decodeStatus(t *testing.T, frame models.Frame) models.UserStatus {
	t.Helper()
	var status models.UserStatus
	require.NoError(t, json.Unmarshal(frame.Payload, &status))
	return status
}
