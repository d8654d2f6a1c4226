package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tracker-service/internal/models"
)

// ErrConnNotOpen is returned when writing to a connection that is closing or closed.
var ErrConnNotOpen = errors.New("connection is not open")

const writeWait = 10 * time.Second

// transport is the subset of *websocket.Conn used for writes.
type transport interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type ConnState int32

const (
	StateOpen ConnState = iota
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Conn is one client connection. The zero user id means unauthenticated.
type Conn struct {
	info      ConnInfo
	transport transport
	state     atomic.Int32
	userID    atomic.Int64
	writeMu   sync.Mutex
}

func NewConn(t transport, info ConnInfo) *Conn {
	if info.ConnID == "" {
		info.ConnID = newConnID()
	}
	if info.ConnectedAt.IsZero() {
		info.ConnectedAt = time.Now()
	}
	return &Conn{info: info, transport: t}
}

func (c *Conn) ID() string {
	return c.info.ConnID
}

func (c *Conn) Info() ConnInfo {
	return c.info
}

func (c *Conn) UserID() int {
	return int(c.userID.Load())
}

func (c *Conn) Authenticated() bool {
	return c.UserID() != 0
}

func (c *Conn) setUserID(userID int) {
	c.userID.Store(int64(userID))
}

func (c *Conn) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Conn) IsOpen() bool {
	return c.State() == StateOpen
}

// Send writes one text frame.
func (c *Conn) Send(frame []byte) error {
	return c.write(websocket.TextMessage, frame)
}

func (c *Conn) SendEvent(event models.Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return c.Send(frame)
}

func (c *Conn) Ping() error {
	return c.write(websocket.PingMessage, nil)
}

func (c *Conn) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !c.IsOpen() {
		return ErrConnNotOpen
	}
	if err := c.transport.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.transport.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close moves the connection to closed and closes the transport once.
func (c *Conn) Close() error {
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		return nil
	}
	err := c.transport.Close()
	c.state.Store(int32(StateClosed))
	return err
}
