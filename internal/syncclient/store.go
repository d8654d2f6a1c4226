// Package syncclient mirrors the server's broadcast state for one client and
// provides the outbound senders used by the field client.
package syncclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tracker-service/internal/models"
)

const DefaultReconnectDelay = 5 * time.Second

var ErrNotConnected = errors.New("not connected")

type Config struct {
	URL            string
	Header         http.Header
	ReconnectDelay time.Duration
	Location       *time.Location
	Logger         zerolog.Logger
}

// Snapshot is a copy of the local view.
type Snapshot struct {
	Messages  []models.ChatMessage
	Days      []DayGroup
	Locations map[int]models.LocationEvent
	Presence  map[int]models.SessionPresence
}

// Store holds the local mirror of messages, live locations and presence.
// At most one reconnect attempt is pending at any time.
type Store struct {
	cfg    Config
	dialer *websocket.Dialer
	logger zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	userID    int
	active    bool
	reconnect *time.Timer
	messages  []models.ChatMessage
	locations map[int]models.LocationEvent
	presence  map[int]models.SessionPresence

	writeMu sync.Mutex

	onError    func(string)
	onLocation func(models.LocationEvent)
	onMessage  func(models.ChatMessage)
	onStatus   func(models.UserStatus)
}

func NewStore(cfg Config) *Store {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Store{
		cfg:       cfg,
		dialer:    websocket.DefaultDialer,
		logger:    cfg.Logger.With().Str("component", "sync_store").Logger(),
		locations: make(map[int]models.LocationEvent),
		presence:  make(map[int]models.SessionPresence),
	}
}

// Hooks must be set before Connect.

func (s *Store) OnError(fn func(string))                  { s.onError = fn }
func (s *Store) OnLocation(fn func(models.LocationEvent)) { s.onLocation = fn }
func (s *Store) OnMessage(fn func(models.ChatMessage))    { s.onMessage = fn }
func (s *Store) OnStatus(fn func(models.UserStatus))      { s.onStatus = fn }

// Connect opens the channel for userID unless one is already open and
// authenticates on success. A failed dial schedules a reconnect attempt.
func (s *Store) Connect(userID int) error {
	s.mu.Lock()
	s.userID = userID
	s.active = true
	open := s.conn != nil
	s.mu.Unlock()
	if open {
		return nil
	}
	return s.dial()
}

// Disconnect closes the channel and cancels any pending reconnect.
func (s *Store) Disconnect() {
	s.mu.Lock()
	s.active = false
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		s.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.writeMu.Unlock()
		_ = conn.Close()
	}
}

func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// SendMessage reports whether the chat frame was written.
func (s *Store) SendMessage(content string) bool {
	return s.send(models.EventChatMessage, models.ChatMessageInput{Content: content}) == nil
}

// UpdateLocation reports whether the location frame was written. Callers fall
// back to the HTTP path on false.
func (s *Store) UpdateLocation(userID int, in models.LocationInput) bool {
	in.UserID = userID
	return s.send(models.EventLocationUpdate, in) == nil
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]models.ChatMessage, len(s.messages))
	copy(msgs, s.messages)
	locs := make(map[int]models.LocationEvent, len(s.locations))
	for k, v := range s.locations {
		locs[k] = v
	}
	presence := make(map[int]models.SessionPresence, len(s.presence))
	for k, v := range s.presence {
		presence[k] = v
	}
	return Snapshot{
		Messages:  msgs,
		Days:      GroupByDay(msgs, s.cfg.Location),
		Locations: locs,
		Presence:  presence,
	}
}

func (s *Store) dial() error {
	conn, _, err := s.dialer.Dial(s.cfg.URL, s.cfg.Header)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", s.cfg.URL).Msg("dial failed")
		s.scheduleReconnect()
		return fmt.Errorf("dial %s: %w", s.cfg.URL, err)
	}

	s.mu.Lock()
	if !s.active || s.conn != nil {
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	userID := s.userID
	s.mu.Unlock()

	go s.readLoop(conn)

	if err := s.write(conn, models.EventAuthenticate, models.AuthenticatePayload{UserID: userID}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("authenticate: %w", err)
	}
	s.logger.Info().Int("user_id", userID).Msg("connected")
	return nil
}

func (s *Store) readLoop(conn *websocket.Conn) {
	for {
		var frame models.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			s.handleClose(conn, err)
			return
		}
		s.apply(frame)
	}
}

func (s *Store) handleClose(conn *websocket.Conn, err error) {
	_ = conn.Close()

	s.mu.Lock()
	current := s.conn == conn
	if current {
		s.conn = nil
	}
	active := s.active
	s.mu.Unlock()

	if current && active {
		s.logger.Warn().Err(err).Dur("retry_in", s.cfg.ReconnectDelay).Msg("connection lost")
		s.scheduleReconnect()
	}
}

func (s *Store) scheduleReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.reconnect != nil {
		return
	}
	s.reconnect = time.AfterFunc(s.cfg.ReconnectDelay, func() {
		s.mu.Lock()
		s.reconnect = nil
		active := s.active && s.conn == nil
		s.mu.Unlock()
		if active {
			_ = s.dial()
		}
	})
}

func (s *Store) send(frameType string, payload any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return s.write(conn, frameType, payload)
}

func (s *Store) write(conn *websocket.Conn, frameType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", frameType, err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(models.Frame{Type: frameType, Payload: raw})
}

func (s *Store) apply(frame models.Frame) {
	switch frame.Type {
	case models.EventMessageHistory:
		var msgs []models.ChatMessage
		if !s.decode(frame, &msgs) {
			return
		}
		s.mu.Lock()
		s.messages = msgs
		s.mu.Unlock()

	case models.EventNewMessage:
		var msg models.ChatMessage
		if !s.decode(frame, &msg) {
			return
		}
		s.mu.Lock()
		s.messages = append(s.messages, msg)
		s.mu.Unlock()
		if s.onMessage != nil {
			s.onMessage(msg)
		}

	case models.EventUserStatus:
		var status models.UserStatus
		if !s.decode(frame, &status) {
			return
		}
		s.mu.Lock()
		s.presence[status.UserID] = status.Status
		s.mu.Unlock()
		if s.onStatus != nil {
			s.onStatus(status)
		}

	case models.EventLocationUpdate:
		var loc models.LocationEvent
		if !s.decode(frame, &loc) {
			return
		}
		s.mu.Lock()
		s.locations[loc.UserID] = loc
		s.mu.Unlock()
		if s.onLocation != nil {
			s.onLocation(loc)
		}

	case models.EventError:
		var text string
		if !s.decode(frame, &text) {
			text = string(frame.Payload)
		}
		if s.onError != nil {
			s.onError(text)
		}
	}
}

func (s *Store) decode(frame models.Frame, dst any) bool {
	if err := json.Unmarshal(frame.Payload, dst); err != nil {
		s.logger.Warn().Err(err).Str("type", frame.Type).Msg("dropping malformed frame")
		return false
	}
	return true
}
