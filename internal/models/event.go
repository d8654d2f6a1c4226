package models

import "encoding/json"

// Frame types exchanged over /ws.
const (
	EventAuthenticate   = "authenticate"
	EventLocationUpdate = "location_update"
	EventChatMessage    = "chat_message"
	EventMessageHistory = "message_history"
	EventNewMessage     = "new_message"
	EventUserStatus     = "user_status"
	EventError          = "error"
)

// Frame is a decoded wire frame whose payload is left raw until the type is known.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is an outbound frame.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// AuthenticatePayload is the payload of an authenticate frame.
type AuthenticatePayload struct {
	UserID int `json:"userId" validate:"required,gt=0"`
}

// SessionPresence is derived from connection occupancy only.
type SessionPresence string

const (
	PresenceOnline  SessionPresence = "online"
	PresenceOffline SessionPresence = "offline"
)

// UserStatus is the payload of a user_status frame.
type UserStatus struct {
	UserID int             `json:"userId"`
	Status SessionPresence `json:"status"`
}

func HistoryEvent(msgs []ChatMessage) Event {
	if msgs == nil {
		msgs = []ChatMessage{}
	}
	return Event{Type: EventMessageHistory, Payload: msgs}
}

func NewMessageEvent(msg ChatMessage) Event {
	return Event{Type: EventNewMessage, Payload: msg}
}

func LocationUpdateEvent(loc LocationEvent) Event {
	return Event{Type: EventLocationUpdate, Payload: loc}
}

func UserStatusEvent(userID int, status SessionPresence) Event {
	return Event{Type: EventUserStatus, Payload: UserStatus{UserID: userID, Status: status}}
}

func ErrorEvent(text string) Event {
	return Event{Type: EventError, Payload: text}
}
