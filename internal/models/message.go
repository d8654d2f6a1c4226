package models

import "time"

// ChatMessage is a team chat entry. Messages are append-only; system messages
// are produced by the server from attendance and location activity.
type ChatMessage struct {
	ID              int       `db:"id" json:"id"`
	SenderID        int       `db:"sender_id" json:"senderId"`
	Content         string    `db:"content" json:"content"`
	Timestamp       time.Time `db:"timestamp" json:"timestamp"`
	IsSystemMessage bool      `db:"is_system_message" json:"isSystemMessage"`
}

// ChatMessageInput is the payload of a chat_message frame.
type ChatMessageInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}
