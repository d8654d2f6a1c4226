package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"tracker-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository stores team chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID int, content string, isSystem bool) (models.ChatMessage, error)
	RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error)
	GetMessage(ctx context.Context, messageID int) (models.ChatMessage, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message; the timestamp is assigned by the database.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID int, content string, isSystem bool) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, content, is_system_message) VALUES ($1, $2, $3)
        RETURNING id, sender_id, content, timestamp, is_system_message`, senderID, content, isSystem).
		StructScan(&msg)
	return msg, err
}

// RecentMessages returns the newest limit messages in chronological order.
func (r *MessageRepo) RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	query := `SELECT id, sender_id, content, timestamp, is_system_message FROM (
            SELECT id, sender_id, content, timestamp, is_system_message
            FROM messages
            ORDER BY timestamp DESC, id DESC
            LIMIT $1
        ) recent
        ORDER BY timestamp ASC, id ASC`
	msgs := []models.ChatMessage{}
	err := r.db.SelectContext(ctx, &msgs, query, limit)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.GetContext(ctx, &msg, `SELECT id, sender_id, content, timestamp, is_system_message FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMessage{}, ErrMessageNotFound
	}
	return msg, err
}
