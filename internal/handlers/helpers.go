package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tracker-service/internal/models"
)

const requestIDContextKey = "request_id"

// ActivityRecorder announces user activity as a system chat message.
type ActivityRecorder interface {
	Record(ctx context.Context, activity models.UserActivity, requestID string) (models.ChatMessage, error)
}

// Broadcaster delivers an event to connected websocket clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, event models.Event) int
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *int {
	if userID := c.GetInt("userID"); userID != 0 {
		return &userID
	}
	return nil
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
