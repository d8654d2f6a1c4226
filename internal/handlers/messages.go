package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tracker-service/internal/repositories"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 500
)

type MessageHandler struct {
	messages repositories.MessageRepository
}

func NewMessageHandler(messages repositories.MessageRepository) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// RecentMessages returns the latest team messages in chronological order.
func (h *MessageHandler) RecentMessages(c *gin.Context) {
	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	msgs, err := h.messages.RecentMessages(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}
