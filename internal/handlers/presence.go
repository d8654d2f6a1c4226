package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PresenceSource reports users with an open websocket connection.
type PresenceSource interface {
	OnlineUsers() []int
}

type PresenceHandler struct {
	source PresenceSource
}

func NewPresenceHandler(source PresenceSource) *PresenceHandler {
	return &PresenceHandler{source: source}
}

func (h *PresenceHandler) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.source.OnlineUsers()})
}
