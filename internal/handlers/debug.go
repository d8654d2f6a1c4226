package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tracker-service/internal/activity"
	"tracker-service/internal/models"
)

type debugActivityRequest struct {
	UserID  int    `json:"userId" binding:"required,gt=0"`
	Type    string `json:"type" binding:"required,oneof=check_in check_out status_change location_update"`
	Details string `json:"details"`
}

// RegisterDebugRoutes wires POST /debug/activity, which emits an activity audit
// envelope on the same routing key attendance uses without touching chat.
func RegisterDebugRoutes(router *gin.Engine, auditor activity.Auditor, loc *time.Location, enabled bool) {
	if !enabled {
		return
	}
	if loc == nil {
		loc = time.UTC
	}

	router.POST("/debug/activity", func(c *gin.Context) {
		if auditor == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		var req debugActivityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		a := models.UserActivity{
			Type:      models.ActivityType(req.Type),
			UserID:    req.UserID,
			Timestamp: time.Now(),
			Details:   req.Details,
		}
		text := activity.Describe(fmt.Sprintf("User #%d", req.UserID), a, loc)
		auditor.EmitActivity(c.Request.Context(), a, text, requestIDFromContext(c))
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "text": text})
	})
}
