package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tracker-service/internal/models"
	"tracker-service/internal/repositories"
)

// AttendanceHandler manages check-in and check-out records.
type AttendanceHandler struct {
	attendance repositories.AttendanceRepository
	users      repositories.UserRepository
	recorder   ActivityRecorder
	loc        *time.Location
	now        func() time.Time
	logger     zerolog.Logger
}

// NewAttendanceHandler builds an AttendanceHandler. Day boundaries are computed in loc.
func NewAttendanceHandler(attendance repositories.AttendanceRepository, users repositories.UserRepository, recorder ActivityRecorder, loc *time.Location, logger zerolog.Logger) *AttendanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceHandler{
		attendance: attendance,
		users:      users,
		recorder:   recorder,
		loc:        loc,
		now:        time.Now,
		logger:     logger.With().Str("component", "attendance").Logger(),
	}
}

// Today returns every check-in of the current day.
func (h *AttendanceHandler) Today(c *gin.Context) {
	from, to := repositories.DayBounds(h.now(), h.loc)
	recs, err := h.attendance.ListBetween(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load attendance"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

// CheckIn creates today's attendance record for the caller.
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req models.CheckInRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	userID := c.GetInt("userID")
	checkIn := h.now()
	if req.CheckInTime != nil {
		checkIn = *req.CheckInTime
	}
	status := req.Status
	if status == "" {
		status = models.AttendancePresent
	}

	ctx := c.Request.Context()
	from, to := repositories.DayBounds(checkIn, h.loc)
	rec, err := h.attendance.CheckIn(ctx, userID, checkIn, status, req.Notes, from, to)
	if errors.Is(err, repositories.ErrAlreadyCheckedIn) {
		c.JSON(http.StatusConflict, gin.H{"error": "already checked in today"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", userID).Msg("create attendance failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check in"})
		return
	}

	h.record(c, models.UserActivity{Type: models.ActivityCheckIn, UserID: userID, Timestamp: rec.CheckInTime})
	c.JSON(http.StatusCreated, rec)
}

// Update changes check-out time, status or notes of the caller's own record.
func (h *AttendanceHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attendance id"})
		return
	}

	var upd models.AttendanceUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetInt("userID")
	existing, err := h.attendance.GetAttendance(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrAttendanceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "attendance record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load attendance"})
		return
	}
	if existing.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to update this attendance record"})
		return
	}

	rec, err := h.attendance.UpdateAttendance(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repositories.ErrAttendanceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "attendance record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update attendance"})
		return
	}

	switch {
	case upd.CheckOutTime != nil:
		h.record(c, models.UserActivity{Type: models.ActivityCheckOut, UserID: userID, Timestamp: *upd.CheckOutTime})
	case upd.Status != nil && *upd.Status != existing.Status:
		h.record(c, models.UserActivity{Type: models.ActivityStatusChange, UserID: userID, Timestamp: h.now(), Details: *upd.Status})
	}
	c.JSON(http.StatusOK, rec)
}

// UserAttendance returns one user's records to that user or an administrator.
func (h *AttendanceHandler) UserAttendance(c *gin.Context) {
	targetID, ok := pathID(c, "userId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	ctx := c.Request.Context()
	callerID := c.GetInt("userID")
	if targetID != callerID {
		caller, err := h.users.GetUser(ctx, callerID)
		if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load caller"})
			return
		}
		if err != nil || !caller.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to access this attendance data"})
			return
		}
	}

	recs, err := h.attendance.ListByUser(ctx, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load attendance"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *AttendanceHandler) record(c *gin.Context, activity models.UserActivity) {
	if h.recorder == nil {
		return
	}
	if _, err := h.recorder.Record(c.Request.Context(), activity, requestIDFromContext(c)); err != nil {
		h.logger.Warn().Err(err).Str("activity", string(activity.Type)).Int("user_id", activity.UserID).Msg("record activity failed")
	}
}
