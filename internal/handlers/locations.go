package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tracker-service/internal/models"
	"tracker-service/internal/repositories"
	"tracker-service/internal/validation"
)

// LocationHandler serves location snapshots and the HTTP fallback write path.
type LocationHandler struct {
	locations   repositories.LocationRepository
	broadcaster Broadcaster
	recorder    ActivityRecorder
	validator   *validation.Validator
	logger      zerolog.Logger
}

func NewLocationHandler(locations repositories.LocationRepository, broadcaster Broadcaster, recorder ActivityRecorder, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{
		locations:   locations,
		broadcaster: broadcaster,
		recorder:    recorder,
		validator:   validation.New(),
		logger:      logger.With().Str("component", "locations").Logger(),
	}
}

// CurrentLocations returns the latest location of every user.
func (h *LocationHandler) CurrentLocations(c *gin.Context) {
	locs, err := h.locations.CurrentForAllUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load locations"})
		return
	}
	c.JSON(http.StatusOK, locs)
}

// CreateLocation stores a location for the caller and broadcasts it.
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	userID := c.GetInt("userID")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	var in models.LocationInput
	if err := h.validator.Decode(body, &in); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "problems": verr.Problems})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.UserID = userID

	ctx := c.Request.Context()
	loc, err := h.locations.CreateLocation(ctx, userID, in.WithDefaults())
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", userID).Msg("create location failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save location"})
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(ctx, models.LocationUpdateEvent(loc))
	}

	details := "Unknown location"
	if loc.LocationName != nil && *loc.LocationName != "" {
		details = *loc.LocationName
	}
	if h.recorder != nil {
		if _, err := h.recorder.Record(ctx, models.UserActivity{
			Type:      models.ActivityLocationUpdate,
			UserID:    userID,
			Timestamp: loc.Timestamp,
			Details:   details,
		}, requestIDFromContext(c)); err != nil {
			h.logger.Warn().Err(err).Int("user_id", userID).Msg("record location activity failed")
		}
	}

	c.JSON(http.StatusCreated, loc)
}

// UserLocations returns the location history of one user.
func (h *LocationHandler) UserLocations(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	locs, err := h.locations.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user locations"})
		return
	}
	c.JSON(http.StatusOK, locs)
}
