// Package activity turns attendance and location activity into system chat messages.
package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tracker-service/internal/models"
	"tracker-service/internal/repositories"
)

const timeLayout = "3:04:05 PM"

type Broadcaster interface {
	Broadcast(ctx context.Context, event models.Event) int
}

type Auditor interface {
	EmitActivity(ctx context.Context, activity models.UserActivity, text, requestID string)
}

// Recorder persists an activity as a system message and announces it.
type Recorder struct {
	users       repositories.UserRepository
	messages    repositories.MessageRepository
	broadcaster Broadcaster
	auditor     Auditor
	loc         *time.Location
	logger      zerolog.Logger
}

func NewRecorder(users repositories.UserRepository, messages repositories.MessageRepository, broadcaster Broadcaster, auditor Auditor, loc *time.Location, logger zerolog.Logger) *Recorder {
	if loc == nil {
		loc = time.UTC
	}
	return &Recorder{
		users:       users,
		messages:    messages,
		broadcaster: broadcaster,
		auditor:     auditor,
		loc:         loc,
		logger:      logger.With().Str("component", "activity").Logger(),
	}
}

// Record stores the system message for a and broadcasts it as new_message.
func (r *Recorder) Record(ctx context.Context, a models.UserActivity, requestID string) (models.ChatMessage, error) {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}

	name := fmt.Sprintf("User #%d", a.UserID)
	user, err := r.users.GetUser(ctx, a.UserID)
	switch {
	case err == nil && user.Name != "":
		name = user.Name
	case err != nil && !errors.Is(err, repositories.ErrUserNotFound):
		r.logger.Warn().Err(err).Int("user_id", a.UserID).Msg("lookup activity user failed")
	}

	text := Describe(name, a, r.loc)
	msg, err := r.messages.CreateMessage(ctx, a.UserID, text, true)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("record %s activity: %w", a.Type, err)
	}

	if r.broadcaster != nil {
		r.broadcaster.Broadcast(ctx, models.NewMessageEvent(msg))
	}
	if r.auditor != nil {
		r.auditor.EmitActivity(ctx, a, text, requestID)
	}
	return msg, nil
}

// Describe renders the system message text for an activity.
func Describe(name string, a models.UserActivity, loc *time.Location) string {
	details := a.Details
	if details == "" {
		details = "unknown"
	}
	switch a.Type {
	case models.ActivityCheckIn:
		return fmt.Sprintf("%s checked in at %s", name, a.Timestamp.In(loc).Format(timeLayout))
	case models.ActivityCheckOut:
		return fmt.Sprintf("%s checked out at %s", name, a.Timestamp.In(loc).Format(timeLayout))
	case models.ActivityStatusChange:
		return fmt.Sprintf("%s changed status to %s", name, details)
	case models.ActivityLocationUpdate:
		return fmt.Sprintf("%s updated location to %s", name, details)
	default:
		return fmt.Sprintf("%s: %s", name, details)
	}
}
