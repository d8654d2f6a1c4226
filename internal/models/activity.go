package models

import "time"

type ActivityType string

const (
	ActivityCheckIn        ActivityType = "check_in"
	ActivityCheckOut       ActivityType = "check_out"
	ActivityStatusChange   ActivityType = "status_change"
	ActivityLocationUpdate ActivityType = "location_update"
)

// UserActivity describes something a user did that is announced in the team chat.
type UserActivity struct {
	Type      ActivityType
	UserID    int
	Timestamp time.Time
	Details   string
}
