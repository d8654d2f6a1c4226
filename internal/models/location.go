package models

import (
	"fmt"
	"strconv"
	"time"
)

// WorkStatus is the sender supplied status carried by location updates.
type WorkStatus string

const (
	WorkStatusActive  WorkStatus = "active"
	WorkStatusAway    WorkStatus = "away"
	WorkStatusOffline WorkStatus = "offline"
)

// LocationEvent is one stored position report. The current location of a user
// is the most recent record for that user.
type LocationEvent struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"userId"`
	Latitude     string    `db:"latitude" json:"latitude"`
	Longitude    string    `db:"longitude" json:"longitude"`
	LocationName *string   `db:"location_name" json:"locationName,omitempty"`
	Status       string    `db:"status" json:"status"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
}

// Coordinates parses the decimal-degree strings.
func (l LocationEvent) Coordinates() (float64, float64, error) {
	lat, err := strconv.ParseFloat(l.Latitude, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse latitude %q: %w", l.Latitude, err)
	}
	lon, err := strconv.ParseFloat(l.Longitude, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse longitude %q: %w", l.Longitude, err)
	}
	return lat, lon, nil
}

// LocationInput is the payload of a location_update frame and the body of
// POST /api/locations. UserID is accepted on the wire but the server always
// replaces it with the authenticated identity.
type LocationInput struct {
	UserID       int     `json:"userId,omitempty"`
	Latitude     string  `json:"latitude" validate:"required,latitude"`
	Longitude    string  `json:"longitude" validate:"required,longitude"`
	LocationName *string `json:"locationName,omitempty" validate:"omitempty,max=255"`
	Status       string  `json:"status,omitempty" validate:"omitempty,oneof=active away offline"`
}

// WithDefaults fills the status when the sender omitted it.
func (in LocationInput) WithDefaults() LocationInput {
	if in.Status == "" {
		in.Status = string(WorkStatusActive)
	}
	return in
}
