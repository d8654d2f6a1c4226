package syncclient

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"tracker-service/internal/models"
)

const DefaultTrackInterval = 30 * time.Minute

// Position is one reading from a position source.
type Position struct {
	Latitude  float64
	Longitude float64
}

type PositionSource interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

type LocationSender interface {
	UpdateLocation(userID int, in models.LocationInput) bool
}

type LocationPoster interface {
	PostLocation(ctx context.Context, in models.LocationInput) (models.LocationEvent, error)
}

// Tracker reports the device position on a fixed interval, over the socket
// when possible and over HTTP otherwise.
type Tracker struct {
	userID   int
	source   PositionSource
	sender   LocationSender
	fallback LocationPoster
	interval time.Duration
	onError  func(error)
	logger   zerolog.Logger
}

func NewTracker(userID int, source PositionSource, sender LocationSender, fallback LocationPoster, interval time.Duration, logger zerolog.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultTrackInterval
	}
	return &Tracker{
		userID:   userID,
		source:   source,
		sender:   sender,
		fallback: fallback,
		interval: interval,
		logger:   logger.With().Str("component", "tracker").Logger(),
	}
}

// OnError receives position and fallback failures.
func (t *Tracker) OnError(fn func(error)) { t.onError = fn }

// Run reports immediately and then every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.Report(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Report(ctx)
		}
	}
}

// Report sends one position reading.
func (t *Tracker) Report(ctx context.Context) {
	pos, err := t.source.CurrentPosition(ctx)
	if err != nil {
		t.fail(err)
		return
	}

	in := models.LocationInput{
		UserID:    t.userID,
		Latitude:  strconv.FormatFloat(pos.Latitude, 'f', -1, 64),
		Longitude: strconv.FormatFloat(pos.Longitude, 'f', -1, 64),
		Status:    string(models.WorkStatusActive),
	}
	if t.sender.UpdateLocation(t.userID, in) {
		return
	}
	if t.fallback == nil {
		return
	}
	if _, err := t.fallback.PostLocation(ctx, in); err != nil {
		t.fail(err)
	}
}

func (t *Tracker) fail(err error) {
	t.logger.Warn().Err(err).Msg("location report failed")
	if t.onError != nil {
		t.onError(err)
	}
}
