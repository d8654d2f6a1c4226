// Package geofence raises throttled alerts when a user drifts too far from
// the first position observed for them in the current session.
package geofence

import (
	"fmt"
	"math"
	"sync"
	"time"

	"tracker-service/internal/models"
)

const (
	EarthRadiusMiles     = 3958.8
	DefaultThresholdMile = 1.0
	DefaultThrottle      = 15 * time.Minute
)

// Alert describes one movement notification.
type Alert struct {
	UserID    int
	Miles     float64
	Baseline  Point
	Current   Point
	Message   string
	Triggered time.Time
}

type Point struct {
	Lat float64
	Lon float64
}

// NameFunc resolves a display name for alert text.
type NameFunc func(userID int) string

type Option func(*Monitor)

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func WithThreshold(miles float64) Option {
	return func(m *Monitor) { m.threshold = miles }
}

func WithThrottle(d time.Duration) Option {
	return func(m *Monitor) { m.throttle = d }
}

func WithNames(names NameFunc) Option {
	return func(m *Monitor) { m.names = names }
}

type userState struct {
	baseline     Point
	lastNotified time.Time
}

// Monitor is safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	users     map[int]*userState
	enabled   bool
	threshold float64
	throttle  time.Duration
	now       func() time.Time
	names     NameFunc
}

func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		users:     make(map[int]*userState),
		enabled:   true,
		threshold: DefaultThresholdMile,
		throttle:  DefaultThrottle,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetEnabled toggles alerting. Baselines are still recorded while disabled.
func (m *Monitor) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

func (m *Monitor) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Observe feeds one location event. The first valid event for a user becomes
// its baseline; later events alert when the distance from the baseline
// exceeds the threshold and the throttle window has passed.
func (m *Monitor) Observe(ev models.LocationEvent) (Alert, bool) {
	lat, lon, err := ev.Coordinates()
	if err != nil || math.IsNaN(lat) || math.IsNaN(lon) {
		return Alert{}, false
	}
	current := Point{Lat: lat, Lon: lon}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.users[ev.UserID]
	if !ok {
		m.users[ev.UserID] = &userState{baseline: current}
		return Alert{}, false
	}
	if !m.enabled {
		return Alert{}, false
	}

	miles := Haversine(state.baseline, current)
	if miles <= m.threshold {
		return Alert{}, false
	}
	now := m.now()
	if !state.lastNotified.IsZero() && now.Sub(state.lastNotified) < m.throttle {
		return Alert{}, false
	}
	state.lastNotified = now

	return Alert{
		UserID:    ev.UserID,
		Miles:     miles,
		Baseline:  state.baseline,
		Current:   current,
		Message:   fmt.Sprintf("%s has moved %.1f miles from their check-in location.", m.displayName(ev.UserID), miles),
		Triggered: now,
	}, true
}

// Reset forgets the baseline and throttle state for userID.
func (m *Monitor) Reset(userID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
}

// Baseline returns the remembered baseline for userID.
func (m *Monitor) Baseline(userID int) (Point, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.users[userID]
	if !ok {
		return Point{}, false
	}
	return state.baseline, true
}

func (m *Monitor) displayName(userID int) string {
	if m.names != nil {
		if name := m.names(userID); name != "" {
			return name
		}
	}
	return fmt.Sprintf("User #%d", userID)
}

// Haversine returns the great-circle distance between a and b in miles.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMiles * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
