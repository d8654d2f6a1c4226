package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"tracker-service/internal/models"
)

const locationColumns = `id, user_id, latitude, longitude, location_name, status, timestamp`

// LocationRepository stores the append-only location history.
type LocationRepository interface {
	CreateLocation(ctx context.Context, userID int, in models.LocationInput) (models.LocationEvent, error)
	ListByUser(ctx context.Context, userID int) ([]models.LocationEvent, error)
	CurrentForAllUsers(ctx context.Context) ([]models.LocationEvent, error)
}

// LocationRepo is a sqlx implementation of LocationRepository.
type LocationRepo struct {
	db *sqlx.DB
}

// NewLocationRepo constructs a LocationRepo.
func NewLocationRepo(db *sqlx.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

// CreateLocation appends a location record for userID.
func (r *LocationRepo) CreateLocation(ctx context.Context, userID int, in models.LocationInput) (models.LocationEvent, error) {
	in = in.WithDefaults()
	var loc models.LocationEvent
	err := r.db.QueryRowxContext(ctx, `INSERT INTO locations (user_id, latitude, longitude, location_name, status)
        VALUES ($1, $2, $3, $4, $5) RETURNING `+locationColumns,
		userID, in.Latitude, in.Longitude, in.LocationName, in.Status).
		StructScan(&loc)
	return loc, err
}

// ListByUser returns a user's history, newest first.
func (r *LocationRepo) ListByUser(ctx context.Context, userID int) ([]models.LocationEvent, error) {
	locs := []models.LocationEvent{}
	err := r.db.SelectContext(ctx, &locs, `SELECT `+locationColumns+` FROM locations WHERE user_id=$1 ORDER BY timestamp DESC, id DESC`, userID)
	return locs, err
}

// CurrentForAllUsers returns the most recent record of every user that has one.
func (r *LocationRepo) CurrentForAllUsers(ctx context.Context) ([]models.LocationEvent, error) {
	query := `SELECT DISTINCT ON (user_id) ` + locationColumns + `
        FROM locations
        ORDER BY user_id, timestamp DESC, id DESC`
	locs := []models.LocationEvent{}
	err := r.db.SelectContext(ctx, &locs, query)
	return locs, err
}
