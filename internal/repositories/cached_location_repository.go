package repositories

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"tracker-service/internal/models"
)

// LocationCache holds the latest location per user. Put must not replace a
// newer record with an older one.
type LocationCache interface {
	Put(ctx context.Context, loc models.LocationEvent) error
	All(ctx context.Context) ([]models.LocationEvent, error)
}

// CachedLocationRepo serves current locations from a cache and keeps it
// warm on every write. The underlying repository stays the source of truth;
// a failed cache write sends reads back to it until the next full refill.
type CachedLocationRepo struct {
	LocationRepository
	cache  LocationCache
	warm   atomic.Bool
	misses atomic.Uint64
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewCachedLocationRepo decorates repo with cache.
func NewCachedLocationRepo(repo LocationRepository, cache LocationCache, logger zerolog.Logger) *CachedLocationRepo {
	return &CachedLocationRepo{
		LocationRepository: repo,
		cache:              cache,
		logger:             logger.With().Str("component", "location_cache").Logger(),
	}
}

// CreateLocation persists and then caches the stored record.
func (r *CachedLocationRepo) CreateLocation(ctx context.Context, userID int, in models.LocationInput) (models.LocationEvent, error) {
	loc, err := r.LocationRepository.CreateLocation(ctx, userID, in)
	if err != nil {
		return loc, err
	}
	if err := r.cache.Put(ctx, loc); err != nil {
		r.invalidate()
		r.logger.Warn().Err(err).Int("user_id", userID).Msg("cache write failed, reading from database")
	}
	return loc, nil
}

// CurrentForAllUsers reads the cache once it has been filled from the
// repository, falling back to the repository otherwise.
func (r *CachedLocationRepo) CurrentForAllUsers(ctx context.Context) ([]models.LocationEvent, error) {
	if r.warm.Load() {
		locs, err := r.cache.All(ctx)
		if err == nil {
			return locs, nil
		}
		r.logger.Debug().Err(err).Msg("serving current locations from database")
		r.warm.Store(false)
	}

	gen := r.misses.Load()
	locs, err := r.LocationRepository.CurrentForAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, loc := range locs {
		if err := r.cache.Put(ctx, loc); err != nil {
			r.logger.Warn().Err(err).Int("user_id", loc.UserID).Msg("cache refill failed")
			return locs, nil
		}
	}
	// A write that missed the cache during the refill leaves it cold.
	r.mu.Lock()
	if r.misses.Load() == gen {
		r.warm.Store(true)
	}
	r.mu.Unlock()
	return locs, nil
}

func (r *CachedLocationRepo) invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses.Add(1)
	r.warm.Store(false)
}
