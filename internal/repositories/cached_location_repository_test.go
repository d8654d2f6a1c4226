package repositories_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tracker-service/internal/mocks"
	"tracker-service/internal/models"
	"tracker-service/internal/repositories"
)

func TestCachedLocationRepoWritesThrough(t *testing.T) {
	repo := new(mocks.LocationRepositoryMock)
	cache := new(mocks.LocationCacheMock)
	stored := models.LocationEvent{ID: 1, UserID: 2, Latitude: "1", Longitude: "2"}
	in := models.LocationInput{Latitude: "1", Longitude: "2"}

	repo.On("CreateLocation", mock.Anything, 2, in).Return(stored, nil).Once()
	cache.On("Put", mock.Anything, stored).Return(assert.AnError).Once()

	cached := repositories.NewCachedLocationRepo(repo, cache, zerolog.Nop())
	got, err := cached.CreateLocation(context.Background(), 2, in)

	require.NoError(t, err, "cache failures must not fail the write")
	assert.Equal(t, stored, got)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCachedLocationRepoWarmsThenServesFromCache(t *testing.T) {
	repo := new(mocks.LocationRepositoryMock)
	cache := new(mocks.LocationCacheMock)
	fromDB := []models.LocationEvent{{UserID: 1}, {UserID: 2}}
	fromCache := []models.LocationEvent{{UserID: 1}, {UserID: 2}, {UserID: 3}}

	repo.On("CurrentForAllUsers", mock.Anything).Return(fromDB, nil).Once()
	cache.On("Put", mock.Anything, mock.Anything).Return(nil).Twice()
	cache.On("All", mock.Anything).Return(fromCache, nil).Once()

	cached := repositories.NewCachedLocationRepo(repo, cache, zerolog.Nop())

	first, err := cached.CurrentForAllUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fromDB, first)

	second, err := cached.CurrentForAllUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fromCache, second)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCachedLocationRepoFallsBackOnCacheError(t *testing.T) {
	repo := new(mocks.LocationRepositoryMock)
	cache := new(mocks.LocationCacheMock)
	fromDB := []models.LocationEvent{{UserID: 1}}

	repo.On("CurrentForAllUsers", mock.Anything).Return(fromDB, nil).Twice()
	cache.On("Put", mock.Anything, mock.Anything).Return(nil)
	cache.On("All", mock.Anything).Return(nil, assert.AnError).Once()

	cached := repositories.NewCachedLocationRepo(repo, cache, zerolog.Nop())
	_, err := cached.CurrentForAllUsers(context.Background())
	require.NoError(t, err)

	got, err := cached.CurrentForAllUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fromDB, got)
	repo.AssertExpectations(t)
}

func TestCachedLocationRepoFailedPutStopsCacheReads(t *testing.T) {
	repo := new(mocks.LocationRepositoryMock)
	cache := new(mocks.LocationCacheMock)
	first := models.LocationEvent{ID: 1, UserID: 2, Latitude: "1", Longitude: "1"}
	second := models.LocationEvent{ID: 2, UserID: 2, Latitude: "2", Longitude: "2"}
	in := models.LocationInput{Latitude: "2", Longitude: "2"}

	repo.On("CurrentForAllUsers", mock.Anything).Return([]models.LocationEvent{first}, nil).Once()
	cache.On("Put", mock.Anything, first).Return(nil).Once()
	cache.On("All", mock.Anything).Return([]models.LocationEvent{first}, nil).Once()

	cached := repositories.NewCachedLocationRepo(repo, cache, zerolog.Nop())
	_, err := cached.CurrentForAllUsers(context.Background())
	require.NoError(t, err)
	got, err := cached.CurrentForAllUsers(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.LocationEvent{first}, got)

	repo.On("CreateLocation", mock.Anything, 2, in).Return(second, nil).Once()
	cache.On("Put", mock.Anything, second).Return(assert.AnError).Once()
	_, err = cached.CreateLocation(context.Background(), 2, in)
	require.NoError(t, err)

	repo.On("CurrentForAllUsers", mock.Anything).Return([]models.LocationEvent{second}, nil).Once()
	cache.On("Put", mock.Anything, second).Return(nil).Once()

	got, err = cached.CurrentForAllUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCachedLocationRepoMissDuringRefillKeepsCacheCold(t *testing.T) {
	repo := new(mocks.LocationRepositoryMock)
	cache := new(mocks.LocationCacheMock)
	stale := models.LocationEvent{ID: 1, UserID: 2}
	fresh := models.LocationEvent{ID: 2, UserID: 2}
	in := models.LocationInput{Latitude: "2", Longitude: "2"}

	cached := repositories.NewCachedLocationRepo(repo, cache, zerolog.Nop())

	repo.On("CreateLocation", mock.Anything, 2, in).Return(fresh, nil).Once()
	cache.On("Put", mock.Anything, fresh).Return(assert.AnError).Once()
	repo.On("CurrentForAllUsers", mock.Anything).Return([]models.LocationEvent{stale}, nil).Once().
		Run(func(mock.Arguments) {
			_, err := cached.CreateLocation(context.Background(), 2, in)
			require.NoError(t, err)
		})
	cache.On("Put", mock.Anything, stale).Return(nil).Once()

	_, err := cached.CurrentForAllUsers(context.Background())
	require.NoError(t, err)

	repo.On("CurrentForAllUsers", mock.Anything).Return([]models.LocationEvent{fresh}, nil).Once()
	cache.On("Put", mock.Anything, fresh).Return(nil).Once()

	got, err := cached.CurrentForAllUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.LocationEvent{fresh}, got)
	cache.AssertNotCalled(t, "All", mock.Anything)
	repo.AssertExpectations(t)
}
