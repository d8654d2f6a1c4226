package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker-service/internal/db"
	"tracker-service/internal/repositories"
)

func TestCheckInConcurrentRequestsInsertOnce(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	database, err := db.Connect(dsn, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	var userID int
	username := fmt.Sprintf("checkin-%d", time.Now().UnixNano())
	require.NoError(t, database.GetContext(ctx, &userID,
		`INSERT INTO users (username, password, name, role) VALUES ($1, 'x', 'Check In', 'Field Agent') RETURNING id`, username))
	t.Cleanup(func() {
		database.ExecContext(ctx, `DELETE FROM attendance WHERE user_id=$1`, userID)
		database.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, userID)
	})

	repo := repositories.NewAttendanceRepo(database)
	now := time.Now().UTC()
	from, to := repositories.DayBounds(now, time.UTC)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CheckIn(ctx, userID, now, "present", nil, from, to)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, repositories.ErrAlreadyCheckedIn):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)

	recs, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
