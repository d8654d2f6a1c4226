package ws

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"tracker-service/internal/models"
)

func TestHubBroadcastReachesOpenConnectionsOnly(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	anon, anonTr := newTestConn()
	authed, authedTr := newTestConn()
	closed, closedTr := newTestConn()

	hub.Attach(anon)
	hub.Attach(authed)
	hub.Attach(closed)
	hub.Registry().Register(3, authed)
	_ = closed.Close()

	n := hub.Broadcast(context.Background(), models.UserStatusEvent(3, models.PresenceOnline))

	assert.Equal(t, 2, n)
	assert.Len(t, anonTr.events(t), 1)
	assert.Len(t, authedTr.events(t), 1)
	assert.Empty(t, closedTr.events(t))
}

func TestHubBroadcastClosesConnectionOnWriteError(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	good, goodTr := newTestConn()
	bad, badTr := newTestConn()
	badTr.writeErr = errors.New("broken pipe")
	hub.Attach(good)
	hub.Attach(bad)

	n := hub.Broadcast(context.Background(), models.ErrorEvent("x"))

	assert.Equal(t, 1, n)
	assert.Len(t, goodTr.events(t), 1)
	assert.Equal(t, StateClosed, bad.State())
	assert.True(t, badTr.closed)
	assert.Equal(t, 2, hub.ConnCount())

	n = hub.Broadcast(context.Background(), models.ErrorEvent("y"))
	assert.Equal(t, 1, n)
}

func TestHubDetachReportsOffline(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn, _ := newTestConn()
	hub.Attach(conn)
	hub.Registry().Register(4, conn)

	userID, offline := hub.Detach(conn)
	assert.Equal(t, 4, userID)
	assert.True(t, offline)
	assert.Zero(t, hub.ConnCount())

	_, offline = hub.Detach(conn)
	assert.False(t, offline)
}

func TestHubCloseAll(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c1, tr1 := newTestConn()
	c2, tr2 := newTestConn()
	hub.Attach(c1)
	hub.Attach(c2)

	hub.CloseAll()

	assert.True(t, tr1.closed)
	assert.True(t, tr2.closed)
	assert.Zero(t, hub.Broadcast(context.Background(), models.ErrorEvent("late")))
}
