package syncclient

import (
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tracker-service/internal/mocks"
	"tracker-service/internal/models"
	"tracker-service/internal/ws"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

type testServer struct {
	url       string
	hub       *ws.Hub
	messages  *mocks.MessageRepositoryMock
	locations *mocks.LocationRepositoryMock
	auths     atomic.Int32
	server    *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		hub:       ws.NewHub(zerolog.Nop()),
		messages:  new(mocks.MessageRepositoryMock),
		locations: new(mocks.LocationRepositoryMock),
	}
	ts.messages.On("RecentMessages", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { ts.auths.Add(1) }).
		Return([]models.ChatMessage{}, nil)

	router := ws.NewRouter(ts.hub, ts.messages, ts.locations, zerolog.Nop())
	handler := ws.NewHandler(router, zerolog.Nop(), time.Second, 8192)
	engine := gin.New()
	engine.GET("/ws", handler.Handle)
	ts.server = httptest.NewServer(engine)
	t.Cleanup(ts.server.Close)

	ts.url = "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws"
	return ts
}

func newTestStore(t *testing.T, url string) *Store {
	t.Helper()
	s := NewStore(Config{URL: url, ReconnectDelay: 50 * time.Millisecond, Location: time.UTC, Logger: zerolog.Nop()})
	t.Cleanup(s.Disconnect)
	return s
}

func waitOnline(t *testing.T, s *Store, userIDs ...int) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		for _, id := range userIDs {
			if snap.Presence[id] != models.PresenceOnline {
				return false
			}
		}
		return true
	}, waitFor, tick)
}

func TestStoresReceiveChatFromEachOther(t *testing.T) {
	srv := newTestServer(t)
	srv.messages.On("CreateMessage", mock.Anything, 1, "hi", false).
		Return(models.ChatMessage{ID: 1, SenderID: 1, Content: "hi", Timestamp: time.Now()}, nil).Once()

	a := newTestStore(t, srv.url)
	b := newTestStore(t, srv.url)
	require.NoError(t, a.Connect(1))
	waitOnline(t, a, 1)
	require.NoError(t, b.Connect(2))
	waitOnline(t, a, 2)
	waitOnline(t, b, 2)

	require.True(t, a.SendMessage("hi"))

	for _, s := range []*Store{a, b} {
		require.Eventually(t, func() bool { return len(s.Snapshot().Messages) == 1 }, waitFor, tick)
		last := s.Snapshot().Messages[0]
		assert.Equal(t, 1, last.SenderID)
		assert.Equal(t, "hi", last.Content)
		assert.False(t, last.IsSystemMessage)
	}
}

func TestInvalidLocationSurfacesErrorToSenderOnly(t *testing.T) {
	srv := newTestServer(t)
	stored := models.LocationEvent{ID: 1, UserID: 2, Latitude: "10", Longitude: "20", Status: "active"}
	srv.locations.On("CreateLocation", mock.Anything, 2, mock.Anything).Return(stored, nil).Once()

	a := newTestStore(t, srv.url)
	b := newTestStore(t, srv.url)
	var (
		mu     sync.Mutex
		errs   []string
		bLocs []models.LocationEvent
	)
	a.OnError(func(text string) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, text)
	})
	b.OnLocation(func(loc models.LocationEvent) {
		mu.Lock()
		defer mu.Unlock()
		bLocs = append(bLocs, loc)
	})
	require.NoError(t, a.Connect(1))
	waitOnline(t, a, 1)
	require.NoError(t, b.Connect(2))
	waitOnline(t, a, 2)
	waitOnline(t, b, 2)

	require.True(t, a.UpdateLocation(1, models.LocationInput{Longitude: "-74.0060"}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(errs) == 1
	}, waitFor, tick)

	// B's own valid update is the only location either store learns about.
	require.True(t, b.UpdateLocation(2, models.LocationInput{Latitude: "10", Longitude: "20"}))
	require.Eventually(t, func() bool { return len(a.Snapshot().Locations) == 1 }, waitFor, tick)

	mu.Lock()
	assert.Len(t, bLocs, 1)
	assert.Contains(t, errs[0], "latitude")
	mu.Unlock()
	_, hasA := b.Snapshot().Locations[1]
	assert.False(t, hasA)
}

func TestDisconnectAnnouncesOfflineToOthers(t *testing.T) {
	srv := newTestServer(t)
	a := newTestStore(t, srv.url)
	b := newTestStore(t, srv.url)

	var offline atomic.Int32
	b.OnStatus(func(s models.UserStatus) {
		if s.UserID == 1 && s.Status == models.PresenceOffline {
			offline.Add(1)
		}
	})
	require.NoError(t, b.Connect(2))
	waitOnline(t, b, 2)
	require.NoError(t, a.Connect(1))
	waitOnline(t, b, 1)

	a.Disconnect()

	require.Eventually(t, func() bool { return b.Snapshot().Presence[1] == models.PresenceOffline }, waitFor, tick)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), offline.Load())
	assert.False(t, a.Connected())
	assert.False(t, a.SendMessage("late"))
}

func TestStoreReconnectsAfterServerDrop(t *testing.T) {
	srv := newTestServer(t)
	s := newTestStore(t, srv.url)
	require.NoError(t, s.Connect(1))
	require.Eventually(t, func() bool { return srv.auths.Load() == 1 }, waitFor, tick)

	srv.hub.CloseAll()

	require.Eventually(t, func() bool { return srv.auths.Load() >= 2 && s.Connected() }, waitFor, tick)
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	s := NewStore(Config{URL: "ws://127.0.0.1:1/ws", ReconnectDelay: time.Hour, Logger: zerolog.Nop()})

	require.Error(t, s.Connect(1))
	s.mu.Lock()
	pending := s.reconnect != nil
	s.mu.Unlock()
	require.True(t, pending)

	s.Disconnect()
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Nil(t, s.reconnect)
	assert.False(t, s.active)
}

func TestSendWithoutConnectionFails(t *testing.T) {
	s := NewStore(Config{URL: "ws://127.0.0.1:1/ws", Logger: zerolog.Nop()})
	assert.False(t, s.SendMessage("hello"))
	assert.False(t, s.UpdateLocation(1, models.LocationInput{Latitude: "1", Longitude: "1"}))
}

func TestApplyMergesEvents(t *testing.T) {
	s := NewStore(Config{Location: time.UTC, Logger: zerolog.Nop()})
	day1 := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	s.apply(frame(t, models.HistoryEvent([]models.ChatMessage{{ID: 1, Timestamp: day1}})))
	s.apply(frame(t, models.NewMessageEvent(models.ChatMessage{ID: 2, Timestamp: day1.Add(24 * time.Hour)})))
	s.apply(frame(t, models.LocationUpdateEvent(models.LocationEvent{ID: 1, UserID: 3, Latitude: "1"})))
	s.apply(frame(t, models.LocationUpdateEvent(models.LocationEvent{ID: 2, UserID: 3, Latitude: "2"})))
	s.apply(frame(t, models.UserStatusEvent(3, models.PresenceOnline)))

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	require.Len(t, snap.Days, 2)
	assert.Equal(t, "2024-02-01", snap.Days[0].Date)
	assert.Equal(t, "2", snap.Locations[3].Latitude)
	assert.Equal(t, models.PresenceOnline, snap.Presence[3])

	s.apply(frame(t, models.HistoryEvent([]models.ChatMessage{{ID: 9, Timestamp: day1}})))
	assert.Len(t, s.Snapshot().Messages, 1)
}
