package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tracker-service/internal/mocks"
	"tracker-service/internal/models"
)

func TestRecentMessagesLimit(t *testing.T) {
	cases := []struct {
		query string
		limit int
	}{
		{"", 50},
		{"?limit=10", 10},
		{"?limit=9999", 500},
	}
	for _, tc := range cases {
		messages := new(mocks.MessageRepositoryMock)
		messages.On("RecentMessages", mock.Anything, tc.limit).Return([]models.ChatMessage{}, nil).Once()
		r := newTestEngine(1)
		r.GET("/api/messages", NewMessageHandler(messages).RecentMessages)

		rec := perform(r, http.MethodGet, "/api/messages"+tc.query, "")

		require.Equal(t, http.StatusOK, rec.Code)
		messages.AssertExpectations(t)
	}
}

func TestRecentMessagesInvalidLimit(t *testing.T) {
	r := newTestEngine(1)
	r.GET("/api/messages", NewMessageHandler(new(mocks.MessageRepositoryMock)).RecentMessages)

	rec := perform(r, http.MethodGet, "/api/messages?limit=-1", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPresenceOnline(t *testing.T) {
	source := new(mocks.BroadcasterMock)
	source.On("OnlineUsers").Return([]int{1, 4}).Once()
	r := newTestEngine(1)
	r.GET("/api/presence", NewPresenceHandler(source).Online)

	rec := perform(r, http.MethodGet, "/api/presence", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"online":[1,4]}`, rec.Body.String())
}
