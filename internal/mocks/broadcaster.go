package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tracker-service/internal/models"
)

// BroadcasterMock stands in for the websocket hub.
type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) Broadcast(ctx context.Context, event models.Event) int {
	args := m.Called(ctx, event)
	return args.Int(0)
}

// OnlineUsers is used by presence handlers.
func (m *BroadcasterMock) OnlineUsers() []int {
	args := m.Called()
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids
}

type ActivityRecorderMock struct {
	mock.Mock
}

func (m *ActivityRecorderMock) Record(ctx context.Context, activity models.UserActivity, requestID string) (models.ChatMessage, error) {
	args := m.Called(ctx, activity, requestID)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}
