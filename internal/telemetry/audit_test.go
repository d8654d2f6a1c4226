package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tracker-service/internal/mocks"
	"tracker-service/internal/models"
)

func TestEmitActivityPublishesEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(pub, "audit.activity", "tracker-service", "test", zerolog.Nop())
	emitter.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	var captured AuditEnvelope
	pub.On("Publish", mock.Anything, "audit.activity", mock.AnythingOfType("telemetry.AuditEnvelope")).
		Run(func(args mock.Arguments) { captured = args.Get(2).(AuditEnvelope) }).
		Return(nil).Once()

	emitter.EmitActivity(context.Background(), models.UserActivity{
		Type:    models.ActivityCheckIn,
		UserID:  7,
		Details: "present",
	}, "Alice checked in at 09:00", "req-1")

	pub.AssertExpectations(t)
	require.NotNil(t, captured.UserID)
	assert.Equal(t, "7", *captured.UserID)
	assert.Equal(t, "audit_log", captured.EventType)
	assert.Equal(t, "2024-05-01T09:00:00Z", captured.OccurredAt)
	assert.Equal(t, "req-1", captured.RequestID)
	assert.Equal(t, "check_in", captured.Payload.ActivityType)
	assert.Equal(t, "Alice checked in at 09:00", captured.Payload.Text)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(pub, "audit.activity", "tracker-service", "test", zerolog.Nop())
	pub.On("Publish", mock.Anything, "audit.activity", mock.Anything).Return(errors.New("broker down")).Once()

	emitter.Emit(context.Background(), "warn", "something", "", nil)

	pub.AssertExpectations(t)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "info", "x", "", nil)
	})
}
