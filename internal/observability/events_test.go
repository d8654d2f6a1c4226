package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.keys = append(p.keys, routingKey)
	return p.err
}

func TestPublishEventWithoutPublisher(t *testing.T) {
	SetPublisher(nil)
	assert.NoError(t, PublishEvent(context.Background(), "ws_events.connections", EventEnvelope{EventName: "ws_connect"}))
}

func TestPublishEventCountsFailures(t *testing.T) {
	pub := &recordingPublisher{}
	SetPublisher(pub)
	t.Cleanup(func() { SetPublisher(nil) })

	require.NoError(t, PublishEvent(context.Background(), "ws_events.connections", EventEnvelope{EventName: "ws_connect"}))

	before := testutil.ToFloat64(amqpPublishErrorsTotal)
	pub.err = errors.New("channel closed")
	err := PublishEvent(context.Background(), "ws_events.connections", EventEnvelope{EventName: "ws_disconnect"})

	assert.ErrorIs(t, err, pub.err)
	assert.Equal(t, before+1, testutil.ToFloat64(amqpPublishErrorsTotal))
	assert.Equal(t, []string{"ws_events.connections", "ws_events.connections"}, pub.keys)
}
