package distributed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventBus_DeliversToOtherInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	log := zap.NewNop().Sugar()

	a := NewEventBus(client, "instance-a", log)
	b := NewEventBus(client, "instance-b", log)

	gotA := make(chan *Event, 1)
	gotB := make(chan *Event, 1)
	require.NoError(t, a.Subscribe(context.Background(), func(e *Event) { gotA <- e }))
	require.NoError(t, b.Subscribe(context.Background(), func(e *Event) { gotB <- e }))
	defer a.Close()
	defer b.Close()

	assert.Error(t, a.Subscribe(context.Background(), func(*Event) {}), "second subscribe is refused")

	a.PublishAgentsChanged()

	select {
	case e := <-gotB:
		assert.Equal(t, EventAgentsChanged, e.Type)
		assert.Equal(t, "instance-a", e.InstanceID)
	case <-time.After(2 * time.Second):
		t.Fatal("instance-b did not receive the event")
	}

	select {
	case e := <-gotA:
		t.Fatalf("publisher received its own event: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventBus_CloseIsIdempotent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	bus := NewEventBus(client, "solo", zap.NewNop().Sugar())
	assert.NoError(t, bus.Close())
	require.NoError(t, bus.Subscribe(context.Background(), func(*Event) {}))
	assert.NoError(t, bus.Close())
	assert.NoError(t, bus.Close())
}
