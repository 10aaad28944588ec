// Package distributed fans marketplace events out to every instance that
// shares the Redis backend.
package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventsChannel = "agentmart:events"

type EventType string

const (
	// EventAgentsChanged follows any agent mutation. Receivers drop their
	// cached aggregates.
	EventAgentsChanged EventType = "agents.changed"
)

type Event struct {
	Type       EventType `json:"type"`
	InstanceID string    `json:"instance_id"`
	Timestamp  time.Time `json:"timestamp"`
}

type EventBus struct {
	client     *redis.Client
	instanceID string
	logger     *zap.SugaredLogger

	mu     sync.Mutex
	pubsub *redis.PubSub
}

func NewEventBus(client *redis.Client, instanceID string, logger *zap.SugaredLogger) *EventBus {
	return &EventBus{
		client:     client,
		instanceID: instanceID,
		logger:     logger,
	}
}

func (eb *EventBus) Publish(ctx context.Context, event *Event) error {
	event.InstanceID = eb.instanceID
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := eb.client.Publish(ctx, eventsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	eb.logger.Debugw("published event", "type", event.Type)
	return nil
}

// PublishAgentsChanged is fire and forget: a lost event leaves peers on
// their cache TTL.
func (eb *EventBus) PublishAgentsChanged() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := eb.Publish(ctx, &Event{Type: EventAgentsChanged}); err != nil {
		eb.logger.Warnw("failed to broadcast agent change", "error", err)
	}
}

// Subscribe confirms the subscription and then delivers events from other
// instances to handler on a background goroutine until Close.
func (eb *EventBus) Subscribe(ctx context.Context, handler func(*Event)) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.pubsub != nil {
		return fmt.Errorf("already subscribed")
	}

	pubsub := eb.client.Subscribe(ctx, eventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", eventsChannel, err)
	}
	eb.pubsub = pubsub

	go eb.deliver(pubsub.Channel(), handler)
	return nil
}

func (eb *EventBus) deliver(ch <-chan *redis.Message, handler func(*Event)) {
	for msg := range ch {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			eb.logger.Warnw("failed to unmarshal event", "error", err, "payload", msg.Payload)
			continue
		}
		if event.InstanceID == eb.instanceID {
			continue
		}
		handler(&event)
	}
}

func (eb *EventBus) Close() error {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.pubsub == nil {
		return nil
	}
	err := eb.pubsub.Close()
	eb.pubsub = nil
	return err
}
