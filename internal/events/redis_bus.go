package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/citizen-portaal/portaal-backend/internal/logging"
)

const channelPrefix = "portaal:project:events:"

// RedisBus publishes and subscribes over Redis pub/sub, one channel per project.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func channel(projectID string) string {
	return channelPrefix + projectID
}

func (b *RedisBus) Publish(ctx context.Context, ev StatusEvent) error {
	if ev.ProjectID == "" || ev.Status == "" {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.client.Publish(ctx, channel(ev.ProjectID), data).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, projectID string) (<-chan StatusEvent, func(), error) {
	sub := b.client.Subscribe(ctx, channel(projectID))
	// wait for the subscription confirmation so no publish is missed after return
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", projectID, err)
	}

	out := make(chan StatusEvent, 8)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(out)
		defer sub.Close()

		logger := logging.NewLogger(ctx)
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev StatusEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.LogWarnf("events.subscribe", "project_id=%s dropping malformed event: %v", projectID, err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, cancel, nil
}
