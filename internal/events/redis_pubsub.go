package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisPublisher struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisPublisher(client *redis.Client, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	receivers, err := p.client.Publish(ctx, stream, data).Result()
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, stream, err)
	}
	if receivers == 0 {
		p.log.Debug("event published with no subscribers",
			zap.String("stream", stream), zap.String("type", event.Type))
	}
	return nil
}

type RedisSubscriber struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisSubscriber(client *redis.Client, log *zap.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, log: log}
}

// Subscribe returns once the subscription is confirmed. Events are handled
// one at a time until ctx is cancelled.
func (s *RedisSubscriber) Subscribe(ctx context.Context, stream string, handler Handler) error {
	pubsub := s.client.Subscribe(ctx, stream)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", stream, err)
	}
	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					s.log.Warn("subscription channel closed", zap.String("stream", stream))
					return
				}
				dispatch(ctx, s.log, stream, msg.Payload, handler)
			}
		}
	}()

	return nil
}

// dispatch decodes one message and runs handler on it. A malformed message
// or a panicking handler is logged and skipped.
func dispatch(ctx context.Context, log *zap.Logger, stream, payload string, handler Handler) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Error("failed to unmarshal event", zap.String("stream", stream), zap.Error(err))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("event handler panicked",
				zap.String("stream", stream),
				zap.String("event_id", event.ID.String()),
				zap.Any("panic", r),
			)
		}
	}()
	handler(ctx, event)
}
