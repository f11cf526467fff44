// Package events carries content change notifications between the API
// processes and connected clients over Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/courseware/internal/config"
	"github.com/stemsi/courseware/internal/model"
)

// RedisPublisher publishes content events on per-batch channels.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Publish sends event to the batch's channel.
func (p *RedisPublisher) Publish(ctx context.Context, event model.ContentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.rdb.Publish(ctx, config.CacheKey.BatchEventsChannel(event.BatchID), payload).Err()
}

// Stream yields the content events of one batch until closed.
type Stream interface {
	Events() <-chan model.ContentEvent
	Close() error
}

// Source opens batch streams. RedisPublisher is the production Source.
type Source interface {
	Subscribe(ctx context.Context, batchID int64) (Stream, error)
}

// Subscription streams decoded events for one batch.
type Subscription struct {
	pubsub *redis.PubSub
	events chan model.ContentEvent
}

// Subscribe listens on the batch channel until ctx is done or Close is called.
// Undecodable messages are dropped.
func (p *RedisPublisher) Subscribe(ctx context.Context, batchID int64) (Stream, error) {
	pubsub := p.rdb.Subscribe(ctx, config.CacheKey.BatchEventsChannel(batchID))
	// Wait for the subscription to be confirmed so no event published right
	// after this call is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	sub := &Subscription{pubsub: pubsub, events: make(chan model.ContentEvent, 16)}
	go func() {
		defer close(sub.events)
		for msg := range pubsub.Channel() {
			var ev model.ContentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			select {
			case sub.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub, nil
}

// Events yields decoded events. It is closed when the subscription ends.
func (s *Subscription) Events() <-chan model.ContentEvent {
	return s.events
}

// Close ends the subscription.
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}
