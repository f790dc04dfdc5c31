// Package relay implements the pub/sub capability the pipelines publish to
// and the synchronization engine subscribes to. The hosted backend is
// Redis; an in-process implementation exists for tests.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"spill/contract"
	"spill/domain/event"
	"spill/internal"
)

// subscriptionBuffer absorbs short bursts between relay delivery and the
// engine's event loop.
const subscriptionBuffer = 64

type Redis struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedis(rdb *redis.Client, log *slog.Logger) *Redis {
	return &Redis{rdb: rdb, log: log}
}

// NewRedisClient opens a client with the timeouts used across the services.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Publish frames the event and broadcasts it on the channel topic.
func (r *Redis) Publish(ctx context.Context, channel string, e event.RelayEvent) error {
	raw, err := event.Encode(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.EventName(), err)
	}
	if err := r.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		internal.RelayPublishFailures.Inc()
		return fmt.Errorf("publish %s on %s: %w", e.EventName(), channel, err)
	}
	return nil
}

// Subscribe opens a Redis subscription and decodes incoming frames into
// typed events. Malformed frames are dropped with a log line; the relay is
// never trusted for payload shape.
func (r *Redis) Subscribe(ctx context.Context, channel string) (contract.Subscription, error) {
	ps := r.rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	events := make(chan event.RelayEvent, subscriptionBuffer)
	go func() {
		defer close(events)
		for msg := range ps.Channel() {
			decoded, err := event.Decode([]byte(msg.Payload))
			if err != nil {
				internal.RelayDroppedFrames.Inc()
				r.log.Warn("Dropping malformed relay frame", "channel", channel, "error", err)
				continue
			}
			select {
			case events <- decoded:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &redisSubscription{ps: ps, events: events}, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan event.RelayEvent
}

func (s *redisSubscription) Events() <-chan event.RelayEvent { return s.events }

func (s *redisSubscription) Close() error { return s.ps.Close() }
