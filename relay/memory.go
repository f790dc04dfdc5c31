package relay

import (
	"context"
	"log/slog"
	"sync"

	"spill/contract"
	"spill/domain/event"
)

// Memory is an in-process relay with the same contract as the Redis one.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering across channels, durability, or retries. Memory is not a
// message broker; it backs tests and single-process setups.
//
// Memory is safe for concurrent use by multiple goroutines.
type Memory struct {
	mu     sync.RWMutex
	log    *slog.Logger
	nextID int
	subs   map[string]map[int]chan event.RelayEvent // channel -> subscriber id -> feed
}

func NewMemory(log *slog.Logger) *Memory {
	return &Memory{
		log:  log,
		subs: make(map[string]map[int]chan event.RelayEvent),
	}
}

// Publish fans the event out to every live subscription of the channel.
// A subscriber that cannot keep up loses the event rather than blocking
// the publisher.
func (m *Memory) Publish(_ context.Context, channel string, e event.RelayEvent) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, feed := range m.subs[channel] {
		select {
		case feed <- e:
		default:
			m.log.Debug("Subscriber behind, dropping event", "channel", channel, "event", e.EventName())
		}
	}
	return nil
}

func (m *Memory) Subscribe(_ context.Context, channel string) (contract.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	feed := make(chan event.RelayEvent, subscriptionBuffer)
	if _, ok := m.subs[channel]; !ok {
		m.subs[channel] = make(map[int]chan event.RelayEvent)
	}
	id := m.nextID
	m.nextID++
	m.subs[channel][id] = feed

	return &memorySubscription{relay: m, channel: channel, id: id, feed: feed}, nil
}

// unsubscribe removes one subscription and leaves no empty sets behind
// to prevent the channel map from growing over time.
func (m *Memory) unsubscribe(channel string, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.subs[channel]
	if !ok {
		return
	}
	if feed, ok := members[id]; ok {
		delete(members, id)
		close(feed)
	}
	if len(members) == 0 {
		delete(m.subs, channel)
	}
}

type memorySubscription struct {
	relay   *Memory
	channel string
	id      int
	once    sync.Once
	feed    chan event.RelayEvent
}

func (s *memorySubscription) Events() <-chan event.RelayEvent { return s.feed }

func (s *memorySubscription) Close() error {
	s.once.Do(func() { s.relay.unsubscribe(s.channel, s.id) })
	return nil
}
