package client

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"spill/domain"
	"spill/domain/event"
	"spill/relay"
)

type stubHistory struct {
	messages []event.MessageCreated
	release  chan struct{} // when set, History blocks until it is closed
}

func (s *stubHistory) History(context.Context, string, int, int) ([]event.MessageCreated, bool, error) {
	if s.release != nil {
		<-s.release
	}
	return s.messages, false, nil
}

type ackCall struct {
	ids      []string
	senderID string
}

type stubAcker struct {
	mu    sync.Mutex
	calls []ackCall
}

func (s *stubAcker) MarkRead(_ context.Context, ids []string, senderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ackCall{ids: ids, senderID: senderID})
	return nil
}

func (s *stubAcker) snapshot() []ackCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ackCall(nil), s.calls...)
}

func createdEvent(id, senderID, receiverID string, at time.Time) event.MessageCreated {
	return event.MessageCreated{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    "content " + id,
		Type:       domain.TypeText,
		Timestamp:  at,
		Status:     domain.StatusSent,
	}
}

func Test_Engine_Merges_History_And_Live_Without_Duplicates(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	bus := relay.NewMemory(log)
	base := time.Now().UTC()

	m1 := createdEvent("a", "bob", "alice", base)
	m2 := createdEvent("b", "bob", "alice", base.Add(time.Second))
	history := &stubHistory{messages: []event.MessageCreated{m1}}

	engine := NewEngine(log, "bob", "alice", bus, history, &stubAcker{}, time.Hour)
	req.NoError(engine.Start(ctx))
	t.Cleanup(func() { _ = engine.Close() })

	req.Eventually(func() bool { return engine.State() == StateLive },
		2*time.Second, 10*time.Millisecond)

	// The live copy of m1 must collapse into the history entry.
	req.NoError(bus.Publish(ctx, "chat-alice-bob", m1))
	req.NoError(bus.Publish(ctx, "chat-alice-bob", m2))

	req.Eventually(func() bool { return len(engine.Snapshot()) == 2 },
		2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	messages := engine.Snapshot()
	req.Len(messages, 2)
	req.Equal("a", messages[0].ID)
	req.Equal("b", messages[1].ID)
}

func Test_Engine_Orders_Out_Of_Order_Arrivals(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	bus := relay.NewMemory(log)
	base := time.Now().UTC()

	engine := NewEngine(log, "bob", "alice", bus, &stubHistory{}, &stubAcker{}, time.Hour)
	req.NoError(engine.Start(ctx))
	t.Cleanup(func() { _ = engine.Close() })
	req.Eventually(func() bool { return engine.State() == StateLive },
		2*time.Second, 10*time.Millisecond)

	// Later message first; the snapshot must still be chronological.
	req.NoError(bus.Publish(ctx, "chat-alice-bob", createdEvent("b", "bob", "alice", base.Add(time.Second))))
	req.NoError(bus.Publish(ctx, "chat-alice-bob", createdEvent("a", "bob", "alice", base)))

	req.Eventually(func() bool {
		messages := engine.Snapshot()
		return len(messages) == 2 && messages[0].ID == "a" && messages[1].ID == "b"
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_Engine_Advances_Status_Monotonically(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	bus := relay.NewMemory(log)

	// A message sent by the local user never triggers acknowledgements.
	m := createdEvent("a", "bob", "alice", time.Now().UTC())
	engine := NewEngine(log, "bob", "alice", bus, &stubHistory{messages: []event.MessageCreated{m}}, &stubAcker{}, time.Hour)
	req.NoError(engine.Start(ctx))
	t.Cleanup(func() { _ = engine.Close() })
	req.Eventually(func() bool { return engine.State() == StateLive },
		2*time.Second, 10*time.Millisecond)

	req.NoError(bus.Publish(ctx, "chat-alice-bob",
		event.MessagesRead{MessageIDs: []string{"a"}, ReadBy: "alice", ReadAt: time.Now().UTC()}))
	req.Eventually(func() bool { return engine.Snapshot()[0].Status == domain.StatusRead },
		2*time.Second, 10*time.Millisecond)

	// A delivery confirmation arriving after the read must not downgrade.
	req.NoError(bus.Publish(ctx, "chat-alice-bob",
		event.MessageStatus{MessageID: "a", Status: domain.StatusDelivered}))
	time.Sleep(50 * time.Millisecond)
	req.Equal(domain.StatusRead, engine.Snapshot()[0].Status)
}

func Test_Engine_Batches_Read_Acknowledgements(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	bus := relay.NewMemory(log)
	base := time.Now().UTC()
	acker := &stubAcker{}

	engine := NewEngine(log, "bob", "alice", bus, &stubHistory{}, acker, 100*time.Millisecond)
	req.NoError(engine.Start(ctx))
	t.Cleanup(func() { _ = engine.Close() })
	req.Eventually(func() bool { return engine.State() == StateLive },
		2*time.Second, 10*time.Millisecond)

	// Two rapid arrivals addressed to the local user flush as one batch.
	req.NoError(bus.Publish(ctx, "chat-alice-bob", createdEvent("a", "alice", "bob", base)))
	req.NoError(bus.Publish(ctx, "chat-alice-bob", createdEvent("b", "alice", "bob", base.Add(time.Millisecond))))

	req.Eventually(func() bool { return len(acker.snapshot()) == 1 },
		2*time.Second, 10*time.Millisecond)
	calls := acker.snapshot()
	req.Equal("alice", calls[0].senderID)
	req.ElementsMatch([]string{"a", "b"}, calls[0].ids)

	// A duplicate of an already known message must not re-acknowledge.
	req.NoError(bus.Publish(ctx, "chat-alice-bob", createdEvent("a", "alice", "bob", base)))
	time.Sleep(200 * time.Millisecond)
	req.Len(acker.snapshot(), 1)
}

func Test_Engine_Discards_History_Resolving_After_Close(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	bus := relay.NewMemory(log)

	release := make(chan struct{})
	history := &stubHistory{
		messages: []event.MessageCreated{createdEvent("a", "alice", "bob", time.Now().UTC())},
		release:  release,
	}
	engine := NewEngine(log, "bob", "alice", bus, history, &stubAcker{}, time.Hour)
	req.NoError(engine.Start(ctx))
	req.Equal(StateLoadingHistory, engine.State())

	req.NoError(engine.Close())
	close(release)

	time.Sleep(100 * time.Millisecond)
	req.Equal(StateClosed, engine.State())
	req.Empty(engine.Snapshot())
}
