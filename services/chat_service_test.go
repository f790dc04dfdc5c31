package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"spill/auth"
	"spill/domain"
	"spill/domain/event"
	"spill/errors"
	"spill/mocks"
	"spill/runtime/workers"
)

type serviceFixture struct {
	messages   *mocks.MockIMessageRepository
	users      *mocks.MockIUserRepository
	publisher  *mocks.MockPublisher
	deliveries chan workers.DeliveryJob
	svc        *ChatService
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f := serviceFixture{
		messages:   mocks.NewMockIMessageRepository(ctrl),
		users:      mocks.NewMockIUserRepository(ctrl),
		publisher:  mocks.NewMockPublisher(ctrl),
		deliveries: make(chan workers.DeliveryJob, 1),
	}
	f.svc = NewChatService(log, f.messages, f.users, f.publisher, f.deliveries)
	return f
}

func Test_Send_Persists_Broadcasts_And_Schedules_Delivery(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	sender := auth.Identity{ID: "alice", Name: "Alice"}

	f.users.EXPECT().UpsertSender(gomock.Any()).DoAndReturn(func(user domain.User) error {
		req.Equal("alice", user.ID)
		req.Equal("Alice", user.Name)
		return nil
	})
	f.users.EXPECT().EnsureReceiver("bob").Return(nil)

	var stored domain.Message
	f.messages.EXPECT().StoreMessage(gomock.Any()).DoAndReturn(func(m domain.Message) error {
		stored = m
		return nil
	})

	f.publisher.EXPECT().
		Publish(gomock.Any(), "chat-alice-bob", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, e event.RelayEvent) error {
			req.Equal(event.NameMessageCreated, e.EventName())
			return nil
		})

	created, channel, err := f.svc.Send(context.Background(), sender, "bob", "  hello  ", "")
	req.NoError(err)
	req.Equal("chat-alice-bob", channel)
	req.Equal("hello", created.Content)
	req.Equal(domain.TypeText, created.Type)
	req.Equal(domain.StatusSent, created.Status)
	req.Equal(stored.ID.String(), created.ID)

	select {
	case job := <-f.deliveries:
		req.Equal(stored.ID, job.MessageID)
		req.Equal("chat-alice-bob", job.Channel)
	default:
		req.Fail("delivery confirmation never scheduled")
	}
}

func Test_Send_Survives_Broadcast_Failure(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)

	f.users.EXPECT().UpsertSender(gomock.Any()).Return(nil)
	f.users.EXPECT().EnsureReceiver("bob").Return(nil)
	f.messages.EXPECT().StoreMessage(gomock.Any()).Return(nil)
	f.publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(context.DeadlineExceeded)

	_, _, err := f.svc.Send(context.Background(), auth.Identity{ID: "alice"}, "bob", "hello", domain.TypeText)
	req.NoError(err)
}

func Test_Send_Rejects_Invalid_Input(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	sender := auth.Identity{ID: "alice"}

	f := newServiceFixture(t)
	_, _, err := f.svc.Send(ctx, sender, "bob", "   ", domain.TypeText)
	req.ErrorIs(err, errors.ErrEmptyContent)

	_, _, err = f.svc.Send(ctx, sender, "bob-2", "hello", domain.TypeText)
	req.ErrorIs(err, errors.ErrHyphenIdentifier)

	_, _, err = f.svc.Send(ctx, auth.Identity{ID: "al-ice"}, "bob", "hello", domain.TypeText)
	req.ErrorIs(err, errors.ErrHyphenIdentifier)

	_, _, err = f.svc.Send(ctx, sender, "bob", "hello", "carrier-pigeon")
	req.ErrorIs(err, errors.ErrInvalidRequest)
}

func Test_MarkRead_Always_Broadcasts_Full_Batch(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	batch := []string{ids[0].String(), ids[1].String(), "not-a-uuid"}

	// Only one row actually changes; the receipt still carries the batch.
	f.messages.EXPECT().
		MarkRead(ids, "bob", gomock.Any()).
		Return(ids[:1], nil)

	f.publisher.EXPECT().
		Publish(gomock.Any(), "chat-alice-bob", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, e event.RelayEvent) error {
			receipt, ok := e.(event.MessagesRead)
			req.True(ok)
			req.Equal(batch, receipt.MessageIDs)
			req.Equal("bob", receipt.ReadBy)
			req.False(receipt.ReadAt.IsZero())
			return nil
		})

	req.NoError(f.svc.MarkRead(context.Background(), "bob", batch, "alice"))
}

func Test_MarkRead_Rejects_Empty_Batch(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)

	req.ErrorIs(f.svc.MarkRead(context.Background(), "bob", nil, "alice"), errors.ErrInvalidRequest)
	req.ErrorIs(f.svc.MarkRead(context.Background(), "", []string{"x"}, "alice"), errors.ErrInvalidRequest)
	req.ErrorIs(f.svc.MarkRead(context.Background(), "bob", []string{"x"}, ""), errors.ErrInvalidRequest)
}

func Test_History_Defaults_And_Resolves_Senders(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)

	message := domain.Message{
		ID:         uuid.New(),
		SenderID:   "bob",
		ReceiverID: "alice",
		Content:    "hello",
		Type:       domain.TypeText,
		CreatedAt:  time.Now().UTC(),
	}
	f.messages.EXPECT().
		GetConversation("alice", "bob", 1, DefaultHistoryLimit).
		Return([]domain.Message{message}, true, nil)

	f.users.EXPECT().Get("alice").Return(domain.User{ID: "alice", Name: "Alice"}, nil)
	// A receiver that never logged in degrades to the placeholder profile.
	f.users.EXPECT().Get("bob").Return(domain.User{}, context.DeadlineExceeded)

	view, hasMore, err := f.svc.History(context.Background(), "alice", "bob", 0, 0)
	req.NoError(err)
	req.True(hasMore)
	req.Len(view, 1)
	req.Equal(domain.PlaceholderName, view[0].Sender.Name)
	req.Equal("bob", view[0].Sender.ID)
}
