package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"spill/domain"
	"spill/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func storeConversation(t *testing.T, repository MessageRepository, sender, receiver string, count int) []domain.Message {
	t.Helper()
	at := time.Now().UTC()
	messages := make([]domain.Message, 0, count)
	for i := 0; i < count; i++ {
		message := domain.Message{
			ID:         uuid.New(),
			SenderID:   sender,
			ReceiverID: receiver,
			Content:    fmt.Sprintf("message %d", i),
			Type:       domain.TypeText,
			CreatedAt:  at.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repository.StoreMessage(message))
		messages = append(messages, message)
	}
	return messages
}

func Test_GetConversation_Pagination(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	stored := storeConversation(t, repository, "alice", "bob", 60)

	// A full first page reports more content behind it.
	page1, hasMore, err := repository.GetConversation("alice", "bob", 1, 50)
	req.NoError(err)
	req.Len(page1, 50)
	req.True(hasMore)
	req.Equal(stored[0].Content, page1[0].Content)

	// The remainder fits on the second page.
	page2, hasMore, err := repository.GetConversation("bob", "alice", 2, 50)
	req.NoError(err)
	req.Len(page2, 10)
	req.False(hasMore)
	req.Equal(stored[59].Content, page2[9].Content)
}

func Test_GetConversation_Chronological_Order(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	storeConversation(t, repository, "alice", "bob", 5)

	messages, hasMore, err := repository.GetConversation("alice", "bob", 1, 50)
	req.NoError(err)
	req.False(hasMore)
	for i := 1; i < len(messages); i++ {
		req.False(messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func Test_GetConversation_Isolates_Channels(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	storeConversation(t, repository, "alice", "bob", 3)
	storeConversation(t, repository, "alice", "carol", 2)

	messages, _, err := repository.GetConversation("alice", "bob", 1, 50)
	req.NoError(err)
	req.Len(messages, 3)
}

func Test_MarkDelivered_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	stored := storeConversation(t, repository, "alice", "bob", 1)

	first := time.Now().UTC()
	message, changed, err := repository.MarkDelivered(stored[0].ID, first)
	req.NoError(err)
	req.True(changed)
	req.NotNil(message.DeliveredAt)

	// A second confirmation changes nothing and keeps the first timestamp.
	message, changed, err = repository.MarkDelivered(stored[0].ID, first.Add(time.Minute))
	req.NoError(err)
	req.False(changed)
	req.True(message.DeliveredAt.Equal(first))
}

func Test_MarkDelivered_Unknown_Message(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	_, _, err := repository.MarkDelivered(uuid.New(), time.Now().UTC())
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_MarkRead_Mixed_Batch(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	toBob := storeConversation(t, repository, "alice", "bob", 2)
	toAlice := storeConversation(t, repository, "bob", "alice", 1)

	// One already read entry must not be stamped twice.
	alreadyRead, err := repository.MarkRead([]uuid.UUID{toBob[0].ID}, "bob", time.Now().UTC())
	req.NoError(err)
	req.Len(alreadyRead, 1)

	at := time.Now().UTC().Add(time.Minute)
	batch := []uuid.UUID{
		toBob[0].ID,   // already read
		toBob[1].ID,   // legitimate
		toAlice[0].ID, // bob is the sender, not the receiver
		uuid.New(),    // unknown id
	}
	updated, err := repository.MarkRead(batch, "bob", at)
	req.NoError(err)
	req.Equal([]uuid.UUID{toBob[1].ID}, updated)

	// The foreign message stays untouched.
	message, err := repository.GetMessage(toAlice[0].ID)
	req.NoError(err)
	req.Nil(message.ReadAt)

	// The first read timestamp survived the second batch.
	message, err = repository.GetMessage(toBob[0].ID)
	req.NoError(err)
	req.True(message.ReadAt.Before(at))
}

func Test_GetMessage_Unknown(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	_, err := repository.GetMessage(uuid.New())
	req.ErrorIs(err, errors.ErrMessageNotFound)
}
