//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"spill/domain"
	"spill/errors"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessage(id uuid.UUID) (domain.Message, error)
	GetConversation(userA, userB string, page, limit int) ([]domain.Message, bool, error)
	MarkDelivered(id uuid.UUID, at time.Time) (domain.Message, bool, error)
	MarkRead(ids []uuid.UUID, readerID string, at time.Time) ([]uuid.UUID, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// primaryKey is formatted as "msg:{channel}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func primaryKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.Channel(), m.CreatedAt.UnixNano(), m.ID))
}

// indexKey maps a message id to its primary key, for status updates
// that only know the id.
func indexKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

// StoreMessage persists a message and its id index in a single transaction.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	key := primaryKey(message)
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(indexKey(message.ID), key)
	})
}

func (m MessageRepository) GetMessage(id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		return m.readByID(txn, id, &message)
	})
	return message, err
}

// GetConversation retrieves one page of the conversation between two users,
// ordered by creation time ascending. Thanks to the padded timestamp in the
// key, a forward prefix scan is already chronological. It reads one entry
// past the requested window to report whether more pages exist.
func (m MessageRepository) GetConversation(userA, userB string, page, limit int) ([]domain.Message, bool, error) {
	if page < 1 {
		page = 1
	}
	prefix := []byte(fmt.Sprintf("msg:%s:", domain.DeriveChannel(userA, userB)))
	skip := (page - 1) * limit

	var messages []domain.Message
	hasMore := false
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		position := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if position < skip {
				position++
				continue
			}
			if len(messages) == limit {
				hasMore = true
				break
			}
			var message domain.Message
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			})
			if err != nil {
				return err
			}
			messages = append(messages, message)
			position++
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return messages, hasMore, nil
}

// MarkDelivered sets the delivery timestamp exactly once. Calling it again
// for the same message is a no-op reported through the changed flag, never
// an error, and the existing timestamp is left untouched.
func (m MessageRepository) MarkDelivered(id uuid.UUID, at time.Time) (domain.Message, bool, error) {
	var message domain.Message
	changed := false
	err := m.db.Update(func(txn *badger.Txn) error {
		if err := m.readByID(txn, id, &message); err != nil {
			return err
		}
		if message.DeliveredAt != nil {
			return nil
		}
		message.DeliveredAt = &at
		changed = true
		return m.rewrite(txn, message)
	})
	if err != nil {
		return domain.Message{}, false, err
	}
	return message, changed, nil
}

// MarkRead sets the read timestamp on every message of the batch whose
// receiver is readerID and whose ReadAt is still unset. Ids that are
// unknown, belong to another receiver, or are already read are silently
// skipped. It returns the ids actually updated.
func (m MessageRepository) MarkRead(ids []uuid.UUID, readerID string, at time.Time) ([]uuid.UUID, error) {
	var updated []uuid.UUID
	err := m.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			var message domain.Message
			if err := m.readByID(txn, id, &message); err != nil {
				if stderrors.Is(err, errors.ErrMessageNotFound) {
					m.log.Debug("Skipping unknown message in read batch", "id", id)
					continue
				}
				return err
			}
			if message.ReceiverID != readerID || message.ReadAt != nil {
				continue
			}
			message.ReadAt = &at
			if err := m.rewrite(txn, message); err != nil {
				return err
			}
			updated = append(updated, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (m MessageRepository) readByID(txn *badger.Txn, id uuid.UUID, out *domain.Message) error {
	item, err := txn.Get(indexKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
		}
		return err
	}
	var key []byte
	if err = item.Value(func(value []byte) error {
		key = append([]byte(nil), value...)
		return nil
	}); err != nil {
		return err
	}
	item, err = txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(value []byte) error {
		return json.Unmarshal(value, out)
	})
}

// rewrite stores the updated record under its unchanged primary key.
// Only the status timestamps ever change, so the key stays stable.
func (m MessageRepository) rewrite(txn *badger.Txn, message domain.Message) error {
	value, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return txn.Set(primaryKey(message), value)
}
