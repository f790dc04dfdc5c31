//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"spill/domain"
)

type IUserRepository interface {
	UpsertSender(user domain.User) error
	EnsureReceiver(id string) error
	UpdateImageURL(id, imageURL string) error
	Get(id string) (domain.User, error)
	List(excludeID string, limit int) ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

func userKey(id string) []byte {
	return []byte("user:" + id)
}

// UpsertSender creates the sender's row on first contact and refreshes the
// profile fields on every send, so the store tracks the identity provider.
func (u UserRepository) UpsertSender(user domain.User) error {
	return u.db.Update(func(txn *badger.Txn) error {
		stored := user
		existing, err := readUser(txn, user.ID)
		switch err {
		case nil:
			stored.CreatedAt = existing.CreatedAt
		case badger.ErrKeyNotFound:
			stored.CreatedAt = time.Now().UTC()
		default:
			return err
		}
		return writeUser(txn, stored)
	})
}

// EnsureReceiver lazily creates a placeholder row for a receiver that has
// never logged in. An existing row is left untouched: real profile data
// must never be clobbered with placeholder values.
func (u UserRepository) EnsureReceiver(id string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		_, err := readUser(txn, id)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return writeUser(txn, domain.User{
			ID:        id,
			Name:      domain.PlaceholderName,
			CreatedAt: time.Now().UTC(),
		})
	})
}

// UpdateImageURL points an existing profile at a freshly uploaded avatar.
func (u UserRepository) UpdateImageURL(id, imageURL string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		user, err := readUser(txn, id)
		if err != nil {
			return err
		}
		user.ImageURL = imageURL
		return writeUser(txn, user)
	})
}

func (u UserRepository) Get(id string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = readUser(txn, id)
		return err
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", id, err)
	}
	return user, nil
}

// List returns up to limit known users, excluding the caller.
// Used by the directory endpoint to offer conversation targets.
func (u UserRepository) List(excludeID string, limit int) ([]domain.User, error) {
	var users []domain.User
	prefix := []byte("user:")
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if len(users) == limit {
				break
			}
			var user domain.User
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &user)
			})
			if err != nil {
				return err
			}
			if user.ID == excludeID {
				continue
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func readUser(txn *badger.Txn, id string) (domain.User, error) {
	item, err := txn.Get(userKey(id))
	if err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &user)
	})
	return user, err
}

func writeUser(txn *badger.Txn, user domain.User) error {
	value, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return txn.Set(userKey(user.ID), value)
}
