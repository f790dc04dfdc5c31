//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"spill/auth"
	"spill/contract"
	"spill/domain"
	"spill/domain/event"
	"spill/errors"
	"spill/internal"
	"spill/repositories"
	"spill/runtime/workers"
)

// DefaultHistoryLimit is the page size used when the caller does not ask
// for one.
const DefaultHistoryLimit = 50

type IChatService interface {
	Send(ctx context.Context, sender auth.Identity, receiverID, content string, messageType domain.MessageType) (event.MessageCreated, string, error)
	MarkRead(ctx context.Context, readerID string, messageIDs []string, senderID string) error
	History(ctx context.Context, callerID, otherID string, page, limit int) ([]event.MessageCreated, bool, error)
}

// ChatService owns the delivery and read receipt pipelines. Persistence is
// authoritative; the relay is a best-effort optimization layer on top, so
// a failed broadcast never fails an operation that already persisted.
type ChatService struct {
	log        *slog.Logger
	messages   repositories.IMessageRepository
	users      repositories.IUserRepository
	publisher  contract.Publisher
	deliveries chan<- workers.DeliveryJob
}

func NewChatService(log *slog.Logger, messages repositories.IMessageRepository,
	users repositories.IUserRepository, publisher contract.Publisher,
	deliveries chan<- workers.DeliveryJob) *ChatService {
	return &ChatService{
		log:        log,
		messages:   messages,
		users:      users,
		publisher:  publisher,
		deliveries: deliveries,
	}
}

// Send validates and persists a message, announces it on the conversation
// channel, and schedules the deferred delivery confirmation. The persisted
// message is returned synchronously; delivery confirmation is asynchronous
// and best-effort.
func (s *ChatService) Send(ctx context.Context, sender auth.Identity, receiverID, content string,
	messageType domain.MessageType) (event.MessageCreated, string, error) {
	content = strings.TrimSpace(content)
	receiverID = strings.TrimSpace(receiverID)

	if content == "" {
		return event.MessageCreated{}, "", errors.ErrEmptyContent
	}
	if err := domain.ValidateUserID(sender.ID); err != nil {
		return event.MessageCreated{}, "", err
	}
	if err := domain.ValidateUserID(receiverID); err != nil {
		return event.MessageCreated{}, "", err
	}
	if messageType == "" {
		messageType = domain.TypeText
	}
	if messageType != domain.TypeText && messageType != domain.TypeImage {
		return event.MessageCreated{}, "", fmt.Errorf("%w: unknown message type %q", errors.ErrInvalidRequest, messageType)
	}

	// No orphaned messages: both user rows must exist before persisting.
	if err := s.users.UpsertSender(toUser(sender)); err != nil {
		return event.MessageCreated{}, "", fmt.Errorf("sender upsert failed: %w", err)
	}
	if err := s.users.EnsureReceiver(receiverID); err != nil {
		return event.MessageCreated{}, "", fmt.Errorf("receiver upsert failed: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return event.MessageCreated{}, "", fmt.Errorf("id generation failed: %w", err)
	}
	message := domain.Message{
		ID:         id,
		SenderID:   sender.ID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       messageType,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return event.MessageCreated{}, "", fmt.Errorf("message persistence failed: %w", err)
	}
	internal.MessagesSent.Inc()

	channel := message.Channel()
	created := event.FromMessage(message, toUser(sender))
	if err := s.publisher.Publish(ctx, channel, created); err != nil {
		// The receiver still sees the message on the next history fetch.
		s.log.Warn("Message broadcast failed, relying on history fetch", "id", message.ID, "error", err)
	}

	select {
	case s.deliveries <- workers.DeliveryJob{MessageID: message.ID, Channel: channel}:
	default:
		s.log.Warn("Delivery queue full, confirmation skipped", "id", message.ID)
	}

	return created, channel, nil
}

// MarkRead stamps the read timestamp on the batch and broadcasts the read
// receipt. Ids that do not belong to the reader are silently excluded from
// the update, and the receipt always carries the full requested batch,
// whether or not any row actually changed.
func (s *ChatService) MarkRead(ctx context.Context, readerID string, messageIDs []string, senderID string) error {
	if readerID == "" || senderID == "" || len(messageIDs) == 0 {
		return errors.ErrInvalidRequest
	}

	var ids []uuid.UUID
	for _, raw := range messageIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.log.Debug("Skipping unparseable message id in read batch", "id", raw)
			continue
		}
		ids = append(ids, id)
	}

	readAt := time.Now().UTC()
	updated, err := s.messages.MarkRead(ids, readerID, readAt)
	if err != nil {
		return fmt.Errorf("read persistence failed: %w", err)
	}
	if len(updated) < len(messageIDs) {
		s.log.Debug("Read batch partially applied",
			"requested", len(messageIDs), "updated", len(updated))
	}

	receipt := event.MessagesRead{MessageIDs: messageIDs, ReadBy: readerID, ReadAt: readAt}
	channel := domain.DeriveChannel(readerID, senderID)
	if err := s.publisher.Publish(ctx, channel, receipt); err != nil {
		s.log.Warn("Read receipt broadcast failed", "reader", readerID, "error", err)
	}
	return nil
}

// History returns one ascending page of the conversation between the
// caller and the other user, in the same shape the relay announces
// messages, so a re-fetch alone reconstructs the full client state.
func (s *ChatService) History(ctx context.Context, callerID, otherID string, page, limit int) ([]event.MessageCreated, bool, error) {
	if otherID == "" {
		return nil, false, errors.ErrInvalidRequest
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}

	messages, hasMore, err := s.messages.GetConversation(callerID, otherID, page, limit)
	if err != nil {
		return nil, false, fmt.Errorf("history fetch failed: %w", err)
	}

	senders := s.senderProfiles(callerID, otherID)
	view := lo.Map(messages, func(m domain.Message, _ int) event.MessageCreated {
		return event.FromMessage(m, senders[m.SenderID])
	})
	return view, hasMore, nil
}

// senderProfiles resolves display fields for the two possible senders of a
// conversation. A missing row degrades to the placeholder profile instead
// of failing the fetch.
func (s *ChatService) senderProfiles(a, b string) map[string]domain.User {
	profiles := make(map[string]domain.User, 2)
	for _, id := range []string{a, b} {
		user, err := s.users.Get(id)
		if err != nil {
			user = domain.User{ID: id, Name: domain.PlaceholderName}
		}
		profiles[id] = user
	}
	return profiles
}

func toUser(identity auth.Identity) domain.User {
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = domain.PlaceholderName
	}
	return domain.User{
		ID:       identity.ID,
		Name:     name,
		Email:    identity.Email,
		ImageURL: identity.ImageURL,
	}
}
