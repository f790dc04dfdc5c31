package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spill/contract"
	"spill/domain"
	"spill/domain/event"
	"spill/internal"
	"spill/repositories"
)

// DeliveryJob asks for the deferred delivery confirmation of one message.
type DeliveryJob struct {
	MessageID uuid.UUID
	Channel   string
}

// DeliveryWorker applies delivery confirmations detached from the
// request/response cycle that produced them. Its contract is explicit:
// a failed confirmation is observed only through logs and metrics, never
// through the original send's result. The message stays in "sent" status
// until the next natural event touches it.
type DeliveryWorker struct {
	log       *slog.Logger
	messages  repositories.IMessageRepository
	publisher contract.Publisher
	jobs      <-chan DeliveryJob
	delay     time.Duration
}

func NewDeliveryWorker(log *slog.Logger, messages repositories.IMessageRepository,
	publisher contract.Publisher, jobs <-chan DeliveryJob, delay time.Duration) DeliveryWorker {
	return DeliveryWorker{log: log, messages: messages, publisher: publisher, jobs: jobs, delay: delay}
}

func (w DeliveryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping delivery confirmations")
			return nil
		case job := <-w.jobs:
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.delay):
			}
			w.confirm(ctx, job)
		}
	}
}

// confirm marks the message delivered and broadcasts the status change.
// It tolerates a message whose DeliveredAt is already set: the repository
// reports an unchanged row and the broadcast is simply repeated, which
// consumers absorb through their monotonic status rule.
func (w DeliveryWorker) confirm(ctx context.Context, job DeliveryJob) {
	message, changed, err := w.messages.MarkDelivered(job.MessageID, time.Now().UTC())
	if err != nil {
		internal.DeliveryFailures.Inc()
		w.log.Warn("Delivery confirmation dropped", "id", job.MessageID, "error", err)
		return
	}
	if !changed {
		w.log.Debug("Message already delivered", "id", job.MessageID)
	}

	statusEvent := event.MessageStatus{
		MessageID: message.ID.String(),
		Status:    domain.StatusDelivered,
	}
	if err := w.publisher.Publish(ctx, job.Channel, statusEvent); err != nil {
		internal.DeliveryFailures.Inc()
		w.log.Warn("Delivery status broadcast failed", "id", job.MessageID, "error", err)
		return
	}
	internal.DeliveryConfirmations.Inc()
}
