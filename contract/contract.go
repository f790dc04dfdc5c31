//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"spill/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Publisher is the producer half of the relay capability. Publish is
// best-effort: a failed broadcast never invalidates the persisted state
// it announces.
type Publisher interface {
	Publish(ctx context.Context, channel string, e event.RelayEvent) error
}

// Subscription is a live feed of decoded events from one channel.
// Close releases the underlying relay resources and stops Events.
type Subscription interface {
	Events() <-chan event.RelayEvent
	Close() error
}

// Subscriber is the consumer half of the relay capability.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}
