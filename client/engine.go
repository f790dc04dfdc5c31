package client

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"spill/contract"
	"spill/domain"
	"spill/domain/event"
)

const historyPageSize = 50

// State tracks the lifecycle of one conversation view.
type State string

const (
	StateUninitialized  State = "uninitialized"
	StateLoadingHistory State = "loading-history"
	StateLive           State = "live"
	StateClosed         State = "closed"
)

// HistoryFetcher loads persisted conversation pages. The store behind it
// is authoritative; the relay is only an optimization on top.
type HistoryFetcher interface {
	History(ctx context.Context, otherUserID string, page, limit int) ([]event.MessageCreated, bool, error)
}

// ReadAcker reports observed messages back to the read receipt pipeline.
type ReadAcker interface {
	MarkRead(ctx context.Context, messageIDs []string, senderID string) error
}

// Engine owns the local message list of one open conversation. It merges
// the initial history fetch with the live event stream, deduplicates by
// message id, advances statuses monotonically, and batches read
// acknowledgements for messages addressed to the local user.
//
// The relay subscription is injected and lifecycle-managed: Start opens
// it, Close releases it and stops routing events into the state.
type Engine struct {
	log      *slog.Logger
	selfID   string
	otherID  string
	relay    contract.Subscriber
	history  HistoryFetcher
	acker    ReadAcker
	ackDelay time.Duration

	// OnChange, when set before Start, is invoked after every state
	// mutation. Used by interactive frontends to redraw.
	OnChange func()

	mu       sync.Mutex
	state    State
	messages []event.MessageCreated
	present  map[string]int // message id -> index in messages
	pending  map[string][]string
	ackTimer *time.Timer
	sub      contract.Subscription
	ctx      context.Context
}

func NewEngine(log *slog.Logger, selfID, otherID string, relay contract.Subscriber,
	history HistoryFetcher, acker ReadAcker, ackDelay time.Duration) *Engine {
	return &Engine{
		log:      log,
		selfID:   selfID,
		otherID:  otherID,
		relay:    relay,
		history:  history,
		acker:    acker,
		ackDelay: ackDelay,
		state:    StateUninitialized,
		present:  make(map[string]int),
		pending:  make(map[string][]string),
	}
}

// Start subscribes to the conversation channel and launches the history
// fetch. Both run concurrently; the id-based merge makes their arrival
// order irrelevant.
func (e *Engine) Start(ctx context.Context) error {
	channel := domain.DeriveChannel(e.selfID, e.otherID)
	sub, err := e.relay.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.state = StateLoadingHistory
	e.sub = sub
	e.ctx = ctx
	e.mu.Unlock()

	go e.consume(sub)
	go e.fetchHistory(ctx)

	context.AfterFunc(ctx, func() { _ = e.Close() })
	return nil
}

// consume routes live events into the local state until the subscription
// closes.
func (e *Engine) consume(sub contract.Subscription) {
	for evt := range sub.Events() {
		e.apply(evt)
	}
}

// fetchHistory loads the first page and merges it. A failed load presents
// the conversation as empty rather than erroring; a load resolving after
// Close is discarded.
func (e *Engine) fetchHistory(ctx context.Context) {
	messages, _, err := e.history.History(ctx, e.otherID, 1, historyPageSize)
	if err != nil {
		e.log.Warn("History fetch failed, starting empty", "error", err)
		messages = nil
	}

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	for _, m := range messages {
		e.merge(m)
	}
	e.state = StateLive
	e.mu.Unlock()
	e.notify()
}

// apply folds one live event into the state.
func (e *Engine) apply(evt event.RelayEvent) {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}

	switch ev := evt.(type) {
	case event.MessageCreated:
		added := e.merge(ev)
		if added && ev.ReceiverID == e.selfID && ev.SenderID != e.selfID {
			e.scheduleAck(ev.SenderID, ev.ID)
		}
	case event.MessageStatus:
		e.advance(ev.MessageID, ev.Status)
	case event.MessagesRead:
		for _, id := range ev.MessageIDs {
			e.advance(id, domain.StatusRead)
		}
	}
	e.mu.Unlock()
	e.notify()
}

// merge inserts a message in creation order, or advances the status of an
// already known one. Exactly one visible entry per id, whichever source
// delivered it first. Caller holds the mutex.
func (e *Engine) merge(m event.MessageCreated) bool {
	if idx, ok := e.present[m.ID]; ok {
		e.advanceAt(idx, m.Status)
		return false
	}

	at := sort.Search(len(e.messages), func(i int) bool {
		if !e.messages[i].Timestamp.Equal(m.Timestamp) {
			return e.messages[i].Timestamp.After(m.Timestamp)
		}
		return e.messages[i].ID > m.ID
	})
	e.messages = append(e.messages, event.MessageCreated{})
	copy(e.messages[at+1:], e.messages[at:])
	e.messages[at] = m
	for i := at; i < len(e.messages); i++ {
		e.present[e.messages[i].ID] = i
	}
	return true
}

// advance moves a message to a later status. Earlier statuses are ignored:
// the observed sequence is always a subsequence of sent, delivered, read.
func (e *Engine) advance(id string, status domain.Status) {
	if idx, ok := e.present[id]; ok {
		e.advanceAt(idx, status)
	}
}

func (e *Engine) advanceAt(idx int, status domain.Status) {
	if status.Rank() > e.messages[idx].Status.Rank() {
		e.messages[idx].Status = status
	}
}

// scheduleAck batches read acknowledgements: rapid-fire arrivals within
// the delay window are flushed in a single call per sender. Caller holds
// the mutex.
func (e *Engine) scheduleAck(senderID, messageID string) {
	e.pending[senderID] = append(e.pending[senderID], messageID)
	if e.ackTimer == nil {
		e.ackTimer = time.AfterFunc(e.ackDelay, e.flushAcks)
	}
}

func (e *Engine) flushAcks() {
	e.mu.Lock()
	batches := e.pending
	e.pending = make(map[string][]string)
	e.ackTimer = nil
	ctx := e.ctx
	closed := e.state == StateClosed
	e.mu.Unlock()

	if closed || ctx == nil {
		return
	}
	for senderID, ids := range batches {
		if err := e.acker.MarkRead(ctx, ids, senderID); err != nil {
			// Idempotent server side; the messages stay unread until a
			// later acknowledgement or history fetch corrects it.
			e.log.Warn("Read acknowledgement failed", "sender", senderID, "error", err)
		}
	}
}

// Close unsubscribes from the channel and stops routing events into the
// conversation state. Messages are not discarded; re-entry re-fetches
// fresh history.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return nil
	}
	e.state = StateClosed
	sub := e.sub
	if e.ackTimer != nil {
		e.ackTimer.Stop()
		e.ackTimer = nil
	}
	e.mu.Unlock()

	if sub != nil {
		return sub.Close()
	}
	return nil
}

// State reports the lifecycle phase of the conversation view.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns a copy of the current ordered message list.
func (e *Engine) Snapshot() []event.MessageCreated {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]event.MessageCreated, len(e.messages))
	copy(out, e.messages)
	return out
}

func (e *Engine) notify() {
	if e.OnChange != nil {
		e.OnChange()
	}
}
