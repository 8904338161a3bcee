// Package events is the notification surface for off-chain consumers: every
// committed action publishes typed events describing what changed.
package events

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// EventType labels what happened.
type EventType string

const (
	EventActionExecuted EventType = "action_executed"
	EventTransfer       EventType = "transfer"
	EventGameStarted    EventType = "game_started"
	EventStakingOpened  EventType = "staking_opened"
	EventStakeRecorded  EventType = "stake_recorded"
	EventVoteRecorded   EventType = "vote_recorded"
	EventMovePlayed     EventType = "move_played"
	EventGameEnded      EventType = "game_ended"
	EventPayoutSent     EventType = "payout_sent"
	EventParamsUpdated  EventType = "params_updated"
)

// AllTypes lists every event type, for subscribers that want the full feed.
var AllTypes = []EventType{
	EventActionExecuted,
	EventTransfer,
	EventGameStarted,
	EventStakingOpened,
	EventStakeRecorded,
	EventVoteRecorded,
	EventMovePlayed,
	EventGameEnded,
	EventPayoutSent,
	EventParamsUpdated,
}

// Event carries a typed payload emitted after a state change.
type Event struct {
	ID       string         `json:"id"`
	Type     EventType      `json:"type"`
	ActionID string         `json:"action_id"`
	GameID   uint64         `json:"game_id,omitempty"`
	Data     map[string]any `json:"data"`
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// SubscribeAll registers h for every event type.
func (e *Emitter) SubscribeAll(h Handler) {
	for _, typ := range AllTypes {
		e.Subscribe(typ, h)
	}
}

// Emit assigns ev an ID and delivers it to all subscribers for ev.Type
// synchronously. Each handler is guarded by panic recovery so a misbehaving
// subscriber cannot crash the node or corrupt an in-flight action.
func (e *Emitter) Emit(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	e.mu.RLock()
	handlers := e.handlers[ev.Type]
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[events] handler panicked for %s: %v", ev.Type, r)
				}
			}()
			h(ev)
		}()
	}
}
