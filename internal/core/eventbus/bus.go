// Package eventbus provides a typed publish/subscribe event bus for the sync
// engine's lifecycle notifications. The engine's correctness never depends on
// whether anything is listening; publishing is non-blocking and drops on a
// full buffer.
package eventbus

import (
	"context"
	"sync"
)

// Event identifies an event type on the bus.
type Event string

type envelope struct {
	event   Event
	payload any
}

// EventBus dispatches typed events to subscribers from a single goroutine
// started via Start.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates an event bus with the given buffer size.
func New(buffer int) *EventBus {
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start runs the dispatch loop until the context is cancelled. Subscribers
// run sequentially on this goroutine; a panicking subscriber is recovered and
// reported through the OnPanic hooks.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env.event, env.payload)
		}
	}
}

func (bus *EventBus) dispatch(event Event, payload any) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[event]))
	copy(subs, bus.subs[event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.runOnPanic(event, payload, r)
				}
			}()
			fn(payload)
		}()
	}
}

// send enqueues an event and fires hooks. Used by the typed Publish* methods.
func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		bus.runOnPublish(event, payload)
	default:
		bus.runOnDrop(event, payload)
	}
}

// subscribe registers an untyped handler. Used by the typed Subscribe* methods.
func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}
