package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBus(t *testing.T, buffer int) *EventBus {
	t.Helper()
	bus := New(buffer)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go bus.Start(ctx)
	return bus
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := startBus(t, 8)

	var (
		mu  sync.Mutex
		got []SyncStartedPayload
	)
	bus.SubscribeSyncStarted(func(p SyncStartedPayload) {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	})

	bus.PublishSyncStarted(SyncStartedPayload{Count: 3})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, 3, got[0].Count)
	mu.Unlock()
}

func TestEventBus_DropsWhenBufferFull(t *testing.T) {
	// Bus is never started, so the buffer fills and the overflow drops.
	bus := New(1)

	var dropped []Event
	bus.OnDrop(func(e Event, _ any) {
		dropped = append(dropped, e)
	})

	bus.PublishSyncStarted(SyncStartedPayload{Count: 1})
	bus.PublishSyncStarted(SyncStartedPayload{Count: 2})

	assert.Equal(t, []Event{EventSyncStarted}, dropped)
}

func TestEventBus_PanickingSubscriberIsRecovered(t *testing.T) {
	bus := startBus(t, 8)

	var (
		mu        sync.Mutex
		panicked  bool
		delivered bool
	)
	bus.OnPanic(func(Event, any, any) {
		mu.Lock()
		panicked = true
		mu.Unlock()
	})
	bus.SubscribeOfflineQueued(func(OfflineQueuedPayload) {
		panic("boom")
	})
	bus.SubscribeOfflineQueued(func(OfflineQueuedPayload) {
		mu.Lock()
		delivered = true
		mu.Unlock()
	})

	bus.PublishOfflineQueued(OfflineQueuedPayload{ItemKey: "Q1"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return panicked && delivered
	}, time.Second, 5*time.Millisecond)
}

func TestEventBus_OnPublishHook(t *testing.T) {
	bus := startBus(t, 8)

	var (
		mu     sync.Mutex
		events []Event
	)
	bus.OnPublish(func(e Event, _ any) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	bus.PublishBatchStarted(BatchStartedPayload{Total: 1})
	bus.PublishBatchCompleted(BatchCompletedPayload{Total: 1})

	mu.Lock()
	assert.Equal(t, []Event{EventBatchStarted, EventBatchCompleted}, events)
	mu.Unlock()
}
