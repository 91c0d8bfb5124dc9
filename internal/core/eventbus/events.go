package eventbus

// Event names for all sync lifecycle transitions.
const (
	// Keep list sorted A-Z
	EventBatchCompleted Event = "batch.completed"
	EventBatchStarted   Event = "batch.started"
	EventOfflineQueued  Event = "offline.queued"
	EventRemoteMerged   Event = "remote.merged"
	EventSyncFailed     Event = "sync.failed"
	EventSyncStarted    Event = "sync.started"
	EventSyncSucceeded  Event = "sync.succeeded"
)

// BatchStartedPayload is emitted when the batcher hands a batch to the executor.
type BatchStartedPayload struct {
	Total int
}

// BatchCompletedPayload is emitted after every record in a batch was acknowledged.
type BatchCompletedPayload struct {
	Total int
}

// SyncStartedPayload is emitted when a network save begins.
type SyncStartedPayload struct {
	Count int
}

// SyncSucceededPayload is emitted when a network save is acknowledged.
type SyncSucceededPayload struct {
	Count int
}

// SyncFailedPayload is emitted when a save exhausted its retries.
type SyncFailedPayload struct {
	Err   error
	Count int
}

// OfflineQueuedPayload is emitted for each record routed to the offline outbox.
type OfflineQueuedPayload struct {
	ItemKey string
}

// RemoteMergedPayload is emitted after a reconciliation cycle merged remote records.
type RemoteMergedPayload struct {
	Applied int
	Total   int
}

// PublishBatchStarted publishes a batch.started event.
func (bus *EventBus) PublishBatchStarted(p BatchStartedPayload) {
	bus.send(EventBatchStarted, p)
}

// SubscribeBatchStarted registers a handler for batch.started events.
func (bus *EventBus) SubscribeBatchStarted(fn func(BatchStartedPayload)) {
	bus.subscribe(EventBatchStarted, func(v any) { fn(v.(BatchStartedPayload)) })
}

// PublishBatchCompleted publishes a batch.completed event.
func (bus *EventBus) PublishBatchCompleted(p BatchCompletedPayload) {
	bus.send(EventBatchCompleted, p)
}

// SubscribeBatchCompleted registers a handler for batch.completed events.
func (bus *EventBus) SubscribeBatchCompleted(fn func(BatchCompletedPayload)) {
	bus.subscribe(EventBatchCompleted, func(v any) { fn(v.(BatchCompletedPayload)) })
}

// PublishSyncStarted publishes a sync.started event.
func (bus *EventBus) PublishSyncStarted(p SyncStartedPayload) {
	bus.send(EventSyncStarted, p)
}

// SubscribeSyncStarted registers a handler for sync.started events.
func (bus *EventBus) SubscribeSyncStarted(fn func(SyncStartedPayload)) {
	bus.subscribe(EventSyncStarted, func(v any) { fn(v.(SyncStartedPayload)) })
}

// PublishSyncSucceeded publishes a sync.succeeded event.
func (bus *EventBus) PublishSyncSucceeded(p SyncSucceededPayload) {
	bus.send(EventSyncSucceeded, p)
}

// SubscribeSyncSucceeded registers a handler for sync.succeeded events.
func (bus *EventBus) SubscribeSyncSucceeded(fn func(SyncSucceededPayload)) {
	bus.subscribe(EventSyncSucceeded, func(v any) { fn(v.(SyncSucceededPayload)) })
}

// PublishSyncFailed publishes a sync.failed event.
func (bus *EventBus) PublishSyncFailed(p SyncFailedPayload) {
	bus.send(EventSyncFailed, p)
}

// SubscribeSyncFailed registers a handler for sync.failed events.
func (bus *EventBus) SubscribeSyncFailed(fn func(SyncFailedPayload)) {
	bus.subscribe(EventSyncFailed, func(v any) { fn(v.(SyncFailedPayload)) })
}

// PublishOfflineQueued publishes an offline.queued event.
func (bus *EventBus) PublishOfflineQueued(p OfflineQueuedPayload) {
	bus.send(EventOfflineQueued, p)
}

// SubscribeOfflineQueued registers a handler for offline.queued events.
func (bus *EventBus) SubscribeOfflineQueued(fn func(OfflineQueuedPayload)) {
	bus.subscribe(EventOfflineQueued, func(v any) { fn(v.(OfflineQueuedPayload)) })
}

// PublishRemoteMerged publishes a remote.merged event.
func (bus *EventBus) PublishRemoteMerged(p RemoteMergedPayload) {
	bus.send(EventRemoteMerged, p)
}

// SubscribeRemoteMerged registers a handler for remote.merged events.
func (bus *EventBus) SubscribeRemoteMerged(fn func(RemoteMergedPayload)) {
	bus.subscribe(EventRemoteMerged, func(v any) { fn(v.(RemoteMergedPayload)) })
}
