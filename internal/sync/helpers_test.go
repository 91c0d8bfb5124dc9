package sync

import (
	"context"
	"sort"
	stdsync "sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/colonyops/relay/internal/core/outbox"
	"github.com/colonyops/relay/internal/core/progress"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  stdsync.Mutex
	now time.Time
}

func newFakeClock(start int64) *fakeClock {
	return &fakeClock{now: time.UnixMilli(start)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeProbe reports a settable connectivity state.
type fakeProbe struct {
	mu     stdsync.Mutex
	online bool
}

func (p *fakeProbe) Online(_ context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *fakeProbe) SetOnline(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = v
}

// fakeTransport records every network call and fails saves a configurable
// number of times before succeeding.
type fakeTransport struct {
	mu stdsync.Mutex

	failSaves int // fail this many save calls, then succeed
	loadRecs  []progress.Remote
	loadErr   error

	batches [][]progress.Record
	saves   []progress.Record
	loads   int
}

func (t *fakeTransport) SaveProgress(_ context.Context, _ string, rec progress.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failSaves > 0 {
		t.failSaves--
		return errSaveRejected
	}
	t.saves = append(t.saves, rec)
	return nil
}

func (t *fakeTransport) SaveBatch(_ context.Context, _ string, recs []progress.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failSaves > 0 {
		t.failSaves--
		return errSaveRejected
	}
	batch := make([]progress.Record, len(recs))
	copy(batch, recs)
	t.batches = append(t.batches, batch)
	return nil
}

func (t *fakeTransport) Load(_ context.Context, _ string, _ *time.Time) ([]progress.Remote, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loads++
	if t.loadErr != nil {
		return nil, t.loadErr
	}
	return t.loadRecs, nil
}

func (t *fakeTransport) Batches() [][]progress.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]progress.Record, len(t.batches))
	copy(out, t.batches)
	return out
}

func (t *fakeTransport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.batches) + len(t.saves) + t.loads
}

type saveError struct{}

func (saveError) Error() string { return "save rejected" }

var errSaveRejected = saveError{}

// memQueue is an unbounded in-memory outbox used where durability is not
// under test.
type memQueue struct {
	mu     stdsync.Mutex
	nextID int64
	ops    map[int64]outbox.Operation
}

func newMemQueue() *memQueue {
	return &memQueue{ops: make(map[int64]outbox.Operation)}
}

func (q *memQueue) Enqueue(_ context.Context, op outbox.Operation) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	op.ID = q.nextID
	q.ops[op.ID] = op
	return op.ID, nil
}

func (q *memQueue) GetAll(_ context.Context) ([]outbox.Operation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]outbox.Operation, 0, len(q.ops))
	for _, op := range q.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *memQueue) Remove(_ context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.ops, id)
	return nil
}

func (q *memQueue) Clear(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = make(map[int64]outbox.Operation)
	return nil
}

func (q *memQueue) Size(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops), nil
}

func newTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
