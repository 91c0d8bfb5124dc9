package sync

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/relay/internal/core/progress"
)

func TestBatcherDedupKeepsNewestPerKey(t *testing.T) {
	b := NewBatcher(time.Hour, 100, func() {})

	b.Record(progress.Record{ItemKey: "U1-L1-Q01", Value: "A", LocalTS: 1000})
	b.Record(progress.Record{ItemKey: "U1-L1-Q01", Value: "C", LocalTS: 1500})
	b.Record(progress.Record{ItemKey: "U1-L1-Q02", Value: "B", LocalTS: 1200})

	batch := b.Take()
	require.Len(t, batch, 2)
	assert.Equal(t, "U1-L1-Q01", batch[0].ItemKey)
	assert.Equal(t, "C", batch[0].Value)
	assert.Equal(t, int64(1500), batch[0].LocalTS)
	assert.Equal(t, "B", batch[1].Value)
}

func TestBatcherIgnoresStaleEdit(t *testing.T) {
	b := NewBatcher(time.Hour, 100, func() {})

	b.Record(progress.Record{ItemKey: "U1-L1-Q01", Value: "new", LocalTS: 2000})
	b.Record(progress.Record{ItemKey: "U1-L1-Q01", Value: "old", LocalTS: 1000})

	batch := b.Take()
	require.Len(t, batch, 1)
	assert.Equal(t, "new", batch[0].Value)
}

func TestBatcherEqualTimestampLastEditWins(t *testing.T) {
	b := NewBatcher(time.Hour, 100, func() {})

	b.Record(progress.Record{ItemKey: "k", Value: "first", LocalTS: 1000})
	b.Record(progress.Record{ItemKey: "k", Value: "second", LocalTS: 1000})

	batch := b.Take()
	require.Len(t, batch, 1)
	assert.Equal(t, "second", batch[0].Value)
}

func TestBatcherThresholdTriggersImmediately(t *testing.T) {
	var fired atomic.Int32
	b := NewBatcher(time.Hour, 3, func() { fired.Add(1) })

	b.Record(progress.Record{ItemKey: "a", LocalTS: 1})
	b.Record(progress.Record{ItemKey: "b", LocalTS: 2})
	assert.Equal(t, int32(0), fired.Load())

	b.Record(progress.Record{ItemKey: "c", LocalTS: 3})

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, b.Len())
}

func TestBatcherWindowExpiryTriggers(t *testing.T) {
	var fired atomic.Int32
	b := NewBatcher(20*time.Millisecond, 100, func() { fired.Add(1) })

	b.Record(progress.Record{ItemKey: "a", LocalTS: 1})

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBatcherRecordResetsWindow(t *testing.T) {
	var fired atomic.Int32
	b := NewBatcher(60*time.Millisecond, 100, func() { fired.Add(1) })

	b.Record(progress.Record{ItemKey: "a", LocalTS: 1})
	time.Sleep(30 * time.Millisecond)
	b.Record(progress.Record{ItemKey: "a", LocalTS: 2})
	time.Sleep(40 * time.Millisecond)

	// 70ms after the first edit but only 40ms after the second: still waiting.
	assert.Equal(t, int32(0), fired.Load())
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBatcherTakeEmptyReturnsNil(t *testing.T) {
	b := NewBatcher(time.Hour, 100, func() {})
	assert.Nil(t, b.Take())
}

func TestBatcherTakeCancelsTimer(t *testing.T) {
	var fired atomic.Int32
	b := NewBatcher(30*time.Millisecond, 100, func() { fired.Add(1) })

	b.Record(progress.Record{ItemKey: "a", LocalTS: 1})
	require.Len(t, b.Take(), 1)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, 0, b.Len())
}
