package logward

import (
	"sync"
)

// buffer is the bounded, ordered holding pen for entries awaiting
// delivery. Producers append, the delivery path drains. The mutex here is
// the only synchronization point between the two: everything downstream
// of a drain operates on that drain's private snapshot.
type buffer struct {
	mtx     sync.Mutex
	entries []Entry
	max     int
	batch   int
	metrics *metricsRecorder
}

func newBuffer(max, batch int, metrics *metricsRecorder) *buffer {
	return &buffer{
		max:     max,
		batch:   batch,
		metrics: metrics,
	}
}

// append adds the entry in arrival order, reporting whether the buffer has
// reached the batch threshold and the caller should schedule a flush.
// Appending to a full buffer fails with ErrBufferFull, counting the entry
// as dropped and not enqueueing it.
func (b *buffer) append(e Entry) (flush bool, err error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if len(b.entries) >= b.max {
		b.metrics.incDropped()
		return false, ErrBufferFull
	}

	b.entries = append(b.entries, e)

	return len(b.entries) >= b.batch, nil
}

// drainAll atomically takes every buffered entry, leaving the buffer
// empty. An entry appears in exactly one drained snapshot: appends racing
// a drain land wholly in this snapshot or wholly in the next.
func (b *buffer) drainAll() []Entry {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if len(b.entries) == 0 {
		return nil
	}

	out := b.entries
	b.entries = nil
	return out
}

// size returns the current entry count.
func (b *buffer) size() int {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return len(b.entries)
}
