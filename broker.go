package logward

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// TapStats accounts for one tap subscription: skips are entries rejected
// by the subscription filter, sends are successful deliveries, and drops
// are entries discarded because the subscriber channel was full.
type TapStats struct {
	Skips uint64 `json:"skips"`
	Sends uint64 `json:"sends"`
	Drops uint64 `json:"drops"`
}

// String implements fmt.Stringer.
func (s TapStats) String() string {
	return fmt.Sprintf("skips=%d sends=%d drops=%d", s.Skips, s.Sends, s.Drops)
}

// tapBroker fans entries accepted by the client out to local subscribers.
// Publishing never blocks: a subscriber whose channel is full loses the
// entry, with the loss counted against that subscription.
type tapBroker struct {
	mtx         sync.Mutex
	subscribers map[chan<- Entry]*tapSubscriber
	active      atomic.Bool
}

type tapSubscriber struct {
	allow func(Entry) bool
	ch    chan<- Entry
	stats TapStats
}

func newTapBroker() *tapBroker {
	return &tapBroker{
		subscribers: map[chan<- Entry]*tapSubscriber{},
	}
}

func (b *tapBroker) publish(e Entry) {
	if !b.active.Load() { // optimization
		return
	}

	b.mtx.Lock()
	defer b.mtx.Unlock()

	if len(b.subscribers) <= 0 { // re-check, might have changed
		return
	}

	for _, sub := range b.subscribers {
		if !sub.allow(e) {
			sub.stats.Skips++
			continue
		}
		select {
		case sub.ch <- e:
			sub.stats.Sends++
		default:
			sub.stats.Drops++
		}
	}
}

// subscribe registers ch, blocks until the context is canceled, then
// unregisters and returns the subscription's stats.
func (b *tapBroker) subscribe(ctx context.Context, allow func(Entry) bool, ch chan<- Entry) (TapStats, error) {
	if err := func() error {
		b.mtx.Lock()
		defer b.mtx.Unlock()

		if _, ok := b.subscribers[ch]; ok {
			return fmt.Errorf("already subscribed")
		}

		b.subscribers[ch] = &tapSubscriber{
			allow: allow,
			ch:    ch,
		}

		b.active.Store(len(b.subscribers) > 0)

		return nil
	}(); err != nil {
		return TapStats{}, err
	}

	<-ctx.Done()

	sub := func() *tapSubscriber {
		b.mtx.Lock()
		defer b.mtx.Unlock()

		sub := b.subscribers[ch]
		delete(b.subscribers, ch)

		b.active.Store(len(b.subscribers) > 0)

		return sub
	}()
	if sub == nil {
		return TapStats{}, fmt.Errorf("not subscribed (programmer error)")
	}

	return sub.stats, ctx.Err()
}
