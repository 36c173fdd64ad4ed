package logward

import (
	"sync"
)

type ringBuffer[T any] struct {
	mtx sync.Mutex
	buf []T // fully allocated at construction
	cur int // index for next write, walk backwards to read
	len int // count of actual values
}

func newRingBuffer[T any](cap int) *ringBuffer[T] {
	return &ringBuffer[T]{
		buf: make([]T, cap),
	}
}

func (rb *ringBuffer[T]) add(v T) {
	rb.mtx.Lock()
	defer rb.mtx.Unlock()

	// Safety first.
	if cap(rb.buf) <= 0 {
		return
	}

	// Write the value at the write cursor, evicting the oldest value
	// once the buffer is full.
	rb.buf[rb.cur] = v

	// Update the ring buffer size.
	if rb.len < len(rb.buf) {
		rb.len += 1
	}

	// Advance the write cursor.
	rb.cur += 1
	if rb.cur >= len(rb.buf) {
		rb.cur -= len(rb.buf)
	}
}

func (rb *ringBuffer[T]) walk(f func(T) error) error {
	rb.mtx.Lock()
	defer rb.mtx.Unlock()

	// Read up to rb.len values.
	for i := 0; i < rb.len; i++ {
		// Reads go backwards from one before the write cursor.
		cur := rb.cur - 1 - i

		// Wrap around when necessary.
		if cur < 0 {
			cur += rb.len
		}

		// If the function returns an error, we're done.
		if err := f(rb.buf[cur]); err != nil {
			return err
		}
	}

	return nil
}

func (rb *ringBuffer[T]) size() int {
	rb.mtx.Lock()
	defer rb.mtx.Unlock()

	return rb.len
}

func (rb *ringBuffer[T]) reset() {
	rb.mtx.Lock()
	defer rb.mtx.Unlock()

	for i := range rb.buf {
		var zero T
		rb.buf[i] = zero
	}
	rb.cur = 0
	rb.len = 0
}
