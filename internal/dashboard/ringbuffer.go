package dashboard

import "sync"

const defaultBufferSize = 200

// RingBuffer keeps the most recent items up to a fixed capacity.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	next  int
	full  bool
}

// NewRingBuffer creates a ring buffer holding at most capacity items.
// A non-positive capacity selects the default.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &RingBuffer[T]{items: make([]T, capacity)}
}

// Add appends item, evicting the oldest once the buffer is full.
func (rb *RingBuffer[T]) Add(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.items[rb.next] = item
	rb.next++
	if rb.next == len(rb.items) {
		rb.next = 0
		rb.full = true
	}
}

// All returns the buffered items, oldest first.
func (rb *RingBuffer[T]) All() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if !rb.full {
		return append([]T(nil), rb.items[:rb.next]...)
	}
	out := make([]T, 0, len(rb.items))
	out = append(out, rb.items[rb.next:]...)
	return append(out, rb.items[:rb.next]...)
}

// Len returns the number of buffered items.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.full {
		return len(rb.items)
	}
	return rb.next
}
