package daemon

import "sync"

// RingBuffer is a thread-safe circular buffer with fixed capacity.
// When the buffer is full, new items overwrite the oldest items.
type RingBuffer[T any] struct {
	items []T
	head  int  // next write position
	count int  // number of items currently in buffer
	cap   int  // maximum capacity
	mu    sync.RWMutex
}

// NewRingBuffer creates a new ring buffer with the specified capacity.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer[T]{
		items: make([]T, capacity),
		cap:   capacity,
	}
}

// Push adds an item to the buffer.
// If the buffer is full, the oldest item is overwritten.
func (b *RingBuffer[T]) Push(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.cap

	if b.count < b.cap {
		b.count++
	}
}

// All returns all items in the buffer, oldest first.
func (b *RingBuffer[T]) All() []T {
	return b.Tail(0)
}

// Tail returns the newest n items, oldest first. n <= 0 returns every item.
// The result is a copy; nil when the buffer is empty.
func (b *RingBuffer[T]) Tail(n int) []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}
	if n <= 0 || n > b.count {
		n = b.count
	}

	result := make([]T, n)
	oldest := (b.head - b.count + b.cap) % b.cap
	skip := b.count - n
	for i := 0; i < n; i++ {
		result[i] = b.items[(oldest+skip+i)%b.cap]
	}
	return result
}

// Filter returns the items for which keep reports true, oldest first.
func (b *RingBuffer[T]) Filter(keep func(T) bool) []T {
	var result []T
	for _, item := range b.All() {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}

// Len returns the current number of items in the buffer.
func (b *RingBuffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the buffer capacity.
func (b *RingBuffer[T]) Cap() int {
	return b.cap
}

// Clear removes all items from the buffer.
func (b *RingBuffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Zero out items to allow GC
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}

	b.head = 0
	b.count = 0
}
