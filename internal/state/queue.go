package state

import "sync"

// Queue is a thread-safe fixed-capacity ring that keeps the most recent items.
// Pushing into a full queue overwrites the oldest item.
type Queue[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int // position of the oldest item
	count    int
	capacity int

	// Stats
	totalPushed int64
	evicted     int64
}

// NewQueue creates a queue holding at most capacity items.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
	}
}

// Push adds an item as the newest entry. Returns true if an older item was evicted.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.totalPushed++

	tail := (q.head + q.count) % q.capacity
	q.buf[tail] = item

	if q.count < q.capacity {
		q.count++
		return false
	}

	// Full: the slot we just wrote was the oldest item.
	q.head = (q.head + 1) % q.capacity
	q.evicted++
	return true
}

// Items returns a copy of the queue contents, newest first.
func (q *Queue[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]T, q.count)
	for i := 0; i < q.count; i++ {
		idx := (q.head + q.count - 1 - i) % q.capacity
		out[i] = q.buf[idx]
	}
	return out
}

// Clear drops all items.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	for i := range q.buf {
		q.buf[i] = zero // Clear reference for GC
	}
	q.head = 0
	q.count = 0
}

// Len returns the current number of items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int {
	return q.capacity
}

// Stats returns queue statistics.
func (q *Queue[T]) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Count:       q.count,
		Capacity:    q.capacity,
		TotalPushed: q.totalPushed,
		Evicted:     q.evicted,
	}
}

// QueueStats contains queue statistics.
type QueueStats struct {
	Count       int   `json:"count"`
	Capacity    int   `json:"capacity"`
	TotalPushed int64 `json:"total_pushed"`
	Evicted     int64 `json:"evicted"`
}
