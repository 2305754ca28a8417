// Package status carries the human-readable success/failure notifications the
// pipeline produces for the presentation layer. Many goroutines put messages
// concurrently; one consumer drains them.
package status

import "sync"

const defaultCapacity = 1000

// Queue is a bounded multi-producer message sink. When full, the oldest
// message is dropped so producers never block.
type Queue struct {
	mu       sync.Mutex
	messages []string
	capacity int
}

func NewQueue() *Queue {
	return &Queue{capacity: defaultCapacity}
}

// Put appends one message as an atomic unit.
func (q *Queue) Put(message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) >= q.capacity {
		q.messages = q.messages[1:]
	}
	q.messages = append(q.messages, message)
}

// Drain returns all pending messages in arrival order and empties the queue.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.messages
	q.messages = nil
	return out
}

// Len reports the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
