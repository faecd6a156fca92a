package websocket

import (
	"sync"
	"time"

	"exam-grading-be/internal/entity"
)

// QueuedMessage is a message held for an offline target.
type QueuedMessage struct {
	Target    string
	Event     string
	Payload   []byte
	Priority  entity.NotificationPriority
	CreatedAt time.Time
	ExpiresAt time.Time
	Retries   int
}

func (m *QueuedMessage) expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// queueSet holds one bounded FIFO queue per target (a room name or
// "user:<id>"). When a queue is full the oldest entry is dropped, never
// the newest.
type queueSet struct {
	mu    sync.Mutex
	ttl   time.Duration
	max   int
	items map[string][]*QueuedMessage
}

func newQueueSet(ttl time.Duration, max int) *queueSet {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if max <= 0 {
		max = 100
	}
	return &queueSet{
		ttl:   ttl,
		max:   max,
		items: make(map[string][]*QueuedMessage),
	}
}

func (q *queueSet) enqueue(target, event string, payload []byte, priority entity.NotificationPriority, now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue := q.items[target]
	if len(queue) >= q.max {
		queue = queue[1:]
	}
	q.items[target] = append(queue, &QueuedMessage{
		Target:    target,
		Event:     event,
		Payload:   payload,
		Priority:  priority,
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
	})
}

// requeue puts a message back at the head after a failed delivery so
// flush order is preserved.
func (q *queueSet) requeue(msg *QueuedMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[msg.Target] = append([]*QueuedMessage{msg}, q.items[msg.Target]...)
}

// drain removes and returns all non-expired messages for the target in
// enqueue order.
func (q *queueSet) drain(target string, now time.Time) []*QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue := q.items[target]
	if len(queue) == 0 {
		return nil
	}
	delete(q.items, target)

	out := make([]*QueuedMessage, 0, len(queue))
	for _, msg := range queue {
		if msg.expired(now) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// sweep drops expired messages and empty queues.
func (q *queueSet) sweep(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := 0
	for target, queue := range q.items {
		kept := queue[:0]
		for _, msg := range queue {
			if msg.expired(now) {
				dropped++
				continue
			}
			kept = append(kept, msg)
		}
		if len(kept) == 0 {
			delete(q.items, target)
		} else {
			q.items[target] = kept
		}
	}
	return dropped
}

func (q *queueSet) len(target string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items[target])
}
