package websocket

import (
	"testing"
	"time"

	"exam-grading-be/internal/entity"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := newQueueSet(time.Minute, 10)
	now := time.Now()

	q.enqueue("room", "first", []byte("1"), entity.PriorityNormal, now)
	q.enqueue("room", "second", []byte("2"), entity.PriorityNormal, now)
	q.enqueue("room", "third", []byte("3"), entity.PriorityNormal, now)

	drained := q.drain("room", now)
	if len(drained) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(drained))
	}
	for i, want := range []string{"first", "second", "third"} {
		if drained[i].Event != want {
			t.Errorf("position %d: expected %q, got %q", i, want, drained[i].Event)
		}
	}
}

func TestQueueDrainRemovesMessages(t *testing.T) {
	q := newQueueSet(time.Minute, 10)
	now := time.Now()

	q.enqueue("room", "once", []byte("1"), entity.PriorityNormal, now)
	if got := q.drain("room", now); len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got := q.drain("room", now); len(got) != 0 {
		t.Errorf("second drain must be empty, got %d", len(got))
	}
}

func TestQueueTTLExpiry(t *testing.T) {
	q := newQueueSet(time.Minute, 10)
	now := time.Now()

	q.enqueue("room", "stale", []byte("1"), entity.PriorityNormal, now)
	drained := q.drain("room", now.Add(2*time.Minute))
	if len(drained) != 0 {
		t.Errorf("expired message must not be drained, got %d", len(drained))
	}
}

func TestQueueDropsOldestWhenFull(t *testing.T) {
	q := newQueueSet(time.Minute, 2)
	now := time.Now()

	q.enqueue("room", "a", nil, entity.PriorityNormal, now)
	q.enqueue("room", "b", nil, entity.PriorityNormal, now)
	q.enqueue("room", "c", nil, entity.PriorityNormal, now)

	drained := q.drain("room", now)
	if len(drained) != 2 {
		t.Fatalf("expected bound of 2, got %d", len(drained))
	}
	if drained[0].Event != "b" || drained[1].Event != "c" {
		t.Errorf("expected oldest dropped, got %q %q", drained[0].Event, drained[1].Event)
	}
}

func TestQueueSweepDropsExpired(t *testing.T) {
	q := newQueueSet(time.Minute, 10)
	now := time.Now()

	q.enqueue("a", "old", nil, entity.PriorityNormal, now)
	q.enqueue("b", "fresh", nil, entity.PriorityNormal, now.Add(50*time.Second))

	dropped := q.sweep(now.Add(70 * time.Second))
	if dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", dropped)
	}
	if q.len("a") != 0 {
		t.Errorf("expired queue should be empty")
	}
	if q.len("b") != 1 {
		t.Errorf("fresh message should survive the sweep")
	}
}

func TestQueuesAreIndependentPerTarget(t *testing.T) {
	q := newQueueSet(time.Minute, 10)
	now := time.Now()

	q.enqueue("user:alpha", "for-alpha", nil, entity.PriorityNormal, now)
	q.enqueue("user:beta", "for-beta", nil, entity.PriorityNormal, now)

	if got := q.drain("user:alpha", now); len(got) != 1 || got[0].Event != "for-alpha" {
		t.Errorf("unexpected alpha drain: %v", got)
	}
	if q.len("user:beta") != 1 {
		t.Errorf("beta queue must be untouched")
	}
}
