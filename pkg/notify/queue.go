// Package notify keeps a queue of short-lived user notifications.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"blinkpay/pkg/types"
)

const DefaultDuration = 3 * time.Second

// Listener is called after every change to the queue with the current items
type Listener func(items []types.NotificationItem)

// Queue holds notifications in insertion order. Each item is removed when
// its duration elapses or when it is dismissed, whichever happens first.
type Queue struct {
	mu       sync.Mutex
	items    []types.NotificationItem
	timers   map[string]*time.Timer
	duration time.Duration
	listener Listener
	onAdd    func(types.NotificationItem)
	now      func() time.Time
	closed   bool
}

// Option configures a Queue
type Option func(*Queue)

// WithListener registers a callback for queue changes
func WithListener(l Listener) Option {
	return func(q *Queue) {
		q.listener = l
	}
}

// WithOnEnqueue registers a callback for each newly enqueued item
func WithOnEnqueue(fn func(types.NotificationItem)) Option {
	return func(q *Queue) {
		q.onAdd = fn
	}
}

// NewQueue creates a queue. Items enqueued without a duration use defaultDuration.
func NewQueue(defaultDuration time.Duration, opts ...Option) *Queue {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	q := &Queue{
		timers:   make(map[string]*time.Timer),
		duration: defaultDuration,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends item and schedules its removal. The assigned id is returned;
// an empty id, or one already queued, is replaced with a fresh one.
func (q *Queue) Enqueue(item types.NotificationItem) string {
	q.mu.Lock()

	if _, taken := q.timers[item.ID]; item.ID == "" || taken {
		item.ID = uuid.New().String()
	}
	if item.Severity == "" {
		item.Severity = types.SeverityInfo
	}
	if item.Duration <= 0 {
		item.Duration = q.duration
	}
	item.CreatedAt = q.now()

	if q.closed {
		q.mu.Unlock()
		return item.ID
	}

	id := item.ID
	q.items = append(q.items, item)
	q.timers[id] = time.AfterFunc(item.Duration, func() {
		q.remove(id)
	})
	snapshot := q.snapshotLocked()
	q.mu.Unlock()

	if q.onAdd != nil {
		q.onAdd(item)
	}
	q.notify(snapshot)
	return id
}

// Notify is shorthand for enqueueing a titled message with the default duration
func (q *Queue) Notify(title, body string, severity types.Severity) string {
	return q.Enqueue(types.NotificationItem{Title: title, Body: body, Severity: severity})
}

// Dismiss removes an item before it expires. Returns false if it was already gone.
func (q *Queue) Dismiss(id string) bool {
	return q.remove(id)
}

// Items returns the visible notifications, oldest first
func (q *Queue) Items() []types.NotificationItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Len returns the number of visible notifications
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops all pending expiry timers and drops the remaining items
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
	q.closed = true
}

func (q *Queue) remove(id string) bool {
	q.mu.Lock()

	idx := -1
	for i, item := range q.items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return false
	}

	q.items = append(q.items[:idx], q.items[idx+1:]...)
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	snapshot := q.snapshotLocked()
	q.mu.Unlock()

	q.notify(snapshot)
	return true
}

func (q *Queue) snapshotLocked() []types.NotificationItem {
	out := make([]types.NotificationItem, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) notify(items []types.NotificationItem) {
	if q.listener != nil {
		q.listener(items)
	}
}
