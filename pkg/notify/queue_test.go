package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinkpay/pkg/types"
)

func titles(items []types.NotificationItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}

func TestQueue_InsertionOrder(t *testing.T) {
	q := NewQueue(time.Minute)
	defer q.Close()

	q.Notify("first", "", types.SeverityInfo)
	q.Notify("second", "", types.SeverityError)
	q.Notify("third", "", types.SeveritySuccess)

	assert.Equal(t, []string{"first", "second", "third"}, titles(q.Items()))
}

func TestQueue_EnqueueDefaults(t *testing.T) {
	q := NewQueue(time.Minute)
	defer q.Close()

	id := q.Enqueue(types.NotificationItem{Title: "hello"})
	require.NotEmpty(t, id)

	items := q.Items()
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, types.SeverityInfo, items[0].Severity)
	assert.Equal(t, time.Minute, items[0].Duration)
	assert.False(t, items[0].CreatedAt.IsZero())
	assert.Equal(t, items[0].CreatedAt.Add(time.Minute), items[0].ExpiresAt())
}

func TestQueue_Expiry(t *testing.T) {
	q := NewQueue(time.Minute)
	defer q.Close()

	q.Enqueue(types.NotificationItem{Title: "short", Duration: 20 * time.Millisecond})
	q.Notify("long", "", types.SeverityInfo)

	assert.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"long"}, titles(q.Items()))
}

func TestQueue_DuplicateID(t *testing.T) {
	q := NewQueue(time.Minute)
	defer q.Close()

	first := q.Enqueue(types.NotificationItem{ID: "x", Title: "first", Duration: 30 * time.Millisecond})
	second := q.Enqueue(types.NotificationItem{ID: "x", Title: "second", Duration: 60 * time.Millisecond})
	assert.Equal(t, "x", first)
	assert.NotEqual(t, first, second)

	assert.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"second"}, titles(q.Items()))

	// the second item keeps its own timer
	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueue_Dismiss(t *testing.T) {
	q := NewQueue(time.Minute)
	defer q.Close()

	a := q.Notify("a", "", types.SeverityInfo)
	q.Notify("b", "", types.SeverityInfo)

	assert.True(t, q.Dismiss(a))
	assert.False(t, q.Dismiss(a))
	assert.Equal(t, []string{"b"}, titles(q.Items()))
}

func TestQueue_DismissBeforeExpiry(t *testing.T) {
	q := NewQueue(time.Minute)
	defer q.Close()

	id := q.Enqueue(types.NotificationItem{Title: "x", Duration: 20 * time.Millisecond})
	require.True(t, q.Dismiss(id))

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, q.Len())
}

func TestQueue_Callbacks(t *testing.T) {
	var (
		mu       sync.Mutex
		added    []string
		lastSeen []types.NotificationItem
		changes  int
	)

	q := NewQueue(time.Minute,
		WithOnEnqueue(func(item types.NotificationItem) {
			mu.Lock()
			defer mu.Unlock()
			added = append(added, item.Title)
		}),
		WithListener(func(items []types.NotificationItem) {
			mu.Lock()
			defer mu.Unlock()
			lastSeen = items
			changes++
		}),
	)
	defer q.Close()

	id := q.Notify("one", "", types.SeverityInfo)
	q.Notify("two", "", types.SeverityInfo)
	q.Dismiss(id)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two"}, added)
	assert.Equal(t, 3, changes)
	assert.Equal(t, []string{"two"}, titles(lastSeen))
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(20 * time.Millisecond)
	q.Notify("a", "", types.SeverityInfo)

	q.Close()
	assert.Zero(t, q.Len())

	q.Notify("after close", "", types.SeverityInfo)
	assert.Zero(t, q.Len())
}
