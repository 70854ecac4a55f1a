package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e := New[string](false)
	require.NotNil(t, e)
	assert.Equal(t, 0, e.SubscriberCount())
	assert.False(t, e.replayLast)

	e2 := New[int](true)
	assert.True(t, e2.replayLast)
}

func TestSubscribe_PublishAndUnsubscribe(t *testing.T) {
	e := New[string](false)

	var received []string
	unsubscribe := e.Subscribe(func(v string) {
		received = append(received, v)
	})
	assert.Equal(t, 1, e.SubscriberCount())

	e.Publish("set 1")
	e.Publish("set 2")
	assert.Equal(t, []string{"set 1", "set 2"}, received)

	unsubscribe()
	assert.Equal(t, 0, e.SubscriberCount())

	e.Publish("set 3")
	assert.Len(t, received, 2)

	// unsubscribing twice is harmless
	unsubscribe()
	assert.Equal(t, 0, e.SubscriberCount())
}

func TestSubscribe_MultipleSubscribers(t *testing.T) {
	e := New[int](false)

	var a, b []int
	unA := e.Subscribe(func(v int) { a = append(a, v) })
	unB := e.Subscribe(func(v int) { b = append(b, v) })

	e.Publish(42)
	e.Publish(100)

	assert.Equal(t, []int{42, 100}, a)
	assert.Equal(t, []int{42, 100}, b)

	unA()
	unB()
	assert.Equal(t, 0, e.SubscriberCount())
}

func TestReplayLast(t *testing.T) {
	e := New[string](true)

	var first []string
	e.Subscribe(func(v string) { first = append(first, v) })
	assert.Empty(t, first, "nothing to replay before the first publish")

	e.Publish("work")

	var late []string
	e.Subscribe(func(v string) { late = append(late, v) })
	assert.Equal(t, []string{"work"}, late)

	last, ok := e.Last()
	assert.True(t, ok)
	assert.Equal(t, "work", last)
}

func TestNoReplayWhenDisabled(t *testing.T) {
	e := New[string](false)
	e.Publish("rest")

	var late []string
	e.Subscribe(func(v string) { late = append(late, v) })
	assert.Empty(t, late)

	_, ok := e.Last()
	assert.False(t, ok)
}

func TestSubscribeChan_ReceivesAndSkipsWhenFull(t *testing.T) {
	e := New[string](false)

	ch := make(chan string, 1)
	unsubscribe := e.SubscribeChan(ch)
	defer unsubscribe()

	e.Publish("first")
	e.Publish("dropped")
	assert.Len(t, ch, 1)
	assert.Equal(t, "first", <-ch)

	e.Publish("third")
	select {
	case v := <-ch:
		assert.Equal(t, "third", v)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for value")
	}
}

func TestSubscribeChan_ReplayLast(t *testing.T) {
	e := New[int](true)
	e.Publish(7)

	ch := make(chan int, 2)
	unsubscribe := e.SubscribeChan(ch)
	defer unsubscribe()

	assert.Equal(t, 7, <-ch)
}

func TestNilSubscribersPanic(t *testing.T) {
	e := New[string](false)
	assert.Panics(t, func() { e.Subscribe(nil) })
	assert.Panics(t, func() { e.SubscribeChan(nil) })
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	e := New[string](false)

	var received []string
	var unsubscribe func()
	unsubscribe = e.Subscribe(func(v string) {
		received = append(received, v)
		if v == "stop" {
			unsubscribe()
		}
	})

	e.Publish("a")
	e.Publish("stop")
	e.Publish("b")

	assert.Equal(t, []string{"a", "stop"}, received)
	assert.Equal(t, 0, e.SubscriberCount())
}

func TestConcurrentPublish(t *testing.T) {
	e := New[int](false)

	var mu sync.Mutex
	count := 0
	for i := 0; i < 10; i++ {
		e.Subscribe(func(int) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		go func(v int) {
			defer wg.Done()
			e.Publish(v)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 50, count)
	mu.Unlock()
}
