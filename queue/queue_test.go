package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closedWithin reports whether ch is closed within d.
func closedWithin(ch <-chan struct{}, d time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(d):
		return false
	}
}

func TestFIFOOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	assert.Equal(t, 5, q.Len())
	assert.Equal(t, 5, q.Unfinished())

	for i := 0; i < 5; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 5, q.Unfinished(), "popping must not count as completion")
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New[string]()
	got := make(chan string, 1)
	go func() {
		v, ok := q.Pop()
		if ok {
			got <- v
		}
		close(got)
	}()

	select {
	case <-got:
		t.Fatal("Pop returned on an empty open queue")
	case <-time.After(50 * time.Millisecond):
	}

	q.Push("a")
	select {
	case v := <-got:
		assert.Equal(t, "a", v)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake after Push")
	}
}

func TestCloseWakesAllPoppers(t *testing.T) {
	q := New[int]()
	const poppers = 4

	var wg sync.WaitGroup
	results := make(chan bool, poppers)
	for i := 0; i < poppers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.Pop()
			results <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	require.True(t, closedWithin(done, time.Second), "Close must wake every blocked Pop")
	close(results)
	for ok := range results {
		assert.False(t, ok)
	}
	assert.True(t, q.Closed())
}

func TestClosedQueueStillDrains(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Close()
	q.Close()

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestJoinReturnsImmediatelyWhenNothingPushed(t *testing.T) {
	q := New[int]()
	done := make(chan struct{})
	go func() {
		q.Join()
		close(done)
	}()
	assert.True(t, closedWithin(done, time.Second))
}

// TestJoinWaitsForInFlightWork holds an item between Pop and TaskDone while
// the queue is empty, and checks Join does not return until the delayed
// follow-up push and every TaskDone have happened.
func TestJoinWaitsForInFlightWork(t *testing.T) {
	q := New[string]()
	q.Push("parent")

	parent, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, "parent", parent)
	require.Equal(t, 0, q.Len())

	joined := make(chan struct{})
	go func() {
		q.Join()
		close(joined)
	}()

	assert.False(t, closedWithin(joined, 50*time.Millisecond), "Join returned while parent was mid-expansion")

	// Expansion finishes: push the child, then mark the parent done.
	q.Push("child")
	q.TaskDone()
	assert.False(t, closedWithin(joined, 50*time.Millisecond), "Join returned with child still unfinished")

	child, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "child", child)
	assert.False(t, closedWithin(joined, 50*time.Millisecond), "Join returned before child TaskDone")

	q.TaskDone()
	assert.True(t, closedWithin(joined, time.Second), "Join did not return after all work finished")
	assert.Equal(t, 0, q.Unfinished())
}

func TestTaskDoneUnderflowPanics(t *testing.T) {
	q := New[int]()
	assert.Panics(t, func() { q.TaskDone() })

	q.Push(1)
	_, _ = q.Pop()
	assert.NotPanics(t, func() { q.TaskDone() })
	assert.Panics(t, func() { q.TaskDone() })
}

func TestConcurrentProducersConsumers(t *testing.T) {
	const (
		producers = 8
		perProd   = 500
		consumers = 6
	)
	q := New[int]()

	var mu sync.Mutex
	seen := make(map[int]int)

	var cwg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				v, ok := q.Pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
				q.TaskDone()
			}
		}()
	}

	var pwg sync.WaitGroup
	for p := 0; p < producers; p++ {
		pwg.Add(1)
		go func(p int) {
			defer pwg.Done()
			for i := 0; i < perProd; i++ {
				q.Push(p*perProd + i)
			}
		}(p)
	}

	pwg.Wait()
	q.Join()
	q.Close()
	cwg.Wait()

	require.Len(t, seen, producers*perProd)
	for v, n := range seen {
		assert.Equal(t, 1, n, "item %d delivered %d times", v, n)
	}
}
