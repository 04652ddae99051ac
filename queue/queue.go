// Package queue provides the blocking frontier used by the traversal engine.
package queue

import "sync"

// BlockingQueue is an unbounded FIFO shared by producers and consumers with
// completion tracking. Every pushed item counts as unfinished until a consumer
// that popped it calls TaskDone, which lets Join detect that no work is in
// flight even while the queue is momentarily empty.
type BlockingQueue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	allDone  *sync.Cond

	items      []T
	closed     bool
	unfinished int
}

// New creates an empty, open queue.
func New[T any]() *BlockingQueue[T] {
	q := &BlockingQueue[T]{}
	q.notEmpty = sync.NewCond(&q.mu)
	q.allDone = sync.NewCond(&q.mu)
	return q
}

// Push appends an item and wakes one waiting consumer. It never blocks.
// The unfinished count is raised here, never at Pop time.
func (q *BlockingQueue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.unfinished++
	q.mu.Unlock()
	q.notEmpty.Signal()
}

// Pop blocks while the queue is empty and open. It returns the next item in
// FIFO order, or false once the queue is both closed and empty.
func (q *BlockingQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return item, true
}

// TaskDone marks one popped item as fully processed. It must be called
// exactly once per successful Pop, after any follow-up items were pushed.
func (q *BlockingQueue[T]) TaskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished <= 0 {
		panic("queue: TaskDone called more times than items were pushed")
	}
	q.unfinished--
	if q.unfinished == 0 {
		q.allDone.Broadcast()
	}
}

// Close marks the queue closed and wakes every blocked consumer. Items
// already queued are still handed out by Pop.
func (q *BlockingQueue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}

// Join blocks until every pushed item has been popped and marked done.
func (q *BlockingQueue[T]) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.unfinished > 0 {
		q.allDone.Wait()
	}
}

// Len returns the number of queued items not yet popped.
func (q *BlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Unfinished returns the number of items pushed but not yet marked done.
func (q *BlockingQueue[T]) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// Closed reports whether Close has been called.
func (q *BlockingQueue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
