package signalqueue

import (
	"sync"

	"github.com/gammazero/deque"
	"go.uber.org/atomic"
)

// SignalQueue is a synchronized FIFO queue written by any goroutine and drained
// by the single goroutine which owns the evaluator. Len is lock-free so the owner
// can poll it at every safepoint
type SignalQueue[T any] struct {
	d      *deque.Deque[T]
	mutex  sync.Mutex
	size   atomic.Int32
	closed bool
}

func New[T any]() *SignalQueue[T] {
	return &SignalQueue[T]{
		d: new(deque.Deque[T]),
	}
}

// Push appends the element. Elements pushed after Close are dropped
func (q *SignalQueue[T]) Push(elem T) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed {
		return false
	}
	q.d.PushBack(elem)
	q.size.Inc()
	return true
}

func (q *SignalQueue[T]) pop() (T, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.d.Len() == 0 {
		var nilT T
		return nilT, false
	}
	q.size.Dec()
	return q.d.PopFront(), true
}

// Drain calls fun for queued elements in FIFO order until the queue is empty or fun
// returns false. Elements pushed by fun itself are drained in the same call
func (q *SignalQueue[T]) Drain(fun func(elem T) bool) int {
	count := 0
	for {
		e, ok := q.pop()
		if !ok {
			return count
		}
		count++
		if !fun(e) {
			return count
		}
	}
}

// Len is the number of queued elements. Non-deterministic when written concurrently
func (q *SignalQueue[T]) Len() int {
	return int(q.size.Load())
}

// Close drops queued elements and rejects further writes
func (q *SignalQueue[T]) Close() {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.closed = true
	for q.d.Len() > 0 {
		q.d.PopFront()
	}
	q.size.Store(0)
}
