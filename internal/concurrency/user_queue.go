package concurrency

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("user queue closed")

type WorkerFn func(ctx context.Context) error

type job struct {
	fn   WorkerFn
	done chan error
}

// UserQueue runs jobs one at a time per user, in submission order, while
// different users proceed in parallel. A user's goroutine exists only while
// that user has pending work.
type UserQueue struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[int64][]job
	closed  bool
	wg      sync.WaitGroup
}

func NewUserQueue() *UserQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &UserQueue{
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[int64][]job),
	}
}

// Do enqueues fn behind the user's earlier jobs and waits for its result.
// If ctx ends first Do returns ctx.Err(); the job still runs in order.
func (q *UserQueue) Do(ctx context.Context, userID int64, fn WorkerFn) error {
	done := make(chan error, 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	queue, running := q.pending[userID]
	q.pending[userID] = append(queue, job{fn: fn, done: done})
	if !running {
		q.wg.Add(1)
		go q.drain(userID)
	}
	q.mu.Unlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *UserQueue) drain(userID int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		queue := q.pending[userID]
		if len(queue) == 0 {
			delete(q.pending, userID)
			q.mu.Unlock()
			return
		}
		next := queue[0]
		q.pending[userID] = queue[1:]
		q.mu.Unlock()

		next.done <- next.fn(q.ctx)
	}
}

// Close rejects new work and waits for queued jobs to finish.
func (q *UserQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
	q.cancel()
}
