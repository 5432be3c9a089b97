// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jobqueue implements the single FIFO dispatcher described in
// §5: one map/analyze job runs at a time, in submission order, while
// independent transcript-wise and screen-wise work fans out elsewhere
// with ordinary goroutines. A buffered channel stands in for the
// original's queue + condition variable; closing the queue is the
// sentinel that tells the dispatcher to stop.
package jobqueue

import (
	"context"
	"errors"
	"log"
)

// Job is one unit of dispatcher work: a screen mapping or analysis
// run. Name is used only for logging.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// ErrStopped is returned by Submit once the queue has been stopped.
var ErrStopped = errors.New("jobqueue: queue stopped")

// Queue is a FIFO job queue served by exactly one dispatcher
// goroutine, so at most one map/analyze job runs at a time.
type Queue struct {
	jobs    chan Job
	stopped chan struct{}
	done    chan struct{}
}

// New returns a Queue with the given pending-job capacity.
func New(capacity int) *Queue {
	return &Queue{
		jobs:    make(chan Job, capacity),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Submit enqueues a job. It returns ErrStopped if the queue has been
// stopped.
func (q *Queue) Submit(j Job) error {
	select {
	case <-q.stopped:
		return ErrStopped
	default:
	}
	select {
	case q.jobs <- j:
		return nil
	case <-q.stopped:
		return ErrStopped
	}
}

// Run is the single dispatcher: it processes jobs strictly in
// submission order until Stop is called or ctx is cancelled. After
// Stop, any already-queued jobs still drain before Run returns; after
// ctx is cancelled, Run returns without running the jobs still queued.
// A job's error is logged and the dispatcher moves on to the next job —
// there are no retries (§7's "no hidden retries" propagation policy).
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case j := <-q.jobs:
			if err := j.Run(ctx); err != nil {
				log.Printf("jobqueue: job %q failed: %v", j.Name, err)
			}
		case <-q.stopped:
			q.drain(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case j := <-q.jobs:
			if err := j.Run(ctx); err != nil {
				log.Printf("jobqueue: job %q failed: %v", j.Name, err)
			}
		default:
			return
		}
	}
}

// Stop signals the dispatcher to drain remaining jobs and exit, and
// rejects further submissions. It does not block; use Wait to block
// until the dispatcher has exited.
func (q *Queue) Stop() {
	select {
	case <-q.stopped:
	default:
		close(q.stopped)
	}
}

// Wait blocks until the dispatcher goroutine started by Run has
// exited.
func (q *Queue) Wait() {
	<-q.done
}
