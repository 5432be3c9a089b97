// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFIFOOrder(t *testing.T) {
	q := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		if err := q.Submit(Job{
			Name: "job",
			Run: func(ctx context.Context) error {
				defer wg.Done()
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			},
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("jobs ran out of order: %v", order)
		}
	}
}

func TestSubmitAfterStop(t *testing.T) {
	q := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Stop()
	q.Wait()

	err := q.Submit(Job{Name: "late", Run: func(ctx context.Context) error { return nil }})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("Submit after Stop = %v, want ErrStopped", err)
	}
}

func TestFailingJobDoesNotHaltDispatcher(t *testing.T) {
	q := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	if err := q.Submit(Job{
		Name: "fails",
		Run:  func(ctx context.Context) error { return errors.New("boom") },
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ran := make(chan struct{})
	if err := q.Submit(Job{
		Name: "after",
		Run: func(ctx context.Context) error {
			close(ran)
			return nil
		},
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job after a failing job never ran")
	}
}

func TestStopDrainsBufferedJobs(t *testing.T) {
	q := New(4)

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 3; i++ {
		if err := q.Submit(Job{
			Name: "buffered",
			Run: func(ctx context.Context) error {
				mu.Lock()
				ran++
				mu.Unlock()
				return nil
			},
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Stop()
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if ran != 3 {
		t.Fatalf("ran = %d, want 3 (Stop should drain buffered jobs)", ran)
	}
}
