package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitAndRun(t *testing.T) {
	p := New(2, 8)
	var done sync.WaitGroup
	var ran atomic.Int32

	for i := 0; i < 5; i++ {
		done.Add(1)
		if !p.Submit(func() {
			ran.Add(1)
			done.Done()
		}) {
			t.Fatal("submit rejected")
		}
	}
	done.Wait()

	if ran.Load() != 5 {
		t.Fatalf("ran = %d, want 5", ran.Load())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Shutdown(ctx)
}

func TestSubmit_RejectsWhenQueueFull(t *testing.T) {
	p := New(1, 1)
	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker, then fill the queue.
	p.Submit(func() { <-block })
	time.Sleep(10 * time.Millisecond)
	if !p.Submit(func() {}) {
		t.Fatal("queue slot should have been free")
	}

	if p.Submit(func() {}) {
		t.Fatal("expected rejection with a full queue")
	}
}

func TestShutdown_FinishesQueuedTasks(t *testing.T) {
	p := New(1, 8)
	var ran atomic.Int32

	for i := 0; i < 4; i++ {
		p.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Shutdown(ctx)

	if ran.Load() != 4 {
		t.Fatalf("ran = %d, want 4 (queued tasks must finish)", ran.Load())
	}
	if p.Submit(func() {}) {
		t.Fatal("submit after shutdown should be rejected")
	}
}

func TestRun_RecoverFromPanic(t *testing.T) {
	p := New(1, 4)
	var done sync.WaitGroup

	done.Add(1)
	p.Submit(func() {
		defer done.Done()
		panic("handler blew up")
	})
	done.Wait()

	// Pool still works after a panicking task.
	done.Add(1)
	if !p.Submit(func() { done.Done() }) {
		t.Fatal("submit after panic rejected")
	}
	done.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Shutdown(ctx)
}
