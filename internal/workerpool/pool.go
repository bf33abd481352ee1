// Package workerpool bounds the number of bridge commands executing at once.
// Screenshot capture and PNG encode are CPU and GDI heavy, so an unbounded
// goroutine-per-command model can starve the UI.
package workerpool

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/framesense/agent/internal/logging"
)

var log = logging.L("workerpool")

// Task is a unit of work submitted to the pool.
type Task func()

// Pool is a bounded goroutine pool with a fixed-size task queue.
type Pool struct {
	workers   int
	queue     chan Task
	wg        sync.WaitGroup
	accepting atomic.Bool
	inFlight  atomic.Int64
	stopOnce  sync.Once
	closeOnce sync.Once
	stopChan  chan struct{}
}

// New starts a pool with the given number of workers and queue capacity.
func New(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &Pool{
		workers:  workers,
		queue:    make(chan Task, queueSize),
		stopChan: make(chan struct{}),
	}
	p.accepting.Store(true)

	for i := 0; i < workers; i++ {
		go p.worker()
	}

	log.Info("worker pool started", "workers", workers, "queueSize", queueSize)
	return p
}

// Submit enqueues a task. Returns false if the pool has stopped accepting or
// the queue is full. wg.Add happens before enqueue so Shutdown cannot race a
// task that was accepted but not yet picked up.
func (p *Pool) Submit(task Task) bool {
	if !p.accepting.Load() {
		return false
	}

	p.wg.Add(1)
	select {
	case p.queue <- task:
		return true
	default:
		p.wg.Done()
		log.Warn("worker pool queue full, task rejected")
		return false
	}
}

// InFlight reports the number of tasks currently executing.
func (p *Pool) InFlight() int64 {
	return p.inFlight.Load()
}

// Shutdown stops accepting new tasks and waits for queued and in-flight
// tasks to finish, up to the context deadline. Workers exit afterwards.
func (p *Pool) Shutdown(ctx context.Context) {
	p.accepting.Store(false)
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("worker pool drained")
	case <-ctx.Done():
		log.Warn("worker pool drain timed out", "inFlight", p.inFlight.Load())
	}

	p.closeOnce.Do(func() {
		close(p.queue)
	})
}

func (p *Pool) worker() {
	for {
		select {
		case task, ok := <-p.queue:
			if !ok {
				return
			}
			p.run(task)
		case <-p.stopChan:
			// Finish what is already queued, then exit.
			for {
				select {
				case task, ok := <-p.queue:
					if !ok {
						return
					}
					p.run(task)
				default:
					return
				}
			}
		}
	}
}

// run executes one task with panic recovery. A panicking command handler
// must not take the whole bridge down.
func (p *Pool) run(task Task) {
	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}
