// Package workerpool runs per-stripe jobs on a bounded set of workers.
// Stripes are independent, so the controller fans each whole-array
// operation out through a Room and waits for it to drain.
package workerpool

import (
	"errors"
	"runtime"
	"sync"
)

// Config sizes the pool. Zero values pick defaults based on the CPU count.
type Config struct {
	WorkerCount  int
	GlobalBuffer int
}

// WorkerPool owns the shared task queue and the worker goroutines.
type WorkerPool struct {
	config    Config
	taskQueue chan task
	closeOnce sync.Once
}

type task struct {
	run  func() error
	room *Room
}

// Room collects the results of one batch of tasks.
type Room struct {
	wg    sync.WaitGroup
	errMu sync.Mutex
	errs  []error
	wp    *WorkerPool
}

// NewWorkerPool starts the workers immediately.
func NewWorkerPool(config Config) *WorkerPool {
	if config.WorkerCount < 1 {
		config.WorkerCount = runtime.NumCPU()
	}
	if config.GlobalBuffer < 1 {
		config.GlobalBuffer = 1024
	}

	wp := &WorkerPool{
		config:    config,
		taskQueue: make(chan task, config.GlobalBuffer),
	}
	for i := 0; i < config.WorkerCount; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	for t := range wp.taskQueue {
		if err := t.run(); err != nil {
			t.room.errMu.Lock()
			t.room.errs = append(t.room.errs, err)
			t.room.errMu.Unlock()
		}
		t.room.wg.Done()
	}
}

// CreateRoom returns an empty batch bound to this pool.
func (wp *WorkerPool) CreateRoom() *Room {
	return &Room{wp: wp}
}

// Close stops the workers once all queued tasks have drained. Rooms must
// not submit after Close.
func (wp *WorkerPool) Close() {
	wp.closeOnce.Do(func() {
		close(wp.taskQueue)
	})
}

// NewTask queues a job, blocking while the global buffer is full.
func (r *Room) NewTask(job func() error) {
	r.wg.Add(1)
	r.wp.taskQueue <- task{run: job, room: r}
}

// Wait blocks until every task of the room has finished and returns the
// joined errors, if any.
func (r *Room) Wait() error {
	r.wg.Wait()
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return errors.Join(r.errs...)
}
