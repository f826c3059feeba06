package eventloop

import (
	"log/slog"
	"sync"
)

// Task unit of work run on the loop
type Task func()

// Loop runs tasks one at a time in submission order.
// Tasks on the same loop never overlap, so they can share state without locking.
type Loop struct {
	taskQueue chan Task
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	logger    *slog.Logger
}

// New starts a loop with a buffered queue of queueSize tasks.
func New(queueSize int, logger *slog.Logger) *Loop {
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}

	l := &Loop{
		taskQueue: make(chan Task, queueSize),
		logger:    logger,
	}

	l.wg.Add(1)
	go l.run()

	return l
}

// run drains the queue until it is closed
func (l *Loop) run() {
	defer l.wg.Done()

	for task := range l.taskQueue {
		l.execute(task)
	}
}

// execute runs a task, recovering from panics so one bad event cannot stop the loop
func (l *Loop) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Task panic recovered", "panic", r)
		}
	}()
	task()
}

// Submit queues a task, blocking while the queue is full.
// Returns false once the loop is shut down. Must not be called from a task
// while the queue may be full.
func (l *Loop) Submit(task Task) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return false
	}
	l.taskQueue <- task
	return true
}

// TrySubmit queues a task without blocking; false if full or shut down.
func (l *Loop) TrySubmit(task Task) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return false
	}
	select {
	case l.taskQueue <- task:
		return true
	default:
		return false
	}
}

// Do runs task on the loop and waits for it to finish.
// Returns false without running task if the loop is shut down.
func (l *Loop) Do(task Task) bool {
	done := make(chan struct{})
	ok := l.Submit(func() {
		defer close(done)
		task()
	})
	if !ok {
		return false
	}
	<-done
	return true
}

// Shutdown stops accepting tasks, runs the ones already queued and waits.
// Safe to call more than once, but not from inside a task.
func (l *Loop) Shutdown() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.taskQueue)
	l.mu.Unlock()

	l.wg.Wait()
	l.logger.Debug("Event loop stopped")
}
