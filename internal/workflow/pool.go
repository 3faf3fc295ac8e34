package workflow

import (
	"context"
	"errors"
	"sync"
)

// ErrExecutorClosed is returned when submitting to a shut down executor.
var ErrExecutorClosed = errors.New("executor closed")

// Executor runs submitted tasks.
type Executor interface {
	Submit(ctx context.Context, task func()) error
	Shutdown()
}

// WorkerPool runs tasks on a fixed number of goroutines. With a queue size of
// zero the queue is unbounded and Submit never blocks; otherwise Submit blocks
// while queueSize tasks are waiting.
type WorkerPool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	slots  chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewWorkerPool starts size workers.
func NewWorkerPool(size, queueSize int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	p := &WorkerPool{}
	p.cond = sync.NewCond(&p.mu)
	if queueSize > 0 {
		p.slots = make(chan struct{}, queueSize)
	}
	p.wg.Add(size)
	for range size {
		go p.work()
	}
	return p
}

// Submit enqueues task.
func (p *WorkerPool) Submit(ctx context.Context, task func()) error {
	if task == nil {
		return errors.New("task is nil")
	}
	if p.slots != nil {
		select {
		case p.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.release()
		return ErrExecutorClosed
	}
	p.tasks = append(p.tasks, task)
	p.mu.Unlock()
	p.cond.Signal()
	return nil
}

// Shutdown stops accepting tasks, runs everything already queued and waits
// for the workers to exit.
func (p *WorkerPool) Shutdown() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

// Pending returns the number of queued tasks not yet picked up.
func (p *WorkerPool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

func (p *WorkerPool) work() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.tasks) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.tasks) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.tasks[0]
		p.tasks[0] = nil
		p.tasks = p.tasks[1:]
		p.mu.Unlock()
		p.release()
		task()
	}
}

func (p *WorkerPool) release() {
	if p.slots != nil {
		<-p.slots
	}
}

// InlineExecutor runs each task on the submitting goroutine.
type InlineExecutor struct{}

func (InlineExecutor) Submit(_ context.Context, task func()) error {
	if task == nil {
		return errors.New("task is nil")
	}
	task()
	return nil
}

func (InlineExecutor) Shutdown() {}
