package tea

import (
	"sync"
)

// Executor runs command effects. Implementations must not block the caller
// of Go on the completion of other tasks.
type Executor interface {
	Go(task func())
}

// rejectingExecutor is implemented by executors that can refuse a task,
// such as a closed Pool. Program uses it to keep its outstanding-work count
// exact.
type rejectingExecutor interface {
	TryGo(task func()) bool
}

// GoExecutor runs every task on its own goroutine.
type GoExecutor struct{}

// Go starts task on a new goroutine.
func (GoExecutor) Go(task func()) {
	go task()
}

// taskGroup is the Program's default executor: one goroutine per task,
// tracked so Close can wait for in-flight effects.
type taskGroup struct {
	wg sync.WaitGroup
}

func (g *taskGroup) Go(task func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		task()
	}()
}

func (g *taskGroup) Wait() {
	g.wg.Wait()
}

// Pool runs tasks on a fixed number of worker goroutines fed by an unbounded
// FIFO queue. Go never blocks, so effects that publish from inside a worker
// cannot deadlock the pool.
//
// Thread-safety model:
//   - Go(): safe from any goroutine
//   - Close(): safe from any goroutine, idempotent
type Pool struct {
	queue *mailbox[func()]
	wg    sync.WaitGroup
	once  sync.Once
}

// NewPool starts a pool with the given number of workers. Values below 1
// are treated as 1.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := &Pool{queue: newMailbox[func()]()}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

// Go enqueues task. Tasks submitted after Close are dropped.
func (p *Pool) Go(task func()) {
	p.TryGo(task)
}

// TryGo enqueues task and reports whether it was accepted. It returns false
// once the pool is closed.
func (p *Pool) TryGo(task func()) bool {
	return p.queue.Enqueue(task)
}

// Close stops accepting tasks, runs everything already queued, and waits for
// the workers to exit.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.queue.Close()
	})
	p.wg.Wait()
}

// Pending returns the number of queued tasks not yet picked up by a worker.
func (p *Pool) Pending() int {
	return p.queue.Len()
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		task, ok := p.queue.Dequeue()
		if !ok {
			return
		}
		task()
	}
}
