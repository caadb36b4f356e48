package workerpool

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/yndnr/tlsrest/internal/telemetry/metric"
)

// ErrPoolStopped is returned by Submit once Stop has been called.
var ErrPoolStopped = errors.New("workerpool: pool is stopped")

// Task is a unit of work executed by a pool worker.
type Task func()

// Pool executes submitted tasks on a fixed number of goroutines.
type Pool struct {
	workers int
	logger  *slog.Logger
	metrics *metric.PoolMetrics

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Task
	stopped bool

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for recovered task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithMetrics attaches pool metrics.
func WithMetrics(m *metric.PoolMetrics) Option {
	return func(p *Pool) {
		p.metrics = m
	}
}

// New starts a pool with the given number of workers.
// A non-positive count means one worker per CPU.
func New(workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		workers: workers,
		logger:  slog.Default(),
	}
	p.cond = sync.NewCond(&p.mu)

	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}

	return p
}

// Submit enqueues a task. It never waits for a free worker.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("workerpool: nil task")
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	p.queue = append(p.queue, task)
	depth := len(p.queue)
	p.mu.Unlock()

	p.metrics.SetQueueDepth(depth)
	p.cond.Signal()
	return nil
}

// Stop asks workers to exit once the queue is empty and blocks until all
// of them have returned. Tasks queued before Stop still run. Later calls
// return immediately.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		p.cond.Broadcast()
		p.wg.Wait()
	})
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Pending returns the number of tasks waiting for a worker.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		task, ok := p.next()
		if !ok {
			return
		}
		p.run(id, task)
	}
}

// next blocks until a task is available or the pool is stopped and empty.
func (p *Pool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.stopped {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}

	task := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	p.metrics.SetQueueDepth(len(p.queue))

	return task, true
}

func (p *Pool) run(id int, task Task) {
	p.metrics.WorkerBusy()
	defer p.metrics.WorkerIdle()
	defer func() {
		if r := recover(); r != nil {
			p.metrics.TaskPanicked()
			p.logger.Error("task panicked",
				"worker", id,
				"panic", fmt.Sprint(r),
			)
		}
	}()

	task()
}
