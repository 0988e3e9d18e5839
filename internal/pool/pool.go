// Package pool runs tasks pulled from a bounded queue on a resizable set of
// goroutines. Submissions block when the queue is full.
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"blastfasta/internal/errs"
	"blastfasta/internal/queue"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxWorkers  = 32
	DefaultIdleTimeout = 60 * time.Second
)

// ErrShutdown is returned by Submit once Shutdown has been called.
var ErrShutdown = errors.New("pool is shut down")

// Task is one unit of work with the sequence number it was submitted under.
type Task[T any] struct {
	Seq  uint64
	Item T
}

// Handler processes one task. A returned error marks the task failed; the
// pool logs it and moves on.
type Handler[T any] func(ctx context.Context, t Task[T]) error

// Config bounds the worker count.
type Config struct {
	MinWorkers  int
	MaxWorkers  int
	IdleTimeout time.Duration

	// Parallelism is the host's available parallelism; 0 means runtime.NumCPU.
	Parallelism int
}

// Size applies the sizing policy: the floor is the larger of the configured
// minimum and the available parallelism, capped by the ceiling.
func Size(cfg Config) (minWorkers, maxWorkers int) {
	maxWorkers = cfg.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = DefaultMaxWorkers
	}
	par := cfg.Parallelism
	if par < 1 {
		par = runtime.NumCPU()
	}
	minWorkers = max(cfg.MinWorkers, par, 1)
	if minWorkers > maxWorkers {
		minWorkers = maxWorkers
	}
	return minWorkers, maxWorkers
}

// Stats is a snapshot of the pool counters.
type Stats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Live      int
}

// Pool is a worker pool fed by a queue.Queue.
type Pool[T any] struct {
	min, max int
	idle     time.Duration

	q       *queue.Queue[Task[T]]
	handler Handler[T]
	log     zerolog.Logger

	ctx context.Context

	mu       sync.Mutex
	live     int
	started  bool
	shutdown bool
	wg       sync.WaitGroup

	drainOnce sync.Once
	drained   chan struct{}

	seq       atomic.Uint64
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// New builds a pool over q. Call Start before expecting progress.
func New[T any](cfg Config, q *queue.Queue[Task[T]], h Handler[T], log zerolog.Logger) *Pool[T] {
	lo, hi := Size(cfg)
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Pool[T]{
		min:     lo,
		max:     hi,
		idle:    idle,
		q:       q,
		handler: h,
		log:     log,
		drained: make(chan struct{}),
	}
}

// Start launches the core workers. Handlers receive ctx.
func (p *Pool[T]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.ctx = ctx
	for i := 0; i < p.min; i++ {
		p.spawnLocked(true)
	}
	p.log.Debug().Int("min_workers", p.min).Int("max_workers", p.max).Dur("idle_timeout", p.idle).
		Int("queue_capacity", p.q.Cap()).Msg("worker pool started")
}

// Submit enqueues item, blocking while the queue is full, and returns the
// sequence number assigned to it.
func (p *Pool[T]) Submit(ctx context.Context, item T) (uint64, error) {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return 0, ErrShutdown
	}
	p.mu.Unlock()

	n := p.seq.Add(1)
	if err := p.q.Enqueue(ctx, Task[T]{Seq: n, Item: item}); err != nil {
		if errors.Is(err, queue.ErrClosed) {
			return 0, ErrShutdown
		}
		return 0, err
	}
	p.submitted.Add(1)

	// Grow past the floor only when work is actually waiting.
	if p.q.Len() > 0 {
		p.mu.Lock()
		if p.started && !p.shutdown && p.live < p.max {
			p.spawnLocked(false)
		}
		p.mu.Unlock()
	}
	return n, nil
}

// Shutdown stops accepting submissions. Queued tasks still run.
func (p *Pool[T]) Shutdown() {
	p.mu.Lock()
	p.shutdown = true
	p.mu.Unlock()
	p.q.Close()
}

// AwaitDrain waits up to timeout (forever if timeout <= 0) for every worker to
// exit. It reports whether the pool fully drained.
func (p *Pool[T]) AwaitDrain(timeout time.Duration) bool {
	p.drainOnce.Do(func() {
		go func() {
			p.wg.Wait()
			close(p.drained)
		}()
	})
	if timeout <= 0 {
		<-p.drained
		return true
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-p.drained:
		return true
	case <-t.C:
		return false
	}
}

// Stats returns the current counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	live := p.live
	p.mu.Unlock()
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Live:      live,
	}
}

func (p *Pool[T]) spawnLocked(core bool) {
	p.live++
	p.wg.Add(1)
	go p.work(core)
}

func (p *Pool[T]) work(core bool) {
	defer func() {
		p.mu.Lock()
		p.live--
		p.mu.Unlock()
		p.wg.Done()
	}()
	for {
		t, err := p.next(core)
		if err != nil {
			if !core && errors.Is(err, context.DeadlineExceeded) && p.ctx.Err() == nil {
				p.log.Trace().Msg("idle worker expired")
			}
			return
		}
		p.run(t)
	}
}

func (p *Pool[T]) next(core bool) (Task[T], error) {
	if core {
		return p.q.Dequeue(p.ctx)
	}
	ctx, cancel := context.WithTimeout(p.ctx, p.idle)
	defer cancel()
	return p.q.Dequeue(ctx)
}

func (p *Pool[T]) run(t Task[T]) {
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.log.Error().Uint64("seq", t.Seq).Str("panic", fmt.Sprint(r)).Msg("task panicked")
		}
	}()
	if err := p.handler(p.ctx, t); err != nil {
		p.failed.Add(1)
		p.log.Error().Err(err).Uint64("seq", t.Seq).Str("kind", errs.KindOf(err).String()).Msg("task failed")
		return
	}
	p.completed.Add(1)
}
