// Package parallel runs tile jobs on a fixed set of worker goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool distributes jobs across workers, each with its own queue. Idle
// workers steal from the other queues so one slow tile does not hold back
// the jobs queued behind it.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	// pending counts submitted jobs that have not finished.
	pending sync.WaitGroup
	queued  atomic.Int64
	running atomic.Bool
}

// NewPool starts a pool with the given number of workers.
// Zero or negative means GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(8, workers*4)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case job := <-own:
			p.run(job)
			continue
		case <-p.done:
			p.drain(own)
			return
		default:
		}

		if job := p.steal(id); job != nil {
			p.run(job)
			continue
		}
		select {
		case job := <-own:
			p.run(job)
		case <-p.done:
			p.drain(own)
			return
		}
	}
}

func (p *Pool) run(job func()) {
	defer p.pending.Done()
	p.queued.Add(-1)
	job()
}

func (p *Pool) drain(queue chan func()) {
	for {
		select {
		case job := <-queue:
			p.run(job)
		default:
			return
		}
	}
}

func (p *Pool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case job := <-p.queues[i]:
			return job
		default:
		}
	}
	return nil
}

// Submit queues job on the worker with the shortest queue. It blocks while
// every queue is full and reports false once the pool is closed.
func (p *Pool) Submit(job func()) bool {
	if job == nil || !p.running.Load() {
		return false
	}

	target := 0
	for i := 1; i < p.workers; i++ {
		if len(p.queues[i]) < len(p.queues[target]) {
			target = i
		}
	}

	p.pending.Add(1)
	p.queued.Add(1)
	select {
	case p.queues[target] <- job:
		return true
	case <-p.done:
		p.queued.Add(-1)
		p.pending.Done()
		return false
	}
}

// ForEach runs fn(0) … fn(n-1) on the pool and waits for them.
// Jobs submitted concurrently by other callers are not waited for.
func (p *Pool) ForEach(n int, fn func(i int)) {
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		if !p.Submit(func() {
			defer wg.Done()
			fn(i)
		}) {
			wg.Done()
		}
	}
	wg.Wait()
}

// Wait blocks until every submitted job has finished. Calls to Submit
// must not run concurrently with Wait.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Close stops accepting jobs, runs the queued ones and stops the workers.
// It is safe to call more than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
	// A Submit racing with Close may have queued after its worker left.
	for _, q := range p.queues {
		p.drain(q)
	}
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return p.workers }

// Queued returns the number of jobs waiting for a worker.
func (p *Pool) Queued() int { return int(p.queued.Load()) }

// IsRunning reports whether the pool accepts jobs.
func (p *Pool) IsRunning() bool { return p.running.Load() }
