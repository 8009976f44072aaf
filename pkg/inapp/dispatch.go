package inapp

import "sync"

// Dispatcher serializes work onto a single goroutine, the service's main
// context. Every mutation of shared service state and every caller
// callback or observer notification runs here, which removes the need
// for locks on those structures.
type Dispatcher struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewDispatcher starts the run loop.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{done: make(chan struct{})}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			close(d.done)
			return
		}
		task := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		task()
	}
}

// Dispatch queues task on the main context. Tasks run in dispatch order.
// Dispatching after Close drops the task.
func (d *Dispatcher) Dispatch(task func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, task)
	d.mu.Unlock()
	d.cond.Signal()
}

// Sync blocks until every task queued before the call has run. Must not
// be called from the dispatch context itself.
func (d *Dispatcher) Sync() {
	ran := make(chan struct{})
	d.Dispatch(func() { close(ran) })
	select {
	case <-ran:
	case <-d.done:
	}
}

// Close drains already-queued tasks and stops the run loop.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.cond.Signal()
	<-d.done
}
