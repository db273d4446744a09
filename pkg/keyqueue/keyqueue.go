// Package keyqueue serializes work per correlation key. Tasks submitted for
// the same key run one at a time in FIFO order; tasks for different keys run
// independently. The course store uses it to queue mutations per courseId so
// interleaved callers cannot lose updates.
package keyqueue

import (
	"fmt"
	"sync"
)

type task struct {
	fn   func() error
	done chan error
}

type worker struct {
	queue   []task
	running bool
}

// Group manages one serial queue per key. Idle queues are reaped once
// drained; keys are created on demand.
type Group struct {
	mu      sync.Mutex
	workers map[string]*worker
}

// New creates an empty Group.
func New() *Group {
	return &Group{workers: make(map[string]*worker)}
}

// Do enqueues fn on the key's queue and blocks until it has run, returning
// fn's error. A panic inside fn is recovered and surfaced as an error so one
// bad task cannot wedge the queue.
func (g *Group) Do(key string, fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}

	g.mu.Lock()
	w, ok := g.workers[key]
	if !ok {
		w = &worker{}
		g.workers[key] = w
	}
	w.queue = append(w.queue, t)
	if !w.running {
		w.running = true
		go g.run(key, w)
	}
	g.mu.Unlock()

	return <-t.done
}

// Len reports the number of keys with live queues.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.workers)
}

func (g *Group) run(key string, w *worker) {
	for {
		g.mu.Lock()
		if len(w.queue) == 0 {
			w.running = false
			delete(g.workers, key)
			g.mu.Unlock()
			return
		}
		next := w.queue[0]
		w.queue = w.queue[1:]
		g.mu.Unlock()

		next.done <- call(next.fn)
	}
}

func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("keyqueue: task panicked: %v", r)
		}
	}()
	return fn()
}
