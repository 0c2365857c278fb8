// Package eventloop implements a single-threaded cooperative reactor:
// one goroutine drains a queue of closures, and every Timer, Stream,
// Pipe/Process, and Async primitive that touches session state does so
// only by posting a closure onto that queue. No two posted closures
// ever run concurrently with each other, which is the Go rendition of
// "single-threaded, cooperative, handlers run to completion without
// yielding."
//
// Every I/O-driving goroutine is a "reader" that only ever posts
// closures; the Loop goroutine is the sole "consumer".
package eventloop

import (
	"context"

	"github.com/uos-cooperation/daemon/lib/logger"
)

var log = logger.DefaultLogger.NewFacility("eventloop")

// Loop is a single-threaded reactor. A Loop may host many Machines'
// Timers, Streams, and Processes; their callbacks are serialized onto
// the Loop's own goroutine.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop returns a Loop that is not yet running; call Run (directly,
// or have a suture.Supervisor call Serve) to start draining tasks.
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

// Post schedules f to run on the loop's goroutine. Post is safe to call
// from any goroutine; it is the daemon's Async-wake primitive in its
// most primitive form. Posting after the loop has stopped is a no-op.
func (l *Loop) Post(f func()) {
	select {
	case l.tasks <- f:
	case <-l.done:
	}
}

// Run drains tasks until the context is cancelled. Serve wraps it to
// satisfy suture.Service so a Loop can be supervised alongside the
// Manager's other services.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-l.tasks:
			f()
		}
	}
}

// Serve implements suture.Service.
func (l *Loop) Serve(ctx context.Context) error {
	return l.Run(ctx)
}
