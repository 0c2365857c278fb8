package eventloop

import (
	"sync"
	"time"
)

// Timer fires its callback on the Loop's goroutine and supports
// start(periodMs), oneshot(delayMs), reset(), stop(), close().
type Timer struct {
	loop      *Loop
	cb        func()
	mu        sync.Mutex
	timer     *time.Timer
	period    time.Duration // zero for a oneshot
	lastDelay time.Duration
	gen       uint64 // invalidates callbacks from a stopped/replaced timer
	closed    bool
}

// NewTimer creates a Timer bound to loop; it does not start ticking
// until Start or Oneshot is called.
func NewTimer(loop *Loop, cb func()) *Timer {
	return &Timer{loop: loop, cb: cb}
}

// Start arms the timer to fire periodically every period, starting
// after one period has elapsed.
func (t *Timer) Start(period time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.period = period
	t.arm(period)
}

// Oneshot arms the timer to fire exactly once after delay.
func (t *Timer) Oneshot(delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.period = 0
	t.arm(delay)
}

// Reset re-arms the timer using its original interval (the one passed
// to Start or Oneshot), restarting the countdown from now -- used for
// both pingTimer and offlineTimer on every received beacon.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.period > 0 {
		t.arm(t.period)
	} else if t.timer != nil {
		t.arm(t.lastDelay)
	}
}

func (t *Timer) arm(d time.Duration) {
	t.lastDelay = d
	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	periodic := t.period > 0
	t.timer = time.AfterFunc(d, func() { t.fire(gen, periodic, d) })
}

func (t *Timer) fire(gen uint64, periodic bool, d time.Duration) {
	t.mu.Lock()
	if t.closed || gen != t.gen {
		t.mu.Unlock()
		return
	}
	if periodic {
		t.timer = time.AfterFunc(d, func() { t.fire(gen, periodic, d) })
	}
	t.mu.Unlock()

	t.loop.Post(func() {
		t.mu.Lock()
		closed := t.closed
		curGen := t.gen
		t.mu.Unlock()
		if closed || curGen != gen {
			return
		}
		t.cb()
	})
}

// Stop idempotently halts the timer without releasing its resources;
// it may be re-armed with Start/Oneshot afterward.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Close stops the timer permanently. Every owned timer must be closed
// before its Machine is dropped.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
}
