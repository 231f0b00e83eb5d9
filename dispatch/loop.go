// SPDX-License-Identifier: EPL-2.0

package dispatch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/profile"
)

const DefaultTickInterval = 20 * time.Millisecond

type command struct {
	fn   func(*Dispatcher)
	done chan struct{}
}

type LoopOption func(*Loop)

func WithTickInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// Loop runs a Dispatcher on a single goroutine. Calls from any goroutine
// are queued and executed between ticks.
type Loop struct {
	d        *Dispatcher
	interval time.Duration
	cmds     chan command
	stopped  chan struct{}
	running  atomic.Bool
}

func NewLoop(d *Dispatcher, opts ...LoopOption) *Loop {
	l := &Loop{
		d:        d,
		interval: DefaultTickInterval,
		cmds:     make(chan command),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes commands and ticks the dispatcher until ctx ends, then
// closes the dispatcher. A Loop runs at most once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer close(l.stopped)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := l.d.Close(); err != nil {
				l.d.log.Warn("closing dispatcher", "error", err)
			}
			return nil
		case <-ticker.C:
			l.d.Tick()
		case c := <-l.cmds:
			c.fn(l.d)
			close(c.done)
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.stopped }

// Do runs fn on the loop goroutine and waits for it. ctx only bounds the
// wait for the loop to accept fn; once accepted, fn runs to completion
// and Do returns nil.
func (l *Loop) Do(ctx context.Context, fn func(*Dispatcher)) error {
	c := command{fn: fn, done: make(chan struct{})}

	select {
	case l.cmds <- c:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// the loop runs an accepted command before its next select
	<-c.done
	return nil
}

func (l *Loop) Play(ctx context.Context, id profile.ID, anchor pool.Anchor) error {
	var err error
	if e := l.Do(ctx, func(d *Dispatcher) { err = d.Play(id, anchor) }); e != nil {
		return e
	}
	return err
}

func (l *Loop) StopAll(ctx context.Context) (int, error) {
	var n int
	err := l.Do(ctx, func(d *Dispatcher) { n = d.StopAll() })
	return n, err
}

func (l *Loop) StopProfile(ctx context.Context, id profile.ID) (int, error) {
	var (
		n   int
		err error
	)
	if e := l.Do(ctx, func(d *Dispatcher) { n, err = d.StopProfile(id) }); e != nil {
		return 0, e
	}
	return n, err
}

func (l *Loop) StopAnchor(ctx context.Context, anchor pool.Anchor) (int, error) {
	var n int
	err := l.Do(ctx, func(d *Dispatcher) { n = d.StopAnchor(anchor) })
	return n, err
}

func (l *Loop) StopProfileOn(ctx context.Context, id profile.ID, anchor pool.Anchor) (int, error) {
	var (
		n   int
		err error
	)
	if e := l.Do(ctx, func(d *Dispatcher) { n, err = d.StopProfileOn(id, anchor) }); e != nil {
		return 0, e
	}
	return n, err
}

func (l *Loop) Pause(ctx context.Context) error {
	return l.Do(ctx, func(d *Dispatcher) { d.Pause() })
}

func (l *Loop) Resume(ctx context.Context) error {
	return l.Do(ctx, func(d *Dispatcher) { d.Resume() })
}

func (l *Loop) Status(ctx context.Context) (Status, error) {
	var s Status
	err := l.Do(ctx, func(d *Dispatcher) { s = d.Status() })
	return s, err
}

// WaitIdle blocks until no play request is awaiting completion.
func (l *Loop) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		var pending int
		if err := l.Do(ctx, func(d *Dispatcher) { pending = d.Pending() }); err != nil {
			return err
		}
		if pending == 0 {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
