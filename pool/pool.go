// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ik5/audmgr/internal/logging"
)

const DefaultCapacity = 32

type Policy int

const (
	// PolicyGrow creates transient handles past capacity.
	PolicyGrow Policy = iota
	// PolicyReject fails Acquire with ErrPoolExhausted at capacity.
	PolicyReject
)

func (p Policy) String() string {
	switch p {
	case PolicyGrow:
		return "grow"
	case PolicyReject:
		return "reject"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "grow":
		return PolicyGrow, nil
	case "reject":
		return PolicyReject, nil
	default:
		return 0, fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, s)
	}
}

type Config struct {
	Capacity int
	// Prewarm handles are created up front, at most Capacity.
	Prewarm int
	Policy  Policy
}

// Stats is a point-in-time snapshot of the pool counters.
type Stats struct {
	Capacity       int
	Idle           int
	Active         int // lent out, including pending-release
	Created        uint64
	Destroyed      uint64
	Overflow       uint64 // transient handles created under PolicyGrow
	Exhausted      uint64 // Acquire calls rejected under PolicyReject
	DoubleReleases uint64
}

type Option func(*Pool)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.log = logging.Module(l, "pool") }
}

type Pool struct {
	mu      sync.Mutex
	backend Backend
	cfg     Config
	log     *slog.Logger

	idle   []*Handle
	active map[*Handle]struct{}
	stats  Stats
	closed bool
}

func New(backend Backend, cfg Config, opts ...Option) (*Pool, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrInvalidConfig)
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Capacity < 0 || cfg.Prewarm < 0 || cfg.Prewarm > cfg.Capacity {
		return nil, fmt.Errorf("%w: capacity %d, prewarm %d", ErrInvalidConfig, cfg.Capacity, cfg.Prewarm)
	}
	if cfg.Policy != PolicyGrow && cfg.Policy != PolicyReject {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, cfg.Policy)
	}

	p := &Pool{
		backend: backend,
		cfg:     cfg,
		log:     logging.Discard(),
		idle:    make([]*Handle, 0, cfg.Capacity),
		active:  make(map[*Handle]struct{}, cfg.Capacity),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.stats.Capacity = cfg.Capacity

	for range cfg.Prewarm {
		p.idle = append(p.idle, p.newHandle())
	}
	return p, nil
}

func (p *Pool) Capacity() int  { return p.cfg.Capacity }
func (p *Pool) Policy() Policy { return p.cfg.Policy }

// newHandle builds a handle in the neutral state.
func (p *Pool) newHandle() *Handle {
	p.stats.Created++
	h := &Handle{
		id:    uuid.New(),
		voice: p.backend.NewVoice(),
		pool:  p,
	}
	h.reset()
	return h
}

func (p *Pool) size() int { return len(p.idle) + len(p.active) }

// Acquire lends a handle attached to owner. owner may be nil for handles
// that are attached later.
func (p *Pool) Acquire(owner Anchor) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	var h *Handle
	switch {
	case len(p.idle) > 0:
		h = p.idle[len(p.idle)-1]
		p.idle[len(p.idle)-1] = nil
		p.idle = p.idle[:len(p.idle)-1]
	case p.size() < p.cfg.Capacity:
		h = p.newHandle()
	case p.cfg.Policy == PolicyReject:
		p.stats.Exhausted++
		p.log.Warn("pool exhausted", "capacity", p.cfg.Capacity, "active", len(p.active))
		return nil, fmt.Errorf("%w: %d handles in use", ErrPoolExhausted, len(p.active))
	default:
		h = p.newHandle()
		p.stats.Overflow++
		p.log.Warn("pool over capacity, growing", "capacity", p.cfg.Capacity, "size", p.size()+1)
	}

	h.state = StateActive
	h.owner = owner
	h.voice.Attach(owner)
	p.active[h] = struct{}{}
	return h, nil
}

// Release resets h and returns it to the idle set, or destroys it when the
// pool already holds more than its capacity. Releasing an idle handle is
// reported as ErrDoubleRelease and changes nothing.
func (p *Pool) Release(h *Handle) error {
	if h == nil {
		return fmt.Errorf("%w: nil handle", ErrForeignHandle)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if h.pool != p {
		return ErrForeignHandle
	}
	if _, ok := p.active[h]; !ok {
		p.stats.DoubleReleases++
		p.log.Warn("release of idle handle ignored", "handle", h.id)
		return fmt.Errorf("%w: %s", ErrDoubleRelease, h.id)
	}

	delete(p.active, h)
	h.reset()

	if p.closed || p.size() >= p.cfg.Capacity {
		p.destroy(h)
		return nil
	}
	p.idle = append(p.idle, h)
	return nil
}

func (p *Pool) destroy(h *Handle) {
	p.backend.DestroyVoice(h.voice)
	p.stats.Destroyed++
}

// Stats returns a snapshot of the counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	s.Idle = len(p.idle)
	s.Active = len(p.active)
	return s
}

// Close destroys the idle handles. Handles still lent out are destroyed
// as they are released.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	for _, h := range p.idle {
		p.destroy(h)
	}
	p.idle = nil
	if n := len(p.active); n > 0 {
		p.log.Warn("pool closed with handles in use", "active", n)
	}
	return nil
}
