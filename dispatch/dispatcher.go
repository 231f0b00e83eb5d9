// SPDX-License-Identifier: EPL-2.0

package dispatch

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/ik5/audmgr/internal/logging"
	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/profile"
)

// Resolver looks profiles up by id.
type Resolver interface {
	Resolve(profile.ID) (*profile.Profile, error)
}

// HandlePool lends and reclaims handles.
type HandlePool interface {
	Acquire(owner pool.Anchor) (*pool.Handle, error)
	Release(*pool.Handle) error
}

type ambient struct{}

func (ambient) AnchorName() string { return "ambient" }

// Ambient owns every emission played without an anchor. Ambient
// emissions are never spatialized.
var Ambient pool.Anchor = ambient{}

// watcher tracks the handles of one play request until they finish.
type watcher struct {
	profile *profile.Profile
	owner   pool.Anchor
	handles []*pool.Handle
}

type Option func(*Dispatcher)

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = logging.Module(l, "dispatch") }
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.rec = r }
}

func WithRand(r *rand.Rand) Option {
	return func(d *Dispatcher) { d.rand = r }
}

func WithGroupPolicy(g GroupPolicy) Option {
	return func(d *Dispatcher) { d.groups = g }
}

type Dispatcher struct {
	resolver Resolver
	pool     HandlePool
	groups   GroupPolicy
	rec      Recorder
	rand     *rand.Rand
	log      *slog.Logger

	active   map[pool.Anchor][]*pool.Handle
	watchers []*watcher
	paused   bool
}

func New(resolver Resolver, hp HandlePool, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver: resolver,
		pool:     hp,
		groups:   DefaultGroupPolicy(),
		rec:      NopRecorder{},
		log:      logging.Discard(),
		active:   make(map[pool.Anchor][]*pool.Handle),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rand == nil {
		d.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return d
}

func ownerOf(anchor pool.Anchor) pool.Anchor {
	if anchor == nil {
		return Ambient
	}
	return anchor
}

// Play starts profile id on anchor, or on Ambient when anchor is nil.
//
// Plays of pausable groups are dropped while paused and return nil. When
// the pool cannot lend a handle for every config nothing is started and
// the handles already taken go back to the pool.
func (d *Dispatcher) Play(id profile.ID, anchor pool.Anchor) error {
	p, err := d.resolver.Resolve(id)
	if err != nil {
		d.log.Warn("play of unknown profile", "profile", id, "error", err)
		d.rec.ObservePlay(PlayNotFound)
		return fmt.Errorf("play: %w", err)
	}

	if d.paused && d.groups.Pausable(p.Group) {
		d.log.Debug("play suppressed while paused", "profile", id, "group", p.Group)
		d.rec.ObservePlay(PlaySuppressed)
		return nil
	}

	owner := ownerOf(anchor)
	spatial := owner != Ambient

	handles := make([]*pool.Handle, 0, len(p.Configs))
	for _, c := range p.Configs {
		h, err := d.pool.Acquire(owner)
		if err != nil {
			d.releaseAll(handles)
			d.rec.ObservePlay(PlayExhausted)
			d.log.Warn("play aborted, no handle available",
				"profile", id, "configs", len(p.Configs), "acquired", len(handles), "error", err)
			return fmt.Errorf("play %q: %w", id, err)
		}
		h.Apply(d.params(p, c, spatial))
		handles = append(handles, h)
	}

	d.active[owner] = append(d.active[owner], handles...)
	for _, h := range handles {
		h.Play()
	}
	if len(handles) > 0 {
		d.watchers = append(d.watchers, &watcher{profile: p, owner: owner, handles: handles})
	}

	d.rec.ObservePlay(PlayStarted)
	d.log.Debug("play", "profile", id, "anchor", owner.AnchorName(), "handles", len(handles))
	return nil
}

func (d *Dispatcher) params(p *profile.Profile, c profile.PlaybackConfig, spatial bool) pool.Params {
	params := pool.NeutralParams()
	params.Clip = c.Clip
	params.Group = p.Group
	params.Loop = c.Loop
	params.Volume = c.Volume.Pick(d.rand.Float32())
	params.Pitch = c.Pitch.Pick(d.rand.Float32())
	params.Pan = c.Pan
	if spatial {
		params.Spatial = p.SpatialOrDefault()
		params.SpatialBlend = 1
	}
	return params
}

func (d *Dispatcher) releaseAll(handles []*pool.Handle) {
	for _, h := range handles {
		if err := d.pool.Release(h); err != nil {
			d.log.Warn("release failed", "handle", h.ID(), "error", err)
		}
	}
}

// stop halts every active handle of owners that match.
func (d *Dispatcher) stop(owner pool.Anchor, match func(*pool.Handle) bool) int {
	n := 0
	for o, hs := range d.active {
		if owner != nil && o != owner {
			continue
		}
		for _, h := range hs {
			if h.State() != pool.StateActive || (match != nil && !match(h)) {
				continue
			}
			h.Stop()
			h.MarkPending()
			n++
		}
	}
	if n > 0 {
		d.rec.ObserveStop(n)
	}
	return n
}

// StopAll halts every active handle and returns how many were stopped.
// Handles are reclaimed by the next Tick.
func (d *Dispatcher) StopAll() int {
	return d.stop(nil, nil)
}

// StopProfile halts every handle playing a clip of profile id.
func (d *Dispatcher) StopProfile(id profile.ID) (int, error) {
	p, err := d.resolver.Resolve(id)
	if err != nil {
		return 0, fmt.Errorf("stop: %w", err)
	}
	return d.stop(nil, usesClip(p)), nil
}

// StopAnchor halts the handles registered under anchor (Ambient if nil).
func (d *Dispatcher) StopAnchor(anchor pool.Anchor) int {
	return d.stop(ownerOf(anchor), nil)
}

// StopProfileOn halts the handles of profile id registered under anchor.
func (d *Dispatcher) StopProfileOn(id profile.ID, anchor pool.Anchor) (int, error) {
	p, err := d.resolver.Resolve(id)
	if err != nil {
		return 0, fmt.Errorf("stop: %w", err)
	}
	return d.stop(ownerOf(anchor), usesClip(p)), nil
}

func usesClip(p *profile.Profile) func(*pool.Handle) bool {
	return func(h *pool.Handle) bool { return p.UsesClip(h.Params().Clip) }
}

// Pause suspends active handles of pausable groups and holds back new
// plays of those groups until Resume.
func (d *Dispatcher) Pause() {
	if d.paused {
		return
	}
	d.paused = true
	n := d.eachPausable(func(h *pool.Handle) { h.Pause() })
	d.log.Debug("paused", "handles", n)
}

func (d *Dispatcher) Resume() {
	if !d.paused {
		return
	}
	d.paused = false
	n := d.eachPausable(func(h *pool.Handle) { h.Resume() })
	d.log.Debug("resumed", "handles", n)
}

func (d *Dispatcher) eachPausable(fn func(*pool.Handle)) int {
	n := 0
	for _, hs := range d.active {
		for _, h := range hs {
			if h.State() == pool.StateActive && d.groups.Pausable(h.Params().Group) {
				fn(h)
				n++
			}
		}
	}
	return n
}

func (d *Dispatcher) Paused() bool { return d.paused }

// finished is the watcher predicate: nothing plays any more and the group
// is not held by a pause.
func (d *Dispatcher) finished(w *watcher) bool {
	if d.paused && d.groups.Pausable(w.profile.Group) {
		return false
	}
	for _, h := range w.handles {
		if h.Playing() {
			return false
		}
	}
	return true
}

// Tick evaluates every completion watcher once and reclaims the handles
// of finished requests. It returns the number of handles released.
func (d *Dispatcher) Tick() int {
	released := 0
	kept := d.watchers[:0]
	for _, w := range d.watchers {
		if !d.finished(w) {
			kept = append(kept, w)
			continue
		}
		released += d.reclaim(w)
	}
	clear(d.watchers[len(kept):])
	d.watchers = kept

	if released > 0 {
		d.rec.ObserveRelease(released)
	}
	return released
}

func (d *Dispatcher) reclaim(w *watcher) int {
	for _, h := range w.handles {
		h.MarkPending()
	}

	hs := slices.DeleteFunc(d.active[w.owner], func(h *pool.Handle) bool {
		return slices.Contains(w.handles, h)
	})
	if len(hs) == 0 {
		delete(d.active, w.owner)
	} else {
		d.active[w.owner] = hs
	}

	d.releaseAll(w.handles)
	return len(w.handles)
}

// Active returns the handles registered under anchor (Ambient if nil).
func (d *Dispatcher) Active(anchor pool.Anchor) []*pool.Handle {
	return slices.Clone(d.active[ownerOf(anchor)])
}

// ActiveCount is the number of handles lent out, stopped ones included.
func (d *Dispatcher) ActiveCount() int {
	n := 0
	for _, hs := range d.active {
		n += len(hs)
	}
	return n
}

// Anchors lists the owners with at least one registered handle.
func (d *Dispatcher) Anchors() []pool.Anchor {
	out := make([]pool.Anchor, 0, len(d.active))
	for a := range d.active {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b pool.Anchor) int {
		return cmp.Compare(a.AnchorName(), b.AnchorName())
	})
	return out
}

// Pending is the number of play requests still awaiting completion.
func (d *Dispatcher) Pending() int { return len(d.watchers) }

// Status is a summary for status endpoints.
type Status struct {
	Paused  bool           `json:"paused"`
	Pending int            `json:"pending"`
	Active  int            `json:"active"`
	Anchors map[string]int `json:"anchors"`
}

func (d *Dispatcher) Status() Status {
	s := Status{
		Paused:  d.paused,
		Pending: len(d.watchers),
		Anchors: make(map[string]int, len(d.active)),
	}
	for a, hs := range d.active {
		s.Active += len(hs)
		s.Anchors[a.AnchorName()] += len(hs)
	}
	return s
}

// Close stops everything and returns every handle to the pool at once.
func (d *Dispatcher) Close() error {
	var errs []error
	released := 0
	for _, w := range d.watchers {
		for _, h := range w.handles {
			h.Stop()
			h.MarkPending()
			if err := d.pool.Release(h); err != nil {
				errs = append(errs, err)
				continue
			}
			released++
		}
	}
	d.watchers = nil
	clear(d.active)

	if released > 0 {
		d.rec.ObserveRelease(released)
	}
	return errors.Join(errs...)
}
