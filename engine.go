// SPDX-License-Identifier: EPL-2.0

package audmgr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ik5/audmgr/catalog"
	"github.com/ik5/audmgr/clip"
	"github.com/ik5/audmgr/dispatch"
	"github.com/ik5/audmgr/formats"
	"github.com/ik5/audmgr/internal/logging"
	"github.com/ik5/audmgr/metrics"
	"github.com/ik5/audmgr/mixer"
	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/profile"
	"github.com/prometheus/client_golang/prometheus"
)

// renderBlock is the mixing granularity of Render.
const renderBlock = 10 * time.Millisecond

// GroupSettings configures one channel group.
type GroupSettings struct {
	Pausable bool
	// Volume is the group gain; zero mutes the group.
	Volume float32
}

type Options struct {
	// ClipRoot is the directory clip ids are resolved against. ClipFS
	// takes precedence when set.
	ClipRoot string
	ClipFS   fs.FS
	ClipTTL  time.Duration

	SampleRate   int
	Pool         pool.Config
	TickInterval time.Duration
	MasterVolume float32

	// Groups override the default policy in which every group is
	// pausable except master and ui.
	Groups map[profile.Group]GroupSettings

	// WatchDir, when set, reloads the catalog from this directory while
	// Run is active.
	WatchDir      string
	WatchDebounce time.Duration

	// Registerer receives the engine metrics; nil disables them.
	Registerer prometheus.Registerer
	Logger     *slog.Logger
	Rand       *rand.Rand
}

// Engine wires a catalog, clip store, mixer, handle pool and dispatcher
// into one playback service.
type Engine struct {
	Catalog    *catalog.Catalog
	Clips      *clip.Store
	Mixer      *mixer.Mixer
	Pool       *pool.Pool
	Dispatcher *dispatch.Dispatcher
	Loop       *dispatch.Loop
	Metrics    *metrics.Metrics

	opts Options
	log  *slog.Logger

	mu       sync.Mutex
	emitters map[string]*mixer.Emitter
}

// New builds an engine around cat. The Dispatcher must only be used
// directly while Run is not active; use Loop otherwise.
func New(cat *catalog.Catalog, opts Options) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("nil catalog")
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = clip.DefaultSampleRate
	}
	if opts.Pool.Capacity == 0 {
		opts.Pool.Capacity = pool.DefaultCapacity
	}
	if opts.MasterVolume == 0 {
		opts.MasterVolume = 1
	}

	e := &Engine{
		Catalog:  cat,
		opts:     opts,
		log:      logging.Module(opts.Logger, "engine"),
		emitters: make(map[string]*mixer.Emitter),
	}

	clipOpts := []clip.Option{clip.WithLogger(opts.Logger)}
	if opts.ClipFS != nil {
		clipOpts = append(clipOpts, clip.WithFS(opts.ClipFS))
	}
	e.Clips = clip.NewStore(clip.Config{
		Root:       opts.ClipRoot,
		SampleRate: opts.SampleRate,
		TTL:        opts.ClipTTL,
	}, formats.NewRegistry(), clipOpts...)

	e.Mixer = mixer.New(e.Clips, opts.SampleRate, mixer.WithLogger(opts.Logger))
	e.Mixer.SetMasterVolume(opts.MasterVolume)

	var err error
	e.Pool, err = pool.New(e.Mixer, opts.Pool, pool.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}

	groups := dispatch.DefaultGroupPolicy()
	for name, g := range opts.Groups {
		groups.SetPausable(name, g.Pausable)
		e.Mixer.SetGroupVolume(name, g.Volume)
	}

	dopts := []dispatch.Option{
		dispatch.WithLogger(opts.Logger),
		dispatch.WithGroupPolicy(groups),
	}
	if opts.Rand != nil {
		dopts = append(dopts, dispatch.WithRand(opts.Rand))
	}
	if opts.Registerer != nil {
		e.Metrics, err = metrics.New(opts.Registerer, e.Pool)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		dopts = append(dopts, dispatch.WithRecorder(e.Metrics))
	}

	e.Dispatcher = dispatch.New(cat, e.Pool, dopts...)
	e.Loop = dispatch.NewLoop(e.Dispatcher, dispatch.WithTickInterval(opts.TickInterval))
	return e, nil
}

// Emitter returns the positioned anchor called name, creating it at the
// origin on first use.
func (e *Engine) Emitter(name string) *mixer.Emitter {
	e.mu.Lock()
	defer e.mu.Unlock()

	em, ok := e.emitters[name]
	if !ok {
		em = mixer.NewEmitter(name, mixer.Vec3{})
		e.emitters[name] = em
	}
	return em
}

// Anchor looks up an existing emitter. It returns nil for an empty or
// unknown name and never creates one.
func (e *Engine) Anchor(name string) pool.Anchor {
	e.mu.Lock()
	defer e.mu.Unlock()

	if em, ok := e.emitters[name]; ok {
		return em
	}
	return nil
}

// PlaceAnchor is Emitter typed as a pool anchor. An empty name is the
// ambient owner.
func (e *Engine) PlaceAnchor(name string) pool.Anchor {
	if name == "" {
		return nil
	}
	return e.Emitter(name)
}

// Preload decodes every clip referenced by the catalog.
func (e *Engine) Preload(ctx context.Context) error {
	var ids []profile.ClipID
	seen := make(map[profile.ClipID]bool)
	for _, id := range e.Catalog.IDs() {
		p, err := e.Catalog.Resolve(id)
		if err != nil {
			continue
		}
		for _, c := range p.Clips() {
			if !seen[c] {
				seen[c] = true
				ids = append(ids, c)
			}
		}
	}

	start := time.Now()
	if err := e.Clips.Preload(ctx, ids); err != nil {
		return err
	}
	e.log.Info("clips preloaded", "clips", len(ids), "took", time.Since(start))
	return nil
}

// Run drives the event loop, and the catalog watcher when configured,
// until ctx ends. Every handle is back in the pool when Run returns.
func (e *Engine) Run(ctx context.Context) error {
	if e.opts.WatchDir != "" {
		cfg := catalog.DefaultWatcherConfig(e.opts.WatchDir)
		cfg.Logger = e.opts.Logger
		if e.opts.WatchDebounce > 0 {
			cfg.DebounceDur = e.opts.WatchDebounce
		}
		cfg.OnReload = func(n int, err error) {
			if err == nil {
				e.log.Info("catalog reloaded", "profiles", n)
			}
		}

		w, err := catalog.NewWatcher(e.Catalog, cfg)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer func() {
			if err := w.Stop(); err != nil {
				e.log.Warn("stopping catalog watcher", "error", err)
			}
		}()
	}

	return e.Loop.Run(ctx)
}

// Render plays id offline and returns the interleaved stereo mix until
// every emission finished or limit elapsed. It drives the dispatcher
// directly and must not be called while Run is active.
func (e *Engine) Render(ctx context.Context, id profile.ID, anchor pool.Anchor, limit time.Duration) ([]float32, error) {
	if err := e.Dispatcher.Play(id, anchor); err != nil {
		return nil, err
	}
	defer func() {
		e.Dispatcher.StopAll()
		e.Dispatcher.Tick()
	}()

	rate := e.Mixer.SampleRate()
	block := make([]float32, rate*int(renderBlock)/int(time.Second)*mixer.Channels)
	total := int(limit.Seconds() * float64(rate) * mixer.Channels)

	var out []float32
	for len(out) < total && e.Dispatcher.Pending() > 0 {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if err := e.Mixer.Mix(block); err != nil {
			return out, err
		}
		out = append(out, block[:min(len(block), total-len(out))]...)
		e.Dispatcher.Tick()
	}
	return out, nil
}

// Close returns outstanding handles and closes the pool. Call it after
// Run returned, or instead of Run for offline use.
func (e *Engine) Close() error {
	var errs []error
	select {
	case <-e.Loop.Done():
	default:
		errs = append(errs, e.Dispatcher.Close())
	}
	errs = append(errs, e.Pool.Close())
	return errors.Join(errs...)
}
