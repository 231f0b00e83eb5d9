// SPDX-License-Identifier: EPL-2.0

package clip

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/ik5/audmgr/audio"
	"github.com/ik5/audmgr/internal/logging"
	"github.com/ik5/audmgr/profile"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultSampleRate = 48000
	DefaultTTL        = 10 * time.Minute
	defaultBufSize    = 4096
	preloadWorkers    = 4
)

type Config struct {
	// Root is the directory clip ids are resolved against.
	Root       string
	SampleRate int
	// TTL of decoded clips; zero means DefaultTTL, negative never expires.
	TTL time.Duration
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = logging.Module(l, "clip") }
}

// WithFS reads clips from fsys instead of Config.Root.
func WithFS(fsys fs.FS) Option {
	return func(s *Store) { s.fsys = fsys }
}

type Store struct {
	fsys  fs.FS
	rate  int
	reg   *audio.Registry
	cache *cache.Cache
	group singleflight.Group
	log   *slog.Logger
}

func NewStore(cfg Config, reg *audio.Registry, opts ...Option) *Store {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	ttl := cfg.TTL
	switch {
	case ttl == 0:
		ttl = DefaultTTL
	case ttl < 0:
		ttl = cache.NoExpiration
	}
	cleanup := 2 * ttl
	if ttl == cache.NoExpiration {
		cleanup = 0
	}

	s := &Store{
		rate:  cfg.SampleRate,
		reg:   reg,
		cache: cache.New(ttl, cleanup),
		log:   logging.Discard(),
	}
	if cfg.Root != "" {
		s.fsys = os.DirFS(cfg.Root)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) SampleRate() int { return s.rate }

// Clip returns the decoded clip for id, loading it on first use.
func (s *Store) Clip(id profile.ClipID) (*Clip, error) {
	if c, ok := s.cache.Get(string(id)); ok {
		return c.(*Clip), nil
	}

	v, err, _ := s.group.Do(string(id), func() (any, error) {
		c, err := s.load(id)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(string(id), c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Clip), nil
}

func (s *Store) load(id profile.ClipID) (*Clip, error) {
	name := string(id)
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidClipID, id)
	}
	if s.fsys == nil || s.reg == nil {
		return nil, fmt.Errorf("%w: %q", ErrClipNotFound, id)
	}

	dec, err := s.reg.Lookup(path.Base(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	f, err := s.fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrClipNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("opening clip: %w", err)
	}

	start := time.Now()
	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %q: %w", id, err)
	}
	defer src.Close()

	samples, err := audio.ToMono(src, s.rate, defaultBufSize)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", id, err)
	}

	c := &Clip{ID: id, Samples: samples, SampleRate: s.rate}
	s.log.Debug("clip loaded", "clip", id, "frames", c.Frames(), "took", time.Since(start))
	return c, nil
}

// Put stores an in-memory clip that never expires. Its samples must be at
// the store's sample rate.
func (s *Store) Put(c *Clip) error {
	if c == nil || c.ID == "" {
		return ErrInvalidClipID
	}
	if c.SampleRate != s.rate {
		return fmt.Errorf("%w: %q is %d Hz, store runs at %d Hz", ErrUnsupportedFormat, c.ID, c.SampleRate, s.rate)
	}
	s.cache.Set(string(c.ID), c, cache.NoExpiration)
	return nil
}

// Preload loads ids concurrently and returns the first failure.
func (s *Store) Preload(ctx context.Context, ids []profile.ClipID) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadWorkers)

	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := s.Clip(id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("preloading clips: %w", err)
	}
	return nil
}

func (s *Store) Evict(id profile.ClipID) { s.cache.Delete(string(id)) }

// Len is the number of cached clips.
func (s *Store) Len() int { return s.cache.ItemCount() }
