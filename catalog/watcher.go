// SPDX-License-Identifier: EPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ik5/audmgr/internal/logging"
)

const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc is told the profile count after a successful reload, or the
// error that kept the previous content in place.
type ReloadFunc func(profiles int, err error)

type WatcherConfig struct {
	Dir         string
	DebounceDur time.Duration
	OnReload    ReloadFunc
	Logger      *slog.Logger
}

func DefaultWatcherConfig(dir string) WatcherConfig {
	return WatcherConfig{Dir: dir, DebounceDur: DefaultDebounce}
}

// Watcher rescans a catalog directory whenever a YAML file in it changes.
// Bursts of events are coalesced into one reload.
type Watcher struct {
	cfg     WatcherConfig
	catalog *Catalog
	log     *slog.Logger
	fsw     *fsnotify.Watcher

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewWatcher(c *Catalog, cfg WatcherConfig) (*Watcher, error) {
	if c == nil {
		return nil, errors.New("nil catalog")
	}
	if cfg.DebounceDur <= 0 {
		cfg.DebounceDur = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fs watcher: %w", err)
	}

	return &Watcher{
		cfg:     cfg,
		catalog: c,
		log:     logging.Module(cfg.Logger, "catalog"),
		fsw:     fsw,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the directory.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.cfg.Dir, err)
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop ends watching and waits for the event goroutine to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !IsCatalogFile(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.cfg.DebounceDur)
			} else {
				timer.Reset(w.cfg.DebounceDur)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("catalog watch error", "error", err)

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	ps, err := LoadDir(w.cfg.Dir)
	if err == nil {
		err = w.catalog.Replace(ps)
	}

	if err != nil {
		w.log.Error("catalog reload failed, keeping previous profiles", "dir", w.cfg.Dir, "error", err)
	} else {
		w.log.Info("catalog reloaded", "dir", w.cfg.Dir, "profiles", len(ps))
	}
	if w.cfg.OnReload != nil {
		w.cfg.OnReload(len(ps), err)
	}
}
