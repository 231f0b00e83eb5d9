// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"log/slog"

	"github.com/ik5/audmgr"
	"github.com/ik5/audmgr/catalog"
	"github.com/ik5/audmgr/dispatch"
	"github.com/ik5/audmgr/internal/config"
	"github.com/ik5/audmgr/internal/logging"
	"github.com/ik5/audmgr/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand.
type app struct {
	cfgPath  string
	logLevel string
	catalog  string

	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "audmgr",
		Short:         "Pooled sound profile player",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgPath, "config", "c", "", "config file (default ./audmgr.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	flags.StringVar(&a.catalog, "catalog", "", "override catalog.dir")

	root.AddCommand(
		newListCmd(a),
		newValidateCmd(a),
		newPlayCmd(a),
		newRenderCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.catalog != "" {
		cfg.Catalog.Dir = a.catalog
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(cmd.ErrOrStderr(), level, logging.Format(cfg.Log.Format))
	return nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(a.cfg.Catalog.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", a.cfg.Catalog.Dir, err)
	}
	a.log.Debug("catalog loaded", "dir", a.cfg.Catalog.Dir, "profiles", cat.Len())
	return cat, nil
}

// engineOptions translates the configuration. reg may be nil.
func (a *app) engineOptions(reg prometheus.Registerer) audmgr.Options {
	c := a.cfg
	opts := audmgr.Options{
		ClipRoot:     c.Clips.Root,
		ClipTTL:      c.Clips.TTL,
		SampleRate:   c.Audio.SampleRate,
		Pool:         c.PoolConfig(),
		TickInterval: c.Dispatch.TickInterval,
		MasterVolume: c.Audio.Master,
		Registerer:   reg,
		Logger:       a.log,
	}
	if c.Catalog.Watch {
		opts.WatchDir = c.Catalog.Dir
		opts.WatchDebounce = c.Catalog.Debounce
	}

	if len(c.Groups) > 0 {
		opts.Groups = make(map[profile.Group]audmgr.GroupSettings, len(c.Groups))
		defaults := dispatch.DefaultGroupPolicy()
		for name, g := range c.Groups {
			s := audmgr.GroupSettings{Pausable: defaults.Pausable(profile.Group(name)), Volume: 1}
			if g.Pausable != nil {
				s.Pausable = *g.Pausable
			}
			if g.Volume != nil {
				s.Volume = *g.Volume
			}
			opts.Groups[profile.Group(name)] = s
		}
	}
	return opts
}

func (a *app) newEngine(cmd *cobra.Command, reg prometheus.Registerer) (*audmgr.Engine, error) {
	cat, err := a.loadCatalog()
	if err != nil {
		return nil, err
	}
	e, err := audmgr.New(cat, a.engineOptions(reg))
	if err != nil {
		return nil, err
	}
	if a.cfg.Clips.Preload {
		if err := e.Preload(cmd.Context()); err != nil {
			_ = e.Close()
			return nil, err
		}
	}
	return e, nil
}
