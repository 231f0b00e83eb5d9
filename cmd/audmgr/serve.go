// SPDX-License-Identifier: EPL-2.0

package main

import (
	"github.com/ik5/audmgr/internal/httpapi"
	"github.com/ik5/audmgr/mixer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		noAudio bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine with the HTTP control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			e, err := a.newEngine(cmd, registry)
			if err != nil {
				return err
			}
			defer e.Close()

			if !noAudio {
				out, err := mixer.Open(e.Mixer, mixer.OutputOptions{Buffer: a.cfg.Audio.Buffer})
				if err != nil {
					return err
				}
				defer out.Close()
			}

			srv := httpapi.New(e.Loop, e.Catalog,
				httpapi.WithLogger(a.log),
				httpapi.WithAnchors(e.Anchor),
				httpapi.WithEmitters(e.Emitter),
				httpapi.WithGatherer(registry))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return e.Run(ctx) })
			g.Go(func() error { return srv.Run(ctx, addr) })
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default http.addr)")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "do not open the sound device")
	return cmd
}
