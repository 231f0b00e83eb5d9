// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"time"

	"github.com/ik5/audmgr/mixer"
	"github.com/ik5/audmgr/profile"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newPlayCmd(a *app) *cobra.Command {
	var (
		limit  time.Duration
		anchor string
	)

	cmd := &cobra.Command{
		Use:   "play <profile>...",
		Short: "Play profiles on the sound device and wait for them to finish",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.newEngine(cmd, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			out, err := mixer.Open(e.Mixer, mixer.OutputOptions{Buffer: a.cfg.Audio.Buffer})
			if err != nil {
				return err
			}
			defer out.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), limit)
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)
			loopCtx, stopLoop := context.WithCancel(ctx)
			g.Go(func() error { return e.Run(loopCtx) })
			g.Go(func() error {
				defer stopLoop()
				for _, id := range args {
					if err := e.Loop.Play(ctx, profile.ID(id), e.PlaceAnchor(anchor)); err != nil {
						return err
					}
				}
				return e.Loop.WaitIdle(ctx)
			})

			err = g.Wait()
			if errors.Is(err, context.DeadlineExceeded) {
				a.log.Info("play time limit reached", "limit", limit)
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&limit, "max", time.Minute, "stop after this long")
	cmd.Flags().StringVar(&anchor, "anchor", "", "play on a named emitter at the listener position")
	return cmd
}
