// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ik5/audmgr/formats/wav"
	"github.com/ik5/audmgr/mixer"
	"github.com/ik5/audmgr/profile"
	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		out    string
		limit  time.Duration
		anchor string
	)

	cmd := &cobra.Command{
		Use:   "render <profile>",
		Short: "Mix one play of a profile into a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.newEngine(cmd, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			mix, err := e.Render(cmd.Context(), profile.ID(args[0]), e.PlaceAnchor(anchor), limit)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := wav.Encode(f, e.Mixer.SampleRate(), mixer.Channels, mix); err != nil {
				f.Close()
				return fmt.Errorf("writing %s: %w", out, err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			a.log.Info("rendered", "profile", args[0], "file", out,
				"duration", time.Duration(len(mix)/mixer.Channels)*time.Second/time.Duration(e.Mixer.SampleRate()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "out.wav", "output WAV file")
	cmd.Flags().DurationVar(&limit, "max", 30*time.Second, "stop looping sounds after this long")
	cmd.Flags().StringVar(&anchor, "anchor", "", "play on a named emitter at the listener position")
	return cmd
}
