// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	var clips bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog, and optionally decode every clip it references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !clips {
				cat, err := a.loadCatalog()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d profiles ok\n", cat.Len())
				return nil
			}

			e, err := a.newEngine(cmd, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.Preload(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d profiles ok, %d clips decoded\n", e.Catalog.Len(), e.Clips.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&clips, "clips", false, "decode every referenced clip")
	return cmd
}
