// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the profiles of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tGROUP\tCONFIGS\tCLIPS")
			for _, id := range cat.IDs() {
				p, err := cat.Resolve(id)
				if err != nil {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%v\n", p.ID, p.Group, len(p.Configs), p.Clips())
			}
			return tw.Flush()
		},
	}
}
