package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the swap system file and print its tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := openSystem(cmd, opts)
			if err != nil {
				return err
			}
			defer sys.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("swap system"))
			fmt.Fprintln(out, renderStates(sys))
			fmt.Fprintln(out, successStyle.Render("valid")+" "+mutedStyle.Render(fmt.Sprintf(
				"page sizes %d..%d fields, %d workers", sys.SmallestPageSize(), sys.LargestPageSize(), sys.Workers())))
			return nil
		},
	}
}
