package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var (
		rf       regionFlags
		maxSteps int
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the steps that move a region between two states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := openSystem(cmd, opts)
			if err != nil {
				return err
			}
			defer sys.Close()

			from, to, region, err := rf.resolve(sys)
			if err != nil {
				return err
			}

			op, err := sys.CreateSwapOperation(region, from, to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderOperation(op))
			fmt.Fprintln(out, renderSteps(op, maxSteps))
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().IntVar(&maxSteps, "max-steps", 64, "print at most this many steps, 0 for all")
	return cmd
}
