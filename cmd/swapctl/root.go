package main

import (
	"github.com/spf13/cobra"

	"tierswap/pkg/config"
	"tierswap/pkg/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "swapctl",
		Short: "Plan and run page swaps across a chain of storage tiers",
		Long: `swapctl reads a swap system from a YAML file: a chain of swap states
ordered from the most swapped-out tier to the most swapped-in tier, joined
pairwise by swappers. It prints the step plans that move a region between two
tiers and can carry them out against the configured stores.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "swap.yaml", "swap system file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newValidateCmd(opts),
		newPlanCmd(opts),
		newRunCmd(opts),
	)
	return rootCmd
}

// openSystem loads the config, points logging at it, and builds the system.
// The caller closes the returned system.
func openSystem(cmd *cobra.Command, opts *rootOptions) (*config.System, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	lc := cfg.LoggerConfig()
	if opts.logLevel != "" {
		if lc.Level, err = logging.ParseLevel(opts.logLevel); err != nil {
			return nil, err
		}
	}

	_ = logging.Close()
	if lc.OutputPath.IsEmpty() {
		err = logging.InitWriter(cmd.ErrOrStderr(), lc)
	} else {
		err = logging.Init(lc)
	}
	if err != nil {
		return nil, err
	}

	return cfg.Build()
}
