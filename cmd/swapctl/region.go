package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tierswap/pkg/config"
	"tierswap/pkg/primitives"
	"tierswap/pkg/swap"
)

// regionFlags are shared by plan and run.
type regionFlags struct {
	from   string
	to     string
	start  uint64
	length uint64
}

func (f *regionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "state holding the region")
	cmd.Flags().StringVar(&f.to, "to", "", "state to move the region to")
	cmd.Flags().Uint64Var(&f.start, "start", 0, "first field of the region in the --from state")
	cmd.Flags().Uint64Var(&f.length, "length", 0, "number of fields in the region")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("length")
}

func (f *regionFlags) resolve(sys *config.System) (from, to *swap.SwapState, region primitives.Region, err error) {
	var ok bool
	if from, ok = sys.State(f.from); !ok {
		return nil, nil, region, fmt.Errorf("no state named %q", f.from)
	}
	if to, ok = sys.State(f.to); !ok {
		return nil, nil, region, fmt.Errorf("no state named %q", f.to)
	}
	region = primitives.NewRegion(primitives.Position(f.start), f.length)
	if err := from.CheckRegion(region); err != nil {
		return nil, nil, region, err
	}
	return from, to, region, nil
}
