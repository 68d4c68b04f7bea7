package config

import (
	"errors"

	"tierswap/pkg/logging"
	"tierswap/pkg/primitives"
	"tierswap/pkg/storage"
	"tierswap/pkg/swap"
	"tierswap/pkg/swaperr"
)

// System is a built swap system together with the stores it opened.
type System struct {
	*swap.StandardSwapSystem
	stores []storage.Store
}

// Close closes every store the system opened.
func (s *System) Close() error {
	var errs []error
	for _, st := range s.stores {
		if err := st.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.stores = nil
	return errors.Join(errs...)
}

// StoreSpec converts a state's store section for storage.Open.
func (c *Config) StoreSpec(st StateConfig) (storage.Spec, error) {
	kind, err := storage.ParseKind(st.Store.Kind)
	if err != nil {
		return storage.Spec{}, err
	}
	spec := storage.Spec{
		Kind:       kind,
		Path:       primitives.Filepath(c.resolve(st.Store.Path)),
		Capacity:   st.Store.Capacity,
		InMemory:   st.Store.InMemory,
		SyncWrites: st.Store.SyncWrites,
		Prefix:     st.Store.Prefix,
	}
	if kind == storage.KindCache && spec.Capacity == 0 {
		spec.Capacity = int(st.NumPages)
	}
	if kind == storage.KindBadger && spec.Prefix == "" {
		spec.Prefix = st.Name
	}
	return spec, nil
}

// Build opens the stores, creates the states and swappers, and assembles
// the swap system. On failure every store opened so far is closed.
func (c *Config) Build() (sys *System, err error) {
	const op, component = "Build", "config"

	built := &System{}
	defer func() {
		if err != nil {
			_ = built.Close()
		}
	}()

	log := logging.WithComponent(component)

	states := make([]*swap.SwapState, 0, len(c.States))
	for _, sc := range c.States {
		spec, err := c.StoreSpec(sc)
		if err != nil {
			return nil, swaperr.Wrap(err, swaperr.CodeInvalidConfig, op, component)
		}
		store, err := storage.Open(spec, int(sc.PageSize))
		if err != nil {
			return nil, swaperr.Wrap(err, swaperr.CodeStoreIO, op, component)
		}
		built.stores = append(built.stores, store)

		state, err := swap.NewSwapState(sc.Name, sc.PageSize, sc.NumPages, store)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
		logging.WithState(sc.Name).Debug("opened swap state", "store", spec.Kind,
			"page_size", sc.PageSize, "num_pages", sc.NumPages)
	}

	swappers := make([]swap.Swapper, 0, len(c.Swappers))
	for i, wc := range c.Swappers {
		kind, err := swap.ParseMappingKind(wc.Mapping)
		if err != nil {
			return nil, err
		}
		sw, err := swap.NewStandardSwapper(states[i], states[i+1], swap.Mapping{Kind: kind, Offset: wc.Offset})
		if err != nil {
			return nil, err
		}
		swappers = append(swappers, sw)
		logging.WithSwapper(states[i].Name(), states[i+1].Name()).Debug("joined swap states",
			"mapping", kind, "offset", wc.Offset)
	}

	var opts []swap.Option
	if c.Execute.Workers > 0 {
		opts = append(opts, swap.WithWorkers(c.Execute.Workers))
	}

	std, err := swap.NewStandardSwapSystem(swappers, opts...)
	if err != nil {
		return nil, err
	}
	built.StandardSwapSystem = std

	log.Info("swap system built", "states", len(states), "workers", std.Workers())
	return built, nil
}
