package swap

import (
	"context"

	"github.com/google/uuid"

	"tierswap/pkg/logging"
	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

// CreateWriteBack plans the reverse of op: the fields op delivered to its
// target go back to the windows they came from, hop by hop along op's path.
//
// Unlike planning a fresh operation out of the target, the reverse never
// maps a position back out of a swapper. It reuses the window op recorded
// for every state, so it returns fields to their origin even through a
// direct-mapped state, where one position has many possible origins.
func (s *StandardSwapSystem) CreateWriteBack(op *SwapOperation) (*SwapOperation, error) {
	const name = "CreateWriteBack"

	if op == nil {
		return nil, s.planFailed(swaperr.IllegalArgument("swap operation cannot be nil").In(name, "SwapSystem"))
	}
	if len(op.Path) == 0 || len(op.Path) != len(op.Windows) {
		return nil, s.planFailed(swaperr.IllegalArgument("swap operation %s has no recorded path", op.ID).
			In(name, "SwapSystem"))
	}
	for _, st := range op.Path {
		if _, err := s.checkState(st, "path", name); err != nil {
			return nil, s.planFailed(err)
		}
	}

	dir := op.Direction.Reverse()
	n := len(op.Path)
	result := &SwapOperation{
		ID:               uuid.New(),
		Direction:        dir,
		From:             op.Path[n-1],
		To:               op.Path[0],
		Region:           op.Windows[n-1],
		Window:           op.Windows[n-1],
		RelativeSwapSize: op.RelativeSwapSize,
		Path:             make([]*SwapState, 0, n),
		Windows:          make([]primitives.Region, 0, n),
	}
	for i := n - 1; i >= 0; i-- {
		result.Path = append(result.Path, op.Path[i])
		result.Windows = append(result.Windows, op.Windows[i])
	}

	log := logging.WithOperation(result.ID.String())
	for h := 0; h+1 < n; h++ {
		cur, next := result.Path[h], result.Path[h+1]
		sw, to := s.adjacent(cur, dir)
		if sw == nil || to != next {
			return nil, s.planFailed(swaperr.New(swaperr.CategoryConfig, swaperr.CodeSwapChainBroken,
				"recorded path does not follow the swap chain").
				WithDetail("no swapper leads %s from %q to %q", dir, cur.Name(), next.Name()).
				In(name, "SwapSystem"))
		}
		logging.WithSwapper(sw.SwappedOut().Name(), sw.SwappedIn().Name()).Debug("retracing hop",
			"operation", result.ID.String(), "window", result.Windows[h].String())
		result.Steps = append(result.Steps,
			planHop(sw, dir, cur, result.Windows[h], next, result.Windows[h+1])...)
	}

	operationsPlanned.WithLabelValues(dir.String()).Inc()
	log.Debug("planned write-back", "reverses", op.ID.String(),
		"from", result.From.Name(), "to", result.To.Name(), "steps", len(result.Steps))
	return result, nil
}

// WriteBack plans and executes the reverse of op and returns the executed
// plan.
func (s *StandardSwapSystem) WriteBack(ctx context.Context, op *SwapOperation) (*SwapOperation, error) {
	back, err := s.CreateWriteBack(op)
	if err != nil {
		return nil, err
	}
	if err := s.Execute(ctx, back); err != nil {
		return back, err
	}
	return back, nil
}
