package swap

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"tierswap/pkg/logging"
	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

var tracer = otel.Tracer("tierswap/pkg/swap")

// Execute carries out op against the states' stores.
//
// Hops run in order, since each hop reads what the previous one wrote.
// Within a hop, steps writing the same destination page run in order and
// distinct destination pages are filled in parallel, up to Workers at a
// time. The first failure cancels the rest of the run and is returned;
// steps already done are not rolled back.
func (s *StandardSwapSystem) Execute(ctx context.Context, op *SwapOperation) (err error) {
	if op == nil {
		return swaperr.IllegalArgument("swap operation cannot be nil").In("Execute", "SwapSystem")
	}
	if _, err := s.checkState(op.From, "from", "Execute"); err != nil {
		return err
	}
	if _, err := s.checkState(op.To, "to", "Execute"); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "swap.Execute", trace.WithAttributes(
		attribute.String("swap.op_id", op.ID.String()),
		attribute.String("swap.direction", op.Direction.String()),
		attribute.String("swap.from", op.From.Name()),
		attribute.String("swap.to", op.To.Name()),
		attribute.Int("swap.steps", op.Len()),
	))
	defer span.End()

	log := logging.WithOperation(op.ID.String())
	start := time.Now()
	dir := op.Direction.String()

	defer func() {
		executeDuration.WithLabelValues(dir).Observe(time.Since(start).Seconds())
		if err != nil {
			executeErrors.WithLabelValues(swaperr.CodeOf(err)).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("swap operation failed", "error", err)
		}
	}()

	if op.IsEmpty() {
		log.Debug("nothing to swap", "state", op.From.Name())
		return nil
	}

	log.Info("executing swap operation",
		"direction", dir, "from", op.From.Name(), "to", op.To.Name(),
		"window", op.Window.String(), "steps", op.Len())

	for i, hop := range op.Hops() {
		if err := s.executeHop(ctx, hop); err != nil {
			return swaperr.Wrap(err, swaperr.CodeStoreIO, "Execute", "SwapSystem")
		}
		log.Debug("hop done", "hop", i, "steps", len(hop),
			"from", hop[0].Source.State.Name(), "to", hop[0].Destination.State.Name())
	}

	fieldsMoved.WithLabelValues(dir).Add(float64(op.FieldsMoved()))
	log.Info("swap operation done", "fields", op.FieldsMoved(), "elapsed", time.Since(start))
	return nil
}

// executeHop runs one hop's steps, grouped by destination page.
func (s *StandardSwapSystem) executeHop(ctx context.Context, hop []SwapStep) error {
	var order []primitives.PageNumber
	groups := make(map[primitives.PageNumber][]SwapStep)
	for _, step := range hop {
		n := step.Destination.Number
		if _, seen := groups[n]; !seen {
			order = append(order, n)
		}
		groups[n] = append(groups[n], step)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, n := range order {
		steps := groups[n]
		g.Go(func() error {
			for _, step := range steps {
				if err := gctx.Err(); err != nil {
					return swaperr.New(swaperr.CategoryTransient, swaperr.CodeOperationCancelled, "swap operation cancelled").
						In("Execute", "SwapSystem")
				}
				if err := runStep(gctx, step); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func runStep(ctx context.Context, step SwapStep) error {
	var err error
	switch step.Direction {
	case primitives.DirectionIn:
		err = step.Swapper.ReadIn(ctx, step)
	case primitives.DirectionOut:
		err = step.Swapper.WriteOut(ctx, step)
	default:
		err = swaperr.New(swaperr.CategoryUser, swaperr.CodeStepMismatch, "step has no direction").
			WithDetail("%s", step).In("Execute", "SwapSystem")
	}
	if err != nil {
		return err
	}
	stepsExecuted.WithLabelValues(step.Direction.String()).Inc()
	return nil
}

// Swap plans and executes in one call and returns the executed plan.
func (s *StandardSwapSystem) Swap(ctx context.Context, region primitives.Region, current, target *SwapState) (*SwapOperation, error) {
	op, err := s.CreateSwapOperation(region, current, target)
	if err != nil {
		return nil, err
	}
	if err := s.Execute(ctx, op); err != nil {
		return op, err
	}
	return op, nil
}
