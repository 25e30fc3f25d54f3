package commands

import (
	"context"
	"errors"

	"dispatch/internal/pkg/errs"
)

var ErrNoOrderFound = errors.New("no order found")

// NearestAssigner is the part of AssignmentCoordinator the batch needs.
type NearestAssigner interface {
	AssignNearest(ctx context.Context, cmd AssignNearestCommand) (AssignmentResult, error)
}

// AssignPendingOrdersSummary counts what one batch achieved.
// Skipped holds the orders left unassigned, by error code.
type AssignPendingOrdersSummary struct {
	Scanned  int
	Assigned int
	Skipped  map[errs.Code]int
}

// AssignPendingOrdersCommandHandler walks the oldest unassigned orders and
// hands each to the coordinator. Business failures (nobody nearby, another
// request working on the order) leave the order for the next run; a storage
// failure stops the batch.
type AssignPendingOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	assigner   NearestAssigner
}

func NewAssignPendingOrdersCommandHandler(
	uowFactory OrderUoWFactory,
	assigner NearestAssigner,
) AssignPendingOrdersCommandHandler {
	return AssignPendingOrdersCommandHandler{
		uowFactory: uowFactory,
		assigner:   assigner,
	}
}

// Handle returns ErrNoOrderFound when there is nothing to assign.
func (h AssignPendingOrdersCommandHandler) Handle(
	ctx context.Context,
	cmd AssignPendingOrdersCommand,
) (AssignPendingOrdersSummary, error) {
	summary := AssignPendingOrdersSummary{Skipped: make(map[errs.Code]int)}
	if err := cmd.Validate(); err != nil {
		return summary, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return summary, err
	}

	pending, err := uow.OrderRepository().GetAllUnassigned(ctx, cmd.BatchSize())
	_ = uow.Rollback(ctx)
	if err != nil {
		return summary, err
	}
	if len(pending) == 0 {
		return summary, ErrNoOrderFound
	}

	for _, o := range pending {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}

		assignCmd, err := NewAssignNearestCommand(o.ID(), cmd.RadiusKm())
		if err != nil {
			return summary, err
		}

		summary.Scanned++
		res, err := h.assigner.AssignNearest(ctx, assignCmd)
		if err != nil {
			return summary, err
		}

		if code, failed := res.ErrorCode.Get(); failed {
			summary.Skipped[code]++
			continue
		}
		summary.Assigned++
	}

	return summary, nil
}
