package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

// AssignMethod tells how a courier was chosen.
type AssignMethod string

const (
	MethodAuto   AssignMethod = "Auto"
	MethodManual AssignMethod = "Manual"
)

// DeliveryAssignment is the act of binding a courier to an order. It is
// reported, not stored: the binding itself lives on the order.
type DeliveryAssignment struct {
	OrderID    kernel.UUID
	CourierID  kernel.UUID
	DistanceKm float64
	AssignedAt time.Time
	Method     AssignMethod
}

// AssignmentResult is the definite outcome of an assignment attempt: either
// an assignment or an error code with the constraint that failed.
type AssignmentResult struct {
	Success    bool
	Method     AssignMethod
	Assignment kernel.Optional[DeliveryAssignment]
	ErrorCode  kernel.Optional[errs.Code]
	Reason     string
}

func (r AssignmentResult) CourierID() kernel.Optional[kernel.UUID] {
	if a, ok := r.Assignment.Get(); ok {
		return kernel.Some(a.CourierID)
	}
	return kernel.None[kernel.UUID]()
}

func (r AssignmentResult) DistanceKm() kernel.Optional[float64] {
	if a, ok := r.Assignment.Get(); ok {
		return kernel.Some(a.DistanceKm)
	}
	return kernel.None[float64]()
}

// BalanceChecker answers the read only cash capacity question for a courier.
type BalanceChecker interface {
	HasSufficientBalance(ctx context.Context, courierID kernel.UUID, amount decimal.Decimal) (bool, error)
}

// AssignmentConfig bounds how hard the coordinator retries a contended order.
type AssignmentConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultAssignmentConfig() AssignmentConfig {
	return AssignmentConfig{
		MaxAttempts:     5,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
	}
}

// AssignmentCoordinator binds couriers to orders.
//
// Each attempt holds the "order:<id>" lock from reading the order until the
// Assigned state is committed. A held lock and a version conflict on commit
// are both retried with exponential backoff up to MaxAttempts; after that the
// caller gets AssignmentInProgress. Of any number of concurrent attempts on
// one order, exactly one binds a courier and the others report
// AlreadyAssigned or AssignmentInProgress.
//
// PendingAssignment only exists in memory during an attempt and is never saved.
//
// Example:
//
//	coordinator := NewAssignmentCoordinator(uowFactory, locker, ledger, notifier, metrics, logger,
//	    time.Now, DefaultAssignmentConfig())
//	cmd, _ := NewAssignNearestCommand(orderID, 5)
//	res, err := coordinator.AssignNearest(ctx, cmd)
//	if err != nil {
//	    return err
//	}
//	if code, failed := res.ErrorCode.Get(); failed && code == errs.CodeNoCourierAvailable {
//	    // widen the radius or try later
//	}
type AssignmentCoordinator struct {
	uowFactory UoWFactory
	locker     ports.Locker
	balances   BalanceChecker
	matcher    services.GeoMatcher
	notifier   ports.Notifier
	metrics    ports.Metrics
	logger     *slog.Logger
	now        func() time.Time
	cfg        AssignmentConfig
}

func NewAssignmentCoordinator(
	uowFactory UoWFactory,
	locker ports.Locker,
	balances BalanceChecker,
	notifier ports.Notifier,
	metrics ports.Metrics,
	logger *slog.Logger,
	now func() time.Time,
	cfg AssignmentConfig,
) *AssignmentCoordinator {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if now == nil {
		now = time.Now
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &AssignmentCoordinator{
		uowFactory: uowFactory,
		locker:     locker,
		balances:   balances,
		matcher:    services.NewGeoMatcher(),
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger.With("component", "assignment_coordinator"),
		now:        now,
		cfg:        cfg,
	}
}

// AssignNearest binds the best ranked courier around the order's restaurant.
// Business failures are returned as an unsuccessful result; the error return
// carries invalid input, storage and locking failures.
func (a *AssignmentCoordinator) AssignNearest(ctx context.Context, cmd AssignNearestCommand) (AssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignmentResult{}, err
	}

	return a.assign(ctx, cmd.OrderID(), MethodAuto, func(uow UoW, o *order.Order) (DeliveryAssignment, error) {
		return a.bindNearest(ctx, uow, o, cmd.MaxRadiusKm())
	})
}

// ManualAssign binds the chosen courier after re-checking availability and
// cash capacity. A courier failing either gets CourierIneligible.
func (a *AssignmentCoordinator) ManualAssign(ctx context.Context, cmd ManualAssignCommand) (AssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignmentResult{}, err
	}

	return a.assign(ctx, cmd.OrderID(), MethodManual, func(uow UoW, o *order.Order) (DeliveryAssignment, error) {
		return a.bindChosen(ctx, uow, o, cmd.CourierID())
	})
}

// Release returns an Assigned order to Unassigned, decrements the courier's
// active order count and cancels the order's pending cash legs. Releasing an
// Unassigned order succeeds without changing anything.
func (a *AssignmentCoordinator) Release(ctx context.Context, cmd ReleaseOrderCommand) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, err
	}

	var released kernel.Optional[kernel.UUID]
	err := a.withOrderLock(ctx, cmd.OrderID(), func() error {
		var err error
		released, err = a.release(ctx, cmd)
		return err
	})
	if err != nil {
		a.logger.WarnContext(ctx, "Order release failed", "order_id", cmd.OrderID().String(), "error", err)
		return false, err
	}

	if courierID, ok := released.Get(); ok {
		a.logger.InfoContext(ctx, "Order released",
			"order_id", cmd.OrderID().String(), "courier_id", courierID.String())
		publish(ctx, a.notifier, a.metrics, a.logger, ports.Event{
			Type:       ports.EventOrderReleased,
			OrderID:    cmd.OrderID(),
			CourierID:  courierID,
			OccurredAt: a.now(),
			Attributes: map[string]string{"reason": cmd.Reason()},
		})
	}
	return true, nil
}

type bindFunc func(uow UoW, o *order.Order) (DeliveryAssignment, error)

func (a *AssignmentCoordinator) assign(
	ctx context.Context,
	orderID kernel.UUID,
	method AssignMethod,
	bind bindFunc,
) (AssignmentResult, error) {
	started := time.Now()

	var assignment DeliveryAssignment
	err := a.withOrderLock(ctx, orderID, func() error {
		var err error
		assignment, err = a.attempt(ctx, orderID, method, bind)
		return err
	})
	a.metrics.ObserveAssignment(string(method), outcomeOf(err), time.Since(started))

	if code, ok := errs.CodeOf(err); ok {
		a.logger.InfoContext(ctx, "Order not assigned",
			"order_id", orderID.String(), "method", method, "code", code, "reason", errs.ReasonOf(err))
		return AssignmentResult{
			Method:     method,
			Assignment: kernel.None[DeliveryAssignment](),
			ErrorCode:  kernel.Some(code),
			Reason:     errs.ReasonOf(err),
		}, nil
	}
	if err != nil {
		a.logger.ErrorContext(ctx, "Order assignment failed",
			"order_id", orderID.String(), "method", method, "error", err)
		return AssignmentResult{}, err
	}

	a.logger.InfoContext(ctx, "Order assigned",
		"order_id", orderID.String(), "courier_id", assignment.CourierID.String(),
		"method", method, "distance_km", assignment.DistanceKm)
	publish(ctx, a.notifier, a.metrics, a.logger, ports.Event{
		Type:       ports.EventOrderAssigned,
		OrderID:    orderID,
		CourierID:  assignment.CourierID,
		OccurredAt: assignment.AssignedAt,
		Attributes: map[string]string{
			"method":      string(method),
			"distance_km": strconv.FormatFloat(assignment.DistanceKm, 'f', 2, 64),
		},
	})

	return AssignmentResult{
		Success:    true,
		Method:     method,
		Assignment: kernel.Some(assignment),
		ErrorCode:  kernel.None[errs.Code](),
	}, nil
}

// attempt runs one locked assignment: Unassigned -> PendingAssignment ->
// Assigned, committed together with the courier's active order count.
func (a *AssignmentCoordinator) attempt(
	ctx context.Context,
	orderID kernel.UUID,
	method AssignMethod,
	bind bindFunc,
) (DeliveryAssignment, error) {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return DeliveryAssignment{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return DeliveryAssignment{}, err
	}
	if err = o.BeginAssignment(); err != nil {
		return DeliveryAssignment{}, err
	}

	assignment, err := bind(uow, o)
	if err != nil {
		if o.State() == order.PendingAssignment {
			_ = o.AbortAssignment()
		}
		return DeliveryAssignment{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return DeliveryAssignment{}, err
	}

	assignment.Method = method
	return assignment, nil
}

func (a *AssignmentCoordinator) bindNearest(
	ctx context.Context,
	uow UoW,
	o *order.Order,
	radiusKm float64,
) (DeliveryAssignment, error) {
	query := services.MatchQuery{
		Origin:            o.RestaurantLocation(),
		RadiusKm:          radiusKm,
		OnlyAvailable:     true,
		CODRequiredAmount: o.CODRequirement(),
	}

	snapshot, err := uow.CourierRepository().GetWithinBounds(ctx, query.Origin.BoundingBox(radiusKm), true)
	if err != nil {
		return DeliveryAssignment{}, err
	}

	candidates, err := a.matcher.FindCandidates(snapshot, query)
	if err != nil {
		return DeliveryAssignment{}, err
	}
	if len(candidates) == 0 {
		return DeliveryAssignment{}, errs.NewBusinessError(errs.CodeNoCourierAvailable,
			fmt.Sprintf("no eligible courier within %.2f km", radiusKm))
	}

	// The snapshot may be stale; the ledger has the last word on cash capacity.
	var rejected error
	for _, candidate := range candidates {
		err = a.verifyCashCapacity(ctx, o, candidate.Courier)
		if _, isBusiness := errs.CodeOf(err); isBusiness {
			rejected = err
			continue
		}
		if err != nil {
			return DeliveryAssignment{}, err
		}

		return a.bind(ctx, uow, o, candidate.Courier, candidate.DistanceKm)
	}

	return DeliveryAssignment{}, errs.NewBusinessErrorWithCause(errs.CodeInsufficientCashBalance,
		"no nearby courier has enough cash capacity", rejected)
}

func (a *AssignmentCoordinator) bindChosen(
	ctx context.Context,
	uow UoW,
	o *order.Order,
	courierID kernel.UUID,
) (DeliveryAssignment, error) {
	c, err := uow.CourierRepository().Get(ctx, courierID)
	if err != nil {
		return DeliveryAssignment{}, err
	}

	if err = c.CheckEligibility(o.CODRequirement()); err != nil {
		return DeliveryAssignment{}, err
	}
	if err = a.verifyCashCapacity(ctx, o, c); err != nil {
		if code, isBusiness := errs.CodeOf(err); isBusiness && code == errs.CodeInsufficientCashBalance {
			return DeliveryAssignment{}, errs.NewBusinessErrorWithCause(errs.CodeCourierIneligible,
				errs.ReasonOf(err), err)
		}
		return DeliveryAssignment{}, err
	}

	return a.bind(ctx, uow, o, c, o.RestaurantLocation().DistanceKm(c.Location()))
}

// verifyCashCapacity re-checks a COD order's restaurant amount against the
// courier's committed balance. No balance is reserved or changed.
func (a *AssignmentCoordinator) verifyCashCapacity(ctx context.Context, o *order.Order, c *courier.Courier) error {
	required, ok := o.CODRequirement().Get()
	if !ok {
		return nil
	}

	sufficient, err := a.balances.HasSufficientBalance(ctx, c.ID(), required)
	if err != nil {
		return err
	}
	if !sufficient {
		return errs.NewBusinessError(errs.CodeInsufficientCashBalance,
			fmt.Sprintf("courier %s cannot take on %s in cash", c.ID(), required.StringFixed(2)))
	}
	return nil
}

func (a *AssignmentCoordinator) bind(
	ctx context.Context,
	uow UoW,
	o *order.Order,
	c *courier.Courier,
	distanceKm float64,
) (DeliveryAssignment, error) {
	if err := o.BindCourier(c.ID()); err != nil {
		return DeliveryAssignment{}, err
	}
	c.TakeOrder()

	if err := uow.OrderRepository().Update(ctx, o); err != nil {
		return DeliveryAssignment{}, err
	}
	if err := uow.CourierRepository().Update(ctx, c); err != nil {
		return DeliveryAssignment{}, err
	}

	return DeliveryAssignment{
		OrderID:    o.ID(),
		CourierID:  c.ID(),
		DistanceKm: distanceKm,
		AssignedAt: a.now(),
	}, nil
}

func (a *AssignmentCoordinator) release(ctx context.Context, cmd ReleaseOrderCommand) (kernel.Optional[kernel.UUID], error) {
	none := kernel.None[kernel.UUID]()

	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return none, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return none, err
	}

	released, err := o.Release()
	if err != nil {
		return none, err
	}
	courierID, ok := released.Get()
	if !ok {
		return none, nil
	}

	courierRepo := uow.CourierRepository()
	c, err := courierRepo.Get(ctx, courierID)
	if err != nil {
		return none, err
	}
	c.ReleaseOrder()

	if err = cancelPendingLegs(ctx, uow, o.ID(), a.now(), cmd.Reason()); err != nil {
		return none, err
	}
	if err = orderRepo.Update(ctx, o); err != nil {
		return none, err
	}
	if err = courierRepo.Update(ctx, c); err != nil {
		return none, err
	}
	if err = uow.Commit(ctx); err != nil {
		return none, err
	}

	return released, nil
}

// withOrderLock runs fn under the order's lock. Lock contention and version
// conflicts are retried with backoff; once the attempts are used up they turn
// into AssignmentInProgress.
func (a *AssignmentCoordinator) withOrderLock(ctx context.Context, orderID kernel.UUID, fn func() error) error {
	key := ports.OrderLockKey(orderID.String())

	operation := func() error {
		unlock, err := a.locker.TryLock(ctx, key)
		if errors.Is(err, ports.ErrLockHeld) {
			a.metrics.ObserveAssignmentRetry("lock_held")
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}

		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				a.logger.WarnContext(ctx, "Failed to release order lock", "order_id", orderID.String(), "error", err)
			}
		}()

		err = fn()
		if errors.Is(err, errs.ErrVersionIsInvalid) {
			a.metrics.ObserveAssignmentRetry("version_conflict")
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(a.newBackOff(), uint64(a.cfg.MaxAttempts-1)), ctx))
	if errors.Is(err, ports.ErrLockHeld) || errors.Is(err, errs.ErrVersionIsInvalid) {
		return errs.NewBusinessErrorWithCause(errs.CodeAssignmentInProgress,
			fmt.Sprintf("order %s is being changed by another request", orderID), err)
	}
	return err
}

func (a *AssignmentCoordinator) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.cfg.InitialInterval
	b.MaxInterval = a.cfg.MaxInterval
	b.MaxElapsedTime = 0
	return b
}
