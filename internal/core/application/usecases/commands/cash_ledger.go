package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/cashtx"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// courierLockTimeout bounds how long a ledger operation waits for another
// operation on the same courier.
const courierLockTimeout = 5 * time.Second

// Ledger operation names used as metric labels.
const (
	ledgerOpCreateDriverToRestaurant = "create_driver_to_restaurant"
	ledgerOpCreateCustomerToDriver   = "create_customer_to_driver"
	ledgerOpComplete                 = "complete"
	ledgerOpCancel                   = "cancel"
	ledgerOpProcessCODPayment        = "process_cod_payment"
	ledgerOpSetPreferences           = "set_preferences"
)

// CODPaymentResult is the outcome of settling both cash legs of an order.
// On failure ErrorCode and Reason are set and nothing was written.
type CODPaymentResult struct {
	Success                bool
	DriverToRestaurantTxID kernel.Optional[kernel.UUID]
	CustomerToDriverTxID   kernel.Optional[kernel.UUID]
	BalanceBefore          decimal.Decimal
	BalanceAfter           decimal.Decimal
	Profit                 decimal.Decimal
	ErrorCode              kernel.Optional[errs.Code]
	Reason                 string
}

func failedCODPayment(err error) CODPaymentResult {
	code, _ := errs.CodeOf(err)
	return CODPaymentResult{
		DriverToRestaurantTxID: kernel.None[kernel.UUID](),
		CustomerToDriverTxID:   kernel.None[kernel.UUID](),
		ErrorCode:              kernel.Some(code),
		Reason:                 errs.ReasonOf(err),
	}
}

// CashLedger is the only writer of courier cash balances and of the two cash
// legs of a cash-on-delivery order.
//
// Every write for a courier runs under the "courier:<id>" lock, re-reads the
// courier with GetForUpdate and is saved with a versioned update, so two
// completions for one courier never overwrite each other's delta.
//
// Balance convention: completing a DriverToRestaurant leg adds its amount,
// completing a CustomerToDriver leg subtracts its amount capped at the
// balance held. Settling R to the restaurant and collecting C from the
// customer therefore moves the balance by R - C, floored at zero, and the
// courier keeps C - R.
//
// Example:
//
//	ledger := NewCashLedger(uowFactory, locker, notifier, metrics, logger, time.Now)
//	res, err := ledger.ProcessCODPayment(ctx, orderID, courierID)
//	switch {
//	case err != nil:
//	    return err // storage failure
//	case !res.Success:
//	    log.Printf("cod payment rejected: %s", res.Reason)
//	}
type CashLedger struct {
	uowFactory UoWFactory
	locker     ports.Locker
	notifier   ports.Notifier
	metrics    ports.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewCashLedger(
	uowFactory UoWFactory,
	locker ports.Locker,
	notifier ports.Notifier,
	metrics ports.Metrics,
	logger *slog.Logger,
	now func() time.Time,
) *CashLedger {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if now == nil {
		now = time.Now
	}
	return &CashLedger{
		uowFactory: uowFactory,
		locker:     locker,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger.With("component", "cash_ledger"),
		now:        now,
	}
}

// HasSufficientBalance reports whether maxCashLimit - cashBalance >= amount
// for the committed state of the courier. It never writes.
func (l *CashLedger) HasSufficientBalance(ctx context.Context, courierID kernel.UUID, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, errs.NewValueIsOutOfRangeError("amount", amount.String(), 0, "unbounded")
	}

	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	c, err := uow.CourierRepository().Get(ctx, courierID)
	if err != nil {
		return false, err
	}

	return c.HasSufficientBalance(amount), nil
}

// CreateDriverToRestaurantTransaction records, as Pending, the cash the courier
// fronts to the restaurant.
func (l *CashLedger) CreateDriverToRestaurantTransaction(
	ctx context.Context,
	orderID, courierID kernel.UUID,
	amount decimal.Decimal,
) (*cashtx.CashTransaction, error) {
	return l.createTransaction(ctx, ledgerOpCreateDriverToRestaurant, cashtx.DriverToRestaurant, orderID, courierID, amount)
}

// CreateCustomerToDriverTransaction records, as Pending, the cash the courier
// collects from the customer.
func (l *CashLedger) CreateCustomerToDriverTransaction(
	ctx context.Context,
	orderID, courierID kernel.UUID,
	amount decimal.Decimal,
) (*cashtx.CashTransaction, error) {
	return l.createTransaction(ctx, ledgerOpCreateCustomerToDriver, cashtx.CustomerToDriver, orderID, courierID, amount)
}

func (l *CashLedger) createTransaction(
	ctx context.Context,
	op string,
	txType cashtx.Type,
	orderID, courierID kernel.UUID,
	amount decimal.Decimal,
) (created *cashtx.CashTransaction, err error) {
	defer func() {
		l.metrics.ObserveLedger(op, outcomeOf(err))
	}()

	err = l.withCourierLock(ctx, courierID, func() error {
		uow := l.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		o, err := codOrderOf(ctx, uow, orderID, courierID)
		if err != nil {
			return err
		}

		txRepo := uow.CashTransactionRepository()
		legs, err := txRepo.GetByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if leg, ok := activeLeg(legs, txType); ok {
			return duplicateLegError(orderID, leg)
		}

		tx, err := cashtx.NewCashTransaction(kernel.NewUUID(), txType, partiesOf(o, courierID), amount, l.now())
		if err != nil {
			return err
		}
		if err = txRepo.Add(ctx, tx); err != nil {
			return err
		}
		if err = uow.Commit(ctx); err != nil {
			return err
		}

		created = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Cash transaction created",
		"transaction_id", created.ID().String(), "type", txType.String(), "order_id", orderID.String())
	return created, nil
}

// CompleteTransaction moves a Pending transaction to Completed and applies its
// balance delta in the same unit of work. A CustomerToDriver leg completes
// only after the order's DriverToRestaurant leg.
func (l *CashLedger) CompleteTransaction(
	ctx context.Context,
	transactionID kernel.UUID,
	notes kernel.Optional[string],
) (completed *cashtx.CashTransaction, err error) {
	defer func() {
		l.metrics.ObserveLedger(ledgerOpComplete, outcomeOf(err))
	}()

	courierID, err := l.courierOf(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	err = l.withCourierLock(ctx, courierID, func() error {
		uow := l.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		txRepo := uow.CashTransactionRepository()
		tx, err := txRepo.Get(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.Type() == cashtx.CustomerToDriver {
			if err = requireRestaurantLegCompleted(ctx, txRepo, tx); err != nil {
				return err
			}
		}

		c, err := uow.CourierRepository().GetForUpdate(ctx, tx.CourierID())
		if err != nil {
			return err
		}
		if err = settle(c, tx, l.now(), notes); err != nil {
			return err
		}

		if err = uow.CourierRepository().Update(ctx, c); err != nil {
			return err
		}
		if err = txRepo.Update(ctx, tx); err != nil {
			return err
		}
		if err = uow.Commit(ctx); err != nil {
			return err
		}

		completed = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed.Type() == cashtx.CustomerToDriver {
		publish(ctx, l.notifier, l.metrics, l.logger, ports.Event{
			Type:       ports.EventCODCompleted,
			OrderID:    completed.OrderID(),
			CourierID:  completed.CourierID(),
			OccurredAt: l.now(),
			Attributes: map[string]string{"transaction_id": completed.ID().String()},
		})
	}
	return completed, nil
}

// CancelTransaction moves a Pending transaction to Cancelled. A Completed
// transaction is never cancelled; correct it with a new transaction.
func (l *CashLedger) CancelTransaction(ctx context.Context, transactionID kernel.UUID, reason string) (err error) {
	defer func() {
		l.metrics.ObserveLedger(ledgerOpCancel, outcomeOf(err))
	}()

	courierID, err := l.courierOf(ctx, transactionID)
	if err != nil {
		return err
	}

	return l.withCourierLock(ctx, courierID, func() error {
		uow := l.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		txRepo := uow.CashTransactionRepository()
		tx, err := txRepo.Get(ctx, transactionID)
		if err != nil {
			return err
		}
		if err = tx.Cancel(l.now(), reason); err != nil {
			return err
		}
		if err = txRepo.Update(ctx, tx); err != nil {
			return err
		}

		return uow.Commit(ctx)
	})
}

// ProcessCODPayment settles the whole cash cycle of an order in one unit of
// work: the courier pays the restaurant subtotal, then collects the order
// total from the customer. Pending legs created earlier are reused; a
// Completed leg means the cycle already ran and fails with
// TransactionStateConflict.
//
// Business failures come back as an unsuccessful result with nothing written.
// The error return is reserved for storage and locking failures.
func (l *CashLedger) ProcessCODPayment(ctx context.Context, orderID, courierID kernel.UUID) (CODPaymentResult, error) {
	var result CODPaymentResult
	err := l.withCourierLock(ctx, courierID, func() error {
		var err error
		result, err = l.processCODPayment(ctx, orderID, courierID)
		return err
	})
	l.metrics.ObserveLedger(ledgerOpProcessCODPayment, outcomeOf(err))

	if _, ok := errs.CodeOf(err); ok {
		l.logger.InfoContext(ctx, "COD payment rejected",
			"order_id", orderID.String(), "courier_id", courierID.String(), "reason", errs.ReasonOf(err))
		return failedCODPayment(err), nil
	}
	if err != nil {
		return CODPaymentResult{}, err
	}

	publish(ctx, l.notifier, l.metrics, l.logger, ports.Event{
		Type:       ports.EventCODCompleted,
		OrderID:    orderID,
		CourierID:  courierID,
		OccurredAt: l.now(),
		Attributes: map[string]string{
			"balance_after": result.BalanceAfter.StringFixed(2),
			"profit":        result.Profit.StringFixed(2),
		},
	})
	return result, nil
}

func (l *CashLedger) processCODPayment(ctx context.Context, orderID, courierID kernel.UUID) (CODPaymentResult, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return CODPaymentResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := codOrderOf(ctx, uow, orderID, courierID)
	if err != nil {
		return CODPaymentResult{}, err
	}

	courierRepo := uow.CourierRepository()
	c, err := courierRepo.GetForUpdate(ctx, courierID)
	if err != nil {
		return CODPaymentResult{}, err
	}
	if !c.AcceptsCOD() {
		return CODPaymentResult{}, errs.NewBusinessError(errs.CodeCourierIneligible,
			"courier does not accept cash on delivery")
	}

	txRepo := uow.CashTransactionRepository()
	legs, err := txRepo.GetByOrder(ctx, orderID)
	if err != nil {
		return CODPaymentResult{}, err
	}

	now := l.now()
	restaurantLeg, restaurantLegIsNew, err := pendingLeg(legs, cashtx.DriverToRestaurant, o, courierID,
		o.RestaurantAmount(), now)
	if err != nil {
		return CODPaymentResult{}, err
	}
	customerLeg, customerLegIsNew, err := pendingLeg(legs, cashtx.CustomerToDriver, o, courierID, o.Amount(), now)
	if err != nil {
		return CODPaymentResult{}, err
	}

	if !c.HasSufficientBalance(restaurantLeg.Amount()) {
		return CODPaymentResult{}, errs.NewBusinessError(errs.CodeInsufficientCashBalance,
			fmt.Sprintf("available cash capacity %s is below restaurant amount %s",
				c.AvailableCashCapacity().StringFixed(2), restaurantLeg.Amount().StringFixed(2)))
	}

	balanceBefore := c.CashBalance()
	if err = settle(c, restaurantLeg, now, kernel.None[string]()); err != nil {
		return CODPaymentResult{}, err
	}
	if err = settle(c, customerLeg, now, kernel.None[string]()); err != nil {
		return CODPaymentResult{}, err
	}

	if err = courierRepo.Update(ctx, c); err != nil {
		return CODPaymentResult{}, err
	}
	if err = saveLeg(ctx, txRepo, restaurantLeg, restaurantLegIsNew); err != nil {
		return CODPaymentResult{}, err
	}
	if err = saveLeg(ctx, txRepo, customerLeg, customerLegIsNew); err != nil {
		return CODPaymentResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return CODPaymentResult{}, err
	}

	return CODPaymentResult{
		Success:                true,
		DriverToRestaurantTxID: kernel.Some(restaurantLeg.ID()),
		CustomerToDriverTxID:   kernel.Some(customerLeg.ID()),
		BalanceBefore:          balanceBefore,
		BalanceAfter:           c.CashBalance(),
		Profit:                 customerLeg.Amount().Sub(restaurantLeg.Amount()),
		ErrorCode:              kernel.None[errs.Code](),
	}, nil
}

// SetPreferences changes whether a courier takes cash orders and how much cash
// they may hold. A limit below the outstanding balance is a validation error.
func (l *CashLedger) SetPreferences(
	ctx context.Context,
	courierID kernel.UUID,
	acceptsCOD bool,
	maxCashLimit decimal.Decimal,
) (err error) {
	defer func() {
		l.metrics.ObserveLedger(ledgerOpSetPreferences, outcomeOf(err))
	}()

	return l.withCourierLock(ctx, courierID, func() error {
		uow := l.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		courierRepo := uow.CourierRepository()
		c, err := courierRepo.GetForUpdate(ctx, courierID)
		if err != nil {
			return err
		}
		if err = c.SetCODPreferences(acceptsCOD, maxCashLimit); err != nil {
			return err
		}
		if err = courierRepo.Update(ctx, c); err != nil {
			return err
		}

		return uow.Commit(ctx)
	})
}

func (l *CashLedger) withCourierLock(ctx context.Context, courierID kernel.UUID, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, courierLockTimeout)
	defer cancel()

	unlock, err := l.locker.Lock(lockCtx, ports.CourierLockKey(courierID.String()))
	if err != nil {
		return err
	}

	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			l.logger.WarnContext(ctx, "Failed to release courier lock", "courier_id", courierID.String(), "error", err)
		}
	}()

	return fn()
}

// courierOf looks up whose balance a transaction touches, to know which lock to take.
func (l *CashLedger) courierOf(ctx context.Context, transactionID kernel.UUID) (kernel.UUID, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return kernel.UUID{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	tx, err := uow.CashTransactionRepository().Get(ctx, transactionID)
	if err != nil {
		return kernel.UUID{}, err
	}
	return tx.CourierID(), nil
}

// cancelPendingLegs cancels every Pending cash leg of an order inside uow.
// Completed legs are history and stay as they are.
func cancelPendingLegs(ctx context.Context, uow UoW, orderID kernel.UUID, now time.Time, reason string) error {
	txRepo := uow.CashTransactionRepository()
	legs, err := txRepo.GetByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	for _, leg := range legs {
		if leg.Status() != cashtx.Pending {
			continue
		}
		if err = leg.Cancel(now, reason); err != nil {
			return err
		}
		if err = txRepo.Update(ctx, leg); err != nil {
			return err
		}
	}
	return nil
}

func codOrderOf(ctx context.Context, uow UoW, orderID, courierID kernel.UUID) (*order.Order, error) {
	o, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsCOD() {
		return nil, errs.NewValueIsInvalidErrorWithCause("orderID",
			fmt.Errorf("order %s is not cash on delivery", orderID))
	}
	if !o.IsAssignedTo(courierID) {
		return nil, errs.NewBusinessError(errs.CodeCourierIneligible,
			fmt.Sprintf("order %s is not assigned to courier %s", orderID, courierID))
	}
	return o, nil
}

func partiesOf(o *order.Order, courierID kernel.UUID) cashtx.Parties {
	return cashtx.Parties{
		OrderID:      o.ID(),
		CourierID:    courierID,
		RestaurantID: o.RestaurantID(),
	}
}

func activeLeg(legs []*cashtx.CashTransaction, txType cashtx.Type) (*cashtx.CashTransaction, bool) {
	for _, leg := range legs {
		if leg.Type() == txType && leg.IsActive() {
			return leg, true
		}
	}
	return nil, false
}

func duplicateLegError(orderID kernel.UUID, leg *cashtx.CashTransaction) error {
	return errs.NewBusinessError(errs.CodeTransactionStateConflict,
		fmt.Sprintf("order %s already has %s %s transaction %s", orderID, leg.Status(), leg.Type(), leg.ID()))
}

// pendingLeg returns the Pending leg of txType, creating one for amount when
// the order has none. A Completed leg is a conflict.
func pendingLeg(
	legs []*cashtx.CashTransaction,
	txType cashtx.Type,
	o *order.Order,
	courierID kernel.UUID,
	amount decimal.Decimal,
	now time.Time,
) (*cashtx.CashTransaction, bool, error) {
	leg, ok := activeLeg(legs, txType)
	if !ok {
		created, err := cashtx.NewCashTransaction(kernel.NewUUID(), txType, partiesOf(o, courierID), amount, now)
		return created, true, err
	}
	if leg.Status() != cashtx.Pending || !leg.CourierID().IsEqual(courierID) {
		return nil, false, duplicateLegError(o.ID(), leg)
	}
	return leg, false, nil
}

func saveLeg(ctx context.Context, repo ports.CashTransactionRepository, leg *cashtx.CashTransaction, isNew bool) error {
	if isNew {
		return repo.Add(ctx, leg)
	}
	return repo.Update(ctx, leg)
}

func requireRestaurantLegCompleted(
	ctx context.Context,
	repo ports.CashTransactionRepository,
	tx *cashtx.CashTransaction,
) error {
	legs, err := repo.GetByOrder(ctx, tx.OrderID())
	if err != nil {
		return err
	}

	leg, ok := activeLeg(legs, cashtx.DriverToRestaurant)
	if ok && leg.Status() == cashtx.Completed {
		return nil
	}
	return errs.NewBusinessError(errs.CodeTransactionStateConflict,
		fmt.Sprintf("order %s: the driver to restaurant leg must complete before transaction %s", tx.OrderID(), tx.ID()))
}

// settle completes tx against c: the delta is computed from the courier's
// current balance, applied to the courier and recorded on the transaction.
func settle(c *courier.Courier, tx *cashtx.CashTransaction, now time.Time, notes kernel.Optional[string]) error {
	delta, err := tx.SettlementDelta(c.CashBalance())
	if err != nil {
		return err
	}
	if err = c.ApplyCashDelta(delta); err != nil {
		return err
	}
	return tx.Complete(now, notes, delta)
}
