package cashtx

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrCashTransactionIsNotConstructed = errors.New(
	"CashTransaction must be created via NewCashTransaction or RestoreCashTransaction constructor")

// CashTransaction is one leg of the cash-on-delivery cycle of an order.
//
// A transaction is created Pending and moves exactly once, to Completed (the
// courier's balance changes by AppliedAmount) or to Cancelled (no balance effect).
// The amount is fixed at creation. A completed transaction is history: it is
// never cancelled or rewritten, a correction is a new transaction.
//
// Balance sign convention:
//   - DriverToRestaurant completion adds the amount to the courier's cash balance
//   - CustomerToDriver completion subtracts the amount, capped at the balance held
//
// The cap keeps the balance non-negative when the customer pays more than the
// courier fronted; the uncapped remainder is the courier's profit and is not
// part of the balance.
type CashTransaction struct {
	id            kernel.UUID
	orderID       kernel.UUID
	courierID     kernel.UUID
	restaurantID  kernel.UUID
	amount        decimal.Decimal
	txType        Type
	status        Status
	createdAt     time.Time
	completedAt   kernel.Optional[time.Time]
	cancelledAt   kernel.Optional[time.Time]
	notes         kernel.Optional[string]
	appliedAmount kernel.Optional[decimal.Decimal]
	version       int64
	guard         guard.ConstructorGuard
}

// Parties names the order and the two parties of a cash movement.
type Parties struct {
	OrderID      kernel.UUID
	CourierID    kernel.UUID
	RestaurantID kernel.UUID
}

// NewCashTransaction creates a Pending transaction. The amount must be positive
// and is rounded to cents.
//
// Example:
//
//	tx, err := cashtx.NewCashTransaction(kernel.NewUUID(), cashtx.DriverToRestaurant,
//	    cashtx.Parties{OrderID: o.ID(), CourierID: c.ID(), RestaurantID: o.RestaurantID()},
//	    o.RestaurantAmount(), time.Now())
func NewCashTransaction(
	id kernel.UUID,
	txType Type,
	parties Parties,
	amount decimal.Decimal,
	now time.Time,
) (*CashTransaction, error) {
	tx := &CashTransaction{
		status:        Pending,
		createdAt:     now,
		completedAt:   kernel.None[time.Time](),
		cancelledAt:   kernel.None[time.Time](),
		notes:         kernel.None[string](),
		appliedAmount: kernel.None[decimal.Decimal](),
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		tx.setID(id),
		tx.setType(txType),
		tx.setParties(parties),
		tx.setAmount(amount),
	); err != nil {
		return nil, err
	}

	return tx, nil
}

// Snapshot is the persisted state of a transaction.
type Snapshot struct {
	ID            kernel.UUID
	Type          Type
	Parties       Parties
	Amount        decimal.Decimal
	Status        Status
	CreatedAt     time.Time
	CompletedAt   kernel.Optional[time.Time]
	CancelledAt   kernel.Optional[time.Time]
	Notes         kernel.Optional[string]
	AppliedAmount kernel.Optional[decimal.Decimal]
	Version       int64
}

// RestoreCashTransaction rehydrates a transaction and checks that the
// timestamps and applied amount agree with its status.
func RestoreCashTransaction(s Snapshot) (*CashTransaction, error) {
	tx, err := NewCashTransaction(s.ID, s.Type, s.Parties, s.Amount, s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := s.Status.Validate(); err != nil {
		return nil, err
	}

	completed := s.Status == Completed
	if completed != s.CompletedAt.IsPresent() || completed != s.AppliedAmount.IsPresent() {
		return nil, errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%s transaction has inconsistent completion data", s.Status))
	}
	if (s.Status == Cancelled) != s.CancelledAt.IsPresent() {
		return nil, errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%s transaction has inconsistent cancellation data", s.Status))
	}

	tx.status = s.Status
	tx.completedAt = s.CompletedAt
	tx.cancelledAt = s.CancelledAt
	tx.notes = s.Notes
	tx.appliedAmount = s.AppliedAmount
	tx.version = s.Version
	return tx, nil
}

func (t *CashTransaction) Snapshot() Snapshot {
	return Snapshot{
		ID:            t.id,
		Type:          t.txType,
		Parties:       Parties{OrderID: t.orderID, CourierID: t.courierID, RestaurantID: t.restaurantID},
		Amount:        t.amount,
		Status:        t.status,
		CreatedAt:     t.createdAt,
		CompletedAt:   t.completedAt,
		CancelledAt:   t.cancelledAt,
		Notes:         t.notes,
		AppliedAmount: t.appliedAmount,
		Version:       t.version,
	}
}

func (t *CashTransaction) Validate() error {
	if t == nil {
		return ErrCashTransactionIsNotConstructed
	}
	return t.guard.Validate(ErrCashTransactionIsNotConstructed)
}

func (t *CashTransaction) ID() kernel.UUID                { return t.id }
func (t *CashTransaction) OrderID() kernel.UUID           { return t.orderID }
func (t *CashTransaction) CourierID() kernel.UUID         { return t.courierID }
func (t *CashTransaction) RestaurantID() kernel.UUID      { return t.restaurantID }
func (t *CashTransaction) Amount() decimal.Decimal        { return t.amount }
func (t *CashTransaction) Type() Type                     { return t.txType }
func (t *CashTransaction) Status() Status                 { return t.status }
func (t *CashTransaction) CreatedAt() time.Time           { return t.createdAt }
func (t *CashTransaction) Notes() kernel.Optional[string] { return t.notes }
func (t *CashTransaction) Version() int64                 { return t.version }
func (t *CashTransaction) AdvanceVersion()                { t.version++ }

func (t *CashTransaction) CompletedAt() kernel.Optional[time.Time] { return t.completedAt }

func (t *CashTransaction) CancelledAt() kernel.Optional[time.Time] { return t.cancelledAt }

// AppliedAmount is the signed balance change made on completion.
func (t *CashTransaction) AppliedAmount() kernel.Optional[decimal.Decimal] { return t.appliedAmount }

// IsActive reports whether the transaction still counts against the
// one-leg-per-type rule of its order.
func (t *CashTransaction) IsActive() bool {
	return t.status != Cancelled
}

// SettlementDelta returns the balance change completing the transaction would
// make for a courier currently holding balance. It fails with
// TransactionStateConflict unless the transaction is Pending.
func (t *CashTransaction) SettlementDelta(balance decimal.Decimal) (decimal.Decimal, error) {
	if err := t.requirePending("complete"); err != nil {
		return decimal.Zero, err
	}

	if t.txType == DriverToRestaurant {
		return t.amount, nil
	}
	return decimal.Min(t.amount, decimal.Max(balance, decimal.Zero)).Neg(), nil
}

// Complete marks the transaction Completed and records the applied delta.
// The caller applies the same delta to the courier in the same unit of work.
func (t *CashTransaction) Complete(now time.Time, notes kernel.Optional[string], applied decimal.Decimal) error {
	if err := t.requirePending("complete"); err != nil {
		return err
	}

	t.status = Completed
	t.completedAt = kernel.Some(now)
	t.appliedAmount = kernel.Some(applied)
	if notes.IsPresent() {
		t.notes = notes
	}
	return nil
}

// Cancel moves a Pending transaction to Cancelled, keeping the reason in the notes.
func (t *CashTransaction) Cancel(now time.Time, reason string) error {
	if err := t.requirePending("cancel"); err != nil {
		return err
	}

	t.status = Cancelled
	t.cancelledAt = kernel.Some(now)
	if reason != "" {
		t.notes = kernel.Some(reason)
	}
	return nil
}

func (t *CashTransaction) requirePending(action string) error {
	if t.status == Pending {
		return nil
	}
	return errs.NewBusinessError(errs.CodeTransactionStateConflict,
		fmt.Sprintf("cannot %s %s transaction %s", action, t.status, t.id))
}

func (t *CashTransaction) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.id = id
	return nil
}

func (t *CashTransaction) setType(txType Type) error {
	if err := txType.Validate(); err != nil {
		return err
	}
	t.txType = txType
	return nil
}

func (t *CashTransaction) setParties(p Parties) error {
	if err := errors.Join(p.OrderID.Validate(), p.CourierID.Validate(), p.RestaurantID.Validate()); err != nil {
		return err
	}
	t.orderID = p.OrderID
	t.courierID = p.CourierID
	t.restaurantID = p.RestaurantID
	return nil
}

func (t *CashTransaction) setAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errs.NewValueIsOutOfRangeError("amount", amount.String(), "0 (exclusive)", "unbounded")
	}
	t.amount = amount.Round(2)
	return nil
}
