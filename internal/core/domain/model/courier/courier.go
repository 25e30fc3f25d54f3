package courier

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// Domain errors for courier operations.
var (
	// ErrNameIsRequired is returned when a courier is created without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrCourierIsNotConstructed is returned when using an improperly initialized Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier or RestoreCourier constructor")
)

// Courier is the aggregate root for a delivery person as seen by dispatch and the cash ledger.
//
// Key responsibilities:
//   - Tracking the last reported position and availability (courier heartbeat)
//   - Counting active orders, used only as a ranking tiebreaker
//   - Holding the cash-on-delivery preferences and the running cash balance
//
// Business rules:
//   - cashBalance always stays within [0, maxCashLimit]
//   - cashBalance changes only through ApplyCashDelta, which the cash ledger calls on completion
//   - activeOrderCount never drops below zero
//   - A heartbeat older than the stored one is ignored
//
// Example usage:
//
//	loc, _ := kernel.NewGeoPoint(33.5138, 36.2765)
//	c, err := courier.NewCourier(kernel.NewUUID(), "Alice", loc, time.Now())
//	if err != nil {
//	    return err
//	}
//	_ = c.SetCODPreferences(true, decimal.NewFromInt(100))
type Courier struct {
	id                kernel.UUID
	name              string
	location          kernel.GeoPoint
	locationUpdatedAt time.Time
	isAvailable       bool
	activeOrderCount  int
	acceptsCOD        bool
	cashBalance       decimal.Decimal
	maxCashLimit      decimal.Decimal
	// version is the optimistic concurrency token of the persisted row
	version int64
	guard   guard.ConstructorGuard
}

// NewCourier onboards a courier at the given position.
// A new courier is available, does not accept cash on delivery and holds no cash.
//
// Example:
//
//	c, err := courier.NewCourier(id, "Alice", kernel.MustGeoPoint(25.2, 55.27), time.Now())
func NewCourier(id kernel.UUID, name string, location kernel.GeoPoint, now time.Time) (*Courier, error) {
	courier := &Courier{
		isAvailable:  true,
		cashBalance:  decimal.Zero,
		maxCashLimit: decimal.Zero,
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		courier.setID(id),
		courier.setName(name),
		courier.setLocation(location, now),
	); err != nil {
		return nil, err
	}

	return courier, nil
}

// Snapshot is the persisted state of a courier, used to rehydrate the aggregate.
type Snapshot struct {
	ID                kernel.UUID
	Name              string
	Location          kernel.GeoPoint
	LocationUpdatedAt time.Time
	IsAvailable       bool
	ActiveOrderCount  int
	AcceptsCOD        bool
	CashBalance       decimal.Decimal
	MaxCashLimit      decimal.Decimal
	Version           int64
}

// RestoreCourier reconstructs a Courier from persistent storage.
// Every invariant NewCourier and the mutators guarantee is re-checked, so a
// corrupted row fails loudly instead of leaking into matching or the ledger.
//
// Example:
//
//	c, err := courier.RestoreCourier(courier.Snapshot{ID: id, Name: "Alice", ...})
//	if err != nil {
//	    return fmt.Errorf("restoration failed: %w", err)
//	}
func RestoreCourier(s Snapshot) (*Courier, error) {
	courier := &Courier{
		isAvailable: s.IsAvailable,
		acceptsCOD:  s.AcceptsCOD,
		version:     s.Version,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		courier.setID(s.ID),
		courier.setName(s.Name),
		courier.setLocation(s.Location, s.LocationUpdatedAt),
		courier.setActiveOrderCount(s.ActiveOrderCount),
		courier.setCash(s.CashBalance, s.MaxCashLimit),
	); err != nil {
		return nil, err
	}

	return courier, nil
}

// Snapshot returns the current state for persistence.
func (c *Courier) Snapshot() Snapshot {
	return Snapshot{
		ID:                c.id,
		Name:              c.name,
		Location:          c.location,
		LocationUpdatedAt: c.locationUpdatedAt,
		IsAvailable:       c.isAvailable,
		ActiveOrderCount:  c.activeOrderCount,
		AcceptsCOD:        c.acceptsCOD,
		CashBalance:       c.cashBalance,
		MaxCashLimit:      c.maxCashLimit,
		Version:           c.version,
	}
}

// IsEqual compares two couriers by identity.
func (c *Courier) IsEqual(other *Courier) bool {
	if other == nil {
		return false
	}
	return c.id.IsEqual(other.id)
}

func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

func (c *Courier) ID() kernel.UUID {
	return c.id
}

func (c *Courier) Name() string {
	return c.name
}

func (c *Courier) Location() kernel.GeoPoint {
	return c.location
}

func (c *Courier) LocationUpdatedAt() time.Time {
	return c.locationUpdatedAt
}

func (c *Courier) IsAvailable() bool {
	return c.isAvailable
}

func (c *Courier) ActiveOrderCount() int {
	return c.activeOrderCount
}

func (c *Courier) AcceptsCOD() bool {
	return c.acceptsCOD
}

func (c *Courier) CashBalance() decimal.Decimal {
	return c.cashBalance
}

func (c *Courier) MaxCashLimit() decimal.Decimal {
	return c.maxCashLimit
}

func (c *Courier) Version() int64 {
	return c.version
}

// AdvanceVersion is called by repositories after a successful versioned write.
func (c *Courier) AdvanceVersion() {
	c.version++
}

// UpdateLocation applies a heartbeat. It returns false without changing anything
// when at is older than the last accepted heartbeat, since heartbeats may arrive
// out of order.
func (c *Courier) UpdateLocation(location kernel.GeoPoint, at time.Time) (bool, error) {
	if err := location.Validate(); err != nil {
		return false, err
	}
	if at.Before(c.locationUpdatedAt) {
		return false, nil
	}

	return true, c.setLocation(location, at)
}

func (c *Courier) SetAvailability(available bool) {
	c.isAvailable = available
}

// TakeOrder records one more active order.
func (c *Courier) TakeOrder() {
	c.activeOrderCount++
}

// ReleaseOrder records that an active order was released. The counter saturates at zero.
func (c *Courier) ReleaseOrder() {
	if c.activeOrderCount > 0 {
		c.activeOrderCount--
	}
}

// AvailableCashCapacity is how much more cash the courier may hold.
func (c *Courier) AvailableCashCapacity() decimal.Decimal {
	return c.maxCashLimit.Sub(c.cashBalance)
}

// HasSufficientBalance reports whether maxCashLimit - cashBalance >= amount.
// It does not look at AcceptsCOD; eligibility checks combine both.
func (c *Courier) HasSufficientBalance(amount decimal.Decimal) bool {
	return c.AvailableCashCapacity().GreaterThanOrEqual(amount)
}

// ApplyCashDelta is the only mutator of the cash balance.
// A delta that would move the balance outside [0, maxCashLimit] is rejected
// with InsufficientCashBalance and the balance stays untouched.
//
// Example:
//
//	if err := c.ApplyCashDelta(decimal.RequireFromString("45.00")); err != nil {
//	    // errors.Is(err, errs.ErrInsufficientCashBalance)
//	}
func (c *Courier) ApplyCashDelta(delta decimal.Decimal) error {
	next := c.cashBalance.Add(delta)

	if next.IsNegative() {
		return errs.NewBusinessError(errs.CodeInsufficientCashBalance,
			fmt.Sprintf("cash balance %s cannot go below zero by %s", c.cashBalance.StringFixed(2), delta.StringFixed(2)))
	}
	if next.GreaterThan(c.maxCashLimit) {
		return errs.NewBusinessError(errs.CodeInsufficientCashBalance,
			fmt.Sprintf("cash balance %s plus %s exceeds max cash limit %s",
				c.cashBalance.StringFixed(2), delta.StringFixed(2), c.maxCashLimit.StringFixed(2)))
	}

	c.cashBalance = next
	return nil
}

// SetCODPreferences changes whether the courier takes cash orders and how much
// cash they may hold. A limit below the outstanding balance is rejected, never clamped.
func (c *Courier) SetCODPreferences(acceptsCOD bool, maxCashLimit decimal.Decimal) error {
	if maxCashLimit.IsNegative() {
		return errs.NewValueIsOutOfRangeError("maxCashLimit", maxCashLimit.String(), 0, "unbounded")
	}
	if maxCashLimit.LessThan(c.cashBalance) {
		return errs.NewValueIsInvalidErrorWithCause("maxCashLimit",
			fmt.Errorf("%s is below outstanding cash balance %s", maxCashLimit.StringFixed(2), c.cashBalance.StringFixed(2)))
	}

	c.acceptsCOD = acceptsCOD
	c.maxCashLimit = maxCashLimit
	return nil
}

// CheckEligibility verifies that the courier may receive an order.
// required holds the cash the courier must be able to take on for a COD order.
// The returned error is a CourierIneligible business error naming the failing constraint.
func (c *Courier) CheckEligibility(required kernel.Optional[decimal.Decimal]) error {
	if !c.isAvailable {
		return errs.NewBusinessError(errs.CodeCourierIneligible, "courier is not available")
	}

	amount, ok := required.Get()
	if !ok {
		return nil
	}
	if !c.acceptsCOD {
		return errs.NewBusinessError(errs.CodeCourierIneligible, "courier does not accept cash on delivery")
	}
	if !c.HasSufficientBalance(amount) {
		return errs.NewBusinessError(errs.CodeCourierIneligible,
			fmt.Sprintf("insufficient cash capacity: available %s, required %s",
				c.AvailableCashCapacity().StringFixed(2), amount.StringFixed(2)))
	}

	return nil
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.id = id
	return nil
}

func (c *Courier) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}

	c.name = name
	return nil
}

func (c *Courier) setLocation(location kernel.GeoPoint, at time.Time) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	c.locationUpdatedAt = at
	return nil
}

func (c *Courier) setActiveOrderCount(count int) error {
	if count < 0 {
		return errs.NewValueIsOutOfRangeError("activeOrderCount", count, 0, "unbounded")
	}

	c.activeOrderCount = count
	return nil
}

func (c *Courier) setCash(balance, maxCashLimit decimal.Decimal) error {
	if maxCashLimit.IsNegative() {
		return errs.NewValueIsOutOfRangeError("maxCashLimit", maxCashLimit.String(), 0, "unbounded")
	}
	if balance.IsNegative() || balance.GreaterThan(maxCashLimit) {
		return errs.NewValueIsOutOfRangeError("cashBalance", balance.String(), 0, maxCashLimit.String())
	}

	c.cashBalance = balance
	c.maxCashLimit = maxCashLimit
	return nil
}
