package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places money amounts are rounded to.
const MoneyPlaces = 2

var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

// Order holds the delivery relevant part of a customer order.
//
// The restaurant subtotal (R) is what a courier fronts to the restaurant on a
// cash order, the total (C = R + delivery fee) is what the customer pays.
// Invariant: a courier is set if and only if the state is Assigned.
type Order struct {
	id                 kernel.UUID
	restaurantID       kernel.UUID
	restaurantLocation kernel.GeoPoint
	customerLocation   kernel.GeoPoint
	restaurantAmount   decimal.Decimal
	deliveryFee        decimal.Decimal
	isCOD              bool
	isRush             bool
	state              AssignmentState
	courierID          kernel.Optional[kernel.UUID]
	createdAt          time.Time
	version            int64
	guard              guard.ConstructorGuard
}

// Placement describes a new order as submitted by order placement.
type Placement struct {
	ID                 kernel.UUID
	RestaurantID       kernel.UUID
	RestaurantLocation kernel.GeoPoint
	CustomerLocation   kernel.GeoPoint
	RestaurantAmount   decimal.Decimal
	DeliveryFee        decimal.Decimal
	IsCOD              bool
	IsRush             bool
	CreatedAt          time.Time
}

// NewOrder creates an Unassigned order. Amounts are rounded to MoneyPlaces.
//
// Example:
//
//	o, err := order.NewOrder(order.Placement{
//	    ID:                 kernel.NewUUID(),
//	    RestaurantID:       restaurantID,
//	    RestaurantLocation: kernel.MustGeoPoint(33.5138, 36.2765),
//	    CustomerLocation:   kernel.MustGeoPoint(33.5200, 36.2900),
//	    RestaurantAmount:   decimal.NewFromInt(45),
//	    DeliveryFee:        decimal.NewFromInt(5),
//	    IsCOD:              true,
//	    CreatedAt:          time.Now(),
//	})
func NewOrder(p Placement) (*Order, error) {
	o := &Order{
		isCOD:     p.IsCOD,
		isRush:    p.IsRush,
		state:     Unassigned,
		courierID: kernel.None[kernel.UUID](),
		createdAt: p.CreatedAt,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setIDs(p.ID, p.RestaurantID),
		o.setLocations(p.RestaurantLocation, p.CustomerLocation),
		o.setAmounts(p.RestaurantAmount, p.DeliveryFee),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Snapshot is the persisted state of an order.
type Snapshot struct {
	Placement
	State     AssignmentState
	CourierID kernel.Optional[kernel.UUID]
	Version   int64
}

// RestoreOrder rehydrates an order and re-checks the courier/state invariant.
func RestoreOrder(s Snapshot) (*Order, error) {
	o, err := NewOrder(s.Placement)
	if err != nil {
		return nil, err
	}

	if err := s.State.Validate(); err != nil {
		return nil, err
	}
	if err := checkCourierInvariant(s.State, s.CourierID); err != nil {
		return nil, err
	}

	o.state = s.State
	o.courierID = s.CourierID
	o.version = s.Version
	return o, nil
}

func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		Placement: Placement{
			ID:                 o.id,
			RestaurantID:       o.restaurantID,
			RestaurantLocation: o.restaurantLocation,
			CustomerLocation:   o.customerLocation,
			RestaurantAmount:   o.restaurantAmount,
			DeliveryFee:        o.deliveryFee,
			IsCOD:              o.isCOD,
			IsRush:             o.isRush,
			CreatedAt:          o.createdAt,
		},
		State:     o.state,
		CourierID: o.courierID,
		Version:   o.version,
	}
}

func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) RestaurantID() kernel.UUID {
	return o.restaurantID
}

func (o *Order) RestaurantLocation() kernel.GeoPoint {
	return o.restaurantLocation
}

func (o *Order) CustomerLocation() kernel.GeoPoint {
	return o.customerLocation
}

// RestaurantAmount is the subtotal owed to the restaurant.
func (o *Order) RestaurantAmount() decimal.Decimal {
	return o.restaurantAmount
}

func (o *Order) DeliveryFee() decimal.Decimal {
	return o.deliveryFee
}

// Amount is the total collected from the customer.
func (o *Order) Amount() decimal.Decimal {
	return o.restaurantAmount.Add(o.deliveryFee)
}

func (o *Order) IsCOD() bool {
	return o.isCOD
}

func (o *Order) IsRush() bool {
	return o.isRush
}

func (o *Order) State() AssignmentState {
	return o.state
}

func (o *Order) CourierID() kernel.Optional[kernel.UUID] {
	return o.courierID
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) Version() int64 {
	return o.version
}

func (o *Order) AdvanceVersion() {
	o.version++
}

// IsAssignedTo reports whether the order is currently bound to courierID.
func (o *Order) IsAssignedTo(courierID kernel.UUID) bool {
	id, ok := o.courierID.Get()
	return ok && o.state == Assigned && id.IsEqual(courierID)
}

// CODRequirement is the cash a courier has to front for this order, if any.
func (o *Order) CODRequirement() kernel.Optional[decimal.Decimal] {
	if !o.isCOD {
		return kernel.None[decimal.Decimal]()
	}
	return kernel.Some(o.restaurantAmount)
}

// BeginAssignment marks the order as PendingAssignment.
// It fails with AlreadyAssigned or AssignmentInProgress business errors.
func (o *Order) BeginAssignment() error {
	next, err := o.state.Begin()
	if err != nil {
		return err
	}
	o.state = next
	return nil
}

// AbortAssignment returns a pending order to Unassigned.
func (o *Order) AbortAssignment() error {
	next, err := o.state.Abort()
	if err != nil {
		return err
	}
	o.state = next
	return nil
}

// BindCourier completes a pending assignment.
func (o *Order) BindCourier(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	next, err := o.state.Bind()
	if err != nil {
		return err
	}

	o.state = next
	o.courierID = kernel.Some(courierID)
	return nil
}

// Release unbinds the courier and returns the order to Unassigned, passing
// through Released. Releasing an Unassigned order is a no-op returning None.
//
// Example:
//
//	prev, err := o.Release()
//	if id, ok := prev.Get(); ok {
//	    // decrement the active order counter of courier id
//	}
func (o *Order) Release() (kernel.Optional[kernel.UUID], error) {
	if o.state == Unassigned {
		return kernel.None[kernel.UUID](), nil
	}

	released, err := o.state.Release()
	if err != nil {
		return kernel.None[kernel.UUID](), err
	}
	reopened, err := released.Reopen()
	if err != nil {
		return kernel.None[kernel.UUID](), err
	}

	prev := o.courierID
	o.state = reopened
	o.courierID = kernel.None[kernel.UUID]()
	return prev, nil
}

func (o *Order) setIDs(id, restaurantID kernel.UUID) error {
	if err := errors.Join(id.Validate(), restaurantID.Validate()); err != nil {
		return err
	}
	o.id = id
	o.restaurantID = restaurantID
	return nil
}

func (o *Order) setLocations(restaurant, customer kernel.GeoPoint) error {
	if err := errors.Join(restaurant.Validate(), customer.Validate()); err != nil {
		return err
	}
	o.restaurantLocation = restaurant
	o.customerLocation = customer
	return nil
}

func (o *Order) setAmounts(restaurantAmount, deliveryFee decimal.Decimal) error {
	var errList []error
	if restaurantAmount.IsNegative() {
		errList = append(errList, errs.NewValueIsOutOfRangeError("restaurantAmount", restaurantAmount.String(), 0, "unbounded"))
	}
	if deliveryFee.IsNegative() {
		errList = append(errList, errs.NewValueIsOutOfRangeError("deliveryFee", deliveryFee.String(), 0, "unbounded"))
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}

	o.restaurantAmount = restaurantAmount.Round(MoneyPlaces)
	o.deliveryFee = deliveryFee.Round(MoneyPlaces)
	return nil
}

func checkCourierInvariant(state AssignmentState, courierID kernel.Optional[kernel.UUID]) error {
	if !state.IsPersistable() {
		return errs.NewValueIsInvalidErrorWithCause(
			"assignment state is invalid", fmt.Errorf("%s is never persisted", state))
	}

	id, hasCourier := courierID.Get()
	if hasCourier {
		if err := id.Validate(); err != nil {
			return err
		}
	}

	switch {
	case state == Assigned && !hasCourier:
		return errs.NewValueIsInvalidErrorWithCause(
			"assignment state is invalid", errors.New("assigned order must have a courier"))
	case state != Assigned && hasCourier:
		return errs.NewValueIsInvalidErrorWithCause(
			"assignment state is invalid", fmt.Errorf("%s order must not have a courier", state))
	}
	return nil
}
