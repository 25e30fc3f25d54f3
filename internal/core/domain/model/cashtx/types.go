package cashtx

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Type is the direction of a cash movement in the cash-on-delivery cycle.
type Type int

const (
	UnknownType Type = iota
	// DriverToRestaurant is the courier fronting the subtotal to the restaurant.
	DriverToRestaurant
	// CustomerToDriver is the courier collecting the order total from the customer.
	CustomerToDriver
)

// Status is the lifecycle of a cash transaction: Pending, then Completed or Cancelled, never both.
type Status int

const (
	UnknownStatus Status = iota
	Pending
	Completed
	Cancelled
)

var typeNames = map[Type]string{
	DriverToRestaurant: "DriverToRestaurant",
	CustomerToDriver:   "CustomerToDriver",
}

var statusNames = map[Status]string{
	Pending:   "Pending",
	Completed: "Completed",
	Cancelled: "Cancelled",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "Unknown"
}

func (t Type) Validate() error {
	if _, ok := typeNames[t]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("type", fmt.Errorf("%d is not a valid transaction type", t))
	}
	return nil
}

func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return UnknownType, errs.NewValueIsInvalidErrorWithCause("type", fmt.Errorf("%q is not a valid transaction type", s))
}

func (s Status) String() string {
	if str, ok := statusNames[s]; ok {
		return str
	}
	return "Unknown"
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid transaction status", s))
	}
	return nil
}

func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return UnknownStatus, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid transaction status", s))
}
