package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// AssignmentState is the position of an order in the courier assignment lifecycle.
//
//	Unassigned -> PendingAssignment -> Assigned -> Released -> Unassigned
//	PendingAssignment -> Unassigned (attempt aborted)
//
// PendingAssignment only exists while an assignment attempt holds the order lock
// and is never persisted.
type AssignmentState int

const (
	// UnknownState catches uninitialized values.
	UnknownState AssignmentState = iota
	Unassigned
	PendingAssignment
	Assigned
	Released
)

var stateNames = map[AssignmentState]string{
	UnknownState:      "Unknown",
	Unassigned:        "Unassigned",
	PendingAssignment: "PendingAssignment",
	Assigned:          "Assigned",
	Released:          "Released",
}

func (s AssignmentState) String() string {
	if str, ok := stateNames[s]; ok {
		return str
	}
	return "Unknown"
}

// ParseAssignmentState converts the stored name back into a state.
func ParseAssignmentState(s string) (AssignmentState, error) {
	for state, name := range stateNames {
		if name == s && state != UnknownState {
			return state, nil
		}
	}
	return UnknownState, errs.NewValueIsInvalidErrorWithCause(
		"assignment state is invalid", fmt.Errorf("%q is not a valid assignment state", s))
}

func (s AssignmentState) Validate() error {
	if s < Unassigned || s > Released {
		return errs.NewValueIsInvalidErrorWithCause(
			"assignment state is invalid", fmt.Errorf("%d is not a valid assignment state", s))
	}
	return nil
}

// IsPersistable reports whether the state may be written to storage.
func (s AssignmentState) IsPersistable() bool {
	return s == Unassigned || s == Assigned
}

// Begin moves Unassigned to PendingAssignment. The error is typed so the
// coordinator can surface AlreadyAssigned or AssignmentInProgress directly.
func (s AssignmentState) Begin() (AssignmentState, error) {
	switch s { //nolint:exhaustive // remaining states fall through to the generic error
	case Unassigned:
		return PendingAssignment, nil
	case Assigned:
		return s, errs.NewBusinessError(errs.CodeAlreadyAssigned, "order is already assigned")
	case PendingAssignment, Released:
		return s, errs.NewBusinessError(errs.CodeAssignmentInProgress, "order is being processed by another request")
	}
	return s, transitionError(s, "begin assignment")
}

func (s AssignmentState) Bind() (AssignmentState, error) {
	if s != PendingAssignment {
		return s, transitionError(s, "bind a courier")
	}
	return Assigned, nil
}

func (s AssignmentState) Abort() (AssignmentState, error) {
	if s != PendingAssignment {
		return s, transitionError(s, "abort assignment")
	}
	return Unassigned, nil
}

func (s AssignmentState) Release() (AssignmentState, error) {
	if s != Assigned {
		return s, transitionError(s, "release")
	}
	return Released, nil
}

func (s AssignmentState) Reopen() (AssignmentState, error) {
	if s != Released {
		return s, transitionError(s, "reopen")
	}
	return Unassigned, nil
}

func transitionError(s AssignmentState, action string) error {
	return errs.NewValueIsInvalidErrorWithCause(
		"assignment state is invalid", fmt.Errorf("cannot %s from %s", action, s))
}
