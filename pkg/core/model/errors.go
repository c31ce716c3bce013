package model

import (
	"fmt"
	"time"
)

// ErrNotFound is returned when a referenced entity does not exist
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ValidationError reports malformed or missing input.
// The operation is rejected before any state change.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CapacityError reports a camp at capacity
type CapacityError struct {
	CampID   string
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("camp %s is full (capacity %d)", e.CampID, e.Capacity)
}

// EligibilityError reports a donor blocked from donating, permanently or until
// NextEligibleDate.
type EligibilityError struct {
	DonorID          string
	Reason           string
	Permanent        bool
	NextEligibleDate *time.Time
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("donor %s is not eligible: %s", e.DonorID, e.Reason)
}

// TransitionError reports a state machine rule violation
type TransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: invalid transition %s -> %s", e.Entity, e.ID, e.From, e.To)
}

// ForbiddenError reports an actor attempting an operation their role does not permit
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// FulfillmentError reports a dispatch exceeding the remaining request or the
// available inventory. The request and inventory are left untouched.
type FulfillmentError struct {
	RequestID string
	Requested int
	Available int
	Message   string
}

func (e *FulfillmentError) Error() string {
	return fmt.Sprintf("request %s: %s (requested %d, available %d)", e.RequestID, e.Message, e.Requested, e.Available)
}

// DuplicateError reports a second active registration or booking for the
// same (camp, donor) pair.
type DuplicateError struct {
	Entity string
	ID     string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s for %s", e.Entity, e.ID)
}
