package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrUnknownOrderType     = errors.New("unknown order type")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrCylinderNotFound     = errors.New("cylinder not found on order")
	ErrCylinderRegression   = errors.New("cylinder cannot move back to an earlier stage")
	ErrScheduleDateRequired = errors.New("schedule date is required")
	ErrScheduleInPast       = errors.New("schedule date is in the past")
	ErrInvalidPaymentChange = errors.New("invalid payment status change")
	ErrInvalidOrder         = errors.New("invalid order")
	ErrCylinderTypeInactive = errors.New("cylinder type is not available")
)

// TransitionError describes a rejected status change
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// Unwrap lets errors.Is match ErrInvalidTransition
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// CylinderError describes a rejected per-cylinder change
type CylinderError struct {
	CylinderID string
	From       CylinderStatus
	To         CylinderStatus
	Err        error
}

func (e *CylinderError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("cylinder %s: %v", e.CylinderID, e.Err)
	}
	return fmt.Sprintf("cylinder %s: %v (%s -> %s)", e.CylinderID, e.Err, e.From, e.To)
}

func (e *CylinderError) Unwrap() error {
	return e.Err
}

// ValidationError names the offending field of an order
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidOrder
func (e *ValidationError) Unwrap() error {
	return ErrInvalidOrder
}
