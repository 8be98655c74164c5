package models

import (
	"fmt"
	"time"
)

// transitions is the order lifecycle; a status maps to the statuses it may move to
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:           {StatusConfirmed, StatusPickupScheduled, StatusCancelled},
	StatusConfirmed:         {StatusPickupScheduled, StatusPickedUp, StatusReadyForDelivery, StatusDeliveryScheduled, StatusCancelled},
	StatusPickupScheduled:   {StatusPickupScheduled, StatusPickedUp, StatusCancelled},
	StatusPickedUp:          {StatusRefilling, StatusReadyForDelivery},
	StatusRefilling:         {StatusReadyForDelivery},
	StatusReadyForDelivery:  {StatusDeliveryScheduled, StatusDelivered},
	StatusDeliveryScheduled: {StatusDeliveryScheduled, StatusDelivered, StatusReadyForDelivery},
	StatusDelivered:         {StatusRefunded},
	StatusCancelled:         {StatusRefunded},
	StatusRefunded:          {},
}

// CanTransition reports whether an order may move from -> to
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s
func NextStatuses(s OrderStatus) []OrderStatus {
	out := make([]OrderStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// IsTerminal reports whether no further transitions are possible except refunds
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// TransitionResult describes what a lifecycle operation did to the order
type TransitionResult struct {
	From             OrderStatus `json:"from"`
	To               OrderStatus `json:"to"`
	Changed          bool        `json:"changed"`
	CylindersUpdated int         `json:"cylinders_updated"`
}

// CylinderResult describes what a per-cylinder mark did
type CylinderResult struct {
	CylinderID string         `json:"cylinder_id"`
	From       CylinderStatus `json:"from"`
	To         CylinderStatus `json:"to"`
	Changed    bool           `json:"changed"`
}

// cylinderStageFor is the stage cylinders are brought to when the order reaches a status
var cylinderStageFor = map[OrderStatus]CylinderStatus{
	StatusPickedUp:         CylinderPickedUp,
	StatusRefilling:        CylinderRefilling,
	StatusReadyForDelivery: CylinderReady,
	StatusDelivered:        CylinderDelivered,
}

// UpdateStatus moves the order to status and brings cylinders along
func (o *CO2Order) UpdateStatus(status OrderStatus, now time.Time) (TransitionResult, error) {
	res := TransitionResult{From: o.Status, To: status}
	if !status.Valid() {
		return res, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	if status == o.Status && status != StatusPickupScheduled && status != StatusDeliveryScheduled {
		return res, nil
	}
	if !CanTransition(o.Status, status) {
		return res, &TransitionError{From: o.Status, To: status}
	}

	o.Status = status
	res.Changed = true

	switch status {
	case StatusPickedUp:
		if o.ActualPickupDate == nil {
			o.ActualPickupDate = timePtr(now)
		}
	case StatusDelivered:
		o.ActualDeliveryDate = timePtr(now)
	case StatusRefunded:
		if o.PaymentStatus == PaymentCompleted || o.PaymentStatus == PaymentPartiallyRefunded {
			o.PaymentStatus = PaymentRefunded
		}
	}

	if stage, ok := cylinderStageFor[status]; ok {
		res.CylindersUpdated = o.advanceCylinders(stage, now)
	}
	return res, nil
}

// advanceCylinders moves every cylinder still below stage up to it
func (o *CO2Order) advanceCylinders(stage CylinderStatus, now time.Time) int {
	n := 0
	for i := range o.Cylinders {
		c := &o.Cylinders[i]
		if c.Status.Rank() >= stage.Rank() {
			continue
		}
		c.Status = stage
		stampCylinder(c, stage, now)
		n++
	}
	return n
}

func stampCylinder(c *CylinderUnit, stage CylinderStatus, now time.Time) {
	switch stage {
	case CylinderPickedUp:
		c.PickupDate = timePtr(now)
	case CylinderReady:
		c.RefillDate = timePtr(now)
	case CylinderDelivered:
		c.DeliveryDate = timePtr(now)
	}
}

// SchedulePickup books the pickup and moves the order to pickup_scheduled
func (o *CO2Order) SchedulePickup(date, now time.Time) (TransitionResult, error) {
	if err := checkScheduleDate(date, now); err != nil {
		return TransitionResult{From: o.Status, To: StatusPickupScheduled}, err
	}
	res, err := o.UpdateStatus(StatusPickupScheduled, now)
	if err != nil {
		return res, err
	}
	o.PreferredPickupDate = timePtr(date)
	o.EstimatedPickupDate = timePtr(date)
	return res, nil
}

// ScheduleDelivery books the delivery and moves the order to delivery_scheduled
func (o *CO2Order) ScheduleDelivery(date, now time.Time) (TransitionResult, error) {
	if err := checkScheduleDate(date, now); err != nil {
		return TransitionResult{From: o.Status, To: StatusDeliveryScheduled}, err
	}
	res, err := o.UpdateStatus(StatusDeliveryScheduled, now)
	if err != nil {
		return res, err
	}
	o.PreferredDeliveryDate = timePtr(date)
	o.EstimatedDeliveryDate = timePtr(date)
	return res, nil
}

func checkScheduleDate(date, now time.Time) error {
	if date.IsZero() {
		return ErrScheduleDateRequired
	}
	if date.Before(now) {
		return fmt.Errorf("%w: %s", ErrScheduleInPast, date.Format(time.RFC3339))
	}
	return nil
}

// Cancel moves the order to cancelled
func (o *CO2Order) Cancel(now time.Time) (TransitionResult, error) {
	return o.UpdateStatus(StatusCancelled, now)
}

// MarkCylinderPickedUp records the pickup of one cylinder
func (o *CO2Order) MarkCylinderPickedUp(cylinderID string, now time.Time, note string) (CylinderResult, error) {
	return o.markCylinder(cylinderID, CylinderPickedUp, now, note)
}

// MarkCylinderRefilled records that one cylinder is refilled and ready
func (o *CO2Order) MarkCylinderRefilled(cylinderID string, now time.Time, note string) (CylinderResult, error) {
	return o.markCylinder(cylinderID, CylinderReady, now, note)
}

// MarkCylinderDelivered records the delivery of one cylinder
func (o *CO2Order) MarkCylinderDelivered(cylinderID string, now time.Time, note string) (CylinderResult, error) {
	return o.markCylinder(cylinderID, CylinderDelivered, now, note)
}

func (o *CO2Order) markCylinder(cylinderID string, stage CylinderStatus, now time.Time, note string) (CylinderResult, error) {
	res := CylinderResult{CylinderID: cylinderID, To: stage}
	c := o.FindCylinder(cylinderID)
	if c == nil {
		return res, &CylinderError{CylinderID: cylinderID, To: stage, Err: ErrCylinderNotFound}
	}
	res.From = c.Status
	if c.Status == stage {
		return res, nil
	}
	if c.Status.Rank() > stage.Rank() {
		return res, &CylinderError{CylinderID: cylinderID, From: c.Status, To: stage, Err: ErrCylinderRegression}
	}

	c.Status = stage
	stampCylinder(c, stage, now)
	switch stage {
	case CylinderPickedUp:
		c.PickupNotes = note
	case CylinderReady:
		c.RefillNotes = note
	case CylinderDelivered:
		c.DeliveryNotes = note
	}
	res.Changed = true
	return res, nil
}

// FindCylinder returns the cylinder with the given serial, or nil
func (o *CO2Order) FindCylinder(cylinderID string) *CylinderUnit {
	for i := range o.Cylinders {
		if o.Cylinders[i].CylinderID == cylinderID {
			return &o.Cylinders[i]
		}
	}
	return nil
}

// CylinderProgress counts cylinders per stage
func (o *CO2Order) CylinderProgress() map[CylinderStatus]int {
	out := make(map[CylinderStatus]int, len(cylinderRank))
	for s := range cylinderRank {
		out[s] = 0
	}
	for _, c := range o.Cylinders {
		out[c.Status]++
	}
	return out
}

// ApplyPayment moves the payment status, recording the gateway transaction id when given
func (o *CO2Order) ApplyPayment(status PaymentStatus, transactionID string) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: unknown payment status %q", ErrInvalidPaymentChange, status)
	}
	if status == o.PaymentStatus {
		if transactionID != "" {
			o.TransactionID = transactionID
		}
		return false, nil
	}
	if !CanTransitionPayment(o.PaymentStatus, status) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidPaymentChange, o.PaymentStatus, status)
	}
	o.PaymentStatus = status
	if transactionID != "" {
		o.TransactionID = transactionID
	}
	return true, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
