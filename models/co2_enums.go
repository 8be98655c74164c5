package models

import (
	"fmt"
	"strings"
)

// OrderType is the kind of CO2 service requested
type OrderType string

const (
	OrderTypeRefill       OrderType = "refill"
	OrderTypeExchange     OrderType = "exchange"
	OrderTypeNew          OrderType = "new"
	OrderTypeSubscription OrderType = "subscription"
)

// OrderTypes lists every order type
var OrderTypes = []OrderType{OrderTypeRefill, OrderTypeExchange, OrderTypeNew, OrderTypeSubscription}

// Valid reports whether t is a known order type
func (t OrderType) Valid() bool {
	for _, v := range OrderTypes {
		if t == v {
			return true
		}
	}
	return false
}

// OrderStatus is the aggregate lifecycle stage of a CO2 order
type OrderStatus string

const (
	StatusPending           OrderStatus = "pending"
	StatusConfirmed         OrderStatus = "confirmed"
	StatusPickupScheduled   OrderStatus = "pickup_scheduled"
	StatusPickedUp          OrderStatus = "picked_up"
	StatusRefilling         OrderStatus = "refilling"
	StatusReadyForDelivery  OrderStatus = "ready_for_delivery"
	StatusDeliveryScheduled OrderStatus = "delivery_scheduled"
	StatusDelivered         OrderStatus = "delivered"
	StatusCancelled         OrderStatus = "cancelled"
	StatusRefunded          OrderStatus = "refunded"
)

// OrderStatuses lists every order status in lifecycle order
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPickupScheduled,
	StatusPickedUp,
	StatusRefilling,
	StatusReadyForDelivery,
	StatusDeliveryScheduled,
	StatusDelivered,
	StatusCancelled,
	StatusRefunded,
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseOrderStatus normalises and validates a status string
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// CylinderStatus is the progress of one physical cylinder
type CylinderStatus string

const (
	CylinderPending   CylinderStatus = "pending"
	CylinderPickedUp  CylinderStatus = "picked_up"
	CylinderRefilling CylinderStatus = "refilling"
	CylinderReady     CylinderStatus = "ready"
	CylinderDelivered CylinderStatus = "delivered"
)

// CylinderStatuses lists the cylinder stages in the order a cylinder passes them
var CylinderStatuses = []CylinderStatus{
	CylinderPending,
	CylinderPickedUp,
	CylinderRefilling,
	CylinderReady,
	CylinderDelivered,
}

var cylinderRank = map[CylinderStatus]int{
	CylinderPending:   0,
	CylinderPickedUp:  1,
	CylinderRefilling: 2,
	CylinderReady:     3,
	CylinderDelivered: 4,
}

// Valid reports whether s is a known cylinder status
func (s CylinderStatus) Valid() bool {
	_, ok := cylinderRank[s]
	return ok
}

// Rank is the position of s in the cylinder progression, -1 if unknown
func (s CylinderStatus) Rank() int {
	if r, ok := cylinderRank[s]; ok {
		return r
	}
	return -1
}

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentURWAYS         PaymentMethod = "urways"
	PaymentTap            PaymentMethod = "tap_payment"
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentDebitCard      PaymentMethod = "debit_card"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentPayPal         PaymentMethod = "paypal"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// PaymentMethods lists every payment method
var PaymentMethods = []PaymentMethod{
	PaymentURWAYS, PaymentTap, PaymentCreditCard, PaymentDebitCard,
	PaymentBankTransfer, PaymentPayPal, PaymentCashOnDelivery,
}

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if m == v {
			return true
		}
	}
	return false
}

// PaymentStatus is the settlement state of the order's payment
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:           {PaymentCompleted, PaymentFailed},
	PaymentFailed:            {PaymentPending, PaymentCompleted},
	PaymentCompleted:         {PaymentRefunded, PaymentPartiallyRefunded},
	PaymentPartiallyRefunded: {PaymentRefunded},
	PaymentRefunded:          {},
}

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanTransitionPayment reports whether a payment may move from -> to
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
