package models

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Address is a delivery or pickup location; embedded with a column prefix
type Address struct {
	Street  string `gorm:"size:255" json:"street"`
	City    string `gorm:"size:100" json:"city"`
	State   string `gorm:"size:100" json:"state"`
	ZipCode string `gorm:"size:20" json:"zip_code"`
	Country string `gorm:"size:100" json:"country"`
	Phone   string `gorm:"size:32" json:"phone"`
}

// IsZero reports whether no address field is set
func (a Address) IsZero() bool {
	return a == Address{}
}

// CO2Order is a customer request to refill, exchange, buy or subscribe to CO2 cylinders
type CO2Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;size:16;not null" json:"order_number"`

	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"user"`

	OrderType      OrderType    `gorm:"size:20;not null" json:"order_type"`
	CylinderTypeID uint         `gorm:"not null;index" json:"cylinder_type_id"`
	CylinderType   CylinderType `gorm:"foreignKey:CylinderTypeID" json:"cylinder_type"`
	Quantity       int          `gorm:"not null;check:quantity > 0" json:"quantity"`

	// Subtotal and Total are derived in BeforeSave and never set by callers
	UnitPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	DeliveryCharge decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"delivery_charge"`
	Discount       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`

	DeliveryAddress      Address `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	PickupAddress        Address `gorm:"embedded;embeddedPrefix:pickup_" json:"pickup_address"`
	DeliveryInstructions string  `gorm:"type:text" json:"delivery_instructions"`

	PreferredPickupDate   *time.Time `json:"preferred_pickup_date"`
	PreferredDeliveryDate *time.Time `json:"preferred_delivery_date"`
	ActualPickupDate      *time.Time `json:"actual_pickup_date"`
	ActualDeliveryDate    *time.Time `json:"actual_delivery_date"`
	EstimatedPickupDate   *time.Time `json:"estimated_pickup_date"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`

	Status    OrderStatus    `gorm:"size:32;not null;default:'pending';index" json:"status"`
	Cylinders []CylinderUnit `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"cylinders"`

	PaymentMethod PaymentMethod `gorm:"size:32;not null;default:'cash_on_delivery'" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"size:32;not null;default:'pending'" json:"payment_status"`
	TransactionID string        `gorm:"size:128;index" json:"transaction_id,omitempty"`

	CustomerNotes string `gorm:"type:text" json:"customer_notes"`
	AdminNotes    string `gorm:"type:text" json:"admin_notes"`
	InternalNotes string `gorm:"type:text" json:"internal_notes,omitempty"`

	ProofImageKey *string `json:"proof_image_key,omitempty"`
	ProofImageURL *string `gorm:"-" json:"proof_image_url,omitempty"` // computed, storage URL for the proof photo

	// Version guards against two admins overwriting each other's update
	Version uint `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderAgeDays          int  `gorm:"-" json:"order_age"`
	EstimatedDeliveryDays *int `gorm:"-" json:"estimated_delivery_time"`
}

// TableName specifies the table name for the CO2Order model
func (CO2Order) TableName() string {
	return "co2_orders"
}

// CylinderUnit is one physical cylinder tracked inside an order
type CylinderUnit struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OrderID       uint           `gorm:"not null;index" json:"order_id"`
	CylinderID    string         `gorm:"size:64;not null;index" json:"cylinder_id"`
	Status        CylinderStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	PickupDate    *time.Time     `json:"pickup_date"`
	RefillDate    *time.Time     `json:"refill_date"`
	DeliveryDate  *time.Time     `json:"delivery_date"`
	PickupNotes   string         `gorm:"type:text" json:"pickup_notes"`
	RefillNotes   string         `gorm:"type:text" json:"refill_notes"`
	DeliveryNotes string         `gorm:"type:text" json:"delivery_notes"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName specifies the table name for the CylinderUnit model
func (CylinderUnit) TableName() string {
	return "co2_order_cylinders"
}

// OrderStatusHistory is the audit trail of status changes on an order
type OrderStatusHistory struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"not null;index" json:"order_id"`
	FromStatus OrderStatus `gorm:"size:32" json:"from_status"`
	ToStatus   OrderStatus `gorm:"size:32;not null" json:"to_status"`
	ChangedBy  *uint       `json:"changed_by"`
	Note       string      `gorm:"type:text" json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

// TableName specifies the table name for the OrderStatusHistory model
func (OrderStatusHistory) TableName() string {
	return "co2_order_status_history"
}

var orderNumberPattern = regexp.MustCompile(`^CO2\d{9}$`)

// orderNumberSuffix returns the random 3-digit tail; replaced in tests
var orderNumberSuffix = func() int { return rand.Intn(1000) }

// GenerateOrderNumber builds CO2<YY><MM><DD><3 random digits> for the given day
func GenerateOrderNumber(t time.Time) string {
	return fmt.Sprintf("CO2%s%03d", t.Format("060102"), orderNumberSuffix())
}

// ValidOrderNumber reports whether s has the CO2 order number shape
func ValidOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}

// Recalculate derives Subtotal and Total from the price inputs
func (o *CO2Order) Recalculate() {
	o.Subtotal = o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
	o.Total = o.Subtotal.Add(o.DeliveryCharge).Sub(o.Discount)
}

// BeforeSave assigns the order number once and keeps the totals derived
func (o *CO2Order) BeforeSave(tx *gorm.DB) error {
	if o.OrderNumber == "" {
		o.OrderNumber = GenerateOrderNumber(time.Now())
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	o.Recalculate()
	return nil
}

// AfterFind fills the read-only derived fields
func (o *CO2Order) AfterFind(tx *gorm.DB) error {
	o.FillDerived(time.Now())
	return nil
}

// FillDerived sets OrderAgeDays and EstimatedDeliveryDays relative to now
func (o *CO2Order) FillDerived(now time.Time) {
	o.OrderAgeDays = o.OrderAge(now)
	o.EstimatedDeliveryDays = o.EstimatedDeliveryTime(now)
}

// OrderAge is the number of whole days since the order was created
func (o *CO2Order) OrderAge(now time.Time) int {
	if o.CreatedAt.IsZero() {
		return 0
	}
	return int(math.Floor(now.Sub(o.CreatedAt).Hours() / 24))
}

// EstimatedDeliveryTime is the number of days until the estimated delivery, rounded up.
// It is nil when no estimate is set and negative once the estimate has passed.
func (o *CO2Order) EstimatedDeliveryTime(now time.Time) *int {
	if o.EstimatedDeliveryDate == nil {
		return nil
	}
	days := int(math.Ceil(o.EstimatedDeliveryDate.Sub(now).Hours() / 24))
	return &days
}

// Validate checks the commercial terms before the order is first stored
func (o *CO2Order) Validate() error {
	if o.Quantity < 1 {
		return &ValidationError{Field: "quantity", Message: "must be at least 1"}
	}
	if !o.OrderType.Valid() {
		return &ValidationError{Field: "order_type", Message: fmt.Sprintf("unknown order type %q", o.OrderType)}
	}
	if o.PaymentMethod != "" && !o.PaymentMethod.Valid() {
		return &ValidationError{Field: "payment_method", Message: fmt.Sprintf("unknown payment method %q", o.PaymentMethod)}
	}
	if o.UnitPrice.IsNegative() {
		return &ValidationError{Field: "unit_price", Message: "must not be negative"}
	}
	if o.DeliveryCharge.IsNegative() {
		return &ValidationError{Field: "delivery_charge", Message: "must not be negative"}
	}
	if o.Discount.IsNegative() {
		return &ValidationError{Field: "discount", Message: "must not be negative"}
	}
	gross := o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity))).Add(o.DeliveryCharge)
	if o.Discount.GreaterThan(gross) {
		return &ValidationError{Field: "discount", Message: "exceeds subtotal plus delivery charge"}
	}
	if len(o.Cylinders) > 0 && len(o.Cylinders) != o.Quantity {
		return &ValidationError{Field: "cylinders", Message: "count must match quantity"}
	}
	return nil
}

// ForCustomer returns a copy without back-office notes
func (o CO2Order) ForCustomer() CO2Order {
	o.InternalNotes = ""
	return o
}
