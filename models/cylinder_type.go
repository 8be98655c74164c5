package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CylinderType is a catalog entry for a CO2 cylinder size with its SAR prices
type CylinderType struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Name              string          `gorm:"not null" json:"name"`
	Slug              string          `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	CapacityGrams     int             `gorm:"not null" json:"capacity_grams"`
	RefillPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"refill_price"`
	ExchangePrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"exchange_price"`
	NewPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"new_price"`
	SubscriptionPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subscription_price"`
	Active            bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the CylinderType model
func (CylinderType) TableName() string {
	return "cylinder_types"
}

// PriceFor returns the unit price charged for an order of the given type
func (ct CylinderType) PriceFor(t OrderType) (decimal.Decimal, error) {
	switch t {
	case OrderTypeRefill:
		return ct.RefillPrice, nil
	case OrderTypeExchange:
		return ct.ExchangePrice, nil
	case OrderTypeNew:
		return ct.NewPrice, nil
	case OrderTypeSubscription:
		return ct.SubscriptionPrice, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownOrderType, t)
	}
}
