package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a single checkout reported as a conversion.
// Orders are built incrementally by the caller and are only validated on submission.
type Order struct {
	// ID is the merchant's order code.
	ID string `validate:"required"`
	// Email is the customer's email address.
	Email string `validate:"required"`
	// DeliveryType is the shop's name for the delivery method (e.g., "PPL", "Zásilkovna").
	DeliveryType string
	// DeliveryDate is the promised delivery day. Only the date part is reported.
	DeliveryDate *time.Time
	// DeliveryPrice is the price charged for delivery.
	DeliveryPrice decimal.NullDecimal
	// PaymentType is the shop's name for the payment method.
	PaymentType string
	// OtherCosts covers surcharges not attributable to items or delivery.
	OtherCosts decimal.NullDecimal
	// TotalPrice is the order total. When unset or zero it is derived from the other prices.
	TotalPrice decimal.NullDecimal
	// CartItems lists the purchased items in the order they were added.
	CartItems []CartItem
}

// CartItem represents one line of the order cart.
type CartItem struct {
	// ID is the shop's item identifier (ITEM_ID in the product feed).
	ID string
	// Name is the product name.
	Name string
	// UnitPrice is the price of a single unit.
	UnitPrice decimal.NullDecimal
	// Quantity is the number of units purchased.
	Quantity decimal.NullDecimal
}

// Amount returns a present numeric value.
func Amount(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

// AmountFromString parses a present numeric value such as "199.90".
func AmountFromString(s string) (decimal.NullDecimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// IsSet reports whether v is present and non-zero.
// Zero prices are treated the same as missing ones when reporting.
func IsSet(v decimal.NullDecimal) bool {
	return v.Valid && !v.Decimal.IsZero()
}

// ValueOrZero returns the value of v, or zero when absent.
func ValueOrZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}
