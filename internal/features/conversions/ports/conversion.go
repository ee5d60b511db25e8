package ports

import "zbozi-konverze/internal/features/conversions/domain"

// ConversionReporter defines the interface for delivering conversions to a comparison service.
// This is a Secondary Port (Driven Port).
type ConversionReporter interface {
	// Validate returns the problems that prevent the order from being reported, in a fixed order.
	Validate(order *domain.Order) []string
	// Send reports the order. It returns ErrInvalidOrder or ErrIO from the domain package.
	Send(order *domain.Order) error
}

// ConversionService defines the primary port for conversion operations.
type ConversionService interface {
	Report(order *domain.Order) error
	ReportByID(orderID string) (*domain.Order, error)
	Validate(order *domain.Order) []string
}

// OrderSource defines the interface for loading orders from a shop platform.
// This is a Secondary Port (Driven Port).
type OrderSource interface {
	// GetOrder retrieves an order by its platform identifier (e.g., WooCommerce Order ID).
	GetOrder(orderID string) (*domain.Order, error)
}
