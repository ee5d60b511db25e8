package service

import (
	"fmt"

	"zbozi-konverze/internal/core/logger"
	"zbozi-konverze/internal/features/conversions/domain"
	"zbozi-konverze/internal/features/conversions/ports"

	"go.uber.org/zap"
)

// ConversionService handles reporting orders to the comparison service.
type ConversionService struct {
	// reporter delivers conversions to the remote endpoint.
	reporter ports.ConversionReporter
	// source loads orders by platform ID. May be nil.
	source ports.OrderSource
}

// NewConversionService creates a new instance of ConversionService.
// source is optional; without it ReportByID returns ErrSourceNotConfigured.
func NewConversionService(reporter ports.ConversionReporter, source ports.OrderSource) *ConversionService {
	return &ConversionService{
		reporter: reporter,
		source:   source,
	}
}

// Validate returns every problem that prevents the order from being reported.
func (s *ConversionService) Validate(order *domain.Order) []string {
	return s.reporter.Validate(order)
}

// Report sends the order once. Failures are returned as-is; nothing is retried.
func (s *ConversionService) Report(order *domain.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order is required", domain.ErrInvalidOrder)
	}

	if err := s.reporter.Send(order); err != nil {
		return fmt.Errorf("service: failed to report conversion %q: %w", order.ID, err)
	}

	logger.Get().Debug("Conversion accepted",
		zap.String("order_id", order.ID),
		zap.Int("cart_items", len(order.CartItems)),
	)

	return nil
}

// ReportByID loads the order from the configured source and reports it.
func (s *ConversionService) ReportByID(orderID string) (*domain.Order, error) {
	if s.source == nil {
		return nil, domain.ErrSourceNotConfigured
	}

	order, err := s.source.GetOrder(orderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load order %q: %w", orderID, err)
	}

	if order == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}

	if err := s.Report(order); err != nil {
		return nil, err
	}

	return order, nil
}
