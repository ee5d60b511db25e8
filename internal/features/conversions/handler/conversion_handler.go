package handler

import (
	"errors"
	"net/http"
	"time"

	"zbozi-konverze/internal/core/logger"
	"zbozi-konverze/internal/features/conversions/domain"
	"zbozi-konverze/internal/features/conversions/ports"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ConversionHandler handles HTTP requests related to conversions.
type ConversionHandler struct {
	service ports.ConversionService
}

// NewConversionHandler creates a new instance of ConversionHandler.
func NewConversionHandler(s ports.ConversionService) *ConversionHandler {
	return &ConversionHandler{
		service: s,
	}
}

// ConversionRequest is the order submitted by the shop backend.
type ConversionRequest struct {
	ID            string              `json:"id"`
	Email         string              `json:"email"`
	DeliveryType  string              `json:"delivery_type"`
	DeliveryDate  string              `json:"delivery_date"` // YYYY-MM-DD
	DeliveryPrice decimal.NullDecimal `json:"delivery_price" swaggertype:"number"`
	PaymentType   string              `json:"payment_type"`
	OtherCosts    decimal.NullDecimal `json:"other_costs" swaggertype:"number"`
	TotalPrice    decimal.NullDecimal `json:"total_price" swaggertype:"number"`
	Cart          []CartItemRequest   `json:"cart"`
}

// CartItemRequest is one cart line of a ConversionRequest.
type CartItemRequest struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	UnitPrice decimal.NullDecimal `json:"unit_price" swaggertype:"number"`
	Quantity  decimal.NullDecimal `json:"quantity" swaggertype:"number"`
}

// toDomain maps the request body to a domain Order.
func (r ConversionRequest) toDomain() (*domain.Order, error) {
	order := &domain.Order{
		ID:            r.ID,
		Email:         r.Email,
		DeliveryType:  r.DeliveryType,
		DeliveryPrice: r.DeliveryPrice,
		PaymentType:   r.PaymentType,
		OtherCosts:    r.OtherCosts,
		TotalPrice:    r.TotalPrice,
	}

	if r.DeliveryDate != "" {
		d, err := time.Parse(dateLayout, r.DeliveryDate)
		if err != nil {
			return nil, errors.New("delivery_date must be in YYYY-MM-DD format")
		}
		order.DeliveryDate = &d
	}

	for _, item := range r.Cart {
		order.CartItems = append(order.CartItems, domain.CartItem{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	return order, nil
}

// ReportConversion handles POST /conversions.
// @Summary Report a conversion
// @Description Validates the order and reports it to the Zbozi.cz conversion endpoint.
// @Tags Conversions
// @Accept json
// @Produce json
// @Param order body ConversionRequest true "Order details"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /conversions [post]
func (h *ConversionHandler) ReportConversion(c *fiber.Ctx) error {
	rayID := requestID(c)

	order, err := parseOrder(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID,
		})
	}

	if err := h.service.Report(order); err != nil {
		logger.Get().Error("Failed to report conversion",
			zap.String("order_id", order.ID),
			zap.String("ray_id", rayID),
			zap.Error(err),
		)

		return c.Status(statusFor(err)).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID,
		})
	}

	return c.Status(http.StatusOK).JSON(ReportResponse{
		Message: "Conversion reported",
		OrderID: order.ID,
	})
}

// ReportWooCommerceOrder handles POST /conversions/woocommerce/:id.
// @Summary Report a WooCommerce order
// @Description Loads the order from the configured WooCommerce store and reports it as a conversion.
// @Tags Conversions
// @Produce json
// @Param id path string true "WooCommerce Order ID"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 501 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /conversions/woocommerce/{id} [post]
func (h *ConversionHandler) ReportWooCommerceOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	rayID := requestID(c)

	if orderID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Order ID is required",
			RayID:   rayID,
		})
	}

	order, err := h.service.ReportByID(orderID)
	if err != nil {
		logger.Get().Error("Failed to report WooCommerce order",
			zap.String("wc_order_id", orderID),
			zap.String("ray_id", rayID),
			zap.Error(err),
		)

		return c.Status(statusFor(err)).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID,
		})
	}

	return c.Status(http.StatusOK).JSON(ReportResponse{
		Message: "Conversion reported",
		OrderID: order.ID,
	})
}

// ValidateConversion handles POST /conversions/validate.
// @Summary Validate a conversion
// @Description Returns every problem that would prevent the order from being reported. Nothing is sent.
// @Tags Conversions
// @Accept json
// @Produce json
// @Param order body ConversionRequest true "Order details"
// @Success 200 {object} ValidationResponse
// @Failure 400 {object} ErrorResponse
// @Router /conversions/validate [post]
func (h *ConversionHandler) ValidateConversion(c *fiber.Ctx) error {
	order, err := parseOrder(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   requestID(c),
		})
	}

	errs := h.service.Validate(order)
	if errs == nil {
		errs = []string{}
	}

	return c.Status(http.StatusOK).JSON(ValidationResponse{
		Valid:  len(errs) == 0,
		Errors: errs,
	})
}

// statusFor maps service errors to response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSourceNotConfigured):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrIO):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseOrder(c *fiber.Ctx) (*domain.Order, error) {
	var req ConversionRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, errors.New("Invalid request body")
	}
	return req.toDomain()
}

func requestID(c *fiber.Ctx) string {
	rayID, ok := c.Locals("requestid").(string)
	if !ok {
		return "unknown"
	}
	return rayID
}

// ReportResponse is returned when the conversion was accepted.
type ReportResponse struct {
	Message string `json:"message"`
	OrderID string `json:"order_id"`
}

// ValidationResponse lists validation problems in the order they were found.
type ValidationResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for debugging.
	RayID string `json:"ray_id"`
}
