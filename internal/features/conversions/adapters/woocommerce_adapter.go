package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"zbozi-konverze/internal/core/config"
	"zbozi-konverze/internal/core/logger"
	"zbozi-konverze/internal/features/conversions/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WooCommerceAdapter implements the OrderSource interface using the WooCommerce REST API.
type WooCommerceAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// config holds the WooCommerce connection details.
	config config.WooCommerceConfig
}

// NewWooCommerceAdapter creates a new instance of WooCommerceAdapter.
func NewWooCommerceAdapter(cfg config.WooCommerceConfig, client *http.Client) *WooCommerceAdapter {
	return &WooCommerceAdapter{
		client: client,
		config: cfg,
	}
}

// GetOrder fetches an order from WooCommerce and maps it to a conversion Order.
func (a *WooCommerceAdapter) GetOrder(orderID string) (*domain.Order, error) {
	url := fmt.Sprintf("%s/wp-json/wc/v3/orders/%s", strings.TrimRight(a.config.URL, "/"), orderID)

	req, err := a.newRequest(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("woocommerce API returned status: %d", resp.StatusCode)
	}

	var wcOrder woocommerceOrder
	if err := json.NewDecoder(resp.Body).Decode(&wcOrder); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	order := mapToDomain(wcOrder)
	logger.Get().Debug("Loaded WooCommerce order",
		zap.String("order_id", order.ID),
		zap.Int("line_items", len(order.CartItems)),
	)

	return order, nil
}

// HealthCheck verifies that the WooCommerce API is reachable and credentials are valid.
func (a *WooCommerceAdapter) HealthCheck() error {
	// per_page=1 is enough to verify auth and reachability
	url := fmt.Sprintf("%s/wp-json/wc/v3/orders?per_page=1", strings.TrimRight(a.config.URL, "/"))

	req, err := a.newRequest(url)
	if err != nil {
		return fmt.Errorf("health check failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}

	return nil
}

func (a *WooCommerceAdapter) newRequest(url string) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(a.config.ConsumerKey, a.config.ConsumerSecret)
	return req, nil
}

// mapToDomain converts a raw WooCommerce order into a conversion Order.
// Prices are reported including tax.
func mapToDomain(wcOrder woocommerceOrder) *domain.Order {
	id := wcOrder.Number
	if id == "" {
		id = strconv.Itoa(wcOrder.ID)
	}

	order := &domain.Order{
		ID:          id,
		Email:       wcOrder.Billing.Email,
		PaymentType: wcOrder.PaymentMethodTitle,
		TotalPrice:  decimal.NewNullDecimal(decimal.Decimal(wcOrder.Total)),
	}

	if len(wcOrder.ShippingLines) > 0 {
		order.DeliveryType = wcOrder.ShippingLines[0].MethodTitle
	}

	delivery := decimal.Decimal(wcOrder.ShippingTotal).Add(decimal.Decimal(wcOrder.ShippingTax))
	order.DeliveryPrice = decimal.NewNullDecimal(delivery)

	otherCosts := decimal.Zero
	for _, fee := range wcOrder.FeeLines {
		otherCosts = otherCosts.Add(decimal.Decimal(fee.Total)).Add(decimal.Decimal(fee.TotalTax))
	}
	order.OtherCosts = decimal.NewNullDecimal(otherCosts)

	order.CartItems = mapItems(wcOrder.LineItems)

	return order
}

// mapItems converts WooCommerce line items to cart items.
// The SKU is preferred as item ID since it matches the product feed.
func mapItems(wcItems []wcLineItem) []domain.CartItem {
	items := make([]domain.CartItem, 0, len(wcItems))

	for _, item := range wcItems {
		itemID := item.Sku
		if itemID == "" && item.ProductID != 0 {
			itemID = strconv.Itoa(item.ProductID)
		}

		quantity := decimal.NewFromInt(int64(item.Quantity))
		unitPrice := decimal.Decimal(item.Price)
		if !quantity.IsZero() {
			gross := decimal.Decimal(item.Total).Add(decimal.Decimal(item.TotalTax))
			if !gross.IsZero() {
				unitPrice = gross.Div(quantity).Round(2)
			}
		}

		items = append(items, domain.CartItem{
			ID:        itemID,
			Name:      item.Name,
			UnitPrice: decimal.NewNullDecimal(unitPrice),
			Quantity:  decimal.NewNullDecimal(quantity),
		})
	}

	return items
}

// internal structs for mapping

// woocommerceOrder represents the JSON structure of an order from WooCommerce API.
type woocommerceOrder struct {
	// ID is the unique order ID.
	ID int `json:"id"`
	// Number is the order number shown to the customer.
	Number string `json:"number"`
	// PaymentMethodTitle is the display name of the payment method.
	PaymentMethodTitle string `json:"payment_method_title"`
	// Total is the grand total including tax.
	Total wcAmount `json:"total"`
	// ShippingTotal is the shipping price without tax.
	ShippingTotal wcAmount `json:"shipping_total"`
	// ShippingTax is the tax on shipping.
	ShippingTax wcAmount `json:"shipping_tax"`
	// Billing holds the billing address details.
	Billing wcBilling `json:"billing"`
	// LineItems contains the products ordered.
	LineItems []wcLineItem `json:"line_items"`
	// FeeLines contains additional fees added to the order.
	FeeLines []wcFeeLine `json:"fee_lines"`
	// ShippingLines contains the chosen shipping methods.
	ShippingLines []wcShippingLine `json:"shipping_lines"`
}

// wcBilling holds billing address information.
type wcBilling struct {
	// Email is the customer's email address.
	Email string `json:"email"`
}

// wcLineItem represents a product in the WooCommerce order.
type wcLineItem struct {
	ProductID int      `json:"product_id"`
	Name      string   `json:"name"`
	Sku       string   `json:"sku"`
	Quantity  int      `json:"quantity"`
	Price     wcAmount `json:"price"`
	Total     wcAmount `json:"total"`
	TotalTax  wcAmount `json:"total_tax"`
}

// wcFeeLine represents a fee line item.
type wcFeeLine struct {
	Name     string   `json:"name"`
	Total    wcAmount `json:"total"`
	TotalTax wcAmount `json:"total_tax"`
}

// wcShippingLine represents a shipping method.
type wcShippingLine struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
}

// wcAmount handles WooCommerce money values, which arrive as strings ("12.50"),
// numbers, empty strings or null.
type wcAmount decimal.Decimal

// UnmarshalJSON parses a WooCommerce money value.
func (a *wcAmount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "" || s == "null" {
		*a = wcAmount(decimal.Zero)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	*a = wcAmount(d)
	return nil
}
