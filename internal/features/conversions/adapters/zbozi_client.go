package adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"zbozi-konverze/internal/core/httpclient"
	"zbozi-konverze/internal/core/logger"
	"zbozi-konverze/internal/features/conversions/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	productionHost = "www.zbozi.cz"
	sandboxHost    = "sandbox.zbozi.cz"

	deliveryDateLayout = "2006-01-02"
)

// validationMessages maps required Order fields to the messages reported for them.
var validationMessages = map[string]string{
	"ID":    "Missing order code",
	"Email": "Missing email address",
}

// ZboziClient implements the ConversionReporter interface for the Zbozi.cz conversion endpoint.
// It is immutable after construction and safe for concurrent use.
type ZboziClient struct {
	// shopID identifies the shop in the endpoint path.
	shopID string
	// privateKey is the shared secret sent in the request body. Never logged.
	privateKey string
	// sandbox selects the sandbox host.
	sandbox bool
	// client is the transport used by Send.
	client *http.Client
	// validate checks the required order fields.
	validate *validator.Validate
}

// Option configures a ZboziClient.
type Option func(*ZboziClient)

// WithSandbox routes conversions to the sandbox host.
func WithSandbox(sandbox bool) Option {
	return func(c *ZboziClient) {
		c.sandbox = sandbox
	}
}

// WithHTTPClient sets the transport used by Send.
func WithHTTPClient(client *http.Client) Option {
	return func(c *ZboziClient) {
		if client != nil {
			c.client = client
		}
	}
}

// NewZboziClient creates a new instance of ZboziClient.
func NewZboziClient(shopID, privateKey string, opts ...Option) (*ZboziClient, error) {
	if shopID == "" {
		return nil, fmt.Errorf("%w: Missing \"shopId\"", domain.ErrInvalidArgument)
	}
	if privateKey == "" {
		return nil, fmt.Errorf("%w: Missing \"privateKey\"", domain.ErrInvalidArgument)
	}

	c := &ZboziClient{
		shopID:     shopID,
		privateKey: privateKey,
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = httpclient.NewClient(httpclient.Options{})
	}

	return c, nil
}

// IsSandbox reports whether conversions go to the sandbox host.
func (c *ZboziClient) IsSandbox() bool {
	return c.sandbox
}

// String describes the client without its private key.
func (c *ZboziClient) String() string {
	return fmt.Sprintf("ZboziClient{shopID: %s, sandbox: %t}", c.shopID, c.sandbox)
}

// GoString keeps %#v from printing the private key.
func (c *ZboziClient) GoString() string {
	return c.String()
}

// URL returns the conversion endpoint for the shop.
func (c *ZboziClient) URL() string {
	host := productionHost
	if c.sandbox {
		host = sandboxHost
	}
	return fmt.Sprintf("https://%s/action/%s/conversion/backend", host, c.shopID)
}

// Validate returns the reasons the order cannot be reported.
// The order code is always checked before the email address.
func (c *ZboziClient) Validate(order *domain.Order) []string {
	if order == nil {
		order = &domain.Order{}
	}

	err := c.validate.Struct(order)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if msg, ok := validationMessages[fe.StructField()]; ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

// Request describes the HTTP call that reports one conversion.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// HTTPRequest converts the descriptor into an *http.Request.
func (r *Request) HTTPRequest() (*http.Request, error) {
	req, err := http.NewRequest(r.Method, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()
	return req, nil
}

// BuildRequest validates the order and builds the conversion request.
// Only the first validation message is returned; call Validate for all of them.
func (c *ZboziClient) BuildRequest(order *domain.Order) (*Request, error) {
	if errs := c.Validate(order); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidOrder, errs[0])
	}

	body, err := json.Marshal(c.newPayload(order))
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversion: %w", err)
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &Request{
		Method: http.MethodPost,
		URL:    c.URL(),
		Header: header,
		Body:   body,
	}, nil
}

// Send reports the order to Zbozi.cz.
// Any status other than 200 is a failure; the response body is discarded.
func (c *ZboziClient) Send(order *domain.Order) error {
	r, err := c.BuildRequest(order)
	if err != nil {
		return err
	}

	req, err := r.HTTPRequest()
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Get().Error("Conversion delivery failed",
			zap.String("shop_id", c.shopID),
			zap.String("order_id", order.ID),
			zap.Bool("sandbox", c.sandbox),
			zap.Error(err),
		)
		return fmt.Errorf("%w: unable to establish connection to conversion service: %w", domain.ErrIO, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		logger.Get().Warn("Conversion rejected",
			zap.String("shop_id", c.shopID),
			zap.String("order_id", order.ID),
			zap.Int("status_code", resp.StatusCode),
		)
		return &domain.StatusError{StatusCode: resp.StatusCode}
	}

	logger.Get().Info("Conversion reported",
		zap.String("shop_id", c.shopID),
		zap.String("order_id", order.ID),
		zap.Bool("sandbox", c.sandbox),
	)

	return nil
}

// newPayload maps a validated order to the wire structure.
func (c *ZboziClient) newPayload(order *domain.Order) conversionPayload {
	p := conversionPayload{
		PrivateKey:   c.privateKey,
		Sandbox:      c.sandbox,
		OrderID:      order.ID,
		Email:        order.Email,
		DeliveryType: order.DeliveryType,
		PaymentType:  order.PaymentType,
		TotalPrice:   json.Number(totalPrice(order).String()),
	}

	if order.DeliveryDate != nil && !order.DeliveryDate.IsZero() {
		p.DeliveryDate = order.DeliveryDate.Format(deliveryDateLayout)
	}
	if domain.IsSet(order.DeliveryPrice) {
		p.DeliveryPrice = json.Number(order.DeliveryPrice.Decimal.String())
	}
	if domain.IsSet(order.OtherCosts) {
		p.OtherCosts = json.Number(order.OtherCosts.Decimal.String())
	}

	// Cart lines keep the caller's order.
	if len(order.CartItems) > 0 {
		p.Cart = make([]cartItemPayload, 0, len(order.CartItems))
		for _, item := range order.CartItems {
			line := cartItemPayload{
				ItemID:      item.ID,
				ProductName: item.Name,
			}
			if domain.IsSet(item.UnitPrice) {
				line.UnitPrice = json.Number(item.UnitPrice.Decimal.String())
			}
			if domain.IsSet(item.Quantity) {
				line.Quantity = json.Number(item.Quantity.Decimal.String())
			}
			p.Cart = append(p.Cart, line)
		}
	}

	return p
}

// totalPrice returns the explicit order total, or derives it from delivery, other costs and the cart.
func totalPrice(order *domain.Order) decimal.Decimal {
	if domain.IsSet(order.TotalPrice) {
		return order.TotalPrice.Decimal
	}

	total := domain.ValueOrZero(order.DeliveryPrice).Add(domain.ValueOrZero(order.OtherCosts))
	for _, item := range order.CartItems {
		total = total.Add(domain.ValueOrZero(item.UnitPrice).Mul(domain.ValueOrZero(item.Quantity)))
	}
	return total
}

// internal structs for the wire format; field order is the key order on the wire.

// conversionPayload is the JSON body expected by the conversion endpoint.
type conversionPayload struct {
	PrivateKey    string            `json:"PRIVATE_KEY"`
	Sandbox       bool              `json:"sandbox"`
	OrderID       string            `json:"orderId"`
	Email         string            `json:"email"`
	DeliveryType  string            `json:"deliveryType,omitempty"`
	DeliveryDate  string            `json:"deliveryDate,omitempty"`
	DeliveryPrice json.Number       `json:"deliveryPrice,omitempty"`
	PaymentType   string            `json:"paymentType,omitempty"`
	OtherCosts    json.Number       `json:"otherCosts,omitempty"`
	TotalPrice    json.Number       `json:"totalPrice"`
	Cart          []cartItemPayload `json:"cart,omitempty"`
}

// cartItemPayload is one entry of the cart array.
type cartItemPayload struct {
	ItemID      string      `json:"itemId,omitempty"`
	ProductName string      `json:"productName,omitempty"`
	UnitPrice   json.Number `json:"unitPrice,omitempty"`
	Quantity    json.Number `json:"quantity,omitempty"`
}
