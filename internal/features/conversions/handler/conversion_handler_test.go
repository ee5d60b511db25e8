package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zbozi-konverze/internal/features/conversions/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockConversionService is a mock implementation of ports.ConversionService.
type MockConversionService struct {
	mock.Mock
}

func (m *MockConversionService) Report(order *domain.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockConversionService) ReportByID(orderID string) (*domain.Order, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockConversionService) Validate(order *domain.Order) []string {
	args := m.Called(order)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func setupApp(service *MockConversionService) *fiber.App {
	app := fiber.New()
	handler := NewConversionHandler(service)
	app.Post("/conversions", handler.ReportConversion)
	app.Post("/conversions/validate", handler.ValidateConversion)
	app.Post("/conversions/woocommerce/:id", handler.ReportWooCommerceOrder)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

const fullRequest = `{
	"id": "2024-0042",
	"email": "jan@example.cz",
	"delivery_type": "PPL",
	"delivery_date": "2024-05-17",
	"delivery_price": 10,
	"payment_type": "card",
	"other_costs": 5.5,
	"cart": [
		{"id": "A1", "name": "Mug", "unit_price": 2, "quantity": 3},
		{"unit_price": "1.25", "quantity": 4}
	]
}`

func TestConversionHandler_ReportConversion(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockConversionService)
		app := setupApp(mockService)

		var got *domain.Order
		mockService.On("Report", mock.AnythingOfType("*domain.Order")).
			Run(func(args mock.Arguments) { got = args.Get(0).(*domain.Order) }).
			Return(nil).Once()

		resp, body := postJSON(t, app, "/conversions", fullRequest)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var out ReportResponse
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, "2024-0042", out.OrderID)

		require.NotNil(t, got)
		assert.Equal(t, "jan@example.cz", got.Email)
		assert.Equal(t, "PPL", got.DeliveryType)
		require.NotNil(t, got.DeliveryDate)
		assert.Equal(t, time.Date(2024, time.May, 17, 0, 0, 0, 0, time.UTC), *got.DeliveryDate)
		assert.Equal(t, "10", got.DeliveryPrice.Decimal.String())
		assert.Equal(t, "5.5", got.OtherCosts.Decimal.String())
		assert.False(t, got.TotalPrice.Valid)
		require.Len(t, got.CartItems, 2)
		assert.Equal(t, "Mug", got.CartItems[0].Name)
		assert.Equal(t, "1.25", got.CartItems[1].UnitPrice.Decimal.String())
		mockService.AssertExpectations(t)
	})

	t.Run("Invalid Order", func(t *testing.T) {
		mockService := new(MockConversionService)
		app := setupApp(mockService)

		mockService.On("Report", mock.Anything).
			Return(fmt.Errorf("%w: Missing order code", domain.ErrInvalidOrder)).Once()

		resp, body := postJSON(t, app, "/conversions", `{"email":"a@b.cz"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var out ErrorResponse
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Contains(t, out.Message, "Missing order code")
		assert.Equal(t, "unknown", out.RayID)
	})

	t.Run("Upstream Rejected", func(t *testing.T) {
		mockService := new(MockConversionService)
		app := setupApp(mockService)

		mockService.On("Report", mock.Anything).Return(&domain.StatusError{StatusCode: 500}).Once()

		resp, body := postJSON(t, app, "/conversions", `{"id":"1","email":"a@b.cz"}`)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Contains(t, string(body), "HTTP 500")
	})

	t.Run("Unexpected Error", func(t *testing.T) {
		mockService := new(MockConversionService)
		app := setupApp(mockService)

		mockService.On("Report", mock.Anything).Return(fmt.Errorf("boom")).Once()

		resp, _ := postJSON(t, app, "/conversions", `{"id":"1","email":"a@b.cz"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("Malformed Body", func(t *testing.T) {
		mockService := new(MockConversionService)
		app := setupApp(mockService)

		resp, body := postJSON(t, app, "/conversions", `{"id":`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body), "Invalid request body")
		mockService.AssertNotCalled(t, "Report", mock.Anything)
	})

	t.Run("Bad Delivery Date", func(t *testing.T) {
		mockService := new(MockConversionService)
		app := setupApp(mockService)

		resp, body := postJSON(t, app, "/conversions", `{"id":"1","email":"a@b.cz","delivery_date":"17.05.2024"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body), "YYYY-MM-DD")
		mockService.AssertNotCalled(t, "Report", mock.Anything)
	})
}

func TestConversionHandler_ValidateConversion(t *testing.T) {
	t.Run("Invalid", func(t *testing.T) {
		mockService := new(MockConversionService)
		app := setupApp(mockService)

		mockService.On("Validate", mock.Anything).
			Return([]string{"Missing order code", "Missing email address"}).Once()

		resp, body := postJSON(t, app, "/conversions/validate", `{}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"valid":false,"errors":["Missing order code","Missing email address"]}`, string(body))
		mockService.AssertNotCalled(t, "Report", mock.Anything)
	})

	t.Run("Valid", func(t *testing.T) {
		mockService := new(MockConversionService)
		app := setupApp(mockService)

		mockService.On("Validate", mock.Anything).Return(nil).Once()

		resp, body := postJSON(t, app, "/conversions/validate", `{"id":"1","email":"a@b.cz"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"valid":true,"errors":[]}`, string(body))
	})
}

func TestConversionHandler_ReportWooCommerceOrder(t *testing.T) {
	tests := []struct {
		name       string
		order      *domain.Order
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "Success",
			order:      &domain.Order{ID: "2024-0123", Email: "a@b.cz"},
			wantStatus: http.StatusOK,
			wantBody:   `"order_id":"2024-0123"`,
		},
		{
			name:       "Not Found",
			err:        fmt.Errorf("%w: 123", domain.ErrOrderNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   "order not found",
		},
		{
			name:       "Source Not Configured",
			err:        domain.ErrSourceNotConfigured,
			wantStatus: http.StatusNotImplemented,
			wantBody:   "order source not configured",
		},
		{
			name:       "Invalid Order",
			err:        fmt.Errorf("%w: Missing email address", domain.ErrInvalidOrder),
			wantStatus: http.StatusBadRequest,
			wantBody:   "Missing email address",
		},
		{
			name:       "Upstream Rejected",
			err:        &domain.StatusError{StatusCode: 403},
			wantStatus: http.StatusBadGateway,
			wantBody:   "HTTP 403",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockConversionService)
			app := setupApp(mockService)

			mockService.On("ReportByID", "123").Return(tt.order, tt.err).Once()

			req := httptest.NewRequest(http.MethodPost, "/conversions/woocommerce/123", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, string(body), tt.wantBody)
			mockService.AssertExpectations(t)
		})
	}
}
