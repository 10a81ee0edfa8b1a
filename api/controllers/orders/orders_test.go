package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vivaflower/storefront-backend/api/middleware"
	internalorders "github.com/vivaflower/storefront-backend/internal/orders"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
	"github.com/vivaflower/storefront-backend/pkg/types"
)

type stubOrdersService struct {
	createInput internalorders.CreateOrderInput
	cancelInput internalorders.CancelOrderInput
	statusInput internalorders.UpdateStatusInput
	payInput    internalorders.UpdatePaymentStatusInput
	listInput   internalorders.ListOrdersInput
	getActor    internalorders.Actor
	getID       uuid.UUID
	err         error
}

func (s *stubOrdersService) Create(_ context.Context, input internalorders.CreateOrderInput) (*internalorders.CreateOrderResult, error) {
	s.createInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.CreateOrderResult{Order: internalorders.OrderDTO{ID: uuid.New(), OrderStatus: enums.OrderStatusPending}}, nil
}

func (s *stubOrdersService) Cancel(_ context.Context, input internalorders.CancelOrderInput) (*internalorders.OrderDTO, error) {
	s.cancelInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: input.OrderID, OrderStatus: enums.OrderStatusCancelled}, nil
}

func (s *stubOrdersService) UpdateStatus(_ context.Context, input internalorders.UpdateStatusInput) (*internalorders.OrderDTO, error) {
	s.statusInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: input.OrderID}, nil
}

func (s *stubOrdersService) UpdatePaymentStatus(_ context.Context, input internalorders.UpdatePaymentStatusInput) (*internalorders.OrderDTO, error) {
	s.payInput = input
	return &internalorders.OrderDTO{ID: input.OrderID}, s.err
}

func (s *stubOrdersService) PaymentCallback(context.Context, internalorders.PaymentCallbackInput) (*internalorders.OrderDTO, error) {
	panic("not used")
}

func (s *stubOrdersService) Get(_ context.Context, actor internalorders.Actor, id uuid.UUID) (*internalorders.OrderDTO, error) {
	s.getActor = actor
	s.getID = id
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: id}, nil
}

func (s *stubOrdersService) List(_ context.Context, input internalorders.ListOrdersInput) (*pagination.Page[internalorders.OrderDTO], error) {
	s.listInput = input
	page := pagination.NewPage(input.Page.Resolve(0), []internalorders.OrderDTO{})
	return &page, s.err
}

func asActor(req *http.Request, id uuid.UUID, role enums.ActorRole) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), id, role))
}

func TestCreateMapsPayloadAndDefaultsGuest(t *testing.T) {
	svc := &stubOrdersService{}
	guestID := uuid.New()
	productID, storeID := uuid.New(), uuid.New()
	body := `{
		"order_details": [{"product_id": "` + productID.String() + `", "store_id": "` + storeID.String() + `", "quantity": 2}],
		"payment_method": "cash_on_delivery",
		"shipping_cost": "5.00",
		"gst_amount": 1.5,
		"recipient_name": "Lan"
	}`
	req := asActor(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), guestID, enums.ActorRoleGuest)
	resp := httptest.NewRecorder()

	Create(svc, logger.Nop()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, guestID, svc.createInput.GuestID)
	require.Equal(t, guestID, svc.createInput.Actor.ID)
	require.Len(t, svc.createInput.Lines, 1)
	require.Equal(t, 2, svc.createInput.Lines[0].Quantity)
	require.True(t, decimal.RequireFromString("5").Equal(svc.createInput.ShippingCost))
	require.True(t, decimal.RequireFromString("1.5").Equal(svc.createInput.GSTAmount))
	require.Equal(t, enums.PaymentMethodCashOnDelivery, svc.createInput.PaymentMethod)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	tests := map[string]string{
		"empty lines":      `{"order_details": []}`,
		"zero quantity":    `{"order_details": [{"product_id": "` + uuid.NewString() + `", "store_id": "` + uuid.NewString() + `", "quantity": 0}]}`,
		"negative cost":    `{"order_details": [{"product_id": "` + uuid.NewString() + `", "store_id": "` + uuid.NewString() + `", "quantity": 1}], "shipping_cost": -1}`,
		"unknown field":    `{"order_details": [], "coupon": "FREE"}`,
		"bad payment type": `{"order_details": [{"product_id": "` + uuid.NewString() + `", "store_id": "` + uuid.NewString() + `", "quantity": 1}], "payment_method": "card"}`,
		"gst scale":        `{"order_details": [{"product_id": "` + uuid.NewString() + `", "store_id": "` + uuid.NewString() + `", "quantity": 1}], "gst_amount": 0.12345}`,
		"gst overflow":     `{"order_details": [{"product_id": "` + uuid.NewString() + `", "store_id": "` + uuid.NewString() + `", "quantity": 1}], "gst_amount": 10000}`,
		"shipping scale":   `{"order_details": [{"product_id": "` + uuid.NewString() + `", "store_id": "` + uuid.NewString() + `", "quantity": 1}], "shipping_cost": "1.005"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &stubOrdersService{}
			req := asActor(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), uuid.New(), enums.ActorRoleGuest)
			resp := httptest.NewRecorder()
			Create(svc, logger.Nop()).ServeHTTP(resp, req)

			require.Equal(t, http.StatusBadRequest, resp.Code)
			var envelope types.ErrorEnvelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
			require.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
			require.Nil(t, svc.createInput.Lines)
		})
	}
}

func TestCreateAcceptsFourPlaceGST(t *testing.T) {
	svc := &stubOrdersService{}
	body := `{"order_details": [{"product_id": "` + uuid.NewString() + `", "store_id": "` + uuid.NewString() + `", "quantity": 1}], "gst_amount": "9999.9999"}`
	req := asActor(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), uuid.New(), enums.ActorRoleGuest)
	resp := httptest.NewRecorder()

	Create(svc, logger.Nop()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.True(t, decimal.RequireFromString("9999.9999").Equal(svc.createInput.GSTAmount))
}

func TestCreateKeepsMultibyteNamesIntact(t *testing.T) {
	svc := &stubOrdersService{}
	name := strings.Repeat("\u00e9", 200)
	address := "  " + strings.Repeat("\u0110\u01b0\u1eddng ", 83)
	payload, err := json.Marshal(map[string]any{
		"order_details": []map[string]any{{
			"product_id": uuid.NewString(),
			"store_id":   uuid.NewString(),
			"quantity":   1,
		}},
		"recipient_name":   name,
		"shipping_address": address,
	})
	require.NoError(t, err)
	req := asActor(httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(payload)), uuid.New(), enums.ActorRoleGuest)
	resp := httptest.NewRecorder()

	Create(svc, logger.Nop()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, name, svc.createInput.RecipientName)
	require.Equal(t, 200, utf8.RuneCountInString(svc.createInput.RecipientName))
	require.Equal(t, strings.TrimSpace(address), svc.createInput.ShippingAddress)
	require.True(t, utf8.ValidString(svc.createInput.ShippingAddress))
}

func TestCancelPassesActorAndOrder(t *testing.T) {
	svc := &stubOrdersService{}
	guestID, orderID := uuid.New(), uuid.New()
	req := asActor(httptest.NewRequest(http.MethodPut, "/api/v1/orders/cancel", strings.NewReader(`{"order_id":"`+orderID.String()+`"}`)), guestID, enums.ActorRoleGuest)
	resp := httptest.NewRecorder()

	Cancel(svc, logger.Nop()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, orderID, svc.cancelInput.OrderID)
	require.Equal(t, guestID, svc.cancelInput.Actor.ID)
}

func TestUpdateStatusSurfacesServiceErrors(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeInvalidStateTransition, "Cannot change status from delivered to pending")}
	orderID := uuid.New()
	body := `{"order_id":"` + orderID.String() + `","order_status":"pending"}`
	req := asActor(httptest.NewRequest(http.MethodPut, "/api/admin/v1/orders/status", strings.NewReader(body)), uuid.New(), enums.ActorRoleAdmin)
	resp := httptest.NewRecorder()

	UpdateStatus(svc, logger.Nop()).ServeHTTP(resp, req)

	require.Equal(t, pkgerrors.MetadataFor(pkgerrors.CodeInvalidStateTransition).HTTPStatus, resp.Code)
	require.Equal(t, "pending", svc.statusInput.Status)
	require.Equal(t, enums.ActorRoleAdmin, svc.statusInput.Actor.Role)
}

func TestUpdatePaymentStatusRequiresFields(t *testing.T) {
	svc := &stubOrdersService{}
	req := asActor(httptest.NewRequest(http.MethodPut, "/api/admin/v1/orders/payment-status", strings.NewReader(`{"order_id":"`+uuid.NewString()+`"}`)), uuid.New(), enums.ActorRoleAdmin)
	resp := httptest.NewRecorder()

	UpdatePaymentStatus(svc, logger.Nop()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListParsesFilters(t *testing.T) {
	svc := &stubOrdersService{}
	guestID := uuid.New()
	url := "/api/admin/v1/orders?guest_id=" + guestID.String() +
		"&order_status=shipped&payment_method=e_wallet&payment_status=paid&start_date=2024-01-01&end_date=2024-01-31&page_index=2&page_size=5"
	req := asActor(httptest.NewRequest(http.MethodGet, url, nil), uuid.New(), enums.ActorRoleAdmin)
	resp := httptest.NewRecorder()

	List(svc, logger.Nop()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	filter := svc.listInput.Filter
	require.Equal(t, guestID, *filter.GuestID)
	require.Equal(t, enums.OrderStatusShipped, *filter.OrderStatus)
	require.Equal(t, enums.PaymentMethodEWallet, *filter.PaymentMethod)
	require.Equal(t, enums.PaymentStatusPaid, *filter.PaymentStatus)
	require.Equal(t, "2024-01-01", filter.Dates.From.Format("2006-01-02"))
	require.Equal(t, "2024-01-31", filter.Dates.To.Format("2006-01-02"))
	require.Equal(t, pagination.Params{PageIndex: 2, PageSize: 5}, svc.listInput.Page)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	req := asActor(httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?order_status=lost", nil), uuid.New(), enums.ActorRoleAdmin)
	resp := httptest.NewRecorder()

	List(svc, logger.Nop()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDetailParsesRouteParam(t *testing.T) {
	svc := &stubOrdersService{}
	orderID := uuid.New()
	router := chi.NewRouter()
	router.Get("/api/v1/orders/{orderId}", Detail(svc, logger.Nop()))

	req := asActor(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil), uuid.New(), enums.ActorRoleGuest)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, orderID, svc.getID)

	req = asActor(httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil), uuid.New(), enums.ActorRoleGuest)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
