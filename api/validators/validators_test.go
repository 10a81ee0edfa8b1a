package validators

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vivaflower/storefront-backend/pkg/enums"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
)

type lineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type bodyRequest struct {
	Lines        []lineRequest   `json:"order_details" validate:"required,min=1,dive"`
	ShippingCost decimal.Decimal `json:"shipping_cost" validate:"gte=0"`
}

func TestDecodeJSONBodyReportsNestedFieldPaths(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(
		`{"order_details":[{"product_id":"8b0f4c4e-3d5e-4a0f-9f4f-1a2b3c4d5e6f","quantity":0}],"shipping_cost":"-1"}`))

	err := DecodeJSONBody(req, &bodyRequest{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "must be greater than 0", details["order_details[0].quantity"])
	require.Equal(t, "must be greater than or equal to 0", details["shipping_cost"])
}

func TestDecodeJSONBodyRejectsEmptyLines(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"order_details":[],"shipping_cost":"0"}`))
	err := DecodeJSONBody(req, &bodyRequest{})
	details := pkgerrors.As(err).Details().(map[string]string)
	require.Equal(t, "must contain at least 1 item(s)", details["order_details"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"nope":1}`))
	err := DecodeJSONBody(req, &bodyRequest{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, "invalid request body", pkgerrors.As(err).Message())
}

func TestParseQueryDate(t *testing.T) {
	req := httptest.NewRequest("GET", "/?start_date=2024-02-29&end_date=2024-13-01", nil)

	start, err := ParseQueryDate(req, "start_date")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), *start)

	_, err = ParseQueryDate(req, "end_date")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Contains(t, err.Error(), "end_date")

	missing, err := ParseQueryDate(req, "other")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestParsePageIsLenient(t *testing.T) {
	req := httptest.NewRequest("GET", "/?page_index=two&page_size=5", nil)
	page := ParsePage(req)
	require.Equal(t, 1, page.PageIndex)
	require.Equal(t, 5, page.PageSize)
}

func TestParseQueryEnum(t *testing.T) {
	req := httptest.NewRequest("GET", "/?order_status=shipped&payment_status=maybe", nil)

	status, err := ParseQueryEnum(req, "order_status", enums.ParseOrderStatus)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusShipped, *status)

	_, err = ParseQueryEnum(req, "payment_status", enums.ParsePaymentStatus)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryUUID(t *testing.T) {
	req := httptest.NewRequest("GET", "/?store_id=bad", nil)
	_, err := ParseQueryUUID(req, "store_id")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	require.Equal(t, "abcdef", SanitizeString("abcdef", 0))

	name := strings.Repeat("é", 300)
	cut := SanitizeString(name, 255)
	require.True(t, utf8.ValidString(cut))
	require.Equal(t, 255, utf8.RuneCountInString(cut))
	require.Equal(t, "Nguy\u1ec5n", SanitizeString(" Nguy\u1ec5n V\u0103n ", 6))
}
