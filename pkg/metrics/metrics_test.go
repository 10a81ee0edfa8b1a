package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsLabelsByRoutePattern(t *testing.T) {
	reg := NewRegistry()
	m := NewHTTPMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/v1/orders/{orderId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	mfs, err := reg.Gather()
	require.NoError(t, err)
	got, err := fetchCounterValue(mfs, "vivaflower_http_requests_total", "route", "/api/v1/orders/{orderId}")
	require.NoError(t, err)
	require.EqualValues(t, 2, got)
}

func TestOutboxAndOrderCounters(t *testing.T) {
	reg := NewRegistry()
	outbox := NewOutboxMetrics(reg)
	orders := NewOrderMetrics(reg)

	outbox.IncPublished("order_placed")
	outbox.IncPublished("order_placed")
	outbox.IncDeadLettered("")
	orders.IncTransition("pending", "confirmed")
	orders.IncRejected("update_status", "INSUFFICIENT_STOCK")
	orders.IncCreated()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	v, err := fetchCounterValue(mfs, "vivaflower_outbox_published_total", "event_type", "order_placed")
	require.NoError(t, err)
	require.EqualValues(t, 2, v)

	v, err = fetchCounterValue(mfs, "vivaflower_outbox_dead_lettered_total", "event_type", "unknown")
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	v, err = fetchCounterValue(mfs, "vivaflower_orders_transitions_total", "to", "confirmed")
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	v, err = fetchCounterValue(mfs, "vivaflower_orders_rejections_total", "code", "INSUFFICIENT_STOCK")
	require.NoError(t, err)
	require.EqualValues(t, 1, v)
}

func TestInventoryMetricsResetsDriftBetweenAudits(t *testing.T) {
	reg := NewRegistry()
	m := NewInventoryMetrics(reg)

	m.RecordAudit(3, []StockDrift{{ProductID: "p1", StoreID: "s1", Delta: -2}})
	m.RecordAudit(3, nil)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	drift := findMetricFamily(mfs, "vivaflower_inventory_stock_drift")
	if drift != nil {
		require.Empty(t, drift.GetMetric())
	}
	rows := findMetricFamily(mfs, "vivaflower_inventory_audited_rows")
	require.NotNil(t, rows)
	require.EqualValues(t, 3, rows.GetMetric()[0].GetGauge().GetValue())
}

func TestNilRegistererIsSafe(t *testing.T) {
	NewCronJobMetrics(nil).IncSuccess("job")
	NewOutboxMetrics(nil).IncFailed("x")
	NewOrderMetrics(nil).IncCreated()
	NewInventoryMetrics(nil).RecordAudit(1, nil)
	h := NewHTTPMetrics(nil)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	require.NotNil(t, h.Middleware(next))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := NewRegistry()
	NewOrderMetrics(reg).IncCreated()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	require.True(t, strings.Contains(string(body), "vivaflower_orders_created_total 1"))
}
