package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivaflower/storefront-backend/internal/analytics/writer"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/outbox"
	"github.com/vivaflower/storefront-backend/pkg/outbox/payloads"
)

type recordingInserter struct {
	rows []any
	err  error
}

func (r *recordingInserter) InsertRows(_ context.Context, _ string, rows []any) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, rows...)
	return nil
}

type memoryIdempotency struct {
	seen map[uuid.UUID]bool
}

func (m *memoryIdempotency) CheckAndMarkProcessed(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	if m.seen[eventID] {
		return true, nil
	}
	m.seen[eventID] = true
	return false, nil
}

func (m *memoryIdempotency) Delete(_ context.Context, _ string, eventID uuid.UUID) error {
	delete(m.seen, eventID)
	return nil
}

func newConsumer(t *testing.T, inserter *recordingInserter) (*Consumer, *memoryIdempotency) {
	t.Helper()
	w, err := writer.New(inserter, writer.Config{
		SalesTable:  "product_sales",
		RetryPolicy: writer.RetryPolicy{MaxAttempts: 1},
	})
	require.NoError(t, err)
	idem := &memoryIdempotency{seen: map[uuid.UUID]bool{}}
	c, err := NewConsumer(w, idem, logger.Nop())
	require.NoError(t, err)
	return c, idem
}

func deliveredEnvelope(t *testing.T, status enums.OrderStatus, sales ...payloads.SaleFact) outbox.PayloadEnvelope {
	t.Helper()
	guest := uuid.New()
	raw, err := json.Marshal(payloads.OrderStatusChangedEvent{
		OrderID:        uuid.New(),
		GuestID:        &guest,
		PreviousStatus: enums.OrderStatusShipped,
		Status:         status,
		ChangedAt:      time.Now().UTC(),
		Sales:          sales,
	})
	require.NoError(t, err)
	return outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), Data: raw}
}

func sale(price string, qty int) payloads.SaleFact {
	return payloads.SaleFact{
		SaleID:        uuid.New(),
		OrderDetailID: uuid.New(),
		ProductID:     uuid.New(),
		StoreID:       uuid.New(),
		SalePrice:     decimal.RequireFromString(price),
		QuantitySold:  qty,
		VAT:           decimal.RequireFromString("0.1"),
		ShippingCost:  decimal.RequireFromString("3"),
		SaleDate:      time.Now().UTC(),
	}
}

func TestDeliveredEventWritesSaleFacts(t *testing.T) {
	inserter := &recordingInserter{}
	c, _ := newConsumer(t, inserter)
	env := deliveredEnvelope(t, enums.OrderStatusDelivered, sale("10", 2), sale("4.5", 1))

	require.NoError(t, c.Process(context.Background(), enums.EventOrderStatusChanged, env))

	require.Len(t, inserter.rows, 2)
	first := inserter.rows[0].(*writer.SaleFactRow)
	assert.Equal(t, env.EventID, first.EventID)
	assert.True(t, first.GuestID.Valid)
	assert.Equal(t, int64(2), first.QuantitySold)
	assert.Equal(t, 0, first.Revenue.Cmp(big.NewRat(20, 1)))
	second := inserter.rows[1].(*writer.SaleFactRow)
	assert.Equal(t, 0, second.Revenue.Cmp(big.NewRat(9, 2)))
}

func TestNonDeliveredEventsAreIgnored(t *testing.T) {
	inserter := &recordingInserter{}
	c, idem := newConsumer(t, inserter)
	ctx := context.Background()

	require.NoError(t, c.Process(ctx, enums.EventOrderStatusChanged, deliveredEnvelope(t, enums.OrderStatusShipped)))
	require.NoError(t, c.Process(ctx, enums.EventOrderStatusChanged, deliveredEnvelope(t, enums.OrderStatusDelivered)))
	require.NoError(t, c.Process(ctx, enums.EventOrderPlaced, deliveredEnvelope(t, enums.OrderStatusDelivered, sale("10", 1))))

	assert.Empty(t, inserter.rows)
	assert.Empty(t, idem.seen)
}

func TestDuplicateDeliveryWritesOnce(t *testing.T) {
	inserter := &recordingInserter{}
	c, _ := newConsumer(t, inserter)
	env := deliveredEnvelope(t, enums.OrderStatusDelivered, sale("10", 1))

	require.NoError(t, c.Process(context.Background(), enums.EventOrderStatusChanged, env))
	require.NoError(t, c.Process(context.Background(), enums.EventOrderStatusChanged, env))
	assert.Len(t, inserter.rows, 1)
}

func TestInsertFailureReleasesEvent(t *testing.T) {
	inserter := &recordingInserter{err: errors.New("bigquery unavailable")}
	c, idem := newConsumer(t, inserter)
	env := deliveredEnvelope(t, enums.OrderStatusDelivered, sale("10", 1))

	require.Error(t, c.Process(context.Background(), enums.EventOrderStatusChanged, env))
	assert.Empty(t, idem.seen)

	inserter.err = nil
	require.NoError(t, c.Process(context.Background(), enums.EventOrderStatusChanged, env))
	assert.Len(t, inserter.rows, 1)
}

func TestNewConsumerRequiresDependencies(t *testing.T) {
	_, err := NewConsumer(nil, nil, nil)
	require.Error(t, err)
}
