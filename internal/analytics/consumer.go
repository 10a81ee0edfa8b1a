// Package analytics streams delivered sales into the BigQuery fact table.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vivaflower/storefront-backend/internal/analytics/writer"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/outbox"
	"github.com/vivaflower/storefront-backend/pkg/outbox/payloads"
)

const analyticsConsumerName = "analytics"

type salesWriter interface {
	InsertSales(ctx context.Context, rows ...writer.SaleFactRow) error
	Flush(ctx context.Context) error
	Discard()
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer writes one fact row per sale carried by a delivered transition.
type Consumer struct {
	writer  salesWriter
	manager idempotencyChecker
	logg    *logger.Logger
	now     func() time.Time
}

func NewConsumer(w salesWriter, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if w == nil {
		return nil, fmt.Errorf("sales writer required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		writer:  w,
		manager: manager,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})
	if eventType != enums.EventOrderStatusChanged {
		return nil
	}

	var payload payloads.OrderStatusChangedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to decode status payload", err)
		return nil
	}
	if payload.Status != enums.OrderStatusDelivered || len(payload.Sales) == 0 {
		return nil
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}
	already, err := c.manager.CheckAndMarkProcessed(ctx, analyticsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	rows := buildRows(envelope.EventID, payload, c.now())
	err = c.writer.InsertSales(ctx, rows...)
	if err == nil {
		err = c.writer.Flush(ctx)
	}
	if err != nil {
		c.writer.Discard()
		c.logg.Error(logCtx, "failed to insert sales facts", err)
		_ = c.manager.Delete(ctx, analyticsConsumerName, eventID)
		return err
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"order_id": payload.OrderID.String(),
		"rows":     len(rows),
	}), "sales facts ingested")
	return nil
}

func buildRows(eventID string, payload payloads.OrderStatusChangedEvent, ingestedAt time.Time) []writer.SaleFactRow {
	guest := cbigquery.NullString{}
	if payload.GuestID != nil {
		guest = cbigquery.NullString{StringVal: payload.GuestID.String(), Valid: true}
	}
	rows := make([]writer.SaleFactRow, 0, len(payload.Sales))
	for _, sale := range payload.Sales {
		revenue := sale.SalePrice.Mul(decimal.NewFromInt(int64(sale.QuantitySold)))
		rows = append(rows, writer.SaleFactRow{
			EventID:       eventID,
			SaleID:        sale.SaleID.String(),
			OrderID:       payload.OrderID.String(),
			OrderDetailID: sale.OrderDetailID.String(),
			GuestID:       guest,
			ProductID:     sale.ProductID.String(),
			StoreID:       sale.StoreID.String(),
			SalePrice:     sale.SalePrice.Rat(),
			QuantitySold:  int64(sale.QuantitySold),
			Revenue:       revenue.Rat(),
			VAT:           sale.VAT.Rat(),
			ShippingCost:  sale.ShippingCost.Rat(),
			SaleDate:      sale.SaleDate.UTC(),
			IngestedAt:    ingestedAt,
		})
	}
	return rows
}
