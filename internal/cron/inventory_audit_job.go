package cron

import (
	"context"
	"fmt"

	"github.com/vivaflower/storefront-backend/internal/inventory"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/metrics"
)

type stockAuditor interface {
	Audit(ctx context.Context) (*inventory.AuditReport, error)
}

type auditRecorder interface {
	RecordAudit(audited int, drifts []metrics.StockDrift)
}

type InventoryAuditJobParams struct {
	Logger  *logger.Logger
	Auditor stockAuditor
	Metrics auditRecorder
}

// NewInventoryAuditJob checks remaining stock against receipts minus committed
// order quantities and exports every mismatch.
func NewInventoryAuditJob(params InventoryAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Auditor == nil {
		return nil, fmt.Errorf("inventory auditor required")
	}
	return &inventoryAuditJob{
		logg:    params.Logger,
		auditor: params.Auditor,
		metrics: params.Metrics,
	}, nil
}

type inventoryAuditJob struct {
	logg    *logger.Logger
	auditor stockAuditor
	metrics auditRecorder
}

func (j *inventoryAuditJob) Name() string { return "inventory-audit" }

func (j *inventoryAuditJob) Run(ctx context.Context) error {
	report, err := j.auditor.Audit(ctx)
	if err != nil {
		return fmt.Errorf("inventory audit: %w", err)
	}

	drifts := make([]metrics.StockDrift, 0, len(report.Drifts))
	for _, row := range report.Drifts {
		drifts = append(drifts, metrics.StockDrift{
			ProductID: row.ProductID.String(),
			StoreID:   row.StoreID.String(),
			Delta:     row.Drift(),
		})
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"product_id":      row.ProductID.String(),
			"store_id":        row.StoreID.String(),
			"quantity_in":     row.QuantityIn,
			"committed":       row.Committed,
			"remaining_stock": row.RemainingStock,
			"drift":           row.Drift(),
		}), "stock drift detected")
	}
	if j.metrics != nil {
		j.metrics.RecordAudit(report.Audited, drifts)
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"audited": report.Audited,
		"drifted": len(drifts),
	}), "inventory audit complete")
	return nil
}
