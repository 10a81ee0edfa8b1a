package metrics

import "github.com/prometheus/client_golang/prometheus"

// InventoryMetrics exports the outcome of the stock reconciliation audit.
type InventoryMetrics struct {
	drift       *prometheus.GaugeVec
	driftedRows prometheus.Gauge
	auditedRows prometheus.Gauge
}

func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	m := &InventoryMetrics{
		drift: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "stock_drift",
			Help:      "remaining_stock minus expected stock for product/store pairs that disagree.",
		}, []string{"product_id", "store_id"}),
		driftedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "drifted_rows",
			Help:      "Product/store rows failing reconciliation in the last audit.",
		}),
		auditedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "audited_rows",
			Help:      "Product/store rows checked in the last audit.",
		}),
	}
	reg.MustRegister(m.drift, m.driftedRows, m.auditedRows)
	return m
}

// StockDrift is one reconciliation mismatch.
type StockDrift struct {
	ProductID string
	StoreID   string
	Delta     int
}

// RecordAudit replaces the drift series with the latest audit result.
func (m *InventoryMetrics) RecordAudit(audited int, drifts []StockDrift) {
	if m == nil || m.drift == nil {
		return
	}
	m.drift.Reset()
	for _, d := range drifts {
		m.drift.WithLabelValues(d.ProductID, d.StoreID).Set(float64(d.Delta))
	}
	m.driftedRows.Set(float64(len(drifts)))
	m.auditedRows.Set(float64(audited))
}
