package writer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// SaleFactRow is one delivered order line in the sales fact table.
type SaleFactRow struct {
	EventID       string               `bigquery:"event_id"`
	SaleID        string               `bigquery:"sale_id"`
	OrderID       string               `bigquery:"order_id"`
	OrderDetailID string               `bigquery:"order_detail_id"`
	GuestID       cbigquery.NullString `bigquery:"guest_id"`
	ProductID     string               `bigquery:"product_id"`
	StoreID       string               `bigquery:"store_id"`
	SalePrice     *big.Rat             `bigquery:"sale_price"`
	QuantitySold  int64                `bigquery:"quantity_sold"`
	Revenue       *big.Rat             `bigquery:"revenue"`
	VAT           *big.Rat             `bigquery:"vat"`
	ShippingCost  *big.Rat             `bigquery:"shipping_cost"`
	SaleDate      time.Time            `bigquery:"sale_date"`
	IngestedAt    time.Time            `bigquery:"ingested_at"`
}

// Config controls the sales writer behavior.
type Config struct {
	SalesTable  string
	BatchSize   int
	RetryPolicy RetryPolicy
}

// RetryPolicy controls how many times BigQuery inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter inserts sales facts into BigQuery with retries and optional batching.
type BigQueryWriter struct {
	client     tableInserter
	salesTable string
	batchSize  int
	retry      RetryPolicy

	salesBuffer []SaleFactRow
}

func New(client tableInserter, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	table := strings.TrimSpace(cfg.SalesTable)
	if table == "" {
		return nil, errors.New("sales table is required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	retry := cfg.RetryPolicy
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &BigQueryWriter{
		client:     client,
		salesTable: table,
		batchSize:  batchSize,
		retry:      retry,
	}, nil
}

// InsertSales buffers rows and flushes once the batch size is reached.
func (w *BigQueryWriter) InsertSales(ctx context.Context, rows ...SaleFactRow) error {
	w.salesBuffer = append(w.salesBuffer, rows...)
	if len(w.salesBuffer) >= w.batchSize {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered rows immediately. The buffer is kept on failure.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	if len(w.salesBuffer) == 0 {
		return nil
	}
	rows := make([]any, len(w.salesBuffer))
	for i := range w.salesBuffer {
		rows[i] = &w.salesBuffer[i]
	}
	if err := w.insertWithRetry(ctx, w.salesTable, rows); err != nil {
		return err
	}
	w.salesBuffer = w.salesBuffer[:0]
	return nil
}

// Discard drops buffered rows. Used when a failed batch will be redelivered.
func (w *BigQueryWriter) Discard() {
	w.salesBuffer = w.salesBuffer[:0]
}

func (w *BigQueryWriter) insertWithRetry(ctx context.Context, table string, rows []any) error {
	attempts := 0
	backoff := w.retry.InitialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := w.client.InsertRows(ctx, table, rows)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= w.retry.MaxAttempts || !isRetryableBigQueryError(err) {
			return fmt.Errorf("insert %s rows: %w", table, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff = min(backoff*2, w.retry.MaximumBackoff)
	}
}

func isRetryableBigQueryError(err error) bool {
	if err == nil {
		return false
	}

	var multi *cbigquery.MultiError
	if errors.As(err, &multi) {
		if multi == nil || len(*multi) == 0 {
			return false
		}
		for _, inner := range *multi {
			if !isRetryableBigQueryError(inner) {
				return false
			}
		}
		return true
	}

	var pme *cbigquery.PutMultiError
	if errors.As(err, &pme) {
		if pme == nil || len(*pme) == 0 {
			return false
		}
		for _, rowErr := range *pme {
			if !isRetryableBigQueryError(rowErr.Errors) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return isRetryableHTTPCode(apiErr.Code)
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			return isRetryableGRPCCode(st.Code())
		}
	}

	return false
}

func isRetryableHTTPCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isRetryableGRPCCode(code codes.Code) bool {
	switch code {
	case codes.Aborted,
		codes.DeadlineExceeded,
		codes.Internal,
		codes.ResourceExhausted,
		codes.Unavailable:
		return true
	default:
		return false
	}
}
