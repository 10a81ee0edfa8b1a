package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/pkg/db/models"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service exposes stock intake, the stock ledger used by order workflows and
// the reconciliation audit.
type Service interface {
	AddIncoming(ctx context.Context, input AddIncomingInput) (*IncomingDTO, error)
	DeleteIncoming(ctx context.Context, id uuid.UUID) error
	GetIncoming(ctx context.Context, id uuid.UUID) (*IncomingDTO, error)
	ListIncoming(ctx context.Context, filter IncomingFilter, page pagination.Params) (*pagination.Page[IncomingDTO], error)
	ExpenditureStatistics(ctx context.Context, filter ExpenditureFilter) (*ExpenditureDTO, error)
	GetStock(ctx context.Context, productID, storeID uuid.UUID) (*StockDTO, error)

	CheckAvailability(ctx context.Context, tx *gorm.DB, lines []Line) error
	CommitLines(ctx context.Context, tx *gorm.DB, lines []Line) error
	RestockLines(ctx context.Context, tx *gorm.DB, lines []Line) error

	Audit(ctx context.Context) (*AuditReport, error)
}

// Line is the stock footprint of one order line.
type Line struct {
	ProductID   uuid.UUID
	StoreID     uuid.UUID
	ProductName string
	Quantity    int
}

type service struct {
	repo     Repository
	tx       txRunner
	products productLookup
	stores   storeLookup
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, tx txRunner, products productLookup, stores storeLookup, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		stores:   stores,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) AddIncoming(ctx context.Context, input AddIncomingInput) (*IncomingDTO, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, lookupError(err, "product not found")
	}
	if _, err := s.stores.FindByID(ctx, input.StoreID); err != nil {
		return nil, lookupError(err, "store not found")
	}

	effective := s.now()
	if input.EffectiveDate != nil {
		effective = input.EffectiveDate.UTC()
	}
	incoming := models.ProductIncoming{
		ProductID:     input.ProductID,
		StoreID:       input.StoreID,
		CostPrice:     input.CostPrice,
		QuantityIn:    input.QuantityIn,
		VAT:           input.VAT,
		ShippingCost:  input.ShippingCost,
		EffectiveDate: effective,
	}

	var stock *models.ProductStore
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.EnsureStock(ctx, input.ProductID, input.StoreID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure stock row")
		}
		if err := repo.Receive(ctx, row.ID, input.QuantityIn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "receive stock")
		}
		if err := repo.CreateIncoming(ctx, &incoming); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create incoming")
		}
		stock, err = repo.FindStock(ctx, input.ProductID, input.StoreID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id":      input.ProductID.String(),
			"store_id":        input.StoreID.String(),
			"quantity_in":     input.QuantityIn,
			"remaining_stock": stock.RemainingStock,
		})
		s.logg.Info(logCtx, "incoming stock received")
	}

	incoming.Product = product
	dto := mapIncoming(incoming)
	dto.Stock = mapStock(*stock)
	return &dto, nil
}

// DeleteIncoming reverses a receipt. The units must still be on hand; stock
// already committed to orders cannot be taken back.
func (s *service) DeleteIncoming(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "incoming id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		incoming, err := repo.FindIncoming(ctx, id)
		if err != nil {
			return lookupError(err, "incoming stock not found")
		}
		stock, err := repo.FindStock(ctx, incoming.ProductID, incoming.StoreID)
		if err != nil {
			return lookupError(err, "stock row not found")
		}
		ok, err := repo.ReverseReceipt(ctx, stock.ID, incoming.QuantityIn)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse receipt")
		}
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
				"Cannot remove incoming stock of %d units. Available: %d", incoming.QuantityIn, stock.RemainingStock).
				WithDetails(map[string]any{
					"incoming_id": id.String(),
					"requested":   incoming.QuantityIn,
					"available":   stock.RemainingStock,
				})
		}
		deleted, err := repo.MarkIncomingDeleted(ctx, id, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete incoming")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "incoming stock not found")
		}
		return nil
	})
}

func (s *service) GetIncoming(ctx context.Context, id uuid.UUID) (*IncomingDTO, error) {
	incoming, err := s.repo.FindIncoming(ctx, id)
	if err != nil {
		return nil, lookupError(err, "incoming stock not found")
	}
	dto := mapIncoming(*incoming)
	return &dto, nil
}

func (s *service) ListIncoming(ctx context.Context, filter IncomingFilter, page pagination.Params) (*pagination.Page[IncomingDTO], error) {
	rows, window, err := s.repo.ListIncoming(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list incoming stock")
	}
	items := make([]IncomingDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapIncoming(row))
	}
	result := pagination.NewPage(window, items)
	return &result, nil
}

func (s *service) ExpenditureStatistics(ctx context.Context, filter ExpenditureFilter) (*ExpenditureDTO, error) {
	sums, err := s.repo.SumExpenditure(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum expenditure")
	}
	return &ExpenditureDTO{
		TotalExpenditure: sums.Total().Round(2),
		CostPrice:        sums.CostPrice.Round(2),
		VAT:              sums.VAT.Round(2),
		ShippingCost:     sums.ShippingCost.Round(2),
	}, nil
}

func (s *service) GetStock(ctx context.Context, productID, storeID uuid.UUID) (*StockDTO, error) {
	if productID == uuid.Nil || storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id and store_id are required")
	}
	stock, err := s.repo.FindStock(ctx, productID, storeID)
	if err != nil {
		return nil, lookupError(err, "product is not stocked in this store")
	}
	return mapStock(*stock), nil
}

// CheckAvailability verifies every line against remaining_stock without
// changing it. Quantities of lines sharing a product and store are summed.
func (s *service) CheckAvailability(ctx context.Context, tx *gorm.DB, lines []Line) error {
	repo := s.repo.WithTx(tx)
	for _, line := range mergeLines(lines) {
		stock, err := repo.FindStock(ctx, line.ProductID, line.StoreID)
		if err != nil {
			return lookupError(err, fmt.Sprintf("%s is not stocked in this store", line.ProductName))
		}
		if stock.RemainingStock < line.Quantity {
			return insufficientStock(line, stock.RemainingStock)
		}
	}
	return nil
}

// CommitLines decrements stock for every line with a guarded update. The first
// line that does not fit aborts with InsufficientStock; the caller's
// transaction rolls back the lines already taken.
func (s *service) CommitLines(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock commit")
	}
	repo := s.repo.WithTx(tx)
	for _, line := range mergeLines(lines) {
		stock, err := repo.FindStock(ctx, line.ProductID, line.StoreID)
		if err != nil {
			return lookupError(err, fmt.Sprintf("%s is not stocked in this store", line.ProductName))
		}
		ok, err := repo.TryDecrement(ctx, stock.ID, line.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			available := stock.RemainingStock
			if current, err := repo.FindStock(ctx, line.ProductID, line.StoreID); err == nil {
				available = current.RemainingStock
			}
			return insufficientStock(line, available)
		}
	}
	return nil
}

// RestockLines puts returned quantities back on the shelf.
func (s *service) RestockLines(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for restock")
	}
	repo := s.repo.WithTx(tx)
	for _, line := range mergeLines(lines) {
		stock, err := repo.EnsureStock(ctx, line.ProductID, line.StoreID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock row")
		}
		if err := repo.Restock(ctx, stock.ID, line.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock")
		}
	}
	return nil
}

func (s *service) Audit(ctx context.Context) (*AuditReport, error) {
	rows, err := s.repo.AuditRows(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load audit rows")
	}
	report := &AuditReport{Audited: len(rows)}
	for _, row := range rows {
		if row.Drift() != 0 {
			report.Drifts = append(report.Drifts, row)
		}
	}
	return report, nil
}

// AuditReport lists ledger rows whose remaining stock disagrees with receipts
// minus committed order quantities.
type AuditReport struct {
	Audited int
	Drifts  []AuditRow
}

func mergeLines(lines []Line) []Line {
	type key struct{ product, store uuid.UUID }
	index := make(map[key]int, len(lines))
	merged := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		k := key{line.ProductID, line.StoreID}
		if i, ok := index[k]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[k] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

func insufficientStock(line Line, available int) error {
	if available < 0 {
		available = 0
	}
	return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "Not enough stock for %s. Available: %d", line.ProductName, available).
		WithDetails(map[string]any{
			"product_id":   line.ProductID.String(),
			"store_id":     line.StoreID.String(),
			"product_name": line.ProductName,
			"requested":    line.Quantity,
			"available":    available,
		})
}

func lookupError(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

var zero = decimal.Zero

// AddIncomingInput is a validated goods receipt.
type AddIncomingInput struct {
	ProductID     uuid.UUID
	StoreID       uuid.UUID
	CostPrice     decimal.Decimal
	QuantityIn    int
	VAT           decimal.Decimal
	ShippingCost  decimal.Decimal
	EffectiveDate *time.Time
}

func (in AddIncomingInput) validate() error {
	details := map[string]string{}
	if in.ProductID == uuid.Nil {
		details["product_id"] = "is required"
	}
	if in.StoreID == uuid.Nil {
		details["store_id"] = "is required"
	}
	if in.QuantityIn <= 0 {
		details["quantity_in"] = "must be greater than 0"
	}
	if in.CostPrice.LessThan(zero) {
		details["cost_price"] = "must be at least 0"
	}
	if in.VAT.LessThan(zero) {
		details["vat"] = "must be at least 0"
	}
	if in.ShippingCost.LessThan(zero) {
		details["shipping_cost"] = "must be at least 0"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}
