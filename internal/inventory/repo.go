package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vivaflower/storefront-backend/pkg/db/models"
	dbtypes "github.com/vivaflower/storefront-backend/pkg/db/types"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
)

// Repository owns the product_store ledger and the goods receipts that feed it.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindStock(ctx context.Context, productID, storeID uuid.UUID) (*models.ProductStore, error)
	EnsureStock(ctx context.Context, productID, storeID uuid.UUID) (*models.ProductStore, error)
	Receive(ctx context.Context, stockID uuid.UUID, qty int) error
	TryDecrement(ctx context.Context, stockID uuid.UUID, qty int) (bool, error)
	Restock(ctx context.Context, stockID uuid.UUID, qty int) error
	ReverseReceipt(ctx context.Context, stockID uuid.UUID, qty int) (bool, error)

	CreateIncoming(ctx context.Context, incoming *models.ProductIncoming) error
	FindIncoming(ctx context.Context, id uuid.UUID) (*models.ProductIncoming, error)
	MarkIncomingDeleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListIncoming(ctx context.Context, filter IncomingFilter, page pagination.Params) ([]models.ProductIncoming, pagination.Window, error)
	SumExpenditure(ctx context.Context, filter ExpenditureFilter) (Expenditure, error)

	AuditRows(ctx context.Context) ([]AuditRow, error)
}

// IncomingFilter narrows the incoming stock listing.
type IncomingFilter struct {
	StoreID     *uuid.UUID
	Dates       dbtypes.DayRange
	ProductName string
}

// ExpenditureFilter narrows the expenditure aggregate.
type ExpenditureFilter struct {
	StoreID *uuid.UUID
	Dates   dbtypes.DayRange
}

// Expenditure is the aggregate spend on incoming stock.
type Expenditure struct {
	CostPrice    decimal.Decimal `json:"cost_price"`
	VAT          decimal.Decimal `json:"vat"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
}

// Total is cost + vat + shipping.
func (e Expenditure) Total() decimal.Decimal {
	return e.CostPrice.Add(e.VAT).Add(e.ShippingCost)
}

// AuditRow pairs a ledger row with the quantity its orders have committed.
type AuditRow struct {
	StockID        uuid.UUID
	ProductID      uuid.UUID
	StoreID        uuid.UUID
	QuantityIn     int
	RemainingStock int
	Committed      int
}

// Expected is the remaining stock the ledger should show.
func (a AuditRow) Expected() int {
	return a.QuantityIn - a.Committed
}

// Drift is remaining_stock minus the expected value; zero when reconciled.
func (a AuditRow) Drift() int {
	return a.RemainingStock - a.Expected()
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindStock(ctx context.Context, productID, storeID uuid.UUID) (*models.ProductStore, error) {
	var stock models.ProductStore
	err := r.db.WithContext(ctx).
		Scopes(dbtypes.ActiveOnly("")).
		Where("product_id = ? AND store_id = ?", productID, storeID).
		Take(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// EnsureStock returns the ledger row for the pair, creating an empty one when
// none exists. A concurrent creator wins the insert and both callers read its row.
func (r *repository) EnsureStock(ctx context.Context, productID, storeID uuid.UUID) (*models.ProductStore, error) {
	stock, err := r.FindStock(ctx, productID, storeID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	row := models.ProductStore{ProductID: productID, StoreID: storeID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	return r.FindStock(ctx, productID, storeID)
}

// Receive adds a goods receipt to both counters.
func (r *repository) Receive(ctx context.Context, stockID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE product_store
		SET quantity_in = quantity_in + ?,
			remaining_stock = remaining_stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, qty, stockID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TryDecrement takes qty units off remaining_stock only when that many are
// left. It reports false when the guard rejected the update.
func (r *repository) TryDecrement(ctx context.Context, stockID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE product_store
		SET remaining_stock = remaining_stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND remaining_stock >= ?
	`, qty, stockID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Restock(ctx context.Context, stockID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE product_store
		SET remaining_stock = remaining_stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, stockID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReverseReceipt undoes Receive when the received units are still on hand.
func (r *repository) ReverseReceipt(ctx context.Context, stockID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE product_store
		SET quantity_in = quantity_in - ?,
			remaining_stock = remaining_stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND remaining_stock >= ? AND quantity_in >= ?
	`, qty, qty, stockID, qty, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateIncoming(ctx context.Context, incoming *models.ProductIncoming) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(incoming).Error
}

func (r *repository) FindIncoming(ctx context.Context, id uuid.UUID) (*models.ProductIncoming, error) {
	var incoming models.ProductIncoming
	err := r.db.WithContext(ctx).
		Preload("Product").
		Scopes(dbtypes.ActiveOnly("")).
		Where("id = ?", id).
		Take(&incoming).Error
	if err != nil {
		return nil, err
	}
	return &incoming, nil
}

// MarkIncomingDeleted moves an active receipt to Deleted(at). It reports false
// when the row was already deleted.
func (r *repository) MarkIncomingDeleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductIncoming{}).
		Scopes(dbtypes.ActiveOnly("")).
		Where("id = ?", id).
		Updates(map[string]any{
			dbtypes.LifecycleColumn: dbtypes.Deleted(at),
			"updated_at":            at.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListIncoming(ctx context.Context, filter IncomingFilter, page pagination.Params) ([]models.ProductIncoming, pagination.Window, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductIncoming{}).
		Scopes(dbtypes.ActiveOnly("product_incomings"), filter.Dates.Scope("product_incomings.effective_date"))
	if filter.StoreID != nil {
		query = query.Where("product_incomings.store_id = ?", *filter.StoreID)
	}
	if filter.ProductName != "" {
		query = query.
			Joins("JOIN products ON products.id = product_incomings.product_id").
			Where("LOWER(products.name) LIKE ? ESCAPE '\\'", "%"+escapeLike(filter.ProductName)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, pagination.Window{}, err
	}
	window := page.Resolve(total)

	var rows []models.ProductIncoming
	err := query.
		Select("product_incomings.*").
		Preload("Product").
		Order("product_incomings.effective_date DESC").
		Order("product_incomings.id ASC").
		Offset(window.Offset()).
		Limit(window.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, pagination.Window{}, err
	}
	return rows, window, nil
}

func (r *repository) SumExpenditure(ctx context.Context, filter ExpenditureFilter) (Expenditure, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductIncoming{}).
		Scopes(dbtypes.ActiveOnly(""), filter.Dates.Scope("effective_date"))
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}

	var sums struct {
		CostPrice    decimal.NullDecimal
		VAT          decimal.NullDecimal
		ShippingCost decimal.NullDecimal
	}
	err := query.Select(
		"SUM(cost_price) AS cost_price, SUM(vat) AS vat, SUM(shipping_cost) AS shipping_cost",
	).Scan(&sums).Error
	if err != nil {
		return Expenditure{}, err
	}
	return Expenditure{
		CostPrice:    sums.CostPrice.Decimal,
		VAT:          sums.VAT.Decimal,
		ShippingCost: sums.ShippingCost.Decimal,
	}, nil
}

// AuditRows computes, for every active ledger row, the quantity committed by
// confirmed, shipped and delivered orders.
func (r *repository) AuditRows(ctx context.Context) ([]AuditRow, error) {
	var rows []AuditRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT ps.id AS stock_id,
			ps.product_id,
			ps.store_id,
			ps.quantity_in,
			ps.remaining_stock,
			COALESCE((
				SELECT SUM(od.quantity)
				FROM order_detail od
				JOIN orders o ON o.id = od.order_id
				WHERE od.product_id = ps.product_id
					AND od.store_id = ps.store_id
					AND od.delete_at IS NULL
					AND o.delete_at IS NULL
					AND o.order_status IN ('confirmed', 'shipped', 'delivered')
			), 0) AS committed
		FROM product_store ps
		WHERE ps.delete_at IS NULL
		ORDER BY ps.product_id, ps.store_id
	`).Scan(&rows).Error
	return rows, err
}

func escapeLike(value string) string {
	out := make([]rune, 0, len(value))
	for _, r := range strings.ToLower(value) {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
