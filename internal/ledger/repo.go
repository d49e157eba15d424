package ledger

import (
	"context"

	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for stock ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, entry *models.LedgerEntry) error
	ListByProductID(ctx context.Context, productID int64) ([]models.LedgerEntry, error)
	ListRecent(ctx context.Context, limit int) ([]models.LedgerEntry, error)
	Balance(ctx context.Context, productID int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) NextID(ctx context.Context) (int64, error) {
	return db.NextSequence(ctx, r.db, db.SequenceLedger)
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByProductID(ctx context.Context, productID int64) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

const balanceExpr = "COALESCE(SUM(CASE WHEN type = ? THEN quantity WHEN type = ? THEN -quantity ELSE 0 END), 0)"

// Balance returns sum(IN) - sum(OUT) for the product.
func (r *repository) Balance(ctx context.Context, productID int64) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select(balanceExpr, enums.MovementTypeIn, enums.MovementTypeOut).
		Where("product_id = ?", productID).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}
