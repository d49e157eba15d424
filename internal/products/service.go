package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/pkg/auth"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	referenceInitialCreation = "Initial Creation"
	referenceManualIn        = "Manual Stock In"
	referenceManualOut       = "Manual Stock Out"
	defaultCurrencySymbol    = "₹"
)

// Service exposes warehouse catalog operations.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateProductInput) (*ProductDTO, error)
	UpdatePrice(ctx context.Context, actor auth.Actor, productID int64, price decimal.Decimal) (*ProductDTO, error)
	UpdateThresholds(ctx context.Context, actor auth.Actor, productID int64, input ThresholdsInput) (*ProductDTO, error)
	AddStock(ctx context.Context, actor auth.Actor, productID, quantity int64) (*ProductDTO, error)
	Update(ctx context.Context, actor auth.Actor, productID int64, input UpdateProductInput) (*UpdateResult, error)
	Get(ctx context.Context, productID int64) (*ProductDTO, error)
	List(ctx context.Context) ([]ProductDTO, error)
	ListActive(ctx context.Context) ([]ProductDTO, error)
	Stock(ctx context.Context, productID int64) (*StockDTO, error)
	Reconcile(ctx context.Context, actor auth.Actor, productID int64, heal bool) (*stock.Reconciliation, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name      string
	Unit      string
	BasePrice decimal.Decimal
}

// ThresholdsInput carries optional low and critical stock levels.
type ThresholdsInput struct {
	MinLevel      *int64
	CriticalLevel *int64
}

// UpdateProductInput holds the optional pieces of the combined update.
type UpdateProductInput struct {
	Price         *decimal.Decimal
	AddStock      *int64
	MinLevel      *int64
	CriticalLevel *int64
}

func (in UpdateProductInput) empty() bool {
	return in.Price == nil && in.AddStock == nil && in.MinLevel == nil && in.CriticalLevel == nil
}

type movementObserver interface {
	ObserveMovement(movementType string, quantity int64)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	ledger   ledger.Service
	stock    stock.Accountant
	metrics  movementObserver
	currency string
}

// ServiceParams bundles the catalog dependencies.
type ServiceParams struct {
	Repo           *Repository
	DB             *db.Client
	Ledger         ledger.Service
	Stock          stock.Accountant
	Metrics        movementObserver
	CurrencySymbol string
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock accountant required")
	}
	currency := params.CurrencySymbol
	if currency == "" {
		currency = defaultCurrencySymbol
	}
	return &service{
		repo:     params.Repo,
		dbClient: params.DB,
		ledger:   params.Ledger,
		stock:    params.Stock,
		metrics:  params.Metrics,
		currency: currency,
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateProductInput) (*ProductDTO, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	unit := strings.TrimSpace(input.Unit)
	if name == "" || unit == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and unit are required")
	}
	if !input.BasePrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}

	var created *models.Product
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		exists, err := txRepo.NameExists(ctx, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check product name")
		}
		if exists {
			return duplicateNameError(name)
		}

		id, err := txRepo.NextID(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: allocate product id")
		}
		created, err = txRepo.CreateProduct(ctx, &models.Product{
			ID:            id,
			Name:          name,
			Unit:          unit,
			BasePrice:     input.BasePrice,
			MinLevel:      models.DefaultMinLevel,
			CriticalLevel: models.DefaultCriticalLevel,
			IsActive:      true,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return duplicateNameError(name)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}

		_, err = s.ledger.WithTx(tx).Append(ctx, ledger.AppendInput{
			Type:        enums.MovementTypeCreate,
			Quantity:    0,
			ProductID:   created.ID,
			ProductName: created.Name,
			PerformedBy: actor.PerformedBy(),
			Reference:   referenceInitialCreation,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(*created)
	return &dto, nil
}

func (s *service) UpdatePrice(ctx context.Context, actor auth.Actor, productID int64, price decimal.Decimal) (*ProductDTO, error) {
	res, err := s.Update(ctx, actor, productID, UpdateProductInput{Price: &price})
	if err != nil {
		return nil, err
	}
	return &res.Product, nil
}

func (s *service) UpdateThresholds(ctx context.Context, actor auth.Actor, productID int64, input ThresholdsInput) (*ProductDTO, error) {
	if input.MinLevel == nil && input.CriticalLevel == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_level or critical_level is required")
	}
	res, err := s.Update(ctx, actor, productID, UpdateProductInput{MinLevel: input.MinLevel, CriticalLevel: input.CriticalLevel})
	if err != nil {
		return nil, err
	}
	return &res.Product, nil
}

func (s *service) AddStock(ctx context.Context, actor auth.Actor, productID, quantity int64) (*ProductDTO, error) {
	res, err := s.Update(ctx, actor, productID, UpdateProductInput{AddStock: &quantity})
	if err != nil {
		return nil, err
	}
	return &res.Product, nil
}

// Update applies price, stock and threshold changes in one transaction. A
// negative add-stock is recorded as an OUT movement and cannot overdraw.
func (s *service) Update(ctx context.Context, actor auth.Actor, productID int64, input UpdateProductInput) (*UpdateResult, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if input.Price != nil && !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.AddStock != nil && *input.AddStock == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "add_stock must not be zero")
	}
	if (input.MinLevel != nil && *input.MinLevel < 0) || (input.CriticalLevel != nil && *input.CriticalLevel < 0) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock levels must not be negative")
	}

	var (
		updated  *models.Product
		movement *stock.AdjustInput
	)
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.LockByID(ctx, productID)
		if err != nil {
			return mapProductErr(err, productID)
		}

		if input.MinLevel != nil || input.CriticalLevel != nil {
			minLevel, criticalLevel := product.MinLevel, product.CriticalLevel
			if input.MinLevel != nil {
				minLevel = *input.MinLevel
			}
			if input.CriticalLevel != nil {
				criticalLevel = *input.CriticalLevel
			}
			if criticalLevel > minLevel {
				return pkgerrors.New(pkgerrors.CodeValidation, "critical_level must not exceed min_level")
			}
			if err := txRepo.UpdateThresholds(ctx, product.ID, minLevel, criticalLevel); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update thresholds")
			}
		}

		if input.Price != nil {
			if err := txRepo.UpdatePrice(ctx, product.ID, *input.Price); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update price")
			}
			_, err := s.ledger.WithTx(tx).Append(ctx, ledger.AppendInput{
				Type:        enums.MovementTypePriceUpdate,
				Quantity:    0,
				ProductID:   product.ID,
				ProductName: product.Name,
				PerformedBy: actor.PerformedBy(),
				Reference:   s.priceReference(product.BasePrice, *input.Price),
			})
			if err != nil {
				return err
			}
		}

		if input.AddStock != nil {
			adjust := manualAdjustment(product.ID, *input.AddStock, actor)
			if _, err := s.stock.WithTx(tx).Adjust(ctx, adjust); err != nil {
				return err
			}
			movement = &adjust
		}

		updated, err = txRepo.FindByID(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if movement != nil && s.metrics != nil {
		s.metrics.ObserveMovement(string(movement.Type), movement.Quantity)
	}
	return &UpdateResult{Product: NewProductDTO(*updated), CurrentStock: updated.CurrentStock}, nil
}

func (s *service) Get(ctx context.Context, productID int64) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, mapProductErr(err, productID)
	}
	dto := NewProductDTO(*product)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	return s.list(ctx, false)
}

func (s *service) ListActive(ctx context.Context) ([]ProductDTO, error) {
	return s.list(ctx, true)
}

func (s *service) list(ctx context.Context, activeOnly bool) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return NewProductDTOs(products), nil
}

// Stock reports the cached value next to the ledger-derived one.
func (s *service) Stock(ctx context.Context, productID int64) (*StockDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, mapProductErr(err, productID)
	}
	derived, err := s.stock.Derive(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &StockDTO{
		ProductID: product.ID,
		Cached:    product.CurrentStock,
		Derived:   derived,
		Drift:     product.CurrentStock - derived,
	}, nil
}

func (s *service) Reconcile(ctx context.Context, actor auth.Actor, productID int64, heal bool) (*stock.Reconciliation, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	return s.stock.Reconcile(ctx, productID, heal)
}

func (s *service) priceReference(oldPrice, newPrice decimal.Decimal) string {
	return fmt.Sprintf("Price updated: %s%s -> %s%s", s.currency, oldPrice.String(), s.currency, newPrice.String())
}

func manualAdjustment(productID, quantity int64, actor auth.Actor) stock.AdjustInput {
	in := stock.AdjustInput{
		ProductID:   productID,
		Quantity:    quantity,
		Type:        enums.MovementTypeIn,
		PerformedBy: actor.PerformedBy(),
		Reference:   referenceManualIn,
	}
	if quantity < 0 {
		in.Quantity = -quantity
		in.Type = enums.MovementTypeOut
		in.Reference = referenceManualOut
	}
	return in
}

func requireManager(actor auth.Actor) error {
	if !actor.IsManager() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only warehouse managers can modify the catalog")
	}
	return nil
}

func duplicateNameError(name string) error {
	return pkgerrors.Newf(pkgerrors.CodeDuplicateProductName, "Product with name %q already exists.", name).
		WithDetails(map[string]any{"name": name})
}

func mapProductErr(err error, productID int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d not found", productID)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
}
