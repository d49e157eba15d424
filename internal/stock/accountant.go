package stock

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Accountant keeps the cached product stock and the ledger moving together.
type Accountant interface {
	WithTx(tx *gorm.DB) Accountant
	Derive(ctx context.Context, productID int64) (int64, error)
	Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error)
	Reconcile(ctx context.Context, productID int64, heal bool) (*Reconciliation, error)
	ReconcileAll(ctx context.Context, heal bool) ([]Reconciliation, error)
}

// AdjustInput describes one IN or OUT movement.
type AdjustInput struct {
	ProductID   int64
	Quantity    int64
	Type        enums.MovementType
	PerformedBy string
	Reference   string
}

// AdjustResult is the appended entry plus the cached stock after the movement.
type AdjustResult struct {
	Entry    *models.LedgerEntry
	NewStock int64
}

// Reconciliation compares the cached stock with the ledger-derived value.
type Reconciliation struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Cached      int64  `json:"cached"`
	Derived     int64  `json:"derived"`
	Drift       int64  `json:"drift"`
	Healed      bool   `json:"healed"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type movementObserver interface {
	ObserveMovement(movementType string, quantity int64)
	SetDrift(productID string, drift int64)
}

type noopObserver struct{}

func (noopObserver) ObserveMovement(string, int64) {}
func (noopObserver) SetDrift(string, int64)        {}

type accountant struct {
	repo     Repository
	ledger   ledger.Service
	ledgerDB ledger.Repository
	tx       txRunner
	metrics  movementObserver
}

// AccountantParams bundles the accountant dependencies.
type AccountantParams struct {
	Repo       Repository
	Ledger     ledger.Service
	LedgerRepo ledger.Repository
	TxRunner   txRunner
	Metrics    movementObserver
}

func NewAccountant(params AccountantParams) (Accountant, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.LedgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	var observer movementObserver = noopObserver{}
	if params.Metrics != nil {
		observer = params.Metrics
	}
	return &accountant{
		repo:     params.Repo,
		ledger:   params.Ledger,
		ledgerDB: params.LedgerRepo,
		tx:       params.TxRunner,
		metrics:  observer,
	}, nil
}

// WithTx binds every read and write to the caller's transaction. The caller
// owns commit and rollback.
func (a *accountant) WithTx(tx *gorm.DB) Accountant {
	if tx == nil {
		return a
	}
	return &accountant{
		repo:     a.repo.WithTx(tx),
		ledger:   a.ledger.WithTx(tx),
		ledgerDB: a.ledgerDB.WithTx(tx),
		metrics:  a.metrics,
	}
}

// Derive returns sum(IN) - sum(OUT) over the product's ledger entries.
func (a *accountant) Derive(ctx context.Context, productID int64) (int64, error) {
	if _, err := a.findProduct(ctx, a.repo, productID); err != nil {
		return 0, err
	}
	balance, err := a.ledgerDB.Balance(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "derive stock")
	}
	return balance, nil
}

func (a *accountant) Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if a.tx == nil {
		return a.adjust(ctx, a.repo, a.ledger, input)
	}

	var result *AdjustResult
	err := a.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = a.adjust(ctx, a.repo.WithTx(tx), a.ledger.WithTx(tx), input)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.metrics.ObserveMovement(string(input.Type), input.Quantity)
	return result, nil
}

func (a *accountant) adjust(ctx context.Context, repo Repository, led ledger.Service, input AdjustInput) (*AdjustResult, error) {
	delta := input.Type.Sign() * input.Quantity

	applied, err := repo.ApplyDelta(ctx, input.ProductID, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cached stock")
	}

	product, err := a.findProduct(ctx, repo, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, InsufficientStockError(*product, input.Quantity)
	}

	entry, err := led.Append(ctx, ledger.AppendInput{
		Type:        input.Type,
		Quantity:    input.Quantity,
		ProductID:   product.ID,
		ProductName: product.Name,
		PerformedBy: input.PerformedBy,
		Reference:   input.Reference,
	})
	if err != nil {
		return nil, err
	}

	return &AdjustResult{Entry: entry, NewStock: product.CurrentStock}, nil
}

// Reconcile compares cached and derived stock under a product row lock and,
// when heal is set, rewrites the cached value from the ledger.
func (a *accountant) Reconcile(ctx context.Context, productID int64, heal bool) (*Reconciliation, error) {
	var rec Reconciliation
	run := func(repo Repository, balances ledger.Repository) error {
		var err error
		rec, err = a.reconcile(ctx, repo, balances, productID, heal)
		return err
	}

	var err error
	if a.tx == nil {
		err = run(a.repo, a.ledgerDB)
	} else {
		err = a.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return run(a.repo.WithTx(tx), a.ledgerDB.WithTx(tx))
		})
	}
	if err != nil {
		return nil, err
	}

	a.metrics.SetDrift(strconv.FormatInt(rec.ProductID, 10), rec.Drift)
	if rec.Healed {
		a.metrics.SetDrift(strconv.FormatInt(rec.ProductID, 10), 0)
	}
	return &rec, nil
}

// ReconcileAll walks every product. Products without ledger entries derive to zero.
// A failing product does not stop the walk; failures are combined in the error.
func (a *accountant) ReconcileAll(ctx context.Context, heal bool) ([]Reconciliation, error) {
	products, err := a.repo.ListProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	out := make([]Reconciliation, 0, len(products))
	var errs error
	for _, product := range products {
		rec, err := a.Reconcile(ctx, product.ID, heal)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %d: %w", product.ID, err))
			continue
		}
		out = append(out, *rec)
	}
	return out, errs
}

func (a *accountant) reconcile(ctx context.Context, repo Repository, balances ledger.Repository, productID int64, heal bool) (Reconciliation, error) {
	product, err := repo.LockProduct(ctx, productID)
	if err != nil {
		return Reconciliation{}, mapProductErr(err, productID)
	}
	derived, err := balances.Balance(ctx, productID)
	if err != nil {
		return Reconciliation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "derive stock")
	}

	rec := Reconciliation{
		ProductID:   product.ID,
		ProductName: product.Name,
		Cached:      product.CurrentStock,
		Derived:     derived,
		Drift:       product.CurrentStock - derived,
	}
	if !heal || rec.Drift == 0 {
		return rec, nil
	}
	if err := repo.SetStock(ctx, product.ID, derived); err != nil {
		return rec, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "heal cached stock")
	}
	rec.Healed = true
	return rec, nil
}

func (a *accountant) findProduct(ctx context.Context, repo Repository, productID int64) (*models.Product, error) {
	product, err := repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, mapProductErr(err, productID)
	}
	return product, nil
}

func mapProductErr(err error, productID int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", productID))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}

// InsufficientStockError names the short product and both quantities.
func InsufficientStockError(product models.Product, required int64) error {
	return pkgerrors.New(
		pkgerrors.CodeInsufficientStock,
		fmt.Sprintf("Insufficient stock for %s. Available: %d, Required: %d", product.Name, product.CurrentStock, required),
	).WithDetails(map[string]any{
		"product_id":   product.ID,
		"product_name": product.Name,
		"available":    product.CurrentStock,
		"required":     required,
	})
}

func (in AdjustInput) validate() error {
	if in.Type != enums.MovementTypeIn && in.Type != enums.MovementTypeOut {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("stock adjustments must be IN or OUT, got %q", in.Type))
	}
	if in.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if in.ProductID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return nil
}
