package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// Service appends and reads the stock movement ledger.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Append(ctx context.Context, input AppendInput) (*models.LedgerEntry, error)
	Query(ctx context.Context, productID int64) ([]models.LedgerEntry, error)
	Recent(ctx context.Context, limit int) ([]models.LedgerEntry, error)
}

// AppendInput carries every entry field except the id, which the store assigns.
type AppendInput struct {
	Type        enums.MovementType
	Quantity    int64
	ProductID   int64
	ProductName string
	PerformedBy string
	Reference   string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo      Repository
	tx        txRunner
	now       func() time.Time
	recentDef int
	recentMax int
}

// ServiceParams bundles the ledger service dependencies.
type ServiceParams struct {
	Repo          Repository
	TxRunner      txRunner
	Now           func() time.Time
	RecentDefault int
	RecentMax     int
}

// NewService wires a ledger service with the provided repository.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	recentDef := params.RecentDefault
	if recentDef <= 0 {
		recentDef = DefaultRecentLimit
	}
	recentMax := params.RecentMax
	if recentMax < recentDef {
		recentMax = MaxRecentLimit
	}
	return &service{
		repo:      params.Repo,
		tx:        params.TxRunner,
		now:       now,
		recentDef: recentDef,
		recentMax: recentMax,
	}, nil
}

// WithTx returns a service whose appends join the caller's transaction.
func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{
		repo:      s.repo.WithTx(tx),
		now:       s.now,
		recentDef: s.recentDef,
		recentMax: s.recentMax,
	}
}

func (s *service) Append(ctx context.Context, input AppendInput) (*models.LedgerEntry, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if s.tx == nil {
		return s.append(ctx, s.repo, input)
	}

	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		entry, err = s.append(ctx, s.repo.WithTx(tx), input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) append(ctx context.Context, repo Repository, input AppendInput) (*models.LedgerEntry, error) {
	id, err := repo.NextID(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate ledger id")
	}
	entry := &models.LedgerEntry{
		ID:          id,
		Type:        input.Type,
		Quantity:    input.Quantity,
		ProductID:   input.ProductID,
		ProductName: strings.TrimSpace(input.ProductName),
		CreatedAt:   s.now().UTC(),
		PerformedBy: strings.TrimSpace(input.PerformedBy),
		Reference:   strings.TrimSpace(input.Reference),
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}
	return entry, nil
}

func (s *service) Query(ctx context.Context, productID int64) ([]models.LedgerEntry, error) {
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	entries, err := s.repo.ListByProductID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query ledger")
	}
	return entries, nil
}

// Recent returns the newest entries first. A non-positive limit uses the default.
func (s *service) Recent(ctx context.Context, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = s.recentDef
	}
	if limit > s.recentMax {
		limit = s.recentMax
	}
	entries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent ledger entries")
	}
	return entries, nil
}

func (in AppendInput) validate() error {
	if !in.Type.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid movement type %q", in.Type)
	}
	if in.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if in.ProductID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(in.ProductName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if strings.TrimSpace(in.PerformedBy) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "performed by is required")
	}
	return nil
}
