package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/angelmondragon/stockledger-backend/internal/agreements"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/pkg/auth"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/redis"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	lockScope         = "order"
	defaultLockTTL    = 15 * time.Second
	defaultOutletName = "Franchise Outlet"

	// MaxLineQuantity caps the merged quantity of a single order line.
	MaxLineQuantity int64 = 1_000_000
)

// Service drives franchise orders through their lifecycle.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*OrderDTO, error)
	ChangeStatus(ctx context.Context, actor auth.Actor, orderID int64, to enums.OrderStatus) (*OrderDTO, error)
	UploadChallan(ctx context.Context, actor auth.Actor, orderID int64) (*OrderDTO, error)
	Get(ctx context.Context, actor auth.Actor, orderID int64) (*OrderDTO, error)
	List(ctx context.Context, actor auth.Actor, filters ListFilters) ([]OrderDTO, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	products     productLookup
	accounts     accountLookup
	agreements   agreementChecker
	stockRepo    stockLocker
	stock        stock.Accountant
	locker       orderLocker
	metrics      Observer
	logg         *logger.Logger
	now          func() time.Time
	summaryLimit int
	lockTTL      time.Duration
}

// ServiceParams bundles the order engine dependencies. Agreements, Locker,
// Metrics and Logger are optional; a nil Agreements gets a gate over Accounts.
type ServiceParams struct {
	Repo         Repository
	TxRunner     txRunner
	Products     productLookup
	Accounts     accountLookup
	Agreements   agreementChecker
	StockRepo    stockLocker
	Stock        stock.Accountant
	Locker       orderLocker
	Metrics      Observer
	Logger       *logger.Logger
	Now          func() time.Time
	SummaryLimit int
	LockTTL      time.Duration
}

// NewService builds the order engine with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account lookup required")
	}
	if params.StockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock accountant required")
	}
	svc := &service{
		repo:         params.Repo,
		tx:           params.TxRunner,
		products:     params.Products,
		accounts:     params.Accounts,
		agreements:   params.Agreements,
		stockRepo:    params.StockRepo,
		stock:        params.Stock,
		locker:       params.Locker,
		metrics:      params.Metrics,
		logg:         params.Logger,
		now:          params.Now,
		summaryLimit: params.SummaryLimit,
		lockTTL:      params.LockTTL,
	}
	if svc.metrics == nil {
		svc.metrics = noopObserver{}
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.summaryLimit <= 0 {
		svc.summaryLimit = DefaultSummaryLimit
	}
	if svc.lockTTL <= 0 {
		svc.lockTTL = defaultLockTTL
	}
	if svc.agreements == nil {
		gate, err := agreements.NewGate(svc.accounts, svc.now)
		if err != nil {
			return nil, err
		}
		svc.agreements = gate
	}
	return svc, nil
}

// Create places a Pending order for the actor's franchise with prices locked
// from the current catalog. Unknown and inactive products are dropped.
func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*OrderDTO, error) {
	if !actor.IsFranchiseOwner() || actor.FranchiseID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only franchise owners can place orders")
	}

	account, err := s.accounts.FindByFranchiseID(ctx, actor.FranchiseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "franchise account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load franchise account")
	}
	now := s.now().UTC()
	if err := agreements.Require(account, now); err != nil {
		return nil, err
	}

	requested, err := mergeItems(input.Items)
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order must contain at least one item.")
	}

	ids := make([]int64, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	items := make([]models.OrderItem, 0, len(ids))
	total := decimal.Zero
	for _, id := range ids {
		product, ok := catalog[id]
		if !ok || !product.IsActive {
			continue
		}
		qty := requested[id]
		lineTotal := product.BasePrice.Mul(decimal.NewFromInt(qty))
		total = total.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Unit:        product.Unit,
			Quantity:    qty,
			UnitPrice:   product.BasePrice,
			LineTotal:   lineTotal,
		})
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "none of the requested products are available")
	}

	outlet := account.Outlet()
	if outlet == "" {
		outlet = defaultOutletName
	}
	order := &models.Order{
		FranchiseID:  actor.FranchiseID,
		OutletName:   outlet,
		PlacedBy:     actor.AccountID,
		Status:       enums.OrderStatusPending,
		TotalAmount:  total,
		ItemsCount:   len(items),
		ItemsSummary: buildSummary(items, s.summaryLimit),
		CreatedAt:    now,
		Items:        items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		id, err := repo.NextID(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order id")
		}
		order.ID = id
		for i := range order.Items {
			order.Items[i].OrderID = id
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID)
	s.logg.Info(ctx, "order placed")
	dto := NewOrderDTO(*order)
	return &dto, nil
}

// ChangeStatus applies a requested transition under a best-effort per-order lock.
func (s *service) ChangeStatus(ctx context.Context, actor auth.Actor, orderID int64, to enums.OrderStatus) (*OrderDTO, error) {
	if !actor.IsManager() && !actor.IsFranchiseOwner() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor role missing")
	}
	ctx = s.logg.WithOrderID(ctx, orderID)

	release, err := s.obtainLock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if release != nil {
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logg.Warn(ctx, fmt.Sprintf("release order lock: %v", err))
			}
		}()
	}

	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(actor, order, to); err != nil {
		return nil, err
	}

	from := order.Status
	act, err := decide(from, to)
	if err != nil {
		s.metrics.ObserveRejection(string(to), string(pkgerrors.As(err).Code()))
		return nil, err
	}

	switch act {
	case actionNoop:
		dto := NewOrderDTO(*order)
		return &dto, nil
	case actionSetStatus:
		if err := s.setStatus(ctx, order, to); err != nil {
			return nil, err
		}
	case actionDispatch:
		if err := s.dispatch(ctx, order); err != nil {
			if typed := pkgerrors.As(err); typed != nil {
				s.metrics.ObserveRejection(string(to), string(typed.Code()))
			}
			return nil, err
		}
	}

	s.metrics.ObserveTransition(string(from), string(to))
	s.logg.Info(ctx, fmt.Sprintf("order moved %s -> %s", from, to))

	updated, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(*updated)
	return &dto, nil
}

func (s *service) setStatus(ctx context.Context, order *models.Order, to enums.OrderStatus) error {
	ok, err := s.repo.UpdateStatus(ctx, order.ID, order.Status, to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}
	return nil
}

// dispatch re-checks the franchise agreement, validates every line against
// locked product rows, then posts one OUT per line and flips the status, all in
// one transaction.
func (s *service) dispatch(ctx context.Context, order *models.Order) error {
	if err := s.agreements.RequireFranchise(ctx, order.FranchiseID); err != nil {
		return err
	}

	lines := append([]models.OrderItem(nil), order.Items...)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	performedBy := fmt.Sprintf("System (Order #%d)", order.ID)
	reference := fmt.Sprintf("Dispatch Order #%d", order.ID)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		stockRepo := s.stockRepo.WithTx(tx)
		for _, line := range lines {
			product, err := stockRepo.LockProduct(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Newf(pkgerrors.CodeNotFound, "Product ID %d not found", line.ProductID)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
			}
			if product.CurrentStock < line.Quantity {
				return stock.InsufficientStockError(*product, line.Quantity)
			}
		}

		accountant := s.stock.WithTx(tx)
		for _, line := range lines {
			if _, err := accountant.Adjust(ctx, stock.AdjustInput{
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
				Type:        enums.MovementTypeOut,
				PerformedBy: performedBy,
				Reference:   reference,
			}); err != nil {
				return err
			}
		}

		ok, err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, order.Status, enums.OrderStatusDispatched)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, line := range lines {
		s.metrics.ObserveMovement(string(enums.MovementTypeOut), line.Quantity)
	}
	return nil
}

// UploadChallan sets the one-shot challan flag regardless of status.
func (s *service) UploadChallan(ctx context.Context, actor auth.Actor, orderID int64) (*OrderDTO, error) {
	if !actor.IsManager() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only warehouse managers can upload challans")
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.ChallanUploaded {
		return nil, challanUploadedError()
	}
	ok, err := s.repo.MarkChallanUploaded(ctx, orderID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark challan uploaded")
	}
	if !ok {
		return nil, challanUploadedError()
	}

	updated, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(*updated)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, orderID int64) (*OrderDTO, error) {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, order); err != nil {
		return nil, err
	}
	dto := NewOrderDTO(*order)
	return &dto, nil
}

// List returns orders newest first. Franchise owners only see their own.
func (s *service) List(ctx context.Context, actor auth.Actor, filters ListFilters) ([]OrderDTO, error) {
	switch {
	case actor.IsManager():
	case actor.IsFranchiseOwner():
		if actor.FranchiseID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "franchise context missing")
		}
		filters.FranchiseID = actor.FranchiseID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor role missing")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	orders, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return NewOrderDTOs(orders), nil
}

func (s *service) load(ctx context.Context, repo Repository, orderID int64) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// obtainLock returns a nil release when no locker is configured or the lock
// store is unreachable. A lock held elsewhere is a Conflict.
func (s *service) obtainLock(ctx context.Context, orderID int64) (redis.ReleaseFunc, error) {
	if s.locker == nil {
		return nil, nil
	}
	release, err := s.locker.Obtain(ctx, lockScope, strconv.FormatInt(orderID, 10), s.lockTTL)
	if errors.Is(err, redis.ErrLockHeld) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is being updated by another request")
	}
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("order lock unavailable, continuing without it: %v", err))
		return nil, nil
	}
	return release, nil
}

func authorizeRead(actor auth.Actor, order *models.Order) error {
	if actor.IsManager() {
		return nil
	}
	if actor.IsFranchiseOwner() && actor.FranchiseID != "" && actor.FranchiseID == order.FranchiseID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another franchise")
}

func authorizeTransition(actor auth.Actor, order *models.Order, to enums.OrderStatus) error {
	if actor.IsManager() {
		return nil
	}
	if err := authorizeRead(actor, order); err != nil {
		return err
	}
	if to != enums.OrderStatusCancelled && to != enums.OrderStatusDelivered {
		return pkgerrors.Newf(pkgerrors.CodeForbidden, "franchise owners cannot move orders to %s", to)
	}
	return nil
}

func challanUploadedError() error {
	return pkgerrors.New(pkgerrors.CodeChallanUploaded, "Challan already uploaded. Documents are immutable.")
}

// mergeItems drops non-positive quantities and sums repeated products. A
// product whose summed quantity exceeds MaxLineQuantity rejects the order.
func mergeItems(items []ItemInput) (map[int64]int64, error) {
	out := make(map[int64]int64, len(items))
	for _, item := range items {
		if item.Quantity <= 0 || item.ProductID <= 0 {
			continue
		}
		if item.Quantity > MaxLineQuantity-out[item.ProductID] {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity for product %d exceeds %d", item.ProductID, MaxLineQuantity).
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		out[item.ProductID] += item.Quantity
	}
	return out, nil
}
