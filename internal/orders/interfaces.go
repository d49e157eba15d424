package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/angelmondragon/stockledger-backend/pkg/redis"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context, filters ListFilters) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to enums.OrderStatus) (bool, error)
	MarkChallanUploaded(ctx context.Context, id int64, at time.Time) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error)
}

type accountLookup interface {
	FindByFranchiseID(ctx context.Context, franchiseID string) (*models.Account, error)
}

type agreementChecker interface {
	RequireFranchise(ctx context.Context, franchiseID string) error
}

type stockLocker interface {
	WithTx(tx *gorm.DB) stock.Repository
}

type orderLocker interface {
	Obtain(ctx context.Context, scope, id string, ttl time.Duration) (redis.ReleaseFunc, error)
}

// Observer receives lifecycle counters. The engine metrics satisfy it.
type Observer interface {
	ObserveTransition(from, to string)
	ObserveRejection(to, reason string)
	ObserveMovement(movementType string, quantity int64)
}

type noopObserver struct{}

func (noopObserver) ObserveTransition(string, string) {}
func (noopObserver) ObserveRejection(string, string)  {}
func (noopObserver) ObserveMovement(string, int64)    {}
