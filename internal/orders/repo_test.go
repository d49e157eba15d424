package orders

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCompareAndSet(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	id, err := repo.NextID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1001), id)

	order := &models.Order{
		ID:           id,
		FranchiseID:  "F001",
		OutletName:   "Franchise Outlet",
		PlacedBy:     uuid.New(),
		Status:       enums.OrderStatusPending,
		TotalAmount:  decimal.NewFromInt(80),
		ItemsCount:   1,
		ItemsSummary: "Rice x2",
		CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Items: []models.OrderItem{{
			OrderID: id, ProductID: 1, ProductName: "Rice", Unit: "kg", Quantity: 2,
			UnitPrice: decimal.NewFromInt(40), LineTotal: decimal.NewFromInt(80),
		}},
	}
	require.NoError(t, repo.Create(ctx, order))

	moved, err := repo.UpdateStatus(ctx, id, enums.OrderStatusPending, enums.OrderStatusApproved)
	require.NoError(t, err)
	assert.True(t, moved)
	moved, err = repo.UpdateStatus(ctx, id, enums.OrderStatusPending, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, moved)

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	marked, err := repo.MarkChallanUploaded(ctx, id, at)
	require.NoError(t, err)
	assert.True(t, marked)
	marked, err = repo.MarkChallanUploaded(ctx, id, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, marked)

	loaded, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusApproved, loaded.Status)
	assert.True(t, loaded.ChallanUploaded)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Rice", loaded.Items[0].ProductName)
}
