package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(client.DB()),
		TxRunner: client,
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc, client
}

func appendEntry(t *testing.T, svc Service, productID int64, typ enums.MovementType, qty int64) *models.LedgerEntry {
	t.Helper()
	entry, err := svc.Append(context.Background(), AppendInput{
		Type:        typ,
		Quantity:    qty,
		ProductID:   productID,
		ProductName: "Rice",
		PerformedBy: "Manager (m@warehouse.test)",
		Reference:   "Manual Stock In",
	})
	require.NoError(t, err)
	return entry
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)

	client := dbtest.Open(t)
	_, err = NewService(ServiceParams{Repo: NewRepository(client.DB())})
	require.Error(t, err)
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	svc, _ := newTestService(t)

	first := appendEntry(t, svc, 1, enums.MovementTypeCreate, 0)
	second := appendEntry(t, svc, 1, enums.MovementTypeIn, 100)
	third := appendEntry(t, svc, 2, enums.MovementTypeIn, 5)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, int64(3), third.ID)
	assert.Equal(t, fixedNow, second.CreatedAt)
}

func TestAppendValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []AppendInput{
		{Type: "ADJUST", Quantity: 1, ProductID: 1, ProductName: "Rice", PerformedBy: "x"},
		{Type: enums.MovementTypeIn, Quantity: -1, ProductID: 1, ProductName: "Rice", PerformedBy: "x"},
		{Type: enums.MovementTypeIn, Quantity: 1, ProductName: "Rice", PerformedBy: "x"},
		{Type: enums.MovementTypeIn, Quantity: 1, ProductID: 1, ProductName: " ", PerformedBy: "x"},
		{Type: enums.MovementTypeIn, Quantity: 1, ProductID: 1, ProductName: "Rice"},
	}
	for _, in := range cases {
		_, err := svc.Append(ctx, in)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v", in)
	}
}

func TestQueryAndRecent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appendEntry(t, svc, 1, enums.MovementTypeCreate, 0)
	appendEntry(t, svc, 2, enums.MovementTypeCreate, 0)
	appendEntry(t, svc, 1, enums.MovementTypeIn, 100)
	appendEntry(t, svc, 1, enums.MovementTypeOut, 30)

	entries, err := svc.Query(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{1, 3, 4}, []int64{entries[0].ID, entries[1].ID, entries[2].ID})

	none, err := svc.Query(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)

	recent, err := svc.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(4), recent[0].ID)
	assert.Equal(t, int64(3), recent[1].ID)

	all, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = svc.Query(ctx, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestBalances(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	repo := NewRepository(client.DB())

	appendEntry(t, svc, 1, enums.MovementTypeCreate, 0)
	appendEntry(t, svc, 1, enums.MovementTypeIn, 100)
	appendEntry(t, svc, 1, enums.MovementTypeOut, 30)
	appendEntry(t, svc, 1, enums.MovementTypePriceUpdate, 0)
	appendEntry(t, svc, 2, enums.MovementTypeIn, 7)

	balance, err := repo.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance)

	empty, err := repo.Balance(ctx, 42)
	require.NoError(t, err)
	assert.Zero(t, empty)

	other, err := repo.Balance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(7), other)
}

func TestAppendInsideCallerTransactionRollsBack(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := svc.WithTx(tx).Append(ctx, AppendInput{
			Type: enums.MovementTypeIn, Quantity: 5, ProductID: 1, ProductName: "Rice", PerformedBy: "x",
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	recent, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	entry := appendEntry(t, svc, 1, enums.MovementTypeIn, 1)
	assert.Equal(t, int64(1), entry.ID)
}

type failingRepo struct{ Repository }

func (f failingRepo) WithTx(*gorm.DB) Repository { return f }

func (failingRepo) NextID(context.Context) (int64, error) { return 0, errors.New("connection reset") }

func TestAppendMapsStoreFailures(t *testing.T) {
	svc, err := NewService(ServiceParams{Repo: failingRepo{}, TxRunner: passthroughRunner{}})
	require.NoError(t, err)

	_, err = svc.Append(context.Background(), AppendInput{
		Type: enums.MovementTypeIn, Quantity: 5, ProductID: 1, ProductName: "Rice", PerformedBy: "x",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

type passthroughRunner struct{}

func (passthroughRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
