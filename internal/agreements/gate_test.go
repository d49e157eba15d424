package agreements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func accountEnding(end *time.Time) *models.Account {
	code := "F001"
	outlet := "Franchise Outlet"
	start := now.AddDate(-1, 0, 0)
	return &models.Account{FranchiseID: &code, OutletName: &outlet, AgreementStartDate: &start, AgreementEndDate: end}
}

func TestIsValid(t *testing.T) {
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Second)
	exact := now

	assert.True(t, IsValid(accountEnding(&future), now))
	assert.True(t, IsValid(accountEnding(&exact), now))
	assert.False(t, IsValid(accountEnding(&past), now))
	assert.False(t, IsValid(accountEnding(nil), now))
	assert.False(t, IsValid(nil, now))
}

func TestRequireMapsToAgreementExpired(t *testing.T) {
	past := now.AddDate(0, 0, -1)
	err := Require(accountEnding(&past), now)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAgreementExpired))
	assert.Contains(t, err.Error(), "F001")

	future := now.AddDate(0, 1, 0)
	require.NoError(t, Require(accountEnding(&future), now))
}

func TestStatusOf(t *testing.T) {
	future := now.AddDate(1, 0, 0)
	status := StatusOf(accountEnding(&future), now)
	assert.Equal(t, StateActive, status.Status)
	assert.Equal(t, "F001", status.FranchiseID)
	assert.Equal(t, "Franchise Outlet", status.OutletName)

	assert.Equal(t, StateExpired, StatusOf(accountEnding(nil), now).Status)
}

type stubLookup struct {
	account *models.Account
	err     error
}

func (s stubLookup) FindByFranchiseID(context.Context, string) (*models.Account, error) {
	return s.account, s.err
}

func TestGateRequireFranchise(t *testing.T) {
	clock := func() time.Time { return now }
	future := now.AddDate(0, 0, 1)
	past := now.AddDate(0, 0, -1)

	gate, err := NewGate(stubLookup{account: accountEnding(&future)}, clock)
	require.NoError(t, err)
	require.NoError(t, gate.RequireFranchise(context.Background(), "F001"))

	gate, _ = NewGate(stubLookup{account: accountEnding(&past)}, clock)
	err = gate.RequireFranchise(context.Background(), "F001")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAgreementExpired))

	gate, _ = NewGate(stubLookup{err: gorm.ErrRecordNotFound}, clock)
	err = gate.RequireFranchise(context.Background(), "F404")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAgreementExpired))

	_, err = gate.Status(context.Background(), "F404")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	gate, _ = NewGate(stubLookup{err: errors.New("connection reset")}, clock)
	err = gate.RequireFranchise(context.Background(), "F001")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	err = gate.RequireFranchise(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewGateRequiresLookup(t *testing.T) {
	_, err := NewGate(nil, nil)
	require.Error(t, err)
}
